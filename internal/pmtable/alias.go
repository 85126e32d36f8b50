package pmtable

// Alias lets a generic field resolve to another declared field when a layout
// does not declare the generic one itself.
type Alias struct {
	Target   string
	Source   string
	Verified bool
	Note     string
}

// aliases run in order once per bind.
var aliases = []Alias{
	{
		Target:   PackagePower,
		Source:   SocketPower,
		Verified: true,
		Note:     "package and socket power report the same rail",
	},
	{
		Target: VDD18Power,
		Source: IOVDD18Power,
		Note:   "assumed identical rails, readings match on Vermeer captures",
	},
	{
		Target: PPTLimit,
		Source: PPTLimitFast,
		Note:   "APU layouts only expose fast/slow PPT; fast limit is the closest match",
	},
	{
		Target: PPTValue,
		Source: PPTValueFast,
		Note:   "APU layouts only expose fast/slow PPT; fast value is the closest match",
	},
}

// Aliases returns the built-in alias rules.
func Aliases() []Alias {
	out := make([]Alias, len(aliases))
	copy(out, aliases)
	return out
}

func resolveAliases(fields map[string]Field) []Alias {
	var applied []Alias
	for _, rule := range aliases {
		if _, declared := fields[rule.Target]; declared {
			continue
		}
		src, ok := fields[rule.Source]
		if !ok {
			continue
		}
		fields[rule.Target] = src
		applied = append(applied, rule)
	}
	return applied
}
