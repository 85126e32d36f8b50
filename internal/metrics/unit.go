package metrics

// Unit tags a metric with its physical dimension.
type Unit int

const (
	Count Unit = iota
	// Ratio values are fractions; 0.5 means 50 %.
	Ratio
	MHz
	Volts
	Amps
	Watts
	Celsius
)

var unitNames = [...]string{
	Count:   "count",
	Ratio:   "ratio",
	MHz:     "mhz",
	Volts:   "volts",
	Amps:    "amps",
	Watts:   "watts",
	Celsius: "celsius",
}

func (u Unit) String() string {
	if u < 0 || int(u) >= len(unitNames) {
		return "unknown"
	}
	return unitNames[u]
}
