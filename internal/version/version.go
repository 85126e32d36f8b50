// Package version tracks build metadata for the application.
package version

import (
	"runtime"
	"strings"
	"sync/atomic"
)

// Info describes build metadata for the application.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
}

// String renders the metadata as a one-line banner, e.g. "ryzenmon v1.2.0 (abc123, go1.25.1)".
func (i Info) String() string {
	var b strings.Builder
	b.WriteString("ryzenmon ")
	b.WriteString(i.Version)

	extras := make([]string, 0, 3)
	if i.Commit != "" {
		extras = append(extras, i.Commit)
	}
	if i.BuildTime != "" {
		extras = append(extras, "built "+i.BuildTime)
	}
	if i.GoVersion != "" {
		extras = append(extras, i.GoVersion)
	}
	if len(extras) > 0 {
		b.WriteString(" (")
		b.WriteString(strings.Join(extras, ", "))
		b.WriteString(")")
	}
	return b.String()
}

var current atomic.Pointer[Info]

func init() {
	Set(Info{})
}

// Set updates the version metadata exposed by the application.
func Set(v Info) {
	if v.Version == "" {
		v.Version = "dev"
	}
	if v.GoVersion == "" {
		v.GoVersion = runtime.Version()
	}
	current.Store(&v)
}

// Current returns the currently configured build metadata.
func Current() Info {
	return *current.Load()
}
