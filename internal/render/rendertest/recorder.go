// Package rendertest provides a Renderer that records calls for assertions.
package rendertest

import (
	"fmt"
	"slices"

	"github.com/skobkin/ryzenmon/internal/metrics"
	"github.com/skobkin/ryzenmon/internal/render"
)

// Call is one recorded renderer invocation.
type Call struct {
	Op     string
	Group  render.Group
	Datum  render.Datum
	Text   string
	Values []float64
	Units  []metrics.Unit
	Core   render.CoreRow
}

// Recorder implements render.Renderer by appending every call to Calls.
type Recorder struct {
	Calls  []Call
	Frames int

	// EndErr, when set, is returned from every End.
	EndErr error
}

var _ render.Renderer = (*Recorder)(nil)

func (r *Recorder) add(c Call) { r.Calls = append(r.Calls, c) }

func (r *Recorder) Init(repeating, interactive bool) error {
	r.add(Call{Op: "init", Text: fmt.Sprintf("repeating=%t interactive=%t", repeating, interactive)})
	return nil
}

func (r *Recorder) Cleanup() error {
	r.add(Call{Op: "cleanup"})
	return nil
}

func (r *Recorder) Begin() { r.add(Call{Op: "begin"}) }

func (r *Recorder) End() error {
	r.add(Call{Op: "end"})
	r.Frames++
	return r.EndErr
}

func (r *Recorder) BeginGroup(g render.Group) { r.add(Call{Op: "begin_group", Group: g}) }
func (r *Recorder) EndGroup(g render.Group)   { r.add(Call{Op: "end_group", Group: g}) }

func (r *Recorder) String(d render.Datum, v string) {
	r.add(Call{Op: "string", Datum: d, Text: v})
}

func (r *Recorder) Bool(d render.Datum, v bool) {
	r.add(Call{Op: "bool", Datum: d, Text: fmt.Sprint(v)})
}

func (r *Recorder) Int(d render.Datum, v int) {
	r.add(Call{Op: "int", Datum: d, Values: []float64{float64(v)}, Units: []metrics.Unit{metrics.Count}})
}

func (r *Recorder) Float(d render.Datum, v float64, u metrics.Unit) {
	r.add(Call{Op: "float", Datum: d, Values: []float64{v}, Units: []metrics.Unit{u}})
}

func (r *Recorder) Float2(d render.Datum, v1 float64, u1 metrics.Unit, v2 float64, u2 metrics.Unit) {
	r.add(Call{Op: "float2", Datum: d, Values: []float64{v1, v2}, Units: []metrics.Unit{u1, u2}})
}

func (r *Recorder) Float3(d render.Datum, v1 float64, u1 metrics.Unit, v2 float64, u2 metrics.Unit, v3 float64, u3 metrics.Unit) {
	r.add(Call{Op: "float3", Datum: d, Values: []float64{v1, v2, v3}, Units: []metrics.Unit{u1, u2, u3}})
}

func (r *Recorder) Limit(d render.Datum, value, limit float64, u metrics.Unit) {
	r.add(Call{Op: "limit", Datum: d, Values: []float64{value, limit}, Units: []metrics.Unit{u}})
}

func (r *Recorder) Sum(d render.Datum, values []float64, u metrics.Unit) {
	r.add(Call{Op: "sum", Datum: d, Values: slices.Clone(values), Units: []metrics.Unit{u}})
}

func (r *Recorder) Core(row render.CoreRow) {
	r.add(Call{Op: "core", Core: row})
}

// Datum returns the first recorded call for d.
func (r *Recorder) Datum(d render.Datum) (Call, bool) {
	for _, c := range r.Calls {
		if c.IsDatum() && c.Datum == d {
			return c, true
		}
	}
	return Call{}, false
}

// IsDatum reports whether the call emitted a labelled data point.
func (c Call) IsDatum() bool {
	switch c.Op {
	case "string", "bool", "int", "float", "float2", "float3", "limit", "sum":
		return true
	default:
		return false
	}
}

// Groups lists the groups opened, in order.
func (r *Recorder) Groups() []render.Group {
	var out []render.Group
	for _, c := range r.Calls {
		if c.Op == "begin_group" {
			out = append(out, c.Group)
		}
	}
	return out
}

// Cores returns every recorded core row.
func (r *Recorder) Cores() []render.CoreRow {
	var out []render.CoreRow
	for _, c := range r.Calls {
		if c.Op == "core" {
			out = append(out, c.Core)
		}
	}
	return out
}

// Reset drops everything recorded so far.
func (r *Recorder) Reset() {
	r.Calls = nil
	r.Frames = 0
}
