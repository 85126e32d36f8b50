package render

import (
	"bufio"
	"fmt"
	"io"

	"github.com/muesli/termenv"

	"github.com/skobkin/ryzenmon/internal/metrics"
)

var boxGroupBegin = [groupCount]string{
	GroupSysInfo:       "╭───────────────────────────────────────────────┬────────────────────────────────────────────────╮\n",
	GroupCores:         "╭─────────┬────────────┬──────────┬─────────┬──────────┬─────────────┬─────────────┬─────────────╮\n",
	GroupCoreStatsCalc: "╭── Core Statistics (Calculated) ───────────────┬────────────────────────────────────────────────╮\n",
	GroupCoreStatsSMU:  "├── Reported by SMU ────────────────────────────┼────────────────────────────────────────────────┤\n",
	GroupLimits:        "╭── Electrical & Thermal Constraints ───────────┬────────────────────────────────────────────────╮\n",
	GroupMemory:        "╭── Memory Interface ───────────────────────────┬────────────────────────────────────────────────╮\n",
	GroupGraphics:      "╭── Graphics Subsystem──────────────────────────┬────────────────────────────────────────────────╮\n",
	GroupPower:         "╭── Power Consumption ──────────────────────────┬────────────────────────────────────────────────╮\n",
	GroupPowerReports:  "├── Additional Reports ─────────────────────────┼────────────────────────────────────────────────┤\n",
}

const boxEnd = "╰───────────────────────────────────────────────┴────────────────────────────────────────────────╯\n"

// Groups that are continued by the next one close with nothing.
var boxGroupEnd = [groupCount]string{
	GroupSysInfo:       boxEnd,
	GroupCores:         "╰─────────┴────────────┴──────────┴─────────┴──────────┴─────────────┴─────────────┴─────────────╯\n",
	GroupCoreStatsCalc: "",
	GroupCoreStatsSMU:  boxEnd,
	GroupLimits:        boxEnd,
	GroupMemory:        boxEnd,
	GroupGraphics:      boxEnd,
	GroupPower:         "",
	GroupPowerReports:  boxEnd,
}

var boxFloatFormat = map[metrics.Unit]string{
	metrics.Ratio:   "%6.2f %%",
	metrics.MHz:     "%8.0f MHz",
	metrics.Volts:   "%7.4f V",
	metrics.Watts:   "%7.3f W",
	metrics.Celsius: "%8.2f C",
}

var boxFloat2Format = map[[2]metrics.Unit]string{
	{metrics.Volts, metrics.Watts}: "%7.4f V | %8.3f W",
	{metrics.MHz, metrics.MHz}:     "%5.f MHz | %6.f MHz",
	{metrics.Amps, metrics.Ratio}:  "%7.3f A | %8.2f %%",
	{metrics.Count, metrics.Count}: "%2.f | %8.2f  ",
}

var boxFloat3Format = map[[3]metrics.Unit]string{
	{metrics.Volts, metrics.Amps, metrics.Watts}: "%8.3f V | %7.3f A | %8.3f W",
	{metrics.Watts, metrics.MHz, metrics.Ratio}:  "%7.3f W | %5.f MHz | %8.2f %%",
}

var boxLimitFormat = map[metrics.Unit]string{
	metrics.Count:   "%7.f   | %7.f   | %8.2f %%",
	metrics.Volts:   "%7.3f V | %7.3f V | %8.2f %%",
	metrics.Amps:    "%7.3f A | %7.f A | %8.2f %%",
	metrics.Watts:   "%7.3f W | %7.f W | %8.2f %%",
	metrics.Celsius: "%7.2f C | %7.f C | %8.2f %%",
}

// Box draws frames as a two-column box table.
type Box struct {
	tracker

	w        *bufio.Writer
	term     *termenv.Output
	controls bool
}

// NewBox returns a box renderer writing to w.
func NewBox(w io.Writer) *Box {
	bw := bufio.NewWriter(w)
	return &Box{
		w:    bw,
		term: termenv.NewOutput(bw, termenv.WithProfile(termenv.Ascii)),
	}
}

// Init enables cursor and screen control when the frame repeats on a terminal.
func (b *Box) Init(repeating, interactive bool) error {
	if !b.init() {
		return b.err
	}
	b.controls = repeating && interactive
	if b.controls {
		b.term.HideCursor()
	}
	return b.flush()
}

func (b *Box) Cleanup() error {
	if b.cleanup() && b.controls {
		b.term.ShowCursor()
	}
	return b.flush()
}

func (b *Box) Begin() {
	if b.begin() && b.controls {
		b.term.ClearScreen()
	}
}

func (b *Box) End() error {
	b.end()
	return b.flush()
}

func (b *Box) BeginGroup(g Group) {
	if b.beginGroup(g) {
		b.w.WriteString(boxGroupBegin[g])
	}
}

func (b *Box) EndGroup(g Group) {
	if b.endGroup(g) {
		b.w.WriteString(boxGroupEnd[g])
	}
}

func (b *Box) String(d Datum, v string) {
	if b.datum(d) {
		b.line(datumLabels[d], v)
	}
}

func (b *Box) Bool(d Datum, v bool) {
	if !b.datum(d) {
		return
	}
	if v {
		b.line(datumLabels[d], "ON")
	} else {
		b.line(datumLabels[d], "OFF")
	}
}

func (b *Box) Int(d Datum, v int) {
	if b.datum(d) {
		b.line(datumLabels[d], fmt.Sprintf("%d", v))
	}
}

func (b *Box) Float(d Datum, v float64, u metrics.Unit) {
	if !b.datum(d) {
		return
	}
	format, ok := boxFloatFormat[u]
	if !ok {
		b.fail(fmt.Errorf("%w: no table format for %s in %s", ErrState, u, d))
		return
	}
	if u == metrics.Ratio {
		v *= 100
	}
	if d == DatumVDDIOMemPower || d == DatumThermalOutput {
		b.line("", "")
	}
	b.line(datumLabels[d], fmt.Sprintf(format, v))
}

func (b *Box) Float2(d Datum, v1 float64, u1 metrics.Unit, v2 float64, u2 metrics.Unit) {
	if !b.datum(d) {
		return
	}
	format, ok := boxFloat2Format[[2]metrics.Unit{u1, u2}]
	if !ok {
		b.fail(fmt.Errorf("%w: no table format for %s/%s in %s", ErrState, u1, u2, d))
		return
	}
	b.line(datumLabels[d], fmt.Sprintf(format, percent(v1, u1), percent(v2, u2)))
}

func (b *Box) Float3(d Datum, v1 float64, u1 metrics.Unit, v2 float64, u2 metrics.Unit, v3 float64, u3 metrics.Unit) {
	if !b.datum(d) {
		return
	}
	format, ok := boxFloat3Format[[3]metrics.Unit{u1, u2, u3}]
	if !ok {
		b.fail(fmt.Errorf("%w: no table format for %s/%s/%s in %s", ErrState, u1, u2, u3, d))
		return
	}
	b.line(datumLabels[d], fmt.Sprintf(format, percent(v1, u1), percent(v2, u2), percent(v3, u3)))
}

func (b *Box) Limit(d Datum, value, limit float64, u metrics.Unit) {
	if !b.datum(d) {
		return
	}
	format, ok := boxLimitFormat[u]
	if !ok {
		b.fail(fmt.Errorf("%w: no limit format for %s in %s", ErrState, u, d))
		return
	}
	b.line(datumLabels[d], fmt.Sprintf(format, value, limit, value/limit*100))
}

func (b *Box) Sum(d Datum, values []float64, u metrics.Unit) {
	if u != metrics.Watts {
		if b.datum(d) {
			b.fail(fmt.Errorf("%w: sums are only drawn in watts, got %s", ErrState, u))
		}
		return
	}
	switch len(values) {
	case 1:
		b.Float(d, values[0], u)
	case 2:
		if b.datum(d) {
			b.line(datumLabels[d], fmt.Sprintf("%7.3f W + %7.3f W = %7.3f W", values[0], values[1], values[0]+values[1]))
		}
	case 4:
		if b.datum(d) {
			total := values[0] + values[1] + values[2] + values[3]
			b.line(datumLabels[d], fmt.Sprintf("%7.3f W + %7.3f W = %7s", values[0], values[1], ""))
			b.line("", fmt.Sprintf("%7.3f W + %7.3f W = %7.3f W", values[2], values[3], total))
		}
	default:
		if b.datum(d) {
			b.fail(fmt.Errorf("%w: cannot draw a sum of %d values", ErrState, len(values)))
		}
	}
}

func (b *Box) Core(row CoreRow) {
	if !b.core() {
		return
	}
	number := fmt.Sprintf("Core %d", row.Number)
	var freq string
	switch {
	case row.Disabled:
		freq = "Disabled"
	case row.Sleeping:
		freq = "Sleeping"
	default:
		freq = fmt.Sprintf("%4.f MHz", row.Frequency)
	}
	fmt.Fprintf(b.w, "│ %7s │ %10s | %6.3f W | %5.3f V | %6.2f C | C0: %5.1f %% | C1: %5.1f %% | C6: %5.1f %% │\n",
		number, freq, row.Power, row.Voltage, row.Temp, row.C0, row.C1, row.C6)
}

func (b *Box) line(label, value string) {
	fmt.Fprintf(b.w, "│ %45s │ %46s │\n", label, value)
}

func (b *Box) flush() error {
	b.fail(b.w.Flush())
	return b.err
}

func percent(v float64, u metrics.Unit) float64 {
	if u == metrics.Ratio {
		return v * 100
	}
	return v
}
