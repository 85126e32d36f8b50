// Package metrics derives per-core and package statistics from a bound PM table.
package metrics

import (
	"math"

	"github.com/samber/lo"

	"github.com/skobkin/ryzenmon/internal/pmtable"
)

const (
	// SleepThreshold is the C0 residency percentage at or below which a core counts as sleeping.
	SleepThreshold = 6.0
	// idleVoltage is the floor the SMU reports for a core while it sits in a sleep state.
	idleVoltage = 0.2
)

// Topology is the part of the CPU topology the computation needs.
type Topology struct {
	// Cores is the number of physical cores the OS sees.
	Cores int
	// DisabledMap has bit i set when core i is fused off.
	DisabledMap uint64
}

// Disabled reports whether core i is fused off.
func (t Topology) Disabled(i int) bool {
	return i >= 0 && i < 64 && t.DisabledMap>>uint(i)&1 == 1
}

// Options tune presentation-related parts of the computation.
type Options struct {
	// ShowDisabled keeps disabled cores in the display numbering.
	ShowDisabled bool
}

// Core is the per-core view of one sample.
type Core struct {
	Index     int
	Number    int
	Disabled  bool
	Sleeping  bool
	Frequency float64
	Power     float64
	Voltage   float64
	Temp      float64
	C0        float64
	C1        float64
	C6        float64
}

// Series is a fixed-arity set of values with their zero-default sum.
type Series struct {
	Values []float64
	Sum    float64
	Unit   Unit
}

// Limit is a value measured against its configured ceiling.
type Limit struct {
	Name  string
	Value float64
	Limit float64
	Unit  Unit
}

// Snapshot holds everything computed from one sample.
type Snapshot struct {
	Version uint32
	Cores   []Core

	EnabledCores   int
	PeakFrequency  float64
	PeakTemp       float64
	PeakVoltage    float64
	AvgVoltage     float64
	AvgC6          float64
	TotalCorePower float64

	// PackageVoltage is the active core voltage back-solved from telemetry and PC6.
	PackageVoltage float64
	BusyFraction   float64
	EffectiveEDC   float64
	MemoryCoupled  bool

	L3Logic Series
	L3VDDM  Series

	HasThermalOutput bool
	ThermalOutput    float64

	Limits []Limit
}

// Compute derives a Snapshot from t. It never fails: absent fields surface as NaN
// except in additive aggregates, which read them as zero.
func Compute(t *pmtable.Table, topo Topology, opts Options) Snapshot {
	schema := t.Schema()
	snap := Snapshot{Version: schema.Version}

	packageIdle := 0.0
	if pc6 := t.Get(pmtable.PC6); pc6.Present() {
		packageIdle = pc6.Float() / 100
	}
	snap.PackageVoltage = BackSolveVoltage(t.Get(pmtable.CPUTelemetryVoltage).Float(), packageIdle)

	coreCount := schema.MaxCores
	if coreCount == 0 {
		coreCount = t.Series(pmtable.CoreC0).Len()
	}

	number := 0
	snap.Cores = make([]Core, 0, coreCount)
	for i := range coreCount {
		c := Core{
			Index:     i,
			Number:    number,
			Disabled:  topo.Disabled(i),
			Frequency: t.At(pmtable.CoreFreqEff, i).Float() * 1000,
			Power:     t.At(pmtable.CorePower, i).Float(),
			Temp:      t.At(pmtable.CoreTemp, i).Float(),
			C0:        t.At(pmtable.CoreC0, i).Float(),
			C1:        t.At(pmtable.CoreCC1, i).Float(),
			C6:        t.At(pmtable.CoreCC6, i).Float(),
		}
		c.Voltage = CoreVoltage(snap.PackageVoltage, c.C6/100)
		c.Sleeping = !c.Disabled && IsSleeping(c.C0)
		if opts.ShowDisabled || !c.Disabled {
			number++
		}
		snap.Cores = append(snap.Cores, c)
	}

	enabled := lo.Filter(snap.Cores, func(c Core, _ int) bool { return !c.Disabled })
	snap.EnabledCores = len(enabled)
	snap.PeakFrequency = peak(enabled, func(c Core) float64 { return c.Frequency })
	snap.PeakTemp = peak(enabled, func(c Core) float64 { return c.Temp })
	snap.PeakVoltage = peak(enabled, func(c Core) float64 { return c.Voltage })
	snap.AvgVoltage = mean(enabled, func(c Core) float64 { return c.Voltage })
	snap.AvgC6 = mean(enabled, func(c Core) float64 { return c.C6 }) / 100
	snap.TotalCorePower = lo.SumBy(enabled, func(c Core) float64 { return c.Power })

	busyCores := topo.Cores
	if busyCores <= 0 {
		busyCores = len(enabled)
	}
	totalC0 := lo.SumBy(enabled, func(c Core) float64 { return c.C0 })
	if busyCores > 0 {
		snap.BusyFraction = totalC0 / float64(busyCores) / 100
	}
	snap.EffectiveEDC = EffectiveEDC(t.Get(pmtable.EDCValue).Float(), snap.BusyFraction, t.Get(pmtable.TDCValue).Float())

	uclk, memclk := t.Get(pmtable.UCLKFreq), t.Get(pmtable.MEMCLKFreq)
	snap.MemoryCoupled = uclk.Present() && memclk.Present() && uclk.Float() == memclk.Float()

	snap.L3Logic = seriesOf(t, pmtable.L3LogicPower, Watts)
	snap.L3VDDM = seriesOf(t, pmtable.L3VDDMPower, Watts)

	if !schema.Flags.PowerSumUnclear {
		snap.HasThermalOutput = true
		snap.ThermalOutput = thermalOutput(t, enabled, snap.L3Logic.Sum+snap.L3VDDM.Sum)
	}

	snap.Limits = []Limit{
		{Name: "ppt", Value: t.Get(pmtable.PPTValue).Float(), Limit: t.Get(pmtable.PPTLimit).Float(), Unit: Watts},
		{Name: "tdc", Value: t.Get(pmtable.TDCValue).Float(), Limit: t.Get(pmtable.TDCLimit).Float(), Unit: Amps},
		{Name: "edc", Value: snap.EffectiveEDC, Limit: t.Get(pmtable.EDCLimit).Float(), Unit: Amps},
		{Name: "thm", Value: t.Get(pmtable.THMValue).Float(), Limit: t.Get(pmtable.THMLimit).Float(), Unit: Celsius},
		{Name: "fit", Value: t.Get(pmtable.FITValue).Float(), Limit: t.Get(pmtable.FITLimit).Float(), Unit: Count},
		{Name: "vid", Value: t.Get(pmtable.VIDValue).Float(), Limit: t.Get(pmtable.VIDLimit).Float(), Unit: Volts},
	}

	return snap
}

// BackSolveVoltage estimates the active core voltage from the reported package
// voltage, which the SMU floors to idleVoltage while cores sleep. With no
// active residency (idleRatio 0 or 1) there is nothing to solve for and the
// telemetry is returned as is.
func BackSolveVoltage(telemetry, idleRatio float64) float64 {
	if idleRatio <= 0 || idleRatio >= 1 {
		return telemetry
	}
	return (telemetry - idleVoltage*idleRatio) / (1 - idleRatio)
}

// CoreVoltage blends the active voltage with the idle floor by the core's own idle ratio.
func CoreVoltage(active, idleRatio float64) float64 {
	return (1-idleRatio)*active + idleVoltage*idleRatio
}

// IsSleeping applies the Ryzen Master convention to a C0 residency percentage.
func IsSleeping(c0Percent float64) bool {
	return c0Percent <= SleepThreshold
}

// EffectiveEDC scales the raw EDC reading by utilisation and floors it at TDC,
// since the SMU under-reports EDC while cores are mostly idle.
func EffectiveEDC(raw, busyFraction, tdc float64) float64 {
	scaled := raw * busyFraction
	if scaled < tdc {
		return tdc
	}
	return scaled
}

func thermalOutput(t *pmtable.Table, enabled []Core, l3 float64) float64 {
	total := l3
	for _, c := range enabled {
		total += t.At(pmtable.CorePower, c.Index).OrZero()
	}
	for _, name := range []string{
		pmtable.VDDCRSoCPower,
		pmtable.GMI2VDDGPower,
		pmtable.VDDIOMemPower,
		pmtable.IODVDDIOMemPower,
		pmtable.DDRVDDPPower,
		pmtable.VDD18Power,
	} {
		total += t.Get(name).OrZero()
	}
	return total
}

func seriesOf(t *pmtable.Table, name string, unit Unit) Series {
	s := t.Series(name)
	return Series{Values: s.Floats(), Sum: s.Sum(), Unit: unit}
}

func peak(cores []Core, value func(Core) float64) float64 {
	if len(cores) == 0 {
		return math.NaN()
	}
	return lo.Reduce(cores, func(acc float64, c Core, _ int) float64 {
		return math.Max(acc, value(c))
	}, math.Inf(-1))
}

func mean(cores []Core, value func(Core) float64) float64 {
	if len(cores) == 0 {
		return math.NaN()
	}
	return lo.SumBy(cores, value) / float64(len(cores))
}
