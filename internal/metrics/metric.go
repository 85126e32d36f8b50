package metrics

import "strconv"

// Metric is one named computed value.
type Metric struct {
	Name  string
	Value float64
	Unit  Unit
}

// Metrics flattens the snapshot into stable names. Per-core values carry
// a core_<index> prefix; disabled cores are skipped.
func (s Snapshot) Metrics() []Metric {
	out := []Metric{
		{Name: "enabled_cores", Value: float64(s.EnabledCores), Unit: Count},
		{Name: "peak_core_frequency", Value: s.PeakFrequency, Unit: MHz},
		{Name: "peak_core_temperature", Value: s.PeakTemp, Unit: Celsius},
		{Name: "peak_core_voltage", Value: s.PeakVoltage, Unit: Volts},
		{Name: "avg_core_voltage", Value: s.AvgVoltage, Unit: Volts},
		{Name: "avg_core_c6", Value: s.AvgC6, Unit: Ratio},
		{Name: "total_core_power", Value: s.TotalCorePower, Unit: Watts},
		{Name: "package_voltage", Value: s.PackageVoltage, Unit: Volts},
		{Name: "busy_fraction", Value: s.BusyFraction, Unit: Ratio},
		{Name: "effective_edc", Value: s.EffectiveEDC, Unit: Amps},
		{Name: "l3_logic_power", Value: s.L3Logic.Sum, Unit: Watts},
		{Name: "l3_vddm_power", Value: s.L3VDDM.Sum, Unit: Watts},
	}
	if s.HasThermalOutput {
		out = append(out, Metric{Name: "thermal_output", Value: s.ThermalOutput, Unit: Watts})
	}
	for _, l := range s.Limits {
		out = append(out,
			Metric{Name: l.Name + "_value", Value: l.Value, Unit: l.Unit},
			Metric{Name: l.Name + "_limit", Value: l.Limit, Unit: l.Unit},
		)
	}
	for _, c := range s.Cores {
		if c.Disabled {
			continue
		}
		prefix := "core_" + strconv.Itoa(c.Index) + "_"
		out = append(out,
			Metric{Name: prefix + "frequency", Value: c.Frequency, Unit: MHz},
			Metric{Name: prefix + "power", Value: c.Power, Unit: Watts},
			Metric{Name: prefix + "voltage", Value: c.Voltage, Unit: Volts},
			Metric{Name: prefix + "temperature", Value: c.Temp, Unit: Celsius},
			Metric{Name: prefix + "c0", Value: c.C0 / 100, Unit: Ratio},
		)
	}
	return out
}
