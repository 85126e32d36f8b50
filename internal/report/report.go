// Package report lays a computed sample out as one renderer frame.
package report

import (
	"fmt"

	"github.com/skobkin/ryzenmon/internal/metrics"
	"github.com/skobkin/ryzenmon/internal/pmtable"
	"github.com/skobkin/ryzenmon/internal/render"
)

// SysInfo is the static processor description shown at the top of each frame.
type SysInfo struct {
	Model        string `json:"model"`
	Codename     string `json:"codename"`
	Zen          int    `json:"zen"`
	Cores        int    `json:"cores"`
	CCDs         int    `json:"ccds"`
	CCXs         int    `json:"ccxs"`
	CoresPerCCX  int    `json:"cores_per_ccx"`
	SMUFirmware  string `json:"smu_firmware_version"`
	MP1IFVersion int    `json:"mp1_if_version"`
}

// Frame is everything one render pass needs.
type Frame struct {
	Info         SysInfo
	Table        *pmtable.Table
	Snapshot     metrics.Snapshot
	ShowDisabled bool
}

// Draw drives r through one full frame and returns the renderer's verdict.
func Draw(r render.Renderer, f Frame) error {
	d := drawer{r: r, t: f.Table, s: f.Snapshot}

	r.Begin()
	d.sysInfo(f.Info)
	d.cores(f.ShowDisabled)
	d.coreStats()
	d.limits()
	d.memory()
	if f.Table.Schema().Flags.HasGraphics {
		d.graphics()
	}
	d.power()
	d.powerReports()
	return r.End()
}

type drawer struct {
	r render.Renderer
	t *pmtable.Table
	s metrics.Snapshot
}

func (d drawer) get(name string) float64 {
	return d.t.Get(name).Float()
}

// ratio converts a percentage field to a fraction.
func (d drawer) ratio(name string) float64 {
	return d.get(name) / 100
}

func (d drawer) sysInfo(info SysInfo) {
	d.r.BeginGroup(render.GroupSysInfo)
	d.r.String(render.DatumModel, info.Model)
	d.r.String(render.DatumCodename, info.Codename)
	d.r.Int(render.DatumCores, info.Cores)
	d.r.Int(render.DatumCCDs, info.CCDs)
	if info.Zen == 3 {
		// Zen 3 unified the CCX with the CCD.
		d.r.Int(render.DatumCoresPerCCD, info.CoresPerCCX)
	} else {
		d.r.Int(render.DatumCCXs, info.CCXs)
		d.r.Int(render.DatumCoresPerCCX, info.CoresPerCCX)
	}
	d.r.String(render.DatumSMUFirmware, "v"+info.SMUFirmware)
	d.r.String(render.DatumMP1IFVersion, fmt.Sprintf("v%d", info.MP1IFVersion))
	d.r.EndGroup(render.GroupSysInfo)
}

func (d drawer) cores(showDisabled bool) {
	d.r.BeginGroup(render.GroupCores)
	for _, c := range d.s.Cores {
		if c.Disabled && !showDisabled {
			continue
		}
		d.r.Core(render.CoreRow{
			Number:    c.Number,
			Disabled:  c.Disabled,
			Sleeping:  c.Sleeping,
			Frequency: c.Frequency,
			Power:     c.Power,
			Voltage:   c.Voltage,
			Temp:      c.Temp,
			C0:        c.C0,
			C1:        c.C1,
			C6:        c.C6,
		})
	}
	d.r.EndGroup(render.GroupCores)
}

func (d drawer) coreStats() {
	d.r.BeginGroup(render.GroupCoreStatsCalc)
	d.r.Float(render.DatumPeakCoreFreq, d.s.PeakFrequency, metrics.MHz)
	d.r.Float(render.DatumPeakCoreTemp, d.s.PeakTemp, metrics.Celsius)
	d.r.Float(render.DatumPeakCoreVoltage, d.s.PeakVoltage, metrics.Volts)
	d.r.Float(render.DatumAvgCoreVoltage, d.s.AvgVoltage, metrics.Volts)
	d.r.Float(render.DatumAvgCoreC6, d.s.AvgC6, metrics.Ratio)
	d.r.Float(render.DatumTotalCorePower, d.s.TotalCorePower, metrics.Watts)
	d.r.EndGroup(render.GroupCoreStatsCalc)

	d.r.BeginGroup(render.GroupCoreStatsSMU)
	d.r.Float(render.DatumPeakCoreVoltageSMU, d.get(pmtable.CPUTelemetryVoltage), metrics.Volts)
	d.r.Float(render.DatumPackageC6SMU, d.ratio(pmtable.PC6), metrics.Ratio)
	d.r.EndGroup(render.GroupCoreStatsSMU)
}

func (d drawer) limits() {
	d.r.BeginGroup(render.GroupLimits)
	d.r.Float(render.DatumPeakTemp, d.get(pmtable.PeakTemp), metrics.Celsius)
	d.r.Float(render.DatumSoCTemp, d.get(pmtable.SoCTemp), metrics.Celsius)
	if d.t.Has(pmtable.GFXTemp) {
		d.r.Float(render.DatumGFXTemp, d.get(pmtable.GFXTemp), metrics.Celsius)
	}
	d.limit(render.DatumCoreVRMVoltage, pmtable.VIDValue, pmtable.VIDLimit, metrics.Volts)
	d.limit(render.DatumPPT, pmtable.PPTValue, pmtable.PPTLimit, metrics.Watts)
	d.optionalLimit(render.DatumPPTAPU, pmtable.PPTValueAPU, pmtable.PPTLimitAPU, metrics.Watts)
	d.limit(render.DatumTDCNominal, pmtable.TDCValue, pmtable.TDCLimit, metrics.Amps)
	d.optionalLimit(render.DatumTDCActual, pmtable.TDCActual, pmtable.TDCLimit, metrics.Amps)
	d.optionalLimit(render.DatumTDCSoCNominal, pmtable.TDCValueSoC, pmtable.TDCLimitSoC, metrics.Amps)
	d.r.Limit(render.DatumEDC, d.s.EffectiveEDC, d.get(pmtable.EDCLimit), metrics.Amps)
	d.optionalLimit(render.DatumEDCSoC, pmtable.EDCValueSoC, pmtable.EDCLimitSoC, metrics.Amps)
	d.limit(render.DatumTHM, pmtable.THMValue, pmtable.THMLimit, metrics.Celsius)
	d.optionalLimit(render.DatumTHMSoC, pmtable.THMValueSoC, pmtable.THMLimitSoC, metrics.Celsius)
	d.optionalLimit(render.DatumTHMGFX, pmtable.THMValueGFX, pmtable.THMLimitGFX, metrics.Celsius)
	d.limit(render.DatumFIT, pmtable.FITValue, pmtable.FITLimit, metrics.Count)
	d.r.EndGroup(render.GroupLimits)
}

func (d drawer) limit(datum render.Datum, value, limit string, unit metrics.Unit) {
	d.r.Limit(datum, d.get(value), d.get(limit), unit)
}

func (d drawer) optionalLimit(datum render.Datum, value, limit string, unit metrics.Unit) {
	if d.t.Has(value) {
		d.limit(datum, value, limit, unit)
	}
}

func (d drawer) memory() {
	d.r.BeginGroup(render.GroupMemory)
	d.r.Bool(render.DatumMemoryCoupled, d.s.MemoryCoupled)
	d.r.Float(render.DatumFCLKAvg, d.get(pmtable.FCLKFreqEff), metrics.MHz)
	d.r.Float(render.DatumFCLK, d.get(pmtable.FCLKFreq), metrics.MHz)
	d.r.Float(render.DatumUCLK, d.get(pmtable.UCLKFreq), metrics.MHz)
	d.r.Float(render.DatumMCLK, d.get(pmtable.MEMCLKFreq), metrics.MHz)
	d.r.Float(render.DatumVDDM, d.get(pmtable.VVDDM), metrics.Volts)
	d.r.Float(render.DatumVDDP, d.get(pmtable.VVDDP), metrics.Volts)
	d.optionalFloat(render.DatumVDDG, pmtable.VVDDG, metrics.Volts)
	d.optionalFloat(render.DatumVDDGIOD, pmtable.VVDDGIOD, metrics.Volts)
	d.optionalFloat(render.DatumVDDGCCD, pmtable.VVDDGCCD, metrics.Volts)
	d.r.EndGroup(render.GroupMemory)
}

func (d drawer) optionalFloat(datum render.Datum, name string, unit metrics.Unit) {
	if d.t.Has(name) {
		d.r.Float(datum, d.get(name), unit)
	}
}

func (d drawer) graphics() {
	d.r.BeginGroup(render.GroupGraphics)
	d.r.Float2(render.DatumGFXVoltageROCPower,
		d.get(pmtable.GFXVoltage), metrics.Volts,
		d.get(pmtable.ROCPower), metrics.Watts)
	d.r.Float2(render.DatumGFXFreqRealEff,
		d.get(pmtable.GFXFreq), metrics.MHz,
		d.get(pmtable.GFXFreqEff), metrics.MHz)
	d.r.Float(render.DatumGFXBusy, d.ratio(pmtable.GFXBusy), metrics.Ratio)
	d.r.Float2(render.DatumGFXEDCLimitResidency,
		d.get(pmtable.GFXEDCLimit), metrics.Amps,
		d.ratio(pmtable.GFXEDCResidency), metrics.Ratio)
	d.r.Float2(render.DatumGFXDisplayCountFPS,
		d.get(pmtable.DisplayCount), metrics.Count,
		d.get(pmtable.FPS), metrics.Count)
	d.r.Float3(render.DatumGFXDGPUPowerFreqTargetBusy,
		d.get(pmtable.DGPUPower), metrics.Watts,
		d.get(pmtable.DGPUFreqTarget), metrics.MHz,
		d.ratio(pmtable.DGPUBusy), metrics.Ratio)
	d.r.EndGroup(render.GroupGraphics)
}

func (d drawer) power() {
	d.r.BeginGroup(render.GroupPower)
	d.r.Float(render.DatumVDDCRSoCPower, d.get(pmtable.VDDCRSoCPower), metrics.Watts)
	d.optionalFloat(render.DatumIOVDDCRSoCPower, pmtable.IOVDDCRSoCPower, metrics.Watts)
	d.optionalFloat(render.DatumGMI2VDDGPower, pmtable.GMI2VDDGPower, metrics.Watts)
	d.optionalFloat(render.DatumROCPower, pmtable.ROCPower, metrics.Watts)
	d.series(render.DatumL3LogicPower, d.s.L3Logic)
	d.series(render.DatumL3VDDMPower, d.s.L3VDDM)
	d.r.Float(render.DatumVDDIOMemPower, d.get(pmtable.VDDIOMemPower), metrics.Watts)
	d.optionalFloat(render.DatumIODVDDIOMemPower, pmtable.IODVDDIOMemPower, metrics.Watts)
	d.r.Float(render.DatumDDRVDDPPower, d.get(pmtable.DDRVDDPPower), metrics.Watts)
	d.optionalFloat(render.DatumDDRPhyPower, pmtable.DDRPhyPower, metrics.Watts)
	d.r.Float(render.DatumVDD18Power, d.get(pmtable.VDD18Power), metrics.Watts)
	d.optionalFloat(render.DatumIODisplayPower, pmtable.IODisplayPower, metrics.Watts)
	d.optionalFloat(render.DatumIOUSBPower, pmtable.IOUSBPower, metrics.Watts)
	if d.s.HasThermalOutput {
		d.r.Float(render.DatumThermalOutput, d.s.ThermalOutput, metrics.Watts)
	}
	d.r.EndGroup(render.GroupPower)
}

func (d drawer) series(datum render.Datum, s metrics.Series) {
	if len(s.Values) > 0 {
		d.r.Sum(datum, s.Values, s.Unit)
	}
}

func (d drawer) powerReports() {
	d.r.BeginGroup(render.GroupPowerReports)
	d.r.Float3(render.DatumSVI2SoC,
		d.get(pmtable.SoCTelemetryVoltage), metrics.Volts,
		d.get(pmtable.SoCTelemetryCurrent), metrics.Amps,
		d.get(pmtable.SoCTelemetryPower), metrics.Watts)
	d.r.Float3(render.DatumSVI2Core,
		d.get(pmtable.CPUTelemetryVoltage), metrics.Volts,
		d.get(pmtable.CPUTelemetryCurrent), metrics.Amps,
		d.get(pmtable.CPUTelemetryPower), metrics.Watts)
	d.r.Float(render.DatumSMUCorePower, d.get(pmtable.VDDCRCPUPower), metrics.Watts)
	d.r.Float(render.DatumSMUSocketPower, d.get(pmtable.SocketPower), metrics.Watts)
	d.r.Float(render.DatumSMUPackagePower, d.get(pmtable.PackagePower), metrics.Watts)
	d.r.EndGroup(render.GroupPowerReports)
}
