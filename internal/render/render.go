// Package render turns one monitor frame into text. A frame is a sequence of
// groups; each group holds typed data points. Implementations decide the
// surface: a box table for terminals, or JSON documents for machines.
package render

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/skobkin/ryzenmon/internal/metrics"
)

// ErrState is wrapped by every protocol violation, such as a datum outside a group.
var ErrState = errors.New("render: call out of order")

// Group is a top-level section of a frame. Groups never nest.
type Group int

const (
	GroupSysInfo Group = iota
	GroupCores
	GroupCoreStatsCalc
	GroupCoreStatsSMU
	GroupLimits
	GroupMemory
	GroupGraphics
	GroupPower
	GroupPowerReports

	groupCount
)

// Datum identifies one labelled data point inside a group.
type Datum int

const (
	DatumModel Datum = iota
	DatumCodename
	DatumCores
	DatumCCDs
	DatumCCXs
	DatumCoresPerCCX
	DatumCoresPerCCD
	DatumSMUFirmware
	DatumMP1IFVersion

	DatumPeakCoreFreq
	DatumPeakCoreTemp
	DatumPeakCoreVoltage
	DatumAvgCoreVoltage
	DatumAvgCoreC6
	DatumTotalCorePower

	DatumPeakCoreVoltageSMU
	DatumPackageC6SMU

	DatumPeakTemp
	DatumSoCTemp
	DatumGFXTemp
	DatumCoreVRMVoltage
	DatumPPT
	DatumPPTAPU
	DatumTDCNominal
	DatumTDCActual
	DatumTDCSoCNominal
	DatumEDC
	DatumEDCSoC
	DatumTHM
	DatumTHMSoC
	DatumTHMGFX
	DatumFIT

	DatumMemoryCoupled
	DatumFCLKAvg
	DatumFCLK
	DatumUCLK
	DatumMCLK
	DatumVDDM
	DatumVDDP
	DatumVDDG
	DatumVDDGIOD
	DatumVDDGCCD

	DatumGFXVoltageROCPower
	DatumGFXFreqRealEff
	DatumGFXBusy
	DatumGFXEDCLimitResidency
	DatumGFXDisplayCountFPS
	DatumGFXDGPUPowerFreqTargetBusy

	DatumVDDCRSoCPower
	DatumIOVDDCRSoCPower
	DatumGMI2VDDGPower
	DatumROCPower
	DatumL3LogicPower
	DatumL3VDDMPower
	DatumVDDIOMemPower
	DatumIODVDDIOMemPower
	DatumDDRVDDPPower
	DatumDDRPhyPower
	DatumVDD18Power
	DatumIODisplayPower
	DatumIOUSBPower
	DatumThermalOutput

	DatumSVI2SoC
	DatumSVI2Core
	DatumSMUCorePower
	DatumSMUSocketPower
	DatumSMUPackagePower

	datumCount
)

// CoreRow is one line of the per-core table. Residencies are percentages.
type CoreRow struct {
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

// Renderer receives one frame at a time. Emit methods do not return errors;
// the first failure is kept and reported by End or Cleanup, so a caller can
// drive a whole frame and check once.
type Renderer interface {
	Init(repeating, interactive bool) error
	Cleanup() error

	Begin()
	End() error

	BeginGroup(g Group)
	EndGroup(g Group)

	String(d Datum, v string)
	Bool(d Datum, v bool)
	Int(d Datum, v int)
	Float(d Datum, v float64, u metrics.Unit)
	Float2(d Datum, v1 float64, u1 metrics.Unit, v2 float64, u2 metrics.Unit)
	Float3(d Datum, v1 float64, u1 metrics.Unit, v2 float64, u2 metrics.Unit, v3 float64, u3 metrics.Unit)
	Limit(d Datum, value, limit float64, u metrics.Unit)
	Sum(d Datum, values []float64, u metrics.Unit)
	Core(row CoreRow)
}

// Formats lists the names accepted by New.
var Formats = []string{"table", "json", "ndjson"}

// New returns the renderer registered under format.
func New(format string, w io.Writer) (Renderer, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "table", "box":
		return NewBox(w), nil
	case "json":
		return NewJSON(w), nil
	case "ndjson":
		return NewNDJSON(w), nil
	default:
		return nil, fmt.Errorf("unknown output format %q (want one of %s)", format, strings.Join(Formats, ", "))
	}
}

func (g Group) String() string {
	if g < 0 || g >= groupCount {
		return fmt.Sprintf("Group(%d)", int(g))
	}
	return groupKeys[g]
}

func (d Datum) String() string {
	if d < 0 || d >= datumCount {
		return fmt.Sprintf("Datum(%d)", int(d))
	}
	if key := datumKeys[d]; key != "" {
		return key
	}
	return datumLabels[d]
}
