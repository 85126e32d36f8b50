package render

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skobkin/ryzenmon/internal/metrics"
)

func drive(r Renderer) error {
	r.Begin()

	r.BeginGroup(GroupSysInfo)
	r.String(DatumModel, `AMD "Ryzen" 9`)
	r.Int(DatumCores, 16)
	r.EndGroup(GroupSysInfo)

	r.BeginGroup(GroupCores)
	r.Core(CoreRow{Number: 0, Frequency: 4650, Power: 5, Voltage: 1.25, Temp: 60, C0: 50, C1: 25, C6: 25})
	r.Core(CoreRow{Number: 1, Disabled: true, Frequency: math.NaN()})
	r.EndGroup(GroupCores)

	r.BeginGroup(GroupLimits)
	r.Limit(DatumPPT, 60, 120, metrics.Watts)
	r.EndGroup(GroupLimits)

	r.BeginGroup(GroupMemory)
	r.Bool(DatumMemoryCoupled, true)
	r.Float(DatumFCLK, 0.1, metrics.MHz)
	r.EndGroup(GroupMemory)

	r.BeginGroup(GroupGraphics)
	r.Float2(DatumGFXEDCLimitResidency, 20, metrics.Amps, 0.5, metrics.Ratio)
	r.Float3(DatumGFXDGPUPowerFreqTargetBusy, 1, metrics.Watts, 2, metrics.MHz, 0.25, metrics.Ratio)
	r.Float(DatumGFXBusy, math.Inf(1), metrics.Ratio)
	r.EndGroup(GroupGraphics)

	r.BeginGroup(GroupPower)
	r.Sum(DatumL3LogicPower, []float64{1, 2, 3, 4}, metrics.Watts)
	r.EndGroup(GroupPower)

	r.BeginGroup(GroupPowerReports)
	r.Float3(DatumSVI2SoC, 1.1, metrics.Volts, 9, metrics.Amps, 9.9, metrics.Watts)
	r.EndGroup(GroupPowerReports)

	return r.End()
}

func TestJSONDocument(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	r := NewJSON(&out)
	r.now = func() int64 { return 1234567890123 }
	require.NoError(t, r.Init(true, true))
	require.NoError(t, drive(r))
	require.NoError(t, r.Cleanup())

	assert.False(t, strings.HasSuffix(out.String(), "\n"))

	var doc map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &doc), out.String())

	want := map[string]any{
		"timestamp": 1234567890123.0,
		"sysinfo":   map[string]any{"model": `AMD "Ryzen" 9`, "cores": 16.0},
		"cores": []any{
			map[string]any{
				"number": 0.0, "disabled": false, "sleeping": false,
				"frequency": 4650.0, "power": 5.0, "voltage": 1.25, "temp": 60.0,
				"c0": 0.5, "c1": 0.25, "c6": 0.25,
			},
			map[string]any{
				"number": 1.0, "disabled": true, "sleeping": false,
				"frequency": nil, "power": 0.0, "voltage": 0.0, "temp": 0.0,
				"c0": 0.0, "c1": 0.0, "c6": 0.0,
			},
		},
		"limits": map[string]any{"ppt": map[string]any{"value": 60.0, "limit": 120.0, "usage": 0.5}},
		"memory": map[string]any{"coupled": true, "fclk": 0.1},
		"graphics": map[string]any{
			"edc_limit": 20.0, "edc_residency": 0.5,
			"dgpu_power": 1.0, "dgpu_freq_target": 2.0, "dgpu_busy": 0.25,
			"busy": nil,
		},
		"power": map[string]any{"l3_logic": map[string]any{"values": []any{1.0, 2.0, 3.0, 4.0}, "sum": 10.0}},
		"power_reports": map[string]any{
			"svi2_soc": map[string]any{"voltage": 1.1, "current": 9.0, "power": 9.9},
		},
	}
	if diff := cmp.Diff(want, doc); diff != "" {
		t.Fatalf("document mismatch (-want +got):\n%s", diff)
	}
}

func TestJSONFullPrecision(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	r := NewJSON(&out)
	r.now = func() int64 { return 0 }
	require.NoError(t, r.Init(false, false))
	r.Begin()
	r.BeginGroup(GroupMemory)
	r.Float(DatumVDDM, float64(float32(0.8)), metrics.Volts)
	r.EndGroup(GroupMemory)
	require.NoError(t, r.End())

	assert.Equal(t, `{"timestamp":0,"memory":{"cldo_vddm":0.80000001192092896}}`, out.String())
}

func TestNDJSONFramesAreLines(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	r := NewNDJSON(&out)
	require.NoError(t, r.Init(true, false))
	for range 3 {
		require.NoError(t, drive(r))
	}
	require.NoError(t, r.Cleanup())

	lines := strings.Split(out.String(), "\n")
	require.Len(t, lines, 4)
	assert.Empty(t, lines[3])

	var prev float64
	for _, line := range lines[:3] {
		var doc map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &doc))
		ts, ok := doc["timestamp"].(float64)
		require.True(t, ok)
		assert.GreaterOrEqual(t, ts, prev)
		prev = ts
	}
}

func TestJSONStateViolation(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	r := NewJSON(&out)
	require.NoError(t, r.Init(false, false))
	r.Begin()
	r.BeginGroup(GroupPower)
	r.BeginGroup(GroupLimits)
	require.ErrorIs(t, r.End(), ErrState)
}

func TestJSONRejectsDatumWithoutLayout(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	r := NewJSON(&out)
	require.NoError(t, r.Init(false, false))
	r.Begin()
	r.BeginGroup(GroupGraphics)
	r.Float(DatumGFXFreqRealEff, 1, metrics.MHz)
	r.EndGroup(GroupGraphics)
	require.ErrorIs(t, r.End(), ErrState)
}
