package report

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skobkin/ryzenmon/internal/metrics"
	"github.com/skobkin/ryzenmon/internal/pmtable"
	"github.com/skobkin/ryzenmon/internal/pmtable/pmtabletest"
	"github.com/skobkin/ryzenmon/internal/render"
	"github.com/skobkin/ryzenmon/internal/render/rendertest"
)

func frame(t *testing.T, version uint32, topo metrics.Topology, values map[string][]float32) Frame {
	t.Helper()

	schema := pmtabletest.Lookup(t, version)
	buf := pmtable.NewBuffer(schema)
	for name, elems := range values {
		for i, v := range elems {
			require.NoError(t, pmtable.Put(schema, buf, name, i, v))
		}
	}
	table, err := pmtable.Bind(schema, buf)
	require.NoError(t, err)

	return Frame{
		Info: SysInfo{
			Model:        "AMD Ryzen 9 5950X 16-Core Processor",
			Codename:     schema.Codename,
			Zen:          schema.Zen,
			Cores:        topo.Cores,
			CCDs:         2,
			CCXs:         4,
			CoresPerCCX:  8,
			SMUFirmware:  "56.53.0",
			MP1IFVersion: 13,
		},
		Table:    table,
		Snapshot: metrics.Compute(table, topo, metrics.Options{}),
	}
}

func TestDrawGroupOrder(t *testing.T) {
	t.Parallel()

	rec := &rendertest.Recorder{}
	f := frame(t, 0x380804, metrics.Topology{Cores: 16}, nil)
	require.NoError(t, Draw(rec, f))

	assert.Equal(t, []render.Group{
		render.GroupSysInfo,
		render.GroupCores,
		render.GroupCoreStatsCalc,
		render.GroupCoreStatsSMU,
		render.GroupLimits,
		render.GroupMemory,
		render.GroupPower,
		render.GroupPowerReports,
	}, rec.Groups())
	assert.Equal(t, "begin", rec.Calls[0].Op)
	assert.Equal(t, "end", rec.Calls[len(rec.Calls)-1].Op)
	assert.Equal(t, 1, rec.Frames)

	_, ok := rec.Datum(render.DatumCoresPerCCD)
	assert.True(t, ok)
	_, ok = rec.Datum(render.DatumCCXs)
	assert.False(t, ok)

	fw, ok := rec.Datum(render.DatumSMUFirmware)
	require.True(t, ok)
	assert.Equal(t, "v56.53.0", fw.Text)

	_, ok = rec.Datum(render.DatumThermalOutput)
	assert.True(t, ok)
}

func TestDrawZen2ShowsCCXs(t *testing.T) {
	t.Parallel()

	rec := &rendertest.Recorder{}
	f := frame(t, pmtabletest.QuadCCX, metrics.Topology{Cores: 16}, nil)
	require.NoError(t, Draw(rec, f))

	ccxs, ok := rec.Datum(render.DatumCCXs)
	require.True(t, ok)
	assert.Equal(t, []float64{4}, ccxs.Values)
	_, ok = rec.Datum(render.DatumCoresPerCCD)
	assert.False(t, ok)

	l3, ok := rec.Datum(render.DatumL3LogicPower)
	require.True(t, ok)
	assert.Len(t, l3.Values, 4)
}

func TestDrawHidesDisabledCores(t *testing.T) {
	t.Parallel()

	topo := metrics.Topology{Cores: 12, DisabledMap: 0xc0c0}
	f := frame(t, 0x380804, topo, nil)

	rec := &rendertest.Recorder{}
	require.NoError(t, Draw(rec, f))
	rows := rec.Cores()
	require.Len(t, rows, 12)
	for i, row := range rows {
		assert.Equal(t, i, row.Number)
		assert.False(t, row.Disabled)
	}

	f.ShowDisabled = true
	f.Snapshot = metrics.Compute(f.Table, topo, metrics.Options{ShowDisabled: true})
	rec.Reset()
	require.NoError(t, Draw(rec, f))
	rows = rec.Cores()
	require.Len(t, rows, 16)
	assert.True(t, rows[6].Disabled)
	assert.Equal(t, 15, rows[15].Number)
}

func TestDrawAPUSuppressesThermalOutput(t *testing.T) {
	t.Parallel()

	f := frame(t, pmtabletest.APU, metrics.Topology{Cores: 8}, map[string][]float32{
		pmtable.GFXBusy:      {40},
		pmtable.PPTLimitFast: {54},
	})

	rec := &rendertest.Recorder{}
	require.NoError(t, Draw(rec, f))
	assert.Contains(t, rec.Groups(), render.GroupGraphics)
	_, ok := rec.Datum(render.DatumThermalOutput)
	assert.False(t, ok)

	busy, ok := rec.Datum(render.DatumGFXBusy)
	require.True(t, ok)
	assert.InDelta(t, 0.4, busy.Values[0], 1e-9)

	ppt, ok := rec.Datum(render.DatumPPT)
	require.True(t, ok)
	assert.Equal(t, 54.0, ppt.Values[1])

	_, ok = rec.Datum(render.DatumPPTAPU)
	assert.True(t, ok)
	_, ok = rec.Datum(render.DatumTDCActual)
	assert.False(t, ok)

	var box bytes.Buffer
	table := render.NewBox(&box)
	require.NoError(t, table.Init(false, false))
	require.NoError(t, Draw(table, f))
	require.NoError(t, table.Cleanup())
	assert.Contains(t, box.String(), "Graphics Subsystem")
	assert.NotContains(t, box.String(), "Calculated Thermal Output")

	var doc bytes.Buffer
	js := render.NewJSON(&doc)
	require.NoError(t, js.Init(false, false))
	require.NoError(t, Draw(js, f))
	require.NoError(t, js.Cleanup())

	var generic map[string]any
	require.NoError(t, json.Unmarshal(doc.Bytes(), &generic), doc.String())
	power, ok := generic["power"].(map[string]any)
	require.True(t, ok)
	assert.NotContains(t, power, "calc_total")
	graphics, ok := generic["graphics"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, graphics, "dgpu_busy")
	assert.InDelta(t, 0.4, graphics["busy"], 1e-6)
}

func TestDrawAllLayoutsRenderCleanly(t *testing.T) {
	t.Parallel()

	for _, version := range pmtabletest.Registry(t).Versions() {
		f := frame(t, version, metrics.Topology{Cores: 8}, nil)
		for _, format := range render.Formats {
			var out bytes.Buffer
			r, err := render.New(format, &out)
			require.NoError(t, err)
			require.NoError(t, r.Init(false, false))
			require.NoError(t, Draw(r, f), "%s %s", pmtable.FormatVersion(version), format)
			require.NoError(t, r.Cleanup())
			assert.NotEmpty(t, out.String())
		}
	}
}
