package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skobkin/ryzenmon/internal/capture"
	"github.com/skobkin/ryzenmon/internal/config"
	"github.com/skobkin/ryzenmon/internal/history"
	"github.com/skobkin/ryzenmon/internal/metrics"
	"github.com/skobkin/ryzenmon/internal/pmtable"
	"github.com/skobkin/ryzenmon/internal/pmtable/pmtabletest"
	"github.com/skobkin/ryzenmon/internal/render/rendertest"
	"github.com/skobkin/ryzenmon/internal/sampler"
	"github.com/skobkin/ryzenmon/internal/smu"
)

const vermeer = 0x380804

type fakeSource struct {
	mu       sync.Mutex
	version  uint32
	data     []byte
	failures int
	reads    int
	onRead   func(reads int)
}

func (f *fakeSource) Version() uint32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.version
}

func (f *fakeSource) Size() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.data)
}

func (f *fakeSource) Read(_ context.Context, buf []byte) error {
	f.mu.Lock()
	f.reads++
	reads := f.reads
	fail := reads <= f.failures
	copy(buf, f.data)
	hook := f.onRead
	f.mu.Unlock()

	if hook != nil {
		hook(reads)
	}
	if fail {
		return errors.New("smu busy")
	}
	return nil
}

func (f *fakeSource) Close() error { return nil }

func (f *fakeSource) setVersion(t *testing.T, version uint32) {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.version = version
	f.data = tableBytes(t, version)
}

func tableBytes(t *testing.T, version uint32) []byte {
	t.Helper()
	schema := pmtabletest.Lookup(t, version)
	buf := pmtable.NewBuffer(schema)
	require.NoError(t, pmtable.Put(schema, buf, pmtable.PPTLimit, 0, 142))
	require.NoError(t, pmtable.Put(schema, buf, pmtable.PPTValue, 0, 71))
	return buf
}

func newFakeSource(t *testing.T, version uint32) *fakeSource {
	src := &fakeSource{}
	src.setVersion(t, version)
	return src
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func baseOptions(src smu.Source, rec *rendertest.Recorder) MonitorOptions {
	return MonitorOptions{
		Source:     src,
		Renderer:   rec,
		Logger:     discardLogger(),
		Topology:   metrics.Topology{Cores: 16},
		Interval:   time.Second,
		RetryDelay: time.Millisecond,
	}
}

func TestMonitorOnceRendersExactlyOneFrame(t *testing.T) {
	t.Parallel()

	src := newFakeSource(t, vermeer)
	rec := &rendertest.Recorder{}
	opts := baseOptions(src, rec)
	opts.Once = true

	m, err := NewMonitor(opts)
	require.NoError(t, err)
	require.NoError(t, m.Run(context.Background()))

	assert.Equal(t, 1, rec.Frames)
	assert.Equal(t, 1, src.reads)
	assert.Equal(t, uint64(1), m.Frames())
}

func TestMonitorRetriesFailedReadsWithoutRendering(t *testing.T) {
	t.Parallel()

	src := newFakeSource(t, vermeer)
	src.failures = 3
	rec := &rendertest.Recorder{}
	opts := baseOptions(src, rec)
	opts.Once = true
	opts.Clock = clock.New()

	m, err := NewMonitor(opts)
	require.NoError(t, err)
	require.NoError(t, m.Run(context.Background()))

	assert.Equal(t, 1, rec.Frames)
	assert.Equal(t, 4, src.reads)
	assert.Equal(t, uint64(3), m.Failures())
}

func TestMonitorFailedReadRendersNothing(t *testing.T) {
	t.Parallel()

	src := newFakeSource(t, vermeer)
	src.failures = 1
	rec := &rendertest.Recorder{}

	m, err := NewMonitor(baseOptions(src, rec))
	require.NoError(t, err)

	rendered, err := m.Cycle(context.Background())
	require.NoError(t, err)
	assert.False(t, rendered)
	assert.Empty(t, rec.Calls)
}

func TestMonitorRebindsOnlyOnVersionChange(t *testing.T) {
	t.Parallel()

	src := newFakeSource(t, vermeer)
	rec := &rendertest.Recorder{}
	opts := baseOptions(src, rec)
	opts.Registry = pmtabletest.Registry(t)
	m, err := NewMonitor(opts)
	require.NoError(t, err)

	ctx := context.Background()
	_, err = m.Cycle(ctx)
	require.NoError(t, err)
	first := m.table

	_, err = m.Cycle(ctx)
	require.NoError(t, err)
	assert.Same(t, first, m.table, "same version must reuse the bound table")

	src.setVersion(t, pmtabletest.Alternate)
	_, err = m.Cycle(ctx)
	require.NoError(t, err)
	assert.NotSame(t, first, m.table)
	assert.Equal(t, pmtabletest.Alternate, m.table.Schema().Version)
	assert.Equal(t, 3, rec.Frames)
}

func TestMonitorUnknownVersionIsFatalBeforeRender(t *testing.T) {
	t.Parallel()

	src := newFakeSource(t, vermeer)
	src.version = 0x123456
	rec := &rendertest.Recorder{}
	m, err := NewMonitor(baseOptions(src, rec))
	require.NoError(t, err)

	err = m.Run(context.Background())
	require.ErrorIs(t, err, pmtable.ErrUnknownVersion)
	assert.Contains(t, err.Error(), "not currently supported")
	assert.Zero(t, rec.Frames)
}

func TestMonitorShortLiveBuffer(t *testing.T) {
	t.Parallel()

	src := newFakeSource(t, vermeer)
	src.data = src.data[:len(src.data)-1]
	m, err := NewMonitor(baseOptions(src, &rendertest.Recorder{}))
	require.NoError(t, err)

	_, err = m.Cycle(context.Background())
	require.ErrorIs(t, err, pmtable.ErrBufferTooSmall)
	assert.Contains(t, err.Error(), "live source inconsistent")
}

func TestMonitorShortCaptureFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "short.bin")
	require.NoError(t, os.WriteFile(path, make([]byte, 64), 0o600))
	src, err := smu.OpenFile(path, vermeer)
	require.NoError(t, err)

	m, err := NewMonitor(baseOptions(src, &rendertest.Recorder{}))
	require.NoError(t, err)

	_, err = m.Cycle(context.Background())
	require.ErrorIs(t, err, pmtable.ErrBufferTooSmall)
	assert.Contains(t, err.Error(), "capture file too short")
}

func TestMonitorSleepsBetweenFrames(t *testing.T) {
	t.Parallel()

	mock := clock.NewMock()
	start := mock.Now()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	src := newFakeSource(t, vermeer)
	src.onRead = func(reads int) {
		if reads == 3 {
			cancel()
		}
	}
	rec := &rendertest.Recorder{}
	opts := baseOptions(src, rec)
	opts.Clock = mock

	m, err := NewMonitor(opts)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	deadline := time.After(5 * time.Second)
	for {
		select {
		case err := <-done:
			require.NoError(t, err)
			assert.Equal(t, 3, rec.Frames)
			assert.GreaterOrEqual(t, mock.Now().Sub(start), 2*time.Second)
			return
		case <-deadline:
			t.Fatal("monitor did not stop")
		default:
			mock.Add(time.Second)
		}
	}
}

func TestMonitorPublishesFrames(t *testing.T) {
	t.Parallel()

	hub := sampler.NewHub(discardLogger())
	t.Cleanup(func() { _ = hub.Close() })

	recorder, err := capture.NewRecorder(t.TempDir(), capture.Raw, discardLogger())
	require.NoError(t, err)

	src := newFakeSource(t, vermeer)
	opts := baseOptions(src, nil)
	opts.Renderer = nil
	opts.Hub = hub
	opts.Recorder = recorder
	opts.Window = history.NewWindow(2)
	opts.Clock = clock.NewMock()

	m, err := NewMonitor(opts)
	require.NoError(t, err)

	ctx := context.Background()
	for range 2 {
		rendered, err := m.Cycle(ctx)
		require.NoError(t, err)
		require.True(t, rendered)
	}

	sample, ok := hub.Latest()
	require.True(t, ok)
	assert.Equal(t, uint32(vermeer), sample.Version)
	require.True(t, json.Valid(sample.Document), "document: %s", sample.Document)
	assert.False(t, bytes.HasSuffix(sample.Document, []byte("\n")))

	var doc map[string]any
	require.NoError(t, json.Unmarshal(sample.Document, &doc))
	assert.Contains(t, doc, "timestamp")
	assert.Equal(t, uint64(2), hub.Published())

	written, skipped := recorder.Stats()
	assert.Equal(t, 1, written)
	assert.Equal(t, 1, skipped)

	// A full window rolls over.
	assert.Equal(t, 0, opts.Window.Len())
}

func TestResolveVersion(t *testing.T) {
	t.Parallel()

	reg := pmtabletest.Registry(t)

	schema, err := ResolveVersion(reg, vermeer, 0, false)
	require.NoError(t, err)
	assert.Equal(t, uint32(vermeer), schema.Version)

	_, err = ResolveVersion(reg, vermeer, pmtabletest.Alternate, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--force")

	schema, err = ResolveVersion(reg, 0x999999, pmtabletest.Alternate, true)
	require.NoError(t, err)
	assert.Equal(t, pmtabletest.Alternate, schema.Version)

	_, err = ResolveVersion(reg, 0x999999, 0, true)
	require.ErrorIs(t, err, pmtable.ErrUnknownVersion)

	_, err = ResolveVersion(pmtable.Builtin(), pmtabletest.Alternate, 0, false)
	require.ErrorIs(t, err, pmtable.ErrUnknownVersion)
}

func TestNewMonitorValidation(t *testing.T) {
	t.Parallel()

	_, err := NewMonitor(MonitorOptions{})
	require.Error(t, err)

	_, err = NewMonitor(MonitorOptions{Source: newFakeSource(t, vermeer)})
	require.Error(t, err)
}

func TestRunOnceFromCapture(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "pm.bin.zst")
	encoded, err := capture.Encode(capture.Zstd, tableBytes(t, vermeer))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, encoded, 0o600))

	cfg := config.Defaults()
	cfg.File = path
	cfg.PMVersion = vermeer
	cfg.Once = true
	cfg.Format = "json"
	cfg.SysfsRoot = dir
	cfg.HistoryDir = filepath.Join(dir, "history")

	var out bytes.Buffer
	require.NoError(t, Run(context.Background(), discardLogger(), cfg, Output{Writer: &out}))

	require.True(t, json.Valid(out.Bytes()), "output: %s", out.String())
	var doc map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &doc))
	assert.Contains(t, doc, "timestamp")

	flushed, err := filepath.Glob(filepath.Join(cfg.HistoryDir, "metrics_*.mebo"))
	require.NoError(t, err)
	assert.Len(t, flushed, 1)
}

func TestRunLoadsExtraLayouts(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "pm.bin")
	require.NoError(t, os.WriteFile(path, tableBytes(t, pmtabletest.Alternate), 0o600))

	cfg := config.Defaults()
	cfg.File = path
	cfg.PMVersion = pmtabletest.Alternate
	cfg.Once = true
	cfg.Format = "json"
	cfg.SysfsRoot = dir

	err := Run(context.Background(), discardLogger(), cfg, Output{Writer: io.Discard})
	require.ErrorIs(t, err, pmtable.ErrUnknownVersion)

	layouts := filepath.Join(dir, "layouts")
	require.NoError(t, os.Mkdir(layouts, 0o750))
	pmtabletest.WriteLayout(t, layouts, pmtabletest.Alternate)
	cfg.LayoutsDir = layouts

	var out bytes.Buffer
	require.NoError(t, Run(context.Background(), discardLogger(), cfg, Output{Writer: &out}))
	require.True(t, json.Valid(out.Bytes()), "output: %s", out.String())
}

func TestRunRejectsMissingDriver(t *testing.T) {
	t.Parallel()

	cfg := config.Defaults()
	cfg.SMURoot = filepath.Join(t.TempDir(), "absent")
	cfg.Once = true

	err := Run(context.Background(), discardLogger(), cfg, Output{Writer: io.Discard})
	require.ErrorIs(t, err, smu.ErrUnsupported)
}
