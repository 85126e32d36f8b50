package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/skobkin/ryzenmon/internal/capture"
	"github.com/skobkin/ryzenmon/internal/history"
	"github.com/skobkin/ryzenmon/internal/metrics"
	"github.com/skobkin/ryzenmon/internal/pmtable"
	"github.com/skobkin/ryzenmon/internal/render"
	"github.com/skobkin/ryzenmon/internal/report"
	"github.com/skobkin/ryzenmon/internal/sampler"
	"github.com/skobkin/ryzenmon/internal/smu"
)

// DefaultRetryDelay is the pause between failed reads.
const DefaultRetryDelay = 20 * time.Millisecond

// MonitorOptions configures a Monitor. Source is required; every sink is optional.
type MonitorOptions struct {
	Source   smu.Source
	Renderer render.Renderer
	Clock    clock.Clock
	Logger   *slog.Logger

	Info         report.SysInfo
	Topology     metrics.Topology
	ShowDisabled bool

	// Registry resolves PM table versions; nil means the built-in layouts.
	Registry *pmtable.Registry
	// PinnedVersion overrides the version reported by Source when Force is set,
	// and must match it otherwise.
	PinnedVersion uint32
	Force         bool

	Interval   time.Duration
	RetryDelay time.Duration
	Once       bool

	Hub      *sampler.Hub
	Recorder *capture.Recorder
	History  *history.Writer
	// Window collects frames for serving when no History writer is configured.
	// It is reset whenever it fills up.
	Window *history.Window
}

// Monitor owns the sample buffer and drives one frame per cycle.
type Monitor struct {
	opts   MonitorOptions
	clock  clock.Clock
	logger *slog.Logger

	buf     []byte
	table   *pmtable.Table
	version uint32

	doc     bytes.Buffer
	docJSON *render.JSON

	frames   uint64
	failures uint64
}

// NewMonitor validates opts and returns a ready monitor.
func NewMonitor(opts MonitorOptions) (*Monitor, error) {
	if opts.Source == nil {
		return nil, errors.New("monitor: source is required")
	}
	if opts.Interval <= 0 && !opts.Once {
		return nil, errors.New("interval must be > 0")
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = DefaultRetryDelay
	}
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Registry == nil {
		opts.Registry = pmtable.Builtin()
	}
	if opts.History != nil {
		opts.Window = opts.History.Window()
	}

	m := &Monitor{
		opts:   opts,
		clock:  opts.Clock,
		logger: opts.Logger.With("component", "monitor"),
	}
	if opts.Hub != nil {
		m.docJSON = render.NewJSON(&m.doc)
		if err := m.docJSON.Init(true, false); err != nil {
			return nil, fmt.Errorf("init document renderer: %w", err)
		}
	}
	return m, nil
}

// ResolveVersion picks the layout in reg for a reported version. A pinned
// version wins over the reported one only when force is set.
func ResolveVersion(reg *pmtable.Registry, reported, pinned uint32, force bool) (*pmtable.Schema, error) {
	version := reported
	if pinned != 0 && pinned != reported {
		if !force {
			return nil, fmt.Errorf("source reports PM table version %s but %s was requested; use --force to override",
				pmtable.FormatVersion(reported), pmtable.FormatVersion(pinned))
		}
		version = pinned
	}

	schema, err := reg.Lookup(version)
	if err != nil {
		if errors.Is(err, pmtable.ErrUnknownVersion) && pinned == 0 {
			return nil, fmt.Errorf("PM table version %s is not currently supported; use --force --pm-version to decode it with a known layout: %w",
				pmtable.FormatVersion(version), err)
		}
		return nil, err
	}
	return schema, nil
}

// Run loops until ctx is cancelled, or for exactly one rendered frame in
// one-shot mode. Read failures are retried indefinitely.
func (m *Monitor) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		rendered, err := m.Cycle(ctx)
		if err != nil {
			return err
		}
		if rendered && m.opts.Once {
			return nil
		}

		delay := m.opts.Interval
		if !rendered {
			delay = m.opts.RetryDelay
		}
		if !m.sleep(ctx, delay) {
			return nil
		}
	}
}

// Cycle performs one read, bind, compute, render and publish pass. It
// reports false without error when the read failed and should be retried.
func (m *Monitor) Cycle(ctx context.Context) (bool, error) {
	src := m.opts.Source

	if size := src.Size(); len(m.buf) != size {
		m.buf = make([]byte, size)
		m.table = nil
	}

	if err := src.Read(ctx, m.buf); err != nil {
		if ctx.Err() != nil {
			return false, nil
		}
		m.failures++
		m.logger.Debug("pm table read failed, retrying", "err", err, "failures", m.failures)
		return false, nil
	}

	if err := m.bind(src.Version()); err != nil {
		return false, err
	}

	at := m.clock.Now()
	snap := metrics.Compute(m.table, m.opts.Topology, metrics.Options{ShowDisabled: m.opts.ShowDisabled})
	frame := report.Frame{
		Info:         m.opts.Info,
		Table:        m.table,
		Snapshot:     snap,
		ShowDisabled: m.opts.ShowDisabled,
	}

	if m.opts.Renderer != nil {
		if err := report.Draw(m.opts.Renderer, frame); err != nil {
			return false, fmt.Errorf("render frame: %w", err)
		}
	}
	m.frames++

	m.record(at)
	m.remember(at, snap)
	if err := m.publish(at, frame); err != nil {
		return false, err
	}
	return true, nil
}

// Frames returns the number of frames rendered so far.
func (m *Monitor) Frames() uint64 {
	return m.frames
}

// Failures returns the number of failed reads so far.
func (m *Monitor) Failures() uint64 {
	return m.failures
}

func (m *Monitor) bind(reported uint32) error {
	if m.table != nil && reported == m.version {
		return m.rebind()
	}

	schema, err := ResolveVersion(m.opts.Registry, reported, m.opts.PinnedVersion, m.opts.Force)
	if err != nil {
		return err
	}
	table, err := pmtable.Bind(schema, m.buf)
	if err != nil {
		return m.sizeError(err)
	}
	if m.table != nil {
		m.logger.Info("pm table version changed", "from", pmtable.FormatVersion(m.version), "to", pmtable.FormatVersion(reported))
	}
	m.table = table
	m.version = reported
	return nil
}

func (m *Monitor) rebind() error {
	if err := m.table.Rebind(m.buf); err != nil {
		return m.sizeError(err)
	}
	return nil
}

func (m *Monitor) sizeError(err error) error {
	if !errors.Is(err, pmtable.ErrBufferTooSmall) {
		return err
	}
	if f, ok := m.opts.Source.(*smu.File); ok {
		return fmt.Errorf("capture file too short: %s: %w", f.Path(), err)
	}
	return fmt.Errorf("live source inconsistent with its reported version: %w", err)
}

func (m *Monitor) record(at time.Time) {
	if m.opts.Recorder == nil {
		return
	}
	if _, err := m.opts.Recorder.Record(m.table.Schema().Version, m.buf, at); err != nil {
		m.logger.Warn("failed to record sample", "err", err)
	}
}

func (m *Monitor) remember(at time.Time, snap metrics.Snapshot) {
	ms := snap.Metrics()
	switch {
	case m.opts.History != nil:
		if _, err := m.opts.History.Add(at, ms); err != nil {
			m.logger.Warn("failed to write history", "err", err)
		}
	case m.opts.Window != nil:
		if m.opts.Window.Add(at, ms) {
			m.opts.Window.Reset()
		}
	}
}

func (m *Monitor) publish(at time.Time, frame report.Frame) error {
	if m.opts.Hub == nil {
		return nil
	}

	m.doc.Reset()
	if err := report.Draw(m.docJSON, frame); err != nil {
		return fmt.Errorf("render document: %w", err)
	}
	m.opts.Hub.Publish(sampler.Sample{
		Timestamp: at,
		Version:   m.table.Schema().Version,
		Snapshot:  frame.Snapshot,
		Document:  bytes.Clone(m.doc.Bytes()),
	})
	return nil
}

func (m *Monitor) sleep(ctx context.Context, d time.Duration) bool {
	timer := m.clock.Timer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
