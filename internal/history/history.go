// Package history keeps a rolling window of computed metrics and encodes it
// as a compact mebo numeric blob.
package history

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/arloliu/mebo"

	"github.com/skobkin/ryzenmon/internal/metrics"
)

// MaxFrames is the largest window a single blob can hold.
const MaxFrames = math.MaxUint16

// ErrNoData is returned when encoding an empty window.
var ErrNoData = errors.New("history: no frames recorded")

// Point is one decoded sample of a metric.
type Point struct {
	At    time.Time `json:"ts"`
	Value float64   `json:"value"`
}

// Series is the decoded history of one metric.
type Series struct {
	Name   string  `json:"name"`
	Points []Point `json:"points"`
}

type sample struct {
	ts    int64
	value float64
}

// Window accumulates metric frames in memory until it reaches capacity.
type Window struct {
	mu       sync.Mutex
	capacity int
	start    time.Time
	frames   int
	order    []string
	series   map[string][]sample
}

// NewWindow returns a window holding up to capacity frames.
func NewWindow(capacity int) *Window {
	if capacity <= 0 || capacity > MaxFrames {
		capacity = MaxFrames
	}
	return &Window{capacity: capacity, series: make(map[string][]sample)}
}

// Add appends one frame and reports whether the window is now full.
// Frames past capacity are dropped until Reset.
func (w *Window) Add(at time.Time, ms []metrics.Metric) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.frames >= w.capacity {
		return true
	}
	if w.frames == 0 {
		w.start = at
	}
	ts := at.UnixMicro()
	for _, m := range ms {
		if _, ok := w.series[m.Name]; !ok {
			w.order = append(w.order, m.Name)
		}
		w.series[m.Name] = append(w.series[m.Name], sample{ts: ts, value: m.Value})
	}
	w.frames++
	return w.frames >= w.capacity
}

// Len returns the number of frames held.
func (w *Window) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.frames
}

// Names lists the metric names in first-seen order.
func (w *Window) Names() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.order...)
}

// Start returns the time of the first frame.
func (w *Window) Start() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.start
}

// Reset empties the window.
func (w *Window) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.frames = 0
	w.order = nil
	w.series = make(map[string][]sample)
	w.start = time.Time{}
}

// Encode serialises the window into a mebo numeric blob with microsecond timestamps.
func (w *Window) Encode() ([]byte, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.frames == 0 {
		return nil, ErrNoData
	}

	enc, err := mebo.NewDefaultNumericEncoder(w.start)
	if err != nil {
		return nil, fmt.Errorf("create encoder: %w", err)
	}
	for _, name := range w.order {
		points := w.series[name]
		if err := enc.StartMetricName(name, len(points)); err != nil {
			return nil, fmt.Errorf("start metric %s: %w", name, err)
		}
		for _, p := range points {
			if err := enc.AddDataPoint(p.ts, p.value, ""); err != nil {
				return nil, fmt.Errorf("add point to %s: %w", name, err)
			}
		}
		if err := enc.EndMetric(); err != nil {
			return nil, fmt.Errorf("end metric %s: %w", name, err)
		}
	}

	data, err := enc.Finish()
	if err != nil {
		return nil, fmt.Errorf("finish blob: %w", err)
	}
	return data, nil
}

// Decode reads the named metrics back from a blob. Names absent from the
// blob are skipped.
func Decode(data []byte, names []string) ([]Series, error) {
	dec, err := mebo.NewNumericDecoder(data)
	if err != nil {
		return nil, fmt.Errorf("open blob: %w", err)
	}
	blob, err := dec.Decode()
	if err != nil {
		return nil, fmt.Errorf("decode blob: %w", err)
	}

	out := make([]Series, 0, len(names))
	for _, name := range names {
		if blob.LenByName(name) == 0 {
			continue
		}
		s := Series{Name: name}
		for _, dp := range blob.AllByName(name) {
			s.Points = append(s.Points, Point{At: time.UnixMicro(dp.Ts).UTC(), Value: dp.Val})
		}
		out = append(out, s)
	}
	return out, nil
}

// Writer flushes full windows into dir as metrics_<unix-nanos>.mebo files.
type Writer struct {
	dir    string
	window *Window
	logger *slog.Logger
}

// NewWriter creates dir when needed and returns a writer flushing every capacity frames.
func NewWriter(dir string, capacity int, logger *slog.Logger) (*Writer, error) {
	if dir == "" {
		return nil, fmt.Errorf("history directory must not be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}
	return &Writer{
		dir:    dir,
		window: NewWindow(capacity),
		logger: logger.With("component", "history"),
	}, nil
}

// Window exposes the in-memory window.
func (w *Writer) Window() *Window {
	return w.window
}

// Add records a frame, flushing to disk when the window fills up.
// It returns the written path, or "" when nothing was flushed.
func (w *Writer) Add(at time.Time, ms []metrics.Metric) (string, error) {
	if !w.window.Add(at, ms) {
		return "", nil
	}
	return w.Flush()
}

// Flush writes the current window and resets it.
func (w *Writer) Flush() (string, error) {
	data, err := w.window.Encode()
	if errors.Is(err, ErrNoData) {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	path := filepath.Join(w.dir, fmt.Sprintf("metrics_%d.mebo", w.window.Start().UnixNano()))
	if err := os.WriteFile(path, data, 0o640); err != nil {
		return "", fmt.Errorf("write history: %w", err)
	}
	w.logger.Debug("history flushed", "path", path, "frames", w.window.Len(), "bytes", len(data))
	w.window.Reset()
	return path, nil
}
