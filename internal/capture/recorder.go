package capture

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Recorder writes samples into a directory, one file per distinct sample.
// A sample identical to the previously recorded one is skipped.
type Recorder struct {
	dir    string
	codec  Codec
	logger *slog.Logger

	mu       sync.Mutex
	lastHash uint64
	hasLast  bool
	written  int
	skipped  int
}

// NewRecorder prepares dir (creating it when missing) for recording.
func NewRecorder(dir string, codec Codec, logger *slog.Logger) (*Recorder, error) {
	if dir == "" {
		return nil, fmt.Errorf("record directory must not be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create record directory: %w", err)
	}
	return &Recorder{
		dir:    dir,
		codec:  codec,
		logger: logger.With("component", "capture_recorder"),
	}, nil
}

// Record stores sample under pm_<version>_<unix-nanos><ext>. It returns the
// written path, or "" when the sample duplicated the previous one.
func (r *Recorder) Record(version uint32, sample []byte, at time.Time) (string, error) {
	if len(sample) == 0 {
		return "", ErrEmpty
	}

	sum := xxhash.Sum64(sample)

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.hasLast && sum == r.lastHash {
		r.skipped++
		r.logger.Debug("duplicate sample skipped", "hash", fmt.Sprintf("%016x", sum))
		return "", nil
	}

	data, err := Encode(r.codec, sample)
	if err != nil {
		return "", err
	}

	name := fmt.Sprintf("pm_%06x_%d%s", version, at.UnixNano(), r.codec.Ext())
	path := filepath.Join(r.dir, name)
	if err := os.WriteFile(path, data, 0o640); err != nil {
		return "", fmt.Errorf("write capture: %w", err)
	}

	r.lastHash = sum
	r.hasLast = true
	r.written++
	r.logger.Debug("sample recorded", "path", path, "bytes", len(data))
	return path, nil
}

// Stats reports how many samples were written and skipped.
func (r *Recorder) Stats() (written, skipped int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.written, r.skipped
}
