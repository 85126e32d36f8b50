// Package smu provides PM table sources: the ryzen_smu kernel driver and
// offline capture files.
package smu

import (
	"context"
	"errors"
	"fmt"

	"github.com/skobkin/ryzenmon/internal/capture"
)

// ErrUnsupported is returned when the host exposes no usable SMU interface.
var ErrUnsupported = errors.New("smu: unsupported host")

// Source produces raw PM table samples of a fixed version and size.
type Source interface {
	Version() uint32
	Size() int
	Read(ctx context.Context, buf []byte) error
	Close() error
}

// File replays a single capture as if it were a live table.
type File struct {
	path    string
	version uint32
	data    []byte
}

var _ Source = (*File)(nil)

// OpenFile loads the capture at path. The table version cannot be inferred
// from sample bytes, so it must be supplied by the caller.
func OpenFile(path string, version uint32) (*File, error) {
	if version == 0 {
		return nil, fmt.Errorf("pm table version is required for capture %s", path)
	}
	data, err := capture.Open(path)
	if err != nil {
		return nil, err
	}
	return &File{path: path, version: version, data: data}, nil
}

func (f *File) Version() uint32 { return f.version }
func (f *File) Size() int       { return len(f.data) }

// Read copies the capture into buf.
func (f *File) Read(ctx context.Context, buf []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(buf) < len(f.data) {
		return fmt.Errorf("buffer holds %d bytes, capture has %d", len(buf), len(f.data))
	}
	copy(buf, f.data)
	return nil
}

func (f *File) Close() error { return nil }

// Path returns the capture location.
func (f *File) Path() string { return f.path }
