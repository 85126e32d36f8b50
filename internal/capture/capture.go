// Package capture reads and writes raw PM table samples on disk, optionally
// compressed with gzip, zstd or lz4.
package capture

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// ErrEmpty is returned when a capture holds no sample bytes.
var ErrEmpty = errors.New("capture: empty sample")

// Codec selects the on-disk encoding of a capture.
type Codec int

const (
	Raw Codec = iota
	Gzip
	Zstd
	LZ4
)

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
	lz4Magic  = []byte{0x04, 0x22, 0x4d, 0x18}
)

func (c Codec) String() string {
	switch c {
	case Raw:
		return "raw"
	case Gzip:
		return "gzip"
	case Zstd:
		return "zstd"
	case LZ4:
		return "lz4"
	default:
		return fmt.Sprintf("codec(%d)", int(c))
	}
}

// Ext returns the file name suffix used for the codec.
func (c Codec) Ext() string {
	switch c {
	case Gzip:
		return ".bin.gz"
	case Zstd:
		return ".bin.zst"
	case LZ4:
		return ".bin.lz4"
	default:
		return ".bin"
	}
}

// ParseCodec maps a codec name to a Codec. "none" and "" mean Raw.
func ParseCodec(name string) (Codec, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "none", "raw":
		return Raw, nil
	case "gzip", "gz":
		return Gzip, nil
	case "zstd", "zst":
		return Zstd, nil
	case "lz4":
		return LZ4, nil
	default:
		return Raw, fmt.Errorf("unknown capture codec %q", name)
	}
}

// Detect identifies the codec from the leading magic bytes.
// Anything unrecognised is treated as a raw sample.
func Detect(data []byte) Codec {
	switch {
	case bytes.HasPrefix(data, gzipMagic):
		return Gzip
	case bytes.HasPrefix(data, zstdMagic):
		return Zstd
	case bytes.HasPrefix(data, lz4Magic):
		return LZ4
	default:
		return Raw
	}
}

// Open reads a capture file and returns the decoded sample.
func Open(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read capture: %w", err)
	}
	sample, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return sample, nil
}

// Decode returns the raw sample held in data.
func Decode(data []byte) ([]byte, error) {
	var (
		out []byte
		err error
	)

	switch Detect(data) {
	case Gzip:
		out, err = decodeGzip(data)
	case Zstd:
		out, err = decodeZstd(data)
	case LZ4:
		out, err = io.ReadAll(lz4.NewReader(bytes.NewReader(data)))
		if err != nil {
			err = fmt.Errorf("lz4: %w", err)
		}
	default:
		out = data
	}
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, ErrEmpty
	}
	return out, nil
}

func decodeGzip(data []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("gzip: %w", err)
	}
	defer zr.Close()

	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("gzip: %w", err)
	}
	return out, nil
}

func decodeZstd(data []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, fmt.Errorf("zstd: %w", err)
	}
	defer dec.Close()

	out, err := dec.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd: %w", err)
	}
	return out, nil
}

// Encode compresses sample with the codec.
func Encode(codec Codec, sample []byte) ([]byte, error) {
	if len(sample) == 0 {
		return nil, ErrEmpty
	}

	switch codec {
	case Raw:
		return bytes.Clone(sample), nil
	case Gzip:
		var buf bytes.Buffer
		zw := gzip.NewWriter(&buf)
		if _, err := zw.Write(sample); err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		if err := zw.Close(); err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		return buf.Bytes(), nil
	case Zstd:
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderConcurrency(1))
		if err != nil {
			return nil, fmt.Errorf("zstd: %w", err)
		}
		defer enc.Close()
		return enc.EncodeAll(sample, nil), nil
	case LZ4:
		var buf bytes.Buffer
		zw := lz4.NewWriter(&buf)
		if _, err := zw.Write(sample); err != nil {
			return nil, fmt.Errorf("lz4: %w", err)
		}
		if err := zw.Close(); err != nil {
			return nil, fmt.Errorf("lz4: %w", err)
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unsupported capture codec %s", codec)
	}
}
