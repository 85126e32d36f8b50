package smu

import (
	"context"
	"encoding/binary"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/skobkin/ryzenmon/internal/capture"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFile(t *testing.T, path string, contents []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatalf("failed to create directories for %s: %v", path, err)
	}
	if err := os.WriteFile(path, contents, 0o600); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func le32(v uint32) []byte {
	out := make([]byte, 4)
	binary.LittleEndian.PutUint32(out, v)
	return out
}

func le64(v uint64) []byte {
	out := make([]byte, 8)
	binary.LittleEndian.PutUint64(out, v)
	return out
}

func fakeDriver(t *testing.T, table []byte) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, pmTableVersionFilename), le32(0x380804))
	writeFile(t, filepath.Join(root, pmTableSizeFilename), le64(uint64(len(table))))
	writeFile(t, filepath.Join(root, pmTableFilename), table)
	writeFile(t, filepath.Join(root, firmwareFilename), le32(0x00383500))
	writeFile(t, filepath.Join(root, codenameFilename), []byte("12\n"))
	writeFile(t, filepath.Join(root, mp1IfVersionFilename), []byte("4\n"))
	writeFile(t, filepath.Join(root, driverVersionFilename), []byte("0.1.5\n"))
	writeFile(t, filepath.Join(root, smnFilename), make([]byte, 4))
	return root
}

func TestDriverReadsTable(t *testing.T) {
	t.Parallel()

	table := make([]byte, 0x794)
	for i := range table {
		table[i] = byte(i)
	}
	root := fakeDriver(t, table)

	d, err := OpenDriver(root, discardLogger())
	if err != nil {
		t.Fatalf("OpenDriver returned error: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })

	if d.Version() != 0x380804 {
		t.Fatalf("unexpected version 0x%x", d.Version())
	}
	if d.Size() != len(table) {
		t.Fatalf("unexpected size %d", d.Size())
	}

	buf := make([]byte, d.Size())
	if err := d.Read(context.Background(), buf); err != nil {
		t.Fatalf("Read returned error: %v", err)
	}
	if buf[0x100] != table[0x100] || buf[len(buf)-1] != table[len(table)-1] {
		t.Fatalf("table contents not copied")
	}

	if err := d.Read(context.Background(), make([]byte, 8)); err == nil {
		t.Fatalf("expected error for short buffer")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := d.Read(ctx, buf); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestDriverInfo(t *testing.T) {
	t.Parallel()

	d, err := OpenDriver(fakeDriver(t, make([]byte, 64)), discardLogger())
	if err != nil {
		t.Fatalf("OpenDriver returned error: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })

	info, err := d.Info()
	if err != nil {
		t.Fatalf("Info returned error: %v", err)
	}
	if got := info.FirmwareString(); got != "56.53.0" {
		t.Fatalf("unexpected firmware %q", got)
	}
	if got := info.CodenameString(); got != "Vermeer" {
		t.Fatalf("unexpected codename %q", got)
	}
	if info.MP1IFVersion != 13 {
		t.Fatalf("unexpected mp1 version %d", info.MP1IFVersion)
	}
	if info.DriverVersion != "0.1.5" {
		t.Fatalf("unexpected driver version %q", info.DriverVersion)
	}
}

func TestDriverProbesSizeWithoutSizeFile(t *testing.T) {
	t.Parallel()

	root := fakeDriver(t, make([]byte, 96))
	if err := os.Remove(filepath.Join(root, pmTableSizeFilename)); err != nil {
		t.Fatalf("remove: %v", err)
	}

	d, err := OpenDriver(root, discardLogger())
	if err != nil {
		t.Fatalf("OpenDriver returned error: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	if d.Size() != 96 {
		t.Fatalf("expected probed size 96, got %d", d.Size())
	}
}

func TestDriverUnsupported(t *testing.T) {
	t.Parallel()

	_, err := OpenDriver(filepath.Join(t.TempDir(), "missing"), discardLogger())
	if !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}

	root := t.TempDir()
	writeFile(t, filepath.Join(root, firmwareFilename), le32(1))
	_, err = OpenDriver(root, discardLogger())
	if !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported without pm_table_version, got %v", err)
	}
}

func TestDriverSMNWritesAddress(t *testing.T) {
	t.Parallel()

	root := fakeDriver(t, make([]byte, 16))
	d, err := OpenDriver(root, discardLogger())
	if err != nil {
		t.Fatalf("OpenDriver returned error: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })

	// A plain file echoes the written address back.
	value, err := d.ReadSMN(0x5d218)
	if err != nil {
		t.Fatalf("ReadSMN returned error: %v", err)
	}
	if value != 0x5d218 {
		t.Fatalf("unexpected smn value 0x%x", value)
	}
}

func TestParseUint(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   []byte
		want uint64
		err  bool
	}{
		{name: "binary32", in: le32(0x240903), want: 0x240903},
		{name: "binary64", in: le64(0x794), want: 0x794},
		{name: "decimal", in: []byte("1940\n"), want: 1940},
		{name: "hex", in: []byte("0x380805\n"), want: 0x380805},
		{name: "empty", in: []byte("\n"), err: true},
		{name: "odd binary", in: []byte{0, 1, 2}, err: true},
	}

	for _, tc := range cases {
		got, err := parseUint(tc.in)
		if tc.err {
			if err == nil {
				t.Fatalf("%s: expected error", tc.name)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%s: unexpected error %v", tc.name, err)
		}
		if got != tc.want {
			t.Fatalf("%s: expected 0x%x, got 0x%x", tc.name, tc.want, got)
		}
	}
}

func TestFileSource(t *testing.T) {
	t.Parallel()

	sample := make([]byte, 128)
	sample[4] = 0x42
	data, err := capture.Encode(capture.LZ4, sample)
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}
	path := filepath.Join(t.TempDir(), "pm.bin.lz4")
	writeFile(t, path, data)

	if _, err := OpenFile(path, 0); err == nil {
		t.Fatalf("expected error without version")
	}

	f, err := OpenFile(path, 0x380804)
	if err != nil {
		t.Fatalf("OpenFile returned error: %v", err)
	}
	if f.Version() != 0x380804 || f.Size() != 128 {
		t.Fatalf("unexpected source %x/%d", f.Version(), f.Size())
	}

	buf := make([]byte, f.Size())
	if err := f.Read(context.Background(), buf); err != nil {
		t.Fatalf("Read returned error: %v", err)
	}
	if buf[4] != 0x42 {
		t.Fatalf("sample not copied")
	}
	if err := f.Read(context.Background(), buf[:10]); err == nil {
		t.Fatalf("expected error for short buffer")
	}
}
