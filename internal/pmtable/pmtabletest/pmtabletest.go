// Package pmtabletest provides synthetic PM table layouts for tests. None of
// them describe real firmware.
package pmtabletest

import (
	"embed"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/skobkin/ryzenmon/internal/pmtable"
)

// Synthetic layout versions. Each is a 0x380804 derivative reshaped to cover
// one layout property.
const (
	// SingleCCD has 8 cores and one L3 slice.
	SingleCCD uint32 = 0xf00001
	// QuadCCX is a Zen 2 layout with four L3 slices.
	QuadCCX uint32 = 0xf00004
	// APU declares graphics fields, leaves alias targets undeclared and sets power_sum_unclear.
	APU uint32 = 0xf000a0
	// Alternate is 0x380804 under another version number.
	Alternate uint32 = 0xf00804
)

//go:embed testdata/*.yaml
var fixtures embed.FS

// files names the fixture holding each synthetic version.
var files = map[uint32]string{
	SingleCCD: "single_ccd.yaml",
	QuadCCX:   "quad_ccx.yaml",
	APU:       "apu.yaml",
	Alternate: "alternate.yaml",
}

// WriteLayout copies the YAML layout of a synthetic version into dir, for
// code that loads layouts from disk.
func WriteLayout(tb testing.TB, dir string, version uint32) {
	tb.Helper()
	name, ok := files[version]
	if !ok {
		tb.Fatalf("no synthetic layout %s", pmtable.FormatVersion(version))
	}
	data, err := fs.ReadFile(fixtures, "testdata/"+name)
	if err != nil {
		tb.Fatalf("read %s: %v", name, err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o600); err != nil {
		tb.Fatalf("write %s: %v", name, err)
	}
}

// Layouts parses the synthetic layouts.
func Layouts(tb testing.TB) map[uint32]*pmtable.Schema {
	tb.Helper()
	schemas, err := pmtable.LoadLayouts(fixtures, "testdata")
	if err != nil {
		tb.Fatalf("load test layouts: %v", err)
	}
	return schemas
}

// Registry returns the built-in layouts extended with the synthetic ones.
func Registry(tb testing.TB) *pmtable.Registry {
	tb.Helper()
	reg, err := pmtable.Builtin().Extend(Layouts(tb))
	if err != nil {
		tb.Fatalf("extend registry: %v", err)
	}
	return reg
}

// Lookup returns a built-in or synthetic layout.
func Lookup(tb testing.TB, version uint32) *pmtable.Schema {
	tb.Helper()
	schema, err := Registry(tb).Lookup(version)
	if err != nil {
		tb.Fatalf("lookup %s: %v", pmtable.FormatVersion(version), err)
	}
	return schema
}
