// Package pmtable describes SMU PM table layouts and binds raw table buffers to them.
package pmtable

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// ElementSize is the width of one PM table element in bytes.
const ElementSize = 4

var (
	// ErrUnknownVersion is returned for PM table versions without a registered layout.
	ErrUnknownVersion = errors.New("pmtable: unknown version")
	// ErrBufferTooSmall is returned when a buffer cannot hold every field of a schema.
	ErrBufferTooSmall = errors.New("pmtable: buffer too small")
)

// Flags carry per-layout capabilities.
type Flags struct {
	HasGraphics     bool `yaml:"has_graphics" json:"has_graphics"`
	Experimental    bool `yaml:"experimental" json:"experimental"`
	PowerSumUnclear bool `yaml:"power_sum_unclear" json:"power_sum_unclear"`
}

// Field locates one named value or array inside the table.
// Element i of the field lives at Offset + i*Stride, in element units.
type Field struct {
	Name   string `json:"name"`
	Offset int    `json:"offset"`
	Arity  int    `json:"arity"`
	Stride int    `json:"stride"`
}

// Element returns the element offset of the i-th value.
func (f Field) Element(i int) int {
	return f.Offset + i*f.Stride
}

// Last returns the highest element offset referenced by the field.
func (f Field) Last() int {
	return f.Element(f.Arity - 1)
}

// Schema is an immutable PM table layout for one version.
type Schema struct {
	Version  uint32
	Codename string
	Zen      int
	MaxCores int
	MaxL3    int
	Flags    Flags
	MinSize  int

	fields []Field
	index  map[string]int
}

// Field returns the declared field with the given name.
func (s *Schema) Field(name string) (Field, bool) {
	idx, ok := s.index[name]
	if !ok {
		return Field{}, false
	}
	return s.fields[idx], true
}

// Fields returns the declared fields in layout order.
func (s *Schema) Fields() []Field {
	return slices.Clone(s.fields)
}

// Declares reports whether the schema declares the field.
func (s *Schema) Declares(name string) bool {
	_, ok := s.index[name]
	return ok
}

func (s *Schema) String() string {
	return FormatVersion(s.Version)
}

// ParseVersion accepts hex ("0x380804") or decimal version identifiers.
func ParseVersion(input string) (uint32, error) {
	value := strings.TrimSpace(input)
	if value == "" {
		return 0, fmt.Errorf("empty pm table version")
	}
	v, err := strconv.ParseUint(value, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("parse pm table version %q: %w", input, err)
	}
	return uint32(v), nil
}

// FormatVersion renders a version the way the SMU driver reports it.
func FormatVersion(version uint32) string {
	return fmt.Sprintf("0x%06x", version)
}
