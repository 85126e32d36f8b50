package pmtable

import (
	"fmt"
	"maps"
	"slices"
	"sync"
)

// Registry maps PM table versions to layouts. It is immutable once built.
type Registry struct {
	schemas map[uint32]*Schema
}

var builtin = sync.OnceValue(func() *Registry {
	schemas, err := LoadLayouts(embeddedLayouts, "layouts")
	if err != nil {
		panic(fmt.Sprintf("pmtable: embedded layouts: %v", err))
	}
	return &Registry{schemas: schemas}
})

// Builtin returns the registry of embedded layouts.
func Builtin() *Registry {
	return builtin()
}

// Extend returns a registry holding r's layouts plus extra. A version that r
// already knows cannot be replaced.
func (r *Registry) Extend(extra map[uint32]*Schema) (*Registry, error) {
	merged := maps.Clone(r.schemas)
	for v, s := range extra {
		if _, dup := merged[v]; dup {
			return nil, fmt.Errorf("layout %s is already registered", FormatVersion(v))
		}
		merged[v] = s
	}
	return &Registry{schemas: merged}, nil
}

// Lookup returns the schema for an exact version match.
func (r *Registry) Lookup(version uint32) (*Schema, error) {
	s, ok := r.schemas[version]
	if !ok {
		return nil, fmt.Errorf("%w %s", ErrUnknownVersion, FormatVersion(version))
	}
	return s, nil
}

// Versions lists the registered versions in ascending order.
func (r *Registry) Versions() []uint32 {
	return slices.Sorted(maps.Keys(r.schemas))
}

// Lookup finds version among the built-in layouts.
func Lookup(version uint32) (*Schema, error) {
	return Builtin().Lookup(version)
}

// Versions lists the built-in layout versions in ascending order.
func Versions() []uint32 {
	return Builtin().Versions()
}
