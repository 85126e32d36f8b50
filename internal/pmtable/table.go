package pmtable

import (
	"errors"
	"fmt"
	"slices"
)

// Table binds a schema to one raw PM table buffer. Field locations are
// resolved once at Bind and survive Rebind, so a buffer reused in place
// across polling cycles never needs a fresh Table.
type Table struct {
	schema  *Schema
	buf     []byte
	fields  map[string]Field
	applied []Alias
}

// Bind resolves every declared field of schema inside buf and applies the alias rules.
func Bind(schema *Schema, buf []byte) (*Table, error) {
	if schema == nil {
		return nil, errors.New("pmtable: nil schema")
	}
	if err := checkSize(schema, buf); err != nil {
		return nil, err
	}

	fields := make(map[string]Field, len(schema.fields)+len(aliases))
	for _, f := range schema.fields {
		fields[f.Name] = f
	}

	return &Table{
		schema:  schema,
		buf:     buf,
		fields:  fields,
		applied: resolveAliases(fields),
	}, nil
}

// Rebind points the table at a new buffer holding a sample of the same version.
func (t *Table) Rebind(buf []byte) error {
	if err := checkSize(t.schema, buf); err != nil {
		return err
	}
	t.buf = buf
	return nil
}

func checkSize(schema *Schema, buf []byte) error {
	if len(buf) < schema.MinSize {
		return fmt.Errorf("%w: have %d bytes, version %s needs %d", ErrBufferTooSmall, len(buf), schema, schema.MinSize)
	}
	return nil
}

// Schema returns the bound schema.
func (t *Table) Schema() *Schema {
	return t.schema
}

// Aliases returns the alias rules that resolved a field for this table.
func (t *Table) Aliases() []Alias {
	return slices.Clone(t.applied)
}

// Has reports whether the field is present, either declared or aliased.
func (t *Table) Has(name string) bool {
	_, ok := t.fields[name]
	return ok
}

// Names lists every present field name in ascending order.
func (t *Table) Names() []string {
	names := make([]string, 0, len(t.fields))
	for name := range t.fields {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Get returns the first element of a field.
func (t *Table) Get(name string) Value {
	return t.Series(name).At(0)
}

// At returns the i-th element of a field.
func (t *Table) At(name string, i int) Value {
	return t.Series(name).At(i)
}

// Series returns all elements of a field.
func (t *Table) Series(name string) Series {
	f, ok := t.fields[name]
	if !ok {
		return Series{}
	}
	return Series{buf: t.buf, field: f, present: true}
}
