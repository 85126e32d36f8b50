package pmtable

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"path"

	"gopkg.in/yaml.v3"
)

// Only layouts checked against a real table dump are embedded. Anything
// else is loaded at runtime through LoadLayouts.
//
//go:embed layouts/*.yaml
var embeddedLayouts embed.FS

// layoutDoc is the on-disk form of a schema. Blocks keep the data compact:
// a block without stride lays its fields out back to back, each taking
// arity elements; a strided block interleaves its fields so that element i
// of the j-th field sits at at + i*stride + j.
type layoutDoc struct {
	Version  string        `yaml:"version"`
	Codename string        `yaml:"codename"`
	Zen      int           `yaml:"zen"`
	MaxCores int           `yaml:"max_cores"`
	MaxL3    int           `yaml:"max_l3"`
	Flags    Flags         `yaml:"flags"`
	Blocks   []layoutBlock `yaml:"blocks"`
}

type layoutBlock struct {
	At     int `yaml:"at"`
	Arity  int `yaml:"arity"`
	Stride int `yaml:"stride"`

	// Fields uses pointers so that a null entry keeps its slot as reserved.
	Fields []*string `yaml:"fields"`
}

// LoadLayouts parses every *.yaml layout in dir.
func LoadLayouts(fsys fs.FS, dir string) (map[uint32]*Schema, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read layout dir: %w", err)
	}

	out := make(map[uint32]*Schema, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || path.Ext(entry.Name()) != ".yaml" {
			continue
		}
		data, err := fs.ReadFile(fsys, path.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read layout %s: %w", entry.Name(), err)
		}
		schema, err := ParseLayout(data)
		if err != nil {
			return nil, fmt.Errorf("layout %s: %w", entry.Name(), err)
		}
		if _, dup := out[schema.Version]; dup {
			return nil, fmt.Errorf("layout %s: version %s registered twice", entry.Name(), schema)
		}
		out[schema.Version] = schema
	}
	return out, nil
}

// ParseLayout builds a Schema from its YAML description and computes MinSize.
func ParseLayout(data []byte) (*Schema, error) {
	var doc layoutDoc
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode layout: %w", err)
	}

	version, err := ParseVersion(doc.Version)
	if err != nil {
		return nil, err
	}

	schema := &Schema{
		Version:  version,
		Codename: doc.Codename,
		Zen:      doc.Zen,
		MaxCores: doc.MaxCores,
		MaxL3:    doc.MaxL3,
		Flags:    doc.Flags,
		index:    make(map[string]int),
	}

	owner := make(map[int]string)
	last := -1
	for bi, block := range doc.Blocks {
		arity := block.Arity
		if arity == 0 {
			arity = 1
		}
		if !validArity(arity) {
			return nil, fmt.Errorf("block %d: arity %d not one of 1, 2, 4, 8, 16", bi, arity)
		}
		if block.At < 0 || block.Stride < 0 {
			return nil, fmt.Errorf("block %d: negative offset or stride", bi)
		}
		if block.Stride > 0 && len(block.Fields) > block.Stride {
			return nil, fmt.Errorf("block %d: %d fields do not fit stride %d", bi, len(block.Fields), block.Stride)
		}

		for j, entry := range block.Fields {
			if entry == nil || *entry == "" {
				continue
			}
			name := *entry
			field := Field{Name: name, Arity: arity, Offset: block.At + j*arity, Stride: 1}
			if block.Stride > 0 {
				field.Offset = block.At + j
				field.Stride = block.Stride
			}
			if _, dup := schema.index[name]; dup {
				return nil, fmt.Errorf("block %d: field %s declared twice", bi, name)
			}
			for i := 0; i < arity; i++ {
				element := field.Element(i)
				if prev, taken := owner[element]; taken {
					return nil, fmt.Errorf("block %d: field %s overlaps %s at element %d", bi, name, prev, element)
				}
				owner[element] = name
			}

			schema.index[name] = len(schema.fields)
			schema.fields = append(schema.fields, field)
			last = max(last, field.Last())
		}
	}

	if len(schema.fields) == 0 {
		return nil, fmt.Errorf("layout %s declares no fields", schema)
	}
	schema.MinSize = (last + 1) * ElementSize
	return schema, nil
}

func validArity(n int) bool {
	switch n {
	case 1, 2, 4, 8, 16:
		return true
	default:
		return false
	}
}
