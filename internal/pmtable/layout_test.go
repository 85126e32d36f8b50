package pmtable

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const stridedLayout = `
version: "0x10"
codename: Test
zen: 3
max_cores: 2
max_l3: 1
blocks:
  - at: 0
    fields: [A, ~, B]
  - at: 4
    arity: 2
    fields: [ARR1, ARR2]
  - at: 10
    arity: 4
    stride: 3
    fields: [S0, ~, S2]
`

func TestParseLayoutBlocks(t *testing.T) {
	t.Parallel()

	schema, err := ParseLayout([]byte(stridedLayout))
	require.NoError(t, err)

	want := []Field{
		{Name: "A", Offset: 0, Arity: 1, Stride: 1},
		{Name: "B", Offset: 2, Arity: 1, Stride: 1},
		{Name: "ARR1", Offset: 4, Arity: 2, Stride: 1},
		{Name: "ARR2", Offset: 6, Arity: 2, Stride: 1},
		{Name: "S0", Offset: 10, Arity: 4, Stride: 3},
		{Name: "S2", Offset: 12, Arity: 4, Stride: 3},
	}
	assert.Equal(t, want, schema.Fields())
	// S2 ends at 12 + 3*3 = 21.
	assert.Equal(t, 22*ElementSize, schema.MinSize)
	assert.Equal(t, uint32(0x10), schema.Version)
	assert.False(t, schema.Declares("S1"))
}

func TestParseLayoutRejectsBadData(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"bad arity": `
version: "1"
blocks:
  - {at: 0, arity: 3, fields: [A]}
`,
		"duplicate": `
version: "1"
blocks:
  - {at: 0, fields: [A]}
  - {at: 5, fields: [A]}
`,
		"overlap": `
version: "1"
blocks:
  - {at: 0, arity: 4, fields: [A]}
  - {at: 3, fields: [B]}
`,
		"stride too narrow": `
version: "1"
blocks:
  - {at: 0, arity: 2, stride: 2, fields: [A, B, C]}
`,
		"unknown key": `
version: "1"
colour: blue
blocks:
  - {at: 0, fields: [A]}
`,
		"bad version": `
version: "vermeer"
blocks:
  - {at: 0, fields: [A]}
`,
		"empty": `
version: "1"
blocks: []
`,
	}

	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := ParseLayout([]byte(data))
			require.Error(t, err)
		})
	}
}

func TestLoadLayoutsRejectsDuplicateVersions(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"l/a.yaml":   {Data: []byte("version: \"0x1\"\nblocks:\n  - {at: 0, fields: [A]}\n")},
		"l/b.yaml":   {Data: []byte("version: \"1\"\nblocks:\n  - {at: 0, fields: [B]}\n")},
		"l/notes.md": {Data: []byte("ignored")},
	}
	_, err := LoadLayouts(fsys, "l")
	require.ErrorContains(t, err, "registered twice")

	delete(fsys, "l/b.yaml")
	schemas, err := LoadLayouts(fsys, "l")
	require.NoError(t, err)
	assert.Len(t, schemas, 1)
}
