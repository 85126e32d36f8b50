package pmtable

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Value is an optional handle to one float32 element of a bound table.
// The zero Value is absent.
type Value struct {
	buf     []byte
	element int
	present bool
}

// Present reports whether the schema provides this value.
func (v Value) Present() bool {
	return v.present
}

// Float returns the value, or NaN when absent.
func (v Value) Float() float64 {
	if !v.present {
		return math.NaN()
	}
	return v.read()
}

// OrZero returns the value, or 0 when absent. Use it for additive aggregates only.
func (v Value) OrZero() float64 {
	if !v.present {
		return 0
	}
	return v.read()
}

func (v Value) read() float64 {
	off := v.element * ElementSize
	return float64(math.Float32frombits(binary.LittleEndian.Uint32(v.buf[off : off+ElementSize])))
}

// Series is an optional handle to all elements of a field.
type Series struct {
	buf     []byte
	field   Field
	present bool
}

// Present reports whether the schema provides this field.
func (s Series) Present() bool {
	return s.present
}

// Len returns the field arity, or 0 when absent.
func (s Series) Len() int {
	if !s.present {
		return 0
	}
	return s.field.Arity
}

// At returns the i-th element; out of range indices are absent.
func (s Series) At(i int) Value {
	if !s.present || i < 0 || i >= s.field.Arity {
		return Value{}
	}
	return Value{buf: s.buf, element: s.field.Element(i), present: true}
}

// Floats returns every element. Absent series yield an empty slice.
func (s Series) Floats() []float64 {
	out := make([]float64, s.Len())
	for i := range out {
		out[i] = s.At(i).Float()
	}
	return out
}

// OrZero is the zero-default read of every element. An absent series contributes nothing.
func (s Series) OrZero() []float64 {
	out := make([]float64, s.Len())
	for i := range out {
		out[i] = s.At(i).OrZero()
	}
	return out
}

// Sum adds all elements in order. An absent series sums to 0.
func (s Series) Sum() float64 {
	var total float64
	for i := range s.Len() {
		total += s.At(i).OrZero()
	}
	return total
}

// NewBuffer allocates a zeroed buffer of exactly MinSize bytes for s.
func NewBuffer(s *Schema) []byte {
	return make([]byte, s.MinSize)
}

// Put stores v as element i of a field declared by s.
func Put(s *Schema, buf []byte, name string, i int, v float32) error {
	f, ok := s.Field(name)
	if !ok {
		return fmt.Errorf("pmtable: %s does not declare %s", s, name)
	}
	if i < 0 || i >= f.Arity {
		return fmt.Errorf("pmtable: %s[%d] out of range, arity %d", name, i, f.Arity)
	}
	off := f.Element(i) * ElementSize
	if off+ElementSize > len(buf) {
		return fmt.Errorf("%w: %s[%d] at byte %d", ErrBufferTooSmall, name, i, off)
	}
	binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(v))
	return nil
}
