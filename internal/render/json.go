package render

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/skobkin/ryzenmon/internal/metrics"
)

// JSON writes each frame as one object stamped with a monotonic nanosecond
// timestamp. The core group becomes an array, other groups nested objects.
type JSON struct {
	tracker

	w       *bufio.Writer
	newline bool
	now     func() int64

	topLevel int
	inGroup  int
	scratch  []byte
}

// NewJSON returns a renderer writing bare JSON objects.
func NewJSON(w io.Writer) *JSON {
	return &JSON{w: bufio.NewWriter(w), now: monotonicNanos}
}

// NewNDJSON returns a renderer writing one newline-terminated object per frame.
func NewNDJSON(w io.Writer) *JSON {
	r := NewJSON(w)
	r.newline = true
	return r
}

func (j *JSON) Init(bool, bool) error {
	j.tracker.init()
	return j.err
}

func (j *JSON) Cleanup() error {
	j.cleanup()
	return j.flush()
}

func (j *JSON) Begin() {
	if !j.begin() {
		return
	}
	j.w.WriteString(`{"timestamp":`)
	j.w.WriteString(strconv.FormatInt(j.now(), 10))
	j.topLevel = 1
}

func (j *JSON) End() error {
	if j.end() {
		j.w.WriteByte('}')
		if j.newline {
			j.w.WriteByte('\n')
		}
	}
	return j.flush()
}

func (j *JSON) BeginGroup(g Group) {
	if !j.beginGroup(g) {
		return
	}
	comma(j.w, &j.topLevel)
	j.writeKey(groupKeys[g])
	if g == GroupCores {
		j.w.WriteByte('[')
	} else {
		j.w.WriteByte('{')
	}
	j.inGroup = 0
}

func (j *JSON) EndGroup(g Group) {
	if !j.endGroup(g) {
		return
	}
	if g == GroupCores {
		j.w.WriteByte(']')
	} else {
		j.w.WriteByte('}')
	}
}

func (j *JSON) String(d Datum, v string) {
	if !j.keyed(d) {
		return
	}
	quoted, _ := json.Marshal(v)
	j.w.Write(quoted)
}

func (j *JSON) Bool(d Datum, v bool) {
	if j.keyed(d) {
		j.w.WriteString(strconv.FormatBool(v))
	}
}

func (j *JSON) Int(d Datum, v int) {
	if j.keyed(d) {
		j.w.WriteString(strconv.Itoa(v))
	}
}

func (j *JSON) Float(d Datum, v float64, _ metrics.Unit) {
	if j.keyed(d) {
		j.writeFloat(v)
	}
}

// Float2 is written as a triple whose third value is a zero count.
func (j *JSON) Float2(d Datum, v1 float64, u1 metrics.Unit, v2 float64, u2 metrics.Unit) {
	j.Float3(d, v1, u1, v2, u2, 0, metrics.Count)
}

func (j *JSON) Float3(d Datum, v1 float64, _ metrics.Unit, v2 float64, _ metrics.Unit, v3 float64, _ metrics.Unit) {
	if !j.datum(d) {
		return
	}
	values := [3]float64{v1, v2, v3}

	if keys, ok := splitKeys[d]; ok {
		for i, key := range keys {
			if key == "" {
				continue
			}
			j.field(key)
			j.writeFloat(values[i])
		}
		return
	}

	keys, ok := fusedKeys[d]
	if !ok {
		j.fail(fmt.Errorf("%w: %s has no multi-value layout", ErrState, d))
		return
	}
	j.field(datumKeys[d])
	inner := 0
	j.w.WriteByte('{')
	for i, key := range keys {
		comma(j.w, &inner)
		j.writeKey(key)
		j.writeFloat(values[i])
	}
	j.w.WriteByte('}')
}

func (j *JSON) Limit(d Datum, value, limit float64, _ metrics.Unit) {
	if !j.keyed(d) {
		return
	}
	j.w.WriteString(`{"value":`)
	j.writeFloat(value)
	j.w.WriteString(`,"limit":`)
	j.writeFloat(limit)
	j.w.WriteString(`,"usage":`)
	j.writeFloat(value / limit)
	j.w.WriteByte('}')
}

func (j *JSON) Sum(d Datum, values []float64, _ metrics.Unit) {
	if !j.keyed(d) {
		return
	}
	var total float64
	j.w.WriteString(`{"values":[`)
	for i, v := range values {
		if i > 0 {
			j.w.WriteByte(',')
		}
		j.writeFloat(v)
		total += v
	}
	j.w.WriteString(`],"sum":`)
	j.writeFloat(total)
	j.w.WriteByte('}')
}

func (j *JSON) Core(row CoreRow) {
	if !j.core() {
		return
	}
	comma(j.w, &j.inGroup)
	j.w.WriteString(`{"number":`)
	j.w.WriteString(strconv.Itoa(row.Number))
	j.w.WriteString(`,"disabled":`)
	j.w.WriteString(strconv.FormatBool(row.Disabled))
	j.w.WriteString(`,"sleeping":`)
	j.w.WriteString(strconv.FormatBool(row.Sleeping))
	for _, kv := range []struct {
		key string
		v   float64
	}{
		{"frequency", row.Frequency},
		{"power", row.Power},
		{"voltage", row.Voltage},
		{"temp", row.Temp},
		{"c0", row.C0 / 100},
		{"c1", row.C1 / 100},
		{"c6", row.C6 / 100},
	} {
		j.w.WriteString(`,"` + kv.key + `":`)
		j.writeFloat(kv.v)
	}
	j.w.WriteByte('}')
}

// keyed opens the member for a datum that has a key of its own.
func (j *JSON) keyed(d Datum) bool {
	if !j.datum(d) {
		return false
	}
	key := datumKeys[d]
	if key == "" {
		j.fail(fmt.Errorf("%w: %s has no key of its own", ErrState, d))
		return false
	}
	j.field(key)
	return true
}

func (j *JSON) field(key string) {
	comma(j.w, &j.inGroup)
	j.writeKey(key)
}

func (j *JSON) writeKey(key string) {
	j.w.WriteByte('"')
	j.w.WriteString(key)
	j.w.WriteString(`":`)
}

// writeFloat keeps 17 significant digits so consecutive samples that differ
// in the last bits stay distinguishable. JSON has no NaN, so those become null.
func (j *JSON) writeFloat(v float64) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		j.w.WriteString("null")
		return
	}
	j.scratch = strconv.AppendFloat(j.scratch[:0], v, 'g', 17, 64)
	j.w.Write(j.scratch)
}

func (j *JSON) flush() error {
	j.fail(j.w.Flush())
	return j.err
}

func comma(w *bufio.Writer, counter *int) {
	if *counter > 0 {
		w.WriteByte(',')
	}
	*counter++
}
