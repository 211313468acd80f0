// Package flatten reduces nested records to single-level records whose keys
// encode the original nesting path.
//
// A record is modelled as a tagged variant over three kinds of values:
// Mapping (ordered string-keyed entries), Sequence and Scalar. The flattener
// dispatches on Kind, so every input shape is handled by one of three
// explicit branches.
package flatten

import (
	"encoding/json"
	"errors"
	"sort"
)

var (
	// ErrNotMapping is returned when a document's top level is not an object.
	ErrNotMapping = errors.New("record is not a mapping")
	// ErrKeyCollision is returned in strict mode when two paths flatten to one key.
	ErrKeyCollision = errors.New("flattened key collision")
)

// Kind identifies the variant of a Value.
type Kind int

const (
	KindScalar Kind = iota
	KindSequence
	KindMapping
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindSequence:
		return "sequence"
	case KindMapping:
		return "mapping"
	default:
		return "unknown"
	}
}

// Value is one node of a nested record.
type Value interface {
	Kind() Kind
}

// Scalar holds a string, number, boolean or null.
type Scalar struct {
	v any
}

func (Scalar) Kind() Kind { return KindScalar }

// Interface returns the underlying Go value (nil for null).
func (s Scalar) Interface() any { return s.v }

// String, Int, Float, Number, Bool and Null build scalars.
func String(s string) Scalar { return Scalar{v: s} }
func Int(n int64) Scalar { return Scalar{v: n} }
func Float(f float64) Scalar { return Scalar{v: f} }
func Number(n json.Number) Scalar { return Scalar{v: n} }
func Bool(b bool) Scalar { return Scalar{v: b} }
func Null() Scalar { return Scalar{} }

// Sequence is an ordered list of values.
type Sequence []Value

func (Sequence) Kind() Kind { return KindSequence }

// Entry is a single key/value pair of a Mapping.
type Entry struct {
	Key   string
	Value Value
}

// Mapping is an ordered collection of entries. Order is the document order
// and drives the deterministic last-writer-wins rule on key collisions.
type Mapping []Entry

func (Mapping) Kind() Kind { return KindMapping }

// Get returns the value stored under key. With duplicate keys the last entry wins.
func (m Mapping) Get(key string) (Value, bool) {
	for i := len(m) - 1; i >= 0; i-- {
		if m[i].Key == key {
			return m[i].Value, true
		}
	}
	return nil, false
}

// Plain converts a Value into plain Go values: map[string]any, []any and
// scalar values.
func Plain(v Value) any {
	switch v.Kind() {
	case KindMapping:
		m := v.(Mapping)
		out := make(map[string]any, len(m))
		for _, e := range m {
			out[e.Key] = Plain(e.Value)
		}
		return out
	case KindSequence:
		s := v.(Sequence)
		out := make([]any, len(s))
		for i, e := range s {
			out[i] = Plain(e)
		}
		return out
	default:
		return v.(Scalar).v
	}
}

// Flat is the output of Flatten: an ordered single-level record.
// Overwriting an existing key keeps its original position.
type Flat struct {
	keys       []string
	vals       map[string]Value
	collisions []string
	passes     int
}

func newFlat(capacity int) *Flat {
	return &Flat{
		keys: make([]string, 0, capacity),
		vals: make(map[string]Value, capacity),
	}
}

// set stores v under k and reports whether an existing value was replaced.
func (f *Flat) set(k string, v Value) bool {
	if _, ok := f.vals[k]; ok {
		f.vals[k] = v
		return true
	}
	f.keys = append(f.keys, k)
	f.vals[k] = v
	return false
}

// Len returns the number of keys.
func (f *Flat) Len() int { return len(f.keys) }

// Keys returns the keys in insertion order.
func (f *Flat) Keys() []string {
	out := make([]string, len(f.keys))
	copy(out, f.keys)
	return out
}

// Get returns the value stored under key.
func (f *Flat) Get(key string) (Value, bool) {
	v, ok := f.vals[key]
	return v, ok
}

// Collisions lists keys that were overwritten while flattening, in the order
// the overwrites happened.
func (f *Flat) Collisions() []string { return f.collisions }

// Passes is the number of reduction passes Flatten ran.
func (f *Flat) Passes() int { return f.passes }

// Mapping returns the flat record as a Mapping, e.g. to flatten it again.
func (f *Flat) Mapping() Mapping {
	m := make(Mapping, 0, len(f.keys))
	for _, k := range f.keys {
		m = append(m, Entry{Key: k, Value: f.vals[k]})
	}
	return m
}

// Map returns the flat record as plain Go values.
func (f *Flat) Map() map[string]any {
	out := make(map[string]any, len(f.keys))
	for _, k := range f.keys {
		out[k] = Plain(f.vals[k])
	}
	return out
}

func (f *Flat) hasMapping() bool {
	for _, v := range f.vals {
		if v.Kind() == KindMapping {
			return true
		}
	}
	return false
}

// sortedKeys returns the keys of m in lexical order.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
