package flatten

import (
	"fmt"
	"strconv"
)

// Options configures Flatten.
type Options struct {
	// SimplifyArrays expands sequence values into one key per element,
	// suffixed with "_<index>".
	SimplifyArrays bool
	// Strict rejects key collisions instead of letting the last writer win.
	Strict bool
}

// Flatten reduces rec to a single-level record. Each reduction pass lifts the
// entries of mapping-valued keys one level up under "<key>.<inner>"; passes
// repeat until no top-level value is a mapping. Sequences are never descended
// into, though with SimplifyArrays their elements become top-level values and
// are flattened by later passes. Every pass expands sequences afresh, so a
// nested sequence is expanded one more level for each further pass that a
// mapping elsewhere in the record forces.
//
// When two paths produce the same key, the value written last in pass order
// wins and the key is recorded in Collisions. With opts.Strict the first
// collision aborts with ErrKeyCollision.
func Flatten(rec Mapping, opts Options) (*Flat, error) {
	var (
		out        *Flat
		collisions []string
		passes     int
	)
	in := rec
	for {
		out = newFlat(len(in))
		if err := reduce(in, out, opts, &collisions); err != nil {
			return nil, err
		}
		passes++
		// Every pass removes one level of mapping nesting, so this loop runs
		// at most depth+1 times.
		if !out.hasMapping() {
			break
		}
		in = out.Mapping()
	}
	out.collisions = collisions
	out.passes = passes
	return out, nil
}

// reduce runs a single reduction pass over in, writing into out.
func reduce(in Mapping, out *Flat, opts Options, collisions *[]string) error {
	emit := func(k string, v Value) error {
		if out.set(k, v) {
			if opts.Strict {
				return fmt.Errorf("%w: %q", ErrKeyCollision, k)
			}
			*collisions = append(*collisions, k)
		}
		return nil
	}
	// emitValue writes v under key, expanding sequences when requested.
	emitValue := func(key string, v Value) error {
		if opts.SimplifyArrays && v.Kind() == KindSequence {
			for i, elem := range v.(Sequence) {
				if err := emit(key+"_"+strconv.Itoa(i), elem); err != nil {
					return err
				}
			}
			return nil
		}
		return emit(key, v)
	}

	for _, e := range in {
		switch e.Value.Kind() {
		case KindMapping:
			for _, inner := range e.Value.(Mapping) {
				if err := emitValue(e.Key+"."+inner.Key, inner.Value); err != nil {
					return err
				}
			}
		case KindSequence, KindScalar:
			if err := emitValue(e.Key, e.Value); err != nil {
				return err
			}
		}
	}
	return nil
}
