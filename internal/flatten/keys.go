package flatten

import (
	"fmt"
	"strings"
)

var keySanitizer = strings.NewReplacer(".", "_", "@", "")

// SanitizeKeys returns a copy of f with "." replaced by "_" and "@" removed
// from every key, for sinks that reject those characters in column names.
// Keys that become equal after sanitizing keep the last value and are
// appended to the collisions carried over from f. With strict set, such a
// merge fails with ErrKeyCollision instead.
func SanitizeKeys(f *Flat, strict bool) (*Flat, error) {
	out := newFlat(f.Len())
	out.collisions = append(out.collisions, f.collisions...)
	for _, k := range f.keys {
		nk := keySanitizer.Replace(k)
		if out.set(nk, f.vals[k]) {
			if strict {
				return nil, fmt.Errorf("%w: %q after sanitizing %q", ErrKeyCollision, nk, k)
			}
			out.collisions = append(out.collisions, nk)
		}
	}
	out.passes = f.passes
	return out, nil
}

// Subset returns a copy of f holding only the listed keys that exist in f,
// in the order they are listed. Collisions recorded on f are kept.
func Subset(f *Flat, keys ...string) *Flat {
	out := newFlat(len(keys))
	out.collisions = append(out.collisions, f.collisions...)
	for _, k := range keys {
		if v, ok := f.vals[k]; ok {
			out.set(k, v)
		}
	}
	out.passes = f.passes
	return out
}
