/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package sortkey implements the composite ordered key that addresses records
// in an ordered store.
//
// A SortKey is a sequence of (path, optional value) parts. Parents contribute
// the leading parts and the entity's own identity comes last, so all children
// of a record sort directly after it.
package sortkey

import (
	"strings"
)

// Sentinel is appended to the last part's value to build an upper bound. It
// is not valid UTF-8 and therefore sorts after every text value.
const Sentinel = "\xff"

// MaxSize is the maximum encoded size of a key in bytes.
const MaxSize = 512

// Part is one (path, value) component of a SortKey.
type Part struct {
	Path     string
	Value    string
	HasValue bool
}

// Some returns a part carrying a value.
func Some(path, value string) Part {
	return Part{Path: path, Value: value, HasValue: true}
}

// None returns a part without a value.
func None(path string) Part {
	return Part{Path: path}
}

func (p Part) String() string {
	if !p.HasValue {
		return p.Path
	}
	return p.Path + "=" + p.Value
}

func comparePart(a, b Part) int {
	if c := strings.Compare(a.Path, b.Path); c != 0 {
		return c
	}
	switch {
	case a.HasValue == b.HasValue:
		if !a.HasValue {
			return 0
		}
		return strings.Compare(a.Value, b.Value)
	case !a.HasValue:
		return -1
	default:
		return 1
	}
}

// SortKey is an immutable composite key.
type SortKey struct {
	parts []Part
}

// New returns a key made of parts.
func New(parts ...Part) SortKey {
	if len(parts) == 0 {
		return SortKey{}
	}
	return SortKey{parts: append([]Part(nil), parts...)}
}

// Len returns the number of parts.
func (k SortKey) Len() int { return len(k.parts) }

// IsZero reports whether k has no parts.
func (k SortKey) IsZero() bool { return len(k.parts) == 0 }

// Parts returns a copy of the parts.
func (k SortKey) Parts() []Part {
	return append([]Part(nil), k.parts...)
}

// Part returns the i-th part.
func (k SortKey) Part(i int) Part { return k.parts[i] }

// Last returns the final part, ok=false for an empty key.
func (k SortKey) Last() (Part, bool) {
	if len(k.parts) == 0 {
		return Part{}, false
	}
	return k.parts[len(k.parts)-1], true
}

// Append returns a new key with p added at the end.
func (k SortKey) Append(p Part) SortKey {
	parts := make([]Part, len(k.parts), len(k.parts)+1)
	copy(parts, k.parts)
	return SortKey{parts: append(parts, p)}
}

// Values returns the values of all parts that carry one, in order.
func (k SortKey) Values() []string {
	out := make([]string, 0, len(k.parts))
	for _, p := range k.parts {
		if p.HasValue {
			out = append(out, p.Value)
		}
	}
	return out
}

// UpperBound returns a key that sorts strictly after k and after every key
// that has k as a prefix. The sentinel is appended to the last part's value;
// a part without a value takes the sentinel as its value.
func (k SortKey) UpperBound() SortKey {
	if len(k.parts) == 0 {
		return SortKey{parts: []Part{{Path: Sentinel}}}
	}
	parts := k.Parts()
	last := &parts[len(parts)-1]
	if last.HasValue {
		last.Value += Sentinel
	} else {
		last.Value = Sentinel
		last.HasValue = true
	}
	return SortKey{parts: parts}
}

// HasPrefix reports whether the first parts of k equal prefix.
func (k SortKey) HasPrefix(prefix SortKey) bool {
	if len(prefix.parts) > len(k.parts) {
		return false
	}
	for i, p := range prefix.parts {
		if comparePart(p, k.parts[i]) != 0 {
			return false
		}
	}
	return true
}

// Compare orders keys part by part; a strict prefix sorts first.
func Compare(a, b SortKey) int {
	n := len(a.parts)
	if len(b.parts) < n {
		n = len(b.parts)
	}
	for i := 0; i < n; i++ {
		if c := comparePart(a.parts[i], b.parts[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(a.parts) < len(b.parts):
		return -1
	case len(a.parts) > len(b.parts):
		return 1
	}
	return 0
}

// Equal reports whether a and b address the same record.
func (k SortKey) Equal(other SortKey) bool {
	return Compare(k, other) == 0
}

// Less reports whether k sorts before other.
func (k SortKey) Less(other SortKey) bool {
	return Compare(k, other) < 0
}

// String renders the key as path=value segments joined by '/'.
func (k SortKey) String() string {
	segs := make([]string, len(k.parts))
	for i, p := range k.parts {
		segs[i] = p.String()
	}
	return strings.Join(segs, "/")
}
