/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package query

import (
	"strings"

	"github.com/suparena/entitykv/sortkey"
)

// Shape is a resolved selector: concrete keys or an inclusive key range.
//
// This is a sealed interface: ShapeOne, ShapeMany and ShapeRange are the only
// implementations.
type Shape interface {
	shapeNode()
	String() string
}

// ShapeOne addresses one key.
type ShapeOne struct{ Key sortkey.SortKey }

// ShapeMany addresses several keys. No keys means no rows.
type ShapeMany struct{ Keys []sortkey.SortKey }

// ShapeRange addresses Start <= key <= End. When Within is set, only keys
// having it as a prefix qualify; the sentinel bound alone also admits sibling
// values that extend the last value (b0 after b).
type ShapeRange struct {
	Start, End sortkey.SortKey
	Within     sortkey.SortKey
}

// prefixRange is the range of start and every key under it.
func prefixRange(start sortkey.SortKey) ShapeRange {
	within := start
	if last, ok := start.Last(); ok && !last.HasValue {
		parts := start.Parts()
		within = sortkey.New(parts[:len(parts)-1]...)
	}
	return ShapeRange{Start: start, End: start.UpperBound(), Within: within}
}

func (ShapeOne) shapeNode()   {}
func (ShapeMany) shapeNode()  {}
func (ShapeRange) shapeNode() {}

func (s ShapeOne) String() string { return "one " + s.Key.String() }

func (s ShapeMany) String() string {
	parts := make([]string, len(s.Keys))
	for i, k := range s.Keys {
		parts[i] = k.String()
	}
	return "many [" + strings.Join(parts, ", ") + "]"
}

func (s ShapeRange) String() string {
	return "range [" + s.Start.String() + " .. " + s.End.String() + "]"
}

// ToRange widens a point to the range holding the key and all its
// descendants.
func (s ShapeOne) ToRange() ShapeRange {
	return prefixRange(s.Key)
}

// Contains reports whether k lies inside the range.
func (s ShapeRange) Contains(k sortkey.SortKey) bool {
	return sortkey.Compare(s.Start, k) <= 0 && sortkey.Compare(k, s.End) <= 0 && k.HasPrefix(s.Within)
}

// Empty reports whether the range can hold no key.
func (s ShapeRange) Empty() bool {
	return sortkey.Compare(s.Start, s.End) > 0
}
