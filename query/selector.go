/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package query

import (
	"fmt"
	"strings"

	"github.com/suparena/entitykv/errors"
	"github.com/suparena/entitykv/filter"
	"github.com/suparena/entitykv/registry"
	"github.com/suparena/entitykv/sortkey"
)

// Key lists leading key values in key-field order: parents first, then the
// entity's own primary key.
type Key []filter.Value

// Texts builds a Key of text values.
func Texts(values ...string) Key {
	k := make(Key, len(values))
	for i, v := range values {
		k[i] = filter.Text(v)
	}
	return k
}

func (k Key) String() string {
	parts := make([]string, len(k))
	for i, v := range k {
		parts[i] = v.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// Selector is a logical request shape before resolution.
//
// This is a sealed interface: All, Only, One, Many, Prefix and Range are the
// only implementations.
type Selector interface {
	selectorNode()
	String() string
}

// All selects every record of the entity.
type All struct{}

// Only selects the single record of an entity without key fields.
type Only struct{}

// One selects the record at a full key.
type One struct{ Key Key }

// Many selects the records at several full keys, in the given order.
type Many struct{ Keys []Key }

// Prefix selects every record whose key starts with the given leading values.
type Prefix struct{ Key Key }

// Range selects records between two keys, both inclusive.
type Range struct{ From, To Key }

func (All) selectorNode()    {}
func (Only) selectorNode()   {}
func (One) selectorNode()    {}
func (Many) selectorNode()   {}
func (Prefix) selectorNode() {}
func (Range) selectorNode()  {}

func (All) String() string      { return "all" }
func (Only) String() string     { return "only" }
func (s One) String() string    { return "one" + s.Key.String() }
func (s Prefix) String() string { return "prefix" + s.Key.String() }
func (s Range) String() string  { return "range" + s.From.String() + ".." + s.To.String() }

func (s Many) String() string {
	parts := make([]string, len(s.Keys))
	for i, k := range s.Keys {
		parts[i] = k.String()
	}
	return "many[" + strings.Join(parts, " ") + "]"
}

// sortKey builds the sort key of e from leading values k. full demands a
// value for every key field.
func sortKey(e *registry.ResolvedEntity, k Key, full bool) (sortkey.SortKey, error) {
	fields := e.KeyFields()
	if len(k) > len(fields) {
		return sortkey.SortKey{}, errors.NewQueryError(e.Path, "",
			fmt.Sprintf("key %s has %d values, entity has %d key fields", k, len(k), len(fields)))
	}
	if full && len(k) != len(fields) {
		return sortkey.SortKey{}, errors.NewQueryError(e.Path, "",
			fmt.Sprintf("key %s needs all %d key fields %v", k, len(fields), fields))
	}
	values := make([]string, len(k))
	for i, v := range k {
		s, ok := e.KeyValue(fields[i], v)
		if !ok {
			return sortkey.SortKey{}, errors.NewQueryError(e.Path, fields[i],
				fmt.Sprintf("value %s cannot be used as a key", v))
		}
		values[i] = s
	}
	key, err := e.Key(values)
	if err != nil {
		return sortkey.SortKey{}, errors.NewQueryError(e.Path, "", err.Error())
	}
	return key, nil
}

// Resolve turns sel into a physical shape for e.
func Resolve(sel Selector, e *registry.ResolvedEntity) (Shape, error) {
	switch s := sel.(type) {
	case nil, All:
		start, err := sortKey(e, nil, false)
		if err != nil {
			return nil, err
		}
		return prefixRange(start), nil
	case Only:
		if n := len(e.KeyFields()); n != 0 {
			return nil, errors.NewQueryError(e.Path, "", fmt.Sprintf("only needs an entity without key fields, has %d", n))
		}
		key, err := sortKey(e, nil, true)
		if err != nil {
			return nil, err
		}
		return ShapeOne{Key: key}, nil
	case One:
		key, err := sortKey(e, s.Key, true)
		if err != nil {
			return nil, err
		}
		return ShapeOne{Key: key}, nil
	case Many:
		keys := make([]sortkey.SortKey, 0, len(s.Keys))
		for _, k := range s.Keys {
			key, err := sortKey(e, k, true)
			if err != nil {
				return nil, err
			}
			keys = append(keys, key)
		}
		return ShapeMany{Keys: keys}, nil
	case Prefix:
		start, err := sortKey(e, s.Key, false)
		if err != nil {
			return nil, err
		}
		return prefixRange(start), nil
	case Range:
		start, err := sortKey(e, s.From, false)
		if err != nil {
			return nil, err
		}
		end, err := sortKey(e, s.To, false)
		if err != nil {
			return nil, err
		}
		return ShapeRange{Start: start, End: end}, nil
	}
	return nil, errors.NewQueryError(e.Path, "", fmt.Sprintf("unknown selector %T", sel))
}
