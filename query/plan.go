/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package query

import (
	"github.com/suparena/entitykv/filter"
	"github.com/suparena/entitykv/registry"
)

// Plan extracts a narrower shape than a full scan from a filter.
type Plan struct {
	Filter filter.Expr
}

// Shape returns One for an Eq clause on the key field, Many for an In clause
// whose values are all keys, and the entity's full range otherwise. narrowed
// reports whether a shortcut applied. Only entities keyed by their own
// primary key alone can shortcut; a parent-chained key needs more than one
// value. The filter still runs over the rows of a narrowed shape.
func (p Plan) Shape(e *registry.ResolvedEntity) (shape Shape, narrowed bool, err error) {
	if s, ok := p.shortcut(e); ok {
		return s, true, nil
	}
	s, err := Resolve(All{}, e)
	return s, false, err
}

func (p Plan) shortcut(e *registry.ResolvedEntity) (Shape, bool) {
	fields := e.KeyFields()
	if len(fields) != 1 || fields[0] != e.PrimaryKey() {
		return nil, false
	}
	c, ok := filter.Simplify(p.Filter).(filter.Clause)
	if !ok || c.Field != e.PrimaryKey() {
		return nil, false
	}
	switch c.Cmp {
	case filter.Eq:
		if _, ok := e.KeyValue(c.Field, c.Value); !ok {
			return nil, false
		}
		s, err := Resolve(One{Key: Key{c.Value}}, e)
		return s, err == nil
	case filter.In:
		list, ok := c.Value.AsList()
		if !ok || len(list) == 0 {
			return nil, false
		}
		keys := make([]Key, 0, len(list))
		seen := make(map[string]bool, len(list))
		for _, v := range list {
			s, ok := e.KeyValue(c.Field, v)
			if !ok {
				return nil, false
			}
			if seen[s] {
				continue
			}
			seen[s] = true
			keys = append(keys, Key{v})
		}
		s, err := Resolve(Many{Keys: keys}, e)
		return s, err == nil
	}
	return nil, false
}

// Explain renders the shape a load or delete with this plan would use.
func (p Plan) Explain(e *registry.ResolvedEntity) string {
	s, narrowed, err := p.Shape(e)
	if err != nil {
		return "error: " + err.Error()
	}
	out := s.String()
	if !narrowed {
		out = "scan " + out
	}
	if p.Filter != nil {
		if _, isTrue := p.Filter.(filter.True); !isTrue {
			out += " where " + p.Filter.String()
		}
	}
	return out
}
