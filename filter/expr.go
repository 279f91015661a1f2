/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package filter

import (
	"fmt"
	"sort"
	"strings"
)

// Cmp is a comparison operator. The set is closed.
type Cmp uint8

const (
	Eq Cmp = iota + 1
	Ne
	Lt
	Lte
	Gt
	Gte
	In
	Contains
	StartsWith
	EndsWith
	EqCI
	NeCI
	ContainsCI
	StartsWithCI
	EndsWithCI
)

var cmpNames = map[Cmp]string{
	Eq:           "eq",
	Ne:           "ne",
	Lt:           "lt",
	Lte:          "lte",
	Gt:           "gt",
	Gte:          "gte",
	In:           "in",
	Contains:     "contains",
	StartsWith:   "starts_with",
	EndsWith:     "ends_with",
	EqCI:         "eq_ci",
	NeCI:         "ne_ci",
	ContainsCI:   "contains_ci",
	StartsWithCI: "starts_with_ci",
	EndsWithCI:   "ends_with_ci",
}

func (c Cmp) String() string {
	if n, ok := cmpNames[c]; ok {
		return n
	}
	return fmt.Sprintf("cmp(%d)", uint8(c))
}

// ParseCmp returns the operator with the given name.
func ParseCmp(name string) (Cmp, error) {
	for c, n := range cmpNames {
		if n == name {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown comparison %q", name)
}

// Expr is a boolean expression over record fields.
//
// This is a sealed interface: True, Clause, And, Or and Not are the only
// implementations.
type Expr interface {
	exprNode()
	String() string
}

// True matches every record.
type True struct{}

// Clause compares one field against a value.
type Clause struct {
	Field string
	Cmp   Cmp
	Value Value
}

// And matches when every child matches. An empty And matches.
type And struct {
	Exprs []Expr
}

// Or matches when any child matches. An empty Or does not match.
type Or struct {
	Exprs []Expr
}

// Not negates its child.
type Not struct {
	Expr Expr
}

func (True) exprNode()   {}
func (Clause) exprNode() {}
func (And) exprNode()    {}
func (Or) exprNode()     {}
func (Not) exprNode()    {}

func (True) String() string { return "true" }

func (c Clause) String() string {
	return fmt.Sprintf("%s %s %s", c.Field, c.Cmp, c.Value)
}

func (a And) String() string { return joinExprs("and", a.Exprs) }
func (o Or) String() string  { return joinExprs("or", o.Exprs) }
func (n Not) String() string { return "not(" + exprString(n.Expr) + ")" }

func exprString(e Expr) string {
	if e == nil {
		return "true"
	}
	return e.String()
}

func joinExprs(op string, es []Expr) string {
	parts := make([]string, len(es))
	for i, e := range es {
		parts[i] = exprString(e)
	}
	return op + "(" + strings.Join(parts, ", ") + ")"
}

// Constructors.

func Where(field string, cmp Cmp, v Value) Clause {
	return Clause{Field: field, Cmp: cmp, Value: v}
}

func FieldEq(field string, v Value) Clause { return Where(field, Eq, v) }

func FieldIn(field string, vs ...Value) Clause { return Where(field, In, List(vs...)) }

func AllOf(es ...Expr) And { return And{Exprs: es} }

func AnyOf(es ...Expr) Or { return Or{Exprs: es} }

func Negate(e Expr) Not { return Not{Expr: e} }

// Fields returns the distinct field names referenced by e, sorted.
func Fields(e Expr) []string {
	set := make(map[string]struct{})
	collectFields(e, set)
	out := make([]string, 0, len(set))
	for f := range set {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

func collectFields(e Expr, set map[string]struct{}) {
	switch x := e.(type) {
	case Clause:
		set[x.Field] = struct{}{}
	case And:
		for _, c := range x.Exprs {
			collectFields(c, set)
		}
	case Or:
		for _, c := range x.Exprs {
			collectFields(c, set)
		}
	case Not:
		collectFields(x.Expr, set)
	}
}

// Simplify removes True children of And, collapses single-child And/Or and
// double negation. The result evaluates identically to e.
func Simplify(e Expr) Expr {
	switch x := e.(type) {
	case nil:
		return True{}
	case And:
		out := make([]Expr, 0, len(x.Exprs))
		for _, c := range x.Exprs {
			c = Simplify(c)
			if _, ok := c.(True); ok {
				continue
			}
			out = append(out, c)
		}
		switch len(out) {
		case 0:
			return True{}
		case 1:
			return out[0]
		}
		return And{Exprs: out}
	case Or:
		out := make([]Expr, 0, len(x.Exprs))
		for _, c := range x.Exprs {
			c = Simplify(c)
			if _, ok := c.(True); ok {
				return True{}
			}
			out = append(out, c)
		}
		if len(out) == 1 {
			return out[0]
		}
		return Or{Exprs: out}
	case Not:
		inner := Simplify(x.Expr)
		if n, ok := inner.(Not); ok {
			return Simplify(n.Expr)
		}
		return Not{Expr: inner}
	}
	return e
}
