/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package filter

import (
	"math"
	"strings"
)

// Evaluate reports whether rec satisfies e. It is total: a clause on an
// absent field, or one whose operands have incompatible kinds, is false.
// A nil expression matches everything.
func Evaluate(e Expr, rec Record) bool {
	switch x := e.(type) {
	case nil:
		return true
	case True:
		return true
	case Clause:
		v, ok := rec[x.Field]
		if !ok {
			return false
		}
		return Match(x.Cmp, v, x.Value)
	case And:
		for _, c := range x.Exprs {
			if !Evaluate(c, rec) {
				return false
			}
		}
		return true
	case Or:
		for _, c := range x.Exprs {
			if Evaluate(c, rec) {
				return true
			}
		}
		return false
	case Not:
		return !Evaluate(x.Expr, rec)
	}
	return false
}

// Match applies cmp to a field value and an operand.
func Match(cmp Cmp, field, operand Value) bool {
	if cmp == In {
		items, ok := operand.AsList()
		if !ok {
			return false
		}
		for _, item := range items {
			if Match(Eq, field, item) {
				return true
			}
		}
		return false
	}

	if a, ok := field.textual(); ok {
		if b, ok := operand.textual(); ok {
			return matchText(cmp, a, b)
		}
	}

	switch cmp {
	case Contains, ContainsCI:
		// A list field contains an element equal to the operand.
		items, ok := field.AsList()
		if !ok {
			return false
		}
		eq := Eq
		if cmp == ContainsCI {
			eq = EqCI
		}
		for _, item := range items {
			if Match(eq, item, operand) {
				return true
			}
		}
		return false
	case StartsWith, EndsWith, StartsWithCI, EndsWithCI, EqCI, NeCI:
		return false
	}

	c, ok := compare(field, operand)
	if !ok {
		return false
	}
	switch cmp {
	case Eq:
		return c == 0
	case Ne:
		return c != 0
	case Lt:
		return c < 0
	case Lte:
		return c <= 0
	case Gt:
		return c > 0
	case Gte:
		return c >= 0
	}
	return false
}

// Compare orders a and b by their natural order; ok is false when the kinds
// cannot be compared.
func Compare(a, b Value) (c int, ok bool) { return compare(a, b) }

// compare orders two values of compatible kinds. Numbers compare across
// int, uint and float; text and ULID compare as text.
func compare(a, b Value) (int, bool) {
	if isNumber(a) && isNumber(b) {
		return compareNumbers(a, b)
	}
	if as, ok := a.textual(); ok {
		if bs, ok := b.textual(); ok {
			return strings.Compare(as, bs), true
		}
		return 0, false
	}
	if a.kind != b.kind {
		return 0, false
	}
	switch a.kind {
	case KindNull:
		return 0, true
	case KindBool:
		switch {
		case a.b == b.b:
			return 0, true
		case !a.b:
			return -1, true
		}
		return 1, true
	case KindList:
		n := len(a.list)
		if len(b.list) < n {
			n = len(b.list)
		}
		for i := 0; i < n; i++ {
			c, ok := compare(a.list[i], b.list[i])
			if !ok {
				return 0, false
			}
			if c != 0 {
				return c, true
			}
		}
		return cmpOrdered(len(a.list), len(b.list)), true
	}
	return 0, false
}

func isNumber(v Value) bool {
	return v.kind == KindInt || v.kind == KindUint || v.kind == KindFloat
}

func compareNumbers(a, b Value) (int, bool) {
	switch {
	case a.kind == KindInt && b.kind == KindInt:
		return cmpOrdered(a.i, b.i), true
	case a.kind == KindUint && b.kind == KindUint:
		return cmpOrdered(a.u, b.u), true
	case a.kind == KindInt && b.kind == KindUint:
		if a.i < 0 {
			return -1, true
		}
		return cmpOrdered(uint64(a.i), b.u), true
	case a.kind == KindUint && b.kind == KindInt:
		if b.i < 0 {
			return 1, true
		}
		return cmpOrdered(a.u, uint64(b.i)), true
	}
	af, bf := asFloat(a), asFloat(b)
	if math.IsNaN(af) || math.IsNaN(bf) {
		return 0, false
	}
	return cmpOrdered(af, bf), true
}

func asFloat(v Value) float64 {
	switch v.kind {
	case KindInt:
		return float64(v.i)
	case KindUint:
		return float64(v.u)
	case KindFloat:
		return v.f
	}
	return math.NaN()
}

type ordered interface {
	~int | ~int64 | ~uint64 | ~float64
}

func cmpOrdered[T ordered](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
