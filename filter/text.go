/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package filter

import (
	"strings"

	"golang.org/x/text/cases"
)

// matchText is the only place that decides how text compares. The CI
// variants compare Unicode case-folded forms; ordering operators compare
// bytewise without folding.
func matchText(cmp Cmp, a, b string) bool {
	switch cmp {
	case Eq:
		return a == b
	case Ne:
		return a != b
	case Lt:
		return a < b
	case Lte:
		return a <= b
	case Gt:
		return a > b
	case Gte:
		return a >= b
	case Contains:
		return strings.Contains(a, b)
	case StartsWith:
		return strings.HasPrefix(a, b)
	case EndsWith:
		return strings.HasSuffix(a, b)
	case EqCI:
		return fold(a) == fold(b)
	case NeCI:
		return fold(a) != fold(b)
	case ContainsCI:
		return strings.Contains(fold(a), fold(b))
	case StartsWithCI:
		return strings.HasPrefix(fold(a), fold(b))
	case EndsWithCI:
		return strings.HasSuffix(fold(a), fold(b))
	}
	return false
}

// fold returns the case-folded form of s. A Caser keeps state, so one is
// created per call.
func fold(s string) string {
	return cases.Fold().String(s)
}
