/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package query

import (
	"fmt"
	"sort"
	"strings"

	"github.com/suparena/entitykv/filter"
)

// Direction is a sort order.
type Direction uint8

const (
	Asc Direction = iota
	Desc
)

func (d Direction) String() string {
	if d == Desc {
		return "desc"
	}
	return "asc"
}

// SortField orders by one field.
type SortField struct {
	Field string
	Dir   Direction
}

// SortExpr orders by several fields, the first one most significant.
type SortExpr []SortField

// By is shorthand for an ascending SortExpr over fields. A field prefixed with
// '-' sorts descending.
func By(fields ...string) SortExpr {
	out := make(SortExpr, len(fields))
	for i, f := range fields {
		if strings.HasPrefix(f, "-") {
			out[i] = SortField{Field: f[1:], Dir: Desc}
			continue
		}
		out[i] = SortField{Field: f}
	}
	return out
}

func (s SortExpr) String() string {
	parts := make([]string, len(s))
	for i, f := range s {
		parts[i] = fmt.Sprintf("%s %s", f.Field, f.Dir)
	}
	return strings.Join(parts, ", ")
}

// compareRecords orders a before b. A missing field sorts before any value;
// values of incomparable kinds tie.
func (s SortExpr) compareRecords(a, b filter.Record) int {
	for _, f := range s {
		av, aok := a[f.Field]
		bv, bok := b[f.Field]
		var c int
		switch {
		case !aok && !bok:
		case !aok:
			c = -1
		case !bok:
			c = 1
		default:
			c, _ = filter.Compare(av, bv)
		}
		if f.Dir == Desc {
			c = -c
		}
		if c != 0 {
			return c
		}
	}
	return 0
}

// Sort stably orders rows by s. Rows that tie keep their input order.
func Sort[T any](rows []T, s SortExpr, record func(T) filter.Record) {
	if len(s) == 0 || len(rows) < 2 {
		return
	}
	recs := make([]filter.Record, len(rows))
	for i, r := range rows {
		recs[i] = record(r)
	}
	idx := make([]int, len(rows))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool {
		return s.compareRecords(recs[idx[i]], recs[idx[j]]) < 0
	})
	sorted := make([]T, len(rows))
	for i, j := range idx {
		sorted[i] = rows[j]
	}
	copy(rows, sorted)
}
