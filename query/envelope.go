/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package query

import (
	"fmt"

	"github.com/suparena/entitykv/errors"
	"github.com/suparena/entitykv/filter"
	"github.com/suparena/entitykv/registry"
)

// SaveMode selects create, replace or update semantics.
type SaveMode uint8

const (
	// Create fails when a record exists at the key.
	Create SaveMode = iota + 1
	// Replace writes the record whether or not one exists.
	Replace
	// Update fails when no record exists and merges into the existing one.
	Update
)

func (m SaveMode) String() string {
	switch m {
	case Create:
		return "create"
	case Replace:
		return "replace"
	case Update:
		return "update"
	}
	return fmt.Sprintf("mode(%d)", uint8(m))
}

// ParseSaveMode returns the mode with the given name.
func ParseSaveMode(name string) (SaveMode, error) {
	for _, m := range []SaveMode{Create, Replace, Update} {
		if m.String() == name {
			return m, nil
		}
	}
	return 0, errors.NewValidationError("mode", fmt.Sprintf("unknown save mode %q", name))
}

// LoadQuery is a read request. A nil Selector lets the filter choose the
// shape. Limit zero means no limit.
type LoadQuery struct {
	Selector Selector
	Filter   filter.Expr
	Sort     SortExpr
	Limit    int
	Offset   int
}

// Validate checks every referenced field against e.
func (q LoadQuery) Validate(e *registry.ResolvedEntity) error {
	if q.Limit < 0 || q.Offset < 0 {
		return errors.NewQueryError(e.Path, "", fmt.Sprintf("limit %d and offset %d must not be negative", q.Limit, q.Offset))
	}
	if err := validateFilter(e, q.Filter); err != nil {
		return err
	}
	for _, f := range q.Sort {
		if !e.HasField(f.Field) {
			return errors.NewQueryError(e.Path, f.Field, "is not a declared field and cannot be sorted on")
		}
	}
	return nil
}

// Shape resolves the selector, or plans from the filter when there is none.
func (q LoadQuery) Shape(e *registry.ResolvedEntity) (Shape, error) {
	return shapeOf(q.Selector, q.Filter, e)
}

// DeleteQuery is a delete request.
type DeleteQuery struct {
	Selector Selector
	Filter   filter.Expr
}

// Validate checks every referenced field against e.
func (q DeleteQuery) Validate(e *registry.ResolvedEntity) error {
	return validateFilter(e, q.Filter)
}

// Shape resolves the selector, or plans from the filter when there is none.
func (q DeleteQuery) Shape(e *registry.ResolvedEntity) (Shape, error) {
	return shapeOf(q.Selector, q.Filter, e)
}

// SaveQuery is a write request carrying a codec-encoded record.
type SaveQuery struct {
	Mode   SaveMode
	Record []byte
}

// Validate checks the mode and that a record is present.
func (q SaveQuery) Validate(e *registry.ResolvedEntity) error {
	switch q.Mode {
	case Create, Replace, Update:
	default:
		return errors.NewQueryError(e.Path, "", fmt.Sprintf("unknown save mode %s", q.Mode))
	}
	if len(q.Record) == 0 {
		return errors.NewQueryError(e.Path, "", "save carries no record")
	}
	return nil
}

func shapeOf(sel Selector, f filter.Expr, e *registry.ResolvedEntity) (Shape, error) {
	if sel != nil {
		return Resolve(sel, e)
	}
	s, _, err := Plan{Filter: f}.Shape(e)
	return s, err
}

func validateFilter(e *registry.ResolvedEntity, f filter.Expr) error {
	for _, name := range filter.Fields(f) {
		if !e.HasField(name) {
			return errors.NewQueryError(e.Path, name, "is not a declared field and cannot be filtered on")
		}
	}
	return nil
}
