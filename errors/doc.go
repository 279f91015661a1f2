/*
Package errors provides semantic error types for entitykv.

Every expected failure of the engine is a typed, recoverable error that can be
checked with the standard errors.Is() function or the provided helpers:

	var (
	    ErrEntityNotFound = errors.New("entity not found in schema")
	    ErrStoreNotFound  = errors.New("store not found")
	    ErrKeyExists      = errors.New("key already exists")
	    ErrKeyNotFound    = errors.New("key not found")
	    ErrIndexViolation = errors.New("unique index violation")
	    ErrInvalidQuery   = errors.New("invalid query")
	)

Usage:

	_, err := widgets.Create(ctx, w)
	if errors.IsIndexViolation(err) {
	    // another widget already uses this name
	}

Only corrupted stored bytes (CorruptError) indicate a broken invariant; the
rest describe the caller's request.
*/
package errors
