/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Common sentinel errors
var (
	// ErrEntityNotFound is returned when no schema fact exists for an entity path
	ErrEntityNotFound = errors.New("entity not found in schema")

	// ErrStoreNotFound is returned when the registry has no store under a name
	ErrStoreNotFound = errors.New("store not found")

	// ErrKeyExists is returned when a Create targets a key that already holds a record
	ErrKeyExists = errors.New("key already exists")

	// ErrKeyNotFound is returned when an Update targets a key with no record
	ErrKeyNotFound = errors.New("key not found")

	// ErrIndexViolation is returned when a write would break a unique index
	ErrIndexViolation = errors.New("unique index violation")

	// ErrInvalidQuery is returned when a query references undeclared fields
	ErrInvalidQuery = errors.New("invalid query")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrCorrupt is returned when stored bytes cannot be interpreted
	ErrCorrupt = errors.New("corrupt stored data")

	// ErrBorrowConflict is returned when a store is borrowed mutably twice
	ErrBorrowConflict = errors.New("store already borrowed")
)

// EntityNotFoundError represents a missing schema fact for an entity or for a
// parent referenced in its sort-key chain.
type EntityNotFoundError struct {
	Path string
	// Referrer is set when the missing entity was named as a parent.
	Referrer string
}

func (e *EntityNotFoundError) Error() string {
	if e.Referrer != "" {
		return fmt.Sprintf("entity %q (parent of %q) not found in schema", e.Path, e.Referrer)
	}
	return fmt.Sprintf("entity %q not found in schema", e.Path)
}

func (e *EntityNotFoundError) Is(target error) bool {
	return target == ErrEntityNotFound
}

// StoreNotFoundError represents a lookup of an unregistered store
type StoreNotFoundError struct {
	Store string
}

func (e *StoreNotFoundError) Error() string {
	return fmt.Sprintf("store %q not found", e.Store)
}

func (e *StoreNotFoundError) Is(target error) bool {
	return target == ErrStoreNotFound
}

// KeyExistsError represents a Create on an occupied key
type KeyExistsError struct {
	Entity string
	Key    string
}

func (e *KeyExistsError) Error() string {
	return fmt.Sprintf("%s with key %q already exists", e.Entity, e.Key)
}

func (e *KeyExistsError) Is(target error) bool {
	return target == ErrKeyExists
}

// KeyNotFoundError represents an Update on a key with no record
type KeyNotFoundError struct {
	Entity string
	Key    string
}

func (e *KeyNotFoundError) Error() string {
	return fmt.Sprintf("%s with key %q not found", e.Entity, e.Key)
}

func (e *KeyNotFoundError) Is(target error) bool {
	return target == ErrKeyNotFound
}

// IndexViolationError represents a unique index collision
type IndexViolationError struct {
	Store  string
	Fields []string
}

func (e *IndexViolationError) Error() string {
	return fmt.Sprintf("unique index violation in store %q on fields (%s)", e.Store, strings.Join(e.Fields, ", "))
}

func (e *IndexViolationError) Is(target error) bool {
	return target == ErrIndexViolation
}

// QueryError represents a sort or filter referencing a field the entity does not declare
type QueryError struct {
	Entity string
	Field  string
	Reason string
}

func (e *QueryError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid query on %s: field %q %s", e.Entity, e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid query on %s: %s", e.Entity, e.Reason)
}

func (e *QueryError) Is(target error) bool {
	return target == ErrInvalidQuery
}

// ValidationError represents an input validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %q: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// CorruptError represents stored bytes that fail to decode or belong to another entity
type CorruptError struct {
	Store string
	Key   string
	Cause error
}

func (e *CorruptError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("corrupt row %q in store %q: %v", e.Key, e.Store, e.Cause)
	}
	return fmt.Sprintf("corrupt row %q in store %q", e.Key, e.Store)
}

func (e *CorruptError) Is(target error) bool {
	return target == ErrCorrupt
}

func (e *CorruptError) Unwrap() error { return e.Cause }

// Helper functions for creating errors

// NewEntityNotFoundError creates a new EntityNotFoundError
func NewEntityNotFoundError(path string) error {
	return &EntityNotFoundError{Path: path}
}

// NewParentNotFoundError creates an EntityNotFoundError for a missing parent
func NewParentNotFoundError(path, referrer string) error {
	return &EntityNotFoundError{Path: path, Referrer: referrer}
}

// NewStoreNotFoundError creates a new StoreNotFoundError
func NewStoreNotFoundError(store string) error {
	return &StoreNotFoundError{Store: store}
}

// NewKeyExistsError creates a new KeyExistsError
func NewKeyExistsError(entity, key string) error {
	return &KeyExistsError{Entity: entity, Key: key}
}

// NewKeyNotFoundError creates a new KeyNotFoundError
func NewKeyNotFoundError(entity, key string) error {
	return &KeyNotFoundError{Entity: entity, Key: key}
}

// NewIndexViolationError creates a new IndexViolationError
func NewIndexViolationError(store string, fields []string) error {
	return &IndexViolationError{Store: store, Fields: append([]string(nil), fields...)}
}

// NewQueryError creates a new QueryError
func NewQueryError(entity, field, reason string) error {
	return &QueryError{Entity: entity, Field: field, Reason: reason}
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// NewCorruptError creates a new CorruptError
func NewCorruptError(store, key string, cause error) error {
	return &CorruptError{Store: store, Key: key, Cause: cause}
}

// IsEntityNotFound checks if an error is an entity not found error
func IsEntityNotFound(err error) bool {
	return errors.Is(err, ErrEntityNotFound)
}

// IsStoreNotFound checks if an error is a store not found error
func IsStoreNotFound(err error) bool {
	return errors.Is(err, ErrStoreNotFound)
}

// IsKeyExists checks if an error is a key exists error
func IsKeyExists(err error) bool {
	return errors.Is(err, ErrKeyExists)
}

// IsKeyNotFound checks if an error is a key not found error
func IsKeyNotFound(err error) bool {
	return errors.Is(err, ErrKeyNotFound)
}

// IsIndexViolation checks if an error is a unique index violation
func IsIndexViolation(err error) bool {
	return errors.Is(err, ErrIndexViolation)
}

// IsInvalidQuery checks if an error is a query error
func IsInvalidQuery(err error) bool {
	return errors.Is(err, ErrInvalidQuery)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsCorrupt checks if an error reports corrupt stored data
func IsCorrupt(err error) bool {
	return errors.Is(err, ErrCorrupt)
}
