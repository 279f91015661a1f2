/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"fmt"
	"math"
	"sync"

	"github.com/suparena/entitykv/errors"
	"github.com/suparena/entitykv/filter"
	"github.com/suparena/entitykv/schema"
	"github.com/suparena/entitykv/sortkey"
)

// SortKeyField is one position of an entity's composite key: the entity that
// owns the position and the record field holding its value. Field is empty
// for a position that never carries a value (singleton entities).
type SortKeyField struct {
	Path  string
	Field string
}

// ResolvedEntity is the schema fact of an entity with its key chain expanded.
type ResolvedEntity struct {
	Entity        *schema.Entity
	Path          string
	Store         string
	Indexes       []schema.Index
	SortKeyFields []SortKeyField
	fields        map[string]schema.Kind
}

// HasField reports whether the entity declares name.
func (r *ResolvedEntity) HasField(name string) bool {
	_, ok := r.fields[name]
	return ok
}

// FieldKind returns the declared kind of name.
func (r *ResolvedEntity) FieldKind(name string) (schema.Kind, bool) {
	k, ok := r.fields[name]
	return k, ok
}

// KeyValue returns the key form of v as stored for field. Integer values are
// converted to the field's declared signedness, or to float for float fields,
// so that a filter or selector value addresses the same key as the record it
// was written from.
func (r *ResolvedEntity) KeyValue(field string, v filter.Value) (string, bool) {
	switch r.fields[field] {
	case schema.KindInt:
		if u, ok := v.AsUint(); ok && u <= math.MaxInt64 {
			v = filter.Int(int64(u))
		}
		if _, ok := v.AsInt(); !ok {
			return "", false
		}
	case schema.KindUint:
		if i, ok := v.AsInt(); ok && i >= 0 {
			v = filter.Uint(uint64(i))
		}
		if _, ok := v.AsUint(); !ok {
			return "", false
		}
	case schema.KindFloat:
		if i, ok := v.AsInt(); ok {
			v = filter.Float(float64(i))
		} else if u, ok := v.AsUint(); ok {
			v = filter.Float(float64(u))
		}
		if _, ok := v.AsFloat(); !ok {
			return "", false
		}
	case schema.KindText, schema.KindUlid:
		if v.Kind() != filter.KindText && v.Kind() != filter.KindUlid {
			return "", false
		}
	case schema.KindBool:
		if _, ok := v.AsBool(); !ok {
			return "", false
		}
	}
	return v.AsKey()
}

// PrimaryKey returns the entity's own key field, empty for singletons.
func (r *ResolvedEntity) PrimaryKey() string {
	return r.Entity.PrimaryKey
}

// KeyFields returns the record fields that supply key values, in key order.
func (r *ResolvedEntity) KeyFields() []string {
	out := make([]string, 0, len(r.SortKeyFields))
	for _, f := range r.SortKeyFields {
		if f.Field != "" {
			out = append(out, f.Field)
		}
	}
	return out
}

// Key builds a sort key from leading key values. When fewer values than key
// fields are given, the first unfilled position is added without a value and
// the key ends there, so the result sorts before every record under it.
func (r *ResolvedEntity) Key(values []string) (sortkey.SortKey, error) {
	parts := make([]sortkey.Part, 0, len(r.SortKeyFields))
	used := 0
	for _, f := range r.SortKeyFields {
		if f.Field == "" {
			parts = append(parts, sortkey.None(f.Path))
			continue
		}
		if used >= len(values) {
			parts = append(parts, sortkey.None(f.Path))
			break
		}
		parts = append(parts, sortkey.Some(f.Path, values[used]))
		used++
	}
	if used < len(values) {
		return sortkey.SortKey{}, errors.NewValidationError("key",
			fmt.Sprintf("%s takes %d key values, got %d", r.Path, used, len(values)))
	}
	key := sortkey.New(parts...)
	if err := key.Validate(); err != nil {
		return sortkey.SortKey{}, err
	}
	return key, nil
}

// KeyOf extracts the full key of a record from its key fields.
func (r *ResolvedEntity) KeyOf(rec filter.Record) (sortkey.SortKey, error) {
	fields := r.KeyFields()
	values := make([]string, len(fields))
	for i, name := range fields {
		v, ok := rec[name]
		if !ok {
			return sortkey.SortKey{}, errors.NewValidationError(name, "key field is missing from record")
		}
		s, ok := r.KeyValue(name, v)
		if !ok {
			return sortkey.SortKey{}, errors.NewValidationError(name, fmt.Sprintf("%s value cannot be used as a key", v.Kind()))
		}
		values[i] = s
	}
	return r.Key(values)
}

// Resolver maps entity paths to resolved facts. Results are cached for the
// lifetime of the resolver; the schema is immutable.
type Resolver struct {
	schema *schema.Schema

	mu    sync.Mutex
	cache map[string]*ResolvedEntity
}

// NewResolver returns a resolver over s.
func NewResolver(s *schema.Schema) *Resolver {
	return &Resolver{
		schema: s,
		cache:  make(map[string]*ResolvedEntity),
	}
}

// Schema returns the schema the resolver reads.
func (r *Resolver) Schema() *schema.Schema { return r.schema }

// Resolve returns the facts for path, or EntityNotFoundError when path or an
// ancestor in its chain is not in the schema.
//
// The key chain is the immediate parent's chain followed by the entity
// itself. The immediate parent is the last entry of Parents; earlier entries,
// when given, must name the parent's ancestors in order and may rename the
// fields that hold their values. Undeclared ancestors keep the field name the
// parent uses, which the entity must also declare.
func (r *Resolver) Resolve(path string) (*ResolvedEntity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resolveLocked(path, "", nil)
}

func (r *Resolver) resolveLocked(path, referrer string, visiting map[string]bool) (*ResolvedEntity, error) {
	if re, ok := r.cache[path]; ok {
		return re, nil
	}

	e, ok := r.schema.Entity(path)
	if !ok {
		if referrer != "" {
			return nil, errors.NewParentNotFoundError(path, referrer)
		}
		return nil, errors.NewEntityNotFoundError(path)
	}
	if visiting[path] {
		return nil, errors.NewValidationError("parents", fmt.Sprintf("entity %s is its own ancestor", path))
	}

	fields := make(map[string]schema.Kind, len(e.Fields))
	for _, f := range e.Fields {
		fields[f.Name] = f.Kind
	}

	var chain []SortKeyField
	if n := len(e.Parents); n > 0 {
		if visiting == nil {
			visiting = make(map[string]bool)
		}
		visiting[path] = true
		defer delete(visiting, path)

		direct := e.Parents[n-1]
		parent, err := r.resolveLocked(direct.Entity, path, visiting)
		if err != nil {
			return nil, err
		}
		ancestors := parent.SortKeyFields[:len(parent.SortKeyFields)-1]
		declared := e.Parents[:n-1]
		if len(declared) > 0 && len(declared) != len(ancestors) {
			return nil, errors.NewValidationError("parents",
				fmt.Sprintf("entity %s lists %d ancestors above %s, its chain has %d", path, len(declared), direct.Entity, len(ancestors)))
		}
		chain = make([]SortKeyField, 0, len(ancestors)+2)
		for i, a := range ancestors {
			if len(declared) > 0 {
				if declared[i].Entity != a.Path {
					return nil, errors.NewValidationError("parents",
						fmt.Sprintf("entity %s lists ancestor %s where the chain of %s has %s", path, declared[i].Entity, direct.Entity, a.Path))
				}
				a.Field = declared[i].Field
			}
			if _, ok := fields[a.Field]; a.Field != "" && !ok {
				return nil, errors.NewValidationError("parents",
					fmt.Sprintf("entity %s does not declare %q for ancestor %s", path, a.Field, a.Path))
			}
			chain = append(chain, a)
		}
		own := SortKeyField{Path: direct.Entity, Field: direct.Field}
		if parent.PrimaryKey() == "" {
			own.Field = ""
		}
		chain = append(chain, own)
	}
	chain = append(chain, SortKeyField{Path: e.Path, Field: e.PrimaryKey})

	re := &ResolvedEntity{
		Entity:        e,
		Path:          e.Path,
		Store:         e.Store,
		Indexes:       e.Indexes,
		SortKeyFields: chain,
		fields:        fields,
	}
	r.cache[path] = re
	return re, nil
}

// ResolveAll resolves every entity in the schema and returns the first error.
func (r *Resolver) ResolveAll() error {
	for _, p := range r.schema.Paths() {
		if _, err := r.Resolve(p); err != nil {
			return err
		}
	}
	return nil
}
