/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package index

import (
	"fmt"

	"github.com/cespare/xxhash/v2"

	"github.com/suparena/entitykv/errors"
	"github.com/suparena/entitykv/filter"
	"github.com/suparena/entitykv/registry"
	"github.com/suparena/entitykv/schema"
	"github.com/suparena/entitykv/storagemodels"
)

// Hash identifies one index of one entity. Fields are hashed in declared
// order, matching the order of IndexKey values, so [a b] and [b a] are
// distinct indexes even when they share a store.
func Hash(entityPath string, fields []string) uint64 {
	d := xxhash.New()
	_, _ = d.WriteString(entityPath)
	for _, f := range fields {
		_, _ = d.Write([]byte{0})
		_, _ = d.WriteString(f)
	}
	return d.Sum64()
}

// KeyFor computes the index key of rec for idx of entity e. Records lacking
// a value for an indexed field, or holding a value with no key form, are not
// indexed.
func KeyFor(e *registry.ResolvedEntity, idx schema.Index, rec filter.Record) (storagemodels.IndexKey, bool) {
	values := make([]string, len(idx.Fields))
	for i, name := range idx.Fields {
		v, ok := rec[name]
		if !ok {
			return storagemodels.IndexKey{}, false
		}
		s, ok := e.KeyValue(name, v)
		if !ok {
			return storagemodels.IndexKey{}, false
		}
		values[i] = s
	}
	return storagemodels.IndexKey{Hash: Hash(e.Path, idx.Fields), Values: values}, true
}

// checkIndexable fails with ValidationError when rec holds a non-null value
// for a field of idx that has no key form. Absent and null fields are left
// unindexed.
func checkIndexable(e *registry.ResolvedEntity, idx schema.Index, rec filter.Record) error {
	for _, name := range idx.Fields {
		v, ok := rec[name]
		if !ok || v.IsNull() {
			continue
		}
		if _, ok := e.KeyValue(name, v); !ok {
			return errors.NewValidationError(name, fmt.Sprintf("%s value cannot be indexed in %s", v.Kind(), idx.Store))
		}
	}
	return nil
}

func sameKey(a, b storagemodels.IndexKey) bool {
	if a.Hash != b.Hash || len(a.Values) != len(b.Values) {
		return false
	}
	for i := range a.Values {
		if a.Values[i] != b.Values[i] {
			return false
		}
	}
	return true
}
