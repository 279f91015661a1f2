/*
Package datastore defines the ordered key-value stores the engine persists into
and the Registry that hands them out.

A Store is a named ordered map from encoded keys to opaque values:

	type Store interface {
	    Get(ctx, key) (value, ok, err)
	    Range(ctx, start, end, fn) error   // inclusive, ascending
	    Insert(ctx, key, value) (prev, existed, err)
	    Remove(ctx, key) (prev, existed, err)
	    First(ctx) / Last(ctx) / Len(ctx) / Bytes(ctx)
	}

Stores are reached through a Registry with scoped borrows:

	err := reg.WithStoreMut(ctx, "widgets", func(s datastore.Store) error {
	    _, _, err := s.Insert(ctx, key, value)
	    return err
	})

Implementations:
  - memory: persistent sorted map with O(1) snapshots
  - bolt: one bbolt bucket per store
  - sqlite: one table per store
  - ddb: DynamoDB single-table design, one partition per store
*/
package datastore
