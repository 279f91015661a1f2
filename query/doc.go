// Package query turns logical requests into physical key shapes.
//
// A Selector (All, Only, One, Many, Prefix, Range) names records by key
// values and resolves against a registry.ResolvedEntity into a Shape: one
// key, several keys, or an inclusive key range. When no selector is given a
// Plan inspects the filter instead and narrows a primary-key Eq or In clause
// to point lookups; anything else scans the entity's whole key space and the
// filter runs over the rows afterwards.
//
// LoadQuery, DeleteQuery and SaveQuery are the request envelopes consumed by
// the executor package.
package query
