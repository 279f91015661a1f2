/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package query

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/suparena/entitykv/registry"
	"github.com/suparena/entitykv/schema"
)

func testResolver(t *testing.T) *registry.Resolver {
	t.Helper()
	s, err := schema.NewBuilder().Add(
		schema.Entity{
			Path:       "shop.Shop",
			Store:      "shops",
			PrimaryKey: "id",
			Fields:     []schema.Field{{Name: "id", Kind: schema.KindText}, {Name: "name", Kind: schema.KindText}},
		},
		schema.Entity{
			Path:       "shop.Widget",
			Store:      "widgets",
			PrimaryKey: "id",
			Parents:    []schema.Parent{{Entity: "shop.Shop", Field: "shop_id"}},
			Fields: []schema.Field{
				{Name: "id", Kind: schema.KindText},
				{Name: "shop_id", Kind: schema.KindText},
				{Name: "name", Kind: schema.KindText},
				{Name: "score", Kind: schema.KindInt},
			},
		},
		schema.Entity{
			Path:       "shop.Counter",
			Store:      "counters",
			PrimaryKey: "n",
			Fields:     []schema.Field{{Name: "n", Kind: schema.KindInt}},
		},
		schema.Entity{
			Path:   "shop.Config",
			Store:  "config",
			Fields: []schema.Field{{Name: "theme", Kind: schema.KindText}},
		},
	).Build()
	require.NoError(t, err)
	return registry.NewResolver(s)
}

func resolve(t *testing.T, path string) *registry.ResolvedEntity {
	t.Helper()
	e, err := testResolver(t).Resolve(path)
	require.NoError(t, err)
	return e
}
