/*
Package registry resolves entity paths to their schema facts and maps paths
to Go types.

Resolver expands an entity's parent chain into the ordered list of
SortKeyField positions that make up its composite key:

	r := registry.NewResolver(s)
	widget, err := r.Resolve("shop.Widget")
	// widget.SortKeyFields == [{shop.Shop shop_id} {shop.Widget id}]
	key, _ := widget.Key([]string{"s1", "01HX..."})
	// shop.Shop=s1/shop.Widget=01HX...

Resolution is cached on first access and never invalidated.

TypeRegistry maps entity paths to factories so rows of a store shared by
several entities can be decoded by the path stored with each row:

	types.MustRegister("shop.Widget", func() any { return &Widget{} })

Both are populated during initialization and read afterwards.
*/
package registry
