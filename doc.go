/*
Package entitykv is an embedded, schema-driven data-access engine over ordered
key-value stores.

Entities are described by a schema (store, primary key, parent chain,
indexes). Records are addressed by composite sort keys built from the parent
chain, so a shop's widgets sit together under the shop's key and a prefix
scan returns exactly them. Secondary indexes are kept in separate stores and
unique indexes are enforced on every write.

The library follows a schema → stores → typed collections workflow:
  - Schema: declare entities in Go with schema.Builder or in YAML
  - Stores: pick a backend (memory, bolt, sqlite, DynamoDB) through config
  - Runtime: use typed collections for Load, Save and Delete

Basic Usage:

	db, err := entitykv.Open(ctx, config.Default(), sch)
	if err != nil {
		return err
	}
	defer db.Close()

	widgets, err := entitykv.NewCollection[Widget](db)
	key, err := widgets.Create(ctx, Widget{ID: id, ShopID: "s1", Name: "foo"})
	rows, err := widgets.Load(ctx, query.LoadQuery{
		Selector: query.Prefix{Key: query.Texts("s1")},
		Sort:     query.By("-score"),
	})

Errors are typed; use the predicates in the errors package
(errors.IsKeyExists, errors.IsIndexViolation, ...) to branch on them.
*/
package entitykv
