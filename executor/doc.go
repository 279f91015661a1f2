/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

/*
Package executor runs Load, Save and Delete for one entity type against a
registry of stores.

Every call resolves the entity, turns its selector or filter into a shape,
touches the entity's data store and keeps its declared indexes in step.
Calls hold no state between them; everything they need comes in a Context.

	x := &executor.Context{Resolver: res, Stores: stores}
	key, err := executor.Save(ctx, x, query.Create, widget)
	rows, err := executor.Load[Widget](ctx, x, query.LoadQuery{
		Selector: query.Prefix{Key: query.Texts("s1")},
	})

Writes are atomic per key only. SaveMany and a multi-key Delete stop at the
first failure and keep what they already wrote.
*/
package executor
