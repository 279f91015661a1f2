/*
Package ddb provides a DynamoDB implementation of datastore.Store.

All stores share one table in a single-table design:

	PK (S) = logical store name
	SK (B) = encoded key
	V  (B) = stored value

Binary sort keys compare bytewise, so a Query over one partition returns
entries in key order and inclusive ranges map to SK BETWEEN :start AND :end.

Reads page through Query results with retry on throttling:

	store := ddb.New(client, "entitykv", "widgets",
	    ddb.WithPageSize(25),
	    ddb.WithMaxRetries(3),
	    ddb.WithPageHandler(func(p ddb.PageStats) {
	        log.Printf("read %d items", p.ItemsProcessed)
	    }),
	)

Integration tests run against a real table with -tags integration.
*/
package ddb
