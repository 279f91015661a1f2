/*
Package filter implements the boolean filter expressions that Load and Delete
apply to scanned records.

An expression is a tree of True, Clause, And, Or and Not nodes:

	expr := filter.AllOf(
	    filter.Where("name", filter.StartsWithCI, filter.Text("wid")),
	    filter.Negate(filter.FieldIn("score", filter.Int(0), filter.Int(1))),
	)
	ok := filter.Evaluate(expr, record)

Evaluate never fails. Clauses on absent fields and comparisons between
incompatible kinds (Contains on an int, Lt between text and bool) are false.
Text operands, including ULIDs in their canonical form, are compared by the
text layer in text.go, which owns the case-insensitive rules.
*/
package filter
