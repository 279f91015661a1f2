/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package index maintains secondary indexes. Each declared index maps an
// IndexKey (hash of entity path and field set, plus the field values) to the
// set of primary keys holding those values. Unique indexes hold at most one
// key per entry.
package index
