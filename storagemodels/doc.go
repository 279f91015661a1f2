/*
Package storagemodels defines the physical records written to stores.

Data stores hold one row per record:

	key:   storagemodels.KeyOf(sortKey)            // DataKey
	value: DataValue{Bytes, Path, Metadata}.Encode()

Index stores hold one row per index value combination:

	key:   IndexKey{Hash, Values}.Encode()
	value: IndexValue (sorted set of DataKey).Encode()

Metadata timestamps are clock seconds and render as strfmt.DateTime.
*/
package storagemodels
