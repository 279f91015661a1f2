/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sort"
	"time"

	"github.com/go-openapi/strfmt"

	"github.com/suparena/entitykv/errors"
	"github.com/suparena/entitykv/sortkey"
)

// DataKey is the encoded form of a record's sort key, as written to a store.
type DataKey []byte

// KeyOf encodes k.
func KeyOf(k sortkey.SortKey) DataKey { return DataKey(k.Encode()) }

// SortKey decodes the key.
func (k DataKey) SortKey() (sortkey.SortKey, error) { return sortkey.Decode(k) }

// Metadata carries the write timestamps of a record, in clock seconds.
type Metadata struct {
	Created  int64 `json:"created"`
	Modified int64 `json:"modified"`
}

// CreatedAt renders the creation time.
func (m Metadata) CreatedAt() strfmt.DateTime {
	return strfmt.DateTime(time.Unix(m.Created, 0).UTC())
}

// ModifiedAt renders the last modification time.
func (m Metadata) ModifiedAt() strfmt.DateTime {
	return strfmt.DateTime(time.Unix(m.Modified, 0).UTC())
}

// DataValue is the stored form of a record: codec output, the path of the
// entity that wrote it, and timestamps. Readers must compare Path with the
// entity they decode into before touching Bytes.
type DataValue struct {
	Bytes    []byte
	Path     string
	Metadata Metadata
}

// Encode lays the value out as
// uvarint(len(path)) path varint(created) varint(modified) bytes.
func (v DataValue) Encode() []byte {
	buf := make([]byte, 0, len(v.Path)+len(v.Bytes)+3*binary.MaxVarintLen64)
	buf = binary.AppendUvarint(buf, uint64(len(v.Path)))
	buf = append(buf, v.Path...)
	buf = binary.AppendVarint(buf, v.Metadata.Created)
	buf = binary.AppendVarint(buf, v.Metadata.Modified)
	return append(buf, v.Bytes...)
}

// DecodeDataValue parses the output of DataValue.Encode.
func DecodeDataValue(b []byte) (DataValue, error) {
	n, w := binary.Uvarint(b)
	if w <= 0 || uint64(len(b)-w) < n {
		return DataValue{}, fmt.Errorf("data value: bad path length")
	}
	b = b[w:]
	v := DataValue{Path: string(b[:n])}
	b = b[n:]

	created, w := binary.Varint(b)
	if w <= 0 {
		return DataValue{}, fmt.Errorf("data value: bad created timestamp")
	}
	b = b[w:]
	modified, w := binary.Varint(b)
	if w <= 0 {
		return DataValue{}, fmt.Errorf("data value: bad modified timestamp")
	}
	v.Metadata = Metadata{Created: created, Modified: modified}
	v.Bytes = append([]byte(nil), b[w:]...)
	return v, nil
}

// DataRow pairs a record's key with its stored value.
type DataRow struct {
	Key   sortkey.SortKey
	Value DataValue
}

// IndexKeyMaxSize bounds the encoded size of an IndexKey.
const IndexKeyMaxSize = 512

// IndexKey addresses one value combination of one declared index. Hash
// identifies the entity and field list; Values are the key forms of the
// indexed fields in declared order.
type IndexKey struct {
	Hash   uint64
	Values []string
}

// Encode returns the hash in big-endian order followed by each value as an
// escaped, terminated component. Keys with equal hashes sort by values.
func (k IndexKey) Encode() []byte {
	buf := make([]byte, 8, 8+16*len(k.Values))
	binary.BigEndian.PutUint64(buf, k.Hash)
	for _, v := range k.Values {
		for i := 0; i < len(v); i++ {
			if v[i] == 0x00 {
				buf = append(buf, 0x00, 0xFF)
				continue
			}
			buf = append(buf, v[i])
		}
		buf = append(buf, 0x00, 0x01)
	}
	return buf
}

// Validate rejects keys whose encoding exceeds IndexKeyMaxSize.
func (k IndexKey) Validate() error {
	if n := len(k.Encode()); n > IndexKeyMaxSize {
		return errors.NewValidationError("index", fmt.Sprintf("encoded index key size %d exceeds %d bytes", n, IndexKeyMaxSize))
	}
	return nil
}

// DecodeIndexKey parses the output of IndexKey.Encode.
func DecodeIndexKey(b []byte) (IndexKey, error) {
	if len(b) < 8 {
		return IndexKey{}, fmt.Errorf("index key: %d bytes is shorter than the hash", len(b))
	}
	k := IndexKey{Hash: binary.BigEndian.Uint64(b)}
	rest := b[8:]
	for len(rest) > 0 {
		var cur []byte
		done := false
		for !done {
			i := bytes.IndexByte(rest, 0x00)
			if i < 0 || i+1 >= len(rest) {
				return IndexKey{}, fmt.Errorf("index key: unterminated value")
			}
			cur = append(cur, rest[:i]...)
			switch rest[i+1] {
			case 0xFF:
				cur = append(cur, 0x00)
			case 0x01:
				done = true
			default:
				return IndexKey{}, fmt.Errorf("index key: bad escape 0x%02x", rest[i+1])
			}
			rest = rest[i+2:]
		}
		k.Values = append(k.Values, string(cur))
	}
	return k, nil
}

// IndexValue is the set of primary keys currently holding one IndexKey.
// Keys are kept sorted.
type IndexValue struct {
	keys []string
}

// NewIndexValue returns a set holding keys.
func NewIndexValue(keys ...DataKey) *IndexValue {
	v := &IndexValue{}
	for _, k := range keys {
		v.Add(k)
	}
	return v
}

func (v *IndexValue) search(k DataKey) (int, bool) {
	s := string(k)
	i := sort.SearchStrings(v.keys, s)
	return i, i < len(v.keys) && v.keys[i] == s
}

// Add inserts k and reports whether it was absent.
func (v *IndexValue) Add(k DataKey) bool {
	i, found := v.search(k)
	if found {
		return false
	}
	v.keys = append(v.keys, "")
	copy(v.keys[i+1:], v.keys[i:])
	v.keys[i] = string(k)
	return true
}

// Remove deletes k and reports whether it was present.
func (v *IndexValue) Remove(k DataKey) bool {
	i, found := v.search(k)
	if !found {
		return false
	}
	v.keys = append(v.keys[:i], v.keys[i+1:]...)
	return true
}

// Contains reports whether k is in the set.
func (v *IndexValue) Contains(k DataKey) bool {
	_, found := v.search(k)
	return found
}

// Len returns the number of keys.
func (v *IndexValue) Len() int { return len(v.keys) }

// Keys returns the keys in ascending order.
func (v *IndexValue) Keys() []DataKey {
	out := make([]DataKey, len(v.keys))
	for i, k := range v.keys {
		out[i] = DataKey(k)
	}
	return out
}

// Encode writes uvarint(count) then uvarint(len) key for each key.
func (v *IndexValue) Encode() []byte {
	buf := binary.AppendUvarint(nil, uint64(len(v.keys)))
	for _, k := range v.keys {
		buf = binary.AppendUvarint(buf, uint64(len(k)))
		buf = append(buf, k...)
	}
	return buf
}

// DecodeIndexValue parses the output of IndexValue.Encode.
func DecodeIndexValue(b []byte) (*IndexValue, error) {
	n, w := binary.Uvarint(b)
	if w <= 0 {
		return nil, fmt.Errorf("index value: bad count")
	}
	b = b[w:]
	if n > uint64(len(b)) {
		return nil, fmt.Errorf("index value: count %d exceeds payload", n)
	}
	v := &IndexValue{keys: make([]string, 0, n)}
	for i := uint64(0); i < n; i++ {
		l, w := binary.Uvarint(b)
		if w <= 0 || uint64(len(b)-w) < l {
			return nil, fmt.Errorf("index value: bad key length at %d", i)
		}
		b = b[w:]
		v.keys = append(v.keys, string(b[:l]))
		b = b[l:]
	}
	if len(b) != 0 {
		return nil, fmt.Errorf("index value: %d trailing bytes", len(b))
	}
	if !sort.StringsAreSorted(v.keys) {
		return nil, fmt.Errorf("index value: keys out of order")
	}
	return v, nil
}
