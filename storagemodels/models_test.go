/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/entitykv/errors"
	"github.com/suparena/entitykv/sortkey"
)

func TestDataValueRoundTrip(t *testing.T) {
	v := DataValue{
		Bytes:    []byte(`{"id":"w1"}`),
		Path:     "shop.Widget",
		Metadata: Metadata{Created: 100, Modified: -5},
	}
	got, err := DecodeDataValue(v.Encode())
	require.NoError(t, err)
	assert.Equal(t, v, got)

	empty, err := DecodeDataValue(DataValue{}.Encode())
	require.NoError(t, err)
	assert.Equal(t, "", empty.Path)
	assert.Empty(t, empty.Bytes)

	_, err = DecodeDataValue([]byte{0x10, 'a'})
	assert.Error(t, err)
	_, err = DecodeDataValue(nil)
	assert.Error(t, err)
}

func TestMetadataRendering(t *testing.T) {
	m := Metadata{Created: 0, Modified: 86400}
	assert.Equal(t, time.Unix(0, 0).UTC(), time.Time(m.CreatedAt()))
	assert.Equal(t, "1970-01-02T00:00:00.000Z", m.ModifiedAt().String())
}

func TestDataKey(t *testing.T) {
	k := sortkey.New(sortkey.Some("shop", "s1"), sortkey.None("widget"))
	dk := KeyOf(k)
	back, err := dk.SortKey()
	require.NoError(t, err)
	assert.True(t, back.Equal(k))
}

func TestIndexKeyRoundTrip(t *testing.T) {
	cases := []IndexKey{
		{Hash: 1},
		{Hash: 42, Values: []string{"foo"}},
		{Hash: 1 << 63, Values: []string{"a\x00b", "", "\xff"}},
	}
	for _, k := range cases {
		got, err := DecodeIndexKey(k.Encode())
		require.NoError(t, err)
		assert.Equal(t, k.Hash, got.Hash)
		assert.Equal(t, len(k.Values), len(got.Values))
		for i := range k.Values {
			assert.Equal(t, k.Values[i], got.Values[i])
		}
	}

	_, err := DecodeIndexKey([]byte{1, 2, 3})
	assert.Error(t, err)
	_, err = DecodeIndexKey(append(IndexKey{Hash: 1}.Encode(), 'x'))
	assert.Error(t, err)
}

func TestIndexKeyOrder(t *testing.T) {
	a := IndexKey{Hash: 7, Values: []string{"a"}}.Encode()
	b := IndexKey{Hash: 7, Values: []string{"a\x00"}}.Encode()
	c := IndexKey{Hash: 7, Values: []string{"b"}}.Encode()
	assert.Negative(t, bytes.Compare(a, b))
	assert.Negative(t, bytes.Compare(b, c))
}

func TestIndexKeyValidate(t *testing.T) {
	assert.NoError(t, IndexKey{Hash: 1, Values: []string{"ok"}}.Validate())
	err := IndexKey{Hash: 1, Values: []string{strings.Repeat("x", IndexKeyMaxSize)}}.Validate()
	assert.True(t, errors.IsValidationError(err))
}

func TestIndexValue(t *testing.T) {
	v := NewIndexValue(DataKey("b"), DataKey("a"))
	assert.Equal(t, 2, v.Len())
	assert.False(t, v.Add(DataKey("a")))
	assert.True(t, v.Add(DataKey("c")))
	assert.True(t, v.Contains(DataKey("b")))
	assert.Equal(t, []DataKey{DataKey("a"), DataKey("b"), DataKey("c")}, v.Keys())

	assert.True(t, v.Remove(DataKey("b")))
	assert.False(t, v.Remove(DataKey("b")))
	assert.False(t, v.Contains(DataKey("b")))

	got, err := DecodeIndexValue(v.Encode())
	require.NoError(t, err)
	assert.Equal(t, v.Keys(), got.Keys())

	empty, err := DecodeIndexValue(NewIndexValue().Encode())
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Len())

	_, err = DecodeIndexValue([]byte{2, 1, 'b', 1, 'a'})
	assert.Error(t, err)
	_, err = DecodeIndexValue([]byte{1, 5, 'a'})
	assert.Error(t, err)
}
