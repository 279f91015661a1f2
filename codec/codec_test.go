/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package codec

import (
	"testing"

	"github.com/go-openapi/strfmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	ID    strfmt.ULID `json:"id"`
	Name  string      `json:"name"`
	Score int64       `json:"score"`
	Tags  []string    `json:"tags,omitempty"`
}

func encode(t *testing.T, c Codec, v any) []byte {
	t.Helper()
	b, err := c.Marshal(v)
	require.NoError(t, err)
	return b
}

func TestCodecsInterchange(t *testing.T) {
	id, err := strfmt.ParseULID("01HQ3Z8V0000000000000000AB")
	require.NoError(t, err)
	in := payload{ID: id, Name: "foo", Score: -3, Tags: []string{"a", "b"}}

	for _, enc := range []Codec{GoJSON{}, JSON{}} {
		for _, dec := range []Codec{GoJSON{}, JSON{}} {
			t.Run(enc.Name()+"/"+dec.Name(), func(t *testing.T) {
				var out payload
				require.NoError(t, dec.Unmarshal(encode(t, enc, in), &out))
				assert.Equal(t, in, out)
			})
		}
	}
}

func TestByName(t *testing.T) {
	for _, name := range Names() {
		c, ok := ByName(name)
		require.True(t, ok)
		assert.Equal(t, name, c.Name())
	}
	assert.Equal(t, []string{NameGoJSON, NameJSON}, Names())
	c, ok := ByName("")
	require.True(t, ok)
	assert.Equal(t, Default.Name(), c.Name())

	_, ok = ByName("msgpack")
	assert.False(t, ok)
}

func TestUnmarshalGarbage(t *testing.T) {
	var out payload
	assert.Error(t, GoJSON{}.Unmarshal([]byte("{"), &out))
	assert.Error(t, JSON{}.Unmarshal([]byte("{"), &out))
}
