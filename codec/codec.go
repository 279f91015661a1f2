/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package codec turns typed records into the opaque bytes kept in a
// DataValue and back.
//
// Rows carry no codec tag. A database is read with the codec it was written
// with; rows written by another codec surface as CorruptError on read.
package codec

// Built-in codec names, as accepted by the codec config setting.
const (
	NameGoJSON = "go-json"
	NameJSON   = "json"
)

// Codec encodes records for storage. Implementations are stateless and safe
// for concurrent use by every executor sharing a DB.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

// Default is the codec used when none is configured.
var Default Codec = GoJSON{}

var builtin = []Codec{GoJSON{}, JSON{}}

// ByName returns the built-in codec called name. An empty name selects
// Default.
func ByName(name string) (Codec, bool) {
	if name == "" {
		return Default, true
	}
	for _, c := range builtin {
		if c.Name() == name {
			return c, true
		}
	}
	return nil, false
}

// Names lists the built-in codec names, default first.
func Names() []string {
	out := make([]string, len(builtin))
	for i, c := range builtin {
		out[i] = c.Name()
	}
	return out
}
