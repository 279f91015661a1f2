/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package codec

import gojson "github.com/goccy/go-json"

// GoJSON stores records as JSON through github.com/goccy/go-json. It is the
// default codec.
type GoJSON struct{}

func (GoJSON) Marshal(v any) ([]byte, error) { return gojson.Marshal(v) }

func (GoJSON) Unmarshal(data []byte, v any) error { return gojson.Unmarshal(data, v) }

func (GoJSON) Name() string { return NameGoJSON }
