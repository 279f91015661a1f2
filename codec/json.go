/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package codec

import "encoding/json"

// JSON stores records through encoding/json. Rows it writes decode with
// GoJSON and the other way round.
type JSON struct{}

func (JSON) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func (JSON) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

func (JSON) Name() string { return NameJSON }
