/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package schema

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// document is the YAML layout of a schema file:
//
//	entities:
//	  - path: shop.Widget
//	    store: widgets
//	    primary_key: id
//	    parents:
//	      - {entity: shop.Shop, field: shop_id}
//	    fields:
//	      - {name: id, kind: ulid}
//	      - {name: shop_id, kind: text}
//	      - {name: name, kind: text}
//	    indexes:
//	      - {store: widget_index, fields: [name], unique: true}
type document struct {
	Entities []Entity `yaml:"entities"`
}

// LoadYAML decodes and builds a schema. Unknown keys are rejected.
func LoadYAML(r io.Reader) (*Schema, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc document
	if err := dec.Decode(&doc); err != nil {
		if err == io.EOF {
			return NewBuilder().Build()
		}
		return nil, fmt.Errorf("failed to decode schema: %w", err)
	}
	return NewBuilder().Add(doc.Entities...).Build()
}

// LoadFile reads a schema from a YAML file.
func LoadFile(path string) (*Schema, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open schema file: %w", err)
	}
	defer f.Close()
	return LoadYAML(f)
}

// MarshalYAML renders the schema in the layout LoadYAML accepts.
func (s *Schema) MarshalYAML() (interface{}, error) {
	doc := document{Entities: make([]Entity, 0, len(s.paths))}
	for _, p := range s.paths {
		doc.Entities = append(doc.Entities, *s.entities[p])
	}
	return doc, nil
}
