/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package schema holds the read-only entity facts the engine runs against:
// owning store, key fields, parent chain, declared fields and indexes.
//
// Facts are assembled with a Builder and frozen into a Schema. A Schema is
// never mutated after Build returns.
package schema

import (
	"fmt"
	"sort"

	"github.com/suparena/entitykv/errors"
)

// Kind is the declared scalar kind of a field.
type Kind string

const (
	KindAny   Kind = ""
	KindText  Kind = "text"
	KindInt   Kind = "int"
	KindUint  Kind = "uint"
	KindFloat Kind = "float"
	KindBool  Kind = "bool"
	KindUlid  Kind = "ulid"
	KindList  Kind = "list"
)

func (k Kind) valid() bool {
	switch k {
	case KindAny, KindText, KindInt, KindUint, KindFloat, KindBool, KindUlid, KindList:
		return true
	}
	return false
}

// Field is a declared field of an entity.
type Field struct {
	Name string `yaml:"name"`
	Kind Kind   `yaml:"kind,omitempty"`
}

// Parent names an entity whose identity prefixes this entity's keys, and the
// field of this entity that holds the parent's key value.
type Parent struct {
	Entity string `yaml:"entity"`
	Field  string `yaml:"field"`
}

// Index is a declared secondary index.
type Index struct {
	Store  string   `yaml:"store"`
	Fields []string `yaml:"fields"`
	Unique bool     `yaml:"unique,omitempty"`
}

// Entity is the schema fact for one entity type.
type Entity struct {
	Path       string   `yaml:"path"`
	Store      string   `yaml:"store"`
	PrimaryKey string   `yaml:"primary_key,omitempty"`
	Parents    []Parent `yaml:"parents,omitempty"`
	Fields     []Field  `yaml:"fields"`
	Indexes    []Index  `yaml:"indexes,omitempty"`
}

// HasField reports whether name is declared on the entity.
func (e *Entity) HasField(name string) bool {
	for _, f := range e.Fields {
		if f.Name == name {
			return true
		}
	}
	return false
}

// FieldNames returns the declared field names in declaration order.
func (e *Entity) FieldNames() []string {
	names := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		names[i] = f.Name
	}
	return names
}

func (e *Entity) clone() *Entity {
	c := *e
	c.Parents = append([]Parent(nil), e.Parents...)
	c.Fields = append([]Field(nil), e.Fields...)
	c.Indexes = make([]Index, len(e.Indexes))
	for i, idx := range e.Indexes {
		idx.Fields = append([]string(nil), idx.Fields...)
		c.Indexes[i] = idx
	}
	return &c
}

func (e *Entity) validate() error {
	if e.Path == "" {
		return errors.NewValidationError("path", "entity path is required")
	}
	if e.Store == "" {
		return errors.NewValidationError("store", fmt.Sprintf("entity %s has no store", e.Path))
	}
	seen := make(map[string]bool, len(e.Fields))
	lists := make(map[string]bool)
	for _, f := range e.Fields {
		if f.Name == "" {
			return errors.NewValidationError("fields", fmt.Sprintf("entity %s has an unnamed field", e.Path))
		}
		if seen[f.Name] {
			return errors.NewValidationError("fields", fmt.Sprintf("entity %s declares %q twice", e.Path, f.Name))
		}
		if !f.Kind.valid() {
			return errors.NewValidationError("fields", fmt.Sprintf("entity %s field %q has unknown kind %q", e.Path, f.Name, f.Kind))
		}
		seen[f.Name] = true
		lists[f.Name] = f.Kind == KindList
	}
	if e.PrimaryKey != "" && !seen[e.PrimaryKey] {
		return errors.NewValidationError("primary_key", fmt.Sprintf("entity %s primary key %q is not a declared field", e.Path, e.PrimaryKey))
	}
	if lists[e.PrimaryKey] {
		return errors.NewValidationError("primary_key", fmt.Sprintf("entity %s primary key %q is a list", e.Path, e.PrimaryKey))
	}
	for _, p := range e.Parents {
		if p.Entity == "" || p.Entity == e.Path {
			return errors.NewValidationError("parents", fmt.Sprintf("entity %s has an invalid parent %q", e.Path, p.Entity))
		}
		if !seen[p.Field] {
			return errors.NewValidationError("parents", fmt.Sprintf("entity %s parent field %q is not a declared field", e.Path, p.Field))
		}
	}
	for _, idx := range e.Indexes {
		if idx.Store == "" {
			return errors.NewValidationError("indexes", fmt.Sprintf("entity %s has an index without a store", e.Path))
		}
		if len(idx.Fields) == 0 {
			return errors.NewValidationError("indexes", fmt.Sprintf("entity %s has an index without fields", e.Path))
		}
		for _, name := range idx.Fields {
			if !seen[name] {
				return errors.NewValidationError("indexes", fmt.Sprintf("entity %s index field %q is not a declared field", e.Path, name))
			}
			if lists[name] {
				return errors.NewValidationError("indexes", fmt.Sprintf("entity %s index field %q is a list and has no key form", e.Path, name))
			}
		}
	}
	return nil
}

// Schema is a frozen set of entity facts.
type Schema struct {
	entities map[string]*Entity
	paths    []string
}

// Entity returns the fact for path.
func (s *Schema) Entity(path string) (*Entity, bool) {
	e, ok := s.entities[path]
	return e, ok
}

// Paths returns all entity paths in sorted order.
func (s *Schema) Paths() []string {
	return append([]string(nil), s.paths...)
}

// Len returns the number of entities.
func (s *Schema) Len() int { return len(s.paths) }

// Stores returns every data and index store named by the schema, sorted.
func (s *Schema) Stores() []string {
	set := make(map[string]struct{})
	for _, e := range s.entities {
		set[e.Store] = struct{}{}
		for _, idx := range e.Indexes {
			set[idx.Store] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for name := range set {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Builder collects entity facts before they are frozen.
type Builder struct {
	entities []*Entity
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Add queues an entity. Validation happens in Build.
func (b *Builder) Add(entities ...Entity) *Builder {
	for i := range entities {
		b.entities = append(b.entities, entities[i].clone())
	}
	return b
}

// Build validates every entity and freezes the schema.
func (b *Builder) Build() (*Schema, error) {
	s := &Schema{entities: make(map[string]*Entity, len(b.entities))}
	for _, e := range b.entities {
		if err := e.validate(); err != nil {
			return nil, err
		}
		if _, dup := s.entities[e.Path]; dup {
			return nil, errors.NewValidationError("path", fmt.Sprintf("entity %s declared twice", e.Path))
		}
		s.entities[e.Path] = e.clone()
		s.paths = append(s.paths, e.Path)
	}
	sort.Strings(s.paths)
	return s, nil
}

// MustBuild is Build for schemas declared in code; it panics on error.
func (b *Builder) MustBuild() *Schema {
	s, err := b.Build()
	if err != nil {
		panic(err)
	}
	return s
}
