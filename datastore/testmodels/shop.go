/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package testmodels holds small entity types shared by tests.
package testmodels

import (
	"github.com/go-openapi/strfmt"

	"github.com/suparena/entitykv/filter"
	"github.com/suparena/entitykv/registry"
	"github.com/suparena/entitykv/schema"
)

const (
	ShopPath     = "shop.Shop"
	WidgetPath   = "shop.Widget"
	SettingsPath = "shop.Settings"
	PartPath     = "shop.Part"
)

// Shop owns widgets and settings.
type Shop struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (Shop) EntityPath() string { return ShopPath }

func (s Shop) Values() filter.Record {
	return filter.Record{
		"id":   filter.Text(s.ID),
		"name": filter.Text(s.Name),
	}
}

// Widget lives under a shop and carries a unique name.
type Widget struct {
	ID     strfmt.ULID `json:"id"`
	ShopID string      `json:"shopId"`
	Name   string      `json:"name"`
	Score  int64       `json:"score"`
	Tags   []string    `json:"tags,omitempty"`
}

func (Widget) EntityPath() string { return WidgetPath }

func (w Widget) Values() filter.Record {
	rec := filter.Record{
		"id":      filter.Ulid(w.ID),
		"shop_id": filter.Text(w.ShopID),
		"name":    filter.Text(w.Name),
		"score":   filter.Int(w.Score),
	}
	if len(w.Tags) > 0 {
		rec["tags"] = filter.Texts(w.Tags...)
	}
	return rec
}

// Merge overlays the non-zero fields of w on existing.
func (w Widget) Merge(existing Widget) Widget {
	out := existing
	if w.Name != "" {
		out.Name = w.Name
	}
	if w.Score != 0 {
		out.Score = w.Score
	}
	if w.Tags != nil {
		out.Tags = w.Tags
	}
	return out
}

// Settings is the single settings record of a shop.
type Settings struct {
	ShopID string `json:"shopId"`
	Theme  string `json:"theme"`
}

func (Settings) EntityPath() string { return SettingsPath }

func (s Settings) Values() filter.Record {
	return filter.Record{
		"shop_id": filter.Text(s.ShopID),
		"theme":   filter.Text(s.Theme),
	}
}

// Part lives under a widget. Its schema names only the widget as parent; the
// shop position comes from the widget's chain.
type Part struct {
	ID       string      `json:"id"`
	ShopID   string      `json:"shopId"`
	WidgetID strfmt.ULID `json:"widgetId"`
	Label    string      `json:"label"`
}

func (Part) EntityPath() string { return PartPath }

func (p Part) Values() filter.Record {
	return filter.Record{
		"id":        filter.Text(p.ID),
		"shop_id":   filter.Text(p.ShopID),
		"widget_id": filter.Ulid(p.WidgetID),
		"label":     filter.Text(p.Label),
	}
}

// Schema returns the facts for Shop, Widget, Part and Settings. Shops and
// settings share the "shops" store, widgets and parts the "widgets" store;
// widget names are unique.
func Schema() *schema.Schema {
	return schema.NewBuilder().Add(
		schema.Entity{
			Path:       ShopPath,
			Store:      "shops",
			PrimaryKey: "id",
			Fields: []schema.Field{
				{Name: "id", Kind: schema.KindText},
				{Name: "name", Kind: schema.KindText},
			},
		},
		schema.Entity{
			Path:       WidgetPath,
			Store:      "widgets",
			PrimaryKey: "id",
			Parents:    []schema.Parent{{Entity: ShopPath, Field: "shop_id"}},
			Fields: []schema.Field{
				{Name: "id", Kind: schema.KindUlid},
				{Name: "shop_id", Kind: schema.KindText},
				{Name: "name", Kind: schema.KindText},
				{Name: "score", Kind: schema.KindInt},
				{Name: "tags", Kind: schema.KindList},
			},
			Indexes: []schema.Index{
				{Store: "widgets_by_name", Fields: []string{"name"}, Unique: true},
				{Store: "widgets_by_score", Fields: []string{"score"}},
			},
		},
		schema.Entity{
			Path:       PartPath,
			Store:      "widgets",
			PrimaryKey: "id",
			Parents:    []schema.Parent{{Entity: WidgetPath, Field: "widget_id"}},
			Fields: []schema.Field{
				{Name: "id", Kind: schema.KindText},
				{Name: "shop_id", Kind: schema.KindText},
				{Name: "widget_id", Kind: schema.KindUlid},
				{Name: "label", Kind: schema.KindText},
			},
		},
		schema.Entity{
			Path:    SettingsPath,
			Store:   "shops",
			Parents: []schema.Parent{{Entity: ShopPath, Field: "shop_id"}},
			Fields: []schema.Field{
				{Name: "shop_id", Kind: schema.KindText},
				{Name: "theme", Kind: schema.KindText},
			},
		},
	).MustBuild()
}

// Register adds factories for every test model to tr.
func Register(tr *registry.TypeRegistry) {
	tr.MustRegister(ShopPath, func() any { return &Shop{} })
	tr.MustRegister(WidgetPath, func() any { return &Widget{} })
	tr.MustRegister(SettingsPath, func() any { return &Settings{} })
	tr.MustRegister(PartPath, func() any { return &Part{} })
}
