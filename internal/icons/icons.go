// Package icons holds the symbol catalog for the style picker. The catalog
// is process-wide immutable configuration data; filtering is a pure
// function over it, recomputed per query.
package icons

import "strings"

// Glyph is one selectable symbol.
type Glyph struct {
	Name     string `json:"name" doc:"Glyph identifier" example:"pin"`
	Category string `json:"category" doc:"Catalog category" example:"markers"`
}

// Category groups an ordered list of glyph names.
type Category struct {
	Name   string   `json:"name" doc:"Category name" example:"markers"`
	Glyphs []string `json:"glyphs" doc:"Glyph names in catalog order"`
}

// catalog is fixed at build time and never mutated. Order is significant:
// FilterCatalog preserves it.
var catalog = []Category{
	{Name: "markers", Glyphs: []string{
		"pin", "pin-round", "circle", "square", "star", "flag", "cross",
	}},
	{Name: "places", Glyphs: []string{
		"home", "building", "office", "school", "hospital", "church",
		"museum", "library", "monument",
	}},
	{Name: "food-drink", Glyphs: []string{
		"restaurant", "cafe", "bar", "bakery", "fast-food",
	}},
	{Name: "transport", Glyphs: []string{
		"parking", "fuel", "bus", "rail", "airport", "harbor", "bicycle",
	}},
	{Name: "outdoors", Glyphs: []string{
		"park", "garden", "camp", "picnic", "water", "mountain", "beach",
		"forest",
	}},
}

// Categories returns a copy of the catalog categories.
func Categories() []Category {
	out := make([]Category, len(catalog))
	for i, c := range catalog {
		glyphs := make([]string, len(c.Glyphs))
		copy(glyphs, c.Glyphs)
		out[i] = Category{Name: c.Name, Glyphs: glyphs}
	}
	return out
}

// FilterCatalog returns the glyphs whose name contains query,
// case-insensitive, as a flat sequence preserving catalog order. An empty
// query returns the whole catalog.
func FilterCatalog(query string) []Glyph {
	q := strings.ToLower(strings.TrimSpace(query))
	var out []Glyph
	for _, c := range catalog {
		for _, name := range c.Glyphs {
			if q == "" || strings.Contains(strings.ToLower(name), q) {
				out = append(out, Glyph{Name: name, Category: c.Name})
			}
		}
	}
	return out
}

// Exists reports whether a glyph name is in the catalog.
func Exists(name string) bool {
	for _, c := range catalog {
		for _, g := range c.Glyphs {
			if g == name {
				return true
			}
		}
	}
	return false
}
