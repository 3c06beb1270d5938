// Package mapcfg defines the canonical map model: styles, layers, and the
// serializable MapConfiguration that captures the entire visual state of a
// map. Everything a viewer needs to reproduce a map is in these types —
// the JSON field names and enum values are the wire/storage format and must
// stay stable.
package mapcfg

import (
	"regexp"
)

// Default style palette, matching the auto-style the import path applies
// when an upload carries no styling hints.
const (
	DefaultFillColor   = "#3b82f6"
	DefaultStrokeColor = "#1d4ed8"
)

// Style describes how a layer is painted. It is a pure value type: the
// With* methods return a modified copy with all invariants re-clamped and
// never mutate in place, so styles can be shared across renderer calls and
// kept on an undo stack cheaply.
type Style struct {
	FillColor     string  `json:"fillColor" doc:"Fill color (hex or rgba)" example:"#3b82f6"`
	FillOpacity   float64 `json:"fillOpacity" minimum:"0" maximum:"1" doc:"Fill opacity (0-1)" example:"0.3"`
	StrokeColor   string  `json:"strokeColor" doc:"Stroke color (hex or rgba)" example:"#1d4ed8"`
	StrokeWidth   float64 `json:"strokeWidth" minimum:"0" doc:"Stroke width in pixels" example:"2"`
	StrokeOpacity float64 `json:"strokeOpacity" minimum:"0" maximum:"1" doc:"Stroke opacity (0-1)" example:"0.8"`
	PointRadius   float64 `json:"pointRadius,omitempty" doc:"Point radius in pixels, when points are present" example:"8"`
	MarkerColor   string  `json:"markerColor,omitempty" doc:"Marker color override (hex or rgba)"`
	MarkerIcon    string  `json:"markerIcon,omitempty" doc:"Marker glyph name from the icon catalog" example:"pin"`
}

// DefaultStyle returns the total, deterministic default used when an import
// provides no styling hints.
func DefaultStyle() Style {
	return Style{
		FillColor:     DefaultFillColor,
		FillOpacity:   0.3,
		StrokeColor:   DefaultStrokeColor,
		StrokeWidth:   2,
		StrokeOpacity: 0.8,
	}
}

// StyleForGeometry derives a default style from the geometry types present
// in a dataset: point-heavy data gets point defaults, lines drop the fill,
// polygons get a slightly stronger fill.
func StyleForGeometry(geomTypes []string) Style {
	s := DefaultStyle()

	points, lines, polygons := 0, 0, 0
	for _, t := range geomTypes {
		switch t {
		case "Point", "MultiPoint":
			points++
		case "LineString", "MultiLineString":
			lines++
		case "Polygon", "MultiPolygon":
			polygons++
		}
	}

	switch {
	case points > 0 && lines == 0 && polygons == 0:
		s.PointRadius = 8
		s.FillOpacity = 0.8
	case polygons > 0:
		s.FillOpacity = 0.4
	case lines > 0:
		s.StrokeWidth = 3
		s.FillOpacity = 0
	}
	return s.clamped()
}

// WithFill returns a copy with fill color and opacity replaced.
func (s Style) WithFill(color string, opacity float64) Style {
	s.FillColor = color
	s.FillOpacity = opacity
	return s.clamped()
}

// WithStroke returns a copy with stroke color, width, and opacity replaced.
func (s Style) WithStroke(color string, width, opacity float64) Style {
	s.StrokeColor = color
	s.StrokeWidth = width
	s.StrokeOpacity = opacity
	return s.clamped()
}

// WithPointRadius returns a copy with the point radius replaced.
func (s Style) WithPointRadius(r float64) Style {
	s.PointRadius = r
	return s.clamped()
}

// WithMarkerColor returns a copy with the marker color override replaced.
func (s Style) WithMarkerColor(color string) Style {
	s.MarkerColor = color
	return s.clamped()
}

// WithMarkerIcon returns a copy with the marker glyph replaced.
func (s Style) WithMarkerIcon(glyph string) Style {
	s.MarkerIcon = glyph
	return s.clamped()
}

// clamped re-establishes the style invariants: opacities in [0,1],
// non-negative width and radius, colors falling back to defaults when
// invalid.
func (s Style) clamped() Style {
	s.FillOpacity = clamp01(s.FillOpacity)
	s.StrokeOpacity = clamp01(s.StrokeOpacity)
	if s.StrokeWidth < 0 {
		s.StrokeWidth = 0
	}
	if s.PointRadius < 0 {
		s.PointRadius = 0
	}
	if s.FillColor == "" || !ValidColor(s.FillColor) {
		s.FillColor = DefaultFillColor
	}
	if s.StrokeColor == "" || !ValidColor(s.StrokeColor) {
		s.StrokeColor = DefaultStrokeColor
	}
	if s.MarkerColor != "" && !ValidColor(s.MarkerColor) {
		s.MarkerColor = ""
	}
	return s
}

var colorRe = regexp.MustCompile(`^(#[0-9a-fA-F]{3}|#[0-9a-fA-F]{6}|#[0-9a-fA-F]{8}|rgba?\([0-9.,\s%]+\))$`)

// ValidColor reports whether s is a hex (#rgb, #rrggbb, #rrggbbaa) or
// rgb()/rgba() color string.
func ValidColor(s string) bool {
	return colorRe.MatchString(s)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
