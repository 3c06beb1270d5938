// Package render binds a MapConfiguration to a live map surface. The
// adapter translates layers into backend sources and paint layers and keeps
// them in sync across configuration changes without tearing the surface
// down; the in-process surface is a MapLibre-style document served to the
// browser.
package render

import (
	"fmt"

	"github.com/alde1022/spatix/internal/mapcfg"
)

// PaintKind discriminates the paint variants. One data layer produces up to
// three paint layers, one per kind, each filtered by geometry type.
type PaintKind string

const (
	PaintFill   PaintKind = "fill"
	PaintLine   PaintKind = "line"
	PaintCircle PaintKind = "circle"
)

// Paint is a tagged union over fill, line, and circle paint properties.
// Fields are typed per variant; there is no opaque property bag, and
// ParsePaint rejects unknown keys at construction.
type Paint struct {
	Kind   PaintKind
	Fill   *FillPaint
	Line   *LinePaint
	Circle *CirclePaint
}

// FillPaint paints polygon interiors.
type FillPaint struct {
	Color        string
	Opacity      float64
	OutlineColor string
}

// LinePaint paints line strings and polygon outlines.
type LinePaint struct {
	Color   string
	Width   float64
	Opacity float64
}

// CirclePaint paints point features.
type CirclePaint struct {
	Color       string
	Radius      float64
	Opacity     float64
	StrokeColor string
	StrokeWidth float64
}

// NewFillPaint builds a fill paint from a layer style.
func NewFillPaint(s mapcfg.Style) Paint {
	return Paint{Kind: PaintFill, Fill: &FillPaint{
		Color:        s.FillColor,
		Opacity:      s.FillOpacity,
		OutlineColor: s.StrokeColor,
	}}
}

// NewLinePaint builds a line paint from a layer style.
func NewLinePaint(s mapcfg.Style) Paint {
	return Paint{Kind: PaintLine, Line: &LinePaint{
		Color:   s.StrokeColor,
		Width:   s.StrokeWidth,
		Opacity: s.StrokeOpacity,
	}}
}

// NewCirclePaint builds a circle paint from a layer style. A style without
// a point radius falls back to a visible default so point data never
// disappears.
func NewCirclePaint(s mapcfg.Style) Paint {
	r := s.PointRadius
	if r <= 0 {
		r = 5
	}
	color := s.FillColor
	if s.MarkerColor != "" {
		color = s.MarkerColor
	}
	return Paint{Kind: PaintCircle, Circle: &CirclePaint{
		Color:       color,
		Radius:      r,
		Opacity:     s.FillOpacity,
		StrokeColor: s.StrokeColor,
		StrokeWidth: 1,
	}}
}

// Properties returns the MapLibre paint property map for the active variant.
func (p Paint) Properties() map[string]any {
	switch p.Kind {
	case PaintFill:
		return map[string]any{
			"fill-color":         p.Fill.Color,
			"fill-opacity":       p.Fill.Opacity,
			"fill-outline-color": p.Fill.OutlineColor,
		}
	case PaintLine:
		return map[string]any{
			"line-color":   p.Line.Color,
			"line-width":   p.Line.Width,
			"line-opacity": p.Line.Opacity,
		}
	case PaintCircle:
		return map[string]any{
			"circle-color":        p.Circle.Color,
			"circle-radius":       p.Circle.Radius,
			"circle-opacity":      p.Circle.Opacity,
			"circle-stroke-color": p.Circle.StrokeColor,
			"circle-stroke-width": p.Circle.StrokeWidth,
		}
	}
	return nil
}

// ParsePaint constructs a Paint of the given kind from a property map,
// rejecting unknown keys rather than passing them through.
func ParsePaint(kind PaintKind, props map[string]any) (Paint, error) {
	p := Paint{Kind: kind}
	switch kind {
	case PaintFill:
		fill := &FillPaint{}
		for k, v := range props {
			switch k {
			case "fill-color":
				fill.Color, _ = v.(string)
			case "fill-opacity":
				fill.Opacity = toFloat(v)
			case "fill-outline-color":
				fill.OutlineColor, _ = v.(string)
			default:
				return Paint{}, fmt.Errorf("unknown fill paint key %q", k)
			}
		}
		p.Fill = fill
	case PaintLine:
		line := &LinePaint{}
		for k, v := range props {
			switch k {
			case "line-color":
				line.Color, _ = v.(string)
			case "line-width":
				line.Width = toFloat(v)
			case "line-opacity":
				line.Opacity = toFloat(v)
			default:
				return Paint{}, fmt.Errorf("unknown line paint key %q", k)
			}
		}
		p.Line = line
	case PaintCircle:
		circle := &CirclePaint{}
		for k, v := range props {
			switch k {
			case "circle-color":
				circle.Color, _ = v.(string)
			case "circle-radius":
				circle.Radius = toFloat(v)
			case "circle-opacity":
				circle.Opacity = toFloat(v)
			case "circle-stroke-color":
				circle.StrokeColor, _ = v.(string)
			case "circle-stroke-width":
				circle.StrokeWidth = toFloat(v)
			default:
				return Paint{}, fmt.Errorf("unknown circle paint key %q", k)
			}
		}
		p.Circle = circle
	default:
		return Paint{}, fmt.Errorf("unknown paint kind %q", kind)
	}
	return p, nil
}

// GeometryFilter returns the MapLibre filter expression selecting one
// geometry type from a mixed source.
func GeometryFilter(kind PaintKind) []any {
	switch kind {
	case PaintFill:
		return []any{"==", "$type", "Polygon"}
	case PaintLine:
		return []any{"==", "$type", "LineString"}
	case PaintCircle:
		return []any{"==", "$type", "Point"}
	}
	return nil
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	}
	return 0
}
