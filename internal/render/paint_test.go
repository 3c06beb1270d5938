package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alde1022/spatix/internal/mapcfg"
)

func TestPaintProperties(t *testing.T) {
	style := mapcfg.Style{
		FillColor:     "#3b82f6",
		FillOpacity:   0.4,
		StrokeColor:   "#1d4ed8",
		StrokeWidth:   3,
		StrokeOpacity: 0.8,
		PointRadius:   8,
	}

	fill := NewFillPaint(style).Properties()
	assert.Equal(t, "#3b82f6", fill["fill-color"])
	assert.Equal(t, 0.4, fill["fill-opacity"])
	assert.Equal(t, "#1d4ed8", fill["fill-outline-color"])

	line := NewLinePaint(style).Properties()
	assert.Equal(t, "#1d4ed8", line["line-color"])
	assert.Equal(t, 3.0, line["line-width"])

	circle := NewCirclePaint(style).Properties()
	assert.Equal(t, "#3b82f6", circle["circle-color"])
	assert.Equal(t, 8.0, circle["circle-radius"])
}

func TestCirclePaintFallbacks(t *testing.T) {
	// No radius set: points still get a visible default.
	p := NewCirclePaint(mapcfg.Style{FillColor: "#000000"})
	assert.Equal(t, 5.0, p.Circle.Radius)

	// A marker color overrides the fill color for points.
	p = NewCirclePaint(mapcfg.Style{FillColor: "#000000", MarkerColor: "#ef4444"})
	assert.Equal(t, "#ef4444", p.Circle.Color)
}

func TestParsePaintRoundTrip(t *testing.T) {
	style := mapcfg.DefaultStyle()
	for _, kind := range []PaintKind{PaintFill, PaintLine, PaintCircle} {
		var original Paint
		switch kind {
		case PaintFill:
			original = NewFillPaint(style)
		case PaintLine:
			original = NewLinePaint(style)
		case PaintCircle:
			original = NewCirclePaint(style)
		}
		parsed, err := ParsePaint(kind, original.Properties())
		require.NoError(t, err, string(kind))
		assert.Equal(t, original, parsed, string(kind))
	}
}

func TestParsePaintRejectsUnknownKeys(t *testing.T) {
	_, err := ParsePaint(PaintFill, map[string]any{"fill-color": "#fff", "fill-blur": 2})
	assert.Error(t, err)

	_, err = ParsePaint(PaintLine, map[string]any{"line-dasharray": []any{2, 2}})
	assert.Error(t, err)

	_, err = ParsePaint(PaintCircle, map[string]any{"circle-pitch-scale": "map"})
	assert.Error(t, err)

	_, err = ParsePaint(PaintKind("symbol"), map[string]any{})
	assert.Error(t, err)
}

func TestGeometryFilter(t *testing.T) {
	assert.Equal(t, []any{"==", "$type", "Polygon"}, GeometryFilter(PaintFill))
	assert.Equal(t, []any{"==", "$type", "LineString"}, GeometryFilter(PaintLine))
	assert.Equal(t, []any{"==", "$type", "Point"}, GeometryFilter(PaintCircle))
	assert.Nil(t, GeometryFilter(PaintKind("symbol")))
}
