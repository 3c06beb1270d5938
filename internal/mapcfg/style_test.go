package mapcfg

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultStyle(t *testing.T) {
	s := DefaultStyle()
	assert.Equal(t, "#3b82f6", s.FillColor)
	assert.Equal(t, 0.3, s.FillOpacity)
	assert.Equal(t, "#1d4ed8", s.StrokeColor)
	assert.Equal(t, 2.0, s.StrokeWidth)
	assert.Equal(t, 0.8, s.StrokeOpacity)
	assert.Zero(t, s.PointRadius)
}

func TestStyleForGeometry(t *testing.T) {
	tests := []struct {
		name  string
		types []string
		check func(t *testing.T, s Style)
	}{
		{"points only", []string{"Point", "MultiPoint"}, func(t *testing.T, s Style) {
			assert.Equal(t, 8.0, s.PointRadius)
			assert.Equal(t, 0.8, s.FillOpacity)
		}},
		{"polygons", []string{"Polygon"}, func(t *testing.T, s Style) {
			assert.Equal(t, 0.4, s.FillOpacity)
		}},
		{"lines only", []string{"LineString"}, func(t *testing.T, s Style) {
			assert.Equal(t, 3.0, s.StrokeWidth)
			assert.Zero(t, s.FillOpacity)
		}},
		{"mixed points and polygons", []string{"Point", "Polygon"}, func(t *testing.T, s Style) {
			assert.Equal(t, 0.4, s.FillOpacity)
			assert.Zero(t, s.PointRadius)
		}},
		{"unknown types fall back to default", []string{"Weird"}, func(t *testing.T, s Style) {
			assert.Equal(t, DefaultStyle(), s)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, StyleForGeometry(tt.types))
		})
	}
}

func TestStyleClamping(t *testing.T) {
	s := DefaultStyle().WithFill("#ff0000", 1.7)
	assert.Equal(t, 1.0, s.FillOpacity)

	s = s.WithStroke("#00ff00", -3, -0.5)
	assert.Zero(t, s.StrokeWidth)
	assert.Zero(t, s.StrokeOpacity)

	s = s.WithPointRadius(-1)
	assert.Zero(t, s.PointRadius)
}

func TestStyleInvalidColorFallsBack(t *testing.T) {
	s := DefaultStyle().WithFill("not-a-color", 0.5)
	assert.Equal(t, DefaultFillColor, s.FillColor)
	assert.Equal(t, 0.5, s.FillOpacity)

	s = s.WithStroke("javascript:alert(1)", 2, 0.8)
	assert.Equal(t, DefaultStrokeColor, s.StrokeColor)

	s = s.WithMarkerColor("bogus")
	assert.Empty(t, s.MarkerColor)
}

func TestStyleImmutability(t *testing.T) {
	base := DefaultStyle()
	_ = base.WithFill("#000000", 1)
	assert.Equal(t, DefaultStyle(), base)
}

func TestValidColor(t *testing.T) {
	valid := []string{"#fff", "#3b82f6", "#3b82f6cc", "rgb(1, 2, 3)", "rgba(1, 2, 3, 0.5)"}
	for _, c := range valid {
		assert.True(t, ValidColor(c), c)
	}
	invalid := []string{"", "red", "#12345", "url(evil)", "#gggggg"}
	for _, c := range invalid {
		assert.False(t, ValidColor(c), c)
	}
}
