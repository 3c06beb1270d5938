package mapcfg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	json "github.com/goccy/go-json"
)

func TestParseBasemap(t *testing.T) {
	for _, s := range []string{"", "auto"} {
		b, err := ParseBasemap(s)
		require.NoError(t, err)
		assert.Equal(t, BasemapLight, b)
	}

	b, err := ParseBasemap("satellite")
	require.NoError(t, err)
	assert.Equal(t, BasemapSatellite, b)

	_, err = ParseBasemap("sepia")
	assert.Error(t, err)
}

func TestBoundsValid(t *testing.T) {
	assert.True(t, Bounds{{-10, -10}, {10, 10}}.Valid())
	assert.True(t, Bounds{{5, 5}, {5, 5}}.Valid()) // degenerate but ordered

	assert.False(t, Bounds{{10, 0}, {-10, 5}}.Valid()) // west > east
	assert.False(t, Bounds{{0, 10}, {5, -10}}.Valid()) // south > north
	assert.False(t, Bounds{{-200, 0}, {0, 5}}.Valid())
	assert.False(t, Bounds{{0, 0}, {0, 95}}.Valid())
}

func TestValidateDefaultsBasemap(t *testing.T) {
	cfg := MapConfiguration{}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, BasemapLight, cfg.Basemap)

	cfg.Basemap = "sepia"
	assert.Error(t, cfg.Validate())
}

func TestValidateClampsZoom(t *testing.T) {
	z := 31.0
	cfg := MapConfiguration{Viewport: Viewport{Zoom: &z}}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, float64(MaxZoom), *cfg.Viewport.Zoom)

	z = -4
	require.NoError(t, cfg.Validate())
	assert.Equal(t, float64(MinZoom), *cfg.Viewport.Zoom)
}

func TestValidateRejectsBadBounds(t *testing.T) {
	b := Bounds{{10, 0}, {-10, 5}}
	cfg := MapConfiguration{Viewport: Viewport{Bounds: &b}}
	assert.Error(t, cfg.Validate())
}

func TestValidateClampsLayerStyles(t *testing.T) {
	l := NewLayerList()
	layer := l.Add("A", nil, nil)
	cfg := MapConfiguration{Layers: l.Snapshot()}
	cfg.Layers[0].Style.FillOpacity = 42

	require.NoError(t, cfg.Validate())
	assert.Equal(t, 1.0, cfg.Layers[0].Style.FillOpacity)
	_ = layer
}

func TestViewportExplicit(t *testing.T) {
	center := [2]float64{1, 2}
	zoom := 5.0

	assert.False(t, Viewport{}.Explicit())
	assert.False(t, Viewport{Center: &center}.Explicit())
	assert.True(t, Viewport{Center: &center, Zoom: &zoom}.Explicit())
}

func TestConfigurationJSONRoundTrip(t *testing.T) {
	l := NewLayerList()
	l.Add("Parks", pointCollection(), nil)
	zoom := 9.0
	center := [2]float64{-122.4, 37.77}
	cfg := MapConfiguration{
		Basemap:  BasemapDark,
		Viewport: Viewport{Center: &center, Zoom: &zoom},
		Layers:   l.Snapshot(),
		Markers:  []Marker{{Lat: 37.77, Lng: -122.4, Label: "SF"}},
	}

	raw, err := json.Marshal(cfg)
	require.NoError(t, err)

	var back MapConfiguration
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, cfg.Basemap, back.Basemap)
	assert.Equal(t, *cfg.Viewport.Center, *back.Viewport.Center)
	assert.Equal(t, cfg.Layers[0].ID, back.Layers[0].ID)
	assert.Equal(t, cfg.Markers, back.Markers)
}
