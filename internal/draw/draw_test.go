package draw

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alde1022/spatix/internal/mapcfg"
)

func newOverlay(t *testing.T) (*Overlay, *mapcfg.LayerList, mapcfg.Layer) {
	t.Helper()
	layers := mapcfg.NewLayerList()
	layer := layers.Add("Sketch", nil, nil)
	o := NewOverlay(layers)
	o.SetActiveLayer(layer.ID)
	return o, layers, layer
}

func featureCount(t *testing.T, layers *mapcfg.LayerList, id string) int {
	t.Helper()
	layer, ok := layers.Get(id)
	require.True(t, ok)
	return len(layer.Features.Features)
}

func TestParseTool(t *testing.T) {
	tool, err := ParseTool("drawPolygon")
	require.NoError(t, err)
	assert.Equal(t, ToolDrawPolygon, tool)

	_, err = ParseTool("lasso")
	assert.Error(t, err)
}

func TestSelectToolReselectKeepsPending(t *testing.T) {
	o, _, _ := newOverlay(t)
	require.NoError(t, o.SelectTool(ToolDrawLine))
	_, err := o.PointerDown(orb.Point{0, 0})
	require.NoError(t, err)
	require.Equal(t, 1, o.PendingCount())

	// Re-selecting the active tool is a no-op.
	require.NoError(t, o.SelectTool(ToolDrawLine))
	assert.Equal(t, 1, o.PendingCount())

	// Switching away discards the in-progress geometry.
	require.NoError(t, o.SelectTool(ToolDrawPolygon))
	assert.Equal(t, 0, o.PendingCount())
}

func TestPointCommitsImmediately(t *testing.T) {
	o, layers, layer := newOverlay(t)
	require.NoError(t, o.SelectTool(ToolDrawPoint))

	f, err := o.PointerDown(orb.Point{-122.4, 37.7})
	require.NoError(t, err)
	require.NotNil(t, f)
	assert.Equal(t, string(ToolDrawPoint), f.Properties["drawn"])

	assert.Equal(t, 1, featureCount(t, layers, layer.ID))
	assert.Equal(t, ToolSelect, o.Tool())
}

func TestLineNeedsTwoVertices(t *testing.T) {
	o, layers, layer := newOverlay(t)
	require.NoError(t, o.SelectTool(ToolDrawLine))

	_, err := o.PointerDown(orb.Point{0, 0})
	require.NoError(t, err)
	_, err = o.Complete()
	assert.ErrorIs(t, err, ErrIncomplete)

	_, err = o.PointerDown(orb.Point{1, 1})
	require.NoError(t, err)
	f, err := o.Complete()
	require.NoError(t, err)
	assert.Equal(t, "LineString", f.Geometry.GeoJSONType())
	assert.Equal(t, 1, featureCount(t, layers, layer.ID))
}

func TestPolygonClosesRing(t *testing.T) {
	o, _, _ := newOverlay(t)
	require.NoError(t, o.SelectTool(ToolDrawPolygon))

	for _, p := range []orb.Point{{0, 0}, {2, 0}} {
		_, err := o.PointerDown(p)
		require.NoError(t, err)
	}
	_, err := o.Complete()
	assert.ErrorIs(t, err, ErrIncomplete)

	_, err = o.PointerDown(orb.Point{1, 2})
	require.NoError(t, err)
	f, err := o.Complete()
	require.NoError(t, err)

	poly, ok := f.Geometry.(orb.Polygon)
	require.True(t, ok)
	ring := poly[0]
	assert.Len(t, ring, 4)
	assert.Equal(t, ring[0], ring[len(ring)-1])
}

func TestRectangleTwoClicks(t *testing.T) {
	o, _, _ := newOverlay(t)
	require.NoError(t, o.SelectTool(ToolDrawRectangle))

	f, err := o.PointerDown(orb.Point{3, 4})
	require.NoError(t, err)
	assert.Nil(t, f)

	// Opposite corner given "backwards"; the ring is still normalized.
	f, err = o.PointerDown(orb.Point{1, 2})
	require.NoError(t, err)
	require.NotNil(t, f)

	poly, ok := f.Geometry.(orb.Polygon)
	require.True(t, ok)
	assert.Equal(t, orb.Point{1, 2}, poly[0][0])
	assert.Equal(t, orb.Point{3, 4}, poly[0][2])
	assert.Equal(t, ToolSelect, o.Tool())
}

func TestAddText(t *testing.T) {
	o, layers, layer := newOverlay(t)
	require.NoError(t, o.SelectTool(ToolAddText))

	f, err := o.AddText(orb.Point{5, 5}, "Meet here")
	require.NoError(t, err)
	assert.Equal(t, "Meet here", f.Properties["text"])
	assert.Equal(t, 1, featureCount(t, layers, layer.ID))

	// AddText refuses outside text mode.
	_, err = o.AddText(orb.Point{5, 5}, "nope")
	assert.Error(t, err)
}

func TestCancelLeavesLayersUnchanged(t *testing.T) {
	o, layers, layer := newOverlay(t)
	require.NoError(t, o.SelectTool(ToolDrawPolygon))

	for _, p := range []orb.Point{{0, 0}, {1, 0}, {1, 1}} {
		_, err := o.PointerDown(p)
		require.NoError(t, err)
	}
	o.Cancel()

	assert.Equal(t, 0, o.PendingCount())
	assert.Equal(t, 0, featureCount(t, layers, layer.ID))
	// Cancel keeps the tool so the user can start over.
	assert.Equal(t, ToolDrawPolygon, o.Tool())
}

func TestCommitWithoutActiveLayer(t *testing.T) {
	o := NewOverlay(mapcfg.NewLayerList())
	require.NoError(t, o.SelectTool(ToolDrawPoint))

	_, err := o.PointerDown(orb.Point{0, 0})
	assert.ErrorIs(t, err, ErrNoActiveLayer)
}

func TestSelection(t *testing.T) {
	o, _, _ := newOverlay(t)

	o.Select("b")
	o.Select("a")
	o.Select("a")
	assert.Equal(t, []string{"a", "b"}, o.Selection())

	o.Deselect("a")
	assert.Equal(t, []string{"b"}, o.Selection())

	// Selection is a select-mode affordance only.
	require.NoError(t, o.SelectTool(ToolDrawPoint))
	o.Select("c")
	assert.Equal(t, []string{"b"}, o.Selection())

	o.ClearSelection()
	assert.Empty(t, o.Selection())
}
