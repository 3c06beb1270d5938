package render

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/alde1022/spatix/internal/logging"
	"github.com/alde1022/spatix/internal/mapcfg"
)

// basemapStyles maps the stable basemap values to their tile style URLs.
// An unreachable URL degrades to a blank background on the client; it never
// blocks the data layers.
var basemapStyles = map[mapcfg.Basemap]string{
	mapcfg.BasemapLight:     "https://basemaps.cartocdn.com/gl/positron-gl-style/style.json",
	mapcfg.BasemapDark:      "https://basemaps.cartocdn.com/gl/dark-matter-gl-style/style.json",
	mapcfg.BasemapStreets:   "https://basemaps.cartocdn.com/gl/voyager-gl-style/style.json",
	mapcfg.BasemapSatellite: "https://api.maptiler.com/maps/hybrid/style.json",
}

// BasemapStyleURL returns the style URL for a basemap value.
func BasemapStyleURL(b mapcfg.Basemap) string {
	return basemapStyles[b]
}

// FitPadding is the fraction of extra span added around fitted bounds.
const FitPadding = 0.10

// markerSourceID is the reserved source for the flat marker list.
const markerSourceID = "spatix-markers"

// Option configures an adapter handle at attach time.
type Option func(*Handle)

// ViewerMode restricts the handle to read-only rendering: pan/zoom stays
// interactive on the client but no editing surfaces are emitted.
func ViewerMode() Option {
	return func(h *Handle) { h.viewer = true }
}

// Handle binds one attached surface. It tracks the primitives it created so
// subsequent Apply calls sync incrementally instead of tearing down, and so
// Detach can release everything it owns.
type Handle struct {
	surface  Surface
	viewer   bool
	detached bool

	// owned primitives, by config layer id
	sources map[string]struct{}
	painted map[string][]string

	lastCfg *mapcfg.MapConfiguration
}

// Attach binds the adapter to a surface and returns the handle that owns it.
func Attach(s Surface, opts ...Option) *Handle {
	h := &Handle{
		surface: s,
		sources: make(map[string]struct{}),
		painted: make(map[string][]string),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Viewer reports whether the handle renders in read-only viewer mode.
func (h *Handle) Viewer() bool { return h.viewer }

// Apply syncs a MapConfiguration snapshot onto the surface. Only what
// changed is touched: a basemap change swaps the base style and preserves
// the camera, visibility changes flip layout flags without rebuilding
// sources, and removed layers release their primitives. Apply is
// synchronous — the configuration is fully applied before it returns, so a
// caller serializing mutations never observes a half-applied surface.
func (h *Handle) Apply(cfg mapcfg.MapConfiguration) error {
	if h.detached {
		return fmt.Errorf("apply on detached handle")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	// 1. Basemap: swap only the base style, keep the camera.
	if h.surface.Basemap() != cfg.Basemap {
		cam := h.surface.Camera()
		h.surface.SetBasemap(cfg.Basemap, basemapStyles[cfg.Basemap])
		h.surface.SetCamera(cam)
	}

	// 2. Remove primitives for layers no longer configured.
	wanted := make(map[string]struct{}, len(cfg.Layers))
	for _, layer := range cfg.Layers {
		wanted[layer.ID] = struct{}{}
	}
	for id := range h.sources {
		if _, ok := wanted[id]; !ok {
			h.releaseLayer(id)
		}
	}

	// 3. Sync each configured layer in z-order.
	for _, layer := range cfg.Layers {
		if err := h.syncLayer(layer); err != nil {
			return err
		}
	}

	// 4. Markers render as one reserved point source.
	h.syncMarkers(cfg.Markers)

	// 5. Viewport.
	h.applyViewport(cfg.Viewport)

	snapshot := cfg
	snapshot.Layers = append([]mapcfg.Layer(nil), cfg.Layers...)
	h.lastCfg = &snapshot
	return nil
}

// Config returns the configuration the surface currently renders. It is
// exactly the last applied snapshot — the adapter injects no defaults of
// its own, so a persisted config round-trips field-for-field.
func (h *Handle) Config() (mapcfg.MapConfiguration, bool) {
	if h.lastCfg == nil {
		return mapcfg.MapConfiguration{}, false
	}
	return *h.lastCfg, true
}

// Detach releases every source, paint layer, and control the handle owns.
// It is idempotent: calling it on an already-detached handle is a no-op, so
// remount paths cannot double-free or leak.
func (h *Handle) Detach() {
	if h.detached {
		return
	}
	h.detached = true
	h.surface.Clear()
	h.sources = make(map[string]struct{})
	h.painted = make(map[string][]string)
	h.lastCfg = nil
}

// syncLayer brings one configured layer's primitives up to date: one
// feature source plus up to three paint layers filtered by geometry type.
func (h *Handle) syncLayer(layer mapcfg.Layer) error {
	fc := sanitizeCollection(layer.ID, layer.Features)

	kinds := paintKindsFor(fc)
	_, exists := h.sources[layer.ID]

	if exists && samePaintSet(h.painted[layer.ID], layer.ID, kinds) {
		// Refresh the source data in place.
		h.surface.AddSource(layer.ID, fc)

		if prev, ok := h.previousLayer(layer.ID); ok && prev.Style == layer.Style {
			// Same paint: a visibility change is a layout flip, the paint
			// stack stays put.
			for _, kind := range kinds {
				if err := h.surface.SetVisibility(paintLayerID(layer.ID, kind), layer.Visible); err != nil {
					return err
				}
			}
			return nil
		}

		for _, kind := range kinds {
			id := paintLayerID(layer.ID, kind)
			h.surface.RemoveLayer(id)
			if err := h.surface.AddLayer(h.buildPaintLayer(layer, kind)); err != nil {
				return err
			}
		}
		return nil
	}

	if exists {
		h.releaseLayer(layer.ID)
	}
	h.surface.AddSource(layer.ID, fc)
	h.sources[layer.ID] = struct{}{}
	for _, kind := range kinds {
		if err := h.surface.AddLayer(h.buildPaintLayer(layer, kind)); err != nil {
			return err
		}
		h.painted[layer.ID] = append(h.painted[layer.ID], paintLayerID(layer.ID, kind))
	}
	return nil
}

func (h *Handle) buildPaintLayer(layer mapcfg.Layer, kind PaintKind) PaintLayer {
	var paint Paint
	switch kind {
	case PaintFill:
		paint = NewFillPaint(layer.Style)
	case PaintLine:
		paint = NewLinePaint(layer.Style)
	case PaintCircle:
		paint = NewCirclePaint(layer.Style)
	}
	return PaintLayer{
		ID:      paintLayerID(layer.ID, kind),
		Source:  layer.ID,
		Kind:    kind,
		Filter:  GeometryFilter(kind),
		Paint:   paint,
		Visible: layer.Visible,
	}
}

// previousLayer finds a layer in the last applied snapshot.
func (h *Handle) previousLayer(id string) (mapcfg.Layer, bool) {
	if h.lastCfg == nil {
		return mapcfg.Layer{}, false
	}
	for _, l := range h.lastCfg.Layers {
		if l.ID == id {
			return l, true
		}
	}
	return mapcfg.Layer{}, false
}

func (h *Handle) releaseLayer(id string) {
	for _, paintID := range h.painted[id] {
		h.surface.RemoveLayer(paintID)
	}
	delete(h.painted, id)
	h.surface.RemoveSource(id)
	delete(h.sources, id)
}

func (h *Handle) syncMarkers(markers []mapcfg.Marker) {
	if len(markers) == 0 {
		if _, ok := h.sources[markerSourceID]; ok {
			h.releaseLayer(markerSourceID)
		}
		return
	}
	fc := geojson.NewFeatureCollection()
	for i, m := range markers {
		f := geojson.NewFeature(orb.Point{m.Lng, m.Lat})
		f.ID = fmt.Sprintf("marker-%d", i)
		if m.Label != "" {
			f.Properties["label"] = m.Label
		}
		if m.Color != "" {
			f.Properties["color"] = m.Color
		}
		fc.Append(f)
	}

	style := mapcfg.DefaultStyle().WithPointRadius(8).WithFill(mapcfg.DefaultFillColor, 0.9)
	layer := mapcfg.Layer{ID: markerSourceID, Visible: true, Style: style, Features: fc}

	if _, ok := h.sources[markerSourceID]; ok {
		h.releaseLayer(markerSourceID)
	}
	h.surface.AddSource(markerSourceID, fc)
	h.sources[markerSourceID] = struct{}{}
	pl := h.buildPaintLayer(layer, PaintCircle)
	if err := h.surface.AddLayer(pl); err != nil {
		logging.Warn().Err(err).Msg("marker layer rejected by surface")
		return
	}
	h.painted[markerSourceID] = []string{pl.ID}
}

func (h *Handle) applyViewport(v mapcfg.Viewport) {
	if v.Explicit() {
		h.surface.SetCamera(Camera{Center: *v.Center, Zoom: *v.Zoom})
		return
	}
	if v.Bounds != nil {
		h.surface.SetCamera(FitBounds(*v.Bounds))
	}
}

// FitBounds computes the camera framing a rectangle with FitPadding of
// breathing room, clamped to the supported zoom range.
func FitBounds(b mapcfg.Bounds) Camera {
	west, south := b[0][0], b[0][1]
	east, north := b[1][0], b[1][1]

	center := [2]float64{(west + east) / 2, (south + north) / 2}

	spanLng := (east - west) * (1 + 2*FitPadding)
	spanLat := (north - south) * (1 + 2*FitPadding)

	zoom := float64(mapcfg.MaxZoom)
	if spanLng > 0 {
		zoom = math.Min(zoom, math.Log2(360/spanLng))
	}
	if spanLat > 0 {
		zoom = math.Min(zoom, math.Log2(180/spanLat))
	}
	if zoom > mapcfg.MaxZoom {
		zoom = mapcfg.MaxZoom
	}
	if zoom < mapcfg.MinZoom {
		zoom = mapcfg.MinZoom
	}
	return Camera{Center: center, Zoom: math.Floor(zoom*100) / 100}
}

// sanitizeCollection drops features with missing or empty geometry. A
// malformed feature is skipped with a warning, never fatal to the layer.
func sanitizeCollection(layerID string, fc *geojson.FeatureCollection) *geojson.FeatureCollection {
	if fc == nil {
		return geojson.NewFeatureCollection()
	}
	clean := geojson.NewFeatureCollection()
	for _, f := range fc.Features {
		if f == nil || f.Geometry == nil {
			logging.Warn().Str("layer", layerID).Msg("skipping feature with invalid geometry")
			continue
		}
		clean.Append(f)
	}
	return clean
}

// paintKindsFor returns which paint variants a collection needs, in stable
// fill < line < circle stacking order. A mixed collection gets all three.
func paintKindsFor(fc *geojson.FeatureCollection) []PaintKind {
	var hasFill, hasLine, hasCircle bool
	for _, f := range fc.Features {
		switch f.Geometry.GeoJSONType() {
		case "Polygon", "MultiPolygon":
			hasFill = true
			hasLine = true // polygon outlines
		case "LineString", "MultiLineString":
			hasLine = true
		case "Point", "MultiPoint":
			hasCircle = true
		case "GeometryCollection":
			hasFill, hasLine, hasCircle = true, true, true
		}
	}
	var kinds []PaintKind
	if hasFill {
		kinds = append(kinds, PaintFill)
	}
	if hasLine {
		kinds = append(kinds, PaintLine)
	}
	if hasCircle {
		kinds = append(kinds, PaintCircle)
	}
	return kinds
}

func paintLayerID(layerID string, kind PaintKind) string {
	return layerID + "-" + string(kind)
}

func samePaintSet(existing []string, layerID string, kinds []PaintKind) bool {
	if len(existing) != len(kinds) {
		return false
	}
	want := make(map[string]struct{}, len(kinds))
	for _, k := range kinds {
		want[paintLayerID(layerID, k)] = struct{}{}
	}
	for _, id := range existing {
		if _, ok := want[id]; !ok {
			return false
		}
	}
	return true
}
