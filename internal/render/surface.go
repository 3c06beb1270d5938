package render

import (
	"fmt"
	"sort"
	"sync"

	json "github.com/goccy/go-json"
	"github.com/paulmach/orb/geojson"

	"github.com/alde1022/spatix/internal/mapcfg"
)

// Camera is the surface's current view: center in [lng, lat] plus zoom.
type Camera struct {
	Center [2]float64 `json:"center"`
	Zoom   float64    `json:"zoom"`
}

// PaintLayer is one backend paint layer bound to a feature source.
type PaintLayer struct {
	ID      string
	Source  string
	Kind    PaintKind
	Filter  []any
	Paint   Paint
	Visible bool
}

// Surface is the rendering backend owned exclusively by the adapter. The
// adapter is the only component permitted to mutate it.
type Surface interface {
	SetBasemap(b mapcfg.Basemap, styleURL string)
	Basemap() mapcfg.Basemap

	AddSource(id string, fc *geojson.FeatureCollection)
	RemoveSource(id string)

	AddLayer(l PaintLayer) error
	RemoveLayer(id string)
	SetVisibility(layerID string, visible bool) error

	SetCamera(c Camera)
	Camera() Camera

	// Clear releases every source and layer. Must be safe to call twice.
	Clear()
}

// StyleDocument is the in-process Surface: a MapLibre-style JSON document
// the browser loads verbatim. Sources are GeoJSON inline, paint layers are
// ordered, and the camera is the document's center/zoom.
type StyleDocument struct {
	mu      sync.Mutex
	name    string
	basemap mapcfg.Basemap
	baseURL string
	sources map[string]*geojson.FeatureCollection
	layers  []PaintLayer
	camera  Camera
}

// NewStyleDocument creates an empty style document surface.
func NewStyleDocument(name string) *StyleDocument {
	return &StyleDocument{
		name:    name,
		sources: make(map[string]*geojson.FeatureCollection),
	}
}

func (d *StyleDocument) SetBasemap(b mapcfg.Basemap, styleURL string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.basemap = b
	d.baseURL = styleURL
}

func (d *StyleDocument) Basemap() mapcfg.Basemap {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.basemap
}

func (d *StyleDocument) AddSource(id string, fc *geojson.FeatureCollection) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sources[id] = fc
}

func (d *StyleDocument) RemoveSource(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.sources, id)
}

func (d *StyleDocument) AddLayer(l PaintLayer) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.sources[l.Source]; !ok {
		return fmt.Errorf("layer %q references unknown source %q", l.ID, l.Source)
	}
	for _, existing := range d.layers {
		if existing.ID == l.ID {
			return fmt.Errorf("duplicate paint layer %q", l.ID)
		}
	}
	d.layers = append(d.layers, l)
	return nil
}

func (d *StyleDocument) RemoveLayer(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, l := range d.layers {
		if l.ID == id {
			d.layers = append(d.layers[:i], d.layers[i+1:]...)
			return
		}
	}
}

func (d *StyleDocument) SetVisibility(layerID string, visible bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := range d.layers {
		if d.layers[i].ID == layerID {
			d.layers[i].Visible = visible
			return nil
		}
	}
	return fmt.Errorf("paint layer %q not found", layerID)
}

func (d *StyleDocument) SetCamera(c Camera) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.camera = c
}

func (d *StyleDocument) Camera() Camera {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.camera
}

func (d *StyleDocument) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sources = make(map[string]*geojson.FeatureCollection)
	d.layers = nil
}

// LayerIDs returns the paint layer ids in paint order.
func (d *StyleDocument) LayerIDs() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	ids := make([]string, len(d.layers))
	for i, l := range d.layers {
		ids[i] = l.ID
	}
	return ids
}

// SourceIDs returns the source ids, sorted for determinism.
func (d *StyleDocument) SourceIDs() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	ids := make([]string, 0, len(d.sources))
	for id := range d.sources {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// MarshalJSON emits the document in MapLibre style-spec shape: version 8,
// inline geojson sources, ordered layers with paint and visibility, and the
// basemap as an imported style URL in metadata.
func (d *StyleDocument) MarshalJSON() ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	sources := make(map[string]any, len(d.sources))
	for id, fc := range d.sources {
		sources[id] = map[string]any{
			"type": "geojson",
			"data": fc,
		}
	}

	layers := make([]map[string]any, 0, len(d.layers))
	for _, l := range d.layers {
		visibility := "visible"
		if !l.Visible {
			visibility = "none"
		}
		entry := map[string]any{
			"id":     l.ID,
			"type":   string(l.Kind),
			"source": l.Source,
			"paint":  l.Paint.Properties(),
			"layout": map[string]any{"visibility": visibility},
		}
		if l.Filter != nil {
			entry["filter"] = l.Filter
		}
		layers = append(layers, entry)
	}

	return json.Marshal(map[string]any{
		"version": 8,
		"name":    d.name,
		"metadata": map[string]any{
			"spatix:basemap":   string(d.basemap),
			"spatix:basestyle": d.baseURL,
		},
		"center":  d.camera.Center,
		"zoom":    d.camera.Zoom,
		"sources": sources,
		"layers":  layers,
	})
}
