package mapcfg

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/paulmach/orb/geojson"
)

var (
	// ErrNotFound is returned when a layer or feature id does not exist.
	// Mutations referencing an unknown id are no-ops.
	ErrNotFound = errors.New("not found")

	// ErrInvalidOrder is returned by Reorder when the argument is not a
	// permutation of the existing layer ids. The list is left unchanged.
	ErrInvalidOrder = errors.New("invalid order")
)

// Layer is one named, styleable, toggleable group of features within a map.
// Position in the owning list is the z-order: later layers paint on top.
type Layer struct {
	ID       string                     `json:"id" doc:"Stable layer identifier"`
	Name     string                     `json:"name" doc:"Display name" example:"Buildings"`
	Visible  bool                       `json:"visible" doc:"Whether the layer is currently shown"`
	Style    Style                      `json:"style" doc:"How the layer is painted"`
	Features *geojson.FeatureCollection `json:"features" doc:"Owned feature collection"`
}

// LayerList is the ordered, exclusive owner of a map's layers. All mutations
// are synchronous and leave the list consistent; the rendering adapter reads
// snapshots and never races the model. The mutex asserts the single-writer
// discipline rather than enabling concurrent mutation.
type LayerList struct {
	mu     sync.Mutex
	layers []*Layer
}

// NewLayerList returns an empty layer list.
func NewLayerList() *LayerList {
	return &LayerList{}
}

// Add creates a layer with a fresh id and appends it to the end of the list,
// so new layers paint on top. A nil collection starts empty; a nil style
// gets the default.
func (l *LayerList) Add(name string, fc *geojson.FeatureCollection, style *Style) Layer {
	l.mu.Lock()
	defer l.mu.Unlock()

	if fc == nil {
		fc = geojson.NewFeatureCollection()
	}
	s := DefaultStyle()
	if style != nil {
		s = style.clamped()
	}
	layer := &Layer{
		ID:       uuid.NewString(),
		Name:     name,
		Visible:  true,
		Style:    s,
		Features: fc,
	}
	ensureFeatureIDs(fc)
	l.layers = append(l.layers, layer)
	return *layer
}

// Restore replaces the list contents with layers loaded from a persisted
// MapConfiguration, keeping their ids and order.
func (l *LayerList) Restore(layers []Layer) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.layers = make([]*Layer, 0, len(layers))
	for i := range layers {
		layer := layers[i]
		if layer.ID == "" {
			layer.ID = uuid.NewString()
		}
		if layer.Features == nil {
			layer.Features = geojson.NewFeatureCollection()
		}
		layer.Style = layer.Style.clamped()
		ensureFeatureIDs(layer.Features)
		l.layers = append(l.layers, &layer)
	}
}

// Get returns a copy of the layer with the given id.
func (l *LayerList) Get(id string) (Layer, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if layer := l.find(id); layer != nil {
		return *layer, true
	}
	return Layer{}, false
}

// SetVisible toggles a layer's visibility flag.
func (l *LayerList) SetVisible(id string, visible bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	layer := l.find(id)
	if layer == nil {
		return ErrNotFound
	}
	layer.Visible = visible
	return nil
}

// Rename changes a layer's display name. Identity is untouched.
func (l *LayerList) Rename(id, name string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	layer := l.find(id)
	if layer == nil {
		return ErrNotFound
	}
	layer.Name = name
	return nil
}

// SetStyle replaces a layer's style.
func (l *LayerList) SetStyle(id string, style Style) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	layer := l.find(id)
	if layer == nil {
		return ErrNotFound
	}
	layer.Style = style.clamped()
	return nil
}

// Remove deletes a layer. Removing an unknown id reports ErrNotFound and
// changes nothing.
func (l *LayerList) Remove(id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i, layer := range l.layers {
		if layer.ID == id {
			l.layers = append(l.layers[:i], l.layers[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

// Reorder rearranges layers into the given id order. The argument must be a
// permutation of the existing ids; otherwise ErrInvalidOrder is returned and
// the list is left unchanged.
func (l *LayerList) Reorder(ids []string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(ids) != len(l.layers) {
		return ErrInvalidOrder
	}
	byID := make(map[string]*Layer, len(l.layers))
	for _, layer := range l.layers {
		byID[layer.ID] = layer
	}
	reordered := make([]*Layer, 0, len(ids))
	for _, id := range ids {
		layer, ok := byID[id]
		if !ok {
			return ErrInvalidOrder
		}
		delete(byID, id) // catches duplicates
		reordered = append(reordered, layer)
	}
	l.layers = reordered
	return nil
}

// AddFeature appends a feature to a layer's collection, assigning a unique
// feature id when the feature has none.
func (l *LayerList) AddFeature(layerID string, f *geojson.Feature) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	layer := l.find(layerID)
	if layer == nil {
		return ErrNotFound
	}
	normalizeFeatureID(f)
	layer.Features.Append(f)
	return nil
}

// RemoveFeature deletes a feature from a layer by feature id.
func (l *LayerList) RemoveFeature(layerID string, featureID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	layer := l.find(layerID)
	if layer == nil {
		return ErrNotFound
	}
	for i, f := range layer.Features.Features {
		if f.ID == featureID {
			layer.Features.Features = append(layer.Features.Features[:i], layer.Features.Features[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

// Snapshot returns the layers in z-order as value copies for the rendering
// adapter to consume.
func (l *LayerList) Snapshot() []Layer {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Layer, len(l.layers))
	for i, layer := range l.layers {
		out[i] = *layer
	}
	return out
}

// IDs returns the layer ids in z-order.
func (l *LayerList) IDs() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	ids := make([]string, len(l.layers))
	for i, layer := range l.layers {
		ids[i] = layer.ID
	}
	return ids
}

// Len returns the number of layers.
func (l *LayerList) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.layers)
}

func (l *LayerList) find(id string) *Layer {
	for _, layer := range l.layers {
		if layer.ID == id {
			return layer
		}
	}
	return nil
}

// ensureFeatureIDs gives every feature a string id. GeoJSON permits numeric
// ids; those are stringified so id lookups always compare string to string.
func ensureFeatureIDs(fc *geojson.FeatureCollection) {
	for _, f := range fc.Features {
		normalizeFeatureID(f)
	}
}

func normalizeFeatureID(f *geojson.Feature) {
	switch id := f.ID.(type) {
	case nil:
		f.ID = uuid.NewString()
	case string:
		if id == "" {
			f.ID = uuid.NewString()
		}
	default:
		f.ID = fmt.Sprint(id)
	}
}
