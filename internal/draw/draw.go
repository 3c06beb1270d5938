// Package draw implements the interactive drawing/editing overlay: a
// tool-mode state machine that accumulates pending geometry from pointer
// events and commits finished features into the active layer.
package draw

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/alde1022/spatix/internal/mapcfg"
)

// Tool is the current editing mode.
type Tool string

const (
	ToolSelect        Tool = "select"
	ToolDrawPoint     Tool = "drawPoint"
	ToolDrawLine      Tool = "drawLine"
	ToolDrawPolygon   Tool = "drawPolygon"
	ToolDrawRectangle Tool = "drawRectangle"
	ToolAddText       Tool = "addText"
)

var tools = map[Tool]bool{
	ToolSelect: true, ToolDrawPoint: true, ToolDrawLine: true,
	ToolDrawPolygon: true, ToolDrawRectangle: true, ToolAddText: true,
}

// ParseTool validates a tool name.
func ParseTool(s string) (Tool, error) {
	t := Tool(s)
	if !tools[t] {
		return "", fmt.Errorf("unknown tool %q", s)
	}
	return t, nil
}

// ErrNoActiveLayer is returned when a commit has nowhere to go.
var ErrNoActiveLayer = errors.New("no active layer")

// ErrIncomplete is returned when Complete is called before the pending
// geometry has enough vertices.
var ErrIncomplete = errors.New("pending geometry incomplete")

// Overlay is the drawing state machine. It owns the transient tool state
// and mutates the layer model only on commit. Mutations are serialized by
// the caller (UI event loop); the mutex asserts that, nothing more.
type Overlay struct {
	mu          sync.Mutex
	layers      *mapcfg.LayerList
	tool        Tool
	activeLayer string
	pending     []orb.Point
	selection   map[string]struct{}
}

// NewOverlay creates an overlay in select mode over the given layer model.
func NewOverlay(layers *mapcfg.LayerList) *Overlay {
	return &Overlay{
		layers:    layers,
		tool:      ToolSelect,
		selection: make(map[string]struct{}),
	}
}

// Tool returns the current tool.
func (o *Overlay) Tool() Tool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.tool
}

// SelectTool switches tool mode. Re-selecting the current tool is a no-op;
// switching to a different tool discards any in-progress geometry without
// committing it.
func (o *Overlay) SelectTool(t Tool) error {
	if !tools[t] {
		return fmt.Errorf("unknown tool %q", t)
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if t == o.tool {
		return nil
	}
	o.pending = nil
	o.tool = t
	return nil
}

// SetActiveLayer points new features at the given layer.
func (o *Overlay) SetActiveLayer(id string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.activeLayer = id
}

// ActiveLayer returns the id of the layer receiving new features.
func (o *Overlay) ActiveLayer() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.activeLayer
}

// PendingCount returns how many vertices the pending geometry has.
func (o *Overlay) PendingCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.pending)
}

// PointerDown feeds one pointer interaction to the current tool. In point
// mode it commits immediately; in rectangle mode the second corner
// completes; line and polygon modes accumulate vertices until Complete.
// The committed feature, if any, is returned.
func (o *Overlay) PointerDown(p orb.Point) (*geojson.Feature, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch o.tool {
	case ToolSelect:
		return nil, nil
	case ToolDrawPoint:
		return o.commit(geojson.NewFeature(p))
	case ToolDrawRectangle:
		if len(o.pending) == 0 {
			o.pending = []orb.Point{p}
			return nil, nil
		}
		anchor := o.pending[0]
		o.pending = nil
		return o.commit(geojson.NewFeature(rectangle(anchor, p)))
	case ToolDrawLine, ToolDrawPolygon:
		o.pending = append(o.pending, p)
		return nil, nil
	case ToolAddText:
		// Text placement without content; AddText carries the label.
		return o.commitText(p, "")
	}
	return nil, fmt.Errorf("unknown tool %q", o.tool)
}

// AddText places a text annotation in one step.
func (o *Overlay) AddText(p orb.Point, text string) (*geojson.Feature, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.tool != ToolAddText {
		return nil, fmt.Errorf("tool %q cannot add text", o.tool)
	}
	return o.commitText(p, text)
}

// Complete finishes the pending line or polygon and commits it. A line
// needs at least 2 vertices, a polygon at least 3 (the closing vertex is
// added automatically). On success the tool returns to select.
func (o *Overlay) Complete() (*geojson.Feature, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch o.tool {
	case ToolDrawLine:
		if len(o.pending) < 2 {
			return nil, ErrIncomplete
		}
		line := make(orb.LineString, len(o.pending))
		copy(line, o.pending)
		o.pending = nil
		return o.commit(geojson.NewFeature(line))
	case ToolDrawPolygon:
		if len(o.pending) < 3 {
			return nil, ErrIncomplete
		}
		ring := make(orb.Ring, 0, len(o.pending)+1)
		ring = append(ring, o.pending...)
		if ring[0] != ring[len(ring)-1] {
			ring = append(ring, ring[0])
		}
		o.pending = nil
		return o.commit(geojson.NewFeature(orb.Polygon{ring}))
	}
	return nil, ErrIncomplete
}

// Cancel discards the pending feature without mutating the layer.
func (o *Overlay) Cancel() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.pending = nil
}

// Select adds a feature id to the selection set (select mode only).
func (o *Overlay) Select(featureID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.tool != ToolSelect {
		return
	}
	o.selection[featureID] = struct{}{}
}

// Deselect removes a feature id from the selection set.
func (o *Overlay) Deselect(featureID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.selection, featureID)
}

// ClearSelection empties the selection set.
func (o *Overlay) ClearSelection() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.selection = make(map[string]struct{})
}

// Selection returns the selected feature ids, sorted for determinism; the
// set itself is unordered.
func (o *Overlay) Selection() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	ids := make([]string, 0, len(o.selection))
	for id := range o.selection {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// commit writes a finished feature into the active layer and returns the
// tool to select. Caller holds the lock.
func (o *Overlay) commit(f *geojson.Feature) (*geojson.Feature, error) {
	if o.activeLayer == "" {
		return nil, ErrNoActiveLayer
	}
	f.Properties["drawn"] = string(o.tool)
	if err := o.layers.AddFeature(o.activeLayer, f); err != nil {
		return nil, err
	}
	o.tool = ToolSelect
	return f, nil
}

func (o *Overlay) commitText(p orb.Point, text string) (*geojson.Feature, error) {
	f := geojson.NewFeature(p)
	if text != "" {
		f.Properties["text"] = text
	}
	return o.commit(f)
}

func rectangle(a, b orb.Point) orb.Polygon {
	minX, maxX := a[0], b[0]
	if minX > maxX {
		minX, maxX = maxX, minX
	}
	minY, maxY := a[1], b[1]
	if minY > maxY {
		minY, maxY = maxY, minY
	}
	return orb.Polygon{orb.Ring{
		{minX, minY}, {maxX, minY}, {maxX, maxY}, {minX, maxY}, {minX, minY},
	}}
}
