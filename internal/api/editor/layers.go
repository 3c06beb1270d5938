package editor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"

	"github.com/danielgtaylor/huma/v2"
	json "github.com/goccy/go-json"

	"github.com/alde1022/spatix/internal/mapcfg"
	"github.com/alde1022/spatix/internal/render"
	"github.com/alde1022/spatix/internal/templates"
)

// LayerHandler drives the editor's layer panel.
type LayerHandler struct {
	Handler
}

func NewLayerHandler(sessions *SessionManager, renderer *templates.Renderer) *LayerHandler {
	return &LayerHandler{Handler: Handler{Sessions: sessions, Renderer: renderer}}
}

func (h *LayerHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/editor/{mapID}/layers", h.ListLayers, huma.OperationTags("editor"))
	huma.Post(api, "/api/editor/{mapID}/layers/{id}/visibility", h.ToggleVisibility, huma.OperationTags("editor"))
	huma.Post(api, "/api/editor/{mapID}/layers/{id}/rename", h.RenameLayer, huma.OperationTags("editor"))
	huma.Post(api, "/api/editor/{mapID}/layers/{id}/style", h.StyleLayer, huma.OperationTags("editor"))
	huma.Delete(api, "/api/editor/{mapID}/layers/{id}", h.RemoveLayer, huma.OperationTags("editor"))
	huma.Post(api, "/api/editor/{mapID}/layers/reorder", h.ReorderLayers, huma.OperationTags("editor"))
	huma.Post(api, "/api/editor/{mapID}/publish", h.Publish, huma.OperationTags("editor"))
	huma.Get(api, "/api/editor/{mapID}/style", h.GetStyle, huma.OperationTags("editor"))
}

type SessionStyleOutput struct {
	Body *render.StyleDocument
}

// GetStyle serves the session's live style document, the editor map's
// source of truth between patches.
func (h *LayerHandler) GetStyle(ctx context.Context, input *SessionInput) (*SessionStyleOutput, error) {
	session, err := h.Sessions.Get(input.MapID)
	if err != nil {
		return nil, huma.Error404NotFound(err.Error())
	}
	return &SessionStyleOutput{Body: session.Doc}, nil
}

type SessionInput struct {
	MapID string `path:"mapID" doc:"Editor session map ID"`
}

type SessionLayerInput struct {
	SessionInput
	ID string `path:"id" doc:"Layer ID"`
}

func (h *LayerHandler) ListLayers(ctx context.Context, input *SessionInput) (*huma.StreamResponse, error) {
	session, err := h.Sessions.Get(input.MapID)
	if err != nil {
		return nil, huma.Error404NotFound(err.Error())
	}
	return h.Stream(func(sse SSE) {
		sse.Patch(h.renderLayerList(session), "#layer-list")
	}), nil
}

func (h *LayerHandler) ToggleVisibility(ctx context.Context, input *SessionLayerInput) (*huma.StreamResponse, error) {
	session, err := h.Sessions.Get(input.MapID)
	if err != nil {
		return nil, huma.Error404NotFound(err.Error())
	}
	return h.Stream(func(sse SSE) {
		err := session.Update(func() error {
			layer, ok := session.Layers.Get(input.ID)
			if !ok {
				return mapcfg.ErrNotFound
			}
			return session.Layers.SetVisible(layer.ID, !layer.Visible)
		})
		if err != nil {
			sse.Error(err.Error())
			return
		}
		sse.Patch(h.renderLayerList(session), "#layer-list")
		sse.DispatchCustomEvent("map-changed", map[string]any{"mapId": session.MapID})
	}), nil
}

func (h *LayerHandler) RenameLayer(ctx context.Context, input *struct {
	SessionLayerInput
	RawBody []byte
}) (*huma.StreamResponse, error) {
	session, err := h.Sessions.Get(input.MapID)
	if err != nil {
		return nil, huma.Error404NotFound(err.Error())
	}
	signals, err := ParseSignals(input.RawBody)
	if err != nil {
		return nil, huma.Error400BadRequest("Invalid request data: " + err.Error())
	}
	name := signals.String("layername")
	if name == "" {
		return nil, huma.Error400BadRequest("Layer name is required")
	}
	return h.Stream(func(sse SSE) {
		if err := session.Update(func() error { return session.Layers.Rename(input.ID, name) }); err != nil {
			sse.Error(err.Error())
			return
		}
		sse.Patch(h.renderLayerList(session), "#layer-list")
		sse.Success(fmt.Sprintf("Layer renamed to %q", name))
	}), nil
}

func (h *LayerHandler) StyleLayer(ctx context.Context, input *struct {
	SessionLayerInput
	RawBody []byte
}) (*huma.StreamResponse, error) {
	session, err := h.Sessions.Get(input.MapID)
	if err != nil {
		return nil, huma.Error404NotFound(err.Error())
	}
	signals, err := ParseSignals(input.RawBody)
	if err != nil {
		return nil, huma.Error400BadRequest("Invalid request data: " + err.Error())
	}
	style := styleFromSignals(signals)
	return h.Stream(func(sse SSE) {
		if err := session.Update(func() error { return session.Layers.SetStyle(input.ID, style) }); err != nil {
			sse.Error(err.Error())
			return
		}
		sse.Patch(h.renderLayerList(session), "#layer-list")
		sse.DispatchCustomEvent("map-changed", map[string]any{"mapId": session.MapID})
	}), nil
}

func (h *LayerHandler) RemoveLayer(ctx context.Context, input *SessionLayerInput) (*huma.StreamResponse, error) {
	session, err := h.Sessions.Get(input.MapID)
	if err != nil {
		return nil, huma.Error404NotFound(err.Error())
	}
	return h.Stream(func(sse SSE) {
		err := session.Update(func() error { return session.Layers.Remove(input.ID) })
		if err != nil {
			sse.Error(err.Error())
			return
		}
		sse.RemoveElementByID("layer-" + input.ID)
		sse.Success("Layer removed")
		sse.DispatchCustomEvent("map-changed", map[string]any{"mapId": session.MapID})
	}), nil
}

func (h *LayerHandler) ReorderLayers(ctx context.Context, input *SignalsInput) (*huma.StreamResponse, error) {
	session, err := h.Sessions.Get(input.MapID)
	if err != nil {
		return nil, huma.Error404NotFound(err.Error())
	}
	signals, err := input.MustParse()
	if err != nil {
		return nil, err
	}
	order := signals.Strings("layerorder")
	if len(order) == 0 {
		return nil, huma.Error400BadRequest("Layer order is required")
	}
	return h.Stream(func(sse SSE) {
		err := session.Update(func() error { return session.Layers.Reorder(order) })
		if errors.Is(err, mapcfg.ErrInvalidOrder) {
			sse.Error("Layer order must name every layer exactly once")
			return
		}
		if err != nil {
			sse.Error(err.Error())
			return
		}
		sse.Patch(h.renderLayerList(session), "#layer-list")
		sse.DispatchCustomEvent("map-changed", map[string]any{"mapId": session.MapID})
	}), nil
}

func (h *LayerHandler) Publish(ctx context.Context, input *SignalsInput) (*huma.StreamResponse, error) {
	session, err := h.Sessions.Get(input.MapID)
	if err != nil {
		return nil, huma.Error404NotFound(err.Error())
	}
	if signals, err := ParseSignals(input.RawBody); err == nil {
		if title := signals.String("maptitle"); title != "" {
			session.mu.Lock()
			session.Title = title
			session.mu.Unlock()
		}
	}
	return h.Stream(func(sse SSE) {
		rec, err := h.Sessions.Publish(session)
		if err != nil {
			sse.Error(err.Error())
			return
		}
		sse.Signals(map[string]any{
			"success": "Map published",
			"mapid":   rec.ID,
			"mapurl":  "/m/" + rec.ID,
		})
		sse.DispatchCustomEvent("map-published", map[string]any{"id": rec.ID})
	}), nil
}

// LayerCardData feeds the layer-card fragment template.
type LayerCardData struct {
	ID        string
	Name      string
	Visible   bool
	Features  int
	StyleJSON template.JS
}

func (h *LayerHandler) renderLayerList(session *Session) string {
	var buf bytes.Buffer
	layers := session.Layers.Snapshot()
	if len(layers) == 0 {
		h.Renderer.RenderToBuffer(&buf, "empty-state", map[string]string{
			"Title": "No layers yet", "Message": "Upload a file or draw to add one",
		})
		return buf.String()
	}
	// render top-most first, matching paint order top to bottom
	for i := len(layers) - 1; i >= 0; i-- {
		layer := layers[i]
		styleJSON, _ := json.Marshal(layer.Style)
		features := 0
		if layer.Features != nil {
			features = len(layer.Features.Features)
		}
		h.Renderer.RenderToBuffer(&buf, "layer-card", LayerCardData{
			ID: layer.ID, Name: layer.Name, Visible: layer.Visible,
			Features: features, StyleJSON: template.JS(styleJSON),
		})
	}
	return buf.String()
}

// styleFromSignals assembles a style from the panel's bound signals,
// falling back to defaults for anything unset.
func styleFromSignals(signals Signals) mapcfg.Style {
	style := mapcfg.DefaultStyle()
	if signals.Has("fillcolor") || signals.Has("fillopacity") {
		color := signals.String("fillcolor")
		if color == "" {
			color = style.FillColor
		}
		opacity := style.FillOpacity
		if signals.Has("fillopacity") {
			opacity = signals.Float("fillopacity")
		}
		style = style.WithFill(color, opacity)
	}
	if signals.Has("strokecolor") || signals.Has("strokewidth") || signals.Has("strokeopacity") {
		color := signals.String("strokecolor")
		if color == "" {
			color = style.StrokeColor
		}
		width := style.StrokeWidth
		if signals.Has("strokewidth") {
			width = signals.Float("strokewidth")
		}
		opacity := style.StrokeOpacity
		if signals.Has("strokeopacity") {
			opacity = signals.Float("strokeopacity")
		}
		style = style.WithStroke(color, width, opacity)
	}
	if signals.Has("pointradius") {
		style = style.WithPointRadius(signals.Float("pointradius"))
	}
	if c := signals.String("markercolor"); c != "" {
		style = style.WithMarkerColor(c)
	}
	return style
}
