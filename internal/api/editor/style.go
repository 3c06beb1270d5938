package editor

import (
	"bytes"
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/alde1022/spatix/internal/icons"
	"github.com/alde1022/spatix/internal/mapcfg"
	"github.com/alde1022/spatix/internal/templates"
)

// StyleHandler drives the icon and style picker panel.
type StyleHandler struct {
	Handler
}

func NewStyleHandler(sessions *SessionManager, renderer *templates.Renderer) *StyleHandler {
	return &StyleHandler{Handler: Handler{Sessions: sessions, Renderer: renderer}}
}

func (h *StyleHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/editor/{mapID}/icons", h.FilterIcons, huma.OperationTags("editor"))
	huma.Post(api, "/api/editor/{mapID}/icons/apply", h.ApplyIcon, huma.OperationTags("editor"))
}

type FilterIconsInput struct {
	SessionInput
	Query string `query:"q" doc:"Case-insensitive icon name filter"`
}

func (h *StyleHandler) FilterIcons(ctx context.Context, input *FilterIconsInput) (*huma.StreamResponse, error) {
	if _, err := h.Sessions.Get(input.MapID); err != nil {
		return nil, huma.Error404NotFound(err.Error())
	}
	return h.Stream(func(sse SSE) {
		sse.Patch(h.renderIconGrid(input.Query), "#icon-grid")
	}), nil
}

func (h *StyleHandler) ApplyIcon(ctx context.Context, input *SignalsInput) (*huma.StreamResponse, error) {
	session, err := h.Sessions.Get(input.MapID)
	if err != nil {
		return nil, huma.Error404NotFound(err.Error())
	}
	signals, err := input.MustParse()
	if err != nil {
		return nil, err
	}
	glyph := signals.String("icon")
	if !icons.Exists(glyph) {
		return nil, huma.Error400BadRequest("Unknown icon")
	}
	layerID := signals.String("activelayer")
	if layerID == "" {
		return nil, huma.Error400BadRequest("Pick a layer first")
	}
	selection := icons.Selection{Glyph: glyph, Color: signals.String("markercolor")}

	return h.Stream(func(sse SSE) {
		err := session.Update(func() error {
			layer, ok := session.Layers.Get(layerID)
			if !ok {
				return mapcfg.ErrNotFound
			}
			return session.Layers.SetStyle(layerID, selection.Apply(layer.Style))
		})
		if err != nil {
			sse.Error(err.Error())
			return
		}
		sse.Signals(map[string]any{"icon": glyph})
		sse.DispatchCustomEvent("map-changed", map[string]any{"mapId": session.MapID})
	}), nil
}

// IconCardData feeds the icon-card fragment template.
type IconCardData struct {
	Name     string
	Category string
}

func (h *StyleHandler) renderIconGrid(query string) string {
	var buf bytes.Buffer
	glyphs := icons.FilterCatalog(query)
	if len(glyphs) == 0 {
		h.Renderer.RenderToBuffer(&buf, "empty-state", map[string]string{
			"Title": "No icons match", "Message": "Try a different search",
		})
		return buf.String()
	}
	for _, g := range glyphs {
		h.Renderer.RenderToBuffer(&buf, "icon-card", IconCardData{
			Name: g.Name, Category: g.Category,
		})
	}
	return buf.String()
}
