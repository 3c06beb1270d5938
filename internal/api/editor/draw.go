package editor

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"
	"github.com/paulmach/orb"

	"github.com/alde1022/spatix/internal/draw"
	"github.com/alde1022/spatix/internal/mapcfg"
	"github.com/alde1022/spatix/internal/templates"
)

// DrawHandler routes drawing tool events into a session's overlay.
type DrawHandler struct {
	Handler
}

func NewDrawHandler(sessions *SessionManager, renderer *templates.Renderer) *DrawHandler {
	return &DrawHandler{Handler: Handler{Sessions: sessions, Renderer: renderer}}
}

func (h *DrawHandler) RegisterRoutes(api huma.API) {
	huma.Post(api, "/api/editor/{mapID}/tool", h.SelectTool, huma.OperationTags("editor"))
	huma.Post(api, "/api/editor/{mapID}/pointer", h.PointerDown, huma.OperationTags("editor"))
	huma.Post(api, "/api/editor/{mapID}/complete", h.Complete, huma.OperationTags("editor"))
	huma.Post(api, "/api/editor/{mapID}/cancel", h.Cancel, huma.OperationTags("editor"))
	huma.Post(api, "/api/editor/{mapID}/select", h.ToggleSelect, huma.OperationTags("editor"))
	huma.Post(api, "/api/editor/{mapID}/basemap", h.SetBasemap, huma.OperationTags("editor"))
	huma.Post(api, "/api/editor/{mapID}/marker", h.AddMarker, huma.OperationTags("editor"))
}

func (h *DrawHandler) SelectTool(ctx context.Context, input *SignalsInput) (*huma.StreamResponse, error) {
	session, err := h.Sessions.Get(input.MapID)
	if err != nil {
		return nil, huma.Error404NotFound(err.Error())
	}
	signals, err := input.MustParse()
	if err != nil {
		return nil, err
	}
	tool, err := draw.ParseTool(signals.String("tool"))
	if err != nil {
		return nil, huma.Error400BadRequest(err.Error())
	}
	return h.Stream(func(sse SSE) {
		if id := signals.String("activelayer"); id != "" {
			session.Overlay.SetActiveLayer(id)
		}
		if err := session.Overlay.SelectTool(tool); err != nil {
			sse.Error(err.Error())
			return
		}
		sse.Signals(map[string]any{
			"tool":    string(session.Overlay.Tool()),
			"pending": session.Overlay.PendingCount(),
		})
	}), nil
}

func (h *DrawHandler) PointerDown(ctx context.Context, input *SignalsInput) (*huma.StreamResponse, error) {
	session, err := h.Sessions.Get(input.MapID)
	if err != nil {
		return nil, huma.Error404NotFound(err.Error())
	}
	signals, err := input.MustParse()
	if err != nil {
		return nil, err
	}
	p := orb.Point{signals.Float("lng"), signals.Float("lat")}
	return h.Stream(func(sse SSE) {
		var committed bool
		err := session.Update(func() error {
			if session.Overlay.Tool() == draw.ToolAddText {
				feat, err := session.Overlay.AddText(p, signals.String("text"))
				if err != nil {
					return err
				}
				committed = feat != nil
				return nil
			}
			feat, err := session.Overlay.PointerDown(p)
			if err != nil {
				return err
			}
			committed = feat != nil
			return nil
		})
		if err != nil {
			h.drawError(sse, err)
			return
		}
		sse.Signals(map[string]any{
			"tool":    string(session.Overlay.Tool()),
			"pending": session.Overlay.PendingCount(),
		})
		if committed {
			sse.DispatchCustomEvent("map-changed", map[string]any{"mapId": session.MapID})
		}
	}), nil
}

func (h *DrawHandler) Complete(ctx context.Context, input *SessionInput) (*huma.StreamResponse, error) {
	session, err := h.Sessions.Get(input.MapID)
	if err != nil {
		return nil, huma.Error404NotFound(err.Error())
	}
	return h.Stream(func(sse SSE) {
		err := session.Update(func() error {
			_, err := session.Overlay.Complete()
			return err
		})
		if err != nil {
			h.drawError(sse, err)
			return
		}
		sse.Signals(map[string]any{"tool": string(session.Overlay.Tool()), "pending": 0})
		sse.DispatchCustomEvent("map-changed", map[string]any{"mapId": session.MapID})
	}), nil
}

func (h *DrawHandler) Cancel(ctx context.Context, input *SessionInput) (*huma.StreamResponse, error) {
	session, err := h.Sessions.Get(input.MapID)
	if err != nil {
		return nil, huma.Error404NotFound(err.Error())
	}
	return h.Stream(func(sse SSE) {
		session.Overlay.Cancel()
		sse.Signals(map[string]any{"pending": 0})
	}), nil
}

func (h *DrawHandler) ToggleSelect(ctx context.Context, input *SignalsInput) (*huma.StreamResponse, error) {
	session, err := h.Sessions.Get(input.MapID)
	if err != nil {
		return nil, huma.Error404NotFound(err.Error())
	}
	signals, err := input.MustParse()
	if err != nil {
		return nil, err
	}
	id := signals.String("featureid")
	if id == "" {
		return nil, huma.Error400BadRequest("Feature ID is required")
	}
	return h.Stream(func(sse SSE) {
		if signals.Bool("deselect") {
			session.Overlay.Deselect(id)
		} else {
			session.Overlay.Select(id)
		}
		sse.Signals(map[string]any{"selection": session.Overlay.Selection()})
	}), nil
}

func (h *DrawHandler) SetBasemap(ctx context.Context, input *SignalsInput) (*huma.StreamResponse, error) {
	session, err := h.Sessions.Get(input.MapID)
	if err != nil {
		return nil, huma.Error404NotFound(err.Error())
	}
	signals, err := input.MustParse()
	if err != nil {
		return nil, err
	}
	basemap, err := mapcfg.ParseBasemap(signals.String("basemap"))
	if err != nil {
		return nil, huma.Error400BadRequest(err.Error())
	}
	return h.Stream(func(sse SSE) {
		err := session.Update(func() error {
			session.Basemap = basemap
			return nil
		})
		if err != nil {
			sse.Error(err.Error())
			return
		}
		sse.Signals(map[string]any{"basemap": string(basemap)})
		sse.DispatchCustomEvent("map-changed", map[string]any{"mapId": session.MapID})
	}), nil
}

func (h *DrawHandler) AddMarker(ctx context.Context, input *SignalsInput) (*huma.StreamResponse, error) {
	session, err := h.Sessions.Get(input.MapID)
	if err != nil {
		return nil, huma.Error404NotFound(err.Error())
	}
	signals, err := input.MustParse()
	if err != nil {
		return nil, err
	}
	marker := mapcfg.Marker{
		Lat:   signals.Float("lat"),
		Lng:   signals.Float("lng"),
		Label: signals.String("label"),
		Color: signals.String("markercolor"),
	}
	return h.Stream(func(sse SSE) {
		err := session.Update(func() error {
			session.Markers = append(session.Markers, marker)
			return nil
		})
		if err != nil {
			sse.Error(err.Error())
			return
		}
		sse.Success("Marker added")
		sse.DispatchCustomEvent("map-changed", map[string]any{"mapId": session.MapID})
	}), nil
}

func (h *DrawHandler) drawError(sse SSE, err error) {
	switch {
	case errors.Is(err, draw.ErrNoActiveLayer):
		sse.Error("Pick a layer to draw into first")
	case errors.Is(err, draw.ErrIncomplete):
		sse.Error("Not enough points to finish this shape")
	default:
		sse.Error(err.Error())
	}
}
