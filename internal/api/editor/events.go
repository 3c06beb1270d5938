package editor

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/alde1022/spatix/internal/service"
	"github.com/alde1022/spatix/internal/templates"
)

// EventHandler streams map change events to the Datastar UI via SSE, so a
// second browser tab editing the same map stays current.
type EventHandler struct {
	Handler
	layers *LayerHandler
}

func NewEventHandler(sessions *SessionManager, renderer *templates.Renderer) *EventHandler {
	return &EventHandler{
		Handler: Handler{Sessions: sessions, Renderer: renderer},
		layers:  NewLayerHandler(sessions, renderer),
	}
}

func (h *EventHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/editor/{mapID}/events", h.Events, huma.OperationTags("editor"))
}

func (h *EventHandler) Events(ctx context.Context, input *SessionInput) (*huma.StreamResponse, error) {
	session, err := h.Sessions.Get(input.MapID)
	if err != nil {
		return nil, huma.Error404NotFound(err.Error())
	}
	return &huma.StreamResponse{
		Body: func(humaCtx huma.Context) {
			sse := NewSSE(humaCtx)
			ch := service.DefaultBus.Subscribe()
			defer service.DefaultBus.Unsubscribe(ch)

			for {
				select {
				case <-ctx.Done():
					return
				case ev := <-ch:
					if ev.Resource != "maps" || ev.ID != session.MapID {
						continue
					}
					sse.Patch(h.layers.renderLayerList(session), "#layer-list")
					sse.DispatchCustomEvent("resource-changed", map[string]any{
						"resource": ev.Resource,
						"action":   ev.Action,
						"id":       ev.ID,
					})
				}
			}
		},
	}, nil
}
