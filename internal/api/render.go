package api

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"

	"github.com/alde1022/spatix/internal/render"
	"github.com/alde1022/spatix/internal/service"
)

// RenderHandler materializes a stored map into a ready-to-load style
// document. The viewer page fetches this instead of rebuilding the map
// client side.
type RenderHandler struct {
	maps *service.MapService
}

func NewRenderHandler(maps *service.MapService) *RenderHandler {
	return &RenderHandler{maps: maps}
}

func (h *RenderHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/map/{id}/style", h.GetStyle, huma.OperationTags("maps"))
}

type StyleOutput struct {
	Body *render.StyleDocument
}

func (h *RenderHandler) GetStyle(ctx context.Context, input *MapIDInput) (*StyleOutput, error) {
	rec, err := h.maps.Get(input.ID)
	if err != nil {
		if errors.Is(err, service.ErrMapNotFound) {
			return nil, huma.Error404NotFound("map not found")
		}
		return nil, huma.Error500InternalServerError("failed to load map", err)
	}

	// The document is per-request; detaching would clear it before the
	// response is written.
	doc := render.NewStyleDocument(rec.Title)
	handle := render.Attach(doc, render.ViewerMode())
	if err := handle.Apply(rec.Config); err != nil {
		return nil, huma.Error500InternalServerError("failed to render map", err)
	}

	return &StyleOutput{Body: doc}, nil
}
