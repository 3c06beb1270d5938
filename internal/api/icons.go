package api

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/alde1022/spatix/internal/icons"
)

// IconsHandler serves the marker icon catalog.
type IconsHandler struct{}

func NewIconsHandler() *IconsHandler {
	return &IconsHandler{}
}

func (h *IconsHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/icons", h.ListIcons, huma.OperationTags("icons"))
}

type ListIconsInput struct {
	Query string `query:"q" doc:"Case-insensitive name filter; empty returns the full catalog"`
}

type ListIconsOutput struct {
	Body struct {
		Glyphs     []icons.Glyph    `json:"glyphs" doc:"Matching glyphs in catalog order"`
		Categories []icons.Category `json:"categories" doc:"Full catalog grouped by category"`
		Count      int              `json:"count" doc:"Number of matching glyphs"`
	}
}

func (h *IconsHandler) ListIcons(ctx context.Context, input *ListIconsInput) (*ListIconsOutput, error) {
	glyphs := icons.FilterCatalog(input.Query)
	out := &ListIconsOutput{}
	out.Body.Glyphs = glyphs
	out.Body.Categories = icons.Categories()
	out.Body.Count = len(glyphs)
	return out, nil
}
