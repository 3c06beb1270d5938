package api

import (
	"context"
	"errors"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/alde1022/spatix/internal/service"
)

// StatsHandler reports view statistics from the DuckDB event log.
type StatsHandler struct {
	maps  *service.MapService
	stats *service.StatsService
}

func NewStatsHandler(maps *service.MapService, stats *service.StatsService) *StatsHandler {
	return &StatsHandler{maps: maps, stats: stats}
}

func (h *StatsHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/map/{id}/stats", h.GetStats, huma.OperationTags("maps"))
}

type MapStatsOutput struct {
	Body struct {
		ID         string `json:"id" doc:"Map ID"`
		Views      int64  `json:"views" doc:"Total views"`
		ViewsDay   int64  `json:"views_24h" doc:"Views in the last 24 hours"`
		ViewsWeek  int64  `json:"views_7d" doc:"Views in the last 7 days"`
		EventsFrom string `json:"events_from,omitempty" doc:"Set when the event log is unavailable"`
	}
}

func (h *StatsHandler) GetStats(ctx context.Context, input *MapIDInput) (*MapStatsOutput, error) {
	rec, err := h.maps.Get(input.ID)
	if err != nil {
		if errors.Is(err, service.ErrMapNotFound) {
			return nil, huma.Error404NotFound("map not found")
		}
		return nil, huma.Error500InternalServerError("failed to load map", err)
	}

	out := &MapStatsOutput{}
	out.Body.ID = rec.ID
	out.Body.Views = rec.Views

	if h.stats == nil {
		out.Body.EventsFrom = "record-only"
		return out, nil
	}

	now := time.Now().UTC()
	if day, err := h.stats.ViewsSince(ctx, rec.ID, now.Add(-24*time.Hour)); err == nil {
		out.Body.ViewsDay = day
	}
	if week, err := h.stats.ViewsSince(ctx, rec.ID, now.Add(-7*24*time.Hour)); err == nil {
		out.Body.ViewsWeek = week
	}
	return out, nil
}
