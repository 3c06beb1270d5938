// Package api defines the Huma API routes and handlers.
package api

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/alde1022/spatix/internal/intake"
	"github.com/alde1022/spatix/internal/service"
)

// Services holds the service dependencies for API handlers.
type Services struct {
	Maps      *service.MapService
	Stats     *service.StatsService
	Limiter   *service.RateLimiter
	Intake    *intake.Intake
	PublicURL string
}

// RegisterRoutes wires every REST handler onto the Huma API.
func RegisterRoutes(humaAPI huma.API, svc *Services) {
	NewMapsHandler(svc).RegisterRoutes(humaAPI)
	NewAnalyzeHandler(svc).RegisterRoutes(humaAPI)
	NewNormalizeHandler().RegisterRoutes(humaAPI)
	NewIconsHandler().RegisterRoutes(humaAPI)
	NewRenderHandler(svc.Maps).RegisterRoutes(humaAPI)
	NewStatsHandler(svc.Maps, svc.Stats).RegisterRoutes(humaAPI)

	huma.Get(humaAPI, "/health", getHealth, huma.OperationTags("health"))
}

type HealthBody struct {
	Status  string `json:"status" doc:"Health status" example:"ok"`
	Version string `json:"version" doc:"API version" example:"1.0.0"`
}

func getHealth(ctx context.Context, input *struct{}) (*struct{ Body HealthBody }, error) {
	return &struct{ Body HealthBody }{Body: HealthBody{Status: "ok", Version: "1.0.0"}}, nil
}
