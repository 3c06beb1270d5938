package api

import (
	"context"
	"errors"
	"fmt"

	"github.com/danielgtaylor/huma/v2"
	json "github.com/goccy/go-json"
	"github.com/paulmach/orb/geojson"

	"github.com/alde1022/spatix/internal/logging"
	"github.com/alde1022/spatix/internal/mapcfg"
	"github.com/alde1022/spatix/internal/normalize"
	"github.com/alde1022/spatix/internal/service"
)

// MapsHandler owns the map CRUD surface.
type MapsHandler struct {
	svc *Services
}

func NewMapsHandler(svc *Services) *MapsHandler {
	return &MapsHandler{svc: svc}
}

func (h *MapsHandler) RegisterRoutes(api huma.API) {
	huma.Post(api, "/api/map", h.CreateMap, huma.OperationTags("maps"))
	huma.Get(api, "/api/map/{id}", h.GetMap, huma.OperationTags("maps"))
	huma.Put(api, "/api/map/{id}", h.UpdateMap, huma.OperationTags("maps"))
	huma.Delete(api, "/api/map/{id}", h.DeleteMap, huma.OperationTags("maps"))
	huma.Get(api, "/api/maps", h.ListMaps, huma.OperationTags("maps"))
}

// LayerInput is one layer in a create or update request.
type LayerInput struct {
	Name    string        `json:"name,omitempty" doc:"Layer display name"`
	Data    any           `json:"data" doc:"GeoJSON object, coordinate array, or WKT string"`
	Style   *mapcfg.Style `json:"style,omitempty" doc:"Explicit style, merged over the automatic one"`
	Visible *bool         `json:"visible,omitempty" doc:"Initial visibility, defaults to true"`
}

// CreateMapBody is the map creation payload. Either data (single layer) or
// layers must be present; geojson is accepted as an alias for data.
type CreateMapBody struct {
	Title       string          `json:"title,omitempty" doc:"Map title"`
	Description string          `json:"description,omitempty" doc:"Map description"`
	Data        any             `json:"data,omitempty" doc:"GeoJSON object, coordinate array, or WKT string"`
	GeoJSON     any             `json:"geojson,omitempty" doc:"Alias for data"`
	Layers      []LayerInput    `json:"layers,omitempty" doc:"Multiple layers, bottom to top"`
	Markers     []mapcfg.Marker `json:"markers,omitempty" doc:"Point markers"`
	Basemap     string          `json:"basemap,omitempty" doc:"light, dark, satellite, or streets" example:"light"`
	Center      *[2]float64     `json:"center,omitempty" doc:"Viewport center as [lng, lat]"`
	Zoom        *float64        `json:"zoom,omitempty" doc:"Viewport zoom, 0 to 22"`
	Bounds      *mapcfg.Bounds  `json:"bounds,omitempty" doc:"Viewport bounds as [[west,south],[east,north]]"`
	AutoStyle   *bool           `json:"auto_style,omitempty" doc:"Derive styling from geometry types, defaults to true"`
	Style       *mapcfg.Style   `json:"style,omitempty" doc:"Style applied to every layer"`
}

type CreateMapInput struct {
	ClientIP string `header:"X-Forwarded-For" doc:"Client key used for rate limiting"`
	Body     CreateMapBody
}

// MapResponse is the map creation result with its share and embed URLs.
type MapResponse struct {
	Success     bool   `json:"success"`
	ID          string `json:"id" doc:"Short map ID"`
	URL         string `json:"url" doc:"Shareable map page URL"`
	EmbedURL    string `json:"embed_url" doc:"Embeddable viewer URL"`
	Embed       string `json:"embed" doc:"Ready-to-paste iframe snippet"`
	PreviewURL  string `json:"preview_url" doc:"Raw configuration URL"`
	DeleteToken string `json:"delete_token,omitempty" doc:"Token required to delete this map"`
}

func (h *MapsHandler) CreateMap(ctx context.Context, input *CreateMapInput) (*struct{ Body MapResponse }, error) {
	key := input.ClientIP
	if key == "" {
		key = "direct"
	}
	if h.svc.Limiter != nil && !h.svc.Limiter.Allow(key) {
		return nil, huma.Error429TooManyRequests("map creation limit reached, try again later")
	}

	cfg, err := buildConfig(input.Body)
	if err != nil {
		return nil, huma.Error400BadRequest(err.Error())
	}

	rec, err := h.svc.Maps.Create(input.Body.Title, input.Body.Description, *cfg)
	if err != nil {
		return nil, huma.Error400BadRequest(err.Error())
	}
	log := logging.Component("api")
	log.Info().Str("map_id", rec.ID).Int("layers", len(rec.Config.Layers)).Msg("map created")

	return &struct{ Body MapResponse }{Body: h.response(rec, true)}, nil
}

type MapIDInput struct {
	ID string `path:"id" doc:"Map ID" example:"aB3xK9qT"`
}

type MapRecordOutput struct {
	Body service.MapRecord
}

func (h *MapsHandler) GetMap(ctx context.Context, input *MapIDInput) (*MapRecordOutput, error) {
	rec, err := h.svc.Maps.IncrementViews(input.ID)
	if err != nil {
		if errors.Is(err, service.ErrMapNotFound) {
			return nil, huma.Error404NotFound("map not found")
		}
		return nil, huma.Error500InternalServerError("failed to load map", err)
	}
	return &MapRecordOutput{Body: rec.Public()}, nil
}

type UpdateMapInput struct {
	MapIDInput
	Body CreateMapBody
}

func (h *MapsHandler) UpdateMap(ctx context.Context, input *UpdateMapInput) (*MapRecordOutput, error) {
	cfg, err := buildConfig(input.Body)
	if err != nil {
		return nil, huma.Error400BadRequest(err.Error())
	}
	rec, err := h.svc.Maps.Update(input.ID, input.Body.Title, input.Body.Description, *cfg)
	if err != nil {
		if errors.Is(err, service.ErrMapNotFound) {
			return nil, huma.Error404NotFound("map not found")
		}
		return nil, huma.Error400BadRequest(err.Error())
	}
	return &MapRecordOutput{Body: rec.Public()}, nil
}

type DeleteMapInput struct {
	MapIDInput
	Token string `header:"X-Delete-Token" doc:"Token returned at creation"`
}

type MessageBody struct {
	Message string `json:"message" doc:"Result message"`
}

func (h *MapsHandler) DeleteMap(ctx context.Context, input *DeleteMapInput) (*struct{ Body MessageBody }, error) {
	err := h.svc.Maps.Delete(input.ID, input.Token)
	switch {
	case errors.Is(err, service.ErrMapNotFound):
		return nil, huma.Error404NotFound("map not found")
	case errors.Is(err, service.ErrBadDeleteToken):
		return nil, huma.Error403Forbidden("invalid delete token")
	case err != nil:
		return nil, huma.Error500InternalServerError("failed to delete map", err)
	}
	return &struct{ Body MessageBody }{Body: MessageBody{Message: "Map deleted"}}, nil
}

type MapListOutput struct {
	Body struct {
		Maps  []service.MapRecord `json:"maps" doc:"All stored maps, newest first"`
		Count int                 `json:"count" doc:"Number of maps"`
	}
}

func (h *MapsHandler) ListMaps(ctx context.Context, input *struct{}) (*MapListOutput, error) {
	out := &MapListOutput{}
	out.Body.Maps = h.svc.Maps.List()
	out.Body.Count = len(out.Body.Maps)
	return out, nil
}

func (h *MapsHandler) response(rec service.MapRecord, includeToken bool) MapResponse {
	base := h.svc.PublicURL
	resp := MapResponse{
		Success:    true,
		ID:         rec.ID,
		URL:        fmt.Sprintf("%s/m/%s", base, rec.ID),
		EmbedURL:   fmt.Sprintf("%s/m/%s?embed=1", base, rec.ID),
		PreviewURL: fmt.Sprintf("%s/api/map/%s", base, rec.ID),
	}
	resp.Embed = fmt.Sprintf(
		`<iframe src="%s" width="100%%" height="400" frameborder="0" style="border:1px solid #e2e8f0;border-radius:8px"></iframe>`,
		resp.EmbedURL,
	)
	if includeToken {
		resp.DeleteToken = rec.DeleteToken
	}
	return resp
}

// buildConfig turns a request body into a validated MapConfiguration.
func buildConfig(body CreateMapBody) (*mapcfg.MapConfiguration, error) {
	layerInputs := body.Layers
	if len(layerInputs) == 0 {
		data := body.Data
		if data == nil {
			data = body.GeoJSON
		}
		if data == nil && len(body.Markers) == 0 {
			return nil, errors.New("either data, geojson, layers, or markers is required")
		}
		if data != nil {
			layerInputs = []LayerInput{{Name: body.Title, Data: data}}
		}
	}

	autoStyle := body.AutoStyle == nil || *body.AutoStyle

	layers := mapcfg.NewLayerList()
	for i, in := range layerInputs {
		fc, err := normalizeAny(in.Data)
		if err != nil {
			return nil, fmt.Errorf("layer %d: %w", i+1, err)
		}

		style := mapcfg.DefaultStyle()
		if autoStyle {
			style = mapcfg.StyleForGeometry(normalize.GeometryTypes(fc))
		}
		if body.Style != nil {
			style = *body.Style
		}
		if in.Style != nil {
			style = *in.Style
		}

		name := in.Name
		if name == "" {
			name = fmt.Sprintf("Layer %d", i+1)
		}
		layer := layers.Add(name, fc, &style)
		if in.Visible != nil && !*in.Visible {
			if err := layers.SetVisible(layer.ID, false); err != nil {
				return nil, err
			}
		}
	}

	basemap, err := mapcfg.ParseBasemap(body.Basemap)
	if err != nil {
		return nil, err
	}
	cfg := &mapcfg.MapConfiguration{
		Basemap: basemap,
		Markers: body.Markers,
		Layers:  layers.Snapshot(),
	}
	cfg.Viewport.Center = body.Center
	cfg.Viewport.Zoom = body.Zoom
	cfg.Viewport.Bounds = body.Bounds

	if !cfg.Viewport.Explicit() && cfg.Viewport.Bounds == nil {
		var all *geojson.FeatureCollection
		for _, l := range cfg.Layers {
			if all == nil {
				all = geojson.NewFeatureCollection()
			}
			all.Features = append(all.Features, l.Features.Features...)
		}
		b := normalize.Bounds(all, cfg.Markers)
		cfg.Viewport.Bounds = &b
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// normalizeAny accepts the decoded JSON value of a data field and routes it
// through the normalizer.
func normalizeAny(data any) (*geojson.FeatureCollection, error) {
	if data == nil {
		return geojson.NewFeatureCollection(), nil
	}
	if s, ok := data.(string); ok {
		fc, _, err := normalize.String(s)
		return fc, err
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("invalid data payload: %w", err)
	}
	fc, _, err := normalize.Data(raw)
	return fc, err
}
