package api

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
	json "github.com/goccy/go-json"
	"github.com/paulmach/orb/geojson"

	"github.com/alde1022/spatix/internal/mapcfg"
	"github.com/alde1022/spatix/internal/normalize"
)

// NormalizeHandler exposes the input normalizer as a dry-run endpoint, so
// clients can inspect what a data payload turns into before creating a map.
type NormalizeHandler struct{}

func NewNormalizeHandler() *NormalizeHandler {
	return &NormalizeHandler{}
}

func (h *NormalizeHandler) RegisterRoutes(api huma.API) {
	huma.Post(api, "/api/normalize", h.Normalize, huma.OperationTags("intake"))
}

type NormalizeInput struct {
	Body struct {
		Data any `json:"data" required:"true" doc:"GeoJSON object, coordinate array, or WKT string"`
	}
}

type NormalizeOutput struct {
	Body struct {
		Format        string                     `json:"format" doc:"Detected input format" enum:"geojson,coordinates,wkt"`
		FeatureCount  int                        `json:"feature_count" doc:"Number of features after normalization"`
		GeometryTypes []string                   `json:"geometry_types" doc:"Geometry types present"`
		Properties    []string                   `json:"properties" doc:"Property names present"`
		Bounds        mapcfg.Bounds              `json:"bounds" doc:"Covering bounds as [[west,south],[east,north]]"`
		Style         mapcfg.Style               `json:"style" doc:"Style the automatic styler would pick"`
		GeoJSON       *geojson.FeatureCollection `json:"geojson" doc:"Canonical FeatureCollection"`
	}
}

func (h *NormalizeHandler) Normalize(ctx context.Context, input *NormalizeInput) (*NormalizeOutput, error) {
	var (
		fc     *geojson.FeatureCollection
		format normalize.Format
		err    error
	)
	if s, ok := input.Body.Data.(string); ok {
		fc, format, err = normalize.String(s)
	} else {
		var raw []byte
		raw, err = json.Marshal(input.Body.Data)
		if err == nil {
			fc, format, err = normalize.Data(raw)
		}
	}
	if err != nil {
		return nil, huma.Error400BadRequest(err.Error())
	}

	types := normalize.GeometryTypes(fc)
	out := &NormalizeOutput{}
	out.Body.Format = string(format)
	out.Body.FeatureCount = len(fc.Features)
	out.Body.GeometryTypes = types
	out.Body.Properties = normalize.Properties(fc)
	out.Body.Bounds = normalize.Bounds(fc, nil)
	out.Body.Style = mapcfg.StyleForGeometry(types)
	out.Body.GeoJSON = fc
	return out, nil
}
