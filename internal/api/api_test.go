package api

import (
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alde1022/spatix/internal/service"
)

func newTestAPI(t *testing.T, limit int) humatest.TestAPI {
	t.Helper()
	_, api := humatest.New(t)
	svc := &Services{
		Maps:      service.NewMapService(t.TempDir(), nil),
		Limiter:   service.NewRateLimiter(limit, time.Hour),
		PublicURL: "http://localhost:8087",
	}
	RegisterRoutes(api, svc)
	return api
}

func decode(t *testing.T, data []byte, into any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(data, into))
}

var sfPoint = map[string]any{
	"type": "FeatureCollection",
	"features": []any{
		map[string]any{
			"type":       "Feature",
			"geometry":   map[string]any{"type": "Point", "coordinates": []any{-122.4, 37.7}},
			"properties": map[string]any{"name": "SF"},
		},
	},
}

func TestHealthEndpoint(t *testing.T) {
	api := newTestAPI(t, 60)
	resp := api.Get("/health")
	require.Equal(t, 200, resp.Code)

	var body HealthBody
	decode(t, resp.Body.Bytes(), &body)
	assert.Equal(t, "ok", body.Status)
}

func TestCreateAndGetMap(t *testing.T) {
	api := newTestAPI(t, 60)

	resp := api.Post("/api/map", map[string]any{
		"title":       "San Francisco",
		"description": "Landmarks around the bay",
		"data":        sfPoint,
	})
	require.Equal(t, 200, resp.Code, resp.Body.String())

	var created MapResponse
	decode(t, resp.Body.Bytes(), &created)
	assert.True(t, created.Success)
	assert.Len(t, created.ID, 8)
	assert.Equal(t, "http://localhost:8087/m/"+created.ID, created.URL)
	assert.Contains(t, created.EmbedURL, "?embed=1")
	assert.Contains(t, created.Embed, "<iframe")
	assert.NotEmpty(t, created.DeleteToken)

	resp = api.Get("/api/map/" + created.ID)
	require.Equal(t, 200, resp.Code)

	var rec service.MapRecord
	decode(t, resp.Body.Bytes(), &rec)
	assert.Equal(t, "San Francisco", rec.Title)
	assert.Equal(t, "Landmarks around the bay", rec.Description)
	assert.Empty(t, rec.DeleteToken)
	assert.Equal(t, int64(1), rec.Views, "a fetch counts as a view")
	require.Len(t, rec.Config.Layers, 1)
	// Point data picks up the point preset automatically.
	assert.Equal(t, float64(8), rec.Config.Layers[0].Style.PointRadius)
	// No explicit viewport: bounds are fitted to the data.
	require.NotNil(t, rec.Config.Viewport.Bounds)
}

func TestCreateMapWithWKTString(t *testing.T) {
	api := newTestAPI(t, 60)

	resp := api.Post("/api/map", map[string]any{
		"data":    "POINT(30 10)",
		"basemap": "dark",
	})
	require.Equal(t, 200, resp.Code, resp.Body.String())
}

func TestCreateMapRequiresData(t *testing.T) {
	api := newTestAPI(t, 60)
	resp := api.Post("/api/map", map[string]any{"title": "Empty"})
	assert.Equal(t, 400, resp.Code)
}

func TestCreateMapRejectsBadBasemap(t *testing.T) {
	api := newTestAPI(t, 60)
	resp := api.Post("/api/map", map[string]any{
		"data":    sfPoint,
		"basemap": "sepia",
	})
	assert.Equal(t, 400, resp.Code)
}

func TestCreateMapMarkersOnly(t *testing.T) {
	api := newTestAPI(t, 60)
	resp := api.Post("/api/map", map[string]any{
		"markers": []any{
			map[string]any{"lat": 37.7, "lng": -122.4, "label": "HQ"},
		},
	})
	require.Equal(t, 200, resp.Code, resp.Body.String())
}

func TestGetMapNotFound(t *testing.T) {
	api := newTestAPI(t, 60)
	resp := api.Get("/api/map/nope1234")
	assert.Equal(t, 404, resp.Code)
}

func TestDeleteMap(t *testing.T) {
	api := newTestAPI(t, 60)

	resp := api.Post("/api/map", map[string]any{"data": sfPoint})
	require.Equal(t, 200, resp.Code)
	var created MapResponse
	decode(t, resp.Body.Bytes(), &created)

	resp = api.Delete("/api/map/"+created.ID, "X-Delete-Token: wrong")
	assert.Equal(t, 403, resp.Code)

	resp = api.Delete("/api/map/"+created.ID, "X-Delete-Token: "+created.DeleteToken)
	require.Equal(t, 200, resp.Code)

	resp = api.Get("/api/map/" + created.ID)
	assert.Equal(t, 404, resp.Code)
}

func TestUpdateMap(t *testing.T) {
	api := newTestAPI(t, 60)

	resp := api.Post("/api/map", map[string]any{"title": "Before", "data": sfPoint})
	require.Equal(t, 200, resp.Code)
	var created MapResponse
	decode(t, resp.Body.Bytes(), &created)

	resp = api.Put("/api/map/"+created.ID, map[string]any{
		"title":   "After",
		"data":    sfPoint,
		"basemap": "satellite",
	})
	require.Equal(t, 200, resp.Code, resp.Body.String())

	var rec service.MapRecord
	decode(t, resp.Body.Bytes(), &rec)
	assert.Equal(t, "After", rec.Title)
	assert.Equal(t, "satellite", string(rec.Config.Basemap))
}

func TestListMaps(t *testing.T) {
	api := newTestAPI(t, 60)

	for _, title := range []string{"One", "Two"} {
		resp := api.Post("/api/map", map[string]any{"title": title, "data": sfPoint})
		require.Equal(t, 200, resp.Code)
	}

	resp := api.Get("/api/maps")
	require.Equal(t, 200, resp.Code)

	var body struct {
		Maps  []service.MapRecord `json:"maps"`
		Count int                 `json:"count"`
	}
	decode(t, resp.Body.Bytes(), &body)
	assert.Equal(t, 2, body.Count)
	for _, rec := range body.Maps {
		assert.Empty(t, rec.DeleteToken)
	}
}

func TestCreateMapRateLimited(t *testing.T) {
	api := newTestAPI(t, 2)

	for i := 0; i < 2; i++ {
		resp := api.Post("/api/map", map[string]any{"data": sfPoint},
			"X-Forwarded-For: 9.9.9.9")
		require.Equal(t, 200, resp.Code)
	}
	resp := api.Post("/api/map", map[string]any{"data": sfPoint},
		"X-Forwarded-For: 9.9.9.9")
	assert.Equal(t, 429, resp.Code)

	// A different client is still allowed.
	resp = api.Post("/api/map", map[string]any{"data": sfPoint},
		"X-Forwarded-For: 8.8.8.8")
	assert.Equal(t, 200, resp.Code)
}

func TestMapStyleEndpoint(t *testing.T) {
	api := newTestAPI(t, 60)

	resp := api.Post("/api/map", map[string]any{"title": "Styled", "data": sfPoint})
	require.Equal(t, 200, resp.Code)
	var created MapResponse
	decode(t, resp.Body.Bytes(), &created)

	resp = api.Get("/api/map/" + created.ID + "/style")
	require.Equal(t, 200, resp.Code)

	var style map[string]any
	decode(t, resp.Body.Bytes(), &style)
	assert.Equal(t, float64(8), style["version"])
	assert.Equal(t, "Styled", style["name"])
	assert.NotEmpty(t, style["sources"])
	assert.NotEmpty(t, style["layers"])
}

func TestMapStatsWithoutEventLog(t *testing.T) {
	api := newTestAPI(t, 60)

	resp := api.Post("/api/map", map[string]any{"data": sfPoint})
	require.Equal(t, 200, resp.Code)
	var created MapResponse
	decode(t, resp.Body.Bytes(), &created)

	// Two views, then ask for stats.
	api.Get("/api/map/" + created.ID)
	api.Get("/api/map/" + created.ID)

	resp = api.Get("/api/map/" + created.ID + "/stats")
	require.Equal(t, 200, resp.Code)

	var body struct {
		ID         string `json:"id"`
		Views      int64  `json:"views"`
		EventsFrom string `json:"events_from"`
	}
	decode(t, resp.Body.Bytes(), &body)
	assert.Equal(t, created.ID, body.ID)
	assert.Equal(t, int64(2), body.Views)
	assert.Equal(t, "record-only", body.EventsFrom)
}

func TestNormalizeEndpoint(t *testing.T) {
	api := newTestAPI(t, 60)

	resp := api.Post("/api/normalize", map[string]any{
		"data": []any{[]any{0.0, 0.0}, []any{4.0, 0.0}, []any{4.0, 4.0}, []any{0.0, 0.0}},
	})
	require.Equal(t, 200, resp.Code, resp.Body.String())

	var body struct {
		Format        string   `json:"format"`
		FeatureCount  int      `json:"feature_count"`
		GeometryTypes []string `json:"geometry_types"`
	}
	decode(t, resp.Body.Bytes(), &body)
	assert.Equal(t, "coordinates", body.Format)
	assert.Equal(t, 1, body.FeatureCount)
	assert.Equal(t, []string{"Polygon"}, body.GeometryTypes)
}

func TestNormalizeEndpointRejectsProse(t *testing.T) {
	api := newTestAPI(t, 60)
	resp := api.Post("/api/normalize", map[string]any{"data": "hello world"})
	assert.Equal(t, 400, resp.Code)
}

func TestIconsEndpoint(t *testing.T) {
	api := newTestAPI(t, 60)

	resp := api.Get("/api/icons?q=pin")
	require.Equal(t, 200, resp.Code)

	var body struct {
		Glyphs []struct {
			Name     string `json:"name"`
			Category string `json:"category"`
		} `json:"glyphs"`
		Count int `json:"count"`
	}
	decode(t, resp.Body.Bytes(), &body)
	assert.Equal(t, 2, body.Count)
	require.NotEmpty(t, body.Glyphs)
	assert.Equal(t, "pin", body.Glyphs[0].Name)
}

func TestCapabilitiesEndpoint(t *testing.T) {
	api := newTestAPI(t, 60)

	resp := api.Get("/api/capabilities")
	require.Equal(t, 200, resp.Code)

	var body struct {
		Formats []struct {
			Extension string `json:"extension"`
		} `json:"formats"`
	}
	decode(t, resp.Body.Bytes(), &body)
	assert.NotEmpty(t, body.Formats)
}
