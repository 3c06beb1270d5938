package mapclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateMap(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/map", r.URL.Path)
		require.Equal(t, "10.1.2.3", r.Header.Get("X-Forwarded-For"))

		var req CreateMapRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Test Map", req.Title)
		assert.Equal(t, "dark", req.Basemap)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"success": true,
			"id": "aB3xK9qT",
			"url": "http://localhost:8087/m/aB3xK9qT",
			"embed_url": "http://localhost:8087/m/aB3xK9qT?embed=1",
			"delete_token": "secret"
		}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	c.ClientIP = "10.1.2.3"
	resp, err := c.CreateMap(context.Background(), CreateMapRequest{
		Title:   "Test Map",
		Data:    "POINT(30 10)",
		Basemap: "dark",
	})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "aB3xK9qT", resp.ID)
	assert.Equal(t, "secret", resp.DeleteToken)
}

func TestGetMap(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/map/aB3xK9qT", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"aB3xK9qT","title":"Fetched","views":7,"config":{"basemap":"light"}}`))
	}))
	defer srv.Close()

	rec, err := New(srv.URL).GetMap(context.Background(), "aB3xK9qT")
	require.NoError(t, err)
	assert.Equal(t, "Fetched", rec.Title)
	assert.Equal(t, int64(7), rec.Views)
	assert.JSONEq(t, `{"basemap":"light"}`, string(rec.Config))
}

func TestGetStyle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/map/aB3xK9qT/style", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"version":8,"layers":[]}`))
	}))
	defer srv.Close()

	style, err := New(srv.URL).GetStyle(context.Background(), "aB3xK9qT")
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":8,"layers":[]}`, string(style))
}

func TestDeleteMapSendsToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		require.Equal(t, "secret", r.Header.Get("X-Delete-Token"))
		w.Write([]byte(`{"message":"Map deleted"}`))
	}))
	defer srv.Close()

	err := New(srv.URL).DeleteMap(context.Background(), "aB3xK9qT", "secret")
	assert.NoError(t, err)
}

func TestAPIErrorDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"title":"Forbidden","detail":"invalid delete token","status":403}`))
	}))
	defer srv.Close()

	err := New(srv.URL).DeleteMap(context.Background(), "aB3xK9qT", "wrong")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	assert.Equal(t, "invalid delete token", apiErr.Detail)
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/health", r.URL.Path)
		w.Write([]byte(`{"status":"ok","version":"1.0.0"}`))
	}))
	defer srv.Close()

	h, err := New(srv.URL).Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", h.Status)
}
