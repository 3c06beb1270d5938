// Package mapclient is a small Go client for the spatix REST API.
package mapclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
)

// Client talks to a spatix server.
type Client struct {
	baseURL string
	http    *http.Client
	// forwarded as the rate-limit key, optional
	ClientIP string
}

// New creates a client for the server at baseURL.
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("spatix: %d %s", e.StatusCode, e.Detail)
}

// Marker mirrors the server's marker type.
type Marker struct {
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
	Label string  `json:"label,omitempty"`
	Color string  `json:"color,omitempty"`
}

// CreateMapRequest is the payload for CreateMap. Data accepts a GeoJSON
// object, a coordinate array, or a WKT string.
type CreateMapRequest struct {
	Title       string      `json:"title,omitempty"`
	Description string      `json:"description,omitempty"`
	Data        any         `json:"data,omitempty"`
	Markers     []Marker    `json:"markers,omitempty"`
	Basemap     string      `json:"basemap,omitempty"`
	Center      *[2]float64 `json:"center,omitempty"`
	Zoom        *float64    `json:"zoom,omitempty"`
	AutoStyle   *bool       `json:"auto_style,omitempty"`
}

// CreateMapResponse is the result of CreateMap.
type CreateMapResponse struct {
	Success     bool   `json:"success"`
	ID          string `json:"id"`
	URL         string `json:"url"`
	EmbedURL    string `json:"embed_url"`
	Embed       string `json:"embed"`
	PreviewURL  string `json:"preview_url"`
	DeleteToken string `json:"delete_token"`
}

// MapRecord is a stored map as returned by GetMap.
type MapRecord struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Config      json.RawMessage `json:"config"`
	Views       int64           `json:"views"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// HealthResponse is the result of Health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// CreateMap creates a map and returns its share URLs and delete token.
func (c *Client) CreateMap(ctx context.Context, req CreateMapRequest) (*CreateMapResponse, error) {
	var out CreateMapResponse
	if err := c.do(ctx, http.MethodPost, "/api/map", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetMap fetches a stored map. Each call counts as a view.
func (c *Client) GetMap(ctx context.Context, id string) (*MapRecord, error) {
	var out MapRecord
	if err := c.do(ctx, http.MethodGet, "/api/map/"+id, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetStyle fetches the ready-to-load style document for a map.
func (c *Client) GetStyle(ctx context.Context, id string) (json.RawMessage, error) {
	var out json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/api/map/"+id+"/style", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteMap removes a map using the token returned at creation.
func (c *Client) DeleteMap(ctx context.Context, id, deleteToken string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/api/map/"+id, nil)
	if err != nil {
		return err
	}
	req.Header.Set("X-Delete-Token", deleteToken)
	return c.send(req, nil)
}

// Health probes the server.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var out HealthResponse
	if err := c.do(ctx, http.MethodGet, "/health", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.ClientIP != "" {
		req.Header.Set("X-Forwarded-For", c.ClientIP)
	}
	return c.send(req, out)
}

func (c *Client) send(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail := string(payload)
		var problem struct {
			Detail string `json:"detail"`
			Title  string `json:"title"`
		}
		if err := json.Unmarshal(payload, &problem); err == nil {
			if problem.Detail != "" {
				detail = problem.Detail
			} else if problem.Title != "" {
				detail = problem.Title
			}
		}
		return &APIError{StatusCode: resp.StatusCode, Detail: detail}
	}

	if out == nil {
		return nil
	}
	return json.Unmarshal(payload, out)
}
