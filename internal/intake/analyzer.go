package intake

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/paulmach/orb/geojson"
)

// AnalysisResult is the analyzer service's report for one uploaded file.
type AnalysisResult struct {
	FeatureCount   int                        `json:"feature_count"`
	GeometryTypes  []string                   `json:"geometry_type"`
	CRS            *string                    `json:"crs"`
	Bounds         *[4]float64                `json:"bounds"` // west, south, east, north
	Attributes     []string                   `json:"attributes"`
	FileSizeBytes  int64                      `json:"file_size_bytes"`
	PreviewGeoJSON *geojson.FeatureCollection `json:"preview_geojson,omitempty"`
}

// AnalyzerError carries the analyzer's failure detail verbatim.
type AnalyzerError struct {
	StatusCode int
	Detail     string
}

func (e *AnalyzerError) Error() string {
	return fmt.Sprintf("analyzer returned %d: %s", e.StatusCode, e.Detail)
}

// Analyzer inspects uploaded geometry files by calling the conversion
// service's /analyze endpoint.
type Analyzer struct {
	baseURL string
	client  *http.Client
}

// NewAnalyzer builds a client for the analyzer at baseURL.
func NewAnalyzer(baseURL string) *Analyzer {
	return &Analyzer{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

// Analyze uploads a file for inspection. includePreview asks the analyzer
// to attach a simplified GeoJSON preview of the contents.
func (a *Analyzer) Analyze(ctx context.Context, filename string, contents io.Reader, includePreview bool) (*AnalysisResult, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("building upload: %w", err)
	}
	if _, err := io.Copy(part, contents); err != nil {
		return nil, fmt.Errorf("building upload: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("building upload: %w", err)
	}

	u := a.baseURL + "/analyze?include_preview=" + strconv.FormatBool(includePreview)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("analyzer unreachable: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, fmt.Errorf("reading analyzer response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &AnalyzerError{
			StatusCode: resp.StatusCode,
			Detail:     extractDetail(payload),
		}
	}

	var result AnalysisResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, fmt.Errorf("decoding analyzer response: %w", err)
	}
	return &result, nil
}

// Healthy reports whether the analyzer answers its health probe.
func (a *Analyzer) Healthy(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// BaseURL returns the configured analyzer endpoint.
func (a *Analyzer) BaseURL() string { return a.baseURL }

// extractDetail normalizes the analyzer's error body. The service emits
// {"detail": "message"}, {"detail": [{"msg": ...}, ...]} for validation
// failures, {"detail": {"error": ..., "message": ...}}, or free text.
func extractDetail(payload []byte) string {
	var wrapper struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(payload, &wrapper); err == nil && len(wrapper.Detail) > 0 {
		var s string
		if err := json.Unmarshal(wrapper.Detail, &s); err == nil {
			return s
		}
		var list []struct {
			Msg string `json:"msg"`
		}
		if err := json.Unmarshal(wrapper.Detail, &list); err == nil && len(list) > 0 {
			msgs := make([]string, 0, len(list))
			for _, item := range list {
				if item.Msg != "" {
					msgs = append(msgs, item.Msg)
				}
			}
			if len(msgs) > 0 {
				return strings.Join(msgs, "; ")
			}
		}
		var obj struct {
			Message string `json:"message"`
			Error   string `json:"error"`
		}
		if err := json.Unmarshal(wrapper.Detail, &obj); err == nil {
			if obj.Message != "" {
				return obj.Message
			}
			if obj.Error != "" {
				return obj.Error
			}
		}
		return string(wrapper.Detail)
	}
	return string(payload)
}
