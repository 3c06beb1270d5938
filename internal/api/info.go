package api

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/alde1022/spatix/internal/intake"
)

type InfoHandler struct {
	dataDir  string
	dbOK     bool
	maps     func() int
	analyzer *intake.Analyzer
}

func NewInfoHandler(dataDir string, dbOK bool, mapCount func() int, analyzer *intake.Analyzer) *InfoHandler {
	return &InfoHandler{dataDir: dataDir, dbOK: dbOK, maps: mapCount, analyzer: analyzer}
}

func (h *InfoHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/info", h.GetInfo, huma.OperationTags("health"))
}

type InfoBody struct {
	Name       string   `json:"name" doc:"Service name"`
	Version    string   `json:"version" doc:"Service version"`
	DataDir    string   `json:"data_dir" doc:"Data directory path"`
	DB         bool     `json:"db" doc:"Whether the stats database is available"`
	AnalyzerOK bool     `json:"analyzer_ok" doc:"Whether the file analyzer answers its health probe"`
	MapCount   int      `json:"map_count" doc:"Number of stored maps"`
	Features   []string `json:"features" doc:"Available features"`
}

func (h *InfoHandler) GetInfo(ctx context.Context, input *struct{}) (*struct{ Body InfoBody }, error) {
	analyzerOK := false
	if h.analyzer != nil {
		analyzerOK = h.analyzer.Healthy(ctx)
	}
	count := 0
	if h.maps != nil {
		count = h.maps()
	}
	return &struct{ Body InfoBody }{Body: InfoBody{
		Name:       "spatix",
		Version:    "0.1.0",
		DataDir:    h.dataDir,
		DB:         h.dbOK,
		AnalyzerOK: analyzerOK,
		MapCount:   count,
		Features:   []string{"maps", "normalize", "analyze", "icons", "embed", "duckdb"},
	}}, nil
}
