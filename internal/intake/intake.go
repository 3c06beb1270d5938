// Package intake handles geometry file uploads: format gatekeeping, analyzer
// dispatch, and the draft layer a successful analysis turns into.
package intake

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/alde1022/spatix/internal/mapcfg"
	"github.com/alde1022/spatix/internal/normalize"
)

// MaxUploadBytes caps a single upload before it reaches the analyzer.
const MaxUploadBytes = 100 << 20

// ErrUnsupportedFormat rejects files outside the capability table.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// Capability describes one accepted upload format.
type Capability struct {
	Extension   string `json:"extension"`
	Label       string `json:"label"`
	Archive     bool   `json:"archive,omitempty"`    // must arrive zipped with sidecars
	Multilayer  bool   `json:"multilayer,omitempty"` // container formats holding several layers
	Description string `json:"description"`
}

// capabilities is the accepted-format table, keyed by lowercase extension.
var capabilities = map[string]Capability{
	".shp":     {Extension: ".shp", Label: "Shapefile", Archive: true, Description: "ESRI Shapefile, uploaded as a .zip with .shx/.dbf/.prj sidecars"},
	".geojson": {Extension: ".geojson", Label: "GeoJSON", Description: "RFC 7946 GeoJSON"},
	".json":    {Extension: ".json", Label: "GeoJSON", Description: "GeoJSON with a .json extension"},
	".kml":     {Extension: ".kml", Label: "KML", Description: "Keyhole Markup Language"},
	".kmz":     {Extension: ".kmz", Label: "KMZ", Archive: true, Description: "Zipped KML"},
	".gpx":     {Extension: ".gpx", Label: "GPX", Description: "GPS exchange tracks and waypoints"},
	".gml":     {Extension: ".gml", Label: "GML", Description: "Geography Markup Language"},
	".gpkg":    {Extension: ".gpkg", Label: "GeoPackage", Multilayer: true, Description: "OGC GeoPackage container"},
	".dxf":     {Extension: ".dxf", Label: "DXF", Description: "AutoCAD drawing exchange"},
	".csv":     {Extension: ".csv", Label: "CSV", Description: "Delimited text with lat/lng or WKT columns"},
	".sqlite":  {Extension: ".sqlite", Label: "SpatiaLite", Multilayer: true, Description: "SpatiaLite database"},
	".fgb":     {Extension: ".fgb", Label: "FlatGeobuf", Description: "Cloud-optimized FlatGeobuf"},
}

// Capabilities lists accepted formats sorted by extension.
func Capabilities() []Capability {
	out := make([]Capability, 0, len(capabilities))
	for _, c := range capabilities {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Extension < out[j].Extension })
	return out
}

// Supported reports whether a filename's extension is accepted. Zip archives
// are accepted and resolved by the analyzer from their contents.
func Supported(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == ".zip" {
		return true
	}
	_, ok := capabilities[ext]
	return ok
}

// Intake runs the upload pipeline against one analyzer.
type Intake struct {
	analyzer *Analyzer
}

// New builds an Intake over the given analyzer client.
func New(analyzer *Analyzer) *Intake {
	return &Intake{analyzer: analyzer}
}

// Submit gates the file by extension and forwards it to the analyzer with a
// preview request. The caller is responsible for enforcing MaxUploadBytes on
// the transport side.
func (in *Intake) Submit(ctx context.Context, filename string, contents io.Reader) (*AnalysisResult, error) {
	if !Supported(filename) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(filename))
	}
	return in.analyzer.Analyze(ctx, filename, contents, true)
}

// DraftConfig turns an analysis into a single-layer map configuration: the
// preview becomes the layer, styled for its geometry, framed on its bounds.
func DraftConfig(name string, result *AnalysisResult) (*mapcfg.MapConfiguration, error) {
	if result == nil || result.PreviewGeoJSON == nil {
		return nil, errors.New("analysis carries no preview geometry")
	}

	types := normalize.GeometryTypes(result.PreviewGeoJSON)
	types = append(types, result.GeometryTypes...)
	style := mapcfg.StyleForGeometry(types)

	layers := mapcfg.NewLayerList()
	layers.Add(name, result.PreviewGeoJSON, &style)

	cfg := &mapcfg.MapConfiguration{
		Basemap: mapcfg.BasemapLight,
		Layers:  layers.Snapshot(),
	}
	if result.Bounds != nil {
		b := mapcfg.Bounds{
			{result.Bounds[0], result.Bounds[1]},
			{result.Bounds[2], result.Bounds[3]},
		}
		cfg.Viewport.Bounds = &b
	} else {
		b := normalize.Bounds(result.PreviewGeoJSON, nil)
		cfg.Viewport.Bounds = &b
	}
	return cfg, cfg.Validate()
}
