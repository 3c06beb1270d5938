// Package normalize turns heterogeneous geometry input — GeoJSON in any of
// its shapes, bare coordinate arrays, WKT strings — into a canonical
// FeatureCollection. It never parses raw GIS file bytes; that is the
// external analyzer's job.
package normalize

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/paulmach/orb/geojson"

	"github.com/alde1022/spatix/internal/mapcfg"
)

// Format identifies the detected input format.
type Format string

const (
	FormatGeoJSON     Format = "geojson"
	FormatCoordinates Format = "coordinates"
	FormatWKT         Format = "wkt"
)

// ErrUnsupported is returned when the payload matches no known format.
var ErrUnsupported = errors.New("unsupported data format: expected GeoJSON, coordinate array, or WKT")

// worldBounds is the fallback when a collection has no coordinates.
var worldBounds = mapcfg.Bounds{{-180, -85}, {180, 85}}

// Data normalizes a raw JSON value (object, array, or string) to a
// FeatureCollection, reporting the detected format.
func Data(raw []byte) (*geojson.FeatureCollection, Format, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, "", ErrUnsupported
	}

	switch trimmed[0] {
	case '{':
		fc, err := objectToCollection(trimmed)
		return fc, FormatGeoJSON, err
	case '[':
		var coords []any
		if err := json.Unmarshal(trimmed, &coords); err != nil {
			return nil, "", fmt.Errorf("invalid coordinate array: %w", err)
		}
		fc, err := coordsToCollection(coords)
		return fc, FormatCoordinates, err
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return nil, "", fmt.Errorf("invalid string payload: %w", err)
		}
		return String(s)
	default:
		return String(string(trimmed))
	}
}

// String normalizes a string payload: inline GeoJSON or coordinates, or a
// WKT geometry.
func String(s string) (*geojson.FeatureCollection, Format, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, "", ErrUnsupported
	}
	if s[0] == '{' || s[0] == '[' {
		return Data([]byte(s))
	}

	upper := strings.ToUpper(s)
	for _, prefix := range []string{"POINT", "LINESTRING", "POLYGON", "MULTIPOINT", "MULTILINESTRING", "MULTIPOLYGON", "GEOMETRYCOLLECTION"} {
		if strings.HasPrefix(upper, prefix) {
			geom, err := wkt.Unmarshal(s)
			if err != nil {
				return nil, "", fmt.Errorf("invalid WKT: %w", err)
			}
			fc := geojson.NewFeatureCollection()
			fc.Append(geojson.NewFeature(geom))
			return fc, FormatWKT, nil
		}
	}
	return nil, "", ErrUnsupported
}

// objectToCollection accepts any GeoJSON object — FeatureCollection,
// Feature, or bare geometry — and wraps it into a FeatureCollection.
func objectToCollection(raw []byte) (*geojson.FeatureCollection, error) {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, fmt.Errorf("invalid GeoJSON: %w", err)
	}

	switch probe.Type {
	case "FeatureCollection":
		fc, err := geojson.UnmarshalFeatureCollection(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid FeatureCollection: %w", err)
		}
		return fc, nil
	case "Feature":
		f, err := geojson.UnmarshalFeature(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid Feature: %w", err)
		}
		fc := geojson.NewFeatureCollection()
		fc.Append(f)
		return fc, nil
	case "Point", "LineString", "Polygon", "MultiPoint", "MultiLineString", "MultiPolygon", "GeometryCollection":
		g, err := geojson.UnmarshalGeometry(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid geometry: %w", err)
		}
		fc := geojson.NewFeatureCollection()
		fc.Append(geojson.NewFeature(g.Geometry()))
		return fc, nil
	default:
		return nil, fmt.Errorf("unrecognized GeoJSON type %q", probe.Type)
	}
}

// coordsToCollection interprets a bare coordinate array: [lng, lat] is a
// point; [[lng, lat], ...] is a line, or a polygon when the ring closes.
func coordsToCollection(coords []any) (*geojson.FeatureCollection, error) {
	if len(coords) == 0 {
		return nil, errors.New("empty coordinates array")
	}

	fc := geojson.NewFeatureCollection()

	if p, ok := asPoint(coords); ok {
		fc.Append(geojson.NewFeature(p))
		return fc, nil
	}

	points := make([]orb.Point, 0, len(coords))
	for _, c := range coords {
		pair, ok := c.([]any)
		if !ok {
			return nil, errors.New("could not interpret coordinate array")
		}
		p, ok := asPoint(pair)
		if !ok {
			return nil, errors.New("could not interpret coordinate array")
		}
		points = append(points, p)
	}

	if len(points) > 2 && points[0] == points[len(points)-1] {
		fc.Append(geojson.NewFeature(orb.Polygon{orb.Ring(points)}))
	} else {
		fc.Append(geojson.NewFeature(orb.LineString(points)))
	}
	return fc, nil
}

func asPoint(pair []any) (orb.Point, bool) {
	if len(pair) != 2 {
		return orb.Point{}, false
	}
	lng, ok1 := pair[0].(float64)
	lat, ok2 := pair[1].(float64)
	if !ok1 || !ok2 {
		return orb.Point{}, false
	}
	return orb.Point{lng, lat}, true
}

// Bounds computes the [[west,south],[east,north]] rectangle covering every
// feature and marker, or a world default when there is nothing to cover.
func Bounds(fc *geojson.FeatureCollection, markers []mapcfg.Marker) mapcfg.Bounds {
	var bound orb.Bound
	have := false

	if fc != nil {
		for _, f := range fc.Features {
			if f == nil || f.Geometry == nil {
				continue
			}
			b := f.Geometry.Bound()
			if !have {
				bound = b
				have = true
			} else {
				bound = bound.Union(b)
			}
		}
	}
	for _, m := range markers {
		p := orb.Point{m.Lng, m.Lat}
		if !have {
			bound = p.Bound()
			have = true
		} else {
			bound = bound.Union(p.Bound())
		}
	}

	if !have {
		return worldBounds
	}
	return mapcfg.Bounds{
		{bound.Min[0], bound.Min[1]},
		{bound.Max[0], bound.Max[1]},
	}
}

// GeometryTypes returns the sorted set of geometry type names in a
// collection.
func GeometryTypes(fc *geojson.FeatureCollection) []string {
	seen := map[string]bool{}
	for _, f := range fc.Features {
		if f == nil || f.Geometry == nil {
			continue
		}
		seen[f.Geometry.GeoJSONType()] = true
	}
	return sortedKeys(seen)
}

// Properties returns the sorted set of property names across a collection's
// features.
func Properties(fc *geojson.FeatureCollection) []string {
	seen := map[string]bool{}
	for _, f := range fc.Features {
		if f == nil {
			continue
		}
		for k := range f.Properties {
			seen[k] = true
		}
	}
	return sortedKeys(seen)
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
