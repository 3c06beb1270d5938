package mapcfg

import (
	"fmt"
)

// Basemap identifies the non-data background style. The values are part of
// the persisted format; external consumers depend on them.
type Basemap string

const (
	BasemapLight     Basemap = "light"
	BasemapDark      Basemap = "dark"
	BasemapSatellite Basemap = "satellite"
	BasemapStreets   Basemap = "streets"
)

// Basemaps lists every supported basemap value.
var Basemaps = []Basemap{BasemapLight, BasemapDark, BasemapSatellite, BasemapStreets}

// Valid reports whether b is a supported basemap.
func (b Basemap) Valid() bool {
	for _, v := range Basemaps {
		if b == v {
			return true
		}
	}
	return false
}

// ParseBasemap resolves a basemap request. Empty and "auto" map to light.
func ParseBasemap(s string) (Basemap, error) {
	if s == "" || s == "auto" {
		return BasemapLight, nil
	}
	b := Basemap(s)
	if !b.Valid() {
		return "", fmt.Errorf("unknown basemap %q", s)
	}
	return b, nil
}

// Zoom limits supported by the renderer. Configured zoom is clamped into
// this range.
const (
	MinZoom = 0
	MaxZoom = 22
)

// Marker is a simple labeled point that bypasses the full layer model.
type Marker struct {
	Lat   float64 `json:"lat" minimum:"-90" maximum:"90" doc:"Latitude"`
	Lng   float64 `json:"lng" minimum:"-180" maximum:"180" doc:"Longitude"`
	Label string  `json:"label,omitempty" doc:"Popup label"`
	Color string  `json:"color,omitempty" doc:"Marker color (hex or rgba)"`
}

// Bounds is a geographic rectangle as [southwest, northeast] corners, each
// in [lng, lat] order (GeoJSON axis convention).
type Bounds [2][2]float64

// Valid reports whether the rectangle is well-formed: west<=east and
// south<=north, all values in range.
func (b Bounds) Valid() bool {
	west, south := b[0][0], b[0][1]
	east, north := b[1][0], b[1][1]
	if west > east || south > north {
		return false
	}
	if west < -180 || east > 180 || south < -90 || north > 90 {
		return false
	}
	return true
}

// Viewport is the camera state: either an explicit center+zoom, or a
// bounding box the renderer must fit with padding. When both are present
// the explicit center+zoom wins.
type Viewport struct {
	Center *[2]float64 `json:"center,omitempty" doc:"Camera center as [lng, lat]"`
	Zoom   *float64    `json:"zoom,omitempty" doc:"Camera zoom level"`
	Bounds *Bounds     `json:"bounds,omitempty" doc:"Rectangle to fit, as [[west,south],[east,north]]"`
}

// Explicit reports whether the viewport carries a direct center+zoom camera.
func (v Viewport) Explicit() bool {
	return v.Center != nil && v.Zoom != nil
}

// MapConfiguration is the serializable aggregate for one map: basemap,
// viewport, ordered layers, and optional flat markers. It is the unit of
// persistence and of embed-time reconstruction — the entire visual state
// must be reconstructable from this object alone.
type MapConfiguration struct {
	Basemap  Basemap  `json:"basemap" enum:"light,dark,satellite,streets" doc:"Background style"`
	Viewport Viewport `json:"viewport" doc:"Camera state or rectangle to fit"`
	Layers   []Layer  `json:"layers" doc:"Ordered layers; later layers paint on top"`
	Markers  []Marker `json:"markers,omitempty" doc:"Flat point markers"`
}

// Validate checks the configuration invariants, clamping what can be
// clamped (zoom, style ranges) and rejecting what cannot (malformed bounds,
// unknown basemap).
func (c *MapConfiguration) Validate() error {
	if c.Basemap == "" {
		c.Basemap = BasemapLight
	}
	if !c.Basemap.Valid() {
		return fmt.Errorf("unknown basemap %q", c.Basemap)
	}
	if c.Viewport.Zoom != nil {
		z := *c.Viewport.Zoom
		if z < MinZoom {
			z = MinZoom
		}
		if z > MaxZoom {
			z = MaxZoom
		}
		*c.Viewport.Zoom = z
	}
	if c.Viewport.Bounds != nil && !c.Viewport.Bounds.Valid() {
		return fmt.Errorf("invalid bounds %v", *c.Viewport.Bounds)
	}
	for i := range c.Layers {
		c.Layers[i].Style = c.Layers[i].Style.clamped()
	}
	return nil
}
