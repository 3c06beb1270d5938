package icons

import "github.com/alde1022/spatix/internal/mapcfg"

// Selection is a chosen glyph plus color, scoped to whichever feature or
// marker is currently being edited. The picker never mutates the layer
// model; the caller applies the selection to the relevant style.
type Selection struct {
	Glyph string `json:"glyph" doc:"Chosen glyph name" example:"pin"`
	Color string `json:"color" doc:"Chosen color (hex or rgba)" example:"#e11d48"`
}

// Apply writes the selection into a style, returning the modified copy. The
// glyph lands in the style so a published configuration reproduces the icon
// choice at embed time.
func (s Selection) Apply(style mapcfg.Style) mapcfg.Style {
	if s.Glyph != "" {
		style = style.WithMarkerIcon(s.Glyph)
	}
	if s.Color != "" {
		style = style.WithMarkerColor(s.Color)
	}
	return style
}
