// Package editor contains the Datastar SSE handlers behind the map editor
// UI: tool selection, pointer events, the layer panel, and publishing.
package editor

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/starfederation/datastar-go/datastar"

	"github.com/alde1022/spatix/internal/templates"
)

// EmptyInput is a shared empty input struct for handlers with no parameters.
type EmptyInput struct{}

// SSE is the Datastar generator plus the patch shapes the editor panels
// use. Every editor response goes through one of these helpers so the
// signal names stay consistent across handlers.
type SSE struct {
	*datastar.ServerSentEventGenerator
}

// NewSSE unwraps the underlying request pair from a Huma streaming context
// and starts a Datastar event stream on it.
func NewSSE(ctx huma.Context) SSE {
	r, w := humago.Unwrap(ctx)
	return SSE{datastar.NewSSE(w, r)}
}

// Patch swaps the inner content of the element at selector.
func (s SSE) Patch(html, selector string) {
	s.PatchElements(html,
		datastar.WithSelector(selector),
		datastar.WithModeInner(),
		datastar.WithViewTransitions(),
	)
}

// Replace swaps the whole element at selector.
func (s SSE) Replace(html, selector string) {
	s.PatchElements(html,
		datastar.WithSelector(selector),
		datastar.WithModeOuter(),
		datastar.WithViewTransitions(),
	)
}

// Error surfaces a message in the editor's error banner and clears any
// stale success message.
func (s SSE) Error(msg string) {
	s.MarshalAndPatchSignals(map[string]any{"error": msg, "success": ""})
}

// Success surfaces a message in the editor's success banner and clears any
// stale error.
func (s SSE) Success(msg string) {
	s.MarshalAndPatchSignals(map[string]any{"success": msg, "error": ""})
}

// Signals patches arbitrary signal values.
func (s SSE) Signals(signals map[string]any) {
	s.MarshalAndPatchSignals(signals)
}

// Handler is an embeddable base for editor SSE handlers. It holds the
// session manager and fragment renderer every handler needs.
type Handler struct {
	Sessions *SessionManager
	Renderer *templates.Renderer
}

// Stream returns a Huma StreamResponse that calls fn with a ready SSE
// helper.
func (h *Handler) Stream(fn func(sse SSE)) *huma.StreamResponse {
	return &huma.StreamResponse{
		Body: func(humaCtx huma.Context) {
			fn(NewSSE(humaCtx))
		},
	}
}
