// Package live contains Datastar SSE handlers that keep the map UI in
// sync with the layer store and region lifecycle.
package live

import (
	"encoding/json"
	"fmt"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/starfederation/datastar-go/datastar"
)

// EmptyInput is a shared empty input struct for handlers with no parameters.
type EmptyInput struct{}

// SSEContext wraps the Datastar SSE generator with helper methods.
type SSEContext struct {
	SSE *datastar.ServerSentEventGenerator
}

// NewSSE creates an SSE context from a Huma context.
func NewSSE(humaCtx huma.Context) *SSEContext {
	r, w := humago.Unwrap(humaCtx)
	return &SSEContext{
		SSE: datastar.NewSSE(w, r),
	}
}

// Patch sends HTML to replace content at a selector.
func (c *SSEContext) Patch(html, selector string) {
	c.SSE.PatchElements(html, datastar.WithSelector(selector), datastar.WithModeInner())
}

// Error sends an error signal to the client.
func (c *SSEContext) Error(msg string) {
	c.SSE.MarshalAndPatchSignals(map[string]any{
		"error": msg,
	})
}

// Success sends a success signal to the client.
func (c *SSEContext) Success(msg string) {
	c.SSE.MarshalAndPatchSignals(map[string]any{
		"success": msg,
	})
}

// Signals sends arbitrary signals to the client.
func (c *SSEContext) Signals(signals map[string]any) {
	c.SSE.MarshalAndPatchSignals(signals)
}

// DispatchCustomEvent fires a DOM CustomEvent in the browser.
func (c *SSEContext) DispatchCustomEvent(name string, detail map[string]any) {
	payload, err := json.Marshal(detail)
	if err != nil {
		return
	}
	c.SSE.ExecuteScript(fmt.Sprintf("window.dispatchEvent(new CustomEvent(%q, {detail: %s}))", name, payload))
}
