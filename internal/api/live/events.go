package live

import (
	"bytes"
	"context"

	"github.com/danielgtaylor/huma/v2"
	"go.uber.org/zap"

	"github.com/agromaps/fieldview/internal/service"
	"github.com/agromaps/fieldview/internal/templates"
)

// EventHandler streams layer and region changes to the map UI via SSE.
// One long-lived connection per browser tab; each change patches the
// sidebar lists and fires a custom event the map script listens to.
type EventHandler struct {
	layers   *service.LayerStore
	regions  *service.RegionService
	bus      *service.EventBus
	renderer *templates.Renderer
	log      *zap.Logger
}

// NewEventHandler creates the live event handler.
func NewEventHandler(layers *service.LayerStore, regions *service.RegionService, bus *service.EventBus, renderer *templates.Renderer, log *zap.Logger) *EventHandler {
	return &EventHandler{layers: layers, regions: regions, bus: bus, renderer: renderer, log: log}
}

func (h *EventHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/live/events", h.Events, huma.OperationTags("live"))
	huma.Get(api, "/api/v1/live/layers", h.Layers, huma.OperationTags("live"))
	huma.Get(api, "/api/v1/live/regions", h.Regions, huma.OperationTags("live"))
}

// Events is the long-lived stream. The initial render is pushed
// immediately so a fresh tab starts in sync.
func (h *EventHandler) Events(ctx context.Context, input *EmptyInput) (*huma.StreamResponse, error) {
	return &huma.StreamResponse{
		Body: func(humaCtx huma.Context) {
			sse := NewSSE(humaCtx)
			ch := h.bus.Subscribe()
			defer h.bus.Unsubscribe(ch)

			sse.Patch(h.renderLayerList(), "#layer-list")
			sse.Patch(h.renderRegionList(), "#region-list")

			for {
				select {
				case <-ctx.Done():
					return
				case ev := <-ch:
					switch ev.Resource {
					case "layers":
						sse.Patch(h.renderLayerList(), "#layer-list")
					case "regions":
						sse.Patch(h.renderRegionList(), "#region-list")
						if ev.Action == "status" {
							if region, ok := h.regions.Get(ev.ID); ok {
								sse.Signals(map[string]any{
									"regionId":     region.ID,
									"regionStatus": string(region.Status),
									"regionError":  region.Error,
								})
							}
						}
					}
					sse.DispatchCustomEvent("resource-changed", map[string]any{
						"resource": ev.Resource,
						"action":   ev.Action,
						"id":       ev.ID,
					})
				}
			}
		},
	}, nil
}

// Layers renders the sidebar layer list once.
func (h *EventHandler) Layers(ctx context.Context, input *EmptyInput) (*huma.StreamResponse, error) {
	return &huma.StreamResponse{
		Body: func(humaCtx huma.Context) {
			sse := NewSSE(humaCtx)
			sse.Patch(h.renderLayerList(), "#layer-list")
		},
	}, nil
}

// Regions renders the region list once.
func (h *EventHandler) Regions(ctx context.Context, input *EmptyInput) (*huma.StreamResponse, error) {
	return &huma.StreamResponse{
		Body: func(humaCtx huma.Context) {
			sse := NewSSE(humaCtx)
			sse.Patch(h.renderRegionList(), "#region-list")
		},
	}, nil
}

func (h *EventHandler) renderLayerList() string {
	var buf bytes.Buffer
	layers := h.layers.List()
	if len(layers) == 0 {
		h.render(&buf, "empty-state", map[string]string{
			"Title": "No layers", "Message": "Upload a GeoTIFF, GeoJSON or GeoPackage to get started",
		})
		return buf.String()
	}
	for _, layer := range layers {
		h.render(&buf, "layer-card", layer)
	}
	return buf.String()
}

func (h *EventHandler) renderRegionList() string {
	var buf bytes.Buffer
	regions := h.regions.List()
	if len(regions) == 0 {
		h.render(&buf, "empty-state", map[string]string{
			"Title": "No regions", "Message": "Draw a rectangle on the map to delineate fields",
		})
		return buf.String()
	}
	for _, region := range regions {
		h.render(&buf, "region-card", region)
	}
	return buf.String()
}

// render appends one fragment, logging a failed execution instead of
// silently shipping a truncated patch.
func (h *EventHandler) render(buf *bytes.Buffer, name string, data any) {
	if err := h.renderer.RenderToBuffer(buf, name, data); err != nil {
		h.log.Warn("rendering fragment", zap.String("template", name), zap.Error(err))
	}
}
