package api

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/agromaps/fieldview/internal/service"
)

type LayerIDInput struct {
	ID string `path:"id" doc:"Layer ID"`
}

type LayerOutput struct {
	Body *service.Layer
}

type LayersOutput struct {
	Body []*service.Layer
}

// VisibilityBody is the toggle response. AutoFit carries the bounds
// the map should re-center on when a layer just became visible.
type VisibilityBody struct {
	Layer   *service.Layer  `json:"layer" doc:"The toggled layer"`
	AutoFit *service.Bounds `json:"autoFit,omitempty" doc:"Bounds to re-center on (hidden-to-visible only)"`
}

type ReorderInput struct {
	Body struct {
		IDs []string `json:"ids" required:"true" doc:"Every current layer id, in the desired display order"`
	}
}

// RegisterLayers registers layer store routes.
func (h *APIHandler) RegisterLayers(api huma.API) {
	huma.Get(api, "/api/v1/layers", h.GetLayers, huma.OperationTags("layers"))
	huma.Put(api, "/api/v1/layers/order", h.ReorderLayers, huma.OperationTags("layers"))
	huma.Get(api, "/api/v1/layers/{id}", h.GetLayer, huma.OperationTags("layers"))
	huma.Delete(api, "/api/v1/layers/{id}", h.DeleteLayer, huma.OperationTags("layers"))
	huma.Post(api, "/api/v1/layers/{id}/visibility", h.ToggleVisibility, huma.OperationTags("layers"))
}

func (h *APIHandler) GetLayers(ctx context.Context, input *struct{}) (*LayersOutput, error) {
	return &LayersOutput{Body: h.svc.Layers.List()}, nil
}

func (h *APIHandler) GetLayer(ctx context.Context, input *LayerIDInput) (*LayerOutput, error) {
	layer, ok := h.svc.Layers.Get(input.ID)
	if !ok {
		return nil, huma.Error404NotFound("layer not found")
	}
	return &LayerOutput{Body: layer}, nil
}

func (h *APIHandler) DeleteLayer(ctx context.Context, input *LayerIDInput) (*struct{ Body MessageBody }, error) {
	if err := h.svc.Layers.Remove(input.ID); err != nil {
		return nil, serviceError(err)
	}
	return &struct{ Body MessageBody }{Body: MessageBody{Message: "Layer deleted"}}, nil
}

func (h *APIHandler) ToggleVisibility(ctx context.Context, input *LayerIDInput) (*struct{ Body VisibilityBody }, error) {
	layer, wasVisible, err := h.svc.Layers.ToggleVisibility(input.ID)
	if err != nil {
		return nil, serviceError(err)
	}
	body := VisibilityBody{Layer: layer}
	if !wasVisible && layer.Visible {
		b := layer.Bounds
		body.AutoFit = &b
	}
	return &struct{ Body VisibilityBody }{Body: body}, nil
}

func (h *APIHandler) ReorderLayers(ctx context.Context, input *ReorderInput) (*LayersOutput, error) {
	if err := h.svc.Layers.Reorder(input.Body.IDs); err != nil {
		return nil, serviceError(err)
	}
	return &LayersOutput{Body: h.svc.Layers.List()}, nil
}
