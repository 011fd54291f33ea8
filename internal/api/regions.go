package api

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/agromaps/fieldview/internal/service"
)

type RegionIDInput struct {
	ID string `path:"id" doc:"Region ID"`
}

type RegionOutput struct {
	Body *service.Region
}

type RegionsOutput struct {
	Body []*service.Region
}

// CreateRegionInput creates a region either from an explicitly drawn
// rectangle or, when bounds are omitted, from the full extent of the
// first visible raster layer.
type CreateRegionInput struct {
	Body struct {
		Bounds  *service.Bounds `json:"bounds,omitempty" doc:"Drawn rectangle [[south,west],[north,east]]; omit to use the first visible raster layer's extent"`
		ModelID string          `json:"modelId,omitempty" doc:"Inference model to use" example:"delineate-v1"`
	}
}

// RegisterRegions registers region lifecycle routes.
func (h *APIHandler) RegisterRegions(api huma.API) {
	huma.Get(api, "/api/v1/regions", h.GetRegions, huma.OperationTags("regions"))
	huma.Post(api, "/api/v1/regions", h.CreateRegion, huma.OperationTags("regions"))
	huma.Get(api, "/api/v1/regions/{id}", h.GetRegion, huma.OperationTags("regions"))
	huma.Delete(api, "/api/v1/regions/{id}", h.DeleteRegion, huma.OperationTags("regions"))
	huma.Post(api, "/api/v1/regions/{id}/generate", h.GenerateRegion, huma.OperationTags("regions"))
}

func (h *APIHandler) GetRegions(ctx context.Context, input *struct{}) (*RegionsOutput, error) {
	return &RegionsOutput{Body: h.svc.Regions.List()}, nil
}

func (h *APIHandler) CreateRegion(ctx context.Context, input *CreateRegionInput) (*RegionOutput, error) {
	region, err := h.svc.Regions.Create(input.Body.Bounds, input.Body.ModelID)
	if err != nil {
		return nil, serviceError(err)
	}
	return &RegionOutput{Body: region}, nil
}

func (h *APIHandler) GetRegion(ctx context.Context, input *RegionIDInput) (*RegionOutput, error) {
	region, ok := h.svc.Regions.Get(input.ID)
	if !ok {
		return nil, huma.Error404NotFound("region not found")
	}
	return &RegionOutput{Body: region}, nil
}

func (h *APIHandler) DeleteRegion(ctx context.Context, input *RegionIDInput) (*struct{ Body MessageBody }, error) {
	if err := h.svc.Regions.Remove(input.ID); err != nil {
		return nil, serviceError(err)
	}
	return &struct{ Body MessageBody }{Body: MessageBody{Message: "Region deleted"}}, nil
}

// GenerateRegion starts inference in the background; the response is
// the region in its processing state. Progress arrives over the live
// event stream.
func (h *APIHandler) GenerateRegion(ctx context.Context, input *RegionIDInput) (*RegionOutput, error) {
	region, err := h.svc.Regions.Start(input.ID)
	if err != nil {
		return nil, serviceError(err)
	}
	return &RegionOutput{Body: region}, nil
}

type ModelsOutput struct {
	Body []service.Model
}

// RegisterModels registers the model catalog route.
func (h *APIHandler) RegisterModels(api huma.API) {
	huma.Get(api, "/api/v1/models", h.GetModels, huma.OperationTags("models"))
}

func (h *APIHandler) GetModels(ctx context.Context, input *struct{}) (*ModelsOutput, error) {
	return &ModelsOutput{Body: h.svc.Models.List()}, nil
}
