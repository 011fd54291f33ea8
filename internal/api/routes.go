// Package api defines the Huma API routes and handlers.
package api

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"
	"go.uber.org/zap"

	"github.com/agromaps/fieldview/internal/ingest"
	"github.com/agromaps/fieldview/internal/service"
)

// Services holds the service dependencies for API handlers.
type Services struct {
	Layers  *service.LayerStore
	Regions *service.RegionService
	Models  *service.ModelCatalog
	Prefs   *service.PrefsService
	Uploads *service.UploadService
	Ingest  *ingest.Ingestor
}

// APIHandler holds all REST API handlers.
type APIHandler struct {
	svc *Services
	log *zap.Logger
}

// NewAPIHandler creates the handler set.
func NewAPIHandler(svc *Services, log *zap.Logger) *APIHandler {
	return &APIHandler{svc: svc, log: log}
}

// RegisterRoutes registers every route group on the API.
func (h *APIHandler) RegisterRoutes(api huma.API) {
	h.RegisterHealth(api)
	h.RegisterLayers(api)
	h.RegisterRegions(api)
	h.RegisterModels(api)
	h.RegisterUploads(api)
	h.RegisterPrefs(api)
}

type HealthBody struct {
	Status  string `json:"status" doc:"Health status" example:"ok"`
	Version string `json:"version" doc:"API version" example:"1.0.0"`
}

// RegisterHealth registers health check routes.
func (h *APIHandler) RegisterHealth(api huma.API) {
	huma.Get(api, "/health", h.GetHealth, huma.OperationTags("health"))
}

func (h *APIHandler) GetHealth(ctx context.Context, input *struct{}) (*struct{ Body HealthBody }, error) {
	return &struct{ Body HealthBody }{Body: HealthBody{Status: "ok", Version: "1.0.0"}}, nil
}

type MessageBody struct {
	Message string `json:"message" doc:"Result message"`
}

// serviceError maps service-layer errors onto HTTP status codes.
func serviceError(err error) error {
	switch {
	case errors.Is(err, service.ErrLayerNotFound),
		errors.Is(err, service.ErrRegionNotFound):
		return huma.Error404NotFound(err.Error())
	case errors.Is(err, service.ErrRegionBusy),
		errors.Is(err, service.ErrRegionTerminal):
		return huma.Error409Conflict(err.Error())
	case errors.Is(err, service.ErrInvalidBounds),
		errors.Is(err, service.ErrNoRegionSource),
		errors.Is(err, service.ErrNotPermutation),
		errors.Is(err, service.ErrUnknownModel):
		return huma.Error422UnprocessableEntity(err.Error())
	default:
		return huma.Error400BadRequest(err.Error())
	}
}
