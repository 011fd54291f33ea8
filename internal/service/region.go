package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/agromaps/fieldview/internal/inference"
)

// Delineator is the inference dependency of the region service.
// *inference.Client satisfies it; tests substitute fakes.
type Delineator interface {
	Delineate(ctx context.Context, req inference.Request) (*inference.Result, error)
}

// RegionService owns generation regions and drives them through the
// pending -> processing -> completed|error lifecycle. Multiple
// generations may run concurrently; each owns its own region and they
// share nothing but the layer store.
type RegionService struct {
	mu      sync.RWMutex
	regions []*Region

	layers *LayerStore
	models *ModelCatalog
	client Delineator
	bus    *EventBus
	log    *zap.Logger
}

// NewRegionService creates a region service.
func NewRegionService(layers *LayerStore, models *ModelCatalog, client Delineator, bus *EventBus, log *zap.Logger) *RegionService {
	return &RegionService{
		layers: layers,
		models: models,
		client: client,
		bus:    bus,
		log:    log,
	}
}

// Create stores a new pending region. bounds may be nil, in which case
// the region falls back to the full extent of the first visible raster
// layer (the implicit creation mode). Invalid bounds are rejected and
// never stored.
func (s *RegionService) Create(bounds *Bounds, modelID string) (*Region, error) {
	resolved, sourceID, err := s.resolveBounds(bounds)
	if err != nil {
		return nil, err
	}
	if modelID != "" && !s.models.Has(modelID) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownModel, modelID)
	}

	region := &Region{
		ID:            uuid.NewString(),
		Bounds:        resolved,
		Status:        RegionPending,
		ModelID:       modelID,
		SourceLayerID: sourceID,
		CreatedAt:     time.Now(),
	}

	s.mu.Lock()
	s.regions = append([]*Region{region}, s.regions...)
	s.mu.Unlock()

	s.bus.Publish(Event{Resource: "regions", Action: "created", ID: region.ID})
	return snapshot(region), nil
}

// resolveBounds is the region source resolution policy: an explicitly
// drawn rectangle wins; otherwise the first visible raster layer's full
// extent; otherwise region creation fails.
func (s *RegionService) resolveBounds(bounds *Bounds) (Bounds, string, error) {
	if bounds != nil {
		if !bounds.Valid() {
			return Bounds{}, "", ErrInvalidBounds
		}
		return *bounds, "", nil
	}
	layer, ok := s.layers.FirstVisibleRaster()
	if !ok {
		return Bounds{}, "", ErrNoRegionSource
	}
	if !layer.Bounds.Valid() {
		return Bounds{}, "", ErrInvalidBounds
	}
	return layer.Bounds, layer.ID, nil
}

// Get returns a region by ID.
func (s *RegionService) Get(id string) (*Region, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.regions {
		if r.ID == id {
			return snapshot(r), true
		}
	}
	return nil, false
}

// List returns all regions, newest first.
func (s *RegionService) List() []*Region {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Region, 0, len(s.regions))
	for _, r := range s.regions {
		out = append(out, snapshot(r))
	}
	return out
}

// Remove deletes a region. Regions mid-generation cannot be removed;
// the in-flight call would have nowhere to land.
func (s *RegionService) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.regions {
		if r.ID != id {
			continue
		}
		if r.Status == RegionProcessing {
			return ErrRegionBusy
		}
		s.regions = append(s.regions[:i], s.regions[i+1:]...)
		s.bus.Publish(Event{Resource: "regions", Action: "deleted", ID: id})
		return nil
	}
	return ErrRegionNotFound
}

// Start begins generation in the background and returns the region in
// its processing state. The HTTP handler uses this so the request
// returns immediately while the live stream reports progress.
func (s *RegionService) Start(id string) (*Region, error) {
	region, err := s.begin(id)
	if err != nil {
		return nil, err
	}
	go s.run(context.Background(), id)
	return region, nil
}

// Generate runs a full generation synchronously and returns the region
// in its terminal state.
func (s *RegionService) Generate(ctx context.Context, id string) (*Region, error) {
	if _, err := s.begin(id); err != nil {
		return nil, err
	}
	return s.run(ctx, id), nil
}

// begin transitions pending -> processing. Terminal regions are not
// re-enterable; retrying means creating a new region.
func (s *RegionService) begin(id string) (*Region, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.regions {
		if r.ID != id {
			continue
		}
		switch r.Status {
		case RegionProcessing:
			return nil, ErrRegionBusy
		case RegionCompleted, RegionError:
			return nil, ErrRegionTerminal
		}
		r.Status = RegionProcessing
		s.bus.Publish(Event{Resource: "regions", Action: "status", ID: id})
		return snapshot(r), nil
	}
	return nil, ErrRegionNotFound
}

// run performs the inference call and moves the region to a terminal
// state, adding the result layer on success.
func (s *RegionService) run(ctx context.Context, id string) *Region {
	region, ok := s.Get(id)
	if !ok {
		return nil
	}

	req := inference.Request{
		BBox:      region.Bounds,
		ModelID:   region.ModelID,
		ImageData: s.sourceImage(region),
	}

	result, err := s.client.Delineate(ctx, req)
	if err != nil {
		s.log.Warn("region generation failed", zap.String("region", id), zap.Error(err))
		return s.finish(id, func(r *Region) {
			r.Status = RegionError
			r.Error = err.Error()
		})
	}

	layer, err := NewVectorLayer(fmt.Sprintf("Field boundaries (%s)", modelLabel(region.ModelID)), result.Boundaries)
	if err != nil {
		return s.finish(id, func(r *Region) {
			r.Status = RegionError
			r.Error = fmt.Sprintf("inference returned no usable boundaries: %v", err)
		})
	}
	layer.Color = "#ff6b35"
	layer.Description = fmt.Sprintf("%d fields, %.1fs processing, confidence %.0f%%",
		result.Metadata.FieldCount,
		float64(result.Metadata.ProcessingTime)/1000,
		result.Metadata.Confidence*100)

	added, err := s.layers.Add(layer)
	if err != nil {
		return s.finish(id, func(r *Region) {
			r.Status = RegionError
			r.Error = fmt.Sprintf("storing result layer: %v", err)
		})
	}

	s.log.Info("region generation completed",
		zap.String("region", id),
		zap.String("layer", added.ID),
		zap.Int("fieldCount", result.Metadata.FieldCount))
	return s.finish(id, func(r *Region) {
		r.Status = RegionCompleted
		r.ResultLayerID = added.ID
	})
}

// sourceImage picks the raster payload to send along: the layer the
// region was derived from, else the first visible raster whose extent
// contains the drawn rectangle.
func (s *RegionService) sourceImage(region *Region) string {
	if region.SourceLayerID != "" {
		if layer, ok := s.layers.Get(region.SourceLayerID); ok {
			return layer.ImageData
		}
	}
	if layer, ok := s.layers.FirstVisibleRaster(); ok && layer.Bounds.Contains(region.Bounds) {
		return layer.ImageData
	}
	return ""
}

func (s *RegionService) finish(id string, apply func(*Region)) *Region {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.regions {
		if r.ID == id {
			apply(r)
			s.bus.Publish(Event{Resource: "regions", Action: "status", ID: id})
			return snapshot(r)
		}
	}
	return nil
}

// snapshot copies a region so callers never see in-place mutations.
func snapshot(r *Region) *Region {
	cp := *r
	return &cp
}

func modelLabel(id string) string {
	if id == "" {
		return "default"
	}
	return id
}
