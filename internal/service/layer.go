package service

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// LayerStore manages the ordered collection of map layers. Order is
// significant: index 0 draws on top and heads the sidebar, and the
// order is fully user-controllable via Reorder.
type LayerStore struct {
	mu     sync.RWMutex
	layers []*Layer
	bus    *EventBus
}

// NewLayerStore creates an empty layer store publishing on bus.
func NewLayerStore(bus *EventBus) *LayerStore {
	return &LayerStore{bus: bus}
}

// Add validates and prepends a layer, assigning an ID and creation
// time if missing. New layers arrive visible at the top of the stack.
func (s *LayerStore) Add(layer *Layer) (*Layer, error) {
	if err := validatePayload(layer); err != nil {
		return nil, err
	}
	if layer.ID == "" {
		layer.ID = uuid.NewString()
	}
	if layer.CreatedAt.IsZero() {
		layer.CreatedAt = time.Now()
	}

	s.mu.Lock()
	for _, l := range s.layers {
		if l.ID == layer.ID {
			s.mu.Unlock()
			return nil, fmt.Errorf("layer with ID %q already exists", layer.ID)
		}
	}
	s.layers = append([]*Layer{layer}, s.layers...)
	s.mu.Unlock()

	s.bus.Publish(Event{Resource: "layers", Action: "created", ID: layer.ID})
	return layer, nil
}

// validatePayload enforces the payload/type invariant: raster layers
// carry image data only, vector layers a feature collection only.
func validatePayload(layer *Layer) error {
	hasImage := layer.ImageData != ""
	hasFeatures := layer.Features != nil
	switch layer.Type {
	case LayerRaster:
		if !hasImage || hasFeatures {
			return ErrMixedPayload
		}
	case LayerVector:
		if hasImage || !hasFeatures {
			return ErrMixedPayload
		}
	default:
		return fmt.Errorf("unknown layer type %q", layer.Type)
	}
	return nil
}

// Get returns a layer by ID.
func (s *LayerStore) Get(id string) (*Layer, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, l := range s.layers {
		if l.ID == id {
			return l, true
		}
	}
	return nil, false
}

// List returns the layers in display order.
func (s *LayerStore) List() []*Layer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Layer, len(s.layers))
	copy(out, s.layers)
	return out
}

// Remove deletes a layer by ID.
func (s *LayerStore) Remove(id string) error {
	s.mu.Lock()
	idx := -1
	for i, l := range s.layers {
		if l.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return ErrLayerNotFound
	}
	s.layers = append(s.layers[:idx], s.layers[idx+1:]...)
	s.mu.Unlock()

	s.bus.Publish(Event{Resource: "layers", Action: "deleted", ID: id})
	return nil
}

// ToggleVisibility flips a layer's visibility and returns the layer
// plus whether it was visible before the toggle. The hidden-to-visible
// transition is what the map view watches for auto-fit.
func (s *LayerStore) ToggleVisibility(id string) (layer *Layer, wasVisible bool, err error) {
	s.mu.Lock()
	for _, l := range s.layers {
		if l.ID == id {
			layer, wasVisible = l, l.Visible
			l.Visible = !l.Visible
			break
		}
	}
	s.mu.Unlock()

	if layer == nil {
		return nil, false, ErrLayerNotFound
	}
	s.bus.Publish(Event{Resource: "layers", Action: "updated", ID: id})
	return layer, wasVisible, nil
}

// Reorder replaces the display order with ids, which must be an exact
// permutation of the current layer ids.
func (s *LayerStore) Reorder(ids []string) error {
	s.mu.Lock()
	if len(ids) != len(s.layers) {
		s.mu.Unlock()
		return ErrNotPermutation
	}
	byID := make(map[string]*Layer, len(s.layers))
	for _, l := range s.layers {
		byID[l.ID] = l
	}
	next := make([]*Layer, 0, len(ids))
	for _, id := range ids {
		l, ok := byID[id]
		if !ok {
			s.mu.Unlock()
			return ErrNotPermutation
		}
		delete(byID, id) // catches duplicate ids in the request
		next = append(next, l)
	}
	s.layers = next
	s.mu.Unlock()

	s.bus.Publish(Event{Resource: "layers", Action: "reordered", ID: ""})
	return nil
}

// FirstVisibleRaster returns the topmost visible raster layer, used as
// the implicit region source when nothing has been drawn.
func (s *LayerStore) FirstVisibleRaster() (*Layer, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, l := range s.layers {
		if l.Type == LayerRaster && l.Visible {
			return l, true
		}
	}
	return nil, false
}

// Len returns the number of layers.
func (s *LayerStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.layers)
}
