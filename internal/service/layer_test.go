package service

import (
	"errors"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

func testRaster(name string) *Layer {
	return &Layer{
		Name:      name,
		Type:      LayerRaster,
		Visible:   true,
		Bounds:    NewBounds(47.0, 7.0, 48.0, 8.0),
		ImageData: "data:image/png;base64,iVBOR",
	}
}

func testVector(name string) *Layer {
	fc := geojson.NewFeatureCollection()
	fc.Append(geojson.NewFeature(orb.Point{7.5, 47.5}))
	return &Layer{
		Name:     name,
		Type:     LayerVector,
		Visible:  true,
		Bounds:   NewBounds(47.0, 7.0, 48.0, 8.0),
		Features: fc,
	}
}

func TestLayerStoreAddPrepends(t *testing.T) {
	s := NewLayerStore(NewEventBus())

	first, err := s.Add(testRaster("first"))
	if err != nil {
		t.Fatal(err)
	}
	second, err := s.Add(testVector("second"))
	if err != nil {
		t.Fatal(err)
	}

	if first.ID == "" || second.ID == "" {
		t.Fatal("expected IDs to be assigned")
	}
	list := s.List()
	if len(list) != 2 {
		t.Fatalf("len=%d, want 2", len(list))
	}
	if list[0].Name != "second" || list[1].Name != "first" {
		t.Fatalf("order=[%s %s], want newest first", list[0].Name, list[1].Name)
	}
}

func TestLayerStorePayloadInvariant(t *testing.T) {
	s := NewLayerStore(NewEventBus())

	raster := testRaster("bad")
	raster.Features = geojson.NewFeatureCollection()
	if _, err := s.Add(raster); !errors.Is(err, ErrMixedPayload) {
		t.Fatalf("raster with features: err=%v, want ErrMixedPayload", err)
	}

	vector := testVector("bad")
	vector.Features = nil
	if _, err := s.Add(vector); !errors.Is(err, ErrMixedPayload) {
		t.Fatalf("vector without features: err=%v, want ErrMixedPayload", err)
	}
}

func TestLayerStoreRemove(t *testing.T) {
	s := NewLayerStore(NewEventBus())
	layer, _ := s.Add(testRaster("doomed"))

	if err := s.Remove(layer.ID); err != nil {
		t.Fatal(err)
	}
	if s.Len() != 0 {
		t.Fatalf("len=%d after remove, want 0", s.Len())
	}
	if err := s.Remove(layer.ID); !errors.Is(err, ErrLayerNotFound) {
		t.Fatalf("second remove: err=%v, want ErrLayerNotFound", err)
	}
}

func TestToggleVisibilityReportsPriorState(t *testing.T) {
	s := NewLayerStore(NewEventBus())
	layer, _ := s.Add(testRaster("toggle"))

	got, wasVisible, err := s.ToggleVisibility(layer.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !wasVisible || got.Visible {
		t.Fatalf("first toggle: wasVisible=%v visible=%v, want true false", wasVisible, got.Visible)
	}

	got, wasVisible, err = s.ToggleVisibility(layer.ID)
	if err != nil {
		t.Fatal(err)
	}
	if wasVisible || !got.Visible {
		t.Fatalf("second toggle: wasVisible=%v visible=%v, want false true", wasVisible, got.Visible)
	}

	if _, _, err := s.ToggleVisibility("nope"); !errors.Is(err, ErrLayerNotFound) {
		t.Fatalf("unknown id: err=%v, want ErrLayerNotFound", err)
	}
}

func TestReorderRequiresExactPermutation(t *testing.T) {
	s := NewLayerStore(NewEventBus())
	a, _ := s.Add(testRaster("a"))
	b, _ := s.Add(testVector("b"))
	c, _ := s.Add(testRaster("c"))

	if err := s.Reorder([]string{a.ID, c.ID, b.ID}); err != nil {
		t.Fatal(err)
	}
	list := s.List()
	if list[0].ID != a.ID || list[1].ID != c.ID || list[2].ID != b.ID {
		t.Fatal("reorder did not apply the requested order")
	}

	cases := map[string][]string{
		"too short":  {a.ID, b.ID},
		"unknown id": {a.ID, b.ID, "ghost"},
		"duplicate":  {a.ID, a.ID, b.ID},
	}
	for name, ids := range cases {
		if err := s.Reorder(ids); !errors.Is(err, ErrNotPermutation) {
			t.Fatalf("%s: err=%v, want ErrNotPermutation", name, err)
		}
	}

	// A rejected reorder must not disturb the current order.
	list = s.List()
	if list[0].ID != a.ID || list[1].ID != c.ID || list[2].ID != b.ID {
		t.Fatal("failed reorder mutated the layer order")
	}
}

func TestFirstVisibleRasterSkipsHiddenAndVector(t *testing.T) {
	s := NewLayerStore(NewEventBus())

	if _, ok := s.FirstVisibleRaster(); ok {
		t.Fatal("empty store reported a visible raster")
	}

	raster, _ := s.Add(testRaster("imagery"))
	s.Add(testVector("fields")) // on top, but vector

	got, ok := s.FirstVisibleRaster()
	if !ok || got.ID != raster.ID {
		t.Fatalf("got=%v ok=%v, want the raster layer", got, ok)
	}

	s.ToggleVisibility(raster.ID)
	if _, ok := s.FirstVisibleRaster(); ok {
		t.Fatal("hidden raster still reported")
	}
}

func TestBoundsValid(t *testing.T) {
	cases := []struct {
		name   string
		bounds Bounds
		want   bool
	}{
		{"normal", NewBounds(47, 7, 48, 8), true},
		{"inverted lat", NewBounds(48, 7, 47, 8), false},
		{"inverted lon", NewBounds(47, 8, 48, 7), false},
		{"degenerate", NewBounds(47, 7, 47, 8), false},
		{"south out of range", NewBounds(-91, 7, 48, 8), false},
		{"east out of range", NewBounds(47, 7, 48, 181), false},
		{"whole world", NewBounds(-90, -180, 90, 180), true},
	}
	for _, tc := range cases {
		if got := tc.bounds.Valid(); got != tc.want {
			t.Errorf("%s: Valid()=%v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestBoundsContains(t *testing.T) {
	outer := NewBounds(47, 7, 48, 8)
	if !outer.Contains(NewBounds(47.2, 7.2, 47.8, 7.8)) {
		t.Fatal("inner rectangle not contained")
	}
	if !outer.Contains(outer) {
		t.Fatal("bounds should contain themselves")
	}
	if outer.Contains(NewBounds(46.5, 7.2, 47.8, 7.8)) {
		t.Fatal("rectangle poking south reported as contained")
	}
}
