package api

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"

	"github.com/agromaps/fieldview/internal/inference"
	"github.com/agromaps/fieldview/internal/ingest"
	"github.com/agromaps/fieldview/internal/service"
)

type stubDelineator struct{}

func (stubDelineator) Delineate(ctx context.Context, req inference.Request) (*inference.Result, error) {
	fc := geojson.NewFeatureCollection()
	fc.Append(geojson.NewFeature(orb.Polygon{{
		{7.0, 47.0}, {7.1, 47.0}, {7.1, 47.1}, {7.0, 47.0},
	}}))
	return &inference.Result{
		Boundaries: fc,
		Metadata:   inference.Metadata{FieldCount: 1, Confidence: 0.9},
	}, nil
}

func newTestAPI(t *testing.T) (humatest.TestAPI, *Services) {
	t.Helper()
	bus := service.NewEventBus()
	layers := service.NewLayerStore(bus)
	models := service.NewModelCatalog(t.TempDir())
	svc := &Services{
		Layers:  layers,
		Regions: service.NewRegionService(layers, models, stubDelineator{}, bus, zap.NewNop()),
		Models:  models,
		Prefs:   service.NewPrefsService(t.TempDir()),
		Uploads: service.NewUploadService(t.TempDir()),
		Ingest:  ingest.New(zap.NewNop()),
	}

	_, api := humatest.New(t)
	NewAPIHandler(svc, zap.NewNop()).RegisterRoutes(api)
	return api, svc
}

func addRaster(t *testing.T, svc *Services) *service.Layer {
	t.Helper()
	layer, err := svc.Layers.Add(&service.Layer{
		Name:      "scene",
		Type:      service.LayerRaster,
		Visible:   true,
		Bounds:    service.NewBounds(47.0, 7.0, 48.0, 8.0),
		ImageData: "data:image/png;base64,iVBOR",
	})
	if err != nil {
		t.Fatal(err)
	}
	return layer
}

func TestHealthRoute(t *testing.T) {
	api, _ := newTestAPI(t)
	resp := api.Get("/health")
	if resp.Code != http.StatusOK {
		t.Fatalf("status=%d, want 200", resp.Code)
	}
}

func TestLayerRoutes(t *testing.T) {
	api, svc := newTestAPI(t)
	layer := addRaster(t, svc)

	resp := api.Get("/api/v1/layers")
	if resp.Code != http.StatusOK {
		t.Fatalf("list: status=%d", resp.Code)
	}
	var listed []service.Layer
	if err := json.Unmarshal(resp.Body.Bytes(), &listed); err != nil {
		t.Fatal(err)
	}
	if len(listed) != 1 || listed[0].ID != layer.ID {
		t.Fatalf("listed=%+v", listed)
	}

	if resp := api.Get("/api/v1/layers/" + layer.ID); resp.Code != http.StatusOK {
		t.Fatalf("get: status=%d", resp.Code)
	}
	if resp := api.Get("/api/v1/layers/nope"); resp.Code != http.StatusNotFound {
		t.Fatalf("get missing: status=%d, want 404", resp.Code)
	}

	if resp := api.Delete("/api/v1/layers/" + layer.ID); resp.Code != http.StatusOK {
		t.Fatalf("delete: status=%d", resp.Code)
	}
	if resp := api.Delete("/api/v1/layers/" + layer.ID); resp.Code != http.StatusNotFound {
		t.Fatalf("delete again: status=%d, want 404", resp.Code)
	}
}

func TestToggleVisibilityAutoFit(t *testing.T) {
	api, svc := newTestAPI(t)
	layer := addRaster(t, svc)

	// Visible -> hidden: no auto-fit hint.
	resp := api.Post("/api/v1/layers/"+layer.ID+"/visibility", map[string]any{})
	if resp.Code != http.StatusOK {
		t.Fatalf("status=%d", resp.Code)
	}
	var body VisibilityBody
	json.Unmarshal(resp.Body.Bytes(), &body)
	if body.AutoFit != nil {
		t.Fatal("hiding a layer produced an auto-fit hint")
	}

	// Hidden -> visible: the map should re-center.
	resp = api.Post("/api/v1/layers/"+layer.ID+"/visibility", map[string]any{})
	json.Unmarshal(resp.Body.Bytes(), &body)
	if body.AutoFit == nil {
		t.Fatal("revealing a layer produced no auto-fit hint")
	}
	if *body.AutoFit != layer.Bounds {
		t.Fatalf("autoFit=%v, want %v", *body.AutoFit, layer.Bounds)
	}
}

func TestReorderRoute(t *testing.T) {
	api, svc := newTestAPI(t)
	a := addRaster(t, svc)
	b := addRaster(t, svc)

	resp := api.Put("/api/v1/layers/order", map[string]any{
		"ids": []string{a.ID, b.ID},
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("status=%d: %s", resp.Code, resp.Body.String())
	}

	resp = api.Put("/api/v1/layers/order", map[string]any{
		"ids": []string{a.ID},
	})
	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("partial reorder: status=%d, want 422", resp.Code)
	}
}

func TestRegionRoutes(t *testing.T) {
	api, _ := newTestAPI(t)

	// No drawn bounds and no raster layer to fall back to.
	resp := api.Post("/api/v1/regions", map[string]any{})
	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("no source: status=%d, want 422", resp.Code)
	}

	resp = api.Post("/api/v1/regions", map[string]any{
		"bounds":  [][]float64{{47.0, 7.0}, {47.5, 7.5}},
		"modelId": "delineate-v1",
	})
	if resp.Code != http.StatusOK && resp.Code != http.StatusCreated {
		t.Fatalf("create: status=%d: %s", resp.Code, resp.Body.String())
	}
	var region service.Region
	if err := json.Unmarshal(resp.Body.Bytes(), &region); err != nil {
		t.Fatal(err)
	}
	if region.Status != service.RegionPending {
		t.Fatalf("status=%q, want pending", region.Status)
	}

	if resp := api.Get("/api/v1/regions/" + region.ID); resp.Code != http.StatusOK {
		t.Fatalf("get: status=%d", resp.Code)
	}

	resp = api.Post("/api/v1/regions", map[string]any{
		"bounds": [][]float64{{47.5, 7.0}, {47.0, 7.5}}, // inverted
	})
	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("inverted bounds: status=%d, want 422", resp.Code)
	}

	resp = api.Post("/api/v1/regions", map[string]any{
		"bounds":  [][]float64{{47.0, 7.0}, {47.5, 7.5}},
		"modelId": "no-such-model",
	})
	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("unknown model: status=%d, want 422", resp.Code)
	}
}

func TestModelsRoute(t *testing.T) {
	api, _ := newTestAPI(t)
	resp := api.Get("/api/v1/models")
	if resp.Code != http.StatusOK {
		t.Fatalf("status=%d", resp.Code)
	}
	var models []service.Model
	if err := json.Unmarshal(resp.Body.Bytes(), &models); err != nil {
		t.Fatal(err)
	}
	if len(models) != 3 {
		t.Fatalf("models=%d, want the built-in 3", len(models))
	}
}

func TestPrefsRoutes(t *testing.T) {
	api, _ := newTestAPI(t)

	resp := api.Put("/api/v1/prefs", map[string]any{
		"sidebarCollapsed": true,
		"selectedModel":    "delineate-hd",
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("put: status=%d: %s", resp.Code, resp.Body.String())
	}

	resp = api.Get("/api/v1/prefs")
	var prefs service.Prefs
	if err := json.Unmarshal(resp.Body.Bytes(), &prefs); err != nil {
		t.Fatal(err)
	}
	if !prefs.SidebarCollapsed || prefs.SelectedModel != "delineate-hd" {
		t.Fatalf("prefs=%+v", prefs)
	}
}
