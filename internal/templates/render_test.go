package templates

import (
	"strings"
	"testing"

	"github.com/agromaps/fieldview/internal/service"
)

func TestRenderLayerCard(t *testing.T) {
	r, err := New()
	if err != nil {
		t.Fatal(err)
	}

	layer := &service.Layer{
		ID:      "abc",
		Name:    "fields",
		Type:    service.LayerVector,
		Color:   "#3388ff",
		Visible: true,
	}
	html, err := r.Render("layer-card", layer)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`id="layer-abc"`, "fields", "Hide"} {
		if !strings.Contains(html, want) {
			t.Fatalf("rendered card missing %q:\n%s", want, html)
		}
	}

	layer.Visible = false
	html, _ = r.Render("layer-card", layer)
	if !strings.Contains(html, "Show") || !strings.Contains(html, "layer-hidden") {
		t.Fatalf("hidden card wrong:\n%s", html)
	}
}

func TestRenderRegionCard(t *testing.T) {
	r, err := New()
	if err != nil {
		t.Fatal(err)
	}

	region := &service.Region{ID: "r1", Status: service.RegionPending}
	html, err := r.Render("region-card", region)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(html, "Generate") {
		t.Fatalf("pending card has no generate button:\n%s", html)
	}

	region.Status = service.RegionError
	region.Error = "inference timed out"
	html, _ = r.Render("region-card", region)
	if strings.Contains(html, "Generate") {
		t.Fatal("terminal card still offers generate")
	}
	if !strings.Contains(html, "inference timed out") {
		t.Fatalf("error message missing:\n%s", html)
	}
}

func TestRenderEmptyState(t *testing.T) {
	r, err := New()
	if err != nil {
		t.Fatal(err)
	}
	html, err := r.Render("empty-state", map[string]string{
		"Title": "No layers", "Message": "Upload something",
	})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(html, "No layers") || !strings.Contains(html, "Upload something") {
		t.Fatalf("empty state wrong:\n%s", html)
	}
}
