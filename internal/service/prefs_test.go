package service

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestPrefsRoundTrip(t *testing.T) {
	dir := t.TempDir()

	svc := NewPrefsService(dir)
	if got := svc.Get(); got.SidebarCollapsed || got.SelectedModel != "" {
		t.Fatalf("fresh prefs=%+v, want zero value", got)
	}

	want := Prefs{
		SidebarCollapsed: true,
		ExpandedLayers:   []string{"a", "b"},
		SelectedModel:    "delineate-v2",
	}
	if _, err := svc.Put(want); err != nil {
		t.Fatal(err)
	}

	// A fresh service sees the persisted state.
	again := NewPrefsService(dir)
	got := again.Get()
	if got.SidebarCollapsed != want.SidebarCollapsed || got.SelectedModel != want.SelectedModel {
		t.Fatalf("reloaded prefs=%+v, want %+v", got, want)
	}
	if len(got.ExpandedLayers) != 2 {
		t.Fatalf("expandedLayers=%v, want [a b]", got.ExpandedLayers)
	}
}

func TestPrefsIgnoresCorruptFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "prefs.json"), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	svc := NewPrefsService(dir)
	if got := svc.Get(); got.SidebarCollapsed {
		t.Fatalf("prefs=%+v, want defaults on corrupt file", got)
	}
}

func TestModelCatalogOverride(t *testing.T) {
	dir := t.TempDir()
	yaml := "models:\n  - id: custom-1\n    name: Custom\n"
	if err := os.WriteFile(filepath.Join(dir, "models.yaml"), []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	c := NewModelCatalog(dir)
	if !c.Has("custom-1") || c.Has("delineate-v1") {
		t.Fatalf("models=%v, want only the override", c.List())
	}
	if c.Default() != "custom-1" {
		t.Fatalf("default=%q, want custom-1", c.Default())
	}

	builtin := NewModelCatalog(t.TempDir())
	if !builtin.Has("delineate-v1") || !builtin.Has("delineate-v2") || !builtin.Has("delineate-hd") {
		t.Fatalf("builtin catalog=%v, missing defaults", builtin.List())
	}
}

func TestUploadServiceSaveListDelete(t *testing.T) {
	svc := NewUploadService(t.TempDir())

	path, err := svc.Save("fields.geojson", strings.NewReader(`{"type":"FeatureCollection","features":[]}`))
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(path) != "fields.geojson" {
		t.Fatalf("saved path=%q", path)
	}

	for _, bad := range []string{"", "../escape.geojson", "a/b.geojson", "notes.txt"} {
		if _, err := svc.Save(bad, strings.NewReader("x")); err == nil {
			t.Fatalf("Save(%q) accepted", bad)
		}
	}

	files, err := svc.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 || files[0].Name != "fields.geojson" || files[0].FileType != "GeoJSON" {
		t.Fatalf("files=%+v", files)
	}

	if err := svc.Delete("fields.geojson"); err != nil {
		t.Fatal(err)
	}
	if err := svc.Delete("fields.geojson"); err == nil {
		t.Fatal("second delete succeeded")
	}
}
