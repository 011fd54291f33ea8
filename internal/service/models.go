package service

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// defaultModels is the built-in catalog, matching the model ids the
// delineation backend understands.
var defaultModels = []Model{
	{ID: "delineate-v1", Name: "Delineate v1", Description: "General-purpose field boundary model"},
	{ID: "delineate-v2", Name: "Delineate v2", Description: "Improved boundary merging for dense parcels"},
	{ID: "delineate-hd", Name: "Delineate HD", Description: "Smaller model tuned for high-resolution scenes"},
}

// ModelCatalog lists the inference models a region can be generated
// with. A models.yaml in the data dir overrides the built-in list.
type ModelCatalog struct {
	models []Model
}

// NewModelCatalog loads the catalog, preferring dataDir/models.yaml.
func NewModelCatalog(dataDir string) *ModelCatalog {
	c := &ModelCatalog{models: defaultModels}

	data, err := os.ReadFile(filepath.Join(dataDir, "models.yaml"))
	if err != nil {
		return c
	}
	var file struct {
		Models []Model `yaml:"models"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil || len(file.Models) == 0 {
		return c
	}
	c.models = file.Models
	return c
}

// List returns the available models.
func (c *ModelCatalog) List() []Model {
	out := make([]Model, len(c.models))
	copy(out, c.models)
	return out
}

// Has reports whether id names a known model.
func (c *ModelCatalog) Has(id string) bool {
	for _, m := range c.models {
		if m.ID == id {
			return true
		}
	}
	return false
}

// Default returns the first model's id, or empty when the catalog is
// empty.
func (c *ModelCatalog) Default() string {
	if len(c.models) == 0 {
		return ""
	}
	return c.models[0].ID
}
