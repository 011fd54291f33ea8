// Package service contains the state and business logic for fieldview:
// the layer store, region lifecycle, preferences and model catalog.
package service

import (
	"fmt"
	"time"

	"github.com/paulmach/orb/geojson"
)

// LayerType tags a layer as raster imagery or vector features.
type LayerType string

const (
	LayerRaster LayerType = "raster"
	LayerVector LayerType = "vector"
)

// Bounds is a geographic extent as [[south, west], [north, east]] in
// WGS84 degrees. This is the wire shape the map UI consumes directly.
type Bounds [2][2]float64

// NewBounds builds a Bounds from its four edges.
func NewBounds(south, west, north, east float64) Bounds {
	return Bounds{{south, west}, {north, east}}
}

func (b Bounds) South() float64 { return b[0][0] }
func (b Bounds) West() float64  { return b[0][1] }
func (b Bounds) North() float64 { return b[1][0] }
func (b Bounds) East() float64  { return b[1][1] }

// Valid reports whether the bounds are well-formed: south < north,
// west < east, and all edges within valid latitude/longitude ranges.
func (b Bounds) Valid() bool {
	if b.South() >= b.North() || b.West() >= b.East() {
		return false
	}
	if b.South() < -90 || b.North() > 90 {
		return false
	}
	if b.West() < -180 || b.East() > 180 {
		return false
	}
	return true
}

// Contains reports whether other lies entirely within b, with a small
// tolerance for floating-point noise from reprojection.
func (b Bounds) Contains(other Bounds) bool {
	const eps = 1e-9
	return other.South() >= b.South()-eps && other.North() <= b.North()+eps &&
		other.West() >= b.West()-eps && other.East() <= b.East()+eps
}

func (b Bounds) String() string {
	return fmt.Sprintf("[[%g, %g], [%g, %g]]", b.South(), b.West(), b.North(), b.East())
}

// FeatureMeta is a lightweight bound index for one geometry inside a
// vector layer, so the UI can click-to-navigate without re-reading the
// full geometry.
type FeatureMeta struct {
	ID     string  `json:"id" doc:"Feature identifier within the layer"`
	Name   string  `json:"name" doc:"Display name" example:"Feature 1"`
	Bounds Bounds  `json:"bounds" doc:"Tight geographic bounds of the feature"`
	AreaM2 float64 `json:"areaM2,omitempty" doc:"Geodesic area in square meters (polygonal features)"`
}

// Layer is one displayable unit on the map: either raster imagery with
// an encoded bitmap, or a vector feature collection. Exactly one of
// ImageData / Features is populated, matching Type.
type Layer struct {
	ID          string                     `json:"id" doc:"Unique layer identifier"`
	Name        string                     `json:"name" doc:"Display name" example:"fields"`
	Type        LayerType                  `json:"type" enum:"raster,vector" doc:"Layer kind"`
	Color       string                     `json:"color,omitempty" doc:"Display color (CSS)" example:"#3388ff"`
	Description string                     `json:"description,omitempty" doc:"Free-text description"`
	Visible     bool                       `json:"visible" doc:"Whether the layer is currently shown"`
	Bounds      Bounds                     `json:"bounds" doc:"Geographic bounds [[south,west],[north,east]]"`
	ImageData   string                     `json:"imageData,omitempty" doc:"PNG data URL (raster layers only)"`
	Features    *geojson.FeatureCollection `json:"features,omitempty" doc:"Feature collection (vector layers only)"`
	FeatureMeta []FeatureMeta              `json:"featureMeta,omitempty" doc:"Per-feature bound index"`
	CreatedAt   time.Time                  `json:"createdAt" doc:"Creation time"`
}

// RegionStatus is the lifecycle state of a generation region.
type RegionStatus string

const (
	RegionPending    RegionStatus = "pending"
	RegionProcessing RegionStatus = "processing"
	RegionCompleted  RegionStatus = "completed"
	RegionError      RegionStatus = "error"
)

// Terminal reports whether the status admits no further transitions.
func (s RegionStatus) Terminal() bool {
	return s == RegionCompleted || s == RegionError
}

// Region is a rectangular extent submitted (or about to be submitted)
// for field-boundary inference. Once a region reaches a terminal status
// it is never mutated again, only removed.
type Region struct {
	ID            string       `json:"id" doc:"Unique region identifier"`
	Bounds        Bounds       `json:"bounds" doc:"Geographic bounds [[south,west],[north,east]]"`
	Status        RegionStatus `json:"status" enum:"pending,processing,completed,error" doc:"Lifecycle state"`
	ModelID       string       `json:"modelId,omitempty" doc:"Inference model identifier"`
	SourceLayerID string       `json:"sourceLayerId,omitempty" doc:"Raster layer the region was derived from"`
	ResultLayerID string       `json:"resultLayerId,omitempty" doc:"Vector layer produced by inference"`
	Error         string       `json:"error,omitempty" doc:"Failure message for status=error"`
	CreatedAt     time.Time    `json:"createdAt" doc:"Creation time"`
}

// Model describes one selectable inference model.
type Model struct {
	ID          string `json:"id" yaml:"id" doc:"Model identifier" example:"delineate-v1"`
	Name        string `json:"name" yaml:"name" doc:"Display name" example:"Delineate v1"`
	Description string `json:"description,omitempty" yaml:"description,omitempty" doc:"What the model is good at"`
}

// Prefs holds the UI preferences persisted across sessions: sidebar
// collapse state, which layer cards are expanded, and the last model
// the user picked.
type Prefs struct {
	SidebarCollapsed bool     `json:"sidebarCollapsed" doc:"Whether the sidebar is collapsed"`
	ExpandedLayers   []string `json:"expandedLayers,omitempty" doc:"IDs of expanded layer cards"`
	SelectedModel    string   `json:"selectedModel,omitempty" doc:"Last selected model ID"`
}
