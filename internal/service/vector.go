package service

import (
	"errors"
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/geojson"
)

// ErrNoFeatures signals a feature collection with nothing to display.
var ErrNoFeatures = errors.New("no features in collection")

// NewVectorLayer builds a vector layer from a feature collection,
// computing the per-feature bound index and the overall layer bounds.
// Collections with zero features are rejected rather than producing an
// empty layer.
func NewVectorLayer(name string, fc *geojson.FeatureCollection) (*Layer, error) {
	if fc == nil || len(fc.Features) == 0 {
		return nil, ErrNoFeatures
	}

	var union orb.Bound
	meta := make([]FeatureMeta, 0, len(fc.Features))
	for i, f := range fc.Features {
		if f.Geometry == nil {
			return nil, fmt.Errorf("feature %d has no geometry", i)
		}
		b := f.Geometry.Bound()
		if i == 0 {
			union = b
		} else {
			union = union.Union(b)
		}
		meta = append(meta, FeatureMeta{
			ID:     fmt.Sprintf("%d", i),
			Name:   featureName(f, i),
			Bounds: boundsFromOrb(b),
			AreaM2: featureArea(f.Geometry),
		})
	}

	return &Layer{
		Name:        name,
		Type:        LayerVector,
		Visible:     true,
		Bounds:      boundsFromOrb(union),
		Features:    fc,
		FeatureMeta: meta,
	}, nil
}

// featureName derives a stable display name: the "name" property, then
// the "id" property, then the feature ID, then a positional label.
func featureName(f *geojson.Feature, index int) string {
	if v, ok := f.Properties["name"]; ok {
		if s := stringify(v); s != "" {
			return s
		}
	}
	if v, ok := f.Properties["id"]; ok {
		if s := stringify(v); s != "" {
			return s
		}
	}
	if f.ID != nil {
		if s := stringify(f.ID); s != "" {
			return s
		}
	}
	return fmt.Sprintf("Feature %d", index+1)
}

func stringify(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return fmt.Sprintf("%g", x)
	case int:
		return fmt.Sprintf("%d", x)
	default:
		return ""
	}
}

// featureArea returns the geodesic area of polygonal geometries, 0 for
// points and lines.
func featureArea(g orb.Geometry) float64 {
	switch g.(type) {
	case orb.Polygon, orb.MultiPolygon:
		return math.Abs(geo.Area(g))
	default:
		return 0
	}
}

// boundsFromOrb converts an orb bound (lon/lat order) to the
// [[south,west],[north,east]] shape the UI uses.
func boundsFromOrb(b orb.Bound) Bounds {
	return NewBounds(b.Min[1], b.Min[0], b.Max[1], b.Max[0])
}
