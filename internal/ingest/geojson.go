package ingest

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"

	"github.com/agromaps/fieldview/internal/service"
)

// geoJSON parses a .geojson/.json upload. The top-level "type"
// discriminant is validated explicitly before decoding: a Feature is
// wrapped into a single-feature collection, a FeatureCollection is
// taken as-is, anything else fails.
func (ing *Ingestor) geoJSON(path, name string) (*service.Layer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", name, err)
	}

	var fc *geojson.FeatureCollection
	switch head.Type {
	case "FeatureCollection":
		fc, err = geojson.UnmarshalFeatureCollection(data)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", name, err)
		}
	case "Feature":
		f, err := geojson.UnmarshalFeature(data)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", name, err)
		}
		fc = geojson.NewFeatureCollection()
		fc.Append(f)
	default:
		return nil, fmt.Errorf("%s: %w (got type %q)", name, ErrNotFeatureJSON, head.Type)
	}

	if len(fc.Features) == 0 {
		return nil, fmt.Errorf("%s: %w", name, ErrNoFeatures)
	}

	layer, err := service.NewVectorLayer(name, fc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	layer.Color = "#3388ff"

	ing.log.Info("vector ingested",
		zap.String("file", name),
		zap.Int("features", len(fc.Features)))
	return layer, nil
}
