// Package ingest turns uploaded spatial files into map layers:
// GeoTIFF rasters, GeoJSON feature collections and GeoPackage
// containers.
package ingest

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/agromaps/fieldview/internal/service"
)

var (
	// ErrUnsupportedExtension rejects files outside the accepted set.
	ErrUnsupportedExtension = errors.New("unsupported file extension")
	// ErrNotFeatureJSON rejects JSON whose type discriminant is neither
	// Feature nor FeatureCollection.
	ErrNotFeatureJSON = errors.New("JSON is not a Feature or FeatureCollection")
	// ErrNoFeatures rejects containers with nothing extractable.
	ErrNoFeatures = errors.New("no extractable features")
	// ErrNoGeoreference rejects rasters without placement metadata.
	ErrNoGeoreference = errors.New("raster has no georeferencing information")
)

// Ingestor parses uploaded files into layers.
type Ingestor struct {
	log *zap.Logger
}

// New creates an ingestor.
func New(log *zap.Logger) *Ingestor {
	return &Ingestor{log: log}
}

// File ingests the file at path, dispatching on its extension. Raster
// files yield exactly one layer; a GeoPackage yields one layer per
// non-empty feature table.
func (ing *Ingestor) File(path string) ([]*service.Layer, error) {
	base := layerBaseName(path)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tif", ".tiff":
		layer, err := ing.raster(path, base)
		if err != nil {
			return nil, err
		}
		return []*service.Layer{layer}, nil
	case ".geojson", ".json":
		layer, err := ing.geoJSON(path, base)
		if err != nil {
			return nil, err
		}
		return []*service.Layer{layer}, nil
	case ".gpkg":
		return ing.geoPackage(path, base)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedExtension, filepath.Ext(path))
	}
}

// layerBaseName derives the display name from the file name without
// its extension: fields.geojson -> "fields".
func layerBaseName(path string) string {
	name := filepath.Base(path)
	return strings.TrimSuffix(name, filepath.Ext(name))
}
