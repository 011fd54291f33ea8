package ingest

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/agromaps/fieldview/internal/crs"
	"github.com/agromaps/fieldview/internal/geotiff"
	"github.com/agromaps/fieldview/internal/service"
)

// raster parses a GeoTIFF, rasterizes it to a PNG image and
// normalizes its bounds to WGS84 for display.
func (ing *Ingestor) raster(path, name string) (*service.Layer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	ds, err := geotiff.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", name, err)
	}

	minX, minY, maxX, maxY, ok := ds.NativeExtent()
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, ErrNoGeoreference)
	}

	bounds, projected := crs.NormalizeBounds(crs.Extent{MinX: minX, MinY: minY, MaxX: maxX, MaxY: maxY}, ds.Geo.EPSG)
	if !projected {
		// Displayed position will be wrong but the layer stays usable.
		ing.log.Warn("unsupported CRS, keeping native bounds",
			zap.String("file", name),
			zap.Int("epsg", ds.Geo.EPSG))
	}

	img := geotiff.Rasterize(ds)
	imageData, err := geotiff.EncodePNGDataURL(img)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", name, err)
	}

	ing.log.Info("raster ingested",
		zap.String("file", name),
		zap.Int("width", ds.Width),
		zap.Int("height", ds.Height),
		zap.Int("bands", len(ds.Bands)),
		zap.Int("epsg", ds.Geo.EPSG))

	return &service.Layer{
		Name:        name,
		Type:        service.LayerRaster,
		Visible:     true,
		Bounds:      bounds,
		ImageData:   imageData,
		Description: fmt.Sprintf("%dx%d px, %d band(s), EPSG:%d", ds.Width, ds.Height, len(ds.Bands), ds.Geo.EPSG),
	}, nil
}
