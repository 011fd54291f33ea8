// Package crs normalizes native raster coordinates into WGS84
// latitude/longitude for display on the map.
package crs

import "math"

const (
	// WGS84 ellipsoid.
	semiMajor  = 6378137.0
	flattening = 1 / 298.257223563
	// EPSG code for geographic WGS84.
	EPSGWGS84 = 4326
)

// Projection converts between a source CRS and WGS84.
type Projection interface {
	// ToWGS84 converts source CRS coordinates to WGS84 longitude/latitude (degrees).
	ToWGS84(x, y float64) (lon, lat float64)

	// FromWGS84 converts WGS84 longitude/latitude (degrees) to source CRS coordinates.
	FromWGS84(lon, lat float64) (x, y float64)

	// EPSG returns the EPSG code for this projection.
	EPSG() int
}

// ForEPSG returns a Projection for the given EPSG code, or nil if the
// code is not supported.
func ForEPSG(epsg int) Projection {
	switch {
	case epsg == EPSGWGS84:
		return &WGS84Identity{}
	case epsg == 3857:
		return &WebMercator{}
	case epsg >= 32601 && epsg <= 32660:
		return &UTM{Zone: epsg - 32600, South: false}
	case epsg >= 32701 && epsg <= 32760:
		return &UTM{Zone: epsg - 32700, South: true}
	default:
		return nil
	}
}

// WGS84Identity is a no-op projection for data already in EPSG:4326.
type WGS84Identity struct{}

func (w *WGS84Identity) ToWGS84(x, y float64) (lon, lat float64)   { return x, y }
func (w *WGS84Identity) FromWGS84(lon, lat float64) (x, y float64) { return lon, lat }
func (w *WGS84Identity) EPSG() int                                 { return EPSGWGS84 }

// WebMercator is EPSG:3857 spherical mercator.
type WebMercator struct{}

func (w *WebMercator) ToWGS84(x, y float64) (lon, lat float64) {
	lon = x / semiMajor * 180 / math.Pi
	lat = math.Atan(math.Sinh(y/semiMajor)) * 180 / math.Pi
	return lon, lat
}

func (w *WebMercator) FromWGS84(lon, lat float64) (x, y float64) {
	x = lon * math.Pi / 180 * semiMajor
	y = math.Log(math.Tan(math.Pi/4+lat*math.Pi/180/2)) * semiMajor
	return x, y
}

func (w *WebMercator) EPSG() int { return 3857 }
