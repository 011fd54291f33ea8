package crs

import (
	"math"

	"github.com/agromaps/fieldview/internal/service"
)

// Extent is a bounding box in a raster's native coordinate system,
// x/y order as stored in the file.
type Extent struct {
	MinX, MinY, MaxX, MaxY float64
}

// NormalizeBounds converts a native extent to WGS84 map bounds. An
// epsg of 0 (no embedded CRS) or 4326 means the native coordinates are
// already geographic and pass through unchanged. Unknown codes also
// pass through: ok is false, the caller surfaces a warning, and the
// layer stays usable even though its displayed position is off.
//
// Only the two corner points are reprojected, not the pixel grid. For
// a single scene the error is negligible and the cost stays O(1).
func NormalizeBounds(e Extent, epsg int) (bounds service.Bounds, ok bool) {
	if epsg == 0 || epsg == EPSGWGS84 {
		return service.NewBounds(e.MinY, e.MinX, e.MaxY, e.MaxX), true
	}

	proj := ForEPSG(epsg)
	if proj == nil {
		return service.NewBounds(e.MinY, e.MinX, e.MaxY, e.MaxX), false
	}

	lon1, lat1 := proj.ToWGS84(e.MinX, e.MinY)
	lon2, lat2 := proj.ToWGS84(e.MaxX, e.MaxY)

	return service.NewBounds(
		math.Min(lat1, lat2), math.Min(lon1, lon2),
		math.Max(lat1, lat2), math.Max(lon1, lon2),
	), true
}
