package geotiff

// GeoKey IDs from the GeoTIFF spec.
const (
	gkModelType    = 1024
	gkGeographicCS = 2048
	gkProjectedCS  = 3072
)

// Model types.
const (
	modelProjected  = 1
	modelGeographic = 2
)

// GeoInfo holds the geographic placement metadata of a raster.
type GeoInfo struct {
	EPSG       int     // 0 when no CRS code is embedded
	OriginX    float64 // X of the upper-left corner in CRS units
	OriginY    float64 // Y of the upper-left corner in CRS units
	PixelSizeX float64 // pixel width in CRS units (positive)
	PixelSizeY float64 // pixel height in CRS units (positive)
}

// parseGeoInfo extracts placement metadata from an IFD.
func parseGeoInfo(ifd *IFD) GeoInfo {
	info := GeoInfo{}

	// ModelPixelScale: [ScaleX, ScaleY, ScaleZ]
	if len(ifd.ModelPixelScale) >= 2 {
		info.PixelSizeX = ifd.ModelPixelScale[0]
		info.PixelSizeY = ifd.ModelPixelScale[1]
	}

	// ModelTiepoint: [I, J, K, X, Y, Z] maps pixel (I,J) to world (X,Y).
	if len(ifd.ModelTiepoint) >= 6 {
		info.OriginX = ifd.ModelTiepoint[3] - ifd.ModelTiepoint[0]*info.PixelSizeX
		info.OriginY = ifd.ModelTiepoint[4] + ifd.ModelTiepoint[1]*info.PixelSizeY
	}

	info.EPSG = parseEPSG(ifd.GeoKeys)
	return info
}

// parseEPSG walks the GeoKey directory for the CRS code. The directory
// is a header of four shorts followed by 4-short entries; codes stored
// inline (location 0) are the EPSG value itself.
func parseEPSG(keys []uint16) int {
	if len(keys) < 4 {
		return 0
	}
	numKeys := int(keys[3])

	modelType := 0
	geographic := 0
	projected := 0

	for i := 0; i < numKeys; i++ {
		base := 4 + i*4
		if base+3 >= len(keys) {
			break
		}
		keyID := keys[base]
		location := keys[base+1]
		value := int(keys[base+3])
		if location != 0 {
			continue // value lives in another tag; not a bare code
		}
		switch keyID {
		case gkModelType:
			modelType = value
		case gkGeographicCS:
			geographic = value
		case gkProjectedCS:
			projected = value
		}
	}

	switch modelType {
	case modelProjected:
		return projected
	case modelGeographic:
		return geographic
	}
	if projected != 0 {
		return projected
	}
	return geographic
}

// NativeExtent returns the raster's bounding box in its native CRS,
// derived from the origin and pixel scale. ok is false when the file
// carries no placement metadata.
func (ds *Dataset) NativeExtent() (minX, minY, maxX, maxY float64, ok bool) {
	g := ds.Geo
	if g.PixelSizeX == 0 || g.PixelSizeY == 0 {
		return 0, 0, 0, 0, false
	}
	minX = g.OriginX
	maxX = g.OriginX + float64(ds.Width)*g.PixelSizeX
	maxY = g.OriginY
	minY = g.OriginY - float64(ds.Height)*g.PixelSizeY
	return minX, minY, maxX, maxY, true
}
