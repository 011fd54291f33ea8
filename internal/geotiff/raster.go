package geotiff

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
)

// Rasterize converts the dataset into a displayable RGB image. Band 1
// maps to red, band 2 to green and band 3 to blue; with fewer than
// three bands the missing channels replicate band 1 (grayscale
// fallback). Float samples are scaled by 255, integer samples pass
// through; both are clamped to [0,255]. Alpha is fully opaque.
func Rasterize(ds *Dataset) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, ds.Width, ds.Height))

	r := ds.Bands[0]
	g := r
	b := r
	if len(ds.Bands) > 1 {
		g = ds.Bands[1]
	}
	if len(ds.Bands) > 2 {
		b = ds.Bands[2]
	}

	for i := 0; i < ds.Width*ds.Height; i++ {
		img.SetNRGBA(i%ds.Width, i/ds.Width, color.NRGBA{
			R: toByte(r[i], ds.FloatSamples),
			G: toByte(g[i], ds.FloatSamples),
			B: toByte(b[i], ds.FloatSamples),
			A: 255,
		})
	}
	return img
}

func toByte(v float64, isFloat bool) uint8 {
	if isFloat {
		v *= 255
	}
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// EncodePNGDataURL renders the image as a base64 PNG data URL, the
// form the browser map binds directly to an image overlay.
func EncodePNGDataURL(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
