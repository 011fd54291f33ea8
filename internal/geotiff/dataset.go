package geotiff

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// Dataset is a fully decoded raster: dimensions, per-band samples as
// float64 (row-major, Width*Height each), and the geographic metadata
// needed to place it on a map.
type Dataset struct {
	Width, Height int
	Bands         [][]float64
	FloatSamples  bool // true when native samples were floating point
	Geo           GeoInfo
}

// maxDimension bounds a single raster edge. Above this the pixel
// count can no longer be multiplied safely, and nothing that large
// belongs in a browser overlay anyway.
const maxDimension = 1 << 20

// maxExpansion is the most a deflate segment is allowed to blow up
// relative to the file size before the claimed dimensions are treated
// as a lie.
const maxExpansion = 1024

// maxSamples bounds the decoded raster held in memory, eight bytes
// per sample across all bands.
const maxSamples = 1 << 27

// Parse decodes a GeoTIFF from memory. Only the first image directory
// is used; overviews and masks in later IFDs are ignored.
func Parse(data []byte) (*Dataset, error) {
	ifds, bo, err := parseTIFF(data)
	if err != nil {
		return nil, err
	}
	ifd := &ifds[0]

	if ifd.Width <= 0 || ifd.Height <= 0 || ifd.Width > maxDimension || ifd.Height > maxDimension {
		return nil, fmt.Errorf("invalid dimensions %dx%d", ifd.Width, ifd.Height)
	}
	if ifd.SamplesPerPixel <= 0 {
		return nil, fmt.Errorf("%w: no samples per pixel", ErrUnsupportedSample)
	}

	bits := bitsFor(ifd, 0)
	format := formatFor(ifd, 0)
	for b := 1; b < ifd.SamplesPerPixel; b++ {
		if bitsFor(ifd, b) != bits || formatFor(ifd, b) != format {
			return nil, fmt.Errorf("%w: bands differ in depth or format", ErrUnsupportedSample)
		}
	}
	if err := checkSampleLayout(bits, format); err != nil {
		return nil, err
	}
	if err := checkPredictor(ifd.Predictor, bits, format); err != nil {
		return nil, err
	}

	// The file must plausibly hold the samples it claims, even at
	// extreme compression ratios; dimensions come straight from
	// untrusted tag data.
	samples := int64(ifd.Width) * int64(ifd.Height) * int64(ifd.SamplesPerPixel)
	if samples > maxSamples {
		return nil, fmt.Errorf("raster too large: %dx%d with %d bands", ifd.Width, ifd.Height, ifd.SamplesPerPixel)
	}
	if samples*int64(bits/8) > int64(len(data))*maxExpansion {
		return nil, fmt.Errorf("%w: %dx%d raster larger than file contents", ErrTruncated, ifd.Width, ifd.Height)
	}

	ds := &Dataset{
		Width:        ifd.Width,
		Height:       ifd.Height,
		FloatSamples: format == sampleFloat,
		Geo:          parseGeoInfo(ifd),
	}
	ds.Bands = make([][]float64, ifd.SamplesPerPixel)
	for b := range ds.Bands {
		ds.Bands[b] = make([]float64, ifd.Width*ifd.Height)
	}

	dec := &decoder{data: data, bo: bo, ifd: ifd, bits: bits, format: format, ds: ds}
	if len(ifd.TileOffsets) > 0 {
		err = dec.decodeTiles()
	} else {
		err = dec.decodeStrips()
	}
	if err != nil {
		return nil, err
	}
	return ds, nil
}

func bitsFor(ifd *IFD, band int) int {
	if band < len(ifd.BitsPerSample) {
		return ifd.BitsPerSample[band]
	}
	return 8
}

func formatFor(ifd *IFD, band int) int {
	if band < len(ifd.SampleFormat) {
		return ifd.SampleFormat[band]
	}
	return sampleUint
}

func checkSampleLayout(bits, format int) error {
	switch format {
	case sampleUint, sampleInt:
		if bits != 8 && bits != 16 && bits != 32 {
			return fmt.Errorf("%w: %d-bit integer samples", ErrUnsupportedSample, bits)
		}
	case sampleFloat:
		if bits != 32 && bits != 64 {
			return fmt.Errorf("%w: %d-bit float samples", ErrUnsupportedSample, bits)
		}
	default:
		return fmt.Errorf("%w: sample format %d", ErrUnsupportedSample, format)
	}
	return nil
}

// checkPredictor rejects predictor modes the decoder cannot undo, so
// they fail loudly instead of producing garbage samples.
func checkPredictor(predictor, bits, format int) error {
	switch predictor {
	case 1:
	case 2:
		if format == sampleFloat || bits > 16 {
			return fmt.Errorf("%w: predictor 2 with %d-bit samples", ErrUnsupportedSample, bits)
		}
	default:
		return fmt.Errorf("%w: predictor %d", ErrUnsupportedSample, predictor)
	}
	return nil
}

type decoder struct {
	data   []byte
	bo     binary.ByteOrder
	ifd    *IFD
	bits   int
	format int
	ds     *Dataset
}

// decodeStrips walks the strip layout. With planar configuration 2 the
// strips for each band follow each other; chunky strips interleave all
// bands per pixel.
func (d *decoder) decodeStrips() error {
	ifd := d.ifd
	if len(ifd.StripOffsets) == 0 {
		return fmt.Errorf("no strip or tile offsets")
	}
	rows := ifd.RowsPerStrip
	if rows <= 0 || rows > ifd.Height {
		rows = ifd.Height
	}
	stripsPerBand := (ifd.Height + rows - 1) / rows

	for i := range ifd.StripOffsets {
		band := -1 // chunky: all bands
		stripInBand := i
		if ifd.PlanarConfig == 2 {
			band = i / stripsPerBand
			stripInBand = i % stripsPerBand
			if band >= ifd.SamplesPerPixel {
				break
			}
		}
		rowStart := stripInBand * rows
		rowCount := min(rows, ifd.Height-rowStart)
		if rowCount <= 0 {
			continue
		}

		raw, err := d.segment(ifd.StripOffsets[i], byteCount(ifd.StripByteCounts, i))
		if err != nil {
			return fmt.Errorf("strip %d: %w", i, err)
		}
		d.applyPredictor(raw, ifd.Width, bandsInSegment(ifd, band))
		d.scatter(raw, 0, rowStart, ifd.Width, rowCount, band)
	}
	return nil
}

// decodeTiles walks the tile layout. Edge tiles carry full tile data;
// only the in-image region is kept.
func (d *decoder) decodeTiles() error {
	ifd := d.ifd
	if ifd.TileWidth <= 0 || ifd.TileHeight <= 0 {
		return fmt.Errorf("tiled TIFF without tile dimensions")
	}
	tilesAcross := (ifd.Width + ifd.TileWidth - 1) / ifd.TileWidth
	tilesDown := (ifd.Height + ifd.TileHeight - 1) / ifd.TileHeight
	tilesPerBand := tilesAcross * tilesDown

	for i := range ifd.TileOffsets {
		band := -1
		tileInBand := i
		if ifd.PlanarConfig == 2 {
			band = i / tilesPerBand
			tileInBand = i % tilesPerBand
			if band >= ifd.SamplesPerPixel {
				break
			}
		}
		tx := tileInBand % tilesAcross
		ty := tileInBand / tilesAcross
		x0 := tx * ifd.TileWidth
		y0 := ty * ifd.TileHeight

		raw, err := d.segment(ifd.TileOffsets[i], byteCount(ifd.TileByteCounts, i))
		if err != nil {
			return fmt.Errorf("tile %d: %w", i, err)
		}
		d.applyPredictor(raw, ifd.TileWidth, bandsInSegment(ifd, band))
		d.scatterTile(raw, x0, y0, band)
	}
	return nil
}

func bandsInSegment(ifd *IFD, band int) int {
	if band >= 0 {
		return 1
	}
	return ifd.SamplesPerPixel
}

func byteCount(counts []int64, i int) int64 {
	if i < len(counts) {
		return counts[i]
	}
	return 0
}

// segment reads and decompresses one strip or tile.
func (d *decoder) segment(offset, count int64) ([]byte, error) {
	if offset < 0 || count <= 0 || offset+count > int64(len(d.data)) {
		return nil, ErrTruncated
	}
	raw := d.data[offset : offset+count]

	switch d.ifd.Compression {
	case compressionNone:
		return raw, nil
	case compressionDeflate, compressionOldDeflate:
		zr, err := zlib.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("deflate: %w", err)
		}
		defer zr.Close()
		out, err := io.ReadAll(zr)
		if err != nil {
			return nil, fmt.Errorf("deflate: %w", err)
		}
		return out, nil
	case compressionLZW:
		// TIFF LZW uses early code-width change, which the stdlib
		// decoder does not speak. Re-encode such files as deflate.
		return nil, fmt.Errorf("%w: LZW", ErrUnsupportedCompression)
	default:
		return nil, fmt.Errorf("%w: code %d", ErrUnsupportedCompression, d.ifd.Compression)
	}
}

// applyPredictor undoes horizontal differencing in place. Depth and
// format combinations it cannot undo are rejected at parse time.
func (d *decoder) applyPredictor(raw []byte, rowWidth, samples int) {
	if d.ifd.Predictor != 2 {
		return
	}
	switch d.bits {
	case 8:
		stride := rowWidth * samples
		for row := 0; row+stride <= len(raw); row += stride {
			for i := samples; i < stride; i++ {
				raw[row+i] += raw[row+i-samples]
			}
		}
	case 16:
		stride := rowWidth * samples * 2
		for row := 0; row+stride <= len(raw); row += stride {
			for i := samples * 2; i+1 < stride; i += 2 {
				prev := d.bo.Uint16(raw[row+i-samples*2:])
				cur := d.bo.Uint16(raw[row+i:])
				d.bo.PutUint16(raw[row+i:], cur+prev)
			}
		}
	}
}

// scatter copies a chunky or planar rectangle of samples into the
// band slices. band < 0 means all bands interleaved per pixel.
func (d *decoder) scatter(raw []byte, x0, y0, w, h, band int) {
	bytesPer := d.bits / 8
	samples := bandsInSegment(d.ifd, band)

	idx := 0
	for row := 0; row < h; row++ {
		y := y0 + row
		for col := 0; col < w; col++ {
			x := x0 + col
			for s := 0; s < samples; s++ {
				off := idx * bytesPer
				idx++
				if off+bytesPer > len(raw) || x >= d.ds.Width || y >= d.ds.Height {
					continue
				}
				target := s
				if band >= 0 {
					target = band
				}
				d.ds.Bands[target][y*d.ds.Width+x] = d.sample(raw[off:])
			}
		}
	}
}

func (d *decoder) scatterTile(raw []byte, x0, y0, band int) {
	ifd := d.ifd
	bytesPer := d.bits / 8
	samples := bandsInSegment(ifd, band)
	rowBytes := ifd.TileWidth * samples * bytesPer

	h := min(ifd.TileHeight, d.ds.Height-y0)
	w := min(ifd.TileWidth, d.ds.Width-x0)
	for row := 0; row < h; row++ {
		start := row * rowBytes
		if start+w*samples*bytesPer > len(raw) {
			break
		}
		d.scatter(raw[start:start+w*samples*bytesPer], x0, y0+row, w, 1, band)
	}
}

// sample decodes one native sample to float64.
func (d *decoder) sample(raw []byte) float64 {
	switch d.format {
	case sampleFloat:
		if d.bits == 32 {
			return float64(math.Float32frombits(d.bo.Uint32(raw)))
		}
		return math.Float64frombits(d.bo.Uint64(raw))
	case sampleInt:
		switch d.bits {
		case 8:
			return float64(int8(raw[0]))
		case 16:
			return float64(int16(d.bo.Uint16(raw)))
		default:
			return float64(int32(d.bo.Uint32(raw)))
		}
	default:
		switch d.bits {
		case 8:
			return float64(raw[0])
		case 16:
			return float64(d.bo.Uint16(raw))
		default:
			return float64(d.bo.Uint32(raw))
		}
	}
}
