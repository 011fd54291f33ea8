// Package geotiff parses GeoTIFF rasters without cgo: TIFF container
// structure, per-band sample data, and the embedded geographic
// metadata (pixel scale, tiepoint, GeoKey CRS code).
package geotiff

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

var (
	ErrNotTIFF                = errors.New("not a TIFF file")
	ErrNoIFD                  = errors.New("no image directory found")
	ErrUnsupportedCompression = errors.New("unsupported TIFF compression")
	ErrUnsupportedSample      = errors.New("unsupported sample layout")
	ErrTruncated              = errors.New("truncated TIFF data")
)

// TIFF tag IDs.
const (
	tagImageWidth      = 256
	tagImageLength     = 257
	tagBitsPerSample   = 258
	tagCompression     = 259
	tagStripOffsets    = 273
	tagSamplesPerPixel = 277
	tagRowsPerStrip    = 278
	tagStripByteCounts = 279
	tagPlanarConfig    = 284
	tagPredictor       = 317
	tagTileWidth       = 322
	tagTileLength      = 323
	tagTileOffsets     = 324
	tagTileByteCounts  = 325
	tagSampleFormat    = 339
	tagModelPixelScale = 33550
	tagModelTiepoint   = 33922
	tagGeoKeyDirectory = 34735
)

// Compression codes.
const (
	compressionNone       = 1
	compressionLZW        = 5
	compressionDeflate    = 8
	compressionOldDeflate = 32946
)

// Sample formats.
const (
	sampleUint  = 1
	sampleInt   = 2
	sampleFloat = 3
)

// IFD is one parsed image directory with the fields the ingestor
// needs. Unknown tags are skipped.
type IFD struct {
	Width, Height   int
	BitsPerSample   []int
	SampleFormat    []int
	SamplesPerPixel int
	Compression     int
	Predictor       int
	PlanarConfig    int

	RowsPerStrip    int
	StripOffsets    []int64
	StripByteCounts []int64

	TileWidth, TileHeight int
	TileOffsets           []int64
	TileByteCounts        []int64

	ModelPixelScale []float64
	ModelTiepoint   []float64
	GeoKeys         []uint16
}

type parser struct {
	data []byte
	bo   binary.ByteOrder
}

// parseTIFF validates the header and walks the IFD chain.
func parseTIFF(data []byte) ([]IFD, binary.ByteOrder, error) {
	if len(data) < 8 {
		return nil, nil, ErrNotTIFF
	}

	var bo binary.ByteOrder
	switch {
	case data[0] == 'I' && data[1] == 'I':
		bo = binary.LittleEndian
	case data[0] == 'M' && data[1] == 'M':
		bo = binary.BigEndian
	default:
		return nil, nil, ErrNotTIFF
	}
	if bo.Uint16(data[2:4]) != 42 {
		return nil, nil, fmt.Errorf("%w: bad magic", ErrNotTIFF)
	}

	p := &parser{data: data, bo: bo}
	offset := int64(bo.Uint32(data[4:8]))

	var ifds []IFD
	for offset != 0 {
		ifd, next, err := p.parseIFD(offset)
		if err != nil {
			return nil, nil, err
		}
		ifds = append(ifds, ifd)
		if len(ifds) > 64 {
			return nil, nil, fmt.Errorf("IFD chain too long (cycle?)")
		}
		offset = next
	}
	if len(ifds) == 0 {
		return nil, nil, ErrNoIFD
	}
	return ifds, bo, nil
}

func (p *parser) parseIFD(offset int64) (IFD, int64, error) {
	ifd := IFD{
		SamplesPerPixel: 1,
		Compression:     compressionNone,
		Predictor:       1,
		PlanarConfig:    1,
	}

	if offset+2 > int64(len(p.data)) {
		return ifd, 0, ErrTruncated
	}
	count := int(p.bo.Uint16(p.data[offset : offset+2]))
	entriesEnd := offset + 2 + int64(count)*12
	if entriesEnd+4 > int64(len(p.data)) {
		return ifd, 0, ErrTruncated
	}

	for i := 0; i < count; i++ {
		e := offset + 2 + int64(i)*12
		tag := p.bo.Uint16(p.data[e : e+2])
		if err := p.applyTag(&ifd, tag, e); err != nil {
			return ifd, 0, err
		}
	}

	next := int64(p.bo.Uint32(p.data[entriesEnd : entriesEnd+4]))
	return ifd, next, nil
}

func (p *parser) applyTag(ifd *IFD, tag uint16, entry int64) error {
	switch tag {
	case tagImageWidth:
		ifd.Width = int(p.firstInt(entry))
	case tagImageLength:
		ifd.Height = int(p.firstInt(entry))
	case tagBitsPerSample:
		ifd.BitsPerSample = toInts(p.readInts(entry))
	case tagCompression:
		ifd.Compression = int(p.firstInt(entry))
	case tagSamplesPerPixel:
		ifd.SamplesPerPixel = int(p.firstInt(entry))
	case tagRowsPerStrip:
		ifd.RowsPerStrip = int(p.firstInt(entry))
	case tagStripOffsets:
		ifd.StripOffsets = p.readInts(entry)
	case tagStripByteCounts:
		ifd.StripByteCounts = p.readInts(entry)
	case tagPlanarConfig:
		ifd.PlanarConfig = int(p.firstInt(entry))
	case tagPredictor:
		ifd.Predictor = int(p.firstInt(entry))
	case tagTileWidth:
		ifd.TileWidth = int(p.firstInt(entry))
	case tagTileLength:
		ifd.TileHeight = int(p.firstInt(entry))
	case tagTileOffsets:
		ifd.TileOffsets = p.readInts(entry)
	case tagTileByteCounts:
		ifd.TileByteCounts = p.readInts(entry)
	case tagSampleFormat:
		ifd.SampleFormat = toInts(p.readInts(entry))
	case tagModelPixelScale:
		ifd.ModelPixelScale = p.readDoubles(entry)
	case tagModelTiepoint:
		ifd.ModelTiepoint = p.readDoubles(entry)
	case tagGeoKeyDirectory:
		ifd.GeoKeys = p.readShorts(entry)
	}
	return nil
}

// Field types.
const (
	typeByte     = 1
	typeShort    = 3
	typeLong     = 4
	typeRational = 5
	typeFloat    = 11
	typeDouble   = 12
)

func typeSize(t uint16) int {
	switch t {
	case typeByte:
		return 1
	case typeShort:
		return 2
	case typeLong, typeFloat:
		return 4
	case typeRational, typeDouble:
		return 8
	default:
		return 0
	}
}

// valueBytes locates an entry's value data, inline or via offset.
func (p *parser) valueBytes(entry int64) (typ uint16, count int, raw []byte) {
	typ = p.bo.Uint16(p.data[entry+2 : entry+4])
	count = int(p.bo.Uint32(p.data[entry+4 : entry+8]))
	size := typeSize(typ)
	if size == 0 || count <= 0 {
		return typ, 0, nil
	}
	total := size * count
	if total <= 4 {
		return typ, count, p.data[entry+8 : entry+8+int64(total)]
	}
	off := int64(p.bo.Uint32(p.data[entry+8 : entry+12]))
	if off+int64(total) > int64(len(p.data)) {
		return typ, 0, nil
	}
	return typ, count, p.data[off : off+int64(total)]
}

func (p *parser) firstInt(entry int64) int64 {
	v := p.readInts(entry)
	if len(v) == 0 {
		return 0
	}
	return v[0]
}

func (p *parser) readInts(entry int64) []int64 {
	typ, count, raw := p.valueBytes(entry)
	if raw == nil {
		return nil
	}
	out := make([]int64, 0, count)
	for i := 0; i < count; i++ {
		switch typ {
		case typeByte:
			out = append(out, int64(raw[i]))
		case typeShort:
			out = append(out, int64(p.bo.Uint16(raw[i*2:])))
		case typeLong:
			out = append(out, int64(p.bo.Uint32(raw[i*4:])))
		default:
			return nil
		}
	}
	return out
}

func (p *parser) readShorts(entry int64) []uint16 {
	typ, count, raw := p.valueBytes(entry)
	if raw == nil || typ != typeShort {
		return nil
	}
	out := make([]uint16, count)
	for i := range out {
		out[i] = p.bo.Uint16(raw[i*2:])
	}
	return out
}

func (p *parser) readDoubles(entry int64) []float64 {
	typ, count, raw := p.valueBytes(entry)
	if raw == nil || typ != typeDouble {
		return nil
	}
	out := make([]float64, count)
	for i := range out {
		out[i] = math.Float64frombits(p.bo.Uint64(raw[i*8:]))
	}
	return out
}

func toInts(v []int64) []int {
	out := make([]int, len(v))
	for i, x := range v {
		out[i] = int(x)
	}
	return out
}
