package service

import "errors"

var (
	ErrLayerNotFound  = errors.New("layer not found")
	ErrRegionNotFound = errors.New("region not found")
	ErrInvalidBounds  = errors.New("invalid bounds: south must be below north, west below east, within [-90,90]/[-180,180]")
	ErrNoRegionSource = errors.New("no region drawn and no visible raster layer to derive one from")
	ErrRegionTerminal = errors.New("region already in a terminal state")
	ErrRegionBusy     = errors.New("region generation already in progress")
	ErrNotPermutation = errors.New("reorder must contain every current layer id exactly once")
	ErrUnknownModel   = errors.New("unknown model id")
	ErrMixedPayload   = errors.New("layer must carry exactly one of image data or features")
)
