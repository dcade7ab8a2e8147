package streak

import "errors"

// Fatal conditions for a single observation. Callers use errors.Is to
// tell them apart; the wrapping error names the detail.
var (
	ErrProjection      = errors.New("projection failed")
	ErrInvalidPSFWidth = errors.New("invalid PSF width")
	ErrRegionEmpty     = errors.New("extraction region does not overlap the image")
	ErrNoPixels        = errors.New("no usable pixels")
	ErrInvalidConfig   = errors.New("invalid config")
)
