package frame

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Samridh-Tiwari/StreakLightCurve/pkg/emath"
	"github.com/Samridh-Tiwari/StreakLightCurve/pkg/sky"
)

// A Frame is one science image: the pixels, and the header values we
// need to locate things in it. Row 0 is the bottom row, as in FITS.
type Frame struct {
	Filename string
	Pixels   emath.FloatGrid
	Header   Header
}

// Header holds keyword values from every HDU in the file. Where a keyword
// appears more than once, the image HDU's value wins.
type Header map[string]interface{}

// Float looks up a numeric keyword. Strings that parse as numbers count.
func (h Header) Float(key string) (float64, bool) {
	switch v := h[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case int32:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	}
	return 0, false
}

func (h Header) Text(key string) (string, bool) {
	v, ok := h[key].(string)
	return strings.TrimSpace(v), ok
}

// Seeing is the FWHM of stars in the image, in arcsec; 0 if unknown.
func (h Header) Seeing() float64 {
	v, _ := h.Float("SEEING")
	return v
}

// MagLimit is the limiting magnitude; 0 if unknown.
func (h Header) MagLimit() float64 {
	v, _ := h.Float("MAGLIM")
	return v
}

// Exposure is the exposure time in seconds; 0 if unknown.
func (h Header) Exposure() float64 {
	v, _ := h.Float("EXPTIME")
	return v
}

var dateObsLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// DateObs is the start of the exposure (UTC), or the zero time.
func (h Header) DateObs() time.Time {
	s, ok := h.Text("DATE-OBS")
	if !ok {
		return time.Time{}
	}
	for _, layout := range dateObsLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t
		}
	}
	return time.Time{}
}

// Projector builds the TAN projection from the WCS keywords.
func (f *Frame) Projector() (*sky.TanProjector, error) {
	p, err := sky.NewTanProjectorFromKeywords(f.Header.Float)
	if err != nil {
		return nil, fmt.Errorf("frame '%s': %v", f.Filename, err)
	}
	return p, nil
}

// ErrCompressed is returned for tile-compressed (.fz) files; fitsio can't
// decompress them.
var ErrCompressed = errors.New("tile-compressed FITS is not supported, funpack it first")

// Load reads a frame, picking the decoder from the file extension.
func Load(filename string) (*Frame, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".fits", ".fit", ".fts":
		return LoadFITS(filename)
	case ".tif", ".tiff":
		return LoadTIFF(filename)
	case ".fz":
		return nil, fmt.Errorf("frame '%s': %w", filename, ErrCompressed)
	}
	return nil, fmt.Errorf("frame '%s': unknown file type", filename)
}
