// Package sky holds positions on the sky and in pixel space, and the
// projection that maps between them for a given image.
package sky

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/soniakeys/meeus/v3/angle"
	"github.com/soniakeys/meeus/v3/julian"
	sexa "github.com/soniakeys/sexagesimal"
	"github.com/soniakeys/unit"
)

// ErrOutsideDomain is returned by a Projector when a position cannot be
// mapped into the image's pixel frame.
var ErrOutsideDomain = errors.New("position outside projection domain")

// A SkyPosition is an equatorial position in degrees, optionally tagged
// with the time it applies to.
type SkyPosition struct {
	RA    float64 // degrees, [0,360)
	Dec   float64 // degrees, [-90,90]
	Epoch time.Time
}

func (p SkyPosition) String() string {
	return fmt.Sprintf("%.6f, %.6f", p.RA, p.Dec)
}

// Sexagesimal renders the position as hours of RA and degrees of Dec.
func (p SkyPosition) Sexagesimal() string {
	return fmt.Sprintf("%.2s %.1s", sexa.FmtRA(unit.RAFromDeg(p.RA)), sexa.FmtAngle(unit.AngleFromDeg(p.Dec)))
}

// Separation is the great-circle distance between two positions.
func (p SkyPosition) Separation(q SkyPosition) unit.Angle {
	return angle.Sep(
		unit.AngleFromDeg(p.RA), unit.AngleFromDeg(p.Dec),
		unit.AngleFromDeg(q.RA), unit.AngleFromDeg(q.Dec))
}

// JD is the Julian date of the epoch, or 0 if there isn't one.
func (p SkyPosition) JD() float64 {
	if p.Epoch.IsZero() {
		return 0
	}
	return julian.TimeToJD(p.Epoch)
}

func (p SkyPosition) Valid() bool {
	return !math.IsNaN(p.RA) && !math.IsNaN(p.Dec) && p.Dec >= -90 && p.Dec <= 90
}

// A PixelPosition is a continuous coordinate within a particular image;
// pixel (i,j) spans [i,i+1) x [j,j+1). Either coordinate being NaN
// marks the position as unusable.
type PixelPosition struct {
	X, Y float64
}

var InvalidPixel = PixelPosition{math.NaN(), math.NaN()}

func (p PixelPosition) Valid() bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}

func (p PixelPosition) String() string {
	return fmt.Sprintf("(%.2f,%.2f)", p.X, p.Y)
}

// A Projector maps between sky and pixel coordinates for one image.
type Projector interface {
	SkyToPixel(SkyPosition) (PixelPosition, error)
	PixelToSky(PixelPosition) (SkyPosition, error)
	PixelScale() float64 // arcsec per pixel
}
