package streak

import (
	"fmt"
	"math"

	"github.com/Samridh-Tiwari/StreakLightCurve/pkg/emath"
	"github.com/Samridh-Tiwari/StreakLightCurve/pkg/sky"
)

// PSFWidth is the FWHM of the point spread function, in pixels.
type PSFWidth float64

// PSFWidthFromSeeing converts the seeing (arcsec) into pixels. A missing
// or non-positive seeing, or a pixel scale we can't use, is fatal: there
// is no sensible default width.
func PSFWidthFromSeeing(seeingArcsec, pixelScale float64) (PSFWidth, error) {
	if !(seeingArcsec > 0) || math.IsInf(seeingArcsec, 0) {
		return 0, fmt.Errorf("%w: seeing %v arcsec", ErrInvalidPSFWidth, seeingArcsec)
	}
	if !(pixelScale > 0) || math.IsInf(pixelScale, 0) {
		return 0, fmt.Errorf("%w: pixel scale %v arcsec/pixel", ErrInvalidPSFWidth, pixelScale)
	}
	return PSFWidth(seeingArcsec / pixelScale), nil
}

// Pixels sitting exactly on the mask boundary shouldn't flip in or out
// because of rounding in the rotation.
const edgeTolerance = 1e-9

// A Mask selects the pixels within half the mask width of the
// trajectory line, and within its length. It also remembers each
// pixel's along-track coordinate, which is what the profile bins on.
type Mask struct {
	stride int
	in     []bool
	along  []float64
	count  int

	Geometry   Geometry
	PSFWidth   PSFWidth
	Width      float64 // full cross-track width, pixels
	HalfLength float64 // along-track extent either side of the midpoint
}

// BuildMask works in a frame rotated to line up with the trajectory,
// centered on its midpoint. For a stationary object the along-track
// bound collapses, so instead we use a circular aperture of the mask
// width.
func BuildMask(dx, dy int, g Geometry, psf PSFWidth, cfg Config) (Mask, error) {
	if !(psf > 0) || math.IsInf(float64(psf), 0) {
		return Mask{}, fmt.Errorf("%w: %v pixels", ErrInvalidPSFWidth, psf)
	}

	m := Mask{
		stride:   dx,
		in:       make([]bool, dx*dy),
		along:    make([]float64, dx*dy),
		Geometry: g,
		PSFWidth: psf,
		Width:    cfg.WidthFactor * float64(psf),
	}
	halfWidth := m.Width / 2

	m.HalfLength = g.Length / 2
	if g.Degenerate() {
		m.HalfLength = halfWidth
	}

	mid := g.Mid()
	xform := emath.IntoFrame(g.Angle, mid.X, mid.Y)

	for y := 0; y < dy; y++ {
		for x := 0; x < dx; x++ {
			rotX, rotY := xform.Apply(float64(x)+0.5, float64(y)+0.5)
			i := y*dx + x
			m.along[i] = rotX

			var in bool
			if g.Degenerate() {
				in = math.Hypot(rotX, rotY) <= halfWidth+edgeTolerance
			} else {
				in = math.Abs(rotX) <= m.HalfLength+edgeTolerance && math.Abs(rotY) <= halfWidth+edgeTolerance
			}

			if in {
				m.in[i] = true
				m.count++
			}
		}
	}

	return m, nil
}

func (m Mask) Dx() int     { return m.stride }
func (m Mask) Count() int  { return m.count }

func (m Mask) Dy() int {
	if m.stride == 0 {
		return 0
	}
	return len(m.in) / m.stride
}

func (m Mask) Get(x, y int) bool      { return m.in[y*m.stride+x] }
func (m Mask) Along(x, y int) float64 { return m.along[y*m.stride+x] }

// Corners are the four corners of the selection box, in cutout coords,
// in drawing order.
func (m Mask) Corners() [4]sky.PixelPosition {
	mid := m.Geometry.Mid()
	back := emath.Identity().Translate(mid.X, mid.Y).RotateRad(m.Geometry.Angle)
	hw := m.Width / 2

	var c [4]sky.PixelPosition
	for i, p := range [4][2]float64{{-m.HalfLength, -hw}, {m.HalfLength, -hw}, {m.HalfLength, hw}, {-m.HalfLength, hw}} {
		x, y := back.Apply(p[0], p[1])
		c[i] = sky.PixelPosition{X: x, Y: y}
	}
	return c
}

// ToGrid is handy for dumping the mask as an image.
func (m Mask) ToGrid() emath.FloatGrid {
	g := emath.NewFloatGrid(m.Dx(), m.Dy())
	for y := 0; y < m.Dy(); y++ {
		for x := 0; x < m.Dx(); x++ {
			if m.Get(x, y) {
				g.Set(x, y, 1)
			}
		}
	}
	return g
}
