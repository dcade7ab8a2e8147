package streak

import (
	"fmt"
	"math"

	"github.com/Samridh-Tiwari/StreakLightCurve/pkg/sky"
)

// Geometry is the trajectory of the object across the exposure, in the
// pixel frame of one particular image.
type Geometry struct {
	Start  sky.PixelPosition
	End    sky.PixelPosition
	Angle  float64 // radians; 0 runs along a pixel row, towards +x
	Length float64 // pixels
}

// NewGeometry works out angle and length from two pixel positions. A
// stationary object has no direction, so its angle is reported as 0.
func NewGeometry(start, end sky.PixelPosition) Geometry {
	g := Geometry{Start: start, End: end}
	dx, dy := g.Dx(), g.Dy()

	g.Length = math.Hypot(dx, dy)
	if g.Length > 0 {
		g.Angle = math.Atan2(dy, dx)
	}
	return g
}

// BuildGeometry projects the start and end of the motion into the
// image. Both must land in the projector's valid domain.
func BuildGeometry(proj sky.Projector, start, end sky.SkyPosition) (Geometry, error) {
	startPx, err := project(proj, start)
	if err != nil {
		return Geometry{}, fmt.Errorf("start position %s: %w", start, err)
	}
	endPx, err := project(proj, end)
	if err != nil {
		return Geometry{}, fmt.Errorf("end position %s: %w", end, err)
	}
	return NewGeometry(startPx, endPx), nil
}

func project(proj sky.Projector, pos sky.SkyPosition) (sky.PixelPosition, error) {
	px, err := proj.SkyToPixel(pos)
	if err != nil {
		return sky.InvalidPixel, fmt.Errorf("%w: %w", ErrProjection, err)
	}
	if !px.Valid() {
		return sky.InvalidPixel, fmt.Errorf("%w: projected to %s", ErrProjection, px)
	}
	return px, nil
}

func (g Geometry) Dx() float64 { return g.End.X - g.Start.X }
func (g Geometry) Dy() float64 { return g.End.Y - g.Start.Y }

func (g Geometry) Mid() sky.PixelPosition {
	return sky.PixelPosition{X: (g.Start.X + g.End.X) / 2, Y: (g.Start.Y + g.End.Y) / 2}
}

// Degenerate is true for a stationary object (zero length). That is a
// legal case: the mask falls back to a PSF-sized aperture.
func (g Geometry) Degenerate() bool { return g.Length == 0 }

// Translate expresses the geometry in a frame whose origin is offset by (dx,dy).
func (g Geometry) Translate(dx, dy float64) Geometry {
	return NewGeometry(
		sky.PixelPosition{X: g.Start.X + dx, Y: g.Start.Y + dy},
		sky.PixelPosition{X: g.End.X + dx, Y: g.End.Y + dy})
}

// Reverse swaps start and end.
func (g Geometry) Reverse() Geometry { return NewGeometry(g.End, g.Start) }

func (g Geometry) String() string {
	return fmt.Sprintf("Geom[%s->%s, %.1fpx @%.1fdeg]", g.Start, g.End, g.Length, g.Angle*180/math.Pi)
}
