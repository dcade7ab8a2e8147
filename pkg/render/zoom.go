package render

import (
	"image"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"github.com/Samridh-Tiwari/StreakLightCurve/pkg/emath"
	"github.com/Samridh-Tiwari/StreakLightCurve/pkg/streak"
)

// ZoomPSFWidths is how far the streak view extends from the trajectory
// midpoint, in PSF widths.
const ZoomPSFWidths = 4

// StreakView resamples the cutout so the motion runs left to right
// through the center, start on the left, and crops it to a square of
// +/- ZoomPSFWidths around the midpoint. It uses the same display
// stretch as the main panel.
func StreakView(res *streak.Result) *image.Gray16 {
	half := int(math.Ceil(ZoomPSFWidths * float64(res.PSFWidth)))
	dst := image.NewGray16(image.Rect(0, 0, 2*half, 2*half))

	grid := res.Region.Pixels
	if half <= 0 || grid.Dx() == 0 || grid.Dy() == 0 {
		return dst
	}
	src := grid.ToGray16(res.Stats.DisplayLow, res.Stats.DisplayHigh, true)

	// In image coords y runs down, so the motion is at -Angle there, and
	// rotating by +Angle lines it up with the x axis.
	g := res.Region.Geometry
	mid := g.Mid()
	mx, my := mid.X, float64(grid.Dy())-mid.Y

	s2d := emath.Identity().Translate(float64(half), float64(half)).RotateRad(g.Angle).Translate(-mx, -my)
	draw.CatmullRom.Transform(dst, f64.Aff3(s2d), src, src.Bounds(), draw.Src, nil)

	return dst
}
