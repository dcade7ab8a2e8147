package streak

import (
	"fmt"
	"image"
	"math"

	"github.com/Samridh-Tiwari/StreakLightCurve/pkg/emath"
	"github.com/Samridh-Tiwari/StreakLightCurve/pkg/sky"
)

// A Region is the cutout we analyse: the pixels, where they came from,
// and the trajectory re-expressed in the cutout's own frame.
type Region struct {
	Requested image.Rectangle // the box we wanted, in frame coords
	Bounds    image.Rectangle // what we got, after clipping to the frame
	Clipped   bool            // if set, the profile may be missing bins at the ends

	Pixels   emath.FloatGrid // origin at Bounds.Min
	Geometry Geometry        // in cutout coords
}

func (r Region) String() string {
	str := fmt.Sprintf("Region[%s", r.Bounds)
	if r.Clipped {
		str += fmt.Sprintf(", clipped from %s", r.Requested)
	}
	return str + "]"
}

// SizeRegion works out a square box, centered on the middle of the
// trajectory, that is big enough for the whole streak plus a margin. Fast
// movers get a big box, slow ones get MinCutoutSize.
func SizeRegion(g Geometry, cfg Config) image.Rectangle {
	size := math.Max(math.Abs(g.Dx()), math.Abs(g.Dy()))*cfg.MarginMultiplier + cfg.MarginPixels
	if size < cfg.MinCutoutSize {
		size = cfg.MinCutoutSize
	}
	half := int(math.Ceil(size / 2))

	mid := g.Mid()
	cx, cy := int(math.Floor(mid.X)), int(math.Floor(mid.Y))
	box := image.Rect(cx-half, cy-half, cx+half+1, cy+half+1)

	// Small margins could leave an endpoint on the edge; make sure both
	// are strictly inside, with a pixel to spare.
	for _, p := range []sky.PixelPosition{g.Start, g.End} {
		box = growRectangle(box, image.Point{int(math.Floor(p.X)) - 1, int(math.Floor(p.Y)) - 1})
		box = growRectangle(box, image.Point{int(math.Floor(p.X)) + 1, int(math.Floor(p.Y)) + 1})
	}

	return box
}

// CutRegion sizes the box and crops it out of the frame. A box that runs
// off the edge of the frame is trimmed and flagged; that's not an error,
// since part of a streak is still worth measuring.
func CutRegion(frame *emath.FloatGrid, g Geometry, cfg Config) (Region, error) {
	req := SizeRegion(g, cfg)
	bounds := req.Intersect(frame.Bounds())
	if bounds.Empty() {
		return Region{}, fmt.Errorf("%w: wanted %s, image is %s", ErrRegionEmpty, req, frame.Bounds())
	}

	return Region{
		Requested: req,
		Bounds:    bounds,
		Clipped:   bounds != req,
		Pixels:    frame.Crop(bounds),
		Geometry:  g.Translate(-float64(bounds.Min.X), -float64(bounds.Min.Y)),
	}, nil
}

// growRectangle extends the (exclusive) rectangle to include p.
func growRectangle(r image.Rectangle, p image.Point) image.Rectangle {
	if p.X < r.Min.X {
		r.Min.X = p.X
	} else if p.X >= r.Max.X {
		r.Max.X = p.X + 1
	}

	if p.Y < r.Min.Y {
		r.Min.Y = p.Y
	} else if p.Y >= r.Max.Y {
		r.Max.Y = p.Y + 1
	}

	return r
}
