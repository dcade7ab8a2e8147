package streak

import (
	"fmt"
	"image"
	"log"

	"github.com/Samridh-Tiwari/StreakLightCurve/pkg/emath"
	"github.com/Samridh-Tiwari/StreakLightCurve/pkg/sky"
)

// Observation is what we know about the object for one exposure: where
// it was when the shutter opened and closed, and how good the seeing was.
type Observation struct {
	Start        sky.SkyPosition
	End          sky.SkyPosition
	SeeingArcsec float64
}

// Result is everything extracted for one observation. It's plain data;
// rendering and writing it out is someone else's job.
type Result struct {
	Geometry   Geometry // in the frame's pixel coords
	PSFWidth   PSFWidth
	PixelScale float64
	Region     Region
	Mask       Mask
	Stats      Stats
	Profile    Profile
}

// Clipped is true if the cutout ran off the edge of the frame.
func (r *Result) Clipped() bool { return r.Region.Clipped }

// Extract runs the whole chain for one observation. Any fatal condition
// aborts the lot; there are no partial results.
func Extract(frame *emath.FloatGrid, proj sky.Projector, obs Observation, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	geom, err := BuildGeometry(proj, obs.Start, obs.End)
	if err != nil {
		return nil, err
	}

	scale := proj.PixelScale()
	psf, err := PSFWidthFromSeeing(obs.SeeingArcsec, scale)
	if err != nil {
		return nil, err
	}

	region, err := CutRegion(frame, geom, cfg)
	if err != nil {
		return nil, err
	}

	stats, err := SummarizeGrid(&region.Pixels, image.Rectangle{}, cfg)
	if err != nil {
		return nil, fmt.Errorf("region %s: %w", region.Bounds, err)
	}

	mask, err := BuildMask(region.Pixels.Dx(), region.Pixels.Dy(), region.Geometry, psf, cfg)
	if err != nil {
		return nil, err
	}

	prof, err := ExtractProfile(region, mask, stats, scale, cfg)
	if err != nil {
		return nil, err
	}

	if cfg.Verbosity > 0 {
		log.Printf("%s, psf=%.2fpx (%.2f\"), %s %s\n", geom, psf, obs.SeeingArcsec, region, region.Pixels.Stats())
		log.Printf("%s, mask=%d pixels\n", stats, mask.Count())
		log.Printf("%s\n", prof)
	}
	if region.Clipped {
		log.Printf("cutout clipped to frame: %s\n", region)
	}

	return &Result{
		Geometry:   geom,
		PSFWidth:   psf,
		PixelScale: scale,
		Region:     region,
		Mask:       mask,
		Stats:      stats,
		Profile:    prof,
	}, nil
}
