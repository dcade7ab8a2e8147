package streak

import (
	"fmt"
	"math"

	"github.com/Samridh-Tiwari/StreakLightCurve/pkg/emath"
)

// A Bin is one slice of the streak, perpendicular to the direction of motion.
type Bin struct {
	CenterPx     float64 // along-track, relative to the trajectory midpoint
	CenterArcsec float64 // along-track, distance from the start position
	FluxSum      float64
	FluxError    float64
	PixelCount   int
	Empty        bool // no pixels landed here; FluxSum of 0 means nothing
}

// A Profile is the flux along the trajectory, from start to end.
type Profile struct {
	Bins       []Bin
	BinWidth   float64 // pixels; 0 for a stationary object
	Length     float64 // pixels
	PixelScale float64 // arcsec/pixel

	Background         float64 // subtracted from every pixel before summing
	BoundaryIncomplete bool    // the region was clipped, so end bins may be short or empty
	NonFinite          int     // masked pixels skipped because they were NaN/Inf
}

func (p Profile) String() string {
	empty := 0
	for _, b := range p.Bins {
		if b.Empty {
			empty++
		}
	}
	return fmt.Sprintf("Profile[%d bins of %.2fpx, %d empty, %d non-finite, incomplete=%v]",
		len(p.Bins), p.BinWidth, empty, p.NonFinite, p.BoundaryIncomplete)
}

// Fluxes returns the per-bin flux sums, in bin order.
func (p Profile) Fluxes() []float64 {
	f := make([]float64, len(p.Bins))
	for i, b := range p.Bins {
		f[i] = b.FluxSum
	}
	return f
}

// ExtractProfile sums the masked pixels into cfg.BinCount equal slices
// along the trajectory. The error on each bin is the background sigma
// scaled by the number of pixels summed, so clipped bins get a smaller
// error than full ones.
func ExtractProfile(region Region, mask Mask, stats Stats, pixelScale float64, cfg Config) (Profile, error) {
	if err := cfg.Validate(); err != nil {
		return Profile{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if mask.Dx() != region.Pixels.Dx() || mask.Dy() != region.Pixels.Dy() {
		return Profile{}, fmt.Errorf("mask is %dx%d, region is %dx%d",
			mask.Dx(), mask.Dy(), region.Pixels.Dx(), region.Pixels.Dy())
	}

	n := cfg.BinCount
	g := mask.Geometry
	p := Profile{
		Bins:               make([]Bin, n),
		Length:             g.Length,
		PixelScale:         pixelScale,
		BoundaryIncomplete: region.Clipped,
	}
	if cfg.SubtractBackground {
		p.Background = stats.Median
	}

	halfLen := g.Length / 2
	if !g.Degenerate() {
		p.BinWidth = g.Length / float64(n)
	}

	binOf := func(along float64) int {
		if g.Degenerate() {
			return n / 2
		}
		t := (along + halfLen) / p.BinWidth
		i := int(math.Floor(t))

		// A pixel sitting on the edge between two bins goes to the one
		// nearer the midpoint, whichever way the object was moving.
		if e := math.Round(t); math.Abs(t-e)*p.BinWidth <= edgeTolerance {
			i = int(e)
			if 2*i > n {
				i--
			}
		}

		if i < 0 {
			return 0
		} else if i >= n {
			return n - 1
		}
		return i
	}

	for y := 0; y < mask.Dy(); y++ {
		for x := 0; x < mask.Dx(); x++ {
			if !mask.Get(x, y) {
				continue
			}
			v := region.Pixels.Get(x, y)
			if !emath.Finite(v) {
				p.NonFinite++
				continue
			}
			b := &p.Bins[binOf(mask.Along(x, y))]
			b.FluxSum += v - p.Background
			b.PixelCount++
		}
	}

	for i := range p.Bins {
		b := &p.Bins[i]
		if !g.Degenerate() {
			b.CenterPx = -halfLen + (float64(i)+0.5)*p.BinWidth
		}
		b.CenterArcsec = (b.CenterPx + halfLen) * pixelScale
		if b.PixelCount == 0 {
			b.Empty = true
			b.FluxSum = 0
			continue
		}
		b.FluxError = stats.Sigma * math.Sqrt(float64(b.PixelCount))
	}

	return p, nil
}
