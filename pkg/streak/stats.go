package streak

import (
	"fmt"
	"image"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/Samridh-Tiwari/StreakLightCurve/pkg/emath"
)

// Stats summarizes the background of a region. The streak is a bright
// outlier population, so everything is median based.
type Stats struct {
	N            int     // finite pixels that went into the summary
	Median       float64 // background level
	Sigma        float64 // robust noise estimate, never negative
	SigmaFloored bool    // Sigma is cfg.SigmaFloor, because the data was flat

	DisplayLow  float64
	DisplayHigh float64
}

func (s Stats) String() string {
	str := fmt.Sprintf("Stats[n=%d, median=%.3f, sigma=%.3f", s.N, s.Median, s.Sigma)
	if s.SigmaFloored {
		str += " (floor)"
	}
	return str + fmt.Sprintf(", display=[%.3f,%.3f]]", s.DisplayLow, s.DisplayHigh)
}

// Summarize computes median and a MAD-based sigma over the finite values.
// The input slice is not modified.
func Summarize(values []float64, cfg Config) (Stats, error) {
	sorted := make([]float64, 0, len(values))
	for _, v := range values {
		if emath.Finite(v) {
			sorted = append(sorted, v)
		}
	}
	if len(sorted) == 0 {
		return Stats{}, fmt.Errorf("%w: %d values, none finite", ErrNoPixels, len(values))
	}
	sort.Float64s(sorted)

	s := Stats{N: len(sorted)}
	s.Median = median(sorted)

	dev := make([]float64, len(sorted))
	for i, v := range sorted {
		dev[i] = math.Abs(v - s.Median)
	}
	sort.Float64s(dev)
	s.Sigma = cfg.MADScale * median(dev)

	if !(s.Sigma > 0) {
		s.Sigma = cfg.SigmaFloor
		s.SigmaFloored = true
	}

	s.DisplayLow = s.Median - cfg.DisplaySigmas*s.Sigma
	s.DisplayHigh = s.Median + cfg.DisplaySigmas*s.Sigma

	return s, nil
}

// SummarizeGrid summarizes the pixels of the grid within r. An empty
// rectangle means the whole grid.
func SummarizeGrid(g *emath.FloatGrid, r image.Rectangle, cfg Config) (Stats, error) {
	if r.Empty() {
		r = g.Bounds()
	}
	return Summarize(g.Window(r), cfg)
}

// For an even count this is the lower of the two middle values.
func median(sorted []float64) float64 {
	return stat.Quantile(0.5, stat.Empirical, sorted, nil)
}
