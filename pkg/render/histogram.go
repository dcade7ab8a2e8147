package render

import (
	"github.com/skypies/util/histogram"

	"github.com/Samridh-Tiwari/StreakLightCurve/pkg/emath"
)

// displayLevel is the 8-bit gray a value gets under the display stretch.
func displayLevel(v, low, high float64) int {
	if high <= low {
		return 0
	}
	l := int(256 * (v - low) / (high - low))
	if l < 0 {
		return 0
	} else if l > 255 {
		return 255
	}
	return l
}

// DisplayHistogram bins the finite pixels by the gray level they get
// under the display stretch; a lot of them piled up at either end means
// the stretch is a poor one.
func DisplayHistogram(g *emath.FloatGrid, low, high float64) histogram.Histogram {
	h := histogram.Histogram{NumBuckets: 256, ValMin: 0, ValMax: 256}
	for _, v := range g.Values() {
		if emath.Finite(v) {
			h.Add(histogram.ScalarVal(displayLevel(v, low, high)))
		}
	}
	return h
}
