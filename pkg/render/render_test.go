package render

import (
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Samridh-Tiwari/StreakLightCurve/pkg/emath"
	"github.com/Samridh-Tiwari/StreakLightCurve/pkg/sky"
	"github.com/Samridh-Tiwari/StreakLightCurve/pkg/streak"
)

type pixelProjector struct{}

func (pixelProjector) SkyToPixel(s sky.SkyPosition) (sky.PixelPosition, error) {
	return sky.PixelPosition{X: s.RA, Y: s.Dec}, nil
}
func (pixelProjector) PixelToSky(p sky.PixelPosition) (sky.SkyPosition, error) {
	return sky.SkyPosition{RA: p.X, Dec: p.Y}, nil
}
func (pixelProjector) PixelScale() float64 { return 1 }

// verticalStreak has a band 4 pixels wide, running up the frame from
// (100,80) to (100,120).
func verticalStreak(t *testing.T) *streak.Result {
	t.Helper()
	g := emath.NewFloatGrid(200, 200)
	for y := 0; y < g.Dy(); y++ {
		for x := 0; x < g.Dx(); x++ {
			v := 100.0
			if x >= 98 && x < 102 && y >= 80 && y < 120 {
				v = 1000
			}
			g.Set(x, y, v)
		}
	}

	obs := streak.Observation{
		Start:        sky.SkyPosition{RA: 100, Dec: 80},
		End:          sky.SkyPosition{RA: 100, Dec: 120},
		SeeingArcsec: 2,
	}
	cfg := streak.NewConfig()
	cfg.BinCount = 20
	res, err := streak.Extract(&g, pixelProjector{}, obs, cfg)
	require.NoError(t, err)
	return res
}

func TestStreakViewLiesAlongXAxis(t *testing.T) {
	res := verticalStreak(t)
	zoom := StreakView(res)

	require.Equal(t, 16, zoom.Bounds().Dx())
	require.Equal(t, 16, zoom.Bounds().Dy())

	bright := func(x, y int) uint16 { return zoom.Gray16At(x, y).Y }
	assert.Greater(t, bright(8, 8), uint16(60000), "center")
	assert.Greater(t, bright(1, 8), uint16(60000), "left end of the row through the center")
	assert.Greater(t, bright(14, 8), uint16(60000), "right end")
	assert.Less(t, bright(8, 1), uint16(40000), "above the streak")
	assert.Less(t, bright(8, 14), uint16(40000), "below the streak")
}

func TestDiagnosticWritesPNG(t *testing.T) {
	res := verticalStreak(t)
	img := Diagnostic(res, "2000SG344  2019-03-02 08:14:33")

	b := img.Bounds()
	assert.Equal(t, pad+mainSize+pad+zoomSize+pad, b.Dx())
	assert.Equal(t, titleH+pad+mainSize+pad+plotH+pad, b.Dy())

	filename := filepath.Join(t.TempDir(), "diag.png")
	require.NoError(t, WritePNG(img, filename))

	r, err := os.Open(filename)
	require.NoError(t, err)
	defer r.Close()
	back, err := png.Decode(r)
	require.NoError(t, err)
	assert.Equal(t, b, back.Bounds())
}

func TestDiagnosticHandlesEmptyProfile(t *testing.T) {
	res := verticalStreak(t)
	for i := range res.Profile.Bins {
		res.Profile.Bins[i] = streak.Bin{Empty: true}
	}
	assert.NotPanics(t, func() { Diagnostic(res, "empty") })
}

func TestRunsSplitAtEmptyBins(t *testing.T) {
	e, f := streak.Bin{Empty: true}, streak.Bin{FluxSum: 1, PixelCount: 1}
	r := runs([]streak.Bin{e, f, f, e, f})
	require.Len(t, r, 2)
	assert.Len(t, r[0], 2)
	assert.Len(t, r[1], 1)

	assert.Empty(t, runs([]streak.Bin{e, e}))
	assert.Len(t, runs([]streak.Bin{f, f, f}), 1)
}

func TestProfileLimits(t *testing.T) {
	p := streak.Profile{Length: 10, PixelScale: 2, Bins: []streak.Bin{
		{FluxSum: 10, FluxError: 1, PixelCount: 3},
		{Empty: true},
		{FluxSum: 20, FluxError: 2, PixelCount: 3},
	}}
	pa, ok := profileLimits(p)
	require.True(t, ok)
	assert.Equal(t, 0.0, pa.xmin)
	assert.Equal(t, 20.0, pa.xmax)
	assert.Less(t, pa.ymin, 9.0)
	assert.Greater(t, pa.ymax, 22.0)

	_, ok = profileLimits(streak.Profile{Bins: []streak.Bin{{Empty: true}}})
	assert.False(t, ok)
}

func TestDisplayLevel(t *testing.T) {
	assert.Equal(t, 0, displayLevel(-5, 0, 10))
	assert.Equal(t, 128, displayLevel(5, 0, 10))
	assert.Equal(t, 255, displayLevel(10, 0, 10))
	assert.Equal(t, 255, displayLevel(50, 0, 10))
	assert.Equal(t, 0, displayLevel(5, 10, 10))

	g := emath.NewFloatGrid(2, 2)
	g.Set(0, 0, math.NaN())
	assert.NotPanics(t, func() { DisplayHistogram(&g, 0, 1) })
}
