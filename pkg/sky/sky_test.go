package sky

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 1"/pixel, east to the left, like most survey images.
func testProjector(t *testing.T) *TanProjector {
	t.Helper()
	scale := 1.0 / 3600.0
	p, err := NewTanProjector(512, 512, 150.0, 20.0, [4]float64{-scale, 0, 0, scale})
	require.NoError(t, err)
	return p
}

func TestTanRoundTrip(t *testing.T) {
	p := testProjector(t)

	for _, pix := range []PixelPosition{{0, 0}, {511.5, 511.5}, {100.25, 900.75}, {1023, 3}} {
		s, err := p.PixelToSky(pix)
		require.NoError(t, err)
		back, err := p.SkyToPixel(s)
		require.NoError(t, err)
		assert.InDelta(t, pix.X, back.X, 1e-6)
		assert.InDelta(t, pix.Y, back.Y, 1e-6)
	}
}

func TestTanReferencePixel(t *testing.T) {
	p := testProjector(t)

	// FITS pixel 512 (1-based center) is continuous coordinate 511.5
	pix, err := p.SkyToPixel(SkyPosition{RA: 150, Dec: 20})
	require.NoError(t, err)
	assert.InDelta(t, 511.5, pix.X, 1e-9)
	assert.InDelta(t, 511.5, pix.Y, 1e-9)

	// North is up, east is to the left
	pix, err = p.SkyToPixel(SkyPosition{RA: 150, Dec: 20 + 10.0/3600.0})
	require.NoError(t, err)
	assert.InDelta(t, 521.5, pix.Y, 1e-3)
	pix, err = p.SkyToPixel(SkyPosition{RA: 150 + 10.0/3600.0, Dec: 20})
	require.NoError(t, err)
	assert.Less(t, pix.X, 511.5)
}

func TestTanOutsideDomain(t *testing.T) {
	p := testProjector(t)

	_, err := p.SkyToPixel(SkyPosition{RA: 330, Dec: -20}) // antipode
	assert.True(t, errors.Is(err, ErrOutsideDomain))

	_, err = p.SkyToPixel(SkyPosition{RA: math.NaN(), Dec: 0})
	assert.True(t, errors.Is(err, ErrOutsideDomain))
}

func TestTanPixelScale(t *testing.T) {
	p, err := NewTanProjector(1, 1, 0, 0, [4]float64{-2.0 / 3600, 0, 0, 1.0 / 3600})
	require.NoError(t, err)
	assert.InDelta(t, 1.5, p.PixelScale(), 1e-12)
}

func TestTanSingularMatrix(t *testing.T) {
	_, err := NewTanProjector(1, 1, 0, 0, [4]float64{1, 1, 1, 1})
	assert.Error(t, err)
}

func TestFromKeywordsCROTA(t *testing.T) {
	kw := map[string]float64{
		"CRPIX1": 10, "CRPIX2": 20, "CRVAL1": 45, "CRVAL2": -5,
		"CDELT1": -0.001, "CDELT2": 0.001, "CROTA2": 0,
	}
	p, err := NewTanProjectorFromKeywords(func(k string) (float64, bool) { v, ok := kw[k]; return v, ok })
	require.NoError(t, err)
	assert.Equal(t, [4]float64{-0.001, 0, 0, 0.001}, p.CD)
	assert.InDelta(t, 3.6, p.PixelScale(), 1e-9)

	delete(kw, "CRVAL2")
	_, err = NewTanProjectorFromKeywords(func(k string) (float64, bool) { v, ok := kw[k]; return v, ok })
	assert.ErrorContains(t, err, "CRVAL2")
}

func TestShiftedMovesOrigin(t *testing.T) {
	p := testProjector(t)
	s := SkyPosition{RA: 150.01, Dec: 20.005}

	full, err := p.SkyToPixel(s)
	require.NoError(t, err)
	cut, err := p.Shifted(400, 450).SkyToPixel(s)
	require.NoError(t, err)

	assert.InDelta(t, full.X-400, cut.X, 1e-9)
	assert.InDelta(t, full.Y-450, cut.Y, 1e-9)
}

func TestSeparationAndJD(t *testing.T) {
	a := SkyPosition{RA: 10, Dec: 0}
	b := SkyPosition{RA: 10, Dec: 1.0 / 60.0}
	assert.InDelta(t, 60.0, a.Separation(b).Sec(), 1e-6)

	assert.Equal(t, 0.0, a.JD())
	a.Epoch = time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC)
	assert.InDelta(t, 2451545.0, a.JD(), 1e-9)
}

func TestPixelValidity(t *testing.T) {
	assert.False(t, InvalidPixel.Valid())
	assert.True(t, PixelPosition{1, 2}.Valid())
}
