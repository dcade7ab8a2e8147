package sky

import (
	"fmt"
	"math"
)

const deg2rad = math.Pi / 180.0

// A TanProjector is the gnomonic (TAN) projection described by the
// standard FITS WCS keywords. SIP distortion terms are ignored; over a
// cutout they amount to a small fraction of a pixel.
type TanProjector struct {
	CRPix [2]float64 // reference pixel, in PixelPosition coordinates
	CRVal [2]float64 // sky position of the reference pixel (deg)
	CD    [4]float64 // CD1_1, CD1_2, CD2_1, CD2_2 (deg/pixel)

	inv [4]float64
}

// A KeywordFunc looks up a numeric header keyword.
type KeywordFunc func(key string) (float64, bool)

// NewTanProjector builds a projector. crpix follows the FITS convention,
// where the center of the first pixel is (1,1).
func NewTanProjector(crpix1, crpix2, crval1, crval2 float64, cd [4]float64) (*TanProjector, error) {
	det := cd[0]*cd[3] - cd[1]*cd[2]
	if det == 0 || math.IsNaN(det) {
		return nil, fmt.Errorf("tan projector: singular CD matrix %v", cd)
	}

	return &TanProjector{
		CRPix: [2]float64{crpix1 - 0.5, crpix2 - 0.5},
		CRVal: [2]float64{crval1, crval2},
		CD:    cd,
		inv:   [4]float64{cd[3] / det, -cd[1] / det, -cd[2] / det, cd[0] / det},
	}, nil
}

// NewTanProjectorFromKeywords reads CRPIXn, CRVALn and either the CDi_j
// matrix, or CDELTn with PCi_j or CROTA2.
func NewTanProjectorFromKeywords(get KeywordFunc) (*TanProjector, error) {
	must := func(key string) (float64, error) {
		if v, ok := get(key); ok {
			return v, nil
		}
		return 0, fmt.Errorf("tan projector: missing WCS keyword %s", key)
	}

	var ref [4]float64
	for i, key := range []string{"CRPIX1", "CRPIX2", "CRVAL1", "CRVAL2"} {
		v, err := must(key)
		if err != nil {
			return nil, err
		}
		ref[i] = v
	}

	var cd [4]float64
	if _, ok := get("CD1_1"); ok {
		for i, key := range []string{"CD1_1", "CD1_2", "CD2_1", "CD2_2"} {
			cd[i], _ = get(key) // absent off-diagonal terms are zero
		}

	} else {
		cdelt1, err := must("CDELT1")
		if err != nil {
			return nil, err
		}
		cdelt2, err := must("CDELT2")
		if err != nil {
			return nil, err
		}

		if _, ok := get("PC1_1"); ok {
			pc := [4]float64{1, 0, 0, 1}
			for i, key := range []string{"PC1_1", "PC1_2", "PC2_1", "PC2_2"} {
				if v, ok := get(key); ok {
					pc[i] = v
				}
			}
			cd = [4]float64{cdelt1 * pc[0], cdelt1 * pc[1], cdelt2 * pc[2], cdelt2 * pc[3]}
		} else {
			rho, _ := get("CROTA2")
			s, c := math.Sincos(rho * deg2rad)
			cd = [4]float64{cdelt1 * c, -cdelt2 * s, cdelt1 * s, cdelt2 * c}
		}
	}

	return NewTanProjector(ref[0], ref[1], ref[2], ref[3], cd)
}

// SkyToPixel fails with ErrOutsideDomain for points 90 degrees or more
// from the tangent point, where the projection is undefined.
func (t *TanProjector) SkyToPixel(p SkyPosition) (PixelPosition, error) {
	if !p.Valid() {
		return InvalidPixel, fmt.Errorf("sky position %s: %w", p, ErrOutsideDomain)
	}

	ra, dec := p.RA*deg2rad, p.Dec*deg2rad
	ra0, dec0 := t.CRVal[0]*deg2rad, t.CRVal[1]*deg2rad

	sinDec, cosDec := math.Sincos(dec)
	sinDec0, cosDec0 := math.Sincos(dec0)
	sinDRA, cosDRA := math.Sincos(ra - ra0)

	cosc := sinDec0*sinDec + cosDec0*cosDec*cosDRA
	if cosc <= 1e-8 {
		return InvalidPixel, fmt.Errorf("sky position %s: %w", p, ErrOutsideDomain)
	}

	xi := cosDec * sinDRA / cosc / deg2rad
	eta := (cosDec0*sinDec - sinDec0*cosDec*cosDRA) / cosc / deg2rad

	return PixelPosition{
		X: t.inv[0]*xi + t.inv[1]*eta + t.CRPix[0],
		Y: t.inv[2]*xi + t.inv[3]*eta + t.CRPix[1],
	}, nil
}

func (t *TanProjector) PixelToSky(p PixelPosition) (SkyPosition, error) {
	if !p.Valid() {
		return SkyPosition{}, fmt.Errorf("pixel position %s: %w", p, ErrOutsideDomain)
	}

	dx, dy := p.X-t.CRPix[0], p.Y-t.CRPix[1]
	xi := (t.CD[0]*dx + t.CD[1]*dy) * deg2rad
	eta := (t.CD[2]*dx + t.CD[3]*dy) * deg2rad

	ra0, dec0 := t.CRVal[0]*deg2rad, t.CRVal[1]*deg2rad
	rho := math.Hypot(xi, eta)
	if rho == 0 {
		return SkyPosition{RA: t.CRVal[0], Dec: t.CRVal[1]}, nil
	}

	c := math.Atan(rho)
	sinC, cosC := math.Sincos(c)
	sinDec0, cosDec0 := math.Sincos(dec0)

	dec := math.Asin(cosC*sinDec0 + eta*sinC*cosDec0/rho)
	ra := ra0 + math.Atan2(xi*sinC, rho*cosDec0*cosC-eta*sinDec0*sinC)

	raDeg := math.Mod(ra/deg2rad, 360)
	if raDeg < 0 {
		raDeg += 360
	}
	return SkyPosition{RA: raDeg, Dec: dec / deg2rad}, nil
}

// PixelScale is the mean of the two projection-plane pixel scales.
func (t *TanProjector) PixelScale() float64 {
	sx := math.Hypot(t.CD[0], t.CD[2])
	sy := math.Hypot(t.CD[1], t.CD[3])
	return (sx + sy) / 2.0 * 3600.0
}

// Shifted returns the projector for a cutout whose first pixel sits at
// (x0,y0) in this projector's image.
func (t *TanProjector) Shifted(x0, y0 float64) *TanProjector {
	t2 := *t
	t2.CRPix[0] -= x0
	t2.CRPix[1] -= y0
	return &t2
}

// A Keyword is a header card, for writers that need to persist the WCS.
type Keyword struct {
	Name    string
	Value   interface{}
	Comment string
}

func (t *TanProjector) Keywords() []Keyword {
	return []Keyword{
		{"CTYPE1", "RA---TAN", "gnomonic projection"},
		{"CTYPE2", "DEC--TAN", "gnomonic projection"},
		{"CRPIX1", t.CRPix[0] + 0.5, "reference pixel"},
		{"CRPIX2", t.CRPix[1] + 0.5, "reference pixel"},
		{"CRVAL1", t.CRVal[0], "[deg] RA at reference pixel"},
		{"CRVAL2", t.CRVal[1], "[deg] Dec at reference pixel"},
		{"CD1_1", t.CD[0], ""},
		{"CD1_2", t.CD[1], ""},
		{"CD2_1", t.CD[2], ""},
		{"CD2_2", t.CD[3], ""},
	}
}
