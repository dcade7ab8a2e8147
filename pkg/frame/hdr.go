package frame

import (
	"fmt"
	"image"
	"image/color"
	"log"
	"os"

	"github.com/mdouchement/hdr/codec/rgbe"
	"github.com/mdouchement/hdr/hdrcolor"
	"github.com/mdouchement/hdr/tmo"

	"github.com/Samridh-Tiwari/StreakLightCurve/pkg/emath"
)

// HDRImage presents a float grid as a gray hdr.Image, so cutouts can be
// looked at in HDR tools without losing the bright end of the streak.
// Values are shifted so Black maps to 0 and scaled so Black+Span maps to
// 1; nothing is clipped at the top.
type HDRImage struct {
	Grid  *emath.FloatGrid
	Black float64
	Span  float64
}

// Implement image.Image
func (hi HDRImage) ColorModel() color.Model { return hdrcolor.RGBModel }
func (hi HDRImage) Bounds() image.Rectangle { return hi.Grid.Bounds() }
func (hi HDRImage) At(x, y int) color.Color { return hi.HDRAt(x, y) }

// Implement hdr.Image
func (hi HDRImage) Size() int { return hi.Grid.Len() }

func (hi HDRImage) HDRAt(x, y int) hdrcolor.Color {
	v := hi.Grid.Get(x, hi.Grid.Dy()-1-y) // flip, so north is up
	span := hi.Span
	if span <= 0 {
		span = 1
	}
	v = (v - hi.Black) / span
	if !emath.Finite(v) || v < 0 {
		v = 0
	}
	return hdrcolor.RGB{R: v, G: v, B: v}
}

// WriteHDR outputs a Radiance HDR image.
func WriteHDR(filename string, hi HDRImage) error {
	writer, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("WriteHDR, open+w '%s': %v", filename, err)
	}
	defer writer.Close()

	if err := rgbe.Encode(writer, hi); err != nil {
		log.Printf("WriteHDR, encoding RGBE file: %v\n", err)
		return err
	}
	return nil
}

var Tonemappers = []string{"linear", "drago03", "reinhard05"}

// Tonemap squashes the cutout back down to a displayable image. The
// default parameters blow out the streak's core, so they're dialed back.
func Tonemap(hi HDRImage, name string) (image.Image, error) {
	var op tmo.ToneMappingOperator

	switch name {
	case "linear":
		op = tmo.NewLinear(hi)

	case "drago03":
		d := tmo.NewDefaultDrago03(hi)
		d.Bias = 1.0
		op = d

	case "reinhard05":
		r := tmo.NewDefaultReinhard05(hi)
		r.Chromatic = 0.005
		r.Light = 0.005
		op = r

	default:
		return nil, fmt.Errorf("tonemapper %q not recognized, wanted %v", name, Tonemappers)
	}

	return op.Perform(), nil
}
