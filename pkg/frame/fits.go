package frame

import (
	"fmt"
	"image"
	"io"
	"math"
	"os"

	"github.com/astrogo/fitsio"

	"github.com/Samridh-Tiwari/StreakLightCurve/pkg/emath"
	"github.com/Samridh-Tiwari/StreakLightCurve/pkg/sky"
)

func LoadFITS(filename string) (*Frame, error) {
	r, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open+r '%s': %v", filename, err)
	}
	defer r.Close()

	f, err := ReadFITS(r)
	if err != nil {
		return nil, fmt.Errorf("fits '%s': %v", filename, err)
	}
	f.Filename = filename
	return f, nil
}

// ReadFITS takes the first image HDU with two non-trivial axes. Extra
// axes of length 1 (NAXIS3 = 1, as some pipelines write) are ignored.
func ReadFITS(r io.Reader) (*Frame, error) {
	ff, err := fitsio.Open(r)
	if err != nil {
		return nil, err
	}
	defer ff.Close()

	var img fitsio.Image
	for _, hdu := range ff.HDUs() {
		if hdu.Type() != fitsio.IMAGE_HDU {
			continue
		}
		if im, ok := hdu.(fitsio.Image); ok && planeSize(im.Header().Axes()) > 0 {
			img = im
			break
		}
	}
	if img == nil {
		return nil, fmt.Errorf("no 2-D image HDU")
	}

	hdr := Header{}
	addKeys(hdr, img.Header())
	for _, hdu := range ff.HDUs() {
		addKeys(hdr, hdu.Header())
	}

	axes := img.Header().Axes()
	vals, err := readPixels(img, planeSize(axes))
	if err != nil {
		return nil, err
	}
	grid, err := emath.NewFloatGridFromValues(axes[0], vals)
	if err != nil {
		return nil, err
	}

	return &Frame{Pixels: grid, Header: hdr}, nil
}

// planeSize is w*h if the axes describe a single 2-D plane, else 0.
func planeSize(axes []int) int {
	if len(axes) < 2 || axes[0] < 1 || axes[1] < 1 {
		return 0
	}
	for _, n := range axes[2:] {
		if n != 1 {
			return 0
		}
	}
	return axes[0] * axes[1]
}

func addKeys(hdr Header, h *fitsio.Header) {
	for _, k := range h.Keys() {
		if _, exists := hdr[k]; exists {
			continue
		}
		if card := h.Get(k); card != nil {
			hdr[k] = card.Value
		}
	}
}

type pixelType interface {
	uint8 | int16 | int32 | int64 | float32 | float64
}

// readAs reads the raw data, then applies BLANK, BSCALE and BZERO.
func readAs[T pixelType](img fitsio.Image, n int, hdr Header) ([]float64, error) {
	raw := make([]T, n)
	if err := img.Read(&raw); err != nil {
		return nil, err
	}

	bscale, ok := hdr.Float("BSCALE")
	if !ok {
		bscale = 1
	}
	bzero, _ := hdr.Float("BZERO")
	blank, hasBlank := hdr.Float("BLANK")

	out := make([]float64, len(raw))
	for i, v := range raw {
		f := float64(v)
		if hasBlank && f == blank {
			out[i] = math.NaN()
			continue
		}
		out[i] = f*bscale + bzero
	}
	return out, nil
}

// Scaling keywords only count in the HDU holding the data.
func readPixels(img fitsio.Image, n int) ([]float64, error) {
	hdr := Header{}
	addKeys(hdr, img.Header())

	switch bitpix := img.Header().Bitpix(); bitpix {
	case 8:
		return readAs[uint8](img, n, hdr)
	case 16:
		return readAs[int16](img, n, hdr)
	case 32:
		return readAs[int32](img, n, hdr)
	case 64:
		return readAs[int64](img, n, hdr)
	case -32:
		return readAs[float32](img, n, hdr)
	case -64:
		return readAs[float64](img, n, hdr)
	default:
		return nil, fmt.Errorf("unsupported BITPIX %d", bitpix)
	}
}

// WriteCutout saves the pixels of a cutout whose first pixel sits at
// origin in this frame. The WCS is re-anchored so the cutout stands on
// its own; LTV1/LTV2 record the offset, IRAF style.
func (f *Frame) WriteCutout(filename string, pixels *emath.FloatGrid, origin image.Point) error {
	proj, err := f.Projector()
	if err != nil {
		return err
	}

	cards := proj.Shifted(float64(origin.X), float64(origin.Y)).Keywords()
	cards = append(cards,
		sky.Keyword{Name: "LTV1", Value: float64(-origin.X), Comment: "cutout offset"},
		sky.Keyword{Name: "LTV2", Value: float64(-origin.Y), Comment: "cutout offset"})
	for _, key := range []string{"SEEING", "MAGLIM", "EXPTIME", "DATE-OBS", "MJD-OBS", "FILTER"} {
		if v, ok := f.Header[key]; ok {
			cards = append(cards, sky.Keyword{Name: key, Value: v})
		}
	}

	w, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("WriteCutout, open+w '%s': %v", filename, err)
	}
	defer w.Close()

	if err := WriteFITS(w, pixels, cards); err != nil {
		return fmt.Errorf("WriteCutout '%s': %v", filename, err)
	}
	return w.Close()
}

// WriteFITS writes a single-HDU, 64-bit float image.
func WriteFITS(w io.Writer, pixels *emath.FloatGrid, cards []sky.Keyword) error {
	ff, err := fitsio.Create(w)
	if err != nil {
		return err
	}
	defer ff.Close()

	img := fitsio.NewImage(-64, []int{pixels.Dx(), pixels.Dy()})
	defer img.Close()

	for _, k := range cards {
		if err := img.Header().Append(fitsio.Card{Name: k.Name, Value: k.Value, Comment: k.Comment}); err != nil {
			return fmt.Errorf("card %s: %v", k.Name, err)
		}
	}

	data := append([]float64(nil), pixels.Values()...)
	if err := img.Write(&data); err != nil {
		return err
	}
	return ff.Write(img)
}
