package emath

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/fogleman/gg" // Move to https://pkg.go.dev/golang.org/x/image/font#Drawer sometime
)

// A FloatGrid is a grid of floats, stored row-major (x varies fastest,
// just like the data section of a FITS image). Pixel (x,y) covers the
// continuous area [x,x+1) x [y,y+1), so its center is at (x+0.5, y+0.5).
type FloatGrid struct {
	stride int
	values []float64
}

func NewFloatGrid(w, h int) FloatGrid {
	return FloatGrid{
		stride: w,
		values: make([]float64, w*h),
	}
}

// NewFloatGridFromValues wraps an existing row-major slice; it does not copy.
func NewFloatGridFromValues(w int, values []float64) (FloatGrid, error) {
	if w <= 0 || len(values)%w != 0 {
		return FloatGrid{}, fmt.Errorf("floatgrid: %d values do not fill rows of width %d", len(values), w)
	}
	return FloatGrid{stride: w, values: values}, nil
}

func (fg *FloatGrid) Set(x, y int, v float64) { fg.values[fg.stride*y+x] = v }
func (fg *FloatGrid) Get(x, y int) float64    { return fg.values[fg.stride*y+x] }
func (fg *FloatGrid) Dx() int                 { return fg.stride }
func (fg *FloatGrid) Bounds() image.Rectangle { return image.Rect(0, 0, fg.Dx(), fg.Dy()) }
func (fg *FloatGrid) Len() int                { return len(fg.values) }

func (fg *FloatGrid) Dy() int {
	if fg.stride == 0 {
		return 0
	}
	return len(fg.values) / fg.stride
}

// Values returns the backing slice; callers must not modify it.
func (fg *FloatGrid) Values() []float64 { return fg.values }

// Crop copies out the sub-grid covered by r, which must lie inside the
// grid's bounds. The result has its origin at r.Min.
func (fg *FloatGrid) Crop(r image.Rectangle) FloatGrid {
	out := NewFloatGrid(r.Dx(), r.Dy())
	for y := 0; y < r.Dy(); y++ {
		src := fg.stride*(r.Min.Y+y) + r.Min.X
		copy(out.values[y*out.stride:(y+1)*out.stride], fg.values[src:src+r.Dx()])
	}
	return out
}

// Window returns the finite values inside r (clipped to the grid).
func (fg *FloatGrid) Window(r image.Rectangle) []float64 {
	r = r.Intersect(fg.Bounds())
	vals := make([]float64, 0, r.Dx()*r.Dy())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if v := fg.Get(x, y); Finite(v) {
				vals = append(vals, v)
			}
		}
	}
	return vals
}

// Stats gives the size and range of the grid, for logging. Non-finite
// values are counted rather than ranged.
func (fg *FloatGrid) Stats() string {
	min := math.MaxFloat64
	max := -1.0 * min
	nBad := 0

	for _, v := range fg.values {
		if !Finite(v) {
			nBad++
			continue
		}
		if v > max {
			max = v
		}
		if v < min {
			min = v
		}
	}
	return fmt.Sprintf("fg[%dx%d, vals{%f,%f}, %d non-finite]", fg.Dx(), fg.Dy(), min, max, nBad)
}

// ToGray16 maps [low,high] onto black..white, clipping outside that
// range. FITS images put row 0 at the bottom, so when flip is set the
// rows are reversed to give the usual astronomical orientation.
func (fg *FloatGrid) ToGray16(low, high float64, flip bool) *image.Gray16 {
	img := image.NewGray16(fg.Bounds())
	span := high - low
	if span <= 0 {
		span = 1
	}
	for y := 0; y < fg.Dy(); y++ {
		dy := y
		if flip {
			dy = fg.Dy() - 1 - y
		}
		for x := 0; x < fg.Dx(); x++ {
			f := (fg.Get(x, y) - low) / span
			if math.IsNaN(f) || f < 0 {
				f = 0
			} else if f > 1 {
				f = 1
			}
			img.SetGray16(x, dy, color.Gray16{uint16(f * 65535.0)})
		}
	}
	return img
}

// ToImg saves a simple grayscale, based on the range of values in the grid, and gamma scaling the
// gray to look normal for human vision
func (fg *FloatGrid) ToImg(title, filename string) error {
	min, max := math.MaxFloat64, -math.MaxFloat64
	for i := 0; i < len(fg.values); i++ {
		if fg.values[i] > max {
			max = fg.values[i]
		}
		if fg.values[i] < min {
			min = fg.values[i]
		}
	}

	img := image.NewRGBA64(image.Rectangle{Max: image.Point{fg.Dx(), fg.Dy()}})
	for x := 0; x < fg.Dx(); x++ {
		for y := 0; y < fg.Dy(); y++ {
			lum := fg.Get(x, y)
			gray := 0.0
			if max > min {
				gray = GammaExpand_F64((lum - min) / (max - min))
			}
			col := color.RGBA64{uint16(gray * 65535.0), uint16(gray * 65535.0), uint16(gray * 65535.0), 0xFFFF}
			img.Set(x, fg.Dy()-1-y, col)
		}
	}

	dc := gg.NewContextForImage(img)
	dc.SetRGB(1, 0, 0)
	dc.DrawString(title, 5, 15)
	return dc.SavePNG(filename)
}
