package render

import (
	"fmt"
	"image"
	"math"

	"github.com/fogleman/gg"

	"github.com/Samridh-Tiwari/StreakLightCurve/pkg/streak"
)

// plotArea maps data coords onto a rectangle of the canvas.
type plotArea struct {
	r          image.Rectangle
	xmin, xmax float64
	ymin, ymax float64
}

func (pa plotArea) at(x, y float64) (float64, float64) {
	fx := (x - pa.xmin) / (pa.xmax - pa.xmin)
	fy := (y - pa.ymin) / (pa.ymax - pa.ymin)
	return float64(pa.r.Min.X) + fx*float64(pa.r.Dx()), float64(pa.r.Max.Y) - fy*float64(pa.r.Dy())
}

// runs splits the bins into stretches of non-empty bins; an empty bin
// is a gap in the plot, not a zero.
func runs(bins []streak.Bin) [][]streak.Bin {
	out := [][]streak.Bin{}
	start := -1
	for i, b := range bins {
		if !b.Empty && start < 0 {
			start = i
		} else if b.Empty && start >= 0 {
			out = append(out, bins[start:i])
			start = -1
		}
	}
	if start >= 0 {
		out = append(out, bins[start:])
	}
	return out
}

// profileLimits works out the axis ranges, with a little headroom.
func profileLimits(p streak.Profile) (plotArea, bool) {
	pa := plotArea{xmin: 0, xmax: p.Length * p.PixelScale, ymin: math.Inf(1), ymax: math.Inf(-1)}
	for _, b := range p.Bins {
		if b.Empty {
			continue
		}
		pa.ymin = math.Min(pa.ymin, b.FluxSum-b.FluxError)
		pa.ymax = math.Max(pa.ymax, b.FluxSum+b.FluxError)
	}
	if math.IsInf(pa.ymin, 0) {
		return pa, false
	}

	if pa.xmax <= pa.xmin {
		pa.xmin, pa.xmax = -1, 1 // stationary; everything's at 0
	}
	span := pa.ymax - pa.ymin
	if span <= 0 {
		span = math.Max(math.Abs(pa.ymax), 1)
	}
	pa.ymin -= span * 0.05
	pa.ymax += span * 0.05
	return pa, true
}

func drawProfile(dc *gg.Context, p streak.Profile, r image.Rectangle) {
	// leave room for the axis labels
	area := image.Rect(r.Min.X+70, r.Min.Y+20, r.Max.X-10, r.Max.Y-30)

	dc.SetRGB(1, 1, 1)
	dc.DrawString("Brightness Profile with 1 sigma range", float64(area.Min.X), float64(r.Min.Y+12))

	dc.SetRGB(0.5, 0.5, 0.5)
	dc.SetLineWidth(1)
	dc.DrawRectangle(float64(area.Min.X), float64(area.Min.Y), float64(area.Dx()), float64(area.Dy()))
	dc.Stroke()

	pa, ok := profileLimits(p)
	if !ok {
		dc.SetRGB(1, 1, 1)
		dc.DrawString("no pixels in any bin", float64(area.Min.X+10), float64(area.Min.Y+20))
		return
	}
	pa.r = area

	for _, run := range runs(p.Bins) {
		// error band
		dc.SetRGBA(bandColor.R, bandColor.G, bandColor.B, 0.3)
		for i, b := range run {
			x, y := pa.at(b.CenterArcsec, b.FluxSum+b.FluxError)
			if i == 0 {
				dc.MoveTo(x, y)
			} else {
				dc.LineTo(x, y)
			}
		}
		for i := len(run) - 1; i >= 0; i-- {
			dc.LineTo(pa.at(run[i].CenterArcsec, run[i].FluxSum-run[i].FluxError))
		}
		dc.ClosePath()
		dc.Fill()

		// flux
		dc.SetRGB(1, 1, 1)
		dc.SetLineWidth(1)
		for i, b := range run {
			x, y := pa.at(b.CenterArcsec, b.FluxSum)
			if i == 0 {
				dc.MoveTo(x, y)
			} else {
				dc.LineTo(x, y)
			}
		}
		if len(run) == 1 {
			x, y := pa.at(run[0].CenterArcsec, run[0].FluxSum)
			dc.DrawCircle(x, y, 2)
			dc.Fill()
		}
		dc.Stroke()
	}

	dc.SetRGB(0.8, 0.8, 0.8)
	dc.DrawStringAnchored(fmt.Sprintf("%.1f", pa.xmin), float64(area.Min.X), float64(area.Max.Y+14), 0.5, 0)
	dc.DrawStringAnchored(fmt.Sprintf("%.1f", pa.xmax), float64(area.Max.X), float64(area.Max.Y+14), 0.5, 0)
	dc.DrawStringAnchored("Distance along streak (arcsec)", float64(area.Min.X+area.Dx()/2), float64(area.Max.Y+26), 0.5, 0)
	dc.DrawStringAnchored(fmt.Sprintf("%.0f", pa.ymax), float64(area.Min.X-4), float64(area.Min.Y+10), 1, 0)
	dc.DrawStringAnchored(fmt.Sprintf("%.0f", pa.ymin), float64(area.Min.X-4), float64(area.Max.Y), 1, 0)
}
