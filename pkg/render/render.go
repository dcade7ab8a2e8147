// Package render draws the diagnostic picture for one extracted streak:
// the cutout, the trajectory and extraction box on top of it, a zoomed
// view rotated to lie along the motion, and the flux profile.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"

	"github.com/fogleman/gg"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/draw"

	"github.com/Samridh-Tiwari/StreakLightCurve/pkg/sky"
	"github.com/Samridh-Tiwari/StreakLightCurve/pkg/streak"
)

// Layout, in output pixels.
const (
	pad        = 16
	titleH     = 24
	mainSize   = 512
	zoomSize   = 256
	plotH      = 220
	markerSize = 7
)

var (
	startColor = colorful.Hsv(120, 1, 1)  // lime
	endColor   = colorful.Hsv(0, 1, 1)    // red
	boxColor   = colorful.Hsv(55, 0.9, 1) // yellow
	bandColor  = colorful.Hsv(300, 1, 1)  // magenta
)

// Diagnostic draws the full picture. The title goes across the top.
func Diagnostic(res *streak.Result, title string) image.Image {
	w := pad + mainSize + pad + zoomSize + pad
	h := titleH + pad + mainSize + pad + plotH + pad

	dc := gg.NewContext(w, h)
	dc.SetRGB(0, 0, 0)
	dc.Clear()

	dc.SetRGB(1, 1, 1)
	dc.DrawString(title, pad, titleH-6)

	top := titleH + pad
	drawCutout(dc, res, image.Rect(pad, top, pad+mainSize, top+mainSize))

	zr := image.Rect(pad+mainSize+pad, top, w-pad, top+zoomSize)
	drawZoom(dc, res, zr)
	drawStatsBox(dc, res.Stats, zr.Min.X, zr.Max.Y+pad)

	plotTop := top + mainSize + pad
	drawProfile(dc, res.Profile, image.Rect(pad, plotTop, w-pad, plotTop+plotH))

	return dc.Image()
}

// cutoutFrame maps continuous cutout coords into a panel, north up.
type cutoutFrame struct {
	origin image.Point
	scale  float64
	height int // of the cutout, in cutout pixels
}

func (cf cutoutFrame) toPanel(p sky.PixelPosition) (float64, float64) {
	return float64(cf.origin.X) + p.X*cf.scale, float64(cf.origin.Y) + (float64(cf.height)-p.Y)*cf.scale
}

func drawCutout(dc *gg.Context, res *streak.Result, panel image.Rectangle) {
	grid := res.Region.Pixels
	if grid.Dx() == 0 || grid.Dy() == 0 {
		return
	}

	gray := grid.ToGray16(res.Stats.DisplayLow, res.Stats.DisplayHigh, true)

	s := math.Min(float64(panel.Dx())/float64(grid.Dx()), float64(panel.Dy())/float64(grid.Dy()))
	dst := image.Rect(0, 0, int(float64(grid.Dx())*s), int(float64(grid.Dy())*s))
	scaled := image.NewRGBA(dst)
	draw.ApproxBiLinear.Scale(scaled, dst, gray, gray.Bounds(), draw.Src, nil)
	dc.DrawImage(scaled, panel.Min.X, panel.Min.Y)

	cf := cutoutFrame{origin: panel.Min, scale: s, height: grid.Dy()}

	// Extraction box
	corners := res.Mask.Corners()
	dc.SetColor(boxColor)
	dc.SetLineWidth(1)
	for i, c := range corners {
		x, y := cf.toPanel(c)
		if i == 0 {
			dc.MoveTo(x, y)
		} else {
			dc.LineTo(x, y)
		}
	}
	dc.ClosePath()
	dc.Stroke()

	g := res.Region.Geometry
	sx, sy := cf.toPanel(g.Start)
	ex, ey := cf.toPanel(g.End)

	dc.SetColor(startColor)
	dc.SetLineWidth(2)
	dc.DrawCircle(sx, sy, markerSize)
	dc.Stroke()

	dc.SetColor(endColor)
	dc.DrawRectangle(ex-markerSize, ey-markerSize, 2*markerSize, 2*markerSize)
	dc.Stroke()

	dc.SetRGB(1, 1, 1)
	label := "clipped: no"
	if res.Region.Clipped {
		label = "clipped: YES"
	}
	dc.DrawString(label, float64(panel.Min.X+4), float64(panel.Max.Y-4))
}

func drawZoom(dc *gg.Context, res *streak.Result, panel image.Rectangle) {
	zoom := StreakView(res)
	if zoom.Bounds().Empty() {
		return
	}
	scaled := image.NewRGBA(image.Rect(0, 0, panel.Dx(), panel.Dy()))
	draw.NearestNeighbor.Scale(scaled, scaled.Bounds(), zoom, zoom.Bounds(), draw.Src, nil)
	dc.DrawImage(scaled, panel.Min.X, panel.Min.Y)

	dc.SetRGB(1, 1, 1)
	dc.DrawString("Rotated Streak View", float64(panel.Min.X+4), float64(panel.Min.Y+14))
}

func drawStatsBox(dc *gg.Context, st streak.Stats, x, y int) {
	lines := []string{
		fmt.Sprintf("Median: %.1f ADU", st.Median),
		fmt.Sprintf("1 sigma: +/-%.1f ADU", st.Sigma),
		fmt.Sprintf("Range: %.1f - %.1f", st.DisplayLow, st.DisplayHigh),
	}
	if st.SigmaFloored {
		lines = append(lines, "(flat background)")
	}

	dc.SetRGBA(0.2, 0.2, 0.2, 0.8)
	dc.DrawRectangle(float64(x), float64(y), zoomSize, float64(16*len(lines)+8))
	dc.Fill()

	dc.SetColor(color.White)
	for i, l := range lines {
		dc.DrawString(l, float64(x+6), float64(y+18+16*i))
	}
}

func WritePNG(img image.Image, filename string) error {
	writer, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("open+w '%s': %v", filename, err)
	}
	defer writer.Close()

	if err := png.Encode(writer, img); err != nil {
		return fmt.Errorf("png '%s': %v", filename, err)
	}
	return writer.Close()
}
