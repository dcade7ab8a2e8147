package obsmeta

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/Samridh-Tiwari/StreakLightCurve/pkg/sky"
	"github.com/Samridh-Tiwari/StreakLightCurve/pkg/streak"
)

// Summary is what gets written next to each cutout.
type Summary struct {
	Asteroid string
	Record   Record
	MagLimit float64 // from the image header
	Seeing   float64 // arcsec, from the image header
	Result   *streak.Result
}

func (s Summary) WriteFile(filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("summary, open+w '%s': %v", filename, err)
	}
	defer f.Close()

	if err := s.Write(f); err != nil {
		return fmt.Errorf("summary '%s': %v", filename, err)
	}
	return f.Close()
}

// Write emits "Key: value" lines, in the same style as the records we
// read, then the flux profile as a table.
func (s Summary) Write(out io.Writer) error {
	w := bufio.NewWriter(out)
	rec := s.Record
	start, end := rec.Start(), rec.End()

	fmt.Fprintf(w, "Asteroid: %s\n", s.Asteroid)
	fmt.Fprintf(w, "Observation Time: %s %s\n", rec.Date, rec.Time)
	if jd := start.JD(); jd > 0 {
		fmt.Fprintf(w, "JD: %.6f\n", jd)
	}
	fmt.Fprintf(w, "Vmag: %.2f\n", rec.Vmag)
	fmt.Fprintf(w, "Mag Limit: %.2f\n", s.MagLimit)
	fmt.Fprintf(w, "FWHM: %.2f\"\n", s.Seeing)
	fmt.Fprintf(w, "Start: %s (%s)\n", start, start.Sexagesimal())
	fmt.Fprintf(w, "End: %s (%s)\n", end, end.Sexagesimal())
	east, north := offsets(start, end)
	fmt.Fprintf(w, "Displacement: %.2f\" (%.2f\" RA*cos(Dec), %.2f\" Dec)\n",
		start.Separation(end).Sec(), east, north)

	if r := s.Result; r != nil {
		fmt.Fprintf(w, "PSF Width: %.2f px\n", r.PSFWidth)
		fmt.Fprintf(w, "Pixel Scale: %.4f\"/px\n", r.PixelScale)
		fmt.Fprintf(w, "Trajectory: %.2f px at %.2f deg\n", r.Geometry.Length, r.Geometry.Angle*180/math.Pi)
		fmt.Fprintf(w, "Region: %s\n", r.Region.Bounds)
		fmt.Fprintf(w, "Clipped: %v\n", r.Region.Clipped)
		fmt.Fprintf(w, "Background: %.3f +/- %.3f\n", r.Stats.Median, r.Stats.Sigma)
		fmt.Fprintf(w, "Display Range: %.3f - %.3f\n", r.Stats.DisplayLow, r.Stats.DisplayHigh)

		fmt.Fprintf(w, "\n# bin  arcsec  flux  error  pixels\n")
		for i, b := range r.Profile.Bins {
			if b.Empty {
				fmt.Fprintf(w, "%d %.3f - - 0\n", i, b.CenterArcsec)
				continue
			}
			fmt.Fprintf(w, "%d %.3f %.3f %.3f %d\n", i, b.CenterArcsec, b.FluxSum, b.FluxError, b.PixelCount)
		}
	}

	return w.Flush()
}

// offsets splits the motion into on-sky arcsec along RA and Dec. The RA
// difference is wrapped into [-180,180) so crossing RA=0 isn't a lap of
// the sky, and scaled by cos(Dec) at the mean declination.
func offsets(start, end sky.SkyPosition) (east, north float64) {
	dRA := math.Mod(end.RA-start.RA+540, 360) - 180
	cosDec := math.Cos((start.Dec + end.Dec) / 2 * math.Pi / 180)
	return dRA * cosDec * 3600, (end.Dec - start.Dec) * 3600
}
