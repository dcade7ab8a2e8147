package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/Samridh-Tiwari/StreakLightCurve/pkg/batch"
	"github.com/Samridh-Tiwari/StreakLightCurve/pkg/frame"
	"github.com/Samridh-Tiwari/StreakLightCurve/pkg/obsmeta"
	"github.com/Samridh-Tiwari/StreakLightCurve/pkg/render"
	"github.com/Samridh-Tiwari/StreakLightCurve/pkg/streak"
)

// processor turns one observation record into a cutout, a diagnostic
// image, and a summary.
type processor struct {
	Config   streak.Config
	OutDir   string
	Root     string
	Seeing   float64 // arcsec; if zero, taken from each image's header
	WriteHDR bool

	Tonemapper string // for the HDR's PNG preview
}

func (p processor) Jobs(records []string) []batch.Job {
	jobs := []batch.Job{}
	for _, filename := range records {
		jobs = append(jobs, batch.Job{
			Name: filepath.Base(filename),
			Do:   func() (*streak.Result, error) { return p.process(filename) },
		})
	}
	return jobs
}

func (p processor) process(recordFile string) (*streak.Result, error) {
	rec, err := obsmeta.ReadRecord(recordFile)
	if err != nil {
		return nil, err
	}

	asteroid, err := obsmeta.AsteroidFromPath(recordFile, p.Root)
	if err != nil {
		return nil, err
	}

	imageFile, err := rec.FindImage()
	if err != nil {
		return nil, err
	}
	fr, err := frame.Load(imageFile)
	if err != nil {
		return nil, err
	}

	proj, err := fr.Projector()
	if err != nil {
		return nil, fmt.Errorf("%s: %v", imageFile, err)
	}

	seeing := fr.Header.Seeing()
	if p.Seeing > 0 {
		seeing = p.Seeing
	}
	obs, err := rec.Observation(seeing)
	if err != nil {
		return nil, err
	}

	res, err := streak.Extract(&fr.Pixels, proj, obs, p.Config)
	if err != nil {
		return nil, err
	}

	summary := obsmeta.Summary{
		Asteroid: asteroid,
		Record:   rec,
		MagLimit: fr.Header.MagLimit(),
		Seeing:   seeing,
		Result:   res,
	}
	if err := p.write(fr, summary); err != nil {
		return nil, err
	}

	return res, nil
}

// write saves everything for one observation into
// <outdir>/<asteroid>/<image>_cutout.{fits,png,txt}
func (p processor) write(fr *frame.Frame, s obsmeta.Summary) error {
	dir := filepath.Join(p.OutDir, s.Asteroid)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("mkdir %s: %v", dir, err)
	}
	stem := filepath.Join(dir, imageStem(fr.Filename)+"_cutout")
	res := s.Result

	if err := fr.WriteCutout(stem+".fits", &res.Region.Pixels, res.Region.Bounds.Min); err != nil {
		return err
	}

	title := fmt.Sprintf("%s  %s %s", s.Asteroid, s.Record.Date, s.Record.Time)
	if err := render.WritePNG(render.Diagnostic(res, title), stem+".png"); err != nil {
		return err
	}

	if err := s.WriteFile(stem + ".txt"); err != nil {
		return err
	}

	if p.WriteHDR {
		hi := frame.HDRImage{
			Grid:  &res.Region.Pixels,
			Black: res.Stats.DisplayLow,
			Span:  res.Stats.DisplayHigh - res.Stats.DisplayLow,
		}
		if err := frame.WriteHDR(stem+".hdr", hi); err != nil {
			return err
		}
		if p.Tonemapper != "" {
			img, err := frame.Tonemap(hi, p.Tonemapper)
			if err != nil {
				return err
			}
			if err := render.WritePNG(img, stem+"_tmo.png"); err != nil {
				return err
			}
		}
	}

	if p.Config.Verbosity > 1 {
		mask := res.Mask.ToGrid()
		if err := mask.ToImg("mask", stem+"_mask.png"); err != nil {
			log.Printf("%s: %v\n", stem, err)
		}
		if err := res.Region.Pixels.ToImg("region", stem+"_region.png"); err != nil {
			log.Printf("%s: %v\n", stem, err)
		}
		h := render.DisplayHistogram(&res.Region.Pixels, res.Stats.DisplayLow, res.Stats.DisplayHigh)
		log.Printf("%s: display levels %v\n", stem, &h)
	}

	return nil
}

// imageStem drops the image's extensions, compression included:
// "x_scimrefdiffimg.fits.fz" becomes "x_scimrefdiffimg".
func imageStem(filename string) string {
	base := filepath.Base(filename)
	for _, ext := range []string{".fz", ".fits", ".fit", ".fts", ".tiff", ".tif"} {
		if strings.HasSuffix(strings.ToLower(base), ext) {
			base = base[:len(base)-len(ext)]
		}
	}
	return base
}
