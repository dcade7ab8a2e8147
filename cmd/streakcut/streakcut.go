package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Samridh-Tiwari/StreakLightCurve/pkg/batch"
	"github.com/Samridh-Tiwari/StreakLightCurve/pkg/frame"
	"github.com/Samridh-Tiwari/StreakLightCurve/pkg/streak"
)

var (
	fVerbosity  int
	fBinCount   int
	fWidth      float64
	fMargin     float64
	fSeeing     float64
	fOutDir     string
	fRoot       string
	fWorkers    int
	fMetrics    string
	fWriteHDR   bool
	fTonemapper string
	fSubtract   bool
	fConfigFile string
)

func init() {
	flag.IntVar(&fVerbosity, "v", 0, "how verbose to get")
	flag.IntVar(&fBinCount, "bins", 0, "number of bins in the flux profile (0: from config)")
	flag.Float64Var(&fWidth, "width", 0, "mask width, in PSF widths (0: from config)")
	flag.Float64Var(&fMargin, "margin", 0, "margin around the streak, in pixels (0: from config)")
	flag.Float64Var(&fSeeing, "seeing", 0, "seeing FWHM in arcsec, overrides the image header")
	flag.StringVar(&fOutDir, "o", "cutouts", "directory to write cutouts into")
	flag.StringVar(&fRoot, "root", "mostoutput", "archive root dir; the dir below it names the asteroid")
	flag.IntVar(&fWorkers, "workers", 0, "observations to process at once (0: one per CPU)")
	flag.StringVar(&fMetrics, "metrics", "", "if set, write run counters to this Prometheus textfile")
	flag.BoolVar(&fWriteHDR, "hdr", false, "also write each cutout as a Radiance HDR image")
	flag.StringVar(&fTonemapper, "tonemapper", "linear", "how to tonemap the HDR cutout for a PNG preview: "+fmt.Sprint(frame.Tonemappers))
	flag.BoolVar(&fSubtract, "subtract", false, "subtract the background median before summing flux")
	flag.StringVar(&fConfigFile, "config", "", "YAML config file, read first; any .yaml among the args is layered on top, then flags")
}

func main() {
	flag.Parse()
	log.Printf("streakcut starting\n")

	if flag.NArg() == 0 {
		log.Fatal("usage: streakcut [flags] <record.fits.txt | dir | config.yaml> ...")
	}

	c := collection{Config: streak.NewConfig()}
	if fConfigFile != "" {
		if err := c.loadFile(fConfigFile); err != nil {
			log.Fatal(err)
		}
	}
	if err := c.LoadFilesAndDirs(flag.Args()...); err != nil {
		log.Fatal(err)
	}

	applyFlags(&c.Config)
	if err := c.Config.Validate(); err != nil {
		log.Fatal(err)
	}

	if c.Config.Verbosity > 0 {
		log.Printf("Final configuration:-\n\n%s\n", c.Config.AsYaml())
	}
	log.Printf("found %d observation records\n", len(c.Records))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p := processor{
		Config:     c.Config,
		OutDir:     fOutDir,
		Root:       fRoot,
		Seeing:     fSeeing,
		WriteHDR:   fWriteHDR,
		Tonemapper: fTonemapper,
	}

	m := batch.NewMetrics()
	runner := batch.Runner{Workers: fWorkers, Metrics: m, Verbosity: c.Config.Verbosity}
	outcomes := runner.Run(ctx, p.Jobs(c.Records))

	nClipped := 0
	for _, o := range outcomes {
		if o.Err == nil && o.Result.Clipped() {
			nClipped++
		}
	}
	log.Printf("%d cutouts ran off the edge of their image\n", nClipped)
	if hint := compressedHint(outcomes); hint != "" {
		log.Printf("%s\n", hint)
	}
	log.Printf("%s\n", m.LatencySummary())

	if fMetrics != "" {
		if err := m.WriteTextfile(fMetrics); err != nil {
			log.Fatal(err)
		}
	}
}

// compressedHint sums up, in one line, the observations skipped because
// only a tile-compressed image was found for them.
func compressedHint(outcomes []batch.Outcome) string {
	n := 0
	for _, o := range outcomes {
		if errors.Is(o.Err, frame.ErrCompressed) {
			n++
		}
	}
	if n == 0 {
		return ""
	}
	return fmt.Sprintf("%d of %d observations only have tile-compressed (.fz) images, which can't be read; "+
		"run funpack over the archive and try again", n, len(outcomes))
}

// applyFlags lets the command line override whatever the config files
// said. Flags left at their zero value change nothing.
func applyFlags(cfg *streak.Config) {
	if fVerbosity > 0 {
		cfg.Verbosity = fVerbosity
	}
	if fBinCount > 0 {
		cfg.BinCount = fBinCount
	}
	if fWidth > 0 {
		cfg.WidthFactor = fWidth
	}
	if fMargin > 0 {
		cfg.MarginPixels = fMargin
	}
	if fSubtract {
		cfg.SubtractBackground = true
	}
}
