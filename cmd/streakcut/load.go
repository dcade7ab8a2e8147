package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Samridh-Tiwari/StreakLightCurve/pkg/frame"
	"github.com/Samridh-Tiwari/StreakLightCurve/pkg/streak"
)

// collection is everything named on the command line: the observation
// records to process, and the config to process them with. Config files
// are layered in the order they're found, each one only changing the
// values it names.
type collection struct {
	Config  streak.Config
	Records []string
}

func (c *collection) LoadFilesAndDirs(args ...string) error {
	for _, arg := range args {
		item, err := os.Stat(arg)

		switch {
		case err != nil:
			return fmt.Errorf("load %s: %v", arg, err)

		case item.IsDir():
			// Is a dir, recurse into contents
			contents, err := os.ReadDir(arg)
			if err != nil {
				return fmt.Errorf("readdir %s: %v", arg, err)
			}
			for _, content := range contents {
				if err := c.LoadFilesAndDirs(filepath.Join(arg, content.Name())); err != nil {
					return fmt.Errorf("load %s: %v", arg, err)
				}
			}

		default:
			if err := c.loadFile(arg); err != nil {
				return fmt.Errorf("loadfile %s: %v", arg, err)
			}
		}
	}

	sort.Strings(c.Records)
	return nil
}

// isRecord picks out the per-image observation records, which sit next to
// the image they describe ("<image>.fits.txt"). Our own summaries are
// skipped, so rerunning over an output dir is harmless.
func isRecord(filename string) bool {
	base := strings.ToLower(filepath.Base(filename))
	if strings.HasSuffix(base, "_cutout.txt") {
		return false
	}
	return strings.HasSuffix(base, ".fits.txt") || strings.HasSuffix(base, ".fits.fz.txt")
}

func (c *collection) loadFile(filename string) error {
	switch {
	case isRecord(filename):
		c.Records = append(c.Records, filename)

	case strings.ToLower(filepath.Ext(filename)) == ".yaml":
		// Sidecars describe a TIFF's WCS, they aren't config
		if strings.HasSuffix(filename, frame.SidecarSuffix) {
			return nil
		}
		cfg, err := streak.LoadConfigOver(c.Config, filename)
		if err != nil {
			return fmt.Errorf("Loading %s as config YAML failed: %v", filename, err)
		}
		c.Config = cfg
		log.Printf("Loaded configuration from %s\n", filename)
	}

	return nil
}
