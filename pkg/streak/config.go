package streak

import (
	"fmt"
	"io/ioutil"
	"log"
	"math"

	"gopkg.in/yaml.v2"
)

/* Example config file ...

bincount: 100
marginmultiplier: 1.5
marginpixels: 50
mincutoutsize: 100
widthfactor: 2.0
displaysigmas: 2.0
subtractbackground: false

*/

// Config holds the knobs for extracting a streak. Every component takes
// it explicitly; there is no package-level state.
type Config struct {
	Verbosity int

	BinCount         int     // number of bins in the flux profile, regardless of streak length
	MarginMultiplier float64 // cutout size = max(|dx|,|dy|) * MarginMultiplier + MarginPixels
	MarginPixels     float64
	MinCutoutSize    float64 // cutouts are never smaller than this (pixels)

	WidthFactor float64 // mask width, in PSF widths; 2x captures ~95% of a gaussian's flux

	DisplaySigmas      float64 // display stretch is median +/- this many sigma
	MADScale           float64 // turns a median absolute deviation into a gaussian sigma
	SigmaFloor         float64 // sigma reported for perfectly flat data
	SubtractBackground bool    // subtract the region median from each pixel before summing
}

func NewConfig() Config {
	return Config{
		BinCount:         100,
		MarginMultiplier: 1.5,
		MarginPixels:     50,
		MinCutoutSize:    100,
		WidthFactor:      2.0,
		DisplaySigmas:    2.0,
		MADScale:         1.4826,
		SigmaFloor:       1e-6,
	}
}

// NewConfigFromYaml starts from the defaults, so a config file only
// needs to name the values it changes.
func NewConfigFromYaml(b []byte) (Config, error) {
	return NewConfig().Overlay(b)
}

// Overlay returns c with the values named in the YAML replaced; values
// it doesn't name are kept.
func (c Config) Overlay(b []byte) (Config, error) {
	if err := yaml.Unmarshal(b, &c); err != nil {
		return c, fmt.Errorf("parse config: %v", err)
	}
	return c, c.Validate()
}

func LoadConfig(filename string) (Config, error) {
	return LoadConfigOver(NewConfig(), filename)
}

// LoadConfigOver reads a config file on top of base.
func LoadConfigOver(base Config, filename string) (Config, error) {
	contents, err := ioutil.ReadFile(filename)
	if err != nil {
		return base, fmt.Errorf("config read %s: %v", filename, err)
	}

	c, err := base.Overlay(contents)
	if err != nil {
		return c, fmt.Errorf("config %s: %v", filename, err)
	}
	return c, nil
}

func (c Config) AsYaml() string {
	b, err := yaml.Marshal(c)
	if err != nil {
		log.Printf("Can't marshal config yaml: %v\n", err)
		return ""
	}
	return string(b)
}

// Validate does sanity checks on the values
func (c Config) Validate() error {
	positive := func(name string, v float64) error {
		if !(v > 0) || math.IsInf(v, 0) {
			return fmt.Errorf("%s must be positive, got %v", name, v)
		}
		return nil
	}

	if c.BinCount < 1 {
		return fmt.Errorf("bincount must be at least 1, got %d", c.BinCount)
	}
	if c.MarginPixels < 0 {
		return fmt.Errorf("marginpixels must not be negative, got %v", c.MarginPixels)
	}
	if c.MinCutoutSize < 0 {
		return fmt.Errorf("mincutoutsize must not be negative, got %v", c.MinCutoutSize)
	}
	for _, check := range []struct {
		name string
		v    float64
	}{
		{"marginmultiplier", c.MarginMultiplier},
		{"widthfactor", c.WidthFactor},
		{"displaysigmas", c.DisplaySigmas},
		{"madscale", c.MADScale},
		{"sigmafloor", c.SigmaFloor},
	} {
		if err := positive(check.name, check.v); err != nil {
			return err
		}
	}
	return nil
}
