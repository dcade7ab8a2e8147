package frame

import (
	"fmt"
	"image/color"
	"io/ioutil"
	"os"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
	"golang.org/x/image/tiff"
	"gopkg.in/yaml.v2"

	"github.com/Samridh-Tiwari/StreakLightCurve/pkg/emath"
)

/* Example sidecar, image.tif.wcs.yaml ...

crpix1: 1024.5
crpix2: 1024.5
crval1: 212.5813
crval2: -11.2274
cd1_1: -0.000305
cd1_2: 0.0
cd2_1: 0.0
cd2_2: 0.000305
seeing: 2.1
date-obs: "2019-03-02T08:14:33"

*/

// SidecarSuffix is appended to a TIFF's filename to find its header keywords.
const SidecarSuffix = ".wcs.yaml"

// LoadTIFF loads a TIFF as luminance. TIFFs have no WCS, so the header
// keywords come from a YAML sidecar; EXPTIME falls back to the EXIF
// exposure time.
func LoadTIFF(filename string) (*Frame, error) {
	f := &Frame{Filename: filename, Header: Header{}}

	if err := loadSidecar(filename+SidecarSuffix, f.Header); err != nil {
		return nil, err
	}

	if _, ok := f.Header["EXPTIME"]; !ok {
		if secs, err := exifExposure(filename); err == nil {
			f.Header["EXPTIME"] = secs
		}
	}

	reader, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open+r img '%s': %v", filename, err)
	}
	defer reader.Close()

	img, err := tiff.Decode(reader)
	if err != nil {
		return nil, fmt.Errorf("tiff loading '%s': %v", filename, err)
	}

	// Image row 0 is the top; ours is the bottom.
	b := img.Bounds()
	f.Pixels = emath.NewFloatGrid(b.Dx(), b.Dy())
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			g := color.Gray16Model.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray16)
			f.Pixels.Set(x, b.Dy()-1-y, float64(g.Y))
		}
	}

	return f, nil
}

// A missing sidecar is fine; the frame just won't have a WCS.
func loadSidecar(filename string, hdr Header) error {
	contents, err := ioutil.ReadFile(filename)
	if os.IsNotExist(err) {
		return nil
	} else if err != nil {
		return fmt.Errorf("sidecar read %s: %v", filename, err)
	}

	kv := map[string]interface{}{}
	if err := yaml.Unmarshal(contents, &kv); err != nil {
		return fmt.Errorf("sidecar %s: %v", filename, err)
	}
	for k, v := range kv {
		hdr[strings.ToUpper(k)] = v
	}
	return nil
}

func exifExposure(filename string) (float64, error) {
	reader, err := os.Open(filename)
	if err != nil {
		return 0, fmt.Errorf("open+r exif '%s': %v", filename, err)
	}
	defer reader.Close()

	ex, err := exif.Decode(reader)
	if err != nil {
		return 0, fmt.Errorf("exif parsing '%s': %v", filename, err)
	}
	tag, err := ex.Get(exif.ExposureTime)
	if err != nil {
		return 0, fmt.Errorf("exif ExposureTime '%s': %v", filename, err)
	}
	num, denom, err := tag.Rat2(0)
	if err != nil {
		return 0, fmt.Errorf("exif ExposureTime '%s': %v", filename, err)
	} else if denom == 0 {
		return 0, fmt.Errorf("exif ExposureTime '%s': bad value %d/%d", filename, num, denom)
	}
	return float64(num) / float64(denom), nil
}
