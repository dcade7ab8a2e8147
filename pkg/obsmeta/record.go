// Package obsmeta reads the per-image observation records written by the
// archive search, and writes the summary that goes alongside each cutout.
package obsmeta

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/soniakeys/meeus/v3/julian"

	"github.com/Samridh-Tiwari/StreakLightCurve/pkg/sky"
	"github.com/Samridh-Tiwari/StreakLightCurve/pkg/streak"
)

/* Example record, <image>.fits.fz.txt ...

File: ztf_20190302081433_000560_zr_c10_o_q2_sciimg.fits
Observation Date: 2019-03-02
Observation Time: 08:14:33.123
MJD: 58544.343439
RA: 212.581341
Dec: -11.227403
r (AU): 2.1534
Delta (AU): 1.3012
Distance Center: 0.8112
Phase: 19.44
Vmag: 18.12

# Asteroid motion calculations
RA End (deg): 212.581002
Dec End (deg): -11.227201
Exposure (s): 30.0

*/

// A Record is one observation of an asteroid in one archive image.
type Record struct {
	Source string // where the record was read from

	File     string
	Date     string
	Time     string
	MJD      float64
	RA       float64 // deg, at the start of the exposure
	Dec      float64
	R        float64 // heliocentric distance, AU
	Delta    float64 // geocentric distance, AU
	DistCtr  float64 // distance from the image center
	Phase    float64 // deg
	Vmag     float64
	RAEnd    float64 // deg, at the end of the exposure
	DecEnd   float64
	Exposure float64 // seconds

	HasEnd bool
}

// Required fields. The end position is optional here, since records are
// written before the motion is worked out; Observation needs it.
var required = []string{"File", "Observation Date", "Observation Time", "RA", "Dec", "Vmag"}

func ReadRecord(filename string) (Record, error) {
	r, err := os.Open(filename)
	if err != nil {
		return Record{}, fmt.Errorf("open+r '%s': %v", filename, err)
	}
	defer r.Close()

	rec, err := ParseRecord(r)
	if err != nil {
		return rec, fmt.Errorf("record '%s': %v", filename, err)
	}
	rec.Source = filename
	return rec, nil
}

// ParseRecord reads "Key: value" lines. Blank lines, comments and keys we
// don't know are skipped. Values split at the first colon, so times keep
// theirs.
func ParseRecord(r io.Reader) (Record, error) {
	kv := map[string]string{}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if k, v, ok := strings.Cut(line, ":"); ok {
			kv[strings.TrimSpace(k)] = strings.TrimSpace(v)
		}
	}
	if err := scanner.Err(); err != nil {
		return Record{}, err
	}

	missing := []string{}
	for _, k := range required {
		if kv[k] == "" {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return Record{}, fmt.Errorf("missing fields: %s", strings.Join(missing, ", "))
	}

	rec := Record{
		File: kv["File"],
		Date: kv["Observation Date"],
		Time: kv["Observation Time"],
	}

	parsed := map[string]bool{}
	for _, f := range []struct {
		key      string
		dst      *float64
		required bool
	}{
		{"RA", &rec.RA, true},
		{"Dec", &rec.Dec, true},
		{"Vmag", &rec.Vmag, true},
		{"MJD", &rec.MJD, false},
		{"r (AU)", &rec.R, false},
		{"Delta (AU)", &rec.Delta, false},
		{"Distance Center", &rec.DistCtr, false},
		{"Phase", &rec.Phase, false},
		{"RA End (deg)", &rec.RAEnd, false},
		{"Dec End (deg)", &rec.DecEnd, false},
		{"Exposure (s)", &rec.Exposure, false},
	} {
		s, ok := kv[f.key]
		if !ok {
			continue
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			if f.required {
				return Record{}, fmt.Errorf("field '%s': %v", f.key, err)
			}
			continue // archive tables use things like "--" for unknowns
		}
		*f.dst = v
		parsed[f.key] = true
	}
	rec.HasEnd = parsed["RA End (deg)"] && parsed["Dec End (deg)"]

	return rec, nil
}

var obsTimeLayouts = []string{
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05.999999999",
}

// ObsTime is when the exposure started (UTC). If the date and time
// fields don't parse, it falls back to the MJD.
func (rec Record) ObsTime() (time.Time, error) {
	s := rec.Date + " " + rec.Time
	for _, layout := range obsTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	if rec.MJD > 0 {
		return julian.JDToTime(rec.MJD + 2400000.5), nil
	}
	return time.Time{}, fmt.Errorf("observation time '%s' doesn't parse, and no MJD", s)
}

// Start and End are the predicted positions at the start and end of the exposure.
func (rec Record) Start() sky.SkyPosition {
	t, _ := rec.ObsTime()
	return sky.SkyPosition{RA: rec.RA, Dec: rec.Dec, Epoch: t}
}

func (rec Record) End() sky.SkyPosition {
	t, _ := rec.ObsTime()
	if !t.IsZero() {
		t = t.Add(time.Duration(rec.Exposure * float64(time.Second)))
	}
	return sky.SkyPosition{RA: rec.RAEnd, Dec: rec.DecEnd, Epoch: t}
}

// Observation turns the record into extraction inputs. The seeing comes
// from the image header, since the archive doesn't record it.
func (rec Record) Observation(seeingArcsec float64) (streak.Observation, error) {
	if !rec.HasEnd {
		return streak.Observation{}, fmt.Errorf("missing fields: RA End (deg), Dec End (deg)")
	}
	return streak.Observation{
		Start:        rec.Start(),
		End:          rec.End(),
		SeeingArcsec: seeingArcsec,
	}, nil
}

// ImageFilenames lists the names the image for this record may have been
// saved under. The archive lists the science image, but it's the
// difference image that gets downloaded. Uncompressed names come first,
// since those are the ones we can read.
func (rec Record) ImageFilenames() []string {
	base := filepath.Base(rec.File)
	diff := strings.Replace(base, "sciimg.fits", "scimrefdiffimg.fits", 1)

	names := []string{diff, diff + ".fz"}
	if diff != base {
		names = append(names, base)
	}
	return names
}

// FindImage looks for the record's image next to the record itself.
func (rec Record) FindImage() (string, error) {
	dir := filepath.Dir(rec.Source)
	for _, name := range rec.ImageFilenames() {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("no image for '%s' in %s (tried %s)", rec.File, dir, strings.Join(rec.ImageFilenames(), ", "))
}

// AsteroidFromPath finds the asteroid name, which is the directory just
// below the archive root ("mostoutput/<asteroid>/...").
func AsteroidFromPath(path, root string) (string, error) {
	parts := strings.Split(filepath.ToSlash(filepath.Clean(path)), "/")
	for i, p := range parts {
		if p == root && i+2 < len(parts) {
			return parts[i+1], nil
		}
	}
	return "", fmt.Errorf("can't find asteroid name in '%s', expected %s/<asteroid>/...", path, root)
}
