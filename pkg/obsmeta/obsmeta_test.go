package obsmeta

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Samridh-Tiwari/StreakLightCurve/pkg/sky"
	"github.com/Samridh-Tiwari/StreakLightCurve/pkg/streak"
)

const fullRecord = `File: ztf_20190302081433_000560_zr_c10_o_q2_sciimg.fits
Observation Date: 2019-03-02
Observation Time: 08:14:33.5
MJD: 58544.343443
RA: 212.581341
Dec: -11.227403
r (AU): 2.1534
Delta (AU): 1.3012
Distance Center: --
Phase: 19.44
Vmag: 18.12

# Asteroid motion calculations
RA End (deg): 212.582341
Dec End (deg): -11.227403
Exposure (s): 30.0
`

func TestParseRecord(t *testing.T) {
	rec, err := ParseRecord(strings.NewReader(fullRecord))
	require.NoError(t, err)

	assert.Equal(t, "ztf_20190302081433_000560_zr_c10_o_q2_sciimg.fits", rec.File)
	assert.Equal(t, 212.581341, rec.RA)
	assert.Equal(t, -11.227403, rec.Dec)
	assert.Equal(t, 18.12, rec.Vmag)
	assert.Equal(t, 2.1534, rec.R)
	assert.Equal(t, 0.0, rec.DistCtr, "unknown values are left at zero")
	assert.Equal(t, 30.0, rec.Exposure)
	assert.True(t, rec.HasEnd)

	ts, err := rec.ObsTime()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2019, 3, 2, 8, 14, 33, 5e8, time.UTC), ts)

	obs, err := rec.Observation(2.1)
	require.NoError(t, err)
	assert.Equal(t, 2.1, obs.SeeingArcsec)
	assert.Equal(t, 212.582341, obs.End.RA)
	assert.Equal(t, 30*time.Second, obs.End.Epoch.Sub(obs.Start.Epoch))
}

func TestParseRecordMissingFields(t *testing.T) {
	_, err := ParseRecord(strings.NewReader("File: x_sciimg.fits\nRA: 1.0\n"))
	require.Error(t, err)
	for _, f := range []string{"Observation Date", "Observation Time", "Dec", "Vmag"} {
		assert.Contains(t, err.Error(), f)
	}
	assert.NotContains(t, err.Error(), "File")

	_, err = ParseRecord(strings.NewReader(strings.Replace(fullRecord, "RA: 212.581341", "RA: lots", 1)))
	assert.ErrorContains(t, err, "'RA'")
}

func TestRecordWithoutEnd(t *testing.T) {
	head := fullRecord[:strings.Index(fullRecord, "# Asteroid")]
	rec, err := ParseRecord(strings.NewReader(head))
	require.NoError(t, err)
	assert.False(t, rec.HasEnd)

	_, err = rec.Observation(2)
	assert.ErrorContains(t, err, "RA End")
}

func TestObsTimeFallsBackToMJD(t *testing.T) {
	rec := Record{Date: "sometime", Time: "later", MJD: 51544.5}
	ts, err := rec.ObsTime()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC), ts.UTC().Round(time.Millisecond))

	rec.MJD = 0
	_, err = rec.ObsTime()
	assert.Error(t, err)
}

func TestImageFilenames(t *testing.T) {
	rec := Record{File: "/some/where/ztf_x_sciimg.fits"}
	assert.Equal(t, []string{"ztf_x_scimrefdiffimg.fits", "ztf_x_scimrefdiffimg.fits.fz", "ztf_x_sciimg.fits"}, rec.ImageFilenames())

	rec = Record{File: "plain.fits"}
	assert.Equal(t, []string{"plain.fits", "plain.fits.fz"}, rec.ImageFilenames())
}

func TestReadRecordAndFindImage(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "mostoutput", "2000SG344", "OB1")
	require.NoError(t, os.MkdirAll(dir, 0755))

	txt := filepath.Join(dir, "ztf_20190302081433_000560_zr_c10_o_q2_scimrefdiffimg.fits.fz.txt")
	require.NoError(t, os.WriteFile(txt, []byte(fullRecord), 0644))

	rec, err := ReadRecord(txt)
	require.NoError(t, err)
	assert.Equal(t, txt, rec.Source)

	_, err = rec.FindImage()
	assert.Error(t, err)

	img := filepath.Join(dir, "ztf_20190302081433_000560_zr_c10_o_q2_scimrefdiffimg.fits.fz")
	require.NoError(t, os.WriteFile(img, []byte{}, 0644))
	found, err := rec.FindImage()
	require.NoError(t, err)
	assert.Equal(t, img, found)

	name, err := AsteroidFromPath(txt, "mostoutput")
	require.NoError(t, err)
	assert.Equal(t, "2000SG344", name)

	_, err = AsteroidFromPath("elsewhere/file.txt", "mostoutput")
	assert.Error(t, err)
	_, err = AsteroidFromPath("mostoutput/file.txt", "mostoutput")
	assert.Error(t, err)
}

func TestSummaryWrite(t *testing.T) {
	rec, err := ParseRecord(strings.NewReader(fullRecord))
	require.NoError(t, err)

	res := &streak.Result{
		PSFWidth:   2.1,
		PixelScale: 1.01,
		Stats:      streak.Stats{Median: 10, Sigma: 2},
		Profile: streak.Profile{Bins: []streak.Bin{
			{CenterArcsec: 0.5, Empty: true},
			{CenterArcsec: 1.5, FluxSum: 123.4, FluxError: 5.6, PixelCount: 20},
		}},
	}

	buf := &bytes.Buffer{}
	require.NoError(t, Summary{Asteroid: "2000SG344", Record: rec, MagLimit: 20.8, Seeing: 2.2, Result: res}.Write(buf))
	out := buf.String()

	assert.Contains(t, out, "Asteroid: 2000SG344\n")
	assert.Contains(t, out, "Observation Time: 2019-03-02 08:14:33.5\n")
	assert.Contains(t, out, "Mag Limit: 20.80\n")
	assert.Contains(t, out, "FWHM: 2.20\"\n")
	assert.Contains(t, out, "Start: 212.581341, -11.227403")
	assert.Contains(t, out, "PSF Width: 2.10 px\n")
	assert.Contains(t, out, "0 0.500 - - 0\n")
	assert.Contains(t, out, "1 1.500 123.400 5.600 20\n")

	// 0.001 deg of RA at dec -11.2 is about 3.53"
	assert.Regexp(t, `Displacement: 3\.5\d" \(3\.53" RA\*cos\(Dec\), 0\.00" Dec\)`, out)
}

func TestSummaryDisplacementAcrossRAZero(t *testing.T) {
	r := strings.NewReplacer(
		"RA: 212.581341", "RA: 359.9995",
		"Dec: -11.227403", "Dec: 0.0",
		"RA End (deg): 212.582341", "RA End (deg): 0.0005",
		"Dec End (deg): -11.227403", "Dec End (deg): 0.0")
	rec, err := ParseRecord(strings.NewReader(r.Replace(fullRecord)))
	require.NoError(t, err)

	buf := &bytes.Buffer{}
	require.NoError(t, Summary{Asteroid: "a", Record: rec}.Write(buf))
	assert.Regexp(t, `Displacement: 3\.60" \(3\.60" RA\*cos\(Dec\), 0\.00" Dec\)`, buf.String())

	east, _ := offsets(sky.SkyPosition{RA: 0.0005}, sky.SkyPosition{RA: 359.9995})
	assert.InDelta(t, -3.6, east, 1e-6)
}

func TestSummaryWriteFile(t *testing.T) {
	rec, err := ParseRecord(strings.NewReader(fullRecord))
	require.NoError(t, err)

	filename := filepath.Join(t.TempDir(), "x_cutout.txt")
	require.NoError(t, Summary{Asteroid: "a", Record: rec}.WriteFile(filename))

	back, err := os.ReadFile(filename)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(back), "Asteroid: a\n"))
	assert.NotContains(t, string(back), "PSF Width")
}
