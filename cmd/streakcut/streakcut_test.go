package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Samridh-Tiwari/StreakLightCurve/pkg/batch"
	"github.com/Samridh-Tiwari/StreakLightCurve/pkg/emath"
	"github.com/Samridh-Tiwari/StreakLightCurve/pkg/frame"
	"github.com/Samridh-Tiwari/StreakLightCurve/pkg/sky"
	"github.com/Samridh-Tiwari/StreakLightCurve/pkg/streak"
)

func TestIsRecord(t *testing.T) {
	assert.True(t, isRecord("a/b/ztf_x_sciimg.fits.txt"))
	assert.True(t, isRecord("ztf_x_sciimg.fits.fz.txt"))
	assert.False(t, isRecord("ztf_x_scimrefdiffimg_cutout.txt"))
	assert.False(t, isRecord("notes.txt"))
	assert.False(t, isRecord("ztf_x_sciimg.fits"))
}

func TestImageStem(t *testing.T) {
	assert.Equal(t, "ztf_x_scimrefdiffimg", imageStem("dir/ztf_x_scimrefdiffimg.fits.fz"))
	assert.Equal(t, "ztf_x_scimrefdiffimg", imageStem("ztf_x_scimrefdiffimg.fits"))
	assert.Equal(t, "frame", imageStem("frame.tif"))
}

func TestLoadFilesAndDirs(t *testing.T) {
	dir := t.TempDir()
	write := func(name, contents string) {
		require.NoError(t, os.MkdirAll(filepath.Dir(filepath.Join(dir, name)), 0755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(contents), 0644))
	}
	write("a/z_sciimg.fits.txt", "")
	write("a/z_scimrefdiffimg_cutout.txt", "")
	write("b/y_sciimg.fits.fz.txt", "")
	write("b/frame.wcs.yaml", "CRPIX1: 1\n")
	write("streak.yaml", "bincount: 42\n")

	c := collection{Config: streak.NewConfig()}
	require.NoError(t, c.LoadFilesAndDirs(dir))

	assert.Equal(t, []string{
		filepath.Join(dir, "a/z_sciimg.fits.txt"),
		filepath.Join(dir, "b/y_sciimg.fits.fz.txt"),
	}, c.Records)
	assert.Equal(t, 42, c.Config.BinCount)

	assert.Error(t, c.LoadFilesAndDirs(filepath.Join(dir, "nope")))
}

func TestConfigFilesLayer(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "base.yaml")
	require.NoError(t, os.WriteFile(base, []byte("bincount: 42\nverbosity: 1\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "wide.yaml"), []byte("widthfactor: 3\n"), 0644))

	c := collection{Config: streak.NewConfig()}
	require.NoError(t, c.loadFile(base))
	require.NoError(t, c.loadFile(filepath.Join(dir, "wide.yaml")))
	assert.Equal(t, 42, c.Config.BinCount)
	assert.Equal(t, 3.0, c.Config.WidthFactor)

	fVerbosity = 0
	applyFlags(&c.Config)
	assert.Equal(t, 1, c.Config.Verbosity, "unset -v leaves the config's verbosity")

	fVerbosity = 2
	defer func() { fVerbosity = 0 }()
	applyFlags(&c.Config)
	assert.Equal(t, 2, c.Config.Verbosity)
}

// archive lays out one observation the way the downloader does: a
// difference image with a horizontal streak from pixel (100,100) to
// (150,100), and its record, under root/<asteroid>/.
func archive(t *testing.T) (recordFile, outDir string) {
	t.Helper()
	dir := t.TempDir()
	astDir := filepath.Join(dir, "mostoutput", "2000SG344", "2019")
	require.NoError(t, os.MkdirAll(astDir, 0755))

	g := emath.NewFloatGrid(300, 300)
	for y := 0; y < g.Dy(); y++ {
		for x := 0; x < g.Dx(); x++ {
			v := 100.0
			if x >= 100 && x < 150 && y >= 98 && y < 102 {
				v = 1000
			}
			g.Set(x, y, v)
		}
	}

	scale := 1.0 / 3600.0
	proj, err := sky.NewTanProjector(150, 150, 212.5, -11.2, [4]float64{-scale, 0, 0, scale})
	require.NoError(t, err)
	cards := append(proj.Keywords(), sky.Keyword{Name: "SEEING", Value: 2.0})

	f, err := os.Create(filepath.Join(astDir, "ztf_x_scimrefdiffimg.fits"))
	require.NoError(t, err)
	require.NoError(t, frame.WriteFITS(f, &g, cards))
	require.NoError(t, f.Close())

	start, err := proj.PixelToSky(sky.PixelPosition{X: 100, Y: 100})
	require.NoError(t, err)
	end, err := proj.PixelToSky(sky.PixelPosition{X: 150, Y: 100})
	require.NoError(t, err)

	rec := fmt.Sprintf("File: ztf_x_sciimg.fits\n"+
		"Observation Date: 2019-03-02\nObservation Time: 08:14:33\n"+
		"RA: %.9f\nDec: %.9f\nVmag: 18.1\n"+
		"RA End (deg): %.9f\nDec End (deg): %.9f\nExposure (s): 30\n",
		start.RA, start.Dec, end.RA, end.Dec)
	recordFile = filepath.Join(astDir, "ztf_x_sciimg.fits.txt")
	require.NoError(t, os.WriteFile(recordFile, []byte(rec), 0644))

	return recordFile, filepath.Join(dir, "cutouts")
}

func TestProcessWritesCutout(t *testing.T) {
	recordFile, outDir := archive(t)

	cfg := streak.NewConfig()
	cfg.BinCount = 10
	p := processor{Config: cfg, OutDir: outDir, Root: "mostoutput", WriteHDR: true, Tonemapper: "linear"}

	res, err := p.process(recordFile)
	require.NoError(t, err)
	assert.False(t, res.Clipped())
	assert.InDelta(t, 50.0, res.Geometry.Length, 1e-3)
	require.Len(t, res.Profile.Bins, 10)
	for i, b := range res.Profile.Bins {
		assert.False(t, b.Empty, "bin %d", i)
	}

	stem := filepath.Join(outDir, "2000SG344", "ztf_x_scimrefdiffimg_cutout")
	for _, ext := range []string{".fits", ".png", ".txt", ".hdr", "_tmo.png"} {
		_, err := os.Stat(stem + ext)
		assert.NoError(t, err, ext)
	}

	cut, err := frame.Load(stem + ".fits")
	require.NoError(t, err)
	assert.Equal(t, res.Region.Bounds.Dx(), cut.Pixels.Dx())
	assert.Equal(t, 2.0, cut.Header.Seeing())
}

func TestProcessSeeingOverride(t *testing.T) {
	recordFile, outDir := archive(t)
	p := processor{Config: streak.NewConfig(), OutDir: outDir, Root: "mostoutput", Seeing: 4}

	res, err := p.process(recordFile)
	require.NoError(t, err)
	assert.InDelta(t, 4.0, float64(res.PSFWidth), 1e-6)
}

func TestProcessMissingImage(t *testing.T) {
	recordFile, outDir := archive(t)
	require.NoError(t, os.Remove(filepath.Join(filepath.Dir(recordFile), "ztf_x_scimrefdiffimg.fits")))

	p := processor{Config: streak.NewConfig(), OutDir: outDir, Root: "mostoutput"}
	_, err := p.process(recordFile)
	assert.ErrorContains(t, err, "no image")
}

func TestProcessCompressedOnly(t *testing.T) {
	recordFile, outDir := archive(t)
	fits := filepath.Join(filepath.Dir(recordFile), "ztf_x_scimrefdiffimg.fits")
	require.NoError(t, os.Rename(fits, fits+".fz"))

	p := processor{Config: streak.NewConfig(), OutDir: outDir, Root: "mostoutput"}
	_, err := p.process(recordFile)
	assert.True(t, errors.Is(err, frame.ErrCompressed))

	outcomes := []batch.Outcome{{Err: err}, {Err: err}, {Result: &streak.Result{}}}
	assert.Contains(t, compressedHint(outcomes), "2 of 3 observations")
	assert.Empty(t, compressedHint(outcomes[2:]))
}
