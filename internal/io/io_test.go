package io

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
	"golang.org/x/image/tiff"

	"raw-image-processor/internal/config"
	"raw-image-processor/internal/core"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// writeTIFF stands in for a RAW file: "cat" acts as the developer
func writeTIFF(t *testing.T, dir, name string, c color.RGBA) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 8; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, tiff.Encode(&buf, img, nil))
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
	return path
}

func catDecoder() *RawDecoder {
	return NewRawDecoder(config.DecoderConfig{Command: "cat", Timeout: 10 * time.Second}, quietLogger())
}

func TestIsRawFile(t *testing.T) {
	assert.True(t, IsRawFile("/photos/IMG_0001.CR2"))
	assert.True(t, IsRawFile("a.nef"))
	assert.True(t, IsRawFile("a.dng"))
	assert.False(t, IsRawFile("a.jpg"))
	assert.False(t, IsRawFile("noext"))
}

func TestDefaultOutputPath(t *testing.T) {
	assert.Equal(t, filepath.Join("/photos", "IMG_0001_processed.jpg"),
		DefaultOutputPath("/photos/IMG_0001.CR2", "_processed"))
	assert.Equal(t, "shot_x.jpg", DefaultOutputPath("shot.nef", "_x"))
}

func TestRawDecoderReadsTIFFAsRGB(t *testing.T) {
	path := writeTIFF(t, t.TempDir(), "frame.nef", color.RGBA{R: 200, G: 20, B: 10, A: 255})

	raster, err := catDecoder().Decode(context.Background(), path)
	require.NoError(t, err)
	defer raster.Close()

	meta := raster.Metadata()
	assert.Equal(t, 8, meta.Width)
	assert.Equal(t, 4, meta.Height)
	assert.Equal(t, 3, meta.Channels)
	assert.Equal(t, core.OrderRGB, meta.Order)

	px := raster.Mat().GetVecbAt(0, 0)
	assert.Equal(t, []uint8{200, 20, 10}, []uint8{px[0], px[1], px[2]})

	raster.ToBGR()
	px = raster.Mat().GetVecbAt(0, 0)
	assert.Equal(t, []uint8{10, 20, 200}, []uint8{px[0], px[1], px[2]})
}

func TestRawDecoderCommandFailure(t *testing.T) {
	d := NewRawDecoder(config.DecoderConfig{Command: "false"}, quietLogger())
	_, err := d.Decode(context.Background(), filepath.Join(t.TempDir(), "x.cr2"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "false failed")
}

func TestRawDecoderTimeout(t *testing.T) {
	d := NewRawDecoder(config.DecoderConfig{
		Command: "sh",
		Args:    []string{"-c", "exec sleep 5", "sh"},
		Timeout: 50 * time.Millisecond,
	}, quietLogger())

	_, err := d.Decode(context.Background(), "x.cr2")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Contains(t, err.Error(), "timed out")
}

func TestRawDecoderCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := catDecoder().Decode(ctx, "x.cr2")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Contains(t, err.Error(), "cancelled")
	assert.NotContains(t, err.Error(), "timed out")
}

func TestRawDecoderRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.arw")
	require.NoError(t, os.WriteFile(path, []byte("not an image"), 0644))

	_, err := catDecoder().Decode(context.Background(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode")
}

func TestRawDecoderMissingCommand(t *testing.T) {
	d := NewRawDecoder(config.DecoderConfig{Command: "definitely-not-a-raw-developer"}, quietLogger())
	_, err := d.Decode(context.Background(), "x.cr2")
	assert.Error(t, err)
}

func TestLoaderDispatch(t *testing.T) {
	dir := t.TempDir()
	rawPath := writeTIFF(t, dir, "frame.orf", color.RGBA{R: 1, G: 2, B: 3, A: 255})

	pngPath := filepath.Join(dir, "frame.png")
	mat := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(30, 60, 90, 0), 5, 7, gocv.MatTypeCV8UC3)
	defer mat.Close()
	require.True(t, gocv.IMWrite(pngPath, mat))

	loader := NewImageLoader(quietLogger(), catDecoder())

	raw, err := loader.Decode(context.Background(), rawPath)
	require.NoError(t, err)
	defer raw.Close()
	assert.Equal(t, core.OrderRGB, raw.Order())

	std, err := loader.Decode(context.Background(), pngPath)
	require.NoError(t, err)
	defer std.Close()
	assert.Equal(t, core.OrderBGR, std.Order())
	px := std.Mat().GetVecbAt(2, 3)
	assert.Equal(t, []uint8{30, 60, 90}, []uint8{px[0], px[1], px[2]})

	_, err = loader.Decode(context.Background(), filepath.Join(dir, "doc.txt"))
	assert.Error(t, err)

	assert.Error(t, func() error {
		_, err := NewImageLoader(quietLogger(), nil).Decode(context.Background(), rawPath)
		return err
	}())
}

func TestSupportedFormats(t *testing.T) {
	withRaw := NewImageLoader(quietLogger(), catDecoder()).GetSupportedFormats()
	assert.Contains(t, withRaw, ".png")
	assert.Contains(t, withRaw, ".nef")

	withoutRaw := NewImageLoader(quietLogger(), nil).GetSupportedFormats()
	assert.Contains(t, withoutRaw, ".jpg")
	assert.NotContains(t, withoutRaw, ".cr2")
}

func TestOpenCVEncoderWritesJPEG(t *testing.T) {
	mat := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(40, 120, 200, 0), 16, 16, gocv.MatTypeCV8UC3)
	raster, err := core.NewRaster(mat, core.OrderBGR)
	require.NoError(t, err)
	defer raster.Close()

	// extension does not choose the codec
	out := filepath.Join(t.TempDir(), "result.out")
	require.NoError(t, NewOpenCVEncoder(quietLogger()).Encode(raster, out, 95))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xFF, 0xD8}, data[:2])

	back, err := gocv.IMDecode(data, gocv.IMReadColor)
	require.NoError(t, err)
	defer back.Close()
	px := back.GetVecbAt(8, 8)
	assert.InDelta(t, 40, int(px[0]), 3)
	assert.InDelta(t, 120, int(px[1]), 3)
	assert.InDelta(t, 200, int(px[2]), 3)
}

func TestOpenCVEncoderConvertsRGB(t *testing.T) {
	mat := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(250, 0, 0, 0), 8, 8, gocv.MatTypeCV8UC3)
	raster, err := core.NewRaster(mat, core.OrderRGB)
	require.NoError(t, err)
	defer raster.Close()

	out := filepath.Join(t.TempDir(), "red.jpg")
	require.NoError(t, NewOpenCVEncoder(quietLogger()).Encode(raster, out, 100))

	back := gocv.IMRead(out, gocv.IMReadColor)
	defer back.Close()
	px := back.GetVecbAt(4, 4)
	assert.Greater(t, int(px[2]), 200, "red lands in the R slot of BGR")
	assert.Less(t, int(px[0]), 30)
}

func TestOpenCVEncoderErrors(t *testing.T) {
	enc := NewOpenCVEncoder(quietLogger())
	assert.Error(t, enc.Encode(nil, filepath.Join(t.TempDir(), "x.jpg"), 90))

	mat := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(1, 1, 1, 0), 4, 4, gocv.MatTypeCV8UC3)
	raster, err := core.NewRaster(mat, core.OrderBGR)
	require.NoError(t, err)
	defer raster.Close()

	assert.Error(t, enc.Encode(raster, filepath.Join(t.TempDir(), "missing", "x.jpg"), 90))
}

func TestVipsEncoderWritesJPEG(t *testing.T) {

	mat := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(10, 100, 220, 0), 12, 20, gocv.MatTypeCV8UC3)
	raster, err := core.NewRaster(mat, core.OrderBGR)
	require.NoError(t, err)
	defer raster.Close()

	out := filepath.Join(t.TempDir(), "vips.jpg")
	require.NoError(t, NewVipsEncoder(true, quietLogger()).Encode(raster, out, 90))

	back := gocv.IMRead(out, gocv.IMReadColor)
	defer back.Close()
	require.False(t, back.Empty())
	assert.Equal(t, 20, back.Cols())
	assert.Equal(t, 12, back.Rows())
	px := back.GetVecbAt(6, 10)
	assert.InDelta(t, 220, int(px[2]), 4)

	// libvips cannot restart once shut down
	enc := NewVipsEncoder(false, quietLogger())
	ShutdownVips()
	err = enc.Encode(raster, filepath.Join(t.TempDir(), "after.jpg"), 90)
	assert.ErrorIs(t, err, ErrVipsShutdown)
}
