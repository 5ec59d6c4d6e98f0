package io

import (
	"bytes"
	"context"
	"image"
	"os/exec"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"

	"raw-image-processor/internal/config"
	"raw-image-processor/internal/core"
)

// RawDecoder develops camera RAW files with an external command (dcraw,
// dcraw_emu, ...) that writes a TIFF or PPM of the demosaiced image to stdout.
type RawDecoder struct {
	command string
	args    []string
	timeout time.Duration
	logger  *logrus.Logger
}

func NewRawDecoder(cfg config.DecoderConfig, logger *logrus.Logger) *RawDecoder {
	return &RawDecoder{
		command: cfg.Command,
		args:    append([]string{}, cfg.Args...),
		timeout: cfg.Timeout,
		logger:  logger,
	}
}

// Decode runs the developer on path and returns an RGB raster
func (d *RawDecoder) Decode(ctx context.Context, path string) (*core.Raster, error) {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	args := append(append([]string{}, d.args...), path)
	cmd := exec.CommandContext(ctx, d.command, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	d.logger.WithFields(logrus.Fields{"command": d.command, "args": args}).Debug("Developing RAW image")

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		switch ctxErr := ctx.Err(); {
		case errors.Is(ctxErr, context.DeadlineExceeded):
			return nil, errors.Wrapf(ctxErr, "%s timed out on %s", d.command, path)
		case ctxErr != nil:
			return nil, errors.Wrapf(ctxErr, "%s cancelled on %s", d.command, path)
		}
		return nil, errors.Wrapf(err, "%s failed on %s: %s", d.command, path, msg)
	}
	if stdout.Len() == 0 {
		return nil, errors.Errorf("%s produced no image for %s", d.command, path)
	}

	raster, err := decodeDeveloped(stdout.Bytes())
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s output for %s", d.command, path)
	}

	meta := raster.Metadata()
	d.logger.WithFields(logrus.Fields{
		"filepath": path,
		"width":    meta.Width,
		"height":   meta.Height,
		"order":    meta.Order.String(),
		"elapsed":  time.Since(start).String(),
	}).Info("RAW image developed")

	return raster, nil
}

// decodeDeveloped accepts TIFF (dcraw -T) or PNM (dcraw default) bytes
func decodeDeveloped(data []byte) (*core.Raster, error) {
	if bytes.HasPrefix(data, []byte("P6")) || bytes.HasPrefix(data, []byte("P5")) {
		// OpenCV reads PNM and already yields BGR
		mat, err := gocv.IMDecode(data, gocv.IMReadColor)
		if err != nil {
			return nil, errors.Wrap(err, "decode PNM")
		}
		if mat.Empty() {
			mat.Close()
			return nil, errors.New("decode PNM: empty image")
		}
		raster, err := core.NewRaster(mat, core.OrderBGR)
		if err != nil {
			mat.Close()
			return nil, err
		}
		return raster, nil
	}

	img, err := tiff.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "decode TIFF")
	}
	return RasterFromImage(img)
}

// RasterFromImage copies an image.Image into an RGB raster
func RasterFromImage(img image.Image) (*core.Raster, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return nil, errors.Errorf("invalid image dimensions: %dx%d", w, h)
	}

	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Rect.Min != (image.Point{}) {
		rgba = image.NewRGBA(image.Rect(0, 0, w, h))
		draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	}

	data := make([]byte, w*h*3)
	for y := 0; y < h; y++ {
		row := rgba.Pix[y*rgba.Stride : y*rgba.Stride+w*4]
		out := data[y*w*3 : (y+1)*w*3]
		for x := 0; x < w; x++ {
			out[x*3] = row[x*4]
			out[x*3+1] = row[x*4+1]
			out[x*3+2] = row[x*4+2]
		}
	}

	mat, err := gocv.NewMatFromBytes(h, w, gocv.MatTypeCV8UC3, data)
	if err != nil {
		return nil, errors.Wrap(err, "allocate raster")
	}

	raster, err := core.NewRaster(mat, core.OrderRGB)
	if err != nil {
		mat.Close()
		return nil, err
	}
	return raster, nil
}
