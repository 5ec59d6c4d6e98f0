package io

import (
	"os"
	"sync"

	"github.com/davidbyttow/govips/v2/vips"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"raw-image-processor/internal/core"
)

var (
	vipsOnce    sync.Once
	vipsMu      sync.RWMutex
	vipsStarted bool
)

// ErrVipsShutdown is returned by VipsEncoder after ShutdownVips; libvips
// cannot be started again within the same process.
var ErrVipsShutdown = errors.New("libvips has been shut down")

func startVips() {
	vipsOnce.Do(func() {
		vips.LoggingSettings(nil, vips.LogLevelWarning)
		vips.Startup(&vips.Config{
			MaxCacheFiles: 0,
			MaxCacheMem:   128 * 1024 * 1024,
			MaxCacheSize:  100,
		})

		vipsMu.Lock()
		vipsStarted = true
		vipsMu.Unlock()
	})
}

// ShutdownVips releases libvips if it was started. It is meant for process
// exit and waits for in-flight encodes.
func ShutdownVips() {
	vipsMu.Lock()
	defer vipsMu.Unlock()
	if !vipsStarted {
		return
	}
	vips.Shutdown()
	vipsStarted = false
}

// VipsEncoder encodes with libvips, which can strip metadata and write
// progressive JPEGs
type VipsEncoder struct {
	stripMetadata bool
	logger        *logrus.Logger
}

func NewVipsEncoder(stripMetadata bool, logger *logrus.Logger) *VipsEncoder {
	startVips()
	return &VipsEncoder{stripMetadata: stripMetadata, logger: logger}
}

func (e *VipsEncoder) Encode(raster *core.Raster, path string, quality int) error {
	vipsMu.RLock()
	defer vipsMu.RUnlock()
	if !vipsStarted {
		return ErrVipsShutdown
	}

	mat, release, err := bgrMat(raster)
	if err != nil {
		return err
	}
	defer release()

	// Lossless hand-off between the two native libraries
	png, err := gocv.IMEncode(gocv.PNGFileExt, mat)
	if err != nil {
		return errors.Wrap(err, "encode intermediate png")
	}
	defer png.Close()

	img, err := vips.NewImageFromBuffer(png.GetBytes())
	if err != nil {
		return errors.Wrap(err, "load image into vips")
	}
	defer img.Close()

	params := vips.NewJpegExportParams()
	params.Quality = quality
	params.StripMetadata = e.stripMetadata
	params.Interlace = true

	data, _, err := img.ExportJpeg(params)
	if err != nil {
		return errors.Wrap(err, "encode jpeg")
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrapf(err, "failed to save image: %s", path)
	}

	e.logger.WithFields(logrus.Fields{
		"filepath": path,
		"width":    img.Width(),
		"height":   img.Height(),
		"quality":  quality,
		"encoder":  "vips",
	}).Info("Image saved successfully")

	return nil
}
