// Image loading: RAW files through an external developer, everything else through OpenCV
package io

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"raw-image-processor/internal/core"
)

// Decoder turns a file into a raster
type Decoder interface {
	Decode(ctx context.Context, path string) (*core.Raster, error)
}

// RawExtensions are the camera formats handed to the RAW developer
var RawExtensions = []string{".cr2", ".cr3", ".nef", ".arw", ".raf", ".orf", ".rw2", ".dng"}

// standardExtensions are read directly with OpenCV
var standardExtensions = []string{".jpg", ".jpeg", ".png", ".tiff", ".tif", ".bmp"}

// ImageLoader handles image file operations
type ImageLoader struct {
	logger *logrus.Logger
	raw    Decoder
}

func NewImageLoader(logger *logrus.Logger, raw Decoder) *ImageLoader {
	return &ImageLoader{
		logger: logger,
		raw:    raw,
	}
}

// Decode dispatches on the file extension
func (il *ImageLoader) Decode(ctx context.Context, filepath string) (*core.Raster, error) {
	if IsRawFile(filepath) {
		if il.raw == nil {
			return nil, errors.Errorf("no RAW decoder configured for %s", filepath)
		}
		return il.raw.Decode(ctx, filepath)
	}
	return il.LoadImage(filepath)
}

// LoadImage reads a standard image format as a BGR raster
func (il *ImageLoader) LoadImage(filepath string) (*core.Raster, error) {
	il.logger.WithField("filepath", filepath).Debug("Loading image")

	if !il.isSupportedImageFormat(filepath) {
		return nil, errors.Errorf("unsupported image format: %s", filepath)
	}

	mat := gocv.IMRead(filepath, gocv.IMReadColor)
	if mat.Empty() {
		mat.Close()
		return nil, errors.Errorf("failed to load image: %s", filepath)
	}

	raster, err := core.NewRaster(mat, core.OrderBGR)
	if err != nil {
		mat.Close()
		return nil, errors.Wrapf(err, "invalid image %s", filepath)
	}

	il.logger.WithFields(logrus.Fields{
		"filepath": filepath,
		"width":    mat.Cols(),
		"height":   mat.Rows(),
		"channels": mat.Channels(),
	}).Info("Image loaded successfully")

	return raster, nil
}

func (il *ImageLoader) isSupportedImageFormat(filepath string) bool {
	return hasExtension(filepath, standardExtensions)
}

// GetSupportedFormats lists every readable extension
func (il *ImageLoader) GetSupportedFormats() []string {
	formats := append([]string{}, standardExtensions...)
	if il.raw != nil {
		formats = append(formats, RawExtensions...)
	}
	return formats
}

// IsRawFile reports whether path has a camera RAW extension
func IsRawFile(path string) bool {
	return hasExtension(path, RawExtensions)
}

// DefaultOutputPath places "<stem><suffix>.jpg" next to the input
func DefaultOutputPath(input, suffix string) string {
	dir := filepath.Dir(input)
	stem := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	return filepath.Join(dir, stem+suffix+".jpg")
}

func hasExtension(path string, extensions []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range extensions {
		if ext == e {
			return true
		}
	}
	return false
}
