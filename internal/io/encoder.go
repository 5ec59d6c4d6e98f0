package io

import (
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"raw-image-processor/internal/core"
)

// Encoder writes a raster as a JPEG file
type Encoder interface {
	Encode(raster *core.Raster, path string, quality int) error
}

// OpenCVEncoder encodes with OpenCV's JPEG codec
type OpenCVEncoder struct {
	logger *logrus.Logger
}

func NewOpenCVEncoder(logger *logrus.Logger) *OpenCVEncoder {
	return &OpenCVEncoder{logger: logger}
}

// Encode always produces JPEG bytes, whatever the extension of path
func (e *OpenCVEncoder) Encode(raster *core.Raster, path string, quality int) error {
	e.logger.WithFields(logrus.Fields{"filepath": path, "quality": quality}).Debug("Saving image")

	mat, release, err := bgrMat(raster)
	if err != nil {
		return err
	}
	defer release()

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, mat, []int{int(gocv.IMWriteJpegQuality), quality})
	if err != nil {
		return errors.Wrap(err, "encode jpeg")
	}
	defer buf.Close()

	if err := os.WriteFile(path, buf.GetBytes(), 0644); err != nil {
		return errors.Wrapf(err, "failed to save image: %s", path)
	}

	e.logger.WithFields(logrus.Fields{
		"filepath": path,
		"width":    mat.Cols(),
		"height":   mat.Rows(),
		"quality":  quality,
	}).Info("Image saved successfully")

	return nil
}

// bgrMat returns a BGR view of raster for the codec boundary, converting RGB
// and gray copies as needed. release must always be called.
func bgrMat(raster *core.Raster) (gocv.Mat, func(), error) {
	if raster == nil {
		return gocv.NewMat(), func() {}, errors.New("cannot save empty image")
	}

	src := *raster.Mat()
	if src.Empty() {
		return gocv.NewMat(), func() {}, errors.New("cannot save empty image")
	}

	var code gocv.ColorConversionCode
	switch raster.Order() {
	case core.OrderBGR:
		return src, func() {}, nil
	case core.OrderRGB:
		code = gocv.ColorRGBToBGR
	case core.OrderGray:
		code = gocv.ColorGrayToBGR
	default:
		return gocv.NewMat(), func() {}, errors.Errorf("unknown channel order %v", raster.Order())
	}

	converted := gocv.NewMat()
	gocv.CvtColor(src, &converted, code)
	return converted, func() { converted.Close() }, nil
}
