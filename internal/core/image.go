// Raster: an 8-bit image with an explicit channel order
package core

import (
	"fmt"

	"gocv.io/x/gocv"
)

// ChannelOrder records how the samples of a raster are laid out
type ChannelOrder int

const (
	// OrderBGR is the canonical internal order (OpenCV native)
	OrderBGR ChannelOrder = iota
	OrderRGB
	OrderGray
)

func (o ChannelOrder) String() string {
	switch o {
	case OrderBGR:
		return "BGR"
	case OrderRGB:
		return "RGB"
	case OrderGray:
		return "Gray"
	default:
		return fmt.Sprintf("ChannelOrder(%d)", int(o))
	}
}

// maxDimension prevents runaway allocations on corrupted headers
const maxDimension = 16384

// Raster owns a gocv.Mat of 8-bit samples together with its channel order.
// Ownership moves from stage to stage; whoever holds a raster must Close it.
type Raster struct {
	mat   gocv.Mat
	order ChannelOrder
}

// RasterMetadata contains raster information for logging and reports
type RasterMetadata struct {
	Width    int
	Height   int
	Channels int
	Order    ChannelOrder
}

// NewRaster takes ownership of mat after validating it
func NewRaster(mat gocv.Mat, order ChannelOrder) (*Raster, error) {
	if err := ValidateImage(mat); err != nil {
		return nil, err
	}

	channels := mat.Channels()
	switch {
	case channels == 1 && order != OrderGray:
		return nil, fmt.Errorf("single-channel image cannot be %s", order)
	case channels == 3 && order == OrderGray:
		return nil, fmt.Errorf("three-channel image cannot be %s", order)
	}

	return &Raster{mat: mat, order: order}, nil
}

// Mat exposes the underlying matrix; the raster keeps ownership
func (r *Raster) Mat() *gocv.Mat {
	return &r.mat
}

// Order returns the channel order
func (r *Raster) Order() ChannelOrder {
	return r.order
}

// Metadata returns raster dimensions
func (r *Raster) Metadata() RasterMetadata {
	return RasterMetadata{
		Width:    r.mat.Cols(),
		Height:   r.mat.Rows(),
		Channels: r.mat.Channels(),
		Order:    r.order,
	}
}

// Clone returns an independent copy
func (r *Raster) Clone() *Raster {
	return &Raster{mat: r.mat.Clone(), order: r.order}
}

// ToBGR converts an RGB raster to the canonical BGR order in place.
// Gray rasters are left alone; the color guard stage expands them.
func (r *Raster) ToBGR() {
	if r.order != OrderRGB {
		return
	}

	bgr := gocv.NewMat()
	gocv.CvtColor(r.mat, &bgr, gocv.ColorRGBToBGR)
	r.mat.Close()
	r.mat = bgr
	r.order = OrderBGR
}

// Close releases the underlying matrix
func (r *Raster) Close() error {
	if r == nil {
		return nil
	}
	return r.mat.Close()
}

// ValidateImage validates an OpenCV Mat for basic requirements
func ValidateImage(mat gocv.Mat) error {
	if mat.Empty() {
		return fmt.Errorf("image is empty")
	}

	if mat.Cols() <= 0 || mat.Rows() <= 0 {
		return fmt.Errorf("invalid dimensions: %dx%d", mat.Cols(), mat.Rows())
	}

	channels := mat.Channels()
	if channels != 1 && channels != 3 {
		return fmt.Errorf("unsupported channel count: %d", channels)
	}

	if mat.Type() != gocv.MatTypeCV8UC1 && mat.Type() != gocv.MatTypeCV8UC3 {
		return fmt.Errorf("unsupported sample type: %v", mat.Type())
	}

	if mat.Cols() > maxDimension || mat.Rows() > maxDimension {
		return fmt.Errorf("image too large: %dx%d (max: %d)", mat.Cols(), mat.Rows(), maxDimension)
	}

	return nil
}
