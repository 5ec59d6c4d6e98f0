package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

func TestNewRasterValidates(t *testing.T) {
	empty := gocv.NewMat()
	defer empty.Close()
	_, err := NewRaster(empty, OrderBGR)
	assert.Error(t, err)

	gray := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(1, 0, 0, 0), 4, 4, gocv.MatTypeCV8UC1)
	defer gray.Close()
	_, err = NewRaster(gray, OrderRGB)
	assert.Error(t, err, "gray data labelled RGB")

	float := gocv.NewMatWithSize(4, 4, gocv.MatTypeCV32FC3)
	defer float.Close()
	_, err = NewRaster(float, OrderBGR)
	assert.Error(t, err)
}

func TestToBGRSwapsChannels(t *testing.T) {
	mat := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(255, 10, 0, 0), 4, 4, gocv.MatTypeCV8UC3)
	r, err := NewRaster(mat, OrderRGB)
	require.NoError(t, err)
	defer r.Close()

	r.ToBGR()
	assert.Equal(t, OrderBGR, r.Order())
	assert.Equal(t, gocv.Vecb{0, 10, 255}, r.Mat().GetVecbAt(1, 1))

	// Already canonical: no further swap
	r.ToBGR()
	assert.Equal(t, gocv.Vecb{0, 10, 255}, r.Mat().GetVecbAt(1, 1))
}

func TestCloneIsIndependent(t *testing.T) {
	mat := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(5, 6, 7, 0), 4, 4, gocv.MatTypeCV8UC3)
	r, err := NewRaster(mat, OrderBGR)
	require.NoError(t, err)
	defer r.Close()

	c := r.Clone()
	defer c.Close()
	c.Mat().SetUCharAt(0, 0, 99)

	assert.Equal(t, uint8(5), r.Mat().GetUCharAt(0, 0))
	assert.Equal(t, RasterMetadata{Width: 4, Height: 4, Channels: 3, Order: OrderBGR}, c.Metadata())
}

func TestChannelOrderString(t *testing.T) {
	assert.Equal(t, "BGR", OrderBGR.String())
	assert.Equal(t, "RGB", OrderRGB.String())
	assert.Equal(t, "Gray", OrderGray.String())
}
