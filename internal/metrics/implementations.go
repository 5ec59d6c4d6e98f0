// Concrete implementations of quality metrics
package metrics

import (
	"fmt"
	"math"

	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/stat"
)

// PSNR implements Peak Signal-to-Noise Ratio metric
type PSNR struct{}

// NewPSNR creates a new PSNR metric
func NewPSNR() *PSNR {
	return &PSNR{}
}

func (p *PSNR) Calculate(original, processed gocv.Mat) (float64, error) {
	mse, err := meanSquaredError(original, processed)
	if err != nil {
		return 0, err
	}
	if mse == 0 {
		return math.Inf(1), nil // Perfect match
	}

	maxVal := 255.0
	return 20 * math.Log10(maxVal/math.Sqrt(mse)), nil
}

func (p *PSNR) GetName() string      { return "PSNR" }
func (p *PSNR) IsHigherBetter() bool { return true }

// MSE implements Mean Squared Error over all samples
type MSE struct{}

// NewMSE creates a new MSE metric
func NewMSE() *MSE {
	return &MSE{}
}

func (m *MSE) Calculate(original, processed gocv.Mat) (float64, error) {
	return meanSquaredError(original, processed)
}

func (m *MSE) GetName() string      { return "MSE" }
func (m *MSE) IsHigherBetter() bool { return false }

// VarianceRatio compares sample variance after/before; above 1 means more contrast
type VarianceRatio struct{}

// NewVarianceRatio creates a new variance ratio metric
func NewVarianceRatio() *VarianceRatio {
	return &VarianceRatio{}
}

func (v *VarianceRatio) Calculate(original, processed gocv.Mat) (float64, error) {
	before, err := Describe(original)
	if err != nil {
		return 0, err
	}
	after, err := Describe(processed)
	if err != nil {
		return 0, err
	}
	if before.Variance == 0 {
		return 0, fmt.Errorf("original image has zero variance")
	}
	return after.Variance / before.Variance, nil
}

func (v *VarianceRatio) GetName() string      { return "Variance Ratio" }
func (v *VarianceRatio) IsHigherBetter() bool { return true }

// Sharpness compares the variance of the Laplacian after/before
type Sharpness struct{}

// NewSharpness creates a new sharpness metric
func NewSharpness() *Sharpness {
	return &Sharpness{}
}

func (s *Sharpness) Calculate(original, processed gocv.Mat) (float64, error) {
	if original.Empty() || processed.Empty() {
		return 0, fmt.Errorf("empty images")
	}

	before := s.calculateSharpness(original)
	after := s.calculateSharpness(processed)
	if before == 0 {
		return 0, fmt.Errorf("original image has no detail")
	}
	return after / before, nil
}

func (s *Sharpness) calculateSharpness(input gocv.Mat) float64 {
	gray := ensureGrayscale(input)
	defer gray.Close()

	laplacian := gocv.NewMat()
	defer laplacian.Close()
	gocv.Laplacian(gray, &laplacian, gocv.MatTypeCV64F, 1, 1, 0, gocv.BorderDefault)

	mean := gocv.NewMat()
	defer mean.Close()
	stddev := gocv.NewMat()
	defer stddev.Close()
	gocv.MeanStdDev(laplacian, &mean, &stddev)

	sd := stddev.GetDoubleAt(0, 0)
	return sd * sd
}

func (s *Sharpness) GetName() string      { return "Sharpness Ratio" }
func (s *Sharpness) IsHigherBetter() bool { return true }

// Summary holds per-image sample statistics
type Summary struct {
	Mean     float64
	Variance float64
	StdDev   float64
}

// Describe computes sample statistics over every 8-bit sample of mat
func Describe(mat gocv.Mat) (Summary, error) {
	if mat.Empty() {
		return Summary{}, fmt.Errorf("empty image")
	}

	data := mat.ToBytes()
	values := make([]float64, len(data))
	for i, v := range data {
		values[i] = float64(v)
	}

	mean, variance := stat.MeanVariance(values, nil)
	return Summary{Mean: mean, Variance: variance, StdDev: math.Sqrt(variance)}, nil
}

func meanSquaredError(original, processed gocv.Mat) (float64, error) {
	if original.Empty() || processed.Empty() {
		return 0, fmt.Errorf("empty images")
	}

	if original.Rows() != processed.Rows() || original.Cols() != processed.Cols() {
		return 0, fmt.Errorf("image dimensions mismatch")
	}

	if original.Channels() != processed.Channels() {
		return 0, fmt.Errorf("channel count mismatch: %d vs %d", original.Channels(), processed.Channels())
	}

	a := original.ToBytes()
	b := processed.ToBytes()

	sumSquaredDiff := 0.0
	for i := range a {
		diff := float64(a[i]) - float64(b[i])
		sumSquaredDiff += diff * diff
	}

	return sumSquaredDiff / float64(len(a)), nil
}

// ensureGrayscale always returns a new Mat the caller must close
func ensureGrayscale(input gocv.Mat) gocv.Mat {
	if input.Channels() == 1 {
		return input.Clone()
	}

	gray := gocv.NewMat()
	gocv.CvtColor(input, &gray, gocv.ColorBGRToGray)
	return gray
}
