// Sharpening and noise reduction filters
package algorithms

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"raw-image-processor/internal/params"
)

// NLM window sizes are fixed
const (
	denoiseTemplateWindow = 7
	denoiseSearchWindow   = 21
)

// UnsharpMask sharpens by adding back the detail removed by a Gaussian blur
type UnsharpMask struct{}

// NewUnsharpMask creates the sharpening stage
func NewUnsharpMask() *UnsharpMask {
	return &UnsharpMask{}
}

func (u *UnsharpMask) Name() string { return StageSharpen }

func (u *UnsharpMask) Description() string {
	return "Unsharp masking: original*(1+s) - blurred*s"
}

// Enabled is always true; a zero strength degenerates to a copy
func (u *UnsharpMask) Enabled(params.FilterParameters) bool { return true }

func (u *UnsharpMask) Apply(input gocv.Mat, p params.FilterParameters) (gocv.Mat, error) {
	if err := checkInput(input); err != nil {
		return gocv.NewMat(), err
	}
	if p.BlurSigma < 1 {
		return gocv.NewMat(), fmt.Errorf("blur sigma must be at least 1, got %d", p.BlurSigma)
	}

	sigma := float64(p.BlurSigma)

	// Kernel size 0x0 lets OpenCV derive it from sigma
	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(input, &blurred, image.Pt(0, 0), sigma, sigma, gocv.BorderDefault)
	if blurred.Empty() {
		return gocv.NewMat(), fmt.Errorf("gaussian blur failed")
	}

	output := gocv.NewMat()
	gocv.AddWeighted(input, 1.0+p.SharpeningStrength, blurred, -p.SharpeningStrength, 0, &output)
	if err := checkOutput(u.Name(), output); err != nil {
		return gocv.NewMat(), err
	}

	return output, nil
}

// Denoiser applies non-local means denoising
type Denoiser struct{}

// NewDenoiser creates the noise reduction stage
func NewDenoiser() *Denoiser {
	return &Denoiser{}
}

func (d *Denoiser) Name() string { return StageDenoise }

func (d *Denoiser) Description() string {
	return "Non-local means denoising, h = noise_reduction * 10"
}

func (d *Denoiser) Enabled(p params.FilterParameters) bool {
	return p.NoiseReduction > 0
}

func (d *Denoiser) Apply(input gocv.Mat, p params.FilterParameters) (gocv.Mat, error) {
	if err := checkInput(input); err != nil {
		return gocv.NewMat(), err
	}

	h := float32(p.DenoiseStrength())
	output := gocv.NewMat()

	if input.Channels() == 1 {
		gocv.FastNlMeansDenoisingWithParams(input, &output, h, denoiseTemplateWindow, denoiseSearchWindow)
	} else {
		gocv.FastNlMeansDenoisingColoredWithParams(input, &output, h, h, denoiseTemplateWindow, denoiseSearchWindow)
	}

	if err := checkOutput(d.Name(), output); err != nil {
		return gocv.NewMat(), err
	}
	return output, nil
}
