// Color adjustments: saturation, contrast and the three-channel guard
package algorithms

import (
	"gocv.io/x/gocv"

	"raw-image-processor/internal/params"
)

// contrastMidpoint is the 8-bit channel midpoint contrast pivots around
const contrastMidpoint = 127.5

// Saturation scales the S channel in HSV space
type Saturation struct{}

// NewSaturation creates the saturation stage
func NewSaturation() *Saturation {
	return &Saturation{}
}

func (s *Saturation) Name() string { return StageSaturation }

func (s *Saturation) Description() string {
	return "HSV round trip scaling the saturation channel"
}

// Enabled runs the HSV round trip whenever any color adjustment is requested
func (s *Saturation) Enabled(p params.FilterParameters) bool {
	return p.AdjustsColor()
}

func (s *Saturation) Apply(input gocv.Mat, p params.FilterParameters) (gocv.Mat, error) {
	if err := checkInput(input); err != nil {
		return gocv.NewMat(), err
	}

	// Gray has no saturation to scale
	if input.Channels() == 1 {
		return input.Clone(), nil
	}

	hsv := gocv.NewMat()
	defer hsv.Close()
	gocv.CvtColor(input, &hsv, gocv.ColorBGRToHSV)

	if p.Saturation != params.NeutralSaturation {
		channels := gocv.Split(hsv)
		defer func() {
			for _, c := range channels {
				c.Close()
			}
		}()

		// Saturating conversion clamps S to [0,255]
		scaled := gocv.NewMat()
		channels[1].ConvertToWithParams(&scaled, gocv.MatTypeCV8U, float32(p.Saturation), 0)
		channels[1].Close()
		channels[1] = scaled

		gocv.Merge(channels, &hsv)
	}

	output := gocv.NewMat()
	gocv.CvtColor(hsv, &output, gocv.ColorHSVToBGR)
	if err := checkOutput(s.Name(), output); err != nil {
		return gocv.NewMat(), err
	}
	return output, nil
}

// Contrast stretches samples around the channel midpoint
type Contrast struct{}

// NewContrast creates the contrast stage
func NewContrast() *Contrast {
	return &Contrast{}
}

func (c *Contrast) Name() string { return StageContrast }

func (c *Contrast) Description() string {
	return "p' = (p - 127.5) * contrast + 127.5, clamped and rounded"
}

func (c *Contrast) Enabled(p params.FilterParameters) bool {
	return p.Contrast != params.NeutralContrast
}

func (c *Contrast) Apply(input gocv.Mat, p params.FilterParameters) (gocv.Mat, error) {
	if err := checkInput(input); err != nil {
		return gocv.NewMat(), err
	}

	// alpha*p + beta with beta = midpoint*(1-alpha); the 8-bit
	// conversion rounds and saturates
	alpha := p.Contrast
	beta := contrastMidpoint * (1 - alpha)

	output := gocv.NewMat()
	input.ConvertToWithParams(&output, input.Type(), float32(alpha), float32(beta))
	if err := checkOutput(c.Name(), output); err != nil {
		return gocv.NewMat(), err
	}
	return output, nil
}

// ColorGuard guarantees a three-channel result
type ColorGuard struct{}

// NewColorGuard creates the channel guard stage
func NewColorGuard() *ColorGuard {
	return &ColorGuard{}
}

func (g *ColorGuard) Name() string { return StageColorGuard }

func (g *ColorGuard) Description() string {
	return "Replicates a single-channel image into three channels"
}

func (g *ColorGuard) Enabled(params.FilterParameters) bool { return true }

func (g *ColorGuard) Apply(input gocv.Mat, _ params.FilterParameters) (gocv.Mat, error) {
	if err := checkInput(input); err != nil {
		return gocv.NewMat(), err
	}

	if input.Channels() == 3 {
		return input.Clone(), nil
	}

	output := gocv.NewMat()
	gocv.CvtColor(input, &output, gocv.ColorGrayToBGR)
	if err := checkOutput(g.Name(), output); err != nil {
		return gocv.NewMat(), err
	}
	return output, nil
}
