// Enhancement stages and their fixed execution order
package algorithms

import (
	"fmt"

	"gocv.io/x/gocv"

	"raw-image-processor/internal/params"
)

// Stage is one step of the enhancement pipeline. Apply never modifies input
// and returns a new Mat owned by the caller.
type Stage interface {
	Name() string
	Description() string
	Enabled(p params.FilterParameters) bool
	Apply(input gocv.Mat, p params.FilterParameters) (gocv.Mat, error)
}

// Stage names, in execution order
const (
	StageSharpen    = "sharpen"
	StageDenoise    = "denoise"
	StageSaturation = "saturation"
	StageContrast   = "contrast"
	StageColorGuard = "color_guard"
)

// Stages returns the enhancement stages in their fixed order.
// The order is not configurable; only the enabled predicates vary per call.
func Stages() []Stage {
	return []Stage{
		NewUnsharpMask(),
		NewDenoiser(),
		NewSaturation(),
		NewContrast(),
		NewColorGuard(),
	}
}

// Names returns the stage names in execution order
func Names() []string {
	stages := Stages()
	names := make([]string, len(stages))
	for i, s := range stages {
		names[i] = s.Name()
	}
	return names
}

func checkInput(input gocv.Mat) error {
	if input.Empty() {
		return fmt.Errorf("input image is empty")
	}
	if input.Channels() != 1 && input.Channels() != 3 {
		return fmt.Errorf("unsupported channel count: %d", input.Channels())
	}
	return nil
}

func checkOutput(stage string, output gocv.Mat) error {
	if output.Empty() {
		output.Close()
		return fmt.Errorf("%s produced an empty image", stage)
	}
	return nil
}
