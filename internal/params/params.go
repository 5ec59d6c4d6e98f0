// Slider state and filter-native parameters for the enhancement pipeline
package params

import (
	"fmt"
	"math"
)

// Neutral values at which a stage leaves the image untouched
const (
	NeutralSaturation = 1.0
	NeutralContrast   = 1.0
)

// SliderState holds the six UI-scale values (0-100) driving one processing call
type SliderState struct {
	Sharpen    float64 `yaml:"sharpen" json:"sharpen"`
	Blur       float64 `yaml:"blur" json:"blur"`
	Quality    float64 `yaml:"quality" json:"quality"`
	Noise      float64 `yaml:"noise" json:"noise"`
	Saturation float64 `yaml:"saturation" json:"saturation"`
	Contrast   float64 `yaml:"contrast" json:"contrast"`
}

// FilterParameters are the filter-native values consumed by the pipeline
type FilterParameters struct {
	SharpeningStrength float64 `json:"sharpening_strength"`
	BlurSigma          int     `json:"blur_sigma"`
	JPEGQuality        int     `json:"jpeg_quality"`
	NoiseReduction     float64 `json:"noise_reduction"`
	Saturation         float64 `json:"saturation"`
	Contrast           float64 `json:"contrast"`
}

// SliderInfo describes one slider for UI generation
type SliderInfo struct {
	Name        string  `json:"name"`
	Label       string  `json:"label"`
	Min         float64 `json:"min"`
	Max         float64 `json:"max"`
	Integer     bool    `json:"integer"`
	Description string  `json:"description"`
}

// Sliders lists the form sliders in display order
var Sliders = []SliderInfo{
	{Name: "sharpen", Label: "Sharpening Strength", Min: 0, Max: 100, Description: "Unsharp mask amount, 0-100 maps to 0-3"},
	{Name: "blur", Label: "Blur Sigma", Min: 1, Max: 100, Integer: true, Description: "Gaussian sigma of the unsharp mask"},
	{Name: "quality", Label: "JPEG Quality", Min: 50, Max: 100, Integer: true, Description: "Output JPEG quality"},
	{Name: "noise", Label: "Noise Reduction", Min: 0, Max: 100, Description: "Non-local means strength, 0-100 maps to 0-1"},
	{Name: "saturation", Label: "Saturation", Min: 0, Max: 100, Description: "Color saturation, 50 leaves colors unchanged"},
	{Name: "contrast", Label: "Contrast", Min: 0, Max: 100, Description: "Contrast around mid-gray, 50 leaves contrast unchanged"},
}

// DefaultSliders returns the initial form values: (1.5, 3, 95, 0.3, 1.1, 1.1) once normalized
func DefaultSliders() SliderState {
	return SliderState{
		Sharpen:    50,
		Blur:       3,
		Quality:    95,
		Noise:      30,
		Saturation: 55,
		Contrast:   55,
	}
}

// Get returns the value of the named slider
func (s SliderState) Get(name string) (float64, bool) {
	switch name {
	case "sharpen":
		return s.Sharpen, true
	case "blur":
		return s.Blur, true
	case "quality":
		return s.Quality, true
	case "noise":
		return s.Noise, true
	case "saturation":
		return s.Saturation, true
	case "contrast":
		return s.Contrast, true
	}
	return 0, false
}

// With returns a copy with the named slider set to value
func (s SliderState) With(name string, value float64) (SliderState, error) {
	switch name {
	case "sharpen":
		s.Sharpen = value
	case "blur":
		s.Blur = value
	case "quality":
		s.Quality = value
	case "noise":
		s.Noise = value
	case "saturation":
		s.Saturation = value
	case "contrast":
		s.Contrast = value
	default:
		return s, fmt.Errorf("unknown slider: %s", name)
	}
	return s, nil
}

// Clamp applies each slider's own min/max, the only bound the form enforces
func (s SliderState) Clamp() SliderState {
	for _, info := range Sliders {
		v, _ := s.Get(info.Name)
		if math.IsNaN(v) {
			v = info.Min
		}
		v = math.Max(info.Min, math.Min(info.Max, v))
		s, _ = s.With(info.Name, v)
	}
	return s
}

// Normalize maps UI-scale values onto filter-native ranges.
// No clamping happens here; callers outside a form should Validate the result.
func Normalize(s SliderState) FilterParameters {
	return FilterParameters{
		SharpeningStrength: s.Sharpen / 100 * 3.0,
		BlurSigma:          int(math.Round(s.Blur)),
		JPEGQuality:        int(math.Round(s.Quality)),
		NoiseReduction:     s.Noise / 100,
		Saturation:         s.Saturation / 50,
		Contrast:           s.Contrast / 50,
	}
}

// Neutral returns parameters for which the pipeline reproduces its input
func Neutral() FilterParameters {
	return FilterParameters{
		SharpeningStrength: 0,
		BlurSigma:          3,
		JPEGQuality:        95,
		NoiseReduction:     0,
		Saturation:         NeutralSaturation,
		Contrast:           NeutralContrast,
	}
}

// Validate checks every field against its native range
func (p FilterParameters) Validate() error {
	if !inRange(p.SharpeningStrength, 0, 3) {
		return fmt.Errorf("sharpening_strength must be between 0 and 3, got %v", p.SharpeningStrength)
	}
	if p.BlurSigma < 1 || p.BlurSigma > 100 {
		return fmt.Errorf("blur_sigma must be between 1 and 100, got %d", p.BlurSigma)
	}
	if p.JPEGQuality < 50 || p.JPEGQuality > 100 {
		return fmt.Errorf("jpeg_quality must be between 50 and 100, got %d", p.JPEGQuality)
	}
	if !inRange(p.NoiseReduction, 0, 1) {
		return fmt.Errorf("noise_reduction must be between 0 and 1, got %v", p.NoiseReduction)
	}
	if !inRange(p.Saturation, 0, 2) {
		return fmt.Errorf("saturation must be between 0 and 2, got %v", p.Saturation)
	}
	if !inRange(p.Contrast, 0, 2) {
		return fmt.Errorf("contrast must be between 0 and 2, got %v", p.Contrast)
	}
	return nil
}

// DenoiseStrength is the NLM filter strength h used for luminance and color
func (p FilterParameters) DenoiseStrength() float64 {
	return p.NoiseReduction * 10
}

// AdjustsColor reports whether the HSV stage runs
func (p FilterParameters) AdjustsColor() bool {
	return p.Saturation != NeutralSaturation || p.Contrast != NeutralContrast
}

func inRange(v, lo, hi float64) bool {
	return !math.IsNaN(v) && v >= lo && v <= hi
}
