package params

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDefaults(t *testing.T) {
	p := Normalize(DefaultSliders())

	assert.InDelta(t, 1.5, p.SharpeningStrength, 1e-9)
	assert.Equal(t, 3, p.BlurSigma)
	assert.Equal(t, 95, p.JPEGQuality)
	assert.InDelta(t, 0.3, p.NoiseReduction, 1e-9)
	assert.InDelta(t, 1.1, p.Saturation, 1e-9)
	assert.InDelta(t, 1.1, p.Contrast, 1e-9)
	require.NoError(t, p.Validate())
}

func TestNormalizeRoundsIntegers(t *testing.T) {
	p := Normalize(SliderState{Blur: 2.6, Quality: 80.4})
	assert.Equal(t, 3, p.BlurSigma)
	assert.Equal(t, 80, p.JPEGQuality)
}

func TestNormalizeStaysInNativeRanges(t *testing.T) {
	for v := 0.0; v <= 100; v += 0.5 {
		s := SliderState{Sharpen: v, Blur: v, Quality: v, Noise: v, Saturation: v, Contrast: v}.Clamp()
		p := Normalize(s)
		require.NoError(t, p.Validate(), "slider value %v", v)

		assert.GreaterOrEqual(t, p.SharpeningStrength, 0.0)
		assert.LessOrEqual(t, p.SharpeningStrength, 3.0)
		assert.GreaterOrEqual(t, p.NoiseReduction, 0.0)
		assert.LessOrEqual(t, p.NoiseReduction, 1.0)
		assert.LessOrEqual(t, p.Saturation, 2.0)
		assert.LessOrEqual(t, p.Contrast, 2.0)
	}
}

func TestNormalizeDoesNotClamp(t *testing.T) {
	p := Normalize(SliderState{Sharpen: 200, Blur: 3, Quality: 95})
	assert.InDelta(t, 6.0, p.SharpeningStrength, 1e-9)
	assert.Error(t, p.Validate())
}

func TestClamp(t *testing.T) {
	s := SliderState{Sharpen: -5, Blur: 0, Quality: 10, Noise: 150, Saturation: 50, Contrast: 101}.Clamp()

	assert.Equal(t, SliderState{Sharpen: 0, Blur: 1, Quality: 50, Noise: 100, Saturation: 50, Contrast: 100}, s)
}

func TestNeutralMidpoints(t *testing.T) {
	p := Normalize(SliderState{Sharpen: 0, Blur: 3, Quality: 95, Noise: 0, Saturation: 50, Contrast: 50})

	assert.Equal(t, Neutral(), p)
	assert.False(t, p.AdjustsColor())
	assert.Zero(t, p.DenoiseStrength())
}

func TestValidateRejectsOutOfRange(t *testing.T) {
	cases := map[string]func(p *FilterParameters){
		"sharpening": func(p *FilterParameters) { p.SharpeningStrength = 3.1 },
		"blur":       func(p *FilterParameters) { p.BlurSigma = 0 },
		"quality":    func(p *FilterParameters) { p.JPEGQuality = 101 },
		"noise":      func(p *FilterParameters) { p.NoiseReduction = -0.1 },
		"saturation": func(p *FilterParameters) { p.Saturation = 2.5 },
		"contrast":   func(p *FilterParameters) { p.Contrast = -1 },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			p := Neutral()
			mutate(&p)
			assert.Error(t, p.Validate())
		})
	}
}

func TestSliderAccessors(t *testing.T) {
	s, err := DefaultSliders().With("noise", 12)
	require.NoError(t, err)

	v, ok := s.Get("noise")
	assert.True(t, ok)
	assert.Equal(t, 12.0, v)

	_, err = s.With("gamma", 1)
	assert.Error(t, err)

	_, ok = s.Get("gamma")
	assert.False(t, ok)
}
