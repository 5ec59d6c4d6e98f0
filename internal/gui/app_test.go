package gui

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"fyne.io/fyne/v2/test"
	"github.com/pkg/errors"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"raw-image-processor/internal/params"
	"raw-image-processor/internal/processor"
)

type stubRunner struct {
	mu       sync.Mutex
	requests []processor.Request
	result   processor.Result
}

func (s *stubRunner) Run(_ context.Context, req processor.Request) processor.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	res := s.result
	res.OutputPath = req.OutputPath
	return res
}

func (s *stubRunner) calls() []processor.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]processor.Request{}, s.requests...)
}

func newTestApplication(t *testing.T, runner Runner) *Application {
	t.Helper()
	app := test.NewApp()
	t.Cleanup(app.Quit)
	logger, _ := logtest.NewNullLogger()
	return NewApplication(app, runner, params.DefaultSliders(), "_processed", logger)
}

func TestFormStartsAtDefaults(t *testing.T) {
	a := newTestApplication(t, &stubRunner{})

	assert.Equal(t, params.DefaultSliders(), a.form.SliderState())
	assert.Equal(t, "95", a.form.sliders[2].value.Text)
	assert.True(t, a.form.viewBtn.Disabled())
}

func TestSliderLabelsFollowValues(t *testing.T) {
	a := newTestApplication(t, &stubRunner{})

	row := a.form.sliders[0]
	row.slider.SetValue(73)
	assert.Equal(t, "73", row.value.Text)
	assert.Equal(t, 73.0, a.form.SliderState().Sharpen)
}

func TestReset(t *testing.T) {
	a := newTestApplication(t, &stubRunner{})

	for _, row := range a.form.sliders {
		row.slider.SetValue(row.info.Max)
	}
	require.NotEqual(t, params.DefaultSliders(), a.form.SliderState())

	test.Tap(a.form.resetBtn)
	assert.Equal(t, params.DefaultSliders(), a.form.SliderState())
	assert.Equal(t, "Settings reset to defaults", a.Status())
}

func TestSelectingInputProposesOutput(t *testing.T) {
	a := newTestApplication(t, &stubRunner{})

	in := filepath.Join("photos", "IMG_0042.CR2")
	a.SetInputPath(in)
	assert.Equal(t, in, a.form.InputPath())
	assert.Equal(t, filepath.Join("photos", "IMG_0042_processed.jpg"), a.form.OutputPath())
}

func TestProcessRequiresPaths(t *testing.T) {
	runner := &stubRunner{}
	a := newTestApplication(t, runner)

	test.Tap(a.form.processBtn)
	assert.Empty(t, runner.calls())
	assert.Contains(t, a.Status(), "select both input and output")
}

func TestProcessRunsWithNormalizedParams(t *testing.T) {
	runner := &stubRunner{result: processor.Result{OK: true, Status: "Processing complete! Saved to: out.jpg"}}
	a := newTestApplication(t, runner)

	a.form.inputEntry.SetText("in.nef")
	a.form.outputEntry.SetText("out.jpg")
	test.Tap(a.form.processBtn)

	assert.Eventually(t, func() bool { return len(runner.calls()) == 1 }, 2*time.Second, 10*time.Millisecond)
	req := runner.calls()[0]
	assert.Equal(t, "in.nef", req.InputPath)
	assert.Equal(t, params.Normalize(params.DefaultSliders()), req.Params)

	assert.Eventually(t, func() bool { return !a.form.viewBtn.Disabled() }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "Processing complete! Saved to: out.jpg", a.Status())
	assert.Equal(t, "out.jpg", a.lastOutput)
}

func TestProcessFailureKeepsViewDisabled(t *testing.T) {
	runner := &stubRunner{result: processor.Result{Status: "Error: decode failed", Err: errors.New("decode failed")}}
	a := newTestApplication(t, runner)

	a.form.inputEntry.SetText("in.nef")
	a.form.outputEntry.SetText("out.jpg")
	test.Tap(a.form.processBtn)

	assert.Eventually(t, func() bool { return a.Status() == "Error: decode failed" }, 2*time.Second, 10*time.Millisecond)
	assert.True(t, a.form.viewBtn.Disabled())
	assert.Empty(t, a.lastOutput)
}

func TestLoadPreviewKeepsAspect(t *testing.T) {
	mat := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(10, 20, 30, 0), 200, 400, gocv.MatTypeCV8UC3)
	defer mat.Close()
	path := filepath.Join(t.TempDir(), "result.jpg")
	require.True(t, gocv.IMWrite(path, mat))

	img, err := LoadPreview(path, 100, 100)
	require.NoError(t, err)
	assert.Equal(t, 100, img.Bounds().Dx())
	assert.Equal(t, 50, img.Bounds().Dy())

	_, err = LoadPreview(filepath.Join(t.TempDir(), "missing.jpg"), 100, 100)
	assert.Error(t, err)
}

func TestRawFilterExtensions(t *testing.T) {
	exts := rawFilterExtensions()
	assert.Contains(t, exts, ".cr2")
	assert.Contains(t, exts, ".CR2")
	assert.Contains(t, exts, ".DNG")
}
