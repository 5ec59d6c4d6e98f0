// Main window: file selection, enhancement sliders and processing status
package gui

import (
	"context"
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"raw-image-processor/internal/io"
	"raw-image-processor/internal/params"
	"raw-image-processor/internal/processor"
)

// Runner processes one file; *processor.Processor satisfies it
type Runner interface {
	Run(ctx context.Context, req processor.Request) processor.Result
}

// Application is the RAW enhancement form
type Application struct {
	app    fyne.App
	window fyne.Window
	logger *logrus.Logger
	runner Runner

	defaults     params.SliderState
	outputSuffix string

	form        *Form
	menuHandler *MenuHandler

	processing bool
	lastOutput string
}

func NewApplication(app fyne.App, runner Runner, defaults params.SliderState, outputSuffix string, logger *logrus.Logger) *Application {
	window := app.NewWindow("RAW Image Processor")
	window.Resize(fyne.NewSize(560, 640))
	window.CenterOnScreen()

	a := &Application{
		app:          app,
		window:       window,
		logger:       logger,
		runner:       runner,
		defaults:     defaults.Clamp(),
		outputSuffix: outputSuffix,
	}

	a.form = NewForm(a.defaults)
	a.menuHandler = NewMenuHandler(window, logger)

	a.setupLayout()
	a.setupCallbacks()

	return a
}

func (a *Application) setupLayout() {
	a.window.SetMainMenu(a.menuHandler.GetMainMenu())
	a.window.SetContent(container.NewPadded(a.form.GetContainer()))
}

func (a *Application) setupCallbacks() {
	a.form.inputBrowse.OnTapped = a.menuHandler.openInput
	a.form.outputBrowse.OnTapped = func() {
		a.menuHandler.chooseOutput(a.form.OutputPath())
	}
	a.form.processBtn.OnTapped = a.Process
	a.form.resetBtn.OnTapped = a.Reset
	a.form.viewBtn.OnTapped = a.ViewResult

	a.menuHandler.SetCallbacks(
		// onInputSelected
		a.SetInputPath,
		// onOutputSelected
		func(path string) {
			a.form.outputEntry.SetText(path)
		},
	)
	a.menuHandler.onReset = a.Reset
}

// SetInputPath fills the input field and proposes "<stem><suffix>.jpg" as output
func (a *Application) SetInputPath(path string) {
	a.form.inputEntry.SetText(path)
	a.form.outputEntry.SetText(io.DefaultOutputPath(path, a.outputSuffix))
	a.updateStatusMessage(fmt.Sprintf("Selected: %s", path))
}

// Reset restores the default slider values
func (a *Application) Reset() {
	a.form.SetSliders(a.defaults)
	a.updateStatusMessage("Settings reset to defaults")
	a.logger.Debug("Sliders reset to defaults")
}

// Process validates the form and runs the job off the UI goroutine
func (a *Application) Process() {
	if a.processing {
		return
	}

	input, output := a.form.InputPath(), a.form.OutputPath()
	if input == "" || output == "" {
		a.showError("Missing Files", errors.New("please select both input and output files"))
		return
	}

	state := a.form.SliderState()
	req := processor.Request{
		InputPath:  input,
		OutputPath: output,
		Params:     params.Normalize(state),
	}

	a.logger.WithFields(logrus.Fields{
		"input":   input,
		"output":  output,
		"sliders": state,
	}).Info("Processing requested")

	a.setProcessing(true)
	a.updateStatusMessage("Processing...")

	go func() {
		res := a.runner.Run(context.Background(), req)
		fyne.Do(func() {
			a.finish(res)
		})
	}()
}

func (a *Application) finish(res processor.Result) {
	a.setProcessing(false)
	a.updateStatusMessage(res.Status)

	if !res.OK {
		dialog.ShowError(res.Err, a.window)
		return
	}

	a.lastOutput = res.OutputPath
	a.form.viewBtn.Enable()
	dialog.ShowInformation("Done", res.Status, a.window)
}

// ViewResult opens the last processed image in its own window
func (a *Application) ViewResult() {
	if a.lastOutput == "" {
		a.showError("No Result", errors.New("no processed image yet"))
		return
	}

	win, err := NewResultWindow(a.app, a.lastOutput, a.logger)
	if err != nil {
		a.showError("Cannot Show Result", err)
		return
	}
	win.Show()
}

func (a *Application) setProcessing(busy bool) {
	a.processing = busy
	if busy {
		a.form.processBtn.Disable()
		a.form.resetBtn.Disable()
		a.form.progress.Show()
		a.form.progress.Start()
		return
	}
	a.form.progress.Stop()
	a.form.progress.Hide()
	a.form.processBtn.Enable()
	a.form.resetBtn.Enable()
}

func (a *Application) updateStatusMessage(message string) {
	a.form.status.SetText(message)
}

func (a *Application) ShowAndRun() {
	a.logger.Info("Showing main application window")
	a.window.ShowAndRun()
}

func (a *Application) showError(title string, err error) {
	a.logger.WithError(err).Error(title)
	dialog.ShowError(err, a.window)
	a.updateStatusMessage(fmt.Sprintf("Error: %s", err.Error()))
}

// Window exposes the main window, mostly for tests
func (a *Application) Window() fyne.Window {
	return a.window
}

// Status returns the current status line
func (a *Application) Status() string {
	return a.form.status.Text
}

var _ Runner = (*processor.Processor)(nil)
