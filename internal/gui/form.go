package gui

import (
	"fmt"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"raw-image-processor/internal/params"
)

type sliderRow struct {
	info   params.SliderInfo
	slider *widget.Slider
	value  *widget.Label
}

// Form holds the widgets of the main window
type Form struct {
	inputEntry   *widget.Entry
	inputBrowse  *widget.Button
	outputEntry  *widget.Entry
	outputBrowse *widget.Button

	sliders []*sliderRow

	processBtn *widget.Button
	resetBtn   *widget.Button
	viewBtn    *widget.Button

	status   *widget.Label
	progress *widget.ProgressBarInfinite

	container *fyne.Container
}

func NewForm(initial params.SliderState) *Form {
	f := &Form{}

	f.inputEntry = widget.NewEntry()
	f.inputEntry.SetPlaceHolder("RAW file (CR2, NEF, ARW, DNG...)")
	f.inputBrowse = widget.NewButtonWithIcon("Browse", theme.FolderOpenIcon(), nil)

	f.outputEntry = widget.NewEntry()
	f.outputEntry.SetPlaceHolder("Output JPEG")
	f.outputBrowse = widget.NewButtonWithIcon("Browse", theme.DocumentSaveIcon(), nil)

	for _, info := range params.Sliders {
		f.sliders = append(f.sliders, newSliderRow(info))
	}
	f.SetSliders(initial)

	f.processBtn = widget.NewButtonWithIcon("Process Image", theme.MediaPlayIcon(), nil)
	f.processBtn.Importance = widget.HighImportance
	f.resetBtn = widget.NewButtonWithIcon("Reset", theme.ViewRefreshIcon(), nil)
	f.viewBtn = widget.NewButtonWithIcon("View Result", theme.VisibilityIcon(), nil)
	f.viewBtn.Disable()

	f.status = widget.NewLabel("Ready")
	f.status.Wrapping = fyne.TextWrapWord
	f.progress = widget.NewProgressBarInfinite()
	f.progress.Stop()
	f.progress.Hide()

	f.buildLayout()
	return f
}

func newSliderRow(info params.SliderInfo) *sliderRow {
	row := &sliderRow{
		info:   info,
		slider: widget.NewSlider(info.Min, info.Max),
		value:  widget.NewLabel(""),
	}
	row.slider.Step = 1
	row.slider.OnChanged = func(value float64) {
		row.value.SetText(fmt.Sprintf("%.0f", value))
	}
	return row
}

func (f *Form) buildLayout() {
	files := widget.NewForm(
		widget.NewFormItem("Input", container.NewBorder(nil, nil, nil, f.inputBrowse, f.inputEntry)),
		widget.NewFormItem("Output", container.NewBorder(nil, nil, nil, f.outputBrowse, f.outputEntry)),
	)

	settings := container.NewVBox()
	for _, row := range f.sliders {
		label := widget.NewLabel(row.info.Label)
		label.TextStyle = fyne.TextStyle{Bold: true}
		settings.Add(container.NewBorder(nil, nil, label, row.value))
		settings.Add(row.slider)
	}

	buttons := container.NewHBox(layout.NewSpacer(), f.resetBtn, f.viewBtn, f.processBtn)

	f.container = container.NewVBox(
		widget.NewCard("Files", "", files),
		widget.NewCard("Enhancement", "", settings),
		buttons,
		f.progress,
		f.status,
	)
}

// SetSliders moves every slider (and its value label) to state
func (f *Form) SetSliders(state params.SliderState) {
	for _, row := range f.sliders {
		if v, ok := state.Get(row.info.Name); ok {
			row.slider.SetValue(v)
			row.value.SetText(fmt.Sprintf("%.0f", row.slider.Value))
		}
	}
}

// SliderState reads the current slider positions
func (f *Form) SliderState() params.SliderState {
	var state params.SliderState
	for _, row := range f.sliders {
		// names come from params.Sliders, so With cannot fail
		state, _ = state.With(row.info.Name, row.slider.Value)
	}
	return state.Clamp()
}

func (f *Form) InputPath() string {
	return strings.TrimSpace(f.inputEntry.Text)
}

func (f *Form) OutputPath() string {
	return strings.TrimSpace(f.outputEntry.Text)
}

func (f *Form) GetContainer() *fyne.Container {
	return f.container
}
