// Menu and file dialogs
package gui

import (
	"path/filepath"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
	"github.com/sirupsen/logrus"

	"raw-image-processor/internal/io"
)

// MenuHandler owns the main menu and the file dialogs
type MenuHandler struct {
	window fyne.Window
	logger *logrus.Logger

	onInputSelected  func(string)
	onOutputSelected func(string)
	onReset          func()
}

func NewMenuHandler(window fyne.Window, logger *logrus.Logger) *MenuHandler {
	return &MenuHandler{
		window: window,
		logger: logger,
	}
}

func (mh *MenuHandler) GetMainMenu() *fyne.MainMenu {
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Open RAW...", mh.openInput),
		fyne.NewMenuItem("Choose Output...", func() { mh.chooseOutput("") }),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Reset Settings", func() {
			if mh.onReset != nil {
				mh.onReset()
			}
		}),
	)

	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("About", mh.showAbout),
	)

	return fyne.NewMainMenu(fileMenu, helpMenu)
}

func (mh *MenuHandler) openInput() {
	mh.logger.Debug("Opening file dialog for RAW selection")

	fileDialog := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil {
			mh.showError("File Dialog Error", err)
			return
		}
		if reader == nil {
			return
		}
		defer reader.Close()

		path := reader.URI().Path()
		mh.logger.WithField("filepath", path).Info("Input selected")

		if mh.onInputSelected != nil {
			mh.onInputSelected(path)
		}
	}, mh.window)

	fileDialog.SetFilter(storage.NewExtensionFileFilter(rawFilterExtensions()))
	fileDialog.Show()
}

func (mh *MenuHandler) chooseOutput(current string) {
	fileDialog := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil {
			mh.showError("File Dialog Error", err)
			return
		}
		if writer == nil {
			return
		}
		// the encoder writes the file itself
		path := writer.URI().Path()
		writer.Close()

		mh.logger.WithField("filepath", path).Info("Output selected")
		if mh.onOutputSelected != nil {
			mh.onOutputSelected(path)
		}
	}, mh.window)

	name := "processed.jpg"
	if current != "" {
		name = filepath.Base(current)
		if dir, err := storage.ListerForURI(storage.NewFileURI(filepath.Dir(current))); err == nil {
			fileDialog.SetLocation(dir)
		}
	}
	fileDialog.SetFileName(name)
	fileDialog.SetFilter(storage.NewExtensionFileFilter([]string{".jpg", ".jpeg"}))
	fileDialog.Show()
}

// rawFilterExtensions lists both cases; fyne matches extensions case-sensitively
func rawFilterExtensions() []string {
	exts := make([]string, 0, 2*len(io.RawExtensions))
	for _, ext := range io.RawExtensions {
		exts = append(exts, ext, strings.ToUpper(ext))
	}
	return exts
}

func (mh *MenuHandler) showAbout() {
	content := container.NewVBox(
		widget.NewLabel("RAW Image Processor"),
		widget.NewSeparator(),
		widget.NewLabel("Develops camera RAW files and applies sharpening,"),
		widget.NewLabel("noise reduction, saturation and contrast."),
		widget.NewSeparator(),
		widget.NewLabel("Built with Go, Fyne v2.6 and OpenCV"),
	)

	aboutDialog := dialog.NewCustom("About", "Close", content, mh.window)
	aboutDialog.Resize(fyne.NewSize(400, 220))
	aboutDialog.Show()
}

func (mh *MenuHandler) showError(title string, err error) {
	mh.logger.WithError(err).Error(title)
	dialog.ShowError(err, mh.window)
}

func (mh *MenuHandler) SetCallbacks(onInputSelected, onOutputSelected func(string)) {
	mh.onInputSelected = onInputSelected
	mh.onOutputSelected = onOutputSelected
}
