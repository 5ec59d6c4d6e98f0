package gui

import (
	"image"
	"path/filepath"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	"github.com/nfnt/resize"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

const (
	previewMaxWidth  = 1200
	previewMaxHeight = 900
)

// LoadPreview reads a written image and scales it to fit within the preview
// bounds, keeping aspect ratio. Smaller images are returned unscaled.
func LoadPreview(path string, maxWidth, maxHeight uint) (image.Image, error) {
	mat := gocv.IMRead(path, gocv.IMReadColor)
	if mat.Empty() {
		mat.Close()
		return nil, errors.Errorf("cannot read %s", path)
	}
	defer mat.Close()

	img, err := mat.ToImage()
	if err != nil {
		return nil, errors.Wrap(err, "convert preview")
	}

	return resize.Thumbnail(maxWidth, maxHeight, img, resize.Lanczos3), nil
}

// NewResultWindow builds a window showing the image at path
func NewResultWindow(app fyne.App, path string, logger *logrus.Logger) (fyne.Window, error) {
	img, err := LoadPreview(path, previewMaxWidth, previewMaxHeight)
	if err != nil {
		return nil, err
	}

	b := img.Bounds()
	logger.WithFields(logrus.Fields{
		"filepath": path,
		"width":    b.Dx(),
		"height":   b.Dy(),
	}).Debug("Showing result preview")

	view := canvas.NewImageFromImage(img)
	view.FillMode = canvas.ImageFillContain
	view.SetMinSize(fyne.NewSize(float32(b.Dx())/2, float32(b.Dy())/2))

	win := app.NewWindow("Result - " + filepath.Base(path))
	win.SetContent(container.NewBorder(nil, widget.NewLabel(path), nil, nil, view))
	win.Resize(fyne.NewSize(float32(b.Dx()), float32(b.Dy())+40))
	return win, nil
}
