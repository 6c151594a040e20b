// Package dialogs provides application dialogs.
package dialogs

import (
	"fmt"
	"strconv"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"github.com/pkg/errors"

	"chart-annotator/internal/annotation"
	"chart-annotator/pkg/colorutil"
)

// pointEntries edits one endpoint.
type pointEntries struct {
	handle  annotation.Handle
	logical *widget.Entry
	price   *widget.Entry
}

// ShapeEditDialog edits the endpoints and stroke of one annotation.
type ShapeEditDialog struct {
	shape  annotation.Shape
	window fyne.Window

	points      [2]pointEntries
	colorSelect *widget.SelectEntry
	widthEntry  *widget.Entry
	errorLabel  *widget.Label

	onSave   func(annotation.Shape)
	onDelete func(id string)
}

// NewShapeEditDialog creates an edit dialog for shape.
func NewShapeEditDialog(shape annotation.Shape, window fyne.Window,
	onSave func(annotation.Shape), onDelete func(id string)) *ShapeEditDialog {
	return &ShapeEditDialog{
		shape:    shape,
		window:   window,
		onSave:   onSave,
		onDelete: onDelete,
	}
}

// Show displays the dialog.
func (d *ShapeEditDialog) Show() {
	content := d.createContent()

	var dlg dialog.Dialog

	saveBtn := widget.NewButton("Save", func() {
		edited, err := d.parse()
		if err != nil {
			d.errorLabel.SetText(err.Error())
			d.errorLabel.Show()
			return
		}
		if d.onSave != nil {
			d.onSave(edited)
		}
		dlg.Hide()
	})
	saveBtn.Importance = widget.HighImportance

	cancelBtn := widget.NewButton("Cancel", func() {
		dlg.Hide()
	})

	deleteBtn := widget.NewButton("Delete", func() {
		dialog.ShowConfirm("Delete Annotation",
			fmt.Sprintf("Delete this %s?", d.shape.Kind),
			func(confirmed bool) {
				if confirmed {
					if d.onDelete != nil {
						d.onDelete(d.shape.ID)
					}
					dlg.Hide()
				}
			}, d.window)
	})
	deleteBtn.Importance = widget.DangerImportance

	buttons := container.NewHBox(
		deleteBtn,
		container.NewHBox(),
		cancelBtn,
		saveBtn,
	)

	dlg = dialog.NewCustomWithoutButtons(
		"Edit "+kindTitle(d.shape.Kind),
		container.NewBorder(nil, buttons, nil, nil, content),
		d.window,
	)
	dlg.Resize(fyne.NewSize(380, 0))
	dlg.Show()
}

func (d *ShapeEditDialog) createContent() fyne.CanvasObject {
	form := widget.NewForm()

	for i, h := range d.shape.Handles() {
		p, _ := d.shape.Point(h)
		pe := pointEntries{
			handle:  h,
			logical: widget.NewEntry(),
			price:   widget.NewEntry(),
		}
		pe.logical.SetText(formatFloat(p.LogicalIndex))
		pe.price.SetText(formatFloat(p.Price))
		d.points[i] = pe

		form.Append(handleTitle(h)+" bar", pe.logical)
		form.Append(handleTitle(h)+" price", pe.price)
	}

	d.colorSelect = widget.NewSelectEntry(colorutil.Palette)
	d.colorSelect.SetText(d.shape.Style.StrokeColor)
	form.Append("Color", d.colorSelect)

	d.widthEntry = widget.NewEntry()
	d.widthEntry.SetText(formatFloat(d.shape.Style.StrokeWidth))
	form.Append("Width", d.widthEntry)

	d.errorLabel = widget.NewLabel("")
	d.errorLabel.Importance = widget.DangerImportance
	d.errorLabel.Hide()

	return container.NewVBox(form, d.errorLabel)
}

func (d *ShapeEditDialog) parse() (annotation.Shape, error) {
	var fields ShapeFields
	for i, pe := range d.points {
		fields.Points[i] = [2]string{pe.logical.Text, pe.price.Text}
	}
	fields.Color = d.colorSelect.Text
	fields.Width = d.widthEntry.Text
	return fields.Apply(d.shape)
}

// ShapeFields is the text form of an edited shape: two endpoints as
// (bar, price) pairs in handle order, a hex color and a stroke width.
type ShapeFields struct {
	Points [2][2]string
	Color  string
	Width  string
}

// Apply parses the fields onto a copy of s.
func (f ShapeFields) Apply(s annotation.Shape) (annotation.Shape, error) {
	handles := s.Handles()
	if len(handles) != 2 {
		return s, errors.Errorf("unsupported kind %q", s.Kind)
	}
	for i, h := range handles {
		logical, err := parseNumber(f.Points[i][0])
		if err != nil {
			return s, errors.Wrapf(err, "%s bar", handleTitle(h))
		}
		price, err := parseNumber(f.Points[i][1])
		if err != nil {
			return s, errors.Wrapf(err, "%s price", handleTitle(h))
		}
		next, ok := s.WithPoint(h, annotation.DataPoint{LogicalIndex: logical, Price: price})
		if !ok {
			return s, errors.Errorf("invalid %s point", handleTitle(h))
		}
		s = next
	}

	c, err := colorutil.ParseHex(strings.TrimSpace(f.Color))
	if err != nil {
		return s, errors.Wrap(err, "color")
	}
	width, err := parseNumber(f.Width)
	if err != nil {
		return s, errors.Wrap(err, "width")
	}
	if width <= 0 {
		return s, errors.New("width must be positive")
	}
	s.Style = annotation.Style{StrokeColor: colorutil.Hex(c), StrokeWidth: width}
	return s, s.Validate()
}

func parseNumber(text string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		return 0, errors.Errorf("%q is not a number", text)
	}
	return v, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func kindTitle(k annotation.Kind) string {
	switch k {
	case annotation.KindLine:
		return "Line"
	case annotation.KindRect:
		return "Rectangle"
	case annotation.KindCircle:
		return "Circle"
	}
	return string(k)
}

func handleTitle(h annotation.Handle) string {
	switch h {
	case annotation.HandleA:
		return "Start"
	case annotation.HandleB:
		return "End"
	case annotation.HandleCenter:
		return "Center"
	case annotation.HandleEdge:
		return "Edge"
	}
	return string(h)
}
