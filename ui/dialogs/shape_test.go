package dialogs

import (
	"testing"

	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chart-annotator/internal/annotation"
)

var circle = annotation.NewCircle("c1", annotation.DefaultStyle,
	annotation.DataPoint{LogicalIndex: 10, Price: 100},
	annotation.DataPoint{LogicalIndex: 12, Price: 104})

func TestShapeFields_Apply(t *testing.T) {
	fields := ShapeFields{
		Points: [2][2]string{{"11", "101.5"}, {" 14 ", "99"}},
		Color:  "#F59E0B",
		Width:  "3",
	}
	got, err := fields.Apply(circle)
	require.NoError(t, err)
	assert.Equal(t, "c1", got.ID)
	assert.Equal(t, annotation.KindCircle, got.Kind)
	assert.Equal(t, annotation.DataPoint{LogicalIndex: 11, Price: 101.5}, got.P1)
	assert.Equal(t, annotation.DataPoint{LogicalIndex: 14, Price: 99}, got.P2)
	assert.Equal(t, annotation.Style{StrokeColor: "#f59e0b", StrokeWidth: 3}, got.Style)
}

func TestShapeFields_ApplyErrors(t *testing.T) {
	valid := ShapeFields{
		Points: [2][2]string{{"1", "2"}, {"3", "4"}},
		Color:  "#22d3ee",
		Width:  "2",
	}
	tests := []struct {
		name   string
		modify func(*ShapeFields)
		want   string
	}{
		{"bar", func(f *ShapeFields) { f.Points[0][0] = "x" }, "Center bar"},
		{"price", func(f *ShapeFields) { f.Points[1][1] = "" }, "Edge price"},
		{"nan", func(f *ShapeFields) { f.Points[1][1] = "NaN" }, "non-finite"},
		{"color", func(f *ShapeFields) { f.Color = "teal" }, "color"},
		{"width", func(f *ShapeFields) { f.Width = "0" }, "width must be positive"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := valid
			tt.modify(&f)
			_, err := f.Apply(circle)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestShapeEditDialog_Form(t *testing.T) {
	a := test.NewApp()
	defer a.Quit()
	w := test.NewWindow(nil)
	defer w.Close()

	line := annotation.NewLine("l1", annotation.Style{StrokeColor: "#a78bfa", StrokeWidth: 2},
		annotation.DataPoint{LogicalIndex: 1, Price: 50}, annotation.DataPoint{LogicalIndex: 5, Price: 55})
	d := NewShapeEditDialog(line, w, nil, nil)
	d.createContent()

	assert.Equal(t, "1", d.points[0].logical.Text)
	assert.Equal(t, "55", d.points[1].price.Text)
	assert.Equal(t, "#a78bfa", d.colorSelect.Text)

	// untouched form round-trips
	got, err := d.parse()
	require.NoError(t, err)
	assert.Equal(t, line, got)

	d.points[1].logical.SetText("8")
	d.widthEntry.SetText("4")
	got, err = d.parse()
	require.NoError(t, err)
	assert.Equal(t, 8.0, got.P2.LogicalIndex)
	assert.Equal(t, 4.0, got.Style.StrokeWidth)
}
