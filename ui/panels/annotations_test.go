package panels

import (
	"testing"

	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chart-annotator/internal/annotation"
	"chart-annotator/internal/persist"
)

func draw(s *annotation.Store, kind annotation.Kind, a, b annotation.DataPoint) annotation.Shape {
	s.StartDraft(kind, a)
	s.UpdateDraft(b)
	shape, _ := s.CommitDraft()
	return shape
}

func pt(l, p float64) annotation.DataPoint {
	return annotation.DataPoint{LogicalIndex: l, Price: p}
}

func TestDescribe(t *testing.T) {
	line := annotation.NewLine("x", annotation.DefaultStyle, pt(1, 100), pt(5.5, 101.25))
	assert.Equal(t, "line   1.0:100.00 -> 5.5:101.25", Describe(line))
	circle := annotation.NewCircle("y", annotation.DefaultStyle, pt(2, 50), pt(3, 52))
	assert.Equal(t, "circle 2.0:50.00 -> 3.0:52.00", Describe(circle))
}

func TestAnnotationsPanel_FollowsStore(t *testing.T) {
	a := test.NewApp()
	defer a.Quit()

	p := NewAnnotationsPanel()
	assert.Equal(t, "No annotations", p.countLabel.Text)
	assert.True(t, p.clearButton.Disabled())

	store := annotation.NewStore("AAPL:1d", persist.NewMemory())
	defer store.Close()
	p.Bind(store)
	assert.Equal(t, "AAPL:1d", p.keyLabel.Text)

	line := draw(store, annotation.KindLine, pt(1, 10), pt(2, 20))
	rect := draw(store, annotation.KindRect, pt(3, 10), pt(6, 15))
	assert.Equal(t, []annotation.Shape{line, rect}, p.Shapes())
	assert.Equal(t, "2 annotations", p.countLabel.Text)
	assert.Equal(t, 2, p.list.Length())
	assert.True(t, p.deleteButton.Disabled())

	// list selection drives the store and back
	p.list.Select(1)
	assert.Equal(t, rect.ID, store.Selected())
	assert.False(t, p.deleteButton.Disabled())

	store.Select(line.ID)
	assert.Equal(t, line.ID, p.selected)

	p.deleteSelected()
	assert.Equal(t, []annotation.Shape{rect}, store.Shapes())
	assert.Equal(t, "1 annotation", p.countLabel.Text)
	assert.True(t, p.deleteButton.Disabled())
}

func TestAnnotationsPanel_EditAndClear(t *testing.T) {
	a := test.NewApp()
	defer a.Quit()

	store := annotation.NewStore("k", nil)
	defer store.Close()
	p := NewAnnotationsPanel()
	p.Bind(store)

	circle := draw(store, annotation.KindCircle, pt(1, 1), pt(2, 2))
	draw(store, annotation.KindLine, pt(3, 3), pt(4, 4))

	var edited []annotation.Shape
	p.OnEdit(func(s annotation.Shape) { edited = append(edited, s) })
	p.editSelected()
	assert.Empty(t, edited)

	store.Select(circle.ID)
	p.editSelected()
	require.Len(t, edited, 1)
	assert.Equal(t, circle, edited[0])

	// without a window Clear All skips the confirmation
	p.confirmClear()
	assert.Zero(t, store.Len())
	assert.Empty(t, p.Shapes())
}

func TestAnnotationsPanel_Rebind(t *testing.T) {
	a := test.NewApp()
	defer a.Quit()

	backend := persist.NewMemory()
	first := annotation.NewStore("a", backend)
	second := annotation.NewStore("b", backend)
	defer first.Close()
	defer second.Close()

	p := NewAnnotationsPanel()
	p.Bind(first)
	draw(first, annotation.KindLine, pt(1, 1), pt(2, 2))
	assert.Len(t, p.Shapes(), 1)

	p.Bind(second)
	assert.Empty(t, p.Shapes())
	assert.Equal(t, "b", p.keyLabel.Text)

	// the old store no longer reaches the panel
	draw(first, annotation.KindLine, pt(3, 3), pt(4, 4))
	assert.Empty(t, p.Shapes())

	p.Bind(nil)
	assert.Equal(t, "No annotations", p.countLabel.Text)
}
