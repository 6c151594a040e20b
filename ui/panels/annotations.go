// Package panels provides the side panels of the main window.
package panels

import (
	"fmt"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"github.com/sirupsen/logrus"

	"chart-annotator/internal/annotation"
)

var log = logrus.WithField("component", "panels")

// AnnotationsPanel lists the annotations of the bound store and lets the
// user select, edit and delete them.
type AnnotationsPanel struct {
	window fyne.Window
	onEdit func(annotation.Shape)

	mu       sync.Mutex
	store    *annotation.Store
	unsub    func()
	shapes   []annotation.Shape
	selected string

	list         *widget.List
	keyLabel     *widget.Label
	countLabel   *widget.Label
	editButton   *widget.Button
	deleteButton *widget.Button
	clearButton  *widget.Button
	container    fyne.CanvasObject
}

// NewAnnotationsPanel creates an unbound panel.
func NewAnnotationsPanel() *AnnotationsPanel {
	p := &AnnotationsPanel{}

	p.list = widget.NewList(
		p.length,
		func() fyne.CanvasObject {
			return widget.NewLabel("")
		},
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			if s, ok := p.shapeAt(id); ok {
				obj.(*widget.Label).SetText(Describe(s))
			}
		},
	)
	p.list.OnSelected = p.selectIndex

	p.keyLabel = widget.NewLabel("")
	p.countLabel = widget.NewLabel("No annotations")

	p.editButton = widget.NewButton("Edit", p.editSelected)
	p.deleteButton = widget.NewButton("Delete", p.deleteSelected)
	p.deleteButton.Importance = widget.DangerImportance
	p.clearButton = widget.NewButton("Clear All", p.confirmClear)

	p.container = container.NewBorder(
		container.NewVBox(p.keyLabel, p.countLabel),
		container.NewHBox(p.editButton, p.deleteButton, p.clearButton),
		nil, nil,
		p.list,
	)
	p.refresh()
	return p
}

// SetWindow sets the parent window for dialogs.
func (p *AnnotationsPanel) SetWindow(w fyne.Window) {
	p.window = w
}

// OnEdit sets the callback for the Edit button.
func (p *AnnotationsPanel) OnEdit(fn func(annotation.Shape)) {
	p.onEdit = fn
}

// Container returns the panel's root object.
func (p *AnnotationsPanel) Container() fyne.CanvasObject {
	return p.container
}

// Bind attaches the panel to store, detaching it from the previous one.
func (p *AnnotationsPanel) Bind(store *annotation.Store) {
	p.mu.Lock()
	old := p.unsub
	p.store = store
	p.unsub = nil
	p.mu.Unlock()

	if old != nil {
		old()
	}
	if store != nil {
		unsub := store.OnChange(p.refresh)
		p.mu.Lock()
		p.unsub = unsub
		p.mu.Unlock()
	}
	p.refresh()
}

// Shapes returns the listed annotations.
func (p *AnnotationsPanel) Shapes() []annotation.Shape {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]annotation.Shape(nil), p.shapes...)
}

func (p *AnnotationsPanel) length() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.shapes)
}

func (p *AnnotationsPanel) shapeAt(i int) (annotation.Shape, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if i < 0 || i >= len(p.shapes) {
		return annotation.Shape{}, false
	}
	return p.shapes[i], true
}

func (p *AnnotationsPanel) current() *annotation.Store {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.store
}

// refresh reloads the list from the store. Widgets are touched without
// holding mu since list selection calls back into the store.
func (p *AnnotationsPanel) refresh() {
	store := p.current()

	var shapes []annotation.Shape
	var selected, key string
	if store != nil {
		shapes = store.Shapes()
		selected = store.Selected()
		key = store.Key()
	}

	p.mu.Lock()
	p.shapes = shapes
	p.selected = selected
	p.mu.Unlock()

	p.keyLabel.SetText(key)
	switch len(shapes) {
	case 0:
		p.countLabel.SetText("No annotations")
	case 1:
		p.countLabel.SetText("1 annotation")
	default:
		p.countLabel.SetText(fmt.Sprintf("%d annotations", len(shapes)))
	}

	hasSelection := indexOf(shapes, selected) >= 0
	setEnabled(p.editButton, hasSelection)
	setEnabled(p.deleteButton, hasSelection)
	setEnabled(p.clearButton, len(shapes) > 0)

	p.list.Refresh()
	if i := indexOf(shapes, selected); i >= 0 {
		p.list.Select(i)
	} else {
		p.list.UnselectAll()
	}
}

func (p *AnnotationsPanel) selectIndex(i widget.ListItemID) {
	s, ok := p.shapeAt(i)
	store := p.current()
	if !ok || store == nil {
		return
	}
	store.Select(s.ID)
}

func (p *AnnotationsPanel) selectedShape() (annotation.Shape, *annotation.Store, bool) {
	store := p.current()
	if store == nil {
		return annotation.Shape{}, nil, false
	}
	s, ok := store.SelectedShape()
	return s, store, ok
}

func (p *AnnotationsPanel) editSelected() {
	s, _, ok := p.selectedShape()
	if ok && p.onEdit != nil {
		p.onEdit(s)
	}
}

func (p *AnnotationsPanel) deleteSelected() {
	s, store, ok := p.selectedShape()
	if !ok {
		return
	}
	store.Erase(s.ID)
}

func (p *AnnotationsPanel) confirmClear() {
	store := p.current()
	if store == nil || store.Len() == 0 {
		return
	}
	if p.window == nil {
		p.clearAll()
		return
	}
	dialog.ShowConfirm("Clear Annotations",
		fmt.Sprintf("Delete all %d annotations on %s?", store.Len(), store.Key()),
		func(confirmed bool) {
			if confirmed {
				p.clearAll()
			}
		}, p.window)
}

// clearAll erases every annotation of the bound store.
func (p *AnnotationsPanel) clearAll() {
	store := p.current()
	if store == nil {
		return
	}
	n := 0
	for _, s := range store.Shapes() {
		if store.Erase(s.ID) {
			n++
		}
	}
	log.WithFields(logrus.Fields{"key": store.Key(), "count": n}).Info("cleared annotations")
}

// Describe renders a one-line summary of s.
func Describe(s annotation.Shape) string {
	return fmt.Sprintf("%-6s %.1f:%.2f -> %.1f:%.2f", s.Kind,
		s.P1.LogicalIndex, s.P1.Price, s.P2.LogicalIndex, s.P2.Price)
}

func indexOf(shapes []annotation.Shape, id string) int {
	if id == "" {
		return -1
	}
	for i, s := range shapes {
		if s.ID == id {
			return i
		}
	}
	return -1
}

func setEnabled(b *widget.Button, enabled bool) {
	if enabled {
		b.Enable()
	} else {
		b.Disable()
	}
}
