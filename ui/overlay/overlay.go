// Package overlay provides the Fyne widget that shows a mounted annotation
// canvas on top of a chart and feeds it pointer input.
package overlay

import (
	"image"
	"sync"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"chart-annotator/internal/drawing"
	"chart-annotator/internal/interact"
)

// mousePointerID identifies the desktop mouse, the only pointer Fyne reports.
const mousePointerID = 1

// Passthrough receives gestures the overlay does not consume.
type Passthrough interface {
	Dragged(ev *fyne.DragEvent)
	DragEnd()
	Scrolled(ev *fyne.ScrollEvent)
}

var (
	_ desktop.Mouseable  = (*Overlay)(nil)
	_ desktop.Hoverable  = (*Overlay)(nil)
	_ desktop.Cursorable = (*Overlay)(nil)
	_ fyne.Draggable     = (*Overlay)(nil)
	_ fyne.Scrollable    = (*Overlay)(nil)
	_ interact.Capture   = (*Overlay)(nil)
)

// Overlay is a transparent raster stacked over the chart.
type Overlay struct {
	widget.BaseWidget

	raster *fynecanvas.Raster
	chart  Passthrough

	mu       sync.Mutex
	canvas   *drawing.Canvas
	menu     *fyne.Menu
	panning  bool
	captured map[int]bool
}

// New creates an overlay that hands unconsumed drags and scrolls to chart.
// chart may be nil.
func New(chart Passthrough) *Overlay {
	o := &Overlay{chart: chart, captured: make(map[int]bool)}
	o.raster = fynecanvas.NewRaster(o.draw)
	o.raster.ScaleMode = fynecanvas.ImageScalePixels
	o.ExtendBaseWidget(o)
	return o
}

// Attach connects a mounted canvas. Passing nil detaches it.
func (o *Overlay) Attach(c *drawing.Canvas) {
	o.mu.Lock()
	o.canvas = c
	o.mu.Unlock()
	o.raster.Refresh()
}

// Canvas returns the attached canvas, or nil.
func (o *Overlay) Canvas() *drawing.Canvas {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.canvas
}

// SetContextMenu sets the menu shown on a secondary click that did not
// erase anything.
func (o *Overlay) SetContextMenu(menu *fyne.Menu) {
	o.mu.Lock()
	o.menu = menu
	o.mu.Unlock()
}

// Refresh repaints the raster from the canvas surface.
func (o *Overlay) Refresh() {
	o.raster.Refresh()
}

func (o *Overlay) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(o.raster)
}

func (o *Overlay) draw(w, h int) image.Image {
	c := o.Canvas()
	if c == nil {
		return image.NewRGBA(image.Rect(0, 0, w, h))
	}
	c.Resize(w, h)
	return c.Surface()
}

// scale converts widget units to device pixels.
func (o *Overlay) scale() float32 {
	if app := fyne.CurrentApp(); app != nil {
		if c := app.Driver().CanvasForObject(o); c != nil {
			return c.Scale()
		}
	}
	return 1
}

// PointerEvent converts a widget position to an overlay pixel event.
func PointerEvent(pos fyne.Position, scale float32, button desktop.MouseButton, mod fyne.KeyModifier) interact.PointerEvent {
	ev := interact.PointerEvent{
		ID:   mousePointerID,
		X:    float64(pos.X * scale),
		Y:    float64(pos.Y * scale),
		Ctrl: mod&fyne.KeyModifierControl != 0,
	}
	if button == desktop.MouseButtonSecondary {
		ev.Button = interact.ButtonSecondary
	}
	return ev
}

// MouseDown starts a gesture. A primary press the canvas does not consume
// turns the following drag into a chart pan.
func (o *Overlay) MouseDown(ev *desktop.MouseEvent) {
	c := o.Canvas()
	if c == nil {
		o.setPanning(ev.Button == desktop.MouseButtonPrimary)
		return
	}
	pe := PointerEvent(ev.Position, o.scale(), ev.Button, ev.Modifier)
	res := c.PointerDown(pe)

	if pe.Button == interact.ButtonSecondary || pe.Ctrl {
		if !res.PreventDefault {
			o.showMenu(ev.AbsolutePosition)
		}
		return
	}
	o.setPanning(!res.PreventDefault)
}

func (o *Overlay) MouseUp(ev *desktop.MouseEvent) {
	if c := o.Canvas(); c != nil {
		c.PointerUp(PointerEvent(ev.Position, o.scale(), ev.Button, ev.Modifier))
	}
}

func (o *Overlay) MouseIn(*desktop.MouseEvent) {}

func (o *Overlay) MouseMoved(ev *desktop.MouseEvent) {
	if c := o.Canvas(); c != nil {
		c.PointerMove(PointerEvent(ev.Position, o.scale(), ev.Button, ev.Modifier))
	}
}

func (o *Overlay) MouseOut() {
	if c := o.Canvas(); c != nil {
		c.PointerLeave()
	}
}

// Dragged moves the gesture, or pans the chart when the press was not
// consumed.
func (o *Overlay) Dragged(ev *fyne.DragEvent) {
	if o.isPanning() {
		if o.chart != nil {
			o.chart.Dragged(ev)
		}
		return
	}
	if c := o.Canvas(); c != nil {
		c.PointerMove(PointerEvent(ev.Position, o.scale(), desktop.MouseButtonPrimary, 0))
	}
}

func (o *Overlay) DragEnd() {
	if o.isPanning() {
		o.setPanning(false)
		if o.chart != nil {
			o.chart.DragEnd()
		}
	}
}

// Scrolled always belongs to the chart.
func (o *Overlay) Scrolled(ev *fyne.ScrollEvent) {
	if o.chart != nil {
		o.chart.Scrolled(ev)
	}
}

// Cursor maps the canvas cursor onto the closest Fyne cursor.
func (o *Overlay) Cursor() desktop.Cursor {
	c := o.Canvas()
	if c == nil {
		return desktop.DefaultCursor
	}
	return FyneCursor(c.Cursor())
}

// FyneCursor maps an overlay cursor to a desktop cursor. Fyne has no
// grabbing, not-allowed or diagonal resize cursors.
func FyneCursor(c interact.Cursor) desktop.Cursor {
	switch c {
	case interact.CursorPointer, interact.CursorGrabbing:
		return desktop.PointerCursor
	case interact.CursorCrosshair, interact.CursorNotAllowed:
		return desktop.CrosshairCursor
	case interact.CursorNWSEResize, interact.CursorNESWResize:
		return desktop.HResizeCursor
	}
	return desktop.DefaultCursor
}

func (o *Overlay) SetPointerCapture(id int) {
	o.mu.Lock()
	o.captured[id] = true
	o.mu.Unlock()
}

func (o *Overlay) ReleasePointerCapture(id int) {
	o.mu.Lock()
	delete(o.captured, id)
	o.mu.Unlock()
}

// Captured reports whether the pointer is held by a gesture.
func (o *Overlay) Captured(id int) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.captured[id]
}

func (o *Overlay) setPanning(v bool) {
	o.mu.Lock()
	o.panning = v
	o.mu.Unlock()
}

func (o *Overlay) isPanning() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.panning
}

func (o *Overlay) showMenu(pos fyne.Position) {
	o.mu.Lock()
	menu := o.menu
	o.mu.Unlock()
	if menu == nil {
		return
	}
	app := fyne.CurrentApp()
	if app == nil {
		return
	}
	if c := app.Driver().CanvasForObject(o); c != nil {
		widget.ShowPopUpMenuAtPosition(menu, c, pos)
	}
}
