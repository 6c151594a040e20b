package interact

import (
	"sync"

	"github.com/sirupsen/logrus"

	"chart-annotator/internal/annotation"
	"chart-annotator/internal/mapping"
)

var log = logrus.WithField("component", "interact")

// Store is the part of the annotation store the controller mutates.
type Store interface {
	Shapes() []annotation.Shape
	SelectedShape() (annotation.Shape, bool)
	Selected() string
	Hovered() string
	Draft() (annotation.Shape, bool)

	StartDraft(kind annotation.Kind, p annotation.DataPoint)
	UpdateDraft(p annotation.DataPoint)
	CommitDraft() (annotation.Shape, bool)
	CancelDraft() bool
	Select(id string)
	SetHover(id string)
	MoveSelected(dLogical, dPrice float64, snapshot annotation.Shape)
	ReplaceSelectedHandle(h annotation.Handle, p annotation.DataPoint)
	Erase(id string) bool
	Persist()
}

// Geometry maps pixels to data space and hit-tests shapes.
type Geometry interface {
	HitTestShapeAt(x, y float64, shapes []annotation.Shape) (string, bool)
	HitTestHandleAt(x, y float64, selected *annotation.Shape) (mapping.HandleHit, bool)
	ToData(x, y float64) (annotation.DataPoint, bool)
	ResizeDiagonal(s annotation.Shape) mapping.Diagonal
}

var (
	_ Store    = (*annotation.Store)(nil)
	_ Geometry = (*mapping.Mapper)(nil)
)

type pointer struct {
	x, y  float64
	valid bool
}

// Controller is the tool state machine. It owns the drag state and is the
// single handler for every pointer phase.
type Controller struct {
	mu sync.Mutex

	store   Store
	geo     Geometry
	host    Host
	capture Capture

	tool Tool
	drag Drag
	last pointer

	captured   bool
	capturedID int

	// host callbacks queued under the lock, run after it is released
	effects []func()
}

// NewController creates a controller. capture may be nil.
func NewController(store Store, geo Geometry, host Host, capture Capture) *Controller {
	return &Controller{store: store, geo: geo, host: host, capture: capture}
}

// exit releases the lock and then runs queued host callbacks.
func (c *Controller) exit() {
	effects := c.effects
	c.effects = nil
	c.mu.Unlock()
	for _, fn := range effects {
		fn()
	}
}

func (c *Controller) setToolFromController(t Tool) {
	c.tool = t
	if fn := c.host.OnSetTool; fn != nil {
		c.effects = append(c.effects, func() { fn(t) })
	}
}

func (c *Controller) acquire(id int) {
	if c.capture == nil {
		return
	}
	if c.captured && c.capturedID == id {
		return
	}
	c.capture.SetPointerCapture(id)
	c.captured, c.capturedID = true, id
}

func (c *Controller) release() {
	if !c.captured {
		return
	}
	c.captured = false
	if c.capture != nil {
		c.capture.ReleasePointerCapture(c.capturedID)
	}
}

// Tool returns the active tool.
func (c *Controller) Tool() Tool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tool
}

// SetTool changes the active tool. Switching tools abandons any gesture in
// progress and discards a draft without committing it.
func (c *Controller) SetTool(t Tool) {
	c.mu.Lock()
	defer c.exit()
	if t == c.tool {
		return
	}
	log.Debugf("tool %s -> %s", c.tool, t)
	c.tool = t
	c.abandonLocked()
}

// Abandon drops the draft and any drag without persisting them.
func (c *Controller) Abandon() {
	c.mu.Lock()
	defer c.exit()
	c.abandonLocked()
}

func (c *Controller) abandonLocked() {
	c.store.CancelDraft()
	c.drag = Drag{}
	c.release()
}

// Drag returns the gesture state.
func (c *Controller) Drag() Drag {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.drag
}

// Dragging reports whether a move or handle drag is in progress.
func (c *Controller) Dragging() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.drag.Mode != DragNone
}

// PointerDown handles a button press. A secondary press, or a primary
// press with Ctrl held, is routed to Secondary.
func (c *Controller) PointerDown(ev PointerEvent) Result {
	if ev.Button == ButtonSecondary || ev.Ctrl {
		return c.Secondary(ev)
	}

	c.mu.Lock()
	defer c.exit()
	c.last = pointer{x: ev.X, y: ev.Y, valid: true}

	switch c.tool {
	case ToolNone:
		return c.downNone(ev)
	case ToolSelect:
		return c.downSelect(ev)
	case ToolErase:
		id, ok := c.geo.HitTestShapeAt(ev.X, ev.Y, c.store.Shapes())
		if !ok {
			return Result{Handled: true}
		}
		c.store.Erase(id)
		return consumed
	}

	if kind := c.tool.Kind(); kind != "" {
		c.acquire(ev.ID)
		if p, ok := c.geo.ToData(ev.X, ev.Y); ok {
			c.store.StartDraft(kind, p)
		}
		return consumed
	}
	return ignored
}

// downNone starts an implicit move drag on a shape under the pointer. A
// miss leaves the event to the chart.
func (c *Controller) downNone(ev PointerEvent) Result {
	id, ok := c.geo.HitTestShapeAt(ev.X, ev.Y, c.store.Shapes())
	if !ok {
		return ignored
	}
	c.acquire(ev.ID)
	c.store.Select(id)
	c.beginMove(id, ev)
	c.setToolFromController(ToolSelect)
	return consumed
}

func (c *Controller) downSelect(ev PointerEvent) Result {
	if sel, ok := c.store.SelectedShape(); ok {
		if hit, ok := c.geo.HitTestHandleAt(ev.X, ev.Y, &sel); ok {
			c.acquire(ev.ID)
			c.store.Select(hit.ID)
			c.drag = Drag{Mode: DragHandle, ID: hit.ID, Handle: hit.Handle}
			return consumed
		}
	}

	if id, ok := c.geo.HitTestShapeAt(ev.X, ev.Y, c.store.Shapes()); ok {
		c.acquire(ev.ID)
		c.store.Select(id)
		c.beginMove(id, ev)
		return consumed
	}

	c.store.Select("")
	c.setToolFromController(ToolNone)
	return Result{Handled: true}
}

func (c *Controller) beginMove(id string, ev PointerEvent) {
	start, ok := c.geo.ToData(ev.X, ev.Y)
	if !ok {
		return
	}
	snapshot, ok := c.store.SelectedShape()
	if !ok || snapshot.ID != id {
		return
	}
	c.drag = Drag{Mode: DragMove, ID: id, Start: start, Snapshot: snapshot}
}

// PointerMove handles pointer motion, captured or not.
func (c *Controller) PointerMove(ev PointerEvent) Result {
	c.mu.Lock()
	defer c.exit()
	c.last = pointer{x: ev.X, y: ev.Y, valid: true}

	switch c.drag.Mode {
	case DragMove:
		if p, ok := c.geo.ToData(ev.X, ev.Y); ok {
			c.store.MoveSelected(p.LogicalIndex-c.drag.Start.LogicalIndex, p.Price-c.drag.Start.Price, c.drag.Snapshot)
		}
		return consumed
	case DragHandle:
		if p, ok := c.geo.ToData(ev.X, ev.Y); ok {
			c.store.ReplaceSelectedHandle(c.drag.Handle, p)
		}
		return consumed
	}

	if _, ok := c.store.Draft(); ok {
		if p, ok := c.geo.ToData(ev.X, ev.Y); ok {
			c.store.UpdateDraft(p)
		}
		return consumed
	}

	id, _ := c.geo.HitTestShapeAt(ev.X, ev.Y, c.store.Shapes())
	c.store.SetHover(id)
	return ignored
}

// PointerUp ends a drag or commits the draft.
func (c *Controller) PointerUp(ev PointerEvent) Result {
	c.mu.Lock()
	defer c.exit()
	c.last = pointer{x: ev.X, y: ev.Y, valid: true}
	c.release()

	if c.drag.Mode != DragNone {
		log.WithField("id", c.drag.ID).Debug("drag finished")
		c.drag = Drag{}
		c.store.Persist()
		return consumed
	}

	if _, ok := c.store.CommitDraft(); ok {
		if fn := c.host.OnFinishDraw; fn != nil {
			c.effects = append(c.effects, fn)
		}
		return consumed
	}
	return ignored
}

// PointerLeave clears hover when the pointer leaves the overlay outside a
// drag.
func (c *Controller) PointerLeave() {
	c.mu.Lock()
	defer c.exit()
	if c.drag.Mode != DragNone || c.captured {
		return
	}
	c.last = pointer{}
	c.store.SetHover("")
}

// Secondary handles a right click or ctrl click. A draft in progress is
// cancelled; otherwise, with the None or Select tool, the shape under the
// pointer is erased. PreventDefault is only set when something happened,
// so the native context menu appears otherwise.
func (c *Controller) Secondary(ev PointerEvent) Result {
	c.mu.Lock()
	defer c.exit()

	if c.store.CancelDraft() {
		c.release()
		return consumed
	}
	if c.tool != ToolNone && c.tool != ToolSelect {
		return ignored
	}

	id, ok := c.geo.HitTestShapeAt(ev.X, ev.Y, c.store.Shapes())
	if !ok {
		return ignored
	}
	if c.drag.ID == id {
		c.drag = Drag{}
		c.release()
	}
	c.store.Erase(id)
	c.store.Select("")
	return consumed
}

// Cursor derives the cursor from the tool, the gesture and the last
// pointer position.
func (c *Controller) Cursor() Cursor {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.drag.Mode {
	case DragMove:
		return CursorGrabbing
	case DragHandle:
		return c.resizeCursor()
	}

	switch c.tool {
	case ToolNone:
		if c.store.Hovered() != "" {
			return CursorPointer
		}
		return CursorDefault
	case ToolErase:
		return CursorNotAllowed
	case ToolSelect:
		if c.last.valid {
			if sel, ok := c.store.SelectedShape(); ok {
				if _, ok := c.geo.HitTestHandleAt(c.last.x, c.last.y, &sel); ok {
					return c.resizeCursor()
				}
			}
		}
		if c.store.Hovered() != "" || c.store.Selected() != "" {
			return CursorPointer
		}
		return CursorDefault
	}
	if c.tool.IsDrawing() {
		return CursorCrosshair
	}
	return CursorDefault
}

func (c *Controller) resizeCursor() Cursor {
	sel, ok := c.store.SelectedShape()
	if !ok {
		return CursorNWSEResize
	}
	if c.geo.ResizeDiagonal(sel) == mapping.DiagonalNESW {
		return CursorNESWResize
	}
	return CursorNWSEResize
}
