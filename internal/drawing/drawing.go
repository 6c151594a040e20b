// Package drawing mounts an annotation overlay on a host chart. A Canvas
// ties one store, mapper, renderer and controller together and keeps them
// in step with the chart viewport and the host's props.
package drawing

import (
	"image"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/sirupsen/logrus"

	"chart-annotator/internal/annotation"
	"chart-annotator/internal/chart"
	"chart-annotator/internal/interact"
	"chart-annotator/internal/mapping"
	"chart-annotator/internal/persist"
	"chart-annotator/internal/render"
)

var log = logrus.WithField("component", "drawing")

// Params configures a mounted canvas.
type Params struct {
	Scale  chart.TimeScale
	Series chart.PriceSeries

	// StorageKey selects the annotation collection, usually symbol:period.
	StorageKey string
	Tool       interact.Tool

	StrokeColor string
	StrokeWidth float64
	// Visible leaves the store default (shown) when nil.
	Visible *bool

	OnFinishDraw func()
	OnSetTool    func(interact.Tool)
	// OnFrame runs after every redraw with what the renderer did.
	OnFrame func(render.Outcome)

	// Backend persists collections. Nil keeps them in memory only.
	Backend persist.Backend
	Capture interact.Capture

	Width, Height int

	// Scheduler coalesces redraws. Nil uses a FrameScheduler on Clock.
	Scheduler       render.Scheduler
	Clock           clock.Clock
	FrameInterval   time.Duration
	RescaleDebounce time.Duration
}

// Canvas is a mounted overlay.
type Canvas struct {
	params    Params
	mapper    *mapping.Mapper
	renderer  *render.Renderer
	rescale   *render.RescaleTracker
	scheduler render.Scheduler

	// keyMu serializes store swaps.
	keyMu sync.Mutex

	mu         sync.RWMutex
	store      *annotation.Store
	ctrl       *interact.Controller
	unsubStore func()
	unsubRange func()
	tool       interact.Tool
	style      annotation.Style
	visible    bool
	width      int
	height     int
	unmounted  bool
}

// Mount builds a canvas for p and schedules the first frame.
func Mount(p Params) *Canvas {
	c := &Canvas{
		params:  p,
		tool:    p.Tool,
		style:   annotation.Patch(p.StrokeColor, p.StrokeWidth).Apply(annotation.DefaultStyle),
		visible: true,
		width:   p.Width,
		height:  p.Height,
	}
	if p.Visible != nil {
		c.visible = *p.Visible
	}

	c.scheduler = p.Scheduler
	if c.scheduler == nil {
		c.scheduler = render.NewFrameScheduler(p.Clock, p.FrameInterval)
	}
	c.rescale = render.NewRescaleTracker(p.Clock, p.RescaleDebounce, c.scheduleRedraw)
	c.mapper = mapping.NewMapper(p.Scale, p.Series, c.size, c.rescale.Scaling)
	c.renderer = render.NewRenderer(c.mapper, p.Width, p.Height)

	store, ctrl, unsub := c.bind(p.StorageKey)
	c.store, c.ctrl, c.unsubStore = store, ctrl, unsub

	if p.Scale != nil {
		c.unsubRange = p.Scale.SubscribeVisibleLogicalRangeChange(func(chart.Range) {
			c.rescale.Touch()
		})
	}

	log.WithFields(logrus.Fields{
		"key":  p.StorageKey,
		"tool": p.Tool.String(),
		"size": [2]int{p.Width, p.Height},
	}).Info("mounted drawing canvas")

	c.scheduleRedraw()
	return c
}

// bind loads the store for key and builds a controller over it.
func (c *Canvas) bind(key string) (*annotation.Store, *interact.Controller, func()) {
	c.mu.RLock()
	style, visible, tool := c.style, c.visible, c.tool
	c.mu.RUnlock()

	store := annotation.NewStore(key, c.params.Backend,
		annotation.WithStyle(style),
		annotation.WithVisible(visible),
	)
	unsub := store.OnChange(func() {
		c.mapper.Invalidate()
		c.scheduleRedraw()
	})

	host := interact.Host{
		OnFinishDraw: c.params.OnFinishDraw,
		OnSetTool:    c.toolChangedByController,
	}
	ctrl := interact.NewController(store, c.mapper, host, c.params.Capture)
	ctrl.SetTool(tool)
	return store, ctrl, unsub
}

func (c *Canvas) toolChangedByController(t interact.Tool) {
	c.mu.Lock()
	c.tool = t
	c.mu.Unlock()
	if fn := c.params.OnSetTool; fn != nil {
		fn(t)
	}
}

func (c *Canvas) current() (*annotation.Store, *interact.Controller, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.store, c.ctrl, !c.unmounted
}

func (c *Canvas) size() (float64, float64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return float64(c.width), float64(c.height)
}

func (c *Canvas) scheduleRedraw() {
	c.scheduler.Request(c.redraw)
}

func (c *Canvas) redraw() {
	c.RedrawNow()
}

// RedrawNow paints a frame synchronously.
func (c *Canvas) RedrawNow() render.Outcome {
	store, _, _ := c.current()
	if store == nil {
		return render.OutcomeCleared
	}
	frame := render.FrameOf(store.Snapshot(), c.rescale.Scaling())
	out := c.renderer.Redraw(frame)
	log.Debugf("redraw: %s", out)
	if fn := c.params.OnFrame; fn != nil {
		fn(out)
	}
	return out
}

// Store returns the store bound to the current storage key.
func (c *Canvas) Store() *annotation.Store {
	store, _, _ := c.current()
	return store
}

// StorageKey returns the current storage key.
func (c *Canvas) StorageKey() string {
	return c.Store().Key()
}

// SetStorageKey rebinds the canvas to another collection. The draft and
// any drag on the old collection are dropped without being persisted.
func (c *Canvas) SetStorageKey(key string) {
	c.keyMu.Lock()
	defer c.keyMu.Unlock()

	oldStore, oldCtrl, ok := c.current()
	if !ok || oldStore.Key() == key {
		return
	}
	oldCtrl.Abandon()

	store, ctrl, unsub := c.bind(key)

	c.mu.Lock()
	oldUnsub := c.unsubStore
	c.store, c.ctrl, c.unsubStore = store, ctrl, unsub
	c.mu.Unlock()

	oldUnsub()
	oldStore.Close()

	log.WithFields(logrus.Fields{"from": oldStore.Key(), "to": key}).Info("storage key changed")

	c.mapper.Invalidate()
	c.scheduleRedraw()
}

// Tool returns the active tool.
func (c *Canvas) Tool() interact.Tool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tool
}

// SetTool changes the active tool, abandoning any gesture in progress.
func (c *Canvas) SetTool(t interact.Tool) {
	c.mu.Lock()
	c.tool = t
	c.mu.Unlock()

	_, ctrl, ok := c.current()
	if !ok {
		return
	}
	ctrl.SetTool(t)
}

// ApplyStyle propagates the host's stroke props. The selected shape, the
// draft and the global style are each only touched when they differ. An
// empty color or non-positive width keeps the current global value.
func (c *Canvas) ApplyStyle(color string, width float64) {
	store, _, ok := c.current()
	if !ok {
		return
	}
	global := store.GlobalStyle()
	if color == "" {
		color = global.StrokeColor
	}
	if width <= 0 {
		width = global.StrokeWidth
	}
	patch := annotation.Patch(color, width)

	store.UpdateSelectedStyle(patch)
	store.UpdateDraftStyle(patch)
	store.SetGlobalStyle(patch)

	c.mu.Lock()
	c.style = patch.Apply(c.style)
	c.mu.Unlock()
}

// SetVisible shows or hides every annotation.
func (c *Canvas) SetVisible(visible bool) {
	c.mu.Lock()
	c.visible = visible
	c.mu.Unlock()

	if store, _, ok := c.current(); ok {
		store.SetVisibility(visible)
	}
}

// Resize follows the host container. Cached pixels are dropped and the
// buffers reallocated.
func (c *Canvas) Resize(w, h int) {
	c.mu.Lock()
	if c.unmounted || (c.width == w && c.height == h) {
		c.mu.Unlock()
		return
	}
	c.width, c.height = w, h
	c.mu.Unlock()

	c.mapper.Invalidate()
	c.renderer.Resize(w, h)
	c.scheduleRedraw()
}

// Size returns the overlay size in pixels.
func (c *Canvas) Size() (w, h int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.width, c.height
}

// Surface returns a copy of the last published frame.
func (c *Canvas) Surface() *image.RGBA {
	return c.renderer.Surface()
}

// Scaling reports whether the host chart is inside a rescale window.
func (c *Canvas) Scaling() bool {
	return c.rescale.Scaling()
}

// Cursor returns the cursor the overlay should show.
func (c *Canvas) Cursor() interact.Cursor {
	_, ctrl, ok := c.current()
	if !ok {
		return interact.CursorDefault
	}
	return ctrl.Cursor()
}

// Dragging reports whether a move or handle drag is in progress.
func (c *Canvas) Dragging() bool {
	_, ctrl, ok := c.current()
	return ok && ctrl.Dragging()
}

func (c *Canvas) PointerDown(ev interact.PointerEvent) interact.Result {
	_, ctrl, ok := c.current()
	if !ok {
		return interact.Result{}
	}
	return ctrl.PointerDown(ev)
}

func (c *Canvas) PointerMove(ev interact.PointerEvent) interact.Result {
	_, ctrl, ok := c.current()
	if !ok {
		return interact.Result{}
	}
	return ctrl.PointerMove(ev)
}

func (c *Canvas) PointerUp(ev interact.PointerEvent) interact.Result {
	_, ctrl, ok := c.current()
	if !ok {
		return interact.Result{}
	}
	return ctrl.PointerUp(ev)
}

func (c *Canvas) PointerLeave() {
	if _, ctrl, ok := c.current(); ok {
		ctrl.PointerLeave()
	}
}

// Secondary handles a right click or ctrl click.
func (c *Canvas) Secondary(ev interact.PointerEvent) interact.Result {
	_, ctrl, ok := c.current()
	if !ok {
		return interact.Result{}
	}
	return ctrl.Secondary(ev)
}

// Unmount detaches the canvas from the chart. Pending timers are stopped
// and an unfinished draft or drag is dropped. The backend is left open.
func (c *Canvas) Unmount() {
	c.keyMu.Lock()
	defer c.keyMu.Unlock()

	c.mu.Lock()
	if c.unmounted {
		c.mu.Unlock()
		return
	}
	c.unmounted = true
	store, ctrl := c.store, c.ctrl
	unsubStore, unsubRange := c.unsubStore, c.unsubRange
	c.mu.Unlock()

	if unsubRange != nil {
		unsubRange()
	}
	c.rescale.Stop()
	c.scheduler.Stop()
	ctrl.Abandon()
	unsubStore()
	store.Close()

	log.WithField("key", store.Key()).Info("unmounted drawing canvas")
}
