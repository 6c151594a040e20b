package drawing

import (
	"context"
	"image/color"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chart-annotator/internal/annotation"
	"chart-annotator/internal/chart"
	"chart-annotator/internal/interact"
	"chart-annotator/internal/persist"
	"chart-annotator/internal/render"
)

var cyan = color.RGBA{R: 0x22, G: 0xd3, B: 0xee, A: 0xff}

type fixture struct {
	lin      *chart.Linear
	backend  *persist.Memory
	clock    *clock.Mock
	canvas   *Canvas
	finished int32
	tools    []interact.Tool
	frames   int32
}

// mount uses a 100x100 identity scale: x == logical, y == 100 - price.
func mount(t *testing.T, key string, tool interact.Tool, opts ...func(*Params)) *fixture {
	t.Helper()
	f := &fixture{
		lin:     chart.NewLinear(100, 100, chart.Range{From: 0, To: 100}, chart.Range{From: 0, To: 100}),
		backend: persist.NewMemory(),
		clock:   clock.NewMock(),
	}
	p := Params{
		Scale:        f.lin,
		Series:       f.lin,
		StorageKey:   key,
		Tool:         tool,
		Backend:      f.backend,
		Width:        100,
		Height:       100,
		Scheduler:    &render.ImmediateScheduler{},
		Clock:        f.clock,
		OnFinishDraw: func() { atomic.AddInt32(&f.finished, 1) },
		OnSetTool:    func(t interact.Tool) { f.tools = append(f.tools, t) },
		OnFrame:      func(render.Outcome) { atomic.AddInt32(&f.frames, 1) },
	}
	for _, opt := range opts {
		opt(&p)
	}
	f.canvas = Mount(p)
	t.Cleanup(f.canvas.Unmount)
	return f
}

func px(x, y float64) annotation.DataPoint {
	return annotation.DataPoint{LogicalIndex: x, Price: 100 - y}
}

func at(x, y float64) interact.PointerEvent {
	return interact.PointerEvent{ID: 1, X: x, Y: y}
}

func (f *fixture) drag(from, to [2]float64) {
	f.canvas.PointerDown(at(from[0], from[1]))
	f.canvas.PointerMove(at(to[0], to[1]))
	f.canvas.PointerUp(at(to[0], to[1]))
}

func (f *fixture) persisted(t *testing.T, key string) []annotation.Shape {
	t.Helper()
	data, err := f.backend.Get(context.Background(), persist.Namespace(key))
	require.NoError(t, err)
	shapes, _ := annotation.Decode(data)
	return shapes
}

func TestMount_DrawLine(t *testing.T) {
	f := mount(t, "BTCUSD:1h", interact.ToolLine)

	f.drag([2]float64{10, 50}, [2]float64{90, 50})

	shapes := f.canvas.Store().Shapes()
	require.Len(t, shapes, 1)
	assert.Equal(t, annotation.KindLine, shapes[0].Kind)
	assert.Equal(t, px(10, 50), shapes[0].P1)
	assert.Equal(t, px(90, 50), shapes[0].P2)
	assert.EqualValues(t, 1, atomic.LoadInt32(&f.finished))
	assert.Equal(t, shapes, f.persisted(t, "BTCUSD:1h"))

	assert.Equal(t, cyan, f.canvas.Surface().RGBAAt(80, 50))
	assert.Positive(t, atomic.LoadInt32(&f.frames))
}

func TestMount_InitialProps(t *testing.T) {
	hidden := false
	f := mount(t, "k", interact.ToolRect, func(p *Params) {
		p.StrokeColor = "#ef4444"
		p.StrokeWidth = 3
		p.Visible = &hidden
	})

	store := f.canvas.Store()
	assert.Equal(t, annotation.Style{StrokeColor: "#ef4444", StrokeWidth: 3}, store.GlobalStyle())
	assert.False(t, store.Visible())
	assert.Equal(t, interact.ToolRect, f.canvas.Tool())
	assert.Equal(t, interact.CursorCrosshair, f.canvas.Cursor())
	assert.Equal(t, render.OutcomeCleared, f.canvas.RedrawNow())
}

func TestMount_SetStorageKey(t *testing.T) {
	f := mount(t, "AAPL:1d", interact.ToolLine)
	f.drag([2]float64{10, 10}, [2]float64{20, 20})
	require.Equal(t, 1, f.canvas.Store().Len())

	// leave a draft in progress on the old key
	f.canvas.PointerDown(at(30, 30))
	f.canvas.PointerMove(at(40, 40))

	f.canvas.SetStorageKey("MSFT:1d")
	assert.Equal(t, "MSFT:1d", f.canvas.StorageKey())
	assert.Zero(t, f.canvas.Store().Len())
	_, hasDraft := f.canvas.Store().Draft()
	assert.False(t, hasDraft)

	// releasing the old gesture on the new key commits nothing
	f.canvas.PointerUp(at(40, 40))
	assert.Zero(t, f.canvas.Store().Len())
	assert.Len(t, f.persisted(t, "AAPL:1d"), 1)

	f.canvas.SetStorageKey("AAPL:1d")
	assert.Equal(t, 1, f.canvas.Store().Len())
	assert.Equal(t, interact.ToolLine, f.canvas.Tool())
}

func TestMount_SetStorageKeySame(t *testing.T) {
	f := mount(t, "k", interact.ToolLine)
	store := f.canvas.Store()
	f.canvas.SetStorageKey("k")
	assert.Same(t, store, f.canvas.Store())
}

func TestMount_ApplyStyle(t *testing.T) {
	f := mount(t, "k", interact.ToolRect)
	f.drag([2]float64{10, 10}, [2]float64{50, 50})
	shape := f.canvas.Store().Shapes()[0]

	// without a selection only the global style changes
	f.canvas.ApplyStyle("#a78bfa", 0)
	got, _ := f.canvas.Store().Shape(shape.ID)
	assert.Equal(t, annotation.DefaultStyle, got.Style)
	assert.Equal(t, annotation.Style{StrokeColor: "#a78bfa", StrokeWidth: 2}, f.canvas.Store().GlobalStyle())

	f.canvas.Store().Select(shape.ID)
	f.canvas.ApplyStyle("#ef4444", 5)
	want := annotation.Style{StrokeColor: "#ef4444", StrokeWidth: 5}
	got, _ = f.canvas.Store().Shape(shape.ID)
	assert.Equal(t, want, got.Style)
	assert.Equal(t, want, f.persisted(t, "k")[0].Style)
	assert.Equal(t, want, f.canvas.Store().GlobalStyle())

	// the draft follows as well
	f.canvas.Store().Select("")
	f.canvas.PointerDown(at(60, 60))
	f.canvas.ApplyStyle("#10b981", 0)
	draft, ok := f.canvas.Store().Draft()
	require.True(t, ok)
	assert.Equal(t, annotation.Style{StrokeColor: "#10b981", StrokeWidth: 5}, draft.Style)
}

func TestMount_ApplyStyleUnchanged(t *testing.T) {
	f := mount(t, "k", interact.ToolLine)
	version := f.canvas.Store().Version()
	f.canvas.ApplyStyle(annotation.DefaultStyle.StrokeColor, annotation.DefaultStyle.StrokeWidth)
	assert.Equal(t, version, f.canvas.Store().Version())
}

func TestMount_StyleCarriesAcrossKeys(t *testing.T) {
	f := mount(t, "a", interact.ToolLine)
	f.canvas.ApplyStyle("#f59e0b", 4)
	f.canvas.SetStorageKey("b")
	assert.Equal(t, annotation.Style{StrokeColor: "#f59e0b", StrokeWidth: 4}, f.canvas.Store().GlobalStyle())
}

func TestMount_SetVisible(t *testing.T) {
	f := mount(t, "k", interact.ToolLine)
	f.drag([2]float64{10, 50}, [2]float64{90, 50})

	f.canvas.SetVisible(false)
	assert.Equal(t, color.RGBA{}, f.canvas.Surface().RGBAAt(80, 50))

	f.canvas.SetStorageKey("other")
	assert.False(t, f.canvas.Store().Visible())

	f.canvas.SetStorageKey("k")
	f.canvas.SetVisible(true)
	assert.Equal(t, cyan, f.canvas.Surface().RGBAAt(80, 50))
}

func TestMount_Resize(t *testing.T) {
	f := mount(t, "k", interact.ToolLine)
	f.drag([2]float64{10, 50}, [2]float64{90, 50})

	f.canvas.Resize(200, 120)
	w, h := f.canvas.Size()
	assert.Equal(t, 200, w)
	assert.Equal(t, 120, h)
	assert.Equal(t, 200, f.canvas.Surface().Bounds().Dx())
	assert.Equal(t, 120, f.canvas.Surface().Bounds().Dy())
	assert.Equal(t, cyan, f.canvas.Surface().RGBAAt(80, 50))
}

func TestMount_RescaleWindow(t *testing.T) {
	f := mount(t, "k", interact.ToolLine)
	assert.Equal(t, 1, f.lin.Subscribers())

	before := atomic.LoadInt32(&f.frames)
	f.lin.SetLogicalRange(chart.Range{From: 0, To: 100})
	assert.True(t, f.canvas.Scaling())
	assert.Greater(t, atomic.LoadInt32(&f.frames), before)

	f.clock.Add(render.DefaultRescaleDebounce)
	assert.Eventually(t, func() bool { return !f.canvas.Scaling() }, time.Second, time.Millisecond)
}

func TestMount_ImplicitSelectNotifiesHost(t *testing.T) {
	f := mount(t, "k", interact.ToolRect)
	f.drag([2]float64{10, 10}, [2]float64{50, 50})
	f.canvas.SetTool(interact.ToolNone)

	res := f.canvas.PointerDown(at(30, 10))
	assert.True(t, res.PreventDefault)
	assert.Equal(t, []interact.Tool{interact.ToolSelect}, f.tools)
	assert.Equal(t, interact.ToolSelect, f.canvas.Tool())
	assert.True(t, f.canvas.Dragging())

	f.canvas.PointerUp(at(30, 10))
	assert.False(t, f.canvas.Dragging())
}

func TestMount_SecondaryErase(t *testing.T) {
	f := mount(t, "k", interact.ToolRect)
	f.drag([2]float64{10, 10}, [2]float64{50, 50})
	f.canvas.SetTool(interact.ToolSelect)

	res := f.canvas.Secondary(at(30, 10))
	assert.True(t, res.PreventDefault)
	assert.Zero(t, f.canvas.Store().Len())
	assert.Empty(t, f.persisted(t, "k"))

	res = f.canvas.Secondary(at(30, 10))
	assert.False(t, res.PreventDefault)
}

func TestMount_Unmount(t *testing.T) {
	f := mount(t, "k", interact.ToolLine)
	f.canvas.PointerDown(at(10, 10))

	f.canvas.Unmount()
	assert.Zero(t, f.lin.Subscribers())

	res := f.canvas.PointerMove(at(20, 20))
	assert.False(t, res.Handled)
	assert.Equal(t, interact.CursorDefault, f.canvas.Cursor())

	_, err := f.backend.Get(context.Background(), persist.Namespace("k"))
	assert.ErrorIs(t, err, persist.ErrNotExist)

	f.lin.SetLogicalRange(chart.Range{From: 0, To: 50})
	assert.False(t, f.canvas.Scaling())

	// a second unmount is harmless
	f.canvas.Unmount()
}
