package render

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chart-annotator/internal/annotation"
	"chart-annotator/internal/chart"
	"chart-annotator/internal/mapping"
)

var cyan = color.RGBA{R: 0x22, G: 0xd3, B: 0xee, A: 0xff}

type fixture struct {
	lin      *chart.Linear
	mapper   *mapping.Mapper
	renderer *Renderer
}

// newFixture maps logical to x and price to 100 - y on a 100x100 surface.
func newFixture() *fixture {
	lin := chart.NewLinear(100, 100, chart.Range{From: 0, To: 100}, chart.Range{From: 0, To: 100})
	m := mapping.NewMapper(lin, lin, func() (float64, float64) { return 100, 100 }, nil)
	return &fixture{lin: lin, mapper: m, renderer: NewRenderer(m, 100, 100)}
}

func px(x, y float64) annotation.DataPoint {
	return annotation.DataPoint{LogicalIndex: x, Price: 100 - y}
}

func line(id string) annotation.Shape {
	return annotation.NewLine(id, annotation.DefaultStyle, px(10, 50), px(90, 50))
}

func transparent(t *testing.T, c color.RGBA) {
	t.Helper()
	assert.Equal(t, color.RGBA{}, c)
}

func TestRedraw_PaintsShapes(t *testing.T) {
	f := newFixture()
	rect := annotation.NewRect("r", annotation.Style{StrokeColor: "#ef4444", StrokeWidth: 2}, px(50, 50), px(10, 10))
	circle := annotation.NewCircle("c", annotation.Style{StrokeColor: "not-a-color", StrokeWidth: 2}, px(50, 50), px(70, 50))

	out := f.renderer.Redraw(Frame{Shapes: []annotation.Shape{line("l"), rect, circle}, Visible: true})
	assert.Equal(t, OutcomePainted, out)

	img := f.renderer.Surface()
	assert.Equal(t, cyan, img.RGBAAt(80, 50), "line")
	assert.Equal(t, color.RGBA{R: 0xef, G: 0x44, B: 0x44, A: 0xff}, img.RGBAAt(30, 10), "rect top edge")
	assert.Equal(t, cyan, img.RGBAAt(50, 69), "circle rim falls back to the default stroke")
	transparent(t, img.RGBAAt(30, 30))
	transparent(t, img.RGBAAt(5, 5))
}

func TestRedraw_Hidden(t *testing.T) {
	f := newFixture()
	f.renderer.Redraw(Frame{Shapes: []annotation.Shape{line("l")}, Visible: true})

	out := f.renderer.Redraw(Frame{Shapes: []annotation.Shape{line("l")}, Visible: false})
	assert.Equal(t, OutcomeCleared, out)
	transparent(t, f.renderer.Surface().RGBAAt(30, 50))
}

func TestRedraw_HoverHalo(t *testing.T) {
	f := newFixture()
	l := line("l")

	f.renderer.Redraw(Frame{Shapes: []annotation.Shape{l}, Hovered: "l", Visible: true})
	halo := f.renderer.Surface().RGBAAt(30, 47)
	assert.InDelta(t, 89, int(halo.A), 1)
	assert.Equal(t, halo.R, halo.A, "halo is white")
	assert.Equal(t, cyan, f.renderer.Surface().RGBAAt(30, 50), "stroke is painted over the halo")

	// no halo on the selected shape
	f.renderer.Redraw(Frame{Shapes: []annotation.Shape{l}, Hovered: "l", Selected: "l", Visible: true})
	transparent(t, f.renderer.Surface().RGBAAt(30, 47))
}

func TestRedraw_SelectionHandles(t *testing.T) {
	f := newFixture()
	l := line("l")

	f.renderer.Redraw(Frame{Shapes: []annotation.Shape{l}, Visible: true})
	transparent(t, f.renderer.Surface().RGBAAt(10, 54))

	f.renderer.Redraw(Frame{Shapes: []annotation.Shape{l}, Selected: "l", Visible: true})
	img := f.renderer.Surface()
	assert.Equal(t, cyan, img.RGBAAt(10, 54))
	assert.Equal(t, cyan, img.RGBAAt(89, 45))
}

func TestRedraw_Draft(t *testing.T) {
	f := newFixture()
	draft := annotation.NewRect("d", annotation.DefaultStyle, px(20, 20), px(40, 40))

	f.renderer.Redraw(Frame{Draft: &draft, Visible: true})
	assert.Equal(t, cyan, f.renderer.Surface().RGBAAt(30, 20))
}

func TestRedraw_ReusesFrameWhileScaling(t *testing.T) {
	f := newFixture()
	shapes := []annotation.Shape{line("l")}
	f.renderer.Redraw(Frame{Shapes: shapes, Visible: true})
	before := f.renderer.Surface()

	f.lin.SetUnsettled(true)
	f.mapper.Invalidate()

	out := f.renderer.Redraw(Frame{Shapes: shapes, Visible: true, Scaling: true})
	assert.Equal(t, OutcomeReused, out)
	assert.Equal(t, before.Pix, f.renderer.Surface().Pix)

	// outside a rescale window unmappable shapes are skipped
	out = f.renderer.Redraw(Frame{Shapes: shapes, Visible: true})
	assert.Equal(t, OutcomePainted, out)
	transparent(t, f.renderer.Surface().RGBAAt(30, 50))
}

func TestRedraw_CachedYWhileScaling(t *testing.T) {
	lin := chart.NewLinear(100, 100, chart.Range{From: 0, To: 100}, chart.Range{From: 0, To: 100})
	scaling := false
	m := mapping.NewMapper(lin, lin, func() (float64, float64) { return 100, 100 }, func() bool { return scaling })
	r := NewRenderer(m, 100, 100)
	shapes := []annotation.Shape{line("l")}

	r.Redraw(Frame{Shapes: shapes, Visible: true})

	lin.SetPriceUnavailable(true)
	scaling = true
	out := r.Redraw(Frame{Shapes: shapes, Visible: true, Scaling: true})
	assert.Equal(t, OutcomePainted, out)
	assert.Equal(t, cyan, r.Surface().RGBAAt(30, 50))
}

func TestRenderer_Resize(t *testing.T) {
	f := newFixture()
	f.renderer.Redraw(Frame{Shapes: []annotation.Shape{line("l")}, Visible: true})

	f.renderer.Resize(200, 80)
	w, h := f.renderer.Size()
	assert.Equal(t, 200, w)
	assert.Equal(t, 80, h)
	img := f.renderer.Surface()
	assert.Equal(t, cyan, img.RGBAAt(30, 50), "previous frame is kept")
	transparent(t, img.RGBAAt(150, 50))
}

func TestRenderer_ResizeKeepsFrameForReuse(t *testing.T) {
	f := newFixture()
	shapes := []annotation.Shape{line("l")}
	f.renderer.Redraw(Frame{Shapes: shapes, Visible: true})

	f.renderer.Resize(60, 120)
	f.lin.SetUnsettled(true)
	f.mapper.Invalidate()

	out := f.renderer.Redraw(Frame{Shapes: shapes, Visible: true, Scaling: true})
	assert.Equal(t, OutcomeReused, out)
	img := f.renderer.Surface()
	assert.Equal(t, cyan, img.RGBAAt(30, 50))
	transparent(t, img.RGBAAt(30, 110))
}

func TestRenderer_SurfaceIsCopy(t *testing.T) {
	f := newFixture()
	f.renderer.Redraw(Frame{Shapes: []annotation.Shape{line("l")}, Visible: true})

	img := f.renderer.Surface()
	img.SetRGBA(30, 50, color.RGBA{})
	assert.Equal(t, cyan, f.renderer.Surface().RGBAAt(30, 50))
}

func TestRedraw_FarOffscreenLine(t *testing.T) {
	f := newFixture()
	far := annotation.NewLine("far", annotation.DefaultStyle, px(-1e7, 50), px(1e7, 50))

	require.NotPanics(t, func() {
		f.renderer.Redraw(Frame{Shapes: []annotation.Shape{far}, Visible: true})
	})
	assert.Equal(t, cyan, f.renderer.Surface().RGBAAt(50, 50))
}

func TestFrameOf(t *testing.T) {
	snap := annotation.Snapshot{Selected: "a", Hovered: "b", Visible: true}
	f := FrameOf(snap, true)
	assert.Equal(t, "a", f.Selected)
	assert.Equal(t, "b", f.Hovered)
	assert.True(t, f.Visible)
	assert.True(t, f.Scaling)
}
