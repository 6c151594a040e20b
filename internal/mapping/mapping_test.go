package mapping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chart-annotator/internal/annotation"
	"chart-annotator/internal/chart"
	"chart-annotator/pkg/geometry"
)

// newIdentity returns a 100x100 scale where x == logical and y == 100 - price.
func newIdentity() *chart.Linear {
	return chart.NewLinear(100, 100, chart.Range{From: 0, To: 100}, chart.Range{From: 0, To: 100})
}

func newMapper(lin *chart.Linear, scaling *bool) *Mapper {
	return NewMapper(lin, lin,
		func() (float64, float64) { return 100, 100 },
		func() bool { return scaling != nil && *scaling })
}

// px returns the data point that maps to pixel (x, y) on the identity scale.
func px(x, y float64) annotation.DataPoint {
	return annotation.DataPoint{LogicalIndex: x, Price: 100 - y}
}

var style = annotation.DefaultStyle

func TestToPixel(t *testing.T) {
	m := newMapper(newIdentity(), nil)

	p, ok := m.ToPixel(px(30, 40))
	require.True(t, ok)
	assert.Equal(t, geometry.Point2D{X: 30, Y: 40}, p)

	d, ok := m.ToData(30, 40)
	require.True(t, ok)
	assert.Equal(t, px(30, 40), d)
}

func TestToPixel_OffscreenClamp(t *testing.T) {
	lin := newIdentity()
	lin.SetLogicalRange(chart.Range{From: 10, To: 90})
	lin.SetUnsettled(true)
	m := newMapper(lin, nil)

	p, ok := m.ToPixel(annotation.DataPoint{LogicalIndex: 5, Price: 50})
	require.True(t, ok)
	assert.Equal(t, 0.0, p.X)

	p, ok = m.ToPixel(annotation.DataPoint{LogicalIndex: 95, Price: 50})
	require.True(t, ok)
	assert.Equal(t, 100.0, p.X)

	// inside the visible range without a direct mapping
	_, ok = m.ToPixel(annotation.DataPoint{LogicalIndex: 50, Price: 50})
	assert.False(t, ok)

	// no visible range and no direct mapping
	lin.SetNoRange(true)
	_, ok = m.ToPixel(annotation.DataPoint{LogicalIndex: 5, Price: 50})
	assert.False(t, ok)
}

func TestToPixelCached_ReusesYWhileScaling(t *testing.T) {
	lin := newIdentity()
	scaling := false
	m := newMapper(lin, &scaling)

	p, ok := m.ToPixelCached("s", annotation.HandleA, px(10, 20))
	require.True(t, ok)
	assert.Equal(t, 1, m.Cache().Len())

	lin.SetPriceUnavailable(true)
	_, ok = m.ToPixelCached("s", annotation.HandleA, px(10, 20))
	assert.False(t, ok, "cached y is only used inside a rescale window")

	scaling = true
	got, ok := m.ToPixelCached("s", annotation.HandleA, px(10, 20))
	require.True(t, ok)
	assert.Equal(t, p, got)

	_, ok = m.ToPixelCached("s", annotation.HandleB, px(10, 20))
	assert.False(t, ok)

	m.Invalidate()
	_, ok = m.ToPixelCached("s", annotation.HandleA, px(10, 20))
	assert.False(t, ok)
}

func TestHitTestShapeAt_Rect(t *testing.T) {
	m := newMapper(newIdentity(), nil)
	rect := annotation.NewRect("r", style, px(50, 50), px(10, 10))
	shapes := []annotation.Shape{rect}

	id, ok := m.HitTestShapeAt(30, 30, shapes)
	assert.True(t, ok)
	assert.Equal(t, "r", id)

	_, ok = m.HitTestShapeAt(5, 5, shapes)
	assert.False(t, ok)
}

func TestHitTestShapeAt_Line(t *testing.T) {
	m := newMapper(newIdentity(), nil)
	line := annotation.NewLine("l", style, px(0, 50), px(100, 50))
	shapes := []annotation.Shape{line}

	_, ok := m.HitTestShapeAt(50, 53, shapes)
	assert.True(t, ok)

	_, ok = m.HitTestShapeAt(50, 70, shapes)
	assert.False(t, ok)

	// on the extension of the segment but outside the padded box
	_, ok = m.HitTestShapeAt(-20, 50, shapes)
	assert.False(t, ok)
}

func TestHitTestShapeAt_Circle(t *testing.T) {
	m := newMapper(newIdentity(), nil)
	circle := annotation.NewCircle("c", style, px(50, 50), px(70, 50))
	shapes := []annotation.Shape{circle}

	for _, tc := range []struct {
		name string
		x, y float64
		hit  bool
	}{
		{"center", 50, 50, true},
		{"rim", 50, 30, true},
		{"just outside rim", 50, 23, true},
		{"far outside", 50, 10, false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, ok := m.HitTestShapeAt(tc.x, tc.y, shapes)
			assert.Equal(t, tc.hit, ok)
		})
	}
}

func TestHitTestShapeAt_TopmostFirst(t *testing.T) {
	m := newMapper(newIdentity(), nil)
	shapes := []annotation.Shape{
		annotation.NewRect("bottom", style, px(0, 0), px(80, 80)),
		annotation.NewRect("top", style, px(20, 20), px(60, 60)),
	}

	id, ok := m.HitTestShapeAt(40, 40, shapes)
	require.True(t, ok)
	assert.Equal(t, "top", id)

	id, ok = m.HitTestShapeAt(10, 10, shapes)
	require.True(t, ok)
	assert.Equal(t, "bottom", id)
}

func TestHitTestShapeAt_SkipsUnmappable(t *testing.T) {
	lin := newIdentity()
	m := newMapper(lin, nil)
	shapes := []annotation.Shape{annotation.NewRect("r", style, px(10, 10), px(50, 50))}

	lin.SetPriceUnavailable(true)
	_, ok := m.HitTestShapeAt(30, 30, shapes)
	assert.False(t, ok)
}

func TestHitTestHandleAt(t *testing.T) {
	m := newMapper(newIdentity(), nil)
	circle := annotation.NewCircle("c", style, px(50, 50), px(70, 50))

	hit, ok := m.HitTestHandleAt(76, 52, &circle)
	require.True(t, ok)
	assert.Equal(t, HandleHit{ID: "c", Handle: annotation.HandleEdge}, hit)

	hit, ok = m.HitTestHandleAt(50, 58, &circle)
	require.True(t, ok)
	assert.Equal(t, annotation.HandleCenter, hit.Handle)

	_, ok = m.HitTestHandleAt(60, 60, &circle)
	assert.False(t, ok)

	_, ok = m.HitTestHandleAt(50, 50, nil)
	assert.False(t, ok)
}

func TestCanLayout(t *testing.T) {
	lin := newIdentity()
	m := newMapper(lin, nil)
	shapes := []annotation.Shape{annotation.NewLine("l", style, px(10, 10), px(20, 20))}
	draft := annotation.NewRect("d", style, px(30, 30), px(40, 40))

	assert.True(t, m.CanLayout(shapes, &draft))

	lin.SetLogicalRange(chart.Range{From: 0, To: 100})
	lin.SetUnsettled(true)
	assert.False(t, m.CanLayout(shapes, nil))
	assert.True(t, m.CanLayout(nil, nil))
}

func TestResizeDiagonal(t *testing.T) {
	m := newMapper(newIdentity(), nil)

	assert.Equal(t, DiagonalNWSE, m.ResizeDiagonal(annotation.NewRect("r", style, px(10, 10), px(50, 50))))
	assert.Equal(t, DiagonalNESW, m.ResizeDiagonal(annotation.NewRect("r", style, px(50, 10), px(10, 50))))
	assert.Equal(t, DiagonalNWSE, m.ResizeDiagonal(annotation.NewLine("l", style, px(50, 10), px(10, 50))))
}
