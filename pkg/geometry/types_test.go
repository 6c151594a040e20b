package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRectFromPointsIsOrderIndependent(t *testing.T) {
	r1 := RectFromPoints(NewPoint2D(50, 50), NewPoint2D(10, 10))
	r2 := RectFromPoints(NewPoint2D(10, 10), NewPoint2D(50, 50))
	assert.Equal(t, r1, r2)
	assert.Equal(t, Rect{X: 10, Y: 10, Width: 40, Height: 40}, r1)
	assert.True(t, r1.Contains(NewPoint2D(30, 30)))
	assert.False(t, r1.Contains(NewPoint2D(5, 5)))
}

func TestDistanceToLine(t *testing.T) {
	a, b := NewPoint2D(0, 0), NewPoint2D(100, 0)
	assert.InDelta(t, 3, DistanceToLine(NewPoint2D(50, 3), a, b), 1e-9)
	assert.InDelta(t, 20, DistanceToLine(NewPoint2D(50, -20), a, b), 1e-9)

	// degenerate segment measures point distance
	assert.InDelta(t, 5, DistanceToLine(NewPoint2D(3, 4), a, a), 1e-9)
}

func TestExpand(t *testing.T) {
	r := Rect{X: 10, Y: 10}.Expand(6)
	assert.Equal(t, Rect{X: 4, Y: 4, Width: 12, Height: 12}, r)
	assert.Equal(t, NewPoint2D(4, 4), r.TopLeft())
	assert.Equal(t, NewPoint2D(16, 16), r.BottomRight())
}

func TestIsFinite(t *testing.T) {
	assert.True(t, NewPoint2D(1, 2).IsFinite())
	assert.False(t, NewPoint2D(math.NaN(), 2).IsFinite())
	assert.False(t, NewPoint2D(1, math.Inf(1)).IsFinite())
}
