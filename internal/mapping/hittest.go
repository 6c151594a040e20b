package mapping

import (
	"math"

	"chart-annotator/internal/annotation"
	"chart-annotator/pkg/geometry"
)

// HandlePx is a shape endpoint in pixel space.
type HandlePx struct {
	Handle annotation.Handle
	Point  geometry.Point2D
}

// HandleHit identifies a grabbed endpoint.
type HandleHit struct {
	ID     string
	Handle annotation.Handle
}

// HandlesPx returns the mapped endpoints of s, or nil if either endpoint
// cannot be placed.
func (m *Mapper) HandlesPx(s annotation.Shape) []HandlePx {
	p1, p2, ok := m.Endpoints(s, false)
	if !ok {
		return nil
	}
	h := s.Handles()
	return []HandlePx{{Handle: h[0], Point: p1}, {Handle: h[1], Point: p2}}
}

// HitTestShapeAt returns the id of the topmost shape under (x, y). Shapes
// are scanned last to first.
func (m *Mapper) HitTestShapeAt(x, y float64, shapes []annotation.Shape) (string, bool) {
	p := geometry.Point2D{X: x, Y: y}
	for i := len(shapes) - 1; i >= 0; i-- {
		s := shapes[i]
		a, b, ok := m.Endpoints(s, false)
		if !ok {
			continue
		}
		if hitShape(s.Kind, p, a, b) {
			return s.ID, true
		}
	}
	return "", false
}

func hitShape(kind annotation.Kind, p, a, b geometry.Point2D) bool {
	switch kind {
	case annotation.KindLine:
		box := geometry.RectFromPoints(a, b).Expand(LineHitTolerance)
		return box.Contains(p) && geometry.DistanceToLine(p, a, b) < LineHitTolerance
	case annotation.KindRect:
		return geometry.RectFromPoints(a, b).Contains(p)
	case annotation.KindCircle:
		r := a.Distance(b)
		d := p.Distance(a)
		return math.Abs(d-r) < CircleRimTolerance || d < r
	}
	return false
}

// HitTestHandleAt tests the endpoints of the selected shape as round
// targets of HandleHitRadius.
func (m *Mapper) HitTestHandleAt(x, y float64, selected *annotation.Shape) (HandleHit, bool) {
	if selected == nil {
		return HandleHit{}, false
	}
	p := geometry.Point2D{X: x, Y: y}
	for _, h := range m.HandlesPx(*selected) {
		if h.Point.Distance(p) <= HandleHitRadius {
			return HandleHit{ID: selected.ID, Handle: h.Handle}, true
		}
	}
	return HandleHit{}, false
}

// Diagonal is the orientation of a rectangle corner handle.
type Diagonal int

const (
	// DiagonalNWSE runs from top-left to bottom-right.
	DiagonalNWSE Diagonal = iota
	// DiagonalNESW runs from top-right to bottom-left.
	DiagonalNESW
)

// ResizeDiagonal returns the diagonal along which the a and b corners of a
// rectangle lie in pixel space. Degenerate rectangles report NESW;
// non-rectangles and unmappable shapes report NWSE.
func (m *Mapper) ResizeDiagonal(s annotation.Shape) Diagonal {
	if s.Kind != annotation.KindRect {
		return DiagonalNWSE
	}
	a, b, ok := m.Endpoints(s, false)
	if !ok {
		return DiagonalNWSE
	}
	if (b.X-a.X)*(b.Y-a.Y) > 0 {
		return DiagonalNWSE
	}
	return DiagonalNESW
}
