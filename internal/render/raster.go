package render

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"

	"chart-annotator/pkg/geometry"
)

// stroker accumulates pixel coverage for one shape in an alpha mask and
// composites it onto the target in a single pass, so overlapping brush
// stamps never darken translucent strokes.
type stroker struct {
	mask  *image.Alpha
	dirty image.Rectangle
}

func newStroker(bounds image.Rectangle) *stroker {
	return &stroker{mask: image.NewAlpha(bounds)}
}

func (s *stroker) plot(x, y int) {
	p := image.Point{X: x, Y: y}
	if !p.In(s.mask.Rect) {
		return
	}
	s.mask.SetAlpha(x, y, color.Alpha{A: 0xff})
	s.dirty = s.dirty.Union(image.Rectangle{Min: p, Max: p.Add(image.Point{X: 1, Y: 1})})
}

// disc stamps a filled circle of radius r centered on (cx, cy).
func (s *stroker) disc(cx, cy, r float64) {
	if r < 0.5 {
		s.plot(int(math.Round(cx)), int(math.Round(cy)))
		return
	}
	r2 := r * r
	minY, maxY := int(math.Floor(cy-r)), int(math.Ceil(cy+r))
	minX, maxX := int(math.Floor(cx-r)), int(math.Ceil(cx+r))
	for y := minY; y <= maxY; y++ {
		dy := float64(y) + 0.5 - cy
		for x := minX; x <= maxX; x++ {
			dx := float64(x) + 0.5 - cx
			if dx*dx+dy*dy <= r2 {
				s.plot(x, y)
			}
		}
	}
}

// line strokes a segment with a round brush of the given width using
// Bresenham stepping between the rounded endpoints.
func (s *stroker) line(a, b geometry.Point2D, width float64) {
	if !a.IsFinite() || !b.IsFinite() {
		return
	}
	r := width / 2
	x1, y1 := int(math.Round(a.X)), int(math.Round(a.Y))
	x2, y2 := int(math.Round(b.X)), int(math.Round(b.Y))

	// clip absurd coordinates to a margin around the mask
	bounds := s.mask.Rect.Inset(-int(r) - 2)
	if !clipSegment(&x1, &y1, &x2, &y2, bounds) {
		return
	}

	dx, dy := abs(x2-x1), abs(y2-y1)
	sx, sy := 1, 1
	if x1 > x2 {
		sx = -1
	}
	if y1 > y2 {
		sy = -1
	}
	err := dx - dy

	for {
		s.disc(float64(x1), float64(y1), r)
		if x1 == x2 && y1 == y2 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x1 += sx
		}
		if e2 < dx {
			err += dx
			y1 += sy
		}
	}
}

// rect strokes the outline of r.
func (s *stroker) rect(r geometry.Rect, width float64) {
	tl := r.TopLeft()
	br := r.BottomRight()
	tr := geometry.Point2D{X: br.X, Y: tl.Y}
	bl := geometry.Point2D{X: tl.X, Y: br.Y}
	s.line(tl, tr, width)
	s.line(tr, br, width)
	s.line(br, bl, width)
	s.line(bl, tl, width)
}

// ring strokes a circle outline of radius r.
func (s *stroker) ring(c geometry.Point2D, r, width float64) {
	if !c.IsFinite() || math.IsNaN(r) || math.IsInf(r, 0) {
		return
	}
	half := math.Max(width/2, 0.5)
	outer := r + half
	inner := math.Max(r-half, 0)
	outer2, inner2 := outer*outer, inner*inner

	box := image.Rect(
		int(math.Floor(c.X-outer)), int(math.Floor(c.Y-outer)),
		int(math.Ceil(c.X+outer))+1, int(math.Ceil(c.Y+outer))+1,
	).Intersect(s.mask.Rect)

	for y := box.Min.Y; y < box.Max.Y; y++ {
		dy := float64(y) + 0.5 - c.Y
		for x := box.Min.X; x < box.Max.X; x++ {
			dx := float64(x) + 0.5 - c.X
			d2 := dx*dx + dy*dy
			if d2 <= outer2 && d2 >= inner2 {
				s.plot(x, y)
			}
		}
	}
}

// flush composites the accumulated coverage onto dst in col and resets the
// mask.
func (s *stroker) flush(dst *image.RGBA, col color.Color) {
	if s.dirty.Empty() {
		return
	}
	r := s.dirty.Intersect(dst.Bounds())
	draw.DrawMask(dst, r, image.NewUniform(col), image.Point{}, s.mask, r.Min, draw.Over)
	draw.Draw(s.mask, s.dirty, image.Transparent, image.Point{}, draw.Src)
	s.dirty = image.Rectangle{}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// clipSegment clips the segment to bounds (Liang-Barsky). It reports false
// when the segment lies entirely outside.
func clipSegment(x1, y1, x2, y2 *int, bounds image.Rectangle) bool {
	fx1, fy1 := float64(*x1), float64(*y1)
	dx, dy := float64(*x2)-fx1, float64(*y2)-fy1
	t0, t1 := 0.0, 1.0

	edges := [4][2]float64{
		{-dx, fx1 - float64(bounds.Min.X)},
		{dx, float64(bounds.Max.X) - fx1},
		{-dy, fy1 - float64(bounds.Min.Y)},
		{dy, float64(bounds.Max.Y) - fy1},
	}
	for _, e := range edges {
		p, q := e[0], e[1]
		if p == 0 {
			if q < 0 {
				return false
			}
			continue
		}
		t := q / p
		if p < 0 {
			if t > t1 {
				return false
			}
			t0 = math.Max(t0, t)
		} else {
			if t < t0 {
				return false
			}
			t1 = math.Min(t1, t)
		}
	}
	*x1, *y1 = int(math.Round(fx1+t0*dx)), int(math.Round(fy1+t0*dy))
	*x2, *y2 = int(math.Round(fx1+t1*dx)), int(math.Round(fy1+t1*dy))
	return true
}
