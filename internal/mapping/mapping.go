// Package mapping converts between chart data space and overlay pixels and
// hit-tests shapes and handles in pixel space.
package mapping

import (
	"chart-annotator/internal/annotation"
	"chart-annotator/internal/chart"
	"chart-annotator/pkg/geometry"
)

const (
	// LineHitTolerance is the perpendicular distance and bounding box
	// padding for line hits.
	LineHitTolerance = 6.0
	// CircleRimTolerance is the distance from the rim that still hits.
	CircleRimTolerance = 8.0
	// HandleRadius is the painted radius of selection handles.
	HandleRadius = 6.0
	// HandleHitRadius is the grab radius of selection handles.
	HandleHitRadius = HandleRadius + 2
)

// Mapper maps data points onto the overlay through the host chart.
type Mapper struct {
	scale   chart.TimeScale
	series  chart.PriceSeries
	size    func() (w, h float64)
	scaling func() bool
	cache   *PixelCache
}

// NewMapper creates a mapper. size reports the overlay size in pixels and
// scaling reports whether the chart is inside a rescale window; either may
// be nil.
func NewMapper(scale chart.TimeScale, series chart.PriceSeries, size func() (float64, float64), scaling func() bool) *Mapper {
	if size == nil {
		size = func() (float64, float64) { return 0, 0 }
	}
	if scaling == nil {
		scaling = func() bool { return false }
	}
	return &Mapper{
		scale:   scale,
		series:  series,
		size:    size,
		scaling: scaling,
		cache:   NewPixelCache(),
	}
}

// Cache returns the pixel cache used by ToPixelCached.
func (m *Mapper) Cache() *PixelCache {
	return m.cache
}

// Invalidate clears the pixel cache.
func (m *Mapper) Invalidate() {
	m.cache.Invalidate()
}

func (m *Mapper) LogicalToPixelX(logical float64) (float64, bool) {
	if m.scale == nil {
		return 0, false
	}
	return m.scale.LogicalToCoordinate(logical)
}

func (m *Mapper) PixelXToLogical(x float64) (float64, bool) {
	if m.scale == nil {
		return 0, false
	}
	return m.scale.CoordinateToLogical(x)
}

func (m *Mapper) PriceToPixelY(price float64) (float64, bool) {
	if m.series == nil {
		return 0, false
	}
	return m.series.PriceToCoordinate(price)
}

func (m *Mapper) PixelYToPrice(y float64) (float64, bool) {
	if m.series == nil {
		return 0, false
	}
	return m.series.CoordinateToPrice(y)
}

// pixelX maps the logical index, clamping to the overlay edges when the
// index lies outside the visible range and has no direct mapping.
func (m *Mapper) pixelX(logical float64) (float64, bool) {
	if x, ok := m.LogicalToPixelX(logical); ok {
		return x, true
	}
	vr, ok := chart.VisibleRange(m.scale)
	if !ok {
		return 0, false
	}
	switch {
	case logical < vr.From:
		return 0, true
	case logical > vr.To:
		w, _ := m.size()
		return w, true
	}
	return 0, false
}

// ToPixel maps a data point to overlay pixels. ok is false when the point
// cannot be placed this frame.
func (m *Mapper) ToPixel(p annotation.DataPoint) (geometry.Point2D, bool) {
	if !p.Valid() {
		return geometry.Point2D{}, false
	}
	x, okx := m.pixelX(p.LogicalIndex)
	y, oky := m.PriceToPixelY(p.Price)
	if !okx || !oky {
		return geometry.Point2D{}, false
	}
	return geometry.Point2D{X: x, Y: y}, true
}

// ToPixelCached is ToPixel with a per-endpoint memory. During a rescale
// window a missing y is taken from the last successful mapping.
func (m *Mapper) ToPixelCached(id string, h annotation.Handle, p annotation.DataPoint) (geometry.Point2D, bool) {
	if !p.Valid() {
		return geometry.Point2D{}, false
	}
	x, okx := m.pixelX(p.LogicalIndex)
	y, oky := m.PriceToPixelY(p.Price)
	if !oky && m.scaling() {
		if prev, ok := m.cache.Get(id, h); ok {
			y, oky = prev.Y, true
		}
	}
	if !okx || !oky {
		return geometry.Point2D{}, false
	}
	pt := geometry.Point2D{X: x, Y: y}
	m.cache.Put(id, h, pt)
	return pt, true
}

// ToData maps overlay pixels back to a data point.
func (m *Mapper) ToData(x, y float64) (annotation.DataPoint, bool) {
	l, okl := m.PixelXToLogical(x)
	p, okp := m.PixelYToPrice(y)
	if !okl || !okp {
		return annotation.DataPoint{}, false
	}
	dp := annotation.DataPoint{LogicalIndex: l, Price: p}
	return dp, dp.Valid()
}

// Endpoints maps both endpoints of s. cached selects ToPixelCached.
func (m *Mapper) Endpoints(s annotation.Shape, cached bool) (p1, p2 geometry.Point2D, ok bool) {
	handles := s.Handles()
	if len(handles) != 2 {
		return p1, p2, false
	}
	var ok1, ok2 bool
	if cached {
		p1, ok1 = m.ToPixelCached(s.ID, handles[0], s.P1)
		p2, ok2 = m.ToPixelCached(s.ID, handles[1], s.P2)
	} else {
		p1, ok1 = m.ToPixel(s.P1)
		p2, ok2 = m.ToPixel(s.P2)
	}
	return p1, p2, ok1 && ok2
}

// CanLayout reports whether every shape and the draft map fully.
func (m *Mapper) CanLayout(shapes []annotation.Shape, draft *annotation.Shape) bool {
	for _, s := range shapes {
		if _, _, ok := m.Endpoints(s, true); !ok {
			return false
		}
	}
	if draft != nil {
		if _, _, ok := m.Endpoints(*draft, true); !ok {
			return false
		}
	}
	return true
}
