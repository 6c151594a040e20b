// Package chart defines the contract the annotation layer consumes from the
// host chart and provides a concrete viewport implementation of it.
package chart

import "time"

// Range is a closed interval of logical indices or prices.
type Range struct {
	From float64
	To   float64
}

// Span returns To - From.
func (r Range) Span() float64 {
	return r.To - r.From
}

// Contains reports whether v lies within the range.
func (r Range) Contains(v float64) bool {
	return v >= r.From && v <= r.To
}

// TimeScale is the horizontal axis of the host chart.
type TimeScale interface {
	// LogicalToCoordinate maps a logical index to a pixel x. ok is false
	// when the chart has no mapping for it yet.
	LogicalToCoordinate(logical float64) (x float64, ok bool)
	CoordinateToLogical(x float64) (logical float64, ok bool)
	VisibleLogicalRange() (Range, bool)
	// SubscribeVisibleLogicalRangeChange registers fn for pan and zoom
	// notifications and returns the matching unsubscribe function.
	SubscribeVisibleLogicalRangeChange(fn func(Range)) (unsubscribe func())
}

// TimeRangeScale is implemented by time scales that can also report the
// visible range in wall-clock time.
type TimeRangeScale interface {
	VisibleTimeRange() (from, to time.Time, ok bool)
	TimeToCoordinate(t time.Time) (x float64, ok bool)
}

// PriceSeries is the vertical axis of the series annotations are drawn on.
type PriceSeries interface {
	PriceToCoordinate(price float64) (y float64, ok bool)
	CoordinateToPrice(y float64) (price float64, ok bool)
}

// VisibleRange returns the visible logical range of ts. When the scale has
// no logical range yet, it falls back to converting the visible time range
// through pixel coordinates.
func VisibleRange(ts TimeScale) (Range, bool) {
	if ts == nil {
		return Range{}, false
	}
	if r, ok := ts.VisibleLogicalRange(); ok {
		return r, true
	}

	trs, ok := ts.(TimeRangeScale)
	if !ok {
		return Range{}, false
	}
	tf, tt, ok := trs.VisibleTimeRange()
	if !ok {
		return Range{}, false
	}
	xf, okf := trs.TimeToCoordinate(tf)
	xt, okt := trs.TimeToCoordinate(tt)
	if !okf || !okt {
		return Range{}, false
	}
	lf, okf := ts.CoordinateToLogical(xf)
	lt, okt := ts.CoordinateToLogical(xt)
	if !okf || !okt {
		return Range{}, false
	}
	return Range{From: lf, To: lt}, true
}
