package chart

import (
	"math"
	"sort"
	"sync"
	"time"

	"gonum.org/v1/gonum/floats"
)

var (
	_ TimeScale      = (*Viewport)(nil)
	_ TimeRangeScale = (*Viewport)(nil)
	_ PriceSeries    = (*Viewport)(nil)
)

const (
	minVisibleBars = 5
	// fraction of the price span added above and below the visible bars
	priceMargin = 0.08
	// empty bars kept right of the last candle after FitContent
	rightOffset = 3
)

// Viewport is the application's host chart: a candle series with a
// pannable, zoomable logical window and an auto-fitted price axis.
type Viewport struct {
	mu sync.RWMutex

	bars          []Candle
	logical       Range
	price         Range
	width, height float64

	subs subscribers
}

// NewViewport creates an empty viewport of the given pixel size.
func NewViewport(w, h float64) *Viewport {
	return &Viewport{width: w, height: h}
}

// SetBars replaces the series and fits it into view.
func (v *Viewport) SetBars(bars []Candle) {
	v.mu.Lock()
	v.bars = append([]Candle(nil), bars...)
	v.mu.Unlock()
	v.FitContent()
}

// Bars returns a copy of the series.
func (v *Viewport) Bars() []Candle {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return append([]Candle(nil), v.bars...)
}

// Len returns the number of bars.
func (v *Viewport) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.bars)
}

// Size returns the pixel size.
func (v *Viewport) Size() (w, h float64) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.width, v.height
}

// Resize changes the pixel size. The logical window is unchanged.
func (v *Viewport) Resize(w, h float64) {
	v.mu.Lock()
	v.width, v.height = w, h
	v.mu.Unlock()
}

// PriceRange returns the visible price range.
func (v *Viewport) PriceRange() Range {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.price
}

// FitContent shows every bar.
func (v *Viewport) FitContent() {
	v.mu.Lock()
	if len(v.bars) == 0 {
		v.logical = Range{}
		v.price = Range{}
		v.mu.Unlock()
		return
	}
	v.logical = Range{From: -0.5, To: float64(len(v.bars)) - 0.5 + rightOffset}
	v.fitPriceLocked()
	r := v.logical
	v.mu.Unlock()
	v.subs.notify(r)
}

// SetVisibleLogicalRange moves the logical window.
func (v *Viewport) SetVisibleLogicalRange(r Range) {
	if r.Span() <= 0 {
		return
	}
	v.mu.Lock()
	v.logical = r
	v.fitPriceLocked()
	v.mu.Unlock()
	v.subs.notify(r)
}

// Pan shifts the window by dx pixels. Positive dx drags the content right,
// revealing older bars.
func (v *Viewport) Pan(dx float64) {
	v.mu.Lock()
	if v.width == 0 || v.logical.Span() == 0 || dx == 0 {
		v.mu.Unlock()
		return
	}
	shift := -dx / v.width * v.logical.Span()
	v.logical = Range{From: v.logical.From + shift, To: v.logical.To + shift}
	v.fitPriceLocked()
	r := v.logical
	v.mu.Unlock()
	v.subs.notify(r)
}

// Zoom scales the visible span by factor (<1 zooms in) keeping the logical
// index under anchorX fixed.
func (v *Viewport) Zoom(factor, anchorX float64) {
	v.mu.Lock()
	span := v.logical.Span()
	if v.width == 0 || span == 0 || factor <= 0 || factor == 1 {
		v.mu.Unlock()
		return
	}
	maxSpan := math.Max(float64(len(v.bars))*2, minVisibleBars)
	next := math.Min(math.Max(span*factor, minVisibleBars), maxSpan)
	anchor := v.logical.From + anchorX/v.width*span
	ratio := anchorX / v.width
	v.logical = Range{From: anchor - ratio*next, To: anchor + (1-ratio)*next}
	v.fitPriceLocked()
	r := v.logical
	v.mu.Unlock()
	v.subs.notify(r)
}

// fitPriceLocked fits the price axis to the bars inside the logical window.
func (v *Viewport) fitPriceLocked() {
	from := int(math.Max(0, math.Floor(v.logical.From)))
	to := int(math.Min(float64(len(v.bars)-1), math.Ceil(v.logical.To)))
	if from > to {
		return
	}
	highs := make([]float64, 0, to-from+1)
	lows := make([]float64, 0, to-from+1)
	for _, c := range v.bars[from : to+1] {
		highs = append(highs, c.High)
		lows = append(lows, c.Low)
	}
	hi, lo := floats.Max(highs), floats.Min(lows)
	margin := (hi - lo) * priceMargin
	if margin == 0 {
		margin = math.Max(math.Abs(hi)*0.01, 1)
	}
	v.price = Range{From: lo - margin, To: hi + margin}
}

func (v *Viewport) LogicalToCoordinate(logical float64) (float64, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	span := v.logical.Span()
	if span == 0 || v.width == 0 {
		return 0, false
	}
	return (logical - v.logical.From) / span * v.width, true
}

func (v *Viewport) CoordinateToLogical(x float64) (float64, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.logical.Span() == 0 || v.width == 0 {
		return 0, false
	}
	return v.logical.From + x/v.width*v.logical.Span(), true
}

func (v *Viewport) VisibleLogicalRange() (Range, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.logical.Span() == 0 {
		return Range{}, false
	}
	return v.logical, true
}

func (v *Viewport) SubscribeVisibleLogicalRangeChange(fn func(Range)) func() {
	return v.subs.add(fn)
}

// VisibleTimeRange returns the times of the first and last bar in view.
func (v *Viewport) VisibleTimeRange() (time.Time, time.Time, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if len(v.bars) == 0 || v.logical.Span() == 0 {
		return time.Time{}, time.Time{}, false
	}
	from := clampIndex(int(math.Ceil(v.logical.From)), len(v.bars))
	to := clampIndex(int(math.Floor(v.logical.To)), len(v.bars))
	return v.bars[from].Time, v.bars[to].Time, true
}

// TimeToCoordinate maps a bar time to the x of its logical index.
func (v *Viewport) TimeToCoordinate(t time.Time) (float64, bool) {
	v.mu.RLock()
	i := sort.Search(len(v.bars), func(i int) bool { return !v.bars[i].Time.Before(t) })
	found := i < len(v.bars) && v.bars[i].Time.Equal(t)
	v.mu.RUnlock()
	if !found {
		return 0, false
	}
	return v.LogicalToCoordinate(float64(i))
}

func (v *Viewport) PriceToCoordinate(price float64) (float64, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	span := v.price.Span()
	if span == 0 || v.height == 0 {
		return 0, false
	}
	return (v.price.To - price) / span * v.height, true
}

func (v *Viewport) CoordinateToPrice(y float64) (float64, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.price.Span() == 0 || v.height == 0 {
		return 0, false
	}
	return v.price.To - y/v.height*v.price.Span(), true
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
