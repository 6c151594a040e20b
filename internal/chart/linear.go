package chart

import "sync"

var (
	_ TimeScale   = (*Linear)(nil)
	_ PriceSeries = (*Linear)(nil)
)

// Linear is a minimal host chart with linear axes. It can be put into an
// unsettled state where direct logical mapping is refused, which is how the
// host behaves while it is still laying out after a pan or zoom.
type Linear struct {
	mu sync.RWMutex

	width, height float64
	logical       Range
	price         Range

	unsettled        bool
	noRange          bool
	priceUnavailable bool

	subs subscribers
}

// NewLinear creates a scale of w x h pixels showing the logical range on the
// x axis and the price range (low to high) bottom to top.
func NewLinear(w, h float64, logical, price Range) *Linear {
	return &Linear{width: w, height: h, logical: logical, price: price}
}

// SetUnsettled toggles refusal of direct logical to pixel mapping.
func (l *Linear) SetUnsettled(v bool) {
	l.mu.Lock()
	l.unsettled = v
	l.mu.Unlock()
}

// SetNoRange toggles whether a visible logical range is reported.
func (l *Linear) SetNoRange(v bool) {
	l.mu.Lock()
	l.noRange = v
	l.mu.Unlock()
}

// SetPriceUnavailable toggles refusal of price to pixel mapping.
func (l *Linear) SetPriceUnavailable(v bool) {
	l.mu.Lock()
	l.priceUnavailable = v
	l.mu.Unlock()
}

// SetLogicalRange changes the visible logical range and notifies subscribers.
func (l *Linear) SetLogicalRange(r Range) {
	l.mu.Lock()
	l.logical = r
	l.mu.Unlock()
	l.subs.notify(r)
}

// SetPriceRange changes the visible price range.
func (l *Linear) SetPriceRange(r Range) {
	l.mu.Lock()
	l.price = r
	l.mu.Unlock()
}

// Subscribers returns the number of active range subscriptions.
func (l *Linear) Subscribers() int {
	return l.subs.count()
}

func (l *Linear) LogicalToCoordinate(logical float64) (float64, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.unsettled || l.logical.Span() == 0 {
		return 0, false
	}
	return (logical - l.logical.From) * l.width / l.logical.Span(), true
}

func (l *Linear) CoordinateToLogical(x float64) (float64, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.width == 0 {
		return 0, false
	}
	return l.logical.From + x*l.logical.Span()/l.width, true
}

func (l *Linear) VisibleLogicalRange() (Range, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.noRange {
		return Range{}, false
	}
	return l.logical, true
}

func (l *Linear) SubscribeVisibleLogicalRangeChange(fn func(Range)) func() {
	return l.subs.add(fn)
}

func (l *Linear) PriceToCoordinate(price float64) (float64, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.priceUnavailable || l.price.Span() == 0 {
		return 0, false
	}
	return (l.price.To - price) * l.height / l.price.Span(), true
}

func (l *Linear) CoordinateToPrice(y float64) (float64, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.priceUnavailable || l.height == 0 {
		return 0, false
	}
	return l.price.To - y*l.price.Span()/l.height, true
}
