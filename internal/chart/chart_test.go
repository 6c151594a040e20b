package chart

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testEnd = time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)

func TestPeriod(t *testing.T) {
	assert.Equal(t, time.Minute, Period1m.Interval())
	assert.Equal(t, 15*time.Minute, Period15m.Interval())
	assert.Equal(t, 90*24*time.Hour, Period3M.Interval())
	assert.Equal(t, time.Minute, Period("2h").Interval())

	p, err := ParsePeriod("1d")
	require.NoError(t, err)
	assert.Equal(t, Period1d, p)

	_, err = ParsePeriod("2h")
	assert.Error(t, err)
}

func TestMockCandles(t *testing.T) {
	a := MockCandles("AAPL", Period1d, 50, testEnd)
	b := MockCandles("AAPL", Period1d, 50, testEnd)
	c := MockCandles("MSFT", Period1d, 50, testEnd)

	require.Len(t, a, 50)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a[0].Open, c[0].Open)

	for i, candle := range a {
		assert.LessOrEqual(t, candle.Low, math.Min(candle.Open, candle.Close))
		assert.GreaterOrEqual(t, candle.High, math.Max(candle.Open, candle.Close))
		assert.NotEqual(t, time.Saturday, candle.Time.Weekday())
		assert.NotEqual(t, time.Sunday, candle.Time.Weekday())
		if i > 0 {
			assert.True(t, candle.Time.After(a[i-1].Time))
		}
	}

	assert.Nil(t, MockCandles("AAPL", Period1d, 0, testEnd))
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "$12.35", FormatPrice(12.345))
	assert.Equal(t, "N/A", FormatPrice(math.NaN()))
	assert.Equal(t, "+$1.50", FormatChange(1.5))
	assert.Equal(t, "$-0.25", FormatChange(-0.25))
	assert.Equal(t, "+10.00%", FormatChangePercent(10, 110))
	assert.Equal(t, "N/A", FormatChangePercent(5, 5))
	assert.Equal(t, "1.5M", FormatVolume(1_500_000))
	assert.Equal(t, "2.0K", FormatVolume(2000))
	assert.Equal(t, "999", FormatVolume(999))
}

func TestVisibleRange_Fallback(t *testing.T) {
	v := NewViewport(200, 100)
	v.SetBars(MockCandles("X", Period1h, 20, testEnd))

	r, ok := VisibleRange(v)
	require.True(t, ok)
	assert.Equal(t, Range{From: -0.5, To: 19.5 + rightOffset}, r)

	// a scale without a logical range falls back to the time range
	fb := timeOnly{v}
	r, ok = VisibleRange(fb)
	require.True(t, ok)
	assert.InDelta(t, 0, r.From, 1e-9)
	assert.InDelta(t, 19, r.To, 1e-9)

	lin := NewLinear(100, 100, Range{From: 0, To: 10}, Range{From: 0, To: 1})
	lin.SetNoRange(true)
	_, ok = VisibleRange(lin)
	assert.False(t, ok)

	_, ok = VisibleRange(nil)
	assert.False(t, ok)
}

// timeOnly hides the logical range of a viewport.
type timeOnly struct{ *Viewport }

func (timeOnly) VisibleLogicalRange() (Range, bool) { return Range{}, false }

func TestViewport_Mapping(t *testing.T) {
	v := NewViewport(100, 100)
	_, ok := v.LogicalToCoordinate(1)
	assert.False(t, ok)

	v.SetVisibleLogicalRange(Range{From: 0, To: 10})
	x, ok := v.LogicalToCoordinate(5)
	require.True(t, ok)
	assert.InDelta(t, 50, x, 1e-9)

	l, ok := v.CoordinateToLogical(25)
	require.True(t, ok)
	assert.InDelta(t, 2.5, l, 1e-9)
}

func TestViewport_PanZoom(t *testing.T) {
	v := NewViewport(100, 100)
	v.SetBars(MockCandles("X", Period1h, 100, testEnd))

	var notified []Range
	unsubscribe := v.SubscribeVisibleLogicalRangeChange(func(r Range) {
		notified = append(notified, r)
	})

	v.SetVisibleLogicalRange(Range{From: 0, To: 50})
	v.Pan(10)
	r, _ := v.VisibleLogicalRange()
	assert.InDelta(t, -5, r.From, 1e-9)
	assert.InDelta(t, 45, r.To, 1e-9)

	// the logical index under the anchor stays put
	before, _ := v.CoordinateToLogical(25)
	v.Zoom(0.5, 25)
	after, _ := v.CoordinateToLogical(25)
	assert.InDelta(t, before, after, 1e-9)
	r, _ = v.VisibleLogicalRange()
	assert.InDelta(t, 25, r.Span(), 1e-9)

	// zoom is bounded
	v.Zoom(0.0001, 50)
	r, _ = v.VisibleLogicalRange()
	assert.InDelta(t, minVisibleBars, r.Span(), 1e-9)

	assert.Len(t, notified, 4)
	unsubscribe()
	v.Pan(5)
	assert.Len(t, notified, 4)
}

func TestViewport_PriceFit(t *testing.T) {
	v := NewViewport(100, 100)
	bars := []Candle{
		{Time: testEnd, Open: 10, High: 12, Low: 9, Close: 11},
		{Time: testEnd.Add(time.Hour), Open: 11, High: 20, Low: 10, Close: 19},
	}
	v.SetBars(bars)

	pr := v.PriceRange()
	assert.Less(t, pr.From, 9.0)
	assert.Greater(t, pr.To, 20.0)

	y, ok := v.PriceToCoordinate(pr.To)
	require.True(t, ok)
	assert.InDelta(t, 0, y, 1e-9)

	p, ok := v.CoordinateToPrice(100)
	require.True(t, ok)
	assert.InDelta(t, pr.From, p, 1e-9)

	x, ok := v.TimeToCoordinate(testEnd.Add(time.Hour))
	require.True(t, ok)
	lx, _ := v.LogicalToCoordinate(1)
	assert.Equal(t, lx, x)

	_, ok = v.TimeToCoordinate(testEnd.Add(time.Minute))
	assert.False(t, ok)
}

func TestLinear(t *testing.T) {
	lin := NewLinear(100, 100, Range{From: 0, To: 100}, Range{From: 0, To: 100})

	x, ok := lin.LogicalToCoordinate(30)
	require.True(t, ok)
	assert.Equal(t, 30.0, x)

	y, ok := lin.PriceToCoordinate(30)
	require.True(t, ok)
	assert.Equal(t, 70.0, y)

	lin.SetUnsettled(true)
	_, ok = lin.LogicalToCoordinate(30)
	assert.False(t, ok)

	calls := 0
	unsubscribe := lin.SubscribeVisibleLogicalRangeChange(func(Range) { calls++ })
	assert.Equal(t, 1, lin.Subscribers())
	lin.SetLogicalRange(Range{From: 10, To: 20})
	assert.Equal(t, 1, calls)
	unsubscribe()
	assert.Equal(t, 0, lin.Subscribers())
}
