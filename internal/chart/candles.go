package chart

import (
	"hash/fnv"
	"math"
	"math/rand"
	"time"

	"github.com/pkg/errors"
)

// Candle is one OHLCV bar.
type Candle struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Period is a chart timeframe.
type Period string

const (
	Period1m  Period = "1m"
	Period15m Period = "15m"
	Period1h  Period = "1h"
	Period1d  Period = "1d"
	Period1w  Period = "1w"
	Period3M  Period = "3m"
	Period1y  Period = "1y"
	Period3y  Period = "3y"
)

// Periods lists the supported timeframes, shortest first.
var Periods = []Period{Period1m, Period15m, Period1h, Period1d, Period1w, Period3M, Period1y, Period3y}

const day = 24 * time.Hour

// Interval returns the bar duration of the period. Unknown periods use one
// minute.
func (p Period) Interval() time.Duration {
	switch p {
	case Period1m:
		return time.Minute
	case Period15m:
		return 15 * time.Minute
	case Period1h:
		return time.Hour
	case Period1d:
		return day
	case Period1w:
		return 7 * day
	case Period3M:
		return 90 * day
	case Period1y:
		return 365 * day
	case Period3y:
		return 3 * 365 * day
	}
	return time.Minute
}

// ParsePeriod validates a period string.
func ParsePeriod(s string) (Period, error) {
	for _, p := range Periods {
		if string(p) == s {
			return p, nil
		}
	}
	return "", errors.Errorf("unknown period %q", s)
}

func seedFor(symbol string, period Period) int64 {
	h := fnv.New64a()
	h.Write([]byte(symbol))
	h.Write([]byte{0})
	h.Write([]byte(period))
	return int64(h.Sum64() & math.MaxInt64)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// MockCandles generates n deterministic candles for symbol ending at end.
// The same symbol and period always produce the same series. Daily bars
// skip weekends.
func MockCandles(symbol string, period Period, n int, end time.Time) []Candle {
	if n <= 0 {
		return nil
	}
	seed := seedFor(symbol, period)
	rng := rand.New(rand.NewSource(seed))

	interval := period.Interval()
	t := end.Truncate(interval)
	times := make([]time.Time, 0, n)
	for len(times) < n {
		if period == Period1d && (t.Weekday() == time.Saturday || t.Weekday() == time.Sunday) {
			t = t.Add(-interval)
			continue
		}
		times = append(times, t)
		t = t.Add(-interval)
	}

	price := 50 + float64(seed%250)
	candles := make([]Candle, n)
	for i := range candles {
		open := round2(price + rng.Float64() - 0.5)
		volatility := 0.01 + rng.Float64()*0.03
		change := rng.NormFloat64()*0.015 + 0.0005
		cls := round2(open * (1 + change))

		high := round2(math.Max(open, cls) * (1 + volatility))
		low := round2(math.Min(open, cls) * (1 - volatility))

		candles[i] = Candle{
			Time:   times[n-1-i],
			Open:   open,
			High:   high,
			Low:    low,
			Close:  cls,
			Volume: math.Round(1e5 + rng.Float64()*4e6),
		}
		price = cls
	}
	return candles
}
