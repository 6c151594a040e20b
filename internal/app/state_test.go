package app

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"chart-annotator/internal/annotation"
	"chart-annotator/internal/chart"
	"chart-annotator/internal/interact"
)

func TestState_Defaults(t *testing.T) {
	s := NewState(DefaultConfig())
	assert.Equal(t, "AAPL", s.Symbol())
	assert.Equal(t, chart.Period1d, s.Period())
	assert.Equal(t, "AAPL:1d", s.StorageKey())
	assert.Equal(t, interact.ToolNone, s.Tool())
	assert.Equal(t, annotation.DefaultStyle, s.Style())
	assert.True(t, s.Visible())
}

func TestState_Events(t *testing.T) {
	s := NewState(DefaultConfig())

	var got []interface{}
	record := func(data interface{}) { got = append(got, data) }
	for _, ev := range []EventType{EventSymbolChanged, EventPeriodChanged, EventToolChanged, EventStyleChanged, EventVisibilityChanged} {
		s.On(ev, record)
	}

	s.SetSymbol(" msft ")
	s.SetPeriod(chart.Period1h)
	s.SetTool(interact.ToolRect)
	s.SetStyle("#ef4444", 0)
	s.SetVisible(false)

	assert.Equal(t, []interface{}{
		"MSFT",
		chart.Period1h,
		interact.ToolRect,
		annotation.Style{StrokeColor: "#ef4444", StrokeWidth: 2},
		false,
	}, got)
	assert.Equal(t, "MSFT:1h", s.StorageKey())
}

func TestState_NoEventWithoutChange(t *testing.T) {
	s := NewState(DefaultConfig())

	calls := 0
	count := func(interface{}) { calls++ }
	for _, ev := range []EventType{EventSymbolChanged, EventPeriodChanged, EventToolChanged, EventStyleChanged, EventVisibilityChanged} {
		s.On(ev, count)
	}

	s.SetSymbol("aapl")
	s.SetSymbol("")
	s.SetPeriod(chart.Period1d)
	s.SetTool(interact.ToolNone)
	s.SetStyle("", 0)
	s.SetStyle(annotation.DefaultStyle.StrokeColor, annotation.DefaultStyle.StrokeWidth)
	s.SetVisible(true)

	assert.Zero(t, calls)
}

func TestState_FromConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Chart.Symbol = "btcusd"
	cfg.Chart.Period = "bogus"
	cfg.Style = StyleConfig{StrokeColor: "#10b981", StrokeWidth: 4}

	s := NewState(cfg)
	assert.Equal(t, "BTCUSD:1d", s.StorageKey())
	assert.Equal(t, annotation.Style{StrokeColor: "#10b981", StrokeWidth: 4}, s.Style())
}
