// Package app provides application configuration, logging setup, state, and events.
package app

import (
	"strings"
	"sync"

	"chart-annotator/internal/annotation"
	"chart-annotator/internal/chart"
	"chart-annotator/internal/interact"
	"chart-annotator/internal/persist"
)

// State holds the chart selection and the drawing props shared by the
// toolbar and the overlay.
type State struct {
	mu sync.RWMutex

	symbol  string
	period  chart.Period
	tool    interact.Tool
	style   annotation.Style
	visible bool

	// Event listeners
	listeners map[EventType][]EventListener
}

// EventType identifies different application events.
type EventType int

const (
	EventSymbolChanged EventType = iota
	EventPeriodChanged
	EventToolChanged
	EventStyleChanged
	EventVisibilityChanged
)

// EventListener is called when an event occurs.
type EventListener func(data interface{})

// NewState creates a state seeded from cfg.
func NewState(cfg Config) *State {
	period, err := chart.ParsePeriod(cfg.Chart.Period)
	if err != nil {
		period = chart.Period1d
	}
	style := annotation.Patch(cfg.Style.StrokeColor, cfg.Style.StrokeWidth).Apply(annotation.DefaultStyle)
	return &State{
		symbol:    normalizeSymbol(cfg.Chart.Symbol),
		period:    period,
		tool:      interact.ToolNone,
		style:     style,
		visible:   true,
		listeners: make(map[EventType][]EventListener),
	}
}

func normalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// On registers an event listener for the specified event type.
func (s *State) On(event EventType, listener EventListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners[event] = append(s.listeners[event], listener)
}

// Emit triggers all listeners for the specified event type.
func (s *State) Emit(event EventType, data interface{}) {
	s.mu.RLock()
	listeners := s.listeners[event]
	s.mu.RUnlock()

	for _, listener := range listeners {
		listener(data)
	}
}

// Symbol returns the selected instrument.
func (s *State) Symbol() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.symbol
}

// Period returns the selected chart period.
func (s *State) Period() chart.Period {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.period
}

// StorageKey identifies the annotation collection of the current chart.
func (s *State) StorageKey() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return persist.StorageKey(s.symbol, string(s.period))
}

// Tool returns the active drawing tool.
func (s *State) Tool() interact.Tool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tool
}

// Style returns the stroke style for new annotations.
func (s *State) Style() annotation.Style {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.style
}

// Visible reports whether annotations are shown.
func (s *State) Visible() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.visible
}

// SetSymbol selects an instrument. Blank symbols are ignored.
func (s *State) SetSymbol(symbol string) {
	symbol = normalizeSymbol(symbol)
	s.mu.Lock()
	if symbol == "" || symbol == s.symbol {
		s.mu.Unlock()
		return
	}
	s.symbol = symbol
	s.mu.Unlock()

	log.WithField("symbol", symbol).Info("symbol changed")
	s.Emit(EventSymbolChanged, symbol)
}

// SetPeriod selects a chart period.
func (s *State) SetPeriod(period chart.Period) {
	s.mu.Lock()
	if period == s.period {
		s.mu.Unlock()
		return
	}
	s.period = period
	s.mu.Unlock()

	log.WithField("period", period).Info("period changed")
	s.Emit(EventPeriodChanged, period)
}

// SetTool selects the drawing tool.
func (s *State) SetTool(tool interact.Tool) {
	s.mu.Lock()
	if tool == s.tool {
		s.mu.Unlock()
		return
	}
	s.tool = tool
	s.mu.Unlock()

	s.Emit(EventToolChanged, tool)
}

// SetStyle changes the stroke props. An empty color or a non-positive width
// leaves that field unchanged.
func (s *State) SetStyle(color string, width float64) {
	s.mu.Lock()
	style := annotation.Patch(color, width).Apply(s.style)
	if style == s.style {
		s.mu.Unlock()
		return
	}
	s.style = style
	s.mu.Unlock()

	s.Emit(EventStyleChanged, style)
}

// SetVisible shows or hides annotations.
func (s *State) SetVisible(visible bool) {
	s.mu.Lock()
	if visible == s.visible {
		s.mu.Unlock()
		return
	}
	s.visible = visible
	s.mu.Unlock()

	s.Emit(EventVisibilityChanged, visible)
}
