// Package prefs provides JSON-based application preferences.
package prefs

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"

	"chart-annotator/internal/app"
	"chart-annotator/internal/chart"
	"chart-annotator/internal/interact"
)

const prefsFile = "preferences.json"

// Preference keys.
const (
	KeySymbol      = "chart.symbol"
	KeyPeriod      = "chart.period"
	KeyTool        = "draw.tool"
	KeyStrokeColor = "draw.strokeColor"
	KeyStrokeWidth = "draw.strokeWidth"
	KeyVisible     = "draw.visible"
)

// Prefs stores application preferences as a key-value map.
type Prefs struct {
	mu     sync.RWMutex
	values map[string]interface{}
	path   string
}

// DefaultPath returns ~/.config/chart-annotator/preferences.json.
func DefaultPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return filepath.Join(configDir, "chart-annotator", prefsFile)
}

// Load reads preferences from DefaultPath.
func Load() *Prefs {
	return LoadFrom(DefaultPath())
}

// LoadFrom reads preferences from path. A missing or unreadable file
// yields empty preferences.
func LoadFrom(path string) *Prefs {
	p := &Prefs{
		values: make(map[string]interface{}),
		path:   path,
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return p
	}
	_ = json.Unmarshal(data, &p.values)
	return p
}

// Path returns the file the preferences are saved to.
func (p *Prefs) Path() string {
	return p.path
}

// Save writes preferences to disk.
func (p *Prefs) Save() error {
	p.mu.RLock()
	data, err := json.MarshalIndent(p.values, "", "  ")
	p.mu.RUnlock()
	if err != nil {
		return errors.Wrap(err, "encode preferences")
	}

	if err := os.MkdirAll(filepath.Dir(p.path), 0o755); err != nil {
		return errors.Wrap(err, "create preferences dir")
	}
	return errors.Wrapf(os.WriteFile(p.path, data, 0o644), "write %s", p.path)
}

// FloatWithFallback returns a float64 preference, or fallback if not set.
func (p *Prefs) FloatWithFallback(key string, fallback float64) float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if v, ok := p.values[key]; ok {
		switch n := v.(type) {
		case float64:
			return n
		case int:
			return float64(n)
		}
	}
	return fallback
}

// SetFloat stores a float64 preference.
func (p *Prefs) SetFloat(key string, val float64) {
	p.mu.Lock()
	p.values[key] = val
	p.mu.Unlock()
}

// String returns a string preference, or "" if not set.
func (p *Prefs) String(key string) string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if v, ok := p.values[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// SetString stores a string preference.
func (p *Prefs) SetString(key string, val string) {
	p.mu.Lock()
	p.values[key] = val
	p.mu.Unlock()
}

// Bool returns a bool preference, or fallback if not set.
func (p *Prefs) Bool(key string, fallback bool) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if b, ok := p.values[key].(bool); ok {
		return b
	}
	return fallback
}

// SetBool stores a bool preference.
func (p *Prefs) SetBool(key string, val bool) {
	p.mu.Lock()
	p.values[key] = val
	p.mu.Unlock()
}

// Restore applies saved preferences to s. Unset or invalid entries leave
// the state as configured.
func (p *Prefs) Restore(s *app.State) {
	s.SetSymbol(p.String(KeySymbol))
	if period, err := chart.ParsePeriod(p.String(KeyPeriod)); err == nil {
		s.SetPeriod(period)
	}
	if tool, err := interact.ParseTool(p.String(KeyTool)); err == nil {
		s.SetTool(tool)
	}
	s.SetStyle(p.String(KeyStrokeColor), p.FloatWithFallback(KeyStrokeWidth, 0))
	s.SetVisible(p.Bool(KeyVisible, s.Visible()))
}

// Capture records s into the preferences.
func (p *Prefs) Capture(s *app.State) {
	style := s.Style()
	p.SetString(KeySymbol, s.Symbol())
	p.SetString(KeyPeriod, string(s.Period()))
	p.SetString(KeyTool, s.Tool().String())
	p.SetString(KeyStrokeColor, style.StrokeColor)
	p.SetFloat(KeyStrokeWidth, style.StrokeWidth)
	p.SetBool(KeyVisible, s.Visible())
}
