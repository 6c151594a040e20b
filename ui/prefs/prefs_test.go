package prefs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chart-annotator/internal/annotation"
	"chart-annotator/internal/app"
	"chart-annotator/internal/chart"
	"chart-annotator/internal/interact"
)

func TestPrefs_SaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", prefsFile)

	p := LoadFrom(path)
	p.SetString("a", "x")
	p.SetFloat("b", 2.5)
	p.SetBool("c", true)
	require.NoError(t, p.Save())

	q := LoadFrom(path)
	assert.Equal(t, path, q.Path())
	assert.Equal(t, "x", q.String("a"))
	assert.Equal(t, 2.5, q.FloatWithFallback("b", 0))
	assert.True(t, q.Bool("c", false))
	assert.Equal(t, 7.0, q.FloatWithFallback("missing", 7))
	assert.Equal(t, "", q.String("b"), "wrong type")
}

func TestPrefs_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), prefsFile)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	p := LoadFrom(path)
	assert.Equal(t, "", p.String(KeySymbol))
	assert.True(t, p.Bool(KeyVisible, true))
}

func TestPrefs_CaptureRestore(t *testing.T) {
	src := app.NewState(app.DefaultConfig())
	src.SetSymbol("BTCUSD")
	src.SetPeriod(chart.Period15m)
	src.SetTool(interact.ToolCircle)
	src.SetStyle("#a78bfa", 3)
	src.SetVisible(false)

	path := filepath.Join(t.TempDir(), prefsFile)
	p := LoadFrom(path)
	p.Capture(src)
	require.NoError(t, p.Save())

	dst := app.NewState(app.DefaultConfig())
	LoadFrom(path).Restore(dst)
	assert.Equal(t, "BTCUSD:15m", dst.StorageKey())
	assert.Equal(t, interact.ToolCircle, dst.Tool())
	assert.Equal(t, annotation.Style{StrokeColor: "#a78bfa", StrokeWidth: 3}, dst.Style())
	assert.False(t, dst.Visible())
}

func TestPrefs_RestoreEmpty(t *testing.T) {
	s := app.NewState(app.DefaultConfig())
	LoadFrom(filepath.Join(t.TempDir(), prefsFile)).Restore(s)
	assert.Equal(t, "AAPL:1d", s.StorageKey())
	assert.Equal(t, interact.ToolNone, s.Tool())
	assert.Equal(t, annotation.DefaultStyle, s.Style())
	assert.True(t, s.Visible())
}
