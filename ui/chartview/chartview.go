// Package chartview provides a candlestick chart widget with wheel zoom
// and drag pan.
package chartview

import (
	"image"
	"sync"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"
	"github.com/sirupsen/logrus"

	"chart-annotator/internal/chart"
)

var log = logrus.WithField("component", "chartview")

const (
	zoomStep = 1.15
	minSize  = 200
)

// ChartView draws a chart.Viewport and lets the user pan and zoom it. The
// viewport doubles as the host chart for the annotation overlay.
type ChartView struct {
	widget.BaseWidget

	viewport *chart.Viewport
	raster   *fynecanvas.Raster

	mu       sync.Mutex
	onResize func(w, h int)
	lastW    int
	lastH    int
}

// New creates a chart view over vp.
func New(vp *chart.Viewport) *ChartView {
	cv := &ChartView{viewport: vp}
	cv.raster = fynecanvas.NewRaster(cv.draw)
	cv.raster.ScaleMode = fynecanvas.ImageScalePixels
	cv.raster.SetMinSize(fyne.NewSize(minSize, minSize))
	cv.ExtendBaseWidget(cv)

	vp.SubscribeVisibleLogicalRangeChange(func(chart.Range) { cv.raster.Refresh() })
	return cv
}

// Viewport returns the host chart.
func (cv *ChartView) Viewport() *chart.Viewport {
	return cv.viewport
}

// OnResize sets a callback run with the pixel size whenever it changes.
func (cv *ChartView) OnResize(fn func(w, h int)) {
	cv.mu.Lock()
	cv.onResize = fn
	cv.mu.Unlock()
}

// SetBars replaces the candles and fits them into view.
func (cv *ChartView) SetBars(bars []chart.Candle) {
	cv.viewport.SetBars(bars)
	cv.raster.Refresh()
}

func (cv *ChartView) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(cv.raster)
}

func (cv *ChartView) MinSize() fyne.Size {
	return cv.raster.MinSize()
}

// draw is called by the raster with the size in device pixels.
func (cv *ChartView) draw(w, h int) image.Image {
	cv.mu.Lock()
	resized := w != cv.lastW || h != cv.lastH
	cv.lastW, cv.lastH = w, h
	onResize := cv.onResize
	cv.mu.Unlock()

	if resized {
		log.Debugf("chart resized to %dx%d", w, h)
		cv.viewport.Resize(float64(w), float64(h))
		if onResize != nil {
			onResize(w, h)
		}
	}

	out := image.NewRGBA(image.Rect(0, 0, w, h))
	Paint(out, cv.viewport)
	return out
}

// scale converts widget units to device pixels.
func (cv *ChartView) scale() float32 {
	if app := fyne.CurrentApp(); app != nil {
		if c := app.Driver().CanvasForObject(cv); c != nil {
			return c.Scale()
		}
	}
	return 1
}

// Scrolled zooms around the pointer.
func (cv *ChartView) Scrolled(ev *fyne.ScrollEvent) {
	anchor := float64(ev.Position.X * cv.scale())
	switch {
	case ev.Scrolled.DY > 0:
		cv.viewport.Zoom(1/zoomStep, anchor)
	case ev.Scrolled.DY < 0:
		cv.viewport.Zoom(zoomStep, anchor)
	}
}

// Dragged pans the chart.
func (cv *ChartView) Dragged(ev *fyne.DragEvent) {
	cv.viewport.Pan(float64(ev.Dragged.DX * cv.scale()))
}

func (cv *ChartView) DragEnd() {}

// FitContent shows every bar.
func (cv *ChartView) FitContent() {
	cv.viewport.FitContent()
	cv.raster.Refresh()
}
