// Package render paints annotations onto an off-screen buffer and publishes
// finished frames to a visible surface.
package render

import (
	"image"
	"image/color"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/image/draw"

	"chart-annotator/internal/annotation"
	"chart-annotator/internal/mapping"
	"chart-annotator/pkg/colorutil"
	"chart-annotator/pkg/geometry"
)

var log = logrus.WithField("component", "render")

const haloExtraWidth = 4

var (
	// haloColor is rgba(255,255,255,0.35).
	haloColor     = color.NRGBA{R: 255, G: 255, B: 255, A: 89}
	defaultStroke = colorutil.MustParseHex(colorutil.DefaultStroke)
)

// Frame is an immutable snapshot of what to paint.
type Frame struct {
	Shapes   []annotation.Shape
	Draft    *annotation.Shape
	Selected string
	Hovered  string
	Visible  bool
	// Scaling is set while the host chart is inside a rescale window.
	Scaling bool
}

// FrameOf builds a frame from a store snapshot.
func FrameOf(snap annotation.Snapshot, scaling bool) Frame {
	return Frame{
		Shapes:   snap.Shapes,
		Draft:    snap.Draft,
		Selected: snap.Selected,
		Hovered:  snap.Hovered,
		Visible:  snap.Visible,
		Scaling:  scaling,
	}
}

// Outcome reports what a redraw did.
type Outcome int

const (
	// OutcomeCleared means annotations are hidden and the surface was cleared.
	OutcomeCleared Outcome = iota
	// OutcomeReused means the previous frame was shown again.
	OutcomeReused
	// OutcomePainted means a new frame was painted.
	OutcomePainted
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCleared:
		return "cleared"
	case OutcomeReused:
		return "reused"
	case OutcomePainted:
		return "painted"
	}
	return "unknown"
}

// Renderer owns the off-screen buffer and the visible surface. The surface
// is only ever replaced wholesale from a finished buffer.
type Renderer struct {
	mu      sync.Mutex
	mapper  *mapping.Mapper
	buffer  *image.RGBA
	surface *image.RGBA
	stroke  *stroker
}

// NewRenderer creates a renderer of w x h pixels.
func NewRenderer(mapper *mapping.Mapper, w, h int) *Renderer {
	r := &Renderer{mapper: mapper}
	r.resizeLocked(w, h)
	return r
}

// Resize reallocates both images. The previous frame is kept, anchored at
// the top-left and clipped to the new size, so it can still be reused while
// the chart rescales.
func (r *Renderer) Resize(w, h int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b := r.buffer.Bounds(); b.Dx() == w && b.Dy() == h {
		return
	}
	r.resizeLocked(w, h)
}

func (r *Renderer) resizeLocked(w, h int) {
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	bounds := image.Rect(0, 0, w, h)
	r.buffer = carryOver(r.buffer, bounds)
	r.surface = carryOver(r.surface, bounds)
	r.stroke = newStroker(bounds)
}

func carryOver(old *image.RGBA, bounds image.Rectangle) *image.RGBA {
	img := image.NewRGBA(bounds)
	if old != nil {
		draw.Draw(img, bounds, old, image.Point{}, draw.Src)
	}
	return img
}

// Size returns the pixel size of the surface.
func (r *Renderer) Size() (w, h int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b := r.surface.Bounds()
	return b.Dx(), b.Dy()
}

// Surface returns a copy of the visible surface.
func (r *Renderer) Surface() *image.RGBA {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := image.NewRGBA(r.surface.Bounds())
	copy(out.Pix, r.surface.Pix)
	return out
}

// Redraw paints f.
func (r *Renderer) Redraw(f Frame) Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !f.Visible {
		clearImage(r.surface)
		return OutcomeCleared
	}

	if f.Scaling && !r.mapper.CanLayout(f.Shapes, f.Draft) {
		// keep showing the last complete frame
		r.blitLocked()
		log.Debug("layout incomplete while scaling, reusing previous frame")
		return OutcomeReused
	}

	clearImage(r.buffer)
	for _, s := range f.Shapes {
		r.drawShape(s, f.Hovered == s.ID && f.Selected != s.ID)
	}
	if f.Draft != nil {
		r.drawShape(*f.Draft, false)
	}
	if f.Selected != "" {
		for _, s := range f.Shapes {
			if s.ID == f.Selected {
				r.drawHandles(s)
				break
			}
		}
	}
	r.blitLocked()
	return OutcomePainted
}

func (r *Renderer) blitLocked() {
	clearImage(r.surface)
	draw.Draw(r.surface, r.surface.Bounds(), r.buffer, image.Point{}, draw.Src)
}

func clearImage(img *image.RGBA) {
	draw.Draw(img, img.Bounds(), image.Transparent, image.Point{}, draw.Src)
}

func strokeColor(s annotation.Shape) color.NRGBA {
	return colorutil.NRGBA(colorutil.ParseHexOr(s.Style.StrokeColor, defaultStroke))
}

func strokeWidth(s annotation.Shape) float64 {
	if s.Style.StrokeWidth > 0 {
		return s.Style.StrokeWidth
	}
	return annotation.DefaultStyle.StrokeWidth
}

// drawShape paints s, preceded by the hover halo when halo is set. Shapes
// whose endpoints cannot be mapped are skipped.
func (r *Renderer) drawShape(s annotation.Shape, halo bool) {
	a, b, ok := r.mapper.Endpoints(s, true)
	if !ok {
		return
	}
	width := strokeWidth(s)
	if halo {
		r.outline(s.Kind, a, b, width+haloExtraWidth)
		r.stroke.flush(r.buffer, haloColor)
	}
	r.outline(s.Kind, a, b, width)
	r.stroke.flush(r.buffer, strokeColor(s))
}

func (r *Renderer) outline(kind annotation.Kind, a, b geometry.Point2D, width float64) {
	switch kind {
	case annotation.KindLine:
		r.stroke.line(a, b, width)
	case annotation.KindRect:
		r.stroke.rect(geometry.RectFromPoints(a, b), width)
	case annotation.KindCircle:
		r.stroke.ring(a, a.Distance(b), width)
	}
}

func (r *Renderer) drawHandles(s annotation.Shape) {
	for _, h := range s.Handles() {
		p, ok := s.Point(h)
		if !ok {
			continue
		}
		px, ok := r.mapper.ToPixelCached(s.ID, h, p)
		if !ok {
			continue
		}
		r.stroke.disc(px.X, px.Y, mapping.HandleRadius)
	}
	r.stroke.flush(r.buffer, strokeColor(s))
}
