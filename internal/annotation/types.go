// Package annotation provides the chart annotation model and the store that
// owns the shape collection, the draft, selection, hover and style defaults.
package annotation

import (
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// DataPoint anchors a shape endpoint to chart data space.
type DataPoint struct {
	LogicalIndex float64 `json:"logicalIndex"`
	Price        float64 `json:"price"`
}

// Valid reports whether both coordinates are finite.
func (p DataPoint) Valid() bool {
	return isFinite(p.LogicalIndex) && isFinite(p.Price)
}

// Shift returns the point translated by the given deltas.
func (p DataPoint) Shift(dLogical, dPrice float64) DataPoint {
	return DataPoint{LogicalIndex: p.LogicalIndex + dLogical, Price: p.Price + dPrice}
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Kind discriminates the shape variants.
type Kind string

const (
	KindLine   Kind = "line"
	KindRect   Kind = "rect"
	KindCircle Kind = "circle"
)

// Valid reports whether k is one of the known shape kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindLine, KindRect, KindCircle:
		return true
	}
	return false
}

// Handle names one endpoint of a shape.
type Handle string

const (
	HandleA      Handle = "a"
	HandleB      Handle = "b"
	HandleCenter Handle = "center"
	HandleEdge   Handle = "edge"
)

// Style holds the stroke attributes of a shape.
type Style struct {
	StrokeColor string  `json:"strokeColor"`
	StrokeWidth float64 `json:"strokeWidth"`
}

// StylePatch is a partial style update. Nil fields are left untouched.
type StylePatch struct {
	StrokeColor *string
	StrokeWidth *float64
}

// Apply returns s with the non-nil, non-empty fields of the patch applied.
func (p StylePatch) Apply(s Style) Style {
	if p.StrokeColor != nil && *p.StrokeColor != "" {
		s.StrokeColor = *p.StrokeColor
	}
	if p.StrokeWidth != nil && *p.StrokeWidth > 0 {
		s.StrokeWidth = *p.StrokeWidth
	}
	return s
}

// Empty reports whether the patch carries no usable field.
func (p StylePatch) Empty() bool {
	return (p.StrokeColor == nil || *p.StrokeColor == "") && (p.StrokeWidth == nil || *p.StrokeWidth <= 0)
}

// Differs reports whether applying the patch would change s.
func (p StylePatch) Differs(s Style) bool {
	return p.Apply(s) != s
}

// Patch builds a StylePatch from a color and width; zero values are ignored.
func Patch(color string, width float64) StylePatch {
	var p StylePatch
	if color != "" {
		p.StrokeColor = &color
	}
	if width > 0 {
		p.StrokeWidth = &width
	}
	return p
}

// Shape is a tagged variant over line, rectangle and circle.
//
// P1 and P2 are the two endpoints. For lines and rectangles they are the
// handles "a" and "b"; for circles they are "center" and "edge".
type Shape struct {
	ID    string
	Kind  Kind
	Style Style
	P1    DataPoint
	P2    DataPoint
}

// NewID returns a fresh, process-unique shape identifier.
func NewID() string {
	return uuid.NewString()
}

// NewLine creates a line between a and b.
func NewLine(id string, style Style, a, b DataPoint) Shape {
	return Shape{ID: id, Kind: KindLine, Style: style, P1: a, P2: b}
}

// NewRect creates a rectangle spanning the opposite corners a and b.
func NewRect(id string, style Style, a, b DataPoint) Shape {
	return Shape{ID: id, Kind: KindRect, Style: style, P1: a, P2: b}
}

// NewCircle creates a circle through edge centered on center.
func NewCircle(id string, style Style, center, edge DataPoint) Shape {
	return Shape{ID: id, Kind: KindCircle, Style: style, P1: center, P2: edge}
}

// Handles returns the endpoint names of the shape in paint order.
func (s Shape) Handles() []Handle {
	switch s.Kind {
	case KindLine, KindRect:
		return []Handle{HandleA, HandleB}
	case KindCircle:
		return []Handle{HandleCenter, HandleEdge}
	}
	return nil
}

// slot maps a handle name onto P1 (1) or P2 (2) for this kind, 0 if invalid.
func (s Shape) slot(h Handle) int {
	switch s.Kind {
	case KindLine, KindRect:
		switch h {
		case HandleA:
			return 1
		case HandleB:
			return 2
		}
	case KindCircle:
		switch h {
		case HandleCenter:
			return 1
		case HandleEdge:
			return 2
		}
	}
	return 0
}

// HasHandle reports whether h names an endpoint of this shape's kind.
func (s Shape) HasHandle(h Handle) bool {
	return s.slot(h) != 0
}

// Point returns the endpoint named by h.
func (s Shape) Point(h Handle) (DataPoint, bool) {
	switch s.slot(h) {
	case 1:
		return s.P1, true
	case 2:
		return s.P2, true
	}
	return DataPoint{}, false
}

// WithPoint returns a copy of s with the endpoint h replaced by p.
// The second result is false when h is not valid for the kind.
func (s Shape) WithPoint(h Handle, p DataPoint) (Shape, bool) {
	switch s.slot(h) {
	case 1:
		s.P1 = p
	case 2:
		s.P2 = p
	default:
		return s, false
	}
	return s, true
}

// Leading returns the handle that startDraft anchors (a or center).
func (s Shape) Leading() Handle {
	if s.Kind == KindCircle {
		return HandleCenter
	}
	return HandleA
}

// Trailing returns the handle that follows the pointer while drawing (b or edge).
func (s Shape) Trailing() Handle {
	if s.Kind == KindCircle {
		return HandleEdge
	}
	return HandleB
}

// Translate returns a copy of s with both endpoints shifted.
func (s Shape) Translate(dLogical, dPrice float64) Shape {
	s.P1 = s.P1.Shift(dLogical, dPrice)
	s.P2 = s.P2.Shift(dLogical, dPrice)
	return s
}

// Validate checks the shape invariants: id, known kind, finite endpoints.
func (s Shape) Validate() error {
	if s.ID == "" {
		return errors.Errorf("shape without id")
	}
	if !s.Kind.Valid() {
		return errors.Errorf("shape %s: unknown kind %q", s.ID, s.Kind)
	}
	if !s.P1.Valid() || !s.P2.Valid() {
		return errors.Errorf("shape %s: non-finite endpoint", s.ID)
	}
	return nil
}

func (s Shape) String() string {
	h := s.Handles()
	if len(h) != 2 {
		return fmt.Sprintf("%s(%s)", s.Kind, s.ID)
	}
	return fmt.Sprintf("%s(%s %s=[%g %g] %s=[%g %g])", s.Kind, s.ID,
		h[0], s.P1.LogicalIndex, s.P1.Price, h[1], s.P2.LogicalIndex, s.P2.Price)
}
