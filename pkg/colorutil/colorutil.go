// Package colorutil provides shared color utilities for the chart annotator.
package colorutil

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Common overlay colors used throughout the application.
var (
	Black       = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	White       = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Transparent = color.RGBA{}
)

// Palette is the stroke palette offered by the toolbar.
var Palette = []string{"#22d3ee", "#f59e0b", "#a78bfa", "#ef4444", "#10b981"}

// DefaultStroke is the stroke color of new shapes when nothing else is configured.
const DefaultStroke = "#22d3ee"

// ParseHex parses "#rgb", "#rrggbb" or "#rrggbbaa" into a color.
func ParseHex(s string) (color.RGBA, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	switch len(h) {
	case 3:
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]}) + "ff"
	case 6:
		h += "ff"
	case 8:
	default:
		return color.RGBA{}, errors.Errorf("invalid hex color %q", s)
	}

	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.RGBA{}, errors.Wrapf(err, "invalid hex color %q", s)
	}
	return color.RGBA{
		R: uint8(v >> 24),
		G: uint8(v >> 16),
		B: uint8(v >> 8),
		A: uint8(v),
	}, nil
}

// MustParseHex is ParseHex for constants; it panics on malformed input.
func MustParseHex(s string) color.RGBA {
	c, err := ParseHex(s)
	if err != nil {
		panic(err)
	}
	return c
}

// ParseHexOr parses s and returns fallback when it is not a valid color.
func ParseHexOr(s string, fallback color.RGBA) color.RGBA {
	c, err := ParseHex(s)
	if err != nil {
		return fallback
	}
	return c
}

// Hex formats an opaque color as "#rrggbb" and a translucent one as "#rrggbbaa".
func Hex(c color.RGBA) string {
	if c.A == 255 {
		return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
	}
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
}

// WithAlpha returns c with its alpha replaced by a (0-1).
func WithAlpha(c color.RGBA, a float64) color.RGBA {
	if a < 0 {
		a = 0
	}
	if a > 1 {
		a = 1
	}
	c.A = uint8(a*255 + 0.5)
	return c
}

// Blend composites src over dst with src's alpha (non-premultiplied).
func Blend(dst, src color.RGBA) color.RGBA {
	if src.A == 255 {
		return src
	}
	if src.A == 0 {
		return dst
	}
	a := float64(src.A) / 255
	inv := 1 - a
	outA := a + float64(dst.A)/255*inv
	if outA == 0 {
		return color.RGBA{}
	}
	mix := func(s, d uint8) uint8 {
		v := (float64(s)*a + float64(d)*float64(dst.A)/255*inv) / outA
		return uint8(v + 0.5)
	}
	return color.RGBA{
		R: mix(src.R, dst.R),
		G: mix(src.G, dst.G),
		B: mix(src.B, dst.B),
		A: uint8(outA*255 + 0.5),
	}
}

// NRGBA reinterprets c, which this package treats as straight alpha, as a
// color.NRGBA for compositing onto premultiplied images.
func NRGBA(c color.RGBA) color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}
}
