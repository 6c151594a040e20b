package chartview

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"chart-annotator/internal/chart"
	"chart-annotator/pkg/colorutil"
)

// Colors used when painting candles.
var (
	Background = color.RGBA{R: 0x0f, G: 0x17, B: 0x2a, A: 0xff}
	GridColor  = color.RGBA{R: 0x1e, G: 0x29, B: 0x3b, A: 0xff}
	LabelColor = color.RGBA{R: 0x94, G: 0xa3, B: 0xb8, A: 0xff}
	UpColor    = colorutil.MustParseHex("#10b981")
	DownColor  = colorutil.MustParseHex("#ef4444")
)

const (
	// fraction of the bar slot covered by the candle body
	bodyRatio  = 0.7
	labelPadX  = 4
	targetRows = 6
)

// NiceStep returns a round grid step of about span/rows: 1, 2 or 5 times a
// power of ten.
func NiceStep(span float64, rows int) float64 {
	if span <= 0 || rows <= 0 || math.IsNaN(span) || math.IsInf(span, 0) {
		return 0
	}
	raw := span / float64(rows)
	mag := math.Pow(10, math.Floor(math.Log10(raw)))
	switch norm := raw / mag; {
	case norm < 1.5:
		return mag
	case norm < 3.5:
		return 2 * mag
	case norm < 7.5:
		return 5 * mag
	}
	return 10 * mag
}

// PriceTicks returns the grid prices inside r.
func PriceTicks(r chart.Range, rows int) []float64 {
	step := NiceStep(r.Span(), rows)
	if step == 0 {
		return nil
	}
	var ticks []float64
	for p := math.Ceil(r.From/step) * step; p <= r.To; p += step {
		ticks = append(ticks, p)
	}
	return ticks
}

func fill(dst *image.RGBA, r image.Rectangle, c color.Color) {
	draw.Draw(dst, r.Intersect(dst.Bounds()), image.NewUniform(c), image.Point{}, draw.Src)
}

// Paint renders the candles visible in vp onto dst, with horizontal grid
// lines and price labels along the right edge.
func Paint(dst *image.RGBA, vp *chart.Viewport) {
	fill(dst, dst.Bounds(), Background)

	r, ok := vp.VisibleLogicalRange()
	if !ok {
		return
	}
	width := dst.Bounds().Dx()

	for _, price := range PriceTicks(vp.PriceRange(), targetRows) {
		y, ok := vp.PriceToCoordinate(price)
		if !ok {
			continue
		}
		fill(dst, image.Rect(0, int(y), width, int(y)+1), GridColor)
	}

	bars := vp.Bars()
	slot := float64(width) / r.Span()
	body := int(math.Max(1, math.Floor(slot*bodyRatio)))

	from := int(math.Max(0, math.Floor(r.From)))
	to := int(math.Min(float64(len(bars)-1), math.Ceil(r.To)))
	for i := from; i <= to; i++ {
		paintCandle(dst, vp, float64(i), bars[i], body)
	}

	for _, price := range PriceTicks(vp.PriceRange(), targetRows) {
		y, ok := vp.PriceToCoordinate(price)
		if !ok {
			continue
		}
		label := chart.FormatPrice(price)
		d := &font.Drawer{Face: basicfont.Face7x13}
		x := width - d.MeasureString(label).Round() - labelPadX
		drawLabel(dst, label, x, int(y)-2, LabelColor)
	}
}

func paintCandle(dst *image.RGBA, vp *chart.Viewport, logical float64, c chart.Candle, body int) {
	x, ok := vp.LogicalToCoordinate(logical)
	if !ok {
		return
	}
	yHigh, ok1 := vp.PriceToCoordinate(c.High)
	yLow, ok2 := vp.PriceToCoordinate(c.Low)
	yOpen, ok3 := vp.PriceToCoordinate(c.Open)
	yClose, ok4 := vp.PriceToCoordinate(c.Close)
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return
	}

	col := UpColor
	if c.Close < c.Open {
		col = DownColor
	}
	cx := int(math.Round(x))
	fill(dst, image.Rect(cx, int(yHigh), cx+1, int(yLow)+1), col)

	top, bottom := int(math.Min(yOpen, yClose)), int(math.Max(yOpen, yClose))
	if bottom == top {
		bottom++
	}
	left := cx - body/2
	fill(dst, image.Rect(left, top, left+body, bottom), col)
}

func drawLabel(dst *image.RGBA, label string, x, baseline int, c color.Color) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, baseline),
	}
	d.DrawString(label)
}
