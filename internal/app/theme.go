package app

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"

	"chart-annotator/internal/annotation"
	"chart-annotator/pkg/colorutil"
)

// ChartTheme is a dark theme tuned for candle charts.
type ChartTheme struct{}

var _ fyne.Theme = (*ChartTheme)(nil)

var (
	chartBackground = color.NRGBA{R: 0x0f, G: 0x17, B: 0x2a, A: 0xff}
	chartPrimary    = colorutil.NRGBA(colorutil.MustParseHex(annotation.DefaultStyle.StrokeColor))
)

func (t *ChartTheme) Color(name fyne.ThemeColorName, _ fyne.ThemeVariant) color.Color {
	switch name {
	case theme.ColorNameBackground:
		return chartBackground
	case theme.ColorNamePrimary:
		return chartPrimary
	case theme.ColorNameSelection:
		return color.NRGBA{R: 0x22, G: 0xd3, B: 0xee, A: 0x50}
	default:
		return theme.DefaultTheme().Color(name, theme.VariantDark)
	}
}

func (t *ChartTheme) Font(style fyne.TextStyle) fyne.Resource {
	return theme.DefaultTheme().Font(style)
}

func (t *ChartTheme) Icon(name fyne.ThemeIconName) fyne.Resource {
	return theme.DefaultTheme().Icon(name)
}

func (t *ChartTheme) Size(name fyne.ThemeSizeName) float32 {
	switch name {
	case theme.SizeNamePadding:
		return 4
	default:
		return theme.DefaultTheme().Size(name)
	}
}
