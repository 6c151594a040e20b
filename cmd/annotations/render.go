package main

import (
	"image"
	"image/png"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/image/draw"

	"chart-annotator/internal/app"
	"chart-annotator/internal/chart"
	"chart-annotator/internal/drawing"
	"chart-annotator/internal/render"
	"chart-annotator/ui/chartview"
)

type renderOptions struct {
	output string
	width  int
	height int
	bars   int
}

func newRenderCmd(opts *options) *cobra.Command {
	ro := &renderOptions{}
	cmd := &cobra.Command{
		Use:   "render KEY",
		Short: "Render the annotations under KEY over a generated chart to PNG",
		Long: "Render the annotations under KEY over a generated chart to PNG.\n" +
			"KEY is SYMBOL:PERIOD; the chart uses the same mock series as the GUI.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if ro.output == "" {
				return errors.New("an output file is required (-o)")
			}
			backend, cfg, err := opts.open()
			if err != nil {
				return err
			}
			defer closeBackend(backend)

			symbol, period := splitKey(args[0], cfg)
			if ro.bars <= 0 {
				ro.bars = cfg.Chart.Bars
			}
			img := renderKey(drawing.Params{
				StorageKey:  args[0],
				StrokeColor: cfg.Style.StrokeColor,
				StrokeWidth: cfg.Style.StrokeWidth,
				Backend:     backend,
				Width:       ro.width,
				Height:      ro.height,
			}, chart.MockCandles(symbol, period, ro.bars, time.Now()))

			return writePNG(ro.output, img)
		},
	}
	cmd.Flags().StringVarP(&ro.output, "output", "o", "", "output PNG file")
	cmd.Flags().IntVar(&ro.width, "width", 1024, "image width in pixels")
	cmd.Flags().IntVar(&ro.height, "height", 640, "image height in pixels")
	cmd.Flags().IntVar(&ro.bars, "bars", 0, "number of bars (default from config)")
	return cmd
}

// splitKey reads SYMBOL:PERIOD, falling back to the configured chart.
func splitKey(key string, cfg app.Config) (string, chart.Period) {
	symbol, period := cfg.Chart.Symbol, chart.Period(cfg.Chart.Period)
	if i := strings.LastIndex(key, ":"); i > 0 {
		symbol = key[:i]
		if p, err := chart.ParsePeriod(key[i+1:]); err == nil {
			period = p
		}
	} else if key != "" {
		symbol = key
	}
	return symbol, period
}

// renderKey paints bars and the overlay for p into one image.
func renderKey(p drawing.Params, bars []chart.Candle) *image.RGBA {
	vp := chart.NewViewport(float64(p.Width), float64(p.Height))
	vp.SetBars(bars)

	p.Scale, p.Series = vp, vp
	p.Scheduler = &render.ImmediateScheduler{}
	c := drawing.Mount(p)
	defer c.Unmount()
	c.RedrawNow()

	dst := image.NewRGBA(image.Rect(0, 0, p.Width, p.Height))
	chartview.Paint(dst, vp)
	draw.Draw(dst, dst.Bounds(), c.Surface(), image.Point{}, draw.Over)
	return dst
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return errors.Wrapf(err, "encode %s", path)
	}
	if err := f.Close(); err != nil {
		return errors.Wrapf(err, "close %s", path)
	}
	log.WithField("file", path).Info("rendered annotations")
	return nil
}
