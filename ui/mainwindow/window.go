// Package mainwindow provides the main application window.
package mainwindow

import (
	"fmt"
	"image/color"
	"strconv"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"github.com/sirupsen/logrus"

	"chart-annotator/internal/annotation"
	"chart-annotator/internal/app"
	"chart-annotator/internal/chart"
	"chart-annotator/internal/drawing"
	"chart-annotator/internal/interact"
	"chart-annotator/internal/persist"
	"chart-annotator/internal/render"
	"chart-annotator/internal/version"
	"chart-annotator/pkg/colorutil"
	"chart-annotator/ui/chartview"
	"chart-annotator/ui/dialogs"
	"chart-annotator/ui/overlay"
	"chart-annotator/ui/panels"
	"chart-annotator/ui/prefs"
)

var log = logrus.WithField("component", "mainwindow")

const (
	appTitle = "Chart Annotator"

	initialWidth   = 1024
	initialHeight  = 640
	sidePanelWidth = 260
)

var (
	toolLabels = map[interact.Tool]string{
		interact.ToolNone:   "Cursor",
		interact.ToolSelect: "Select",
		interact.ToolLine:   "Line",
		interact.ToolRect:   "Rect",
		interact.ToolCircle: "Circle",
		interact.ToolErase:  "Erase",
	}
	widthOptions = []string{"1", "2", "3", "4", "6"}
)

// MainWindow is the primary application window.
type MainWindow struct {
	fyne.Window
	cfg     app.Config
	state   *app.State
	prefs   *prefs.Prefs
	backend persist.Backend

	chart   *chartview.ChartView
	overlay *overlay.Overlay
	canvas  *drawing.Canvas
	panel   *panels.AnnotationsPanel

	statusBar    *widget.Label
	symbolEntry  *widget.Entry
	periodSelect *widget.Select
	colorSelect  *widget.Select
	widthSelect  *widget.Select
	visibleCheck *widget.Check
	toolButtons  map[interact.Tool]*widget.Button
}

// New creates the main window. backend may be nil to keep annotations in
// memory only.
func New(fyneApp fyne.App, cfg app.Config, state *app.State, p *prefs.Prefs, backend persist.Backend) *MainWindow {
	win := fyneApp.NewWindow(appTitle)
	win.Resize(fyne.NewSize(initialWidth, initialHeight))

	mw := &MainWindow{
		Window:      win,
		cfg:         cfg,
		state:       state,
		prefs:       p,
		backend:     backend,
		toolButtons: make(map[interact.Tool]*widget.Button),
	}

	mw.setupUI()
	mw.setupMenus()
	mw.setupEventHandlers()
	mw.loadCandles()

	win.SetCloseIntercept(mw.quit)
	return mw
}

// quit saves preferences and tears the overlay down before closing.
func (mw *MainWindow) quit() {
	mw.SavePreferences()
	mw.panel.Bind(nil)
	mw.canvas.Unmount()
	mw.Window.Close()
}

// setupUI creates the main UI layout.
func (mw *MainWindow) setupUI() {
	viewport := chart.NewViewport(initialWidth, initialHeight)
	mw.chart = chartview.New(viewport)
	mw.overlay = overlay.New(mw.chart)

	visible := mw.state.Visible()
	style := mw.state.Style()
	mw.canvas = drawing.Mount(drawing.Params{
		Scale:           viewport,
		Series:          viewport,
		StorageKey:      mw.state.StorageKey(),
		Tool:            mw.state.Tool(),
		StrokeColor:     style.StrokeColor,
		StrokeWidth:     style.StrokeWidth,
		Visible:         &visible,
		OnFinishDraw:    func() { mw.state.SetTool(interact.ToolNone) },
		OnSetTool:       mw.state.SetTool,
		OnFrame:         func(render.Outcome) { mw.overlay.Refresh() },
		Backend:         mw.backend,
		Capture:         mw.overlay,
		Width:           initialWidth,
		Height:          initialHeight,
		FrameInterval:   mw.cfg.Chart.FrameInterval(),
		RescaleDebounce: mw.cfg.Chart.RescaleDebounce(),
	})
	mw.overlay.Attach(mw.canvas)
	mw.overlay.SetContextMenu(fyne.NewMenu("",
		fyne.NewMenuItem("Edit Selected...", mw.onEditSelected),
		fyne.NewMenuItem("Fit Content", mw.chart.FitContent),
		fyne.NewMenuItem("Toggle Annotations", mw.onToggleVisible),
	))
	mw.chart.OnResize(mw.canvas.Resize)

	mw.panel = panels.NewAnnotationsPanel()
	mw.panel.SetWindow(mw.Window)
	mw.panel.OnEdit(mw.editShape)
	mw.panel.Bind(mw.canvas.Store())

	mw.statusBar = widget.NewLabel("Ready")

	spacer := canvas.NewRectangle(color.Transparent)
	spacer.SetMinSize(fyne.NewSize(sidePanelWidth, 0))
	side := container.NewStack(spacer, mw.panel.Container())
	content := container.NewBorder(
		mw.createToolbar(),                // top
		container.NewPadded(mw.statusBar), // bottom
		nil,                               // left
		side,                              // right
		container.NewStack(mw.chart, mw.overlay),
	)
	mw.SetContent(content)
	mw.refreshTitle()
}

// createToolbar creates the symbol, period, tool and style controls.
func (mw *MainWindow) createToolbar() fyne.CanvasObject {
	mw.symbolEntry = widget.NewEntry()
	mw.symbolEntry.SetText(mw.state.Symbol())
	mw.symbolEntry.OnSubmitted = mw.state.SetSymbol

	periods := make([]string, len(chart.Periods))
	for i, p := range chart.Periods {
		periods[i] = string(p)
	}
	mw.periodSelect = widget.NewSelect(periods, func(s string) {
		if p, err := chart.ParsePeriod(s); err == nil {
			mw.state.SetPeriod(p)
		}
	})
	mw.periodSelect.SetSelected(string(mw.state.Period()))

	tools := container.NewHBox()
	for _, t := range interact.Tools {
		t := t
		btn := widget.NewButton(toolLabels[t], func() { mw.state.SetTool(t) })
		mw.toolButtons[t] = btn
		tools.Add(btn)
	}
	mw.refreshToolButtons()

	style := mw.state.Style()
	mw.colorSelect = widget.NewSelect(colorutil.Palette, func(c string) {
		mw.state.SetStyle(c, 0)
	})
	mw.colorSelect.SetSelected(style.StrokeColor)

	mw.widthSelect = widget.NewSelect(widthOptions, func(s string) {
		if w, err := strconv.ParseFloat(s, 64); err == nil {
			mw.state.SetStyle("", w)
		}
	})
	mw.widthSelect.SetSelected(strconv.FormatFloat(style.StrokeWidth, 'f', -1, 64))

	mw.visibleCheck = widget.NewCheck("Show", mw.state.SetVisible)
	mw.visibleCheck.SetChecked(mw.state.Visible())

	symbol := container.NewGridWrap(fyne.NewSize(110, mw.symbolEntry.MinSize().Height), mw.symbolEntry)
	return container.NewHBox(
		symbol,
		mw.periodSelect,
		widget.NewSeparator(),
		tools,
		widget.NewSeparator(),
		mw.colorSelect,
		mw.widthSelect,
		mw.visibleCheck,
	)
}

// setupMenus creates the application menus.
func (mw *MainWindow) setupMenus() {
	quitItem := fyne.NewMenuItem("Quit", mw.quit)
	quitItem.IsQuit = true
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Export Annotations...", mw.onExport),
		fyne.NewMenuItemSeparator(),
		quitItem,
	)

	viewMenu := fyne.NewMenu("View",
		fyne.NewMenuItem("Fit Content", mw.chart.FitContent),
		fyne.NewMenuItem("Toggle Annotations", mw.onToggleVisible),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Edit Selected...", mw.onEditSelected),
	)

	toolItems := make([]*fyne.MenuItem, 0, len(interact.Tools))
	for _, t := range interact.Tools {
		t := t
		toolItems = append(toolItems, fyne.NewMenuItem(toolLabels[t], func() { mw.state.SetTool(t) }))
	}
	toolsMenu := fyne.NewMenu("Tools", toolItems...)

	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("About", mw.onAbout),
	)

	mw.SetMainMenu(fyne.NewMainMenu(fileMenu, viewMenu, toolsMenu, helpMenu))
}

// setupEventHandlers registers for application events.
func (mw *MainWindow) setupEventHandlers() {
	onChartChanged := func(interface{}) {
		mw.loadCandles()
		mw.canvas.SetStorageKey(mw.state.StorageKey())
		mw.panel.Bind(mw.canvas.Store())
		mw.symbolEntry.SetText(mw.state.Symbol())
		mw.periodSelect.SetSelected(string(mw.state.Period()))
		mw.refreshTitle()
	}
	mw.state.On(app.EventSymbolChanged, onChartChanged)
	mw.state.On(app.EventPeriodChanged, onChartChanged)

	mw.state.On(app.EventToolChanged, func(data interface{}) {
		if t, ok := data.(interact.Tool); ok {
			mw.canvas.SetTool(t)
			mw.refreshToolButtons()
		}
	})

	mw.state.On(app.EventStyleChanged, func(data interface{}) {
		if s, ok := data.(annotation.Style); ok {
			mw.canvas.ApplyStyle(s.StrokeColor, s.StrokeWidth)
		}
	})

	mw.state.On(app.EventVisibilityChanged, func(data interface{}) {
		if v, ok := data.(bool); ok {
			mw.canvas.SetVisible(v)
			mw.visibleCheck.SetChecked(v)
		}
	})
}

func (mw *MainWindow) refreshTitle() {
	mw.SetTitle(fmt.Sprintf("%s - %s %s", appTitle, mw.state.Symbol(), mw.state.Period()))
}

func (mw *MainWindow) refreshToolButtons() {
	active := mw.state.Tool()
	for t, btn := range mw.toolButtons {
		if t == active {
			btn.Importance = widget.HighImportance
		} else {
			btn.Importance = widget.MediumImportance
		}
		btn.Refresh()
	}
}

// loadCandles fills the chart with generated bars for the current symbol.
func (mw *MainWindow) loadCandles() {
	symbol, period := mw.state.Symbol(), mw.state.Period()
	bars := chart.MockCandles(symbol, period, mw.cfg.Chart.Bars, time.Now())
	mw.chart.SetBars(bars)
	log.WithFields(logrus.Fields{"symbol": symbol, "period": period, "bars": len(bars)}).Info("loaded candles")
	mw.updateStatus(quoteLine(symbol, bars))
}

// quoteLine summarizes the last bar.
func quoteLine(symbol string, bars []chart.Candle) string {
	if len(bars) == 0 {
		return symbol + ": no data"
	}
	last := bars[len(bars)-1]
	prev := last.Open
	if len(bars) > 1 {
		prev = bars[len(bars)-2].Close
	}
	change := last.Close - prev
	return fmt.Sprintf("%s  %s  %s (%s)  Vol %s",
		symbol,
		chart.FormatPrice(last.Close),
		chart.FormatChange(change),
		chart.FormatChangePercent(change, prev),
		chart.FormatVolume(last.Volume))
}

// updateStatus updates the status bar text.
func (mw *MainWindow) updateStatus(text string) {
	mw.statusBar.SetText(text)
}

// SavePreferences records the current state to the preferences file.
func (mw *MainWindow) SavePreferences() {
	mw.prefs.Capture(mw.state)
	if err := mw.prefs.Save(); err != nil {
		log.WithError(err).Warn("failed to save preferences")
	}
}

// ReloadConfig applies the style and log settings of a changed config file.
func (mw *MainWindow) ReloadConfig(cfg app.Config) {
	app.SetupLogging(cfg.Log)
	mw.state.SetStyle(cfg.Style.StrokeColor, cfg.Style.StrokeWidth)
	mw.colorSelect.SetSelected(mw.state.Style().StrokeColor)
	mw.widthSelect.SetSelected(strconv.FormatFloat(mw.state.Style().StrokeWidth, 'f', -1, 64))
}

func (mw *MainWindow) onToggleVisible() {
	mw.state.SetVisible(!mw.state.Visible())
}

func (mw *MainWindow) onEditSelected() {
	if s, ok := mw.canvas.Store().SelectedShape(); ok {
		mw.editShape(s)
	}
}

// editShape opens the edit dialog for s. Edits are dropped if the storage
// key changed while the dialog was open.
func (mw *MainWindow) editShape(s annotation.Shape) {
	store := mw.canvas.Store()
	dialogs.NewShapeEditDialog(s, mw.Window,
		func(edited annotation.Shape) {
			if store == mw.canvas.Store() && store.Replace(edited) {
				mw.updateStatus("Updated " + string(edited.Kind))
			}
		},
		func(id string) {
			if store == mw.canvas.Store() {
				store.Erase(id)
			}
		},
	).Show()
}

func (mw *MainWindow) onExport() {
	data, err := annotation.Encode(mw.canvas.Store().Shapes())
	if err != nil {
		dialog.ShowError(err, mw.Window)
		return
	}
	save := dialog.NewFileSave(func(w fyne.URIWriteCloser, err error) {
		if err != nil {
			dialog.ShowError(err, mw.Window)
			return
		}
		if w == nil {
			return
		}
		defer w.Close()
		if _, err := w.Write(data); err != nil {
			dialog.ShowError(err, mw.Window)
			return
		}
		mw.updateStatus("Exported annotations to " + w.URI().Path())
	}, mw.Window)
	save.SetFileName(mw.state.Symbol() + "-" + string(mw.state.Period()) + ".json")
	save.Show()
}

func (mw *MainWindow) onAbout() {
	dialog.ShowInformation("About "+appTitle,
		fmt.Sprintf("%s v%s\n\n"+
			"Draw lines, rectangles and circles over candle charts.\n\n"+
			"Built: %s\n"+
			"Commit: %s",
			appTitle, version.Version, version.BuildTime, version.GitCommit),
		mw.Window)
}
