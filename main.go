// Package main provides the entry point for the Chart Annotator application.
package main

import (
	"flag"
	"os"

	fyneapp "fyne.io/fyne/v2/app"
	"github.com/sirupsen/logrus"

	"chart-annotator/internal/app"
	"chart-annotator/internal/persist"
	"chart-annotator/internal/version"
	"chart-annotator/ui/mainwindow"
	"chart-annotator/ui/prefs"
)

const appID = "io.github.chart-annotator"

func main() {
	configPath := flag.String("config", "", "path to config.toml (default: user config dir)")
	flag.Parse()

	cfg, err := app.LoadConfig(*configPath)
	if err != nil {
		logrus.WithError(err).Fatal("failed to load config")
	}
	app.SetupLogging(cfg.Log)
	logrus.Infof("Starting Chart Annotator %s", version.String())

	backend, err := persist.Open(cfg.Store)
	if err != nil {
		logrus.WithError(err).Warn("annotation store unavailable, keeping annotations in memory")
		backend = persist.NewMemory()
	}
	defer func() {
		if err := backend.Close(); err != nil {
			logrus.WithError(err).Warn("failed to close annotation store")
		}
	}()

	appState := app.NewState(cfg)
	appPrefs := prefs.Load()
	appPrefs.Restore(appState)

	// A symbol on the command line wins over the saved one.
	if flag.NArg() > 0 {
		appState.SetSymbol(flag.Arg(0))
	}

	a := fyneapp.NewWithID(appID)
	a.Settings().SetTheme(&app.ChartTheme{})

	win := mainwindow.New(a, cfg, appState, appPrefs, backend)

	watcher := setupConfigReload(*configPath, win)
	if watcher != nil {
		defer watcher.Stop()
	}

	win.ShowAndRun()
}

// setupConfigReload reapplies log and style settings when the config file
// changes on disk.
func setupConfigReload(path string, win *mainwindow.MainWindow) *app.FileWatcher {
	if path == "" {
		p, err := app.DefaultConfigPath()
		if err != nil {
			return nil
		}
		path = p
	}
	if _, err := os.Stat(path); err != nil {
		logrus.WithField("path", path).Debug("config reload: no config file to watch")
		return nil
	}

	watcher := app.NewFileWatcher(path, app.DefaultWatchInterval, nil)
	watcher.OnChange(func() {
		cfg, err := app.LoadConfig(path)
		if err != nil {
			logrus.WithError(err).Warn("config reload failed")
			return
		}
		logrus.WithField("path", path).Info("config reloaded")
		win.ReloadConfig(cfg)
	})
	watcher.Start()
	return watcher
}
