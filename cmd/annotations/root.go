package main

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"chart-annotator/internal/app"
	"chart-annotator/internal/persist"
	"chart-annotator/internal/version"
)

var log = logrus.WithField("component", "cli")

// options are the persistent flags shared by every subcommand.
type options struct {
	configPath string
	store      string
	dir        string
	redisAddr  string
	sqlitePath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:          "annotations",
		Short:        "Inspect and manage persisted chart annotations",
		Version:      version.String(),
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "path to config.toml (default: user config dir)")
	flags.StringVar(&opts.store, "store", "", "store backend: memory, json, redis or sqlite")
	flags.StringVar(&opts.dir, "dir", "", "annotation directory for the json backend")
	flags.StringVar(&opts.redisAddr, "redis-addr", "", "redis address for the redis backend")
	flags.StringVar(&opts.sqlitePath, "sqlite-path", "", "database file for the sqlite backend")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level (overrides config)")

	root.AddCommand(
		newKeysCmd(opts),
		newShowCmd(opts),
		newExportCmd(opts),
		newImportCmd(opts),
		newClearCmd(opts),
		newRenderCmd(opts),
	)
	return root
}

// config loads the application config with flag overrides applied.
func (o *options) config() (app.Config, error) {
	cfg, err := app.LoadConfig(o.configPath)
	if err != nil {
		return cfg, err
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	app.SetupLogging(cfg.Log)

	if o.store != "" {
		cfg.Store.Backend = persist.Kind(o.store)
	}
	if o.dir != "" {
		cfg.Store.Directory = o.dir
	}
	if o.redisAddr != "" {
		cfg.Store.RedisAddr = o.redisAddr
	}
	if o.sqlitePath != "" {
		cfg.Store.SQLitePath = o.sqlitePath
	}
	return cfg, nil
}

// open returns the configured backend. The caller closes it.
func (o *options) open() (persist.Backend, app.Config, error) {
	cfg, err := o.config()
	if err != nil {
		return nil, cfg, err
	}
	backend, err := persist.Open(cfg.Store)
	if err != nil {
		return nil, cfg, errors.Wrap(err, "open annotation store")
	}
	log.WithField("backend", cfg.Store.Backend).Debug("opened annotation store")
	return backend, cfg, nil
}

func closeBackend(b persist.Backend) {
	if err := b.Close(); err != nil {
		log.WithError(err).Warn("failed to close annotation store")
	}
}
