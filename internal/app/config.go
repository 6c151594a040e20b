package app

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"chart-annotator/internal/annotation"
	"chart-annotator/internal/chart"
	"chart-annotator/internal/persist"
	"chart-annotator/internal/render"
	"chart-annotator/pkg/colorutil"
)

var log = logrus.WithField("component", "app")

// DotenvFile is read from the working directory when present.
const DotenvFile = ".env"

// Config is the application configuration.
type Config struct {
	Store persist.Config `toml:"store"`
	Log   LogConfig      `toml:"log"`
	Chart ChartConfig    `toml:"chart"`
	Style StyleConfig    `toml:"style"`
}

// LogConfig selects the log level and formatter.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// ChartConfig holds the host chart settings.
type ChartConfig struct {
	Symbol            string `toml:"symbol"`
	Period            string `toml:"period"`
	Bars              int    `toml:"bars"`
	RescaleDebounceMS int    `toml:"rescale_debounce_ms"`
	FrameIntervalMS   int    `toml:"frame_interval_ms"`
}

// RescaleDebounce returns the debounce as a duration.
func (c ChartConfig) RescaleDebounce() time.Duration {
	return time.Duration(c.RescaleDebounceMS) * time.Millisecond
}

// FrameInterval returns the frame interval as a duration.
func (c ChartConfig) FrameInterval() time.Duration {
	return time.Duration(c.FrameIntervalMS) * time.Millisecond
}

// StyleConfig is the initial stroke style for new annotations.
type StyleConfig struct {
	StrokeColor string  `toml:"stroke_color"`
	StrokeWidth float64 `toml:"stroke_width"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() Config {
	return Config{
		Store: persist.Config{Backend: persist.KindJSON},
		Log:   LogConfig{Level: "info", Format: "text"},
		Chart: ChartConfig{
			Symbol:            "AAPL",
			Period:            string(chart.Period1d),
			Bars:              300,
			RescaleDebounceMS: int(render.DefaultRescaleDebounce / time.Millisecond),
			FrameIntervalMS:   int(render.DefaultFrameInterval / time.Millisecond),
		},
		Style: StyleConfig{
			StrokeColor: annotation.DefaultStyle.StrokeColor,
			StrokeWidth: annotation.DefaultStyle.StrokeWidth,
		},
	}
}

// DefaultConfigPath returns $UserConfigDir/chart-annotator/config.toml.
func DefaultConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", errors.Wrap(err, "locate user config dir")
	}
	return filepath.Join(dir, "chart-annotator", "config.toml"), nil
}

// LoadConfig builds the configuration from defaults, the TOML file at path,
// a .env file in the working directory and ANNOTATOR_* environment
// variables, in that order. An empty path uses DefaultConfigPath; a missing
// file is not an error. Invalid values fall back to their defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	explicit := path != ""
	if !explicit {
		p, err := DefaultConfigPath()
		if err == nil {
			path = p
		}
	}
	if path != "" {
		if err := cfg.readFile(path, explicit); err != nil {
			return cfg, err
		}
	}

	if _, err := os.Stat(DotenvFile); err == nil {
		if err := godotenv.Load(DotenvFile); err != nil {
			log.WithError(err).Warn("error loading dotenv file")
		}
	}

	cfg.applyEnv()
	cfg.sanitize()
	return cfg, nil
}

func (c *Config) readFile(path string, explicit bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return nil
		}
		return errors.Wrapf(err, "read config %s", path)
	}
	if err := toml.Unmarshal(data, c); err != nil {
		return errors.Wrapf(err, "parse config %s", path)
	}
	log.WithField("path", path).Debug("loaded config file")
	return nil
}

// SaveConfig writes cfg as TOML to path, creating parent directories.
func SaveConfig(path string, cfg Config) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "encode config")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return errors.Wrap(err, "create config dir")
	}
	return errors.Wrapf(os.WriteFile(path, data, 0o600), "write config %s", path)
}

func envString(name string, dst *string) {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		*dst = v
	}
}

func envInt(name string, dst *int) {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Warnf("ignoring %s=%q: not an integer", name, v)
		return
	}
	*dst = n
}

func envFloat(name string, dst *float64) {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Warnf("ignoring %s=%q: not a number", name, v)
		return
	}
	*dst = f
}

func (c *Config) applyEnv() {
	var backend string
	envString("ANNOTATOR_STORE", &backend)
	if backend != "" {
		c.Store.Backend = persist.Kind(strings.ToLower(backend))
	}
	envString("ANNOTATOR_STORE_DIR", &c.Store.Directory)
	envString("ANNOTATOR_REDIS_ADDR", &c.Store.RedisAddr)
	envString("ANNOTATOR_REDIS_PASSWORD", &c.Store.RedisPassword)
	envInt("ANNOTATOR_REDIS_DB", &c.Store.RedisDB)
	envString("ANNOTATOR_REDIS_NAMESPACE", &c.Store.RedisNamespace)
	envString("ANNOTATOR_SQLITE_PATH", &c.Store.SQLitePath)

	envString("ANNOTATOR_LOG_LEVEL", &c.Log.Level)
	envString("ANNOTATOR_LOG_FORMAT", &c.Log.Format)

	envString("ANNOTATOR_SYMBOL", &c.Chart.Symbol)
	envString("ANNOTATOR_PERIOD", &c.Chart.Period)
	envInt("ANNOTATOR_BARS", &c.Chart.Bars)

	envString("ANNOTATOR_STROKE_COLOR", &c.Style.StrokeColor)
	envFloat("ANNOTATOR_STROKE_WIDTH", &c.Style.StrokeWidth)
}

// sanitize replaces invalid values with defaults.
func (c *Config) sanitize() {
	def := DefaultConfig()

	switch c.Store.Backend {
	case "":
		c.Store.Backend = def.Store.Backend
	case persist.KindMemory, persist.KindJSON, persist.KindRedis, persist.KindSQLite:
	default:
		log.Warnf("unsupported store backend %q, defaulting to %s", c.Store.Backend, def.Store.Backend)
		c.Store.Backend = def.Store.Backend
	}

	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		log.Warnf("unsupported log level %q, defaulting to %s", c.Log.Level, def.Log.Level)
		c.Log.Level = def.Log.Level
	}
	c.Log.Format = strings.ToLower(c.Log.Format)
	if c.Log.Format != "text" && c.Log.Format != "json" {
		log.Warnf("unsupported log format %q, defaulting to %s", c.Log.Format, def.Log.Format)
		c.Log.Format = def.Log.Format
	}

	c.Chart.Symbol = strings.ToUpper(strings.TrimSpace(c.Chart.Symbol))
	if c.Chart.Symbol == "" {
		c.Chart.Symbol = def.Chart.Symbol
	}
	if _, err := chart.ParsePeriod(c.Chart.Period); err != nil {
		log.Warnf("unsupported period %q, defaulting to %s", c.Chart.Period, def.Chart.Period)
		c.Chart.Period = def.Chart.Period
	}
	if c.Chart.Bars <= 0 {
		c.Chart.Bars = def.Chart.Bars
	}
	if c.Chart.RescaleDebounceMS <= 0 {
		c.Chart.RescaleDebounceMS = def.Chart.RescaleDebounceMS
	}
	if c.Chart.FrameIntervalMS <= 0 {
		c.Chart.FrameIntervalMS = def.Chart.FrameIntervalMS
	}

	if _, err := colorutil.ParseHex(c.Style.StrokeColor); err != nil {
		log.Warnf("unsupported stroke color %q, defaulting to %s", c.Style.StrokeColor, def.Style.StrokeColor)
		c.Style.StrokeColor = def.Style.StrokeColor
	}
	if c.Style.StrokeWidth <= 0 {
		c.Style.StrokeWidth = def.Style.StrokeWidth
	}
}

// SetupLogging configures the standard logrus logger.
func SetupLogging(cfg LogConfig) {
	logger := logrus.StandardLogger()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if strings.EqualFold(cfg.Format, "json") {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	logger.SetOutput(os.Stderr)
}
