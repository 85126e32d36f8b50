// Package config merges APP_* environment variables and command line flags
// into the runtime configuration.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/skobkin/ryzenmon/internal/capture"
	"github.com/skobkin/ryzenmon/internal/pmtable"
	"github.com/skobkin/ryzenmon/internal/render"
	"github.com/skobkin/ryzenmon/internal/smu"
)

// ErrHelp is returned by Load when -h/--help was requested.
var ErrHelp = pflag.ErrHelp

// Config represents runtime configuration.
type Config struct {
	Format       string
	Interval     time.Duration
	Once         bool
	ShowDisabled bool
	Force        bool
	// PMVersion pins the table layout; zero means use what the source reports.
	PMVersion uint32
	File      string
	// LayoutsDir holds extra YAML layouts added to the built-in ones.
	LayoutsDir string

	RecordDir     string
	RecordCodec   capture.Codec
	HistoryDir    string
	HistoryFrames int

	Serve            bool
	ListenAddr       string
	AllowedOrigins   []string
	EnablePrometheus bool
	EnablePprof      bool
	WS               WebsocketConfig

	LogLevel    slog.Level
	SMURoot     string
	SysfsRoot   string
	ShowVersion bool
}

// WebsocketConfig captures tunables for WebSocket handling.
type WebsocketConfig struct {
	MaxClients   int
	WriteTimeout time.Duration
}

// Defaults returns the configuration used when nothing is overridden.
func Defaults() Config {
	return Config{
		Format:         "table",
		Interval:       time.Second,
		RecordCodec:    capture.Zstd,
		HistoryFrames:  3600,
		ListenAddr:     ":8080",
		AllowedOrigins: []string{"*"},
		LogLevel:       slog.LevelInfo,
		SMURoot:        smu.DefaultRoot,
		SysfsRoot:      "/sys",
		WS: WebsocketConfig{
			MaxClients:   64,
			WriteTimeout: 3 * time.Second,
		},
	}
}

// Load applies environment variables over the defaults, then args (without
// the program name) over both.
func Load(args []string) (Config, error) {
	cfg := Defaults()
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	fs, raw := newFlagSet(&cfg)
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if rest := fs.Args(); len(rest) > 0 {
		return Config{}, fmt.Errorf("unexpected argument: %s", rest[0])
	}
	if err := raw.apply(fs, &cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Usage returns the flag help text.
func Usage() string {
	cfg := Defaults()
	fs, _ := newFlagSet(&cfg)
	return fs.FlagUsages()
}

// rawFlags holds flag values that need parsing after pflag is done.
type rawFlags struct {
	interval    string
	pmVersion   string
	recordCodec string
	logLevel    string
}

func newFlagSet(cfg *Config) (*pflag.FlagSet, *rawFlags) {
	raw := &rawFlags{
		interval:    cfg.Interval.String(),
		recordCodec: cfg.RecordCodec.String(),
		logLevel:    strings.ToLower(cfg.LogLevel.String()),
	}
	if cfg.PMVersion != 0 {
		raw.pmVersion = pmtable.FormatVersion(cfg.PMVersion)
	}

	fs := pflag.NewFlagSet("ryzenmon", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.SortFlags = false
	fs.StringVarP(&cfg.Format, "format", "o", cfg.Format, "output format: "+strings.Join(render.Formats, ", "))
	fs.StringVarP(&raw.interval, "interval", "u", raw.interval, "update interval, seconds (may be fractional) or a duration like 500ms")
	fs.BoolVarP(&cfg.Once, "once", "1", cfg.Once, "print one frame and exit")
	fs.BoolVarP(&cfg.ShowDisabled, "show-disabled", "d", cfg.ShowDisabled, "show fused-off cores")
	fs.BoolVarP(&cfg.Force, "force", "f", cfg.Force, "monitor even if the PM table version is not supported")
	fs.StringVar(&raw.pmVersion, "pm-version", raw.pmVersion, "PM table version to decode with, e.g. 0x380804")
	fs.StringVar(&cfg.LayoutsDir, "layouts", cfg.LayoutsDir, "directory of extra PM table layouts (YAML)")
	fs.StringVar(&cfg.File, "file", cfg.File, "read a captured PM table instead of the live driver (requires --pm-version)")
	fs.StringVar(&cfg.RecordDir, "record-dir", cfg.RecordDir, "write every distinct raw sample into this directory")
	fs.StringVar(&raw.recordCodec, "record-codec", raw.recordCodec, "capture compression: raw, gzip, zstd or lz4")
	fs.StringVar(&cfg.HistoryDir, "history", cfg.HistoryDir, "write computed metrics history blobs into this directory")
	fs.IntVar(&cfg.HistoryFrames, "history-frames", cfg.HistoryFrames, "frames per history blob")
	fs.BoolVar(&cfg.Serve, "serve", cfg.Serve, "serve snapshots over HTTP instead of printing them")
	fs.StringVar(&cfg.ListenAddr, "listen", cfg.ListenAddr, "HTTP listen address for --serve")
	fs.BoolVar(&cfg.EnablePrometheus, "prometheus", cfg.EnablePrometheus, "expose /metrics in serve mode")
	fs.StringVar(&raw.logLevel, "log-level", raw.logLevel, "log level: debug, info, warn or error")
	fs.StringVar(&cfg.SMURoot, "smu-root", cfg.SMURoot, "ryzen_smu sysfs directory")
	fs.BoolVarP(&cfg.ShowVersion, "version", "v", cfg.ShowVersion, "print version and exit")
	return fs, raw
}

func (r *rawFlags) apply(fs *pflag.FlagSet, cfg *Config) error {
	if fs.Changed("interval") {
		d, err := parseInterval(r.interval)
		if err != nil {
			return fmt.Errorf("parse --interval: %w", err)
		}
		cfg.Interval = d
	}
	if fs.Changed("pm-version") {
		v, err := pmtable.ParseVersion(r.pmVersion)
		if err != nil {
			return fmt.Errorf("parse --pm-version: %w", err)
		}
		cfg.PMVersion = v
	}
	if fs.Changed("record-codec") {
		codec, err := capture.ParseCodec(r.recordCodec)
		if err != nil {
			return fmt.Errorf("parse --record-codec: %w", err)
		}
		cfg.RecordCodec = codec
	}
	if fs.Changed("log-level") {
		level, err := parseLogLevel(r.logLevel)
		if err != nil {
			return fmt.Errorf("parse --log-level: %w", err)
		}
		cfg.LogLevel = level
	}
	return nil
}

func (c *Config) validate() error {
	c.Format = strings.ToLower(strings.TrimSpace(c.Format))
	if c.Format == "box" {
		c.Format = "table"
	}
	if !slices.Contains(render.Formats, c.Format) {
		return fmt.Errorf("unknown output format %q", c.Format)
	}
	if c.Interval <= 0 {
		return errors.New("interval must be > 0")
	}
	if c.HistoryFrames <= 0 {
		return errors.New("history frames must be > 0")
	}
	if c.File != "" && c.PMVersion == 0 {
		return errors.New("--file requires --pm-version")
	}
	if c.Serve && c.Once {
		return errors.New("--serve and --once are mutually exclusive")
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if value := strings.TrimSpace(os.Getenv("APP_FORMAT")); value != "" {
		cfg.Format = value
	}

	if value := strings.TrimSpace(os.Getenv("APP_INTERVAL")); value != "" {
		d, err := parseInterval(value)
		if err != nil {
			return fmt.Errorf("parse APP_INTERVAL: %w", err)
		}
		cfg.Interval = d
	}

	if value := strings.TrimSpace(os.Getenv("APP_SHOW_DISABLED")); value != "" {
		enabled, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("parse APP_SHOW_DISABLED: %w", err)
		}
		cfg.ShowDisabled = enabled
	}

	if value := strings.TrimSpace(os.Getenv("APP_PM_VERSION")); value != "" {
		v, err := pmtable.ParseVersion(value)
		if err != nil {
			return fmt.Errorf("parse APP_PM_VERSION: %w", err)
		}
		cfg.PMVersion = v
	}

	if value := strings.TrimSpace(os.Getenv("APP_LAYOUTS_DIR")); value != "" {
		cfg.LayoutsDir = value
	}

	if value := strings.TrimSpace(os.Getenv("APP_RECORD_DIR")); value != "" {
		cfg.RecordDir = value
	}

	if value := strings.TrimSpace(os.Getenv("APP_RECORD_CODEC")); value != "" {
		codec, err := capture.ParseCodec(value)
		if err != nil {
			return fmt.Errorf("parse APP_RECORD_CODEC: %w", err)
		}
		cfg.RecordCodec = codec
	}

	if value := strings.TrimSpace(os.Getenv("APP_HISTORY_DIR")); value != "" {
		cfg.HistoryDir = value
	}

	if value := strings.TrimSpace(os.Getenv("APP_HISTORY_FRAMES")); value != "" {
		frames, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("parse APP_HISTORY_FRAMES: %w", err)
		}
		if frames <= 0 {
			return fmt.Errorf("APP_HISTORY_FRAMES must be > 0")
		}
		cfg.HistoryFrames = frames
	}

	if value := strings.TrimSpace(os.Getenv("APP_LISTEN_ADDR")); value != "" {
		cfg.ListenAddr = value
	}

	if value := strings.TrimSpace(os.Getenv("APP_ALLOWED_ORIGINS")); value != "" {
		origins := splitAndTrim(value, ",")
		if len(origins) == 0 {
			return fmt.Errorf("APP_ALLOWED_ORIGINS must not be empty")
		}
		cfg.AllowedOrigins = origins
	}

	if value := strings.TrimSpace(os.Getenv("APP_ENABLE_PROMETHEUS")); value != "" {
		enabled, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("parse APP_ENABLE_PROMETHEUS: %w", err)
		}
		cfg.EnablePrometheus = enabled
	}

	if value := strings.TrimSpace(os.Getenv("APP_ENABLE_PPROF")); value != "" {
		enabled, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("parse APP_ENABLE_PPROF: %w", err)
		}
		cfg.EnablePprof = enabled
	}

	if value := strings.TrimSpace(os.Getenv("APP_LOG_LEVEL")); value != "" {
		level, err := parseLogLevel(value)
		if err != nil {
			return fmt.Errorf("parse APP_LOG_LEVEL: %w", err)
		}
		cfg.LogLevel = level
	}

	if value := strings.TrimSpace(os.Getenv("APP_SMU_ROOT")); value != "" {
		cfg.SMURoot = value
	}

	if value := strings.TrimSpace(os.Getenv("APP_SYSFS_ROOT")); value != "" {
		cfg.SysfsRoot = value
	}

	if value := strings.TrimSpace(os.Getenv("APP_WS_MAX_CLIENTS")); value != "" {
		maxClients, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("parse APP_WS_MAX_CLIENTS: %w", err)
		}
		if maxClients <= 0 {
			return fmt.Errorf("APP_WS_MAX_CLIENTS must be > 0")
		}
		cfg.WS.MaxClients = maxClients
	}

	if value := strings.TrimSpace(os.Getenv("APP_WS_WRITE_TIMEOUT")); value != "" {
		timeout, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("parse APP_WS_WRITE_TIMEOUT: %w", err)
		}
		if timeout <= 0 {
			return fmt.Errorf("APP_WS_WRITE_TIMEOUT must be > 0")
		}
		cfg.WS.WriteTimeout = timeout
	}

	return nil
}

// parseInterval accepts plain seconds ("2", "0.5") or a Go duration ("250ms").
func parseInterval(input string) (time.Duration, error) {
	value := strings.TrimSpace(input)
	if value == "" {
		return 0, fmt.Errorf("empty interval")
	}
	if seconds, err := strconv.ParseFloat(value, 64); err == nil {
		d := time.Duration(seconds * float64(time.Second))
		if d <= 0 {
			return 0, fmt.Errorf("interval must be > 0")
		}
		return d, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("interval must be > 0")
	}
	return d, nil
}

func splitAndTrim(value, sep string) []string {
	raw := strings.Split(value, sep)
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		trimmed := strings.TrimSpace(item)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func parseLogLevel(input string) (slog.Level, error) {
	switch strings.ToUpper(strings.TrimSpace(input)) {
	case "DEBUG":
		return slog.LevelDebug, nil
	case "INFO":
		return slog.LevelInfo, nil
	case "WARN", "WARNING":
		return slog.LevelWarn, nil
	case "ERROR":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unsupported log level %q", input)
	}
}
