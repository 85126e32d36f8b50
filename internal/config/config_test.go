package config

import (
	"errors"
	"log/slog"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/skobkin/ryzenmon/internal/capture"
	"github.com/skobkin/ryzenmon/internal/smu"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Format != "table" {
		t.Fatalf("unexpected Format %q", cfg.Format)
	}
	if cfg.Interval != time.Second {
		t.Fatalf("unexpected Interval %s", cfg.Interval)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Fatalf("unexpected LogLevel %v", cfg.LogLevel)
	}
	if cfg.SMURoot != smu.DefaultRoot {
		t.Fatalf("unexpected SMURoot %q", cfg.SMURoot)
	}
	if cfg.SysfsRoot != "/sys" {
		t.Fatalf("unexpected SysfsRoot %q", cfg.SysfsRoot)
	}
	if cfg.ListenAddr != ":8080" {
		t.Fatalf("unexpected ListenAddr %q", cfg.ListenAddr)
	}
	if cfg.PMVersion != 0 || cfg.Force || cfg.ShowDisabled || cfg.Once || cfg.Serve {
		t.Fatalf("unexpected toggles in defaults: %+v", cfg)
	}
	if cfg.RecordCodec != capture.Zstd {
		t.Fatalf("unexpected RecordCodec %s", cfg.RecordCodec)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("APP_FORMAT", "ndjson")
	t.Setenv("APP_INTERVAL", "0.25")
	t.Setenv("APP_SHOW_DISABLED", "true")
	t.Setenv("APP_PM_VERSION", "0x380804")
	t.Setenv("APP_LAYOUTS_DIR", "/tmp/layouts")
	t.Setenv("APP_RECORD_DIR", "/tmp/rec")
	t.Setenv("APP_RECORD_CODEC", "lz4")
	t.Setenv("APP_HISTORY_DIR", "/tmp/hist")
	t.Setenv("APP_HISTORY_FRAMES", "60")
	t.Setenv("APP_LISTEN_ADDR", "127.0.0.1:9000")
	t.Setenv("APP_ALLOWED_ORIGINS", "https://example.com, https://other.test")
	t.Setenv("APP_ENABLE_PROMETHEUS", "true")
	t.Setenv("APP_ENABLE_PPROF", "true")
	t.Setenv("APP_LOG_LEVEL", "debug")
	t.Setenv("APP_SMU_ROOT", "/tmp/smu")
	t.Setenv("APP_SYSFS_ROOT", "/tmp/sys")
	t.Setenv("APP_WS_MAX_CLIENTS", "8")
	t.Setenv("APP_WS_WRITE_TIMEOUT", "10s")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Format != "ndjson" {
		t.Fatalf("Format override failed, got %q", cfg.Format)
	}
	if cfg.Interval != 250*time.Millisecond {
		t.Fatalf("Interval override failed, got %s", cfg.Interval)
	}
	if !cfg.ShowDisabled {
		t.Fatalf("ShowDisabled override failed")
	}
	if cfg.PMVersion != 0x380804 {
		t.Fatalf("PMVersion override failed, got %#x", cfg.PMVersion)
	}
	if cfg.LayoutsDir != "/tmp/layouts" {
		t.Fatalf("LayoutsDir override failed, got %q", cfg.LayoutsDir)
	}
	if cfg.RecordDir != "/tmp/rec" || cfg.RecordCodec != capture.LZ4 {
		t.Fatalf("record override failed: %q %s", cfg.RecordDir, cfg.RecordCodec)
	}
	if cfg.HistoryDir != "/tmp/hist" || cfg.HistoryFrames != 60 {
		t.Fatalf("history override failed: %q %d", cfg.HistoryDir, cfg.HistoryFrames)
	}
	if cfg.ListenAddr != "127.0.0.1:9000" {
		t.Fatalf("ListenAddr override failed, got %q", cfg.ListenAddr)
	}
	wantOrigins := []string{"https://example.com", "https://other.test"}
	if !reflect.DeepEqual(cfg.AllowedOrigins, wantOrigins) {
		t.Fatalf("AllowedOrigins mismatch: %+v", cfg.AllowedOrigins)
	}
	if !cfg.EnablePrometheus || !cfg.EnablePprof {
		t.Fatalf("endpoint toggles override failed")
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Fatalf("LogLevel override failed, got %v", cfg.LogLevel)
	}
	if cfg.SMURoot != "/tmp/smu" || cfg.SysfsRoot != "/tmp/sys" {
		t.Fatalf("roots override failed: %q %q", cfg.SMURoot, cfg.SysfsRoot)
	}
	if cfg.WS.MaxClients != 8 {
		t.Fatalf("WS.MaxClients override failed, got %d", cfg.WS.MaxClients)
	}
	if cfg.WS.WriteTimeout != 10*time.Second {
		t.Fatalf("WS.WriteTimeout override failed, got %s", cfg.WS.WriteTimeout)
	}
}

func TestLoadFlagsOverrideEnv(t *testing.T) {
	t.Setenv("APP_FORMAT", "ndjson")
	t.Setenv("APP_INTERVAL", "5s")

	cfg, err := Load([]string{"-o", "json", "-u", "2", "-d", "-f", "-1", "--pm-version=0x380805", "--layouts", "/etc/ryzenmon/layouts", "--log-level", "warn", "--record-dir", "/tmp/r", "--record-codec", "gzip"})
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Format != "json" {
		t.Fatalf("expected flag to win over env, got %q", cfg.Format)
	}
	if cfg.Interval != 2*time.Second {
		t.Fatalf("unexpected Interval %s", cfg.Interval)
	}
	if !cfg.ShowDisabled || !cfg.Force || !cfg.Once {
		t.Fatalf("boolean flags not applied: %+v", cfg)
	}
	if cfg.PMVersion != 0x380805 {
		t.Fatalf("unexpected PMVersion %#x", cfg.PMVersion)
	}
	if cfg.LayoutsDir != "/etc/ryzenmon/layouts" {
		t.Fatalf("unexpected LayoutsDir %q", cfg.LayoutsDir)
	}
	if cfg.LogLevel != slog.LevelWarn {
		t.Fatalf("unexpected LogLevel %v", cfg.LogLevel)
	}
	if cfg.RecordDir != "/tmp/r" || cfg.RecordCodec != capture.Gzip {
		t.Fatalf("record flags not applied: %q %s", cfg.RecordDir, cfg.RecordCodec)
	}
}

func TestLoadBoxAlias(t *testing.T) {
	cfg, err := Load([]string{"--format", "BOX"})
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Format != "table" {
		t.Fatalf("expected box to map onto table, got %q", cfg.Format)
	}
}

func TestLoadHelp(t *testing.T) {
	_, err := Load([]string{"--help"})
	if !errors.Is(err, ErrHelp) {
		t.Fatalf("expected ErrHelp, got %v", err)
	}
	if usage := Usage(); !strings.Contains(usage, "--show-disabled") {
		t.Fatalf("usage is missing flags:\n%s", usage)
	}
}

func TestLoadInvalidFlags(t *testing.T) {
	testCases := []struct {
		name string
		args []string
	}{
		{"UnknownFormat", []string{"--format", "xml"}},
		{"ZeroInterval", []string{"--interval", "0"}},
		{"BadInterval", []string{"--interval", "soon"}},
		{"BadPMVersion", []string{"--pm-version", "zzz"}},
		{"FileWithoutVersion", []string{"--file", "/tmp/pm.bin"}},
		{"ServeOnce", []string{"--serve", "--once"}},
		{"BadCodec", []string{"--record-codec", "bzip2"}},
		{"NonPositiveHistoryFrames", []string{"--history-frames", "0"}},
		{"StrayArgument", []string{"extra"}},
		{"UnknownFlag", []string{"--bogus"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Load(tc.args); err == nil {
				t.Fatalf("expected error for %v", tc.args)
			}
		})
	}
}

func TestLoadInvalidEnv(t *testing.T) {
	testCases := []struct {
		name string
		key  string
		val  string
	}{
		{"NegativeInterval", "APP_INTERVAL", "-1s"},
		{"InvalidShowDisabled", "APP_SHOW_DISABLED", "maybe"},
		{"InvalidPMVersion", "APP_PM_VERSION", "nope"},
		{"InvalidRecordCodec", "APP_RECORD_CODEC", "rar"},
		{"NonPositiveHistoryFrames", "APP_HISTORY_FRAMES", "0"},
		{"InvalidOrigins", "APP_ALLOWED_ORIGINS", ","},
		{"InvalidPrometheusBool", "APP_ENABLE_PROMETHEUS", "maybe"},
		{"InvalidLogLevel", "APP_LOG_LEVEL", "loud"},
		{"InvalidWSMaxClients", "APP_WS_MAX_CLIENTS", "zero"},
		{"NonPositiveWSMaxClients", "APP_WS_MAX_CLIENTS", "0"},
		{"InvalidWSWriteTimeout", "APP_WS_WRITE_TIMEOUT", "nope"},
		{"NegativeWSWriteTimeout", "APP_WS_WRITE_TIMEOUT", "-1s"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.val)
			if _, err := Load(nil); err == nil {
				t.Fatalf("expected error for %s=%q", tc.key, tc.val)
			}
		})
	}
}

func TestParseInterval(t *testing.T) {
	cases := map[string]time.Duration{
		"1":     time.Second,
		"0.5":   500 * time.Millisecond,
		"250ms": 250 * time.Millisecond,
		" 2s ":  2 * time.Second,
	}
	for input, want := range cases {
		got, err := parseInterval(input)
		if err != nil {
			t.Fatalf("parseInterval(%q) returned error: %v", input, err)
		}
		if got != want {
			t.Fatalf("parseInterval(%q) = %s, want %s", input, got, want)
		}
	}
}
