// Package app wires up and runs the application services.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/benbjohnson/clock"
	"golang.org/x/sync/errgroup"

	"github.com/skobkin/ryzenmon/internal/api"
	"github.com/skobkin/ryzenmon/internal/capture"
	"github.com/skobkin/ryzenmon/internal/config"
	"github.com/skobkin/ryzenmon/internal/history"
	"github.com/skobkin/ryzenmon/internal/httpserver"
	"github.com/skobkin/ryzenmon/internal/platform"
	"github.com/skobkin/ryzenmon/internal/pmtable"
	"github.com/skobkin/ryzenmon/internal/render"
	"github.com/skobkin/ryzenmon/internal/report"
	"github.com/skobkin/ryzenmon/internal/sampler"
	"github.com/skobkin/ryzenmon/internal/smu"
	"github.com/skobkin/ryzenmon/internal/topology"
)

const shutdownTimeout = 10 * time.Second

// Output is where monitor frames go.
type Output struct {
	Writer      io.Writer
	Interactive bool
}

// Run bootstraps the application lifecycle.
func Run(ctx context.Context, baseLogger *slog.Logger, cfg config.Config, out Output) (err error) {
	appLogger := baseLogger.With("component", "app")

	src, driver, err := openSource(cfg, baseLogger)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := src.Close(); closeErr != nil {
			appLogger.Warn("source close", "err", closeErr)
		}
	}()

	registry, err := loadRegistry(cfg.LayoutsDir)
	if err != nil {
		return err
	}
	if cfg.LayoutsDir != "" {
		appLogger.Info("loaded extra PM table layouts", "dir", cfg.LayoutsDir, "versions", len(registry.Versions()))
	}

	schema, err := ResolveVersion(registry, src.Version(), cfg.PMVersion, cfg.Force)
	if err != nil {
		return err
	}
	if schema.Flags.Experimental {
		appLogger.Warn("PM table layout is not verified against real hardware", "version", schema)
	}

	system := describeSystem(cfg, driver, schema, baseLogger)
	appLogger.Info("monitoring",
		"version", schema,
		"codename", system.Info.Codename,
		"cores", system.Topology.Cores,
		"enabled_cores", system.Topology.EnabledCores,
		"source", system.Source,
	)

	opts := MonitorOptions{
		Source:        src,
		Registry:      registry,
		Clock:         clock.New(),
		Logger:        baseLogger,
		Info:          system.Info,
		Topology:      system.Topology.Metrics(),
		ShowDisabled:  cfg.ShowDisabled,
		PinnedVersion: cfg.PMVersion,
		Force:         cfg.Force,
		Interval:      cfg.Interval,
		Once:          cfg.Once,
	}

	if cfg.RecordDir != "" {
		opts.Recorder, err = capture.NewRecorder(cfg.RecordDir, cfg.RecordCodec, baseLogger)
		if err != nil {
			return fmt.Errorf("init recorder: %w", err)
		}
		defer func() {
			written, skipped := opts.Recorder.Stats()
			appLogger.Info("recorder stopped", "written", written, "skipped", skipped)
		}()
	}

	if cfg.HistoryDir != "" {
		opts.History, err = history.NewWriter(cfg.HistoryDir, cfg.HistoryFrames, baseLogger)
		if err != nil {
			return fmt.Errorf("init history: %w", err)
		}
		defer func() {
			if _, flushErr := opts.History.Flush(); flushErr != nil {
				err = errors.Join(err, fmt.Errorf("flush history: %w", flushErr))
			}
		}()
	} else if cfg.Serve {
		opts.Window = history.NewWindow(cfg.HistoryFrames)
	}

	if !cfg.Serve {
		renderer, renderErr := render.New(cfg.Format, out.Writer)
		if renderErr != nil {
			return renderErr
		}
		if initErr := renderer.Init(!cfg.Once, out.Interactive); initErr != nil {
			return fmt.Errorf("init renderer: %w", initErr)
		}
		defer func() {
			if cleanupErr := renderer.Cleanup(); cleanupErr != nil {
				err = errors.Join(err, fmt.Errorf("renderer cleanup: %w", cleanupErr))
			}
		}()
		opts.Renderer = renderer

		monitor, monitorErr := NewMonitor(opts)
		if monitorErr != nil {
			return monitorErr
		}
		return monitor.Run(ctx)
	}

	hub := sampler.NewHub(baseLogger)
	defer func() {
		if closeErr := hub.Close(); closeErr != nil {
			appLogger.Warn("hub close", "err", closeErr)
		}
	}()
	opts.Hub = hub

	monitor, err := NewMonitor(opts)
	if err != nil {
		return err
	}

	window := opts.Window
	if opts.History != nil {
		window = opts.History.Window()
	}
	srv := httpserver.New(cfg, baseLogger.With("component", "http"), httpserver.Deps{
		Hub:      hub,
		Registry: registry,
		System:   system,
		Version:  schema.Version,
		History:  window,
	})

	appLogger.Info("starting HTTP server", "listen_addr", cfg.ListenAddr)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return monitor.Run(gctx)
	})
	g.Go(srv.Start)
	g.Go(func() error {
		<-gctx.Done()
		appLogger.Info("shutdown initiated", "reason", context.Cause(gctx))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	appLogger.Info("shutdown complete", "frames", monitor.Frames(), "read_failures", monitor.Failures())
	return nil
}

// loadRegistry extends the built-in layouts with the YAML layouts in dir.
func loadRegistry(dir string) (*pmtable.Registry, error) {
	if dir == "" {
		return pmtable.Builtin(), nil
	}
	extra, err := pmtable.LoadLayouts(os.DirFS(dir), ".")
	if err != nil {
		return nil, fmt.Errorf("load layouts from %s: %w", dir, err)
	}
	return pmtable.Builtin().Extend(extra)
}

// openSource returns the capture file when one is configured and the live
// driver otherwise. driver is nil for captures.
func openSource(cfg config.Config, logger *slog.Logger) (smu.Source, *smu.Driver, error) {
	if cfg.File != "" {
		f, err := smu.OpenFile(cfg.File, cfg.PMVersion)
		if err != nil {
			return nil, nil, fmt.Errorf("open capture: %w", err)
		}
		return f, nil, nil
	}

	d, err := smu.OpenDriver(cfg.SMURoot, logger)
	if err != nil {
		if errors.Is(err, smu.ErrUnsupported) {
			return nil, nil, fmt.Errorf("ryzen_smu driver not available at %s (is the module loaded and are you root?): %w", cfg.SMURoot, err)
		}
		return nil, nil, fmt.Errorf("open smu driver: %w", err)
	}
	return d, d, nil
}

// describeSystem gathers everything that stays constant while monitoring.
// Each probe degrades to defaults on failure.
func describeSystem(cfg config.Config, driver *smu.Driver, schema *pmtable.Schema, logger *slog.Logger) api.System {
	logger = logger.With("component", "system")

	sys := api.System{
		Info: report.SysInfo{
			Codename: schema.Codename,
			Zen:      schema.Zen,
		},
		Source: "driver",
	}

	if driver == nil {
		// A capture may come from another machine; assume a fully populated part.
		sys.Source = "file"
		sys.Info.Model = filepath.Base(cfg.File)
		sys.Topology = topology.Topology{Cores: schema.MaxCores, EnabledCores: schema.MaxCores}
	} else {
		cpu := topology.Host()
		sys.Info.Model = cpu.Brand
		sys.Topology = topology.Topology{Cores: cpu.Cores(), EnabledCores: cpu.Cores()}

		if info, err := driver.Info(); err != nil {
			logger.Warn("failed to read SMU info", "err", err)
		} else {
			sys.Info.SMUFirmware = info.FirmwareString()
			sys.Info.MP1IFVersion = info.MP1IFVersion
			sys.DriverVersion = info.DriverVersion
			if info.Codename != 0 {
				sys.Info.Codename = info.CodenameString()
			}
		}

		if topology.IsAMD() {
			topo, err := topology.Read(driver, cpu, schema.Zen)
			if err != nil {
				logger.Warn("failed to read core fuses, assuming all cores enabled", "err", err)
			} else {
				sys.Topology = topo
				if topo.EnabledCountUnverified {
					logger.Debug("enabled core count uses unverified fuse semantics for this generation",
						"zen", schema.Zen, "enabled_cores", topo.EnabledCores, "disabled_map", fmt.Sprintf("%#x", topo.DisabledMap))
				}
			}
		} else {
			logger.Warn("not an AMD processor, skipping fuse decode", "brand", cpu.Brand)
		}
	}

	sys.Info.Cores = sys.Topology.Cores
	sys.Info.CCDs = sys.Topology.CCDs
	sys.Info.CCXs = sys.Topology.CCXs
	sys.Info.CoresPerCCX = sys.Topology.CoresPerCCX

	bridges, err := platform.Discover(cfg.SysfsRoot, logger)
	if err != nil {
		logger.Debug("host bridge discovery failed", "err", err)
	}
	sys.Bridges = bridges
	sys.Platform = platform.Describe(bridges)
	return sys
}
