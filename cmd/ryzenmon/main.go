package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/skobkin/ryzenmon/internal/app"
	"github.com/skobkin/ryzenmon/internal/config"
	"github.com/skobkin/ryzenmon/internal/version"
)

var (
	buildVersion = "dev"
	buildCommit  = ""
	buildTime    = ""
)

func main() {
	version.Set(version.Info{
		Version:   buildVersion,
		Commit:    buildCommit,
		BuildTime: buildTime,
	})

	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		if errors.Is(err, config.ErrHelp) {
			fmt.Fprintf(os.Stdout, "Usage: %s [flags]\n\n%s", os.Args[0], config.Usage())
			os.Exit(0)
		}
		handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})
		slog.New(handler).Error("failed to load configuration", "err", err)
		os.Exit(2)
	}

	if cfg.ShowVersion {
		fmt.Fprintln(os.Stdout, version.Current())
		return
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel})
	logger := slog.New(handler)

	if cfg.File == "" && os.Geteuid() != 0 {
		logger.Warn("not running as root, the ryzen_smu interface is usually root-only")
	}

	interactive := !cfg.Serve && term.IsTerminal(int(os.Stdout.Fd()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleSignals(cancel, interactive, logger)

	if err := app.Run(ctx, logger, cfg, app.Output{Writer: os.Stdout, Interactive: interactive}); err != nil {
		logger.Error("application error", "err", err)
		os.Exit(1)
	}
}

// handleSignals cancels ctx on the first interrupt and exits immediately on
// the second, so a wedged read or cleanup cannot keep the process alive.
func handleSignals(cancel context.CancelFunc, interactive bool, logger *slog.Logger) {
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGABRT)

	sig := <-sigCh
	logger.Debug("stopping", "signal", sig)
	cancel()

	sig = <-sigCh
	if interactive {
		termenv.NewOutput(os.Stdout).ShowCursor()
	}
	logger.Warn("forced exit", "signal", sig)
	os.Exit(130)
}
