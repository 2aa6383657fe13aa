// Package main is the entry point for the azkard reminder daemon.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmylchreest/azkar/internal/config"
	"github.com/jmylchreest/azkar/internal/daemon"
	"github.com/jmylchreest/azkar/internal/dbus"
)

var (
	// Build-time variables
	version = "dev"
)

func main() {
	// Parse command line flags
	debug := flag.Bool("debug", false, "Enable debug logging")
	showVersion := flag.Bool("version", false, "Show version and exit")
	configPath := flag.String("config", "", "Path to config file (default: ~/.config/azkar/azkard.toml)")
	statePath := flag.String("state-file", "", "Path to state file (overrides [state] path)")
	noControl := flag.Bool("no-control", false, "Do not export the D-Bus control service")
	// Accepted for autostart entries written by earlier releases; azkard has no window.
	_ = flag.Bool("minimized", false, "Start without a window (no-op)")
	flag.Parse()

	if *showVersion {
		fmt.Println("azkard version", version)
		os.Exit(0)
	}

	// Set up structured logging
	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	if err := run(*configPath, *statePath, *noControl, logger); err != nil {
		logger.Error("azkard failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath, statePath string, noControl bool, logger *slog.Logger) error {
	logger.Info("starting azkard", "version", version)

	if configPath == "" {
		p, err := config.Path()
		if err != nil {
			return fmt.Errorf("failed to get config path: %w", err)
		}
		configPath = p
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger.Debug("config loaded", "path", configPath, "backend", cfg.Notify.Backend, "tick", cfg.Scheduler.Tick.Duration())

	d, err := daemon.New(cfg, daemon.Options{
		ConfigPath:     configPath,
		StatePath:      statePath,
		DisableControl: noControl,
	}, logger)
	if err != nil {
		return err
	}

	// Set up signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = d.Run(ctx)
	if errors.Is(err, dbus.ErrAlreadyRunning) {
		return fmt.Errorf("another azkard is already running: %w", err)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	logger.Info("azkard stopped")
	return nil
}
