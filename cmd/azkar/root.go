// Package main provides the CLI entrypoint for azkar.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/azkar/internal/config"
	"github.com/jmylchreest/azkar/internal/control"
	"github.com/jmylchreest/azkar/internal/store"
)

// Build-time variables (set via ldflags)
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

// Global configuration and state
var (
	cfg        *config.Config
	globalOpts struct {
		verbose    bool
		stateFile  string
		configPath string
	}
	logger *slog.Logger

	// ctrl is opened on first use by connect
	ctrl control.Controller

	// dialer is replaced in tests
	dialer control.Dialer = control.DialDaemon
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "azkar",
	Short: "Periodic azkar reminders for Linux desktops",
	Long: `azkar manages the reminder list and schedule of the azkard daemon.

Commands talk to a running azkard over D-Bus. When no daemon is running
they edit the state file directly and azkard picks the change up on its
next start.

Running azkar without a subcommand launches the interactive TUI.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildTime),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogger()

		var err error
		cfg, err = config.Load(globalOpts.configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if ctrl == nil {
			return nil
		}
		err := ctrl.Close()
		ctrl = nil
		return err
	},
	// Default to TUI when no subcommand is provided
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI(cmd, args)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&globalOpts.verbose, "verbose", "v", false,
		"Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&globalOpts.stateFile, "state-file", "",
		"Path to state file (default: ~/.local/share/azkar/azkar_data.json)")
	rootCmd.PersistentFlags().StringVar(&globalOpts.configPath, "config", "",
		"Path to config file (default: ~/.config/azkar/azkard.toml)")
}

// setupLogger configures the global slog logger.
func setupLogger() {
	level := slog.LevelWarn
	if globalOpts.verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	// Log to stderr so stdout is clean for output
	handler := slog.NewTextHandler(os.Stderr, opts)
	logger = slog.New(handler)
	slog.SetDefault(logger)
}

// statePath resolves the state file: flag, then config, then the XDG default.
func statePath() (string, error) {
	if globalOpts.stateFile != "" {
		return globalOpts.stateFile, nil
	}
	if cfg != nil {
		if p := cfg.State.StatePath(); p != "" {
			return p, nil
		}
	}
	return store.StatePath()
}

// connect returns the shared controller, connecting on first use.
func connect() (control.Controller, error) {
	if ctrl != nil {
		return ctrl, nil
	}

	path, err := statePath()
	if err != nil {
		return nil, fmt.Errorf("failed to get state path: %w", err)
	}

	c, err := control.Connect(dialer, path, logger)
	if err != nil {
		return nil, err
	}
	ctrl = c
	return ctrl, nil
}

// getConfig returns the global config instance.
func getConfig() *config.Config {
	if cfg == nil {
		return config.DefaultConfig()
	}
	return cfg
}
