// Package main provides the CLI entrypoint for soundpad.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/soundpad/internal/config"
)

// Build-time variables (set via ldflags)
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

// Global configuration and state
var (
	globalOpts struct {
		verbose    bool
		logLevel   string
		configPath string
	}
	logger    *slog.Logger
	logCloser io.Closer

	// settingsStore is the shared, persisted settings handle
	settingsStore *config.Store
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "soundpad",
	Short: "Soundboard with remote UDP triggers",
	Long: `soundpad is a soundboard for Linux desktops.

Sounds from the catalog play on a chosen PulseAudio output device, either
from the interactive TUI or remotely by sending a sound number as a UDP
datagram to the trigger port.

Running soundpad without a subcommand launches the interactive TUI.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildTime),
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// The TUI owns the terminal, so its logs go to a file
		if err := setupLogger(isTUICommand(cmd)); err != nil {
			return err
		}

		store, err := config.OpenStore(globalOpts.configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		settingsStore = store
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if logCloser != nil {
			return logCloser.Close()
		}
		return nil
	},
	// Default to TUI when no subcommand is provided
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI(cmd, args)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&globalOpts.verbose, "verbose", "v", false,
		"Enable verbose logging (same as --log-level debug)")
	rootCmd.PersistentFlags().StringVar(&globalOpts.logLevel, "log-level", "warn",
		"Log level: error, warn, info, debug")
	rootCmd.PersistentFlags().StringVar(&globalOpts.configPath, "config", "",
		"Path to settings file (default: ~/.config/soundpad/settings.toml)")
}

func isTUICommand(cmd *cobra.Command) bool {
	return !cmd.HasParent() || cmd.Name() == "tui"
}

// parseLogLevel converts a --log-level value to a slog level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "error":
		return slog.LevelError, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	default:
		return 0, fmt.Errorf("invalid log level: %s (must be error, warn, info, or debug)", level)
	}
}

// setupLogger configures the global slog logger.
func setupLogger(toFile bool) error {
	level, err := parseLogLevel(globalOpts.logLevel)
	if err != nil {
		return err
	}
	if globalOpts.verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if toFile {
		f, err := openLogFile()
		if err != nil {
			return err
		}
		logCloser = f
		handler = slog.NewJSONHandler(f, opts)
	} else {
		// Log to stderr so stdout is clean for output
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	logger = slog.New(handler)
	slog.SetDefault(logger)
	return nil
}

// openLogFile opens the JSONL log under the state directory for appending.
func openLogFile() (*os.File, error) {
	path := filepath.Join(config.StateDir(), "log.jsonl")
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return f, nil
}
