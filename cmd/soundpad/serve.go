package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/soundpad/internal/model"
)

var serveOpts struct {
	preload bool
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run headless and play remote triggers",
	Long: `Run soundpad without a UI.

The trigger listener and dispatcher run until SIGINT or SIGTERM. The event
feed and desktop notifications run when enabled in settings. Changes to the
[socket] section of the settings file are applied without a restart.

Trigger a sound from another process with:

  soundpad send 3
  echo -n 3 | nc -u -w0 127.0.0.1 7878`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&serveOpts.preload, "preload", false,
		"Decode every catalog sound before listening")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r, err := newRuntime()
	if err != nil {
		return err
	}

	if serveOpts.preload {
		for _, e := range r.catalog.Entries() {
			path := model.ResolveSoundPath(r.settings.SoundsDir(), e.File)
			if err := r.player.Preload(path); err != nil {
				logger.Warn("preload failed", "label", e.Label, "path", path, "error", err)
			}
		}
	}

	events := r.app.Subscribe()
	logger.Info("soundpad serving", "sounds", r.catalog.Len(), "socket", r.app.SocketConfig().Enabled)

	return r.run(ctx, func(ctx context.Context) error {
		logEvents(ctx, events)
		return nil
	})
}

// logEvents logs App events until ctx is done or events is closed.
func logEvents(ctx context.Context, events <-chan model.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			level := slog.LevelInfo
			if e.IsFailure() {
				level = slog.LevelWarn
			}
			logger.Log(ctx, level, "event",
				"type", e.Type,
				"origin", e.Origin,
				"trigger", e.Trigger,
				"label", e.Label,
				"port", e.Port,
				"reason", e.Reason,
			)
		}
	}
}
