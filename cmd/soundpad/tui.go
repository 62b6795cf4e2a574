package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/soundpad/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive soundboard",
	Long: `Launch the terminal soundboard.

The TUI provides:
  - The sound catalog as a list of buttons
  - Output device selection
  - Remote trigger listener status and toggle
  - Live playback and trigger activity

Key bindings:
  j/k, ↑/↓    Navigate list
  enter       Play selected sound
  1-9         Play sound by number
  o           Choose output device
  r           Refresh devices
  s           Toggle remote triggers
  ?           Show help
  q           Quit

Logs are written to ~/.local/state/soundpad/log.jsonl while the TUI runs.`,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, args []string) error {
	r, err := newRuntime()
	if err != nil {
		return err
	}

	return r.run(cmd.Context(), func(ctx context.Context) error {
		return tui.Run(ctx, r.app)
	})
}
