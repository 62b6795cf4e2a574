package main

import (
	"bufio"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/soundpad/internal/adapter/output"
)

var playCmd = &cobra.Command{
	Use:   "play <n|->",
	Short: "Play sound n on the configured device",
	Long: `Play one sound locally and wait for it to finish.

n is the 1-based number shown by 'soundpad sounds', the same number a
remote trigger uses. With '-' the number is read from the first line of
stdin, which may be a line from 'soundpad sounds --format dmenu'.
The trigger listener is not started.`,
	Args: cobra.ExactArgs(1),
	RunE: runPlay,
}

func init() {
	rootCmd.AddCommand(playCmd)
}

func runPlay(cmd *cobra.Command, args []string) error {
	n, err := readSelection(args[0], cmd.InOrStdin())
	if err != nil {
		return err
	}

	r, err := newRuntime()
	if err != nil {
		return err
	}

	entry, err := r.catalog.Resolve(n)
	if err != nil {
		return err
	}

	logger.Info("playing", "trigger", n, "label", entry.Label)
	return r.app.PressButton(cmd.Context(), entry.ID)
}

// readSelection parses arg as a sound number, or reads one from in when arg is "-".
func readSelection(arg string, in io.Reader) (uint64, error) {
	line := arg
	if arg == "-" {
		scanner := bufio.NewScanner(in)
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return 0, fmt.Errorf("failed to read selection: %w", err)
			}
			return 0, output.ErrNoSelection
		}
		line = scanner.Text()
	}

	n, err := output.ParseSelection(line)
	if err != nil {
		return 0, fmt.Errorf("invalid sound number %q: %w", line, err)
	}
	return n, nil
}
