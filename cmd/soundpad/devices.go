package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/soundpad/internal/audio"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List audio output devices",
	Long: `List the PulseAudio output devices.

The system default is listed first and marked with '*'. The device selected
in settings is marked with '>'.`,
	Args: cobra.NoArgs,
	RunE: runDevices,
}

func init() {
	rootCmd.AddCommand(devicesCmd)
}

func runDevices(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()

	catalog := audio.NewDeviceCatalog(audio.NewPulseHost(), logger)
	names, def, err := catalog.ListOutputDevices(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(names) == 0 {
		_, _ = fmt.Fprintln(out, "No output devices found")
		return nil
	}

	selected := settingsStore.CurrentDeviceName()
	for _, name := range names {
		_, _ = fmt.Fprintln(out, formatDeviceLine(name, name == def, name == selected))
	}
	return nil
}

func formatDeviceLine(name string, isDefault, isSelected bool) string {
	mark := " "
	if isSelected {
		mark = ">"
	}
	def := " "
	if isDefault {
		def = "*"
	}
	return mark + def + " " + name
}
