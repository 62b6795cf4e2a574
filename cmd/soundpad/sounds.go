package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/soundpad/internal/adapter/output"
)

var soundsOpts struct {
	format   string
	template string
	search   string
	noPath   bool
}

var soundsCmd = &cobra.Command{
	Use:   "sounds",
	Short: "List the sound catalog",
	Long: `List the sounds in the catalog with the number that triggers each one.

Relative sound files resolve under the [library] dir from settings. Files
that cannot be found are reported as missing.

Pick a sound with a launcher and play it:

  soundpad sounds --format dmenu | rofi -dmenu | soundpad play -`,
	Args: cobra.NoArgs,
	RunE: runSounds,
}

func init() {
	rootCmd.AddCommand(soundsCmd)

	soundsCmd.Flags().StringVarP(&soundsOpts.format, "format", "f", "plain",
		"Output format (plain, dmenu, json)")
	soundsCmd.Flags().StringVar(&soundsOpts.template, "template", "",
		"Go template for dmenu lines (fields: Number, Label, Path, Size, Exists)")
	soundsCmd.Flags().StringVarP(&soundsOpts.search, "search", "s", "",
		"Only list sounds whose label contains this text")
	soundsCmd.Flags().BoolVar(&soundsOpts.noPath, "no-path", false,
		"Omit file paths from plain output")
}

func runSounds(cmd *cobra.Command, args []string) error {
	settings := settingsStore.Settings()
	catalog, err := loadCatalog(settings)
	if err != nil {
		return err
	}

	rows := output.Search(output.Rows(catalog, settings.SoundsDir()), soundsOpts.search)

	format := output.FormatType(soundsOpts.format)
	if format == output.FormatPlain && len(rows) == 0 {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "No sounds in %s\n", settings.CatalogPath())
		return nil
	}

	opts := output.DefaultFormatterOptions()
	opts.Template = soundsOpts.template
	opts.ShowPath = !soundsOpts.noPath

	return output.NewFormatter(format, opts).Format(cmd.OutOrStdout(), rows)
}
