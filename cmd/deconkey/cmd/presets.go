package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/ChrisMcGann/DeconKey/pkg/config"
)

var presetsCmd = &cobra.Command{
	Use:   "presets [name]",
	Short: "List parameter presets",
	Long: `List the built-in parameter presets, or print the parameters a preset sets.

Examples:
  deconkey presets
  deconkey presets high-resolution`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			for _, name := range config.PresetNames() {
				fmt.Println(name)
			}
			return nil
		}

		values, ok := config.Preset(args[0])
		if !ok {
			return fmt.Errorf("unknown preset '%s'", args[0])
		}
		keys := make([]string, 0, len(values))
		for k := range values {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Printf("%-14s %g\n", k, values[k])
		}
		return nil
	},
}
