package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ChrisMcGann/DeconKey/pkg/config"
)

var paramsCmd = &cobra.Command{
	Use:   "params",
	Short: "Print the effective deconvolution parameters",
	Long: `Print every parameter in configuration file order after applying the config
file, environment, preset and overrides.

Examples:
  deconkey params --preset native --set endz=80`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := sessionConfig()
		if err != nil {
			return err
		}
		values, err := cfg.Values()
		if err != nil {
			return err
		}
		for _, k := range config.Keys() {
			fmt.Printf("%-14s %v\n", k, values[k])
		}
		return nil
	},
}

func init() {
	addParamFlags(paramsCmd)
}
