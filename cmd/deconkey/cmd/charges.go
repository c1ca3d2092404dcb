package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var chargesCmd = &cobra.Command{
	Use:   "charges",
	Short: "Print the charge state distribution of a spectrum",
	Long: `Deconvolve a spectrum and print the total intensity assigned to each charge
state, normalized with the configured peak normalization.

Examples:
  deconkey charges --in spectrum.txt --set startz=5 --set endz=40`,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := solve(cmd.Context())
		if err != nil {
			return err
		}

		states, err := eng.ChargePeaks()
		if err != nil {
			return err
		}

		fmt.Printf("%-8s %s\n", "Charge", "Intensity")
		for _, cs := range states {
			fmt.Printf("%-8d %.6g\n", cs.Charge, cs.Intensity)
		}
		return nil
	},
}

func init() {
	addSessionFlags(chargesCmd)
}
