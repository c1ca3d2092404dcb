// Package cmd provides CLI command implementations
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ChrisMcGann/DeconKey/internal/log"
	"github.com/ChrisMcGann/DeconKey/pkg/config"
)

var (
	// Global flags
	cfgFile string
	debug   bool

	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "deconkey",
	Short: "DeconKey - Charge state deconvolution of mass spectra",
	Long: `DeconKey deconvolves electrospray mass spectra into zero-charge mass
distributions, picks peaks and reconstructs their charge state series.

Parameters come from built-in defaults, an optional deconkey.yaml config file,
DECONKEY_* environment variables, presets and --set overrides, in that order.`,
	Version:       "0.3.0",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := log.New(debug)
		if err != nil {
			return err
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

// Execute runs the root command. Interrupts cancel the running solver.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./deconkey.yaml or ~/.config/deconkey/deconkey.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(chargesCmd)
	rootCmd.AddCommand(fitCmd)
	rootCmd.AddCommand(presetsCmd)
	rootCmd.AddCommand(paramsCmd)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("deconkey")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "deconkey"))
		}
	}

	// Defaults make every parameter key known to viper so env overrides apply
	if values, err := config.Default().Values(); err == nil {
		for k, v := range values {
			viper.SetDefault(k, v)
		}
	}

	viper.SetEnvPrefix("DECONKEY")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// engineConfig builds the parameter set from defaults, the config file and
// the environment
func engineConfig() (*config.EngineConfig, error) {
	cfg := config.Default()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to read configuration: %w", err)
	}
	return cfg, nil
}
