package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ChrisMcGann/DeconKey/internal/log"
	"github.com/ChrisMcGann/DeconKey/pkg/config"
	"github.com/ChrisMcGann/DeconKey/pkg/core"
	"github.com/ChrisMcGann/DeconKey/pkg/engine"
	"github.com/ChrisMcGann/DeconKey/pkg/peaks"
	rtable "github.com/ChrisMcGann/DeconKey/pkg/reader/table"
	"github.com/ChrisMcGann/DeconKey/pkg/solver"
	"github.com/ChrisMcGann/DeconKey/pkg/writer/report"
	"github.com/ChrisMcGann/DeconKey/pkg/writer/sqlite"
)

// Custom adducts are picked up from the working directory when present
const customAdductsFile = "adducts_custom.csv"

var (
	// Flags shared by run and charges
	inputFile  string
	spectrumID string
	outputDir  string
	preset     string
	overrides  []string
	adduct     string
	normMode   string
	solverPath string
	solverArgs []string
	silent     bool

	// Flags for run command
	convolvePeaks bool
	positions     bool
	dbFile        string
	reportFile    string
	reportFormat  string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Deconvolve a spectrum and pick peaks",
	Long: `Deconvolve a two-column (m/z intensity) spectrum, pick peaks in the mass
distribution and optionally reconstruct each peak's charge state series.

Examples:
  # Deconvolve with the built-in solver and default parameters
  deconkey run --in spectrum.txt --out results

  # Use an external solver binary, a preset and parameter overrides
  deconkey run --in spectrum.txt --solver ./unidec --preset high-resolution --set mzsig=0.5 --set endz=30

  # Store the run in a SQLite database and export a YAML report
  deconkey run --in spectrum.txt --db runs.db --report peaks.yaml --convolve`,
	RunE: runDeconvolve,
}

func init() {
	addSessionFlags(runCmd)
	runCmd.Flags().BoolVar(&convolvePeaks, "convolve", false, "Reconstruct each peak's m/z spectrum")
	runCmd.Flags().BoolVar(&positions, "positions", false, "Print predicted charge state positions for each peak")
	runCmd.Flags().StringVar(&dbFile, "db", "", "SQLite database to append the run to")
	runCmd.Flags().StringVar(&reportFile, "report", "", "Write a peak report to this file")
	runCmd.Flags().StringVar(&reportFormat, "format", "", "Report format: yaml or json (default from --report extension)")
}

func addParamFlags(c *cobra.Command) {
	c.Flags().StringVar(&preset, "preset", "", "Parameter preset to apply (see 'deconkey presets')")
	c.Flags().StringArrayVar(&overrides, "set", nil, "Parameter override key=value (repeatable)")
	c.Flags().StringVar(&adduct, "adduct", "", "Adduct name (e.g. 'Na+') or mass in Da")
	c.Flags().StringVar(&normMode, "norm", "", "Peak normalization: none, max, sum or custom")
}

func addSessionFlags(c *cobra.Command) {
	addParamFlags(c)
	c.Flags().StringVarP(&inputFile, "in", "i", "", "Input spectrum file (required)")
	c.Flags().StringVar(&spectrumID, "id", "", "Spectrum identifier (default: input file name)")
	c.Flags().StringVarP(&outputDir, "out", "o", ".", "Directory for run artifacts")
	c.Flags().StringVar(&solverPath, "solver", "", "External solver binary (default: built-in transform)")
	c.Flags().StringArrayVar(&solverArgs, "solver-arg", nil, "Extra argument passed to the solver after the config file")
	c.Flags().BoolVar(&silent, "silent", false, "Only log warnings and errors")

	c.MarkFlagRequired("in")
}

// sessionConfig applies preset, adduct, normalization and overrides on top
// of the loaded configuration
func sessionConfig() (*config.EngineConfig, error) {
	cfg, err := engineConfig()
	if err != nil {
		return nil, err
	}

	if preset != "" {
		if err := cfg.ApplyPreset(preset); err != nil {
			return nil, err
		}
	}

	if adduct != "" {
		db, err := loadAdducts()
		if err != nil {
			return nil, err
		}
		mass, err := db.Resolve(adduct)
		if err != nil {
			return nil, err
		}
		cfg.AdductMass = mass
	}

	if normMode != "" {
		mode, err := peaks.ParseNormMode(normMode)
		if err != nil {
			return nil, err
		}
		cfg.PeakNorm = int(mode)
	}

	for _, o := range overrides {
		key, value, ok := strings.Cut(o, "=")
		if !ok {
			return nil, fmt.Errorf("invalid override '%s', expected key=value", o)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid value for '%s': %w", key, err)
		}
		if err := cfg.Set(strings.TrimSpace(key), v); err != nil {
			return nil, err
		}
	}

	return cfg, cfg.Validate()
}

func loadAdducts() (*core.AdductDatabase, error) {
	db := core.DefaultAdductDatabase()
	if _, err := os.Stat(customAdductsFile); err != nil {
		return db, nil
	}
	f, err := os.Open(customAdductsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", customAdductsFile, err)
	}
	defer f.Close()
	if err := db.LoadFromCSV(f); err != nil {
		logger.Warn("failed to load custom adducts", zap.String("file", customAdductsFile), zap.Error(err))
	}
	return db, nil
}

// solve loads the input spectrum and runs the engine through the solver
func solve(ctx context.Context) (*engine.Engine, error) {
	cfg, err := sessionConfig()
	if err != nil {
		return nil, err
	}

	spec, err := rtable.ReadSpectrumFile(inputFile)
	if err != nil {
		return nil, err
	}

	id := spectrumID
	if id == "" {
		id = filepath.Base(inputFile)
	}

	var backend solver.Backend = solver.InProcess{}
	if solverPath != "" {
		backend = solver.NewExec(solverPath, solverArgs...)
	}

	l := logger
	if silent {
		l = log.Quiet(logger)
	}
	eng := engine.New(
		engine.WithLogger(l),
		engine.WithBackend(backend),
		engine.WithConfig(cfg),
	)

	if err := eng.SetSpectrum(spec, id, outputDir); err != nil {
		return nil, err
	}
	if err := eng.Process(nil); err != nil {
		return nil, err
	}
	if err := eng.Run(ctx, silent); err != nil {
		return nil, err
	}
	return eng, nil
}

func runDeconvolve(cmd *cobra.Command, args []string) error {
	eng, err := solve(cmd.Context())
	if err != nil {
		return err
	}

	if err := eng.PickPeaks(); err != nil {
		return err
	}
	if convolvePeaks {
		if err := eng.ConvolvePeaks(); err != nil {
			return err
		}
	}

	cfg := eng.Config()
	pks := eng.Peaks()
	printPeaks(pks)

	if positions {
		for _, p := range pks.Active() {
			pos, err := eng.ChargePositions(p, cfg.RemoveBelow)
			if err != nil {
				return err
			}
			fmt.Printf("\nPeak %s (%.*f Da):\n", p.Label, pks.Precision(), p.Mass)
			for _, cp := range pos {
				fmt.Printf("  z=%-4d m/z %-12.4f intensity %.4g\n", cp.Charge, cp.MZ, cp.Intensity)
			}
		}
	}

	charges, err := eng.ChargePeaks()
	if err != nil {
		return err
	}

	if dbFile != "" {
		if err := storeRun(eng, cfg.Files.Base); err != nil {
			return err
		}
	}

	if reportFile != "" {
		if err := writeReport(cfg, pks, charges); err != nil {
			return err
		}
	}

	fmt.Printf("\nOutput: %s\n", cfg.Files.Dir)
	return nil
}

func printPeaks(pks *peaks.Peaks) {
	fmt.Printf("Found %d peaks\n", pks.Len())
	fmt.Printf("%-6s %-14s %-10s %-10s %-10s %-10s\n", "Label", "Mass", "Height", "FWHM err", "Mean err", "Area")
	for _, p := range pks.Items {
		fmt.Printf("%-6s %-14.*f %-10.4g %-10.4g %-10.4g %-10.4g\n",
			p.Label, pks.Precision(), p.Mass, p.Height, p.ErrorFWHM, p.ErrorMean, p.Area)
	}
}

func storeRun(eng *engine.Engine, id string) error {
	writer, err := sqlite.NewWriter(dbFile)
	if err != nil {
		return fmt.Errorf("failed to open run database: %w", err)
	}

	runID, err := writer.WriteRun(sqlite.Run{
		SpectrumID: id,
		Config:     eng.Config(),
		Mass:       eng.Results().Mass,
		Peaks:      eng.Peaks(),
	})
	if err != nil {
		writer.Close()
		return fmt.Errorf("failed to store run: %w", err)
	}

	if err := writer.Finalize(); err != nil {
		return fmt.Errorf("failed to finalize database: %w", err)
	}
	logger.Info("run stored", zap.String("db", dbFile), zap.String("run", runID))
	return nil
}

func writeReport(cfg *config.EngineConfig, pks *peaks.Peaks, charges []peaks.ChargeState) error {
	format := reportFormat
	if format == "" {
		format = strings.TrimPrefix(strings.ToLower(filepath.Ext(reportFile)), ".")
	}

	r, err := report.Build(cfg.Files.Base, cfg, pks, charges)
	if err != nil {
		return err
	}

	f, err := os.Create(reportFile)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	if err := report.Write(f, r, format); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
