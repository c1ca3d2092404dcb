package engine

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/ChrisMcGann/DeconKey/pkg/config"
	"github.com/ChrisMcGann/DeconKey/pkg/core"
	rtable "github.com/ChrisMcGann/DeconKey/pkg/reader/table"
)

// ResultSet holds the outputs of one solver run and the analysis built on it
type ResultSet struct {
	Data      *core.Spectrum // processed input spectrum
	Mass      *core.Spectrum // mass distribution, normalized once peaks are picked
	MZAxis    []float64      // rows of MZGrid
	MZGrid    *mat.Dense     // m/z x charge
	MassGrid  *mat.Dense     // mass x charge, rows follow Mass.X
	Charges   []int          // columns of both grids
	FitData   []float64      // solver fit of Data, if written
	Composite []float64      // sum of the per-peak convolved spectra, on MZAxis
	Error     map[string]float64
}

// importResults reads the artifacts of a successful solver run
func importResults(files config.Files) (*ResultSet, error) {
	data, err := rtable.ReadSpectrumFile(files.Input)
	if err != nil {
		return nil, err
	}
	mass, err := rtable.ReadSpectrumFile(files.Mass)
	if err != nil {
		return nil, err
	}
	if err := mass.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", files.Mass, err)
	}

	mzGrid, err := rtable.ReadGridFile(files.MZGrid)
	if err != nil {
		return nil, err
	}
	massGrid, err := rtable.ReadGridFile(files.MassGrid)
	if err != nil {
		return nil, err
	}
	if len(massGrid.X) != mass.Len() {
		return nil, fmt.Errorf("mass grid has %d rows, mass distribution has %d", len(massGrid.X), mass.Len())
	}
	if !sameCharges(mzGrid.Charges, massGrid.Charges) {
		return nil, fmt.Errorf("grid charge axes differ: %v and %v", mzGrid.Charges, massGrid.Charges)
	}
	if !(&core.Spectrum{X: mzGrid.X}).IsMonotonic() {
		return nil, fmt.Errorf("%s: m/z axis is not increasing", files.MZGrid)
	}

	rs := &ResultSet{
		Data:     data,
		Mass:     mass,
		MZAxis:   mzGrid.X,
		MZGrid:   mzGrid.Values,
		MassGrid: massGrid.Values,
		Charges:  mzGrid.Charges,
	}

	// Optional artifacts
	if fit, err := rtable.ReadSpectrumFile(files.FitDat); err == nil {
		rs.FitData = fit.Y
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	if report, err := readErrorReport(files.Error); err == nil {
		rs.Error = report
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	return rs, nil
}

// clearOutputs removes the solver and peak artifacts of an earlier run so a
// new run can only import what its own solver wrote
func clearOutputs(files config.Files) error {
	for _, path := range []string{files.Mass, files.MZGrid, files.MassGrid, files.FitDat, files.Error, files.Peaks} {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return &core.IOError{Op: "remove", Path: path, Err: err}
		}
	}
	return nil
}

func sameCharges(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// readErrorReport parses "key value" or "key = value" lines; non-numeric
// values are skipped.
func readErrorReport(path string) (map[string]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &core.IOError{Op: "open", Path: path, Err: err}
	}
	defer f.Close()

	out := make(map[string]float64)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.ReplaceAll(scanner.Text(), "=", " ")
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		if v, err := strconv.ParseFloat(fields[1], 64); err == nil {
			out[fields[0]] = v
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, &core.IOError{Op: "read", Path: path, Err: err}
	}
	return out, nil
}
