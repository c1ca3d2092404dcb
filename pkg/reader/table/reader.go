// Package table provides streaming readers for whitespace-delimited numeric
// tables: two-column spectra (x y) and three-column grids (x z intensity).
package table

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/ChrisMcGann/DeconKey/pkg/core"
)

// Reader provides streaming access to numeric rows
type Reader struct {
	scanner *bufio.Scanner
	columns int
	lineNum int
	row     []float64
	err     error
}

// NewReader creates a reader expecting the given number of columns per row
func NewReader(r io.Reader, columns int) *Reader {
	scanner := bufio.NewScanner(r)
	// solver grids can carry long lines
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	return &Reader{
		scanner: scanner,
		columns: columns,
	}
}

// Next advances to the next row. Returns false when no more rows or error.
func (r *Reader) Next() bool {
	r.row = nil

	for r.scanner.Scan() {
		r.lineNum++
		line := strings.TrimSpace(r.scanner.Text())

		// Skip blank lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		row, err := r.parseRow(line)
		if err != nil {
			r.err = fmt.Errorf("line %d: %w", r.lineNum, err)
			return false
		}
		r.row = row
		return true
	}

	if err := r.scanner.Err(); err != nil {
		r.err = err
	}
	return false
}

// Row returns the current row
func (r *Reader) Row() []float64 {
	return r.row
}

// Err returns any error encountered during reading
func (r *Reader) Err() error {
	return r.err
}

// parseRow splits a line on whitespace and parses the leading columns
func (r *Reader) parseRow(line string) ([]float64, error) {
	fields := strings.Fields(line)
	if len(fields) < r.columns {
		return nil, fmt.Errorf("expected %d columns, got %d", r.columns, len(fields))
	}

	row := make([]float64, r.columns)
	for i := 0; i < r.columns; i++ {
		v, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid value %q in column %d: %w", fields[i], i+1, err)
		}
		row[i] = v
	}
	return row, nil
}

// ReadSpectrum reads a two-column table into a spectrum
func ReadSpectrum(r io.Reader) (*core.Spectrum, error) {
	tr := NewReader(r, 2)
	spec := &core.Spectrum{}
	for tr.Next() {
		row := tr.Row()
		spec.X = append(spec.X, row[0])
		spec.Y = append(spec.Y, row[1])
	}
	if err := tr.Err(); err != nil {
		return nil, err
	}
	return spec, nil
}

// ReadSpectrumFile reads a two-column table from path
func ReadSpectrumFile(path string) (*core.Spectrum, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &core.IOError{Op: "open", Path: path, Err: err}
	}
	defer f.Close()

	spec, err := ReadSpectrum(f)
	if err != nil {
		return nil, &core.IOError{Op: "read", Path: path, Err: err}
	}
	return spec, nil
}

// Grid is a dense surface read from a three-column table
type Grid struct {
	X       []float64 // row axis
	Charges []int     // column axis
	Values  *mat.Dense
}

// ReadGrid reads an x-major three-column table (x z intensity) and reshapes
// it into a len(X) x len(Charges) matrix.
func ReadGrid(r io.Reader) (*Grid, error) {
	tr := NewReader(r, 3)

	var values []float64
	var xs []float64
	var charges []int
	seen := make(map[int]bool)

	for tr.Next() {
		row := tr.Row()
		if len(xs) == 0 || xs[len(xs)-1] != row[0] {
			xs = append(xs, row[0])
		}
		z := int(row[1])
		if !seen[z] {
			seen[z] = true
			charges = append(charges, z)
		}
		values = append(values, row[2])
	}
	if err := tr.Err(); err != nil {
		return nil, err
	}

	if len(values) == 0 {
		return nil, fmt.Errorf("grid is empty")
	}
	if len(xs)*len(charges) != len(values) {
		return nil, fmt.Errorf("grid has %d values, expected %d x %d", len(values), len(xs), len(charges))
	}

	return &Grid{
		X:       xs,
		Charges: charges,
		Values:  mat.NewDense(len(xs), len(charges), values),
	}, nil
}

// ReadGridFile reads a three-column grid from path
func ReadGridFile(path string) (*Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &core.IOError{Op: "open", Path: path, Err: err}
	}
	defer f.Close()

	g, err := ReadGrid(f)
	if err != nil {
		return nil, &core.IOError{Op: "read", Path: path, Err: err}
	}
	return g, nil
}
