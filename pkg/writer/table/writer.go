// Package table writes whitespace-delimited numeric tables read back by
// pkg/reader/table.
package table

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"gonum.org/v1/gonum/mat"

	"github.com/ChrisMcGann/DeconKey/pkg/core"
)

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// WriteXY writes paired columns as "x y" lines at full precision
func WriteXY(w io.Writer, x, y []float64) error {
	if len(x) != len(y) {
		return fmt.Errorf("column lengths differ (%d != %d)", len(x), len(y))
	}
	bw := bufio.NewWriter(w)
	for i := range x {
		bw.WriteString(formatFloat(x[i]))
		bw.WriteByte(' ')
		bw.WriteString(formatFloat(y[i]))
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// WriteGrid writes an x-major "x z value" table for a len(x) x len(charges) matrix
func WriteGrid(w io.Writer, x []float64, charges []int, grid *mat.Dense) error {
	r, c := grid.Dims()
	if r != len(x) || c != len(charges) {
		return fmt.Errorf("grid is %d x %d, axes are %d x %d", r, c, len(x), len(charges))
	}
	bw := bufio.NewWriter(w)
	for i := 0; i < r; i++ {
		xs := formatFloat(x[i])
		for j := 0; j < c; j++ {
			bw.WriteString(xs)
			bw.WriteByte(' ')
			bw.WriteString(strconv.Itoa(charges[j]))
			bw.WriteByte(' ')
			bw.WriteString(formatFloat(grid.At(i, j)))
			bw.WriteByte('\n')
		}
	}
	return bw.Flush()
}

// WriteXYFile writes a two-column table to path, creating parent directories
func WriteXYFile(path string, x, y []float64) error {
	return writeFile(path, func(w io.Writer) error { return WriteXY(w, x, y) })
}

// WriteGridFile writes a three-column grid to path, creating parent directories
func WriteGridFile(path string, x []float64, charges []int, grid *mat.Dense) error {
	return writeFile(path, func(w io.Writer) error { return WriteGrid(w, x, charges, grid) })
}

func writeFile(path string, write func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return &core.IOError{Op: "mkdir", Path: filepath.Dir(path), Err: err}
	}
	f, err := os.Create(path)
	if err != nil {
		return &core.IOError{Op: "create", Path: path, Err: err}
	}
	if err := write(f); err != nil {
		f.Close()
		return &core.IOError{Op: "write", Path: path, Err: err}
	}
	if err := f.Close(); err != nil {
		return &core.IOError{Op: "close", Path: path, Err: err}
	}
	return nil
}
