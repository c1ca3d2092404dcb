package table

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/ChrisMcGann/DeconKey/pkg/core"
	rtable "github.com/ChrisMcGann/DeconKey/pkg/reader/table"
)

func TestWriteXYFullPrecision(t *testing.T) {
	var buf bytes.Buffer
	x := []float64{1000.123456789012, 1001}
	y := []float64{math.Pi, 0}
	if err := WriteXY(&buf, x, y); err != nil {
		t.Fatalf("WriteXY() error = %v", err)
	}
	want := "1000.123456789012 3.141592653589793\n1001 0\n"
	if buf.String() != want {
		t.Errorf("WriteXY() = %q, want %q", buf.String(), want)
	}
}

func TestWriteGridReadBack(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "grid.dat")
	x := []float64{500, 500.5}
	charges := []int{4, 5, 6}
	grid := mat.NewDense(2, 3, []float64{0.1, 0.2, 0.3, 1e-9, 5, 6})

	if err := WriteGridFile(path, x, charges, grid); err != nil {
		t.Fatalf("WriteGridFile() error = %v", err)
	}
	g, err := rtable.ReadGridFile(path)
	if err != nil {
		t.Fatalf("ReadGridFile() error = %v", err)
	}
	if !mat.Equal(g.Values, grid) {
		t.Errorf("read back %v, want %v", mat.Formatted(g.Values), mat.Formatted(grid))
	}
}

func TestWriteXYFileErrors(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	err := WriteXYFile(filepath.Join(blocker, "out.dat"), []float64{1}, []float64{1})
	var ioErr *core.IOError
	if !errors.As(err, &ioErr) {
		t.Fatalf("WriteXYFile() error = %v, want IOError", err)
	}

	if err := WriteXY(&bytes.Buffer{}, []float64{1, 2}, []float64{1}); err == nil {
		t.Error("expected length mismatch error")
	}
}
