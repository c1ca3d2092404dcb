package table

import (
	"strings"
	"testing"
)

func TestReadSpectrum(t *testing.T) {
	input := `# mass intensity
1000 1.5

1001	2.5 extra
1002 3e-1
`
	spec, err := ReadSpectrum(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadSpectrum() error = %v", err)
	}
	wantX := []float64{1000, 1001, 1002}
	wantY := []float64{1.5, 2.5, 0.3}
	if spec.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", spec.Len())
	}
	for i := range wantX {
		if spec.X[i] != wantX[i] || spec.Y[i] != wantY[i] {
			t.Errorf("row %d = (%g, %g), want (%g, %g)", i, spec.X[i], spec.Y[i], wantX[i], wantY[i])
		}
	}
}

func TestReadSpectrumErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"short row", "1000 1\n1001\n"},
		{"bad number", "1000 abc\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadSpectrum(strings.NewReader(tt.input))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), "line ") {
				t.Errorf("error %q does not name the line", err)
			}
		})
	}
}

func TestReadGrid(t *testing.T) {
	input := `500 1 0
500 2 1
500 3 2
501 1 3
501 2 4
501 3 5
`
	g, err := ReadGrid(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadGrid() error = %v", err)
	}
	r, c := g.Values.Dims()
	if r != 2 || c != 3 {
		t.Fatalf("Dims() = %d x %d, want 2 x 3", r, c)
	}
	if g.Values.At(1, 2) != 5 || g.Values.At(0, 1) != 1 {
		t.Errorf("unexpected grid layout")
	}
	if g.X[1] != 501 || g.Charges[2] != 3 {
		t.Errorf("axes = %v / %v", g.X, g.Charges)
	}
}

func TestReadGridRagged(t *testing.T) {
	input := "500 1 0\n500 2 1\n501 1 3\n"
	if _, err := ReadGrid(strings.NewReader(input)); err == nil {
		t.Fatal("expected error for ragged grid")
	}
	if _, err := ReadGrid(strings.NewReader("# nothing\n")); err == nil {
		t.Fatal("expected error for empty grid")
	}
}
