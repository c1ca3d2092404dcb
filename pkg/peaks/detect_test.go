package peaks

import (
	"testing"
)

func axis(n int) []float64 {
	x := make([]float64, n)
	for i := range x {
		x[i] = 1000 + float64(i)
	}
	return x
}

func TestSimplePeakDetectTriangle(t *testing.T) {
	tests := []struct {
		name      string
		k         int
		height    float64
		halfWidth int
		window    int
		threshold float64
	}{
		{"centered", 50, 80, 10, 10, 0.1},
		{"near edge", 5, 3, 4, 6, 0.5},
		{"wide window", 60, 10, 8, 40, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x := axis(100)
			y := make([]float64, 100)
			for i := range y {
				d := i - tt.k
				if d < 0 {
					d = -d
				}
				if d < tt.halfWidth {
					y[i] = tt.height * float64(tt.halfWidth-d) / float64(tt.halfWidth)
				}
			}

			got := SimplePeakDetect(x, y, tt.window, tt.threshold)
			if len(got) != 1 {
				t.Fatalf("SimplePeakDetect() found %d peaks, want 1: %+v", len(got), got)
			}
			if got[0].Index != tt.k || got[0].Y != tt.height || got[0].X != x[tt.k] {
				t.Errorf("peak = %+v, want index %d height %g", got[0], tt.k, tt.height)
			}
		})
	}
}

func TestSimplePeakDetectPlateau(t *testing.T) {
	x := axis(30)
	y := make([]float64, 30)
	for i := 8; i <= 14; i++ {
		y[i] = 5
	}
	for i := 4; i < 8; i++ {
		y[i] = float64(i - 3)
	}

	got := SimplePeakDetect(x, y, 3, 0.1)
	if len(got) != 1 {
		t.Fatalf("SimplePeakDetect() found %d peaks, want 1: %+v", len(got), got)
	}
	if got[0].Index != 8 {
		t.Errorf("plateau peak index = %d, want 8", got[0].Index)
	}
}

func TestSimplePeakDetectThresholdAndOrder(t *testing.T) {
	x := axis(40)
	y := make([]float64, 40)
	y[10] = 100
	y[20] = 5
	y[30] = 60

	got := SimplePeakDetect(x, y, 2, 0.1)
	if len(got) != 2 {
		t.Fatalf("SimplePeakDetect() found %d peaks, want 2: %+v", len(got), got)
	}
	if got[0].Index != 10 || got[1].Index != 30 {
		t.Errorf("indices = %d, %d, want 10, 30", got[0].Index, got[1].Index)
	}
}

func TestSimplePeakDetectEdges(t *testing.T) {
	// maxima at the array ends are never reported
	y := []float64{9, 1, 2, 1, 9}
	got := SimplePeakDetect(axis(5), y, 1, 0)
	if len(got) != 1 || got[0].Index != 2 {
		t.Errorf("SimplePeakDetect() = %+v, want single peak at 2", got)
	}
	if got := SimplePeakDetect(nil, nil, 1, 0); got != nil {
		t.Errorf("empty input gave %+v", got)
	}
}
