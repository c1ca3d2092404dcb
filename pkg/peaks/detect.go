package peaks

import "gonum.org/v1/gonum/floats"

// DetectedPeak is a local maximum found by SimplePeakDetect
type DetectedPeak struct {
	X     float64
	Y     float64
	Index int
}

// SimplePeakDetect finds local maxima in y. Sample i (1 <= i < N-1) is a peak
// when it is above threshold*max(y), equals the maximum over the inclusive
// window [i-window, i+window] clamped to bounds, and differs from y[i-1].
// A flat plateau therefore reports only its first index.
func SimplePeakDetect(x, y []float64, window int, threshold float64) []DetectedPeak {
	n := len(y)
	if n < 3 || len(x) != n {
		return nil
	}
	if window < 0 {
		window = 0
	}
	cutoff := threshold * floats.Max(y)

	var found []DetectedPeak
	for i := 1; i < n-1; i++ {
		if y[i] <= cutoff || y[i] == y[i-1] {
			continue
		}
		lo := max(i-window, 0)
		hi := min(i+window, n-1)
		if y[i] != floats.Max(y[lo:hi+1]) {
			continue
		}
		found = append(found, DetectedPeak{X: x[i], Y: y[i], Index: i})
	}
	return found
}
