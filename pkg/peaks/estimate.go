package peaks

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/ChrisMcGann/DeconKey/pkg/core"
)

// FWHMError sets ErrorFWHM and IntervalFWHM on every peak by scanning the
// distribution outwards from the peak until the intensity drops to half the
// peak height. Heights are rescaled to the distribution first, so the
// estimate works whether or not the peaks have been normalized.
func FWHMError(pks []*Peak, x, y []float64) {
	if len(pks) == 0 || len(y) == 0 || len(x) != len(y) {
		return
	}
	maxDist := floats.Max(y)
	if maxDist <= 0 {
		return
	}
	maxHeight := 0.0
	for _, p := range pks {
		maxHeight = math.Max(maxHeight, p.Height)
	}
	ratio := maxHeight / maxDist
	if ratio <= 0 {
		return
	}

	for _, p := range pks {
		target := p.Height / ratio / 2
		idx := core.NearestIndex(x, p.Mass)

		left := idx
		for left > 0 && y[left] > target {
			left--
		}
		right := idx
		for right < len(y)-1 && y[right] > target {
			right++
		}

		p.IntervalFWHM = [2]float64{x[left], x[right]}
		p.ErrorFWHM = x[right] - x[left]
	}
}

// MeanError sets ErrorMean on every peak from the spread of the per-charge
// maxima in massGrid (rows along massAxis, one column per charge) within
// ±window of the peak mass.
//
// The weighted population variance is divided by (n-1) and again by n before
// the square root, n being the number of charges with a positive maximum.
func MeanError(pks []*Peak, massAxis []float64, massGrid *mat.Dense, charges []int, window float64) {
	if massGrid == nil || len(massAxis) == 0 {
		return
	}
	rows, cols := massGrid.Dims()
	if rows != len(massAxis) {
		return
	}
	cols = min(cols, len(charges))

	for _, p := range pks {
		var masses, weights []float64
		for c := 0; c < cols; c++ {
			best, bestIdx := 0.0, -1
			for r := 0; r < rows; r++ {
				if math.Abs(massAxis[r]-p.Mass) > window {
					continue
				}
				if v := massGrid.At(r, c); bestIdx < 0 || v > best {
					best, bestIdx = v, r
				}
			}
			if bestIdx < 0 || best <= 0 {
				continue
			}
			masses = append(masses, massAxis[bestIdx])
			weights = append(weights, best)
		}

		n := float64(len(masses))
		if n < 2 {
			p.ErrorMean = 0
			continue
		}
		_, variance := stat.PopMeanVariance(masses, weights)
		variance /= n - 1
		variance /= n
		p.ErrorMean = math.Sqrt(variance)
	}
}
