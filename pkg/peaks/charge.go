package peaks

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/interp"
	"gonum.org/v1/gonum/mat"

	"github.com/ChrisMcGann/DeconKey/pkg/core"
)

// ChargeState is the summed intensity of one charge state
type ChargeState struct {
	Charge    int
	Intensity float64
}

// ChargePosition is a predicted m/z for one charge of a mass
type ChargePosition struct {
	Charge    int
	MZ        float64
	Intensity float64
	Index     int // nearest sample on the m/z axis
}

// ChargeIntensity is one row of a peak's charge table
type ChargeIntensity struct {
	Charge    int
	MZ        float64
	Intensity float64
	Index     int
}

// CalculateChargePositions predicts m/z = (mass + adduct*z)/z for every
// charge between the lowest and highest charge in table. Predictions outside
// the m/z axis are dropped, as are charges whose intensity is below
// removeBelow times the table maximum.
func CalculateChargePositions(table []ChargeState, mass float64, mzAxis []float64, adduct, removeBelow float64) []ChargePosition {
	if len(table) == 0 || len(mzAxis) == 0 {
		return nil
	}

	byCharge := make(map[int]float64, len(table))
	zmin, zmax := table[0].Charge, table[0].Charge
	maxInt := math.Inf(-1)
	for _, cs := range table {
		byCharge[cs.Charge] += cs.Intensity
		zmin = min(zmin, cs.Charge)
		zmax = max(zmax, cs.Charge)
	}
	for _, v := range byCharge {
		maxInt = math.Max(maxInt, v)
	}
	lo, hi := mzAxis[0], mzAxis[len(mzAxis)-1]

	var out []ChargePosition
	for z := zmin; z <= zmax; z++ {
		if z == 0 {
			continue
		}
		mz := core.CalculateMZ(mass, z, adduct)
		if mz < lo || mz > hi {
			continue
		}
		intensity := byCharge[z]
		if intensity < removeBelow*maxInt {
			continue
		}
		out = append(out, ChargePosition{
			Charge:    z,
			MZ:        mz,
			Intensity: intensity,
			Index:     core.NearestIndex(mzAxis, mz),
		})
	}
	return out
}

// ChargeTable looks up the intensity of mass at each charge of an m/z grid
// (rows along mzAxis, one column per charge) by linear interpolation.
// Charges whose predicted m/z falls outside the axis are skipped.
func ChargeTable(mass float64, mzAxis []float64, grid *mat.Dense, charges []int, adduct float64) []ChargeIntensity {
	if grid == nil || len(mzAxis) < 2 {
		return nil
	}
	rows, cols := grid.Dims()
	if rows != len(mzAxis) {
		return nil
	}
	lo, hi := mzAxis[0], mzAxis[len(mzAxis)-1]

	var table []ChargeIntensity
	column := make([]float64, rows)
	for c := 0; c < min(cols, len(charges)); c++ {
		z := charges[c]
		if z == 0 {
			continue
		}
		mz := core.CalculateMZ(mass, z, adduct)
		if mz < lo || mz > hi {
			continue
		}
		mat.Col(column, c, grid)
		var pl interp.PiecewiseLinear
		if err := pl.Fit(mzAxis, column); err != nil {
			continue
		}
		table = append(table, ChargeIntensity{
			Charge:    z,
			MZ:        mz,
			Intensity: pl.Predict(mz),
			Index:     core.NearestIndex(mzAxis, mz),
		})
	}
	sort.Slice(table, func(i, j int) bool { return table[i].Charge < table[j].Charge })
	return table
}

// ChargeStates converts a peak's charge table for CalculateChargePositions
func ChargeStates(table []ChargeIntensity) []ChargeState {
	out := make([]ChargeState, len(table))
	for i, ci := range table {
		out[i] = ChargeState{Charge: ci.Charge, Intensity: ci.Intensity}
	}
	return out
}

// SumCharges sums grid over its rows, one ChargeState per column, ordered by
// charge.
func SumCharges(grid *mat.Dense, charges []int) []ChargeState {
	if grid == nil {
		return nil
	}
	rows, cols := grid.Dims()
	out := make([]ChargeState, 0, min(cols, len(charges)))
	for c := 0; c < min(cols, len(charges)); c++ {
		sum := 0.0
		for r := 0; r < rows; r++ {
			sum += grid.At(r, c)
		}
		out = append(out, ChargeState{Charge: charges[c], Intensity: sum})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Charge < out[j].Charge })
	return out
}
