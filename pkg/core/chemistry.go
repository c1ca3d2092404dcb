// Package core provides mass, m/z and charge coordinate transforms.
package core

import "math"

// Particle masses (monoisotopic)
const (
	ProtonMass   = 1.00727646688
	ElectronMass = 0.00054857991
	MassNa       = 22.9897692820
	MassK        = 38.9637064864
	MassCl       = 34.9688527300
	MassNH4      = 18.0338255700 // NH3 + H+
)

// CalculateMZ returns the m/z of a neutral mass carrying charge adducts.
// m/z = (mass + adduct*z) / z
func CalculateMZ(mass float64, charge int, adductMass float64) float64 {
	z := float64(charge)
	return (mass + adductMass*z) / z
}

// CalculateMass returns the neutral mass observed at mz with the given charge.
func CalculateMass(mz float64, charge int, adductMass float64) float64 {
	z := float64(charge)
	return (mz - adductMass) * z
}

// KendrickMass returns the Kendrick number (mass/reference) and its fractional
// remainder (the Kendrick mass defect).
func KendrickMass(mass, reference float64) (number, defect float64) {
	if reference <= 0 {
		return 0, 0
	}
	number = mass / reference
	defect = number - math.Floor(number)
	return number, defect
}

// RoundFloat rounds a float to n decimal places
func RoundFloat(val float64, precision int) float64 {
	ratio := math.Pow(10, float64(precision))
	return math.Round(val*ratio) / ratio
}
