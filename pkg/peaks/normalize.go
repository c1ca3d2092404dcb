package peaks

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/ChrisMcGann/DeconKey/pkg/core"
)

// NormMode selects how peak heights are scaled
type NormMode int

const (
	NormNone   NormMode = iota // leave heights as they are
	NormMax                    // largest height becomes 100
	NormSum                    // heights sum to 100
	NormCustom                 // divide by a user value
)

var normNames = map[NormMode]string{
	NormNone:   "none",
	NormMax:    "max",
	NormSum:    "sum",
	NormCustom: "custom",
}

func (m NormMode) String() string {
	if s, ok := normNames[m]; ok {
		return s
	}
	return fmt.Sprintf("NormMode(%d)", int(m))
}

// ParseNormMode accepts a mode name or its numeric code
func ParseNormMode(v string) (NormMode, error) {
	v = strings.ToLower(strings.TrimSpace(v))
	for m, name := range normNames {
		if v == name || v == fmt.Sprint(int(m)) {
			return m, nil
		}
	}
	return 0, &core.ConfigError{Field: "peaknorm", Message: fmt.Sprintf("unknown normalization %q", v)}
}

// Factor returns the multiplier that normalizes values under mode.
// custom is the divisor for NormCustom.
func Factor(mode NormMode, values []float64, custom float64) (float64, error) {
	switch mode {
	case NormNone:
		return 1, nil
	case NormMax, NormSum:
		if len(values) == 0 {
			return 0, &core.PeakPickError{Param: "peaknorm", Message: "no values to normalize"}
		}
		ref := floats.Max(values)
		if mode == NormSum {
			ref = floats.Sum(values)
		}
		if ref <= 0 {
			return 0, &core.PeakPickError{Param: "peaknorm", Message: fmt.Sprintf("%s reference is %g", mode, ref)}
		}
		return 100 / ref, nil
	case NormCustom:
		if custom <= 0 {
			return 0, &core.PeakPickError{Param: "peaknormvalue", Message: fmt.Sprintf("custom normalization must be positive, got %g", custom)}
		}
		return 1 / custom, nil
	default:
		return 0, &core.PeakPickError{Param: "peaknorm", Message: fmt.Sprintf("unknown normalization %d", int(mode))}
	}
}

// Normalize scales values in place and returns the factor applied
func Normalize(mode NormMode, values []float64, custom float64) (float64, error) {
	f, err := Factor(mode, values, custom)
	if err != nil {
		return 0, err
	}
	floats.Scale(f, values)
	return f, nil
}

// Scale multiplies every peak height by f
func (p *Peaks) Scale(f float64) {
	for _, pk := range p.Items {
		pk.Height *= f
	}
}
