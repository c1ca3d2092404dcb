// Package peaks detects, labels and characterizes peaks in a deconvolved
// mass distribution.
package peaks

import (
	"math"
	"strconv"

	"github.com/ChrisMcGann/DeconKey/pkg/core"
)

// DefaultColorMap is the only color map currently implemented
const DefaultColorMap = "rainbow"

// markers cycles through matplotlib marker codes
var markers = []string{"o", "v", "^", ">", "s", "d", "*"}

// Peak represents a single peak in the mass distribution
type Peak struct {
	Mass   float64
	Height float64
	Index  int // index in the mass distribution

	Label  string
	Color  [3]float64 // RGB, 0..1
	Marker string
	Ignore bool

	ChargeTable []ChargeIntensity
	Convolved   []float64

	KendrickNum    float64
	KendrickDefect float64

	ErrorFWHM    float64
	IntervalFWHM [2]float64
	ErrorMean    float64
	Area         float64
}

// Peaks is an ordered peak list with shared display settings
type Peaks struct {
	Items    []*Peak
	ColorMap string
	MassBins float64
}

// New creates an empty peak list
func New(massBins float64) *Peaks {
	return &Peaks{ColorMap: DefaultColorMap, MassBins: massBins}
}

// Add appends a peak; its label follows insertion order
func (p *Peaks) Add(mass, height float64, index int) *Peak {
	pk := &Peak{
		Mass:   mass,
		Height: height,
		Index:  index,
		Label:  Label(len(p.Items)),
		Marker: markers[len(p.Items)%len(markers)],
	}
	p.Items = append(p.Items, pk)
	return pk
}

// FromDetected builds a peak list from detector output
func FromDetected(detected []DetectedPeak, massBins float64) *Peaks {
	p := New(massBins)
	for _, d := range detected {
		p.Add(d.X, d.Y, d.Index)
	}
	p.AssignColors()
	return p
}

// Len returns the number of peaks
func (p *Peaks) Len() int {
	return len(p.Items)
}

// Active returns the peaks not flagged as ignored
func (p *Peaks) Active() []*Peak {
	var out []*Peak
	for _, pk := range p.Items {
		if !pk.Ignore {
			out = append(out, pk)
		}
	}
	return out
}

// Masses returns the peak masses in order
func (p *Peaks) Masses() []float64 {
	out := make([]float64, len(p.Items))
	for i, pk := range p.Items {
		out[i] = pk.Mass
	}
	return out
}

// Heights returns the peak heights in order
func (p *Peaks) Heights() []float64 {
	out := make([]float64, len(p.Items))
	for i, pk := range p.Items {
		out[i] = pk.Height
	}
	return out
}

// Label returns the display label for the i-th peak: A..Z, A1..Z1, A2..
func Label(i int) string {
	letter := string(rune('A' + i%26))
	if round := i / 26; round > 0 {
		return letter + strconv.Itoa(round)
	}
	return letter
}

// AssignColors spreads peak colors evenly across the color map
func (p *Peaks) AssignColors() {
	n := len(p.Items)
	for i, pk := range p.Items {
		hue := 0.0
		if n > 1 {
			// stop short of wrapping back to red
			hue = 0.8 * float64(i) / float64(n-1)
		}
		pk.Color = hsvToRGB(hue, 1, 1)
	}
}

func hsvToRGB(h, s, v float64) [3]float64 {
	h = math.Mod(h, 1) * 6
	sector := math.Floor(h)
	f := h - sector
	pv := v * (1 - s)
	qv := v * (1 - s*f)
	tv := v * (1 - s*(1-f))
	switch int(sector) {
	case 0:
		return [3]float64{v, tv, pv}
	case 1:
		return [3]float64{qv, v, pv}
	case 2:
		return [3]float64{pv, v, tv}
	case 3:
		return [3]float64{pv, qv, v}
	case 4:
		return [3]float64{tv, pv, v}
	default:
		return [3]float64{v, pv, qv}
	}
}

// SetKendrick computes Kendrick mass number and defect for each peak
func (p *Peaks) SetKendrick(reference float64) {
	for _, pk := range p.Items {
		pk.KendrickNum, pk.KendrickDefect = core.KendrickMass(pk.Mass, reference)
	}
}

// Precision returns the number of decimals implied by the mass bin size
func (p *Peaks) Precision() int {
	if p.MassBins <= 0 || p.MassBins >= 1 {
		return 0
	}
	return int(math.Ceil(-math.Log10(p.MassBins) - 1e-9))
}

// Areas integrates the distribution over each peak's FWHM interval using the
// trapezoid rule. FWHMError must have run first.
func (p *Peaks) Areas(x, y []float64) {
	for _, pk := range p.Items {
		lo, hi := pk.IntervalFWHM[0], pk.IntervalFWHM[1]
		area := 0.0
		for i := 1; i < len(x) && i < len(y); i++ {
			if x[i-1] < lo || x[i] > hi {
				continue
			}
			area += (y[i] + y[i-1]) / 2 * (x[i] - x[i-1])
		}
		pk.Area = area
	}
}
