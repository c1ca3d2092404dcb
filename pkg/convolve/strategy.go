package convolve

import (
	"fmt"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/ChrisMcGann/DeconKey/pkg/peakshape"
)

// Strategy evaluates a position-weighted convolution: for every output sample
// x[j] it sums Height*prof(x[j]-Position) over the sticks within the profile's
// window. Implementations must agree to floating-point round-off.
type Strategy interface {
	Name() string
	Convolve(x []float64, sticks []Stick, prof peakshape.Profile, norm peakshape.Norm) ([]float64, error)
}

// Direct is the serial reference implementation.
type Direct struct{}

// Name returns "direct".
func (Direct) Name() string { return "direct" }

// Convolve implements Strategy.
func (Direct) Convolve(x []float64, sticks []Stick, prof peakshape.Profile, norm peakshape.Norm) ([]float64, error) {
	sorted := sortSticks(sticks)
	out := make([]float64, len(x))
	convolveRange(out, x, sorted, prof, norm, 0, len(x))
	return out, nil
}

// Parallel splits the output axis across worker goroutines.
type Parallel struct {
	Workers int
}

// minParallelSamples is the output size below which Parallel runs serially.
const minParallelSamples = 2048

// Name returns "parallel".
func (Parallel) Name() string { return "parallel" }

// Convolve implements Strategy.
func (p Parallel) Convolve(x []float64, sticks []Stick, prof peakshape.Profile, norm peakshape.Norm) ([]float64, error) {
	sorted := sortSticks(sticks)
	out := make([]float64, len(x))
	workers := p.Workers
	if workers < 2 || len(x) < minParallelSamples {
		convolveRange(out, x, sorted, prof, norm, 0, len(x))
		return out, nil
	}

	chunk := (len(x) + workers - 1) / workers
	var g errgroup.Group
	for start := 0; start < len(x); start += chunk {
		start, end := start, min(start+chunk, len(x))
		g.Go(func() error {
			convolveRange(out, x, sorted, prof, norm, start, end)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("parallel convolution: %w", err)
	}
	return out, nil
}

// SelectStrategy checks the host once and returns the fastest available strategy.
func SelectStrategy() Strategy {
	if n := runtime.NumCPU(); n > 1 {
		return Parallel{Workers: n}
	}
	return Direct{}
}

func sortSticks(sticks []Stick) []Stick {
	sorted := make([]Stick, len(sticks))
	copy(sorted, sticks)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Position < sorted[j].Position
	})
	return sorted
}

// convolveRange fills out[start:end]. sticks must be sorted by Position.
func convolveRange(out, x []float64, sticks []Stick, prof peakshape.Profile, norm peakshape.Norm, start, end int) {
	lim := prof.Shape.Extent() * prof.FWHM
	for j := start; j < end; j++ {
		lo := sort.Search(len(sticks), func(k int) bool {
			return sticks[k].Position >= x[j]-lim
		})
		sum := 0.0
		for k := lo; k < len(sticks) && sticks[k].Position <= x[j]+lim; k++ {
			sum += sticks[k].Height * prof.Eval(x[j]-sticks[k].Position, norm)
		}
		out[j] = sum
	}
}
