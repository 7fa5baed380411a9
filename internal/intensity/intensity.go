// Package intensity computes the display range shared by every frame of an
// animation.
package intensity

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/mrsinham/slicemovie/internal/frames"
)

// Method selects the percentile estimator.
type Method string

const (
	// MethodLinear interpolates linearly between the closest ranks, the
	// default estimate of numpy.percentile.
	MethodLinear Method = "linear"
	// MethodEmpirical returns the empirical quantile (gonum stat.Empirical).
	MethodEmpirical Method = "empirical"
	// MethodLinInterp interpolates the empirical CDF (gonum stat.LinInterp).
	MethodLinInterp Method = "lininterp"
)

// Methods lists the accepted estimators.
var Methods = []Method{MethodLinear, MethodEmpirical, MethodLinInterp}

// Options configures Compute.
type Options struct {
	// Lower and Upper are percentiles in [0, 100].
	Lower float64
	Upper float64
	// Method defaults to MethodLinear.
	Method Method
	// MaxSamples, when positive, takes every k-th sample so that at most
	// MaxSamples values are sorted. Zero uses every sample.
	MaxSamples int
}

// DefaultOptions returns the 1st/99th percentile range.
func DefaultOptions() Options {
	return Options{Lower: 1, Upper: 99, Method: MethodLinear}
}

// Validate checks the percentile bounds and method.
func (o Options) Validate() error {
	if !isFinite(o.Lower) || !isFinite(o.Upper) {
		return fmt.Errorf("invalid percentiles %g-%g: must be finite", o.Lower, o.Upper)
	}
	if o.Lower < 0 || o.Upper > 100 || o.Lower > o.Upper {
		return fmt.Errorf("invalid percentiles %g-%g: need 0 <= lower <= upper <= 100", o.Lower, o.Upper)
	}
	if o.MaxSamples < 0 {
		return fmt.Errorf("max samples must be >= 0, got %d", o.MaxSamples)
	}
	switch o.Method {
	case "", MethodLinear, MethodEmpirical, MethodLinInterp:
		return nil
	default:
		return fmt.Errorf("unknown percentile method %q, valid options: %v", o.Method, Methods)
	}
}

// DisplayRange is the intensity window mapped onto the colour map.
type DisplayRange struct {
	Min float64
	Max float64
}

// Normalize maps v into [0, 1], clamping values outside the range. A
// degenerate range maps everything to 0.
func (r DisplayRange) Normalize(v float64) float64 {
	if math.IsNaN(v) {
		return math.NaN()
	}
	if r.Max <= r.Min {
		return 0
	}
	f := (v - r.Min) / (r.Max - r.Min)
	return math.Max(0, math.Min(1, f))
}

// Compute returns the display range over every sample of every view of the
// stack. Non-finite samples are ignored; if none remain the range is {0, 0}.
func Compute(stack *frames.Stack, opts Options) (DisplayRange, error) {
	if err := opts.Validate(); err != nil {
		return DisplayRange{}, err
	}
	values := collect(stack, opts.MaxSamples)
	if len(values) == 0 {
		return DisplayRange{}, nil
	}
	sort.Float64s(values)
	return DisplayRange{
		Min: Quantile(values, opts.Lower/100, opts.Method),
		Max: Quantile(values, opts.Upper/100, opts.Method),
	}, nil
}

// Percentile returns the p-th percentile of values using method. values is
// copied before sorting.
func Percentile(values []float64, p float64, method Method) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	return Quantile(sorted, p/100, method)
}

// Quantile returns the q-quantile, q in [0, 1], of sorted.
func Quantile(sorted []float64, q float64, method Method) float64 {
	if len(sorted) == 0 || math.IsNaN(q) {
		return math.NaN()
	}
	q = math.Max(0, math.Min(1, q))
	switch method {
	case MethodEmpirical:
		return stat.Quantile(q, stat.Empirical, sorted, nil)
	case MethodLinInterp:
		return stat.Quantile(q, stat.LinInterp, sorted, nil)
	default:
		return linear(sorted, q)
	}
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// linear is the closest-ranks interpolation at position q*(n-1).
func linear(sorted []float64, q float64) float64 {
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	a, b := sorted[lo], sorted[hi]
	if lo == hi || a == b {
		return a
	}
	v := a + (b-a)*(pos-float64(lo))
	return math.Max(a, math.Min(b, v))
}

// collect returns the finite samples of the stack, subsampled with a fixed
// stride when maxSamples is positive.
func collect(stack *frames.Stack, maxSamples int) []float64 {
	total := stack.Samples()
	stride := 1
	if maxSamples > 0 && total > maxSamples {
		stride = (total + maxSamples - 1) / maxSamples
	}

	values := make([]float64, 0, total/stride+1)
	i := 0
	for _, view := range frames.Views {
		for _, p := range stack.Planes(view) {
			for _, s := range p.Data {
				keep := i%stride == 0
				i++
				if !keep {
					continue
				}
				v := float64(s)
				if math.IsNaN(v) || math.IsInf(v, 0) {
					continue
				}
				values = append(values, v)
			}
		}
	}
	return values
}
