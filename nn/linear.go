package nn

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Linear is a frozen dense map y = x Wᵀ + b applied to batches of row
// vectors. W is stored row-major as (out, in).
type Linear struct {
	in   int
	out  int
	w    *mat.Dense
	bias []float64
}

// NewLinear creates a zero-initialized dense layer. Weights are expected to
// be loaded afterwards via [Linear.SetWeights]; persistence formats are the
// caller's concern.
func NewLinear(in, out int, bias bool) (*Linear, error) {
	if in <= 0 || out <= 0 {
		return nil, fmt.Errorf("nn: linear dimensions must be positive: %dx%d", in, out)
	}

	l := &Linear{in: in, out: out, w: mat.NewDense(out, in, nil)}
	if bias {
		l.bias = make([]float64, out)
	}

	return l, nil
}

// In returns the input feature width.
func (l *Linear) In() int { return l.in }

// Out returns the output feature width.
func (l *Linear) Out() int { return l.out }

// HasBias reports whether the layer carries a bias vector.
func (l *Linear) HasBias() bool { return l.bias != nil }

// Params returns the number of scalar parameters in the layer.
func (l *Linear) Params() int { return l.in*l.out + len(l.bias) }

// SetWeights loads the weight matrix (row-major, out x in) and optionally a
// bias vector of length out. A nil bias leaves the current bias untouched.
func (l *Linear) SetWeights(w, bias []float64) error {
	if len(w) != l.in*l.out {
		return fmt.Errorf("nn: weight length %d does not match %dx%d layer", len(w), l.out, l.in)
	}

	l.w = mat.NewDense(l.out, l.in, append([]float64(nil), w...))

	if bias != nil {
		if l.bias == nil {
			return fmt.Errorf("nn: layer has no bias, got %d bias values", len(bias))
		}
		if len(bias) != l.out {
			return fmt.Errorf("nn: bias length %d does not match output width %d", len(bias), l.out)
		}
		copy(l.bias, bias)
	}

	return nil
}

// Apply maps rows input vectors of width In to rows output vectors of width
// Out. len(x) must equal rows*In; shape mismatches are programming errors
// and panic via the underlying matrix multiply.
func (l *Linear) Apply(x []float64, rows int) []float64 {
	if rows == 0 {
		return nil
	}

	xm := mat.NewDense(rows, l.in, x)
	ym := mat.NewDense(rows, l.out, nil)
	ym.Mul(xm, l.w.T())

	y := ym.RawMatrix().Data
	if l.bias != nil {
		for r := range rows {
			floats.Add(y[r*l.out:(r+1)*l.out], l.bias)
		}
	}

	return y
}
