package nn

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// DefaultNormEps is the stability constant added to the mean square before
// the reciprocal square root.
const DefaultNormEps = 1e-6

// RMSNorm scales each feature vector by the reciprocal root of its mean
// squared value, then applies a learned per-feature gain. There is no mean
// centering and no bias.
type RMSNorm struct {
	dim  int
	eps  float64
	gain []float64
}

// NewRMSNorm creates a normalization layer with unit gain and the default
// stability constant.
func NewRMSNorm(dim int) (*RMSNorm, error) {
	return NewRMSNormEps(dim, DefaultNormEps)
}

// NewRMSNormEps creates a normalization layer with an explicit stability
// constant.
func NewRMSNormEps(dim int, eps float64) (*RMSNorm, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("nn: norm width must be positive: %d", dim)
	}

	if eps <= 0 || math.IsNaN(eps) {
		return nil, fmt.Errorf("nn: norm eps must be positive: %v", eps)
	}

	gain := make([]float64, dim)
	for i := range gain {
		gain[i] = 1
	}

	return &RMSNorm{dim: dim, eps: eps, gain: gain}, nil
}

// Dim returns the feature width.
func (n *RMSNorm) Dim() int { return n.dim }

// Params returns the number of scalar parameters in the layer.
func (n *RMSNorm) Params() int { return n.dim }

// SetGain loads the learned per-feature scale.
func (n *RMSNorm) SetGain(gain []float64) error {
	if len(gain) != n.dim {
		return fmt.Errorf("nn: gain length %d does not match width %d", len(gain), n.dim)
	}

	copy(n.gain, gain)
	return nil
}

// Apply normalizes every dim-wide vector in x into dst. dst and x must have
// equal length, a multiple of the feature width; dst may alias x.
func (n *RMSNorm) Apply(dst, x []float64) {
	for start := 0; start < len(x); start += n.dim {
		v := x[start : start+n.dim]
		o := dst[start : start+n.dim]

		meanSq := floats.Dot(v, v) / float64(n.dim)
		scale := 1 / math.Sqrt(meanSq+n.eps)

		for i := range v {
			o[i] = v[i] * scale * n.gain[i]
		}
	}
}
