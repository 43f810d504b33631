package nn

import (
	"fmt"
	"math"
)

// rotaryTheta is the base of the rotary frequency geometric series.
const rotaryTheta = 10000.0

// Rotary encodes positions as deterministic rotations of adjacent feature
// pairs. Sub-plane i of a head vector rotates at angle pos * theta^(-2i/d),
// so attention scores between rotated queries and keys depend only on
// relative position. The table carries no learned parameters and a single
// instance is shared by every block attending along the same axis.
type Rotary struct {
	headDim int
	invFreq []float64
}

// NewRotary creates a rotary table for an even, positive head dimension.
func NewRotary(headDim int) (*Rotary, error) {
	if headDim <= 0 || headDim%2 != 0 {
		return nil, fmt.Errorf("nn: rotary head dimension must be positive and even: %d", headDim)
	}

	half := headDim / 2
	invFreq := make([]float64, half)
	for i := range invFreq {
		invFreq[i] = math.Pow(rotaryTheta, -2*float64(i)/float64(headDim))
	}

	return &Rotary{headDim: headDim, invFreq: invFreq}, nil
}

// HeadDim returns the head dimension the table was built for.
func (r *Rotary) HeadDim() int { return r.headDim }

// Tables returns the cosine and sine factors for seqLen positions. Row p
// holds headDim/2 entries for the sub-plane angles at position p. The result
// is a pure function of (seqLen, headDim).
func (r *Rotary) Tables(seqLen int) (cos, sin []float64) {
	half := r.headDim / 2
	cos = make([]float64, seqLen*half)
	sin = make([]float64, seqLen*half)

	for p := range seqLen {
		for i, f := range r.invFreq {
			angle := float64(p) * f
			cos[p*half+i] = math.Cos(angle)
			sin[p*half+i] = math.Sin(angle)
		}
	}

	return cos, sin
}

// Rotate applies the position-pos rotation to one head vector in place,
// pairing adjacent features (2i, 2i+1). cos and sin come from
// [Rotary.Tables].
func (r *Rotary) Rotate(vec, cos, sin []float64, pos int) {
	half := r.headDim / 2
	row := pos * half

	for i := range half {
		c, s := cos[row+i], sin[row+i]
		x1, x2 := vec[2*i], vec[2*i+1]
		vec[2*i] = x1*c - x2*s
		vec[2*i+1] = x1*s + x2*c
	}
}
