package nn

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Attention is multi-head self-attention over independent rows of a latent
// sequence: one fused QKV projection, rotary rotation of queries and keys,
// scaled dot-product attention without masking or dropout, and an output
// projection. Both projections are bias-free.
type Attention struct {
	dim     int
	heads   int
	headDim int

	qkv  *Linear
	proj *Linear
	rot  *Rotary
}

// NewAttention creates an attention layer of the given width and head count.
// The width must divide evenly into heads, and the rotary table must match
// the resulting head dimension.
func NewAttention(dim, heads int, rot *Rotary) (*Attention, error) {
	if dim <= 0 || heads <= 0 {
		return nil, fmt.Errorf("nn: attention width and head count must be positive: %d, %d", dim, heads)
	}

	if dim%heads != 0 {
		return nil, fmt.Errorf("nn: attention width %d not divisible by %d heads", dim, heads)
	}

	headDim := dim / heads
	if rot == nil || rot.HeadDim() != headDim {
		return nil, fmt.Errorf("nn: rotary table does not match head dimension %d", headDim)
	}

	qkv, err := NewLinear(dim, 3*dim, false)
	if err != nil {
		return nil, err
	}

	proj, err := NewLinear(dim, dim, false)
	if err != nil {
		return nil, err
	}

	return &Attention{dim: dim, heads: heads, headDim: headDim, qkv: qkv, proj: proj, rot: rot}, nil
}

// QKV returns the fused query/key/value projection.
func (a *Attention) QKV() *Linear { return a.qkv }

// Proj returns the output projection.
func (a *Attention) Proj() *Linear { return a.proj }

// Params returns the number of scalar parameters in the layer.
func (a *Attention) Params() int { return a.qkv.Params() + a.proj.Params() }

// Forward runs attention over rows independent sequences of length seq.
// x is (rows, seq, dim) flattened; the result has the same shape. The fused
// projection emits features as [q | k | v], each split into heads with the
// head-local features innermost.
func (a *Attention) Forward(x []float64, rows, seq int) []float64 {
	qkvOut := a.qkv.Apply(x, rows*seq)
	cos, sin := a.rot.Tables(seq)

	concat := make([]float64, rows*seq*a.dim)
	scale := 1 / math.Sqrt(float64(a.headDim))

	q := mat.NewDense(seq, a.headDim, nil)
	k := mat.NewDense(seq, a.headDim, nil)
	v := mat.NewDense(seq, a.headDim, nil)
	scores := mat.NewDense(seq, seq, nil)
	ctx := mat.NewDense(seq, a.headDim, nil)

	for r := range rows {
		for h := range a.heads {
			off := h * a.headDim

			for s := range seq {
				base := (r*seq + s) * 3 * a.dim

				qRow := q.RawRowView(s)
				kRow := k.RawRowView(s)
				copy(qRow, qkvOut[base+off:base+off+a.headDim])
				copy(kRow, qkvOut[base+a.dim+off:base+a.dim+off+a.headDim])
				copy(v.RawRowView(s), qkvOut[base+2*a.dim+off:base+2*a.dim+off+a.headDim])

				a.rot.Rotate(qRow, cos, sin, s)
				a.rot.Rotate(kRow, cos, sin, s)
			}

			scores.Mul(q, k.T())
			for s := range seq {
				row := scores.RawRowView(s)
				floats.Scale(scale, row)
				softmax(row)
			}

			ctx.Mul(scores, v)
			for s := range seq {
				dst := concat[(r*seq+s)*a.dim+off:]
				copy(dst[:a.headDim], ctx.RawRowView(s))
			}
		}
	}

	return a.proj.Apply(concat, rows*seq)
}

// softmax normalizes row in place with the usual max-shift for stability.
func softmax(row []float64) {
	shift := floats.Max(row)
	for i := range row {
		row[i] = math.Exp(row[i] - shift)
	}

	floats.Scale(1/floats.Sum(row), row)
}
