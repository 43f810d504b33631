package nn

import (
	"gonum.org/v1/gonum/floats"
)

// Block is a pre-norm residual transformer block:
//
//	x = x + Attention(Norm(x))
//	x = x + FeedForward(Norm(x))
type Block struct {
	attNorm *RMSNorm
	ffNorm  *RMSNorm
	att     *Attention
	ff      *FeedForward
}

// NewBlock creates a transformer block of the given width and head count,
// attending with the supplied rotary table.
func NewBlock(dim, heads int, rot *Rotary) (*Block, error) {
	attNorm, err := NewRMSNorm(dim)
	if err != nil {
		return nil, err
	}

	ffNorm, err := NewRMSNorm(dim)
	if err != nil {
		return nil, err
	}

	att, err := NewAttention(dim, heads, rot)
	if err != nil {
		return nil, err
	}

	ff, err := NewFeedForward(dim)
	if err != nil {
		return nil, err
	}

	return &Block{attNorm: attNorm, ffNorm: ffNorm, att: att, ff: ff}, nil
}

// Attention returns the attention sub-layer.
func (b *Block) Attention() *Attention { return b.att }

// FeedForward returns the feed-forward sub-layer.
func (b *Block) FeedForward() *FeedForward { return b.ff }

// AttentionNorm returns the normalization ahead of the attention sub-layer.
func (b *Block) AttentionNorm() *RMSNorm { return b.attNorm }

// FeedForwardNorm returns the normalization ahead of the feed-forward
// sub-layer.
func (b *Block) FeedForwardNorm() *RMSNorm { return b.ffNorm }

// Params returns the number of scalar parameters in the block.
func (b *Block) Params() int {
	return b.attNorm.Params() + b.ffNorm.Params() + b.att.Params() + b.ff.Params()
}

// Forward runs the block over rows independent sequences of length seq.
// x is (rows, seq, dim) flattened and is not modified.
func (b *Block) Forward(x []float64, rows, seq int) []float64 {
	normed := make([]float64, len(x))
	b.attNorm.Apply(normed, x)

	out := append([]float64(nil), x...)
	floats.Add(out, b.att.Forward(normed, rows, seq))

	b.ffNorm.Apply(normed, out)
	floats.Add(out, b.ff.Forward(normed, rows*seq))

	return out
}
