package nn

import (
	"fmt"
	"math"
)

// ffnExpansion is the hidden-width multiplier of the feed-forward layer.
const ffnExpansion = 4

// FeedForward is the position-wise MLP of a transformer block: up-project to
// four times the width, SiLU, down-project. Both maps are bias-free.
type FeedForward struct {
	up   *Linear
	down *Linear
}

// NewFeedForward creates a feed-forward layer for the given model width.
func NewFeedForward(dim int) (*FeedForward, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("nn: feed-forward width must be positive: %d", dim)
	}

	up, err := NewLinear(dim, ffnExpansion*dim, false)
	if err != nil {
		return nil, err
	}

	down, err := NewLinear(ffnExpansion*dim, dim, false)
	if err != nil {
		return nil, err
	}

	return &FeedForward{up: up, down: down}, nil
}

// Up returns the expanding projection.
func (f *FeedForward) Up() *Linear { return f.up }

// Down returns the contracting projection.
func (f *FeedForward) Down() *Linear { return f.down }

// Params returns the number of scalar parameters in the layer.
func (f *FeedForward) Params() int { return f.up.Params() + f.down.Params() }

// Forward maps rows vectors of the model width through the MLP.
func (f *FeedForward) Forward(x []float64, rows int) []float64 {
	h := f.up.Apply(x, rows)
	for i, v := range h {
		h[i] = v / (1 + math.Exp(-v))
	}

	return f.down.Apply(h, rows)
}
