package nn

import (
	"fmt"
)

// AxialStack alternates attention between the time and frequency axes of a
// latent grid. Each of its depth stages runs a time block over
// (batch*freq, time, dim) and then a frequency block over
// (batch*time, freq, dim), so attention cost stays
// O(depth*(T²·F + F²·T)) instead of O((T·F)²) for joint attention.
//
// All time blocks share one rotary table and all frequency blocks another;
// no other position information is injected, which keeps the stack
// translation-equivariant along each axis independently.
type AxialStack struct {
	dim   int
	depth int

	timeBlocks []*Block
	freqBlocks []*Block
}

// NewAxialStack creates depth pairs of time/frequency blocks.
func NewAxialStack(dim, heads, depth int) (*AxialStack, error) {
	if depth <= 0 {
		return nil, fmt.Errorf("nn: stack depth must be positive: %d", depth)
	}

	if dim <= 0 || heads <= 0 || dim%heads != 0 {
		return nil, fmt.Errorf("nn: stack width %d not divisible by %d heads", dim, heads)
	}

	rotTime, err := NewRotary(dim / heads)
	if err != nil {
		return nil, err
	}

	rotFreq, err := NewRotary(dim / heads)
	if err != nil {
		return nil, err
	}

	s := &AxialStack{dim: dim, depth: depth}
	for range depth {
		tb, err := NewBlock(dim, heads, rotTime)
		if err != nil {
			return nil, err
		}

		fb, err := NewBlock(dim, heads, rotFreq)
		if err != nil {
			return nil, err
		}

		s.timeBlocks = append(s.timeBlocks, tb)
		s.freqBlocks = append(s.freqBlocks, fb)
	}

	return s, nil
}

// Depth returns the number of time/frequency block pairs.
func (s *AxialStack) Depth() int { return s.depth }

// Dim returns the model width.
func (s *AxialStack) Dim() int { return s.dim }

// Pair returns the time and frequency blocks of stage i.
func (s *AxialStack) Pair(i int) (timeBlock, freqBlock *Block) {
	return s.timeBlocks[i], s.freqBlocks[i]
}

// Params returns the number of scalar parameters in the stack.
func (s *AxialStack) Params() int {
	total := 0
	for i := range s.depth {
		total += s.timeBlocks[i].Params() + s.freqBlocks[i].Params()
	}

	return total
}

// Forward runs the full stack over a latent grid x laid out as
// (batch, time, freq, dim) flattened. The grid shape is preserved.
func (s *AxialStack) Forward(x []float64, batch, timeSteps, freqBins int) []float64 {
	for i := range s.depth {
		// Fold frequency into batch so attention runs along time.
		folded := swapMiddleAxes(x, batch, timeSteps, freqBins, s.dim)
		folded = s.timeBlocks[i].Forward(folded, batch*freqBins, timeSteps)
		x = swapMiddleAxes(folded, batch, freqBins, timeSteps, s.dim)

		// (batch, time, freq, dim) already exposes freq as the sequence axis.
		x = s.freqBlocks[i].Forward(x, batch*timeSteps, freqBins)
	}

	return x
}

// swapMiddleAxes reinterprets (b, a1, a2, d) as (b, a2, a1, d), copying
// feature vectors. It is its own inverse with a1 and a2 exchanged.
func swapMiddleAxes(x []float64, b, a1, a2, d int) []float64 {
	out := make([]float64, len(x))
	for bi := range b {
		for i := range a1 {
			for j := range a2 {
				src := ((bi*a1+i)*a2 + j) * d
				dst := ((bi*a2+j)*a1 + i) * d
				copy(out[dst:dst+d], x[src:src+d])
			}
		}
	}

	return out
}
