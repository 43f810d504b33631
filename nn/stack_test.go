package nn

import (
	"testing"

	"github.com/cwbudde/algo-separate/internal/testutil"
)

func TestBlockZeroWeightsIsIdentity(t *testing.T) {
	// Zero projections make both residual branches vanish.
	rot, err := NewRotary(8)
	if err != nil {
		t.Fatal(err)
	}

	b, err := NewBlock(16, 2, rot)
	if err != nil {
		t.Fatal(err)
	}

	x := testutil.DeterministicNoise(4, 1.0, 2*5*16)
	y := b.Forward(x, 2, 5)
	testutil.RequireSliceNearlyEqual(t, y, x, 0)
}

func TestBlockDoesNotModifyInput(t *testing.T) {
	rot, err := NewRotary(4)
	if err != nil {
		t.Fatal(err)
	}

	b, err := NewBlock(8, 2, rot)
	if err != nil {
		t.Fatal(err)
	}
	if err := b.Attention().QKV().SetWeights(testutil.DeterministicNoise(1, 0.1, 3*8*8), nil); err != nil {
		t.Fatal(err)
	}

	x := testutil.DeterministicNoise(2, 1.0, 3*8)
	orig := append([]float64(nil), x...)
	b.Forward(x, 1, 3)

	testutil.RequireSliceNearlyEqual(t, x, orig, 0)
}

func TestSwapMiddleAxes(t *testing.T) {
	// (1, 2, 3, 2): element (i, j) carries the value 10i + j in both
	// features, so the swapped layout is fully checkable.
	x := make([]float64, 2*3*2)
	for i := range 2 {
		for j := range 3 {
			v := float64(10*i + j)
			x[(i*3+j)*2] = v
			x[(i*3+j)*2+1] = v
		}
	}

	y := swapMiddleAxes(x, 1, 2, 3, 2)
	for j := range 3 {
		for i := range 2 {
			got := y[(j*2+i)*2]
			if got != float64(10*i+j) {
				t.Fatalf("swapped[%d,%d] = %v, want %v", j, i, got, 10*i+j)
			}
		}
	}
}

func TestSwapMiddleAxesRoundTrip(t *testing.T) {
	x := testutil.DeterministicNoise(6, 1.0, 2*4*5*3)
	y := swapMiddleAxes(x, 2, 4, 5, 3)
	back := swapMiddleAxes(y, 2, 5, 4, 3)
	testutil.RequireSliceNearlyEqual(t, back, x, 0)
}

func TestNewAxialStackValidation(t *testing.T) {
	if _, err := NewAxialStack(64, 4, 0); err == nil {
		t.Fatal("expected error for zero depth")
	}
	if _, err := NewAxialStack(65, 4, 1); err == nil {
		t.Fatal("expected error for non-divisible width")
	}
}

func TestAxialStackPreservesShape(t *testing.T) {
	s, err := NewAxialStack(32, 4, 2)
	if err != nil {
		t.Fatal(err)
	}

	for i := range s.Depth() {
		tb, fb := s.Pair(i)
		seedWeights(t, tb, int64(100+i))
		seedWeights(t, fb, int64(200+i))
	}

	const batch, timeSteps, freqBins = 2, 5, 4
	x := testutil.DeterministicNoise(8, 1.0, batch*timeSteps*freqBins*32)
	y := s.Forward(x, batch, timeSteps, freqBins)

	if len(y) != len(x) {
		t.Fatalf("output length = %d, want %d", len(y), len(x))
	}
	testutil.RequireFinite(t, y)
}

func TestAxialStackZeroWeightsIsIdentity(t *testing.T) {
	s, err := NewAxialStack(16, 2, 3)
	if err != nil {
		t.Fatal(err)
	}

	x := testutil.DeterministicNoise(12, 1.0, 1*4*4*16)
	y := s.Forward(x, 1, 4, 4)
	testutil.RequireSliceNearlyEqual(t, y, x, 0)
}

func TestAxialStackDeterministic(t *testing.T) {
	s, err := NewAxialStack(16, 2, 1)
	if err != nil {
		t.Fatal(err)
	}

	tb, fb := s.Pair(0)
	seedWeights(t, tb, 7)
	seedWeights(t, fb, 8)

	x := testutil.DeterministicNoise(3, 1.0, 2*3*4*16)
	y1 := s.Forward(x, 2, 3, 4)
	y2 := s.Forward(x, 2, 3, 4)
	testutil.RequireSliceNearlyEqual(t, y1, y2, 0)
}

// seedWeights fills a block with small deterministic pseudo-random weights.
func seedWeights(t *testing.T, b *Block, seed int64) {
	t.Helper()

	att := b.Attention()
	dim := att.QKV().In()

	if err := att.QKV().SetWeights(testutil.DeterministicNoise(seed, 0.1, 3*dim*dim), nil); err != nil {
		t.Fatal(err)
	}
	if err := att.Proj().SetWeights(testutil.DeterministicNoise(seed+1, 0.1, dim*dim), nil); err != nil {
		t.Fatal(err)
	}

	ff := b.FeedForward()
	if err := ff.Up().SetWeights(testutil.DeterministicNoise(seed+2, 0.1, 4*dim*dim), nil); err != nil {
		t.Fatal(err)
	}
	if err := ff.Down().SetWeights(testutil.DeterministicNoise(seed+3, 0.1, 4*dim*dim), nil); err != nil {
		t.Fatal(err)
	}
}
