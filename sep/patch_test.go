package sep

import (
	"testing"

	"github.com/cwbudde/algo-separate/internal/testutil"
)

// setIdentityPatches makes embed/unembed the identity so the embedder is a
// pure tile/untile round trip. Requires modelDim == patchT*patchF*bandDim.
func setIdentityPatches(t *testing.T, p *PatchEmbedder) {
	t.Helper()

	n := p.Embed().In()
	if err := p.Embed().SetWeights(testutil.Identity(n), nil); err != nil {
		t.Fatal(err)
	}
	if err := p.Unembed().SetWeights(testutil.Identity(n), nil); err != nil {
		t.Fatal(err)
	}
}

func TestNewPatchEmbedderValidation(t *testing.T) {
	if _, err := NewPatchEmbedder(0, 4, 4, 8, 32); err == nil {
		t.Fatal("expected error for zero band width")
	}
	if _, err := NewPatchEmbedder(2, 4, 3, 8, 32); err == nil {
		t.Fatal("expected error when patch frequency extent does not divide band count")
	}
}

func TestGrid(t *testing.T) {
	p, err := NewPatchEmbedder(2, 4, 4, 8, 64)
	if err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		timeSteps int
		wantTime  int
	}{
		{1, 1},
		{4, 1},
		{5, 2},
		{13, 4},
		{16, 4},
	}

	for _, tc := range cases {
		timeTiles, freqTiles := p.Grid(tc.timeSteps)
		if timeTiles != tc.wantTime || freqTiles != 2 {
			t.Errorf("Grid(%d) = (%d, %d), want (%d, 2)", tc.timeSteps, timeTiles, freqTiles, tc.wantTime)
		}
	}
}

func TestPatchRoundTripNonMultipleLength(t *testing.T) {
	// T=13 with patch time extent 4: padded to 16 internally, truncated
	// back to 13 on the way out.
	p, err := NewPatchEmbedder(2, 4, 4, 8, 32)
	if err != nil {
		t.Fatal(err)
	}
	setIdentityPatches(t, p)

	const batch, timeSteps = 2, 13
	x := testutil.DeterministicNoise(31, 1.0, batch*timeSteps*8*2)

	lat := p.Patchify(x, batch, timeSteps)
	timeTiles, freqTiles := p.Grid(timeSteps)
	if len(lat) != batch*timeTiles*freqTiles*32 {
		t.Fatalf("latent length = %d", len(lat))
	}

	back := p.Unpatchify(lat, batch, timeSteps)
	testutil.RequireSliceNearlyEqual(t, back, x, 0)
}

func TestPatchRoundTripExactMultiple(t *testing.T) {
	p, err := NewPatchEmbedder(3, 2, 4, 8, 24)
	if err != nil {
		t.Fatal(err)
	}
	setIdentityPatches(t, p)

	const batch, timeSteps = 1, 6
	x := testutil.DeterministicNoise(32, 1.0, batch*timeSteps*8*3)

	back := p.Unpatchify(p.Patchify(x, batch, timeSteps), batch, timeSteps)
	testutil.RequireSliceNearlyEqual(t, back, x, 0)
}

func TestPatchPaddingIsZero(t *testing.T) {
	// With identity projections and zero bias, tiles covering only padded
	// frames must come out all-zero.
	p, err := NewPatchEmbedder(1, 4, 2, 2, 8)
	if err != nil {
		t.Fatal(err)
	}
	setIdentityPatches(t, p)

	// One frame of ones: the second time tile sees only zero frames and the
	// zero padding above frame 4.
	const batch, timeSteps = 1, 5
	x := make([]float64, batch*timeSteps*2*1)
	for i := range 2 {
		x[i] = 1
	}

	lat := p.Patchify(x, batch, timeSteps)
	timeTiles, _ := p.Grid(timeSteps)
	if timeTiles != 2 {
		t.Fatalf("timeTiles = %d, want 2", timeTiles)
	}

	second := lat[1*1*8 : 2*1*8]
	testutil.RequireSliceNearlyEqual(t, second, make([]float64, 8), 0)
}
