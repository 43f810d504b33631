package sep

import (
	"testing"

	"github.com/cwbudde/algo-separate/dsp/melband"
	"github.com/cwbudde/algo-separate/internal/testutil"
)

// toyBands builds a hand-checkable 6-bin partition: two regular triangular
// filters plus the synthetic edge bands, weights summing to 1 at every bin.
func toyBands(t *testing.T) *melband.Bands {
	t.Helper()

	filters := [][]float64{
		{0, 1, 0.5, 0, 0, 0},
		{0, 0, 0.5, 1, 0.5, 0},
	}

	bands, err := melband.NewFromFilterbank(filters)
	if err != nil {
		t.Fatal(err)
	}

	if bands.Count() != 4 || bands.Bins() != 6 {
		t.Fatalf("toy partition has %d bands over %d bins", bands.Count(), bands.Bins())
	}

	return bands
}

// setRoutingWeights makes every projection pair a pure embed/extract: the
// compress map injects the weighted band vector into the embedding space and
// the expand map reads it back, so the mapper reduces to gather/scatter
// routing.
func setRoutingWeights(t *testing.T, m *BandMapper) {
	t.Helper()

	for f := range m.Bands().Count() {
		in := m.Compress(f).In()
		out := m.Compress(f).Out()

		if err := m.Compress(f).SetWeights(testutil.Injection(out, in), nil); err != nil {
			t.Fatal(err)
		}
		if err := m.Expand(f).SetWeights(testutil.Transpose(testutil.Injection(out, in), out, in), nil); err != nil {
			t.Fatal(err)
		}
	}
}

func TestNewBandMapperValidation(t *testing.T) {
	bands := toyBands(t)

	if _, err := NewBandMapper(nil, 2, 4); err == nil {
		t.Fatal("expected error for missing partition")
	}
	if _, err := NewBandMapper(bands, 0, 4); err == nil {
		t.Fatal("expected error for zero channels")
	}
	if _, err := NewBandMapper(bands, 2, 0); err == nil {
		t.Fatal("expected error for zero band width")
	}
}

func TestBandMapperProjectionShapes(t *testing.T) {
	bands := toyBands(t)

	m, err := NewBandMapper(bands, 2, 6)
	if err != nil {
		t.Fatal(err)
	}

	for f := range bands.Count() {
		width := len(bands.Band(f).Bins)
		if got := m.Compress(f).In(); got != 2*width {
			t.Fatalf("band %d compress input = %d, want %d", f, got, 2*width)
		}
		if got := m.Expand(f).Out(); got != 2*width {
			t.Fatalf("band %d expand output = %d, want %d", f, got, 2*width)
		}
	}
}

func TestBandMapperRoutingRoundTrip(t *testing.T) {
	// With identity-style projections the mapper is pure routing, and the
	// partition of unity makes inverse(transform(x)) = x exactly.
	bands := toyBands(t)

	m, err := NewBandMapper(bands, 2, 6)
	if err != nil {
		t.Fatal(err)
	}
	setRoutingWeights(t, m)

	const batch, timeSteps = 2, 3
	x := testutil.DeterministicNoise(21, 1.0, batch*2*timeSteps*bands.Bins())

	back := m.Inverse(m.Transform(x, batch, timeSteps), batch, timeSteps)
	testutil.RequireSliceNearlyEqual(t, back, x, 1e-12)
}

func TestBandMapperRoutingRoundTripRealPartition(t *testing.T) {
	// Same property over a real mel partition, where band widths vary and
	// neighbors overlap at many bins.
	bands, err := melband.New(44100, 512, 64)
	if err != nil {
		t.Fatal(err)
	}

	m, err := NewBandMapper(bands, 4, 4*bands.MaxWidth())
	if err != nil {
		t.Fatal(err)
	}
	setRoutingWeights(t, m)

	const batch, timeSteps = 1, 2
	x := testutil.DeterministicNoise(22, 1.0, batch*4*timeSteps*bands.Bins())

	back := m.Inverse(m.Transform(x, batch, timeSteps), batch, timeSteps)
	testutil.RequireSliceNearlyEqual(t, back, x, 1e-9)
}

func TestBandMapperTransformShape(t *testing.T) {
	bands := toyBands(t)

	m, err := NewBandMapper(bands, 2, 5)
	if err != nil {
		t.Fatal(err)
	}

	const batch, timeSteps = 2, 4
	x := make([]float64, batch*2*timeSteps*bands.Bins())
	out := m.Transform(x, batch, timeSteps)

	if len(out) != batch*timeSteps*bands.Count()*5 {
		t.Fatalf("transform output length = %d", len(out))
	}
}

func TestBandMapperInverseAccumulates(t *testing.T) {
	// Bin 2 of the toy partition belongs to both regular bands with weight
	// 0.5 each; the inverse must sum their contributions, not overwrite.
	bands := toyBands(t)

	m, err := NewBandMapper(bands, 1, 3)
	if err != nil {
		t.Fatal(err)
	}

	// Expand of each regular band emits 1 for every covered bin.
	for f := range bands.Count() {
		in := m.Expand(f).In()
		out := m.Expand(f).Out()
		ones := make([]float64, out)
		for i := range ones {
			ones[i] = 1
		}
		if err := m.Expand(f).SetWeights(make([]float64, in*out), ones); err != nil {
			t.Fatal(err)
		}
	}

	y := m.Inverse(make([]float64, 1*1*bands.Count()*3), 1, 1)

	// Contribution count per bin: 1 for exclusive bins, 2 at overlaps.
	want := []float64{1, 1, 2, 1, 2, 1}
	testutil.RequireSliceNearlyEqual(t, y, want, 1e-12)
}
