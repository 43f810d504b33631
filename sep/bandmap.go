package sep

import (
	"fmt"

	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-separate/dsp/melband"
	"github.com/cwbudde/algo-separate/nn"
)

// BandMapper folds a stacked real/imaginary spectrogram into mel bands and
// back. Forward, each band gathers its bin subset, scales it by the band's
// partition weights, and compresses the flattened (channel, bin) vector to a
// uniform embedding width. Inverse, each band expands its embedding back to
// full (channel, bin) extent and scatter-accumulates into the output
// spectrum; bands overlap at their boundaries, so contributions sum.
type BandMapper struct {
	bands    *melband.Bands
	channels int
	bandDim  int

	compress []*nn.Linear
	expand   []*nn.Linear

	// contiguous marks bands whose bin support is a gap-free run, enabling
	// the vectorized gather/scatter path.
	contiguous []bool
}

// NewBandMapper builds per-band projection pairs over a validated partition
// table. channels counts the stacked real/imaginary planes, so it is twice
// the audio channel count.
func NewBandMapper(bands *melband.Bands, channels, bandDim int) (*BandMapper, error) {
	if bands == nil {
		return nil, fmt.Errorf("sep: band mapper needs a partition table")
	}

	if channels <= 0 || bandDim <= 0 {
		return nil, fmt.Errorf("sep: band mapper channels and width must be positive: %d, %d", channels, bandDim)
	}

	m := &BandMapper{
		bands:      bands,
		channels:   channels,
		bandDim:    bandDim,
		compress:   make([]*nn.Linear, bands.Count()),
		expand:     make([]*nn.Linear, bands.Count()),
		contiguous: make([]bool, bands.Count()),
	}

	for f := range bands.Count() {
		band := bands.Band(f)
		width := len(band.Bins)
		if width == 0 {
			return nil, fmt.Errorf("sep: band %d covers no bins; the mel resolution exceeds the spectral resolution", f)
		}

		var err error
		if m.compress[f], err = nn.NewLinear(width*channels, bandDim, true); err != nil {
			return nil, err
		}
		if m.expand[f], err = nn.NewLinear(bandDim, width*channels, true); err != nil {
			return nil, err
		}

		m.contiguous[f] = band.Bins[width-1]-band.Bins[0] == width-1
	}

	return m, nil
}

// Bands returns the underlying partition table.
func (m *BandMapper) Bands() *melband.Bands { return m.bands }

// Channels returns the stacked channel count the mapper was built for.
func (m *BandMapper) Channels() int { return m.channels }

// BandDim returns the per-band embedding width.
func (m *BandMapper) BandDim() int { return m.bandDim }

// Compress returns the compress projection of band f.
func (m *BandMapper) Compress(f int) *nn.Linear { return m.compress[f] }

// Expand returns the expand projection of band f.
func (m *BandMapper) Expand(f int) *nn.Linear { return m.expand[f] }

// Params returns the number of scalar parameters across all projections.
func (m *BandMapper) Params() int {
	total := 0
	for f := range m.compress {
		total += m.compress[f].Params() + m.expand[f].Params()
	}

	return total
}

// Transform maps x, laid out as (batch, channels, time, bins), to a banded
// embedding laid out as (batch, time, melBins, bandDim).
func (m *BandMapper) Transform(x []float64, batch, timeSteps int) []float64 {
	bins := m.bands.Bins()
	nb := m.bands.Count()
	rows := batch * timeSteps

	out := make([]float64, rows*nb*m.bandDim)

	for f := range nb {
		band := m.bands.Band(f)
		width := len(band.Bins)
		inDim := width * m.channels

		gathered := make([]float64, rows*inDim)
		for b := range batch {
			for t := range timeSteps {
				dst := gathered[(b*timeSteps+t)*inDim:]

				for c := range m.channels {
					src := ((b*m.channels+c)*timeSteps + t) * bins
					seg := dst[c*width : (c+1)*width]

					if m.contiguous[f] {
						lo := src + band.Bins[0]
						vecmath.MulBlock(seg, x[lo:lo+width], band.Weights)
					} else {
						for q, bin := range band.Bins {
							seg[q] = x[src+bin] * band.Weights[q]
						}
					}
				}
			}
		}

		v := m.compress[f].Apply(gathered, rows)
		for r := range rows {
			copy(out[(r*nb+f)*m.bandDim:(r*nb+f+1)*m.bandDim], v[r*m.bandDim:(r+1)*m.bandDim])
		}
	}

	return out
}

// Inverse maps a banded embedding, laid out as (batch, time, melBins,
// bandDim), back to a (batch, channels, time, bins) spectrum. Overlapping
// band contributions accumulate; the partition of unity guarantees every
// output bin receives at least one.
func (m *BandMapper) Inverse(x []float64, batch, timeSteps int) []float64 {
	bins := m.bands.Bins()
	nb := m.bands.Count()
	rows := batch * timeSteps

	out := make([]float64, batch*m.channels*timeSteps*bins)

	for f := range nb {
		band := m.bands.Band(f)
		width := len(band.Bins)
		inDim := width * m.channels

		v := make([]float64, rows*m.bandDim)
		for r := range rows {
			copy(v[r*m.bandDim:(r+1)*m.bandDim], x[(r*nb+f)*m.bandDim:(r*nb+f+1)*m.bandDim])
		}

		expanded := m.expand[f].Apply(v, rows)

		for b := range batch {
			for t := range timeSteps {
				src := expanded[(b*timeSteps+t)*inDim:]

				for c := range m.channels {
					dst := ((b*m.channels+c)*timeSteps + t) * bins
					seg := src[c*width : (c+1)*width]

					if m.contiguous[f] {
						lo := dst + band.Bins[0]
						vecmath.AddBlockInPlace(out[lo:lo+width], seg)
					} else {
						for q, bin := range band.Bins {
							out[dst+bin] += seg[q]
						}
					}
				}
			}
		}
	}

	return out
}
