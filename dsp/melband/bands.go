package melband

import (
	"errors"
	"fmt"
	"math"
)

// partitionTolerance bounds the allowed per-bin deviation from a weight sum
// of exactly 1 across all bands.
const partitionTolerance = 1e-6

// ErrPartition reports a filter table whose per-bin weights do not sum to 1
// after edge-band augmentation. This indicates a corrupt or incompatible
// precomputed table and is fatal at construction time.
var ErrPartition = errors.New("melband: band weights do not form a partition of unity")

// Band holds the nonzero support of one mel band: the ordered spectrum bin
// indices it covers and the matching filter weights.
type Band struct {
	Bins    []int
	Weights []float64
}

// Bands is an immutable partition of spectrum bins into overlapping mel
// bands. It consists of the regular triangular filters plus two synthetic
// edge bands: the first isolates bin 0 with weight 1, the last absorbs the
// residual weight above the last regular filter's peak.
type Bands struct {
	bands []Band
	bins  int
}

// New builds a partition table with melBins total bands (melBins-2 regular
// filters plus the two edge bands) for an nFFT-point analysis at the given
// sample rate.
func New(sampleRate float64, nFFT, melBins int) (*Bands, error) {
	if melBins < 3 {
		return nil, fmt.Errorf("melband: band count must be >= 3 to leave room for edge bands: %d", melBins)
	}

	filters, err := Filterbank(sampleRate, nFFT, melBins-2)
	if err != nil {
		return nil, err
	}

	return NewFromFilterbank(filters)
}

// NewFromFilterbank augments a precomputed (filters, bins) weight matrix
// with the two synthetic edge bands and validates the partition-of-unity
// invariant. The table is typically produced by [Filterbank] but may come
// from any compatible external source.
func NewFromFilterbank(filters [][]float64) (*Bands, error) {
	if len(filters) == 0 {
		return nil, errors.New("melband: filter table must not be empty")
	}

	bins := len(filters[0])
	for m, row := range filters {
		if len(row) != bins {
			return nil, fmt.Errorf("melband: filter %d has %d bins, want %d", m, len(row), bins)
		}
	}

	if bins < 2 {
		return nil, fmt.Errorf("melband: filter table must cover at least 2 bins: %d", bins)
	}

	first := make([]float64, bins)
	first[0] = 1

	// The last edge band mirrors the final filter's falling slope so the two
	// sum to 1 from the filter's peak up to the Nyquist bin.
	last := make([]float64, bins)
	lastFilter := filters[len(filters)-1]
	peak := argmax(lastFilter)
	for k := peak; k < bins; k++ {
		last[k] = 1 - lastFilter[k]
	}

	table := make([][]float64, 0, len(filters)+2)
	table = append(table, first)
	table = append(table, filters...)
	table = append(table, last)

	if err := validatePartition(table, bins); err != nil {
		return nil, err
	}

	bands := make([]Band, len(table))
	for m, row := range table {
		var b Band
		for k, w := range row {
			if w != 0 {
				b.Bins = append(b.Bins, k)
				b.Weights = append(b.Weights, w)
			}
		}
		bands[m] = b
	}

	return &Bands{bands: bands, bins: bins}, nil
}

// Count returns the number of bands, edge bands included.
func (b *Bands) Count() int { return len(b.bands) }

// Bins returns the number of spectrum bins the partition covers.
func (b *Bands) Bins() int { return b.bins }

// Band returns the support of band m. The returned slices are shared and
// must not be modified.
func (b *Bands) Band(m int) Band { return b.bands[m] }

// MaxWidth returns the largest per-band bin count.
func (b *Bands) MaxWidth() int {
	widest := 0
	for _, band := range b.bands {
		if len(band.Bins) > widest {
			widest = len(band.Bins)
		}
	}

	return widest
}

func validatePartition(table [][]float64, bins int) error {
	for k := 0; k < bins; k++ {
		sum := 0.0
		for _, row := range table {
			sum += row[k]
		}

		if math.Abs(sum-1) > partitionTolerance {
			return fmt.Errorf("%w: bin %d sums to %v", ErrPartition, k, sum)
		}
	}

	return nil
}

func argmax(values []float64) int {
	best := 0
	for i, v := range values {
		if v > values[best] {
			best = i
		}
	}

	return best
}
