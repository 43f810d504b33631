// Package melband builds mel-scale filterbanks and the banded partition
// tables used to fold a linear spectrogram into perceptually spaced bands.
//
// The filterbank follows the Slaney convention (linear below 1 kHz,
// logarithmic above, unnormalized triangular filters over continuous bin
// center frequencies). A [Bands] table augments the regular filters with two
// synthetic edge bands so that every frequency bin is covered and the
// per-bin weights across all bands sum to exactly 1. This partition-of-unity
// property is what makes a band decomposition invertible by plain
// scatter-accumulation, and it is validated at construction time.
package melband
