package testutil

import (
	"math"
	"math/rand"
)

// DeterministicSine generates a deterministic sine wave.
func DeterministicSine(freqHz, sampleRate, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	step := 2 * math.Pi * freqHz / sampleRate
	for i := range out {
		out[i] = amplitude * math.Sin(step*float64(i))
	}
	return out
}

// DeterministicNoise generates white noise with a fixed seed for reproducibility.
func DeterministicNoise(seed int64, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	rng := rand.New(rand.NewSource(seed))
	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}
	return out
}

// Impulse generates a unit impulse at the given position.
func Impulse(length, pos int) []float64 {
	out := make([]float64, length)
	if pos >= 0 && pos < length {
		out[pos] = 1
	}
	return out
}

// MultichannelNoise generates a batch of multichannel waveforms filled with
// seeded noise. Channel c of item b uses seed + b*channels + c, so every
// channel carries distinct but reproducible content.
func MultichannelNoise(seed int64, batch, channels, samples int) [][][]float64 {
	out := make([][][]float64, batch)
	for b := range out {
		out[b] = make([][]float64, channels)
		for c := range out[b] {
			out[b][c] = DeterministicNoise(seed+int64(b*channels+c), 1.0, samples)
		}
	}
	return out
}

// Ramp returns [0, 1, 2, ...] scaled by step, handy for position-dependent
// layout checks where every element must be distinguishable.
func Ramp(length int, step float64) []float64 {
	out := make([]float64, length)
	for i := range out {
		out[i] = float64(i) * step
	}
	return out
}
