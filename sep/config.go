package sep

import (
	"fmt"
	"math"
)

// Config holds the construction-time shape parameters of a [Separator].
// None of them are mutable after construction.
type Config struct {
	// FFTSize and HopLength parameterize the analysis/synthesis transform.
	FFTSize   int
	HopLength int

	// InputChannels is the audio channel count of mixture and output.
	InputChannels int

	// Depth is the number of time/frequency transformer block pairs.
	Depth int

	// ModelDim is the transformer latent width; Heads must divide it and
	// the per-head width must be even for the rotary sub-planes.
	ModelDim int
	Heads    int

	// PatchTime and PatchFreq are the tile extents over the banded grid.
	// PatchFreq must divide MelBins evenly; only the time axis is padded.
	PatchTime int
	PatchFreq int

	// MelBins is the total band count including the two synthetic edge
	// bands; BandDim is the per-band embedding width.
	MelBins int
	BandDim int

	// SampleRate anchors the mel filter placement.
	SampleRate float64
}

// DefaultConfig returns the reference configuration: 44.1 kHz stereo,
// 2048-point frames with 441-sample hop, 256 mel bands at width 64, and a
// depth-12 stack of width 384 with 12 heads over 4x4 patches.
func DefaultConfig() Config {
	return Config{
		FFTSize:       2048,
		HopLength:     441,
		InputChannels: 2,
		Depth:         12,
		ModelDim:      384,
		Heads:         12,
		PatchTime:     4,
		PatchFreq:     4,
		MelBins:       256,
		BandDim:       64,
		SampleRate:    44100,
	}
}

// Option mutates a Config prior to validation.
type Option func(*Config)

// WithFFTSize sets the analysis frame size.
func WithFFTSize(n int) Option { return func(c *Config) { c.FFTSize = n } }

// WithHopLength sets the analysis hop in samples.
func WithHopLength(n int) Option { return func(c *Config) { c.HopLength = n } }

// WithInputChannels sets the audio channel count.
func WithInputChannels(n int) Option { return func(c *Config) { c.InputChannels = n } }

// WithDepth sets the number of transformer block pairs.
func WithDepth(n int) Option { return func(c *Config) { c.Depth = n } }

// WithModelDim sets the transformer latent width.
func WithModelDim(n int) Option { return func(c *Config) { c.ModelDim = n } }

// WithHeads sets the attention head count.
func WithHeads(n int) Option { return func(c *Config) { c.Heads = n } }

// WithPatchSize sets the time and frequency tile extents.
func WithPatchSize(timeExtent, freqExtent int) Option {
	return func(c *Config) {
		c.PatchTime = timeExtent
		c.PatchFreq = freqExtent
	}
}

// WithMelBins sets the total band count, edge bands included.
func WithMelBins(n int) Option { return func(c *Config) { c.MelBins = n } }

// WithBandDim sets the per-band embedding width.
func WithBandDim(n int) Option { return func(c *Config) { c.BandDim = n } }

// WithSampleRate sets the sample rate the mel filters are placed for.
func WithSampleRate(sr float64) Option { return func(c *Config) { c.SampleRate = sr } }

// Validate checks every shape relation the model depends on. Violations are
// configuration errors: fatal at construction, never corrected silently.
func (c Config) Validate() error {
	if c.FFTSize <= 0 || c.FFTSize%2 != 0 {
		return fmt.Errorf("sep: fft size must be positive and even: %d", c.FFTSize)
	}

	if c.HopLength <= 0 || c.HopLength > c.FFTSize/2 {
		return fmt.Errorf("sep: hop length must be in [1, %d]: %d", c.FFTSize/2, c.HopLength)
	}

	if c.InputChannels <= 0 {
		return fmt.Errorf("sep: input channel count must be positive: %d", c.InputChannels)
	}

	if c.Depth <= 0 {
		return fmt.Errorf("sep: depth must be positive: %d", c.Depth)
	}

	if c.ModelDim <= 0 || c.Heads <= 0 || c.ModelDim%c.Heads != 0 {
		return fmt.Errorf("sep: model width %d must divide evenly into %d heads", c.ModelDim, c.Heads)
	}

	if (c.ModelDim/c.Heads)%2 != 0 {
		return fmt.Errorf("sep: per-head width %d must be even for rotary sub-planes", c.ModelDim/c.Heads)
	}

	if c.PatchTime <= 0 || c.PatchFreq <= 0 {
		return fmt.Errorf("sep: patch extents must be positive: %dx%d", c.PatchTime, c.PatchFreq)
	}

	if c.MelBins < 3 {
		return fmt.Errorf("sep: mel band count must be >= 3: %d", c.MelBins)
	}

	if c.MelBins%c.PatchFreq != 0 {
		return fmt.Errorf("sep: mel band count %d not divisible by patch frequency extent %d", c.MelBins, c.PatchFreq)
	}

	if c.BandDim <= 0 {
		return fmt.Errorf("sep: band embedding width must be positive: %d", c.BandDim)
	}

	if c.SampleRate <= 0 || math.IsNaN(c.SampleRate) || math.IsInf(c.SampleRate, 0) {
		return fmt.Errorf("sep: sample rate must be positive and finite: %f", c.SampleRate)
	}

	return nil
}
