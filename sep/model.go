package sep

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-separate/dsp/melband"
	"github.com/cwbudde/algo-separate/dsp/stft"
	"github.com/cwbudde/algo-separate/nn"
)

// Separator is the full source-separation model. It owns the analysis and
// synthesis transforms, the band partition and its projection pairs, the
// patch embedder, and the transformer stack. All weights are read-only after
// construction, so a single Separator may serve concurrent Separate calls.
type Separator struct {
	cfg Config

	proc    *stft.Processor
	mapper  *BandMapper
	patches *PatchEmbedder
	stack   *nn.AxialStack
}

// New constructs a Separator from the default configuration and options.
// Every shape relation is validated here; weight loading happens afterwards
// through the component accessors.
func New(opts ...Option) (*Separator, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	bands, err := melband.New(cfg.SampleRate, cfg.FFTSize, cfg.MelBins)
	if err != nil {
		return nil, fmt.Errorf("sep: building band partition: %w", err)
	}

	proc, err := stft.New(cfg.FFTSize, cfg.HopLength)
	if err != nil {
		return nil, err
	}

	mapper, err := NewBandMapper(bands, 2*cfg.InputChannels, cfg.BandDim)
	if err != nil {
		return nil, err
	}

	patches, err := NewPatchEmbedder(cfg.BandDim, cfg.PatchTime, cfg.PatchFreq, cfg.MelBins, cfg.ModelDim)
	if err != nil {
		return nil, err
	}

	stack, err := nn.NewAxialStack(cfg.ModelDim, cfg.Heads, cfg.Depth)
	if err != nil {
		return nil, err
	}

	return &Separator{cfg: cfg, proc: proc, mapper: mapper, patches: patches, stack: stack}, nil
}

// Config returns the configuration the model was built with.
func (s *Separator) Config() Config { return s.cfg }

// STFT returns the analysis/synthesis transform.
func (s *Separator) STFT() *stft.Processor { return s.proc }

// BandMapper returns the band folding component.
func (s *Separator) BandMapper() *BandMapper { return s.mapper }

// PatchEmbedder returns the patch projection component.
func (s *Separator) PatchEmbedder() *PatchEmbedder { return s.patches }

// Stack returns the transformer stack.
func (s *Separator) Stack() *nn.AxialStack { return s.stack }

// Params returns the total number of scalar parameters in the model.
func (s *Separator) Params() int {
	return s.mapper.Params() + s.patches.Params() + s.stack.Params()
}

// Separate runs the full pipeline over a batch of multichannel mixtures,
// batch[b][c] being channel c of mixture b. The output has exactly the
// input's shape. The call either completes as a whole or fails as a whole;
// no partial results are returned.
func (s *Separator) Separate(batch [][][]float64) ([][][]float64, error) {
	if err := s.validateInput(batch); err != nil {
		return nil, err
	}

	b := len(batch)
	channels := s.cfg.InputChannels
	stacked := 2 * channels
	samples := len(batch[0][0])

	frames := s.proc.Frames(samples)
	bins := s.proc.Bins()

	// Analysis: complex spectrogram (batch, channel, time, bins).
	spec := make([]complex128, b*channels*frames*bins)
	for bi := range b {
		for c := range channels {
			rows, err := s.proc.Analyze(batch[bi][c])
			if err != nil {
				return nil, err
			}

			base := (bi*channels + c) * frames * bins
			for t, row := range rows {
				copy(spec[base+t*bins:base+(t+1)*bins], row)
			}
		}
	}

	// Real/imaginary planes stacked on the channel axis: plane 2c is the
	// real part of channel c, plane 2c+1 its imaginary part.
	x := make([]float64, b*stacked*frames*bins)
	for bi := range b {
		for c := range channels {
			src := (bi*channels + c) * frames * bins
			re := ((bi*stacked + 2*c) * frames) * bins
			im := ((bi*stacked + 2*c + 1) * frames) * bins

			for i := range frames * bins {
				v := spec[src+i]
				x[re+i] = real(v)
				x[im+i] = imag(v)
			}
		}
	}

	banded := s.mapper.Transform(x, b, frames)

	latent := s.patches.Patchify(banded, b, frames)
	timeTiles, freqTiles := s.patches.Grid(frames)

	latent = s.stack.Forward(latent, b, timeTiles, freqTiles)

	banded = s.patches.Unpatchify(latent, b, frames)
	y := s.mapper.Inverse(banded, b, frames)

	// Reassemble the complex mask and apply it to the original spectrum.
	masked := make([]complex128, len(spec))
	for bi := range b {
		for c := range channels {
			dst := (bi*channels + c) * frames * bins
			re := ((bi*stacked + 2*c) * frames) * bins
			im := ((bi*stacked + 2*c + 1) * frames) * bins

			for i := range frames * bins {
				masked[dst+i] = complex(y[re+i], y[im+i]) * spec[dst+i]
			}
		}
	}

	// Synthesis back to waveforms of the exact input length.
	out := make([][][]float64, b)
	rows := make([][]complex128, frames)
	for bi := range b {
		out[bi] = make([][]float64, channels)
		for c := range channels {
			base := (bi*channels + c) * frames * bins
			for t := range frames {
				rows[t] = masked[base+t*bins : base+(t+1)*bins]
			}

			wave, err := s.proc.Synthesize(rows, samples)
			if err != nil {
				return nil, err
			}

			out[bi][c] = wave
		}
	}

	return out, nil
}

// SeparateOne is a convenience wrapper for a single multichannel mixture.
func (s *Separator) SeparateOne(channels [][]float64) ([][]float64, error) {
	out, err := s.Separate([][][]float64{channels})
	if err != nil {
		return nil, err
	}

	return out[0], nil
}

func (s *Separator) validateInput(batch [][][]float64) error {
	if len(batch) == 0 {
		return ErrEmptyBatch
	}

	samples := -1
	for bi, item := range batch {
		if len(item) != s.cfg.InputChannels {
			return fmt.Errorf("%w: waveform %d has %d channels, want %d",
				ErrChannelCount, bi, len(item), s.cfg.InputChannels)
		}

		for c, channel := range item {
			if samples < 0 {
				samples = len(channel)
			}

			if len(channel) != samples {
				return fmt.Errorf("%w: waveform %d channel %d has %d samples, want %d",
					ErrLengthMismatch, bi, c, len(channel), samples)
			}

			for i, v := range channel {
				if math.IsNaN(v) || math.IsInf(v, 0) {
					return fmt.Errorf("%w: waveform %d channel %d sample %d is %v",
						ErrNonFinite, bi, c, i, v)
				}
			}
		}
	}

	return nil
}
