package stft

import (
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-dsp/dsp/window"
)

// normFloor is the smallest overlap-add window energy considered nonzero
// during synthesis normalization.
const normFloor = 1e-12

// Processor performs forward and inverse short-time Fourier transforms with
// centered frames and a periodic Hann window.
//
// Analysis of a signal with n samples yields n/hop + 1 frames of
// fftSize/2 + 1 complex bins. Synthesis uses windowed overlap-add with
// window-square normalization, so Synthesize(Analyze(x), len(x)) recovers x
// up to floating-point error whenever the hop gives sufficient overlap.
type Processor struct {
	fftSize int
	hop     int

	plan   *algofft.Plan[complex128]
	coeffs []float64
}

// New creates a Processor for the given frame and hop sizes. The frame size
// must be even and positive; the hop must be positive and at most half the
// frame size so the Hann overlap-add stays invertible.
func New(fftSize, hop int) (*Processor, error) {
	if fftSize <= 0 || fftSize%2 != 0 {
		return nil, fmt.Errorf("stft: frame size must be positive and even: %d", fftSize)
	}

	if hop <= 0 || hop > fftSize/2 {
		return nil, fmt.Errorf("stft: hop must be in [1, %d]: %d", fftSize/2, hop)
	}

	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return nil, fmt.Errorf("stft: creating FFT plan: %w", err)
	}

	return &Processor{
		fftSize: fftSize,
		hop:     hop,
		plan:    plan,
		coeffs:  window.Generate(window.TypeHann, fftSize, window.WithPeriodic()),
	}, nil
}

// FrameSize returns the analysis frame (FFT) size.
func (p *Processor) FrameSize() int { return p.fftSize }

// Hop returns the hop size in samples.
func (p *Processor) Hop() int { return p.hop }

// Bins returns the number of spectrum bins per frame.
func (p *Processor) Bins() int { return p.fftSize/2 + 1 }

// Frames returns the number of analysis frames for a signal of n samples.
func (p *Processor) Frames(n int) int {
	if n < 0 {
		return 0
	}

	return n/p.hop + 1
}

// Analyze computes the complex spectrogram of input as frames x bins.
//
// Frames are centered: frame t covers samples t*hop - fftSize/2 up to
// t*hop + fftSize/2, with zeros outside the signal.
func (p *Processor) Analyze(input []float64) ([][]complex128, error) {
	frameCount := p.Frames(len(input))
	half := p.fftSize / 2
	out := make([][]complex128, frameCount)

	frame := make([]complex128, p.fftSize)

	for t := range frameCount {
		start := t*p.hop - half

		for i := range p.fftSize {
			x := 0.0
			if idx := start + i; idx >= 0 && idx < len(input) {
				x = input[idx]
			}

			frame[i] = complex(x*p.coeffs[i], 0)
		}

		if err := p.plan.Forward(frame, frame); err != nil {
			return nil, fmt.Errorf("stft: forward FFT failed: %w", err)
		}

		row := make([]complex128, half+1)
		copy(row, frame[:half+1])
		out[t] = row
	}

	return out, nil
}

// Synthesize reconstructs length output samples from a spectrogram produced
// by [Processor.Analyze] (or a masked copy of one). Each frame must carry
// Bins() bins.
func (p *Processor) Synthesize(frames [][]complex128, length int) ([]float64, error) {
	if length < 0 {
		return nil, fmt.Errorf("stft: output length must be >= 0: %d", length)
	}

	half := p.fftSize / 2

	for t, row := range frames {
		if len(row) != half+1 {
			return nil, fmt.Errorf("stft: frame %d has %d bins, want %d", t, len(row), half+1)
		}
	}

	paddedLen := (len(frames)-1)*p.hop + p.fftSize
	if len(frames) == 0 {
		paddedLen = 0
	}

	acc := make([]float64, paddedLen)
	norm := make([]float64, paddedLen)
	spectrum := make([]complex128, p.fftSize)
	frame := make([]complex128, p.fftSize)

	for t, row := range frames {
		copy(spectrum[:half+1], row)

		// Hermitian mirror for a real-valued inverse transform.
		spectrum[0] = complex(real(spectrum[0]), 0)
		spectrum[half] = complex(real(spectrum[half]), 0)
		for k := 1; k < half; k++ {
			v := spectrum[k]
			spectrum[p.fftSize-k] = complex(real(v), -imag(v))
		}

		if err := p.plan.Inverse(frame, spectrum); err != nil {
			return nil, fmt.Errorf("stft: inverse FFT failed: %w", err)
		}

		pos := t * p.hop
		for i := range p.fftSize {
			w := p.coeffs[i]
			acc[pos+i] += real(frame[i]) * w
			norm[pos+i] += w * w
		}
	}

	out := make([]float64, length)
	for i := range out {
		idx := i + half
		if idx < len(acc) && norm[idx] > normFloor {
			out[i] = acc[idx] / norm[idx]
		}
	}

	return out, nil
}

// RoundTripError returns the maximum absolute reconstruction error of a
// forward/inverse pass over input. It is a diagnostic for hop/window choices.
func (p *Processor) RoundTripError(input []float64) (float64, error) {
	frames, err := p.Analyze(input)
	if err != nil {
		return 0, err
	}

	back, err := p.Synthesize(frames, len(input))
	if err != nil {
		return 0, err
	}

	maxDiff := 0.0
	for i := range input {
		if d := math.Abs(input[i] - back[i]); d > maxDiff {
			maxDiff = d
		}
	}

	return maxDiff, nil
}
