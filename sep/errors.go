package sep

import "errors"

var (
	// ErrEmptyBatch reports a Separate call without any waveform.
	ErrEmptyBatch = errors.New("sep: batch must contain at least one waveform")

	// ErrChannelCount reports a waveform whose channel count does not match
	// the configured input channels.
	ErrChannelCount = errors.New("sep: channel count does not match configuration")

	// ErrLengthMismatch reports a batch whose waveforms differ in length.
	ErrLengthMismatch = errors.New("sep: waveforms in a batch must share one length")

	// ErrNonFinite reports NaN or Inf input samples. The model fails fast
	// rather than propagating them through the pipeline.
	ErrNonFinite = errors.New("sep: input contains non-finite samples")
)
