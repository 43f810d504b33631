// Package stft implements the short-time Fourier analysis and synthesis
// transforms used around spectral masking.
//
// Analysis windows the signal into centered, overlapping frames and keeps
// the non-redundant half spectrum per frame. Synthesis mirrors each frame
// back to a full Hermitian spectrum, inverse transforms it, and overlap-adds
// with window-square normalization. The pair is a near-exact round trip,
// which is what makes multiplicative spectral masks meaningful: a mask of
// ones reproduces the input.
package stft
