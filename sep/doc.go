// Package sep assembles the mel-band transformer separation model.
//
// A [Separator] predicts a complex spectral mask for a target source: the
// mixture is analyzed into a complex spectrogram, folded into overlapping
// mel bands with per-band compress projections, tiled into patches, run
// through an alternating time/frequency transformer stack, unfolded back to
// the full spectrum, and the resulting complex mask is multiplied against
// the original spectrogram before synthesis. Input and output waveforms
// share the exact same shape.
//
// All weights are frozen at inference time; construction validates every
// shape relation (head divisibility, patch divisibility, the mel partition
// of unity) and fails rather than correcting silently.
package sep
