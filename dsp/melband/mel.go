package melband

import (
	"fmt"
	"math"
)

// Slaney mel scale constants: linear region below 1 kHz at 200/3 Hz per mel,
// logarithmic region above with a step of ln(6.4)/27 per mel.
const (
	linearHzPerMel = 200.0 / 3.0
	logBreakHz     = 1000.0
	logBreakMel    = logBreakHz / linearHzPerMel
)

var logStep = math.Log(6.4) / 27.0

// HzToMel converts a frequency in Hz to Slaney mels.
func HzToMel(hz float64) float64 {
	if hz < logBreakHz {
		return hz / linearHzPerMel
	}

	return logBreakMel + math.Log(hz/logBreakHz)/logStep
}

// MelToHz converts Slaney mels back to a frequency in Hz.
func MelToHz(mel float64) float64 {
	if mel < logBreakMel {
		return mel * linearHzPerMel
	}

	return logBreakHz * math.Exp(logStep*(mel-logBreakMel))
}

// Filterbank returns nMels unnormalized triangular mel filters over the
// nFFT/2+1 bins of a real spectrum, spanning 0 Hz to sampleRate/2.
//
// Filter m rises linearly from mel edge m to m+1 and falls to m+2, evaluated
// at the continuous bin center frequencies (no snapping to bin indices).
// Rows are filters, columns are bins.
func Filterbank(sampleRate float64, nFFT, nMels int) ([][]float64, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("melband: sample rate must be positive and finite: %f", sampleRate)
	}

	if nFFT <= 0 || nFFT%2 != 0 {
		return nil, fmt.Errorf("melband: fft size must be positive and even: %d", nFFT)
	}

	if nMels <= 0 {
		return nil, fmt.Errorf("melband: filter count must be > 0: %d", nMels)
	}

	bins := nFFT/2 + 1

	binFreqs := make([]float64, bins)
	for k := range binFreqs {
		binFreqs[k] = sampleRate * float64(k) / float64(nFFT)
	}

	// nMels+2 edge frequencies, equally spaced in mels.
	maxMel := HzToMel(sampleRate / 2)
	edges := make([]float64, nMels+2)
	for i := range edges {
		edges[i] = MelToHz(maxMel * float64(i) / float64(nMels+1))
	}

	filters := make([][]float64, nMels)
	for m := range filters {
		row := make([]float64, bins)
		lo, center, hi := edges[m], edges[m+1], edges[m+2]

		for k, f := range binFreqs {
			rising := (f - lo) / (center - lo)
			falling := (hi - f) / (hi - center)

			w := math.Min(rising, falling)
			if w > 0 {
				row[k] = w
			}
		}

		filters[m] = row
	}

	return filters, nil
}
