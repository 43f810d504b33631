package sep

import (
	"fmt"

	"github.com/cwbudde/algo-separate/nn"
)

// PatchEmbedder tiles the banded (time, band) grid into fixed-size
// rectangular patches and projects each patch to the model width with one
// shared linear map (uniform across the grid, unlike the per-band
// projections). The time axis is zero-padded up to a patch multiple before
// tiling; the frequency axis is never padded, so the band count must divide
// evenly by the patch frequency extent.
type PatchEmbedder struct {
	bandDim   int
	patchT    int
	patchF    int
	melBins   int
	modelDim  int
	freqTiles int

	embed   *nn.Linear
	unembed *nn.Linear
}

// NewPatchEmbedder creates the patch projection pair.
func NewPatchEmbedder(bandDim, patchT, patchF, melBins, modelDim int) (*PatchEmbedder, error) {
	if bandDim <= 0 || patchT <= 0 || patchF <= 0 || melBins <= 0 || modelDim <= 0 {
		return nil, fmt.Errorf("sep: patch embedder dimensions must be positive")
	}

	if melBins%patchF != 0 {
		return nil, fmt.Errorf("sep: band count %d not divisible by patch frequency extent %d", melBins, patchF)
	}

	patchDim := patchT * patchF * bandDim

	embed, err := nn.NewLinear(patchDim, modelDim, true)
	if err != nil {
		return nil, err
	}

	unembed, err := nn.NewLinear(modelDim, patchDim, true)
	if err != nil {
		return nil, err
	}

	return &PatchEmbedder{
		bandDim:   bandDim,
		patchT:    patchT,
		patchF:    patchF,
		melBins:   melBins,
		modelDim:  modelDim,
		freqTiles: melBins / patchF,
		embed:     embed,
		unembed:   unembed,
	}, nil
}

// Embed returns the patch-to-latent projection.
func (p *PatchEmbedder) Embed() *nn.Linear { return p.embed }

// Unembed returns the latent-to-patch projection.
func (p *PatchEmbedder) Unembed() *nn.Linear { return p.unembed }

// Params returns the number of scalar parameters in both projections.
func (p *PatchEmbedder) Params() int { return p.embed.Params() + p.unembed.Params() }

// Grid returns the patch grid extents for a frame count: the padded time
// tile count and the fixed frequency tile count.
func (p *PatchEmbedder) Grid(timeSteps int) (timeTiles, freqTiles int) {
	return (timeSteps + p.patchT - 1) / p.patchT, p.freqTiles
}

// Patchify maps x, laid out as (batch, time, melBins, bandDim), to a latent
// grid laid out as (batch, timeTiles, freqTiles, modelDim). Time positions
// beyond timeSteps read as zeros. Patch vectors order their features with
// the time offset outermost, then the frequency offset, then the band
// feature.
func (p *PatchEmbedder) Patchify(x []float64, batch, timeSteps int) []float64 {
	timeTiles, freqTiles := p.Grid(timeSteps)
	patchDim := p.patchT * p.patchF * p.bandDim
	rows := batch * timeTiles * freqTiles

	tiles := make([]float64, rows*patchDim)

	for b := range batch {
		for i := range timeTiles {
			for j := range freqTiles {
				dst := tiles[((b*timeTiles+i)*freqTiles+j)*patchDim:]

				for t2 := range p.patchT {
					tt := i*p.patchT + t2
					if tt >= timeSteps {
						continue // zero padding
					}

					for f2 := range p.patchF {
						ff := j*p.patchF + f2
						src := ((b*timeSteps+tt)*p.melBins + ff) * p.bandDim
						copy(dst[(t2*p.patchF+f2)*p.bandDim:(t2*p.patchF+f2+1)*p.bandDim], x[src:src+p.bandDim])
					}
				}
			}
		}
	}

	return p.embed.Apply(tiles, rows)
}

// Unpatchify inverts [PatchEmbedder.Patchify]: it projects the latent grid
// back to patch vectors, reassembles the banded grid, and truncates the time
// axis to the original timeSteps, discarding the padding.
func (p *PatchEmbedder) Unpatchify(x []float64, batch, timeSteps int) []float64 {
	timeTiles, freqTiles := p.Grid(timeSteps)
	patchDim := p.patchT * p.patchF * p.bandDim
	rows := batch * timeTiles * freqTiles

	tiles := p.unembed.Apply(x, rows)
	out := make([]float64, batch*timeSteps*p.melBins*p.bandDim)

	for b := range batch {
		for i := range timeTiles {
			for j := range freqTiles {
				src := tiles[((b*timeTiles+i)*freqTiles+j)*patchDim:]

				for t2 := range p.patchT {
					tt := i*p.patchT + t2
					if tt >= timeSteps {
						continue // padded frames are dropped
					}

					for f2 := range p.patchF {
						ff := j*p.patchF + f2
						dst := ((b*timeSteps+tt)*p.melBins + ff) * p.bandDim
						copy(out[dst:dst+p.bandDim], src[(t2*p.patchF+f2)*p.bandDim:(t2*p.patchF+f2+1)*p.bandDim])
					}
				}
			}
		}
	}

	return out
}
