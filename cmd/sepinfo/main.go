// Command sepinfo prints the derived geometry of a separation model: the
// band partition, the latent grid, and the parameter budget per component.
//
// Usage:
//
//	sepinfo [flags]
//
// Examples:
//
//	sepinfo
//	sepinfo -fft 1024 -hop 256 -mels 128
//	sepinfo -bands
//	sepinfo -samples 441000
package main

import (
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/cwbudde/algo-separate/sep"
)

func main() {
	fftSize := flag.Int("fft", 2048, "FFT frame length in samples")
	hop := flag.Int("hop", 441, "hop length in samples")
	sampleRate := flag.Float64("rate", 44100, "sample rate in Hz")
	channels := flag.Int("channels", 2, "input channels")
	mels := flag.Int("mels", 256, "mel bands")
	bandDim := flag.Int("banddim", 64, "embedding width per band")
	modelDim := flag.Int("dim", 384, "transformer width")
	heads := flag.Int("heads", 12, "attention heads")
	depth := flag.Int("depth", 12, "time/frequency block pairs")
	patchTime := flag.Int("patchtime", 4, "patch extent along time")
	patchFreq := flag.Int("patchfreq", 4, "patch extent along frequency")
	samples := flag.Int("samples", 44100, "input length used for the grid summary")
	bandTable := flag.Bool("bands", false, "print the per-band bin spans")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: sepinfo [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Prints the derived geometry of a separation model.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  sepinfo -fft 1024 -hop 256 -mels 128\n")
		fmt.Fprintf(os.Stderr, "  sepinfo -bands\n")
	}
	flag.Parse()

	model, err := sep.New(
		sep.WithFFTSize(*fftSize),
		sep.WithHopLength(*hop),
		sep.WithSampleRate(*sampleRate),
		sep.WithInputChannels(*channels),
		sep.WithMelBins(*mels),
		sep.WithBandDim(*bandDim),
		sep.WithModelDim(*modelDim),
		sep.WithHeads(*heads),
		sep.WithDepth(*depth),
		sep.WithPatchSize(*patchTime, *patchFreq),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if *bandTable {
		printBands(model)
		return
	}

	printSummary(model, *samples)
}

func printSummary(model *sep.Separator, samples int) {
	cfg := model.Config()
	bands := model.BandMapper().Bands()

	frames := model.STFT().Frames(samples)
	timeTiles, freqTiles := model.PatchEmbedder().Grid(frames)

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "FFT size\t%d\n", cfg.FFTSize)
	fmt.Fprintf(tw, "Hop length\t%d\n", cfg.HopLength)
	fmt.Fprintf(tw, "Spectral bins\t%d\n", model.STFT().Bins())
	fmt.Fprintf(tw, "Mel bands\t%d\n", bands.Count())
	fmt.Fprintf(tw, "Widest band [bins]\t%d\n", bands.MaxWidth())
	fmt.Fprintf(tw, "Band width\t%d\n", cfg.BandDim)
	fmt.Fprintf(tw, "Patch\t%dx%d\n", cfg.PatchTime, cfg.PatchFreq)
	fmt.Fprintf(tw, "Model width\t%d\n", cfg.ModelDim)
	fmt.Fprintf(tw, "Heads\t%d\n", cfg.Heads)
	fmt.Fprintf(tw, "Depth\t%d\n", cfg.Depth)
	fmt.Fprintf(tw, "\t\n")
	fmt.Fprintf(tw, "Input length [samples]\t%d\n", samples)
	fmt.Fprintf(tw, "Frames\t%d\n", frames)
	fmt.Fprintf(tw, "Latent grid\t%d x %d\n", timeTiles, freqTiles)
	fmt.Fprintf(tw, "\t\n")
	fmt.Fprintf(tw, "Band projections\t%d\n", model.BandMapper().Params())
	fmt.Fprintf(tw, "Patch projections\t%d\n", model.PatchEmbedder().Params())
	fmt.Fprintf(tw, "Transformer stack\t%d\n", model.Stack().Params())
	fmt.Fprintf(tw, "Total parameters\t%d\n", model.Params())
	if err := tw.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to flush output: %v\n", err)
	}
}

func printBands(model *sep.Separator) {
	bands := model.BandMapper().Bands()

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Band\tFirst Bin\tLast Bin\tWidth\n")
	fmt.Fprintf(tw, "----\t---------\t--------\t-----\n")

	for f := range bands.Count() {
		bins := bands.Band(f).Bins
		fmt.Fprintf(tw, "%d\t%d\t%d\t%d\n", f, bins[0], bins[len(bins)-1], len(bins))
	}
	if err := tw.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to flush output: %v\n", err)
	}
}
