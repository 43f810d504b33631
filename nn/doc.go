// Package nn provides the inference-only neural primitives behind the
// separation model: frozen dense maps, root-mean-square normalization,
// rotary position encoding, single-axis self-attention, and the alternating
// time/frequency transformer stack.
//
// All tensors are flat float64 slices with explicit row/feature layout;
// dense algebra runs on gonum. Weights are zero-initialized at construction
// and loaded through setters, after which a forward pass is a pure function
// of its input: no layer mutates shared state, so one set of frozen weights
// may serve concurrent callers.
package nn
