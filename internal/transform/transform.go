// SPDX-License-Identifier: MIT
/*
Package transform implements the discrete Fourier transform used by the
spectrum projector. Every transform works in place on a []complex128 whose
length is a positive power of two.

Bin convention (forward transform, N points, sample rate fs):
  - index k in [0, N/2) is frequency k*fs/N
  - indices N/2..N-1 hold the negative frequencies

The forward transform is unnormalised; Inverse scales by 1/N, so
Inverse(Forward(x)) reproduces x within floating-point tolerance.
*/
package transform

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidLength is returned when a buffer length is not a positive power
// of two. The buffer is left untouched.
var ErrInvalidLength = errors.New("transform: length must be a positive power of two")

// ErrUnknownTransformer is returned by New for an unrecognised backend name.
var ErrUnknownTransformer = errors.New("transform: unknown transformer")

// Backend names accepted by New.
const (
	BackendRadix2 = "radix2"
	BackendGonum  = "gonum"
)

// Transformer computes the DFT of a buffer in place.
type Transformer interface {
	// Forward replaces data with its discrete Fourier transform.
	Forward(data []complex128) error
	// Inverse replaces data with its normalised inverse transform.
	Inverse(data []complex128) error
}

// New returns the transformer registered under name. The empty name selects
// the radix-2 engine.
func New(name string) (Transformer, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", BackendRadix2:
		return Radix2{}, nil
	case BackendGonum:
		return NewGonum(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTransformer, name)
	}
}

// Forward runs the default radix-2 engine on data.
func Forward(data []complex128) error {
	return Radix2{}.Forward(data)
}

// Inverse runs the default radix-2 inverse on data.
func Inverse(data []complex128) error {
	return Radix2{}.Inverse(data)
}
