// SPDX-License-Identifier: MIT
package transform

import (
	"math"

	"spectrum/pkg/bitint"
)

// Radix2 is an iterative decimation-in-time Cooley-Tukey transform. It has no
// state and performs no allocations.
type Radix2 struct{}

// Compile-time check for interface implementation.
var _ Transformer = Radix2{}

// Forward computes the N-point DFT of data in place.
func (Radix2) Forward(data []complex128) error {
	if !bitint.IsPowerOfTwo(len(data)) {
		return ErrInvalidLength
	}
	radix2(data, -1)
	return nil
}

// Inverse computes the inverse DFT of data in place, scaled by 1/N.
func (Radix2) Inverse(data []complex128) error {
	if !bitint.IsPowerOfTwo(len(data)) {
		return ErrInvalidLength
	}
	radix2(data, 1)

	scale := complex(1/float64(len(data)), 0)
	for i := range data {
		data[i] *= scale
	}
	return nil
}

// radix2 runs the butterflies with twiddle factors exp(sign*2πik/size).
// sign is -1 for the forward transform and +1 for the inverse.
func radix2(data []complex128, sign float64) {
	n := len(data)
	if n <= 1 {
		return
	}

	// --- 1. Bit-reversal permutation ---
	width := bitint.Log2(n)
	for i := range n {
		j := bitint.ReverseBits(i, width)
		if i < j {
			data[i], data[j] = data[j], data[i]
		}
	}

	// --- 2. Butterflies, one pass per stage ---
	for size := 2; size <= n; size <<= 1 {
		half := size >> 1
		theta := sign * 2 * math.Pi / float64(size)

		sin, cos := math.Sincos(theta)
		wStep := complex(cos, sin)

		for start := 0; start < n; start += size {
			w := complex(1, 0)
			for k := range half {
				a := start + k
				b := a + half
				t := w * data[b]
				data[b] = data[a] - t
				data[a] += t
				w *= wStep
			}
		}
	}
}
