// SPDX-License-Identifier: MIT
package spectrum

import "math"

// Decibel defaults.
const (
	DefaultDecibelReference = 32.0
	DefaultDecibelFloor     = -240.0
)

// Stage is an optional post-processing step on the displayed magnitudes.
// Apply rewrites values in place. Stages never see the raw magnitude curve.
type Stage interface {
	Apply(values []float64)
}

// StageFunc adapts an ordinary function to a Stage.
type StageFunc func([]float64)

// Apply calls f.
func (f StageFunc) Apply(values []float64) { f(values) }

// Decibel converts linear magnitudes to 20*log10(v/Reference), clamped at
// Floor. Zero magnitudes map to Floor.
type Decibel struct {
	Reference float64
	Floor     float64
}

// NewDecibel returns a Decibel stage with the default reference and floor.
func NewDecibel() Decibel {
	return Decibel{Reference: DefaultDecibelReference, Floor: DefaultDecibelFloor}
}

// Apply converts values in place.
func (d Decibel) Apply(values []float64) {
	ref := d.Reference
	if ref <= 0 {
		ref = DefaultDecibelReference
	}
	for i, v := range values {
		if v <= 0 {
			values[i] = d.Floor
			continue
		}
		values[i] = math.Max(d.Floor, 20*math.Log10(v/ref))
	}
}
