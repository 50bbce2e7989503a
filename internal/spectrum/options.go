// SPDX-License-Identifier: MIT
package spectrum

import "spectrum/internal/transform"

// Recognised defaults for the projector.
const (
	DefaultBlockSize    = 4096    // Samples per snapshot
	DefaultMaxFrequency = 20000.0 // Highest displayed frequency (Hz)
	DefaultScaleFloor   = 1.0     // Lowest vertical scale
	DefaultScaleCap     = 100.0   // Highest vertical scale
)

type options struct {
	blockSize    int
	maxFrequency float64
	scaleFloor   float64
	scaleCap     float64
	transformer  transform.Transformer
	stages       []Stage
}

func defaultOptions() options {
	return options{
		blockSize:    DefaultBlockSize,
		maxFrequency: DefaultMaxFrequency,
		scaleFloor:   DefaultScaleFloor,
		scaleCap:     DefaultScaleCap,
		transformer:  transform.Radix2{},
	}
}

// Option configures a Projector.
type Option func(*options)

// WithBlockSize sets the signal block length N. It must be a power of two.
func WithBlockSize(n int) Option {
	return func(o *options) { o.blockSize = n }
}

// WithMaxFrequency sets the spectrum cutoff in Hz (inclusive).
func WithMaxFrequency(hz float64) Option {
	return func(o *options) { o.maxFrequency = hz }
}

// WithScaleBounds sets the floor and cap of the vertical scale.
func WithScaleBounds(floor, ceiling float64) Option {
	return func(o *options) {
		o.scaleFloor = floor
		o.scaleCap = ceiling
	}
}

// WithTransformer replaces the default radix-2 transform.
func WithTransformer(t transform.Transformer) Option {
	return func(o *options) {
		if t != nil {
			o.transformer = t
		}
	}
}

// WithStages appends magnitude stages, applied in order.
func WithStages(stages ...Stage) Option {
	return func(o *options) { o.stages = append(o.stages, stages...) }
}
