// SPDX-License-Identifier: MIT
/*
Package spectrum turns fixed-size blocks of audio into the two curves a
spectrum display draws: amplitude against time and magnitude against
frequency, together with the axis extents both plots need.

Each Update replaces all state derived from the previous block:

	samples -> transform (in place) -> |X[k]| for k < N/2
	        -> optional stages -> (f, magnitude) while f <= max frequency
	        -> vertical scale = clamp(max magnitude, floor, cap)

The projector is not safe for concurrent use. Callers serialise Update and
Reset, and hand over ownership of each block they pass in.
*/
package spectrum

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"

	"spectrum/pkg/bitint"
)

// ErrBlockSize is returned by Update for a block longer than the configured
// block size. Projector state is left untouched.
var ErrBlockSize = errors.New("spectrum: block larger than block size")

// Peak is the largest displayed magnitude of the last update, before the
// vertical scale cap is applied.
type Peak struct {
	Bin       int
	Frequency float64
	Magnitude float64
}

// Projector owns the current signal block and the curves derived from it.
type Projector struct {
	provider SampleRateProvider
	surface  Surface
	opts     options

	// Current state, replaced on every Update.
	signal     []float64
	waveform   []Point
	spectrum   []Point
	magnitude  []float64 // Raw |X[k]|, len N/2
	scale      float64
	peak       Peak
	sampleRate float64
	timeExtent float64

	// Scratch reused across updates.
	workspace []complex128
	display   []float64

	observers []func()
}

// New creates a projector that reads the sample rate from provider and pushes
// frames to surface. A nil surface discards frames.
func New(provider SampleRateProvider, surface Surface, opts ...Option) (*Projector, error) {
	if provider == nil {
		return nil, errors.New("spectrum: sample rate provider is required")
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if !bitint.IsPowerOfTwo(o.blockSize) || o.blockSize < 2 {
		return nil, fmt.Errorf("spectrum: block size %d is not a power of two (try %d)",
			o.blockSize, bitint.NextPowerOfTwo(o.blockSize))
	}
	if o.scaleFloor > o.scaleCap {
		return nil, fmt.Errorf("spectrum: scale floor %.2f exceeds cap %.2f", o.scaleFloor, o.scaleCap)
	}
	if o.maxFrequency <= 0 {
		return nil, fmt.Errorf("spectrum: max frequency must be positive, got %.2f", o.maxFrequency)
	}

	if surface == nil {
		surface = Discard
	}

	half := o.blockSize / 2
	p := &Projector{
		provider:  provider,
		surface:   surface,
		opts:      o,
		waveform:  make([]Point, 0, o.blockSize),
		spectrum:  make([]Point, 0, half),
		magnitude: make([]float64, half),
		workspace: make([]complex128, o.blockSize),
		display:   make([]float64, half),
		scale:     o.scaleFloor,
	}
	return p, nil
}

// OnUpdate registers fn to be called, without arguments, after every
// successful Update.
func (p *Projector) OnUpdate(fn func()) {
	if fn != nil {
		p.observers = append(p.observers, fn)
	}
}

// Reset clears both curves and the vertical scale, and pushes the empty
// frame to the surface so no stale data stays on screen.
func (p *Projector) Reset() {
	p.signal = nil
	p.waveform = p.waveform[:0]
	p.spectrum = p.spectrum[:0]
	clear(p.magnitude)
	p.scale = p.opts.scaleFloor
	p.peak = Peak{}

	p.surface.Render(p.Frame())
}

// Update projects one block of samples. The projector takes ownership of
// signal; blocks shorter than the block size, including empty ones, are
// copied and zero-padded.
//
// The sample rate must be positive. It is not checked: a zero rate yields
// infinite or NaN axis values.
func (p *Projector) Update(signal []float64) error {
	n := p.opts.blockSize
	if len(signal) > n {
		return fmt.Errorf("%w: got %d samples, block size is %d", ErrBlockSize, len(signal), n)
	}
	if len(signal) < n {
		padded := make([]float64, n)
		copy(padded, signal)
		signal = padded
	}

	// --- 1. Take the block ---
	p.signal = signal
	p.sampleRate = p.provider.SampleRate()

	// --- 2. Time-mapped curve ---
	p.projectWaveform()

	// --- 3. Transform ---
	for i, s := range p.signal {
		p.workspace[i] = complex(s, 0)
	}
	if err := p.opts.transformer.Forward(p.workspace); err != nil {
		return fmt.Errorf("spectrum: transform: %w", err)
	}

	// --- 4. Magnitudes of the non-negative frequencies ---
	for i := range p.magnitude {
		p.magnitude[i] = cmplx.Abs(p.workspace[i])
	}

	// --- 5. Frequency-mapped curve and vertical scale ---
	copy(p.display, p.magnitude)
	for _, stage := range p.opts.stages {
		stage.Apply(p.display)
	}
	p.projectSpectrum()

	// --- 6. Emit ---
	p.surface.Render(p.Frame())

	// --- 7. Notify ---
	for _, fn := range p.observers {
		fn()
	}
	return nil
}

func (p *Projector) projectWaveform() {
	dt := 1000 / p.sampleRate
	p.waveform = p.waveform[:0]
	for i, s := range p.signal {
		p.waveform = append(p.waveform, Point{X: float64(i) * dt, Y: s})
	}
	p.timeExtent = float64(len(p.signal)) * dt
}

func (p *Projector) projectSpectrum() {
	df := p.sampleRate / 2 / float64(len(p.display))

	p.spectrum = p.spectrum[:0]
	scale := p.opts.scaleFloor
	peak := Peak{}

	for i, v := range p.display {
		f := df * float64(i)
		if f > p.opts.maxFrequency {
			break
		}
		p.spectrum = append(p.spectrum, Point{X: f, Y: v})

		if v > scale {
			scale = v
		}
		if i == 0 || v > peak.Magnitude {
			peak = Peak{Bin: i, Frequency: f, Magnitude: v}
		}
	}

	p.scale = math.Min(scale, p.opts.scaleCap)
	p.peak = peak
}

// Frame returns the current curves and axis extents. See Frame for the
// lifetime of the returned slices.
func (p *Projector) Frame() Frame {
	return Frame{
		Waveform:        p.waveform,
		Spectrum:        p.spectrum,
		Magnitudes:      p.magnitude[:len(p.spectrum)],
		TimeExtent:      p.timeExtent,
		FrequencyExtent: p.opts.maxFrequency,
		VerticalExtent:  p.scale,
		SampleRate:      p.sampleRate,
	}
}

// Signal returns the block passed to the last Update, or nil after Reset.
func (p *Projector) Signal() []float64 { return p.signal }

// Waveform returns the time-mapped curve.
func (p *Projector) Waveform() []Point { return p.waveform }

// Spectrum returns the frequency-mapped curve.
func (p *Projector) Spectrum() []Point { return p.spectrum }

// Magnitudes returns the raw magnitude curve, N/2 values.
func (p *Projector) Magnitudes() []float64 { return p.magnitude }

// VerticalScale returns the current vertical scale, within [floor, cap].
func (p *Projector) VerticalScale() float64 { return p.scale }

// Peak returns the largest displayed bin of the last update.
func (p *Projector) Peak() Peak { return p.peak }

// BlockSize returns N.
func (p *Projector) BlockSize() int { return p.opts.blockSize }

// MaxFrequency returns the spectrum cutoff in Hz.
func (p *Projector) MaxFrequency() float64 { return p.opts.maxFrequency }
