// SPDX-License-Identifier: MIT
package spectrum

// Point is one (x, y) sample of a curve. For the waveform X is time in
// milliseconds and Y the amplitude; for the spectrum X is frequency in Hz
// and Y the magnitude.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Frame is everything a rendering surface needs to redraw both plots.
//
// The slices are owned by the projector and are only valid until the next
// Update or Reset. Surfaces that keep a frame beyond Render must Clone it.
type Frame struct {
	Waveform        []Point // Time-mapped curve
	Spectrum        []Point   // Frequency-mapped curve
	Magnitudes      []float64 // Linear magnitude behind each Spectrum point, before stages
	TimeExtent      float64 // Waveform x-axis upper bound (ms)
	FrequencyExtent float64 // Spectrum x-axis upper bound (Hz)
	VerticalExtent  float64 // Spectrum y-axis upper bound (vertical scale)
	SampleRate      float64 // Sample rate the curves were mapped with (Hz)
}

// Clone returns a deep copy of the frame that is safe to retain.
func (f Frame) Clone() Frame {
	f.Waveform = append([]Point(nil), f.Waveform...)
	f.Spectrum = append([]Point(nil), f.Spectrum...)
	f.Magnitudes = append([]float64(nil), f.Magnitudes...)
	return f
}

// Empty reports whether the frame carries no curve data, as after a Reset.
func (f Frame) Empty() bool {
	return len(f.Waveform) == 0 && len(f.Spectrum) == 0
}

// SampleRateProvider exposes the current sample rate of the audio device.
// It is queried once per Update and never cached.
type SampleRateProvider interface {
	SampleRate() float64
}

// SampleRateFunc adapts an ordinary function to a SampleRateProvider.
type SampleRateFunc func() float64

// SampleRate calls f.
func (f SampleRateFunc) SampleRate() float64 { return f() }

// FixedSampleRate is a SampleRateProvider for a rate that never changes,
// such as a decoded file.
type FixedSampleRate float64

// SampleRate returns r.
func (r FixedSampleRate) SampleRate() float64 { return float64(r) }

// Surface accepts a frame and redraws. The projector never inspects the
// surface and is not told when drawing completes.
type Surface interface {
	Render(frame Frame)
}

// SurfaceFunc adapts an ordinary function to a Surface.
type SurfaceFunc func(Frame)

// Render calls f.
func (f SurfaceFunc) Render(frame Frame) { f(frame) }

// Surfaces fans a frame out to every surface in order.
type Surfaces []Surface

// Render forwards frame to each surface.
func (s Surfaces) Render(frame Frame) {
	for _, surface := range s {
		surface.Render(frame)
	}
}

// Discard is a Surface that drops every frame.
var Discard Surface = SurfaceFunc(func(Frame) {})
