// SPDX-License-Identifier: MIT
package audio

import (
	"math"
	"sync/atomic"
)

// Gate is a noise gate over raw int32 capture buffers. While closed, the
// engine feeds silence to the analysis history instead of the input, so
// the spectrum shows nothing rather than the noise floor.
//
// The threshold is stored as an absolute int32 amplitude; both fields are
// atomic because the capture callback reads them while the control side
// writes.
type Gate struct {
	enabled   atomic.Bool
	threshold atomic.Int32 // 0..MaxInt32
}

// NewGate returns a gate with the given threshold in [0, 1]. A threshold of
// zero leaves the gate disabled.
func NewGate(threshold float64) *Gate {
	g := &Gate{}
	g.SetThreshold(threshold)
	g.enabled.Store(threshold > 0)
	return g
}

// Enable turns the gate on.
func (g *Gate) Enable() { g.enabled.Store(true) }

// Disable turns the gate off; Open then always reports true.
func (g *Gate) Disable() { g.enabled.Store(false) }

// Enabled reports whether the gate is on.
func (g *Gate) Enabled() bool { return g.enabled.Load() }

// SetThreshold adjusts the gate threshold.
// The value is in the range of 0.0-1.0 where 0=always open, 1=always closed.
func (g *Gate) SetThreshold(threshold float64) {
	threshold = min(max(threshold, 0), 1)
	g.threshold.Store(int32(threshold * float64(math.MaxInt32)))
}

// Threshold returns the current threshold in the range 0.0-1.0.
func (g *Gate) Threshold() float64 {
	return float64(g.threshold.Load()) / float64(math.MaxInt32)
}

// Open reports whether buffer is loud enough to pass.
func (g *Gate) Open(buffer []int32) bool {
	if !g.enabled.Load() {
		return true
	}
	return PeakAmplitude(buffer) > g.threshold.Load()
}

// PeakAmplitude returns the largest absolute sample value in buffer without
// branching on the sample data. math.MinInt32 has no positive counterpart
// and is reported as math.MaxInt32.
func PeakAmplitude(buffer []int32) int32 {
	var peak int32
	for _, sample := range buffer {
		mask := sample >> 31
		amplitude := (sample ^ mask) - mask
		amplitude ^= amplitude >> 31 // Only MinInt32 is still negative here.
		diff := amplitude - peak
		peak += (diff & (diff >> 31)) ^ diff
	}
	return peak
}
