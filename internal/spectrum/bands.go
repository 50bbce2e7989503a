// SPDX-License-Identifier: MIT
package spectrum

import "math"

// Band is a named frequency range, Low inclusive and High exclusive.
type Band struct {
	Name string
	Low  float64 // Hz
	High float64 // Hz
}

// DefaultBands are the usual mixing-desk ranges. The top band is open ended.
var DefaultBands = []Band{
	{Name: "sub", Low: 20, High: 60},
	{Name: "bass", Low: 60, High: 250},
	{Name: "low_mid", Low: 250, High: 500},
	{Name: "mid", Low: 500, High: 2000},
	{Name: "high_mid", Low: 2000, High: 4000},
	{Name: "treble", Low: 4000, High: math.Inf(1)},
}

// BandLevels returns, for each band, the RMS of the curve's Y values whose
// X falls inside it. A band no point falls into reports 0. A point counts
// towards the first band that contains it.
func BandLevels(curve []Point, bands []Band) []float64 {
	levels := make([]float64, len(bands))
	counts := make([]int, len(bands))

	for _, p := range curve {
		for i, b := range bands {
			if p.X >= b.Low && p.X < b.High {
				levels[i] += p.Y * p.Y
				counts[i]++
				break
			}
		}
	}

	for i, n := range counts {
		if n > 0 {
			levels[i] = math.Sqrt(levels[i] / float64(n))
		}
	}
	return levels
}
