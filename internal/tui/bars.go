// SPDX-License-Identifier: MIT
package tui

import (
	"math"
	"strings"

	"spectrum/internal/spectrum"
)

// Eighth-block glyphs, index 0 is empty and 8 a full cell.
var barChars = []rune(" ▁▂▃▄▅▆▇█")

// columns folds points into at most width columns. Each column holds the
// largest Y of its points divided by extent, clamped to [0, 1].
func columns(points []spectrum.Point, extent float64, width int) []float64 {
	n := min(width, len(points))
	if n <= 0 {
		return nil
	}

	cols := make([]float64, n)
	if extent <= 0 {
		return cols
	}
	for i, p := range points {
		c := i * n / len(points)
		if v := p.Y / extent; v > cols[c] {
			cols[c] = min(v, 1)
		}
	}
	return cols
}

// Bars draws the curve as vertical bars, one row per string from top to
// bottom. The result has exactly height rows when height > 0.
func Bars(points []spectrum.Point, extent float64, width, height int) []string {
	if height <= 0 {
		return nil
	}

	cols := columns(points, extent, width)
	rows := make([]string, height)

	var sb strings.Builder
	for r := range height {
		level := (height - 1 - r) * 8
		sb.Reset()
		for _, v := range cols {
			fill := int(math.Round(v*float64(height*8))) - level
			fill = max(0, min(fill, 8))
			sb.WriteRune(barChars[fill])
		}
		rows[r] = sb.String()
	}
	return rows
}
