// SPDX-License-Identifier: MIT
package audio

// history keeps the most recent len(buf) mono samples.
type history struct {
	buf []float64
	pos int // Next write index; also the oldest sample once full.
}

func newHistory(n int) *history {
	return &history{buf: make([]float64, n)}
}

func (h *history) write(x float64) {
	h.buf[h.pos] = x
	h.pos++
	if h.pos == len(h.buf) {
		h.pos = 0
	}
}

// copyTo writes the history oldest-first into dst, which must have the
// same length. Before the history fills, the leading samples are zero.
func (h *history) copyTo(dst []float64) {
	n := copy(dst, h.buf[h.pos:])
	copy(dst[n:], h.buf[:h.pos])
}
