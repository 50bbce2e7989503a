// SPDX-License-Identifier: MIT
package transform

import (
	"sync"

	"gonum.org/v1/gonum/dsp/fourier"

	"spectrum/pkg/bitint"
)

// Gonum delegates to gonum's complex FFT. Plans are created lazily per
// length and reused. A plan owns scratch space, so calls are serialised.
type Gonum struct {
	mu    sync.Mutex
	plans map[int]*fourier.CmplxFFT
}

// Compile-time check for interface implementation.
var _ Transformer = (*Gonum)(nil)

// NewGonum returns a Gonum transformer with an empty plan cache.
func NewGonum() *Gonum {
	return &Gonum{plans: make(map[int]*fourier.CmplxFFT)}
}

// Forward computes the N-point DFT of data in place.
func (g *Gonum) Forward(data []complex128) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	plan, err := g.plan(len(data))
	if err != nil {
		return err
	}
	plan.Coefficients(data, data)
	return nil
}

// Inverse computes the inverse DFT of data in place, scaled by 1/N. gonum's
// Sequence is unnormalised, so the scaling is applied here.
func (g *Gonum) Inverse(data []complex128) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	plan, err := g.plan(len(data))
	if err != nil {
		return err
	}
	plan.Sequence(data, data)

	scale := complex(1/float64(len(data)), 0)
	for i := range data {
		data[i] *= scale
	}
	return nil
}

// plan returns the cached plan for n. The caller holds g.mu.
func (g *Gonum) plan(n int) (*fourier.CmplxFFT, error) {
	if !bitint.IsPowerOfTwo(n) {
		return nil, ErrInvalidLength
	}

	if g.plans == nil {
		g.plans = make(map[int]*fourier.CmplxFFT)
	}
	plan, ok := g.plans[n]
	if !ok {
		plan = fourier.NewCmplxFFT(n)
		g.plans[n] = plan
	}
	return plan, nil
}
