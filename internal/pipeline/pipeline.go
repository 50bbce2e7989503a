// SPDX-License-Identifier: MIT

// Package pipeline connects an audio source to a spectrum projector.
//
// A Source produces Blocks on a channel; the Runner feeds each block to the
// projector on a single goroutine, so the projector never sees concurrent
// calls. The Runner is also the projector's sample rate provider: the rate
// reported during an Update is the one carried by the block being projected.
package pipeline

import (
	"context"
	"errors"
	"time"

	"spectrum/internal/config"
	applog "spectrum/internal/log"
	"spectrum/internal/metrics"
	"spectrum/internal/spectrum"
	"spectrum/internal/transform"
)

// Block is one snapshot of mono audio handed from a source to the runner.
// Ownership of Samples passes to the runner; the source must not write to
// the slice again until it has produced at least two further blocks.
type Block struct {
	Samples    []float64
	SampleRate float64
	Session    bool // First block of a new stream; the projector is reset first.
	Dropped    int  // Blocks the source discarded since the previous one.
}

// Source produces blocks until ctx is done or the input is exhausted. Run
// must not close out.
type Source interface {
	Run(ctx context.Context, out chan<- Block) error
}

// SourceFunc adapts an ordinary function to a Source.
type SourceFunc func(ctx context.Context, out chan<- Block) error

// Run calls f.
func (f SourceFunc) Run(ctx context.Context, out chan<- Block) error { return f(ctx, out) }

// ProjectorOptions translates the spectrum section of the configuration
// into projector options.
func ProjectorOptions(cfg config.SpectrumConfig) ([]spectrum.Option, error) {
	t, err := transform.New(cfg.Transform)
	if err != nil {
		return nil, err
	}

	opts := []spectrum.Option{
		spectrum.WithBlockSize(cfg.BlockSize),
		spectrum.WithMaxFrequency(cfg.MaxFrequency),
		spectrum.WithScaleBounds(cfg.ScaleFloor, cfg.ScaleCap),
		spectrum.WithTransformer(t),
	}
	if cfg.Decibel.Enabled {
		opts = append(opts, spectrum.WithStages(spectrum.Decibel{
			Reference: cfg.Decibel.Reference,
			Floor:     cfg.Decibel.Floor,
		}))
	}
	return opts, nil
}

// Runner drives a projector from a source.
type Runner struct {
	source    Source
	projector *spectrum.Projector
	metrics   *metrics.Metrics

	rate    float64 // Sample rate of the block being projected.
	updates uint64
}

// NewRunner builds a projector from cfg that draws on surface and is fed by
// source. m may be nil.
func NewRunner(source Source, cfg config.SpectrumConfig, surface spectrum.Surface, m *metrics.Metrics) (*Runner, error) {
	if source == nil {
		return nil, errors.New("pipeline: source cannot be nil")
	}
	opts, err := ProjectorOptions(cfg)
	if err != nil {
		return nil, err
	}

	r := &Runner{source: source, metrics: m}
	r.projector, err = spectrum.New(r, surface, opts...)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// SampleRate implements spectrum.SampleRateProvider.
func (r *Runner) SampleRate() float64 { return r.rate }

// Projector returns the projector driven by the runner. Its state must
// only be read from observers registered with OnUpdate while Run is active.
func (r *Runner) Projector() *spectrum.Projector { return r.projector }

// Updates reports how many blocks were projected. Not safe to call
// concurrently with Run.
func (r *Runner) Updates() uint64 { return r.updates }

// Run starts the source and projects every block it produces. It returns
// when ctx is done (nil) or the source stops (the source's error). The
// projector is reset on the way out.
func (r *Runner) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	blocks := make(chan Block, 1)
	errc := make(chan error, 1)
	go func() {
		errc <- r.source.Run(ctx, blocks)
		close(blocks)
	}()

	defer r.reset()

	for {
		select {
		case <-ctx.Done():
			for range blocks {
			}
			if err := <-errc; err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		case b, ok := <-blocks:
			if !ok {
				err := <-errc
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			}
			r.process(b)
		}
	}
}

func (r *Runner) process(b Block) {
	if b.Session {
		r.reset()
	}
	r.metrics.ObserveDropped(b.Dropped)

	r.rate = b.SampleRate
	start := time.Now()
	if err := r.projector.Update(b.Samples); err != nil {
		applog.Warnf("Pipeline: Dropping block: %v", err)
		r.metrics.ObserveError("update")
		return
	}
	r.updates++
	r.metrics.ObserveUpdate(time.Since(start), r.projector.VerticalScale(), r.projector.Peak(), b.SampleRate)
}

func (r *Runner) reset() {
	r.projector.Reset()
	r.metrics.ObserveReset(r.projector.VerticalScale())
	applog.Debugf("Pipeline: Projector reset after %d updates", r.updates)
}
