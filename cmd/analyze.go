// SPDX-License-Identifier: MIT
package cmd

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"spectrum/internal/audio"
	"spectrum/internal/config"
	"spectrum/internal/pipeline"
	"spectrum/internal/spectrum"
)

// runAnalyze prints the peak of every block of the input file.
func runAnalyze(ctx context.Context, cfg *config.Config, w io.Writer) error {
	clip, err := audio.LoadWAV(cfg.InputFile)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "%s: %.0f Hz, %d-bit, %d channel(s), %s\n\n", cfg.InputFile,
		clip.SampleRate, clip.BitDepth, clip.Channels, clip.Duration())
	return analyzeClip(ctx, clip, cfg.Spectrum, w)
}

func analyzeClip(ctx context.Context, clip *audio.Clip, cfg config.SpectrumConfig, w io.Writer) error {
	source := audio.NewFileSource(clip, cfg.BlockSize)
	runner, err := pipeline.NewRunner(source, cfg, spectrum.Discard, nil)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "block\ttime (s)\tpeak (Hz)\tmagnitude\tscale\t")

	p := runner.Projector()
	block := 0
	p.OnUpdate(func() {
		peak := p.Peak()
		start := float64(block*cfg.BlockSize) / clip.SampleRate
		fmt.Fprintf(tw, "%d\t%.3f\t%.1f\t%.4f\t%.2f\t\n",
			block, start, peak.Frequency, peak.Magnitude, p.VerticalScale())
		block++
	})

	if err := runner.Run(ctx); err != nil {
		return err
	}
	return tw.Flush()
}
