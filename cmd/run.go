// SPDX-License-Identifier: MIT
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"spectrum/internal/audio"
	"spectrum/internal/config"
	applog "spectrum/internal/log"
	"spectrum/internal/metrics"
	"spectrum/internal/pipeline"
	"spectrum/internal/tui"
	"spectrum/pkg/build"

	tea "github.com/charmbracelet/bubbletea"
)

// debugLogFile receives log output while the terminal UI owns the screen.
const debugLogFile = "spectrum-debug.log"

// Execute runs the command selected by ParseArgs until it finishes or ctx
// is done.
func Execute(ctx context.Context, cfg *config.Config) error {
	switch cfg.Command {
	case "list":
		if err := audio.Initialize(); err != nil {
			return err
		}
		defer audio.Terminate()
		return audio.ListDevices(os.Stdout)
	case "analyze":
		return runAnalyze(ctx, cfg, os.Stdout)
	case "play":
		return runPlay(ctx, cfg)
	case "":
		return runCapture(ctx, cfg)
	default:
		return fmt.Errorf("unknown command %q", cfg.Command)
	}
}

func runCapture(ctx context.Context, cfg *config.Config) error {
	if err := audio.Initialize(); err != nil {
		return err
	}
	defer audio.Terminate()

	if cfg.UI.PickDevice {
		sel, ok, err := tui.PickDevice()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		cfg.Audio.InputDevice = sel.DeviceID
		cfg.Audio.SampleRate = sel.SampleRate
		applog.Infof("Capture: Using %s at %.0f Hz", sel.Name, sel.SampleRate)
	}

	engine, err := audio.NewEngine(cfg.Audio, cfg.Spectrum.BlockSize, cfg.Spectrum.UpdateInterval)
	if err != nil {
		return err
	}
	defer func() {
		if err := engine.Close(); err != nil {
			applog.Errorf("Error closing audio engine: %v", err)
		}
	}()

	if cfg.Recording.Enabled {
		path, err := engine.StartRecording(cfg.Recording.OutputDir, cfg.Recording.BitDepth)
		if err != nil {
			return err
		}
		defer func() {
			if err := engine.StopRecording(); err != nil {
				applog.Errorf("Error stopping recording: %v", err)
				return
			}
			fmt.Printf("\nRecording saved to: %s\n", path)
		}()
	}

	title := fmt.Sprintf("%s · device %d · %.0f Hz", build.GetBuildFlags().Name,
		cfg.Audio.InputDevice, engine.SampleRate())
	return runPipeline(ctx, cfg, engine, title, engine.Gate())
}

func runPlay(ctx context.Context, cfg *config.Config) error {
	clip, err := audio.LoadWAV(cfg.InputFile)
	if err != nil {
		return err
	}
	player, err := audio.NewPlayer(clip)
	if err != nil {
		return err
	}
	defer player.Close()

	// One block per update interval keeps the display in step with the sound.
	hop := max(int(clip.SampleRate*cfg.Spectrum.UpdateInterval.Seconds()), 1)
	source := audio.NewFileSource(clip, cfg.Spectrum.BlockSize,
		audio.WithRealtime(true), audio.WithHop(hop))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	played := make(chan error, 1)
	go func() { played <- player.Play(ctx) }()

	title := fmt.Sprintf("%s · %s · %.0f Hz", build.GetBuildFlags().Name,
		filepath.Base(cfg.InputFile), clip.SampleRate)
	err = runPipeline(ctx, cfg, source, title, nil)
	if err == nil {
		// The last block is emitted about one hop before the sound ends.
		select {
		case perr := <-played:
			return ignoreCanceled(perr)
		case <-time.After(2 * cfg.Spectrum.UpdateInterval):
		}
	}
	cancel()
	return errors.Join(err, ignoreCanceled(<-played))
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// runPipeline projects everything source produces onto the configured
// outputs, with or without the terminal UI.
func runPipeline(ctx context.Context, cfg *config.Config, source pipeline.Source, title string, gate tui.Toggler) error {
	m := startMetrics(ctx, cfg.Metrics)

	out, err := openOutputs(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := out.Close(); err != nil {
			applog.Warnf("Error closing outputs: %v", err)
		}
	}()

	runner, err := pipeline.NewRunner(source, cfg.Spectrum, out.surfaces, m)
	if err != nil {
		return err
	}

	if out.screen == nil {
		applog.Infof("%s: running, press Ctrl+C to stop", title)
		return runner.Run(ctx)
	}

	restore, err := redirectLogs(cfg.Debug)
	if err != nil {
		return err
	}
	defer restore()

	model := tui.NewSpectrumModel(out.screen,
		tui.WithTitle(title),
		tui.WithBars(cfg.UI.Bars),
		tui.WithRefresh(min(cfg.Spectrum.UpdateInterval, tui.DefaultRefresh)),
		tui.WithGate(gate),
	)
	return runWithUI(ctx, runner, model)
}

func runWithUI(ctx context.Context, runner *pipeline.Runner, model tui.SpectrumModel) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	done := make(chan error, 1)
	go func() {
		err := runner.Run(ctx)
		if err != nil {
			// Leave the error on screen until the user quits.
			p.Send(tui.ErrMsg{Err: err})
		} else if ctx.Err() == nil {
			p.Quit()
		}
		done <- err
	}()

	_, uiErr := p.Run()
	cancel()
	runErr := <-done

	if errors.Is(uiErr, tea.ErrProgramKilled) {
		uiErr = nil
	}
	return errors.Join(runErr, uiErr)
}

// startMetrics serves Prometheus metrics in the background when enabled.
// It returns nil otherwise, which every Observe method accepts.
func startMetrics(ctx context.Context, cfg config.MetricsConfig) *metrics.Metrics {
	if !cfg.Enabled {
		return nil
	}
	m := metrics.New()
	go func() {
		if err := m.Serve(ctx, cfg.Address); err != nil {
			applog.Errorf("Metrics: %v", err)
		}
	}()
	return m
}

// redirectLogs keeps log lines off the screen while the UI runs. With debug
// set they go to a file instead of being discarded.
func redirectLogs(debug bool) (restore func(), err error) {
	prev := applog.Writer()
	restore = func() { applog.SetOutput(prev) }

	if !debug {
		applog.SetOutput(io.Discard)
		return restore, nil
	}

	f, err := os.OpenFile(debugLogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open debug log: %w", err)
	}
	applog.SetOutput(f)
	return func() {
		applog.SetOutput(prev)
		f.Close()
	}, nil
}
