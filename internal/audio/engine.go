// SPDX-License-Identifier: MIT
/*
Package audio provides the sources that feed the spectrum pipeline:
- Live capture from a PortAudio input device (Engine)
- Decoded WAV files (FileSource), optionally paced for playback (Player)
- Raw input recording to WAV (Recorder)
- A branchless noise gate over raw capture buffers (Gate)

Thread Safety:
- The capture callback only touches pre-allocated buffers
- Snapshots are taken under a short mutex shared with the callback
- Gate and recording state are atomic
*/
package audio

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"

	"spectrum/internal/config"
	applog "spectrum/internal/log"
	"spectrum/internal/pipeline"
)

// Snapshots rotate through this many buffers. A buffer handed to the
// pipeline is reused after two further blocks have been sent; by then the
// runner holds at most the one it projected last and one queued.
const snapshotBuffers = 3

const fullScale = 1 << 31

// Engine captures audio from an input device and publishes snapshots of
// the most recent blockSize mono frames at a fixed interval.
type Engine struct {
	cfg       config.AudioConfig
	interval  time.Duration
	blockSize int

	// Audio input handling.
	inputDevice  *portaudio.DeviceInfo
	inputLatency time.Duration
	inputStream  *portaudio.Stream
	inputBuffer  []int32 // Frames * channels, interleaved
	sampleRate   float64

	gate     *Gate
	recorder Recorder

	mu      sync.Mutex // Guards history between callback and snapshots.
	history *history

	snapshots [snapshotBuffers][]float64
	next      int
	dropped   int
	sent      uint64
}

// NewEngine resolves the configured input device. PortAudio must be
// initialised.
func NewEngine(cfg config.AudioConfig, blockSize int, interval time.Duration) (*Engine, error) {
	inputDevice, err := InputDevice(cfg.InputDevice)
	if err != nil {
		return nil, err
	}
	if cfg.InputChannels > inputDevice.MaxInputChannels {
		return nil, fmt.Errorf("device %s has %d input channels, %d requested",
			inputDevice.Name, inputDevice.MaxInputChannels, cfg.InputChannels)
	}

	e := newEngine(cfg, blockSize, interval)
	e.inputDevice = inputDevice
	if cfg.LowLatency {
		e.inputLatency = inputDevice.DefaultLowInputLatency
	} else {
		e.inputLatency = inputDevice.DefaultHighInputLatency
	}
	return e, nil
}

// newEngine allocates the buffers without touching PortAudio.
func newEngine(cfg config.AudioConfig, blockSize int, interval time.Duration) *Engine {
	e := &Engine{
		cfg:         cfg,
		interval:    interval,
		blockSize:   blockSize,
		inputBuffer: make([]int32, cfg.FramesPerBuffer*cfg.InputChannels),
		sampleRate:  cfg.SampleRate,
		gate:        NewGate(cfg.GateThreshold),
		history:     newHistory(blockSize),
	}
	for i := range e.snapshots {
		e.snapshots[i] = make([]float64, blockSize)
	}
	return e
}

// SampleRate returns the rate the stream runs at, which may differ from
// the requested one once the stream is open.
func (e *Engine) SampleRate() float64 { return e.sampleRate }

// Gate returns the engine's noise gate.
func (e *Engine) Gate() *Gate { return e.gate }

// StartInputStream opens and starts the PortAudio input stream.
func (e *Engine) StartInputStream() error {
	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Channels: e.cfg.InputChannels,
			Device:   e.inputDevice,
			Latency:  e.inputLatency,
		},
		FramesPerBuffer: e.cfg.FramesPerBuffer,
		SampleRate:      e.cfg.SampleRate,
	}

	stream, err := portaudio.OpenStream(params, e.processInputStream)
	if err != nil {
		return fmt.Errorf("failed to open input stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return fmt.Errorf("failed to start input stream: %w", err)
	}

	e.inputStream = stream
	if info := stream.Info(); info != nil && info.SampleRate > 0 {
		e.sampleRate = info.SampleRate
	}
	applog.Infof("Engine: Capturing from %s at %.0f Hz (%d ch, %d frames/buffer)",
		e.inputDevice.Name, e.sampleRate, e.cfg.InputChannels, e.cfg.FramesPerBuffer)
	return nil
}

// StopInputStream stops and closes the stream if it is open.
func (e *Engine) StopInputStream() error {
	if e.inputStream == nil {
		return nil
	}
	stream := e.inputStream
	e.inputStream = nil

	if err := stream.Stop(); err != nil {
		stream.Close()
		return err
	}
	return stream.Close()
}

// processInputStream is the PortAudio callback.
// Performance Critical:
// - Runs in a dedicated OS thread (LockOSThread)
// - Uses pre-allocated buffers only
func (e *Engine) processInputStream(in []int32) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	n := copy(e.inputBuffer, in)
	e.capture(e.inputBuffer[:n])

	if err := e.recorder.Write(e.inputBuffer[:n]); err != nil {
		applog.Errorf("Engine: %v", err)
	}
}

// capture appends the first channel of an interleaved buffer to the
// history, or silence while the gate is closed.
func (e *Engine) capture(buffer []int32) {
	channels := e.cfg.InputChannels
	open := e.gate.Open(buffer)

	e.mu.Lock()
	for i := 0; i < len(buffer); i += channels {
		if open {
			e.history.write(float64(buffer[i]) / fullScale)
		} else {
			e.history.write(0)
		}
	}
	e.mu.Unlock()
}

// snapshot copies the history into the current rotating buffer. The
// buffer only advances once a block has been sent.
func (e *Engine) snapshot() []float64 {
	buf := e.snapshots[e.next]

	e.mu.Lock()
	e.history.copyTo(buf)
	e.mu.Unlock()
	return buf
}

// Run starts capture and sends a snapshot to out every interval until ctx
// is done. Snapshots the consumer is not ready for are dropped and counted
// in the next block.
func (e *Engine) Run(ctx context.Context, out chan<- pipeline.Block) error {
	if err := e.StartInputStream(); err != nil {
		return err
	}
	defer func() {
		if err := e.StopInputStream(); err != nil {
			applog.Warnf("Engine: Error stopping input stream: %v", err)
		}
	}()

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			applog.Infof("Engine: Stopped after %d snapshots (%d dropped)", e.sent, e.dropped)
			return nil
		case <-ticker.C:
			e.emit(out)
		}
	}
}

// emit offers one snapshot to out without blocking.
func (e *Engine) emit(out chan<- pipeline.Block) bool {
	block := pipeline.Block{
		Samples:    e.snapshot(),
		SampleRate: e.sampleRate,
		Session:    e.sent == 0,
		Dropped:    e.dropped,
	}
	select {
	case out <- block:
		e.next = (e.next + 1) % snapshotBuffers
		e.sent++
		e.dropped = 0
		return true
	default:
		e.dropped++
		return false
	}
}

// StartRecording records the raw input to a new WAV file in dir and
// returns its path.
func (e *Engine) StartRecording(dir string, bitDepth int) (string, error) {
	path := RecordingName(dir, time.Now())
	if err := e.recorder.Start(path, int(e.sampleRate), e.cfg.InputChannels, bitDepth); err != nil {
		return "", err
	}
	return path, nil
}

// StopRecording finalises the current recording, if any.
func (e *Engine) StopRecording() error {
	return e.recorder.Stop()
}

// Recording reports whether the raw input is being recorded.
func (e *Engine) Recording() bool { return e.recorder.Recording() }

// Close stops recording and capture.
func (e *Engine) Close() error {
	return errors.Join(e.StopRecording(), e.StopInputStream())
}

var _ pipeline.Source = (*Engine)(nil)
