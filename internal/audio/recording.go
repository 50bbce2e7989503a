// SPDX-License-Identifier: MIT
package audio

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	applog "spectrum/internal/log"
)

// ErrAlreadyRecording is returned by Start while a recording is active.
var ErrAlreadyRecording = errors.New("already recording")

const wavFormatPCM = 1

// Recorder writes raw interleaved int32 capture buffers to a PCM WAV file.
// Write is called from the capture callback; Start and Stop from anywhere.
type Recorder struct {
	active atomic.Bool

	mu      sync.Mutex // Guards everything below.
	file    *os.File
	encoder *wav.Encoder
	buf     *audio.IntBuffer
	shift   uint // 32 - bit depth
	frames  int
	path    string
}

// RecordingName returns a timestamped file name inside dir.
func RecordingName(dir string, t time.Time) string {
	return filepath.Join(dir, "recording-"+t.Format("20060102-150405")+".wav")
}

// Start creates filename and begins recording. bitDepth must be 16 or 24.
func (r *Recorder) Start(filename string, sampleRate, channels, bitDepth int) error {
	if bitDepth != 16 && bitDepth != 24 {
		return fmt.Errorf("unsupported bit depth %d", bitDepth)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active.Load() {
		return ErrAlreadyRecording
	}

	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create recording directory: %w", err)
		}
	}
	file, err := os.Create(filename)
	if err != nil {
		return err
	}

	r.file = file
	r.path = filename
	r.frames = 0
	r.shift = uint(32 - bitDepth)
	r.encoder = wav.NewEncoder(file, sampleRate, bitDepth, channels, wavFormatPCM)
	r.buf = &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: sampleRate},
		SourceBitDepth: bitDepth,
	}

	r.active.Store(true)
	applog.Infof("Recorder: Recording to %s (%d Hz, %d ch, %d bit)", filename, sampleRate, channels, bitDepth)
	return nil
}

// Write appends interleaved full-scale int32 samples. It is a no-op while
// not recording.
func (r *Recorder) Write(samples []int32) error {
	if !r.active.Load() {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.encoder == nil {
		return nil
	}

	if cap(r.buf.Data) < len(samples) {
		r.buf.Data = make([]int, len(samples))
	}
	r.buf.Data = r.buf.Data[:len(samples)]
	for i, s := range samples {
		r.buf.Data[i] = int(s >> r.shift)
	}

	if err := r.encoder.Write(r.buf); err != nil {
		return fmt.Errorf("failed to write WAV data: %w", err)
	}
	r.frames += len(samples) / r.buf.Format.NumChannels
	return nil
}

// Stop finalises the WAV header and closes the file. Stopping when not
// recording is a no-op.
func (r *Recorder) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.active.Swap(false) {
		return nil
	}

	var errs []error
	if r.encoder != nil {
		errs = append(errs, r.encoder.Close())
		r.encoder = nil
	}
	if r.file != nil {
		errs = append(errs, r.file.Close())
		r.file = nil
	}
	applog.Infof("Recorder: Stopped %s after %d frames", r.path, r.frames)
	return errors.Join(errs...)
}

// Recording reports whether a recording is active.
func (r *Recorder) Recording() bool { return r.active.Load() }

// Frames reports how many frames the current or last recording holds.
func (r *Recorder) Frames() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames
}
