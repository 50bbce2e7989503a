// SPDX-License-Identifier: MIT
package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-audio/wav"

	applog "spectrum/internal/log"
	"spectrum/internal/pipeline"
)

// ErrNotWAV is returned when the input is not a PCM WAV stream.
var ErrNotWAV = errors.New("not a PCM WAV file")

// Clip is a decoded mono signal normalised to [-1, 1].
type Clip struct {
	Samples    []float64 // First channel only
	SampleRate float64
	Channels   int // Channels in the source file
	BitDepth   int
}

// Duration is the playing time of the clip.
func (c *Clip) Duration() time.Duration {
	if c.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(len(c.Samples)) / c.SampleRate * float64(time.Second))
}

// LoadWAV decodes the WAV file at path.
func LoadWAV(path string) (*Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	clip, err := DecodeWAV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return clip, nil
}

// DecodeWAV reads an integer PCM WAV stream and keeps its first channel.
func DecodeWAV(r io.ReadSeeker) (*Clip, error) {
	d := wav.NewDecoder(r)
	if !d.IsValidFile() {
		return nil, ErrNotWAV
	}

	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to decode PCM data: %w", err)
	}
	if d.WavAudioFormat != wavFormatPCM {
		return nil, fmt.Errorf("%w: audio format %d", ErrNotWAV, d.WavAudioFormat)
	}

	channels := int(d.NumChans)
	bitDepth := int(d.BitDepth)
	if channels < 1 || bitDepth < 8 || bitDepth > 32 {
		return nil, fmt.Errorf("%w: %d channels, %d bit", ErrNotWAV, channels, bitDepth)
	}

	// 8-bit WAV is unsigned; everything wider is two's complement.
	scale := float64(int64(1) << (bitDepth - 1))
	offset := 0
	if bitDepth == 8 {
		offset = 128
	}

	frames := len(buf.Data) / channels
	samples := make([]float64, frames)
	for i := range samples {
		samples[i] = float64(buf.Data[i*channels]-offset) / scale
	}

	return &Clip{
		Samples:    samples,
		SampleRate: float64(d.SampleRate),
		Channels:   channels,
		BitDepth:   bitDepth,
	}, nil
}

// FileOption configures a FileSource.
type FileOption func(*FileSource)

// WithRealtime paces blocks so that each is emitted when its first sample
// would be heard during playback.
func WithRealtime(realtime bool) FileOption {
	return func(s *FileSource) { s.realtime = realtime }
}

// WithHop sets the distance in samples between block starts. The default
// is the block size, so blocks do not overlap.
func WithHop(hop int) FileOption {
	return func(s *FileSource) {
		if hop > 0 {
			s.hop = hop
		}
	}
}

// FileSource emits a clip as consecutive blocks. It implements
// pipeline.Source. The final block may be short; the projector zero-pads it.
type FileSource struct {
	clip      *Clip
	blockSize int
	hop       int
	realtime  bool
}

// NewFileSource creates a source over clip.
func NewFileSource(clip *Clip, blockSize int, opts ...FileOption) *FileSource {
	s := &FileSource{clip: clip, blockSize: blockSize, hop: blockSize}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Blocks reports how many blocks Run will emit.
func (s *FileSource) Blocks() int {
	n := len(s.clip.Samples)
	if n == 0 {
		return 0
	}
	return (n + s.hop - 1) / s.hop
}

// Run sends every block to out, waiting for the consumer. It returns nil
// once the clip is exhausted.
func (s *FileSource) Run(ctx context.Context, out chan<- pipeline.Block) error {
	var tick <-chan time.Time
	if s.realtime && s.clip.SampleRate > 0 {
		interval := time.Duration(float64(s.hop) / s.clip.SampleRate * float64(time.Second))
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	samples := s.clip.Samples
	for i, start := 0, 0; start < len(samples); i, start = i+1, start+s.hop {
		if tick != nil && i > 0 {
			select {
			case <-tick:
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		end := min(start+s.blockSize, len(samples))
		block := pipeline.Block{
			Samples:    append([]float64(nil), samples[start:end]...),
			SampleRate: s.clip.SampleRate,
			Session:    i == 0,
		}
		select {
		case out <- block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	applog.Debugf("FileSource: Emitted %d blocks", s.Blocks())
	return nil
}

var _ pipeline.Source = (*FileSource)(nil)
