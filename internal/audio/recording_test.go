// SPDX-License-Identifier: MIT
package audio

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"testing"
	"time"
)

func TestRecorderRoundTrip(t *testing.T) {
	tests := []struct {
		bitDepth int
		channels int
	}{
		{16, 1},
		{16, 2},
		{24, 2},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%dbit_%dch", tt.bitDepth, tt.channels), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "take.wav")
			var r Recorder
			if err := r.Start(path, 8000, tt.channels, tt.bitDepth); err != nil {
				t.Fatalf("Start: %v", err)
			}

			const frames = 400
			in := make([]int32, frames*tt.channels)
			for i := range frames {
				v := int32(0.5 * math.Sin(2*math.Pi*440*float64(i)/8000) * math.MaxInt32)
				for c := range tt.channels {
					in[i*tt.channels+c] = v
				}
			}
			// Two writes of unequal size exercise buffer reuse.
			if err := r.Write(in[:100*tt.channels]); err != nil {
				t.Fatal(err)
			}
			if err := r.Write(in[100*tt.channels:]); err != nil {
				t.Fatal(err)
			}
			if r.Frames() != frames {
				t.Errorf("Frames = %d, want %d", r.Frames(), frames)
			}
			if err := r.Stop(); err != nil {
				t.Fatalf("Stop: %v", err)
			}

			clip, err := LoadWAV(path)
			if err != nil {
				t.Fatalf("LoadWAV: %v", err)
			}
			if clip.SampleRate != 8000 || clip.Channels != tt.channels || clip.BitDepth != tt.bitDepth {
				t.Errorf("format = %.0f Hz, %d ch, %d bit", clip.SampleRate, clip.Channels, clip.BitDepth)
			}
			if len(clip.Samples) != frames {
				t.Fatalf("decoded %d frames, want %d", len(clip.Samples), frames)
			}

			tolerance := 2.0 / float64(int64(1)<<(tt.bitDepth-1))
			for i, got := range clip.Samples {
				want := float64(in[i*tt.channels]) / fullScale
				if math.Abs(got-want) > tolerance {
					t.Fatalf("sample %d = %g, want %g", i, got, want)
				}
			}
		})
	}
}

func TestRecorderErrors(t *testing.T) {
	dir := t.TempDir()

	var r Recorder
	if err := r.Stop(); err != nil {
		t.Errorf("Stop when not recording = %v, want nil", err)
	}
	if err := r.Write([]int32{1, 2, 3}); err != nil {
		t.Errorf("Write when not recording = %v, want nil", err)
	}

	if err := r.Start(filepath.Join(dir, "a.wav"), 8000, 1, 8); err == nil {
		t.Error("8-bit recording should be rejected")
	}

	if err := r.Start(filepath.Join(dir, "a.wav"), 8000, 1, 16); err != nil {
		t.Fatal(err)
	}
	defer r.Stop()
	if err := r.Start(filepath.Join(dir, "b.wav"), 8000, 1, 16); !errors.Is(err, ErrAlreadyRecording) {
		t.Errorf("second Start = %v, want ErrAlreadyRecording", err)
	}
}

func TestRecorderCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "take.wav")
	var r Recorder
	if err := r.Start(path, 8000, 1, 16); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := r.Stop(); err != nil {
		t.Fatal(err)
	}
	if r.Recording() {
		t.Error("still recording after Stop")
	}
}

func TestRecordingName(t *testing.T) {
	at := time.Date(2025, 3, 14, 15, 9, 26, 0, time.UTC)
	got := RecordingName("out", at)
	want := filepath.Join("out", "recording-20250314-150926.wav")
	if got != want {
		t.Errorf("RecordingName = %q, want %q", got, want)
	}
}

func TestRecordingWriteNoAllocsHotPath(t *testing.T) {
	var r Recorder
	if err := r.Start(filepath.Join(t.TempDir(), "alloc.wav"), 44100, 2, 16); err != nil {
		t.Fatal(err)
	}
	defer r.Stop()

	buf := interleaved(testFrameSize, 2, 1<<16)
	r.Write(buf) // size the conversion buffer

	allocs := testing.AllocsPerRun(100, func() {
		for i := range buf {
			r.buf.Data[i] = int(buf[i] >> r.shift)
		}
	})
	if allocs > 0 {
		t.Errorf("sample conversion allocated: got %.1f allocs, want 0", allocs)
	}
}

func BenchmarkRecordingWriteHotPath(b *testing.B) {
	var r Recorder
	if err := r.Start(filepath.Join(b.TempDir(), "bench.wav"), 44100, 2, 16); err != nil {
		b.Fatal(err)
	}
	defer r.Stop()

	buf := interleaved(512, 2, 1<<16)
	b.ReportAllocs()
	for b.Loop() {
		_ = r.Write(buf)
	}
}
