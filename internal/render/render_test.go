// SPDX-License-Identifier: MIT
package render

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"spectrum/internal/spectrum"
	"spectrum/pkg/utils"
)

func newProjector(t *testing.T, surface spectrum.Surface) *spectrum.Projector {
	t.Helper()
	p, err := spectrum.New(spectrum.FixedSampleRate(8000), surface, spectrum.WithBlockSize(64))
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestSurface_MessagesFromProjector(t *testing.T) {
	t.Parallel()

	mock := &utils.MockTransport{}
	clock := time.UnixMilli(1234)
	s := NewSurface(mock, WithClock(func() time.Time { return clock }))
	p := newProjector(t, s)

	if err := p.Update(utils.GenerateSineWave(64, 8000, 1000)); err != nil {
		t.Fatal(err)
	}

	msg, ok := mock.Last().(Message)
	if !ok {
		t.Fatalf("sent %T, want Message", mock.Last())
	}
	if _, err := uuid.Parse(msg.Session); err != nil {
		t.Errorf("session %q is not a UUID: %v", msg.Session, err)
	}
	if msg.Sequence != 1 || msg.Timestamp != 1234 || msg.Reset {
		t.Errorf("header = %+v", msg)
	}
	if len(msg.Waveform) != 64 || len(msg.Spectrum) != 32 {
		t.Errorf("curve lengths = %d, %d, want 64, 32", len(msg.Waveform), len(msg.Spectrum))
	}
	if msg.SampleRate != 8000 || msg.FrequencyExtent != spectrum.DefaultMaxFrequency {
		t.Errorf("extents = %+v", msg)
	}
	if msg.VerticalExtent != p.VerticalScale() {
		t.Errorf("VerticalExtent = %g, want %g", msg.VerticalExtent, p.VerticalScale())
	}
}

func TestSurface_MessageDoesNotAliasFrame(t *testing.T) {
	t.Parallel()

	mock := &utils.MockTransport{}
	p := newProjector(t, NewSurface(mock))

	p.Update(utils.GenerateSineWave(64, 8000, 1000))
	first := mock.Last().(Message)
	y := first.Spectrum[8].Y

	p.Update(make([]float64, 64))
	if first.Spectrum[8].Y != y {
		t.Error("earlier message changed after the next Update")
	}
}

func TestSurface_ResetStartsNewSession(t *testing.T) {
	t.Parallel()

	mock := &utils.MockTransport{}
	s := NewSurface(mock)
	p := newProjector(t, s)

	p.Update(make([]float64, 64))
	p.Update(make([]float64, 64))
	before := s.Session()

	p.Reset()
	msg := mock.Last().(Message)
	if !msg.Reset {
		t.Error("reset message not flagged")
	}
	if msg.Session == before || msg.Session != s.Session() {
		t.Errorf("session after Reset = %q, before %q", msg.Session, before)
	}
	if msg.Sequence != 1 {
		t.Errorf("sequence after Reset = %d, want 1", msg.Sequence)
	}
	if msg.VerticalExtent != spectrum.DefaultScaleFloor {
		t.Errorf("VerticalExtent after Reset = %g", msg.VerticalExtent)
	}

	// An empty spectrum still encodes as [] so clients can clear the plot.
	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]any
	json.Unmarshal(data, &raw)
	if _, ok := raw["spectrum"]; !ok {
		t.Errorf("reset message lacks a spectrum field: %s", data)
	}
}

func TestSurface_WithoutWaveform(t *testing.T) {
	t.Parallel()

	mock := &utils.MockTransport{}
	p := newProjector(t, NewSurface(mock, WithoutWaveform()))
	p.Update(make([]float64, 64))

	if msg := mock.Last().(Message); msg.Waveform != nil {
		t.Errorf("waveform sent with WithoutWaveform: %d points", len(msg.Waveform))
	}
}

func TestSurface_CountsFailures(t *testing.T) {
	t.Parallel()

	mock := &utils.MockTransport{SendErr: errors.New("down")}
	s := NewSurface(mock)
	p := newProjector(t, s)

	p.Update(make([]float64, 64))
	p.Update(make([]float64, 64))
	if s.Failures() != 2 {
		t.Errorf("Failures = %d, want 2", s.Failures())
	}
}
