// SPDX-License-Identifier: MIT

// Package render turns projector frames into self-describing messages and
// delivers them over a transport.
package render

import (
	"sync"
	"time"

	"github.com/google/uuid"

	applog "spectrum/internal/log"
	"spectrum/internal/spectrum"
	"spectrum/internal/transport"
)

// Message is the wire form of a frame. A client draws the waveform in
// [0, TimeExtent] ms and the spectrum in [0, FrequencyExtent] Hz by
// [0, VerticalExtent].
type Message struct {
	Session         string           `json:"session"`
	Sequence        uint64           `json:"sequence"`
	Timestamp       int64            `json:"timestamp"` // Unix milliseconds
	Reset           bool             `json:"reset,omitempty"`
	SampleRate      float64          `json:"sample_rate"`
	TimeExtent      float64          `json:"time_extent"`
	FrequencyExtent float64          `json:"frequency_extent"`
	VerticalExtent  float64          `json:"vertical_extent"`
	Waveform        []spectrum.Point `json:"waveform,omitempty"`
	Spectrum        []spectrum.Point `json:"spectrum"`
}

// Option configures a Surface.
type Option func(*Surface)

// WithoutWaveform drops the time curve from messages. The waveform is as
// long as the block, so this roughly halves the message size.
func WithoutWaveform() Option {
	return func(s *Surface) { s.waveform = false }
}

// WithClock replaces time.Now for message timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Surface) { s.now = now }
}

// Surface is a spectrum.Surface that sends every frame to a transport.
// An empty frame (from Reset) starts a new session so clients can discard
// anything drawn before it.
type Surface struct {
	transport transport.Transport
	waveform  bool
	now       func() time.Time

	mu       sync.Mutex
	session  string
	sequence uint64
	failures uint64
}

// NewSurface creates a Surface writing to t.
func NewSurface(t transport.Transport, opts ...Option) *Surface {
	s := &Surface{
		transport: t,
		waveform:  true,
		now:       time.Now,
		session:   uuid.NewString(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Render converts frame to a Message and sends it. Frame slices are copied
// because the transport may encode asynchronously.
func (s *Surface) Render(frame spectrum.Frame) {
	s.mu.Lock()
	reset := frame.Empty()
	if reset {
		s.session = uuid.NewString()
		s.sequence = 0
	}
	s.sequence++
	msg := Message{
		Session:         s.session,
		Sequence:        s.sequence,
		Timestamp:       s.now().UnixMilli(),
		Reset:           reset,
		SampleRate:      frame.SampleRate,
		TimeExtent:      frame.TimeExtent,
		FrequencyExtent: frame.FrequencyExtent,
		VerticalExtent:  frame.VerticalExtent,
		Spectrum:        append([]spectrum.Point{}, frame.Spectrum...),
	}
	if s.waveform {
		msg.Waveform = append([]spectrum.Point(nil), frame.Waveform...)
	}
	s.mu.Unlock()

	if err := s.transport.Send(msg); err != nil {
		s.mu.Lock()
		s.failures++
		n := s.failures
		s.mu.Unlock()
		applog.Warnf("Render: Failed to send frame %d (%d failures): %v", msg.Sequence, n, err)
	}
}

// Session returns the current session ID.
func (s *Surface) Session() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

// Failures reports how many sends returned an error.
func (s *Surface) Failures() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failures
}

var _ spectrum.Surface = (*Surface)(nil)
