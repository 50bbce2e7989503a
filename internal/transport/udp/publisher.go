// SPDX-License-Identifier: MIT
package udp

import (
	"bytes"
	"errors"
	"sync"
	"time"

	applog "spectrum/internal/log"
	"spectrum/internal/spectrum"
)

// PacketSender is the datagram sink a Publisher writes to. *Sender
// implements it.
type PacketSender interface {
	Send(data []byte) error
}

// Publisher is a spectrum.Surface that forwards the frequency curve of the
// latest frame as a binary packet at a fixed interval. Frames arriving
// between ticks overwrite each other; a tick with no new frame sends nothing.
type Publisher struct {
	sender   PacketSender
	interval time.Duration

	mu      sync.Mutex // Protects everything below and the Start/Stop state.
	pending Packet
	fresh   bool
	packet  bytes.Buffer
	seq     uint32
	sent    uint64

	ticker *time.Ticker
	done   chan struct{}
	wg     sync.WaitGroup
}

// NewPublisher creates a publisher. If interval is not positive it defaults
// to 16ms (~60Hz).
func NewPublisher(interval time.Duration, sender PacketSender) (*Publisher, error) {
	if sender == nil {
		return nil, errors.New("UDPPublisher: sender cannot be nil")
	}
	if interval <= 0 {
		interval = 16 * time.Millisecond
		applog.Warnf("UDPPublisher: Invalid interval provided, defaulting to %s", interval)
	}
	return &Publisher{sender: sender, interval: interval}, nil
}

// Render records the frame's frequency curve for the next tick.
func (p *Publisher) Render(frame spectrum.Frame) {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := min(len(frame.Spectrum), MaxPoints)
	if cap(p.pending.Magnitudes) < n {
		p.pending.Magnitudes = make([]float32, n)
	}
	p.pending.Magnitudes = p.pending.Magnitudes[:n]
	for i := range n {
		p.pending.Magnitudes[i] = float32(frame.Spectrum[i].Y)
	}

	p.pending.BinWidth = 0
	if n > 1 {
		p.pending.BinWidth = float32(frame.Spectrum[1].X - frame.Spectrum[0].X)
	}
	p.pending.VerticalExtent = float32(frame.VerticalExtent)
	p.fresh = true
}

// Start begins the periodic publishing goroutine. Calling it while running
// is a no-op.
func (p *Publisher) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ticker != nil {
		applog.Warnf("UDPPublisher: Start called but already running.")
		return
	}
	p.ticker = time.NewTicker(p.interval)
	p.done = make(chan struct{})

	ticker, done := p.ticker, p.done
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		applog.Infof("UDPPublisher: Started (Interval: %s)", p.interval)
		for {
			select {
			case <-ticker.C:
				p.flush(time.Now())
			case <-done:
				return
			}
		}
	}()
}

// Stop halts the publishing goroutine and waits for it to exit. It is safe
// to call more than once.
func (p *Publisher) Stop() error {
	p.mu.Lock()
	if p.ticker == nil {
		p.mu.Unlock()
		return nil
	}
	p.ticker.Stop()
	close(p.done)
	p.ticker = nil
	p.mu.Unlock()

	p.wg.Wait()
	applog.Infof("UDPPublisher: Stopped after %d packets", p.Sent())
	return nil
}

// flush encodes and sends the pending curve if a frame arrived since the
// last send.
func (p *Publisher) flush(now time.Time) {
	p.mu.Lock()
	if !p.fresh {
		p.mu.Unlock()
		return
	}
	p.fresh = false
	p.seq++
	p.pending.Sequence = p.seq
	p.pending.Timestamp = now.UnixNano()

	if err := EncodePacket(&p.packet, &p.pending); err != nil {
		p.mu.Unlock()
		applog.Errorf("UDPPublisher: Error packing packet %d: %v", p.seq, err)
		return
	}
	seq, data := p.seq, p.packet.Bytes()
	err := p.sender.Send(data)
	if err == nil {
		p.sent++
	}
	p.mu.Unlock()

	if err != nil {
		applog.Warnf("UDPPublisher: Error sending packet: %v", err)
		return
	}
	applog.Debugf("UDPPublisher: Sent packet %d (%d bytes)", seq, len(data))
}

// Sent reports the number of packets successfully handed to the sender.
func (p *Publisher) Sent() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sent
}

// Close stops the publisher.
func (p *Publisher) Close() error {
	return p.Stop()
}

var _ spectrum.Surface = (*Publisher)(nil)
