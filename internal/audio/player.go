// SPDX-License-Identifier: MIT
package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"

	applog "spectrum/internal/log"
)

// oto allows a single context per process, fixed to one sample rate.
var (
	otoOnce    sync.Once
	otoCtx     *oto.Context
	otoRate    int
	otoInitErr error
)

func initOto(sampleRate int) (*oto.Context, error) {
	otoOnce.Do(func() {
		var ready chan struct{}
		otoCtx, ready, otoInitErr = oto.NewContext(&oto.NewContextOptions{
			SampleRate:   sampleRate,
			ChannelCount: 1,
			Format:       oto.FormatFloat32LE,
		})
		if otoInitErr == nil {
			<-ready
			otoRate = sampleRate
		}
	})
	if otoInitErr != nil {
		return nil, fmt.Errorf("failed to open audio output: %w", otoInitErr)
	}
	if otoRate != sampleRate {
		return nil, fmt.Errorf("audio output already open at %d Hz, cannot play %d Hz", otoRate, sampleRate)
	}
	return otoCtx, nil
}

// Player plays a clip on the default output device.
type Player struct {
	player   *oto.Player
	duration time.Duration
}

// NewPlayer prepares clip for playback.
func NewPlayer(clip *Clip) (*Player, error) {
	ctx, err := initOto(int(clip.SampleRate))
	if err != nil {
		return nil, err
	}
	return &Player{
		player:   ctx.NewPlayer(bytes.NewReader(encodeFloat32LE(clip.Samples))),
		duration: clip.Duration(),
	}, nil
}

// Play starts playback and blocks until it finishes or ctx is done.
func (p *Player) Play(ctx context.Context) error {
	applog.Infof("Player: Playing %s", p.duration.Round(time.Millisecond))
	p.player.Play()

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for p.player.IsPlaying() {
		select {
		case <-ticker.C:
		case <-ctx.Done():
			p.player.Pause()
			return ctx.Err()
		}
	}
	return nil
}

// Close releases the player.
func (p *Player) Close() error {
	return p.player.Close()
}

// encodeFloat32LE converts samples to the little endian float32 PCM oto
// expects, clipping to [-1, 1].
func encodeFloat32LE(samples []float64) []byte {
	out := make([]byte, 4*len(samples))
	for i, s := range samples {
		s = min(max(s, -1), 1)
		binary.LittleEndian.PutUint32(out[4*i:], math.Float32bits(float32(s)))
	}
	return out
}
