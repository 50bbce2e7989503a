// SPDX-License-Identifier: MIT

// Package mqtt publishes compact peak summaries of spectrum frames to an
// MQTT broker. It is meant for dashboards and home automation that care
// about the dominant frequency, not the whole curve.
package mqtt

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	applog "spectrum/internal/log"
	"spectrum/internal/spectrum"
)

const connectTimeout = 10 * time.Second

// Client is the subset of paho.Client the publisher uses.
type Client interface {
	Publish(topic string, qos byte, retained bool, payload any) paho.Token
	Disconnect(quiesce uint)
}

// Options configures a Publisher.
type Options struct {
	Broker   string
	Topic    string
	Username string
	Password string
	QoS      byte
	Retain   bool
	Interval time.Duration // Minimum time between publishes.
}

// Summary is the JSON payload published for a frame.
type Summary struct {
	PeakFrequency  float64            `json:"peak_frequency"`
	PeakMagnitude  float64            `json:"peak_magnitude"`
	VerticalExtent float64            `json:"vertical_extent"`
	SampleRate     float64            `json:"sample_rate"`
	Silent         bool               `json:"silent"`
	Bands          map[string]float64 `json:"bands"` // RMS level per spectrum.DefaultBands entry
	Timestamp      time.Time          `json:"timestamp"`
}

// Summarize finds the largest point of the frame's frequency curve and the
// level of each default band. Peak and band levels are taken from the
// linear magnitudes when the frame carries them, so a decibel stage does
// not change which bin wins or how loud a band is. PeakMagnitude is the
// displayed value at the peak.
func Summarize(frame spectrum.Frame, now time.Time) Summary {
	s := Summary{
		VerticalExtent: frame.VerticalExtent,
		SampleRate:     frame.SampleRate,
		Bands:          make(map[string]float64, len(spectrum.DefaultBands)),
		Timestamp:      now,
	}

	linear := linearCurve(frame)
	levels := spectrum.BandLevels(linear, spectrum.DefaultBands)
	for i, b := range spectrum.DefaultBands {
		s.Bands[b.Name] = levels[i]
	}

	if len(linear) == 0 {
		s.Silent = true
		return s
	}
	peak := 0
	for i, p := range linear {
		if p.Y > linear[peak].Y {
			peak = i
		}
	}
	s.PeakFrequency = frame.Spectrum[peak].X
	s.PeakMagnitude = frame.Spectrum[peak].Y
	s.Silent = linear[peak].Y == 0
	return s
}

// linearCurve pairs the spectrum frequencies with the frame's linear
// magnitudes, or returns the spectrum itself when they are absent.
func linearCurve(frame spectrum.Frame) []spectrum.Point {
	if len(frame.Magnitudes) != len(frame.Spectrum) {
		return frame.Spectrum
	}
	curve := make([]spectrum.Point, len(frame.Spectrum))
	for i, p := range frame.Spectrum {
		curve[i] = spectrum.Point{X: p.X, Y: frame.Magnitudes[i]}
	}
	return curve
}

// Publisher is a spectrum.Surface that publishes at most one Summary per
// interval. Empty frames are skipped.
type Publisher struct {
	client Client
	opts   Options
	now    func() time.Time

	mu   sync.Mutex
	last time.Time
}

// Connect dials the broker and returns a publisher using the connection.
func Connect(opts Options) (*Publisher, error) {
	if opts.Broker == "" {
		return nil, errors.New("MQTT: broker address is required")
	}

	co := paho.NewClientOptions()
	co.AddBroker(opts.Broker)
	co.SetClientID("spectrum-" + uuid.NewString()[:8])
	if opts.Username != "" {
		co.SetUsername(opts.Username)
	}
	if opts.Password != "" {
		co.SetPassword(opts.Password)
	}
	co.SetAutoReconnect(true)
	co.SetConnectRetry(true)
	co.SetConnectRetryInterval(10 * time.Second)
	co.SetKeepAlive(60 * time.Second)
	co.SetPingTimeout(10 * time.Second)
	co.SetOnConnectHandler(func(paho.Client) {
		applog.Infof("MQTT: Connected to broker %s", opts.Broker)
	})
	co.SetConnectionLostHandler(func(_ paho.Client, err error) {
		applog.Warnf("MQTT: Connection lost: %v", err)
	})

	client := paho.NewClient(co)
	token := client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		applog.Warnf("MQTT: Broker %s not reachable yet, retrying in the background", opts.Broker)
	} else if err := token.Error(); err != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", err)
	}

	return New(client, opts), nil
}

// New wraps an existing client.
func New(client Client, opts Options) *Publisher {
	if opts.Interval <= 0 {
		opts.Interval = time.Second
	}
	return &Publisher{client: client, opts: opts, now: time.Now}
}

// Render publishes a summary of frame unless one was published less than
// an interval ago.
func (p *Publisher) Render(frame spectrum.Frame) {
	if frame.Empty() {
		return
	}

	now := p.now()
	p.mu.Lock()
	if !p.last.IsZero() && now.Sub(p.last) < p.opts.Interval {
		p.mu.Unlock()
		return
	}
	p.last = now
	p.mu.Unlock()

	if err := p.Publish(Summarize(frame, now)); err != nil {
		applog.Warnf("MQTT: %v", err)
	}
}

// Publish sends s to the configured topic. Delivery is confirmed in the
// background.
func (p *Publisher) Publish(s Summary) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}

	token := p.client.Publish(p.opts.Topic, p.opts.QoS, p.opts.Retain, data)
	go func() {
		if token.Wait() && token.Error() != nil {
			applog.Warnf("MQTT: Failed to publish to %s: %v", p.opts.Topic, token.Error())
		}
	}()
	return nil
}

// Close disconnects from the broker.
func (p *Publisher) Close() error {
	p.client.Disconnect(250)
	applog.Infof("MQTT: Disconnected from broker")
	return nil
}

var _ spectrum.Surface = (*Publisher)(nil)
