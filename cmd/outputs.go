// SPDX-License-Identifier: MIT
package cmd

import (
	"errors"
	"io"

	"spectrum/internal/config"
	applog "spectrum/internal/log"
	"spectrum/internal/render"
	"spectrum/internal/spectrum"
	"spectrum/internal/transport"
	"spectrum/internal/transport/mqtt"
	"spectrum/internal/transport/udp"
	"spectrum/internal/tui"
)

// outputs is every surface frames fan out to, plus what must be released
// on shutdown.
type outputs struct {
	surfaces spectrum.Surfaces
	screen   *tui.Surface // nil without the terminal UI
	closers  []io.Closer
}

// openOutputs builds the surfaces cfg asks for. On error everything opened
// so far is closed again.
func openOutputs(cfg *config.Config) (_ *outputs, err error) {
	out := &outputs{}
	defer func() {
		if err != nil {
			out.Close()
		}
	}()

	// JSON frames: WebSocket clients, and the log when debugging.
	var sinks transport.Multi
	if cfg.Transport.WebSocketEnabled {
		ws := transport.NewWebSocketTransport(cfg.Transport.WebSocketAddress)
		sinks = append(sinks, ws)
	}
	if cfg.Debug {
		sinks = append(sinks, transport.NewLoggingTransport())
	}
	if len(sinks) > 0 {
		out.add(render.NewSurface(sinks), sinks)
	}

	if cfg.Transport.UDPEnabled {
		sender, err := udp.NewSender(cfg.Transport.UDPTargetAddress)
		if err != nil {
			return nil, err
		}
		out.closers = append(out.closers, sender)

		pub, err := udp.NewPublisher(cfg.Transport.UDPSendInterval, sender)
		if err != nil {
			return nil, err
		}
		pub.Start()
		out.add(pub, pub)
	}

	if mc := cfg.Transport.MQTT; mc.Enabled {
		pub, err := mqtt.Connect(mqtt.Options{
			Broker:   mc.Broker,
			Topic:    mc.Topic,
			Username: mc.Username,
			Password: mc.Password,
			Interval: mc.PublishInterval,
		})
		if err != nil {
			return nil, err
		}
		out.add(pub, pub)
	}

	if cfg.UI.Enabled {
		out.screen = tui.NewSurface()
		out.surfaces = append(out.surfaces, out.screen)
	}

	if len(out.surfaces) == 0 {
		applog.Warnf("Outputs: Nothing enabled, frames are discarded")
	}
	return out, nil
}

func (o *outputs) add(s spectrum.Surface, c io.Closer) {
	o.surfaces = append(o.surfaces, s)
	o.closers = append(o.closers, c)
}

// Close releases outputs in reverse order of opening.
func (o *outputs) Close() error {
	var errs []error
	for i := len(o.closers) - 1; i >= 0; i-- {
		errs = append(errs, o.closers[i].Close())
	}
	o.closers = nil
	return errors.Join(errs...)
}
