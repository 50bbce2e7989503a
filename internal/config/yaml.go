// SPDX-License-Identifier: MIT
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	applog "spectrum/internal/log"
	"spectrum/internal/transform"
	"spectrum/pkg/bitint"
)

// ErrInvalidConfig is wrapped by every error returned from Validate.
var ErrInvalidConfig = errors.New("invalid configuration")

// LoadConfig loads configuration from a YAML file specified by path. If path
// is empty, it looks for "config.yaml" in the working directory and falls back
// to built-in defaults when there is none. Environment overrides are applied
// last and the result is validated.
func LoadConfig(path string) (*Config, error) {
	cfg := NewConfig()

	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
		cfg.ConfigPath = path
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configuration for values the engine cannot run with.
func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
	}

	// Audio
	if c.Audio.InputDevice < MinDeviceID {
		return invalid("audio.input_device %d is below %d", c.Audio.InputDevice, MinDeviceID)
	}
	if c.Audio.SampleRate < MinSampleRate || c.Audio.SampleRate > MaxSampleRate {
		return invalid("audio.sample_rate %.0f outside [%d, %d]", c.Audio.SampleRate, MinSampleRate, MaxSampleRate)
	}
	if c.Audio.FramesPerBuffer <= 0 || c.Audio.FramesPerBuffer > MaxBufferFrames {
		return invalid("audio.frames_per_buffer %d outside [1, %d]", c.Audio.FramesPerBuffer, MaxBufferFrames)
	}
	if c.Audio.InputChannels < 1 {
		return invalid("audio.input_channels must be at least 1, got %d", c.Audio.InputChannels)
	}
	if c.Audio.GateThreshold < 0 || c.Audio.GateThreshold > 1 {
		return invalid("audio.gate_threshold %g outside [0, 1]", c.Audio.GateThreshold)
	}

	// Spectrum
	s := c.Spectrum
	if s.BlockSize < 2 || !bitint.IsPowerOfTwo(s.BlockSize) {
		return invalid("spectrum.block_size %d must be a power of two >= 2 (try %d)",
			s.BlockSize, bitint.NextPowerOfTwo(max(s.BlockSize, 2)))
	}
	if s.BlockSize > MaxBlockSize {
		return invalid("spectrum.block_size %d exceeds %d", s.BlockSize, MaxBlockSize)
	}
	if s.MaxFrequency <= 0 {
		return invalid("spectrum.max_frequency must be positive, got %g", s.MaxFrequency)
	}
	if s.ScaleFloor > s.ScaleCap {
		return invalid("spectrum.scale_floor %g is above spectrum.scale_cap %g", s.ScaleFloor, s.ScaleCap)
	}
	if _, err := transform.New(s.Transform); err != nil {
		return invalid("spectrum.transform: %v", err)
	}
	if s.UpdateInterval <= 0 {
		return invalid("spectrum.update_interval must be positive, got %s", s.UpdateInterval)
	}
	if s.Decibel.Enabled && s.Decibel.Reference <= 0 {
		return invalid("spectrum.decibel.reference must be positive, got %g", s.Decibel.Reference)
	}

	// Recording
	if c.Recording.Enabled {
		if !strings.EqualFold(c.Recording.Format, "wav") {
			return invalid("recording.format %q is not supported", c.Recording.Format)
		}
		if c.Recording.BitDepth != 16 && c.Recording.BitDepth != 24 {
			return invalid("recording.bit_depth must be 16 or 24, got %d", c.Recording.BitDepth)
		}
		if c.Recording.OutputDir == "" {
			return invalid("recording.output_dir must be set when recording is enabled")
		}
	}

	// Transport
	t := c.Transport
	if t.WebSocketEnabled && t.WebSocketAddress == "" {
		return invalid("transport.websocket_address must be set when the websocket is enabled")
	}
	if t.UDPEnabled {
		if t.UDPTargetAddress == "" {
			return invalid("transport.udp_target_address must be set when UDP is enabled")
		}
		if !strings.Contains(t.UDPTargetAddress, ":") {
			return invalid("transport.udp_target_address %q appears invalid (missing port?)", t.UDPTargetAddress)
		}
		if t.UDPSendInterval <= 0 {
			return invalid("transport.udp_send_interval must be positive when UDP is enabled")
		}
	}
	if t.MQTT.Enabled {
		if t.MQTT.Broker == "" {
			return invalid("transport.mqtt.broker must be set when MQTT is enabled")
		}
		if t.MQTT.Topic == "" {
			return invalid("transport.mqtt.topic must be set when MQTT is enabled")
		}
		if t.MQTT.PublishInterval <= 0 {
			return invalid("transport.mqtt.publish_interval must be positive")
		}
	}

	if c.Metrics.Enabled && c.Metrics.Address == "" {
		return invalid("metrics.address must be set when metrics are enabled")
	}
	if c.UI.Bars < 0 {
		return invalid("ui.bars must not be negative, got %d", c.UI.Bars)
	}

	return nil
}

// applyEnvOverrides applies ENV_* variables on top of the loaded values.
// Unparseable values are ignored with a warning.
func (c *Config) applyEnvOverrides() {
	boolEnv := func(name string, dst *bool) {
		if val, ok := os.LookupEnv(name); ok {
			b, err := strconv.ParseBool(val)
			if err != nil {
				applog.Warnf("configuration: ignoring %s=%q: %v", name, val, err)
				return
			}
			*dst = b
			applog.Debugf("configuration: overriding from %s: %v", name, b)
		}
	}
	stringEnv := func(name string, dst *string) {
		if val, ok := os.LookupEnv(name); ok {
			*dst = val
			applog.Debugf("configuration: overriding from %s: %s", name, val)
		}
	}
	intEnv := func(name string, dst *int) {
		if val, ok := os.LookupEnv(name); ok {
			n, err := strconv.Atoi(val)
			if err != nil {
				applog.Warnf("configuration: ignoring %s=%q: %v", name, val, err)
				return
			}
			*dst = n
			applog.Debugf("configuration: overriding from %s: %d", name, n)
		}
	}
	floatEnv := func(name string, dst *float64) {
		if val, ok := os.LookupEnv(name); ok {
			f, err := strconv.ParseFloat(val, 64)
			if err != nil {
				applog.Warnf("configuration: ignoring %s=%q: %v", name, val, err)
				return
			}
			*dst = f
			applog.Debugf("configuration: overriding from %s: %g", name, f)
		}
	}
	durationEnv := func(name string, dst *time.Duration) {
		if val, ok := os.LookupEnv(name); ok {
			d, err := time.ParseDuration(val)
			if err != nil {
				applog.Warnf("configuration: ignoring %s=%q: %v", name, val, err)
				return
			}
			*dst = d
			applog.Debugf("configuration: overriding from %s: %s", name, d)
		}
	}

	// ENV_{...}
	// General overrides.
	boolEnv("ENV_DEBUG", &c.Debug)
	stringEnv("ENV_LOG_LEVEL", &c.LogLevel)

	// Audio and spectrum.
	intEnv("ENV_INPUT_DEVICE", &c.Audio.InputDevice)
	floatEnv("ENV_SAMPLE_RATE", &c.Audio.SampleRate)
	intEnv("ENV_BLOCK_SIZE", &c.Spectrum.BlockSize)
	stringEnv("ENV_TRANSFORM", &c.Spectrum.Transform)
	boolEnv("ENV_DECIBEL", &c.Spectrum.Decibel.Enabled)

	// ENV_UDP_{...}
	// Specific to the transport layer.
	boolEnv("ENV_UDP_ENABLED", &c.Transport.UDPEnabled)
	stringEnv("ENV_UDP_TARGET_ADDRESS", &c.Transport.UDPTargetAddress)
	durationEnv("ENV_UDP_SEND_INTERVAL", &c.Transport.UDPSendInterval)
	boolEnv("ENV_WS_ENABLED", &c.Transport.WebSocketEnabled)
	stringEnv("ENV_WS_ADDRESS", &c.Transport.WebSocketAddress)
	boolEnv("ENV_MQTT_ENABLED", &c.Transport.MQTT.Enabled)
	stringEnv("ENV_MQTT_BROKER", &c.Transport.MQTT.Broker)
	stringEnv("ENV_MQTT_USERNAME", &c.Transport.MQTT.Username)
	stringEnv("ENV_MQTT_PASSWORD", &c.Transport.MQTT.Password)

	boolEnv("ENV_METRICS_ENABLED", &c.Metrics.Enabled)
	stringEnv("ENV_METRICS_ADDRESS", &c.Metrics.Address)
}
