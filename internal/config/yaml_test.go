// SPDX-License-Identifier: MIT
package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	tmp := t.TempDir()
	path := filepath.Join(tmp, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}
	return path
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	t.Parallel()
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if cfg == nil {
		t.Fatal("expected default config, got nil")
	}
	if cfg.Spectrum.BlockSize != DefaultBlockSize {
		t.Errorf("BlockSize = %d, want %d", cfg.Spectrum.BlockSize, DefaultBlockSize)
	}
	if cfg.Spectrum.MaxFrequency != DefaultMaxFrequency {
		t.Errorf("MaxFrequency = %g, want %g", cfg.Spectrum.MaxFrequency, DefaultMaxFrequency)
	}
	if cfg.ConfigPath != "" {
		t.Errorf("ConfigPath = %q, want empty", cfg.ConfigPath)
	}
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	t.Parallel()
	cfg, err := LoadConfig("nonexistent.yaml")
	if err == nil {
		t.Errorf("expected error for missing file, got nil")
	}
	if cfg != nil {
		t.Errorf("expected nil config on error, got %+v", cfg)
	}
}

func TestLoadConfig_UnmarshalError(t *testing.T) {
	t.Parallel()
	path := writeTempConfig(t, ":\n:bad")
	_, err := LoadConfig(path)
	if err == nil || !strings.Contains(err.Error(), "failed to parse config file") {
		t.Errorf("expected unmarshal error, got %v", err)
	}
}

func TestLoadConfig_FileOverridesDefaults(t *testing.T) {
	t.Parallel()
	path := writeTempConfig(t, `
log_level: debug
audio:
  sample_rate: 48000
spectrum:
  block_size: 2048
  max_frequency: 16000
  transform: gonum
  update_interval: 20ms
  decibel:
    enabled: true
transport:
  udp_enabled: true
  udp_target_address: "10.0.0.2:9000"
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
	if cfg.Audio.SampleRate != 48000 {
		t.Errorf("SampleRate = %g, want 48000", cfg.Audio.SampleRate)
	}
	if cfg.Spectrum.BlockSize != 2048 {
		t.Errorf("BlockSize = %d, want 2048", cfg.Spectrum.BlockSize)
	}
	if cfg.Spectrum.Transform != "gonum" {
		t.Errorf("Transform = %q, want gonum", cfg.Spectrum.Transform)
	}
	if cfg.Spectrum.UpdateInterval != 20*time.Millisecond {
		t.Errorf("UpdateInterval = %s, want 20ms", cfg.Spectrum.UpdateInterval)
	}
	if !cfg.Spectrum.Decibel.Enabled {
		t.Error("Decibel.Enabled = false, want true")
	}
	// Unset nested values keep their defaults.
	if cfg.Spectrum.Decibel.Reference != DefaultDecibelReference {
		t.Errorf("Decibel.Reference = %g, want %g", cfg.Spectrum.Decibel.Reference, DefaultDecibelReference)
	}
	if cfg.Spectrum.ScaleCap != DefaultScaleCap {
		t.Errorf("ScaleCap = %g, want %g", cfg.Spectrum.ScaleCap, DefaultScaleCap)
	}
	if cfg.Transport.UDPTargetAddress != "10.0.0.2:9000" {
		t.Errorf("UDPTargetAddress = %q", cfg.Transport.UDPTargetAddress)
	}
	if cfg.ConfigPath != path {
		t.Errorf("ConfigPath = %q, want %q", cfg.ConfigPath, path)
	}
}

func TestLoadConfig_InvalidFile(t *testing.T) {
	t.Parallel()
	path := writeTempConfig(t, "spectrum:\n  block_size: 1000\n")
	_, err := LoadConfig(path)
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
	if !strings.Contains(err.Error(), "try 1024") {
		t.Errorf("expected a power of two suggestion, got %q", err)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"block size not power of two", func(c *Config) { c.Spectrum.BlockSize = 3000 }, "spectrum.block_size"},
		{"block size one", func(c *Config) { c.Spectrum.BlockSize = 1 }, "spectrum.block_size"},
		{"block size too large", func(c *Config) { c.Spectrum.BlockSize = MaxBlockSize * 2 }, "exceeds"},
		{"zero max frequency", func(c *Config) { c.Spectrum.MaxFrequency = 0 }, "spectrum.max_frequency"},
		{"floor above cap", func(c *Config) { c.Spectrum.ScaleFloor = 200 }, "spectrum.scale_floor"},
		{"unknown transform", func(c *Config) { c.Spectrum.Transform = "dft" }, "spectrum.transform"},
		{"zero update interval", func(c *Config) { c.Spectrum.UpdateInterval = 0 }, "spectrum.update_interval"},
		{"decibel zero reference", func(c *Config) {
			c.Spectrum.Decibel.Enabled = true
			c.Spectrum.Decibel.Reference = 0
		}, "spectrum.decibel.reference"},
		{"sample rate too low", func(c *Config) { c.Audio.SampleRate = 100 }, "audio.sample_rate"},
		{"sample rate too high", func(c *Config) { c.Audio.SampleRate = 400000 }, "audio.sample_rate"},
		{"device below default", func(c *Config) { c.Audio.InputDevice = -2 }, "audio.input_device"},
		{"frames per buffer zero", func(c *Config) { c.Audio.FramesPerBuffer = 0 }, "audio.frames_per_buffer"},
		{"no channels", func(c *Config) { c.Audio.InputChannels = 0 }, "audio.input_channels"},
		{"gate above one", func(c *Config) { c.Audio.GateThreshold = 1.5 }, "audio.gate_threshold"},
		{"recording bad format", func(c *Config) {
			c.Recording.Enabled = true
			c.Recording.Format = "mp3"
		}, "recording.format"},
		{"recording bad depth", func(c *Config) {
			c.Recording.Enabled = true
			c.Recording.BitDepth = 8
		}, "recording.bit_depth"},
		{"recording disabled ignores format", func(c *Config) { c.Recording.Format = "mp3" }, ""},
		{"udp missing port", func(c *Config) {
			c.Transport.UDPEnabled = true
			c.Transport.UDPTargetAddress = "localhost"
		}, "missing port"},
		{"udp zero interval", func(c *Config) {
			c.Transport.UDPEnabled = true
			c.Transport.UDPSendInterval = 0
		}, "transport.udp_send_interval"},
		{"mqtt without broker", func(c *Config) { c.Transport.MQTT.Enabled = true }, "transport.mqtt.broker"},
		{"mqtt with broker", func(c *Config) {
			c.Transport.MQTT.Enabled = true
			c.Transport.MQTT.Broker = "tcp://localhost:1883"
		}, ""},
		{"metrics without address", func(c *Config) {
			c.Metrics.Enabled = true
			c.Metrics.Address = ""
		}, "metrics.address"},
		{"negative bars", func(c *Config) { c.UI.Bars = -1 }, "ui.bars"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := NewConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("expected ErrInvalidConfig, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("ENV_DEBUG", "true")
	t.Setenv("ENV_BLOCK_SIZE", "8192")
	t.Setenv("ENV_SAMPLE_RATE", "48000")
	t.Setenv("ENV_UDP_ENABLED", "1")
	t.Setenv("ENV_UDP_TARGET_ADDRESS", "192.168.1.5:7000")
	t.Setenv("ENV_UDP_SEND_INTERVAL", "10ms")
	t.Setenv("ENV_TRANSFORM", "gonum")

	cfg, err := LoadConfig(writeTempConfig(t, "spectrum:\n  block_size: 1024\n"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if !cfg.Debug {
		t.Error("Debug = false, want true")
	}
	if cfg.Spectrum.BlockSize != 8192 {
		t.Errorf("BlockSize = %d, want env value 8192 over file value", cfg.Spectrum.BlockSize)
	}
	if cfg.Audio.SampleRate != 48000 {
		t.Errorf("SampleRate = %g, want 48000", cfg.Audio.SampleRate)
	}
	if !cfg.Transport.UDPEnabled {
		t.Error("UDPEnabled = false, want true")
	}
	if cfg.Transport.UDPTargetAddress != "192.168.1.5:7000" {
		t.Errorf("UDPTargetAddress = %q", cfg.Transport.UDPTargetAddress)
	}
	if cfg.Transport.UDPSendInterval != 10*time.Millisecond {
		t.Errorf("UDPSendInterval = %s, want 10ms", cfg.Transport.UDPSendInterval)
	}
	if cfg.Spectrum.Transform != "gonum" {
		t.Errorf("Transform = %q, want gonum", cfg.Spectrum.Transform)
	}
}

func TestEnvOverrides_IgnoresUnparseable(t *testing.T) {
	t.Setenv("ENV_DEBUG", "maybe")
	t.Setenv("ENV_BLOCK_SIZE", "lots")

	cfg, err := LoadConfig(writeTempConfig(t, "debug: false\n"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Debug {
		t.Error("Debug changed by unparseable value")
	}
	if cfg.Spectrum.BlockSize != DefaultBlockSize {
		t.Errorf("BlockSize = %d, want default", cfg.Spectrum.BlockSize)
	}
}

func TestEnvOverrides_ProduceInvalidConfig(t *testing.T) {
	t.Setenv("ENV_BLOCK_SIZE", "100")
	_, err := LoadConfig(writeTempConfig(t, "debug: false\n"))
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}
