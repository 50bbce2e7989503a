// SPDX-License-Identifier: MIT
package config

import (
	"time"

	"spectrum/internal/spectrum"
)

// Core configuration constants that define the boundaries and defaults
// for capture and projection.
const (
	// Audio device defaults
	DefaultChannels        = 1           // Mono capture
	DefaultDeviceID        = MinDeviceID // System default device
	DefaultFramesPerBuffer = 512         // Balanced latency/performance
	DefaultSampleRate      = 44100       // CD-quality audio
	DefaultLowLatency      = false
	DefaultGateThreshold   = 0.0 // Gate disabled

	// Spectrum defaults
	DefaultBlockSize        = spectrum.DefaultBlockSize
	DefaultMaxFrequency     = spectrum.DefaultMaxFrequency
	DefaultScaleFloor       = spectrum.DefaultScaleFloor
	DefaultScaleCap         = spectrum.DefaultScaleCap
	DefaultTransform        = "radix2"
	DefaultUpdateInterval   = 50 * time.Millisecond // ~20 redraws per second
	DefaultDecibelReference = spectrum.DefaultDecibelReference
	DefaultDecibelFloor     = spectrum.DefaultDecibelFloor

	// Recording defaults
	DefaultFormat    = "wav"
	DefaultBitDepth  = 16
	DefaultOutputDir = "./recordings"

	// Transport defaults
	DefaultWebSocketAddress = ":8080"
	DefaultUDPTargetAddress = "127.0.0.1:9090"
	DefaultUDPSendInterval  = 33 * time.Millisecond // ~30Hz
	DefaultMQTTTopic        = "spectrum/peak"
	DefaultMQTTInterval     = time.Second
	DefaultMetricsAddress   = ":9100"

	// Hardware and processing limits
	MinDeviceID     = -1     // -1 represents system default device
	MinSampleRate   = 8000   // Minimum usable sample rate (Hz)
	MaxSampleRate   = 192000 // Maximum supported sample rate (Hz)
	MaxBufferFrames = 8192   // Maximum frames per buffer
	MaxBlockSize    = 1 << 16
)

// Config is the full runtime configuration. It is built from defaults, an
// optional YAML file, ENV_* overrides and finally command line flags.
type Config struct {
	Debug     bool            `yaml:"debug"`     // Enable debug mode (verbose logging).
	LogLevel  string          `yaml:"log_level"` // Logging level ("debug", "info", "warn", "error").
	Audio     AudioConfig     `yaml:"audio"`     // Capture device settings.
	Spectrum  SpectrumConfig  `yaml:"spectrum"`  // Projector settings.
	Recording RecordingConfig `yaml:"recording"` // Raw input recording.
	Transport TransportConfig `yaml:"transport"` // Where frames are published.
	Metrics   MetricsConfig   `yaml:"metrics"`   // Prometheus endpoint.
	UI        UIConfig        `yaml:"ui"`        // Terminal UI.

	// Set by the command line only.
	Command    string `yaml:"-"` // Subcommand to execute ("list", "analyze", "play").
	InputFile  string `yaml:"-"` // WAV file for analyze/play.
	ConfigPath string `yaml:"-"` // Where the configuration was loaded from, if anywhere.
}

// AudioConfig holds settings related to audio capture.
type AudioConfig struct {
	InputDevice     int     `yaml:"input_device"`      // PortAudio device index (-1 for default).
	SampleRate      float64 `yaml:"sample_rate"`       // Sample rate in Hz.
	FramesPerBuffer int     `yaml:"frames_per_buffer"` // Frames per PortAudio callback.
	LowLatency      bool    `yaml:"low_latency"`       // Request low latency from the device.
	InputChannels   int     `yaml:"input_channels"`    // Channels captured; the first one is analysed.
	GateThreshold   float64 `yaml:"gate_threshold"`    // Noise gate level in [0, 1]; 0 disables the gate.
}

// SpectrumConfig holds the projector's recognised options.
type SpectrumConfig struct {
	BlockSize      int           `yaml:"block_size"`      // Samples per snapshot (power of two).
	MaxFrequency   float64       `yaml:"max_frequency"`   // Highest displayed frequency (Hz).
	ScaleFloor     float64       `yaml:"scale_floor"`     // Lowest vertical scale.
	ScaleCap       float64       `yaml:"scale_cap"`       // Highest vertical scale.
	Transform      string        `yaml:"transform"`       // "radix2" or "gonum".
	UpdateInterval time.Duration `yaml:"update_interval"` // Time between snapshots.
	Decibel        DecibelConfig `yaml:"decibel"`         // Optional dB display stage.
}

// DecibelConfig enables the decibel magnitude stage.
type DecibelConfig struct {
	Enabled   bool    `yaml:"enabled"`
	Reference float64 `yaml:"reference"` // Magnitude shown as 0 dB.
	Floor     float64 `yaml:"floor"`     // Lowest dB value shown.
}

// RecordingConfig holds settings related to raw input recording.
type RecordingConfig struct {
	Enabled   bool   `yaml:"enabled"`    // Record the captured input.
	OutputDir string `yaml:"output_dir"` // Directory for recordings.
	Format    string `yaml:"format"`     // Only "wav".
	BitDepth  int    `yaml:"bit_depth"`  // 16 or 24.
}

// TransportConfig holds settings for publishing frames off-process.
type TransportConfig struct {
	WebSocketEnabled bool          `yaml:"websocket_enabled"`  // Serve frames on /ws.
	WebSocketAddress string        `yaml:"websocket_address"`  // Listen address, e.g. ":8080".
	UDPEnabled       bool          `yaml:"udp_enabled"`        // Send binary spectrum packets.
	UDPTargetAddress string        `yaml:"udp_target_address"` // host:port for UDP packets.
	UDPSendInterval  time.Duration `yaml:"udp_send_interval"`  // Interval between UDP packets.
	MQTT             MQTTConfig    `yaml:"mqtt"`               // Peak summaries over MQTT.
}

// MQTTConfig holds broker settings for the peak publisher.
type MQTTConfig struct {
	Enabled         bool          `yaml:"enabled"`
	Broker          string        `yaml:"broker"` // e.g. "tcp://localhost:1883"
	Topic           string        `yaml:"topic"`
	Username        string        `yaml:"username"`
	Password        string        `yaml:"password"`
	PublishInterval time.Duration `yaml:"publish_interval"`
}

// MetricsConfig holds the Prometheus endpoint settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address"` // Listen address for /metrics.
}

// UIConfig holds terminal UI settings.
type UIConfig struct {
	Enabled    bool `yaml:"enabled"`     // Run the live spectrum TUI.
	Bars       int  `yaml:"bars"`        // Number of spectrum bars (0 = fit terminal).
	PickDevice bool `yaml:"pick_device"` // Choose the input device interactively before capture.
}

// NewConfig creates a Config with default values. It is the base that a
// YAML file and flags are applied on top of.
func NewConfig() *Config {
	return &Config{
		LogLevel: "info",
		Audio: AudioConfig{
			InputDevice:     DefaultDeviceID,
			SampleRate:      DefaultSampleRate,
			FramesPerBuffer: DefaultFramesPerBuffer,
			LowLatency:      DefaultLowLatency,
			InputChannels:   DefaultChannels,
			GateThreshold:   DefaultGateThreshold,
		},
		Spectrum: SpectrumConfig{
			BlockSize:      DefaultBlockSize,
			MaxFrequency:   DefaultMaxFrequency,
			ScaleFloor:     DefaultScaleFloor,
			ScaleCap:       DefaultScaleCap,
			Transform:      DefaultTransform,
			UpdateInterval: DefaultUpdateInterval,
			Decibel: DecibelConfig{
				Reference: DefaultDecibelReference,
				Floor:     DefaultDecibelFloor,
			},
		},
		Recording: RecordingConfig{
			OutputDir: DefaultOutputDir,
			Format:    DefaultFormat,
			BitDepth:  DefaultBitDepth,
		},
		Transport: TransportConfig{
			WebSocketAddress: DefaultWebSocketAddress,
			UDPTargetAddress: DefaultUDPTargetAddress,
			UDPSendInterval:  DefaultUDPSendInterval,
			MQTT: MQTTConfig{
				Topic:           DefaultMQTTTopic,
				PublishInterval: DefaultMQTTInterval,
			},
		},
		Metrics: MetricsConfig{
			Address: DefaultMetricsAddress,
		},
		UI: UIConfig{
			Enabled: true,
		},
	}
}
