// SPDX-License-Identifier: MIT
package cmd

import (
	"fmt"
	"time"

	"spectrum/internal/config"
	"spectrum/pkg/build"

	"github.com/spf13/cobra"
)

// flagValues receives the raw flag values. Only flags the user actually set
// are copied onto the loaded configuration.
type flagValues struct {
	configPath string

	device          int
	channels        int
	sampleRate      float64
	framesPerBuffer int
	lowLatency      bool
	gate            float64

	blockSize int
	transform string
	decibel   bool
	interval  time.Duration

	record    bool
	outputDir string
	bitDepth  int

	websocket   bool
	wsAddress   string
	udp         bool
	udpTarget   string
	mqttBroker  string
	mqttTopic   string
	metrics     bool
	metricsAddr string

	noUI    bool
	bars    int
	pick    bool
	verbose bool
}

// ParseArgs parses the command line and returns the resulting configuration:
// defaults, then the YAML file, then ENV_* variables, then flags. It returns
// a nil configuration without error when only help or version was printed.
func ParseArgs(args []string) (*config.Config, error) {
	buildInfo := build.GetBuildFlags()
	var (
		flags   flagValues
		options *config.Config
	)

	load := func(cmd *cobra.Command, command string, args []string) error {
		cfg, err := config.LoadConfig(flags.configPath)
		if err != nil {
			return err
		}
		applyFlags(cmd, &flags, cfg)
		if err := cfg.Validate(); err != nil {
			return err
		}
		cfg.Command = command
		if len(args) > 0 {
			cfg.InputFile = args[0]
		}
		options = cfg
		return nil
	}

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name,
		Short:         buildInfo.Description,
		Version:       buildInfo.Version,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return load(cmd, "", args)
		},
	}
	rootCmd.SetVersionTemplate(fmt.Sprintf("%s %s (commit %s, built %s)\n",
		buildInfo.Name, buildInfo.Version, buildInfo.Commit, buildInfo.Time))

	// Display help message
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List available audio devices",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return load(cmd, "list", args)
			},
		},
		&cobra.Command{
			Use:   "analyze <file.wav>",
			Short: "Print the peak frequency of every block of a WAV file",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return load(cmd, "analyze", args)
			},
		},
		&cobra.Command{
			Use:   "play <file.wav>",
			Short: "Play a WAV file while drawing its spectrum",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return load(cmd, "play", args)
			},
		},
	)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "",
		"Path to a YAML configuration file (default ./config.yaml if present)")

	// Audio Device Configuration
	pf.IntVarP(&flags.device, "device", "d", config.DefaultDeviceID,
		"Specify input device ID. Use 'list' command to see available devices.")
	pf.IntVarP(&flags.channels, "channels", "c", config.DefaultChannels,
		"Number of channels to capture; the first one is analysed")
	pf.Float64VarP(&flags.sampleRate, "sample-rate", "s", config.DefaultSampleRate,
		"Sample rate, measured in Hertz (Hz)")
	pf.IntVarP(&flags.framesPerBuffer, "frames-per-buffer", "b", config.DefaultFramesPerBuffer,
		"The number of frames per buffer (affects latency)")
	pf.BoolVarP(&flags.lowLatency, "low-latency", "l", config.DefaultLowLatency,
		"Use low latency mode for real-time processing")
	pf.Float64Var(&flags.gate, "gate", config.DefaultGateThreshold,
		"Noise gate threshold in [0, 1]; 0 disables the gate")

	// Spectrum Configuration
	pf.IntVarP(&flags.blockSize, "block-size", "n", config.DefaultBlockSize,
		"Samples per spectrum update (power of two)")
	pf.StringVarP(&flags.transform, "transform", "t", config.DefaultTransform,
		"Transform engine: radix2 or gonum")
	pf.BoolVar(&flags.decibel, "db", false,
		"Show magnitudes in decibels")
	pf.DurationVarP(&flags.interval, "interval", "i", config.DefaultUpdateInterval,
		"Time between spectrum updates")

	// Recording Configuration
	pf.BoolVarP(&flags.record, "record", "r", false,
		"Record audio from the specified input device")
	pf.StringVarP(&flags.outputDir, "output", "o", config.DefaultOutputDir,
		"Directory for recordings, named recording-DD-MM-YYYY-HHMMSS.wav")
	pf.IntVar(&flags.bitDepth, "bit-depth", config.DefaultBitDepth,
		"Recording bit depth (16 or 24)")

	// Transport Configuration
	pf.BoolVarP(&flags.websocket, "websocket", "w", false,
		"Serve frames as JSON over WebSocket on /ws")
	pf.StringVar(&flags.wsAddress, "ws-address", config.DefaultWebSocketAddress,
		"WebSocket listen address")
	pf.BoolVarP(&flags.udp, "udp", "u", false,
		"Send binary spectrum packets over UDP")
	pf.StringVar(&flags.udpTarget, "udp-target", config.DefaultUDPTargetAddress,
		"UDP target host:port")
	pf.StringVar(&flags.mqttBroker, "mqtt", "",
		"Publish peak summaries to this MQTT broker, e.g. tcp://localhost:1883")
	pf.StringVar(&flags.mqttTopic, "mqtt-topic", config.DefaultMQTTTopic,
		"MQTT topic for peak summaries")
	pf.BoolVarP(&flags.metrics, "metrics", "m", false,
		"Expose Prometheus metrics")
	pf.StringVar(&flags.metricsAddr, "metrics-address", config.DefaultMetricsAddress,
		"Metrics listen address")

	// UI Configuration
	pf.BoolVar(&flags.noUI, "no-ui", false,
		"Run without the terminal UI")
	pf.IntVar(&flags.bars, "bars", 0,
		"Number of spectrum bars (0 fits the terminal)")
	pf.BoolVarP(&flags.pick, "pick", "p", false,
		"Choose the input device interactively before capturing")

	// Debug Configuration
	pf.BoolVarP(&flags.verbose, "verbose", "v", false,
		"Show verbose output")

	// Execute the CLI
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		return nil, err
	}

	return options, nil
}

// applyFlags copies every flag set on the command line onto cfg.
func applyFlags(cmd *cobra.Command, f *flagValues, cfg *config.Config) {
	set := cmd.Flags().Changed

	if set("device") {
		cfg.Audio.InputDevice = f.device
	}
	if set("channels") {
		cfg.Audio.InputChannels = f.channels
	}
	if set("sample-rate") {
		cfg.Audio.SampleRate = f.sampleRate
	}
	if set("frames-per-buffer") {
		cfg.Audio.FramesPerBuffer = f.framesPerBuffer
	}
	if set("low-latency") {
		cfg.Audio.LowLatency = f.lowLatency
	}
	if set("gate") {
		cfg.Audio.GateThreshold = f.gate
	}

	if set("block-size") {
		cfg.Spectrum.BlockSize = f.blockSize
	}
	if set("transform") {
		cfg.Spectrum.Transform = f.transform
	}
	if set("db") {
		cfg.Spectrum.Decibel.Enabled = f.decibel
	}
	if set("interval") {
		cfg.Spectrum.UpdateInterval = f.interval
	}

	if set("record") {
		cfg.Recording.Enabled = f.record
	}
	if set("output") {
		cfg.Recording.OutputDir = f.outputDir
	}
	if set("bit-depth") {
		cfg.Recording.BitDepth = f.bitDepth
	}

	if set("websocket") {
		cfg.Transport.WebSocketEnabled = f.websocket
	}
	if set("ws-address") {
		cfg.Transport.WebSocketAddress = f.wsAddress
	}
	if set("udp") {
		cfg.Transport.UDPEnabled = f.udp
	}
	if set("udp-target") {
		cfg.Transport.UDPTargetAddress = f.udpTarget
	}
	if set("mqtt") {
		cfg.Transport.MQTT.Enabled = f.mqttBroker != ""
		cfg.Transport.MQTT.Broker = f.mqttBroker
	}
	if set("mqtt-topic") {
		cfg.Transport.MQTT.Topic = f.mqttTopic
	}
	if set("metrics") {
		cfg.Metrics.Enabled = f.metrics
	}
	if set("metrics-address") {
		cfg.Metrics.Address = f.metricsAddr
	}

	if set("no-ui") {
		cfg.UI.Enabled = !f.noUI
	}
	if set("bars") {
		cfg.UI.Bars = f.bars
	}
	if set("pick") {
		cfg.UI.PickDevice = f.pick
	}

	if set("verbose") && f.verbose {
		cfg.Debug = true
	}
}
