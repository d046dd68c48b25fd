// Package config handles global configuration loading using viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"firestige.xyz/flowsniff/internal/core"
)

// Config is the top-level configuration.
// Maps to the `flowsniff:` root key in YAML.
type Config struct {
	Capture CaptureConfig `mapstructure:"capture"`
	Decoder DecoderConfig `mapstructure:"decoder"`
	Report  ReportConfig  `mapstructure:"report"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Log     LogConfig     `mapstructure:"log"`
}

// ─── Capture ───

// Capture source types.
const (
	SourceAFPacket = "afpacket"
	SourcePcap     = "pcap"
)

// CaptureConfig configures the frame source.
type CaptureConfig struct {
	Interface    string        `mapstructure:"interface"`
	Source       string        `mapstructure:"source"`    // afpacket | pcap
	PcapFile     string        `mapstructure:"pcap_file"` // required for source=pcap
	SnapLen      int           `mapstructure:"snap_len"`
	BufferSizeMB int           `mapstructure:"buffer_size_mb"`
	PollTimeout  time.Duration `mapstructure:"poll_timeout"`
	BPFFilter    string        `mapstructure:"bpf_filter"`
}

// ─── Decoder ───

// DecoderConfig configures header decoding.
type DecoderConfig struct {
	// HonorIHL reads the IPv4 IHL field. Off by default: the header is
	// treated as a fixed 20 bytes.
	HonorIHL bool `mapstructure:"honor_ihl"`
}

// ─── Report ───

// Report formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// ReportConfig configures periodic reporting.
type ReportConfig struct {
	Interval time.Duration `mapstructure:"interval"`
	Format   string        `mapstructure:"format"` // text | json | yaml
	Trace    bool          `mapstructure:"trace"`  // per-frame trace blocks
	Kafka    KafkaConfig   `mapstructure:"kafka"`
	NATS     NATSConfig    `mapstructure:"nats"`
}

// KafkaConfig configures the optional Kafka report sink.
type KafkaConfig struct {
	Enabled     bool     `mapstructure:"enabled"`
	Brokers     []string `mapstructure:"brokers"`
	Topic       string   `mapstructure:"topic"`
	Compression string   `mapstructure:"compression"` // none | gzip | snappy | lz4 | zstd
	MaxAttempts int      `mapstructure:"max_attempts"`
}

// NATSConfig configures the optional NATS report sink.
type NATSConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
	Subject string `mapstructure:"subject"`
}

// ─── Metrics ───

// MetricsConfig contains Prometheus metrics settings.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Listen  string `mapstructure:"listen"`
	Path    string `mapstructure:"path"`
}

// ─── Log ───

// LogConfig contains logging settings.
type LogConfig struct {
	Level   string           `mapstructure:"level"`  // debug / info / warn / error
	Format  string           `mapstructure:"format"` // json / text
	Outputs LogOutputsConfig `mapstructure:"outputs"`
}

// LogOutputsConfig contains log output destinations besides stderr.
type LogOutputsConfig struct {
	File FileOutputConfig `mapstructure:"file"`
}

// FileOutputConfig configures file log output.
type FileOutputConfig struct {
	Enabled  bool           `mapstructure:"enabled"`
	Path     string         `mapstructure:"path"`
	Rotation RotationConfig `mapstructure:"rotation"`
}

// RotationConfig configures log file rotation.
type RotationConfig struct {
	MaxSizeMB  int  `mapstructure:"max_size_mb"`
	MaxAgeDays int  `mapstructure:"max_age_days"`
	MaxBackups int  `mapstructure:"max_backups"`
	Compress   bool `mapstructure:"compress"`
}

// ─── Loading ───

// configRoot is the top-level wrapper matching the YAML structure `flowsniff: ...`.
type configRoot struct {
	Flowsniff Config `mapstructure:"flowsniff"`
}

// Load loads configuration from path. An empty path yields defaults plus
// environment overrides (e.g. FLOWSNIFF_REPORT_INTERVAL=5s).
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	var root configRoot
	if err := v.Unmarshal(&root); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg := root.Flowsniff

	if err := cfg.ValidateAndApplyDefaults(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default values for configuration.
// All keys use the "flowsniff." prefix to match the YAML root wrapper.
func setDefaults(v *viper.Viper) {
	// Capture defaults
	v.SetDefault("flowsniff.capture.source", SourceAFPacket)
	v.SetDefault("flowsniff.capture.snap_len", core.MaxFrameLen)
	v.SetDefault("flowsniff.capture.buffer_size_mb", 8)
	v.SetDefault("flowsniff.capture.poll_timeout", "100ms")

	// Decoder defaults
	v.SetDefault("flowsniff.decoder.honor_ihl", false)

	// Report defaults
	v.SetDefault("flowsniff.report.interval", "10s")
	v.SetDefault("flowsniff.report.format", FormatText)
	v.SetDefault("flowsniff.report.trace", true)
	v.SetDefault("flowsniff.report.kafka.enabled", false)
	v.SetDefault("flowsniff.report.kafka.brokers", []string{})
	v.SetDefault("flowsniff.report.kafka.topic", "flowsniff-reports")
	v.SetDefault("flowsniff.report.kafka.compression", "snappy")
	v.SetDefault("flowsniff.report.kafka.max_attempts", 3)
	v.SetDefault("flowsniff.report.nats.enabled", false)
	v.SetDefault("flowsniff.report.nats.url", "nats://127.0.0.1:4222")
	v.SetDefault("flowsniff.report.nats.subject", "flowsniff.reports")

	// Metrics defaults
	v.SetDefault("flowsniff.metrics.enabled", false)
	v.SetDefault("flowsniff.metrics.listen", ":9091")
	v.SetDefault("flowsniff.metrics.path", "/metrics")

	// Log defaults
	v.SetDefault("flowsniff.log.level", "info")
	v.SetDefault("flowsniff.log.format", "text")
	v.SetDefault("flowsniff.log.outputs.file.enabled", false)
	v.SetDefault("flowsniff.log.outputs.file.path", "/var/log/flowsniff/flowsniff.log")
	v.SetDefault("flowsniff.log.outputs.file.rotation.max_size_mb", 100)
	v.SetDefault("flowsniff.log.outputs.file.rotation.max_age_days", 30)
	v.SetDefault("flowsniff.log.outputs.file.rotation.max_backups", 5)
	v.SetDefault("flowsniff.log.outputs.file.rotation.compress", true)
}

// ValidateAndApplyDefaults validates configuration and fills runtime defaults.
// The capture interface is not required here: the CLI supplies it.
func (cfg *Config) ValidateAndApplyDefaults() error {
	// ── Log ──
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Log.Level] {
		return fmt.Errorf("%w: invalid log level: %s (must be debug/info/warn/error)", core.ErrConfigInvalid, cfg.Log.Level)
	}
	if cfg.Log.Format != "json" && cfg.Log.Format != "text" {
		return fmt.Errorf("%w: invalid log format: %s (must be json/text)", core.ErrConfigInvalid, cfg.Log.Format)
	}

	// ── Capture ──
	switch cfg.Capture.Source {
	case SourceAFPacket:
	case SourcePcap:
		if cfg.Capture.PcapFile == "" {
			return fmt.Errorf("%w: capture.pcap_file is required when capture.source=pcap", core.ErrConfigInvalid)
		}
	default:
		return fmt.Errorf("%w: unsupported capture.source: %s (must be afpacket/pcap)", core.ErrConfigInvalid, cfg.Capture.Source)
	}
	if cfg.Capture.SnapLen <= 0 || cfg.Capture.SnapLen > core.MaxFrameLen {
		return fmt.Errorf("%w: capture.snap_len must be in 1..%d, got %d", core.ErrConfigInvalid, core.MaxFrameLen, cfg.Capture.SnapLen)
	}
	if cfg.Capture.BufferSizeMB <= 0 {
		return fmt.Errorf("%w: capture.buffer_size_mb must be positive", core.ErrConfigInvalid)
	}
	if cfg.Capture.PollTimeout <= 0 {
		return fmt.Errorf("%w: capture.poll_timeout must be positive", core.ErrConfigInvalid)
	}

	// ── Report ──
	if cfg.Report.Interval <= 0 {
		return fmt.Errorf("%w: report.interval must be positive", core.ErrConfigInvalid)
	}
	switch cfg.Report.Format {
	case FormatText, FormatJSON, FormatYAML:
	default:
		return fmt.Errorf("%w: invalid report.format: %s (must be text/json/yaml)", core.ErrConfigInvalid, cfg.Report.Format)
	}
	if cfg.Report.Kafka.Enabled {
		if len(cfg.Report.Kafka.Brokers) == 0 {
			return fmt.Errorf("%w: report.kafka.brokers is required when report.kafka.enabled=true", core.ErrConfigInvalid)
		}
		if cfg.Report.Kafka.Topic == "" {
			return fmt.Errorf("%w: report.kafka.topic is required when report.kafka.enabled=true", core.ErrConfigInvalid)
		}
	}
	if cfg.Report.NATS.Enabled && cfg.Report.NATS.Subject == "" {
		return fmt.Errorf("%w: report.nats.subject is required when report.nats.enabled=true", core.ErrConfigInvalid)
	}

	// ── Metrics ──
	if cfg.Metrics.Enabled && cfg.Metrics.Listen == "" {
		return fmt.Errorf("%w: metrics.listen is required when metrics.enabled=true", core.ErrConfigInvalid)
	}

	return nil
}
