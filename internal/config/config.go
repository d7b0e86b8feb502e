package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`

	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`

	JWTSecret     string `mapstructure:"jwt_secret" yaml:"jwt_secret"`
	JWTIssuer     string `mapstructure:"jwt_issuer" yaml:"jwt_issuer"`
	JWTAudience   string `mapstructure:"jwt_audience" yaml:"jwt_audience"`
	PublishSecret string `mapstructure:"publish_secret" yaml:"publish_secret"`

	BatchDelay        time.Duration `mapstructure:"batch_delay" yaml:"batch_delay"`
	TypingDebounce    time.Duration `mapstructure:"typing_debounce" yaml:"typing_debounce"`
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval" yaml:"heartbeat_interval"`

	CompressionThreshold int           `mapstructure:"compression_threshold" yaml:"compression_threshold"`
	MaxMessageBytes      int64         `mapstructure:"max_message_bytes" yaml:"max_message_bytes"`
	SendBuffer           int           `mapstructure:"send_buffer" yaml:"send_buffer"`
	WriteTimeout         time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	InboundRateLimit     float64       `mapstructure:"inbound_rate_limit" yaml:"inbound_rate_limit"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:                 ":3001",
		ReadHeaderTimeout:    5 * time.Second,
		ShutdownTimeout:      5 * time.Second,
		LogLevel:             "info",
		LogFormat:            "console",
		JWTSecret:            "dev-secret",
		BatchDelay:           15 * time.Millisecond,
		TypingDebounce:       150 * time.Millisecond,
		HeartbeatInterval:    25 * time.Second,
		CompressionThreshold: 1024,
		MaxMessageBytes:      1 << 20,
		SendBuffer:           256,
		WriteTimeout:         10 * time.Second,
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.LogFormat != "" {
		c.LogFormat = other.LogFormat
	}
	if other.JWTSecret != "" {
		c.JWTSecret = other.JWTSecret
	}
	if other.PublishSecret != "" {
		c.PublishSecret = other.PublishSecret
	}
	if other.BatchDelay != 0 {
		c.BatchDelay = other.BatchDelay
	}
	if other.TypingDebounce != 0 {
		c.TypingDebounce = other.TypingDebounce
	}
	if other.HeartbeatInterval != 0 {
		c.HeartbeatInterval = other.HeartbeatInterval
	}
}

// Validate rejects settings the hub cannot run with. Zero durations are
// allowed; each component substitutes its own default for them.
func (c Config) Validate() error {
	switch strings.ToLower(c.LogFormat) {
	case "console", "json":
	default:
		return fmt.Errorf("log_format %q: want console or json", c.LogFormat)
	}
	if c.SendBuffer <= 0 {
		return errors.New("send_buffer must be positive")
	}
	if c.MaxMessageBytes < 0 {
		return errors.New("max_message_bytes must not be negative")
	}
	if c.CompressionThreshold < 0 {
		return errors.New("compression_threshold must not be negative")
	}
	if c.InboundRateLimit < 0 {
		return errors.New("inbound_rate_limit must not be negative")
	}
	for name, d := range map[string]time.Duration{
		"batch_delay":        c.BatchDelay,
		"typing_debounce":    c.TypingDebounce,
		"heartbeat_interval": c.HeartbeatInterval,
		"write_timeout":      c.WriteTimeout,
	} {
		if d < 0 {
			return fmt.Errorf("%s must not be negative", name)
		}
	}
	return nil
}
