package config

import "time"

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`
	// Mode is the gin mode: debug, release or test.
	Mode string `mapstructure:"mode" yaml:"mode"`

	FailoverGrace      time.Duration `mapstructure:"failover_grace" yaml:"failover_grace"`
	ClientBuffer       int           `mapstructure:"client_buffer" yaml:"client_buffer"`
	MaxMessageBytes    int64         `mapstructure:"max_message_bytes" yaml:"max_message_bytes"`
	MaxTrackedMessages int           `mapstructure:"max_tracked_messages" yaml:"max_tracked_messages"`
	// CommandsPerMinute limits inbound frames per connection; 0 disables the limit.
	CommandsPerMinute int `mapstructure:"commands_per_minute" yaml:"commands_per_minute"`

	JWTSecret   string `mapstructure:"jwt_secret" yaml:"jwt_secret"`
	JWTIssuer   string `mapstructure:"jwt_issuer" yaml:"jwt_issuer"`
	JWTAudience string `mapstructure:"jwt_audience" yaml:"jwt_audience"`
	JWTRequired bool   `mapstructure:"jwt_required" yaml:"jwt_required"`

	// DatabasePath enables the moderation audit log when set.
	DatabasePath string `mapstructure:"database_path" yaml:"database_path"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:               ":8080",
		ReadHeaderTimeout:  5 * time.Second,
		ShutdownTimeout:    5 * time.Second,
		LogLevel:           "info",
		Mode:               "release",
		FailoverGrace:      3 * time.Second,
		ClientBuffer:       64,
		MaxMessageBytes:    64 << 10,
		MaxTrackedMessages: 1000,
		CommandsPerMinute:  600,
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
	if other.Mode != "" {
		c.Mode = other.Mode
	}
	if other.FailoverGrace != 0 {
		c.FailoverGrace = other.FailoverGrace
	}
	if other.ClientBuffer != 0 {
		c.ClientBuffer = other.ClientBuffer
	}
	if other.MaxMessageBytes != 0 {
		c.MaxMessageBytes = other.MaxMessageBytes
	}
	if other.MaxTrackedMessages != 0 {
		c.MaxTrackedMessages = other.MaxTrackedMessages
	}
	if other.CommandsPerMinute != 0 {
		c.CommandsPerMinute = other.CommandsPerMinute
	}
	if other.JWTSecret != "" {
		c.JWTSecret = other.JWTSecret
	}
	if other.JWTIssuer != "" {
		c.JWTIssuer = other.JWTIssuer
	}
	if other.JWTAudience != "" {
		c.JWTAudience = other.JWTAudience
	}
	if other.JWTRequired {
		c.JWTRequired = true
	}
	if other.DatabasePath != "" {
		c.DatabasePath = other.DatabasePath
	}
}
