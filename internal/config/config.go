package config

import "time"

// Config holds client configuration values.
type Config struct {
	ServerURL   string        `mapstructure:"server_url" yaml:"server_url"`
	StatePath   string        `mapstructure:"state_path" yaml:"state_path"`
	LogLevel    string        `mapstructure:"log_level" yaml:"log_level"`
	LogFile     string        `mapstructure:"log_file" yaml:"log_file"`
	HTTPTimeout time.Duration `mapstructure:"http_timeout" yaml:"http_timeout"`
	BotEnabled  bool          `mapstructure:"bot_enabled" yaml:"bot_enabled"`
	BotDelayMin time.Duration `mapstructure:"bot_delay_min" yaml:"bot_delay_min"`
	BotDelayMax time.Duration `mapstructure:"bot_delay_max" yaml:"bot_delay_max"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		ServerURL:   "http://localhost:3000",
		StatePath:   "konnect.db",
		LogLevel:    "info",
		LogFile:     "konnect.log",
		HTTPTimeout: 30 * time.Second,
		BotEnabled:  true,
		BotDelayMin: 600 * time.Millisecond,
		BotDelayMax: 1500 * time.Millisecond,
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.ServerURL != "" {
		c.ServerURL = other.ServerURL
	}
	if other.StatePath != "" {
		c.StatePath = other.StatePath
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.LogFile != "" {
		c.LogFile = other.LogFile
	}
	if other.HTTPTimeout != 0 {
		c.HTTPTimeout = other.HTTPTimeout
	}
	if other.BotDelayMin != 0 {
		c.BotDelayMin = other.BotDelayMin
	}
	if other.BotDelayMax != 0 {
		c.BotDelayMax = other.BotDelayMax
	}
}
