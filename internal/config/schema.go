package config

import "log/slog"

// Config holds mdtoc configuration.
// Stored at: ~/.mdtoc/config.yaml or ./.mdtoc.yaml
type Config struct {
	LogLevel string       `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	TOC      TOCConfig    `mapstructure:"toc" yaml:"toc" json:"toc"`
	Format   FormatConfig `mapstructure:"format" yaml:"format" json:"format"`
	Server   ServerConfig `mapstructure:"server" yaml:"server" json:"server"`
}

// TOCConfig configures table of contents generation.
type TOCConfig struct {
	// PermalinkSymbol is the visible text inside injected heading anchors.
	PermalinkSymbol string `mapstructure:"permalink_symbol" yaml:"permalink_symbol" json:"permalink_symbol"`
}

// FormatConfig controls which files are formatted when walking directories.
type FormatConfig struct {
	Extensions []string `mapstructure:"extensions" yaml:"extensions" json:"extensions"` // e.g. ".md"
	Exclude    []string `mapstructure:"exclude" yaml:"exclude" json:"exclude"`          // directory names to skip
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host      string `mapstructure:"host" yaml:"host" json:"host"`
	Port      string `mapstructure:"port" yaml:"port" json:"port"`
	RateLimit int    `mapstructure:"rate_limit" yaml:"rate_limit" json:"rate_limit"` // Requests per minute per client
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Format: FormatConfig{
			Extensions: []string{".md", ".markdown"},
			Exclude:    []string{"node_modules", ".git"},
		},
		Server: ServerConfig{
			Host:      "127.0.0.1",
			Port:      "8080",
			RateLimit: 120,
		},
	}
}

// SlogLevel returns the configured log level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}
