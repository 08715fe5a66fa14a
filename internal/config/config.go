// Package config defines qrscan's configuration surface and loads it from
// files, environment variables, and defaults via viper.
package config

import "fmt"

// Config is the complete configuration for qrscan's CLI and server commands.
type Config struct {
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose  bool   `mapstructure:"verbose"   yaml:"verbose"   json:"verbose"`

	Prepare PrepareConfig `mapstructure:"prepare" yaml:"prepare" json:"prepare"`
	Detect  DetectConfig  `mapstructure:"detect"  yaml:"detect"  json:"detect"`
	Decode  DecodeConfig  `mapstructure:"decode"  yaml:"decode"  json:"decode"`
	Server  ServerConfig  `mapstructure:"server"  yaml:"server"  json:"server"`

	// DebugOutputDir is loaded with the rest of the configuration, but no
	// scan or server code path reads it: no stage images are written.
	DebugOutputDir string `mapstructure:"debug_output_dir" yaml:"debug_output_dir" json:"debug_output_dir"`
}

// PrepareConfig configures the Prepare stage's adaptive binarization.
type PrepareConfig struct {
	// BlockSize is the side length of the square pixel block each local
	// threshold is computed over. Smaller means more adaptive, slower.
	BlockSize int `mapstructure:"block_size"   yaml:"block_size"   json:"block_size"`
	// BlockWindow is the side length, in blocks, of the neighborhood averaged
	// to smooth the per-block threshold. Must be odd.
	BlockWindow int `mapstructure:"block_window" yaml:"block_window" json:"block_window"`
}

// DetectConfig configures the Detect stage's finder-pattern search.
type DetectConfig struct {
	RatioTolerance float64 `mapstructure:"ratio_tolerance" yaml:"ratio_tolerance" json:"ratio_tolerance"`
	TryHarder      bool    `mapstructure:"try_harder"      yaml:"try_harder"      json:"try_harder"`
}

// DecodeConfig configures the Decode stage.
type DecodeConfig struct {
	StrictMode   bool   `mapstructure:"strict_mode"   yaml:"strict_mode"   json:"strict_mode"`
	CharacterSet string `mapstructure:"character_set" yaml:"character_set" json:"character_set"`
}

// ServerConfig configures the internal/server HTTP surface.
type ServerConfig struct {
	Host        string `mapstructure:"host"          yaml:"host"          json:"host"`
	Port        int    `mapstructure:"port"          yaml:"port"          json:"port"`
	MaxUploadMB int    `mapstructure:"max_upload_mb" yaml:"max_upload_mb" json:"max_upload_mb"`
	TimeoutSec  int    `mapstructure:"timeout_sec"   yaml:"timeout_sec"   json:"timeout_sec"`
}

// DefaultConfig returns the configuration used when no file, flag, or
// environment variable overrides a setting.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Prepare: PrepareConfig{
			BlockSize:   8,
			BlockWindow: 5,
		},
		Detect: DetectConfig{
			RatioTolerance: 0.5,
			TryHarder:      false,
		},
		Decode: DecodeConfig{
			StrictMode:   false,
			CharacterSet: "",
		},
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8080,
			MaxUploadMB: 10,
			TimeoutSec:  30,
		},
	}
}

// Validate checks the configuration for values the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.Prepare.BlockSize <= 0 {
		return fmt.Errorf("prepare.block_size must be positive, got %d", c.Prepare.BlockSize)
	}
	if c.Prepare.BlockWindow <= 0 {
		return fmt.Errorf("prepare.block_window must be positive, got %d", c.Prepare.BlockWindow)
	}
	if c.Prepare.BlockWindow%2 == 0 {
		return fmt.Errorf("prepare.block_window must be odd, got %d", c.Prepare.BlockWindow)
	}
	if c.Detect.RatioTolerance <= 0 || c.Detect.RatioTolerance >= 1 {
		return fmt.Errorf("detect.ratio_tolerance must be in (0,1), got %f", c.Detect.RatioTolerance)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("server.max_upload_mb must be positive, got %d", c.Server.MaxUploadMB)
	}
	return nil
}
