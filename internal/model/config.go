package model

import (
	"os"
	"path/filepath"
	"time"
)

// Config holds all runtime settings for entagg
type Config struct {
	Input    InputConfig    `yaml:"input" mapstructure:"input"`
	HTTP     HTTPConfig     `yaml:"http" mapstructure:"http"`
	Cache    CacheConfig    `yaml:"cache" mapstructure:"cache"`
	Coercion CoercionConfig `yaml:"coercion" mapstructure:"coercion"`
	Output   OutputConfig   `yaml:"output" mapstructure:"output"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// InputConfig describes where records come from
type InputConfig struct {
	Path        string `yaml:"path" mapstructure:"path"`                 // File path or http(s) URL
	Stream      bool   `yaml:"stream" mapstructure:"stream"`             // Decode records incrementally instead of loading the whole document
	RecordsPath string `yaml:"records_path" mapstructure:"records_path"` // Dot-separated keys to the record array (empty = root)
}

// HTTPConfig configures fetching of remote input documents
type HTTPConfig struct {
	Timeout       time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent     string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes  int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	RateLimit     float64       `yaml:"rate_limit" mapstructure:"rate_limit"` // Requests per second per host (0 = unlimited)
	RateBurst     int           `yaml:"rate_burst" mapstructure:"rate_burst"`
	HTTPProxy     string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy    string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy       string        `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
	RespectRobots bool          `yaml:"respect_robots" mapstructure:"respect_robots"`
}

// CacheConfig configures caching of fetched documents
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// CoercionConfig tunes value coercion
type CoercionConfig struct {
	PermissiveBooleans bool `yaml:"permissive_booleans" mapstructure:"permissive_booleans"` // Any non-empty string coerces to true
}

// OutputConfig configures result presentation
type OutputConfig struct {
	Format  string `yaml:"format" mapstructure:"format"` // text, json, yaml, markdown
	Top     int    `yaml:"top" mapstructure:"top"`       // Max entries per slug (0 = all)
	Verbose bool   `yaml:"verbose" mapstructure:"verbose"`
}

// LogConfig configures diagnostic logging
type LogConfig struct {
	Level string `yaml:"level" mapstructure:"level"`
	File  string `yaml:"file,omitempty" mapstructure:"file"` // Rotated log file (empty = stderr)
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	cacheDir := filepath.Join(os.TempDir(), "entagg-cache")
	if home, err := os.UserHomeDir(); err == nil {
		cacheDir = filepath.Join(home, ".entagg", "cache")
	}

	return &Config{
		Input: InputConfig{
			Path: "entities.json",
		},
		HTTP: HTTPConfig{
			Timeout:       30 * time.Second,
			UserAgent:     "entagg/0.1 (+https://github.com/ppiankov/entagg)",
			MaxBodyBytes:  64 << 20,
			RateLimit:     2,
			RateBurst:     5,
			RespectRobots: true,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       cacheDir,
			MemoryTTL: 10 * time.Minute,
			DiskTTL:   24 * time.Hour,
		},
		Output: OutputConfig{
			Format: "text",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}
