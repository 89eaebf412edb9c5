// Package config provides configuration structures and loading for Keyscope.
package config

// Config represents the complete application configuration.
type Config struct {
	Target  TargetConfig  `yaml:"target" mapstructure:"target"`
	Scan    ScanConfig    `yaml:"scan" mapstructure:"scan"`
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`
	Report  ReportConfig  `yaml:"report" mapstructure:"report"`
}

// TargetConfig describes the store to scan and how to connect to it.
type TargetConfig struct {
	Seeds            []string `yaml:"seeds" mapstructure:"seeds"`
	Mode             string   `yaml:"mode" mapstructure:"mode"` // single or cluster
	IncludeReplicas  bool     `yaml:"include_replicas" mapstructure:"include_replicas"`
	Password         string   `yaml:"password" mapstructure:"password"`
	DB               int      `yaml:"db" mapstructure:"db"`
	PoolSize         int      `yaml:"pool_size" mapstructure:"pool_size"`
	OpTimeoutSeconds int      `yaml:"op_timeout_seconds" mapstructure:"op_timeout_seconds"`
}

// ScanConfig holds the knobs that bound the load a scan puts on the target.
type ScanConfig struct {
	TopN              int    `yaml:"top_n" mapstructure:"top_n"`
	BatchSize         int    `yaml:"batch_size" mapstructure:"batch_size"`
	Concurrency       int    `yaml:"concurrency" mapstructure:"concurrency"`
	PacingMs          int    `yaml:"pacing_ms" mapstructure:"pacing_ms"`
	SamplingThreshold int64  `yaml:"sampling_threshold" mapstructure:"sampling_threshold"`
	SampleSize        int64  `yaml:"sample_size" mapstructure:"sample_size"`
	MaxRetries        int    `yaml:"max_retries" mapstructure:"max_retries"`
	Match             string `yaml:"match" mapstructure:"match"`
	PrefixDelimiter   string `yaml:"prefix_delimiter" mapstructure:"prefix_delimiter"`
}

// LoggingConfig represents logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // json or text
	Output string `yaml:"output" mapstructure:"output"` // stdout, stderr, or file path
}

// ReportConfig represents report rendering settings.
type ReportConfig struct {
	Format      string `yaml:"format" mapstructure:"format"` // text or json
	MaxKeyWidth int    `yaml:"max_key_width" mapstructure:"max_key_width"`
}

// Scan modes.
const (
	ModeSingle  = "single"
	ModeCluster = "cluster"
)

// Report formats.
const (
	ReportFormatText = "text"
	ReportFormatJSON = "json"
)

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		Target: TargetConfig{
			Seeds:            []string{"127.0.0.1:6379"},
			Mode:             ModeSingle,
			IncludeReplicas:  false,
			DB:               0,
			PoolSize:         4,
			OpTimeoutSeconds: 5,
		},
		Scan: ScanConfig{
			TopN:              10,
			BatchSize:         1000,
			Concurrency:       8,
			PacingMs:          0,
			SamplingThreshold: 2048,
			SampleSize:        64,
			MaxRetries:        3,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stdout",
		},
		Report: ReportConfig{
			Format:      "text",
			MaxKeyWidth: 80,
		},
	}
}
