package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/spf13/viper"
)

// Load reads configuration from the specified file path.
// It supports YAML files and performs environment variable substitution.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	// Read the config file
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Start with defaults
	cfg := DefaultConfig()

	// Unmarshal into config struct
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	substituteEnvVars(cfg)

	return cfg, nil
}

// LoadFromViper creates a Config from an existing Viper instance.
// Useful for testing or when Viper is configured externally.
func LoadFromViper(v *viper.Viper) (*Config, error) {
	cfg := DefaultConfig()

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	substituteEnvVars(cfg)

	return cfg, nil
}

// envVarPattern matches ${VAR_NAME} or $VAR_NAME patterns
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

// substituteEnvVars replaces ${VAR_NAME} patterns with environment variable values.
func substituteEnvVars(cfg *Config) {
	for i, seed := range cfg.Target.Seeds {
		cfg.Target.Seeds[i] = expandEnvVar(seed)
	}
	cfg.Target.Password = expandEnvVar(cfg.Target.Password)
	cfg.Logging.Output = expandEnvVar(cfg.Logging.Output)
}

// expandEnvVar expands environment variables in the format ${VAR} or $VAR.
func expandEnvVar(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		var varName string
		if strings.HasPrefix(match, "${") {
			varName = match[2 : len(match)-1]
		} else {
			varName = match[1:]
		}

		if value, exists := os.LookupEnv(varName); exists {
			return value
		}
		// Return original if env var not found
		return match
	})
}

// Overrides contains CLI flag values that take precedence over the config file.
// Zero values mean "not set" and leave the file value untouched.
type Overrides struct {
	LogLevel          string
	LogFormat         string
	TopN              int
	BatchSize         int
	Concurrency       int
	PacingMs          int
	SamplingThreshold int64
	Seeds             []string
	Mode              string
	ReportFormat      string
}

// Apply applies CLI flag overrides to the configuration.
// Only non-zero/non-empty values are applied.
func (c *Config) Apply(o Overrides) {
	if o.LogLevel != "" {
		c.Logging.Level = o.LogLevel
	}
	if o.LogFormat != "" {
		c.Logging.Format = o.LogFormat
	}
	if o.TopN > 0 {
		c.Scan.TopN = o.TopN
	}
	if o.BatchSize > 0 {
		c.Scan.BatchSize = o.BatchSize
	}
	if o.Concurrency > 0 {
		c.Scan.Concurrency = o.Concurrency
	}
	if o.PacingMs > 0 {
		c.Scan.PacingMs = o.PacingMs
	}
	if o.SamplingThreshold > 0 {
		c.Scan.SamplingThreshold = o.SamplingThreshold
	}
	if len(o.Seeds) > 0 {
		c.Target.Seeds = o.Seeds
	}
	if o.Mode != "" {
		c.Target.Mode = o.Mode
	}
	if o.ReportFormat != "" {
		c.Report.Format = o.ReportFormat
	}
}
