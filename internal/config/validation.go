package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}

// Validate checks the configuration for required fields and valid values.
func (c *Config) Validate() error {
	var errors ValidationErrors

	errors = append(errors, c.validateTarget()...)
	errors = append(errors, c.validateScan()...)
	errors = append(errors, c.validateLogging()...)
	errors = append(errors, c.validateReport()...)

	if len(errors) > 0 {
		return errors
	}
	return nil
}

func (c *Config) validateTarget() ValidationErrors {
	var errors ValidationErrors

	if len(c.Target.Seeds) == 0 {
		errors = append(errors, ValidationError{
			Field:   "target.seeds",
			Message: "at least one seed endpoint is required",
		})
	}
	for i, seed := range c.Target.Seeds {
		if !strings.Contains(seed, ":") {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("target.seeds[%d]", i),
				Message: "seed must be in host:port form",
			})
		}
	}

	if c.Target.Mode != ModeSingle && c.Target.Mode != ModeCluster {
		errors = append(errors, ValidationError{
			Field:   "target.mode",
			Message: "mode must be 'single' or 'cluster'",
		})
	}

	if c.Target.Mode == ModeCluster && c.Target.DB != 0 {
		errors = append(errors, ValidationError{
			Field:   "target.db",
			Message: "cluster mode only supports database 0",
		})
	}

	if c.Target.DB < 0 {
		errors = append(errors, ValidationError{
			Field:   "target.db",
			Message: "db must not be negative",
		})
	}

	if c.Target.PoolSize <= 0 {
		errors = append(errors, ValidationError{
			Field:   "target.pool_size",
			Message: "pool_size must be positive",
		})
	}

	if c.Target.OpTimeoutSeconds <= 0 {
		errors = append(errors, ValidationError{
			Field:   "target.op_timeout_seconds",
			Message: "op_timeout_seconds must be positive",
		})
	}

	return errors
}

func (c *Config) validateScan() ValidationErrors {
	var errors ValidationErrors

	if c.Scan.TopN <= 0 {
		errors = append(errors, ValidationError{
			Field:   "scan.top_n",
			Message: "top_n must be positive",
		})
	}

	if c.Scan.BatchSize <= 0 {
		errors = append(errors, ValidationError{
			Field:   "scan.batch_size",
			Message: "batch_size must be positive",
		})
	}

	if c.Scan.Concurrency <= 0 {
		errors = append(errors, ValidationError{
			Field:   "scan.concurrency",
			Message: "concurrency must be positive",
		})
	}

	if c.Scan.PacingMs < 0 {
		errors = append(errors, ValidationError{
			Field:   "scan.pacing_ms",
			Message: "pacing_ms must not be negative",
		})
	}

	if c.Scan.SampleSize <= 0 {
		errors = append(errors, ValidationError{
			Field:   "scan.sample_size",
			Message: "sample_size must be positive",
		})
	}

	if c.Scan.SamplingThreshold < c.Scan.SampleSize {
		errors = append(errors, ValidationError{
			Field:   "scan.sampling_threshold",
			Message: "sampling_threshold must be at least sample_size",
		})
	}

	if c.Scan.MaxRetries < 0 {
		errors = append(errors, ValidationError{
			Field:   "scan.max_retries",
			Message: "max_retries must not be negative",
		})
	}

	return errors
}

func (c *Config) validateLogging() ValidationErrors {
	var errors ValidationErrors

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true, "": true}
	if !validLevels[c.Logging.Level] {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Message: "level must be 'debug', 'info', 'warn', or 'error'",
		})
	}

	validFormats := map[string]bool{"json": true, "text": true, "": true}
	if !validFormats[c.Logging.Format] {
		errors = append(errors, ValidationError{
			Field:   "logging.format",
			Message: "format must be 'json' or 'text'",
		})
	}

	return errors
}

func (c *Config) validateReport() ValidationErrors {
	var errors ValidationErrors

	validFormats := map[string]bool{"text": true, "json": true, "": true}
	if !validFormats[c.Report.Format] {
		errors = append(errors, ValidationError{
			Field:   "report.format",
			Message: "format must be 'text' or 'json'",
		})
	}

	if c.Report.MaxKeyWidth < 8 {
		errors = append(errors, ValidationError{
			Field:   "report.max_key_width",
			Message: "max_key_width must be at least 8",
		})
	}

	return errors
}
