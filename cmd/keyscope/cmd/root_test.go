package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dbsmedya/keyscope/internal/config"
)

func TestRootCommandStructure(t *testing.T) {
	assert.Equal(t, "keyscope", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
	assert.Equal(t, Version, rootCmd.Version)
}

func TestRootPersistentFlags(t *testing.T) {
	flags := rootCmd.PersistentFlags()

	configFlag := flags.Lookup("config")
	assert.NotNil(t, configFlag)
	assert.Equal(t, "c", configFlag.Shorthand)
	assert.Equal(t, "keyscope.yaml", configFlag.DefValue)

	for _, name := range []string{
		"log-level", "log-format", "seed", "mode",
		"top", "batch-size", "concurrency", "pacing", "sampling-threshold",
	} {
		assert.NotNil(t, flags.Lookup(name), "missing persistent flag %q", name)
	}
}

func TestGetConfigFile(t *testing.T) {
	// Save original value and restore after test
	originalCfgFile := cfgFile
	defer func() {
		cfgFile = originalCfgFile
	}()

	tests := []struct {
		name     string
		cfgValue string
		want     string
	}{
		{
			name:     "default config file",
			cfgValue: "keyscope.yaml",
			want:     "keyscope.yaml",
		},
		{
			name:     "custom config file",
			cfgValue: "/path/to/custom.yaml",
			want:     "/path/to/custom.yaml",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfgFile = tt.cfgValue
			assert.Equal(t, tt.want, GetConfigFile())
		})
	}
}

func TestGetCLIOverrides(t *testing.T) {
	// Save original values and restore after test
	originalLogLevel := logLevel
	originalLogFormat := logFormat
	originalTopN := topN
	originalBatchSize := batchSize
	originalConcurrency := concurrency
	originalPacingMs := pacingMs
	originalSamplingThreshold := samplingThreshold
	originalSeeds := seeds
	originalMode := mode
	defer func() {
		logLevel = originalLogLevel
		logFormat = originalLogFormat
		topN = originalTopN
		batchSize = originalBatchSize
		concurrency = originalConcurrency
		pacingMs = originalPacingMs
		samplingThreshold = originalSamplingThreshold
		seeds = originalSeeds
		mode = originalMode
	}()

	tests := []struct {
		name              string
		logLevel          string
		logFormat         string
		topN              int
		batchSize         int
		concurrency       int
		pacingMs          int
		samplingThreshold int64
		seeds             []string
		mode              string
		want              config.Overrides
	}{
		{
			name: "empty overrides",
			want: config.Overrides{},
		},
		{
			name:              "all overrides set",
			logLevel:          "debug",
			logFormat:         "text",
			topN:              25,
			batchSize:         500,
			concurrency:       16,
			pacingMs:          50,
			samplingThreshold: 4096,
			seeds:             []string{"10.0.0.1:6379", "10.0.0.2:6379"},
			mode:              "cluster",
			want: config.Overrides{
				LogLevel:          "debug",
				LogFormat:         "text",
				TopN:              25,
				BatchSize:         500,
				Concurrency:       16,
				PacingMs:          50,
				SamplingThreshold: 4096,
				Seeds:             []string{"10.0.0.1:6379", "10.0.0.2:6379"},
				Mode:              "cluster",
			},
		},
		{
			name:     "partial overrides",
			logLevel: "warn",
			topN:     5,
			want: config.Overrides{
				LogLevel: "warn",
				TopN:     5,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logLevel = tt.logLevel
			logFormat = tt.logFormat
			topN = tt.topN
			batchSize = tt.batchSize
			concurrency = tt.concurrency
			pacingMs = tt.pacingMs
			samplingThreshold = tt.samplingThreshold
			seeds = tt.seeds
			mode = tt.mode
			assert.Equal(t, tt.want, GetCLIOverrides())
		})
	}
}
