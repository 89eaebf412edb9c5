package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/keyscope/internal/config"
)

// Version information (set via ldflags at build time)
var (
	Version = "0.0.1-dev"
	Commit  = "unknown"
)

// CLI flags that override config file values
var (
	cfgFile           string
	logLevel          string
	logFormat         string
	topN              int
	batchSize         int
	concurrency       int
	pacingMs          int
	samplingThreshold int64
	seeds             []string
	mode              string
)

var rootCmd = &cobra.Command{
	Use:   "keyscope",
	Short: "Redis Keyspace Inspector",
	Long: `A CLI tool that finds the largest keys in a Redis keyspace without
materially loading the target.

Features:
  - Cursor-based traversal, never KEYS
  - Tiered size estimation: exact for scalars and small collections,
    bounded sampling for large ones
  - Single-node and cluster targets, one pipeline per node
  - Global, per-type and per-prefix Top-N rankings
  - Pacing and a global concurrency ceiling to protect production`,
	Version: Version,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	// Config file flag
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "keyscope.yaml",
		"Path to configuration file")

	// Logging overrides
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Override log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "",
		"Override log format (json, text)")

	// Target overrides
	rootCmd.PersistentFlags().StringSliceVar(&seeds, "seed", nil,
		"Override seed node address host:port (repeatable)")
	rootCmd.PersistentFlags().StringVar(&mode, "mode", "",
		"Override target mode (single, cluster)")

	// Scan overrides
	rootCmd.PersistentFlags().IntVar(&topN, "top", 0,
		"Override number of top keys to report per ranking")
	rootCmd.PersistentFlags().IntVar(&batchSize, "batch-size", 0,
		"Override keys requested per cursor step")
	rootCmd.PersistentFlags().IntVar(&concurrency, "concurrency", 0,
		"Override in-flight estimation call ceiling")
	rootCmd.PersistentFlags().IntVar(&pacingMs, "pacing", 0,
		"Override pause between cursor steps in milliseconds")
	rootCmd.PersistentFlags().Int64Var(&samplingThreshold, "sampling-threshold", 0,
		"Override cardinality above which collections are sampled")
}

// GetConfigFile returns the config file path
func GetConfigFile() string {
	return cfgFile
}

// GetCLIOverrides returns the CLI flag override values
func GetCLIOverrides() config.Overrides {
	return config.Overrides{
		LogLevel:          logLevel,
		LogFormat:         logFormat,
		TopN:              topN,
		BatchSize:         batchSize,
		Concurrency:       concurrency,
		PacingMs:          pacingMs,
		SamplingThreshold: samplingThreshold,
		Seeds:             seeds,
		Mode:              mode,
	}
}

// loadConfig reads the config file, falling back to defaults when the
// default file name does not exist so the tool works from flags alone.
func loadConfig() (*config.Config, error) {
	path := GetConfigFile()
	if _, err := os.Stat(path); os.IsNotExist(err) && !rootCmd.PersistentFlags().Changed("config") {
		return config.DefaultConfig(), nil
	}
	return config.Load(path)
}
