package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/keyscope/internal/config"
	"github.com/dbsmedya/keyscope/internal/logger"
	"github.com/dbsmedya/keyscope/internal/report"
	"github.com/dbsmedya/keyscope/internal/scanner"
	"github.com/dbsmedya/keyscope/internal/store"
)

var (
	scanFormat  string
	scanMatch   string
	scanNoColor bool
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan the keyspace and rank the largest keys",
	Long: `Scan walks every node of the target with a cursor, estimates each
key's memory footprint at bounded cost, and prints the global and
per-type largest keys together with per-node statistics.

A failing node never aborts the run: its pipeline is abandoned and the
report is flagged incomplete. Interrupting with Ctrl-C drains cleanly
and prints what was gathered so far.

Example:
  keyscope scan --config keyscope.yaml --top 20
  keyscope scan --seed 10.0.0.1:6379 --mode cluster --format json`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().StringVar(&scanFormat, "format", "",
		"Report format (text, json)")
	scanCmd.Flags().StringVar(&scanMatch, "match", "",
		"Only consider keys matching this glob pattern")
	scanCmd.Flags().BoolVar(&scanNoColor, "no-color", false,
		"Disable colored output")

	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	overrides := GetCLIOverrides()
	overrides.ReportFormat = scanFormat
	cfg.Apply(overrides)
	if scanMatch != "" {
		cfg.Scan.Match = scanMatch
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log, err := logger.New(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Sync()

	log.Infow("Starting keyspace scan",
		"seeds", cfg.Target.Seeds,
		"mode", cfg.Target.Mode,
		"config", GetConfigFile(),
	)

	pool := store.NewPool(cfg.Target, log)
	defer pool.Close()

	ctx := scanner.SetupSignalHandlerWithCallback(func(sig os.Signal) {
		log.Warnw("Received shutdown signal, draining pipelines", "signal", sig)
	})

	orch, err := scanner.NewOrchestrator(cfg, pool, log)
	if err != nil {
		return fmt.Errorf("failed to create orchestrator: %w", err)
	}

	rep, err := orch.Run(ctx)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	if cfg.Report.Format == config.ReportFormatJSON {
		return report.RenderJSON(cmd.OutOrStdout(), rep)
	}
	return report.RenderText(cmd.OutOrStdout(), rep, report.Options{
		MaxKeyWidth: cfg.Report.MaxKeyWidth,
		Color:       !scanNoColor,
	})
}
