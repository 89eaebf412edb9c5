package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/keyscope/internal/logger"
	"github.com/dbsmedya/keyscope/internal/scanner"
	"github.com/dbsmedya/keyscope/internal/store"
	"github.com/dbsmedya/keyscope/internal/topology"
)

var nodesCmd = &cobra.Command{
	Use:   "nodes",
	Short: "Resolve and list the nodes a scan would cover",
	Long: `Nodes resolves the target topology from the configured seeds and
prints every endpoint a scan would traverse, without scanning anything.

Useful to verify connectivity and cluster shard coverage before a run.

Example:
  keyscope nodes --seed 10.0.0.1:6379 --mode cluster`,
	RunE: runNodes,
}

func init() {
	rootCmd.AddCommand(nodesCmd)
}

func runNodes(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg.Apply(GetCLIOverrides())
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log, err := logger.New(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Sync()

	pool := store.NewPool(cfg.Target, log)
	defer pool.Close()

	ctx := scanner.SetupSignalHandler()
	endpoints, err := topology.Resolve(ctx, pool, cfg.Target, log)
	if err != nil {
		return fmt.Errorf("topology resolution failed: %w", err)
	}

	cmd.Printf("%-21s %-8s %s\n", "Address", "Role", "Shard")
	for _, ep := range endpoints {
		cmd.Printf("%-21s %-8s %s\n", ep.Addr, ep.Role, ep.ShardID)
	}
	cmd.Printf("\n%d node(s) resolved in %s mode\n", len(endpoints), cfg.Target.Mode)
	return nil
}
