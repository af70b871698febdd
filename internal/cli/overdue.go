package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	arpostgres "castellan/contexts/governance/access-request-service/adapters/postgres"
	arworkers "castellan/contexts/governance/access-request-service/application/workers"
	"castellan/internal/platform/config"
	"castellan/internal/platform/messaging"
)

var overdueBatchSize int

func init() {
	rootCmd.AddCommand(overdueCmd)
	overdueCmd.Flags().IntVar(&overdueBatchSize, "batch", 100, "Max requests to sweep in one pass")
}

var overdueCmd = &cobra.Command{
	Use:   "overdue-sweep",
	Short: "Mark pending access requests past their SLA as overdue",
	Long:  "One pass of the SLA sweep across all tenants: pending requests past due are flagged overdue and an escalation event is published. Requests already flagged are skipped.",
	Args:  cobra.NoArgs,
	RunE:  runOverdueSweep,
}

func runOverdueSweep(cmd *cobra.Command, _ []string) error {
	pg, logger, err := connect()
	if err != nil {
		return err
	}
	defer pg.Close()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	kafka, err := messaging.NewKafka(cfg.KafkaBrokers, logger)
	if err != nil {
		return err
	}

	checker := arworkers.OverdueChecker{
		Requests:    arpostgres.NewRepository(pg.DB, logger),
		Publisher:   kafka,
		IDGenerator: arpostgres.UUIDGenerator{},
		Clock:       arpostgres.SystemClock{},
		BatchSize:   overdueBatchSize,
		Logger:      logger,
	}
	if err := checker.RunOnce(cmd.Context()); err != nil {
		return fmt.Errorf("overdue sweep failed: %w", err)
	}
	fmt.Println("Overdue sweep complete")
	return nil
}
