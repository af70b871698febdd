package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	sodpostgres "castellan/contexts/governance/sod-service/adapters/postgres"
	sodcommands "castellan/contexts/governance/sod-service/application/commands"
)

var (
	scanTenantID string
	scanRuleID   string
	scanActorID  string
)

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().StringVar(&scanTenantID, "tenant", "", "Tenant to scan (required)")
	scanCmd.Flags().StringVar(&scanRuleID, "rule", "", "Restrict the sweep to one rule")
	scanCmd.Flags().StringVar(&scanActorID, "actor", "governctl", "Actor recorded on detected violations")
	_ = scanCmd.MarkFlagRequired("tenant")
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run a Segregation-of-Duties violation sweep for a tenant",
	Long:  "Walks every user in the tenant against active rules and persists a violation for each user holding both sides of a rule. Already-open violations are not duplicated.",
	Args:  cobra.NoArgs,
	RunE:  runScan,
}

func runScan(cmd *cobra.Command, _ []string) error {
	pg, logger, err := connect()
	if err != nil {
		return err
	}
	defer pg.Close()

	repo := sodpostgres.NewRepository(pg.DB, logger)
	scan := sodcommands.ScanUseCase{
		Rules:       repo,
		Violations:  repo,
		Directory:   repo,
		Outbox:      repo,
		Clock:       sodpostgres.SystemClock{},
		IDGenerator: sodpostgres.UUIDGenerator{},
		Logger:      logger,
	}

	result, err := scan.Execute(cmd.Context(), sodcommands.ScanCommand{
		TenantID: scanTenantID,
		RuleID:   scanRuleID,
		ActorID:  scanActorID,
	})
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	fmt.Printf("Scanned %d/%d users (%d skipped), %d violations found\n",
		result.UsersScanned, result.TotalUsers, result.UsersSkipped, result.ViolationsFound)
	for severity, count := range result.CountsBySeverity {
		fmt.Printf("  %s: %d\n", severity, count)
	}
	return nil
}
