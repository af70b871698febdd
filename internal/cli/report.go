package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	sodpostgres "castellan/contexts/governance/sod-service/adapters/postgres"
	sodqueries "castellan/contexts/governance/sod-service/application/queries"
)

var (
	reportTenantID  string
	reportFramework string
)

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().StringVar(&reportTenantID, "tenant", "", "Tenant to report on (required)")
	reportCmd.Flags().StringVar(&reportFramework, "framework", "", "Restrict to one compliance framework (e.g. SOX)")
	_ = reportCmd.MarkFlagRequired("tenant")
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print a tenant compliance report as JSON",
	Args:  cobra.NoArgs,
	RunE:  runReport,
}

func runReport(cmd *cobra.Command, _ []string) error {
	pg, logger, err := connect()
	if err != nil {
		return err
	}
	defer pg.Close()

	repo := sodpostgres.NewRepository(pg.DB, logger)
	report := sodqueries.ComplianceReportUseCase{
		Rules:      repo,
		Violations: repo,
		Logger:     logger,
	}

	result, err := report.Execute(cmd.Context(), sodqueries.ComplianceReportQuery{
		TenantID:  reportTenantID,
		Framework: reportFramework,
	})
	if err != nil {
		return fmt.Errorf("report failed: %w", err)
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}
