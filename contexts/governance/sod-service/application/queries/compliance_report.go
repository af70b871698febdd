package queries

import (
	"context"
	"log/slog"
	"strings"

	"castellan/contexts/governance/sod-service/domain/entities"
	domainerrors "castellan/contexts/governance/sod-service/domain/errors"
	"castellan/contexts/governance/sod-service/ports"
)

const (
	complianceStatusCompliant    = "Compliant"
	complianceStatusNonCompliant = "Non-Compliant"
)

type ComplianceReportQuery struct {
	TenantID  string
	Framework string // empty means all frameworks
}

// ComplianceReportUseCase is a pure aggregation over rules and violations.
// A tenant is "Compliant" iff zero open critical AND zero open high
// violations remain; open medium/low findings do not affect the status.
type ComplianceReportUseCase struct {
	Rules      ports.RuleRepository
	Violations ports.ViolationRepository
	Logger     *slog.Logger
}

func (u ComplianceReportUseCase) Execute(ctx context.Context, query ComplianceReportQuery) (entities.ComplianceReport, error) {
	query.TenantID = strings.TrimSpace(query.TenantID)
	query.Framework = strings.TrimSpace(query.Framework)
	if query.TenantID == "" {
		return entities.ComplianceReport{}, domainerrors.ErrTenantRequired
	}

	rules, err := u.Rules.ListRules(ctx, query.TenantID, ports.RuleFilter{Framework: query.Framework})
	if err != nil {
		return entities.ComplianceReport{}, err
	}
	violations, err := u.Violations.ListViolations(ctx, query.TenantID, ports.ViolationFilter{})
	if err != nil {
		return entities.ComplianceReport{}, err
	}

	inScope := make(map[string]bool, len(rules))
	report := entities.ComplianceReport{
		Framework:            query.Framework,
		TotalRules:           len(rules),
		ViolationsBySeverity: make(map[entities.Severity]int),
	}
	for _, rule := range rules {
		inScope[rule.RuleID] = true
		if rule.IsActive {
			report.ActiveRules++
		}
	}

	openBlocking := 0
	for _, violation := range violations {
		if query.Framework != "" && !inScope[violation.RuleID] {
			continue
		}
		report.TotalViolations++
		report.ViolationsBySeverity[violation.Severity]++
		switch violation.Status {
		case entities.ViolationStatusOpen, entities.ViolationStatusInvestigating:
			report.OpenViolations++
			if violation.Severity == entities.SeverityCritical || violation.Severity == entities.SeverityHigh {
				openBlocking++
			}
		case entities.ViolationStatusRemediated:
			report.RemediatedViolations++
		case entities.ViolationStatusAccepted:
			report.AcceptedViolations++
		}
	}

	report.ComplianceStatus = complianceStatusCompliant
	if openBlocking > 0 {
		report.ComplianceStatus = complianceStatusNonCompliant
	}
	return report, nil
}
