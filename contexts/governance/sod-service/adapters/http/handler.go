package httpadapter

import (
	"context"
	"log/slog"

	"castellan/contexts/governance/sod-service/application/commands"
	"castellan/contexts/governance/sod-service/application/queries"
	"castellan/contexts/governance/sod-service/domain/entities"
	"castellan/contexts/governance/sod-service/ports"
	httptransport "castellan/contexts/governance/sod-service/transport/http"
)

// Handler maps HTTP DTOs to application commands/queries.
type Handler struct {
	CreateRule   commands.CreateRuleUseCase
	UpdateRule   commands.UpdateRuleUseCase
	ToggleRule   commands.ToggleRuleUseCase
	DeleteRule   commands.DeleteRuleUseCase
	Scan         commands.ScanUseCase
	Remediate    commands.RemediateViolationUseCase
	Accept       commands.AcceptViolationUseCase
	Check        queries.CheckViolationUseCase
	ListRules    queries.ListRulesUseCase
	GetRule      queries.GetRuleUseCase
	ListFindings queries.ListViolationsUseCase
	Report       queries.ComplianceReportUseCase
	Logger       *slog.Logger
}

func (h Handler) CreateRuleHandler(ctx context.Context, tenantID, actorID string, request httptransport.CreateRuleRequest) (httptransport.RuleResponse, error) {
	rule, err := h.CreateRule.Execute(ctx, commands.CreateRuleCommand{
		TenantID:            tenantID,
		Name:                request.Name,
		Severity:            entities.Severity(request.Severity),
		AppID1:              request.AppID1,
		AppID2:              request.AppID2,
		Rationale:           request.Rationale,
		ComplianceFramework: request.ComplianceFramework,
		ExemptUserIDs:       request.ExemptUserIDs,
		IsActive:            request.IsActive,
		ActorID:             actorID,
	})
	if err != nil {
		return httptransport.RuleResponse{}, err
	}
	return ruleResponse(rule), nil
}

func (h Handler) UpdateRuleHandler(ctx context.Context, tenantID, ruleID, actorID string, request httptransport.UpdateRuleRequest) (httptransport.RuleResponse, error) {
	cmd := commands.UpdateRuleCommand{
		TenantID:            tenantID,
		RuleID:              ruleID,
		Name:                request.Name,
		Rationale:           request.Rationale,
		ComplianceFramework: request.ComplianceFramework,
		ExemptUserIDs:       request.ExemptUserIDs,
		ActorID:             actorID,
	}
	if request.Severity != nil {
		severity := entities.Severity(*request.Severity)
		cmd.Severity = &severity
	}
	rule, err := h.UpdateRule.Execute(ctx, cmd)
	if err != nil {
		return httptransport.RuleResponse{}, err
	}
	return ruleResponse(rule), nil
}

func (h Handler) ToggleRuleHandler(ctx context.Context, tenantID, ruleID, actorID string, request httptransport.ToggleRuleRequest) (httptransport.RuleResponse, error) {
	rule, err := h.ToggleRule.Execute(ctx, commands.ToggleRuleCommand{
		TenantID: tenantID,
		RuleID:   ruleID,
		IsActive: request.IsActive,
		ActorID:  actorID,
	})
	if err != nil {
		return httptransport.RuleResponse{}, err
	}
	return ruleResponse(rule), nil
}

func (h Handler) DeleteRuleHandler(ctx context.Context, tenantID, ruleID, actorID string) error {
	return h.DeleteRule.Execute(ctx, commands.DeleteRuleCommand{
		TenantID: tenantID,
		RuleID:   ruleID,
		ActorID:  actorID,
	})
}

func (h Handler) ListRulesHandler(ctx context.Context, tenantID string, filter ports.RuleFilter) ([]httptransport.RuleResponse, error) {
	rules, err := h.ListRules.Execute(ctx, queries.ListRulesQuery{TenantID: tenantID, Filter: filter})
	if err != nil {
		return nil, err
	}
	items := make([]httptransport.RuleResponse, 0, len(rules))
	for _, rule := range rules {
		items = append(items, ruleResponse(rule))
	}
	return items, nil
}

func (h Handler) GetRuleHandler(ctx context.Context, tenantID, ruleID string) (httptransport.RuleResponse, error) {
	rule, err := h.GetRule.Execute(ctx, queries.GetRuleQuery{TenantID: tenantID, RuleID: ruleID})
	if err != nil {
		return httptransport.RuleResponse{}, err
	}
	return ruleResponse(rule), nil
}

func (h Handler) CheckViolationHandler(ctx context.Context, tenantID string, request httptransport.CheckViolationRequest) ([]httptransport.ConflictFindingResponse, error) {
	findings, err := h.Check.Execute(ctx, queries.CheckViolationQuery{
		TenantID:       tenantID,
		UserID:         request.UserID,
		CandidateAppID: request.AppID,
	})
	if err != nil {
		return nil, err
	}
	items := make([]httptransport.ConflictFindingResponse, 0, len(findings))
	for _, finding := range findings {
		items = append(items, httptransport.ConflictFindingResponse{
			RuleID:      finding.RuleID,
			RuleName:    finding.RuleName,
			Severity:    string(finding.Severity),
			HeldAppID:   finding.HeldAppID,
			HeldAppName: finding.HeldAppName,
			Rationale:   finding.Rationale,
		})
	}
	return items, nil
}

func (h Handler) ScanHandler(ctx context.Context, tenantID string, request httptransport.ScanRequest) (httptransport.ScanResponse, error) {
	result, err := h.Scan.Execute(ctx, commands.ScanCommand{
		TenantID: tenantID,
		RuleID:   request.RuleID,
		ActorID:  request.ActorID,
	})
	if err != nil {
		return httptransport.ScanResponse{}, err
	}
	counts := make(map[string]int, len(result.CountsBySeverity))
	for severity, count := range result.CountsBySeverity {
		counts[string(severity)] = count
	}
	return httptransport.ScanResponse{
		TotalUsers:       result.TotalUsers,
		UsersScanned:     result.UsersScanned,
		UsersSkipped:     result.UsersSkipped,
		ViolationsFound:  result.ViolationsFound,
		CountsBySeverity: counts,
	}, nil
}

func (h Handler) RemediateHandler(ctx context.Context, tenantID, violationID string, request httptransport.RemediateRequest) (httptransport.ViolationResponse, error) {
	violation, err := h.Remediate.Execute(ctx, commands.RemediateViolationCommand{
		TenantID:    tenantID,
		ViolationID: violationID,
		RevokeAppID: request.RevokeAppID,
		ActorID:     request.ActorID,
		Notes:       request.Notes,
	})
	if err != nil {
		return httptransport.ViolationResponse{}, err
	}
	return violationResponse(violation), nil
}

func (h Handler) AcceptHandler(ctx context.Context, tenantID, violationID string, request httptransport.AcceptRequest) (httptransport.ViolationResponse, error) {
	violation, err := h.Accept.Execute(ctx, commands.AcceptViolationCommand{
		TenantID:      tenantID,
		ViolationID:   violationID,
		ActorID:       request.ActorID,
		Justification: request.Justification,
	})
	if err != nil {
		return httptransport.ViolationResponse{}, err
	}
	return violationResponse(violation), nil
}

func (h Handler) ListViolationsHandler(ctx context.Context, tenantID string, filter ports.ViolationFilter) ([]httptransport.ViolationResponse, error) {
	violations, err := h.ListFindings.Execute(ctx, queries.ListViolationsQuery{TenantID: tenantID, Filter: filter})
	if err != nil {
		return nil, err
	}
	items := make([]httptransport.ViolationResponse, 0, len(violations))
	for _, violation := range violations {
		items = append(items, violationResponse(violation))
	}
	return items, nil
}

func (h Handler) ComplianceReportHandler(ctx context.Context, tenantID, framework string) (httptransport.ComplianceReportResponse, error) {
	report, err := h.Report.Execute(ctx, queries.ComplianceReportQuery{TenantID: tenantID, Framework: framework})
	if err != nil {
		return httptransport.ComplianceReportResponse{}, err
	}
	counts := make(map[string]int, len(report.ViolationsBySeverity))
	for severity, count := range report.ViolationsBySeverity {
		counts[string(severity)] = count
	}
	return httptransport.ComplianceReportResponse{
		Framework:            report.Framework,
		TotalRules:           report.TotalRules,
		ActiveRules:          report.ActiveRules,
		TotalViolations:      report.TotalViolations,
		OpenViolations:       report.OpenViolations,
		ViolationsBySeverity: counts,
		RemediatedViolations: report.RemediatedViolations,
		AcceptedViolations:   report.AcceptedViolations,
		ComplianceStatus:     report.ComplianceStatus,
	}, nil
}

func ruleResponse(rule entities.Rule) httptransport.RuleResponse {
	return httptransport.RuleResponse{
		RuleID:              rule.RuleID,
		Name:                rule.Name,
		Severity:            string(rule.Severity),
		AppID1:              rule.AppID1,
		AppID2:              rule.AppID2,
		Rationale:           rule.Rationale,
		ComplianceFramework: rule.ComplianceFramework,
		ExemptUserIDs:       rule.ExemptUserIDs,
		IsActive:            rule.IsActive,
	}
}

func violationResponse(violation entities.Violation) httptransport.ViolationResponse {
	return httptransport.ViolationResponse{
		ViolationID:     violation.ViolationID,
		UserID:          violation.UserID,
		RuleID:          violation.RuleID,
		RuleName:        violation.RuleName,
		AppName1:        violation.AppName1,
		AppName2:        violation.AppName2,
		Severity:        string(violation.Severity),
		Status:          string(violation.Status),
		DetectedAt:      violation.DetectedAt,
		ResolvedAt:      violation.ResolvedAt,
		ResolvedBy:      violation.ResolvedBy,
		ResolutionNotes: violation.ResolutionNotes,
	}
}
