package sodservice

import (
	"context"
	"errors"
	"testing"
	"time"

	"castellan/contexts/governance/sod-service/application/commands"
	domainerrors "castellan/contexts/governance/sod-service/domain/errors"
	"castellan/contexts/governance/sod-service/domain/services"
	"castellan/contexts/governance/sod-service/ports"
	httptransport "castellan/contexts/governance/sod-service/transport/http"
)

const testTenant = "tenant-1"

func seedConflictedUser(module Module, userID string) {
	module.Store.SeedUser(testTenant, userID,
		services.HeldApp{AppID: "app-payables", AppName: "Payables", AccessType: "editor"},
		services.HeldApp{AppID: "app-receivables", AppName: "Receivables", AccessType: "editor"},
	)
}

func createRule(t *testing.T, module Module, severity string, exempt ...string) httptransport.RuleResponse {
	t.Helper()
	rule, err := module.Handler.CreateRuleHandler(context.Background(), testTenant, "admin-1", httptransport.CreateRuleRequest{
		Name:          "AP vs AR",
		Severity:      severity,
		AppID1:        "app-payables",
		AppID2:        "app-receivables",
		Rationale:     "payment creation and approval must be split",
		ExemptUserIDs: exempt,
		IsActive:      true,
	})
	if err != nil {
		t.Fatalf("create rule failed: %v", err)
	}
	return rule
}

func TestCreateRuleSweepsExistingUsers(t *testing.T) {
	module := NewInMemoryModule(nil)
	module.Store.SetNow(time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC))
	seedConflictedUser(module, "user-1")

	rule := createRule(t, module, "high")

	violations, err := module.Handler.ListViolationsHandler(context.Background(), testTenant, ports.ViolationFilter{})
	if err != nil {
		t.Fatalf("list violations failed: %v", err)
	}
	if len(violations) != 1 {
		t.Fatalf("expected one violation after create sweep, got %d", len(violations))
	}
	got := violations[0]
	if got.RuleID != rule.RuleID || got.UserID != "user-1" || got.Status != "open" {
		t.Fatalf("unexpected violation %+v", got)
	}
	if got.AppName1 != "Payables" || got.AppName2 != "Receivables" {
		t.Fatalf("expected app name snapshots, got %q / %q", got.AppName1, got.AppName2)
	}
}

func TestScanDoesNotDuplicateOpenViolations(t *testing.T) {
	module := NewInMemoryModule(nil)
	seedConflictedUser(module, "user-1")
	createRule(t, module, "high")

	result, err := module.Handler.ScanHandler(context.Background(), testTenant, httptransport.ScanRequest{ActorID: "admin-1"})
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	if result.UsersScanned != 1 {
		t.Fatalf("expected one user scanned, got %d", result.UsersScanned)
	}
	if result.ViolationsFound != 0 {
		t.Fatalf("open violation already covers the pair, expected 0 new, got %d", result.ViolationsFound)
	}

	violations, err := module.Handler.ListViolationsHandler(context.Background(), testTenant, ports.ViolationFilter{UserID: "user-1"})
	if err != nil {
		t.Fatalf("list violations failed: %v", err)
	}
	if len(violations) != 1 {
		t.Fatalf("expected one open violation total, got %d", len(violations))
	}
}

func TestScanExemptUserProducesNoViolation(t *testing.T) {
	module := NewInMemoryModule(nil)
	seedConflictedUser(module, "user-cfo")
	createRule(t, module, "high", "user-cfo")

	violations, err := module.Handler.ListViolationsHandler(context.Background(), testTenant, ports.ViolationFilter{})
	if err != nil {
		t.Fatalf("list violations failed: %v", err)
	}
	if len(violations) != 0 {
		t.Fatalf("expected no violations for exempt user, got %d", len(violations))
	}
}

func TestCriticalViolationLandsInOutbox(t *testing.T) {
	module := NewInMemoryModule(nil)
	seedConflictedUser(module, "user-1")
	createRule(t, module, "critical")

	pending, err := module.Store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("list outbox failed: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected one pending outbox row, got %d", len(pending))
	}
	if pending[0].EventType != commands.TopicCriticalViolation {
		t.Fatalf("expected %q event, got %q", commands.TopicCriticalViolation, pending[0].EventType)
	}
	if pending[0].PartitionKey != testTenant {
		t.Fatalf("expected tenant partition key, got %q", pending[0].PartitionKey)
	}
}

func TestHighSeverityViolationSkipsOutbox(t *testing.T) {
	module := NewInMemoryModule(nil)
	seedConflictedUser(module, "user-1")
	createRule(t, module, "high")

	pending, err := module.Store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("list outbox failed: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("only critical violations are announced, got %d rows", len(pending))
	}
}

func TestCheckViolationSymmetry(t *testing.T) {
	module := NewInMemoryModule(nil)
	createRule(t, module, "high")
	module.Store.SeedUser(testTenant, "user-1",
		services.HeldApp{AppID: "app-payables", AppName: "Payables", AccessType: "editor"},
	)

	findings, err := module.Handler.CheckViolationHandler(context.Background(), testTenant, httptransport.CheckViolationRequest{
		UserID: "user-1",
		AppID:  "app-receivables",
	})
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if len(findings) != 1 {
		t.Fatalf("expected one conflict, got %d", len(findings))
	}
	if findings[0].HeldAppID != "app-payables" {
		t.Fatalf("expected held side app-payables, got %q", findings[0].HeldAppID)
	}

	module.Store.SeedUser(testTenant, "user-2",
		services.HeldApp{AppID: "app-receivables", AppName: "Receivables", AccessType: "viewer"},
	)
	reverse, err := module.Handler.CheckViolationHandler(context.Background(), testTenant, httptransport.CheckViolationRequest{
		UserID: "user-2",
		AppID:  "app-payables",
	})
	if err != nil {
		t.Fatalf("reverse check failed: %v", err)
	}
	if len(reverse) != 1 {
		t.Fatalf("conflict detection must be order independent, got %d findings", len(reverse))
	}
}

func TestRemediateRevokesAndCloses(t *testing.T) {
	module := NewInMemoryModule(nil)
	module.Store.SetNow(time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC))
	seedConflictedUser(module, "user-1")
	createRule(t, module, "high")

	violations, _ := module.Handler.ListViolationsHandler(context.Background(), testTenant, ports.ViolationFilter{})
	violationID := violations[0].ViolationID

	resolved, err := module.Handler.RemediateHandler(context.Background(), testTenant, violationID, httptransport.RemediateRequest{
		RevokeAppID: "app-receivables",
		ActorID:     "admin-1",
		Notes:       "kept payables only",
	})
	if err != nil {
		t.Fatalf("remediate failed: %v", err)
	}
	if resolved.Status != "remediated" || resolved.ResolvedAt == nil || resolved.ResolvedBy != "admin-1" {
		t.Fatalf("unexpected resolved violation %+v", resolved)
	}

	calls := module.Store.RevokeCalls()
	if len(calls) != 1 || calls[0].AppID != "app-receivables" || calls[0].UserID != "user-1" {
		t.Fatalf("expected one revoke of app-receivables, got %+v", calls)
	}

	// Closed violations cannot be remediated again.
	_, err = module.Handler.RemediateHandler(context.Background(), testTenant, violationID, httptransport.RemediateRequest{
		RevokeAppID: "app-payables",
		ActorID:     "admin-1",
	})
	if !errors.Is(err, domainerrors.ErrViolationNotOpen) {
		t.Fatalf("expected ErrViolationNotOpen, got %v", err)
	}
}

func TestAcceptClosesWithoutRevoking(t *testing.T) {
	module := NewInMemoryModule(nil)
	module.Store.SetNow(time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC))
	seedConflictedUser(module, "user-1")
	createRule(t, module, "high")

	violations, _ := module.Handler.ListViolationsHandler(context.Background(), testTenant, ports.ViolationFilter{})
	violationID := violations[0].ViolationID

	accepted, err := module.Handler.AcceptHandler(context.Background(), testTenant, violationID, httptransport.AcceptRequest{
		ActorID:       "admin-1",
		Justification: "quarter-end exception approved by CFO",
	})
	if err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	if accepted.Status != "accepted" || accepted.ResolvedBy != "admin-1" {
		t.Fatalf("unexpected accepted violation %+v", accepted)
	}
	if calls := module.Store.RevokeCalls(); len(calls) != 0 {
		t.Fatalf("accept must not revoke entitlements, got %+v", calls)
	}

	_, err = module.Handler.AcceptHandler(context.Background(), testTenant, violationID, httptransport.AcceptRequest{ActorID: "admin-2"})
	if !errors.Is(err, domainerrors.ErrViolationNotOpen) {
		t.Fatalf("expected ErrViolationNotOpen, got %v", err)
	}
}

func TestRemediateRejectsAppOutsideViolation(t *testing.T) {
	module := NewInMemoryModule(nil)
	seedConflictedUser(module, "user-1")
	createRule(t, module, "high")

	violations, _ := module.Handler.ListViolationsHandler(context.Background(), testTenant, ports.ViolationFilter{})
	_, err := module.Handler.RemediateHandler(context.Background(), testTenant, violations[0].ViolationID, httptransport.RemediateRequest{
		RevokeAppID: "app-crm",
		ActorID:     "admin-1",
	})
	if !errors.Is(err, domainerrors.ErrRevokeAppNotInViolation) {
		t.Fatalf("expected ErrRevokeAppNotInViolation, got %v", err)
	}
	if len(module.Store.RevokeCalls()) != 0 {
		t.Fatal("rejected remediation must not touch entitlements")
	}
}

func TestDeactivatingRuleResolvesOpenViolations(t *testing.T) {
	module := NewInMemoryModule(nil)
	seedConflictedUser(module, "user-1")
	rule := createRule(t, module, "high")

	_, err := module.Handler.ToggleRuleHandler(context.Background(), testTenant, rule.RuleID, "admin-1", httptransport.ToggleRuleRequest{IsActive: false})
	if err != nil {
		t.Fatalf("toggle failed: %v", err)
	}

	open, err := module.Handler.ListViolationsHandler(context.Background(), testTenant, ports.ViolationFilter{Status: "open"})
	if err != nil {
		t.Fatalf("list violations failed: %v", err)
	}
	if len(open) != 0 {
		t.Fatalf("expected open violations resolved on deactivation, got %d", len(open))
	}
}

func TestDeleteRuleCascadesViolations(t *testing.T) {
	module := NewInMemoryModule(nil)
	seedConflictedUser(module, "user-1")
	rule := createRule(t, module, "high")

	if err := module.Handler.DeleteRuleHandler(context.Background(), testTenant, rule.RuleID, "admin-1"); err != nil {
		t.Fatalf("delete rule failed: %v", err)
	}
	violations, err := module.Handler.ListViolationsHandler(context.Background(), testTenant, ports.ViolationFilter{})
	if err != nil {
		t.Fatalf("list violations failed: %v", err)
	}
	if len(violations) != 0 {
		t.Fatalf("expected violations removed with the rule, got %d", len(violations))
	}
	if _, err := module.Handler.GetRuleHandler(context.Background(), testTenant, rule.RuleID); !errors.Is(err, domainerrors.ErrRuleNotFound) {
		t.Fatalf("expected ErrRuleNotFound, got %v", err)
	}
}

func TestCreateRuleValidation(t *testing.T) {
	module := NewInMemoryModule(nil)

	_, err := module.Handler.CreateRuleHandler(context.Background(), testTenant, "admin-1", httptransport.CreateRuleRequest{
		Name:     "same pair",
		Severity: "high",
		AppID1:   "app-payables",
		AppID2:   "app-payables",
		IsActive: true,
	})
	if !errors.Is(err, domainerrors.ErrSameAppPair) {
		t.Fatalf("expected ErrSameAppPair, got %v", err)
	}

	_, err = module.Handler.CreateRuleHandler(context.Background(), testTenant, "admin-1", httptransport.CreateRuleRequest{
		Name:     "bad severity",
		Severity: "urgent",
		AppID1:   "app-payables",
		AppID2:   "app-receivables",
		IsActive: true,
	})
	if !errors.Is(err, domainerrors.ErrInvalidSeverity) {
		t.Fatalf("expected ErrInvalidSeverity, got %v", err)
	}
}

func TestComplianceReportStatusThreshold(t *testing.T) {
	module := NewInMemoryModule(nil)
	seedConflictedUser(module, "user-1")
	createRule(t, module, "medium")

	report, err := module.Handler.ComplianceReportHandler(context.Background(), testTenant, "")
	if err != nil {
		t.Fatalf("report failed: %v", err)
	}
	if report.OpenViolations != 1 {
		t.Fatalf("expected one open violation, got %d", report.OpenViolations)
	}
	if report.ComplianceStatus != "Compliant" {
		t.Fatalf("open medium violations keep the tenant compliant, got %q", report.ComplianceStatus)
	}

	module.Store.SeedUser(testTenant, "user-2",
		services.HeldApp{AppID: "app-crm", AppName: "CRM", AccessType: "editor"},
		services.HeldApp{AppID: "app-billing", AppName: "Billing", AccessType: "editor"},
	)
	_, err = module.Handler.CreateRuleHandler(context.Background(), testTenant, "admin-1", httptransport.CreateRuleRequest{
		Name:     "CRM vs Billing",
		Severity: "high",
		AppID1:   "app-crm",
		AppID2:   "app-billing",
		IsActive: true,
	})
	if err != nil {
		t.Fatalf("create second rule failed: %v", err)
	}

	report, err = module.Handler.ComplianceReportHandler(context.Background(), testTenant, "")
	if err != nil {
		t.Fatalf("report failed: %v", err)
	}
	if report.ComplianceStatus != "Non-Compliant" {
		t.Fatalf("open high violation must flip the status, got %q", report.ComplianceStatus)
	}
}

func TestTenantIsolation(t *testing.T) {
	module := NewInMemoryModule(nil)
	seedConflictedUser(module, "user-1")
	rule := createRule(t, module, "high")

	if _, err := module.Handler.GetRuleHandler(context.Background(), "tenant-2", rule.RuleID); !errors.Is(err, domainerrors.ErrRuleNotFound) {
		t.Fatalf("expected rule invisible across tenants, got %v", err)
	}
	violations, err := module.Handler.ListViolationsHandler(context.Background(), "tenant-2", ports.ViolationFilter{})
	if err != nil {
		t.Fatalf("list violations failed: %v", err)
	}
	if len(violations) != 0 {
		t.Fatalf("expected no violations for other tenant, got %d", len(violations))
	}
}
