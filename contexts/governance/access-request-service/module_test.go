package accessrequestservice

import (
	"context"
	"errors"
	"testing"
	"time"

	"castellan/contexts/governance/access-request-service/application/commands"
	"castellan/contexts/governance/access-request-service/application/workers"
	"castellan/contexts/governance/access-request-service/domain/entities"
	domainerrors "castellan/contexts/governance/access-request-service/domain/errors"
	"castellan/contexts/governance/access-request-service/ports"
	httptransport "castellan/contexts/governance/access-request-service/transport/http"
)

const testTenant = "tenant-1"

func newTestModule(now time.Time) Module {
	module := NewInMemoryModule(nil)
	module.Store.SetNow(now)
	module.Store.SeedApplication(ports.AppInfo{AppID: "app-crm", Name: "CRM", RiskScore: 80})
	module.Store.SeedManager("user-1", "manager-1")
	return module
}

func submit(t *testing.T, module Module, req httptransport.SubmitRequestRequest) httptransport.AccessRequestResponse {
	t.Helper()
	if req.AppID == "" {
		req.AppID = "app-crm"
	}
	if req.AccessType == "" {
		req.AccessType = "viewer"
	}
	if req.Justification == "" {
		req.Justification = "quarterly reporting"
	}
	if req.DurationType == "" {
		req.DurationType = "permanent"
	}
	item, err := module.Handler.SubmitHandler(context.Background(), testTenant, "user-1", req)
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	return item
}

func TestSubmitScoresRiskAndSetsSLA(t *testing.T) {
	now := time.Date(2026, time.April, 1, 10, 0, 0, 0, time.UTC)
	module := newTestModule(now)

	item := submit(t, module, httptransport.SubmitRequestRequest{})

	if item.Status != "pending" {
		t.Fatalf("expected pending, got %q", item.Status)
	}
	if item.RiskScore != 16 || item.RiskLevel != "low" {
		t.Fatalf("viewer on an 80-rated app should score 16/low, got %d/%s", item.RiskScore, item.RiskLevel)
	}
	if item.ApproverID != "manager-1" {
		t.Fatalf("expected routing to manager-1, got %q", item.ApproverID)
	}
	if !item.SLADueAt.Equal(now.Add(24 * time.Hour)) {
		t.Fatalf("low risk gets a 24h review window, got %v", item.SLADueAt)
	}
	if len(module.Store.Published()) != 0 {
		t.Fatal("low risk submission must not publish events")
	}
}

func TestSubmitElevatedRiskPublishesAndExtendsSLA(t *testing.T) {
	now := time.Date(2026, time.April, 1, 10, 0, 0, 0, time.UTC)
	module := newTestModule(now)
	module.Store.SeedConflicts("user-1", "app-crm", []entities.ConflictSnapshot{
		{RuleID: "rule-1", RuleName: "AP vs AR", Severity: "critical", HeldAppID: "app-payables"},
	})

	item := submit(t, module, httptransport.SubmitRequestRequest{AccessType: "admin"})

	// 16 app + 25 privileged + 20 conflict + 10 critical conflict.
	if item.RiskScore != 71 || item.RiskLevel != "high" {
		t.Fatalf("expected 71/high, got %d/%s", item.RiskScore, item.RiskLevel)
	}
	if len(item.SodConflicts) != 1 {
		t.Fatalf("expected conflict snapshot on the request, got %d", len(item.SodConflicts))
	}
	if !item.SLADueAt.Equal(now.Add(48 * time.Hour)) {
		t.Fatalf("elevated risk gets a 48h review window, got %v", item.SLADueAt)
	}

	published := module.Store.Published()
	if len(published) != 1 || published[0].Topic != commands.TopicHighRisk {
		t.Fatalf("expected one %s event, got %+v", commands.TopicHighRisk, published)
	}
	if published[0].Envelope.PartitionKey != testTenant {
		t.Fatalf("expected tenant partition key, got %q", published[0].Envelope.PartitionKey)
	}
}

func TestSubmitWithoutManagerStaysUnrouted(t *testing.T) {
	module := newTestModule(time.Date(2026, time.April, 1, 10, 0, 0, 0, time.UTC))
	module.Store.SeedManager("user-1", "")

	item := submit(t, module, httptransport.SubmitRequestRequest{})
	if item.ApproverID != "" {
		t.Fatalf("expected empty approver, got %q", item.ApproverID)
	}
	if item.Status != "pending" {
		t.Fatalf("unrouted request still pends, got %q", item.Status)
	}
}

func TestSubmitValidation(t *testing.T) {
	module := newTestModule(time.Date(2026, time.April, 1, 10, 0, 0, 0, time.UTC))
	ctx := context.Background()

	_, err := module.Handler.SubmitHandler(ctx, testTenant, "user-1", httptransport.SubmitRequestRequest{
		AppID: "app-crm", AccessType: "root", Justification: "x", DurationType: "permanent",
	})
	if !errors.Is(err, domainerrors.ErrInvalidAccessType) {
		t.Fatalf("expected ErrInvalidAccessType, got %v", err)
	}

	_, err = module.Handler.SubmitHandler(ctx, testTenant, "user-1", httptransport.SubmitRequestRequest{
		AppID: "app-crm", AccessType: "viewer", DurationType: "permanent",
	})
	if !errors.Is(err, domainerrors.ErrJustificationMissing) {
		t.Fatalf("expected ErrJustificationMissing, got %v", err)
	}

	_, err = module.Handler.SubmitHandler(ctx, testTenant, "user-1", httptransport.SubmitRequestRequest{
		AppID: "app-crm", AccessType: "viewer", Justification: "x", DurationType: "temporary",
	})
	if !errors.Is(err, domainerrors.ErrInvalidDuration) {
		t.Fatalf("temporary without hours should fail, got %v", err)
	}

	_, err = module.Handler.SubmitHandler(ctx, testTenant, "user-1", httptransport.SubmitRequestRequest{
		AppID: "app-unknown", AccessType: "viewer", Justification: "x", DurationType: "permanent",
	})
	if !errors.Is(err, domainerrors.ErrApplicationNotFound) {
		t.Fatalf("expected ErrApplicationNotFound, got %v", err)
	}
}

func TestApprovalProvisionsEntitlement(t *testing.T) {
	module := newTestModule(time.Date(2026, time.April, 1, 10, 0, 0, 0, time.UTC))
	item := submit(t, module, httptransport.SubmitRequestRequest{})

	decided, err := module.Handler.ReviewHandler(context.Background(), testTenant, item.RequestID, "manager-1", httptransport.ReviewRequestRequest{
		Decision: "approved",
		Notes:    "fine for reporting",
	})
	if err != nil {
		t.Fatalf("review failed: %v", err)
	}
	if decided.Status != "provisioned" || decided.ProvisioningStatus != "completed" {
		t.Fatalf("expected provisioned/completed, got %s/%s", decided.Status, decided.ProvisioningStatus)
	}
	if decided.DecidedBy != "manager-1" || decided.DecidedAt == nil {
		t.Fatalf("decision metadata missing: %+v", decided)
	}

	granted, err := module.Store.HasActiveEntitlement(context.Background(), testTenant, "user-1", "app-crm")
	if err != nil {
		t.Fatalf("entitlement lookup failed: %v", err)
	}
	if !granted {
		t.Fatal("approved request must grant the entitlement")
	}
}

func TestProvisioningFailureKeepsApproval(t *testing.T) {
	module := newTestModule(time.Date(2026, time.April, 1, 10, 0, 0, 0, time.UTC))
	item := submit(t, module, httptransport.SubmitRequestRequest{})
	module.Store.FailGrants(errors.New("idp timeout"))

	decided, err := module.Handler.ReviewHandler(context.Background(), testTenant, item.RequestID, "manager-1", httptransport.ReviewRequestRequest{
		Decision: "approved",
	})
	if err != nil {
		t.Fatalf("review failed: %v", err)
	}
	if decided.Status != "approved" {
		t.Fatalf("approval must survive provisioning failure, got %q", decided.Status)
	}
	if decided.ProvisioningStatus != "failed" || decided.ProvisioningError != "idp timeout" {
		t.Fatalf("expected failed/idp timeout, got %s/%s", decided.ProvisioningStatus, decided.ProvisioningError)
	}
}

func TestReviewGuards(t *testing.T) {
	module := newTestModule(time.Date(2026, time.April, 1, 10, 0, 0, 0, time.UTC))
	item := submit(t, module, httptransport.SubmitRequestRequest{})
	ctx := context.Background()

	_, err := module.Handler.ReviewHandler(ctx, testTenant, item.RequestID, "manager-1", httptransport.ReviewRequestRequest{Decision: "maybe"})
	if !errors.Is(err, domainerrors.ErrInvalidDecision) {
		t.Fatalf("expected ErrInvalidDecision, got %v", err)
	}

	if _, err := module.Handler.ReviewHandler(ctx, testTenant, item.RequestID, "manager-1", httptransport.ReviewRequestRequest{Decision: "denied"}); err != nil {
		t.Fatalf("deny failed: %v", err)
	}
	_, err = module.Handler.ReviewHandler(ctx, testTenant, item.RequestID, "manager-1", httptransport.ReviewRequestRequest{Decision: "approved"})
	if !errors.Is(err, domainerrors.ErrRequestNotPending) {
		t.Fatalf("expected ErrRequestNotPending after denial, got %v", err)
	}
}

func TestCancelOnlyByRequesterWhilePending(t *testing.T) {
	module := newTestModule(time.Date(2026, time.April, 1, 10, 0, 0, 0, time.UTC))
	item := submit(t, module, httptransport.SubmitRequestRequest{})
	ctx := context.Background()

	_, err := module.Handler.CancelHandler(ctx, testTenant, item.RequestID, "someone-else")
	if !errors.Is(err, domainerrors.ErrNotRequester) {
		t.Fatalf("expected ErrNotRequester, got %v", err)
	}

	cancelled, err := module.Handler.CancelHandler(ctx, testTenant, item.RequestID, "user-1")
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if cancelled.Status != "cancelled" {
		t.Fatalf("expected cancelled, got %q", cancelled.Status)
	}

	_, err = module.Handler.CancelHandler(ctx, testTenant, item.RequestID, "user-1")
	if !errors.Is(err, domainerrors.ErrRequestNotPending) {
		t.Fatalf("expected ErrRequestNotPending on double cancel, got %v", err)
	}
}

func TestOverdueSweepFlagsOnce(t *testing.T) {
	start := time.Date(2026, time.April, 1, 10, 0, 0, 0, time.UTC)
	module := newTestModule(start)
	item := submit(t, module, httptransport.SubmitRequestRequest{})

	// Not yet past the 24h window.
	module.Store.SetNow(start.Add(23 * time.Hour))
	if err := module.OverdueChecker.RunOnce(context.Background()); err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if got, _ := module.Handler.GetHandler(context.Background(), testTenant, item.RequestID); got.IsOverdue {
		t.Fatal("request flagged before its deadline")
	}

	module.Store.SetNow(start.Add(25 * time.Hour))
	if err := module.OverdueChecker.RunOnce(context.Background()); err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	got, err := module.Handler.GetHandler(context.Background(), testTenant, item.RequestID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if !got.IsOverdue {
		t.Fatal("expected request flagged overdue")
	}

	published := module.Store.Published()
	if len(published) != 1 || published[0].Topic != workers.TopicOverdue {
		t.Fatalf("expected one %s event, got %+v", workers.TopicOverdue, published)
	}

	// Second sweep finds nothing new.
	if err := module.OverdueChecker.RunOnce(context.Background()); err != nil {
		t.Fatalf("second sweep failed: %v", err)
	}
	if len(module.Store.Published()) != 1 {
		t.Fatalf("overdue must be announced at most once, got %d events", len(module.Store.Published()))
	}
}

func TestListRequestsFilters(t *testing.T) {
	module := newTestModule(time.Date(2026, time.April, 1, 10, 0, 0, 0, time.UTC))
	module.Store.SeedApplication(ports.AppInfo{AppID: "app-billing", Name: "Billing", RiskScore: 30})
	first := submit(t, module, httptransport.SubmitRequestRequest{})
	second := submit(t, module, httptransport.SubmitRequestRequest{AppID: "app-billing"})

	if _, err := module.Handler.ReviewHandler(context.Background(), testTenant, first.RequestID, "manager-1", httptransport.ReviewRequestRequest{Decision: "denied"}); err != nil {
		t.Fatalf("deny failed: %v", err)
	}

	pending, err := module.Handler.ListHandler(context.Background(), testTenant, "user-1", "", "pending")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(pending) != 1 || pending[0].RequestID != second.RequestID {
		t.Fatalf("expected only the billing request pending, got %+v", pending)
	}

	routed, err := module.Handler.ListHandler(context.Background(), testTenant, "", "manager-1", "")
	if err != nil {
		t.Fatalf("list by approver failed: %v", err)
	}
	if len(routed) != 2 {
		t.Fatalf("expected both requests routed to manager-1, got %d", len(routed))
	}
}
