package bootstrap

import (
	"context"
	"testing"
	"time"

	accessrequestservice "castellan/contexts/governance/access-request-service"
	armemory "castellan/contexts/governance/access-request-service/adapters/memory"
	arports "castellan/contexts/governance/access-request-service/ports"
	arhttp "castellan/contexts/governance/access-request-service/transport/http"
	sodservice "castellan/contexts/governance/sod-service"
	"castellan/contexts/governance/sod-service/domain/services"
	sodhttp "castellan/contexts/governance/sod-service/transport/http"
)

// Wires the SoD module into the access-request module the same way BuildAPI
// does, but over memory stores, and walks the cross-module path: a user who
// already holds one side of a critical rule submits a request for the other
// side and the conflict surfaces in the scored request.
func TestSubmitSurfacesSodConflictAcrossModules(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, time.May, 4, 10, 0, 0, 0, time.UTC)

	sodModule := sodservice.NewInMemoryModule(nil)
	sodModule.Store.SetNow(now)
	sodModule.Store.SeedUser("tenant-1", "user-1", services.HeldApp{
		AppID:      "app-payables",
		AppName:    "Payables",
		AccessType: "editor",
	})

	rule, err := sodModule.Handler.CreateRuleHandler(ctx, "tenant-1", "admin-1", sodhttp.CreateRuleRequest{
		Name:      "AP vs AR",
		Severity:  "critical",
		AppID1:    "app-payables",
		AppID2:    "app-receivables",
		Rationale: "payment initiation and receivables must be separated",
		IsActive:  true,
	})
	if err != nil {
		t.Fatalf("create rule: %v", err)
	}

	arStore := armemory.NewStore()
	arStore.SetNow(now)
	arStore.SeedApplication(arports.AppInfo{AppID: "app-receivables", Name: "Receivables", RiskScore: 80})
	arStore.SeedManager("user-1", "manager-1")

	arModule := accessrequestservice.NewModule(accessrequestservice.Dependencies{
		Requests:    arStore,
		Directory:   arStore,
		Conflicts:   sodConflictChecker{check: sodModule.Check},
		Publisher:   arStore,
		Clock:       arStore,
		IDGenerator: arStore,
	})

	request, err := arModule.Handler.SubmitHandler(ctx, "tenant-1", "user-1", arhttp.SubmitRequestRequest{
		AppID:         "app-receivables",
		AccessType:    "viewer",
		Justification: "month-end reconciliation",
		DurationType:  "permanent",
	})
	if err != nil {
		t.Fatalf("submit request: %v", err)
	}

	if len(request.SodConflicts) != 1 {
		t.Fatalf("expected one conflict, got %+v", request.SodConflicts)
	}
	conflict := request.SodConflicts[0]
	if conflict.RuleID != rule.RuleID || conflict.HeldAppID != "app-payables" || conflict.Severity != "critical" {
		t.Fatalf("unexpected conflict snapshot: %+v", conflict)
	}
	// floor(80/5) from the app rating plus 20 for the conflict plus 10 for
	// its critical severity.
	if request.RiskScore != 46 || request.RiskLevel != "medium" {
		t.Fatalf("expected score 46 medium, got %d %s", request.RiskScore, request.RiskLevel)
	}
}
