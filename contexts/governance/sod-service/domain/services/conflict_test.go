package services

import (
	"testing"

	"castellan/contexts/governance/sod-service/domain/entities"
)

func testRule() entities.Rule {
	return entities.Rule{
		RuleID:    "rule-1",
		TenantID:  "tenant-1",
		Name:      "AP vs AR",
		Severity:  entities.SeverityHigh,
		AppID1:    "app-payables",
		AppID2:    "app-receivables",
		Rationale: "payment creation and approval must be split",
		IsActive:  true,
	}
}

func TestFindConflictsIsSymmetricOverThePair(t *testing.T) {
	rule := testRule()
	heldPayables := []HeldApp{{AppID: "app-payables", AppName: "Payables"}}
	heldReceivables := []HeldApp{{AppID: "app-receivables", AppName: "Receivables"}}

	forward := FindConflicts([]entities.Rule{rule}, "user-1", heldPayables, "app-receivables")
	reverse := FindConflicts([]entities.Rule{rule}, "user-1", heldReceivables, "app-payables")

	if len(forward) != 1 || len(reverse) != 1 {
		t.Fatalf("expected one finding in each direction, got %d and %d", len(forward), len(reverse))
	}
	if forward[0].RuleID != rule.RuleID || reverse[0].RuleID != rule.RuleID {
		t.Fatalf("findings reference wrong rule: %q / %q", forward[0].RuleID, reverse[0].RuleID)
	}
	if forward[0].HeldAppID != "app-payables" {
		t.Fatalf("expected held side app-payables, got %q", forward[0].HeldAppID)
	}
}

func TestFindConflictsSkipsExemptUsers(t *testing.T) {
	rule := testRule()
	rule.ExemptUserIDs = []string{"user-cfo"}
	held := []HeldApp{{AppID: "app-payables", AppName: "Payables"}}

	findings := FindConflicts([]entities.Rule{rule}, "user-cfo", held, "app-receivables")
	if len(findings) != 0 {
		t.Fatalf("expected no findings for exempt user, got %d", len(findings))
	}

	findings = FindConflicts([]entities.Rule{rule}, "user-other", held, "app-receivables")
	if len(findings) != 1 {
		t.Fatalf("expected finding for non-exempt user, got %d", len(findings))
	}
}

func TestFindConflictsSkipsInactiveAndUnrelatedRules(t *testing.T) {
	inactive := testRule()
	inactive.IsActive = false
	unrelated := testRule()
	unrelated.RuleID = "rule-2"
	unrelated.AppID1 = "app-crm"
	unrelated.AppID2 = "app-billing"

	held := []HeldApp{{AppID: "app-payables", AppName: "Payables"}}
	findings := FindConflicts([]entities.Rule{inactive, unrelated}, "user-1", held, "app-receivables")
	if len(findings) != 0 {
		t.Fatalf("expected no findings, got %d", len(findings))
	}
}

func TestHoldsBothSides(t *testing.T) {
	rule := testRule()
	held := []HeldApp{
		{AppID: "app-receivables", AppName: "Receivables"},
		{AppID: "app-payables", AppName: "Payables"},
	}

	first, second, both := HoldsBothSides(rule, held)
	if !both {
		t.Fatal("expected both sides held")
	}
	if first.AppName != "Payables" || second.AppName != "Receivables" {
		t.Fatalf("snapshot order should follow the rule pair, got %q / %q", first.AppName, second.AppName)
	}

	if _, _, both := HoldsBothSides(rule, held[:1]); both {
		t.Fatal("one side alone must not match")
	}
}
