package services

import (
	"testing"
	"time"

	"castellan/contexts/governance/access-request-service/domain/entities"
)

func TestScoreRiskViewerOnAppRatingOnly(t *testing.T) {
	assessment := ScoreRisk(RiskInput{AppRiskScore: 80, AccessType: "viewer"})
	if assessment.Score != 16 {
		t.Fatalf("expected score 16 from app rating alone, got %d", assessment.Score)
	}
	if assessment.Level != entities.RiskLevelLow {
		t.Fatalf("expected low level, got %s", assessment.Level)
	}
}

func TestScoreRiskAddsPrivilegeAndConflictWeight(t *testing.T) {
	assessment := ScoreRisk(RiskInput{
		AppRiskScore: 80,
		AccessType:   "admin",
		Conflicts: []entities.ConflictSnapshot{
			{RuleID: "rule-1", Severity: "critical"},
		},
	})
	// 16 app + 25 privileged + 20 conflict + 10 critical conflict.
	if assessment.Score != 71 {
		t.Fatalf("expected score 71, got %d", assessment.Score)
	}
	if assessment.Level != entities.RiskLevelHigh {
		t.Fatalf("expected high level, got %s", assessment.Level)
	}
	if len(assessment.Factors) == 0 {
		t.Fatal("expected explanatory factors")
	}
}

func TestScoreRiskNeverDecreasesWhenConflictsAdded(t *testing.T) {
	base := RiskInput{AppRiskScore: 60, AccessType: "editor"}
	previous := ScoreRisk(base).Score
	for i := 1; i <= 8; i++ {
		base.Conflicts = append(base.Conflicts, entities.ConflictSnapshot{RuleID: "rule", Severity: "high"})
		current := ScoreRisk(base).Score
		if current < previous {
			t.Fatalf("score dropped from %d to %d after adding conflict %d", previous, current, i)
		}
		previous = current
	}
}

func TestScoreRiskClampsAtHundred(t *testing.T) {
	conflicts := make([]entities.ConflictSnapshot, 10)
	for i := range conflicts {
		conflicts[i] = entities.ConflictSnapshot{RuleID: "rule", Severity: "critical"}
	}
	assessment := ScoreRisk(RiskInput{
		AppRiskScore:     100,
		AccessType:       "owner",
		Conflicts:        conflicts,
		EntitlementCount: 50,
	})
	if assessment.Score != 100 {
		t.Fatalf("expected clamp at 100, got %d", assessment.Score)
	}
	if assessment.Level != entities.RiskLevelCritical {
		t.Fatalf("expected critical level, got %s", assessment.Level)
	}
}

func TestSLADueAtByRiskLevel(t *testing.T) {
	submitted := time.Date(2026, time.April, 1, 10, 0, 0, 0, time.UTC)

	if got := SLADueAt(entities.RiskLevelLow, submitted); !got.Equal(submitted.Add(24 * time.Hour)) {
		t.Fatalf("low risk should get 24h window, got %v", got)
	}
	if got := SLADueAt(entities.RiskLevelMedium, submitted); !got.Equal(submitted.Add(24 * time.Hour)) {
		t.Fatalf("medium risk should get 24h window, got %v", got)
	}
	if got := SLADueAt(entities.RiskLevelHigh, submitted); !got.Equal(submitted.Add(48 * time.Hour)) {
		t.Fatalf("high risk should get 48h window, got %v", got)
	}
	if got := SLADueAt(entities.RiskLevelCritical, submitted); !got.Equal(submitted.Add(48 * time.Hour)) {
		t.Fatalf("critical risk should get 48h window, got %v", got)
	}
}
