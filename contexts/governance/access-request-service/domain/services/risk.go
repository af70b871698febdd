package services

import (
	"fmt"
	"time"

	"castellan/contexts/governance/access-request-service/domain/entities"
)

// Review SLA windows. Elevated-risk requests get the longer window; the
// overdue sweep depends on these exact values.
const (
	slaElevated = 48 * time.Hour
	slaStandard = 24 * time.Hour
)

// RiskInput is everything the scorer looks at for one request.
type RiskInput struct {
	AppRiskScore     int // application's own 0-100 rating
	AccessType       string
	Conflicts        []entities.ConflictSnapshot
	EntitlementCount int // requester's current active entitlements
}

// RiskAssessment is the scorer's decision with its explanation.
type RiskAssessment struct {
	Score   int
	Level   entities.RiskLevel
	Factors []string
}

// ScoreRisk computes a deterministic, explainable risk score.
// Cumulative scoring over request semantics, capped at 100; never decreases
// when privileges or conflicts are added.
func ScoreRisk(input RiskInput) RiskAssessment {
	score := 0
	factors := make([]string, 0, 4)

	// Application rating contributes 0-20.
	score += input.AppRiskScore / 5
	if input.AppRiskScore >= 75 {
		factors = append(factors, "high-risk application")
	}

	if input.AccessType == "admin" || input.AccessType == "owner" {
		score += 25
		factors = append(factors, "privileged access requested")
	}

	if count := len(input.Conflicts); count > 0 {
		score += 20 * count
		factors = append(factors, fmt.Sprintf("%d segregation-of-duties conflict(s)", count))

		critical := 0
		for _, conflict := range input.Conflicts {
			if conflict.Severity == "critical" {
				critical++
			}
		}
		if critical > 0 {
			score += 10 * critical
			factors = append(factors, fmt.Sprintf("%d critical-severity conflict(s)", critical))
		}
	}

	if input.EntitlementCount > 20 {
		score += 10
		factors = append(factors, "broad existing entitlement footprint")
	}

	if score > 100 {
		score = 100
	}
	return RiskAssessment{
		Score:   score,
		Level:   levelFor(score),
		Factors: factors,
	}
}

func levelFor(score int) entities.RiskLevel {
	switch {
	case score >= 75:
		return entities.RiskLevelCritical
	case score >= 50:
		return entities.RiskLevelHigh
	case score >= 25:
		return entities.RiskLevelMedium
	default:
		return entities.RiskLevelLow
	}
}

// SLADueAt returns the review deadline for a request submitted at the given
// time with the given risk level.
func SLADueAt(level entities.RiskLevel, submittedAt time.Time) time.Time {
	if level.Elevated() {
		return submittedAt.Add(slaElevated)
	}
	return submittedAt.Add(slaStandard)
}
