package services

import "castellan/contexts/governance/sod-service/domain/entities"

// HeldApp is one application a user currently holds access to.
type HeldApp struct {
	AppID      string
	AppName    string
	AccessType string
}

// FindConflicts returns one finding per active rule where the candidate app
// and an already-held app form the rule's unordered pair. Exempted users never
// produce findings. Pure function of its inputs.
func FindConflicts(rules []entities.Rule, userID string, held []HeldApp, candidateAppID string) []entities.ConflictFinding {
	findings := make([]entities.ConflictFinding, 0)
	for _, rule := range rules {
		if !rule.IsActive || rule.Exempts(userID) || !rule.References(candidateAppID) {
			continue
		}
		otherAppID := rule.OtherApp(candidateAppID)
		for _, app := range held {
			if app.AppID != otherAppID {
				continue
			}
			findings = append(findings, entities.ConflictFinding{
				RuleID:      rule.RuleID,
				RuleName:    rule.Name,
				Severity:    rule.Severity,
				HeldAppID:   app.AppID,
				HeldAppName: app.AppName,
				Rationale:   rule.Rationale,
			})
			break
		}
	}
	return findings
}

// HoldsBothSides reports whether the held set contains both rule apps, and
// returns the matching held entries for snapshotting.
func HoldsBothSides(rule entities.Rule, held []HeldApp) (HeldApp, HeldApp, bool) {
	var first, second HeldApp
	var haveFirst, haveSecond bool
	for _, app := range held {
		switch app.AppID {
		case rule.AppID1:
			first, haveFirst = app, true
		case rule.AppID2:
			second, haveSecond = app, true
		}
	}
	return first, second, haveFirst && haveSecond
}
