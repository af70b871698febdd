package services

import (
	"testing"
	"time"

	"castellan/contexts/governance/anomaly-service/domain/entities"
)

func eventAt(hour int, day time.Time) entities.ActivityEvent {
	return entities.ActivityEvent{
		EventID:    "event-1",
		TenantID:   "tenant-1",
		UserID:     "user-1",
		EventType:  entities.EventTypeLogin,
		OccurredAt: time.Date(day.Year(), day.Month(), day.Day(), hour, 30, 0, 0, time.UTC),
	}
}

func hitTypes(hits []RuleHit) map[entities.AnomalyType]RuleHit {
	out := make(map[entities.AnomalyType]RuleHit, len(hits))
	for _, hit := range hits {
		out[hit.Type] = hit
	}
	return out
}

func TestAfterHoursRuleUsesFixedBusinessWindow(t *testing.T) {
	baseline := entities.Baseline{}

	hits := hitTypes(EvaluateRules(eventAt(7, monday), baseline, ActivityStats{}))
	if _, ok := hits[entities.AnomalyAfterHoursAccess]; !ok {
		t.Fatal("07:30 login must trip after-hours")
	}

	hits = hitTypes(EvaluateRules(eventAt(18, monday), baseline, ActivityStats{}))
	hit, ok := hits[entities.AnomalyAfterHoursAccess]
	if !ok {
		t.Fatal("18:30 login must trip after-hours")
	}
	if hit.Severity != entities.SeverityMedium || hit.Confidence != 60 {
		t.Fatalf("unexpected after-hours hit %+v", hit)
	}

	if hits := EvaluateRules(eventAt(9, monday), baseline, ActivityStats{}); len(hits) != 0 {
		t.Fatalf("09:30 weekday login is normal, got %+v", hits)
	}
}

func TestWeekendRule(t *testing.T) {
	saturday := monday.AddDate(0, 0, 5)
	hits := hitTypes(EvaluateRules(eventAt(10, saturday), entities.Baseline{}, ActivityStats{}))
	hit, ok := hits[entities.AnomalyWeekendAccess]
	if !ok {
		t.Fatal("saturday login must trip weekend rule")
	}
	if hit.Severity != entities.SeverityLow || hit.Confidence != 55 {
		t.Fatalf("unexpected weekend hit %+v", hit)
	}
}

func TestGeographicRuleNeedsKnownLocations(t *testing.T) {
	event := eventAt(10, monday)
	event.Location = "Lisbon"

	// No history yet: location cannot be judged.
	hits := EvaluateRules(event, entities.Baseline{}, ActivityStats{})
	if len(hitTypes(hits)) != 0 {
		t.Fatalf("no known locations must not trip geographic, got %+v", hits)
	}

	baseline := entities.Baseline{KnownLocations: []string{"Berlin"}}
	hit, ok := hitTypes(EvaluateRules(event, baseline, ActivityStats{}))[entities.AnomalyGeographic]
	if !ok {
		t.Fatal("unknown location with history must trip geographic")
	}
	if hit.Severity != entities.SeverityHigh || hit.Confidence != 80 {
		t.Fatalf("unexpected geographic hit %+v", hit)
	}

	event.Location = "Berlin"
	if _, ok := hitTypes(EvaluateRules(event, baseline, ActivityStats{}))[entities.AnomalyGeographic]; ok {
		t.Fatal("known location must not trip geographic")
	}
}

func TestBulkDownloadThresholdBoundary(t *testing.T) {
	event := eventAt(10, monday)
	event.EventType = entities.EventTypeDownload

	if _, ok := hitTypes(EvaluateRules(event, entities.Baseline{}, ActivityStats{DownloadsLastHour: 99}))[entities.AnomalyBulkDownload]; ok {
		t.Fatal("99 downloads must stay under the threshold")
	}
	hit, ok := hitTypes(EvaluateRules(event, entities.Baseline{}, ActivityStats{DownloadsLastHour: 100}))[entities.AnomalyBulkDownload]
	if !ok {
		t.Fatal("100 downloads must trip bulk download")
	}
	if hit.Severity != entities.SeverityCritical || hit.Confidence != 90 {
		t.Fatalf("unexpected bulk download hit %+v", hit)
	}
}

func TestRapidAppSwitchingThreshold(t *testing.T) {
	event := eventAt(10, monday)
	if _, ok := hitTypes(EvaluateRules(event, entities.Baseline{}, ActivityStats{DistinctAppsLastHour: 9}))[entities.AnomalyRapidAppSwitching]; ok {
		t.Fatal("9 distinct apps must stay under the threshold")
	}
	if _, ok := hitTypes(EvaluateRules(event, entities.Baseline{}, ActivityStats{DistinctAppsLastHour: 10}))[entities.AnomalyRapidAppSwitching]; !ok {
		t.Fatal("10 distinct apps must trip rapid app switching")
	}
}

func TestPrivilegeEscalationComparesAdminAppSet(t *testing.T) {
	event := eventAt(10, monday)
	event.EventType = entities.EventTypeAdminAccess
	event.AppID = "app-billing"

	baseline := entities.Baseline{AdminAppIDs: []string{"app-iam"}}
	hit, ok := hitTypes(EvaluateRules(event, baseline, ActivityStats{}))[entities.AnomalyPrivilegeEscalation]
	if !ok {
		t.Fatal("admin access outside the admin-app set must trip escalation")
	}
	if hit.Severity != entities.SeverityHigh || hit.Confidence != 85 {
		t.Fatalf("unexpected escalation hit %+v", hit)
	}

	event.AppID = "app-iam"
	if _, ok := hitTypes(EvaluateRules(event, baseline, ActivityStats{}))[entities.AnomalyPrivilegeEscalation]; ok {
		t.Fatal("admin access on a held admin app is normal")
	}
}

func TestFailedLoginSpikeThreshold(t *testing.T) {
	event := eventAt(10, monday)
	event.EventType = entities.EventTypeFailedLogin

	if _, ok := hitTypes(EvaluateRules(event, entities.Baseline{}, ActivityStats{FailedLoginsLast10Min: 4}))[entities.AnomalyFailedLoginSpike]; ok {
		t.Fatal("4 failures must stay under the threshold")
	}
	hit, ok := hitTypes(EvaluateRules(event, entities.Baseline{}, ActivityStats{FailedLoginsLast10Min: 5}))[entities.AnomalyFailedLoginSpike]
	if !ok {
		t.Fatal("5 failures in 10 minutes must trip the spike rule")
	}
	if hit.Severity != entities.SeverityHigh || hit.Confidence != 95 {
		t.Fatalf("unexpected spike hit %+v", hit)
	}
}

func TestIndependentRulesCanFireTogether(t *testing.T) {
	saturday := monday.AddDate(0, 0, 5)
	event := eventAt(20, saturday)
	event.Location = "Lisbon"

	hits := hitTypes(EvaluateRules(event, entities.Baseline{KnownLocations: []string{"Berlin"}}, ActivityStats{}))
	for _, want := range []entities.AnomalyType{
		entities.AnomalyAfterHoursAccess,
		entities.AnomalyWeekendAccess,
		entities.AnomalyGeographic,
	} {
		if _, ok := hits[want]; !ok {
			t.Fatalf("expected %s to fire, got %v", want, hits)
		}
	}
}
