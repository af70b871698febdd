package services

import (
	"time"

	"castellan/contexts/governance/anomaly-service/domain/entities"
)

const (
	// Fixed business window for the after-hours rule; deliberately not
	// baseline-adjusted.
	businessStartHour = 8
	businessEndHour   = 18

	bulkDownloadThreshold     = 100
	rapidAppSwitchThreshold   = 10
	failedLoginSpikeThreshold = 5
)

// ActivityStats are the trailing-window counters the volume rules key on.
// The counters include the event under evaluation.
type ActivityStats struct {
	DownloadsLastHour     int
	DistinctAppsLastHour  int
	FailedLoginsLast10Min int
}

// RuleHit is one catalog rule that fired for an event.
type RuleHit struct {
	Type       entities.AnomalyType
	Severity   entities.Severity
	Confidence int
}

// EvaluateRules runs the fixed catalog against one activity event. Rules are
// independent; an event may trip several at once.
func EvaluateRules(event entities.ActivityEvent, baseline entities.Baseline, stats ActivityStats) []RuleHit {
	var hits []RuleHit

	hour := event.OccurredAt.Hour()
	if hour < businessStartHour || hour >= businessEndHour {
		hits = append(hits, RuleHit{entities.AnomalyAfterHoursAccess, entities.SeverityMedium, 60})
	}

	day := event.OccurredAt.Weekday()
	if day == time.Saturday || day == time.Sunday {
		hits = append(hits, RuleHit{entities.AnomalyWeekendAccess, entities.SeverityLow, 55})
	}

	if event.Location != "" && len(baseline.KnownLocations) >= 1 && !baseline.KnowsLocation(event.Location) {
		hits = append(hits, RuleHit{entities.AnomalyGeographic, entities.SeverityHigh, 80})
	}

	if event.EventType == entities.EventTypeDownload && stats.DownloadsLastHour >= bulkDownloadThreshold {
		hits = append(hits, RuleHit{entities.AnomalyBulkDownload, entities.SeverityCritical, 90})
	}

	if stats.DistinctAppsLastHour >= rapidAppSwitchThreshold {
		hits = append(hits, RuleHit{entities.AnomalyRapidAppSwitching, entities.SeverityMedium, 70})
	}

	if event.EventType == entities.EventTypeAdminAccess && !baseline.HasAdminApp(event.AppID) {
		hits = append(hits, RuleHit{entities.AnomalyPrivilegeEscalation, entities.SeverityHigh, 85})
	}

	if event.EventType == entities.EventTypeFailedLogin && stats.FailedLoginsLast10Min >= failedLoginSpikeThreshold {
		hits = append(hits, RuleHit{entities.AnomalyFailedLoginSpike, entities.SeverityHigh, 95})
	}

	return hits
}
