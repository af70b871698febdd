package anomalyservice

import (
	"context"
	"errors"
	"testing"
	"time"

	"castellan/contexts/governance/anomaly-service/application/commands"
	domainerrors "castellan/contexts/governance/anomaly-service/domain/errors"
	"castellan/contexts/governance/anomaly-service/ports"
	httptransport "castellan/contexts/governance/anomaly-service/transport/http"
)

const testTenant = "tenant-1"

// 2026-04-01 is a Wednesday.
var testDay = time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC)

func at(hour, minute int) time.Time {
	return testDay.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func evaluate(t *testing.T, module Module, req httptransport.EvaluateEventRequest) []httptransport.DetectionResponse {
	t.Helper()
	if req.UserID == "" {
		req.UserID = "user-1"
	}
	if req.EventType == "" {
		req.EventType = "login"
	}
	detections, err := module.Handler.EvaluateHandler(context.Background(), testTenant, req)
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	return detections
}

func TestAfterHoursEventCreatesDetectionAndPublishes(t *testing.T) {
	module := NewInMemoryModule(nil)
	module.Store.SetNow(at(20, 0))

	detections := evaluate(t, module, httptransport.EvaluateEventRequest{
		AppID:      "app-crm",
		OccurredAt: at(20, 0),
	})

	if len(detections) != 1 {
		t.Fatalf("expected one detection, got %d", len(detections))
	}
	got := detections[0]
	if got.AnomalyType != "after_hours_access" || got.Severity != "medium" || got.Confidence != 60 {
		t.Fatalf("unexpected detection %+v", got)
	}
	if got.Status != "open" {
		t.Fatalf("new detections start open, got %q", got.Status)
	}
	if got.EventData.AppID != "app-crm" || got.EventData.OccurredAt.IsZero() {
		t.Fatalf("event snapshot missing: %+v", got.EventData)
	}
	if got.BaselineData.StartHour != 8 || got.BaselineData.EndHour != 18 {
		t.Fatalf("baseline snapshot should carry the default window, got %+v", got.BaselineData)
	}

	published := module.Store.Published()
	if len(published) != 1 || published[0].Topic != commands.TopicDetected {
		t.Fatalf("expected one %s event, got %+v", commands.TopicDetected, published)
	}
	if published[0].Envelope.PartitionKey != testTenant {
		t.Fatalf("expected tenant partition key, got %q", published[0].Envelope.PartitionKey)
	}
}

func TestDetectionDedupWindow(t *testing.T) {
	module := NewInMemoryModule(nil)
	module.Store.SetNow(at(20, 0))
	evaluate(t, module, httptransport.EvaluateEventRequest{OccurredAt: at(20, 0)})

	// Same anomaly half an hour later is suppressed.
	module.Store.SetNow(at(20, 30))
	if detections := evaluate(t, module, httptransport.EvaluateEventRequest{OccurredAt: at(20, 30)}); len(detections) != 0 {
		t.Fatalf("expected dedup inside the hour, got %d detections", len(detections))
	}

	// Past the window it fires again.
	module.Store.SetNow(at(21, 30))
	if detections := evaluate(t, module, httptransport.EvaluateEventRequest{OccurredAt: at(21, 30)}); len(detections) != 1 {
		t.Fatalf("expected new detection after the window, got %d", len(detections))
	}
}

func TestResolvedDetectionDoesNotSuppress(t *testing.T) {
	module := NewInMemoryModule(nil)
	module.Store.SetNow(at(20, 0))
	first := evaluate(t, module, httptransport.EvaluateEventRequest{OccurredAt: at(20, 0)})

	_, err := module.Handler.UpdateStatusHandler(context.Background(), testTenant, first[0].DetectionID, "analyst-1", httptransport.UpdateStatusRequest{
		Status: "false_positive",
		Notes:  "on-call shift",
	})
	if err != nil {
		t.Fatalf("update status failed: %v", err)
	}

	module.Store.SetNow(at(20, 30))
	if detections := evaluate(t, module, httptransport.EvaluateEventRequest{OccurredAt: at(20, 30)}); len(detections) != 1 {
		t.Fatalf("closed detections must not suppress new ones, got %d", len(detections))
	}
}

func TestFailedLoginSpikeFiresOnFifthAttempt(t *testing.T) {
	module := NewInMemoryModule(nil)

	for i := 0; i < 4; i++ {
		module.Store.SetNow(at(10, i))
		if detections := evaluate(t, module, httptransport.EvaluateEventRequest{
			EventType:  "failed_login",
			OccurredAt: at(10, i),
		}); len(detections) != 0 {
			t.Fatalf("attempt %d must not fire, got %d detections", i+1, len(detections))
		}
	}

	module.Store.SetNow(at(10, 4))
	detections := evaluate(t, module, httptransport.EvaluateEventRequest{
		EventType:  "failed_login",
		OccurredAt: at(10, 4),
	})
	if len(detections) != 1 || detections[0].AnomalyType != "failed_login_spike" {
		t.Fatalf("expected failed_login_spike on fifth attempt, got %+v", detections)
	}
	if detections[0].Confidence != 95 {
		t.Fatalf("expected confidence 95, got %d", detections[0].Confidence)
	}
}

func TestPrivilegeEscalationAgainstEntitlements(t *testing.T) {
	module := NewInMemoryModule(nil)
	module.Store.SeedAdminApps("user-1", "app-iam")
	module.Store.SetNow(at(10, 0))

	if detections := evaluate(t, module, httptransport.EvaluateEventRequest{
		EventType:  "admin_access",
		AppID:      "app-iam",
		OccurredAt: at(10, 0),
	}); len(detections) != 0 {
		t.Fatalf("admin access on a held admin app is normal, got %+v", detections)
	}

	detections := evaluate(t, module, httptransport.EvaluateEventRequest{
		EventType:  "admin_access",
		AppID:      "app-billing",
		OccurredAt: at(10, 5),
	})
	if len(detections) != 1 || detections[0].AnomalyType != "privilege_escalation" {
		t.Fatalf("expected privilege_escalation, got %+v", detections)
	}
}

func TestGeographicAnomalyForNonLoginEvents(t *testing.T) {
	module := NewInMemoryModule(nil)
	module.Store.SetNow(at(9, 0))
	evaluate(t, module, httptransport.EvaluateEventRequest{Location: "Berlin", OccurredAt: at(9, 0)})

	module.Store.SetNow(at(10, 0))
	detections := evaluate(t, module, httptransport.EvaluateEventRequest{
		EventType:  "download",
		AppID:      "app-dms",
		Location:   "Lisbon",
		OccurredAt: at(10, 0),
	})
	if len(detections) != 1 || detections[0].AnomalyType != "geographic_anomaly" {
		t.Fatalf("expected geographic_anomaly, got %+v", detections)
	}
}

func TestUpdateStatusGuards(t *testing.T) {
	module := NewInMemoryModule(nil)
	module.Store.SetNow(at(20, 0))
	first := evaluate(t, module, httptransport.EvaluateEventRequest{OccurredAt: at(20, 0)})
	ctx := context.Background()

	if _, err := module.Handler.UpdateStatusHandler(ctx, testTenant, first[0].DetectionID, "analyst-1", httptransport.UpdateStatusRequest{Status: "open"}); !errors.Is(err, domainerrors.ErrInvalidStatusChange) {
		t.Fatalf("reopening is not a transition, got %v", err)
	}

	resolved, err := module.Handler.UpdateStatusHandler(ctx, testTenant, first[0].DetectionID, "analyst-1", httptransport.UpdateStatusRequest{
		Status: "resolved",
		Notes:  "expected maintenance window",
	})
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if resolved.ResolvedAt == nil || resolved.ResolvedBy != "analyst-1" {
		t.Fatalf("resolution metadata missing: %+v", resolved)
	}

	if _, err := module.Handler.UpdateStatusHandler(ctx, testTenant, first[0].DetectionID, "analyst-1", httptransport.UpdateStatusRequest{Status: "investigating"}); !errors.Is(err, domainerrors.ErrInvalidStatusChange) {
		t.Fatalf("terminal detections must reject further transitions, got %v", err)
	}
}

func TestEvaluateValidation(t *testing.T) {
	module := NewInMemoryModule(nil)
	ctx := context.Background()

	if _, err := module.Handler.EvaluateHandler(ctx, "", httptransport.EvaluateEventRequest{UserID: "user-1", EventType: "login"}); !errors.Is(err, domainerrors.ErrTenantRequired) {
		t.Fatalf("expected ErrTenantRequired, got %v", err)
	}
	if _, err := module.Handler.EvaluateHandler(ctx, testTenant, httptransport.EvaluateEventRequest{EventType: "login"}); !errors.Is(err, domainerrors.ErrInvalidEventInput) {
		t.Fatalf("expected ErrInvalidEventInput for missing user, got %v", err)
	}
}

func TestBaselineQueryDerivesWindowFromHistory(t *testing.T) {
	module := NewInMemoryModule(nil)
	module.Store.SeedAdminApps("user-1", "app-iam")
	hours := []int{3, 9, 9, 10, 10, 11, 11, 12, 12, 23}
	for i, hour := range hours {
		occurred := testDay.AddDate(0, 0, -(len(hours) - i)).Add(time.Duration(hour) * time.Hour)
		module.Store.SetNow(occurred)
		evaluate(t, module, httptransport.EvaluateEventRequest{Location: "Berlin", OccurredAt: occurred})
	}
	module.Store.SetNow(testDay.Add(12 * time.Hour))

	baseline, err := module.Handler.BaselineHandler(context.Background(), testTenant, "user-1")
	if err != nil {
		t.Fatalf("baseline failed: %v", err)
	}
	if baseline.StartHour != 9 || baseline.EndHour != 22 {
		t.Fatalf("expected 9-22 window, got %d-%d", baseline.StartHour, baseline.EndHour)
	}
	if baseline.SampleCount != len(hours) {
		t.Fatalf("expected %d samples, got %d", len(hours), baseline.SampleCount)
	}
	if len(baseline.KnownLocations) != 1 || baseline.KnownLocations[0] != "Berlin" {
		t.Fatalf("expected Berlin known, got %v", baseline.KnownLocations)
	}
	if len(baseline.AdminAppIDs) != 1 || baseline.AdminAppIDs[0] != "app-iam" {
		t.Fatalf("expected admin app set, got %v", baseline.AdminAppIDs)
	}
}

func TestListDetectionsFilter(t *testing.T) {
	module := NewInMemoryModule(nil)
	module.Store.SetNow(at(20, 0))
	evaluate(t, module, httptransport.EvaluateEventRequest{OccurredAt: at(20, 0)})

	open, err := module.Handler.ListHandler(context.Background(), testTenant, ports.DetectionFilter{UserID: "user-1", Status: "open"})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(open) != 1 {
		t.Fatalf("expected one open detection, got %d", len(open))
	}
	none, err := module.Handler.ListHandler(context.Background(), testTenant, ports.DetectionFilter{Severity: "critical"})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("expected no critical detections, got %d", len(none))
	}
}
