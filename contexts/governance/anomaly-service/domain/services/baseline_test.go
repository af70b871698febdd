package services

import (
	"fmt"
	"testing"
	"time"

	"castellan/contexts/governance/anomaly-service/domain/entities"
)

// 2026-03-02 is a Monday.
var monday = time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)

func loginAt(day time.Time, hour int, location string) LoginSample {
	return LoginSample{
		OccurredAt: time.Date(day.Year(), day.Month(), day.Day(), hour, 0, 0, 0, time.UTC),
		Location:   location,
	}
}

func TestComputeBaselineDefaultsBelowSampleMinimum(t *testing.T) {
	samples := []LoginSample{
		loginAt(monday, 3, "Berlin"),
		loginAt(monday.AddDate(0, 0, 1), 23, "Berlin"),
		loginAt(monday.AddDate(0, 0, 2), 23, "Lisbon"),
	}

	baseline := ComputeBaseline("user-1", samples, nil)
	if baseline.StartHour != 8 || baseline.EndHour != 18 {
		t.Fatalf("expected default 08-18 window, got %d-%d", baseline.StartHour, baseline.EndHour)
	}
	if len(baseline.TypicalDays) != 5 || baseline.TypicalDays[0] != time.Monday {
		t.Fatalf("expected Monday-Friday default, got %v", baseline.TypicalDays)
	}
	// Locations are collected regardless of the sample minimum.
	if len(baseline.KnownLocations) != 2 {
		t.Fatalf("expected 2 known locations, got %v", baseline.KnownLocations)
	}
	if baseline.SampleCount != 3 {
		t.Fatalf("expected sample count 3, got %d", baseline.SampleCount)
	}
}

func TestComputeBaselinePercentileWindowWithClamp(t *testing.T) {
	hours := []int{3, 9, 9, 10, 10, 11, 11, 12, 12, 23}
	samples := make([]LoginSample, 0, len(hours))
	for i, hour := range hours {
		samples = append(samples, loginAt(monday.AddDate(0, 0, i), hour, "Berlin"))
	}

	baseline := ComputeBaseline("user-1", samples, nil)
	// Nearest-rank p10 of the sorted hours is 9; p90 is 23, clamped to 22.
	if baseline.StartHour != 9 || baseline.EndHour != 22 {
		t.Fatalf("expected 9-22 window, got %d-%d", baseline.StartHour, baseline.EndHour)
	}
}

func TestComputeBaselineDegenerateWindowKeepsDefaults(t *testing.T) {
	samples := make([]LoginSample, 0, 10)
	for i := 0; i < 10; i++ {
		samples = append(samples, loginAt(monday.AddDate(0, 0, i), 10, ""))
	}

	baseline := ComputeBaseline("user-1", samples, nil)
	if baseline.StartHour != 8 || baseline.EndHour != 18 {
		t.Fatalf("identical login hours must keep the default window, got %d-%d", baseline.StartHour, baseline.EndHour)
	}
}

func TestComputeBaselineTypicalDayShare(t *testing.T) {
	samples := make([]LoginSample, 0, 20)
	for week := 0; week < 18; week++ {
		samples = append(samples, loginAt(monday.AddDate(0, 0, 7*week), 9, ""))
	}
	samples = append(samples, loginAt(monday.AddDate(0, 0, 1), 9, ""))  // one Tuesday
	samples = append(samples, loginAt(monday.AddDate(0, 0, 5), 11, "")) // one Saturday

	baseline := ComputeBaseline("user-1", samples, nil)
	// 10% of 20 samples is 2; single-day outliers fall below it.
	if len(baseline.TypicalDays) != 1 || baseline.TypicalDays[0] != time.Monday {
		t.Fatalf("expected Monday only, got %v", baseline.TypicalDays)
	}
}

func TestComputeBaselineCapsKnownLocations(t *testing.T) {
	samples := make([]LoginSample, 0, 25)
	for i := 0; i < 25; i++ {
		samples = append(samples, loginAt(monday.AddDate(0, 0, i), 9, fmt.Sprintf("city-%d", i)))
	}

	baseline := ComputeBaseline("user-1", samples, nil)
	if len(baseline.KnownLocations) != 20 {
		t.Fatalf("expected location cap of 20, got %d", len(baseline.KnownLocations))
	}
}

func TestBaselineLookupHelpers(t *testing.T) {
	baseline := entities.Baseline{
		KnownLocations: []string{"Berlin"},
		AdminAppIDs:    []string{"app-iam"},
	}
	if !baseline.KnowsLocation("Berlin") || baseline.KnowsLocation("Lisbon") {
		t.Fatal("location lookup mismatch")
	}
	if !baseline.HasAdminApp("app-iam") || baseline.HasAdminApp("app-crm") {
		t.Fatal("admin app lookup mismatch")
	}
}
