package services

import (
	"sort"
	"time"

	"castellan/contexts/governance/anomaly-service/domain/entities"
)

const (
	// minLoginSamples gates percentile-derived windows; below it the
	// defaults apply.
	minLoginSamples = 10

	defaultStartHour = 8
	defaultEndHour   = 18

	clampStartHour = 6
	clampEndHour   = 22

	// typicalDayShare is the fraction of login-day samples a weekday must
	// account for to count as typical.
	typicalDayShare = 0.10

	maxKnownLocations = 20
)

var defaultTypicalDays = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday,
}

// LoginSample is one login observation feeding baseline derivation.
type LoginSample struct {
	OccurredAt time.Time
	Location   string
}

// ComputeBaseline derives a user's behavioral baseline from the trailing
// window of login samples and their admin-level application set.
//
// The normal-hours window is the 10th/90th percentile of login hour, clamped
// to [6,22]; typical days are those holding at least 10% of samples. With
// fewer than 10 samples both fall back to 08-18, Monday through Friday.
// Known locations are the distinct non-empty sample locations, capped at 20.
func ComputeBaseline(userID string, samples []LoginSample, adminAppIDs []string) entities.Baseline {
	baseline := entities.Baseline{
		UserID:      userID,
		StartHour:   defaultStartHour,
		EndHour:     defaultEndHour,
		TypicalDays: append([]time.Weekday(nil), defaultTypicalDays...),
		AdminAppIDs: append([]string(nil), adminAppIDs...),
		SampleCount: len(samples),
	}

	seen := make(map[string]struct{})
	for _, sample := range samples {
		if sample.Location == "" {
			continue
		}
		if _, dup := seen[sample.Location]; dup {
			continue
		}
		if len(baseline.KnownLocations) >= maxKnownLocations {
			break
		}
		seen[sample.Location] = struct{}{}
		baseline.KnownLocations = append(baseline.KnownLocations, sample.Location)
	}

	if len(samples) < minLoginSamples {
		return baseline
	}

	hours := make([]int, 0, len(samples))
	dayCounts := make(map[time.Weekday]int)
	for _, sample := range samples {
		hours = append(hours, sample.OccurredAt.Hour())
		dayCounts[sample.OccurredAt.Weekday()]++
	}
	sort.Ints(hours)

	start := clampHour(percentile(hours, 10))
	end := clampHour(percentile(hours, 90))
	if start < end {
		baseline.StartHour = start
		baseline.EndHour = end
	}

	threshold := int(typicalDayShare * float64(len(samples)))
	if threshold < 1 {
		threshold = 1
	}
	var days []time.Weekday
	for day := time.Sunday; day <= time.Saturday; day++ {
		if dayCounts[day] >= threshold {
			days = append(days, day)
		}
	}
	if len(days) > 0 {
		baseline.TypicalDays = days
	}
	return baseline
}

// percentile picks the nearest-rank value from ascending-sorted hours.
func percentile(sorted []int, pct int) int {
	if len(sorted) == 0 {
		return 0
	}
	index := len(sorted) * pct / 100
	if index >= len(sorted) {
		index = len(sorted) - 1
	}
	return sorted[index]
}

func clampHour(hour int) int {
	if hour < clampStartHour {
		return clampStartHour
	}
	if hour > clampEndHour {
		return clampEndHour
	}
	return hour
}
