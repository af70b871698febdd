package entities

import "time"

// Baseline captures a user's normal behavior over the trailing 30 days.
// It is derived on demand and never persisted.
type Baseline struct {
	UserID string

	// Normal login-hour window, half-open [StartHour, EndHour).
	StartHour int
	EndHour   int

	TypicalDays    []time.Weekday
	KnownLocations []string
	AdminAppIDs    []string

	// SampleCount is the number of login samples the window was derived
	// from; below the minimum the defaults apply.
	SampleCount int
}

func (b Baseline) KnowsLocation(location string) bool {
	for _, known := range b.KnownLocations {
		if known == location {
			return true
		}
	}
	return false
}

func (b Baseline) HasAdminApp(appID string) bool {
	for _, known := range b.AdminAppIDs {
		if known == appID {
			return true
		}
	}
	return false
}
