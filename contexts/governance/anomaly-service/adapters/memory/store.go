package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"castellan/contexts/governance/anomaly-service/domain/entities"
	domainerrors "castellan/contexts/governance/anomaly-service/domain/errors"
	"castellan/contexts/governance/anomaly-service/domain/services"
	"castellan/contexts/governance/anomaly-service/ports"

	"github.com/google/uuid"
)

// Store is an in-memory adapter implementing activity log, detection
// repository, directory, publisher, clock, and id generator ports. Intended
// for tests and local wiring.
type Store struct {
	mu sync.RWMutex

	events     []entities.ActivityEvent
	detections map[string]entities.Detection
	adminApps  map[string][]string // userID -> appIDs

	published []PublishedEvent
	now       time.Time
}

// PublishedEvent records one bus delivery for asserts.
type PublishedEvent struct {
	Topic    string
	Envelope ports.EventEnvelope
}

func NewStore() *Store {
	return &Store{
		detections: make(map[string]entities.Detection),
		adminApps:  make(map[string][]string),
	}
}

// SetNow pins the clock for deterministic tests. Zero means wall clock.
func (s *Store) SetNow(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Store) Now() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.now.IsZero() {
		return time.Now().UTC()
	}
	return s.now
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

// SeedAdminApps registers the apps where the user holds admin access.
func (s *Store) SeedAdminApps(userID string, appIDs ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.adminApps[userID] = append([]string(nil), appIDs...)
}

// Published returns recorded bus deliveries.
func (s *Store) Published() []PublishedEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]PublishedEvent(nil), s.published...)
}

func (s *Store) RecordEvent(_ context.Context, event entities.ActivityEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *Store) LoginSamples(_ context.Context, tenantID, userID string, since time.Time) ([]services.LoginSample, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var samples []services.LoginSample
	for _, event := range s.events {
		if event.TenantID != tenantID || event.UserID != userID {
			continue
		}
		if event.EventType != entities.EventTypeLogin || event.OccurredAt.Before(since) {
			continue
		}
		samples = append(samples, services.LoginSample{
			OccurredAt: event.OccurredAt,
			Location:   event.Location,
		})
	}
	return samples, nil
}

func (s *Store) CountEventsSince(_ context.Context, tenantID, userID, eventType string, since time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, event := range s.events {
		if event.TenantID != tenantID || event.UserID != userID {
			continue
		}
		if event.EventType == eventType && !event.OccurredAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (s *Store) CountDistinctAppsSince(_ context.Context, tenantID, userID string, since time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	apps := make(map[string]struct{})
	for _, event := range s.events {
		if event.TenantID != tenantID || event.UserID != userID {
			continue
		}
		if event.AppID != "" && !event.OccurredAt.Before(since) {
			apps[event.AppID] = struct{}{}
		}
	}
	return len(apps), nil
}

func (s *Store) CreateDetection(_ context.Context, detection entities.Detection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.detections[detection.DetectionID] = detection
	return nil
}

func (s *Store) GetDetection(_ context.Context, tenantID, detectionID string) (entities.Detection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	detection, exists := s.detections[detectionID]
	if !exists || detection.TenantID != tenantID {
		return entities.Detection{}, domainerrors.ErrDetectionNotFound
	}
	return detection, nil
}

func (s *Store) UpdateDetection(_ context.Context, detection entities.Detection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, exists := s.detections[detection.DetectionID]
	if !exists || existing.TenantID != detection.TenantID {
		return domainerrors.ErrDetectionNotFound
	}
	s.detections[detection.DetectionID] = detection
	return nil
}

func (s *Store) ListDetections(_ context.Context, tenantID string, filter ports.DetectionFilter) ([]entities.Detection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []entities.Detection
	for _, detection := range s.detections {
		if detection.TenantID != tenantID {
			continue
		}
		if filter.UserID != "" && detection.UserID != filter.UserID {
			continue
		}
		if filter.Status != "" && detection.Status != filter.Status {
			continue
		}
		if filter.Severity != "" && detection.Severity != filter.Severity {
			continue
		}
		if filter.AnomalyType != "" && detection.AnomalyType != filter.AnomalyType {
			continue
		}
		out = append(out, detection)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].DetectedAt.After(out[j].DetectedAt)
	})
	return out, nil
}

func (s *Store) HasRecentOpenDetection(_ context.Context, tenantID, userID string, anomalyType entities.AnomalyType, since time.Time) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, detection := range s.detections {
		if detection.TenantID != tenantID || detection.UserID != userID {
			continue
		}
		if detection.AnomalyType != anomalyType || !detection.Open() {
			continue
		}
		if !detection.DetectedAt.Before(since) {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) AdminAppIDs(_ context.Context, _ string, userID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.adminApps[userID]...), nil
}

func (s *Store) Publish(_ context.Context, topic string, event ports.EventEnvelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.published = append(s.published, PublishedEvent{Topic: topic, Envelope: event})
	return nil
}
