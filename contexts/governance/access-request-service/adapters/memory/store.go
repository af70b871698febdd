package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"castellan/contexts/governance/access-request-service/domain/entities"
	domainerrors "castellan/contexts/governance/access-request-service/domain/errors"
	"castellan/contexts/governance/access-request-service/ports"

	"github.com/google/uuid"
)

// Store is an in-memory adapter implementing request repository, directory,
// conflict checker, publisher, clock, and id generator ports. Intended for
// tests and local wiring.
type Store struct {
	mu sync.RWMutex

	requests map[string]entities.AccessRequest

	apps         map[string]ports.AppInfo // appID -> info
	managers     map[string]string        // userID -> managerID
	entitlements map[string][]grantRow    // userID -> grants
	conflicts    map[string][]entities.ConflictSnapshot // userID|appID -> findings

	published  []PublishedEvent
	grantErr   error
	now        time.Time
}

type grantRow struct {
	AppID      string
	AccessType string
	ExpiresAt  *time.Time
	Active     bool
}

// PublishedEvent records one bus delivery for asserts.
type PublishedEvent struct {
	Topic    string
	Envelope ports.EventEnvelope
}

func NewStore() *Store {
	return &Store{
		requests:     make(map[string]entities.AccessRequest),
		apps:         make(map[string]ports.AppInfo),
		managers:     make(map[string]string),
		entitlements: make(map[string][]grantRow),
		conflicts:    make(map[string][]entities.ConflictSnapshot),
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

// SeedApplication registers an application for directory lookups.
func (s *Store) SeedApplication(info ports.AppInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apps[info.AppID] = info
}

// SeedManager wires a requester to their approver.
func (s *Store) SeedManager(userID, managerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.managers[userID] = managerID
}

// SeedEntitlement records an active grant the requester already holds.
func (s *Store) SeedEntitlement(userID, appID, accessType string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entitlements[userID] = append(s.entitlements[userID], grantRow{
		AppID:      appID,
		AccessType: accessType,
		Active:     true,
	})
}

// SeedConflicts pins the conflict findings for a candidate grant.
func (s *Store) SeedConflicts(userID, appID string, findings []entities.ConflictSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conflicts[userID+"|"+appID] = append([]entities.ConflictSnapshot(nil), findings...)
}

// FailGrants makes every provisioning call return err. Nil restores success.
func (s *Store) FailGrants(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.grantErr = err
}

// Published returns recorded bus deliveries.
func (s *Store) Published() []PublishedEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]PublishedEvent(nil), s.published...)
}

func (s *Store) CreateRequest(_ context.Context, request entities.AccessRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests[request.RequestID] = request
	return nil
}

func (s *Store) GetRequest(_ context.Context, tenantID, requestID string) (entities.AccessRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	request, exists := s.requests[requestID]
	if !exists || request.TenantID != tenantID {
		return entities.AccessRequest{}, domainerrors.ErrRequestNotFound
	}
	return request, nil
}

func (s *Store) UpdateRequest(_ context.Context, request entities.AccessRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, exists := s.requests[request.RequestID]
	if !exists || existing.TenantID != request.TenantID {
		return domainerrors.ErrRequestNotFound
	}
	s.requests[request.RequestID] = request
	return nil
}

func (s *Store) ListRequests(_ context.Context, tenantID string, filter ports.RequestFilter) ([]entities.AccessRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []entities.AccessRequest
	for _, request := range s.requests {
		if request.TenantID != tenantID {
			continue
		}
		if filter.RequesterID != "" && request.RequesterID != filter.RequesterID {
			continue
		}
		if filter.ApproverID != "" && request.ApproverID != filter.ApproverID {
			continue
		}
		if filter.Status != "" && request.Status != filter.Status {
			continue
		}
		out = append(out, request)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].SubmittedAt.After(out[j].SubmittedAt)
	})
	return out, nil
}

func (s *Store) ListPendingPastSLA(_ context.Context, now time.Time, limit int) ([]entities.AccessRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []entities.AccessRequest
	for _, request := range s.requests {
		if request.Status != entities.RequestStatusPending || request.IsOverdue {
			continue
		}
		if !request.SLADueAt.Before(now) {
			continue
		}
		out = append(out, request)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].SLADueAt.Before(out[j].SLADueAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) MarkOverdue(_ context.Context, tenantID, requestID string, _ time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	request, exists := s.requests[requestID]
	if !exists || request.TenantID != tenantID {
		return false, domainerrors.ErrRequestNotFound
	}
	if request.IsOverdue {
		return false, nil
	}
	request.IsOverdue = true
	s.requests[requestID] = request
	return true, nil
}

func (s *Store) GetApplication(_ context.Context, _ string, appID string) (ports.AppInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	info, exists := s.apps[appID]
	if !exists {
		return ports.AppInfo{}, domainerrors.ErrApplicationNotFound
	}
	return info, nil
}

func (s *Store) ManagerID(_ context.Context, _ string, userID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.managers[userID], nil
}

func (s *Store) CountActiveEntitlements(_ context.Context, _ string, userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, row := range s.entitlements[userID] {
		if row.Active {
			count++
		}
	}
	return count, nil
}

func (s *Store) HasActiveEntitlement(_ context.Context, _ string, userID, appID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, row := range s.entitlements[userID] {
		if row.Active && row.AppID == appID {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) GrantEntitlement(_ context.Context, _ string, userID, appID, accessType, _ string, expiresAt *time.Time, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.grantErr != nil {
		return s.grantErr
	}
	s.entitlements[userID] = append(s.entitlements[userID], grantRow{
		AppID:      appID,
		AccessType: accessType,
		ExpiresAt:  expiresAt,
		Active:     true,
	})
	return nil
}

func (s *Store) UpdateEntitlementAccess(_ context.Context, _ string, userID, appID, accessType string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.grantErr != nil {
		return s.grantErr
	}
	rows := s.entitlements[userID]
	for i, row := range rows {
		if row.Active && row.AppID == appID {
			rows[i].AccessType = accessType
			return nil
		}
	}
	return domainerrors.ErrUserNotFound
}

func (s *Store) Check(_ context.Context, _ string, userID, appID string) ([]entities.ConflictSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]entities.ConflictSnapshot(nil), s.conflicts[userID+"|"+appID]...), nil
}

func (s *Store) Publish(_ context.Context, topic string, event ports.EventEnvelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.published = append(s.published, PublishedEvent{Topic: topic, Envelope: event})
	return nil
}
