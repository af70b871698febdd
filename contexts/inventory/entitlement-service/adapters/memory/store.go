package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"castellan/contexts/inventory/entitlement-service/domain/entities"
	domainerrors "castellan/contexts/inventory/entitlement-service/domain/errors"
	"castellan/contexts/inventory/entitlement-service/ports"

	"github.com/google/uuid"
)

// Store is an in-memory adapter implementing the repository, clock, and id
// generator ports. It is intended for tests and local development wiring.
type Store struct {
	mu sync.RWMutex

	applications map[string]entities.Application
	users        map[string]entities.User
	entitlements map[string]entities.Entitlement

	now time.Time
}

func NewStore() *Store {
	return &Store{
		applications: make(map[string]entities.Application),
		users:        make(map[string]entities.User),
		entitlements: make(map[string]entities.Entitlement),
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

func (s *Store) CreateApplication(_ context.Context, app entities.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.applications[app.AppID]; exists {
		return domainerrors.ErrInvalidApplicationData
	}
	s.applications[app.AppID] = app
	return nil
}

func (s *Store) GetApplication(_ context.Context, tenantID, appID string) (entities.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	app, exists := s.applications[appID]
	if !exists || app.TenantID != tenantID {
		return entities.Application{}, domainerrors.ErrApplicationNotFound
	}
	return app, nil
}

func (s *Store) ListApplications(_ context.Context, tenantID string, filter ports.ApplicationFilter) ([]entities.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.Application, 0)
	for _, app := range s.applications {
		if app.TenantID != tenantID {
			continue
		}
		if filter.Category != "" && app.Category != filter.Category {
			continue
		}
		if app.RiskScore < filter.MinRiskScore {
			continue
		}
		items = append(items, app)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items, nil
}

func (s *Store) CreateUser(_ context.Context, user entities.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[user.UserID]; exists {
		return domainerrors.ErrInvalidUserData
	}
	s.users[user.UserID] = user
	return nil
}

func (s *Store) GetUser(_ context.Context, tenantID, userID string) (entities.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, exists := s.users[userID]
	if !exists || user.TenantID != tenantID {
		return entities.User{}, domainerrors.ErrUserNotFound
	}
	return user, nil
}

func (s *Store) ListUsers(_ context.Context, tenantID string) ([]entities.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.User, 0)
	for _, user := range s.users {
		if user.TenantID == tenantID {
			items = append(items, user)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Email < items[j].Email })
	return items, nil
}

func (s *Store) GrantEntitlement(_ context.Context, grant entities.Entitlement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.entitlements {
		if existing.TenantID == grant.TenantID &&
			existing.UserID == grant.UserID &&
			existing.AppID == grant.AppID &&
			existing.Status == entities.EntitlementStatusActive {
			return domainerrors.ErrEntitlementExists
		}
	}
	s.entitlements[grant.EntitlementID] = grant
	return nil
}

func (s *Store) UpdateEntitlementAccess(_ context.Context, tenantID, userID, appID string, accessType entities.AccessType, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, existing := range s.entitlements {
		if existing.TenantID == tenantID &&
			existing.UserID == userID &&
			existing.AppID == appID &&
			existing.Status == entities.EntitlementStatusActive {
			existing.AccessType = accessType
			s.entitlements[id] = existing
			return nil
		}
	}
	return domainerrors.ErrEntitlementNotFound
}

func (s *Store) RevokeEntitlement(_ context.Context, tenantID, userID, appID, revokedBy string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, existing := range s.entitlements {
		if existing.TenantID == tenantID &&
			existing.UserID == userID &&
			existing.AppID == appID &&
			existing.Status == entities.EntitlementStatusActive {
			revokedAt := now
			existing.Status = entities.EntitlementStatusRevoked
			existing.RevokedAt = &revokedAt
			existing.RevokedBy = revokedBy
			s.entitlements[id] = existing
			return nil
		}
	}
	return domainerrors.ErrEntitlementNotFound
}

func (s *Store) ListUserEntitlements(_ context.Context, tenantID, userID string) ([]entities.Entitlement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.Entitlement, 0)
	for _, existing := range s.entitlements {
		if existing.TenantID == tenantID &&
			existing.UserID == userID &&
			existing.Status == entities.EntitlementStatusActive {
			items = append(items, existing)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].AppID < items[j].AppID })
	return items, nil
}

func (s *Store) ListAppEntitlements(_ context.Context, tenantID, appID string) ([]entities.Entitlement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.Entitlement, 0)
	for _, existing := range s.entitlements {
		if existing.TenantID == tenantID &&
			existing.AppID == appID &&
			existing.Status == entities.EntitlementStatusActive {
			items = append(items, existing)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].UserID < items[j].UserID })
	return items, nil
}
