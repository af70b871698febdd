package memory

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"castellan/contexts/governance/sod-service/domain/entities"
	domainerrors "castellan/contexts/governance/sod-service/domain/errors"
	"castellan/contexts/governance/sod-service/domain/services"
	"castellan/contexts/governance/sod-service/ports"

	"github.com/google/uuid"
)

// Store is an in-memory adapter implementing rule, violation, directory,
// outbox, clock, and id generator ports. Intended for tests and local wiring.
type Store struct {
	mu sync.RWMutex

	rules      map[string]entities.Rule
	violations map[string]entities.Violation

	heldApps map[string][]services.HeldApp // userID -> apps
	tenants  map[string]string             // userID -> tenantID
	revoked  []RevokeCall

	outbox []outboxRow

	now time.Time
}

// RevokeCall records one Directory.RevokeEntitlement invocation for asserts.
type RevokeCall struct {
	TenantID string
	UserID   string
	AppID    string
	Actor    string
}

type outboxRow struct {
	ports.OutboxMessage
	PublishedAt *time.Time
}

func NewStore() *Store {
	return &Store{
		rules:      make(map[string]entities.Rule),
		violations: make(map[string]entities.Violation),
		heldApps:   make(map[string][]services.HeldApp),
		tenants:    make(map[string]string),
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

// SeedUser registers a user and the applications they hold.
func (s *Store) SeedUser(tenantID, userID string, held ...services.HeldApp) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tenants[userID] = tenantID
	s.heldApps[userID] = append([]services.HeldApp(nil), held...)
}

// RevokeCalls returns recorded entitlement revocations.
func (s *Store) RevokeCalls() []RevokeCall {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]RevokeCall(nil), s.revoked...)
}

func (s *Store) CreateRule(_ context.Context, rule entities.Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.rules[rule.RuleID]; exists {
		return domainerrors.ErrInvalidRuleInput
	}
	s.rules[rule.RuleID] = rule
	return nil
}

func (s *Store) GetRule(_ context.Context, tenantID, ruleID string) (entities.Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rule, exists := s.rules[ruleID]
	if !exists || rule.TenantID != tenantID {
		return entities.Rule{}, domainerrors.ErrRuleNotFound
	}
	return rule, nil
}

func (s *Store) UpdateRule(_ context.Context, rule entities.Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, exists := s.rules[rule.RuleID]
	if !exists || existing.TenantID != rule.TenantID {
		return domainerrors.ErrRuleNotFound
	}
	s.rules[rule.RuleID] = rule
	return nil
}

func (s *Store) DeleteRule(_ context.Context, tenantID, ruleID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rule, exists := s.rules[ruleID]
	if !exists || rule.TenantID != tenantID {
		return domainerrors.ErrRuleNotFound
	}
	delete(s.rules, ruleID)
	return nil
}

func (s *Store) ListRules(_ context.Context, tenantID string, filter ports.RuleFilter) ([]entities.Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.Rule, 0)
	for _, rule := range s.rules {
		if rule.TenantID != tenantID {
			continue
		}
		if filter.ActiveOnly && !rule.IsActive {
			continue
		}
		if filter.Framework != "" && rule.ComplianceFramework != filter.Framework {
			continue
		}
		if filter.AppID != "" && !rule.References(filter.AppID) {
			continue
		}
		items = append(items, rule)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items, nil
}

func (s *Store) CreateViolation(_ context.Context, violation entities.Violation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.violations {
		if existing.TenantID == violation.TenantID &&
			existing.UserID == violation.UserID &&
			existing.RuleID == violation.RuleID &&
			existing.Status == entities.ViolationStatusOpen {
			return domainerrors.ErrDuplicateOpenViolation
		}
	}
	s.violations[violation.ViolationID] = violation
	return nil
}

func (s *Store) GetViolation(_ context.Context, tenantID, violationID string) (entities.Violation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	violation, exists := s.violations[violationID]
	if !exists || violation.TenantID != tenantID {
		return entities.Violation{}, domainerrors.ErrViolationNotFound
	}
	return violation, nil
}

func (s *Store) FindOpenViolation(_ context.Context, tenantID, userID, ruleID string) (entities.Violation, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, existing := range s.violations {
		if existing.TenantID == tenantID &&
			existing.UserID == userID &&
			existing.RuleID == ruleID &&
			existing.Status == entities.ViolationStatusOpen {
			return existing, true, nil
		}
	}
	return entities.Violation{}, false, nil
}

func (s *Store) UpdateViolation(_ context.Context, violation entities.Violation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, exists := s.violations[violation.ViolationID]
	if !exists || existing.TenantID != violation.TenantID {
		return domainerrors.ErrViolationNotFound
	}
	s.violations[violation.ViolationID] = violation
	return nil
}

func (s *Store) ListViolations(_ context.Context, tenantID string, filter ports.ViolationFilter) ([]entities.Violation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.Violation, 0)
	for _, violation := range s.violations {
		if violation.TenantID != tenantID {
			continue
		}
		if filter.UserID != "" && violation.UserID != filter.UserID {
			continue
		}
		if filter.RuleID != "" && violation.RuleID != filter.RuleID {
			continue
		}
		if filter.Status != "" && violation.Status != filter.Status {
			continue
		}
		if filter.Severity != "" && violation.Severity != filter.Severity {
			continue
		}
		items = append(items, violation)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].DetectedAt.Equal(items[j].DetectedAt) {
			return items[i].ViolationID < items[j].ViolationID
		}
		return items[i].DetectedAt.After(items[j].DetectedAt)
	})
	return items, nil
}

func (s *Store) ResolveOpenViolationsForRule(_ context.Context, tenantID, ruleID string, status entities.ViolationStatus, notes string, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	resolved := 0
	for id, existing := range s.violations {
		if existing.TenantID != tenantID || existing.RuleID != ruleID || existing.Status != entities.ViolationStatusOpen {
			continue
		}
		resolvedAt := now
		existing.Status = status
		existing.ResolvedAt = &resolvedAt
		existing.ResolutionNotes = notes
		s.violations[id] = existing
		resolved++
	}
	return resolved, nil
}

func (s *Store) DeleteViolationsForRule(_ context.Context, tenantID, ruleID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, existing := range s.violations {
		if existing.TenantID == tenantID && existing.RuleID == ruleID {
			delete(s.violations, id)
		}
	}
	return nil
}

func (s *Store) ListUserIDs(_ context.Context, tenantID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0)
	for userID, tenant := range s.tenants {
		if tenant == tenantID {
			ids = append(ids, userID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *Store) ListUserHeldApps(_ context.Context, tenantID, userID string) ([]services.HeldApp, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.tenants[userID] != tenantID {
		return []services.HeldApp{}, nil
	}
	return append([]services.HeldApp(nil), s.heldApps[userID]...), nil
}

func (s *Store) RevokeEntitlement(_ context.Context, tenantID, userID, appID, revokedBy string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tenants[userID] != tenantID {
		return domainerrors.ErrEntitlementRevokeRejected
	}
	held := s.heldApps[userID]
	kept := held[:0]
	found := false
	for _, app := range held {
		if app.AppID == appID {
			found = true
			continue
		}
		kept = append(kept, app)
	}
	if !found {
		return domainerrors.ErrEntitlementRevokeRejected
	}
	s.heldApps[userID] = kept
	s.revoked = append(s.revoked, RevokeCall{TenantID: tenantID, UserID: userID, AppID: appID, Actor: revokedBy})
	return nil
}

func (s *Store) AppendOutbox(_ context.Context, envelope ports.EventEnvelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	s.outbox = append(s.outbox, outboxRow{
		OutboxMessage: ports.OutboxMessage{
			OutboxID:     envelope.EventID,
			EventType:    envelope.EventType,
			PartitionKey: envelope.PartitionKey,
			Payload:      payload,
			CreatedAt:    envelope.OccurredAt,
		},
	})
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]ports.OutboxMessage, 0)
	for _, row := range s.outbox {
		if row.PublishedAt != nil {
			continue
		}
		items = append(items, row.OutboxMessage)
		if limit > 0 && len(items) >= limit {
			break
		}
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, publishedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, row := range s.outbox {
		if row.OutboxID == outboxID {
			s.outbox[i].PublishedAt = &publishedAt
			return nil
		}
	}
	return nil
}
