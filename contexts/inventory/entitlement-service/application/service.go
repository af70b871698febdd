package application

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"castellan/contexts/inventory/entitlement-service/domain/entities"
	domainerrors "castellan/contexts/inventory/entitlement-service/domain/errors"
	"castellan/contexts/inventory/entitlement-service/ports"
)

// Service exposes the inventory use cases over explicit ports.
type Service struct {
	Repo        ports.Repository
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

// RegisterApplicationInput is transport-agnostic application registration input.
type RegisterApplicationInput struct {
	TenantID  string
	Name      string
	Category  string
	OwnerID   string
	RiskScore int
}

func (s Service) RegisterApplication(ctx context.Context, input RegisterApplicationInput) (entities.Application, error) {
	logger := ResolveLogger(s.Logger)
	input.TenantID = strings.TrimSpace(input.TenantID)
	input.Name = strings.TrimSpace(input.Name)
	if input.TenantID == "" {
		return entities.Application{}, domainerrors.ErrTenantRequired
	}

	appID, err := s.IDGenerator.NewID(ctx)
	if err != nil {
		return entities.Application{}, err
	}
	now := s.Clock.Now().UTC()
	app := entities.Application{
		AppID:     appID,
		TenantID:  input.TenantID,
		Name:      input.Name,
		Category:  strings.TrimSpace(input.Category),
		OwnerID:   strings.TrimSpace(input.OwnerID),
		RiskScore: input.RiskScore,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if !app.ValidateBasics() {
		return entities.Application{}, domainerrors.ErrInvalidApplicationData
	}
	if err := s.Repo.CreateApplication(ctx, app); err != nil {
		return entities.Application{}, err
	}

	logger.Info("application registered",
		"event", "inventory_application_registered",
		"module", "inventory/entitlement-service",
		"layer", "application",
		"tenant_id", app.TenantID,
		"app_id", app.AppID,
		"risk_score", app.RiskScore,
	)
	return app, nil
}

// RegisterUserInput is transport-agnostic user registration input.
type RegisterUserInput struct {
	TenantID    string
	Email       string
	DisplayName string
	Department  string
	ManagerID   string
}

func (s Service) RegisterUser(ctx context.Context, input RegisterUserInput) (entities.User, error) {
	input.TenantID = strings.TrimSpace(input.TenantID)
	input.Email = strings.TrimSpace(strings.ToLower(input.Email))
	if input.TenantID == "" {
		return entities.User{}, domainerrors.ErrTenantRequired
	}
	if input.Email == "" || !strings.Contains(input.Email, "@") {
		return entities.User{}, domainerrors.ErrInvalidUserData
	}

	userID, err := s.IDGenerator.NewID(ctx)
	if err != nil {
		return entities.User{}, err
	}
	now := s.Clock.Now().UTC()
	user := entities.User{
		UserID:      userID,
		TenantID:    input.TenantID,
		Email:       input.Email,
		DisplayName: strings.TrimSpace(input.DisplayName),
		Department:  strings.TrimSpace(input.Department),
		ManagerID:   strings.TrimSpace(input.ManagerID),
		Status:      entities.UserStatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.Repo.CreateUser(ctx, user); err != nil {
		return entities.User{}, err
	}
	return user, nil
}

// GrantInput describes a new access grant.
type GrantInput struct {
	TenantID   string
	UserID     string
	AppID      string
	AccessType entities.AccessType
	GrantedBy  string
	ExpiresAt  *time.Time
}

func (s Service) Grant(ctx context.Context, input GrantInput) (entities.Entitlement, error) {
	logger := ResolveLogger(s.Logger)
	input.TenantID = strings.TrimSpace(input.TenantID)
	input.UserID = strings.TrimSpace(input.UserID)
	input.AppID = strings.TrimSpace(input.AppID)
	if input.TenantID == "" {
		return entities.Entitlement{}, domainerrors.ErrTenantRequired
	}
	if !entities.ValidAccessType(input.AccessType) {
		return entities.Entitlement{}, domainerrors.ErrInvalidAccessType
	}
	if _, err := s.Repo.GetUser(ctx, input.TenantID, input.UserID); err != nil {
		return entities.Entitlement{}, err
	}
	if _, err := s.Repo.GetApplication(ctx, input.TenantID, input.AppID); err != nil {
		return entities.Entitlement{}, err
	}

	entitlementID, err := s.IDGenerator.NewID(ctx)
	if err != nil {
		return entities.Entitlement{}, err
	}
	grant := entities.Entitlement{
		EntitlementID: entitlementID,
		TenantID:      input.TenantID,
		UserID:        input.UserID,
		AppID:         input.AppID,
		AccessType:    input.AccessType,
		Status:        entities.EntitlementStatusActive,
		GrantedBy:     strings.TrimSpace(input.GrantedBy),
		GrantedAt:     s.Clock.Now().UTC(),
		ExpiresAt:     input.ExpiresAt,
	}
	if err := s.Repo.GrantEntitlement(ctx, grant); err != nil {
		return entities.Entitlement{}, err
	}

	logger.Info("entitlement granted",
		"event", "inventory_entitlement_granted",
		"module", "inventory/entitlement-service",
		"layer", "application",
		"tenant_id", grant.TenantID,
		"user_id", grant.UserID,
		"app_id", grant.AppID,
		"access_type", string(grant.AccessType),
	)
	return grant, nil
}

func (s Service) ChangeAccessType(ctx context.Context, tenantID, userID, appID string, accessType entities.AccessType) error {
	tenantID = strings.TrimSpace(tenantID)
	if tenantID == "" {
		return domainerrors.ErrTenantRequired
	}
	if !entities.ValidAccessType(accessType) {
		return domainerrors.ErrInvalidAccessType
	}
	return s.Repo.UpdateEntitlementAccess(ctx, tenantID, strings.TrimSpace(userID), strings.TrimSpace(appID), accessType, s.Clock.Now().UTC())
}

func (s Service) Revoke(ctx context.Context, tenantID, userID, appID, revokedBy string) error {
	tenantID = strings.TrimSpace(tenantID)
	if tenantID == "" {
		return domainerrors.ErrTenantRequired
	}
	logger := ResolveLogger(s.Logger)
	err := s.Repo.RevokeEntitlement(ctx, tenantID, strings.TrimSpace(userID), strings.TrimSpace(appID), strings.TrimSpace(revokedBy), s.Clock.Now().UTC())
	if err != nil {
		return err
	}
	logger.Info("entitlement revoked",
		"event", "inventory_entitlement_revoked",
		"module", "inventory/entitlement-service",
		"layer", "application",
		"tenant_id", tenantID,
		"user_id", userID,
		"app_id", appID,
	)
	return nil
}

func (s Service) ListUserEntitlements(ctx context.Context, tenantID, userID string) ([]entities.Entitlement, error) {
	tenantID = strings.TrimSpace(tenantID)
	if tenantID == "" {
		return nil, domainerrors.ErrTenantRequired
	}
	return s.Repo.ListUserEntitlements(ctx, tenantID, strings.TrimSpace(userID))
}

func (s Service) GetApplication(ctx context.Context, tenantID, appID string) (entities.Application, error) {
	return s.Repo.GetApplication(ctx, strings.TrimSpace(tenantID), strings.TrimSpace(appID))
}

func (s Service) ListApplications(ctx context.Context, tenantID string, filter ports.ApplicationFilter) ([]entities.Application, error) {
	tenantID = strings.TrimSpace(tenantID)
	if tenantID == "" {
		return nil, domainerrors.ErrTenantRequired
	}
	return s.Repo.ListApplications(ctx, tenantID, filter)
}

func (s Service) GetUser(ctx context.Context, tenantID, userID string) (entities.User, error) {
	return s.Repo.GetUser(ctx, strings.TrimSpace(tenantID), strings.TrimSpace(userID))
}

func (s Service) ListUsers(ctx context.Context, tenantID string) ([]entities.User, error) {
	tenantID = strings.TrimSpace(tenantID)
	if tenantID == "" {
		return nil, domainerrors.ErrTenantRequired
	}
	return s.Repo.ListUsers(ctx, tenantID)
}
