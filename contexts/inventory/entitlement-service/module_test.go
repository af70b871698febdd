package entitlementservice

import (
	"context"
	"errors"
	"testing"
	"time"

	domainerrors "castellan/contexts/inventory/entitlement-service/domain/errors"
	httptransport "castellan/contexts/inventory/entitlement-service/transport/http"
)

func newTestModule(now time.Time) Module {
	module := NewInMemoryModule(nil)
	module.Store.SetNow(now)
	return module
}

func registerUser(t *testing.T, module Module, tenantID, email string) httptransport.UserResponse {
	t.Helper()
	user, err := module.Handler.RegisterUserHandler(context.Background(), tenantID, httptransport.RegisterUserRequest{
		Email:       email,
		DisplayName: "Test User",
		Department:  "Finance",
	})
	if err != nil {
		t.Fatalf("register user: %v", err)
	}
	return user
}

func registerApp(t *testing.T, module Module, tenantID, name string, risk int) httptransport.ApplicationResponse {
	t.Helper()
	app, err := module.Handler.RegisterApplicationHandler(context.Background(), tenantID, httptransport.RegisterApplicationRequest{
		Name:      name,
		Category:  "finance",
		OwnerID:   "owner-1",
		RiskScore: risk,
	})
	if err != nil {
		t.Fatalf("register application: %v", err)
	}
	return app
}

func grant(t *testing.T, module Module, tenantID, userID, appID, accessType string) httptransport.EntitlementResponse {
	t.Helper()
	ent, err := module.Handler.GrantHandler(context.Background(), tenantID, httptransport.GrantEntitlementRequest{
		UserID:     userID,
		AppID:      appID,
		AccessType: accessType,
		GrantedBy:  "admin-1",
	})
	if err != nil {
		t.Fatalf("grant entitlement: %v", err)
	}
	return ent
}

func TestRegisterApplicationAssignsIDAndTimestamps(t *testing.T) {
	now := time.Date(2026, time.February, 10, 9, 0, 0, 0, time.UTC)
	module := newTestModule(now)

	app := registerApp(t, module, "tenant-1", "NetSuite", 72)
	if app.AppID == "" {
		t.Fatal("expected generated app id")
	}
	if !app.CreatedAt.Equal(now) {
		t.Fatalf("expected created at %v, got %v", now, app.CreatedAt)
	}

	got, err := module.Handler.GetApplicationHandler(context.Background(), "tenant-1", app.AppID)
	if err != nil {
		t.Fatalf("get application: %v", err)
	}
	if got.Name != "NetSuite" || got.RiskScore != 72 {
		t.Fatalf("unexpected application: %+v", got)
	}
}

func TestRegisterApplicationValidation(t *testing.T) {
	module := newTestModule(time.Date(2026, time.February, 10, 9, 0, 0, 0, time.UTC))

	_, err := module.Handler.RegisterApplicationHandler(context.Background(), "tenant-1", httptransport.RegisterApplicationRequest{
		Name:      "",
		RiskScore: 50,
	})
	if !errors.Is(err, domainerrors.ErrInvalidApplicationData) {
		t.Fatalf("expected ErrInvalidApplicationData for empty name, got %v", err)
	}

	_, err = module.Handler.RegisterApplicationHandler(context.Background(), "tenant-1", httptransport.RegisterApplicationRequest{
		Name:      "Jira",
		RiskScore: 120,
	})
	if !errors.Is(err, domainerrors.ErrInvalidApplicationData) {
		t.Fatalf("expected ErrInvalidApplicationData for out-of-range risk, got %v", err)
	}

	_, err = module.Handler.RegisterApplicationHandler(context.Background(), "", httptransport.RegisterApplicationRequest{
		Name:      "Jira",
		RiskScore: 40,
	})
	if !errors.Is(err, domainerrors.ErrTenantRequired) {
		t.Fatalf("expected ErrTenantRequired, got %v", err)
	}
}

func TestRegisterUserNormalizesEmail(t *testing.T) {
	module := newTestModule(time.Date(2026, time.February, 10, 9, 0, 0, 0, time.UTC))

	user := registerUser(t, module, "tenant-1", "Ana.Silva@Example.COM")
	if user.Email != "ana.silva@example.com" {
		t.Fatalf("expected lowercased email, got %q", user.Email)
	}
	if user.Status != "active" {
		t.Fatalf("expected active status, got %q", user.Status)
	}

	_, err := module.Handler.RegisterUserHandler(context.Background(), "tenant-1", httptransport.RegisterUserRequest{
		Email:       "not-an-email",
		DisplayName: "Broken",
	})
	if !errors.Is(err, domainerrors.ErrInvalidUserData) {
		t.Fatalf("expected ErrInvalidUserData, got %v", err)
	}
}

func TestGrantRequiresExistingUserAndApplication(t *testing.T) {
	module := newTestModule(time.Date(2026, time.February, 10, 9, 0, 0, 0, time.UTC))
	app := registerApp(t, module, "tenant-1", "Salesforce", 60)
	user := registerUser(t, module, "tenant-1", "ana@example.com")

	_, err := module.Handler.GrantHandler(context.Background(), "tenant-1", httptransport.GrantEntitlementRequest{
		UserID:     "missing-user",
		AppID:      app.AppID,
		AccessType: "viewer",
		GrantedBy:  "admin-1",
	})
	if !errors.Is(err, domainerrors.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}

	_, err = module.Handler.GrantHandler(context.Background(), "tenant-1", httptransport.GrantEntitlementRequest{
		UserID:     user.UserID,
		AppID:      "missing-app",
		AccessType: "viewer",
		GrantedBy:  "admin-1",
	})
	if !errors.Is(err, domainerrors.ErrApplicationNotFound) {
		t.Fatalf("expected ErrApplicationNotFound, got %v", err)
	}

	_, err = module.Handler.GrantHandler(context.Background(), "tenant-1", httptransport.GrantEntitlementRequest{
		UserID:     user.UserID,
		AppID:      app.AppID,
		AccessType: "superuser",
		GrantedBy:  "admin-1",
	})
	if !errors.Is(err, domainerrors.ErrInvalidAccessType) {
		t.Fatalf("expected ErrInvalidAccessType, got %v", err)
	}
}

func TestGrantRejectsDuplicateActiveEntitlement(t *testing.T) {
	module := newTestModule(time.Date(2026, time.February, 10, 9, 0, 0, 0, time.UTC))
	app := registerApp(t, module, "tenant-1", "Salesforce", 60)
	user := registerUser(t, module, "tenant-1", "ana@example.com")

	grant(t, module, "tenant-1", user.UserID, app.AppID, "editor")

	_, err := module.Handler.GrantHandler(context.Background(), "tenant-1", httptransport.GrantEntitlementRequest{
		UserID:     user.UserID,
		AppID:      app.AppID,
		AccessType: "viewer",
		GrantedBy:  "admin-1",
	})
	if !errors.Is(err, domainerrors.ErrEntitlementExists) {
		t.Fatalf("expected ErrEntitlementExists, got %v", err)
	}
}

func TestRevokeThenRegrant(t *testing.T) {
	now := time.Date(2026, time.February, 10, 9, 0, 0, 0, time.UTC)
	module := newTestModule(now)
	app := registerApp(t, module, "tenant-1", "Salesforce", 60)
	user := registerUser(t, module, "tenant-1", "ana@example.com")
	grant(t, module, "tenant-1", user.UserID, app.AppID, "editor")

	err := module.Handler.RevokeHandler(context.Background(), "tenant-1", user.UserID, app.AppID, httptransport.RevokeEntitlementRequest{
		RevokedBy: "admin-2",
	})
	if err != nil {
		t.Fatalf("revoke: %v", err)
	}

	listed, err := module.Handler.ListUserEntitlementsHandler(context.Background(), "tenant-1", user.UserID)
	if err != nil {
		t.Fatalf("list entitlements: %v", err)
	}
	if len(listed) != 1 || listed[0].Status != "revoked" {
		t.Fatalf("expected one revoked entitlement, got %+v", listed)
	}

	err = module.Handler.RevokeHandler(context.Background(), "tenant-1", user.UserID, app.AppID, httptransport.RevokeEntitlementRequest{
		RevokedBy: "admin-2",
	})
	if !errors.Is(err, domainerrors.ErrEntitlementNotFound) {
		t.Fatalf("expected ErrEntitlementNotFound on second revoke, got %v", err)
	}

	regrant := grant(t, module, "tenant-1", user.UserID, app.AppID, "viewer")
	if regrant.Status != "active" || regrant.AccessType != "viewer" {
		t.Fatalf("unexpected regrant: %+v", regrant)
	}
}

func TestChangeAccessType(t *testing.T) {
	module := newTestModule(time.Date(2026, time.February, 10, 9, 0, 0, 0, time.UTC))
	app := registerApp(t, module, "tenant-1", "Salesforce", 60)
	user := registerUser(t, module, "tenant-1", "ana@example.com")

	err := module.Handler.ChangeAccessHandler(context.Background(), "tenant-1", user.UserID, app.AppID, httptransport.ChangeAccessRequest{AccessType: "admin"})
	if !errors.Is(err, domainerrors.ErrEntitlementNotFound) {
		t.Fatalf("expected ErrEntitlementNotFound without active grant, got %v", err)
	}

	grant(t, module, "tenant-1", user.UserID, app.AppID, "viewer")
	err = module.Handler.ChangeAccessHandler(context.Background(), "tenant-1", user.UserID, app.AppID, httptransport.ChangeAccessRequest{AccessType: "admin"})
	if err != nil {
		t.Fatalf("change access: %v", err)
	}

	err = module.Handler.ChangeAccessHandler(context.Background(), "tenant-1", user.UserID, app.AppID, httptransport.ChangeAccessRequest{AccessType: "root"})
	if !errors.Is(err, domainerrors.ErrInvalidAccessType) {
		t.Fatalf("expected ErrInvalidAccessType, got %v", err)
	}

	listed, err := module.Handler.ListUserEntitlementsHandler(context.Background(), "tenant-1", user.UserID)
	if err != nil {
		t.Fatalf("list entitlements: %v", err)
	}
	if len(listed) != 1 || listed[0].AccessType != "admin" {
		t.Fatalf("expected access type admin, got %+v", listed)
	}
}

func TestListUsersAndApplicationsAreTenantScoped(t *testing.T) {
	module := newTestModule(time.Date(2026, time.February, 10, 9, 0, 0, 0, time.UTC))

	registerApp(t, module, "tenant-1", "Salesforce", 60)
	registerApp(t, module, "tenant-2", "Workday", 40)
	registerUser(t, module, "tenant-1", "ana@example.com")
	registerUser(t, module, "tenant-2", "bruno@example.com")

	apps, err := module.Handler.ListApplicationsHandler(context.Background(), "tenant-1")
	if err != nil {
		t.Fatalf("list applications: %v", err)
	}
	if len(apps) != 1 || apps[0].Name != "Salesforce" {
		t.Fatalf("expected only tenant-1 applications, got %+v", apps)
	}

	users, err := module.Handler.ListUsersHandler(context.Background(), "tenant-2")
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if len(users) != 1 || users[0].Email != "bruno@example.com" {
		t.Fatalf("expected only tenant-2 users, got %+v", users)
	}

	_, err = module.Handler.GetUserHandler(context.Background(), "tenant-1", users[0].UserID)
	if !errors.Is(err, domainerrors.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound across tenants, got %v", err)
	}
}
