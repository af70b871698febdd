package httpadapter

import (
	"context"
	"log/slog"

	"castellan/contexts/inventory/entitlement-service/application"
	"castellan/contexts/inventory/entitlement-service/domain/entities"
	"castellan/contexts/inventory/entitlement-service/ports"
	httptransport "castellan/contexts/inventory/entitlement-service/transport/http"
)

// Handler maps HTTP DTOs to application use cases.
type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

func (h Handler) RegisterApplicationHandler(
	ctx context.Context,
	tenantID string,
	request httptransport.RegisterApplicationRequest,
) (httptransport.ApplicationResponse, error) {
	app, err := h.Service.RegisterApplication(ctx, application.RegisterApplicationInput{
		TenantID:  tenantID,
		Name:      request.Name,
		Category:  request.Category,
		OwnerID:   request.OwnerID,
		RiskScore: request.RiskScore,
	})
	if err != nil {
		return httptransport.ApplicationResponse{}, err
	}
	return applicationResponse(app), nil
}

func (h Handler) ListApplicationsHandler(ctx context.Context, tenantID string) ([]httptransport.ApplicationResponse, error) {
	apps, err := h.Service.ListApplications(ctx, tenantID, ports.ApplicationFilter{})
	if err != nil {
		return nil, err
	}
	items := make([]httptransport.ApplicationResponse, 0, len(apps))
	for _, app := range apps {
		items = append(items, applicationResponse(app))
	}
	return items, nil
}

func (h Handler) RegisterUserHandler(
	ctx context.Context,
	tenantID string,
	request httptransport.RegisterUserRequest,
) (httptransport.UserResponse, error) {
	user, err := h.Service.RegisterUser(ctx, application.RegisterUserInput{
		TenantID:    tenantID,
		Email:       request.Email,
		DisplayName: request.DisplayName,
		Department:  request.Department,
		ManagerID:   request.ManagerID,
	})
	if err != nil {
		return httptransport.UserResponse{}, err
	}
	return userResponse(user), nil
}

func (h Handler) GrantHandler(
	ctx context.Context,
	tenantID string,
	request httptransport.GrantEntitlementRequest,
) (httptransport.EntitlementResponse, error) {
	grant, err := h.Service.Grant(ctx, application.GrantInput{
		TenantID:   tenantID,
		UserID:     request.UserID,
		AppID:      request.AppID,
		AccessType: entities.AccessType(request.AccessType),
		GrantedBy:  request.GrantedBy,
		ExpiresAt:  request.ExpiresAt,
	})
	if err != nil {
		return httptransport.EntitlementResponse{}, err
	}
	return entitlementResponse(grant), nil
}

func (h Handler) ChangeAccessHandler(ctx context.Context, tenantID, userID, appID string, request httptransport.ChangeAccessRequest) error {
	return h.Service.ChangeAccessType(ctx, tenantID, userID, appID, entities.AccessType(request.AccessType))
}

func (h Handler) RevokeHandler(ctx context.Context, tenantID, userID, appID string, request httptransport.RevokeEntitlementRequest) error {
	return h.Service.Revoke(ctx, tenantID, userID, appID, request.RevokedBy)
}

func (h Handler) GetApplicationHandler(ctx context.Context, tenantID, appID string) (httptransport.ApplicationResponse, error) {
	app, err := h.Service.GetApplication(ctx, tenantID, appID)
	if err != nil {
		return httptransport.ApplicationResponse{}, err
	}
	return applicationResponse(app), nil
}

func (h Handler) GetUserHandler(ctx context.Context, tenantID, userID string) (httptransport.UserResponse, error) {
	user, err := h.Service.GetUser(ctx, tenantID, userID)
	if err != nil {
		return httptransport.UserResponse{}, err
	}
	return userResponse(user), nil
}

func (h Handler) ListUsersHandler(ctx context.Context, tenantID string) ([]httptransport.UserResponse, error) {
	users, err := h.Service.ListUsers(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	items := make([]httptransport.UserResponse, 0, len(users))
	for _, user := range users {
		items = append(items, userResponse(user))
	}
	return items, nil
}

func (h Handler) ListUserEntitlementsHandler(ctx context.Context, tenantID, userID string) ([]httptransport.EntitlementResponse, error) {
	grants, err := h.Service.ListUserEntitlements(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}
	items := make([]httptransport.EntitlementResponse, 0, len(grants))
	for _, grant := range grants {
		items = append(items, entitlementResponse(grant))
	}
	return items, nil
}

func applicationResponse(app entities.Application) httptransport.ApplicationResponse {
	return httptransport.ApplicationResponse{
		AppID:     app.AppID,
		Name:      app.Name,
		Category:  app.Category,
		OwnerID:   app.OwnerID,
		RiskScore: app.RiskScore,
		CreatedAt: app.CreatedAt,
	}
}

func userResponse(user entities.User) httptransport.UserResponse {
	return httptransport.UserResponse{
		UserID:      user.UserID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Department:  user.Department,
		ManagerID:   user.ManagerID,
		Status:      string(user.Status),
	}
}

func entitlementResponse(grant entities.Entitlement) httptransport.EntitlementResponse {
	return httptransport.EntitlementResponse{
		EntitlementID: grant.EntitlementID,
		UserID:        grant.UserID,
		AppID:         grant.AppID,
		AccessType:    string(grant.AccessType),
		Status:        string(grant.Status),
		GrantedBy:     grant.GrantedBy,
		GrantedAt:     grant.GrantedAt,
		ExpiresAt:     grant.ExpiresAt,
	}
}
