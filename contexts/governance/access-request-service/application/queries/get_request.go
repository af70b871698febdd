package queries

import (
	"context"
	"strings"

	"castellan/contexts/governance/access-request-service/domain/entities"
	domainerrors "castellan/contexts/governance/access-request-service/domain/errors"
	"castellan/contexts/governance/access-request-service/ports"
)

// GetRequestQuery fetches one request.
type GetRequestQuery struct {
	TenantID  string
	RequestID string
}

type GetRequestUseCase struct {
	Requests ports.RequestRepository
}

func (u GetRequestUseCase) Execute(ctx context.Context, query GetRequestQuery) (entities.AccessRequest, error) {
	tenantID := strings.TrimSpace(query.TenantID)
	if tenantID == "" {
		return entities.AccessRequest{}, domainerrors.ErrTenantRequired
	}
	return u.Requests.GetRequest(ctx, tenantID, strings.TrimSpace(query.RequestID))
}
