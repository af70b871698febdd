package queries

import (
	"context"
	"strings"

	"castellan/contexts/governance/access-request-service/domain/entities"
	domainerrors "castellan/contexts/governance/access-request-service/domain/errors"
	"castellan/contexts/governance/access-request-service/ports"
)

// ListRequestsQuery lists requests, optionally narrowed by requester,
// approver, or status.
type ListRequestsQuery struct {
	TenantID    string
	RequesterID string
	ApproverID  string
	Status      entities.RequestStatus
}

type ListRequestsUseCase struct {
	Requests ports.RequestRepository
}

func (u ListRequestsUseCase) Execute(ctx context.Context, query ListRequestsQuery) ([]entities.AccessRequest, error) {
	tenantID := strings.TrimSpace(query.TenantID)
	if tenantID == "" {
		return nil, domainerrors.ErrTenantRequired
	}
	return u.Requests.ListRequests(ctx, tenantID, ports.RequestFilter{
		RequesterID: strings.TrimSpace(query.RequesterID),
		ApproverID:  strings.TrimSpace(query.ApproverID),
		Status:      query.Status,
	})
}
