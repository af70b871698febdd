package queries

import (
	"context"
	"strings"

	"castellan/contexts/governance/anomaly-service/domain/entities"
	domainerrors "castellan/contexts/governance/anomaly-service/domain/errors"
	"castellan/contexts/governance/anomaly-service/ports"
)

// GetDetectionQuery fetches one detection.
type GetDetectionQuery struct {
	TenantID    string
	DetectionID string
}

type GetDetectionUseCase struct {
	Detections ports.DetectionRepository
}

func (u GetDetectionUseCase) Execute(ctx context.Context, query GetDetectionQuery) (entities.Detection, error) {
	tenantID := strings.TrimSpace(query.TenantID)
	if tenantID == "" {
		return entities.Detection{}, domainerrors.ErrTenantRequired
	}
	return u.Detections.GetDetection(ctx, tenantID, strings.TrimSpace(query.DetectionID))
}

// ListDetectionsQuery lists detections, optionally narrowed by user, status,
// severity, or anomaly type.
type ListDetectionsQuery struct {
	TenantID string
	Filter   ports.DetectionFilter
}

type ListDetectionsUseCase struct {
	Detections ports.DetectionRepository
}

func (u ListDetectionsUseCase) Execute(ctx context.Context, query ListDetectionsQuery) ([]entities.Detection, error) {
	tenantID := strings.TrimSpace(query.TenantID)
	if tenantID == "" {
		return nil, domainerrors.ErrTenantRequired
	}
	return u.Detections.ListDetections(ctx, tenantID, query.Filter)
}
