package queries

import (
	"context"
	"strings"
	"time"

	"castellan/contexts/governance/anomaly-service/domain/entities"
	domainerrors "castellan/contexts/governance/anomaly-service/domain/errors"
	"castellan/contexts/governance/anomaly-service/domain/services"
	"castellan/contexts/governance/anomaly-service/ports"
)

const baselineWindow = 30 * 24 * time.Hour

// GetBaselineQuery derives the user's current baseline on demand.
type GetBaselineQuery struct {
	TenantID string
	UserID   string
}

type GetBaselineUseCase struct {
	Activity  ports.ActivityLog
	Directory ports.Directory
	Clock     ports.Clock
}

func (u GetBaselineUseCase) Execute(ctx context.Context, query GetBaselineQuery) (entities.Baseline, error) {
	tenantID := strings.TrimSpace(query.TenantID)
	userID := strings.TrimSpace(query.UserID)
	if tenantID == "" {
		return entities.Baseline{}, domainerrors.ErrTenantRequired
	}

	since := u.Clock.Now().UTC().Add(-baselineWindow)
	samples, err := u.Activity.LoginSamples(ctx, tenantID, userID, since)
	if err != nil {
		return entities.Baseline{}, err
	}
	adminApps, err := u.Directory.AdminAppIDs(ctx, tenantID, userID)
	if err != nil {
		return entities.Baseline{}, err
	}
	return services.ComputeBaseline(userID, samples, adminApps), nil
}
