package queries

import (
	"context"
	"log/slog"
	"strings"

	application "castellan/contexts/governance/sod-service/application"
	"castellan/contexts/governance/sod-service/domain/entities"
	domainerrors "castellan/contexts/governance/sod-service/domain/errors"
	"castellan/contexts/governance/sod-service/domain/services"
	"castellan/contexts/governance/sod-service/ports"
)

// CheckViolationQuery asks whether granting candidate app access to the user
// would conflict with any active rule.
type CheckViolationQuery struct {
	TenantID       string
	UserID         string
	CandidateAppID string
}

// CheckViolationUseCase is a pure read: current entitlements plus active rules
// in, findings out. No state is written.
type CheckViolationUseCase struct {
	Rules     ports.RuleRepository
	Directory ports.Directory
	Logger    *slog.Logger
}

func (u CheckViolationUseCase) Execute(ctx context.Context, query CheckViolationQuery) ([]entities.ConflictFinding, error) {
	query.TenantID = strings.TrimSpace(query.TenantID)
	query.UserID = strings.TrimSpace(query.UserID)
	query.CandidateAppID = strings.TrimSpace(query.CandidateAppID)
	if query.TenantID == "" {
		return nil, domainerrors.ErrTenantRequired
	}

	rules, err := u.Rules.ListRules(ctx, query.TenantID, ports.RuleFilter{ActiveOnly: true, AppID: query.CandidateAppID})
	if err != nil {
		return nil, err
	}
	if len(rules) == 0 {
		return []entities.ConflictFinding{}, nil
	}

	held, err := u.Directory.ListUserHeldApps(ctx, query.TenantID, query.UserID)
	if err != nil {
		return nil, err
	}

	findings := services.FindConflicts(rules, query.UserID, held, query.CandidateAppID)
	if len(findings) > 0 {
		application.ResolveLogger(u.Logger).Info("sod conflicts detected for candidate grant",
			"event", "sod_check_conflicts_found",
			"module", "governance/sod-service",
			"layer", "application",
			"tenant_id", query.TenantID,
			"user_id", query.UserID,
			"candidate_app_id", query.CandidateAppID,
			"conflict_count", len(findings),
		)
	}
	return findings, nil
}
