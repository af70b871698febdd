package queries

import (
	"context"
	"log/slog"
	"strings"

	"castellan/contexts/governance/sod-service/domain/entities"
	domainerrors "castellan/contexts/governance/sod-service/domain/errors"
	"castellan/contexts/governance/sod-service/ports"
)

type ListViolationsQuery struct {
	TenantID string
	Filter   ports.ViolationFilter
}

type ListViolationsUseCase struct {
	Violations ports.ViolationRepository
	Logger     *slog.Logger
}

func (u ListViolationsUseCase) Execute(ctx context.Context, query ListViolationsQuery) ([]entities.Violation, error) {
	query.TenantID = strings.TrimSpace(query.TenantID)
	if query.TenantID == "" {
		return nil, domainerrors.ErrTenantRequired
	}
	return u.Violations.ListViolations(ctx, query.TenantID, query.Filter)
}

type ListRulesQuery struct {
	TenantID string
	Filter   ports.RuleFilter
}

type ListRulesUseCase struct {
	Rules  ports.RuleRepository
	Logger *slog.Logger
}

func (u ListRulesUseCase) Execute(ctx context.Context, query ListRulesQuery) ([]entities.Rule, error) {
	query.TenantID = strings.TrimSpace(query.TenantID)
	if query.TenantID == "" {
		return nil, domainerrors.ErrTenantRequired
	}
	return u.Rules.ListRules(ctx, query.TenantID, query.Filter)
}

type GetRuleQuery struct {
	TenantID string
	RuleID   string
}

type GetRuleUseCase struct {
	Rules  ports.RuleRepository
	Logger *slog.Logger
}

func (u GetRuleUseCase) Execute(ctx context.Context, query GetRuleQuery) (entities.Rule, error) {
	query.TenantID = strings.TrimSpace(query.TenantID)
	if query.TenantID == "" {
		return entities.Rule{}, domainerrors.ErrTenantRequired
	}
	return u.Rules.GetRule(ctx, query.TenantID, strings.TrimSpace(query.RuleID))
}
