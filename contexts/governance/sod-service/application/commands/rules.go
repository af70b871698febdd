package commands

import (
	"context"
	"log/slog"
	"strings"

	application "castellan/contexts/governance/sod-service/application"
	"castellan/contexts/governance/sod-service/domain/entities"
	domainerrors "castellan/contexts/governance/sod-service/domain/errors"
	"castellan/contexts/governance/sod-service/ports"
)

// CreateRuleCommand contains transport-agnostic rule creation input.
type CreateRuleCommand struct {
	TenantID            string
	Name                string
	Severity            entities.Severity
	AppID1              string
	AppID2              string
	Rationale           string
	ComplianceFramework string
	ExemptUserIDs       []string
	IsActive            bool
	ActorID             string
}

// CreateRuleUseCase validates and persists a rule, then sweeps it when active.
type CreateRuleUseCase struct {
	Rules       ports.RuleRepository
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Scan        *ScanUseCase
	Logger      *slog.Logger
}

func (u CreateRuleUseCase) Execute(ctx context.Context, cmd CreateRuleCommand) (entities.Rule, error) {
	logger := application.ResolveLogger(u.Logger)
	cmd.TenantID = strings.TrimSpace(cmd.TenantID)
	cmd.Name = strings.TrimSpace(cmd.Name)
	cmd.AppID1 = strings.TrimSpace(cmd.AppID1)
	cmd.AppID2 = strings.TrimSpace(cmd.AppID2)

	if cmd.TenantID == "" {
		return entities.Rule{}, domainerrors.ErrTenantRequired
	}
	if cmd.Name == "" || cmd.AppID1 == "" || cmd.AppID2 == "" {
		return entities.Rule{}, domainerrors.ErrInvalidRuleInput
	}
	if cmd.AppID1 == cmd.AppID2 {
		return entities.Rule{}, domainerrors.ErrSameAppPair
	}
	if !entities.ValidSeverity(cmd.Severity) {
		return entities.Rule{}, domainerrors.ErrInvalidSeverity
	}

	ruleID, err := u.IDGenerator.NewID(ctx)
	if err != nil {
		return entities.Rule{}, err
	}
	now := u.Clock.Now().UTC()
	rule := entities.Rule{
		RuleID:              ruleID,
		TenantID:            cmd.TenantID,
		Name:                cmd.Name,
		Severity:            cmd.Severity,
		AppID1:              cmd.AppID1,
		AppID2:              cmd.AppID2,
		Rationale:           strings.TrimSpace(cmd.Rationale),
		ComplianceFramework: strings.TrimSpace(cmd.ComplianceFramework),
		ExemptUserIDs:       append([]string(nil), cmd.ExemptUserIDs...),
		IsActive:            cmd.IsActive,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := u.Rules.CreateRule(ctx, rule); err != nil {
		return entities.Rule{}, err
	}

	logger.Info("sod rule created",
		"event", "sod_rule_created",
		"module", "governance/sod-service",
		"layer", "application",
		"tenant_id", rule.TenantID,
		"rule_id", rule.RuleID,
		"severity", string(rule.Severity),
		"is_active", rule.IsActive,
	)

	if rule.IsActive && u.Scan != nil {
		if _, err := u.Scan.Execute(ctx, ScanCommand{TenantID: rule.TenantID, RuleID: rule.RuleID, ActorID: cmd.ActorID}); err != nil {
			logger.Error("post-create scan failed",
				"event", "sod_rule_post_create_scan_failed",
				"module", "governance/sod-service",
				"layer", "application",
				"tenant_id", rule.TenantID,
				"rule_id", rule.RuleID,
				"error", err.Error(),
			)
		}
	}
	return rule, nil
}

// UpdateRuleCommand patches mutable rule fields.
type UpdateRuleCommand struct {
	TenantID            string
	RuleID              string
	Name                *string
	Severity            *entities.Severity
	Rationale           *string
	ComplianceFramework *string
	ExemptUserIDs       *[]string
	ActorID             string
}

// UpdateRuleUseCase applies a partial update and re-sweeps active rules.
type UpdateRuleUseCase struct {
	Rules  ports.RuleRepository
	Clock  ports.Clock
	Scan   *ScanUseCase
	Logger *slog.Logger
}

func (u UpdateRuleUseCase) Execute(ctx context.Context, cmd UpdateRuleCommand) (entities.Rule, error) {
	cmd.TenantID = strings.TrimSpace(cmd.TenantID)
	if cmd.TenantID == "" {
		return entities.Rule{}, domainerrors.ErrTenantRequired
	}
	rule, err := u.Rules.GetRule(ctx, cmd.TenantID, strings.TrimSpace(cmd.RuleID))
	if err != nil {
		return entities.Rule{}, err
	}

	if cmd.Name != nil {
		if strings.TrimSpace(*cmd.Name) == "" {
			return entities.Rule{}, domainerrors.ErrInvalidRuleInput
		}
		rule.Name = strings.TrimSpace(*cmd.Name)
	}
	if cmd.Severity != nil {
		if !entities.ValidSeverity(*cmd.Severity) {
			return entities.Rule{}, domainerrors.ErrInvalidSeverity
		}
		rule.Severity = *cmd.Severity
	}
	if cmd.Rationale != nil {
		rule.Rationale = strings.TrimSpace(*cmd.Rationale)
	}
	if cmd.ComplianceFramework != nil {
		rule.ComplianceFramework = strings.TrimSpace(*cmd.ComplianceFramework)
	}
	if cmd.ExemptUserIDs != nil {
		rule.ExemptUserIDs = append([]string(nil), (*cmd.ExemptUserIDs)...)
	}
	rule.UpdatedAt = u.Clock.Now().UTC()

	if err := u.Rules.UpdateRule(ctx, rule); err != nil {
		return entities.Rule{}, err
	}

	if rule.IsActive && u.Scan != nil {
		if _, err := u.Scan.Execute(ctx, ScanCommand{TenantID: rule.TenantID, RuleID: rule.RuleID, ActorID: cmd.ActorID}); err != nil {
			application.ResolveLogger(u.Logger).Error("post-update scan failed",
				"event", "sod_rule_post_update_scan_failed",
				"module", "governance/sod-service",
				"layer", "application",
				"tenant_id", rule.TenantID,
				"rule_id", rule.RuleID,
				"error", err.Error(),
			)
		}
	}
	return rule, nil
}

// ToggleRuleCommand activates or deactivates a rule.
type ToggleRuleCommand struct {
	TenantID string
	RuleID   string
	IsActive bool
	ActorID  string
}

// ToggleRuleUseCase flips activation. Activating re-triggers a sweep for the
// rule; deactivating mass-resolves its open violations.
type ToggleRuleUseCase struct {
	Rules      ports.RuleRepository
	Violations ports.ViolationRepository
	Clock      ports.Clock
	Scan       *ScanUseCase
	Logger     *slog.Logger
}

func (u ToggleRuleUseCase) Execute(ctx context.Context, cmd ToggleRuleCommand) (entities.Rule, error) {
	logger := application.ResolveLogger(u.Logger)
	cmd.TenantID = strings.TrimSpace(cmd.TenantID)
	if cmd.TenantID == "" {
		return entities.Rule{}, domainerrors.ErrTenantRequired
	}
	rule, err := u.Rules.GetRule(ctx, cmd.TenantID, strings.TrimSpace(cmd.RuleID))
	if err != nil {
		return entities.Rule{}, err
	}
	if rule.IsActive == cmd.IsActive {
		return rule, nil
	}

	now := u.Clock.Now().UTC()
	rule.IsActive = cmd.IsActive
	rule.UpdatedAt = now
	if err := u.Rules.UpdateRule(ctx, rule); err != nil {
		return entities.Rule{}, err
	}

	if cmd.IsActive {
		if u.Scan != nil {
			if _, err := u.Scan.Execute(ctx, ScanCommand{TenantID: rule.TenantID, RuleID: rule.RuleID, ActorID: cmd.ActorID}); err != nil {
				logger.Error("post-activate scan failed",
					"event", "sod_rule_post_activate_scan_failed",
					"module", "governance/sod-service",
					"layer", "application",
					"tenant_id", rule.TenantID,
					"rule_id", rule.RuleID,
					"error", err.Error(),
				)
			}
		}
		return rule, nil
	}

	resolved, err := u.Violations.ResolveOpenViolationsForRule(ctx, rule.TenantID, rule.RuleID, entities.ViolationStatusAccepted, "rule deactivated", now)
	if err != nil {
		return entities.Rule{}, err
	}
	logger.Info("sod rule deactivated",
		"event", "sod_rule_deactivated",
		"module", "governance/sod-service",
		"layer", "application",
		"tenant_id", rule.TenantID,
		"rule_id", rule.RuleID,
		"violations_resolved", resolved,
	)
	return rule, nil
}

// DeleteRuleCommand removes a rule and its violations.
type DeleteRuleCommand struct {
	TenantID string
	RuleID   string
	ActorID  string
}

// DeleteRuleUseCase cascades violation deletion before removing the rule.
type DeleteRuleUseCase struct {
	Rules      ports.RuleRepository
	Violations ports.ViolationRepository
	Logger     *slog.Logger
}

func (u DeleteRuleUseCase) Execute(ctx context.Context, cmd DeleteRuleCommand) error {
	cmd.TenantID = strings.TrimSpace(cmd.TenantID)
	if cmd.TenantID == "" {
		return domainerrors.ErrTenantRequired
	}
	cmd.RuleID = strings.TrimSpace(cmd.RuleID)
	if _, err := u.Rules.GetRule(ctx, cmd.TenantID, cmd.RuleID); err != nil {
		return err
	}
	if err := u.Violations.DeleteViolationsForRule(ctx, cmd.TenantID, cmd.RuleID); err != nil {
		return err
	}
	if err := u.Rules.DeleteRule(ctx, cmd.TenantID, cmd.RuleID); err != nil {
		return err
	}
	application.ResolveLogger(u.Logger).Info("sod rule deleted",
		"event", "sod_rule_deleted",
		"module", "governance/sod-service",
		"layer", "application",
		"tenant_id", cmd.TenantID,
		"rule_id", cmd.RuleID,
		"actor_id", cmd.ActorID,
	)
	return nil
}
