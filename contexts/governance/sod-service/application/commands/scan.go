package commands

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	application "castellan/contexts/governance/sod-service/application"
	"castellan/contexts/governance/sod-service/domain/entities"
	domainerrors "castellan/contexts/governance/sod-service/domain/errors"
	"castellan/contexts/governance/sod-service/domain/services"
	"castellan/contexts/governance/sod-service/ports"
	contractsv1 "castellan/contracts/gen/events/v1"
)

// TopicCriticalViolation carries newly detected critical-severity violations.
const TopicCriticalViolation = "sod.critical_violation"

// ScanCommand requests a violation sweep over one rule or all active rules.
type ScanCommand struct {
	TenantID string
	RuleID   string // empty means all active rules
	ActorID  string
}

// ScanUseCase walks tenant users and persists violations for users holding
// both sides of an active rule. Per-user lookup failures are logged and
// skipped so the sweep completes for everyone else.
type ScanUseCase struct {
	Rules       ports.RuleRepository
	Violations  ports.ViolationRepository
	Directory   ports.Directory
	Outbox      ports.OutboxWriter
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

func (u ScanUseCase) Execute(ctx context.Context, cmd ScanCommand) (entities.ScanResult, error) {
	logger := application.ResolveLogger(u.Logger)
	cmd.TenantID = strings.TrimSpace(cmd.TenantID)
	if cmd.TenantID == "" {
		return entities.ScanResult{}, domainerrors.ErrTenantRequired
	}

	rules, err := u.resolveRules(ctx, cmd)
	if err != nil {
		return entities.ScanResult{}, err
	}

	userIDs, err := u.Directory.ListUserIDs(ctx, cmd.TenantID)
	if err != nil {
		return entities.ScanResult{}, err
	}

	now := u.Clock.Now().UTC()
	result := entities.ScanResult{
		TotalUsers:       len(userIDs),
		CountsBySeverity: make(map[entities.Severity]int),
	}

	for _, userID := range userIDs {
		held, err := u.Directory.ListUserHeldApps(ctx, cmd.TenantID, userID)
		if err != nil {
			result.UsersSkipped++
			logger.Warn("scan skipped user after entitlement lookup failure",
				"event", "sod_scan_user_skipped",
				"module", "governance/sod-service",
				"layer", "application",
				"tenant_id", cmd.TenantID,
				"user_id", userID,
				"error", err.Error(),
			)
			continue
		}
		result.UsersScanned++

		for _, rule := range rules {
			created, err := u.detectForUser(ctx, cmd.TenantID, userID, rule, held, now)
			if err != nil {
				logger.Warn("scan violation write failed",
					"event", "sod_scan_write_failed",
					"module", "governance/sod-service",
					"layer", "application",
					"tenant_id", cmd.TenantID,
					"user_id", userID,
					"rule_id", rule.RuleID,
					"error", err.Error(),
				)
				continue
			}
			if created != nil {
				result.ViolationsFound++
				result.CountsBySeverity[created.Severity]++
			}
		}
	}

	logger.Info("sod scan completed",
		"event", "sod_scan_completed",
		"module", "governance/sod-service",
		"layer", "application",
		"tenant_id", cmd.TenantID,
		"rule_id", cmd.RuleID,
		"total_users", result.TotalUsers,
		"users_skipped", result.UsersSkipped,
		"violations_found", result.ViolationsFound,
	)
	return result, nil
}

func (u ScanUseCase) resolveRules(ctx context.Context, cmd ScanCommand) ([]entities.Rule, error) {
	if strings.TrimSpace(cmd.RuleID) != "" {
		rule, err := u.Rules.GetRule(ctx, cmd.TenantID, strings.TrimSpace(cmd.RuleID))
		if err != nil {
			return nil, err
		}
		if !rule.IsActive {
			return []entities.Rule{}, nil
		}
		return []entities.Rule{rule}, nil
	}
	return u.Rules.ListRules(ctx, cmd.TenantID, ports.RuleFilter{ActiveOnly: true})
}

// detectForUser returns the created violation, or nil when the rule does not
// apply or an open violation already covers the pair.
func (u ScanUseCase) detectForUser(
	ctx context.Context,
	tenantID, userID string,
	rule entities.Rule,
	held []services.HeldApp,
	now time.Time,
) (*entities.Violation, error) {
	if !rule.IsActive || rule.Exempts(userID) {
		return nil, nil
	}
	first, second, both := services.HoldsBothSides(rule, held)
	if !both {
		return nil, nil
	}

	if _, exists, err := u.Violations.FindOpenViolation(ctx, tenantID, userID, rule.RuleID); err != nil {
		return nil, err
	} else if exists {
		return nil, nil
	}

	violationID, err := u.IDGenerator.NewID(ctx)
	if err != nil {
		return nil, err
	}
	violation := entities.Violation{
		ViolationID: violationID,
		TenantID:    tenantID,
		UserID:      userID,
		RuleID:      rule.RuleID,
		RuleName:    rule.Name,
		AppID1:      rule.AppID1,
		AppID2:      rule.AppID2,
		AppName1:    first.AppName,
		AppName2:    second.AppName,
		Severity:    rule.Severity,
		Status:      entities.ViolationStatusOpen,
		DetectedAt:  now,
	}
	if err := u.Violations.CreateViolation(ctx, violation); err != nil {
		// Lost the insert race to a concurrent scan; the open violation exists.
		if errors.Is(err, domainerrors.ErrDuplicateOpenViolation) {
			return nil, nil
		}
		return nil, err
	}

	if violation.Severity == entities.SeverityCritical && u.Outbox != nil {
		if err := u.appendCriticalEvent(ctx, violation, now); err != nil {
			application.ResolveLogger(u.Logger).Error("critical violation event append failed",
				"event", "sod_critical_event_append_failed",
				"module", "governance/sod-service",
				"layer", "application",
				"tenant_id", tenantID,
				"violation_id", violation.ViolationID,
				"error", err.Error(),
			)
		}
	}
	return &violation, nil
}

type criticalViolationPayload struct {
	ViolationID string `json:"violation_id"`
	TenantID    string `json:"tenant_id"`
	UserID      string `json:"user_id"`
	RuleID      string `json:"rule_id"`
	RuleName    string `json:"rule_name"`
	AppName1    string `json:"app_name_1"`
	AppName2    string `json:"app_name_2"`
	Severity    string `json:"severity"`
}

func (u ScanUseCase) appendCriticalEvent(ctx context.Context, violation entities.Violation, now time.Time) error {
	eventID, err := u.IDGenerator.NewID(ctx)
	if err != nil {
		return err
	}
	data, err := json.Marshal(criticalViolationPayload{
		ViolationID: violation.ViolationID,
		TenantID:    violation.TenantID,
		UserID:      violation.UserID,
		RuleID:      violation.RuleID,
		RuleName:    violation.RuleName,
		AppName1:    violation.AppName1,
		AppName2:    violation.AppName2,
		Severity:    string(violation.Severity),
	})
	if err != nil {
		return err
	}
	return u.Outbox.AppendOutbox(ctx, ports.EventEnvelope{
		EventID:          eventID,
		EventType:        TopicCriticalViolation,
		OccurredAt:       now,
		SourceService:    "governance/sod-service",
		SchemaVersion:    contractsv1.CurrentSchemaVersion,
		PartitionKeyPath: contractsv1.PartitionKeyPathTenant,
		PartitionKey:     violation.TenantID,
		Data:             data,
	})
}
