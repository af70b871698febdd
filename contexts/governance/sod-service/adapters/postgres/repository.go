package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"castellan/contexts/governance/sod-service/domain/entities"
	domainerrors "castellan/contexts/governance/sod-service/domain/errors"
	"castellan/contexts/governance/sod-service/domain/services"
	"castellan/contexts/governance/sod-service/ports"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{db: db, logger: logger}
}

func (r *Repository) CreateRule(ctx context.Context, rule entities.Rule) error {
	row, err := ruleModelFromEntity(rule)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrInvalidRuleInput
		}
		return err
	}
	return nil
}

func (r *Repository) GetRule(ctx context.Context, tenantID, ruleID string) (entities.Rule, error) {
	var row ruleModel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND rule_id = ?", tenantID, strings.TrimSpace(ruleID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Rule{}, domainerrors.ErrRuleNotFound
		}
		return entities.Rule{}, err
	}
	return row.toEntity()
}

func (r *Repository) UpdateRule(ctx context.Context, rule entities.Rule) error {
	row, err := ruleModelFromEntity(rule)
	if err != nil {
		return err
	}
	result := r.db.WithContext(ctx).
		Model(&ruleModel{}).
		Where("tenant_id = ? AND rule_id = ?", rule.TenantID, rule.RuleID).
		Updates(map[string]any{
			"name":                 row.Name,
			"severity":             row.Severity,
			"rationale":            row.Rationale,
			"compliance_framework": row.ComplianceFramework,
			"exempt_user_ids":      row.ExemptUserIDs,
			"is_active":            row.IsActive,
			"updated_at":           row.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrRuleNotFound
	}
	return nil
}

func (r *Repository) DeleteRule(ctx context.Context, tenantID, ruleID string) error {
	result := r.db.WithContext(ctx).
		Where("tenant_id = ? AND rule_id = ?", tenantID, strings.TrimSpace(ruleID)).
		Delete(&ruleModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrRuleNotFound
	}
	return nil
}

func (r *Repository) ListRules(ctx context.Context, tenantID string, filter ports.RuleFilter) ([]entities.Rule, error) {
	tx := r.db.WithContext(ctx).Model(&ruleModel{}).Where("tenant_id = ?", tenantID)
	if filter.ActiveOnly {
		tx = tx.Where("is_active = ?", true)
	}
	if strings.TrimSpace(filter.Framework) != "" {
		tx = tx.Where("compliance_framework = ?", strings.TrimSpace(filter.Framework))
	}
	if strings.TrimSpace(filter.AppID) != "" {
		appID := strings.TrimSpace(filter.AppID)
		tx = tx.Where("app_id_1 = ? OR app_id_2 = ?", appID, appID)
	}

	var rows []ruleModel
	if err := tx.Order("name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	items := make([]entities.Rule, 0, len(rows))
	for _, row := range rows {
		item, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func (r *Repository) CreateViolation(ctx context.Context, violation entities.Violation) error {
	row := violationModelFromEntity(violation)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		// Partial unique index on (tenant_id, user_id, rule_id) WHERE status = 'open'
		// closes the concurrent-scan insert race.
		if isUniqueViolation(err) {
			return domainerrors.ErrDuplicateOpenViolation
		}
		return err
	}
	return nil
}

func (r *Repository) GetViolation(ctx context.Context, tenantID, violationID string) (entities.Violation, error) {
	var row violationModel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND violation_id = ?", tenantID, strings.TrimSpace(violationID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Violation{}, domainerrors.ErrViolationNotFound
		}
		return entities.Violation{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) FindOpenViolation(ctx context.Context, tenantID, userID, ruleID string) (entities.Violation, bool, error) {
	var row violationModel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND user_id = ? AND rule_id = ? AND status = ?",
			tenantID, userID, ruleID, string(entities.ViolationStatusOpen)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Violation{}, false, nil
		}
		return entities.Violation{}, false, err
	}
	return row.toEntity(), true, nil
}

func (r *Repository) UpdateViolation(ctx context.Context, violation entities.Violation) error {
	row := violationModelFromEntity(violation)
	result := r.db.WithContext(ctx).
		Model(&violationModel{}).
		Where("tenant_id = ? AND violation_id = ?", violation.TenantID, violation.ViolationID).
		Updates(map[string]any{
			"status":           row.Status,
			"resolved_at":      row.ResolvedAt,
			"resolved_by":      row.ResolvedBy,
			"resolution_notes": row.ResolutionNotes,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrViolationNotFound
	}
	return nil
}

func (r *Repository) ListViolations(ctx context.Context, tenantID string, filter ports.ViolationFilter) ([]entities.Violation, error) {
	tx := r.db.WithContext(ctx).Model(&violationModel{}).Where("tenant_id = ?", tenantID)
	if filter.UserID != "" {
		tx = tx.Where("user_id = ?", filter.UserID)
	}
	if filter.RuleID != "" {
		tx = tx.Where("rule_id = ?", filter.RuleID)
	}
	if filter.Status != "" {
		tx = tx.Where("status = ?", string(filter.Status))
	}
	if filter.Severity != "" {
		tx = tx.Where("severity = ?", string(filter.Severity))
	}

	var rows []violationModel
	if err := tx.Order("detected_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	items := make([]entities.Violation, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) ResolveOpenViolationsForRule(ctx context.Context, tenantID, ruleID string, status entities.ViolationStatus, notes string, now time.Time) (int, error) {
	result := r.db.WithContext(ctx).
		Model(&violationModel{}).
		Where("tenant_id = ? AND rule_id = ? AND status = ?", tenantID, ruleID, string(entities.ViolationStatusOpen)).
		Updates(map[string]any{
			"status":           string(status),
			"resolved_at":      now,
			"resolution_notes": notes,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return int(result.RowsAffected), nil
}

func (r *Repository) DeleteViolationsForRule(ctx context.Context, tenantID, ruleID string) error {
	return r.db.WithContext(ctx).
		Where("tenant_id = ? AND rule_id = ?", tenantID, ruleID).
		Delete(&violationModel{}).
		Error
}

// Directory reads against inventory-owned tables. The engine treats them as
// externally owned records; only tenant-scoped reads plus the remediation
// revoke write happen here.

func (r *Repository) ListUserIDs(ctx context.Context, tenantID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Table("users").
		Where("tenant_id = ? AND status = ?", tenantID, "active").
		Order("user_id ASC").
		Pluck("user_id", &ids).
		Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

type heldAppRow struct {
	AppID      string `gorm:"column:app_id"`
	AppName    string `gorm:"column:app_name"`
	AccessType string `gorm:"column:access_type"`
}

func (r *Repository) ListUserHeldApps(ctx context.Context, tenantID, userID string) ([]services.HeldApp, error) {
	var rows []heldAppRow
	err := r.db.WithContext(ctx).
		Table("entitlements AS e").
		Select("e.app_id AS app_id, a.name AS app_name, e.access_type AS access_type").
		Joins("JOIN applications a ON a.app_id = e.app_id AND a.tenant_id = e.tenant_id").
		Where("e.tenant_id = ? AND e.user_id = ? AND e.status = ?", tenantID, userID, "active").
		Order("e.app_id ASC").
		Scan(&rows).
		Error
	if err != nil {
		return nil, err
	}
	items := make([]services.HeldApp, 0, len(rows))
	for _, row := range rows {
		items = append(items, services.HeldApp{AppID: row.AppID, AppName: row.AppName, AccessType: row.AccessType})
	}
	return items, nil
}

func (r *Repository) RevokeEntitlement(ctx context.Context, tenantID, userID, appID, revokedBy string, now time.Time) error {
	result := r.db.WithContext(ctx).
		Table("entitlements").
		Where("tenant_id = ? AND user_id = ? AND app_id = ? AND status = ?", tenantID, userID, appID, "active").
		Updates(map[string]any{
			"status":     "revoked",
			"revoked_at": now,
			"revoked_by": revokedBy,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrEntitlementRevokeRejected
	}
	return nil
}

func (r *Repository) AppendOutbox(ctx context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	row := outboxModel{
		OutboxID:     envelope.EventID,
		EventType:    envelope.EventType,
		PartitionKey: envelope.PartitionKey,
		Payload:      payload,
		Status:       outboxStatusPending,
		CreatedAt:    envelope.OccurredAt,
	}
	return r.db.WithContext(ctx).Create(&row).Error
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []outboxModel
	err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).
		Error
	if err != nil {
		return nil, err
	}
	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxMessage{
			OutboxID:     row.OutboxID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      row.Payload,
			CreatedAt:    row.CreatedAt,
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", outboxID).
		Updates(map[string]any{
			"status":       outboxStatusPublished,
			"published_at": publishedAt,
		}).
		Error
}

type ruleModel struct {
	RuleID              string    `gorm:"column:rule_id;primaryKey"`
	TenantID            string    `gorm:"column:tenant_id"`
	Name                string    `gorm:"column:name"`
	Severity            string    `gorm:"column:severity"`
	AppID1              string    `gorm:"column:app_id_1"`
	AppID2              string    `gorm:"column:app_id_2"`
	Rationale           string    `gorm:"column:rationale"`
	ComplianceFramework string    `gorm:"column:compliance_framework"`
	ExemptUserIDs       []byte    `gorm:"column:exempt_user_ids;type:jsonb"`
	IsActive            bool      `gorm:"column:is_active"`
	CreatedAt           time.Time `gorm:"column:created_at"`
	UpdatedAt           time.Time `gorm:"column:updated_at"`
}

func (ruleModel) TableName() string {
	return "sod_rules"
}

func ruleModelFromEntity(item entities.Rule) (ruleModel, error) {
	exempt, err := json.Marshal(item.ExemptUserIDs)
	if err != nil {
		return ruleModel{}, err
	}
	return ruleModel{
		RuleID:              strings.TrimSpace(item.RuleID),
		TenantID:            strings.TrimSpace(item.TenantID),
		Name:                item.Name,
		Severity:            string(item.Severity),
		AppID1:              item.AppID1,
		AppID2:              item.AppID2,
		Rationale:           item.Rationale,
		ComplianceFramework: item.ComplianceFramework,
		ExemptUserIDs:       exempt,
		IsActive:            item.IsActive,
		CreatedAt:           item.CreatedAt,
		UpdatedAt:           item.UpdatedAt,
	}, nil
}

func (m ruleModel) toEntity() (entities.Rule, error) {
	var exempt []string
	if len(m.ExemptUserIDs) > 0 {
		if err := json.Unmarshal(m.ExemptUserIDs, &exempt); err != nil {
			return entities.Rule{}, err
		}
	}
	return entities.Rule{
		RuleID:              m.RuleID,
		TenantID:            m.TenantID,
		Name:                m.Name,
		Severity:            entities.Severity(m.Severity),
		AppID1:              m.AppID1,
		AppID2:              m.AppID2,
		Rationale:           m.Rationale,
		ComplianceFramework: m.ComplianceFramework,
		ExemptUserIDs:       exempt,
		IsActive:            m.IsActive,
		CreatedAt:           m.CreatedAt,
		UpdatedAt:           m.UpdatedAt,
	}, nil
}

type violationModel struct {
	ViolationID     string     `gorm:"column:violation_id;primaryKey"`
	TenantID        string     `gorm:"column:tenant_id"`
	UserID          string     `gorm:"column:user_id"`
	RuleID          string     `gorm:"column:rule_id"`
	RuleName        string     `gorm:"column:rule_name"`
	AppID1          string     `gorm:"column:app_id_1"`
	AppID2          string     `gorm:"column:app_id_2"`
	AppName1        string     `gorm:"column:app_name_1"`
	AppName2        string     `gorm:"column:app_name_2"`
	Severity        string     `gorm:"column:severity"`
	Status          string     `gorm:"column:status"`
	DetectedAt      time.Time  `gorm:"column:detected_at"`
	ResolvedAt      *time.Time `gorm:"column:resolved_at"`
	ResolvedBy      string     `gorm:"column:resolved_by"`
	ResolutionNotes string     `gorm:"column:resolution_notes"`
}

func (violationModel) TableName() string {
	return "sod_violations"
}

func violationModelFromEntity(item entities.Violation) violationModel {
	return violationModel{
		ViolationID:     strings.TrimSpace(item.ViolationID),
		TenantID:        strings.TrimSpace(item.TenantID),
		UserID:          item.UserID,
		RuleID:          item.RuleID,
		RuleName:        item.RuleName,
		AppID1:          item.AppID1,
		AppID2:          item.AppID2,
		AppName1:        item.AppName1,
		AppName2:        item.AppName2,
		Severity:        string(item.Severity),
		Status:          string(item.Status),
		DetectedAt:      item.DetectedAt,
		ResolvedAt:      item.ResolvedAt,
		ResolvedBy:      item.ResolvedBy,
		ResolutionNotes: item.ResolutionNotes,
	}
}

func (m violationModel) toEntity() entities.Violation {
	return entities.Violation{
		ViolationID:     m.ViolationID,
		TenantID:        m.TenantID,
		UserID:          m.UserID,
		RuleID:          m.RuleID,
		RuleName:        m.RuleName,
		AppID1:          m.AppID1,
		AppID2:          m.AppID2,
		AppName1:        m.AppName1,
		AppName2:        m.AppName2,
		Severity:        entities.Severity(m.Severity),
		Status:          entities.ViolationStatus(m.Status),
		DetectedAt:      m.DetectedAt,
		ResolvedAt:      m.ResolvedAt,
		ResolvedBy:      m.ResolvedBy,
		ResolutionNotes: m.ResolutionNotes,
	}
}

type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload;type:jsonb"`
	Status       string     `gorm:"column:status"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string {
	return "sod_outbox"
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
