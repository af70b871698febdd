package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"castellan/contexts/governance/access-request-service/domain/entities"
	domainerrors "castellan/contexts/governance/access-request-service/domain/errors"
	"castellan/contexts/governance/access-request-service/ports"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository implements the request repository and the directory over the
// shared governance schema. Directory reads go straight to the inventory
// tables; provisioning writes entitlement rows the same way the inventory
// service would.
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

func (r *Repository) CreateRequest(ctx context.Context, request entities.AccessRequest) error {
	row, err := requestModelFromEntity(request)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(&row).Error
}

func (r *Repository) GetRequest(ctx context.Context, tenantID, requestID string) (entities.AccessRequest, error) {
	var row requestModel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND request_id = ?", tenantID, strings.TrimSpace(requestID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.AccessRequest{}, domainerrors.ErrRequestNotFound
		}
		return entities.AccessRequest{}, err
	}
	return row.toEntity()
}

func (r *Repository) UpdateRequest(ctx context.Context, request entities.AccessRequest) error {
	row, err := requestModelFromEntity(request)
	if err != nil {
		return err
	}
	result := r.db.WithContext(ctx).
		Model(&requestModel{}).
		Where("tenant_id = ? AND request_id = ?", request.TenantID, request.RequestID).
		Updates(map[string]any{
			"status":              row.Status,
			"decided_by":          row.DecidedBy,
			"decision_notes":      row.DecisionNotes,
			"decided_at":          row.DecidedAt,
			"is_overdue":          row.IsOverdue,
			"provisioning_status": row.ProvisioningStatus,
			"provisioning_error":  row.ProvisioningError,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrRequestNotFound
	}
	return nil
}

func (r *Repository) ListRequests(ctx context.Context, tenantID string, filter ports.RequestFilter) ([]entities.AccessRequest, error) {
	tx := r.db.WithContext(ctx).Model(&requestModel{}).Where("tenant_id = ?", tenantID)
	if strings.TrimSpace(filter.RequesterID) != "" {
		tx = tx.Where("requester_id = ?", strings.TrimSpace(filter.RequesterID))
	}
	if strings.TrimSpace(filter.ApproverID) != "" {
		tx = tx.Where("approver_id = ?", strings.TrimSpace(filter.ApproverID))
	}
	if filter.Status != "" {
		tx = tx.Where("status = ?", string(filter.Status))
	}

	var rows []requestModel
	if err := tx.Order("submitted_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	items := make([]entities.AccessRequest, 0, len(rows))
	for _, row := range rows {
		item, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func (r *Repository) ListPendingPastSLA(ctx context.Context, now time.Time, limit int) ([]entities.AccessRequest, error) {
	tx := r.db.WithContext(ctx).
		Model(&requestModel{}).
		Where("status = ? AND is_overdue = ? AND sla_due_at < ?", string(entities.RequestStatusPending), false, now).
		Order("sla_due_at ASC")
	if limit > 0 {
		tx = tx.Limit(limit)
	}

	var rows []requestModel
	if err := tx.Find(&rows).Error; err != nil {
		return nil, err
	}
	items := make([]entities.AccessRequest, 0, len(rows))
	for _, row := range rows {
		item, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// MarkOverdue relies on the is_overdue guard in the WHERE clause so
// concurrent sweeps flag a request exactly once.
func (r *Repository) MarkOverdue(ctx context.Context, tenantID, requestID string, _ time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&requestModel{}).
		Where("tenant_id = ? AND request_id = ? AND is_overdue = ?", tenantID, requestID, false).
		Update("is_overdue", true)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *Repository) GetApplication(ctx context.Context, tenantID, appID string) (ports.AppInfo, error) {
	var row directoryApplicationModel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND app_id = ?", tenantID, strings.TrimSpace(appID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.AppInfo{}, domainerrors.ErrApplicationNotFound
		}
		return ports.AppInfo{}, err
	}
	return ports.AppInfo{AppID: row.AppID, Name: row.Name, RiskScore: row.RiskScore}, nil
}

func (r *Repository) ManagerID(ctx context.Context, tenantID, userID string) (string, error) {
	var row directoryUserModel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND user_id = ?", tenantID, strings.TrimSpace(userID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", domainerrors.ErrUserNotFound
		}
		return "", err
	}
	return row.ManagerID, nil
}

func (r *Repository) CountActiveEntitlements(ctx context.Context, tenantID, userID string) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&directoryEntitlementModel{}).
		Where("tenant_id = ? AND user_id = ? AND status = ?", tenantID, userID, "active").
		Count(&count).
		Error
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

func (r *Repository) HasActiveEntitlement(ctx context.Context, tenantID, userID, appID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&directoryEntitlementModel{}).
		Where("tenant_id = ? AND user_id = ? AND app_id = ? AND status = ?", tenantID, userID, appID, "active").
		Count(&count).
		Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *Repository) GrantEntitlement(ctx context.Context, tenantID, userID, appID, accessType, grantedBy string, expiresAt *time.Time, now time.Time) error {
	row := directoryEntitlementModel{
		EntitlementID: uuid.NewString(),
		TenantID:      tenantID,
		UserID:        userID,
		AppID:         appID,
		AccessType:    accessType,
		Status:        "active",
		GrantedBy:     grantedBy,
		GrantedAt:     now,
		ExpiresAt:     expiresAt,
		UpdatedAt:     now,
	}
	return r.db.WithContext(ctx).Create(&row).Error
}

func (r *Repository) UpdateEntitlementAccess(ctx context.Context, tenantID, userID, appID, accessType string, now time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&directoryEntitlementModel{}).
		Where("tenant_id = ? AND user_id = ? AND app_id = ? AND status = ?", tenantID, userID, appID, "active").
		Updates(map[string]any{
			"access_type": accessType,
			"updated_at":  now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrUserNotFound
	}
	return nil
}

type requestModel struct {
	RequestID          string     `gorm:"column:request_id;primaryKey"`
	TenantID           string     `gorm:"column:tenant_id"`
	RequesterID        string     `gorm:"column:requester_id"`
	AppID              string     `gorm:"column:app_id"`
	AppName            string     `gorm:"column:app_name"`
	AccessType         string     `gorm:"column:access_type"`
	Justification      string     `gorm:"column:justification"`
	DurationType       string     `gorm:"column:duration_type"`
	DurationHours      int        `gorm:"column:duration_hours"`
	Status             string     `gorm:"column:status"`
	RiskScore          int        `gorm:"column:risk_score"`
	RiskLevel          string     `gorm:"column:risk_level"`
	RiskFactors        []byte     `gorm:"column:risk_factors;type:jsonb"`
	SodConflicts       []byte     `gorm:"column:sod_conflicts;type:jsonb"`
	ApproverID         string     `gorm:"column:approver_id"`
	DecidedBy          string     `gorm:"column:decided_by"`
	DecisionNotes      string     `gorm:"column:decision_notes"`
	SubmittedAt        time.Time  `gorm:"column:submitted_at"`
	DecidedAt          *time.Time `gorm:"column:decided_at"`
	SLADueAt           time.Time  `gorm:"column:sla_due_at"`
	IsOverdue          bool       `gorm:"column:is_overdue"`
	ProvisioningStatus string     `gorm:"column:provisioning_status"`
	ProvisioningError  string     `gorm:"column:provisioning_error"`
}

func (requestModel) TableName() string {
	return "access_requests"
}

func requestModelFromEntity(item entities.AccessRequest) (requestModel, error) {
	factors, err := json.Marshal(item.RiskFactors)
	if err != nil {
		return requestModel{}, err
	}
	conflicts, err := json.Marshal(item.SodConflicts)
	if err != nil {
		return requestModel{}, err
	}
	return requestModel{
		RequestID:          strings.TrimSpace(item.RequestID),
		TenantID:           strings.TrimSpace(item.TenantID),
		RequesterID:        item.RequesterID,
		AppID:              item.AppID,
		AppName:            item.AppName,
		AccessType:         item.AccessType,
		Justification:      item.Justification,
		DurationType:       string(item.DurationType),
		DurationHours:      item.DurationHours,
		Status:             string(item.Status),
		RiskScore:          item.RiskScore,
		RiskLevel:          string(item.RiskLevel),
		RiskFactors:        factors,
		SodConflicts:       conflicts,
		ApproverID:         item.ApproverID,
		DecidedBy:          item.DecidedBy,
		DecisionNotes:      item.DecisionNotes,
		SubmittedAt:        item.SubmittedAt,
		DecidedAt:          item.DecidedAt,
		SLADueAt:           item.SLADueAt,
		IsOverdue:          item.IsOverdue,
		ProvisioningStatus: string(item.ProvisioningStatus),
		ProvisioningError:  item.ProvisioningError,
	}, nil
}

func (m requestModel) toEntity() (entities.AccessRequest, error) {
	var factors []string
	if len(m.RiskFactors) > 0 {
		if err := json.Unmarshal(m.RiskFactors, &factors); err != nil {
			return entities.AccessRequest{}, err
		}
	}
	var conflicts []entities.ConflictSnapshot
	if len(m.SodConflicts) > 0 {
		if err := json.Unmarshal(m.SodConflicts, &conflicts); err != nil {
			return entities.AccessRequest{}, err
		}
	}
	return entities.AccessRequest{
		RequestID:          m.RequestID,
		TenantID:           m.TenantID,
		RequesterID:        m.RequesterID,
		AppID:              m.AppID,
		AppName:            m.AppName,
		AccessType:         m.AccessType,
		Justification:      m.Justification,
		DurationType:       entities.DurationType(m.DurationType),
		DurationHours:      m.DurationHours,
		Status:             entities.RequestStatus(m.Status),
		RiskScore:          m.RiskScore,
		RiskLevel:          entities.RiskLevel(m.RiskLevel),
		RiskFactors:        factors,
		SodConflicts:       conflicts,
		ApproverID:         m.ApproverID,
		DecidedBy:          m.DecidedBy,
		DecisionNotes:      m.DecisionNotes,
		SubmittedAt:        m.SubmittedAt,
		DecidedAt:          m.DecidedAt,
		SLADueAt:           m.SLADueAt,
		IsOverdue:          m.IsOverdue,
		ProvisioningStatus: entities.ProvisioningStatus(m.ProvisioningStatus),
		ProvisioningError:  m.ProvisioningError,
	}, nil
}

type directoryApplicationModel struct {
	AppID     string `gorm:"column:app_id;primaryKey"`
	TenantID  string `gorm:"column:tenant_id"`
	Name      string `gorm:"column:name"`
	RiskScore int    `gorm:"column:risk_score"`
}

func (directoryApplicationModel) TableName() string {
	return "applications"
}

type directoryUserModel struct {
	UserID    string `gorm:"column:user_id;primaryKey"`
	TenantID  string `gorm:"column:tenant_id"`
	ManagerID string `gorm:"column:manager_id"`
}

func (directoryUserModel) TableName() string {
	return "users"
}

type directoryEntitlementModel struct {
	EntitlementID string     `gorm:"column:entitlement_id;primaryKey"`
	TenantID      string     `gorm:"column:tenant_id"`
	UserID        string     `gorm:"column:user_id"`
	AppID         string     `gorm:"column:app_id"`
	AccessType    string     `gorm:"column:access_type"`
	Status        string     `gorm:"column:status"`
	GrantedBy     string     `gorm:"column:granted_by"`
	GrantedAt     time.Time  `gorm:"column:granted_at"`
	ExpiresAt     *time.Time `gorm:"column:expires_at"`
	UpdatedAt     time.Time  `gorm:"column:updated_at"`
}

func (directoryEntitlementModel) TableName() string {
	return "entitlements"
}
