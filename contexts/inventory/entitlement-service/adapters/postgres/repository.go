package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"castellan/contexts/inventory/entitlement-service/domain/entities"
	domainerrors "castellan/contexts/inventory/entitlement-service/domain/errors"
	"castellan/contexts/inventory/entitlement-service/ports"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
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

func (r *Repository) CreateApplication(ctx context.Context, app entities.Application) error {
	row := applicationModelFromEntity(app)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrInvalidApplicationData
		}
		return err
	}
	return nil
}

func (r *Repository) GetApplication(ctx context.Context, tenantID, appID string) (entities.Application, error) {
	var row applicationModel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND app_id = ?", tenantID, strings.TrimSpace(appID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Application{}, domainerrors.ErrApplicationNotFound
		}
		return entities.Application{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) ListApplications(ctx context.Context, tenantID string, filter ports.ApplicationFilter) ([]entities.Application, error) {
	tx := r.db.WithContext(ctx).Model(&applicationModel{}).Where("tenant_id = ?", tenantID)
	if strings.TrimSpace(filter.Category) != "" {
		tx = tx.Where("category = ?", strings.TrimSpace(filter.Category))
	}
	if filter.MinRiskScore > 0 {
		tx = tx.Where("risk_score >= ?", filter.MinRiskScore)
	}

	var rows []applicationModel
	if err := tx.Order("name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	items := make([]entities.Application, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) CreateUser(ctx context.Context, user entities.User) error {
	row := userModelFromEntity(user)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrInvalidUserData
		}
		return err
	}
	return nil
}

func (r *Repository) GetUser(ctx context.Context, tenantID, userID string) (entities.User, error) {
	var row userModel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND user_id = ?", tenantID, strings.TrimSpace(userID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.User{}, domainerrors.ErrUserNotFound
		}
		return entities.User{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) ListUsers(ctx context.Context, tenantID string) ([]entities.User, error) {
	var rows []userModel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("email ASC").
		Find(&rows).
		Error
	if err != nil {
		return nil, err
	}
	items := make([]entities.User, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) GrantEntitlement(ctx context.Context, grant entities.Entitlement) error {
	row := entitlementModelFromEntity(grant)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		// Partial unique index on (tenant_id, user_id, app_id) WHERE status = 'active'.
		if isUniqueViolation(err) {
			return domainerrors.ErrEntitlementExists
		}
		return err
	}
	return nil
}

func (r *Repository) UpdateEntitlementAccess(ctx context.Context, tenantID, userID, appID string, accessType entities.AccessType, now time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&entitlementModel{}).
		Where("tenant_id = ? AND user_id = ? AND app_id = ? AND status = ?",
			tenantID, strings.TrimSpace(userID), strings.TrimSpace(appID), string(entities.EntitlementStatusActive)).
		Updates(map[string]any{
			"access_type": string(accessType),
			"updated_at":  now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrEntitlementNotFound
	}
	return nil
}

func (r *Repository) RevokeEntitlement(ctx context.Context, tenantID, userID, appID, revokedBy string, now time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&entitlementModel{}).
		Where("tenant_id = ? AND user_id = ? AND app_id = ? AND status = ?",
			tenantID, strings.TrimSpace(userID), strings.TrimSpace(appID), string(entities.EntitlementStatusActive)).
		Updates(map[string]any{
			"status":     string(entities.EntitlementStatusRevoked),
			"revoked_at": now,
			"revoked_by": revokedBy,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrEntitlementNotFound
	}
	return nil
}

func (r *Repository) ListUserEntitlements(ctx context.Context, tenantID, userID string) ([]entities.Entitlement, error) {
	var rows []entitlementModel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND user_id = ? AND status = ?",
			tenantID, strings.TrimSpace(userID), string(entities.EntitlementStatusActive)).
		Order("app_id ASC").
		Find(&rows).
		Error
	if err != nil {
		return nil, err
	}
	items := make([]entities.Entitlement, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) ListAppEntitlements(ctx context.Context, tenantID, appID string) ([]entities.Entitlement, error) {
	var rows []entitlementModel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND app_id = ? AND status = ?",
			tenantID, strings.TrimSpace(appID), string(entities.EntitlementStatusActive)).
		Order("user_id ASC").
		Find(&rows).
		Error
	if err != nil {
		return nil, err
	}
	items := make([]entities.Entitlement, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

type applicationModel struct {
	AppID     string    `gorm:"column:app_id;primaryKey"`
	TenantID  string    `gorm:"column:tenant_id"`
	Name      string    `gorm:"column:name"`
	Category  string    `gorm:"column:category"`
	OwnerID   string    `gorm:"column:owner_id"`
	RiskScore int       `gorm:"column:risk_score"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (applicationModel) TableName() string {
	return "applications"
}

func applicationModelFromEntity(item entities.Application) applicationModel {
	return applicationModel{
		AppID:     strings.TrimSpace(item.AppID),
		TenantID:  strings.TrimSpace(item.TenantID),
		Name:      item.Name,
		Category:  item.Category,
		OwnerID:   item.OwnerID,
		RiskScore: item.RiskScore,
		CreatedAt: item.CreatedAt,
		UpdatedAt: item.UpdatedAt,
	}
}

func (m applicationModel) toEntity() entities.Application {
	return entities.Application{
		AppID:     m.AppID,
		TenantID:  m.TenantID,
		Name:      m.Name,
		Category:  m.Category,
		OwnerID:   m.OwnerID,
		RiskScore: m.RiskScore,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

type userModel struct {
	UserID      string    `gorm:"column:user_id;primaryKey"`
	TenantID    string    `gorm:"column:tenant_id"`
	Email       string    `gorm:"column:email"`
	DisplayName string    `gorm:"column:display_name"`
	Department  string    `gorm:"column:department"`
	ManagerID   string    `gorm:"column:manager_id"`
	Status      string    `gorm:"column:status"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (userModel) TableName() string {
	return "users"
}

func userModelFromEntity(item entities.User) userModel {
	return userModel{
		UserID:      strings.TrimSpace(item.UserID),
		TenantID:    strings.TrimSpace(item.TenantID),
		Email:       item.Email,
		DisplayName: item.DisplayName,
		Department:  item.Department,
		ManagerID:   item.ManagerID,
		Status:      string(item.Status),
		CreatedAt:   item.CreatedAt,
		UpdatedAt:   item.UpdatedAt,
	}
}

func (m userModel) toEntity() entities.User {
	return entities.User{
		UserID:      m.UserID,
		TenantID:    m.TenantID,
		Email:       m.Email,
		DisplayName: m.DisplayName,
		Department:  m.Department,
		ManagerID:   m.ManagerID,
		Status:      entities.UserStatus(m.Status),
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

type entitlementModel struct {
	EntitlementID string     `gorm:"column:entitlement_id;primaryKey"`
	TenantID      string     `gorm:"column:tenant_id"`
	UserID        string     `gorm:"column:user_id"`
	AppID         string     `gorm:"column:app_id"`
	AccessType    string     `gorm:"column:access_type"`
	Status        string     `gorm:"column:status"`
	GrantedBy     string     `gorm:"column:granted_by"`
	GrantedAt     time.Time  `gorm:"column:granted_at"`
	ExpiresAt     *time.Time `gorm:"column:expires_at"`
	RevokedAt     *time.Time `gorm:"column:revoked_at"`
	RevokedBy     string     `gorm:"column:revoked_by"`
	UpdatedAt     time.Time  `gorm:"column:updated_at"`
}

func (entitlementModel) TableName() string {
	return "entitlements"
}

func entitlementModelFromEntity(item entities.Entitlement) entitlementModel {
	return entitlementModel{
		EntitlementID: strings.TrimSpace(item.EntitlementID),
		TenantID:      strings.TrimSpace(item.TenantID),
		UserID:        strings.TrimSpace(item.UserID),
		AppID:         strings.TrimSpace(item.AppID),
		AccessType:    string(item.AccessType),
		Status:        string(item.Status),
		GrantedBy:     item.GrantedBy,
		GrantedAt:     item.GrantedAt,
		ExpiresAt:     item.ExpiresAt,
		RevokedAt:     item.RevokedAt,
		RevokedBy:     item.RevokedBy,
		UpdatedAt:     item.GrantedAt,
	}
}

func (m entitlementModel) toEntity() entities.Entitlement {
	return entities.Entitlement{
		EntitlementID: m.EntitlementID,
		TenantID:      m.TenantID,
		UserID:        m.UserID,
		AppID:         m.AppID,
		AccessType:    entities.AccessType(m.AccessType),
		Status:        entities.EntitlementStatus(m.Status),
		GrantedBy:     m.GrantedBy,
		GrantedAt:     m.GrantedAt,
		ExpiresAt:     m.ExpiresAt,
		RevokedAt:     m.RevokedAt,
		RevokedBy:     m.RevokedBy,
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
