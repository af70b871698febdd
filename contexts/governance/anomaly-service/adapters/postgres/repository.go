package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"castellan/contexts/governance/anomaly-service/domain/entities"
	domainerrors "castellan/contexts/governance/anomaly-service/domain/errors"
	"castellan/contexts/governance/anomaly-service/domain/services"
	"castellan/contexts/governance/anomaly-service/ports"

	"gorm.io/gorm"
)

// Repository implements the activity log, detection repository, and
// directory over the shared governance schema. Directory reads go straight
// to the inventory entitlement table.
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

func (r *Repository) RecordEvent(ctx context.Context, event entities.ActivityEvent) error {
	row := activityEventModelFromEntity(event)
	return r.db.WithContext(ctx).Create(&row).Error
}

func (r *Repository) LoginSamples(ctx context.Context, tenantID, userID string, since time.Time) ([]services.LoginSample, error) {
	var rows []activityEventModel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND user_id = ? AND event_type = ? AND occurred_at >= ?",
			tenantID, userID, entities.EventTypeLogin, since).
		Order("occurred_at ASC").
		Find(&rows).
		Error
	if err != nil {
		return nil, err
	}
	samples := make([]services.LoginSample, 0, len(rows))
	for _, row := range rows {
		samples = append(samples, services.LoginSample{
			OccurredAt: row.OccurredAt,
			Location:   row.Location,
		})
	}
	return samples, nil
}

func (r *Repository) CountEventsSince(ctx context.Context, tenantID, userID, eventType string, since time.Time) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&activityEventModel{}).
		Where("tenant_id = ? AND user_id = ? AND event_type = ? AND occurred_at >= ?",
			tenantID, userID, eventType, since).
		Count(&count).
		Error
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

func (r *Repository) CountDistinctAppsSince(ctx context.Context, tenantID, userID string, since time.Time) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&activityEventModel{}).
		Where("tenant_id = ? AND user_id = ? AND app_id <> '' AND occurred_at >= ?",
			tenantID, userID, since).
		Distinct("app_id").
		Count(&count).
		Error
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

func (r *Repository) CreateDetection(ctx context.Context, detection entities.Detection) error {
	row, err := detectionModelFromEntity(detection)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(&row).Error
}

func (r *Repository) GetDetection(ctx context.Context, tenantID, detectionID string) (entities.Detection, error) {
	var row detectionModel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND detection_id = ?", tenantID, strings.TrimSpace(detectionID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Detection{}, domainerrors.ErrDetectionNotFound
		}
		return entities.Detection{}, err
	}
	return row.toEntity()
}

func (r *Repository) UpdateDetection(ctx context.Context, detection entities.Detection) error {
	result := r.db.WithContext(ctx).
		Model(&detectionModel{}).
		Where("tenant_id = ? AND detection_id = ?", detection.TenantID, detection.DetectionID).
		Updates(map[string]any{
			"status":           string(detection.Status),
			"resolved_at":      detection.ResolvedAt,
			"resolved_by":      detection.ResolvedBy,
			"resolution_notes": detection.ResolutionNotes,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrDetectionNotFound
	}
	return nil
}

func (r *Repository) ListDetections(ctx context.Context, tenantID string, filter ports.DetectionFilter) ([]entities.Detection, error) {
	tx := r.db.WithContext(ctx).Model(&detectionModel{}).Where("tenant_id = ?", tenantID)
	if strings.TrimSpace(filter.UserID) != "" {
		tx = tx.Where("user_id = ?", strings.TrimSpace(filter.UserID))
	}
	if filter.Status != "" {
		tx = tx.Where("status = ?", string(filter.Status))
	}
	if filter.Severity != "" {
		tx = tx.Where("severity = ?", string(filter.Severity))
	}
	if filter.AnomalyType != "" {
		tx = tx.Where("anomaly_type = ?", string(filter.AnomalyType))
	}

	var rows []detectionModel
	if err := tx.Order("detected_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	items := make([]entities.Detection, 0, len(rows))
	for _, row := range rows {
		item, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func (r *Repository) HasRecentOpenDetection(ctx context.Context, tenantID, userID string, anomalyType entities.AnomalyType, since time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&detectionModel{}).
		Where("tenant_id = ? AND user_id = ? AND anomaly_type = ? AND status = ? AND detected_at >= ?",
			tenantID, userID, string(anomalyType), string(entities.DetectionStatusOpen), since).
		Count(&count).
		Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *Repository) AdminAppIDs(ctx context.Context, tenantID, userID string) ([]string, error) {
	var appIDs []string
	err := r.db.WithContext(ctx).
		Table("entitlements").
		Where("tenant_id = ? AND user_id = ? AND status = ? AND access_type IN ?",
			tenantID, userID, "active", []string{"admin", "owner"}).
		Pluck("app_id", &appIDs).
		Error
	if err != nil {
		return nil, err
	}
	return appIDs, nil
}

type activityEventModel struct {
	EventID    string    `gorm:"column:event_id;primaryKey"`
	TenantID   string    `gorm:"column:tenant_id"`
	UserID     string    `gorm:"column:user_id"`
	AppID      string    `gorm:"column:app_id"`
	EventType  string    `gorm:"column:event_type"`
	IPAddress  string    `gorm:"column:ip_address"`
	Location   string    `gorm:"column:location"`
	OccurredAt time.Time `gorm:"column:occurred_at"`
}

func (activityEventModel) TableName() string {
	return "activity_events"
}

func activityEventModelFromEntity(item entities.ActivityEvent) activityEventModel {
	return activityEventModel{
		EventID:    strings.TrimSpace(item.EventID),
		TenantID:   strings.TrimSpace(item.TenantID),
		UserID:     item.UserID,
		AppID:      item.AppID,
		EventType:  item.EventType,
		IPAddress:  item.IPAddress,
		Location:   item.Location,
		OccurredAt: item.OccurredAt,
	}
}

type detectionModel struct {
	DetectionID     string     `gorm:"column:detection_id;primaryKey"`
	TenantID        string     `gorm:"column:tenant_id"`
	UserID          string     `gorm:"column:user_id"`
	AnomalyType     string     `gorm:"column:anomaly_type"`
	Severity        string     `gorm:"column:severity"`
	Confidence      int        `gorm:"column:confidence"`
	EventData       []byte     `gorm:"column:event_data;type:jsonb"`
	BaselineData    []byte     `gorm:"column:baseline_data;type:jsonb"`
	Status          string     `gorm:"column:status"`
	DetectedAt      time.Time  `gorm:"column:detected_at"`
	ResolvedAt      *time.Time `gorm:"column:resolved_at"`
	ResolvedBy      string     `gorm:"column:resolved_by"`
	ResolutionNotes string     `gorm:"column:resolution_notes"`
}

func (detectionModel) TableName() string {
	return "anomaly_detections"
}

func detectionModelFromEntity(item entities.Detection) (detectionModel, error) {
	eventData, err := json.Marshal(item.EventData)
	if err != nil {
		return detectionModel{}, err
	}
	baselineData, err := json.Marshal(item.BaselineData)
	if err != nil {
		return detectionModel{}, err
	}
	return detectionModel{
		DetectionID:     strings.TrimSpace(item.DetectionID),
		TenantID:        strings.TrimSpace(item.TenantID),
		UserID:          item.UserID,
		AnomalyType:     string(item.AnomalyType),
		Severity:        string(item.Severity),
		Confidence:      item.Confidence,
		EventData:       eventData,
		BaselineData:    baselineData,
		Status:          string(item.Status),
		DetectedAt:      item.DetectedAt,
		ResolvedAt:      item.ResolvedAt,
		ResolvedBy:      item.ResolvedBy,
		ResolutionNotes: item.ResolutionNotes,
	}, nil
}

func (m detectionModel) toEntity() (entities.Detection, error) {
	var eventData entities.EventSnapshot
	if len(m.EventData) > 0 {
		if err := json.Unmarshal(m.EventData, &eventData); err != nil {
			return entities.Detection{}, err
		}
	}
	var baselineData entities.BaselineSnapshot
	if len(m.BaselineData) > 0 {
		if err := json.Unmarshal(m.BaselineData, &baselineData); err != nil {
			return entities.Detection{}, err
		}
	}
	return entities.Detection{
		DetectionID:     m.DetectionID,
		TenantID:        m.TenantID,
		UserID:          m.UserID,
		AnomalyType:     entities.AnomalyType(m.AnomalyType),
		Severity:        entities.Severity(m.Severity),
		Confidence:      m.Confidence,
		EventData:       eventData,
		BaselineData:    baselineData,
		Status:          entities.DetectionStatus(m.Status),
		DetectedAt:      m.DetectedAt,
		ResolvedAt:      m.ResolvedAt,
		ResolvedBy:      m.ResolvedBy,
		ResolutionNotes: m.ResolutionNotes,
	}, nil
}
