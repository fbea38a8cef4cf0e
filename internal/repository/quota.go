package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"chat-files-api/internal/models"
)

// QuotaRepository is the persistence surface for per-user quota counters and
// the singleton instance settings row.
type QuotaRepository interface {
	// GetOrCreate returns the user's quota row, creating it with the given
	// default ceiling when absent.
	GetOrCreate(ctx context.Context, userID uuid.UUID, defaultQuota int64) (*models.UserQuota, error)

	// AddUsed adjusts used_bytes by delta, clamped at zero in the database.
	AddUsed(ctx context.Context, userID uuid.UUID, delta int64) error

	// SetUsed overwrites used_bytes with an authoritative recomputed value.
	SetUsed(ctx context.Context, userID uuid.UUID, used int64) error

	// List returns all quota rows.
	List(ctx context.Context) ([]models.UserQuota, error)

	// Settings returns the instance settings, lazily creating the singleton
	// row with fixed defaults when absent.
	Settings(ctx context.Context) (*models.InstanceSettings, error)

	// UpdateSettings overwrites the instance-wide ceilings.
	UpdateSettings(ctx context.Context, defaultQuota, maxFileSize int64) error
}

type gormQuotaRepository struct {
	db *gorm.DB
}

// NewQuotaRepository creates a gorm-backed QuotaRepository.
func NewQuotaRepository(db *gorm.DB) QuotaRepository {
	return &gormQuotaRepository{db: db}
}

func (r *gormQuotaRepository) GetOrCreate(ctx context.Context, userID uuid.UUID, defaultQuota int64) (*models.UserQuota, error) {
	var quota models.UserQuota
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&quota).Error
	if err == nil {
		return &quota, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	quota = models.UserQuota{UserID: userID, QuotaBytes: defaultQuota}
	// A concurrent creation may win the race; fall back to reading it.
	if err := r.db.WithContext(ctx).Create(&quota).Error; err != nil {
		if readErr := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&quota).Error; readErr != nil {
			return nil, err
		}
	}
	return &quota, nil
}

func (r *gormQuotaRepository) AddUsed(ctx context.Context, userID uuid.UUID, delta int64) error {
	return r.db.WithContext(ctx).Model(&models.UserQuota{}).
		Where("user_id = ?", userID).
		Update("used_bytes", gorm.Expr("GREATEST(used_bytes + ?, 0)", delta)).Error
}

func (r *gormQuotaRepository) SetUsed(ctx context.Context, userID uuid.UUID, used int64) error {
	if used < 0 {
		used = 0
	}
	return r.db.WithContext(ctx).Model(&models.UserQuota{}).
		Where("user_id = ?", userID).
		Update("used_bytes", used).Error
}

func (r *gormQuotaRepository) List(ctx context.Context) ([]models.UserQuota, error) {
	var quotas []models.UserQuota
	err := r.db.WithContext(ctx).Find(&quotas).Error
	return quotas, err
}

func (r *gormQuotaRepository) Settings(ctx context.Context) (*models.InstanceSettings, error) {
	var settings models.InstanceSettings
	err := r.db.WithContext(ctx).First(&settings).Error
	if err == nil {
		return &settings, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	settings = models.InstanceSettings{
		DefaultQuotaBytes: models.DefaultQuotaBytes,
		MaxFileSizeBytes:  models.DefaultMaxFileBytes,
	}
	if err := r.db.WithContext(ctx).Create(&settings).Error; err != nil {
		return nil, err
	}
	return &settings, nil
}

func (r *gormQuotaRepository) UpdateSettings(ctx context.Context, defaultQuota, maxFileSize int64) error {
	settings, err := r.Settings(ctx)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Model(settings).Updates(map[string]interface{}{
		"default_quota_bytes": defaultQuota,
		"max_file_size_bytes": maxFileSize,
	}).Error
}
