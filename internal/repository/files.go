package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"chat-files-api/internal/faults"
	"chat-files-api/internal/models"
)

// ContextUsage is one row of the per-usage-context storage breakdown.
type ContextUsage struct {
	UsageContext models.UsageContext `json:"usageContext"`
	Count        int64               `json:"count"`
	Bytes        int64               `json:"bytes"`
}

// FileRepository is the persistence surface for File rows. Soft-deleted rows
// are invisible to every method except the purge-oriented ones.
type FileRepository interface {
	Create(ctx context.Context, file *models.File) error
	GetActive(ctx context.Context, id uuid.UUID) (*models.File, error)
	SetThumbnail(ctx context.Context, id uuid.UUID, path string) error
	MarkDeleted(ctx context.Context, id uuid.UUID, at time.Time) error
	HardDelete(ctx context.Context, id uuid.UUID) error
	ListByUploader(ctx context.Context, uploaderID uuid.UUID, offset, limit int) ([]models.File, int64, error)
	ListDeletedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.File, error)
	SumSizeByUploader(ctx context.Context, uploaderID uuid.UUID) (int64, error)
	DistinctUploaders(ctx context.Context) ([]uuid.UUID, error)
	Totals(ctx context.Context) (count int64, bytes int64, err error)
	ContextBreakdown(ctx context.Context) ([]ContextUsage, error)
}

type gormFileRepository struct {
	db *gorm.DB
}

// NewFileRepository creates a gorm-backed FileRepository.
func NewFileRepository(db *gorm.DB) FileRepository {
	return &gormFileRepository{db: db}
}

func (r *gormFileRepository) active(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.File{}).Where("deleted_at IS NULL")
}

func (r *gormFileRepository) Create(ctx context.Context, file *models.File) error {
	return r.db.WithContext(ctx).Create(file).Error
}

func (r *gormFileRepository) GetActive(ctx context.Context, id uuid.UUID) (*models.File, error) {
	var file models.File
	err := r.active(ctx).Where("id = ?", id).First(&file).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, faults.ErrNotFound
		}
		return nil, err
	}
	return &file, nil
}

func (r *gormFileRepository) SetThumbnail(ctx context.Context, id uuid.UUID, path string) error {
	return r.active(ctx).Where("id = ?", id).Update("thumbnail_path", path).Error
}

func (r *gormFileRepository) MarkDeleted(ctx context.Context, id uuid.UUID, at time.Time) error {
	res := r.active(ctx).Where("id = ?", id).Update("deleted_at", at)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return faults.ErrNotFound
	}
	return nil
}

func (r *gormFileRepository) HardDelete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.File{}).Error
}

func (r *gormFileRepository) ListByUploader(ctx context.Context, uploaderID uuid.UUID, offset, limit int) ([]models.File, int64, error) {
	q := r.active(ctx).Where("uploader_id = ?", uploaderID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var files []models.File
	err := q.Order("created_at desc").Offset(offset).Limit(limit).Find(&files).Error
	return files, total, err
}

func (r *gormFileRepository) ListDeletedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.File, error) {
	var files []models.File
	err := r.db.WithContext(ctx).
		Where("deleted_at IS NOT NULL AND deleted_at < ?", cutoff).
		Limit(limit).
		Find(&files).Error
	return files, err
}

func (r *gormFileRepository) SumSizeByUploader(ctx context.Context, uploaderID uuid.UUID) (int64, error) {
	var sum *int64
	err := r.active(ctx).
		Where("uploader_id = ?", uploaderID).
		Select("SUM(size)").
		Scan(&sum).Error
	if err != nil || sum == nil {
		return 0, err
	}
	return *sum, nil
}

func (r *gormFileRepository) DistinctUploaders(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&models.File{}).
		Distinct("uploader_id").
		Pluck("uploader_id", &ids).Error
	return ids, err
}

func (r *gormFileRepository) Totals(ctx context.Context) (int64, int64, error) {
	var row struct {
		Count int64
		Bytes *int64
	}
	err := r.active(ctx).
		Select("COUNT(*) AS count, SUM(size) AS bytes").
		Scan(&row).Error
	if err != nil {
		return 0, 0, err
	}
	var bytes int64
	if row.Bytes != nil {
		bytes = *row.Bytes
	}
	return row.Count, bytes, nil
}

func (r *gormFileRepository) ContextBreakdown(ctx context.Context) ([]ContextUsage, error) {
	var rows []ContextUsage
	err := r.active(ctx).
		Select("usage_context, COUNT(*) AS count, COALESCE(SUM(size), 0) AS bytes").
		Group("usage_context").
		Scan(&rows).Error
	return rows, err
}
