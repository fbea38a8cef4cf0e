// Package repotest provides in-memory repository implementations for tests.
package repotest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"chat-files-api/internal/faults"
	"chat-files-api/internal/models"
	"chat-files-api/internal/repository"
)

// MemFiles is an in-memory FileRepository.
type MemFiles struct {
	mu    sync.Mutex
	rows  map[uuid.UUID]*models.File
	order []uuid.UUID

	// FailCreate makes the next Create call fail with the given error.
	FailCreate error
}

// NewMemFiles creates an empty in-memory file repository.
func NewMemFiles() *MemFiles {
	return &MemFiles{rows: make(map[uuid.UUID]*models.File)}
}

var _ repository.FileRepository = (*MemFiles)(nil)

func (m *MemFiles) Create(ctx context.Context, file *models.File) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailCreate != nil {
		err := m.FailCreate
		m.FailCreate = nil
		return err
	}
	if file.ID == uuid.Nil {
		file.ID = uuid.New()
	}
	if file.CreatedAt.IsZero() {
		file.CreatedAt = time.Now()
	}
	cp := *file
	m.rows[file.ID] = &cp
	m.order = append(m.order, file.ID)
	return nil
}

func (m *MemFiles) GetActive(ctx context.Context, id uuid.UUID) (*models.File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.rows[id]
	if !ok || f.DeletedAt != nil {
		return nil, faults.ErrNotFound
	}
	cp := *f
	return &cp, nil
}

func (m *MemFiles) SetThumbnail(ctx context.Context, id uuid.UUID, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if f, ok := m.rows[id]; ok && f.DeletedAt == nil {
		p := path
		f.ThumbnailPath = &p
	}
	return nil
}

func (m *MemFiles) MarkDeleted(ctx context.Context, id uuid.UUID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.rows[id]
	if !ok || f.DeletedAt != nil {
		return faults.ErrNotFound
	}
	f.DeletedAt = &at
	return nil
}

func (m *MemFiles) HardDelete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, id)
	return nil
}

func (m *MemFiles) ListByUploader(ctx context.Context, uploaderID uuid.UUID, offset, limit int) ([]models.File, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []models.File
	for _, id := range m.order {
		if f, ok := m.rows[id]; ok && f.DeletedAt == nil && f.UploaderID == uploaderID {
			all = append(all, *f)
		}
	}
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *MemFiles) ListDeletedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.File
	for _, id := range m.order {
		if f, ok := m.rows[id]; ok && f.DeletedAt != nil && f.DeletedAt.Before(cutoff) {
			out = append(out, *f)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (m *MemFiles) SumSizeByUploader(ctx context.Context, uploaderID uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var sum int64
	for _, f := range m.rows {
		if f.DeletedAt == nil && f.UploaderID == uploaderID {
			sum += f.Size
		}
	}
	return sum, nil
}

func (m *MemFiles) DistinctUploaders(ctx context.Context) ([]uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := make(map[uuid.UUID]struct{})
	var ids []uuid.UUID
	for _, f := range m.rows {
		if _, ok := seen[f.UploaderID]; !ok {
			seen[f.UploaderID] = struct{}{}
			ids = append(ids, f.UploaderID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids, nil
}

func (m *MemFiles) Totals(ctx context.Context) (int64, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var count, bytes int64
	for _, f := range m.rows {
		if f.DeletedAt == nil {
			count++
			bytes += f.Size
		}
	}
	return count, bytes, nil
}

func (m *MemFiles) ContextBreakdown(ctx context.Context) ([]repository.ContextUsage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	byCtx := make(map[models.UsageContext]*repository.ContextUsage)
	for _, f := range m.rows {
		if f.DeletedAt != nil {
			continue
		}
		row, ok := byCtx[f.UsageContext]
		if !ok {
			row = &repository.ContextUsage{UsageContext: f.UsageContext}
			byCtx[f.UsageContext] = row
		}
		row.Count++
		row.Bytes += f.Size
	}
	var out []repository.ContextUsage
	for _, row := range byCtx {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UsageContext < out[j].UsageContext })
	return out, nil
}

// MemQuotas is an in-memory QuotaRepository.
type MemQuotas struct {
	mu       sync.Mutex
	rows     map[uuid.UUID]*models.UserQuota
	settings models.InstanceSettings
}

// NewMemQuotas creates an in-memory quota repository with the fixed
// instance defaults.
func NewMemQuotas() *MemQuotas {
	return &MemQuotas{
		rows: make(map[uuid.UUID]*models.UserQuota),
		settings: models.InstanceSettings{
			DefaultQuotaBytes: models.DefaultQuotaBytes,
			MaxFileSizeBytes:  models.DefaultMaxFileBytes,
		},
	}
}

var _ repository.QuotaRepository = (*MemQuotas)(nil)

// SetLimits overrides the instance settings for a test.
func (m *MemQuotas) SetLimits(defaultQuota, maxFile int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings.DefaultQuotaBytes = defaultQuota
	m.settings.MaxFileSizeBytes = maxFile
}

func (m *MemQuotas) GetOrCreate(ctx context.Context, userID uuid.UUID, defaultQuota int64) (*models.UserQuota, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.rows[userID]
	if !ok {
		q = &models.UserQuota{UserID: userID, QuotaBytes: defaultQuota}
		m.rows[userID] = q
	}
	cp := *q
	return &cp, nil
}

func (m *MemQuotas) AddUsed(ctx context.Context, userID uuid.UUID, delta int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if q, ok := m.rows[userID]; ok {
		q.UsedBytes += delta
		if q.UsedBytes < 0 {
			q.UsedBytes = 0
		}
	}
	return nil
}

func (m *MemQuotas) SetUsed(ctx context.Context, userID uuid.UUID, used int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if used < 0 {
		used = 0
	}
	if q, ok := m.rows[userID]; ok {
		q.UsedBytes = used
	}
	return nil
}

func (m *MemQuotas) List(ctx context.Context) ([]models.UserQuota, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.UserQuota
	for _, q := range m.rows {
		out = append(out, *q)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID.String() < out[j].UserID.String() })
	return out, nil
}

func (m *MemQuotas) Settings(ctx context.Context) (*models.InstanceSettings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := m.settings
	return &cp, nil
}

func (m *MemQuotas) UpdateSettings(ctx context.Context, defaultQuota, maxFileSize int64) error {
	m.SetLimits(defaultQuota, maxFileSize)
	return nil
}
