package quota

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"chat-files-api/internal/faults"
	"chat-files-api/internal/repository"
)

// Ledger is the per-user storage accounting service. The stored used_bytes
// counter is treated as a cache: Reserve is a check, not a lock, so
// concurrent uploads by one user can transiently overshoot quota; Reconcile
// recomputes the counter from the file table and is the convergence
// mechanism.
type Ledger struct {
	quotas repository.QuotaRepository
	files  repository.FileRepository
	logger *zap.Logger
}

// NewLedger creates the quota ledger.
func NewLedger(quotas repository.QuotaRepository, files repository.FileRepository, logger *zap.Logger) *Ledger {
	return &Ledger{quotas: quotas, files: files, logger: logger.Named("quota")}
}

// Reserve checks whether the user may store requested additional bytes.
// It returns nil when approved and a *faults.QuotaError when denied. No
// bytes are held; Commit performs the actual increment after the file row
// is durable.
func (l *Ledger) Reserve(ctx context.Context, userID uuid.UUID, requested int64) error {
	settings, err := l.quotas.Settings(ctx)
	if err != nil {
		return err
	}
	if requested > settings.MaxFileSizeBytes {
		return &faults.QuotaError{
			Reason:    faults.ReasonExceedsInstanceLimit,
			Requested: requested,
			Limit:     settings.MaxFileSizeBytes,
		}
	}

	quota, err := l.quotas.GetOrCreate(ctx, userID, settings.DefaultQuotaBytes)
	if err != nil {
		return err
	}
	if quota.UsedBytes+requested > quota.QuotaBytes {
		return &faults.QuotaError{
			Reason:    faults.ReasonExceedsUserQuota,
			Requested: requested,
			Used:      quota.UsedBytes,
			Limit:     quota.QuotaBytes,
		}
	}
	return nil
}

// Commit increments the user's used counter after a file row was created.
func (l *Ledger) Commit(ctx context.Context, userID uuid.UUID, bytes int64) error {
	return l.quotas.AddUsed(ctx, userID, bytes)
}

// Release decrements the used counter when a file is soft-deleted. The
// decrement clamps at zero.
func (l *Ledger) Release(ctx context.Context, userID uuid.UUID, bytes int64) error {
	return l.quotas.AddUsed(ctx, userID, -bytes)
}

// Reconcile recomputes used_bytes from the sum of the user's non-deleted
// file sizes and overwrites the cached counter. Idempotent; safe to run
// concurrently with uploads (eventual convergence).
func (l *Ledger) Reconcile(ctx context.Context, userID uuid.UUID) error {
	settings, err := l.quotas.Settings(ctx)
	if err != nil {
		return err
	}
	if _, err := l.quotas.GetOrCreate(ctx, userID, settings.DefaultQuotaBytes); err != nil {
		return err
	}

	actual, err := l.files.SumSizeByUploader(ctx, userID)
	if err != nil {
		return err
	}
	if err := l.quotas.SetUsed(ctx, userID, actual); err != nil {
		return err
	}
	l.logger.Debug("quota reconciled",
		zap.String("user_id", userID.String()),
		zap.Int64("used_bytes", actual),
	)
	return nil
}

// Usage is a user's quota snapshot.
type Usage struct {
	UserID      uuid.UUID `json:"userId"`
	QuotaBytes  int64     `json:"quotaBytes"`
	UsedBytes   int64     `json:"usedBytes"`
	UsedPercent float64   `json:"usedPercent"`
}

// UsageFor returns the caller-facing quota snapshot for one user.
func (l *Ledger) UsageFor(ctx context.Context, userID uuid.UUID) (*Usage, error) {
	settings, err := l.quotas.Settings(ctx)
	if err != nil {
		return nil, err
	}
	quota, err := l.quotas.GetOrCreate(ctx, userID, settings.DefaultQuotaBytes)
	if err != nil {
		return nil, err
	}
	u := &Usage{
		UserID:     quota.UserID,
		QuotaBytes: quota.QuotaBytes,
		UsedBytes:  quota.UsedBytes,
	}
	if quota.QuotaBytes > 0 {
		u.UsedPercent = float64(quota.UsedBytes) / float64(quota.QuotaBytes) * 100
	}
	return u, nil
}
