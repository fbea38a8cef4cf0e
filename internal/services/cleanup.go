package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"chat-files-api/internal/config"
	"chat-files-api/internal/metrics"
	"chat-files-api/internal/quota"
	"chat-files-api/internal/repository"
	"chat-files-api/internal/storage"
)

// Sweeper is the periodic reclamation pass: it physically purges files that
// have been soft-deleted longer than the retention window and reconciles
// every uploader's quota counter. One failing file logs and the batch
// continues.
type Sweeper struct {
	files   repository.FileRepository
	ledger  *quota.Ledger
	backend storage.Backend
	cfg     config.CleanupSettings
	logger  *zap.Logger
}

// NewSweeper creates the cleanup sweeper.
func NewSweeper(
	files repository.FileRepository,
	ledger *quota.Ledger,
	backend storage.Backend,
	cfg config.CleanupSettings,
	logger *zap.Logger,
) *Sweeper {
	return &Sweeper{
		files:   files,
		ledger:  ledger,
		backend: backend,
		cfg:     cfg,
		logger:  logger.Named("cleanup"),
	}
}

// Start runs the sweep on a fixed interval until ctx is cancelled.
func (s *Sweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Interval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce executes a single purge+reconcile pass. Idempotent.
func (s *Sweeper) RunOnce(ctx context.Context) {
	s.purge(ctx)
	s.reconcileAll(ctx)
}

func (s *Sweeper) purge(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-s.cfg.Retention())
	candidates, err := s.files.ListDeletedBefore(ctx, cutoff, s.cfg.BatchSize)
	if err != nil {
		s.logger.Error("listing purge candidates failed", zap.Error(err))
		return
	}

	for i := range candidates {
		file := &candidates[i]
		if err := s.backend.Delete(ctx, file.StoragePath); err != nil {
			metrics.PurgedFilesTotal.WithLabelValues("error").Inc()
			s.logger.Error("purging backend bytes failed",
				zap.String("file_id", file.ID.String()),
				zap.Error(err),
			)
			continue
		}
		if file.ThumbnailPath != nil {
			if err := s.backend.Delete(ctx, *file.ThumbnailPath); err != nil {
				s.logger.Warn("purging thumbnail failed",
					zap.String("file_id", file.ID.String()),
					zap.Error(err),
				)
			}
		}
		if err := s.files.HardDelete(ctx, file.ID); err != nil {
			metrics.PurgedFilesTotal.WithLabelValues("error").Inc()
			s.logger.Error("removing purged row failed",
				zap.String("file_id", file.ID.String()),
				zap.Error(err),
			)
			continue
		}
		metrics.PurgedFilesTotal.WithLabelValues("success").Inc()
	}

	if len(candidates) > 0 {
		s.logger.Info("purge pass finished", zap.Int("candidates", len(candidates)))
	}
}

// reconcileAll recomputes every known uploader's used counter. This also
// repairs the narrow window where a row persisted but its quota commit
// failed.
func (s *Sweeper) reconcileAll(ctx context.Context) {
	uploaders, err := s.files.DistinctUploaders(ctx)
	if err != nil {
		s.logger.Error("listing uploaders for reconcile failed", zap.Error(err))
		return
	}
	for _, userID := range uploaders {
		if err := s.ledger.Reconcile(ctx, userID); err != nil {
			s.logger.Error("quota reconcile failed",
				zap.String("user_id", userID.String()),
				zap.Error(err),
			)
		}
	}
}
