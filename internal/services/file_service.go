package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"path"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"chat-files-api/internal/access"
	"chat-files-api/internal/faults"
	"chat-files-api/internal/metrics"
	"chat-files-api/internal/models"
	"chat-files-api/internal/quota"
	"chat-files-api/internal/repository"
	"chat-files-api/internal/storage"
	"chat-files-api/internal/validation"
)

// Thumbnailer derives a thumbnail for a stored video file.
type Thumbnailer interface {
	Generate(ctx context.Context, file *models.File) (string, error)
}

// FileService orchestrates the file lifecycle: upload (policy, quota,
// checksum, persist, thumbnail), authorized content delivery, soft delete.
type FileService struct {
	files      repository.FileRepository
	ledger     *quota.Ledger
	policies   *validation.Registry
	authorizer *access.Authorizer
	backend    storage.Backend
	thumbs     Thumbnailer
	logger     *zap.Logger
}

// NewFileService wires the lifecycle orchestrator.
func NewFileService(
	files repository.FileRepository,
	ledger *quota.Ledger,
	policies *validation.Registry,
	authorizer *access.Authorizer,
	backend storage.Backend,
	thumbs Thumbnailer,
	logger *zap.Logger,
) *FileService {
	return &FileService{
		files:      files,
		ledger:     ledger,
		policies:   policies,
		authorizer: authorizer,
		backend:    backend,
		thumbs:     thumbs,
		logger:     logger.Named("files"),
	}
}

// UploadInput carries one upload request into the service.
type UploadInput struct {
	Reader            io.Reader
	Filename          string
	MimeType          string
	Size              int64
	UsageContext      models.UsageContext
	RelatedResourceID *uuid.UUID
	UploaderID        uuid.UUID
}

// Upload validates, stores and records one uploaded file. Any failure
// before the row exists deletes the bytes already written to the backend.
func (s *FileService) Upload(ctx context.Context, in UploadInput) (*models.File, error) {
	if err := s.policies.Evaluate(in.UsageContext, in.MimeType, in.Size); err != nil {
		metrics.UploadsTotal.WithLabelValues("rejected_policy").Inc()
		return nil, err
	}
	if err := s.ledger.Reserve(ctx, in.UploaderID, in.Size); err != nil {
		if faults.IsQuota(err) {
			metrics.UploadsTotal.WithLabelValues("rejected_quota").Inc()
		} else {
			metrics.UploadsTotal.WithLabelValues("error").Inc()
		}
		return nil, err
	}

	storagePath := generateStoragePath(in.Filename)

	hash := sha256.New()
	written, err := s.backend.Write(ctx, storagePath, io.TeeReader(in.Reader, hash))
	if err != nil {
		s.compensate(ctx, storagePath)
		metrics.UploadsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	file := &models.File{
		Filename:          in.Filename,
		MimeType:          in.MimeType,
		FileType:          models.FileTypeFromMime(in.MimeType),
		Size:              written,
		Checksum:          hex.EncodeToString(hash.Sum(nil)),
		UsageContext:      in.UsageContext,
		RelatedResourceID: in.RelatedResourceID,
		StorageKind:       models.StorageKind(s.backend.Kind()),
		StoragePath:       storagePath,
		UploaderID:        in.UploaderID,
	}
	if err := s.files.Create(ctx, file); err != nil {
		s.compensate(ctx, storagePath)
		metrics.UploadsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	if err := s.ledger.Commit(ctx, in.UploaderID, written); err != nil {
		// The row exists but the counter was not bumped; the periodic
		// reconcile sweep repairs this drift.
		s.logger.Error("quota commit failed after persist",
			zap.String("file_id", file.ID.String()),
			zap.Error(err),
		)
	}

	metrics.UploadsTotal.WithLabelValues("success").Inc()
	metrics.UploadBytesTotal.Add(float64(written))

	if file.FileType == models.TypeVideo && s.thumbs != nil {
		go s.generateThumbnail(file)
	}
	return file, nil
}

// compensate removes backend bytes written for an upload that failed before
// its row became durable.
func (s *FileService) compensate(ctx context.Context, storagePath string) {
	if err := s.backend.Delete(ctx, storagePath); err != nil {
		s.logger.Error("compensating delete failed",
			zap.String("path", storagePath),
			zap.Error(err),
		)
	}
}

// generateThumbnail runs out-of-band relative to the upload response. A
// failed or timed-out derivation leaves ThumbnailPath null and is never
// surfaced to the uploader.
func (s *FileService) generateThumbnail(file *models.File) {
	ctx := context.Background()
	thumbPath, err := s.thumbs.Generate(ctx, file)
	if err != nil {
		s.logger.Warn("thumbnail unavailable",
			zap.String("file_id", file.ID.String()),
			zap.Error(err),
		)
		return
	}
	if err := s.files.SetThumbnail(ctx, file.ID, thumbPath); err != nil {
		s.logger.Error("recording thumbnail failed",
			zap.String("file_id", file.ID.String()),
			zap.Error(err),
		)
	}
}

// Get returns a file's record after an access check. Soft-deleted files and
// files the principal may not see are both reported as not found or
// forbidden by the authorizer's contract.
func (s *FileService) Get(ctx context.Context, principalID, fileID uuid.UUID) (*models.File, error) {
	file, err := s.files.GetActive(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizer.CanAccess(ctx, principalID, file); err != nil {
		return nil, err
	}
	return file, nil
}

// ContentResult is a resolved content delivery: either a full body, a
// partial range, or an unsatisfiable-range response. Reader is nil when
// Status is 416.
type ContentResult struct {
	File   *models.File
	Status int
	Start  int64
	End    int64
	Length int64
	Reader io.ReadCloser
}

// OpenContent authorizes and resolves a content fetch, honoring a single
// byte range. The backend is not touched until authorization passes.
func (s *FileService) OpenContent(ctx context.Context, principalID, fileID uuid.UUID, rangeHeader string) (*ContentResult, error) {
	file, err := s.Get(ctx, principalID, fileID)
	if err != nil {
		return nil, err
	}
	if file.StorageKind != models.StorageLocal {
		// Never silently degrade to a wrong or empty body.
		return nil, faults.ErrNotImplemented
	}

	r, unsatisfiable := resolveRange(rangeHeader, file.Size)
	if unsatisfiable {
		return &ContentResult{File: file, Status: http.StatusRequestedRangeNotSatisfiable}, nil
	}

	if r == nil {
		reader, err := s.backend.OpenRange(ctx, file.StoragePath, 0, file.Size-1)
		if err != nil {
			return nil, err
		}
		return &ContentResult{
			File:   file,
			Status: http.StatusOK,
			Start:  0,
			End:    file.Size - 1,
			Length: file.Size,
			Reader: reader,
		}, nil
	}

	reader, err := s.backend.OpenRange(ctx, file.StoragePath, r.Start, r.End)
	if err != nil {
		return nil, err
	}
	return &ContentResult{
		File:   file,
		Status: http.StatusPartialContent,
		Start:  r.Start,
		End:    r.End,
		Length: r.Length,
		Reader: reader,
	}, nil
}

// OpenThumbnail returns the thumbnail bytes for a file, after the same
// access check as the content itself.
func (s *FileService) OpenThumbnail(ctx context.Context, principalID, fileID uuid.UUID) ([]byte, error) {
	file, err := s.Get(ctx, principalID, fileID)
	if err != nil {
		return nil, err
	}
	if file.ThumbnailPath == nil {
		return nil, faults.ErrNotFound
	}
	return s.backend.Read(ctx, *file.ThumbnailPath)
}

// Delete soft-deletes a file owned by the principal and releases its bytes
// from the quota ledger. Physical purge happens later in the cleanup sweep.
func (s *FileService) Delete(ctx context.Context, principalID, fileID uuid.UUID) error {
	file, err := s.files.GetActive(ctx, fileID)
	if err != nil {
		return err
	}
	if file.UploaderID != principalID {
		return faults.Forbidden("only the uploader may delete a file")
	}
	if err := s.files.MarkDeleted(ctx, fileID, time.Now().UTC()); err != nil {
		return err
	}
	return s.ledger.Release(ctx, file.UploaderID, file.Size)
}

// ListOwn returns the principal's own non-deleted files, newest first.
func (s *FileService) ListOwn(ctx context.Context, principalID uuid.UUID, page, limit int) ([]models.File, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return s.files.ListByUploader(ctx, principalID, (page-1)*limit, limit)
}

// generateStoragePath builds a date-partitioned, uuid-named backend key,
// preserving the original extension.
func generateStoragePath(filename string) string {
	return path.Join(
		time.Now().UTC().Format("2006/01"),
		uuid.NewString()+filepath.Ext(filename),
	)
}
