package requests

import (
	"github.com/google/uuid"
)

// UploadFileRequest carries the non-binary fields of a multipart upload.
type UploadFileRequest struct {
	UsageContext      string     `form:"usageContext" validate:"required"`
	RelatedResourceID *uuid.UUID `form:"relatedResourceId"`
}

// ListFilesRequest paginates the caller's own files.
type ListFilesRequest struct {
	Page  int `query:"page"`
	Limit int `query:"limit"`
}
