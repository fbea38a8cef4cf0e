package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kerimovok/go-pkg-database/sql"
)

// UsageContext is the business purpose of an uploaded file. It drives both
// the validation policy applied at upload and the access strategy applied
// at read time.
type UsageContext string

const (
	ContextMessageAttachment UsageContext = "MESSAGE_ATTACHMENT"
	ContextUserAvatar        UsageContext = "USER_AVATAR"
	ContextUserBanner        UsageContext = "USER_BANNER"
	ContextCommunityAvatar   UsageContext = "COMMUNITY_AVATAR"
	ContextCommunityBanner   UsageContext = "COMMUNITY_BANNER"
	ContextCustomEmoji       UsageContext = "CUSTOM_EMOJI"
	ContextReplayClip        UsageContext = "REPLAY_CLIP"
)

// FileType is the coarse category derived from the MIME type at upload.
type FileType string

const (
	TypeImage    FileType = "IMAGE"
	TypeVideo    FileType = "VIDEO"
	TypeAudio    FileType = "AUDIO"
	TypeDocument FileType = "DOCUMENT"
	TypeOther    FileType = "OTHER"
)

// FileTypeFromMime maps a MIME type onto the coarse file category.
func FileTypeFromMime(mime string) FileType {
	switch {
	case strings.HasPrefix(mime, "image/"):
		return TypeImage
	case strings.HasPrefix(mime, "video/"):
		return TypeVideo
	case strings.HasPrefix(mime, "audio/"):
		return TypeAudio
	case strings.HasPrefix(mime, "application/"), strings.HasPrefix(mime, "text/"):
		return TypeDocument
	default:
		return TypeOther
	}
}

// StorageKind identifies which backend holds a file's bytes.
type StorageKind string

const (
	StorageLocal StorageKind = "local"
)

// File represents a stored file
type File struct {
	sql.BaseModel
	Filename          string       `json:"filename" gorm:"not null"`
	MimeType          string       `json:"mimeType" gorm:"not null"`
	FileType          FileType     `json:"fileType" gorm:"not null"`
	Size              int64        `json:"size" gorm:"not null"`
	Checksum          string       `json:"checksum" gorm:"not null;index"`
	UsageContext      UsageContext `json:"usageContext" gorm:"not null;index"`
	RelatedResourceID *uuid.UUID   `json:"relatedResourceId" gorm:"type:uuid;index"`
	StorageKind       StorageKind  `json:"-" gorm:"not null;default:'local'"`
	StoragePath       string       `json:"-" gorm:"not null;uniqueIndex"`
	ThumbnailPath     *string      `json:"-"`
	UploaderID        uuid.UUID    `json:"uploaderId" gorm:"type:uuid;not null;index"`
	DeletedAt         *time.Time   `json:"-" gorm:"index"`
}

// HasThumbnail reports whether a derived thumbnail was generated.
func (f *File) HasThumbnail() bool { return f.ThumbnailPath != nil }

// Deleted reports whether the file has been soft-deleted.
func (f *File) Deleted() bool { return f.DeletedAt != nil }
