package models

import (
	"github.com/google/uuid"
	"github.com/kerimovok/go-pkg-database/sql"
)

// UserQuota is the per-user storage accounting pair. UsedBytes is a cached
// aggregate of the user's non-deleted file sizes; it may drift under
// concurrent uploads and is repaired by reconciliation, never trusted as
// authoritative.
type UserQuota struct {
	UserID     uuid.UUID `json:"userId" gorm:"type:uuid;primaryKey"`
	QuotaBytes int64     `json:"quotaBytes" gorm:"not null"`
	UsedBytes  int64     `json:"usedBytes" gorm:"not null;default:0"`
}

// InstanceSettings is the singleton instance-wide storage configuration row.
// Created lazily with defaults when first read.
type InstanceSettings struct {
	sql.BaseModel
	DefaultQuotaBytes int64 `json:"defaultQuotaBytes" gorm:"not null"`
	MaxFileSizeBytes  int64 `json:"maxFileSizeBytes" gorm:"not null"`
}

// Fixed defaults for a fresh instance: 50 GiB per user, 500 MiB per file.
const (
	DefaultQuotaBytes   = 50 * 1024 * 1024 * 1024
	DefaultMaxFileBytes = 500 * 1024 * 1024
)
