package models

import (
	"github.com/google/uuid"
	"github.com/kerimovok/go-pkg-database/sql"
)

// Minimal chat-side rows consumed by the access authorizer. The chat service
// owns their lifecycle; this API only reads them through the repository layer.

// Message is a chat message. Exactly one of ChannelID or DMGroupID is set on
// a well-formed row.
type Message struct {
	sql.BaseModel
	ChannelID *uuid.UUID `json:"channelId" gorm:"type:uuid;index"`
	DMGroupID *uuid.UUID `json:"dmGroupId" gorm:"type:uuid;index"`
	AuthorID  uuid.UUID  `json:"authorId" gorm:"type:uuid;not null"`
}

// MessageAttachment links a message to a file it references.
type MessageAttachment struct {
	MessageID uuid.UUID `json:"messageId" gorm:"type:uuid;primaryKey"`
	FileID    uuid.UUID `json:"fileId" gorm:"type:uuid;primaryKey;index"`
}

// Channel is a community channel; private channels gate attachments on
// channel membership instead of community membership.
type Channel struct {
	sql.BaseModel
	CommunityID uuid.UUID `json:"communityId" gorm:"type:uuid;not null;index"`
	Private     bool      `json:"private" gorm:"not null;default:false"`
}

// Clip is a recorded replay clip; public clips are discoverable by anyone.
type Clip struct {
	sql.BaseModel
	OwnerID uuid.UUID `json:"ownerId" gorm:"type:uuid;not null;index"`
	Public  bool      `json:"public" gorm:"not null;default:false"`
}

// CommunityMember marks membership of a user in a community.
type CommunityMember struct {
	CommunityID uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID      uuid.UUID `gorm:"type:uuid;primaryKey"`
}

// ChannelMember marks membership of a user in a private channel.
type ChannelMember struct {
	ChannelID uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey"`
}

// DMGroupMember marks membership of a user in a direct-message group.
type DMGroupMember struct {
	DMGroupID uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey"`
}
