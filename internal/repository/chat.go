package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"chat-files-api/internal/faults"
	"chat-files-api/internal/models"
)

// ChatDirectory is the read-only lookup surface the access authorizer needs
// from the chat side of the platform: message resolution and membership
// checks. The chat service owns the underlying tables.
type ChatDirectory interface {
	MessageByID(ctx context.Context, id uuid.UUID) (*models.Message, error)
	MessagesReferencingFile(ctx context.Context, fileID uuid.UUID) ([]models.Message, error)
	ChannelByID(ctx context.Context, id uuid.UUID) (*models.Channel, error)
	ClipByID(ctx context.Context, id uuid.UUID) (*models.Clip, error)

	IsCommunityMember(ctx context.Context, userID, communityID uuid.UUID) (bool, error)
	IsChannelMember(ctx context.Context, userID, channelID uuid.UUID) (bool, error)
	IsDMGroupMember(ctx context.Context, userID, groupID uuid.UUID) (bool, error)
}

type gormChatDirectory struct {
	db *gorm.DB
}

// NewChatDirectory creates a gorm-backed ChatDirectory.
func NewChatDirectory(db *gorm.DB) ChatDirectory {
	return &gormChatDirectory{db: db}
}

func (r *gormChatDirectory) MessageByID(ctx context.Context, id uuid.UUID) (*models.Message, error) {
	var msg models.Message
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&msg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, faults.ErrNotFound
		}
		return nil, err
	}
	return &msg, nil
}

func (r *gormChatDirectory) MessagesReferencingFile(ctx context.Context, fileID uuid.UUID) ([]models.Message, error) {
	var msgs []models.Message
	err := r.db.WithContext(ctx).
		Joins("JOIN message_attachments ON message_attachments.message_id = messages.id").
		Where("message_attachments.file_id = ?", fileID).
		Find(&msgs).Error
	return msgs, err
}

func (r *gormChatDirectory) ChannelByID(ctx context.Context, id uuid.UUID) (*models.Channel, error) {
	var ch models.Channel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&ch).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, faults.ErrNotFound
		}
		return nil, err
	}
	return &ch, nil
}

func (r *gormChatDirectory) ClipByID(ctx context.Context, id uuid.UUID) (*models.Clip, error) {
	var clip models.Clip
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&clip).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, faults.ErrNotFound
		}
		return nil, err
	}
	return &clip, nil
}

func (r *gormChatDirectory) IsCommunityMember(ctx context.Context, userID, communityID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.CommunityMember{}).
		Where("community_id = ? AND user_id = ?", communityID, userID).
		Count(&count).Error
	return count > 0, err
}

func (r *gormChatDirectory) IsChannelMember(ctx context.Context, userID, channelID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ChannelMember{}).
		Where("channel_id = ? AND user_id = ?", channelID, userID).
		Count(&count).Error
	return count > 0, err
}

func (r *gormChatDirectory) IsDMGroupMember(ctx context.Context, userID, groupID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.DMGroupMember{}).
		Where("dm_group_id = ? AND user_id = ?", groupID, userID).
		Count(&count).Error
	return count > 0, err
}
