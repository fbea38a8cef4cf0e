package access

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"chat-files-api/internal/faults"
	"chat-files-api/internal/models"
	"chat-files-api/internal/repository"
)

// strategy decides whether a principal may read one file. A nil return
// means allowed; faults.ErrNotFound means the underlying object is missing
// (or must appear missing); a ForbiddenError means the object exists but
// the principal lacks rights.
type strategy func(ctx context.Context, principalID uuid.UUID, file *models.File) error

// Authorizer resolves read access per usage context. The context -> strategy
// table is fixed at construction; an unmapped context is denied rather than
// falling through to a wrong default.
type Authorizer struct {
	chat       repository.ChatDirectory
	strategies map[models.UsageContext]strategy
	logger     *zap.Logger
}

// NewAuthorizer builds the strategy table.
func NewAuthorizer(chat repository.ChatDirectory, logger *zap.Logger) *Authorizer {
	a := &Authorizer{chat: chat, logger: logger.Named("access")}
	a.strategies = map[models.UsageContext]strategy{
		// Avatars and banners are visible instance-wide.
		models.ContextUserAvatar:      a.public,
		models.ContextUserBanner:      a.public,
		models.ContextCommunityAvatar: a.public,
		models.ContextCommunityBanner: a.public,

		models.ContextCustomEmoji:       a.communityMember,
		models.ContextMessageAttachment: a.messageAttachment,
		models.ContextReplayClip:        a.ownedOrDiscoverable,
	}
	return a
}

// CanAccess reports whether the principal may read the file.
func (a *Authorizer) CanAccess(ctx context.Context, principalID uuid.UUID, file *models.File) error {
	s, ok := a.strategies[file.UsageContext]
	if !ok {
		return faults.Forbidden("unmapped usage context")
	}
	return s(ctx, principalID, file)
}

func (a *Authorizer) public(ctx context.Context, principalID uuid.UUID, file *models.File) error {
	return nil
}

func (a *Authorizer) communityMember(ctx context.Context, principalID uuid.UUID, file *models.File) error {
	if file.RelatedResourceID == nil {
		return faults.Forbidden("file has no owning community")
	}
	member, err := a.chat.IsCommunityMember(ctx, principalID, *file.RelatedResourceID)
	if err != nil {
		return err
	}
	if !member {
		return faults.Forbidden("not a community member")
	}
	return nil
}

// messageAttachment resolves the attachment's parent message and branches on
// where the message lives: private channels require channel membership,
// public channels community membership, DM groups group membership.
func (a *Authorizer) messageAttachment(ctx context.Context, principalID uuid.UUID, file *models.File) error {
	if file.RelatedResourceID == nil {
		return faults.Forbidden("attachment has no parent message")
	}
	msg, err := a.chat.MessageByID(ctx, *file.RelatedResourceID)
	if err != nil {
		// A missing message is NotFound, distinct from Denied.
		return err
	}
	return a.messageAccess(ctx, principalID, msg)
}

func (a *Authorizer) messageAccess(ctx context.Context, principalID uuid.UUID, msg *models.Message) error {
	switch {
	case msg.ChannelID != nil:
		channel, err := a.chat.ChannelByID(ctx, *msg.ChannelID)
		if err != nil {
			return err
		}
		if channel.Private {
			member, err := a.chat.IsChannelMember(ctx, principalID, channel.ID)
			if err != nil {
				return err
			}
			if !member {
				return faults.Forbidden("not a channel member")
			}
			return nil
		}
		member, err := a.chat.IsCommunityMember(ctx, principalID, channel.CommunityID)
		if err != nil {
			return err
		}
		if !member {
			return faults.Forbidden("not a community member")
		}
		return nil

	case msg.DMGroupID != nil:
		member, err := a.chat.IsDMGroupMember(ctx, principalID, *msg.DMGroupID)
		if err != nil {
			return err
		}
		if !member {
			return faults.Forbidden("not a direct-message group member")
		}
		return nil

	default:
		// A message with neither association is structurally invalid.
		return faults.Forbidden("message has no channel or group")
	}
}

// ownedOrDiscoverable covers replay clips: the owner always may read; a
// clip marked public may be read by anyone; otherwise any accessible
// message referencing the file grants access.
func (a *Authorizer) ownedOrDiscoverable(ctx context.Context, principalID uuid.UUID, file *models.File) error {
	if file.UploaderID == principalID {
		return nil
	}

	if file.RelatedResourceID != nil {
		clip, err := a.chat.ClipByID(ctx, *file.RelatedResourceID)
		if err == nil {
			if clip.OwnerID == principalID || clip.Public {
				return nil
			}
		} else if !faults.IsNotFound(err) {
			return err
		}
	}

	msgs, err := a.chat.MessagesReferencingFile(ctx, file.ID)
	if err != nil {
		return err
	}
	for i := range msgs {
		// First accessible reference wins; a reference whose own check
		// errors is a non-match, not a propagated failure.
		if err := a.messageAccess(ctx, principalID, &msgs[i]); err == nil {
			return nil
		} else if !faults.IsForbidden(err) && !faults.IsNotFound(err) {
			a.logger.Debug("reference check failed",
				zap.String("file_id", file.ID.String()),
				zap.String("message_id", msgs[i].ID.String()),
				zap.Error(err),
			)
		}
	}
	return faults.Forbidden("clip is not shared with you")
}
