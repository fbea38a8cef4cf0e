package validation

import (
	"chat-files-api/internal/faults"
	"chat-files-api/internal/models"
	"chat-files-api/internal/utils"
)

const (
	kib = 1024
	mib = 1024 * kib
	gib = 1024 * mib
)

// Policy is one usage context's validation rules: an allow-list of exact
// MIME strings and a size ceiling that may depend on the MIME type.
type Policy struct {
	allowed map[string]struct{}
	maxSize func(mime string) int64
}

func flatPolicy(limit int64, mimes ...string) *Policy {
	allowed := make(map[string]struct{}, len(mimes))
	for _, m := range mimes {
		allowed[m] = struct{}{}
	}
	return &Policy{
		allowed: allowed,
		maxSize: func(string) int64 { return limit },
	}
}

// MaxSize returns the byte ceiling this policy applies to the given MIME type.
func (p *Policy) MaxSize(mime string) int64 { return p.maxSize(mime) }

// Allows reports whether the exact MIME string is on the allow-list.
func (p *Policy) Allows(mime string) bool {
	_, ok := p.allowed[mime]
	return ok
}

var (
	rasterImages = []string{"image/png", "image/jpeg", "image/gif", "image/webp"}

	// Emoji admit only formats with good animation/transparency support,
	// which excludes JPEG.
	emojiImages = []string{"image/png", "image/gif", "image/webp"}

	attachmentMimes = []string{
		"image/png", "image/jpeg", "image/gif", "image/webp", "image/svg+xml",
		"video/mp4", "video/webm", "video/quicktime",
		"audio/mpeg", "audio/ogg", "audio/wav", "audio/flac",
		"application/pdf", "application/zip", "application/gzip",
		"application/json", "application/msword",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		"text/plain", "text/csv",
	}
)

// attachmentMaxSize is the MIME-category-dependent ceiling for message
// attachments: images 25 MiB, videos 500 MiB, audio 50 MiB, everything
// else (documents, archives) 100 MiB.
func attachmentMaxSize(mime string) int64 {
	switch models.FileTypeFromMime(mime) {
	case models.TypeImage:
		return 25 * mib
	case models.TypeVideo:
		return 500 * mib
	case models.TypeAudio:
		return 50 * mib
	default:
		return 100 * mib
	}
}

// categoryCaps is the coarse always-applied gate: the MIME's top-level type
// must be one of these, each with an absolute ceiling no context policy can
// exceed.
var categoryCaps = map[string]int64{
	"image":       100 * mib,
	"video":       1 * gib,
	"audio":       200 * mib,
	"application": 500 * mib,
	"text":        100 * mib,
}

// Registry maps usage contexts onto their validation policies. The table is
// fixed at construction; contexts sharing rules share one policy value.
type Registry struct {
	policies map[models.UsageContext]*Policy
}

// NewRegistry builds the static context -> policy table.
func NewRegistry() *Registry {
	avatar := flatPolicy(10*mib, rasterImages...)
	banner := flatPolicy(25*mib, rasterImages...)
	attachment := &Policy{maxSize: attachmentMaxSize}
	attachment.allowed = make(map[string]struct{}, len(attachmentMimes))
	for _, m := range attachmentMimes {
		attachment.allowed[m] = struct{}{}
	}

	return &Registry{policies: map[models.UsageContext]*Policy{
		models.ContextMessageAttachment: attachment,
		models.ContextUserAvatar:        avatar,
		models.ContextCommunityAvatar:   avatar,
		models.ContextUserBanner:        banner,
		models.ContextCommunityBanner:   banner,
		models.ContextCustomEmoji:       flatPolicy(256*kib, emojiImages...),
		models.ContextReplayClip:        flatPolicy(500*mib, "video/mp4", "video/webm"),
	}}
}

// Evaluate decides whether a file of the given MIME type and size is
// acceptable in the given usage context. A nil return means accepted; a
// non-nil return is always a *faults.ValidationError carrying the observed
// values and the violated limit.
func (r *Registry) Evaluate(ctx models.UsageContext, mime string, size int64) error {
	// Generic gate first, so a misconfigured context policy can never
	// admit a structurally disallowed type or size.
	cap, ok := categoryCaps[utils.MimeTopLevel(mime)]
	if !ok {
		return &faults.ValidationError{
			Reason:  faults.ReasonInvalidType,
			Context: string(ctx),
			Mime:    mime,
			Size:    size,
		}
	}
	if size > cap {
		return &faults.ValidationError{
			Reason:  faults.ReasonTooLarge,
			Context: string(ctx),
			Mime:    mime,
			Size:    size,
			Limit:   cap,
		}
	}

	policy, ok := r.policies[ctx]
	if !ok {
		return &faults.ValidationError{
			Reason:  faults.ReasonInvalidContext,
			Context: string(ctx),
			Mime:    mime,
			Size:    size,
		}
	}
	if !policy.Allows(mime) {
		return &faults.ValidationError{
			Reason:  faults.ReasonInvalidType,
			Context: string(ctx),
			Mime:    mime,
			Size:    size,
		}
	}
	if limit := policy.MaxSize(mime); size > limit {
		return &faults.ValidationError{
			Reason:  faults.ReasonTooLarge,
			Context: string(ctx),
			Mime:    mime,
			Size:    size,
			Limit:   limit,
		}
	}
	return nil
}
