package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chat-files-api/internal/faults"
	"chat-files-api/internal/models"
)

func validationErr(t *testing.T, err error) *faults.ValidationError {
	t.Helper()
	var ve *faults.ValidationError
	require.True(t, errors.As(err, &ve), "expected ValidationError, got %v", err)
	return ve
}

func TestEvaluateAcceptsTypicalUploads(t *testing.T) {
	r := NewRegistry()

	cases := []struct {
		ctx  models.UsageContext
		mime string
		size int64
	}{
		{models.ContextMessageAttachment, "image/png", 5 << 20},
		{models.ContextMessageAttachment, "video/mp4", 400 << 20},
		{models.ContextMessageAttachment, "audio/mpeg", 40 << 20},
		{models.ContextMessageAttachment, "application/pdf", 90 << 20},
		{models.ContextUserAvatar, "image/jpeg", 9 << 20},
		{models.ContextCommunityBanner, "image/webp", 20 << 20},
		{models.ContextCustomEmoji, "image/gif", 200 << 10},
		{models.ContextReplayClip, "video/webm", 450 << 20},
	}
	for _, tc := range cases {
		assert.NoError(t, r.Evaluate(tc.ctx, tc.mime, tc.size), "%s %s", tc.ctx, tc.mime)
	}
}

func TestEvaluateAttachmentCategoryCeilings(t *testing.T) {
	r := NewRegistry()

	// 30 MiB image is over the 25 MiB image ceiling...
	ve := validationErr(t, r.Evaluate(models.ContextMessageAttachment, "image/png", 30<<20))
	assert.Equal(t, faults.ReasonTooLarge, ve.Reason)
	assert.Equal(t, int64(25<<20), ve.Limit)

	// ...but a 30 MiB video is fine, and 600 MiB is not.
	assert.NoError(t, r.Evaluate(models.ContextMessageAttachment, "video/mp4", 30<<20))
	ve = validationErr(t, r.Evaluate(models.ContextMessageAttachment, "video/mp4", 600<<20))
	assert.Equal(t, faults.ReasonTooLarge, ve.Reason)
	assert.Equal(t, int64(500<<20), ve.Limit)
}

func TestEvaluateRejectsTypeNotOnAllowList(t *testing.T) {
	r := NewRegistry()

	ve := validationErr(t, r.Evaluate(models.ContextUserAvatar, "application/pdf", 1<<20))
	assert.Equal(t, faults.ReasonInvalidType, ve.Reason)
	assert.Equal(t, "application/pdf", ve.Mime)
}

func TestEvaluateEmojiExcludesJpeg(t *testing.T) {
	r := NewRegistry()

	assert.NoError(t, r.Evaluate(models.ContextCustomEmoji, "image/png", 100<<10))
	ve := validationErr(t, r.Evaluate(models.ContextCustomEmoji, "image/jpeg", 100<<10))
	assert.Equal(t, faults.ReasonInvalidType, ve.Reason)
}

func TestEvaluateUnknownContext(t *testing.T) {
	r := NewRegistry()

	ve := validationErr(t, r.Evaluate(models.UsageContext("WALLPAPER"), "image/png", 1<<20))
	assert.Equal(t, faults.ReasonInvalidContext, ve.Reason)
}

func TestEvaluateGenericGateRunsBeforeContextPolicy(t *testing.T) {
	r := NewRegistry()

	// A font MIME fails the top-level category gate even in the richest context.
	ve := validationErr(t, r.Evaluate(models.ContextMessageAttachment, "font/woff2", 10<<10))
	assert.Equal(t, faults.ReasonInvalidType, ve.Reason)

	// An unknown context with an over-cap size still reports the generic cap.
	ve = validationErr(t, r.Evaluate(models.UsageContext("WALLPAPER"), "image/png", 200<<20))
	assert.Equal(t, faults.ReasonTooLarge, ve.Reason)
}

func TestEvaluateIsPure(t *testing.T) {
	r := NewRegistry()

	for i := 0; i < 3; i++ {
		ve := validationErr(t, r.Evaluate(models.ContextCustomEmoji, "image/jpeg", 100<<10))
		assert.Equal(t, faults.ReasonInvalidType, ve.Reason)
		assert.NoError(t, r.Evaluate(models.ContextCustomEmoji, "image/png", 100<<10))
	}
}
