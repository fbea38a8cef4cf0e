package storage

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chat-files-api/internal/faults"
)

func newTestBackend(t *testing.T) *LocalBackend {
	t.Helper()
	b, err := NewLocalBackend(t.TempDir(), 0o644, 0o755)
	require.NoError(t, err)
	return b
}

func TestLocalBackendWriteRead(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()

	content := []byte("hello chat files")
	n, err := b.Write(ctx, "2026/01/abc.bin", bytes.NewReader(content))
	require.NoError(t, err)
	assert.Equal(t, int64(len(content)), n)

	got, err := b.Read(ctx, "2026/01/abc.bin")
	require.NoError(t, err)
	assert.Equal(t, content, got)

	info, err := b.Stat(ctx, "2026/01/abc.bin")
	require.NoError(t, err)
	assert.Equal(t, int64(len(content)), info.Size)
}

func TestLocalBackendOpenRange(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()

	_, err := b.Write(ctx, "r.bin", bytes.NewReader([]byte("0123456789")))
	require.NoError(t, err)

	r, err := b.OpenRange(ctx, "r.bin", 2, 5)
	require.NoError(t, err)
	defer r.Close()

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "2345", string(got))
}

func TestLocalBackendReadMissing(t *testing.T) {
	b := newTestBackend(t)

	_, err := b.Read(context.Background(), "nope.bin")
	assert.ErrorIs(t, err, faults.ErrNotFound)

	_, err = b.Stat(context.Background(), "nope.bin")
	assert.ErrorIs(t, err, faults.ErrNotFound)
}

func TestLocalBackendDeleteIdempotent(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()

	_, err := b.Write(ctx, "d.bin", bytes.NewReader([]byte("x")))
	require.NoError(t, err)

	require.NoError(t, b.Delete(ctx, "d.bin"))
	// Second delete of a missing object is not an error.
	require.NoError(t, b.Delete(ctx, "d.bin"))
}

func TestLocalBackendRejectsTraversal(t *testing.T) {
	b := newTestBackend(t)

	_, err := b.Write(context.Background(), "../escape.bin", bytes.NewReader([]byte("x")))
	assert.Error(t, err)
}
