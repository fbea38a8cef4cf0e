package thumbnail

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"chat-files-api/internal/config"
	"chat-files-api/internal/models"
)

type fakeWorkspace struct {
	ensureErr error
	ensured   []string
}

func (f *fakeWorkspace) AbsPath(p string) (string, error) { return "/data/" + p, nil }

func (f *fakeWorkspace) EnsureDir(ctx context.Context, p string) error {
	if f.ensureErr != nil {
		return f.ensureErr
	}
	f.ensured = append(f.ensured, p)
	return nil
}

type fakeRunner struct {
	err   error
	block bool
	calls int
	name  string
	args  []string
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) error {
	f.calls++
	f.name = name
	f.args = args
	if f.block {
		<-ctx.Done()
		return ctx.Err()
	}
	return f.err
}

func testSettings() config.ThumbnailSettings {
	return config.ThumbnailSettings{
		Dir:            "thumbnails",
		FfmpegPath:     "ffmpeg",
		SeekSeconds:    1,
		Width:          480,
		Quality:        5,
		TimeoutSeconds: 1,
	}
}

func videoFile() *models.File {
	f := &models.File{
		FileType:    models.TypeVideo,
		MimeType:    "video/mp4",
		StoragePath: "2026/01/vid.mp4",
	}
	f.ID = uuid.New()
	return f
}

func TestGenerateSuccess(t *testing.T) {
	ws := &fakeWorkspace{}
	runner := &fakeRunner{}
	g := NewGenerator(ws, runner, testSettings(), zap.NewNop())

	file := videoFile()
	path, err := g.Generate(context.Background(), file)
	require.NoError(t, err)
	assert.Equal(t, "thumbnails/"+file.ID.String()+".jpg", path)
	assert.Equal(t, "ffmpeg", runner.name)
	assert.Contains(t, runner.args, "/data/2026/01/vid.mp4")
	assert.Contains(t, runner.args, "scale=480:-1")
}

func TestGenerateDirectoryFailureSkipsSubprocess(t *testing.T) {
	ws := &fakeWorkspace{ensureErr: errors.New("disk full")}
	runner := &fakeRunner{}
	g := NewGenerator(ws, runner, testSettings(), zap.NewNop())

	_, err := g.Generate(context.Background(), videoFile())
	assert.Error(t, err)
	assert.Zero(t, runner.calls, "subprocess must not start when the directory cannot be ensured")
}

func TestGenerateTimeoutKillsProcess(t *testing.T) {
	ws := &fakeWorkspace{}
	runner := &fakeRunner{block: true}
	g := NewGenerator(ws, runner, testSettings(), zap.NewNop())

	start := time.Now()
	_, err := g.Generate(context.Background(), videoFile())
	assert.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestGenerateRejectsNonVideo(t *testing.T) {
	g := NewGenerator(&fakeWorkspace{}, &fakeRunner{}, testSettings(), zap.NewNop())

	file := videoFile()
	file.FileType = models.TypeImage
	_, err := g.Generate(context.Background(), file)
	assert.Error(t, err)
}
