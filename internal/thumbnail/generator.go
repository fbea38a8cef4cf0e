package thumbnail

import (
	"context"
	"fmt"
	"os/exec"
	"path"
	"strconv"

	"go.uber.org/zap"

	"chat-files-api/internal/config"
	"chat-files-api/internal/metrics"
	"chat-files-api/internal/models"
)

// Runner launches the external frame-extraction process. Cancelling the
// context force-kills the process.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) error
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) error {
	return exec.CommandContext(ctx, name, args...).Run()
}

// ExecRunner runs commands through os/exec.
func ExecRunner() Runner { return execRunner{} }

// Workspace is what the generator needs from the storage backend: absolute
// paths for the external process and output directory creation.
type Workspace interface {
	AbsPath(path string) (string, error)
	EnsureDir(ctx context.Context, path string) error
}

// Generator derives one still-frame thumbnail per video file, best-effort.
// Every failure mode (directory, subprocess, timeout) is terminal and never
// retried within the same upload flow.
type Generator struct {
	ws     Workspace
	runner Runner
	cfg    config.ThumbnailSettings
	logger *zap.Logger
}

// NewGenerator creates a thumbnail generator.
func NewGenerator(ws Workspace, runner Runner, cfg config.ThumbnailSettings, logger *zap.Logger) *Generator {
	return &Generator{ws: ws, runner: runner, cfg: cfg, logger: logger.Named("thumbnail")}
}

// Generate extracts one frame from the stored video and writes a jpeg next
// to the configured thumbnail directory. It returns the backend-relative
// thumbnail path on success.
func (g *Generator) Generate(ctx context.Context, file *models.File) (string, error) {
	if file.FileType != models.TypeVideo {
		return "", fmt.Errorf("thumbnail requested for non-video file %s", file.ID)
	}

	if err := g.ws.EnsureDir(ctx, g.cfg.Dir); err != nil {
		metrics.ThumbnailsTotal.WithLabelValues("failed").Inc()
		return "", fmt.Errorf("ensuring thumbnail directory: %w", err)
	}

	thumbPath := path.Join(g.cfg.Dir, file.ID.String()+".jpg")
	in, err := g.ws.AbsPath(file.StoragePath)
	if err != nil {
		metrics.ThumbnailsTotal.WithLabelValues("failed").Inc()
		return "", err
	}
	out, err := g.ws.AbsPath(thumbPath)
	if err != nil {
		metrics.ThumbnailsTotal.WithLabelValues("failed").Inc()
		return "", err
	}

	// Hard wall-clock limit; expiry force-kills the subprocess.
	runCtx, cancel := context.WithTimeout(ctx, g.cfg.Timeout())
	defer cancel()

	args := []string{
		"-ss", strconv.Itoa(g.cfg.SeekSeconds),
		"-i", in,
		"-frames:v", "1",
		"-vf", fmt.Sprintf("scale=%d:-1", g.cfg.Width),
		"-q:v", strconv.Itoa(g.cfg.Quality),
		"-y", out,
	}
	if err := g.runner.Run(runCtx, g.cfg.FfmpegPath, args...); err != nil {
		// Timeout and ordinary failure are the same outcome to callers:
		// the file simply keeps no thumbnail.
		outcome := "failed"
		if runCtx.Err() == context.DeadlineExceeded {
			outcome = "timed_out"
		}
		metrics.ThumbnailsTotal.WithLabelValues(outcome).Inc()
		g.logger.Warn("frame extraction failed",
			zap.String("file_id", file.ID.String()),
			zap.String("outcome", outcome),
			zap.Error(err),
		)
		return "", fmt.Errorf("frame extraction: %w", err)
	}

	metrics.ThumbnailsTotal.WithLabelValues("succeeded").Inc()
	return thumbPath, nil
}
