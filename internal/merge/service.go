// Package merge runs the synchronous Clip-Merge pipeline: download, render,
// publish and clean up within a single request.
package merge

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/maauso/mediacompose-api/internal/compose"
	"github.com/maauso/mediacompose-api/internal/failure"
	"github.com/maauso/mediacompose-api/internal/metrics"
	"github.com/maauso/mediacompose-api/internal/storage"
)

// Composer renders a composition request into a work directory.
type Composer interface {
	Compose(ctx context.Context, req compose.Request, workDir string) (compose.Output, error)
}

// Result is the outcome of a successful merge.
type Result struct {
	URL             string
	DurationSeconds float64
	ProcessingTime  time.Duration
	ClipsMerged     int
}

// Service merges clips and publishes the result.
type Service struct {
	composer Composer
	storage  storage.Storage
	logger   *slog.Logger
}

// NewService creates a new merge Service.
func NewService(composer Composer, store storage.Storage, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{composer: composer, storage: store, logger: logger}
}

// ArtifactKey returns a fresh object key for a merged video.
func ArtifactKey() string {
	return "merged-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12] + ".mp4"
}

// Merge renders req and publishes it. Either a URL is returned or nothing is
// published. The work directory is removed on every path.
func (s *Service) Merge(ctx context.Context, req compose.MergeRequest) (Result, error) {
	start := time.Now()

	res, err := s.merge(ctx, req)
	elapsed := time.Since(start)
	metrics.RecordComposition(string(compose.KindClipMerge), string(failure.Classify(err)), elapsed, res.DurationSeconds)
	if err != nil {
		s.logger.Error("merge failed",
			slog.Int("clips", len(req.VideoURLs)),
			slog.String("error_kind", string(failure.Classify(err))),
			slog.String("error", err.Error()),
		)
		return Result{}, err
	}

	res.ProcessingTime = elapsed
	s.logger.Info("merge completed",
		slog.String("url", res.URL),
		slog.Int("clips", res.ClipsMerged),
		slog.Float64("duration_seconds", res.DurationSeconds),
		slog.Duration("processing_time", elapsed),
	)
	return res, nil
}

func (s *Service) merge(ctx context.Context, req compose.MergeRequest) (Result, error) {
	workDir, err := s.storage.NewWorkDir(ctx, "merge")
	if err != nil {
		return Result{}, fmt.Errorf("create work directory: %w", err)
	}
	defer func() {
		if err := s.storage.CleanupDir(context.WithoutCancel(ctx), workDir); err != nil {
			s.logger.Warn("failed to remove work directory",
				slog.String("dir", workDir),
				slog.String("error", err.Error()),
			)
		}
	}()

	out, err := s.composer.Compose(ctx, req, workDir)
	if err != nil {
		return Result{}, err
	}

	url, err := s.storage.Publish(ctx, ArtifactKey(), out.Path)
	if err != nil {
		return Result{}, failure.Sink(err, "publish merged video")
	}

	return Result{
		URL:             url,
		DurationSeconds: out.DurationSeconds,
		ClipsMerged:     out.InputCount,
	}, nil
}
