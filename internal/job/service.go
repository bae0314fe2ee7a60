package job

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/maauso/mediacompose-api/internal/compose"
	"github.com/maauso/mediacompose-api/internal/failure"
)

// ErrJobNotCompleted is returned when a result is requested before the job completed.
var ErrJobNotCompleted = fmt.Errorf("job not completed: %w", failure.ErrState)

// Validate checks the parameters against the longform request limits.
func (p Parameters) Validate() error {
	if n := len(p.AudioURLs); n < 1 || n > compose.MaxAudioTracks {
		return failure.Validation("audio_urls must contain 1 to %d URLs, got %d", compose.MaxAudioTracks, n)
	}
	limit := compose.MaxBackgrounds(p.BackgroundType)
	if limit == 0 {
		return failure.Validation("background_source must be %q or %q, got %q",
			compose.BackgroundImages, compose.BackgroundVideos, p.BackgroundType)
	}
	if n := len(p.BackgroundURLs); n < 1 || n > limit {
		return failure.Validation("background_urls must contain 1 to %d URLs for %s, got %d", limit, p.BackgroundType, n)
	}
	if _, err := compose.Resolve(p.Quality, compose.Aspect16x9); err != nil {
		return err
	}
	return nil
}

// Service creates longform jobs and reports their state.
// Processing is done by the scheduler, never by the Service.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService creates a new Service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger}
}

// Submit validates params and persists a new pending job.
func (s *Service) Submit(ctx context.Context, params Parameters) (*Job, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	job := New(params)

	s.logger.Info("creating longform job",
		slog.String("job_id", job.ID),
		slog.Int("audio_tracks", len(params.AudioURLs)),
		slog.String("background_source", string(params.BackgroundType)),
		slog.Int("backgrounds", len(params.BackgroundURLs)),
		slog.String("quality", string(params.Quality)),
	)

	if err := s.repo.Create(ctx, job); err != nil {
		s.logger.Error("failed to save job",
			slog.String("job_id", job.ID),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	return job, nil
}

// Get retrieves a job by ID.
func (s *Service) Get(ctx context.Context, id string) (*Job, error) {
	return s.repo.FindByID(ctx, id)
}

// Result retrieves a completed job by ID.
// Returns ErrJobNotCompleted for jobs in any other status.
func (s *Service) Result(ctx context.Context, id string) (*Job, error) {
	job, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.Status != StatusCompleted || job.Result == nil {
		return nil, fmt.Errorf("%w: job %s is %s", ErrJobNotCompleted, id, job.Status)
	}
	return job, nil
}
