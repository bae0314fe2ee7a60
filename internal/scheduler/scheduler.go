// Package scheduler runs the single worker loop that executes longform jobs.
//
// On every tick the loop claims pending jobs one at a time and drives each to
// a terminal state before claiming the next, so at most one longform render
// is in flight per process.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/maauso/mediacompose-api/internal/compose"
	"github.com/maauso/mediacompose-api/internal/failure"
	"github.com/maauso/mediacompose-api/internal/job"
	"github.com/maauso/mediacompose-api/internal/job/id"
	"github.com/maauso/mediacompose-api/internal/metrics"
	"github.com/maauso/mediacompose-api/internal/storage"
)

// DefaultInterval is the time between polls of the job store.
const DefaultInterval = 5 * time.Second

// Composer renders a composition request into a work directory.
type Composer interface {
	Compose(ctx context.Context, req compose.Request, workDir string) (compose.Output, error)
}

// Scheduler polls the job store and processes longform jobs sequentially.
type Scheduler struct {
	repo     job.Repository
	composer Composer
	storage  storage.Storage
	logger   *slog.Logger
	interval time.Duration
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithInterval sets the polling interval.
func WithInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a new Scheduler.
func New(repo job.Repository, composer Composer, store storage.Storage, opts ...Option) *Scheduler {
	s := &Scheduler{
		repo:     repo,
		composer: composer,
		storage:  store,
		logger:   slog.Default(),
		interval: DefaultInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ArtifactKey returns the object key of a longform job's video.
func ArtifactKey(jobID string) string {
	return "longform-" + id.Short(jobID, 12) + ".mp4"
}

// Run marks jobs interrupted by a previous process as failed, then polls
// until ctx is cancelled.
//
// Cancellation stops further claims. A job already claimed keeps running on
// a context detached from ctx, and Run returns once it reaches a terminal
// state.
func (s *Scheduler) Run(ctx context.Context) error {
	n, err := s.repo.FailInterrupted(ctx, job.InterruptedMessage)
	if err != nil {
		return fmt.Errorf("fail interrupted jobs: %w", err)
	}
	if n > 0 {
		s.logger.Warn("marked interrupted jobs as failed", slog.Int("count", n))
	}

	s.logger.Info("scheduler started", slog.Duration("interval", s.interval))
	defer s.logger.Info("scheduler stopped")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.drain(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.drain(ctx)
		}
	}
}

// drain processes pending jobs until the queue is empty or ctx is cancelled.
func (s *Scheduler) drain(ctx context.Context) {
	defer s.updateGauges(ctx)

	for ctx.Err() == nil {
		processed, err := s.RunOnce(ctx)
		if err != nil {
			s.logger.Error("failed to claim job", slog.String("error", err.Error()))
			return
		}
		if !processed {
			return
		}
	}
}

// RunOnce claims the next pending job and processes it to a terminal state.
// It reports whether a job was claimed.
func (s *Scheduler) RunOnce(ctx context.Context) (bool, error) {
	j, err := s.repo.ClaimNextPending(ctx)
	if errors.Is(err, job.ErrNoPendingJob) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	s.process(context.WithoutCancel(ctx), j)
	return true, nil
}

func (s *Scheduler) process(ctx context.Context, j *job.Job) {
	logger := s.logger.With(slog.String("job_id", j.ID))
	logger.Info("processing job",
		slog.Int("audio_tracks", len(j.Parameters.AudioURLs)),
		slog.String("background_source", string(j.Parameters.BackgroundType)),
		slog.Int("backgrounds", len(j.Parameters.BackgroundURLs)),
	)

	start := time.Now()
	result, err := s.renderRecovered(ctx, j, start)
	metrics.RecordComposition(string(compose.KindLongform), string(failure.Classify(err)), time.Since(start), result.DurationSeconds)

	if err != nil {
		logger.Error("job failed",
			slog.String("error_kind", string(failure.Classify(err))),
			slog.String("error", err.Error()),
		)
		if markErr := s.repo.MarkFailed(ctx, j.ID, failure.Message(err)); markErr != nil {
			logger.Error("failed to mark job failed", slog.String("error", markErr.Error()))
		}
		return
	}

	if err := s.repo.MarkCompleted(ctx, j.ID, result); err != nil {
		logger.Error("failed to mark job completed", slog.String("error", err.Error()))
		return
	}
	logger.Info("job completed",
		slog.String("url", result.URL),
		slog.Float64("duration_seconds", result.DurationSeconds),
		slog.Float64("processing_seconds", result.ProcessingSeconds),
	)
}

// renderRecovered turns a panic during render into an internal error, so the
// job still reaches a terminal state and the loop keeps running.
func (s *Scheduler) renderRecovered(ctx context.Context, j *job.Job, start time.Time) (result job.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("panic recovered",
				slog.String("job_id", j.ID),
				slog.Any("error", r),
				slog.String("stack", string(debug.Stack())),
			)
			result, err = job.Result{}, fmt.Errorf("internal error: panic: %v", r)
		}
	}()
	return s.render(ctx, j, start)
}

func (s *Scheduler) render(ctx context.Context, j *job.Job, start time.Time) (job.Result, error) {
	workDir, err := s.storage.NewWorkDir(ctx, j.ID)
	if err != nil {
		return job.Result{}, fmt.Errorf("create work directory: %w", err)
	}
	defer func() {
		if err := s.storage.CleanupDir(ctx, workDir); err != nil {
			s.logger.Warn("failed to remove work directory",
				slog.String("job_id", j.ID),
				slog.String("dir", workDir),
				slog.String("error", err.Error()),
			)
		}
	}()

	out, err := s.composer.Compose(ctx, j.Parameters.Request(), workDir)
	if err != nil {
		return job.Result{}, err
	}

	url, err := s.storage.Publish(ctx, ArtifactKey(j.ID), out.Path)
	if err != nil {
		return job.Result{}, failure.Sink(err, "publish longform video")
	}

	return job.Result{
		URL:               url,
		DurationSeconds:   out.DurationSeconds,
		ProcessingSeconds: time.Since(start).Seconds(),
	}, nil
}

func (s *Scheduler) updateGauges(ctx context.Context) {
	counts, err := s.repo.CountByStatus(context.WithoutCancel(ctx))
	if err != nil {
		s.logger.Debug("failed to count jobs", slog.String("error", err.Error()))
		return
	}
	for status, n := range counts {
		metrics.SetJobCount(string(status), n)
	}
}
