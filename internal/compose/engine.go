// Package compose turns composition requests into rendered video files.
//
// The Engine downloads every referenced input into a caller-owned work
// directory, probes it, and drives the media processor. It never publishes
// artifacts and never removes the work directory; both belong to the caller.
package compose

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/maauso/mediacompose-api/internal/audio"
	"github.com/maauso/mediacompose-api/internal/failure"
	"github.com/maauso/mediacompose-api/internal/fetch"
	"github.com/maauso/mediacompose-api/internal/media"
)

// Composition constants. They are part of the service contract.
const (
	// MaxDurationSeconds caps any output.
	MaxDurationSeconds = 7200.0
	// TransitionSeconds is the crossfade length at every clip boundary.
	TransitionSeconds = 0.5
	// MaxTransitionOverlap bounds the duration lost at one clip boundary.
	MaxTransitionOverlap = 1.0
)

// DefaultMaxParallelDownloads bounds concurrent fetches within one request.
const DefaultMaxParallelDownloads = 4

// ErrEmptyBackground is returned when a longform request has no usable background.
var ErrEmptyBackground = errors.New("background list is empty")

// Output describes a rendered file.
type Output struct {
	// Path is the rendered file inside the work directory.
	Path string
	// DurationSeconds is the duration of the output.
	DurationSeconds float64
	// InputCount is the number of clips merged or backgrounds used.
	InputCount int
	// ProcessingTime is the wall-clock time spent in Compose.
	ProcessingTime time.Duration
}

// Engine executes composition requests.
type Engine struct {
	fetcher      fetch.Fetcher
	processor    media.Processor
	concatenator audio.Concatenator
	logger       *slog.Logger
	maxParallel  int
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithMaxParallelDownloads bounds concurrent downloads within one request.
func WithMaxParallelDownloads(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.maxParallel = n
		}
	}
}

// NewEngine creates a new Engine.
func NewEngine(f fetch.Fetcher, p media.Processor, c audio.Concatenator, opts ...EngineOption) *Engine {
	e := &Engine{
		fetcher:      f,
		processor:    p,
		concatenator: c,
		logger:       slog.Default(),
		maxParallel:  DefaultMaxParallelDownloads,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Compose renders req into workDir.
//
// Errors are classified with the failure package: Validation for requests
// that can never succeed, Acquisition for inputs that cannot be fetched or
// probed, Composition for render failures.
func (e *Engine) Compose(ctx context.Context, req Request, workDir string) (Output, error) {
	start := time.Now()

	var (
		out Output
		err error
	)
	switch r := req.(type) {
	case MergeRequest:
		out, err = e.merge(ctx, r, workDir)
	case LongformRequest:
		out, err = e.longform(ctx, r, workDir)
	default:
		return Output{}, failure.Validation("unsupported request type %T", req)
	}
	if err != nil {
		return Output{}, err
	}

	out.ProcessingTime = time.Since(start)
	e.logger.Info("composition finished",
		slog.String("kind", string(req.Kind())),
		slog.Float64("duration_seconds", out.DurationSeconds),
		slog.Int("inputs", out.InputCount),
		slog.Duration("processing_time", out.ProcessingTime),
	)
	return out, nil
}

// fetchAll downloads urls into dir, at most maxParallel at a time. The
// returned paths follow input order. The first failure cancels the rest.
func (e *Engine) fetchAll(ctx context.Context, urls []string, dir, prefix, fallbackExt string) ([]string, error) {
	paths := make([]string, len(urls))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.maxParallel)

	for i, u := range urls {
		paths[i] = filepath.Join(dir, fmt.Sprintf("%s_%02d%s", prefix, i, fetch.Extension(u, fallbackExt)))
		g.Go(func() error {
			if err := e.fetcher.Fetch(gctx, u, paths[i]); err != nil {
				return failure.Acquisition(err, "download %s %d (%s)", prefix, i+1, u)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}
