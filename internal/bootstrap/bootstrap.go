// Package bootstrap provides dependency initialization for the media composition API.
package bootstrap

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/maauso/mediacompose-api/internal/audio"
	"github.com/maauso/mediacompose-api/internal/compose"
	"github.com/maauso/mediacompose-api/internal/config"
	"github.com/maauso/mediacompose-api/internal/fetch"
	"github.com/maauso/mediacompose-api/internal/job"
	"github.com/maauso/mediacompose-api/internal/media"
	"github.com/maauso/mediacompose-api/internal/merge"
	"github.com/maauso/mediacompose-api/internal/scheduler"
	"github.com/maauso/mediacompose-api/internal/server"
	"github.com/maauso/mediacompose-api/internal/storage"
)

// Dependencies holds all initialized dependencies for the HTTP server and
// the scheduler.
type Dependencies struct {
	Handlers  *server.Handlers
	Merges    *merge.Service
	Jobs      *job.Service
	Scheduler *scheduler.Scheduler

	closers []func() error
}

// Close releases resources opened by NewDependencies, such as the job database.
func (d *Dependencies) Close() error {
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		errs = append(errs, d.closers[i]())
	}
	return errors.Join(errs...)
}

// NewDependencies creates and initializes all dependencies for the application.
func NewDependencies(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	store, err := initStorage(cfg, logger)
	if err != nil {
		return nil, err
	}

	deps := &Dependencies{}
	repo, err := initRepository(cfg, logger, deps)
	if err != nil {
		return nil, err
	}

	fetcher := fetch.NewClient(fetch.WithTimeout(cfg.DownloadTimeout))
	engine := compose.NewEngine(
		fetcher,
		media.NewFFmpegProcessor(cfg.FFmpegPath, cfg.FFprobePath),
		audio.NewFFmpegConcatenator(cfg.FFmpegPath),
		compose.WithLogger(logger),
		compose.WithMaxParallelDownloads(cfg.MaxParallelDownloads),
	)

	deps.Merges = merge.NewService(engine, store, logger)
	deps.Jobs = job.NewService(repo, logger)
	deps.Scheduler = scheduler.New(repo, engine, store,
		scheduler.WithInterval(cfg.WorkerPollInterval),
		scheduler.WithLogger(logger),
	)
	deps.Handlers = server.NewHandlers(deps.Merges, deps.Jobs, logger)

	return deps, nil
}

// initStorage creates the appropriate storage backend based on configuration.
func initStorage(cfg *config.Config, logger *slog.Logger) (storage.Storage, error) {
	if cfg.S3Enabled() {
		s3Cfg := storage.S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
			PublicBaseURL:   cfg.S3PublicBaseURL,
			PresignTTL:      cfg.S3PresignTTL,
		}
		s3Store, err := storage.NewS3Storage(cfg.TempDir, s3Cfg)
		if err != nil {
			return nil, fmt.Errorf("create S3 storage: %w", err)
		}
		logger.Info("S3 storage configured",
			slog.String("bucket", cfg.S3Bucket),
			slog.String("region", cfg.S3Region),
			slog.Bool("presigned_urls", cfg.S3PublicBaseURL == ""),
		)
		return s3Store, nil
	}

	localStore, err := storage.NewLocalStorage(cfg.TempDir)
	if err != nil {
		return nil, fmt.Errorf("create local storage: %w", err)
	}
	logger.Warn("S3 not configured, publishing to local disk",
		slog.String("temp_dir", cfg.TempDir),
	)
	return localStore, nil
}

// initRepository opens the job store selected by JOB_STORE.
func initRepository(cfg *config.Config, logger *slog.Logger, deps *Dependencies) (job.Repository, error) {
	if strings.EqualFold(cfg.JobStore, config.JobStoreMemory) {
		logger.Warn("using in-memory job store, jobs are lost on restart")
		return job.NewMemoryRepository(), nil
	}

	if dir := filepath.Dir(cfg.DatabasePath); dir != "" {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}
	repo, err := job.OpenSQLite(cfg.DatabasePath, job.DefaultSQLiteConfig())
	if err != nil {
		return nil, fmt.Errorf("open job store: %w", err)
	}
	deps.closers = append(deps.closers, repo.Close)
	logger.Info("sqlite job store opened", slog.String("path", cfg.DatabasePath))
	return repo, nil
}
