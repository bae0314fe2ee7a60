package bootstrap

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maauso/mediacompose-api/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		Port:                 8080,
		TempDir:              filepath.Join(dir, "scratch"),
		DatabasePath:         filepath.Join(dir, "db", "jobs.db"),
		JobStore:             config.JobStoreSQLite,
		WorkerPollInterval:   config.DefaultPollInterval,
		MaxParallelDownloads: 2,
	}
}

func TestNewDependencies_SQLite(t *testing.T) {
	cfg := testConfig(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	deps, err := NewDependencies(cfg, logger)
	require.NoError(t, err)

	assert.NotNil(t, deps.Handlers)
	assert.NotNil(t, deps.Merges)
	assert.NotNil(t, deps.Jobs)
	assert.NotNil(t, deps.Scheduler)

	_, err = os.Stat(cfg.DatabasePath)
	assert.NoError(t, err)
	_, err = os.Stat(cfg.TempDir)
	assert.NoError(t, err)

	assert.NoError(t, deps.Close())
}

func TestNewDependencies_Memory(t *testing.T) {
	cfg := testConfig(t)
	cfg.JobStore = config.JobStoreMemory
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	deps, err := NewDependencies(cfg, logger)
	require.NoError(t, err)
	assert.NotNil(t, deps.Scheduler)

	_, err = os.Stat(cfg.DatabasePath)
	assert.True(t, os.IsNotExist(err))
	assert.NoError(t, deps.Close())
}
