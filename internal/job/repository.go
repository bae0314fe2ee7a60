package job

import (
	"context"
	"errors"
	"fmt"

	"github.com/maauso/mediacompose-api/internal/failure"
)

var (
	// ErrJobNotFound is returned when a job cannot be found by ID.
	ErrJobNotFound = fmt.Errorf("job not found: %w", failure.ErrNotFound)
	// ErrNoPendingJob is returned by ClaimNextPending when the queue is empty.
	ErrNoPendingJob = errors.New("no pending job")
	// ErrDuplicateJob is returned when a job with the same ID already exists.
	ErrDuplicateJob = errors.New("job already exists")
)

// InterruptedMessage is recorded on jobs left processing by a previous run.
const InterruptedMessage = "interrupted by restart"

// Repository defines the interface for job persistence.
// It acts as a port in the hexagonal architecture pattern.
//
// Every write updates UpdatedAt. Reads return snapshots that callers may
// modify freely.
type Repository interface {
	// Create persists a new pending job.
	Create(ctx context.Context, job *Job) error

	// ClaimNextPending atomically moves the oldest pending job (by CreatedAt,
	// ties broken by ID) to processing and returns it.
	// Returns ErrNoPendingJob if there is nothing to claim.
	ClaimNextPending(ctx context.Context) (*Job, error)

	// MarkCompleted moves a processing job to completed with its result.
	MarkCompleted(ctx context.Context, id string, result Result) error

	// MarkFailed moves a processing job to failed with an error message.
	MarkFailed(ctx context.Context, id string, message string) error

	// FindByID retrieves a job by its unique identifier.
	// Returns ErrJobNotFound if the job does not exist.
	FindByID(ctx context.Context, id string) (*Job, error)

	// CountByStatus returns the number of jobs in every status.
	CountByStatus(ctx context.Context) (map[Status]int, error)

	// FailInterrupted marks every processing job as failed with message and
	// returns how many were changed. It is meant to run before the scheduler
	// starts, when no job can legitimately be processing.
	FailInterrupted(ctx context.Context, message string) (int, error)
}
