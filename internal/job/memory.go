package job

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Compile-time check that MemoryRepository implements Repository.
var _ Repository = (*MemoryRepository)(nil)

// MemoryRepository is an in-memory implementation of Repository.
// It uses a map with RWMutex for thread-safe access.
// Jobs do not survive a restart; use SQLiteRepository in production.
type MemoryRepository struct {
	mu   sync.RWMutex
	jobs map[string]*Job
	now  func() time.Time
}

// NewMemoryRepository creates a new in-memory job repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		jobs: make(map[string]*Job),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// Create stores a clone of job.
func (r *MemoryRepository) Create(_ context.Context, job *Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.jobs[job.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateJob, job.ID)
	}
	r.jobs[job.ID] = job.Clone()
	return nil
}

// ClaimNextPending implements Repository.ClaimNextPending.
func (r *MemoryRepository) ClaimNextPending(_ context.Context) (*Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var next *Job
	for _, j := range r.jobs {
		if j.Status != StatusPending {
			continue
		}
		if next == nil || j.CreatedAt.Before(next.CreatedAt) ||
			(j.CreatedAt.Equal(next.CreatedAt) && j.ID < next.ID) {
			next = j
		}
	}
	if next == nil {
		return nil, ErrNoPendingJob
	}

	if err := next.Start(r.now()); err != nil {
		return nil, err
	}
	return next.Clone(), nil
}

// MarkCompleted implements Repository.MarkCompleted.
func (r *MemoryRepository) MarkCompleted(_ context.Context, id string, result Result) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok {
		return ErrJobNotFound
	}
	return j.Complete(result, r.now())
}

// MarkFailed implements Repository.MarkFailed.
func (r *MemoryRepository) MarkFailed(_ context.Context, id string, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok {
		return ErrJobNotFound
	}
	return j.Fail(message, r.now())
}

// FindByID retrieves a job by its ID.
// Returns a clone to prevent external mutations.
func (r *MemoryRepository) FindByID(_ context.Context, id string) (*Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}
	return job.Clone(), nil
}

// CountByStatus implements Repository.CountByStatus.
func (r *MemoryRepository) CountByStatus(_ context.Context) (map[Status]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	counts := make(map[Status]int, len(Statuses))
	for _, s := range Statuses {
		counts[s] = 0
	}
	for _, j := range r.jobs {
		counts[j.Status]++
	}
	return counts, nil
}

// FailInterrupted implements Repository.FailInterrupted.
func (r *MemoryRepository) FailInterrupted(_ context.Context, message string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, j := range r.jobs {
		if j.Status != StatusProcessing {
			continue
		}
		if err := j.Fail(message, r.now()); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}
