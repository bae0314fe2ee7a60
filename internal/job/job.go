// Package job provides the Job aggregate for asynchronous longform renders,
// its forward-only state machine, the Repository port with in-memory and
// SQLite implementations, and the Service used by the HTTP handlers.
package job

import (
	"fmt"
	"slices"
	"time"

	"github.com/maauso/mediacompose-api/internal/compose"
	"github.com/maauso/mediacompose-api/internal/failure"
	"github.com/maauso/mediacompose-api/internal/job/id"
)

// Status represents the current state of a Job.
type Status string

const (
	// StatusPending indicates the job is waiting for the scheduler.
	StatusPending Status = "pending"
	// StatusProcessing indicates the scheduler has claimed the job.
	StatusProcessing Status = "processing"
	// StatusCompleted indicates the job finished and its artifact is published.
	StatusCompleted Status = "completed"
	// StatusFailed indicates the job ended with an error.
	StatusFailed Status = "failed"
)

// Statuses lists every status in lifecycle order.
var Statuses = []Status{StatusPending, StatusProcessing, StatusCompleted, StatusFailed}

// ErrInvalidTransition is returned when an invalid state transition is attempted.
var ErrInvalidTransition = fmt.Errorf("invalid state transition: %w", failure.ErrState)

// validTransitions defines which state transitions are allowed.
var validTransitions = map[Status][]Status{
	StatusPending:    {StatusProcessing},
	StatusProcessing: {StatusCompleted, StatusFailed},
	StatusCompleted:  {},
	StatusFailed:     {},
}

// canTransition checks if a transition from one status to another is valid.
func canTransition(from, to Status) bool {
	return slices.Contains(validTransitions[from], to)
}

// Parameters is the immutable snapshot of the request that created a job.
type Parameters struct {
	AudioURLs      []string               `json:"audio_urls"`
	BackgroundType compose.BackgroundType `json:"background_source"`
	BackgroundURLs []string               `json:"background_urls"`
	Quality        compose.Quality        `json:"quality"`
}

// Request converts the parameters into a composition request.
func (p Parameters) Request() compose.LongformRequest {
	return compose.LongformRequest{
		AudioURLs:      slices.Clone(p.AudioURLs),
		BackgroundType: p.BackgroundType,
		BackgroundURLs: slices.Clone(p.BackgroundURLs),
		Quality:        p.Quality,
	}
}

func (p Parameters) clone() Parameters {
	p.AudioURLs = slices.Clone(p.AudioURLs)
	p.BackgroundURLs = slices.Clone(p.BackgroundURLs)
	return p
}

// Result describes the published artifact of a completed job.
type Result struct {
	// URL is where the artifact can be downloaded.
	URL string `json:"result_url"`
	// DurationSeconds is the length of the rendered video.
	DurationSeconds float64 `json:"duration_seconds"`
	// ProcessingSeconds is the wall-clock render time.
	ProcessingSeconds float64 `json:"processing_time"`
}

// Job represents a longform render request and its outcome.
type Job struct {
	ID         string
	Status     Status
	Parameters Parameters
	// Result is set only when Status is StatusCompleted.
	Result *Result
	// Error is set only when Status is StatusFailed.
	Error     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// New creates a new pending Job with a generated ID.
func New(params Parameters) *Job {
	return NewWithID(id.Generate(), params)
}

// NewWithID creates a new pending Job with the specified ID.
// Useful for testing or when ID needs to be externally generated.
func NewWithID(jobID string, params Parameters) *Job {
	now := time.Now().UTC()
	return &Job{
		ID:         jobID,
		Status:     StatusPending,
		Parameters: params.clone(),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// TransitionTo attempts to change the job status to the specified state.
// Returns ErrInvalidTransition if the transition is not allowed.
func (j *Job) TransitionTo(status Status, at time.Time) error {
	if !canTransition(j.Status, status) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, j.Status, status)
	}
	j.Status = status
	j.UpdatedAt = at
	return nil
}

// Start transitions the job from pending to processing.
func (j *Job) Start(at time.Time) error {
	return j.TransitionTo(StatusProcessing, at)
}

// Complete transitions the job to completed and records its result.
func (j *Job) Complete(result Result, at time.Time) error {
	if err := j.TransitionTo(StatusCompleted, at); err != nil {
		return err
	}
	j.Result = &result
	return nil
}

// Fail transitions the job to failed with an error message.
func (j *Job) Fail(msg string, at time.Time) error {
	if err := j.TransitionTo(StatusFailed, at); err != nil {
		return err
	}
	j.Error = failure.Truncate(msg)
	return nil
}

// IsTerminal returns true if the job is in a terminal state.
func (j *Job) IsTerminal() bool {
	return j.Status == StatusCompleted || j.Status == StatusFailed
}

// Clone creates a deep copy of the job for safe reads.
func (j *Job) Clone() *Job {
	c := *j
	c.Parameters = j.Parameters.clone()
	if j.Result != nil {
		r := *j.Result
		c.Result = &r
	}
	return &c
}
