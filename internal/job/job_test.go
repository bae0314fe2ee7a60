package job

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/maauso/mediacompose-api/internal/compose"
	"github.com/maauso/mediacompose-api/internal/failure"
)

func testParams() Parameters {
	return Parameters{
		AudioURLs:      []string{"https://cdn.example.com/a.mp3", "https://cdn.example.com/b.mp3"},
		BackgroundType: compose.BackgroundImages,
		BackgroundURLs: []string{"https://cdn.example.com/one.jpg"},
		Quality:        compose.Quality1080,
	}
}

func TestNew(t *testing.T) {
	job := New(testParams())

	if !strings.HasPrefix(job.ID, "req_") {
		t.Errorf("expected req_ prefixed ID, got %s", job.ID)
	}
	if job.Status != StatusPending {
		t.Errorf("expected status %s, got %s", StatusPending, job.Status)
	}
	if job.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}
	if !job.UpdatedAt.Equal(job.CreatedAt) {
		t.Error("expected UpdatedAt to equal CreatedAt")
	}
	if job.Result != nil || job.Error != "" {
		t.Error("new job must have neither result nor error")
	}
}

func TestNewWithID(t *testing.T) {
	id := "req_test123"
	job := NewWithID(id, testParams())

	if job.ID != id {
		t.Errorf("expected ID %s, got %s", id, job.ID)
	}
	if job.Status != StatusPending {
		t.Errorf("expected status %s, got %s", StatusPending, job.Status)
	}
}

func TestNew_CopiesParameters(t *testing.T) {
	params := testParams()
	job := New(params)

	params.AudioURLs[0] = "https://evil.example.com"
	if job.Parameters.AudioURLs[0] == "https://evil.example.com" {
		t.Error("job parameters must not alias the caller's slices")
	}
}

func TestJob_ValidTransitions(t *testing.T) {
	tests := []struct {
		name    string
		from    Status
		to      Status
		wantErr bool
	}{
		{"pending to processing", StatusPending, StatusProcessing, false},
		{"processing to completed", StatusProcessing, StatusCompleted, false},
		{"processing to failed", StatusProcessing, StatusFailed, false},
		{"pending to completed", StatusPending, StatusCompleted, true},
		{"pending to failed", StatusPending, StatusFailed, true},
		{"processing to pending", StatusProcessing, StatusPending, true},
		{"completed to pending", StatusCompleted, StatusPending, true},
		{"completed to processing", StatusCompleted, StatusProcessing, true},
		{"completed to failed", StatusCompleted, StatusFailed, true},
		{"failed to pending", StatusFailed, StatusPending, true},
		{"failed to processing", StatusFailed, StatusProcessing, true},
		{"failed to completed", StatusFailed, StatusCompleted, true},
		{"pending to pending", StatusPending, StatusPending, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := NewWithID("req_x", testParams())
			job.Status = tt.from

			err := job.TransitionTo(tt.to, time.Now())
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidTransition) {
					t.Errorf("expected ErrInvalidTransition, got %v", err)
				}
				if job.Status != tt.from {
					t.Errorf("status changed on rejected transition: %s", job.Status)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if job.Status != tt.to {
				t.Errorf("expected status %s, got %s", tt.to, job.Status)
			}
		})
	}
}

func TestErrInvalidTransition_IsStateError(t *testing.T) {
	if failure.Classify(ErrInvalidTransition) != failure.KindState {
		t.Errorf("expected state kind, got %s", failure.Classify(ErrInvalidTransition))
	}
}

func TestJob_Complete(t *testing.T) {
	job := NewWithID("req_x", testParams())
	at := time.Now().Add(time.Minute)

	if err := job.Start(at); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	result := Result{URL: "https://cdn.example.com/longform.mp4", DurationSeconds: 40, ProcessingSeconds: 12.5}
	if err := job.Complete(result, at); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}

	if job.Status != StatusCompleted {
		t.Errorf("expected %s, got %s", StatusCompleted, job.Status)
	}
	if job.Result == nil || *job.Result != result {
		t.Errorf("unexpected result %+v", job.Result)
	}
	if !job.UpdatedAt.Equal(at) {
		t.Error("expected UpdatedAt to be the transition time")
	}
}

func TestJob_Fail(t *testing.T) {
	job := NewWithID("req_x", testParams())
	_ = job.Start(time.Now())

	long := strings.Repeat("x", 800)
	if err := job.Fail(long, time.Now()); err != nil {
		t.Fatalf("Fail() error = %v", err)
	}

	if job.Status != StatusFailed {
		t.Errorf("expected %s, got %s", StatusFailed, job.Status)
	}
	if len(job.Error) != failure.MaxMessageLength {
		t.Errorf("expected error truncated to %d, got %d", failure.MaxMessageLength, len(job.Error))
	}
}

func TestJob_FailFromPendingRejected(t *testing.T) {
	job := NewWithID("req_x", testParams())

	if err := job.Fail("boom", time.Now()); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
	if job.Error != "" {
		t.Error("error must not be recorded on a rejected transition")
	}
}

func TestJob_IsTerminal(t *testing.T) {
	tests := []struct {
		status Status
		want   bool
	}{
		{StatusPending, false},
		{StatusProcessing, false},
		{StatusCompleted, true},
		{StatusFailed, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			job := &Job{Status: tt.status}
			if got := job.IsTerminal(); got != tt.want {
				t.Errorf("IsTerminal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestJob_Clone(t *testing.T) {
	job := NewWithID("req_x", testParams())
	_ = job.Start(time.Now())
	_ = job.Complete(Result{URL: "https://a"}, time.Now())

	clone := job.Clone()
	clone.Result.URL = "https://b"
	clone.Parameters.BackgroundURLs[0] = "https://c"
	clone.Status = StatusFailed

	if job.Result.URL != "https://a" {
		t.Error("clone shares Result with original")
	}
	if job.Parameters.BackgroundURLs[0] != "https://cdn.example.com/one.jpg" {
		t.Error("clone shares Parameters slices with original")
	}
	if job.Status != StatusCompleted {
		t.Error("clone shares Status with original")
	}
}

func TestParameters_Request(t *testing.T) {
	p := testParams()
	req := p.Request()

	if req.Kind() != compose.KindLongform {
		t.Errorf("expected longform kind, got %s", req.Kind())
	}
	if len(req.AudioURLs) != 2 || req.Quality != compose.Quality1080 || req.BackgroundType != compose.BackgroundImages {
		t.Errorf("unexpected request %+v", req)
	}
}

func TestParameters_Validate(t *testing.T) {
	urls := func(n int) []string {
		out := make([]string, n)
		for i := range out {
			out[i] = "https://cdn.example.com/x"
		}
		return out
	}

	tests := []struct {
		name    string
		mutate  func(*Parameters)
		wantErr bool
	}{
		{"valid", func(*Parameters) {}, false},
		{"no audio", func(p *Parameters) { p.AudioURLs = nil }, true},
		{"too many audio", func(p *Parameters) { p.AudioURLs = urls(31) }, true},
		{"thirty audio", func(p *Parameters) { p.AudioURLs = urls(30) }, false},
		{"fifteen images", func(p *Parameters) { p.BackgroundURLs = urls(15) }, false},
		{"sixteen images", func(p *Parameters) { p.BackgroundURLs = urls(16) }, true},
		{"five videos", func(p *Parameters) {
			p.BackgroundType = compose.BackgroundVideos
			p.BackgroundURLs = urls(5)
		}, false},
		{"six videos", func(p *Parameters) {
			p.BackgroundType = compose.BackgroundVideos
			p.BackgroundURLs = urls(6)
		}, true},
		{"no backgrounds", func(p *Parameters) { p.BackgroundURLs = nil }, true},
		{"unknown background type", func(p *Parameters) { p.BackgroundType = "gifs" }, true},
		{"unknown quality", func(p *Parameters) { p.Quality = "4k" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testParams()
			tt.mutate(&p)
			err := p.Validate()
			if tt.wantErr {
				if !errors.Is(err, failure.ErrValidation) {
					t.Errorf("expected validation error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
