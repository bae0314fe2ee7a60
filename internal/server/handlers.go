package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/maauso/mediacompose-api/internal/compose"
	"github.com/maauso/mediacompose-api/internal/failure"
	"github.com/maauso/mediacompose-api/internal/job"
	"github.com/maauso/mediacompose-api/internal/merge"
)

// Version is reported by the info endpoint.
const Version = "1.0.0"

// maxBodyBytes bounds request bodies; they only carry URL lists.
const maxBodyBytes = 1 << 20

// MergeService performs synchronous clip merges.
type MergeService interface {
	Merge(ctx context.Context, req compose.MergeRequest) (merge.Result, error)
}

// JobService creates and reads longform jobs.
type JobService interface {
	Submit(ctx context.Context, params job.Parameters) (*job.Job, error)
	Get(ctx context.Context, id string) (*job.Job, error)
	Result(ctx context.Context, id string) (*job.Job, error)
}

// Handlers contains the HTTP handlers for the API.
type Handlers struct {
	merges    MergeService
	jobs      JobService
	validator *validator.Validate
	logger    *slog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(merges MergeService, jobs JobService, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		merges:    merges,
		jobs:      jobs,
		validator: newValidator(),
		logger:    logger,
	}
}

// Info handles GET / requests.
func (h *Handlers) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, InfoResponse{
		Service: "mediacompose-api",
		Version: Version,
		Endpoints: map[string]string{
			"health":          "GET /health",
			"metrics":         "GET /metrics",
			"merge":           "POST /api/v1/merge",
			"longform_render": "POST /api/v1/longform/render",
			"longform_status": "GET /api/v1/longform/status/{id}",
			"longform_result": "GET /api/v1/longform/result/{id}",
		},
	})
}

// Health handles GET /health requests.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// Merge handles POST /api/v1/merge requests. The response is written once the
// merged video is published.
func (h *Handlers) Merge(w http.ResponseWriter, r *http.Request) {
	var req MergeRequest
	if !h.decode(w, r, &req) {
		return
	}
	trimURLs(req.VideoURLs)
	if !h.validate(w, req) {
		return
	}

	res, err := h.merges.Merge(r.Context(), compose.MergeRequest{
		VideoURLs:   req.VideoURLs,
		Quality:     compose.Quality(withDefault(req.Quality, string(compose.Quality1080))),
		AspectRatio: compose.AspectRatio(withDefault(req.AspectRatio, string(compose.Aspect16x9))),
	})
	if err != nil {
		h.writeFailure(w, err)
		return
	}

	writeJSON(w, http.StatusOK, MergeResponse{
		Success:         true,
		MergedURL:       res.URL,
		DurationSeconds: round2(res.DurationSeconds),
		ProcessingTime:  round2(res.ProcessingTime.Seconds()),
		ClipsMerged:     res.ClipsMerged,
	})
}

// CreateLongform handles POST /api/v1/longform/render requests.
func (h *Handlers) CreateLongform(w http.ResponseWriter, r *http.Request) {
	var req LongformRequest
	if !h.decode(w, r, &req) {
		return
	}
	trimURLs(req.AudioURLs)
	trimURLs(req.BackgroundURLs)
	if !h.validate(w, req) {
		return
	}

	created, err := h.jobs.Submit(r.Context(), job.Parameters{
		AudioURLs:      req.AudioURLs,
		BackgroundType: compose.BackgroundType(req.BackgroundSource),
		BackgroundURLs: req.BackgroundURLs,
		Quality:        compose.Quality(withDefault(req.Quality, string(compose.Quality1080))),
	})
	if err != nil {
		h.writeFailure(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, LongformResponse{
		Success:   true,
		RequestID: created.ID,
		Message:   "longform render queued",
	})
}

// LongformStatus handles GET /api/v1/longform/status/{id} requests.
func (h *Handlers) LongformStatus(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")
	if jobID == "" {
		writeError(w, http.StatusBadRequest, "job ID is required", "MISSING_JOB_ID")
		return
	}

	found, err := h.jobs.Get(r.Context(), jobID)
	if err != nil {
		h.writeFailure(w, err)
		return
	}

	resp := JobStatusResponse{
		RequestID: found.ID,
		Status:    string(found.Status),
		CreatedAt: found.CreatedAt,
		UpdatedAt: found.UpdatedAt,
	}
	if found.Error != "" {
		resp.ErrorMessage = &found.Error
	}
	writeJSON(w, http.StatusOK, resp)
}

// LongformResult handles GET /api/v1/longform/result/{id} requests.
func (h *Handlers) LongformResult(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")
	if jobID == "" {
		writeError(w, http.StatusBadRequest, "job ID is required", "MISSING_JOB_ID")
		return
	}

	done, err := h.jobs.Result(r.Context(), jobID)
	if err != nil {
		h.writeFailure(w, err)
		return
	}

	writeJSON(w, http.StatusOK, JobResultResponse{
		RequestID:       done.ID,
		Status:          string(done.Status),
		ResultURL:       done.Result.URL,
		DurationSeconds: round2(done.Result.DurationSeconds),
		ProcessingTime:  round2(done.Result.ProcessingSeconds),
	})
}

func (h *Handlers) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst); err != nil {
		h.logger.Warn("failed to decode request body",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, "invalid JSON body", "INVALID_JSON")
		return false
	}
	return true
}

func (h *Handlers) validate(w http.ResponseWriter, req any) bool {
	if err := h.validator.Struct(req); err != nil {
		msg := describeValidation(err)
		h.logger.Warn("request validation failed", slog.String("error", msg))
		writeError(w, http.StatusBadRequest, msg, "VALIDATION_ERROR")
		return false
	}
	return true
}

// writeFailure maps a classified error to its HTTP status and code.
func (h *Handlers) writeFailure(w http.ResponseWriter, err error) {
	kind := failure.Classify(err)
	status, code := statusFor(kind)

	msg := failure.Message(err)
	if kind == failure.KindInternal {
		h.logger.Error("request failed", slog.String("error", err.Error()))
		msg = "internal server error"
	}
	writeError(w, status, msg, code)
}

// statusFor returns the HTTP status and error code of a failure kind.
func statusFor(kind failure.Kind) (int, string) {
	switch kind {
	case failure.KindValidation:
		return http.StatusBadRequest, "VALIDATION_ERROR"
	case failure.KindAcquisition:
		return http.StatusUnprocessableEntity, "ACQUISITION_FAILED"
	case failure.KindComposition:
		return http.StatusInternalServerError, "COMPOSITION_FAILED"
	case failure.KindSink:
		return http.StatusInternalServerError, "PUBLISH_FAILED"
	case failure.KindNotFound:
		return http.StatusNotFound, "JOB_NOT_FOUND"
	case failure.KindState:
		return http.StatusBadRequest, "JOB_NOT_COMPLETED"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}

func withDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// round2 rounds to two decimals for display.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
	}
}

// writeError writes an error response in the standard format.
func writeError(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}
