// Package server provides the HTTP server for the media composition API.
// It includes handlers, middleware, routes, and DTOs separated from domain types.
package server

import "time"

// MergeRequest is the HTTP request body for a synchronous clip merge.
type MergeRequest struct {
	// VideoURLs are the clips to merge, in playback order.
	VideoURLs []string `json:"video_urls" validate:"required,min=2,max=10,dive,required,http_url"`
	// Quality is "720" or "1080". Defaults to "1080".
	Quality string `json:"quality" validate:"omitempty,oneof=720 1080"`
	// AspectRatio is "16:9", "9:16" or "1:1". Defaults to "16:9".
	AspectRatio string `json:"aspect_ratio" validate:"omitempty,oneof=16:9 9:16 1:1"`
}

// MergeResponse is the HTTP response of a successful merge.
type MergeResponse struct {
	Success         bool    `json:"success"`
	MergedURL       string  `json:"merged_url"`
	DurationSeconds float64 `json:"duration_seconds"`
	// ProcessingTime is the wall time of the request in seconds.
	ProcessingTime float64 `json:"processing_time"`
	ClipsMerged    int     `json:"clips_merged"`
}

// LongformRequest is the HTTP request body for creating a longform job.
// The number of background URLs allowed depends on BackgroundSource and is
// checked by a struct-level rule.
type LongformRequest struct {
	// AudioURLs are the narration tracks, concatenated in order.
	AudioURLs []string `json:"audio_urls" validate:"required,min=1,max=30,dive,required,http_url"`
	// BackgroundSource is "images" or "videos".
	BackgroundSource string `json:"background_source" validate:"required,oneof=images videos"`
	// BackgroundURLs are the stills or clips shown behind the narration.
	BackgroundURLs []string `json:"background_urls" validate:"required,min=1,dive,required,http_url"`
	// Quality is "720" or "1080". Defaults to "1080".
	Quality string `json:"quality" validate:"omitempty,oneof=720 1080"`
}

// LongformResponse is the HTTP response after queueing a longform job.
type LongformResponse struct {
	Success   bool   `json:"success"`
	RequestID string `json:"request_id"`
	Message   string `json:"message"`
}

// JobStatusResponse is the HTTP response for a job status query.
type JobStatusResponse struct {
	RequestID string    `json:"request_id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	// ErrorMessage is null until the job has failed.
	ErrorMessage *string `json:"error_message"`
}

// JobResultResponse is the HTTP response for a completed job.
type JobResultResponse struct {
	RequestID       string  `json:"request_id"`
	Status          string  `json:"status"`
	ResultURL       string  `json:"result_url"`
	DurationSeconds float64 `json:"duration_seconds"`
	ProcessingTime  float64 `json:"processing_time"`
}

// InfoResponse describes the service and its endpoints.
type InfoResponse struct {
	Service   string            `json:"service"`
	Version   string            `json:"version"`
	Endpoints map[string]string `json:"endpoints"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	// Error is the human-readable error message.
	Error string `json:"error"`
	// Code is the error code for programmatic handling.
	Code string `json:"code"`
}

// HealthResponse is the HTTP response for the health check endpoint.
type HealthResponse struct {
	// Status is the health status of the service.
	Status string `json:"status"`
}
