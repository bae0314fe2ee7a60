// Package id provides unique identifier generation for jobs.
package id

import (
	"strings"

	"github.com/google/uuid"
)

// Prefix starts every job ID.
const Prefix = "req_"

// Generate creates a new unique job ID.
// Format: req_<32 hex chars of a random UUID>
// Example: req_3f2b8c1e9a7d4f06b5e2c8a1d9f0e4b7
func Generate() string {
	return Prefix + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Short returns the first n characters after the prefix, used in artifact names.
func Short(jobID string, n int) string {
	s := strings.TrimPrefix(jobID, Prefix)
	if len(s) > n {
		s = s[:n]
	}
	return s
}
