// Package storage provides per-job scratch space and the artifact sink that
// publishes finished renders. It defines the Storage interface (port) and
// implementations for local disk and S3.
package storage

import "context"

// ContentTypeMP4 is the content type of every published artifact.
const ContentTypeMP4 = "video/mp4"

// Storage defines scratch directories and artifact publication.
type Storage interface {
	// NewWorkDir creates an empty, uniquely named directory for one request.
	// The prefix is used as a hint for the directory name.
	NewWorkDir(ctx context.Context, prefix string) (dir string, err error)

	// CleanupDir removes a work directory and everything inside it.
	// Removing a directory that no longer exists is not an error.
	CleanupDir(ctx context.Context, dir string) error

	// Publish stores the file at localPath under key and returns a URL that
	// the client can fetch it from.
	Publish(ctx context.Context, key, localPath string) (url string, err error)
}
