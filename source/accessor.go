// Package source provides access to file contents and diffs for a repository
// at a given revision. The pipeline consumes it as an external collaborator;
// retry and auth policy live behind the interface.
package source

import "context"

// FileStatus describes how a file changed between two revisions.
type FileStatus string

const (
	StatusAdded    FileStatus = "added"
	StatusRemoved  FileStatus = "removed"
	StatusModified FileStatus = "modified"
)

// ChangedFile describes one file touched by a diff.
type ChangedFile struct {
	Path   string     `json:"path"`
	Status FileStatus `json:"status"`
}

// Accessor retrieves file contents and diffs for a revision.
type Accessor interface {
	// FileContents returns the full text of a file at the given revision.
	// An empty revision means the working tree.
	FileContents(ctx context.Context, path, revision string) (string, error)

	// Diff returns the unified diff text and the changed-file list
	// between two revisions.
	Diff(ctx context.Context, base, head string) (string, []ChangedFile, error)
}
