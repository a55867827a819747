package source

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// GitAccessor implements Accessor on top of the git CLI.
type GitAccessor struct {
	repoRoot string
	logger   *slog.Logger
}

// GitOption configures a GitAccessor.
type GitOption func(*GitAccessor)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) GitOption {
	return func(g *GitAccessor) {
		g.logger = logger
	}
}

// NewGitAccessor creates an accessor rooted at the given repository path.
func NewGitAccessor(repoRoot string, opts ...GitOption) *GitAccessor {
	g := &GitAccessor{
		repoRoot: repoRoot,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// FileContents returns the file text at a revision. An empty revision reads
// the working tree directly.
func (g *GitAccessor) FileContents(ctx context.Context, path, revision string) (string, error) {
	if err := validatePath(g.repoRoot, filepath.Join(g.repoRoot, path)); err != nil {
		return "", err
	}

	if revision == "" {
		data, err := os.ReadFile(filepath.Join(g.repoRoot, path))
		if err != nil {
			return "", fmt.Errorf("read file: %w", err)
		}
		return string(data), nil
	}

	out, err := g.run(ctx, "show", revision+":"+filepath.ToSlash(path))
	if err != nil {
		return "", fmt.Errorf("git show %s:%s: %w", revision, path, err)
	}
	return out, nil
}

// Diff returns the unified diff and changed files between two revisions.
func (g *GitAccessor) Diff(ctx context.Context, base, head string) (string, []ChangedFile, error) {
	spec := diffSpec(base, head)

	names, err := g.run(ctx, append([]string{"diff", "--name-status"}, spec...)...)
	if err != nil {
		return "", nil, fmt.Errorf("git diff --name-status: %w", err)
	}

	text, err := g.run(ctx, append([]string{"diff"}, spec...)...)
	if err != nil {
		return "", nil, fmt.Errorf("git diff: %w", err)
	}

	return text, parseNameStatus(names), nil
}

// DiffWorkingTree returns the diff between HEAD and the working tree.
func (g *GitAccessor) DiffWorkingTree(ctx context.Context) (string, []ChangedFile, error) {
	return g.Diff(ctx, "HEAD", "")
}

func diffSpec(base, head string) []string {
	switch {
	case base == "" && head == "":
		return nil
	case head == "":
		return []string{base}
	default:
		return []string{base, head}
	}
}

// parseNameStatus converts `git diff --name-status` output into ChangedFiles.
func parseNameStatus(out string) []ChangedFile {
	var files []ChangedFile
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}

		var status FileStatus
		switch fields[0][0] {
		case 'A':
			status = StatusAdded
		case 'D':
			status = StatusRemoved
		default:
			// Modifications, renames and copies all count as modified;
			// renames report the destination path last.
			status = StatusModified
		}

		files = append(files, ChangedFile{
			Path:   fields[len(fields)-1],
			Status: status,
		})
	}
	return files
}

// run executes a git command in the repository root.
func (g *GitAccessor) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = g.repoRoot

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	g.logger.Debug("Running git command", "args", args)

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return "", fmt.Errorf("git %s: %s: %w", args[0], msg, err)
		}
		return "", fmt.Errorf("git %s: %w", args[0], err)
	}

	return stdout.String(), nil
}

// validatePath ensures a path stays within the repository root.
func validatePath(baseDir, path string) error {
	if path == "" {
		return fmt.Errorf("path is required")
	}
	if strings.Contains(path, "..") {
		return fmt.Errorf("path traversal not allowed")
	}

	absPath, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}
	absBase, err := filepath.Abs(filepath.Clean(baseDir))
	if err != nil {
		return fmt.Errorf("invalid base path: %w", err)
	}

	if !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) && absPath != absBase {
		return fmt.Errorf("path must be within %s", absBase)
	}
	return nil
}
