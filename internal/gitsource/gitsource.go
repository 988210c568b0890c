// Package gitsource keeps local checkouts of git-hosted markdown sources.
package gitsource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
)

// Sync clones repoURL into localPath if it doesn't exist yet, or pulls the
// latest changes if it does.
func Sync(ctx context.Context, repoURL, localPath string) error {
	_, err := os.Stat(localPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		slog.Info("cloning repository", "url", repoURL, "path", localPath)
		_, err := git.PlainCloneContext(ctx, localPath, false, &git.CloneOptions{
			URL:      repoURL,
			Progress: io.Discard,
		})
		if err != nil {
			return fmt.Errorf("failed to clone repo %s: %w", repoURL, err)
		}
	case err == nil:
		slog.Info("pulling repository", "path", localPath)
		repo, err := git.PlainOpen(localPath)
		if err != nil {
			return fmt.Errorf("failed to open existing repo at %s: %w", localPath, err)
		}
		worktree, err := repo.Worktree()
		if err != nil {
			return fmt.Errorf("failed to get worktree for repo at %s: %w", localPath, err)
		}
		err = worktree.PullContext(ctx, &git.PullOptions{
			RemoteName: "origin",
			Progress:   io.Discard,
		})
		if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
			return fmt.Errorf("failed to pull changes for repo at %s: %w", localPath, err)
		}
	default:
		return fmt.Errorf("error checking path %s: %w", localPath, err)
	}
	return nil
}

// LocalPath maps a repository URL to its checkout directory under baseDir.
// Both https URLs and scp-like "git@host:owner/repo.git" forms are accepted.
// The result always lies strictly inside baseDir.
func LocalPath(baseDir, repoURL string) (string, error) {
	u, err := url.Parse(repoURL)
	if err == nil && (u.Scheme == "https" || u.Scheme == "http" || u.Scheme == "file") {
		return within(baseDir, filepath.Join(baseDir, u.Host, strings.TrimSuffix(u.Path, ".git")), repoURL)
	}

	// scp-like syntax
	userHost, repoPath, ok := strings.Cut(repoURL, ":")
	if ok && strings.Contains(userHost, "@") {
		_, host, _ := strings.Cut(userHost, "@")
		if host != "" && repoPath != "" {
			return within(baseDir, filepath.Join(baseDir, host, strings.TrimSuffix(repoPath, ".git")), repoURL)
		}
	}
	return "", fmt.Errorf("could not parse git URL: %s", repoURL)
}

func within(baseDir, p, repoURL string) (string, error) {
	rel, err := filepath.Rel(baseDir, p)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("git URL escapes repository directory: %s", repoURL)
	}
	return p, nil
}

// IsURL reports whether path looks like a remote git repository rather than
// a local directory.
func IsURL(path string) bool {
	return strings.HasPrefix(path, "http://") ||
		strings.HasPrefix(path, "file://") ||
		strings.HasPrefix(path, "https://") ||
		strings.HasPrefix(path, "git@") ||
		strings.HasSuffix(path, ".git")
}
