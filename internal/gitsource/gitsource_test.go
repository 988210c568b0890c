package gitsource

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalPath(t *testing.T) {
	testCases := []struct {
		name    string
		url     string
		want    string
		wantErr bool
	}{
		{name: "https", url: "https://github.com/owner/notes.git", want: filepath.Join("repos", "github.com", "owner", "notes")},
		{name: "scp", url: "git@github.com:owner/notes.git", want: filepath.Join("repos", "github.com", "owner", "notes")},
		{name: "file", url: "file:///srv/git/notes.git", want: filepath.Join("repos", "srv", "git", "notes")},
		{name: "garbage", url: "not a url", wantErr: true},
		{name: "https traversal", url: "https://example.com/../../../tmp/evil.git", wantErr: true},
		{name: "scp traversal", url: "git@host:../../etc/evil.git", wantErr: true},
		{name: "no path", url: "https://", wantErr: true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := LocalPath("repos", tc.url)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestIsURL(t *testing.T) {
	assert.True(t, IsURL("https://github.com/owner/notes.git"))
	assert.True(t, IsURL("git@github.com:owner/notes.git"))
	assert.True(t, IsURL("file:///srv/git/notes"))
	assert.False(t, IsURL("./notes"))
}

// newOrigin creates a repository with one committed markdown file.
func newOrigin(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.md"), []byte("Q: q\nA: a\n"), 0o644))

	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("notes.md")
	require.NoError(t, err)
	_, err = wt.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{Name: "test", Email: "test@example.com", When: time.Now()},
	})
	require.NoError(t, err)
	return dir
}

func TestSyncClonesThenPulls(t *testing.T) {
	origin := newOrigin(t)
	dest := filepath.Join(t.TempDir(), "checkout")
	ctx := context.Background()

	require.NoError(t, Sync(ctx, origin, dest))
	assert.FileExists(t, filepath.Join(dest, "notes.md"))

	// second run pulls and is already up to date
	require.NoError(t, Sync(ctx, origin, dest))
}
