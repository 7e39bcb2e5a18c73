package git

import (
	"context"
	"os"
	"time"

	"github.com/go-git/go-git/v5"

	"github.com/contextinator/contextinator/internal/contextinatorerrors"
)

// DefaultCloneTimeout is the clone deadline when the caller doesn't specify
// one: 300s, matching the provider default for remote repo fetches.
const DefaultCloneTimeout = 300 * time.Second

// CloneShallow clones url at depth 1 into a fresh temporary directory under
// parentDir (os.TempDir() if empty) and returns its path. On timeout or any
// clone failure, the partial directory is removed before returning the
// error.
func CloneShallow(ctx context.Context, url, parentDir string, timeout time.Duration) (string, error) {
	if timeout <= 0 {
		timeout = DefaultCloneTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	dir, err := os.MkdirTemp(parentDir, "contextinator-clone-*")
	if err != nil {
		return "", contextinatorerrors.FileSystemError(err, "create clone temp directory")
	}

	_, err = git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{
		URL:      url,
		Depth:    1,
		Progress: nil,
	})
	if err != nil {
		os.RemoveAll(dir)
		return "", contextinatorerrors.FileSystemError(err, "clone %s", url)
	}

	return dir, nil
}

// Cleanup removes a directory tree produced by CloneShallow. Safe to call
// on any path; errors are not fatal since cleanup runs on every exit path
// including after a failure that may have already partially removed it.
func Cleanup(path string) {
	if path == "" {
		return
	}
	os.RemoveAll(path)
}
