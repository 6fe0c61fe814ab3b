// Package gitops stages, commits and pushes scaffolded files with go-git.
package gitops

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	goGit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/format/index"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
)

// ErrNothingToCommit is returned by Commit when no staged change exists.
var ErrNothingToCommit = errors.New("nothing to commit")

// Signature identifies the commit author. Empty fields fall back to the
// repository and user git configuration.
type Signature struct {
	Name  string
	Email string
}

// Repo is an opened working tree.
type Repo struct {
	repo *goGit.Repository
	wt   *goGit.Worktree
	root string
}

// Open opens the repository containing dir, searching parent directories
// for .git.
func Open(dir string) (*Repo, error) {
	repo, err := goGit.PlainOpenWithOptions(dir, &goGit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open repository at %s: %w", dir, err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("failed to get worktree: %w", err)
	}

	return &Repo{repo: repo, wt: wt, root: wt.Filesystem.Root()}, nil
}

// Root is the worktree root directory.
func (r *Repo) Root() string {
	return r.root
}

// Add stages paths. Absolute paths must be inside the worktree; relative
// paths are taken from the worktree root.
func (r *Repo) Add(paths ...string) error {
	for _, p := range paths {
		rel, err := r.relative(p)
		if err != nil {
			return err
		}
		if _, err := r.wt.Add(rel); err != nil {
			return fmt.Errorf("failed to stage %s: %w", rel, err)
		}
	}
	return nil
}

// Remove stages the deletion of paths and deletes them from the worktree if
// they still exist. Paths git does not track are skipped.
func (r *Repo) Remove(paths ...string) error {
	for _, p := range paths {
		rel, err := r.relative(p)
		if err != nil {
			return err
		}
		if _, err := r.wt.Remove(rel); err != nil && !errors.Is(err, index.ErrEntryNotFound) {
			return fmt.Errorf("failed to stage removal of %s: %w", rel, err)
		}
	}
	return nil
}

func (r *Repo) relative(p string) (string, error) {
	if !filepath.IsAbs(p) {
		return filepath.ToSlash(filepath.Clean(p)), nil
	}

	root, err := filepath.EvalSymlinks(r.root)
	if err != nil {
		root = r.root
	}
	target := p
	if resolved, err := filepath.EvalSymlinks(filepath.Dir(p)); err == nil {
		target = filepath.Join(resolved, filepath.Base(p))
	}

	rel, err := filepath.Rel(root, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %s is outside the repository %s", p, r.root)
	}
	return filepath.ToSlash(rel), nil
}

// Staged returns the paths with staged changes.
func (r *Repo) Staged() ([]string, error) {
	status, err := r.wt.Status()
	if err != nil {
		return nil, fmt.Errorf("failed to get status: %w", err)
	}

	var staged []string
	for path, s := range status {
		if s.Staging != goGit.Unmodified && s.Staging != goGit.Untracked {
			staged = append(staged, path)
		}
	}
	return staged, nil
}

// Commit records the staged changes and returns the commit hash.
// It returns ErrNothingToCommit when nothing is staged.
func (r *Repo) Commit(msg string, author Signature) (string, error) {
	if strings.TrimSpace(msg) == "" {
		return "", fmt.Errorf("commit message cannot be empty")
	}

	staged, err := r.Staged()
	if err != nil {
		return "", err
	}
	if len(staged) == 0 {
		return "", ErrNothingToCommit
	}

	opts := &goGit.CommitOptions{}
	if author.Name != "" && author.Email != "" {
		opts.Author = &object.Signature{
			Name:  author.Name,
			Email: author.Email,
			When:  time.Now(),
		}
	}

	hash, err := r.wt.Commit(msg, opts)
	if err != nil {
		return "", fmt.Errorf("failed to commit: %w", err)
	}
	return hash.String(), nil
}

// PushOptions configures Push.
type PushOptions struct {
	Remote string
	Auth   transport.AuthMethod
}

// Push pushes local branches to the remote. An up-to-date remote is not an error.
func (r *Repo) Push(ctx context.Context, opts PushOptions) error {
	remote := opts.Remote
	if remote == "" {
		remote = goGit.DefaultRemoteName
	}

	err := r.repo.PushContext(ctx, &goGit.PushOptions{
		RemoteName: remote,
		Auth:       opts.Auth,
	})
	if err != nil && !errors.Is(err, goGit.NoErrAlreadyUpToDate) {
		return fmt.Errorf("failed to push to %s: %w", remote, err)
	}
	return nil
}

// RemoteURL returns the first URL configured for the named remote.
func (r *Repo) RemoteURL(name string) (string, error) {
	remote, err := r.repo.Remote(name)
	if err != nil {
		return "", fmt.Errorf("remote %q not found: %w", name, err)
	}
	urls := remote.Config().URLs
	if len(urls) == 0 {
		return "", fmt.Errorf("remote %q has no URL", name)
	}
	return urls[0], nil
}

// Head returns the hash of the current HEAD commit.
func (r *Repo) Head() (string, error) {
	ref, err := r.repo.Head()
	if err != nil {
		return "", fmt.Errorf("failed to get repository head: %w", err)
	}
	return ref.Hash().String(), nil
}
