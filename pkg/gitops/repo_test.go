package gitops

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	goGit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testAuthor = Signature{Name: "Test User", Email: "test@example.com"}

func initRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	_, err := goGit.PlainInit(dir, false)
	require.NoError(t, err)
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestOpen(t *testing.T) {
	t.Run("detects .git from subdirectory", func(t *testing.T) {
		dir := initRepo(t)
		sub := filepath.Join(dir, "roles", "windows_software")
		require.NoError(t, os.MkdirAll(sub, 0755))

		repo, err := Open(sub)
		require.NoError(t, err)

		want, _ := filepath.EvalSymlinks(dir)
		got, _ := filepath.EvalSymlinks(repo.Root())
		assert.Equal(t, want, got)
	})

	t.Run("fails outside a repository", func(t *testing.T) {
		_, err := Open(t.TempDir())
		assert.Error(t, err)
	})
}

func TestAddAndCommit(t *testing.T) {
	dir := initRepo(t)
	writeFile(t, filepath.Join(dir, "roles", "windows_software", "tasks", "main.yml"), "---\n")
	writeFile(t, filepath.Join(dir, "playbooks", "7zip-install.yml"), "---\n")
	writeFile(t, filepath.Join(dir, "untracked.txt"), "scratch\n")

	repo, err := Open(dir)
	require.NoError(t, err)

	require.NoError(t, repo.Add(
		filepath.Join(dir, "roles"),
		"playbooks/7zip-install.yml",
	))

	staged, err := repo.Staged()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		"roles/windows_software/tasks/main.yml",
		"playbooks/7zip-install.yml",
	}, staged)

	hash, err := repo.Commit("Add Ansible role for Windows software management", testAuthor)
	require.NoError(t, err)
	assert.Len(t, hash, 40)

	head, err := repo.Head()
	require.NoError(t, err)
	assert.Equal(t, hash, head)

	t.Run("nothing staged", func(t *testing.T) {
		require.NoError(t, repo.Add("playbooks/7zip-install.yml"))
		_, err := repo.Commit("again", testAuthor)
		assert.ErrorIs(t, err, ErrNothingToCommit)
	})

	t.Run("empty message", func(t *testing.T) {
		_, err := repo.Commit("  ", testAuthor)
		assert.Error(t, err)
	})

	t.Run("commit records author", func(t *testing.T) {
		writeFile(t, filepath.Join(dir, "playbooks", "7zip-install.yml"), "---\n# changed\n")
		require.NoError(t, repo.Add("playbooks"))
		hash, err := repo.Commit("update", testAuthor)
		require.NoError(t, err)

		commit, err := repo.repo.CommitObject(plumbing.NewHash(hash))
		require.NoError(t, err)
		assert.Equal(t, "Test User", commit.Author.Name)
		assert.Equal(t, "test@example.com", commit.Author.Email)
		assert.Equal(t, "update", commit.Message)
	})
}

func TestAddOutsideRepository(t *testing.T) {
	repo, err := Open(initRepo(t))
	require.NoError(t, err)

	err = repo.Add(filepath.Join(t.TempDir(), "elsewhere.yml"))
	assert.Error(t, err)
}

func TestRemove(t *testing.T) {
	dir := initRepo(t)
	stale := filepath.Join(dir, "playbooks", "notepadpp-install.yml")
	writeFile(t, stale, "---\n")
	writeFile(t, filepath.Join(dir, "playbooks", "7zip-install.yml"), "---\n")

	repo, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, repo.Add("playbooks"))
	_, err = repo.Commit("initial", testAuthor)
	require.NoError(t, err)

	require.NoError(t, os.Remove(stale))
	require.NoError(t, repo.Remove(stale, filepath.Join(dir, "never-tracked.yml")))

	staged, err := repo.Staged()
	require.NoError(t, err)
	assert.Equal(t, []string{"playbooks/notepadpp-install.yml"}, staged)

	hash, err := repo.Commit("Remove notepadpp", testAuthor)
	require.NoError(t, err)
	commit, err := repo.repo.CommitObject(plumbing.NewHash(hash))
	require.NoError(t, err)
	tree, err := commit.Tree()
	require.NoError(t, err)
	_, err = tree.File("playbooks/notepadpp-install.yml")
	assert.Error(t, err)
	_, err = tree.File("playbooks/7zip-install.yml")
	assert.NoError(t, err)
}

func TestPush(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git binary required for local file transport")
	}

	bare := t.TempDir()
	_, err := goGit.PlainInit(bare, true)
	require.NoError(t, err)

	dir := initRepo(t)
	writeFile(t, filepath.Join(dir, "playbooks", "7zip-install.yml"), "---\n")

	repo, err := Open(dir)
	require.NoError(t, err)
	_, err = repo.repo.CreateRemote(&config.RemoteConfig{Name: "origin", URLs: []string{bare}})
	require.NoError(t, err)

	require.NoError(t, repo.Add("playbooks"))
	hash, err := repo.Commit("initial", testAuthor)
	require.NoError(t, err)

	require.NoError(t, repo.Push(context.Background(), PushOptions{Remote: "origin"}))

	remote, err := goGit.PlainOpen(bare)
	require.NoError(t, err)
	ref, err := remote.Reference(plumbing.NewBranchReferenceName("master"), true)
	require.NoError(t, err)
	assert.Equal(t, hash, ref.Hash().String())

	// Second push has nothing new.
	assert.NoError(t, repo.Push(context.Background(), PushOptions{}))

	url, err := repo.RemoteURL("origin")
	require.NoError(t, err)
	assert.Equal(t, bare, url)
}

func TestPushUnknownRemote(t *testing.T) {
	dir := initRepo(t)
	writeFile(t, filepath.Join(dir, "a.yml"), "---\n")
	repo, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, repo.Add("a.yml"))
	_, err = repo.Commit("initial", testAuthor)
	require.NoError(t, err)

	err = repo.Push(context.Background(), PushOptions{Remote: "upstream"})
	assert.Error(t, err)

	_, err = repo.RemoteURL("upstream")
	assert.Error(t, err)
}
