package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, Default(), cfg)
	assert.Equal(t, "windows_software", cfg.RoleName)
	assert.Equal(t, DefaultCommitMessage, cfg.Git.CommitMessage)
	assert.True(t, cfg.Git.Enabled)
	assert.True(t, cfg.Git.Push)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	root := t.TempDir()
	content := `role_name: desktop_apps
hosts: workstations
git:
  push: false
  author_name: Build Bot
`
	require.NoError(t, os.WriteFile(filepath.Join(root, FileName), []byte(content), 0644))

	cfg, err := Load(root)
	require.NoError(t, err)

	assert.Equal(t, "desktop_apps", cfg.RoleName)
	assert.Equal(t, "workstations", cfg.Hosts)
	assert.False(t, cfg.Git.Push)
	assert.Equal(t, "Build Bot", cfg.Git.AuthorName)
	// untouched keys keep their defaults
	assert.True(t, cfg.Git.Enabled)
	assert.Equal(t, "origin", cfg.Git.Remote)
	assert.Equal(t, "packages", cfg.PackagesDir)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, FileName), []byte("git:\n  remote: upstream\n"), 0644))

	t.Setenv("WINROLE_GIT_REMOTE", "mirror")
	t.Setenv("WINROLE_GIT_PUSH", "false")
	t.Setenv("WINROLE_ROLE_NAME", "from_env")
	t.Setenv("WINROLE_UNRELATED_SETTING", "ignored")

	cfg, err := Load(root)
	require.NoError(t, err)

	assert.Equal(t, "mirror", cfg.Git.Remote)
	assert.False(t, cfg.Git.Push)
	assert.Equal(t, "from_env", cfg.RoleName)
}

func TestLoadInvalidFile(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, FileName), []byte("role_name: [\n"), 0644))

	_, err := Load(root)
	require.Error(t, err)
	assert.Contains(t, err.Error(), FileName)
}

func TestSaveRoundTrip(t *testing.T) {
	root := t.TempDir()
	cfg := Default()
	cfg.RoleName = "lab_software"
	cfg.Git.AuthorEmail = "ops@example.com"

	require.NoError(t, cfg.Save(Path(root)))

	loaded, err := Load(root)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestResolve(t *testing.T) {
	cfg := Default()
	cfg.AssetsDir = "/srv/installers"

	dirs := cfg.Resolve("/proj")
	assert.Equal(t, "/proj/packages", dirs.Packages)
	assert.Equal(t, "/srv/installers", dirs.Assets)
	assert.Equal(t, "/proj/roles", dirs.Roles)
	assert.Equal(t, "/proj/playbooks", dirs.Playbooks)
	assert.Equal(t, "/proj/roles/windows_software", dirs.RoleDir(cfg.RoleName))
}
