package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindRootFrom(t *testing.T) {
	t.Run("finds config file in ancestor", func(t *testing.T) {
		root := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(root, "winrole.yaml"), nil, 0644))
		nested := filepath.Join(root, "roles", "windows_software", "tasks")
		require.NoError(t, os.MkdirAll(nested, 0755))

		got, err := FindRootFrom(nested)
		require.NoError(t, err)
		assert.Equal(t, root, got)
	})

	t.Run("config file beats nearer git directory", func(t *testing.T) {
		root := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(root, "winrole.yaml"), nil, 0644))
		sub := filepath.Join(root, "vendor", "other")
		require.NoError(t, os.MkdirAll(filepath.Join(sub, ".git"), 0755))

		got, err := FindRootFrom(sub)
		require.NoError(t, err)
		assert.Equal(t, root, got)
	})

	t.Run("falls back to git directory", func(t *testing.T) {
		root := t.TempDir()
		require.NoError(t, os.Mkdir(filepath.Join(root, ".git"), 0755))
		nested := filepath.Join(root, "a", "b")
		require.NoError(t, os.MkdirAll(nested, 0755))

		got, err := FindRootFrom(nested)
		require.NoError(t, err)
		assert.Equal(t, root, got)
	})
}
