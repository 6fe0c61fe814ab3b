package assets

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopyInstaller(t *testing.T) {
	t.Run("copies regular file", func(t *testing.T) {
		tmpDir := t.TempDir()
		content := []byte("MZ fake installer")
		src := filepath.Join(tmpDir, "assets", "7z2301-x64.msi")
		require.NoError(t, os.MkdirAll(filepath.Dir(src), 0755))
		require.NoError(t, os.WriteFile(src, content, 0600))

		dstDir := filepath.Join(tmpDir, "roles", "windows_software", "files")
		result, err := CopyInstaller(src, dstDir)
		require.NoError(t, err)

		assert.True(t, result.Copied)
		assert.Empty(t, result.Warning)
		assert.Equal(t, filepath.Join(dstDir, "7z2301-x64.msi"), result.Path)
		assert.Equal(t, int64(len(content)), result.Size)
		assert.Equal(t, fmt.Sprintf("%x", sha256.Sum256(content)), result.SHA256)

		data, err := os.ReadFile(result.Path)
		require.NoError(t, err)
		assert.Equal(t, content, data)

		info, err := os.Stat(result.Path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0644), info.Mode().Perm()&0644)

		_, err = os.Stat(result.Path + ".copying")
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("overwrites existing copy", func(t *testing.T) {
		tmpDir := t.TempDir()
		src := filepath.Join(tmpDir, "setup.exe")
		require.NoError(t, os.WriteFile(src, []byte("new"), 0644))
		dstDir := filepath.Join(tmpDir, "files")
		require.NoError(t, os.MkdirAll(dstDir, 0755))
		require.NoError(t, os.WriteFile(filepath.Join(dstDir, "setup.exe"), []byte("old"), 0644))

		result, err := CopyInstaller(src, dstDir)
		require.NoError(t, err)
		data, err := os.ReadFile(result.Path)
		require.NoError(t, err)
		assert.Equal(t, "new", string(data))
	})

	t.Run("copies under the destination name", func(t *testing.T) {
		tmpDir := t.TempDir()
		src := filepath.Join(tmpDir, "downloads", "7z-latest.msi")
		require.NoError(t, os.MkdirAll(filepath.Dir(src), 0755))
		require.NoError(t, os.WriteFile(src, []byte("MSI"), 0644))

		dst := filepath.Join(tmpDir, "roles", "windows_software", "files", "7z2301-x64.msi")
		result, err := CopyInstallerTo(src, dst)
		require.NoError(t, err)
		assert.True(t, result.Copied)
		assert.Equal(t, dst, result.Path)

		data, err := os.ReadFile(dst)
		require.NoError(t, err)
		assert.Equal(t, "MSI", string(data))
		assert.NoFileExists(t, filepath.Join(filepath.Dir(dst), "7z-latest.msi"))
	})

	t.Run("missing source is a warning", func(t *testing.T) {
		tmpDir := t.TempDir()
		dstDir := filepath.Join(tmpDir, "files")

		result, err := CopyInstaller(filepath.Join(tmpDir, "missing.msi"), dstDir)
		require.NoError(t, err)
		assert.False(t, result.Copied)
		assert.Contains(t, result.Warning, "missing.msi")

		_, err = os.Stat(dstDir)
		assert.True(t, os.IsNotExist(err), "files dir should not be created")
	})

	t.Run("directory source is an error", func(t *testing.T) {
		tmpDir := t.TempDir()
		src := filepath.Join(tmpDir, "installer.msi")
		require.NoError(t, os.Mkdir(src, 0755))

		_, err := CopyInstaller(src, filepath.Join(tmpDir, "files"))
		assert.Error(t, err)
	})
}

func TestFileSHA256(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f")
	require.NoError(t, os.WriteFile(path, []byte("abc"), 0644))

	sum, err := FileSHA256(path)
	require.NoError(t, err)
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", sum)

	_, err = FileSHA256(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}
