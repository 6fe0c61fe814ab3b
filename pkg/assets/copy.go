// Package assets copies installer binaries into the generated role.
package assets

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// Result describes the outcome of CopyInstaller.
type Result struct {
	// Copied is true when the installer was written to Path
	Copied bool

	// Path is the destination file
	Path string

	// Size and SHA256 describe the copied file
	Size   int64
	SHA256 string

	// Warning is set when the source was missing and nothing was copied
	Warning string
}

// CopyInstaller copies src into dstDir, keeping its base name.
func CopyInstaller(src, dstDir string) (*Result, error) {
	return CopyInstallerTo(src, filepath.Join(dstDir, filepath.Base(src)))
}

// CopyInstallerTo copies src to the file dst, creating its directory.
//
// A missing src is not an error: the result carries a warning and the run
// continues. A src that is a directory or cannot be read is an error.
func CopyInstallerTo(src, dst string) (*Result, error) {
	dstDir := filepath.Dir(dst)
	result := &Result{Path: dst}

	info, err := os.Stat(src)
	if errors.Is(err, fs.ErrNotExist) {
		result.Warning = fmt.Sprintf("installer not found at %s, skipping copy", src)
		return result, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stat installer: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("installer source is not a regular file: %s", src)
	}

	if err := os.MkdirAll(dstDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create files directory: %w", err)
	}

	in, err := os.Open(src)
	if err != nil {
		return nil, fmt.Errorf("failed to open installer: %w", err)
	}
	defer in.Close()

	tmpPath := dst + ".copying"
	out, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}

	renamed := false
	defer func() {
		out.Close()
		if !renamed {
			os.Remove(tmpPath)
		}
	}()

	h := sha256.New()
	n, err := io.Copy(io.MultiWriter(out, h), in)
	if err != nil {
		return nil, fmt.Errorf("failed to copy installer: %w", err)
	}
	if err := out.Sync(); err != nil {
		return nil, fmt.Errorf("failed to sync installer: %w", err)
	}
	if err := out.Close(); err != nil {
		return nil, fmt.Errorf("failed to close installer: %w", err)
	}

	if err := os.Rename(tmpPath, dst); err != nil {
		return nil, fmt.Errorf("failed to move installer into place: %w", err)
	}
	renamed = true

	result.Copied = true
	result.Size = n
	result.SHA256 = fmt.Sprintf("%x", h.Sum(nil))
	return result, nil
}

// FileSHA256 calculates the SHA256 hash of a file.
func FileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}

	return fmt.Sprintf("%x", h.Sum(nil)), nil
}
