// Package project locates the winrole project root.
package project

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jaspreet-dot-casa/winrole/pkg/config"
)

// FindRoot finds the project root from the current working directory.
func FindRoot() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return FindRootFrom(cwd)
}

// FindRootFrom walks up from start. The nearest directory holding winrole.yaml
// wins; failing that, the nearest directory holding .git.
func FindRootFrom(start string) (string, error) {
	start, err := filepath.Abs(start)
	if err != nil {
		return "", err
	}

	gitRoot := ""
	dir := start
	for {
		if _, err := os.Stat(filepath.Join(dir, config.FileName)); err == nil {
			return dir, nil
		}

		if gitRoot == "" {
			if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
				gitRoot = dir
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	if gitRoot != "" {
		return gitRoot, nil
	}

	return "", fmt.Errorf("could not find project root from %s (looked for %s or .git)", start, config.FileName)
}
