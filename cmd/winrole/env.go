package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jaspreet-dot-casa/winrole/pkg/config"
	"github.com/jaspreet-dot-casa/winrole/pkg/logging"
	"github.com/jaspreet-dot-casa/winrole/pkg/project"
)

// globalOptions holds the persistent root flags.
type globalOptions struct {
	verbose    bool
	configPath string
	dir        string
}

// workDir returns the directory commands start from.
func (g *globalOptions) workDir() (string, error) {
	if g.dir != "" {
		return filepath.Abs(g.dir)
	}
	return os.Getwd()
}

// projectEnv is the resolved project a command operates on.
type projectEnv struct {
	root string
	cfg  *config.Config
	dirs config.Dirs
	log  *zap.SugaredLogger
}

// loadProject finds the project root and loads its configuration. An explicit
// --config file makes its directory the root.
func (g *globalOptions) loadProject(cmd *cobra.Command) (*projectEnv, error) {
	var (
		root string
		cfg  *config.Config
		err  error
	)

	if g.configPath != "" {
		path, err := filepath.Abs(g.configPath)
		if err != nil {
			return nil, err
		}
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file not found: %w", err)
		}
		root = filepath.Dir(path)
		cfg, err = config.LoadFile(path)
		if err != nil {
			return nil, err
		}
	} else {
		start, err := g.workDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		root, err = project.FindRootFrom(start)
		if err != nil {
			return nil, fmt.Errorf("could not find project root: %w", err)
		}
		cfg, err = config.Load(root)
		if err != nil {
			return nil, err
		}
	}

	log, err := g.logger(cmd, cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	log.Debugw("loaded project", "root", root, "config", config.Path(root))

	return &projectEnv{root: root, cfg: cfg, dirs: cfg.Resolve(root), log: log}, nil
}

// logger builds the diagnostic logger on the command's stderr.
func (g *globalOptions) logger(cmd *cobra.Command, level string) (*zap.SugaredLogger, error) {
	if g.verbose {
		level = "debug"
	}
	return logging.NewWithWriter(level, cmd.ErrOrStderr())
}

// relTo returns path relative to root for display, or path unchanged.
func relTo(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	return rel
}
