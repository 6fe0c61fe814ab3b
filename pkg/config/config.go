// Package config loads the winrole project configuration.
// Configuration lives in winrole.yaml at the project root and is layered:
// built-in defaults, then the file, then WINROLE_* environment variables.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// FileName is the project configuration file name.
const FileName = "winrole.yaml"

// EnvPrefix is the prefix of environment overrides (WINROLE_GIT_REMOTE -> git.remote).
const EnvPrefix = "WINROLE_"

// DefaultCommitMessage is the commit message used for scaffolding runs.
const DefaultCommitMessage = "Add Ansible role for Windows software management"

// ErrNotInitialized is returned when no winrole.yaml exists in the project.
var ErrNotInitialized = errors.New("winrole not initialized: run 'winrole init' first")

// Config is the project configuration.
type Config struct {
	RoleName     string    `koanf:"role_name" yaml:"role_name"`
	RolesDir     string    `koanf:"roles_dir" yaml:"roles_dir"`
	PlaybooksDir string    `koanf:"playbooks_dir" yaml:"playbooks_dir"`
	PackagesDir  string    `koanf:"packages_dir" yaml:"packages_dir"`
	AssetsDir    string    `koanf:"assets_dir" yaml:"assets_dir"`
	Hosts        string    `koanf:"hosts" yaml:"hosts"`
	Git          GitConfig `koanf:"git" yaml:"git"`
	Log          LogConfig `koanf:"log" yaml:"log"`
}

// GitConfig controls the stage/commit/push step.
type GitConfig struct {
	Enabled         bool   `koanf:"enabled" yaml:"enabled"`
	Push            bool   `koanf:"push" yaml:"push"`
	Remote          string `koanf:"remote" yaml:"remote"`
	CommitMessage   string `koanf:"commit_message" yaml:"commit_message"`
	AuthorName      string `koanf:"author_name" yaml:"author_name,omitempty"`
	AuthorEmail     string `koanf:"author_email" yaml:"author_email,omitempty"`
	CredentialsFile string `koanf:"credentials_file" yaml:"credentials_file"`
}

// LogConfig controls the diagnostic logger.
type LogConfig struct {
	Level string `koanf:"level" yaml:"level"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		RoleName:     "windows_software",
		RolesDir:     "roles",
		PlaybooksDir: "playbooks",
		PackagesDir:  "packages",
		AssetsDir:    "assets",
		Hosts:        "windows",
		Git: GitConfig{
			Enabled:         true,
			Push:            true,
			Remote:          "origin",
			CommitMessage:   DefaultCommitMessage,
			CredentialsFile: "secrets.env",
		},
		Log: LogConfig{Level: "info"},
	}
}

// defaults flattens Default into koanf keys.
func defaults() map[string]any {
	d := Default()
	return map[string]any{
		"role_name":            d.RoleName,
		"roles_dir":            d.RolesDir,
		"playbooks_dir":        d.PlaybooksDir,
		"packages_dir":         d.PackagesDir,
		"assets_dir":           d.AssetsDir,
		"hosts":                d.Hosts,
		"git.enabled":          d.Git.Enabled,
		"git.push":             d.Git.Push,
		"git.remote":           d.Git.Remote,
		"git.commit_message":   d.Git.CommitMessage,
		"git.author_name":      d.Git.AuthorName,
		"git.author_email":     d.Git.AuthorEmail,
		"git.credentials_file": d.Git.CredentialsFile,
		"log.level":            d.Log.Level,
	}
}

// envKeys maps the env var suffix to its koanf key. Keys containing
// underscores cannot be derived by replacing "_" with ".".
var envKeys = map[string]string{
	"ROLE_NAME":            "role_name",
	"ROLES_DIR":            "roles_dir",
	"PLAYBOOKS_DIR":        "playbooks_dir",
	"PACKAGES_DIR":         "packages_dir",
	"ASSETS_DIR":           "assets_dir",
	"HOSTS":                "hosts",
	"GIT_ENABLED":          "git.enabled",
	"GIT_PUSH":             "git.push",
	"GIT_REMOTE":           "git.remote",
	"GIT_COMMIT_MESSAGE":   "git.commit_message",
	"GIT_AUTHOR_NAME":      "git.author_name",
	"GIT_AUTHOR_EMAIL":     "git.author_email",
	"GIT_CREDENTIALS_FILE": "git.credentials_file",
	"LOG_LEVEL":            "log.level",
}

// Path returns the config file path for a project root.
func Path(projectRoot string) string {
	return filepath.Join(projectRoot, FileName)
}

// Load reads the configuration for projectRoot. A missing file is not an
// error; defaults and environment overrides still apply.
func Load(projectRoot string) (*Config, error) {
	return LoadFile(Path(projectRoot))
}

// LoadFile reads the configuration from an explicit file path.
func LoadFile(path string) (*Config, error) {
	k := koanf.New(".")

	for key, value := range defaults() {
		if err := k.Set(key, value); err != nil {
			return nil, fmt.Errorf("failed to set default %s: %w", key, err)
		}
	}

	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment overrides: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	return &cfg, nil
}

// envKey maps WINROLE_GIT_REMOTE to git.remote. Unknown variables are dropped.
func envKey(s string) string {
	return envKeys[strings.TrimPrefix(s, EnvPrefix)]
}

// Save writes cfg to path as YAML.
func (c *Config) Save(path string) error {
	var buf bytes.Buffer
	enc := yamlv3.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Dirs is the set of project directories resolved against a root.
type Dirs struct {
	Root      string
	Packages  string
	Assets    string
	Roles     string
	Playbooks string
}

// Resolve returns absolute project directories for root.
func (c *Config) Resolve(root string) Dirs {
	abs := func(p string) string {
		if filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(root, p)
	}
	return Dirs{
		Root:      root,
		Packages:  abs(c.PackagesDir),
		Assets:    abs(c.AssetsDir),
		Roles:     abs(c.RolesDir),
		Playbooks: abs(c.PlaybooksDir),
	}
}

// RoleDir is the generated role directory.
func (d Dirs) RoleDir(role string) string {
	return filepath.Join(d.Roles, role)
}
