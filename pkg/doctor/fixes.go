package doctor

import (
	"errors"
	"fmt"
)

// Supported fix platforms.
const (
	PlatformDarwin = "darwin"
	PlatformLinux  = "linux"
)

// ErrNoFix is returned when a check has no fix for the platform.
var ErrNoFix = errors.New("no fix command available")

// Fix is a shell command that installs or sets up a missing dependency.
type Fix struct {
	Description string
	Command     string
	Sudo        bool
}

func brew(formula string) Fix {
	return Fix{Description: "Install via Homebrew", Command: "brew install " + formula}
}

func apt(pkg string) Fix {
	return Fix{Description: "Install via apt", Command: "sudo apt install -y " + pkg, Sudo: true}
}

func pipx(pkg string, extra ...string) Fix {
	cmd := "pipx install"
	for _, e := range extra {
		cmd += " " + e
	}
	return Fix{Description: "Install via pipx", Command: cmd + " " + pkg}
}

func everywhere(f Fix) map[string]Fix {
	return map[string]Fix{PlatformDarwin: f, PlatformLinux: f}
}

var (
	galaxyFix = Fix{Description: "Install from Ansible Galaxy", Command: "ansible-galaxy collection install ansible.windows"}
	initFix   = Fix{Description: "Initialize the project", Command: "winrole init"}
)

// fixes maps check ID to platform to fix.
var fixes = map[string]map[string]Fix{
	IDGit:             {PlatformDarwin: brew("git"), PlatformLinux: apt("git")},
	IDAnsiblePlaybook: {PlatformDarwin: brew("ansible"), PlatformLinux: pipx("ansible", "--include-deps")},
	IDAnsibleLint:     {PlatformDarwin: brew("ansible-lint"), PlatformLinux: pipx("ansible-lint")},
	IDWindowsColl:     everywhere(galaxyFix),
	IDProjectConfig:   everywhere(initFix),
	IDPackagesDir:     everywhere(initFix),
}

// FixFor returns the fix for a check on platform, or nil.
func FixFor(id, platform string) *Fix {
	f, ok := fixes[id][platform]
	if !ok {
		return nil
	}
	return &f
}

// Apply runs fix through r.
func Apply(r Runner, fix *Fix) error {
	if fix == nil {
		return ErrNoFix
	}
	output, err := r.Shell(fix.Command)
	if err != nil {
		return fmt.Errorf("%s failed: %w\nOutput: %s", fix.Command, err, output)
	}
	return nil
}
