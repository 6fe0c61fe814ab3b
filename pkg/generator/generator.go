// Package generator renders the Ansible role, vars files and playbooks for a
// set of package descriptors.
package generator

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/jaspreet-dot-casa/winrole/pkg/config"
	"github.com/jaspreet-dot-casa/winrole/pkg/descriptor"
)

// hostsRe limits the inventory pattern to characters that are safe inside
// the single-quoted Jinja default of the playbook hosts line.
var (
	hostsRe    = regexp.MustCompile(`^[A-Za-z0-9_.:*,!&\[\]-]+$`)
	roleNameRe = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)
)

// roleTaskFiles maps task file names to their templates, in execution order.
var roleTaskFiles = []struct {
	File     string
	Template string
}{
	{"main.yml", "tasks_main.yml.tmpl"},
	{"detect.yml", "tasks_detect.yml.tmpl"},
	{"install.yml", "tasks_install.yml.tmpl"},
	{"upgrade.yml", "tasks_upgrade.yml.tmpl"},
	{"uninstall.yml", "tasks_uninstall.yml.tmpl"},
	{"cleanup.yml", "tasks_cleanup.yml.tmpl"},
	{"reboot.yml", "tasks_reboot.yml.tmpl"},
	{"report.yml", "tasks_report.yml.tmpl"},
}

// Options configures a Generator.
type Options struct {
	RoleName string
	Hosts    string
	Dirs     config.Dirs
}

// OptionsFromConfig builds Options from the project configuration.
func OptionsFromConfig(cfg *config.Config, root string) Options {
	return Options{
		RoleName: cfg.RoleName,
		Hosts:    cfg.Hosts,
		Dirs:     cfg.Resolve(root),
	}
}

// Generator renders the scaffold file set.
type Generator struct {
	opts Options
}

// New creates a Generator, validating the role name and hosts pattern.
func New(opts Options) (*Generator, error) {
	if !roleNameRe.MatchString(opts.RoleName) {
		return nil, fmt.Errorf("invalid role name %q: must be lowercase letters, digits and '_'", opts.RoleName)
	}
	if !hostsRe.MatchString(opts.Hosts) {
		return nil, fmt.Errorf("invalid hosts pattern %q", opts.Hosts)
	}
	if opts.Dirs.Root == "" {
		return nil, fmt.Errorf("project root is required")
	}
	return &Generator{opts: opts}, nil
}

// RoleDir is the absolute path of the generated role.
func (g *Generator) RoleDir() string {
	return g.opts.Dirs.RoleDir(g.opts.RoleName)
}

// FilesDir is where installer binaries are copied for win_copy.
func (g *Generator) FilesDir() string {
	return filepath.Join(g.RoleDir(), "files")
}

type roleData struct {
	Role     string
	Packages []*descriptor.Package
}

type varsData struct {
	Pkg    *descriptor.Package
	Source string
}

type playbookData struct {
	Title    string
	Hosts    string
	Action   descriptor.Action
	VarsFile string
	RolePath string
}

// Plan renders every file for reg without touching the filesystem.
// Files are ordered: role skeleton, then per package its vars file and the
// install, upgrade and uninstall playbooks.
func (g *Generator) Plan(ctx context.Context, reg *descriptor.Registry) (*Plan, error) {
	if len(reg.Packages) == 0 {
		return nil, fmt.Errorf("no package descriptors to scaffold")
	}

	plan := &Plan{Root: g.opts.Dirs.Root, Role: g.opts.RoleName, Packages: reg.Names()}
	roleDir := g.RoleDir()
	role := roleData{Role: g.opts.RoleName, Packages: reg.Packages}

	add := func(kind Kind, path, tmpl string, data any) error {
		content, err := render(tmpl, data)
		if err != nil {
			return err
		}
		plan.Files = append(plan.Files, File{Path: path, Kind: kind, Content: content})
		return nil
	}

	if err := add(KindRole, filepath.Join(roleDir, "defaults", "main.yml"), "defaults_main.yml.tmpl", role); err != nil {
		return nil, err
	}
	if err := add(KindRole, filepath.Join(roleDir, "meta", "main.yml"), "meta_main.yml.tmpl", role); err != nil {
		return nil, err
	}
	for _, tf := range roleTaskFiles {
		if err := add(KindTasks, filepath.Join(roleDir, "tasks", tf.File), tf.Template, role); err != nil {
			return nil, err
		}
	}

	readme, err := renderReadme(ctx, g.opts, reg)
	if err != nil {
		return nil, err
	}
	plan.Files = append(plan.Files, File{Path: filepath.Join(roleDir, "README.md"), Kind: KindDoc, Content: readme})

	rolePath, err := relSlash(g.opts.Dirs.Playbooks, roleDir)
	if err != nil {
		return nil, err
	}

	for _, pkg := range reg.Packages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		varsPath := g.varsPath(pkg)
		source := pkg.Name + ".yaml"
		if p := reg.Paths[pkg.Name]; p != "" {
			if rel, err := relSlash(g.opts.Dirs.Root, p); err == nil {
				source = rel
			}
		}
		if err := add(KindVars, varsPath, "vars_package.yml.tmpl", varsData{Pkg: pkg, Source: source}); err != nil {
			return nil, err
		}

		varsRel, err := relSlash(g.opts.Dirs.Playbooks, varsPath)
		if err != nil {
			return nil, err
		}

		for _, action := range descriptor.Actions {
			data := playbookData{
				Title:    fmt.Sprintf("%s %s", actionTitle(action), pkg.DisplayName),
				Hosts:    g.opts.Hosts,
				Action:   action,
				VarsFile: varsRel,
				RolePath: rolePath,
			}
			path := g.playbookPath(pkg, action)
			if err := add(KindPlaybook, path, "playbook.yml.tmpl", data); err != nil {
				return nil, err
			}
		}
	}

	return plan, nil
}

// PackageFiles returns the paths Plan renders for pkg: its vars file and one
// playbook per action.
func (g *Generator) PackageFiles(pkg *descriptor.Package) []string {
	files := []string{g.varsPath(pkg)}
	for _, action := range descriptor.Actions {
		files = append(files, g.playbookPath(pkg, action))
	}
	return files
}

// AssetPath is where the installer for pkg is copied inside the role.
func (g *Generator) AssetPath(pkg *descriptor.Package) string {
	return filepath.Join(g.FilesDir(), pkg.InstallerFile)
}

func (g *Generator) varsPath(pkg *descriptor.Package) string {
	return filepath.Join(g.RoleDir(), "vars", pkg.VarsFileName())
}

func (g *Generator) playbookPath(pkg *descriptor.Package, action descriptor.Action) string {
	return filepath.Join(g.opts.Dirs.Playbooks, pkg.PlaybookName(action))
}

// relSlash returns target relative to base using forward slashes, as Ansible expects.
func relSlash(base, target string) (string, error) {
	rel, err := filepath.Rel(base, target)
	if err != nil {
		return "", fmt.Errorf("failed to relate %s to %s: %w", target, base, err)
	}
	return filepath.ToSlash(rel), nil
}

func actionTitle(a descriptor.Action) string {
	s := string(a)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
