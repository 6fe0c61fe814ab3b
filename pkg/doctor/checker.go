package doctor

import (
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"sync"

	"github.com/jaspreet-dot-casa/winrole/pkg/config"
)

// Group IDs in display order.
const (
	GroupVCS     = "vcs"
	GroupAnsible = "ansible"
	GroupProject = "project"
)

// Check IDs.
const (
	IDGit             = "git"
	IDAnsiblePlaybook = "ansible-playbook"
	IDAnsibleLint     = "ansible-lint"
	IDWindowsColl     = "ansible.windows"
	IDProjectConfig   = "project-config"
	IDPackagesDir     = "packages-dir"
)

var (
	versionRe    = regexp.MustCompile(`v?(\d+\.\d+(?:\.\d+)?(?:-[a-zA-Z0-9]+)?)`)
	gitVersionRe = regexp.MustCompile(`git version (\d+\.\d+\.\d+)`)
	collectionRe = regexp.MustCompile(`ansible\.windows\s+(\d+\.\d+\.\d+)`)
)

// definition describes one check.
type definition struct {
	id    string
	name  string
	group string
	run   func(c *Checker) (Status, string)
}

// definitions lists every check in display order.
var definitions = []definition{
	{IDGit, "Git", GroupVCS, tool(IDGit, false, gitVersionRe, "--version")},
	{IDAnsiblePlaybook, "ansible-playbook", GroupAnsible, tool(IDAnsiblePlaybook, true, nil, "--version")},
	{IDAnsibleLint, "ansible-lint", GroupAnsible, tool(IDAnsibleLint, true, nil, "--version")},
	{IDWindowsColl, "ansible.windows collection", GroupAnsible, windowsCollection},
	{IDProjectConfig, config.FileName, GroupProject, projectConfig},
	{IDPackagesDir, "Packages directory", GroupProject, packagesDir},
}

var groupNames = map[string]string{
	GroupVCS:     "Version control",
	GroupAnsible: "Ansible",
	GroupProject: "Project",
}

// Checker runs the checks.
type Checker struct {
	runner      Runner
	platform    string
	projectRoot string
	packagesDir string
}

// NewChecker returns a Checker using r, or the system runner when r is nil.
func NewChecker(r Runner) *Checker {
	if r == nil {
		r = SystemRunner{}
	}
	return &Checker{
		runner:      r,
		platform:    runtime.GOOS,
		packagesDir: config.Default().PackagesDir,
	}
}

// SetProject points the project checks at root. An empty packagesDir keeps the default.
func (c *Checker) SetProject(root, packagesDir string) {
	c.projectRoot = root
	if packagesDir != "" {
		c.packagesDir = packagesDir
	}
}

// Run executes every definition concurrently and groups the results.
func (c *Checker) Run() *Report {
	checks := make([]Check, len(definitions))

	var wg sync.WaitGroup
	for i, p := range definitions {
		wg.Add(1)
		go func() {
			defer wg.Done()
			checks[i] = c.check(p)
		}()
	}
	wg.Wait()

	report := &Report{}
	for i, p := range definitions {
		n := len(report.Groups)
		if n == 0 || report.Groups[n-1].ID != p.group {
			report.Groups = append(report.Groups, Group{ID: p.group, Name: groupNames[p.group]})
			n++
		}
		report.Groups[n-1].Checks = append(report.Groups[n-1].Checks, checks[i])
	}
	return report
}

// Check runs the definition with the given ID.
func (c *Checker) Check(id string) (Check, bool) {
	for _, p := range definitions {
		if p.id == id {
			return c.check(p), true
		}
	}
	return Check{}, false
}

func (c *Checker) check(p definition) Check {
	status, msg := p.run(c)
	check := Check{ID: p.id, Name: p.name, Status: status, Message: msg}
	if status != StatusOK {
		check.Fix = FixFor(p.id, c.platform)
	}
	return check
}

// tool checks a binary on PATH and reads its version. A missing optional
// tool is a warning.
func tool(bin string, optional bool, re *regexp.Regexp, args ...string) func(*Checker) (Status, string) {
	if re == nil {
		re = versionRe
	}
	return func(c *Checker) (Status, string) {
		path, err := c.runner.LookPath(bin)
		if err != nil {
			if optional {
				return StatusWarning, "not installed (optional)"
			}
			return StatusMissing, "not installed"
		}

		output, err := c.runner.Output(path, args...)
		if err != nil {
			return StatusOK, "installed (version unknown)"
		}
		if m := re.FindStringSubmatch(output); len(m) >= 2 {
			return StatusOK, m[1]
		}
		return StatusOK, "installed"
	}
}

// windowsCollection checks for the collection providing win_package and win_reboot.
func windowsCollection(c *Checker) (Status, string) {
	path, err := c.runner.LookPath("ansible-galaxy")
	if err != nil {
		return StatusWarning, "ansible-galaxy not installed"
	}

	output, err := c.runner.Output(path, "collection", "list", IDWindowsColl)
	if err != nil || !strings.Contains(output, IDWindowsColl) {
		return StatusWarning, "collection not installed"
	}
	if m := collectionRe.FindStringSubmatch(output); len(m) >= 2 {
		return StatusOK, m[1]
	}
	return StatusOK, "installed"
}

func projectConfig(c *Checker) (Status, string) {
	if c.projectRoot == "" {
		return StatusMissing, "no project root found"
	}
	path := config.Path(c.projectRoot)
	if !c.runner.Exists(path) {
		return StatusMissing, "not found in " + c.projectRoot
	}
	return StatusOK, path
}

func packagesDir(c *Checker) (Status, string) {
	if c.projectRoot == "" {
		return StatusMissing, "no project root found"
	}
	path := c.packagesDir
	if !filepath.IsAbs(path) {
		path = filepath.Join(c.projectRoot, path)
	}
	if !c.runner.Exists(path) {
		return StatusMissing, "no directory at " + path
	}
	return StatusOK, path
}
