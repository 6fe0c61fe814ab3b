package doctor

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaspreet-dot-casa/winrole/pkg/config"
)

// fakeRunner resolves every binary unless listed in missing and answers
// Output from outputs keyed by binary base name.
type fakeRunner struct {
	missing map[string]bool
	outputs map[string]string
	failing map[string]bool
	files   map[string]bool
	shell   []string
}

func (f *fakeRunner) LookPath(file string) (string, error) {
	if f.missing[file] {
		return "", errors.New("executable file not found in $PATH")
	}
	return "/usr/bin/" + file, nil
}

func (f *fakeRunner) Output(name string, _ ...string) (string, error) {
	base := filepath.Base(name)
	if f.failing[base] {
		return "", errors.New("exit status 1")
	}
	return f.outputs[base], nil
}

func (f *fakeRunner) Shell(command string) ([]byte, error) {
	f.shell = append(f.shell, command)
	if strings.Contains(command, "fail") {
		return []byte("command not found"), errors.New("exit status 127")
	}
	return []byte("ok"), nil
}

func (f *fakeRunner) Exists(path string) bool {
	return f.files[path]
}

func healthyRunner(root string) *fakeRunner {
	return &fakeRunner{
		outputs: map[string]string{
			"git":              "git version 2.43.0\n",
			"ansible-playbook": "ansible-playbook [core 2.16.3]\n",
			"ansible-lint":     "ansible-lint 24.2.0 using ansible-core:2.16.3\n",
			"ansible-galaxy":   "# /usr/share/ansible/collections\nCollection      Version\n--------------- -------\nansible.windows 2.3.0\n",
		},
		files: map[string]bool{
			config.Path(root):               true,
			filepath.Join(root, "packages"): true,
		},
	}
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "ok", StatusOK.String())
	assert.Equal(t, "missing", StatusMissing.String())
	assert.Equal(t, "warning", StatusWarning.String())
	assert.Equal(t, "unknown", Status(42).String())
}

func TestNewChecker(t *testing.T) {
	c := NewChecker(nil)
	assert.IsType(t, SystemRunner{}, c.runner)
	assert.Equal(t, "packages", c.packagesDir)

	c.SetProject("/srv/ansible", "")
	assert.Equal(t, "packages", c.packagesDir)
	c.SetProject("/srv/ansible", "descriptors")
	assert.Equal(t, "descriptors", c.packagesDir)
}

func TestRun_Healthy(t *testing.T) {
	root := "/srv/ansible"
	c := NewChecker(healthyRunner(root))
	c.SetProject(root, "packages")

	report := c.Run()

	require.Len(t, report.Groups, 3)
	assert.Equal(t, []string{GroupVCS, GroupAnsible, GroupProject},
		[]string{report.Groups[0].ID, report.Groups[1].ID, report.Groups[2].ID})
	assert.Equal(t, "Version control", report.Groups[0].Name)
	assert.Len(t, report.Groups[1].Checks, 3)

	assert.Equal(t, 6, report.Count(StatusOK))
	assert.False(t, report.Failed())
	assert.Empty(t, report.Fixable())

	byID := map[string]Check{}
	for _, check := range report.Checks() {
		byID[check.ID] = check
		assert.Nil(t, check.Fix, check.ID)
	}
	assert.Equal(t, "2.43.0", byID[IDGit].Message)
	assert.Equal(t, "2.16.3", byID[IDAnsiblePlaybook].Message)
	assert.Equal(t, "24.2.0", byID[IDAnsibleLint].Message)
	assert.Equal(t, "2.3.0", byID[IDWindowsColl].Message)
	assert.Equal(t, config.Path(root), byID[IDProjectConfig].Message)
}

func TestRun_MissingTools(t *testing.T) {
	root := "/srv/ansible"
	r := healthyRunner(root)
	r.missing = map[string]bool{"git": true, "ansible-lint": true, "ansible-galaxy": true}
	c := NewChecker(r)
	c.platform = PlatformLinux
	c.SetProject(root, "")

	report := c.Run()

	git, ok := c.Check(IDGit)
	require.True(t, ok)
	assert.Equal(t, StatusMissing, git.Status)
	assert.Equal(t, "not installed", git.Message)
	require.NotNil(t, git.Fix)
	assert.True(t, git.Fix.Sudo)

	lint, _ := c.Check(IDAnsibleLint)
	assert.Equal(t, StatusWarning, lint.Status)
	assert.Equal(t, "not installed (optional)", lint.Message)

	coll, _ := c.Check(IDWindowsColl)
	assert.Equal(t, StatusWarning, coll.Status)
	assert.Equal(t, "ansible-galaxy not installed", coll.Message)

	assert.True(t, report.Failed())
	assert.Equal(t, 1, report.Count(StatusMissing))
	assert.Equal(t, 2, report.Count(StatusWarning))
	assert.Len(t, report.Fixable(), 3)
}

func TestToolVersionUnknown(t *testing.T) {
	r := healthyRunner("/srv")
	r.failing = map[string]bool{"git": true}
	r.outputs["ansible-playbook"] = "no version here"
	c := NewChecker(r)

	git, _ := c.Check(IDGit)
	assert.Equal(t, StatusOK, git.Status)
	assert.Equal(t, "installed (version unknown)", git.Message)

	pb, _ := c.Check(IDAnsiblePlaybook)
	assert.Equal(t, StatusOK, pb.Status)
	assert.Equal(t, "installed", pb.Message)
}

func TestWindowsCollectionNotInstalled(t *testing.T) {
	r := healthyRunner("/srv")
	r.outputs["ansible-galaxy"] = "# /usr/share/ansible/collections\n"
	c := NewChecker(r)
	c.platform = PlatformDarwin

	coll, _ := c.Check(IDWindowsColl)
	assert.Equal(t, StatusWarning, coll.Status)
	assert.Equal(t, "collection not installed", coll.Message)
	require.NotNil(t, coll.Fix)
	assert.Contains(t, coll.Fix.Command, "ansible-galaxy collection install ansible.windows")
}

func TestProjectChecks(t *testing.T) {
	t.Run("no root", func(t *testing.T) {
		c := NewChecker(&fakeRunner{})
		check, _ := c.Check(IDProjectConfig)
		assert.Equal(t, StatusMissing, check.Status)
		assert.Equal(t, "no project root found", check.Message)

		check, _ = c.Check(IDPackagesDir)
		assert.Equal(t, StatusMissing, check.Status)
	})

	t.Run("real filesystem", func(t *testing.T) {
		root := t.TempDir()
		c := NewChecker(SystemRunner{})
		c.platform = PlatformLinux
		c.SetProject(root, "descriptors")

		check, _ := c.Check(IDProjectConfig)
		assert.Equal(t, StatusMissing, check.Status)
		assert.Contains(t, check.Message, root)
		require.NotNil(t, check.Fix)
		assert.Equal(t, "winrole init", check.Fix.Command)

		require.NoError(t, config.Default().Save(config.Path(root)))
		require.NoError(t, os.Mkdir(filepath.Join(root, "descriptors"), 0755))

		check, _ = c.Check(IDProjectConfig)
		assert.Equal(t, StatusOK, check.Status)
		check, _ = c.Check(IDPackagesDir)
		assert.Equal(t, StatusOK, check.Status)
		assert.Equal(t, filepath.Join(root, "descriptors"), check.Message)
	})

	t.Run("absolute packages dir", func(t *testing.T) {
		r := &fakeRunner{files: map[string]bool{"/data/packages": true}}
		c := NewChecker(r)
		c.SetProject("/srv", "/data/packages")
		check, _ := c.Check(IDPackagesDir)
		assert.Equal(t, StatusOK, check.Status)
	})
}

func TestCheckUnknownID(t *testing.T) {
	_, ok := NewChecker(&fakeRunner{}).Check("nope")
	assert.False(t, ok)
}
