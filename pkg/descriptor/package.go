// Package descriptor provides the package descriptor model: the flat record
// identifying a piece of Windows software the generated role installs,
// upgrades or uninstalls.
package descriptor

import (
	"fmt"
	"path/filepath"
	"strings"
)

// InstallerType is the kind of installer binary a package ships with.
type InstallerType string

const (
	InstallerMSI  InstallerType = "msi"
	InstallerEXE  InstallerType = "exe"
	InstallerMSIX InstallerType = "msix"
)

// Action is a workflow mode the generated role supports.
type Action string

const (
	ActionInstall   Action = "install"
	ActionUpgrade   Action = "upgrade"
	ActionUninstall Action = "uninstall"
)

// Actions lists the workflow modes in the order playbooks are generated.
var Actions = []Action{ActionInstall, ActionUpgrade, ActionUninstall}

// Defaults applied by ApplyDefaults.
const (
	DefaultTempDir   = `C:\Windows\Temp\winrole`
	DefaultMSIArgs   = "/qn /norestart"
	TemplateFileName = "_template.yaml"
)

// DefaultReturnCodes are the installer exit codes treated as success.
// 3010 is ERROR_SUCCESS_REBOOT_REQUIRED.
var DefaultReturnCodes = []int{0, 3010}

// Package is a package descriptor.
type Package struct {
	// Name is the package identifier used in file names (e.g., "7zip")
	Name string `yaml:"name" validate:"required,slug"`

	// DisplayName is the DisplayName registry value of the installed product
	DisplayName string `yaml:"display_name,omitempty" validate:"omitempty,nojinja"`

	// Version is the version the role converges to
	Version string `yaml:"version" validate:"required,nojinja"`

	// InstallerFile is the installer file name shipped in the role's files/
	InstallerFile string `yaml:"installer_file" validate:"required,filename,nojinja"`

	// InstallerType is derived from InstallerFile when empty
	InstallerType InstallerType `yaml:"installer_type,omitempty" validate:"omitempty,oneof=msi exe msix"`

	// ProductID is the MSI product code, used for detection and removal
	ProductID string `yaml:"product_id,omitempty" validate:"omitempty,productcode"`

	// RegistryPath is the uninstall key used to detect the installed version
	RegistryPath string `yaml:"registry_path" validate:"required,regpath,nojinja"`

	InstallArgs   string `yaml:"install_args,omitempty" validate:"omitempty,nojinja"`
	UninstallArgs string `yaml:"uninstall_args,omitempty" validate:"omitempty,nojinja"`

	// TempDir is where the installer is staged on the target host
	TempDir string `yaml:"temp_dir,omitempty" validate:"omitempty,nojinja"`

	// Source is the local path of the installer binary to copy into the role
	Source string `yaml:"source,omitempty"`

	AllowReboot *bool `yaml:"allow_reboot,omitempty"`

	ReturnCodes []int `yaml:"return_codes,omitempty" validate:"omitempty,dive,gte=0"`
}

// ApplyDefaults fills optional fields with their defaults.
func (p *Package) ApplyDefaults() {
	p.Name = strings.TrimSpace(p.Name)
	if p.DisplayName == "" {
		p.DisplayName = p.Name
	}
	if p.InstallerType == "" {
		p.InstallerType = typeFromFile(p.InstallerFile)
	}
	if p.InstallerType == InstallerMSI {
		if p.InstallArgs == "" {
			p.InstallArgs = DefaultMSIArgs
		}
		if p.UninstallArgs == "" {
			p.UninstallArgs = DefaultMSIArgs
		}
	}
	if p.TempDir == "" {
		p.TempDir = DefaultTempDir
	}
	if p.AllowReboot == nil {
		allow := true
		p.AllowReboot = &allow
	}
	if len(p.ReturnCodes) == 0 {
		p.ReturnCodes = append([]int(nil), DefaultReturnCodes...)
	}
}

// RebootAllowed reports whether the role may reboot the host for this package.
func (p *Package) RebootAllowed() bool {
	return p.AllowReboot == nil || *p.AllowReboot
}

// TempPath is the staged installer path on the target host.
func (p *Package) TempPath() string {
	return strings.TrimRight(p.TempDir, `\`) + `\` + p.InstallerFile
}

// VarsFileName is the file name of the package's vars file inside the role.
func (p *Package) VarsFileName() string {
	return p.Name + ".yml"
}

// PlaybookName is the file name of the playbook running the given action.
func (p *Package) PlaybookName(action Action) string {
	return fmt.Sprintf("%s-%s.yml", p.Name, action)
}

// SourcePath resolves the local installer path, defaulting to assetsDir/InstallerFile.
// Relative paths are resolved against root.
func (p *Package) SourcePath(root, assetsDir string) string {
	src := p.Source
	if src == "" {
		src = filepath.Join(assetsDir, p.InstallerFile)
	}
	if !filepath.IsAbs(src) {
		src = filepath.Join(root, src)
	}
	return src
}

// typeFromFile derives the installer type from the file extension.
func typeFromFile(name string) InstallerType {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".msi":
		return InstallerMSI
	case ".msix", ".appx":
		return InstallerMSIX
	default:
		return InstallerEXE
	}
}
