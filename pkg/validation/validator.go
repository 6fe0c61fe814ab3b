// Package validation checks package descriptors and the generated role
// for problems before and after a scaffold run.
package validation

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jaspreet-dot-casa/winrole/pkg/config"
	"github.com/jaspreet-dot-casa/winrole/pkg/descriptor"
	"github.com/jaspreet-dot-casa/winrole/pkg/envfile"
	"github.com/jaspreet-dot-casa/winrole/pkg/generator"
)

// Severity represents the severity of a validation issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue represents a validation issue found in a project file.
type Issue struct {
	File     string   `json:"file"`
	Field    string   `json:"field,omitempty"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

// Result holds all validation results.
type Result struct {
	Issues []Issue `json:"issues"`
}

// HasErrors returns true if there are any error-level issues.
func (r *Result) HasErrors() bool {
	return r.ErrorCount() > 0
}

// ErrorCount returns the number of error-level issues.
func (r *Result) ErrorCount() int {
	return r.count(SeverityError)
}

// WarningCount returns the number of warning-level issues.
func (r *Result) WarningCount() int {
	return r.count(SeverityWarning)
}

func (r *Result) count(s Severity) int {
	count := 0
	for _, issue := range r.Issues {
		if issue.Severity == s {
			count++
		}
	}
	return count
}

// Errors returns the error-level issues.
func (r *Result) Errors() []Issue {
	var out []Issue
	for _, issue := range r.Issues {
		if issue.Severity == SeverityError {
			out = append(out, issue)
		}
	}
	return out
}

// Err summarizes the error-level issues as a single error, or nil.
func (r *Result) Err() error {
	errs := r.Errors()
	if len(errs) == 0 {
		return nil
	}
	msgs := make([]string, 0, len(errs))
	for _, issue := range errs {
		msgs = append(msgs, issue.String())
	}
	return fmt.Errorf("%d validation error(s): %s", len(errs), strings.Join(msgs, "; "))
}

func (i Issue) String() string {
	if i.Field != "" {
		return fmt.Sprintf("%s: %s %s", i.File, i.Field, i.Message)
	}
	return fmt.Sprintf("%s: %s", i.File, i.Message)
}

// Validator validates a winrole project.
type Validator struct {
	ProjectRoot string
	Config      *config.Config
}

// NewValidator creates a new Validator. A nil cfg uses the defaults.
func NewValidator(projectRoot string, cfg *config.Config) *Validator {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Validator{ProjectRoot: projectRoot, Config: cfg}
}

// ValidateAll validates the configuration, descriptors, credentials and the
// generated files of the last run.
func (v *Validator) ValidateAll() *Result {
	result := &Result{Issues: []Issue{}}
	dirs := v.Config.Resolve(v.ProjectRoot)

	result.Issues = append(result.Issues, v.ValidateConfig()...)

	reg, err := descriptor.Discover(dirs.Packages)
	if err != nil {
		result.Issues = append(result.Issues, Issue{
			File:     dirs.Packages,
			Message:  err.Error(),
			Severity: SeverityError,
		})
	} else {
		result.Issues = append(result.Issues, v.ValidateDescriptors(reg)...)
	}

	if v.Config.Git.Enabled && v.Config.Git.Push {
		result.Issues = append(result.Issues, v.ValidateCredentials(v.credentialsPath())...)
	}

	roleDir := dirs.RoleDir(v.Config.RoleName)
	manifest, err := generator.ReadManifest(roleDir)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		result.Issues = append(result.Issues, Issue{
			File:     generator.ManifestPath(roleDir),
			Message:  "role has not been scaffolded yet",
			Severity: SeverityWarning,
		})
	case err != nil:
		result.Issues = append(result.Issues, Issue{
			File:     generator.ManifestPath(roleDir),
			Message:  err.Error(),
			Severity: SeverityError,
		})
	default:
		result.Issues = append(result.Issues, v.ValidateGenerated(manifest)...)
	}

	return result
}

// ValidateConfig checks the project configuration.
func (v *Validator) ValidateConfig() []Issue {
	issues := []Issue{}
	path := config.Path(v.ProjectRoot)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		issues = append(issues, Issue{
			File:     path,
			Message:  "winrole.yaml not found, using defaults",
			Severity: SeverityWarning,
		})
	}

	if _, err := generator.New(generator.OptionsFromConfig(v.Config, v.ProjectRoot)); err != nil {
		issues = append(issues, Issue{
			File:     path,
			Message:  err.Error(),
			Severity: SeverityError,
		})
	}

	if v.Config.Git.Enabled && strings.TrimSpace(v.Config.Git.CommitMessage) == "" {
		issues = append(issues, Issue{
			File:     path,
			Field:    "git.commit_message",
			Message:  "is required when git is enabled",
			Severity: SeverityError,
		})
	}

	return issues
}

// ValidateDescriptors checks every descriptor in reg. Rule failures are
// errors; a missing installer asset or an MSI without product_id are warnings.
func (v *Validator) ValidateDescriptors(reg *descriptor.Registry) []Issue {
	issues := []Issue{}
	dirs := v.Config.Resolve(v.ProjectRoot)

	if len(reg.Packages) == 0 {
		issues = append(issues, Issue{
			File:     dirs.Packages,
			Message:  "no package descriptors found (create one with 'winrole new <name>')",
			Severity: SeverityWarning,
		})
		return issues
	}

	for _, pkg := range reg.Packages {
		file := reg.Paths[pkg.Name]
		if file == "" {
			file = pkg.Name
		}

		if err := pkg.Validate(); err != nil {
			var verrs descriptor.ValidationErrors
			if errors.As(err, &verrs) {
				for _, fe := range verrs {
					issues = append(issues, Issue{
						File:     file,
						Field:    fe.Field,
						Message:  fe.Message,
						Severity: SeverityError,
					})
				}
			} else {
				issues = append(issues, Issue{File: file, Message: err.Error(), Severity: SeverityError})
			}
			continue
		}

		src := pkg.SourcePath(dirs.Root, dirs.Assets)
		if _, err := os.Stat(src); os.IsNotExist(err) {
			issues = append(issues, Issue{
				File:     file,
				Field:    "source",
				Message:  fmt.Sprintf("installer not found at %s; it will not be copied into the role", src),
				Severity: SeverityWarning,
			})
		}

		if pkg.InstallerType == descriptor.InstallerMSI && pkg.ProductID == "" {
			issues = append(issues, Issue{
				File:     file,
				Field:    "product_id",
				Message:  "not set for an msi package; removal falls back to the registry key name",
				Severity: SeverityWarning,
			})
		}
	}

	return issues
}

// ValidateCredentials checks that the push credentials file, when present,
// sets both the username and the token.
func (v *Validator) ValidateCredentials(path string) []Issue {
	issues := []Issue{}

	vars, err := envfile.Parse(path)
	if os.IsNotExist(err) {
		return issues
	}
	if err != nil {
		issues = append(issues, Issue{
			File:     path,
			Message:  fmt.Sprintf("failed to parse file: %v", err),
			Severity: SeverityError,
		})
		return issues
	}

	user := strings.TrimSpace(vars["WINROLE_GIT_USERNAME"])
	token := strings.TrimSpace(vars["WINROLE_GIT_TOKEN"])
	switch {
	case user != "" && token == "":
		issues = append(issues, Issue{
			File:     path,
			Field:    "WINROLE_GIT_TOKEN",
			Message:  "is required when WINROLE_GIT_USERNAME is set",
			Severity: SeverityWarning,
		})
	case user == "" && token != "":
		issues = append(issues, Issue{
			File:     path,
			Field:    "WINROLE_GIT_USERNAME",
			Message:  "is required when WINROLE_GIT_TOKEN is set",
			Severity: SeverityWarning,
		})
	}

	return issues
}

// ValidateGenerated checks that every file recorded in the manifest exists
// and that the YAML files still parse.
func (v *Validator) ValidateGenerated(m *generator.Manifest) []Issue {
	issues := []Issue{}

	for _, rel := range m.Files {
		path := filepath.Join(v.ProjectRoot, filepath.FromSlash(rel))
		data, err := os.ReadFile(path)
		if err != nil {
			msg := fmt.Sprintf("failed to read file: %v", err)
			if os.IsNotExist(err) {
				msg = "generated file is missing (re-run 'winrole scaffold')"
			}
			issues = append(issues, Issue{File: rel, Message: msg, Severity: SeverityError})
			continue
		}

		ext := strings.ToLower(filepath.Ext(rel))
		if ext != ".yml" && ext != ".yaml" {
			continue
		}
		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			issues = append(issues, Issue{
				File:     rel,
				Message:  fmt.Sprintf("invalid YAML: %v", err),
				Severity: SeverityError,
			})
		}
	}

	for _, rel := range m.Assets {
		path := filepath.Join(v.ProjectRoot, filepath.FromSlash(rel))
		if _, err := os.Stat(path); os.IsNotExist(err) {
			issues = append(issues, Issue{
				File:     rel,
				Message:  "copied installer is missing",
				Severity: SeverityWarning,
			})
		}
	}

	return issues
}

func (v *Validator) credentialsPath() string {
	p := v.Config.Git.CredentialsFile
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(v.ProjectRoot, p)
}
