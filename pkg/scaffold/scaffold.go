// Package scaffold runs a complete scaffold: descriptors in, role and
// playbooks written, installers copied, changes committed and pushed.
package scaffold

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/jaspreet-dot-casa/winrole/pkg/assets"
	"github.com/jaspreet-dot-casa/winrole/pkg/config"
	"github.com/jaspreet-dot-casa/winrole/pkg/descriptor"
	"github.com/jaspreet-dot-casa/winrole/pkg/generator"
	"github.com/jaspreet-dot-casa/winrole/pkg/gitops"
	"github.com/jaspreet-dot-casa/winrole/pkg/logging"
	"github.com/jaspreet-dot-casa/winrole/pkg/validation"
)

// Step names reported in errors.
const (
	StepDiscover = "discover"
	StepValidate = "validate"
	StepPlan     = "plan"
	StepWrite    = "write"
	StepAssets   = "assets"
	StepPrune    = "prune"
	StepManifest = "manifest"
	StepStage    = "git add"
	StepCommit   = "git commit"
	StepPush     = "git push"
)

// StepError reports which step of the run failed.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

func stepErr(step string, err error) error {
	return &StepError{Step: step, Err: err}
}

// Options configures a run.
type Options struct {
	Root   string
	Config *config.Config

	// Packages limits the run to the named descriptors; empty means all
	Packages []string

	DryRun bool
	NoGit  bool
	NoPush bool

	// Message and Remote override the configured git values when set
	Message string
	Remote  string

	// Out receives the dry-run listing
	Out    io.Writer
	Logger *zap.SugaredLogger
	Now    func() time.Time
}

// AssetResult is the installer copy outcome for one package.
type AssetResult struct {
	Package string
	Source  string
	*assets.Result
}

// Report describes what a run did.
type Report struct {
	DryRun   bool
	Plan     *generator.Plan
	Written  *generator.WriteResult
	Assets   []AssetResult
	Warnings []string
	Removed  []string // output of an earlier run that no descriptor generates now
	Manifest *generator.Manifest

	Commit          string
	NothingToCommit bool
	Pushed          bool
}

// Run executes the scaffold. Any failing step aborts the run; a missing
// installer only adds a warning to the report.
func Run(ctx context.Context, opts Options) (*Report, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	log := opts.Logger
	if log == nil {
		log = logging.Nop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	report := &Report{DryRun: opts.DryRun}
	dirs := cfg.Resolve(opts.Root)

	all, err := descriptor.Discover(dirs.Packages)
	if err != nil {
		return report, stepErr(StepDiscover, err)
	}
	reg, err := all.Filter(opts.Packages)
	if err != nil {
		return report, stepErr(StepDiscover, err)
	}
	log.Debugw("discovered descriptors", "dir", dirs.Packages, "packages", reg.Names())

	v := validation.NewValidator(opts.Root, cfg)
	result := &validation.Result{Issues: v.ValidateDescriptors(reg)}
	for _, issue := range result.Issues {
		if issue.Severity == validation.SeverityWarning && issue.Field != "source" {
			report.Warnings = append(report.Warnings, issue.String())
		}
	}
	if err := result.Err(); err != nil {
		return report, stepErr(StepValidate, err)
	}

	gen, err := generator.New(generator.OptionsFromConfig(cfg, opts.Root))
	if err != nil {
		return report, stepErr(StepPlan, err)
	}
	plan, err := gen.Plan(ctx, reg)
	if err != nil {
		return report, stepErr(StepPlan, err)
	}
	report.Plan = plan

	exp := expectedPaths(opts.Root, gen, plan, all)
	prev, err := generator.ReadManifest(gen.RoleDir())
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		report.Warnings = append(report.Warnings, fmt.Sprintf("ignoring previous manifest: %v", err))
	}
	stale := stalePaths(prev, exp)

	if opts.DryRun {
		for _, rel := range stale {
			report.Warnings = append(report.Warnings, fmt.Sprintf("would remove %s, no descriptor generates it", rel))
		}
		if opts.Out != nil {
			plan.Describe(opts.Out)
		}
		for _, pkg := range reg.Packages {
			src := pkg.SourcePath(dirs.Root, dirs.Assets)
			if _, err := os.Stat(src); err != nil {
				report.Warnings = append(report.Warnings, fmt.Sprintf("%s: installer not found at %s, skipping copy", pkg.Name, src))
			}
		}
		return report, nil
	}

	written, err := generator.Write(plan)
	report.Written = written
	if err != nil {
		return report, stepErr(StepWrite, err)
	}
	log.Infow("wrote role files", "created", len(written.Created), "overwritten", len(written.Overwritten))

	manifest := generator.NewManifest(plan, now())
	for _, pkg := range reg.Packages {
		if err := ctx.Err(); err != nil {
			return report, stepErr(StepAssets, err)
		}

		src := pkg.SourcePath(dirs.Root, dirs.Assets)
		res, err := assets.CopyInstallerTo(src, gen.AssetPath(pkg))
		if err != nil {
			return report, stepErr(StepAssets, fmt.Errorf("%s: %w", pkg.Name, err))
		}
		report.Assets = append(report.Assets, AssetResult{Package: pkg.Name, Source: src, Result: res})

		if res.Warning != "" {
			report.Warnings = append(report.Warnings, fmt.Sprintf("%s: %s", pkg.Name, res.Warning))
			log.Warnw("installer missing", "package", pkg.Name, "source", src)
			continue
		}
		rel, err := filepath.Rel(opts.Root, res.Path)
		if err != nil {
			rel = res.Path
		}
		manifest.Assets = append(manifest.Assets, filepath.ToSlash(rel))
		log.Debugw("copied installer", "package", pkg.Name, "path", res.Path, "sha256", res.SHA256)
	}

	removed, err := removeStale(opts.Root, stale)
	report.Removed = removed
	if err != nil {
		return report, stepErr(StepPrune, err)
	}
	if len(removed) > 0 {
		log.Infow("removed stale files", "count", len(removed))
	}

	mergeManifest(manifest, prev, exp)
	if err := generator.WriteManifest(gen.RoleDir(), manifest); err != nil {
		return report, stepErr(StepManifest, err)
	}
	report.Manifest = manifest

	if opts.NoGit || !cfg.Git.Enabled {
		return report, nil
	}
	return report, publish(ctx, opts, cfg, gen, report, log)
}

// publish stages the written files, commits them and pushes.
func publish(ctx context.Context, opts Options, cfg *config.Config, gen *generator.Generator, report *Report, log *zap.SugaredLogger) error {
	repo, err := gitops.Open(opts.Root)
	if err != nil {
		return stepErr(StepStage, err)
	}

	paths := make([]string, 0, len(report.Plan.Files)+len(report.Assets)+1)
	for _, f := range report.Plan.Files {
		paths = append(paths, f.Path)
	}
	for _, a := range report.Assets {
		if a.Copied {
			paths = append(paths, a.Path)
		}
	}
	paths = append(paths, generator.ManifestPath(gen.RoleDir()))

	if err := repo.Add(paths...); err != nil {
		return stepErr(StepStage, err)
	}
	if err := repo.Remove(report.Removed...); err != nil {
		return stepErr(StepStage, err)
	}

	message := opts.Message
	if message == "" {
		message = cfg.Git.CommitMessage
	}
	hash, err := repo.Commit(message, gitops.Signature{Name: cfg.Git.AuthorName, Email: cfg.Git.AuthorEmail})
	switch {
	case errors.Is(err, gitops.ErrNothingToCommit):
		report.NothingToCommit = true
		log.Infow("nothing to commit")
	case err != nil:
		return stepErr(StepCommit, err)
	default:
		report.Commit = hash
		log.Infow("committed", "hash", hash)
	}

	if opts.NoPush || !cfg.Git.Push {
		return nil
	}

	remote := opts.Remote
	if remote == "" {
		remote = cfg.Git.Remote
	}
	url, err := repo.RemoteURL(remote)
	if err != nil {
		return stepErr(StepPush, err)
	}

	credsPath := cfg.Git.CredentialsFile
	if credsPath != "" && !filepath.IsAbs(credsPath) {
		credsPath = filepath.Join(opts.Root, credsPath)
	}
	creds, err := gitops.LoadCredentials(credsPath)
	if err != nil {
		return stepErr(StepPush, fmt.Errorf("failed to load credentials: %w", err))
	}

	if err := repo.Push(ctx, gitops.PushOptions{Remote: remote, Auth: gitops.AuthFromCredentials(url, creds)}); err != nil {
		return stepErr(StepPush, err)
	}
	report.Pushed = true
	log.Infow("pushed", "remote", remote)
	return nil
}
