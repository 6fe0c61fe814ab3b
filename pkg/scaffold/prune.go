package scaffold

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jaspreet-dot-casa/winrole/pkg/descriptor"
	"github.com/jaspreet-dot-casa/winrole/pkg/generator"
)

// expected holds the project-relative paths a run may leave on disk.
type expected struct {
	files    map[string]bool
	assets   map[string]bool
	packages map[string]bool
}

// expectedPaths collects the shared role files of plan, plus the per-package
// files and installers of every descriptor in all. Packages outside a
// filtered run keep their output.
func expectedPaths(root string, gen *generator.Generator, plan *generator.Plan, all *descriptor.Registry) expected {
	exp := expected{files: map[string]bool{}, assets: map[string]bool{}, packages: map[string]bool{}}
	for _, rel := range plan.RelPaths() {
		exp.files[rel] = true
	}
	for _, pkg := range all.Packages {
		exp.packages[pkg.Name] = true
		for _, p := range gen.PackageFiles(pkg) {
			exp.files[relSlash(root, p)] = true
		}
		exp.assets[relSlash(root, gen.AssetPath(pkg))] = true
	}
	return exp
}

// stalePaths lists what prev recorded that exp no longer produces.
// Entries that leave the project root are ignored.
func stalePaths(prev *generator.Manifest, exp expected) []string {
	if prev == nil {
		return nil
	}

	seen := map[string]bool{}
	var stale []string
	add := func(rel string, keep map[string]bool) {
		rel = filepath.ToSlash(filepath.Clean(filepath.FromSlash(rel)))
		if rel == "." || rel == ".." || strings.HasPrefix(rel, "../") || filepath.IsAbs(rel) {
			return
		}
		if keep[rel] || seen[rel] || filepath.Base(rel) == generator.ManifestFileName {
			return
		}
		seen[rel] = true
		stale = append(stale, rel)
	}
	for _, rel := range prev.Files {
		add(rel, exp.files)
	}
	for _, rel := range prev.Assets {
		add(rel, exp.assets)
	}
	sort.Strings(stale)
	return stale
}

// removeStale deletes each stale path under root and returns the absolute
// paths it handled. Files already gone count as removed.
func removeStale(root string, stale []string) ([]string, error) {
	removed := make([]string, 0, len(stale))
	for _, rel := range stale {
		p := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return removed, fmt.Errorf("failed to remove %s: %w", rel, err)
		}
		removed = append(removed, p)
	}
	return removed, nil
}

// mergeManifest carries entries of prev that are still expected into m, so
// a filtered run does not forget the other packages.
func mergeManifest(m, prev *generator.Manifest, exp expected) {
	if prev == nil {
		return
	}
	m.Files = union(m.Files, keepOnly(prev.Files, exp.files))
	m.Assets = union(m.Assets, keepOnly(prev.Assets, exp.assets))
	m.Packages = union(m.Packages, keepOnly(prev.Packages, exp.packages))
}

func keepOnly(paths []string, keep map[string]bool) []string {
	var out []string
	for _, p := range paths {
		if keep[filepath.ToSlash(p)] {
			out = append(out, p)
		}
	}
	return out
}

func union(a, b []string) []string {
	set := make(map[string]bool, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, s := range append(append([]string(nil), a...), b...) {
		if !set[s] {
			set[s] = true
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}

func relSlash(root, p string) string {
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return filepath.ToSlash(p)
	}
	return filepath.ToSlash(rel)
}
