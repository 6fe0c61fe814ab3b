package descriptor

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrDuplicatePackage is returned when two descriptors share a name.
var ErrDuplicatePackage = errors.New("duplicate package name")

// Registry holds all discovered descriptors.
// Registry is not safe for concurrent modification.
type Registry struct {
	// Packages is the ordered list of descriptors
	Packages []*Package

	// ByName provides lookup by package name
	ByName map[string]*Package

	// ByType groups descriptors by installer type
	ByType map[InstallerType][]*Package

	// Paths maps package name to the descriptor file it came from
	Paths map[string]string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		Packages: make([]*Package, 0, 8),
		ByName:   make(map[string]*Package),
		ByType:   make(map[InstallerType][]*Package),
		Paths:    make(map[string]string),
	}
}

// Add registers pkg. It fails if a package with the same name exists.
func (r *Registry) Add(pkg *Package, path string) error {
	if _, ok := r.ByName[pkg.Name]; ok {
		if prev := r.Paths[pkg.Name]; prev != "" && path != "" {
			return fmt.Errorf("%w %q: %s and %s", ErrDuplicatePackage, pkg.Name, prev, path)
		}
		return fmt.Errorf("%w %q", ErrDuplicatePackage, pkg.Name)
	}

	r.Packages = append(r.Packages, pkg)
	r.ByName[pkg.Name] = pkg
	r.ByType[pkg.InstallerType] = append(r.ByType[pkg.InstallerType], pkg)
	if path != "" {
		r.Paths[pkg.Name] = path
	}
	return nil
}

// Get returns the descriptor named name, or nil.
func (r *Registry) Get(name string) *Package {
	return r.ByName[name]
}

// Names returns all package names in registry order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.Packages))
	for i, pkg := range r.Packages {
		names[i] = pkg.Name
	}
	return names
}

// Types returns the installer types that have packages, in a stable order.
func (r *Registry) Types() []InstallerType {
	order := []InstallerType{InstallerMSI, InstallerEXE, InstallerMSIX}
	result := make([]InstallerType, 0, len(order))
	for _, t := range order {
		if len(r.ByType[t]) > 0 {
			result = append(result, t)
		}
	}
	return result
}

// Filter returns a registry containing only the named packages, in the order
// given. Repeated names are kept once. An unknown name is an error.
func (r *Registry) Filter(names []string) (*Registry, error) {
	if len(names) == 0 {
		return r, nil
	}

	out := NewRegistry()
	for _, name := range names {
		pkg := r.Get(name)
		if pkg == nil {
			return nil, fmt.Errorf("package %q not found (known: %s)", name, strings.Join(r.Names(), ", "))
		}
		if out.Get(name) != nil {
			continue
		}
		if err := out.Add(pkg, r.Paths[name]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Discover loads every descriptor in dir. Files are read in lexical order and
// the template file is skipped.
func Discover(dir string) (*Registry, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("packages directory not found (run 'winrole init' first): %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("packages path is not a directory: %s", dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read packages directory: %w", err)
	}

	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if (ext != ".yaml" && ext != ".yml") || name == TemplateFileName {
			continue
		}
		files = append(files, filepath.Join(dir, name))
	}
	sort.Strings(files)

	registry := NewRegistry()
	for _, path := range files {
		pkg, err := Load(path)
		if err != nil {
			return nil, err
		}
		if err := registry.Add(pkg, path); err != nil {
			return nil, err
		}
	}

	return registry, nil
}
