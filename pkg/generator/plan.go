package generator

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Kind classifies a generated file.
type Kind string

const (
	KindRole     Kind = "role"
	KindTasks    Kind = "tasks"
	KindVars     Kind = "vars"
	KindPlaybook Kind = "playbook"
	KindDoc      Kind = "doc"
)

// File is one rendered file. Path is absolute.
type File struct {
	Path    string
	Kind    Kind
	Content []byte
}

// Plan is the ordered set of files a scaffold run writes.
type Plan struct {
	Root     string
	Role     string
	Packages []string
	Files    []File
}

// RelPaths returns the file paths relative to the project root.
func (p *Plan) RelPaths() []string {
	paths := make([]string, 0, len(p.Files))
	for _, f := range p.Files {
		rel, err := filepath.Rel(p.Root, f.Path)
		if err != nil {
			rel = f.Path
		}
		paths = append(paths, filepath.ToSlash(rel))
	}
	return paths
}

// Find returns the planned file with the given root-relative path.
func (p *Plan) Find(rel string) (File, bool) {
	target := filepath.Join(p.Root, filepath.FromSlash(rel))
	for _, f := range p.Files {
		if f.Path == target {
			return f, true
		}
	}
	return File{}, false
}

// Describe writes a dry-run listing of the plan.
func (p *Plan) Describe(w io.Writer) {
	fmt.Fprintf(w, "Role %s (%d package(s)), %d file(s):\n", p.Role, len(p.Packages), len(p.Files))
	for i, rel := range p.RelPaths() {
		fmt.Fprintf(w, "  %-9s %s (%d bytes)\n", p.Files[i].Kind, rel, len(p.Files[i].Content))
	}
}

// WriteResult records what Write did.
type WriteResult struct {
	Created     []string
	Overwritten []string
}

// Total is the number of files written.
func (r *WriteResult) Total() int {
	return len(r.Created) + len(r.Overwritten)
}

// Write writes every planned file, creating parent directories. It stops at
// the first failure; files written before the failure are left in place.
func Write(plan *Plan) (*WriteResult, error) {
	result := &WriteResult{}

	for _, f := range plan.Files {
		if err := os.MkdirAll(filepath.Dir(f.Path), 0755); err != nil {
			return result, fmt.Errorf("failed to create directory for %s: %w", f.Path, err)
		}

		existed := false
		if info, err := os.Stat(f.Path); err == nil {
			if info.IsDir() {
				return result, fmt.Errorf("cannot write %s: path is a directory", f.Path)
			}
			existed = true
		}

		if err := os.WriteFile(f.Path, f.Content, 0644); err != nil {
			return result, fmt.Errorf("failed to write %s: %w", f.Path, err)
		}

		if existed {
			result.Overwritten = append(result.Overwritten, f.Path)
		} else {
			result.Created = append(result.Created, f.Path)
		}
	}

	return result, nil
}
