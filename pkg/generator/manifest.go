package generator

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// ManifestFileName is written inside the role directory after each run.
const ManifestFileName = ".winrole-manifest.yaml"

// Manifest records the outcome of one scaffold run.
type Manifest struct {
	RunID       string    `yaml:"run_id"`
	GeneratedAt time.Time `yaml:"generated_at"`
	Role        string    `yaml:"role"`
	Packages    []string  `yaml:"packages"`
	Files       []string  `yaml:"files"`  // relative to the project root
	Assets      []string  `yaml:"assets"` // copied installers, relative to the project root
}

// NewManifest creates a manifest for plan with a fresh run ID.
func NewManifest(plan *Plan, now time.Time) *Manifest {
	return &Manifest{
		RunID:       uuid.NewString(),
		GeneratedAt: now.UTC(),
		Role:        plan.Role,
		Packages:    append([]string(nil), plan.Packages...),
		Files:       plan.RelPaths(),
	}
}

// ManifestPath returns the manifest path inside roleDir.
func ManifestPath(roleDir string) string {
	return filepath.Join(roleDir, ManifestFileName)
}

// WriteManifest writes m into roleDir.
func WriteManifest(roleDir string, m *Manifest) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := os.MkdirAll(roleDir, 0755); err != nil {
		return fmt.Errorf("failed to create role directory: %w", err)
	}
	if err := os.WriteFile(ManifestPath(roleDir), data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

// ReadManifest reads the manifest from roleDir.
func ReadManifest(roleDir string) (*Manifest, error) {
	data, err := os.ReadFile(ManifestPath(roleDir))
	if err != nil {
		return nil, err
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	return &m, nil
}
