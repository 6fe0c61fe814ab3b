package descriptor

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Parse decodes a descriptor and applies defaults. Unknown keys are rejected.
func Parse(data []byte) (*Package, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var pkg Package
	if err := dec.Decode(&pkg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("descriptor is empty")
		}
		return nil, fmt.Errorf("failed to parse descriptor: %w", err)
	}

	pkg.ApplyDefaults()
	return &pkg, nil
}

// Load reads and parses the descriptor at path.
func Load(path string) (*Package, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read descriptor: %w", err)
	}

	pkg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return pkg, nil
}

// Write encodes pkg as YAML at path, creating parent directories.
func Write(path string, pkg *Package) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(pkg); err != nil {
		return fmt.Errorf("failed to encode descriptor: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to encode descriptor: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create descriptor directory: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write descriptor: %w", err)
	}
	return nil
}

// Skeleton returns a descriptor for name with placeholder values to edit.
func Skeleton(name string) *Package {
	pkg := &Package{
		Name:          name,
		DisplayName:   name,
		Version:       "1.0.0",
		InstallerFile: name + "-1.0.0-x64.msi",
		RegistryPath:  `HKLM:\SOFTWARE\Microsoft\Windows\CurrentVersion\Uninstall\` + name,
	}
	pkg.ApplyDefaults()
	return pkg
}
