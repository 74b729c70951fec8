package buildenv

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Manifest is the resolver output of the surrounding package manager,
// externalized: for every dependency already installed on the host it
// records where the package lives and which executables it provides.
type Manifest struct {
	// SysType identifies the host platform, e.g. "linux-x86_64". When
	// empty the platform is detected at run time.
	SysType string `yaml:"sys_type,omitempty"`

	Compilers Compilers         `yaml:"compilers"`
	Packages  map[string]Record `yaml:"packages"`
}

// Compilers records the toolchain the surrounding environment resolved.
// FC may be empty when no Fortran compiler is available.
type Compilers struct {
	// Spec is a human-readable compiler label such as "gcc@8.1.0",
	// used in generated file names. Defaults to the CC base name.
	Spec string `yaml:"spec,omitempty"`

	CC  string `yaml:"cc"`
	CXX string `yaml:"cxx"`
	FC  string `yaml:"fc,omitempty"`
}

// Record describes one installed package.
type Record struct {
	Prefix     string            `yaml:"prefix"`
	Version    string            `yaml:"version,omitempty"`
	Executable string            `yaml:"executable,omitempty"`
	Extra      map[string]string `yaml:"extra,omitempty"`
}

// Command returns the path of the named executable provided by the
// package: the recorded executable when present, otherwise <prefix>/bin/<name>.
func (r Record) Command(name string) string {
	if r.Executable != "" {
		return r.Executable
	}
	return filepath.Join(r.Prefix, "bin", name)
}

// Load reads a manifest from a YAML file.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read build environment manifest: %w", err)
	}
	return Parse(data)
}

// Parse decodes a manifest from YAML.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse build environment manifest: %w", err)
	}
	if m.Packages == nil {
		m.Packages = map[string]Record{}
	}
	for name, rec := range m.Packages {
		if rec.Prefix == "" && rec.Executable == "" {
			return nil, fmt.Errorf("manifest package %s: needs a prefix or an executable", name)
		}
	}
	return &m, nil
}

// Package returns the install record for the named package.
func (m *Manifest) Package(name string) (Record, bool) {
	rec, ok := m.Packages[name]
	return rec, ok
}
