package recipe

import (
	"sort"
	"strings"

	"github.com/alpine-vis/forge/pkgs/spec"
)

// -----------------------------------------------------------------------------

// Variant is a named boolean build option controlling an optional feature.
type Variant struct {
	Default     bool
	Description string
}

// DepType describes how a dependency is consumed.
type DepType uint8

const (
	DepLink DepType = 1 << iota
	DepBuild
	DepRun

	// DepDefault is the type of an edge that declares no explicit type.
	DepDefault = DepBuild | DepLink
)

func (t DepType) String() string {
	var parts []string
	if t&DepBuild != 0 {
		parts = append(parts, "build")
	}
	if t&DepLink != 0 {
		parts = append(parts, "link")
	}
	if t&DepRun != 0 {
		parts = append(parts, "run")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, ",")
}

// Dependency is a single dependency edge. When is evaluated against the
// dependent's variant selections; an empty condition keeps the edge
// unconditional. Variants are selections forced onto the dependency
// ("python+shared"). Constraint is a version range in hashicorp/go-version
// syntax, checked against the resolved install record.
type Dependency struct {
	Name       string
	When       spec.Condition
	Variants   map[string]bool
	Constraint string
	Type       DepType
}

// Package is the build recipe of a single package: its variants, its
// dependency edges, and where its sources come from.
type Package struct {
	Name        string
	Description string
	Homepage    string

	// Source location. Git checkouts track Branch and optionally pull
	// submodules; URL points at a release archive instead.
	Git        string
	Branch     string
	Submodules bool
	URL        string

	// SourceSubdir is the directory inside the checkout that holds the
	// top-level CMakeLists.txt, when it is not the checkout root.
	SourceSubdir string

	Variants     map[string]Variant
	Dependencies []Dependency

	// Extends names a package whose module space this package installs
	// into (e.g. "python" for packages shipping python modules).
	// ExtendsWhen optionally gates the extension on variant selections.
	Extends     string
	ExtendsWhen spec.Condition

	Maintainers []string
}

// ExtendsPackage returns the extended package name when the extension
// applies under the given variant selections.
func (p *Package) ExtendsPackage(sp spec.Spec) (string, bool) {
	if p.Extends == "" || !sp.Satisfies(p.ExtendsWhen) {
		return "", false
	}
	return p.Extends, true
}

// Variant looks up a declared variant by name.
func (p *Package) Variant(name string) (Variant, bool) {
	v, ok := p.Variants[name]
	return v, ok
}

// VariantNames returns the declared variant names in sorted order.
func (p *Package) VariantNames() []string {
	names := make([]string, 0, len(p.Variants))
	for name := range p.Variants {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultVariants returns the default selection for every declared variant.
func (p *Package) DefaultVariants() map[string]bool {
	defaults := make(map[string]bool, len(p.Variants))
	for name, v := range p.Variants {
		defaults[name] = v.Default
	}
	return defaults
}

// DefaultSpec returns the package's spec with every variant at its default.
func (p *Package) DefaultSpec() spec.Spec {
	return spec.Spec{Name: p.Name, Variants: p.DefaultVariants()}
}

// -----------------------------------------------------------------------------
