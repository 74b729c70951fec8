package recipe

import (
	"fmt"
	"sort"
)

// Registry holds the known build recipes, keyed by package name.
type Registry struct {
	pkgs map[string]*Package
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{pkgs: map[string]*Package{}}
}

// Register adds a recipe. Registering the same package name twice is an error.
func (r *Registry) Register(p *Package) error {
	if p.Name == "" {
		return fmt.Errorf("register recipe: missing package name")
	}
	if _, ok := r.pkgs[p.Name]; ok {
		return fmt.Errorf("register recipe: %s already registered", p.Name)
	}
	r.pkgs[p.Name] = p
	return nil
}

// Lookup returns the recipe for the named package.
func (r *Registry) Lookup(name string) (*Package, bool) {
	p, ok := r.pkgs[name]
	return p, ok
}

// Names returns all registered package names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.pkgs))
	for name := range r.pkgs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// mustRegister is used for built-in recipes, which are statically known
// to be well formed.
func (r *Registry) mustRegister(p *Package) {
	if err := r.Register(p); err != nil {
		panic(err)
	}
}
