package concretize

import (
	"errors"
	"fmt"
	"sort"

	"github.com/dominikbraun/graph"
	goversion "github.com/hashicorp/go-version"

	"github.com/alpine-vis/forge/internal/buildenv"
	"github.com/alpine-vis/forge/pkgs/spec"
	"github.com/alpine-vis/forge/recipe"
)

// Node is one package in a concretized build closure.
type Node struct {
	Spec spec.Spec
	Pkg  *recipe.Package
	Type recipe.DepType

	// Constraints are the version ranges imposed by the edges that
	// pulled this node in.
	Constraints []string

	// Prefix and Version come from the build environment manifest and
	// are only set when the closure was concretized against one. The
	// root package is the one being built and never carries them.
	Prefix  string
	Version string
}

// Concrete is a fully resolved build closure: the root spec with every
// variant decided, and all dependency nodes in build order (dependencies
// before dependents, root last).
type Concrete struct {
	Root  spec.Spec
	Nodes []Node
}

// Node returns the closure node for the named package.
func (c *Concrete) Node(name string) (Node, bool) {
	for _, n := range c.Nodes {
		if n.Spec.Name == name {
			return n, true
		}
	}
	return Node{}, false
}

// Deps returns the closure without the root node.
func (c *Concrete) Deps() []Node {
	if len(c.Nodes) == 0 {
		return nil
	}
	return c.Nodes[:len(c.Nodes)-1]
}

// Enabled reports whether the named variant is on in the root spec.
func (c *Concrete) Enabled(name string) bool {
	return c.Root.Enabled(name)
}

// Concretize resolves the requested spec against the registry: variant
// defaults are filled in, conditional dependency edges are evaluated, and
// forced variant selections are propagated onto dependencies. When env is
// non-nil every dependency must have an install record there, and edge
// version constraints are checked against the recorded versions.
func Concretize(reg *recipe.Registry, root spec.Spec, env *buildenv.Manifest) (*Concrete, error) {
	pkg, ok := reg.Lookup(root.Name)
	if !ok {
		return nil, fmt.Errorf("no recipe for package %s", root.Name)
	}
	for name := range root.Variants {
		if _, ok := pkg.Variant(name); !ok {
			return nil, fmt.Errorf("package %s has no variant %s", root.Name, name)
		}
	}
	rootSpec := root.WithDefaults(pkg.DefaultVariants())

	nodes := map[string]*Node{
		root.Name: {Spec: rootSpec, Pkg: pkg},
	}
	edges := map[edge]bool{}

	// Worklist expansion. A node re-enters the list when an edge forces
	// new variant selections on it, since that can change its own edges.
	work := []string{root.Name}
	for len(work) > 0 {
		name := work[0]
		work = work[1:]
		node := nodes[name]

		for _, dep := range node.Pkg.Dependencies {
			if !node.Spec.Satisfies(dep.When) {
				continue
			}
			depType := dep.Type
			if depType == 0 {
				depType = recipe.DepDefault
			}

			child, ok := nodes[dep.Name]
			if !ok {
				depPkg, ok := reg.Lookup(dep.Name)
				if !ok {
					return nil, fmt.Errorf("%s depends on %s, which has no recipe", name, dep.Name)
				}
				sp := spec.Spec{Name: dep.Name, Variants: dep.Variants}
				child = &Node{Spec: sp.WithDefaults(depPkg.DefaultVariants()), Pkg: depPkg}
				nodes[dep.Name] = child
				work = append(work, dep.Name)
			} else {
				changed := false
				for v, on := range dep.Variants {
					if child.Spec.Variants[v] != on {
						child.Spec.Variants[v] = on
						changed = true
					}
				}
				if changed {
					work = append(work, dep.Name)
				}
			}

			child.Type |= depType
			if dep.Constraint != "" {
				child.Constraints = append(child.Constraints, dep.Constraint)
			}
			edges[edge{from: dep.Name, to: name}] = true
		}
	}

	order, err := buildOrder(nodes, edges)
	if err != nil {
		return nil, err
	}

	c := &Concrete{Root: rootSpec}
	for _, name := range order {
		node := *nodes[name]
		if env != nil && name != root.Name {
			rec, ok := env.Package(name)
			if !ok {
				return nil, fmt.Errorf("dependency %s is not in the build environment manifest", name)
			}
			node.Prefix = rec.Prefix
			node.Version = rec.Version
			if err := checkConstraints(name, rec.Version, node.Constraints); err != nil {
				return nil, err
			}
		}
		c.Nodes = append(c.Nodes, node)
	}
	return c, nil
}

// edge is a dependency -> dependent pair.
type edge struct{ from, to string }

// buildOrder topologically sorts the closure so dependencies come before
// their dependents, with ties broken alphabetically.
func buildOrder(nodes map[string]*Node, edges map[edge]bool) ([]string, error) {
	g := graph.New(graph.StringHash, graph.Directed(), graph.PreventCycles())

	names := make([]string, 0, len(nodes))
	for name := range nodes {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := g.AddVertex(name); err != nil {
			return nil, err
		}
	}

	sorted := make([]edge, 0, len(edges))
	for e := range edges {
		sorted = append(sorted, e)
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].from != sorted[j].from {
			return sorted[i].from < sorted[j].from
		}
		return sorted[i].to < sorted[j].to
	})
	for _, e := range sorted {
		err := g.AddEdge(e.from, e.to)
		if errors.Is(err, graph.ErrEdgeAlreadyExists) {
			continue
		}
		if errors.Is(err, graph.ErrEdgeCreatesCycle) {
			return nil, fmt.Errorf("dependency cycle between %s and %s", e.from, e.to)
		}
		if err != nil {
			return nil, err
		}
	}

	return graph.StableTopologicalSort(g, func(a, b string) bool { return a < b })
}

func checkConstraints(name, recorded string, constraints []string) error {
	if len(constraints) == 0 {
		return nil
	}
	if recorded == "" {
		return fmt.Errorf("manifest record for %s has no version to check constraints against", name)
	}
	v, err := goversion.NewVersion(recorded)
	if err != nil {
		return fmt.Errorf("manifest record for %s: bad version %q: %w", name, recorded, err)
	}
	for _, raw := range constraints {
		constraint, err := goversion.NewConstraint(raw)
		if err != nil {
			return fmt.Errorf("bad version constraint %q on %s: %w", raw, name, err)
		}
		if !constraint.Check(v) {
			return fmt.Errorf("%s@%s does not satisfy required %q", name, recorded, raw)
		}
	}
	return nil
}
