package concretize

import (
	"strings"
	"testing"

	"github.com/alpine-vis/forge/internal/buildenv"
	"github.com/alpine-vis/forge/pkgs/spec"
	"github.com/alpine-vis/forge/recipe"
)

func parse(t *testing.T, s string) spec.Spec {
	t.Helper()
	sp, err := spec.Parse(s)
	if err != nil {
		t.Fatalf("Parse(%q): %v", s, err)
	}
	return sp
}

func names(c *Concrete) []string {
	var out []string
	for _, n := range c.Nodes {
		out = append(out, n.Spec.Name)
	}
	return out
}

func indexOf(list []string, name string) int {
	for i, n := range list {
		if n == name {
			return i
		}
	}
	return -1
}

func TestConcretizeDefaults(t *testing.T) {
	c, err := Concretize(recipe.Builtin(), parse(t, "ascent"), nil)
	if err != nil {
		t.Fatalf("Concretize: %v", err)
	}

	got := names(c)
	for _, want := range []string{
		"ascent", "cmake", "conduit", "python", "py-numpy",
		"mpi", "py-mpi4py", "vtkh", "vtkm", "tbb", "adios",
	} {
		if indexOf(got, want) == -1 {
			t.Errorf("closure missing %s (got %v)", want, got)
		}
	}
	for _, absent := range []string{"py-sphinx", "doxygen"} {
		if indexOf(got, absent) != -1 {
			t.Errorf("closure contains %s with doc off", absent)
		}
	}

	// Root comes last; defaults are decided on it.
	if got[len(got)-1] != "ascent" {
		t.Errorf("root is not last: %v", got)
	}
	if !c.Root.Enabled("mpi") || c.Root.Enabled("cuda") {
		t.Errorf("root variants = %v", c.Root.Variants)
	}
}

func TestConcretizeBuildOrder(t *testing.T) {
	c, err := Concretize(recipe.Builtin(), parse(t, "ascent"), nil)
	if err != nil {
		t.Fatal(err)
	}
	got := names(c)

	// Dependencies precede their dependents.
	pairs := [][2]string{
		{"vtkm", "vtkh"},
		{"python", "py-mpi4py"},
		{"mpi", "py-mpi4py"},
		{"conduit", "ascent"},
		{"vtkh", "ascent"},
	}
	for _, p := range pairs {
		if indexOf(got, p[0]) >= indexOf(got, p[1]) {
			t.Errorf("%s does not precede %s in %v", p[0], p[1], got)
		}
	}
}

func TestConcretizeDeterministic(t *testing.T) {
	reg := recipe.Builtin()
	first, err := Concretize(reg, parse(t, "ascent"), nil)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 10; i++ {
		again, err := Concretize(reg, parse(t, "ascent"), nil)
		if err != nil {
			t.Fatal(err)
		}
		if strings.Join(names(again), " ") != strings.Join(names(first), " ") {
			t.Fatalf("order differs between runs: %v vs %v", names(again), names(first))
		}
	}
}

func TestConcretizeDisabledFeatures(t *testing.T) {
	c, err := Concretize(recipe.Builtin(), parse(t, "ascent~vtkh~adios~mpi"), nil)
	if err != nil {
		t.Fatal(err)
	}
	got := names(c)
	for _, absent := range []string{"vtkh", "vtkm", "tbb", "adios", "mpi", "py-mpi4py"} {
		if indexOf(got, absent) != -1 {
			t.Errorf("closure contains %s: %v", absent, got)
		}
	}
	// python support stays on by default.
	for _, want := range []string{"python", "py-numpy", "conduit"} {
		if indexOf(got, want) == -1 {
			t.Errorf("closure missing %s: %v", want, got)
		}
	}
}

func TestConcretizeWithoutPython(t *testing.T) {
	c, err := Concretize(recipe.Builtin(), parse(t, "ascent~python"), nil)
	if err != nil {
		t.Fatal(err)
	}
	got := names(c)
	for _, absent := range []string{"py-numpy", "py-mpi4py"} {
		if indexOf(got, absent) != -1 {
			t.Errorf("closure contains %s with python off", absent)
		}
	}
	// A shared python is linked regardless of the python variant.
	i := indexOf(got, "python")
	if i == -1 {
		t.Fatal("closure missing python")
	}
	if !c.Nodes[i].Spec.Enabled("shared") {
		t.Error("python node is not +shared")
	}
}

func TestConcretizeCudaPropagation(t *testing.T) {
	c, err := Concretize(recipe.Builtin(), parse(t, "ascent+cuda"), nil)
	if err != nil {
		t.Fatal(err)
	}
	vtkh, ok := c.Node("vtkh")
	if !ok {
		t.Fatal("closure missing vtkh")
	}
	if !vtkh.Spec.Enabled("cuda") {
		t.Errorf("vtkh spec = %s, want +cuda forced", vtkh.Spec)
	}

	// Without +cuda the forced selection must not appear.
	c, err = Concretize(recipe.Builtin(), parse(t, "ascent"), nil)
	if err != nil {
		t.Fatal(err)
	}
	vtkh, _ = c.Node("vtkh")
	if vtkh.Spec.Enabled("cuda") {
		t.Error("vtkh picked up +cuda on a default concretization")
	}
}

func TestConcretizeDocTooling(t *testing.T) {
	c, err := Concretize(recipe.Builtin(), parse(t, "ascent+doc"), nil)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"py-sphinx", "doxygen"} {
		n, ok := c.Node(want)
		if !ok {
			t.Errorf("closure missing %s with +doc", want)
			continue
		}
		if n.Type&recipe.DepBuild == 0 {
			t.Errorf("%s type = %s, want a build dependency", want, n.Type)
		}
	}
}

func TestConcretizeErrors(t *testing.T) {
	reg := recipe.Builtin()

	if _, err := Concretize(reg, parse(t, "no-such-package"), nil); err == nil {
		t.Error("unknown package accepted")
	}
	if _, err := Concretize(reg, parse(t, "ascent+warp"), nil); err == nil {
		t.Error("unknown variant accepted")
	}
}

func manifestFor(c *Concrete) *buildenv.Manifest {
	m := &buildenv.Manifest{Packages: map[string]buildenv.Record{}}
	for _, n := range c.Deps() {
		rec := buildenv.Record{Prefix: "/opt/tpl/" + n.Spec.Name}
		if n.Spec.Name == "cmake" {
			rec.Version = "3.9.6"
		}
		m.Packages[n.Spec.Name] = rec
	}
	return m
}

func TestConcretizeBindsManifest(t *testing.T) {
	reg := recipe.Builtin()
	dry, err := Concretize(reg, parse(t, "ascent"), nil)
	if err != nil {
		t.Fatal(err)
	}

	c, err := Concretize(reg, parse(t, "ascent"), manifestFor(dry))
	if err != nil {
		t.Fatalf("Concretize with manifest: %v", err)
	}
	for _, n := range c.Deps() {
		if n.Prefix != "/opt/tpl/"+n.Spec.Name {
			t.Errorf("%s prefix = %q", n.Spec.Name, n.Prefix)
		}
	}
	root := c.Nodes[len(c.Nodes)-1]
	if root.Prefix != "" {
		t.Errorf("root carries prefix %q", root.Prefix)
	}
}

func TestConcretizeMissingManifestRecord(t *testing.T) {
	reg := recipe.Builtin()
	dry, _ := Concretize(reg, parse(t, "ascent"), nil)
	m := manifestFor(dry)
	delete(m.Packages, "conduit")

	_, err := Concretize(reg, parse(t, "ascent"), m)
	if err == nil || !strings.Contains(err.Error(), "conduit") {
		t.Errorf("err = %v, want missing conduit record", err)
	}
}

func TestConcretizeVersionConstraints(t *testing.T) {
	reg := recipe.Builtin()
	dry, _ := Concretize(reg, parse(t, "ascent"), nil)

	m := manifestFor(dry)
	rec := m.Packages["cmake"]
	rec.Version = "3.3.2"
	m.Packages["cmake"] = rec

	_, err := Concretize(reg, parse(t, "ascent"), m)
	if err == nil || !strings.Contains(err.Error(), "cmake") {
		t.Errorf("err = %v, want cmake constraint violation", err)
	}

	// No record version at all is also an error while a constraint applies.
	rec.Version = ""
	m.Packages["cmake"] = rec
	if _, err := Concretize(reg, parse(t, "ascent"), m); err == nil {
		t.Error("constraint check passed without a recorded version")
	}

	// With the cmake variant off the edge is gone and nothing is checked.
	m2 := manifestFor(dry)
	delete(m2.Packages, "cmake")
	if _, err := Concretize(reg, parse(t, "ascent~cmake"), m2); err != nil {
		t.Errorf("Concretize(~cmake): %v", err)
	}
}
