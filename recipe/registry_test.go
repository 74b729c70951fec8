package recipe

import (
	"testing"
)

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(&Package{Name: "conduit"}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	p, ok := r.Lookup("conduit")
	if !ok || p.Name != "conduit" {
		t.Fatalf("Lookup(conduit) = %v, %v", p, ok)
	}
	if _, ok := r.Lookup("vtkm"); ok {
		t.Error("Lookup(vtkm) succeeded on empty registry")
	}
}

func TestRegisterDuplicate(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(&Package{Name: "tbb"}); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(&Package{Name: "tbb"}); err == nil {
		t.Error("duplicate Register succeeded, want error")
	}
}

func TestRegisterEmptyName(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(&Package{}); err == nil {
		t.Error("Register with empty name succeeded, want error")
	}
}

func TestNamesSorted(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"vtkm", "adios", "conduit"} {
		if err := r.Register(&Package{Name: name}); err != nil {
			t.Fatal(err)
		}
	}
	got := r.Names()
	want := []string{"adios", "conduit", "vtkm"}
	if len(got) != len(want) {
		t.Fatalf("Names() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Names() = %v, want %v", got, want)
		}
	}
}

func TestDepTypeString(t *testing.T) {
	tests := []struct {
		t    DepType
		want string
	}{
		{DepDefault, "build,link"},
		{DepBuild, "build"},
		{DepBuild | DepRun, "build,run"},
		{DepType(0), "none"},
	}
	for _, tt := range tests {
		if got := tt.t.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.t, got, tt.want)
		}
	}
}

func TestExtendsPackage(t *testing.T) {
	p := &Package{
		Name:     "py-numpy",
		Extends:  "python",
		Variants: map[string]Variant{"blas": {Default: true}},
	}
	// Unconditional extension always applies.
	if ext, ok := p.ExtendsPackage(p.DefaultSpec()); !ok || ext != "python" {
		t.Errorf("ExtendsPackage = %q, %v", ext, ok)
	}

	// No extension declared.
	bare := &Package{Name: "conduit"}
	if _, ok := bare.ExtendsPackage(bare.DefaultSpec()); ok {
		t.Error("ExtendsPackage reports an extension on a bare package")
	}
}

func TestDefaultVariants(t *testing.T) {
	p := &Package{
		Name: "ascent",
		Variants: map[string]Variant{
			"mpi":  {Default: true},
			"cuda": {Default: false},
		},
	}
	d := p.DefaultVariants()
	if !d["mpi"] || d["cuda"] {
		t.Errorf("DefaultVariants() = %v", d)
	}
	sp := p.DefaultSpec()
	if sp.Name != "ascent" || !sp.Enabled("mpi") || sp.Enabled("cuda") {
		t.Errorf("DefaultSpec() = %v", sp)
	}
}
