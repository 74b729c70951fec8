package installer

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/alpine-vis/forge/internal/buildenv"
	"github.com/alpine-vis/forge/internal/toolchain"
	"github.com/alpine-vis/forge/pkgs/spec"
	"github.com/alpine-vis/forge/recipe"
)

func testRegistry(t *testing.T, pkg *recipe.Package) *recipe.Registry {
	t.Helper()
	reg := recipe.NewRegistry()
	if err := reg.Register(pkg); err != nil {
		t.Fatal(err)
	}
	return reg
}

func testManifest(cc, cxx string) *buildenv.Manifest {
	m := &buildenv.Manifest{Packages: map[string]buildenv.Record{}}
	m.Compilers.CC = cc
	m.Compilers.CXX = cxx
	return m
}

func TestInstallRequiresManifest(t *testing.T) {
	err := Install(context.Background(), spec.Spec{Name: "ascent"}, Options{
		Prefix: t.TempDir(),
	})
	if err == nil {
		t.Fatal("Install without a manifest succeeded")
	}
}

func TestInstallRequiresPrefix(t *testing.T) {
	err := Install(context.Background(), spec.Spec{Name: "ascent"}, Options{
		Env: testManifest("/usr/bin/cc", "/usr/bin/c++"),
	})
	if err == nil {
		t.Fatal("Install without a prefix succeeded")
	}
}

func TestInstallUnknownPackage(t *testing.T) {
	err := Install(context.Background(), spec.Spec{Name: "no-such-pkg"}, Options{
		Registry: recipe.NewRegistry(),
		Env:      testManifest("/usr/bin/cc", "/usr/bin/c++"),
		Prefix:   t.TempDir(),
		WorkDir:  t.TempDir(),
	})
	if err == nil {
		t.Fatal("Install of an unknown package succeeded")
	}
}

func TestInstallCMakeMissing(t *testing.T) {
	// An empty PATH guarantees the lookup fails; the cmake variant is off
	// so the manifest is not consulted.
	t.Setenv("PATH", t.TempDir())

	reg := testRegistry(t, &recipe.Package{
		Name: "widget",
		Variants: map[string]recipe.Variant{
			"cmake": {Default: false},
		},
	})
	err := Install(context.Background(), spec.Spec{Name: "widget"}, Options{
		Registry: reg,
		Env:      testManifest("/usr/bin/cc", "/usr/bin/c++"),
		Prefix:   t.TempDir(),
		WorkDir:  t.TempDir(),
	})
	if !errors.Is(err, toolchain.ErrCMakeNotFound) {
		t.Fatalf("err = %v, want ErrCMakeNotFound", err)
	}
}

func TestInstallNoSource(t *testing.T) {
	reg := testRegistry(t, &recipe.Package{
		Name: "widget",
		Variants: map[string]recipe.Variant{
			"cmake": {Default: true},
		},
	})
	env := testManifest("/usr/bin/cc", "/usr/bin/c++")
	env.Packages["cmake"] = buildenv.Record{Prefix: "/opt/cmake"}

	err := Install(context.Background(), spec.Spec{Name: "widget"}, Options{
		Registry: reg,
		Env:      env,
		Prefix:   t.TempDir(),
		WorkDir:  t.TempDir(),
	})
	if err == nil {
		t.Fatal("Install of a recipe without sources succeeded")
	}
}

func TestInstallBadExtraArgs(t *testing.T) {
	src := writeDummyProject(t)
	reg := testRegistry(t, &recipe.Package{
		Name: "widget",
		Variants: map[string]recipe.Variant{
			"cmake": {Default: true},
		},
		Dependencies: []recipe.Dependency{{Name: "conduit"}},
	})
	env := testManifest("/usr/bin/cc", "/usr/bin/c++")
	env.Packages["cmake"] = buildenv.Record{Prefix: "/opt/cmake"}
	env.Packages["conduit"] = buildenv.Record{Prefix: "/opt/conduit"}
	// conduit needs a recipe too for concretization.
	if err := reg.Register(&recipe.Package{Name: "conduit"}); err != nil {
		t.Fatal(err)
	}

	err := Install(context.Background(), spec.Spec{Name: "widget"}, Options{
		Registry:  reg,
		Env:       env,
		Prefix:    t.TempDir(),
		WorkDir:   t.TempDir(),
		SourceDir: src,
		ExtraArgs: `-DFOO="unterminated`,
	})
	if err == nil {
		t.Fatal("Install with unparseable extra args succeeded")
	}
}

func writeDummyProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	lists := `cmake_minimum_required(VERSION 3.10)
project(dummy NONE)
install(FILES dummy.h DESTINATION include)
`
	if err := os.WriteFile(filepath.Join(dir, "CMakeLists.txt"), []byte(lists), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "dummy.h"), []byte("#define DUMMY 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestInstallEndToEnd(t *testing.T) {
	for _, tool := range []string{"cmake", "make", "cc", "c++"} {
		if _, err := exec.LookPath(tool); err != nil {
			t.Skipf("%s not found, skipping end-to-end install", tool)
		}
	}
	cc, _ := exec.LookPath("cc")
	cxx, _ := exec.LookPath("c++")

	reg := testRegistry(t, &recipe.Package{
		Name: "widget",
		Variants: map[string]recipe.Variant{
			"shared": {Default: true},
			"cmake":  {Default: false},
		},
		Dependencies: []recipe.Dependency{{Name: "conduit"}},
	})
	if err := reg.Register(&recipe.Package{Name: "conduit"}); err != nil {
		t.Fatal(err)
	}

	conduitPrefix := t.TempDir()
	env := testManifest(cc, cxx)
	env.SysType = "linux-x86_64"
	env.Compilers.Spec = "gcc"
	env.Packages["conduit"] = buildenv.Record{Prefix: conduitPrefix, Version: "0.9.2"}

	prefix := t.TempDir()
	err := Install(context.Background(), spec.Spec{Name: "widget"}, Options{
		Registry:  reg,
		Env:       env,
		Prefix:    prefix,
		WorkDir:   t.TempDir(),
		SourceDir: writeDummyProject(t),
		Jobs:      2,
	})
	if err != nil {
		t.Fatalf("Install: %v", err)
	}

	if _, err := os.Stat(filepath.Join(prefix, "include", "dummy.h")); err != nil {
		t.Errorf("installed file missing: %v", err)
	}

	// The host-config is preserved next to the install.
	matches, err := filepath.Glob(filepath.Join(prefix, "*.cmake"))
	if err != nil || len(matches) != 1 {
		t.Errorf("host-config not preserved in prefix: %v %v", matches, err)
	}
}
