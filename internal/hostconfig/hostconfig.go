package hostconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alpine-vis/forge/internal/buildenv"
	"github.com/alpine-vis/forge/internal/concretize"
	"github.com/alpine-vis/forge/internal/toolchain"
)

// Params carries everything the generator needs besides the concretized
// closure: the resolved toolchain, the located cmake, and where the build
// will install.
type Params struct {
	// Host names the machine the file is generated for. Defaults to
	// os.Hostname.
	Host string

	Toolchain toolchain.Toolchain

	// CMake is the cmake executable driving the build, recorded in the
	// file for reference.
	CMake string

	// InstallPrefix is where the package being built will be installed.
	InstallPrefix string

	// Dir is the directory the host-config file is written into.
	Dir string
}

// CacheEntry renders one CMake cache assignment line.
func CacheEntry(name, value string) string {
	return fmt.Sprintf("set(%s \"%s\" CACHE PATH \"\")\n\n", name, value)
}

func onOff(on bool) string {
	if on {
		return "ON"
	}
	return "OFF"
}

// Generate writes a host-config file capturing the concretized closure:
// resolved toolchain paths and one enabled-or-disabled block per optional
// feature. The closure must have been concretized against the manifest so
// dependency prefixes are bound. It returns the absolute path of the file.
func Generate(c *concretize.Concrete, env *buildenv.Manifest, p Params) (string, error) {
	host := p.Host
	if host == "" {
		h, err := os.Hostname()
		if err != nil {
			return "", fmt.Errorf("host-config: %w", err)
		}
		host = h
	}

	var b strings.Builder
	const rule = "##################################\n"

	b.WriteString(rule)
	b.WriteString("# forge generated host-config\n")
	b.WriteString(rule)
	b.WriteString("# " + p.Toolchain.SysType + "-" + p.Toolchain.CompilerSpec + "\n")
	b.WriteString(rule)
	b.WriteString("\n")

	b.WriteString("# cmake executable path: " + p.CMake + "\n\n")

	//
	// Compilers
	//

	b.WriteString("#######\n")
	b.WriteString("# using " + p.Toolchain.CompilerSpec + " compiler spec\n")
	b.WriteString("#######\n\n")
	b.WriteString("# c compiler\n")
	b.WriteString(CacheEntry("CMAKE_C_COMPILER", p.Toolchain.CC))
	b.WriteString("# cpp compiler\n")
	b.WriteString(CacheEntry("CMAKE_CXX_COMPILER", p.Toolchain.CXX))

	b.WriteString("# fortran compiler\n")
	if p.Toolchain.FC != "" {
		b.WriteString(CacheEntry("ENABLE_FORTRAN", "ON"))
		b.WriteString(CacheEntry("CMAKE_Fortran_COMPILER", p.Toolchain.FC))
	} else {
		b.WriteString("# no fortran compiler found\n\n")
		b.WriteString(CacheEntry("ENABLE_FORTRAN", "OFF"))
	}

	//
	// Core dependencies
	//

	conduit, ok := c.Node("conduit")
	if !ok || conduit.Prefix == "" {
		return "", fmt.Errorf("host-config: no resolved conduit in the closure")
	}
	b.WriteString("# conduit\n")
	b.WriteString(CacheEntry("CONDUIT_DIR", conduit.Prefix))

	//
	// Optional features
	//

	b.WriteString("# Python Support\n")
	if c.Enabled("python") {
		python, ok := env.Package("python")
		if !ok {
			return "", fmt.Errorf("host-config: python support is on but the manifest has no python record")
		}
		b.WriteString("# Enable python module builds\n")
		b.WriteString(CacheEntry("ENABLE_PYTHON", "ON"))
		b.WriteString(CacheEntry("PYTHON_EXECUTABLE", python.Command("python")))
		// Install modules to a standard site-packages style dir so the
		// surrounding environment can activate them.
		b.WriteString(CacheEntry("PYTHON_MODULE_INSTALL_PREFIX", sitePackagesDir(python, p.InstallPrefix)))
	} else {
		b.WriteString(CacheEntry("ENABLE_PYTHON", "OFF"))
	}

	if c.Enabled("doc") {
		sphinx, ok := c.Node("py-sphinx")
		if !ok || sphinx.Prefix == "" {
			return "", fmt.Errorf("host-config: doc support needs py-sphinx, which requires the python variant")
		}
		doxygen, ok := env.Package("doxygen")
		if !ok {
			return "", fmt.Errorf("host-config: doc support is on but the manifest has no doxygen record")
		}
		b.WriteString(CacheEntry("ENABLE_DOCS", "ON"))
		b.WriteString("# sphinx\n")
		b.WriteString(CacheEntry("SPHINX_EXECUTABLE", filepath.Join(sphinx.Prefix, "bin", "sphinx-build")))
		b.WriteString("# doxygen\n")
		b.WriteString(CacheEntry("DOXYGEN_EXECUTABLE", doxygen.Command("doxygen")))
	} else {
		b.WriteString(CacheEntry("ENABLE_DOCS", "OFF"))
	}

	b.WriteString("# MPI Support\n")
	if c.Enabled("mpi") {
		mpi, ok := env.Package("mpi")
		if !ok {
			return "", fmt.Errorf("host-config: MPI support is on but the manifest has no mpi record")
		}
		b.WriteString(CacheEntry("ENABLE_MPI", "ON"))
		b.WriteString(CacheEntry("MPI_C_COMPILER", mpiWrapper(mpi, "mpicc")))
		b.WriteString(CacheEntry("MPI_CXX_COMPILER", mpiWrapper(mpi, "mpicxx")))
		b.WriteString(CacheEntry("MPI_Fortran_COMPILER", mpiWrapper(mpi, "mpifc")))
	} else {
		b.WriteString(CacheEntry("ENABLE_MPI", "OFF"))
	}

	b.WriteString("# CUDA Support\n")
	b.WriteString(CacheEntry("ENABLE_CUDA", onOff(c.Enabled("cuda"))))

	b.WriteString("# vtk-h support\n")
	if c.Enabled("vtkh") {
		if tbb, ok := c.Node("tbb"); ok && tbb.Prefix != "" {
			b.WriteString("# tbb\n")
			b.WriteString(CacheEntry("TBB_DIR", tbb.Prefix))
		}
		vtkm, ok := c.Node("vtkm")
		if !ok || vtkm.Prefix == "" {
			return "", fmt.Errorf("host-config: no resolved vtkm in the closure")
		}
		b.WriteString("# vtk-m\n")
		b.WriteString(CacheEntry("VTKM_DIR", vtkm.Prefix))
		vtkh, ok := c.Node("vtkh")
		if !ok || vtkh.Prefix == "" {
			return "", fmt.Errorf("host-config: no resolved vtkh in the closure")
		}
		b.WriteString("# vtk-h\n")
		b.WriteString(CacheEntry("VTKH_DIR", vtkh.Prefix))
	} else {
		b.WriteString("# vtk-h not built\n\n")
	}

	b.WriteString("# adios support\n")
	if c.Enabled("adios") {
		adios, ok := c.Node("adios")
		if !ok || adios.Prefix == "" {
			return "", fmt.Errorf("host-config: no resolved adios in the closure")
		}
		b.WriteString(CacheEntry("ADIOS_DIR", adios.Prefix))
	} else {
		b.WriteString("# adios not built\n\n")
	}

	b.WriteString(rule)
	b.WriteString("# end forge generated host-config\n")
	b.WriteString(rule)

	name := fmt.Sprintf("%s-%s-%s.cmake", host, p.Toolchain.SysType, p.Toolchain.CompilerSpec)
	path := filepath.Join(p.Dir, name)
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("write host-config: %w", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return abs, nil
}

// sitePackagesDir is where python modules of the built package land. The
// manifest's python record may pin it; otherwise modules go under the
// install prefix.
func sitePackagesDir(python buildenv.Record, installPrefix string) string {
	if dir := python.Extra["site_packages"]; dir != "" {
		return dir
	}
	return filepath.Join(installPrefix, "python-modules")
}

// mpiWrapper resolves an MPI compiler wrapper: the manifest may record the
// wrapper paths directly, otherwise they are taken from the MPI bin dir.
func mpiWrapper(mpi buildenv.Record, name string) string {
	if path := mpi.Extra[name]; path != "" {
		return path
	}
	return filepath.Join(mpi.Prefix, "bin", name)
}
