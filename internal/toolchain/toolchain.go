package toolchain

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/alpine-vis/forge/internal/buildenv"
)

// Environment overrides. These win over the manifest so a user can point a
// build at a different toolchain without editing the manifest.
const (
	EnvCC      = "FORGE_CC"
	EnvCXX     = "FORGE_CXX"
	EnvFC      = "FORGE_FC"
	EnvSysType = "SYS_TYPE"
)

// ErrCMakeNotFound is reported when no cmake is configured and none can be
// found on the search path.
var ErrCMakeNotFound = errors.New("failed to find cmake (and the cmake variant is off)")

// Toolchain is the resolved compiler set for a build.
type Toolchain struct {
	CC  string
	CXX string
	// FC is empty when no working Fortran compiler is available.
	FC string

	// CompilerSpec is the human-readable compiler label used in
	// generated file names, e.g. "gcc@8.1.0".
	CompilerSpec string

	// SysType identifies the host platform, e.g. "linux-x86_64".
	SysType string
}

// Detect resolves the toolchain from the manifest and the environment
// overrides. The C and C++ compilers are required. A configured Fortran
// compiler is only kept when the path actually exists on disk.
func Detect(m *buildenv.Manifest) (Toolchain, error) {
	tc := Toolchain{
		CC:  firstNonEmpty(os.Getenv(EnvCC), m.Compilers.CC),
		CXX: firstNonEmpty(os.Getenv(EnvCXX), m.Compilers.CXX),
	}
	if tc.CC == "" {
		return Toolchain{}, fmt.Errorf("no C compiler configured: set %s or the manifest compilers.cc", EnvCC)
	}
	if tc.CXX == "" {
		return Toolchain{}, fmt.Errorf("no C++ compiler configured: set %s or the manifest compilers.cxx", EnvCXX)
	}

	// Even if a Fortran compiler is configured it may not exist, so do
	// one more sanity check before recording it.
	if fc := firstNonEmpty(os.Getenv(EnvFC), m.Compilers.FC); fc != "" {
		if info, err := os.Stat(fc); err == nil && !info.IsDir() {
			tc.FC = fc
		}
	}

	tc.CompilerSpec = m.Compilers.Spec
	if tc.CompilerSpec == "" {
		tc.CompilerSpec = filepath.Base(tc.CC)
	}

	// On hosts that export SYS_TYPE, prefer it over detection.
	tc.SysType = firstNonEmpty(os.Getenv(EnvSysType), m.SysType)
	if tc.SysType == "" {
		tc.SysType = sysType()
	}
	return tc, nil
}

// FindCMake locates the cmake executable for the build. When the cmake
// variant is on, the manifest must carry a cmake record. When it is off,
// cmake is looked up on PATH and ErrCMakeNotFound is reported if absent.
func FindCMake(m *buildenv.Manifest, fromManifest bool) (string, error) {
	if fromManifest {
		rec, ok := m.Package("cmake")
		if !ok {
			return "", fmt.Errorf("cmake variant is on but the manifest has no cmake record")
		}
		return rec.Command("cmake"), nil
	}
	path, err := exec.LookPath("cmake")
	if err != nil {
		return "", ErrCMakeNotFound
	}
	return path, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
