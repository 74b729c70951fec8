package cmake

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"

	"github.com/alpine-vis/forge/pkgs/buildsys"
)

type defineValue struct {
	value    string
	typeName string
}

// CMake wraps a configure / compile / install cycle with chainable
// configuration. Configuration runs through cmake; compilation and
// installation run through make.
type CMake struct {
	exe        string
	sourceDir  string
	buildDir   string
	installDir string
	generator  string
	buildType  string
	cacheFile  string
	jobs       int
	defines    map[string]defineValue
	env        map[string]string
	stdout     io.Writer
	stderr     io.Writer
}

var _ buildsys.BuildSystem = (*CMake)(nil)

// New creates a CMake helper building sourceDir in buildDir and installing
// into installDir.
func New(sourceDir, buildDir, installDir string) *CMake {
	return &CMake{
		exe:        "cmake",
		sourceDir:  sourceDir,
		buildDir:   buildDir,
		installDir: installDir,
		defines:    map[string]defineValue{},
		env:        map[string]string{},
		stdout:     os.Stdout,
		stderr:     os.Stderr,
	}
}

func (c *CMake) Source(dir string) {
	c.sourceDir = dir
}

func (c *CMake) InstallDir(dir string) {
	c.installDir = dir
}

// Exe sets the cmake executable to drive the build with.
func (c *CMake) Exe(path string) *CMake {
	c.exe = path
	return c
}

func (c *CMake) Generator(name string) *CMake {
	c.generator = name
	return c
}

func (c *CMake) BuildType(name string) *CMake {
	c.buildType = name
	return c
}

// CacheFile sets a cache initialization file passed to configure via -C.
func (c *CMake) CacheFile(path string) *CMake {
	c.cacheFile = path
	return c
}

// Jobs sets the compile parallelism.
func (c *CMake) Jobs(n int) *CMake {
	c.jobs = n
	return c
}

// Output redirects subprocess output, which goes to os.Stdout/os.Stderr
// by default.
func (c *CMake) Output(stdout, stderr io.Writer) *CMake {
	c.stdout = stdout
	c.stderr = stderr
	return c
}

func (c *CMake) Define(key, value string) *CMake {
	c.defines[key] = defineValue{value: value, typeName: "STRING"}
	return c
}

func (c *CMake) DefinePath(key, value string) *CMake {
	c.defines[key] = defineValue{value: value, typeName: "PATH"}
	return c
}

func (c *CMake) DefineBool(key string, value bool) *CMake {
	if value {
		c.defines[key] = defineValue{value: "ON", typeName: "BOOL"}
		return c
	}
	c.defines[key] = defineValue{value: "OFF", typeName: "BOOL"}
	return c
}

// Env sets a variable for the build's subprocesses only; the process
// environment is left alone.
func (c *CMake) Env(key, value string) {
	c.env[key] = value
}

// Use configures the build environment to pick up an installed dependency
// prefix: cmake search paths, pkg-config, and compiler flags.
func (c *CMake) Use(prefix string) {
	includeDir := filepath.Join(prefix, "include")
	libDir := filepath.Join(prefix, "lib")
	pkgconfigDir := filepath.Join(prefix, "lib", "pkgconfig")

	if _, err := os.Stat(pkgconfigDir); err == nil {
		prependPath("PKG_CONFIG_PATH", pkgconfigDir)
	}

	if _, err := os.Stat(prefix); err == nil {
		prependPath("CMAKE_PREFIX_PATH", prefix)
	}
	if _, err := os.Stat(includeDir); err == nil {
		prependPath("CMAKE_INCLUDE_PATH", includeDir)
	}
	if _, err := os.Stat(libDir); err == nil {
		prependPath("CMAKE_LIBRARY_PATH", libDir)
	}

	if runtime.GOOS == "windows" {
		if _, err := os.Stat(includeDir); err == nil {
			prependPath("INCLUDE", includeDir)
		}
		if _, err := os.Stat(libDir); err == nil {
			prependPath("LIB", libDir)
		}
	} else {
		if _, err := os.Stat(includeDir); err == nil {
			appendFlag("CPPFLAGS", "-I"+includeDir)
		}
		if _, err := os.Stat(libDir); err == nil {
			appendFlag("LDFLAGS", "-L"+libDir)
		}
	}
}

// StandardArgs returns the platform-standard configure arguments for the
// given build type. When shared is false, every argument touching RPATH
// handling is left out: a static build must not embed runtime library
// paths.
func StandardArgs(buildType string, shared bool) []string {
	args := []string{
		"-DCMAKE_BUILD_TYPE:STRING=" + buildType,
		"-DCMAKE_INSTALL_RPATH_USE_LINK_PATH:BOOL=ON",
		"-DCMAKE_BUILD_WITH_INSTALL_RPATH:BOOL=OFF",
		"-DBUILD_SHARED_LIBS:BOOL=" + onOff(shared),
	}
	if !shared {
		kept := args[:0]
		for _, arg := range args {
			if !strings.Contains(arg, "RPATH") {
				kept = append(kept, arg)
			}
		}
		args = kept
	}
	return args
}

func onOff(on bool) string {
	if on {
		return "ON"
	}
	return "OFF"
}

// Configure generates build files with cmake.
func (c *CMake) Configure(args ...string) error {
	if err := os.MkdirAll(c.buildDir, 0o755); err != nil {
		return err
	}
	return c.run(c.exe, c.configureArgs(args...), "")
}

func (c *CMake) configureArgs(extra ...string) []string {
	args := []string{"-S", c.sourceDir, "-B", c.buildDir}
	if c.generator != "" {
		args = append(args, "-G", c.generator)
	}
	if c.installDir != "" {
		c.DefinePath("CMAKE_INSTALL_PREFIX", c.installDir)
	}
	if c.buildType != "" {
		c.Define("CMAKE_BUILD_TYPE", c.buildType)
	}
	if c.cacheFile != "" {
		args = append(args, "-C", c.cacheFile)
	}
	args = append(args, c.definesArgs()...)
	args = append(args, extra...)
	return args
}

// Build compiles in the build directory with make.
func (c *CMake) Build(args ...string) error {
	makeArgs := []string{}
	if c.jobs > 0 {
		makeArgs = append(makeArgs, "-j"+strconv.Itoa(c.jobs))
	}
	makeArgs = append(makeArgs, args...)
	return c.run("make", makeArgs, c.buildDir)
}

// Install runs make install in the build directory.
func (c *CMake) Install(args ...string) error {
	makeArgs := append([]string{"install"}, args...)
	return c.run("make", makeArgs, c.buildDir)
}

// OutputDir returns the install dir if set, otherwise the build dir.
func (c *CMake) OutputDir() string {
	if c.installDir != "" {
		return c.installDir
	}
	return c.buildDir
}

func (c *CMake) definesArgs() []string {
	if len(c.defines) == 0 {
		return nil
	}
	keys := make([]string, 0, len(c.defines))
	for k := range c.defines {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	args := make([]string, 0, len(keys))
	for _, k := range keys {
		def := c.defines[k]
		if def.typeName != "" {
			args = append(args, "-D"+k+":"+def.typeName+"="+def.value)
			continue
		}
		args = append(args, "-D"+k+"="+def.value)
	}
	return args
}

func (c *CMake) run(bin string, args []string, dir string) error {
	cmd := exec.Command(bin, args...)
	cmd.Dir = dir
	cmd.Stdout = c.stdout
	cmd.Stderr = c.stderr
	if len(c.env) > 0 {
		cmd.Env = mergeEnv(os.Environ(), c.env)
	}
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s %s: %w", bin, strings.Join(args, " "), err)
	}
	return nil
}

func mergeEnv(base []string, override map[string]string) []string {
	envMap := make(map[string]string, len(base))
	for _, kv := range base {
		if k, v, ok := strings.Cut(kv, "="); ok {
			envMap[k] = v
		}
	}
	for k, v := range override {
		envMap[k] = v
	}
	keys := make([]string, 0, len(envMap))
	for k := range envMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+envMap[k])
	}
	return out
}

// prependPath prepends a value to a list-valued environment variable using
// the platform separator.
func prependPath(key, value string) {
	sep := ":"
	if runtime.GOOS == "windows" {
		sep = ";"
	}
	current := os.Getenv(key)
	if current == "" {
		os.Setenv(key, value)
	} else {
		os.Setenv(key, value+sep+current)
	}
}

// appendFlag appends a flag to a space-separated environment variable.
func appendFlag(key, flag string) {
	current := os.Getenv(key)
	if current == "" {
		os.Setenv(key, flag)
	} else {
		os.Setenv(key, strings.TrimSpace(current+" "+flag))
	}
}
