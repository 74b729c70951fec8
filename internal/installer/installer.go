package installer

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/DataDrake/waterlog"
	"github.com/google/shlex"

	"github.com/alpine-vis/forge/internal/buildenv"
	"github.com/alpine-vis/forge/internal/concretize"
	"github.com/alpine-vis/forge/internal/fetch"
	"github.com/alpine-vis/forge/internal/hostconfig"
	"github.com/alpine-vis/forge/internal/stage"
	"github.com/alpine-vis/forge/internal/toolchain"
	"github.com/alpine-vis/forge/pkgs/buildsys/cmake"
	"github.com/alpine-vis/forge/pkgs/spec"
	"github.com/alpine-vis/forge/recipe"
)

// Options configures an install run.
type Options struct {
	// Registry holds the available recipes. Defaults to the builtin set.
	Registry *recipe.Registry

	// Env is the build environment manifest dependencies are resolved
	// against. Required.
	Env *buildenv.Manifest

	// Prefix is where the package is installed. Required.
	Prefix string

	// SourceDir points at an existing source checkout. When set, no
	// fetching happens and the recipe's git/url sources are ignored.
	SourceDir string

	// Git fetches sources for recipes that declare a git repository.
	// Defaults to the git executable on PATH.
	Git *fetch.Git

	// Jobs is the compile parallelism. Zero lets make decide.
	Jobs int

	// BuildType is the CMake build type. Defaults to Release.
	BuildType string

	// ExtraArgs are additional configure arguments, split shell-style.
	ExtraArgs string

	// WorkDir overrides the stage workspace root.
	WorkDir string

	// KeepStage leaves the stage directory behind after a successful
	// install, for debugging.
	KeepStage bool
}

func (o *Options) withDefaults() (*Options, error) {
	out := *o
	if out.Registry == nil {
		out.Registry = recipe.Builtin()
	}
	if out.Env == nil {
		return nil, fmt.Errorf("install: no build environment manifest")
	}
	if out.Prefix == "" {
		return nil, fmt.Errorf("install: no install prefix")
	}
	if out.Git == nil {
		out.Git = fetch.NewGit()
	}
	if out.BuildType == "" {
		out.BuildType = "Release"
	}
	if out.WorkDir == "" {
		dir, err := stage.WorkDir()
		if err != nil {
			return nil, fmt.Errorf("install: %w", err)
		}
		out.WorkDir = dir
	}
	return &out, nil
}

// Install builds and installs the requested spec: the closure is
// concretized against the manifest, sources are staged, a host-config is
// generated, and the cmake configure / compile / install cycle runs.
func Install(ctx context.Context, sp spec.Spec, opts Options) error {
	o, err := opts.withDefaults()
	if err != nil {
		return err
	}

	concrete, err := concretize.Concretize(o.Registry, sp, o.Env)
	if err != nil {
		return err
	}
	waterlog.Infof("concretized %s\n", concrete.Root)

	tc, err := toolchain.Detect(o.Env)
	if err != nil {
		return err
	}
	cmakeExe, err := toolchain.FindCMake(o.Env, concrete.Enabled("cmake"))
	if err != nil {
		return err
	}
	waterlog.Debugf("using cmake at %s\n", cmakeExe)

	st, err := stage.New(o.WorkDir, concrete.Root.String())
	if err != nil {
		return err
	}
	unlock, err := st.Lock()
	if err != nil {
		return err
	}
	defer unlock()

	root := concrete.Nodes[len(concrete.Nodes)-1]
	srcDir, err := sourceDir(ctx, root, o, st)
	if err != nil {
		return err
	}
	waterlog.Infof("building %s from %s\n", concrete.Root.Name, srcDir)

	buildDir, err := st.BuildDir()
	if err != nil {
		return err
	}

	cfg, err := hostconfig.Generate(concrete, o.Env, hostconfig.Params{
		Toolchain:     tc,
		CMake:         cmakeExe,
		InstallPrefix: o.Prefix,
		Dir:           st.Root,
	})
	if err != nil {
		return err
	}
	waterlog.Infof("host-config: %s\n", cfg)

	cm := cmake.New(srcDir, buildDir, o.Prefix).
		Exe(cmakeExe).
		CacheFile(cfg).
		Jobs(o.Jobs)
	for _, dep := range concrete.Deps() {
		if dep.Prefix != "" {
			cm.Use(dep.Prefix)
		}
	}

	args := cmake.StandardArgs(o.BuildType, concrete.Enabled("shared"))
	extra, err := shlex.Split(o.ExtraArgs)
	if err != nil {
		return fmt.Errorf("bad extra configure args %q: %w", o.ExtraArgs, err)
	}
	args = append(args, extra...)

	if err := cm.Configure(args...); err != nil {
		return fmt.Errorf("configure %s: %w", concrete.Root.Name, err)
	}
	if err := cm.Build(); err != nil {
		return fmt.Errorf("build %s: %w", concrete.Root.Name, err)
	}
	if err := cm.Install(); err != nil {
		return fmt.Errorf("install %s: %w", concrete.Root.Name, err)
	}

	// Keep the host-config next to the installed tree so the build can be
	// reproduced from the prefix alone.
	kept := filepath.Join(o.Prefix, filepath.Base(cfg))
	if err := copyFile(cfg, kept); err != nil {
		return fmt.Errorf("preserve host-config: %w", err)
	}

	if !o.KeepStage {
		if err := st.Destroy(); err != nil {
			waterlog.Warnf("could not remove stage %s: %v\n", st.Root, err)
		}
	}
	waterlog.Goodln("installed " + concrete.Root.String() + " into " + o.Prefix)
	return nil
}

// sourceDir resolves where the package sources live, fetching them into
// the stage when the recipe names a remote.
func sourceDir(ctx context.Context, root concretize.Node, o *Options, st *stage.Stage) (string, error) {
	pkg := root.Pkg

	var dir string
	switch {
	case o.SourceDir != "":
		abs, err := filepath.Abs(o.SourceDir)
		if err != nil {
			return "", err
		}
		if _, err := os.Stat(abs); err != nil {
			return "", fmt.Errorf("source dir %s: %w", abs, err)
		}
		dir = abs

	case pkg.Git != "":
		branch := pkg.Branch
		if root.Spec.Version != "" {
			branch = root.Spec.Version
		}
		waterlog.Infof("cloning %s (%s)\n", pkg.Git, branch)
		if err := o.Git.Clone(ctx, pkg.Git, branch, st.SourceDir(), pkg.Submodules); err != nil {
			return "", err
		}
		dir = st.SourceDir()

	case pkg.URL != "":
		archive := filepath.Join(st.Root, filepath.Base(pkg.URL))
		waterlog.Infof("downloading %s\n", pkg.URL)
		if err := fetch.Download(ctx, pkg.URL, archive); err != nil {
			return "", err
		}
		if err := os.MkdirAll(st.SourceDir(), 0o755); err != nil {
			return "", err
		}
		if err := fetch.Unpack(archive, st.SourceDir()); err != nil {
			return "", err
		}
		unpacked, err := fetch.SourceRoot(st.SourceDir())
		if err != nil {
			return "", err
		}
		dir = unpacked

	default:
		return "", fmt.Errorf("recipe %s declares no source to build from", pkg.Name)
	}

	if pkg.SourceSubdir != "" {
		dir = filepath.Join(dir, pkg.SourceSubdir)
		if _, err := os.Stat(dir); err != nil {
			return "", fmt.Errorf("source subdir %s: %w", dir, err)
		}
	}
	return dir, nil
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
