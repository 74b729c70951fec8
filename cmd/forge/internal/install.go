package internal

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/alpine-vis/forge/internal/buildenv"
	"github.com/alpine-vis/forge/internal/installer"
	"github.com/alpine-vis/forge/pkgs/spec"
)

var installOpts struct {
	manifest  string
	prefix    string
	sourceDir string
	jobs      int
	buildType string
	cmakeArgs string
	workDir   string
	keepStage bool
}

var installCmd = &cobra.Command{
	Use:   "install <spec>",
	Short: "Build and install a package",
	Long: `Install concretizes the given spec against the build environment
manifest, fetches sources, generates a host-config and runs the cmake
configure, compile and install cycle into the chosen prefix.`,
	Example: `  forge install ascent --manifest env.yaml --prefix /opt/ascent
  forge install 'ascent+cuda~python' --manifest env.yaml --prefix /opt/ascent`,
	Args: cobra.ExactArgs(1),
	RunE: runInstall,
}

func init() {
	f := installCmd.Flags()
	f.StringVarP(&installOpts.manifest, "manifest", "m", "", "build environment manifest (YAML)")
	f.StringVarP(&installOpts.prefix, "prefix", "p", "", "install prefix")
	f.StringVar(&installOpts.sourceDir, "source-dir", "", "build from an existing source checkout instead of fetching")
	f.IntVarP(&installOpts.jobs, "jobs", "j", 0, "compile parallelism (default: make decides)")
	f.StringVar(&installOpts.buildType, "build-type", "", "CMake build type (default Release)")
	f.StringVar(&installOpts.cmakeArgs, "cmake-args", "", "extra configure arguments, shell quoted")
	f.StringVar(&installOpts.workDir, "work-dir", "", "stage workspace root (default: user cache dir)")
	f.BoolVar(&installOpts.keepStage, "keep-stage", false, "keep the stage directory after a successful install")
	_ = installCmd.MarkFlagRequired("manifest")
	_ = installCmd.MarkFlagRequired("prefix")

	rootCmd.AddCommand(installCmd)
}

func runInstall(cmd *cobra.Command, args []string) error {
	sp, err := spec.Parse(args[0])
	if err != nil {
		return err
	}
	env, err := buildenv.Load(installOpts.manifest)
	if err != nil {
		return err
	}

	return installer.Install(context.Background(), sp, installer.Options{
		Env:       env,
		Prefix:    installOpts.prefix,
		SourceDir: installOpts.sourceDir,
		Jobs:      installOpts.jobs,
		BuildType: installOpts.buildType,
		ExtraArgs: installOpts.cmakeArgs,
		WorkDir:   installOpts.workDir,
		KeepStage: installOpts.keepStage,
	})
}
