package internal

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alpine-vis/forge/internal/buildenv"
	"github.com/alpine-vis/forge/internal/concretize"
	"github.com/alpine-vis/forge/internal/hostconfig"
	"github.com/alpine-vis/forge/internal/toolchain"
	"github.com/alpine-vis/forge/pkgs/spec"
	"github.com/alpine-vis/forge/recipe"
)

var hostConfigOpts struct {
	manifest string
	prefix   string
	dir      string
}

var hostConfigCmd = &cobra.Command{
	Use:   "host-config <spec>",
	Short: "Generate a host-config file without building",
	Long: `Host-config concretizes the given spec and writes the CMake cache
initialization file a build of it would use, so the configuration can be
inspected or reused by hand.`,
	Args: cobra.ExactArgs(1),
	RunE: runHostConfig,
}

func init() {
	f := hostConfigCmd.Flags()
	f.StringVarP(&hostConfigOpts.manifest, "manifest", "m", "", "build environment manifest (YAML)")
	f.StringVarP(&hostConfigOpts.prefix, "prefix", "p", "", "install prefix the build would use")
	f.StringVarP(&hostConfigOpts.dir, "output-dir", "o", ".", "directory to write the file into")
	_ = hostConfigCmd.MarkFlagRequired("manifest")
	_ = hostConfigCmd.MarkFlagRequired("prefix")

	rootCmd.AddCommand(hostConfigCmd)
}

func runHostConfig(cmd *cobra.Command, args []string) error {
	sp, err := spec.Parse(args[0])
	if err != nil {
		return err
	}
	env, err := buildenv.Load(hostConfigOpts.manifest)
	if err != nil {
		return err
	}

	concrete, err := concretize.Concretize(recipe.Builtin(), sp, env)
	if err != nil {
		return err
	}
	tc, err := toolchain.Detect(env)
	if err != nil {
		return err
	}
	cmakeExe, err := toolchain.FindCMake(env, concrete.Enabled("cmake"))
	if err != nil {
		return err
	}

	path, err := hostconfig.Generate(concrete, env, hostconfig.Params{
		Toolchain:     tc,
		CMake:         cmakeExe,
		InstallPrefix: hostConfigOpts.prefix,
		Dir:           hostConfigOpts.dir,
	})
	if err != nil {
		return err
	}
	fmt.Println(path)
	return nil
}
