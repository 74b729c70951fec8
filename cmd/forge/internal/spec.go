package internal

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alpine-vis/forge/internal/concretize"
	"github.com/alpine-vis/forge/pkgs/spec"
	"github.com/alpine-vis/forge/recipe"
)

var specCmd = &cobra.Command{
	Use:   "spec <spec>",
	Short: "Show the concretized build closure of a spec",
	Long: `Spec resolves variant defaults and conditional dependency edges for
the given spec and prints the resulting closure in build order.`,
	Args: cobra.ExactArgs(1),
	RunE: runSpec,
}

func init() {
	rootCmd.AddCommand(specCmd)
}

func runSpec(cmd *cobra.Command, args []string) error {
	sp, err := spec.Parse(args[0])
	if err != nil {
		return err
	}
	concrete, err := concretize.Concretize(recipe.Builtin(), sp, nil)
	if err != nil {
		return err
	}

	fmt.Println(concrete.Root)
	for _, dep := range concrete.Deps() {
		fmt.Println("    " + formatNode(dep))
	}
	return nil
}

// formatNode renders one closure node: the resolved spec, the dependency
// type, and any version constraints the edges imposed.
func formatNode(n concretize.Node) string {
	var b strings.Builder
	b.WriteString(n.Spec.String())
	b.WriteString("  [")
	b.WriteString(n.Type.String())
	b.WriteByte(']')
	if len(n.Constraints) > 0 {
		b.WriteString("  (")
		b.WriteString(strings.Join(n.Constraints, ", "))
		b.WriteByte(')')
	}
	return b.String()
}
