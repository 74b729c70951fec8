package internal

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alpine-vis/forge/recipe"
)

var infoCmd = &cobra.Command{
	Use:   "info [package]",
	Short: "Show a recipe, or list all known recipes",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	reg := recipe.Builtin()

	if len(args) == 0 {
		for _, name := range reg.Names() {
			pkg, _ := reg.Lookup(name)
			fmt.Printf("%-12s %s\n", name, pkg.Description)
		}
		return nil
	}

	pkg, ok := reg.Lookup(args[0])
	if !ok {
		return fmt.Errorf("no recipe for package %s", args[0])
	}

	fmt.Println(pkg.Name + ": " + pkg.Description)
	if pkg.Homepage != "" {
		fmt.Println("homepage: " + pkg.Homepage)
	}
	switch {
	case pkg.Git != "":
		fmt.Printf("source: %s (branch %s)\n", pkg.Git, pkg.Branch)
	case pkg.URL != "":
		fmt.Println("source: " + pkg.URL)
	}
	if pkg.Extends != "" {
		fmt.Println("extends: " + formatExtends(pkg))
	}

	if len(pkg.Variants) > 0 {
		fmt.Println("\nvariants:")
		for _, name := range pkg.VariantNames() {
			v, _ := pkg.Variant(name)
			fmt.Printf("    %s  %s\n", formatVariant(name, v.Default), v.Description)
		}
	}

	if len(pkg.Dependencies) > 0 {
		fmt.Println("\ndependencies:")
		for _, dep := range pkg.Dependencies {
			fmt.Println("    " + formatDependency(dep))
		}
	}

	if len(pkg.Maintainers) > 0 {
		fmt.Println("\nmaintainers: " + strings.Join(pkg.Maintainers, ", "))
	}
	return nil
}

// formatVariant renders a variant with its default selection sigil, the way
// it would appear in a spec string.
func formatVariant(name string, def bool) string {
	if def {
		return "+" + name
	}
	return "~" + name
}

// formatExtends renders the extended package with its condition, when one
// applies.
func formatExtends(pkg *recipe.Package) string {
	if pkg.ExtendsWhen != "" {
		return pkg.Extends + "  when " + string(pkg.ExtendsWhen)
	}
	return pkg.Extends
}

// formatDependency renders one dependency edge with its condition and
// version constraint, when present.
func formatDependency(dep recipe.Dependency) string {
	var b strings.Builder
	b.WriteString(dep.Name)
	if dep.Constraint != "" {
		b.WriteString(" " + dep.Constraint)
	}
	if dep.When != "" {
		b.WriteString("  when " + string(dep.When))
	}
	return b.String()
}
