package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jaspreet-dot-casa/winrole/pkg/descriptor"
)

func newPackagesCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "packages",
		Short: "List package descriptors",
		Long:  `List all package descriptors under packages/, grouped by installer type.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPackages(cmd, g)
		},
	}
}

// runPackages lists the descriptors discovered in the packages directory.
func runPackages(cmd *cobra.Command, g *globalOptions) error {
	env, err := g.loadProject(cmd)
	if err != nil {
		return err
	}

	registry, err := descriptor.Discover(env.dirs.Packages)
	if err != nil {
		return fmt.Errorf("failed to discover packages: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(registry.Packages) == 0 {
		fmt.Fprintf(out, "No packages found in %s (create one with 'winrole new <name>')\n", relTo(env.root, env.dirs.Packages))
		return nil
	}

	fmt.Fprintf(out, "Found %d packages:\n\n", len(registry.Packages))

	for _, t := range registry.Types() {
		fmt.Fprintf(out, "%s:\n", t)
		for _, pkg := range registry.ByType[t] {
			fmt.Fprintf(out, "  - %s %s: %s\n", pkg.Name, pkg.Version, pkg.DisplayName)
		}
		fmt.Fprintln(out)
	}

	return nil
}
