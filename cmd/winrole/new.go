package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jaspreet-dot-casa/winrole/pkg/descriptor"
	"github.com/jaspreet-dot-casa/winrole/pkg/tui"
)

func newNewCmd(g *globalOptions) *cobra.Command {
	var interactive bool

	cmd := &cobra.Command{
		Use:   "new <name>",
		Short: "Create a package descriptor",
		Long: `Create packages/<name>.yaml with placeholder values to edit.

With --interactive the descriptor fields are collected with a form.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNew(cmd, g, args[0], interactive)
		},
	}

	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "Fill in the descriptor interactively")

	return cmd
}

func runNew(cmd *cobra.Command, g *globalOptions, name string, interactive bool) error {
	if err := descriptor.ValidateValue(name, "slug"); err != nil {
		return fmt.Errorf("invalid package name %q: %w", name, err)
	}

	env, err := g.loadProject(cmd)
	if err != nil {
		return err
	}

	pkg := descriptor.Skeleton(name)
	if interactive {
		pkg, err = tui.RunDescriptorForm(name, cmd.InOrStdin(), cmd.OutOrStdout())
		if errors.Is(err, tui.ErrCancelled) {
			fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
			return nil
		}
		if err != nil {
			return err
		}
	}

	path := filepath.Join(env.dirs.Packages, pkg.Name+".yaml")
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("descriptor already exists: %s", path)
	}

	if err := descriptor.Write(path, pkg); err != nil {
		return err
	}
	env.log.Debugw("wrote descriptor", "path", path)

	fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", relTo(env.root, path))
	fmt.Fprintf(cmd.OutOrStdout(), "Place the installer at %s\n", relTo(env.root, pkg.SourcePath(env.root, env.dirs.Assets)))
	return nil
}
