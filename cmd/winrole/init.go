package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jaspreet-dot-casa/winrole/pkg/config"
	"github.com/jaspreet-dot-casa/winrole/pkg/descriptor"
)

func newInitCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init [path]",
		Short: "Initialize a winrole project",
		Long: `Initialize a winrole project by writing winrole.yaml with the default
settings and creating the packages/, assets/, roles/ and playbooks/
directories. An existing winrole.yaml is left untouched.

A descriptor template is written to packages/_template.yaml.

Examples:
  winrole init                 # Use current directory
  winrole init ~/code/ansible  # Use another directory`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd, g, args)
		},
	}
}

func runInit(cmd *cobra.Command, g *globalOptions, args []string) error {
	out := cmd.OutOrStdout()

	root, err := g.workDir()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}
	if len(args) == 1 {
		root, err = filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("invalid path: %w", err)
		}
	}

	if err := os.MkdirAll(root, 0755); err != nil {
		return fmt.Errorf("failed to create project directory: %w", err)
	}

	cfgPath := config.Path(root)
	cfg := config.Default()
	if _, err := os.Stat(cfgPath); err == nil {
		cfg, err = config.LoadFile(cfgPath)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Using existing %s\n", cfgPath)
	} else {
		if err := cfg.Save(cfgPath); err != nil {
			return err
		}
		fmt.Fprintf(out, "Created %s\n", cfgPath)
	}

	dirs := cfg.Resolve(root)
	for _, dir := range []string{dirs.Packages, dirs.Assets, dirs.Roles, dirs.Playbooks} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
		fmt.Fprintf(out, "  %s/\n", relTo(root, dir))
	}

	tmpl := filepath.Join(dirs.Packages, descriptor.TemplateFileName)
	if _, err := os.Stat(tmpl); os.IsNotExist(err) {
		if err := descriptor.Write(tmpl, descriptor.Skeleton("example")); err != nil {
			return err
		}
		fmt.Fprintf(out, "  %s\n", relTo(root, tmpl))
	}

	fmt.Fprintln(out, "\nNext steps:")
	fmt.Fprintln(out, "  winrole new <package>    # describe a package")
	fmt.Fprintf(out, "  cp <installer> %s/\n", relTo(root, dirs.Assets))
	fmt.Fprintln(out, "  winrole scaffold         # render, commit and push the role")

	return nil
}
