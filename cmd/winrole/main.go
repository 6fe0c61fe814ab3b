// Package main provides the winrole CLI, which scaffolds Ansible roles for
// Windows software packages and publishes them to git.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	rootCmd := newRootCmd()
	rootCmd.SilenceUsage = true
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	g := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "winrole",
		Short: "Ansible role scaffolder for Windows software",
		Long: `winrole renders Ansible roles and playbooks that install, upgrade and
uninstall Windows software packages, copies the installers into the role
and commits and pushes the result.

Each package is described by a YAML descriptor under packages/.`,
		Version: version,
	}

	rootCmd.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&g.configPath, "config", "", "Path to winrole.yaml (default: search upward from the working directory)")
	rootCmd.PersistentFlags().StringVarP(&g.dir, "dir", "C", "", "Run as if winrole was started in this directory")

	rootCmd.AddCommand(newInitCmd(g))
	rootCmd.AddCommand(newNewCmd(g))
	rootCmd.AddCommand(newPackagesCmd(g))
	rootCmd.AddCommand(newScaffoldCmd(g))
	rootCmd.AddCommand(newValidateCmd(g))
	rootCmd.AddCommand(newDoctorCmd(g))

	return rootCmd
}
