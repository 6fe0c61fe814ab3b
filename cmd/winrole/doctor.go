package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jaspreet-dot-casa/winrole/pkg/config"
	"github.com/jaspreet-dot-casa/winrole/pkg/doctor"
	"github.com/jaspreet-dot-casa/winrole/pkg/project"
	"github.com/jaspreet-dot-casa/winrole/pkg/tui"
)

// doctorRunner runs the checks and fixes. Tests replace it.
var doctorRunner doctor.Runner = doctor.SystemRunner{}

func newDoctorCmd(g *globalOptions) *cobra.Command {
	var fix bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check required tools and project setup",
		Long: `Check that git is installed, report on the optional Ansible tooling used
to run the generated playbooks and verify the project is initialized.

With --fix the suggested install commands for failing checks are run.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDoctor(cmd, g, fix)
		},
	}

	cmd.Flags().BoolVar(&fix, "fix", false, "Run fix commands for failing checks")

	return cmd
}

func runDoctor(cmd *cobra.Command, g *globalOptions, fix bool) error {
	out := cmd.OutOrStdout()
	checker := doctor.NewChecker(doctorRunner)

	// Without a project the project checks report the missing root.
	if start, err := g.workDir(); err == nil {
		if root, err := project.FindRootFrom(start); err == nil {
			packagesDir := ""
			if cfg, err := config.Load(root); err == nil {
				packagesDir = cfg.PackagesDir
			}
			checker.SetProject(root, packagesDir)
		}
	}

	report := checker.Run()
	show := func() {
		for _, group := range report.Groups {
			printGroup(out, group)
		}
	}
	show()

	if fix && len(report.Fixable()) > 0 {
		fmt.Fprintln(out)
		for _, check := range report.Fixable() {
			fmt.Fprintf(out, "Fixing %s: %s\n", check.Name, tui.DimStyle.Render(check.Fix.Command))
			if err := doctor.Apply(doctorRunner, check.Fix); err != nil {
				fmt.Fprintf(out, "  %s %v\n", tui.SymbolError, err)
			}
		}
		fmt.Fprintln(out)
		report = checker.Run()
		show()
	}

	total := len(report.Checks())
	fmt.Fprintf(out, "\n%d/%d checks passed", report.Count(doctor.StatusOK), total)
	if n := report.Count(doctor.StatusWarning); n > 0 {
		fmt.Fprintf(out, ", %d warning(s)", n)
	}
	fmt.Fprintln(out)

	if report.Failed() {
		return fmt.Errorf("%d check(s) failed", report.Count(doctor.StatusMissing))
	}
	return nil
}

func printGroup(w io.Writer, group doctor.Group) {
	fmt.Fprintln(w, tui.TitleStyle.Render(group.Name))
	for _, check := range group.Checks {
		symbol := tui.SymbolOK
		switch check.Status {
		case doctor.StatusWarning:
			symbol = tui.SymbolWarning
		case doctor.StatusMissing:
			symbol = tui.SymbolError
		}
		fmt.Fprintf(w, "  %s %s %s\n", symbol, check.Name, tui.DimStyle.Render(check.Message))
		if check.Fix != nil {
			fmt.Fprintf(w, "      fix: %s\n", check.Fix.Command)
		}
	}
}
