package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jaspreet-dot-casa/winrole/pkg/scaffold"
	"github.com/jaspreet-dot-casa/winrole/pkg/tui"
)

type scaffoldFlags struct {
	dryRun  bool
	noGit   bool
	noPush  bool
	message string
	remote  string
}

func newScaffoldCmd(g *globalOptions) *cobra.Command {
	f := &scaffoldFlags{}

	cmd := &cobra.Command{
		Use:   "scaffold [names...]",
		Short: "Generate the role and playbooks, then commit and push",
		Long: `Render the Ansible role and the install, upgrade and uninstall playbooks
for every package descriptor (or only the named ones), copy each installer
into the role's files/ directory and commit and push the changes.

A missing installer is reported as a warning and does not stop the run.
Any other failure aborts with a non-zero exit status.

Examples:
  winrole scaffold                  # All packages
  winrole scaffold 7zip notepadpp   # Only these packages
  winrole scaffold --dry-run        # Show what would be written
  winrole scaffold --no-push        # Commit locally only`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScaffold(cmd, g, f, args)
		},
	}

	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "Print the files that would be written and exit")
	cmd.Flags().BoolVar(&f.noGit, "no-git", false, "Skip git add, commit and push")
	cmd.Flags().BoolVar(&f.noPush, "no-push", false, "Commit but do not push")
	cmd.Flags().StringVarP(&f.message, "message", "m", "", "Commit message (default from winrole.yaml)")
	cmd.Flags().StringVar(&f.remote, "remote", "", "Remote to push to (default from winrole.yaml)")

	return cmd
}

func runScaffold(cmd *cobra.Command, g *globalOptions, f *scaffoldFlags, names []string) error {
	env, err := g.loadProject(cmd)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	report, err := scaffold.Run(cmd.Context(), scaffold.Options{
		Root:     env.root,
		Config:   env.cfg,
		Packages: names,
		DryRun:   f.dryRun,
		NoGit:    f.noGit,
		NoPush:   f.noPush,
		Message:  f.message,
		Remote:   f.remote,
		Out:      out,
		Logger:   env.log,
	})
	if report != nil {
		printReport(out, env.root, report)
	}
	if err != nil {
		return fmt.Errorf("scaffold failed at %w", err)
	}

	if report.DryRun {
		fmt.Fprintln(out, tui.DimStyle.Render("\nDry run: nothing was written."))
		return nil
	}
	fmt.Fprintln(out, tui.SuccessStyle.Render("\nScaffold complete!"))
	return nil
}

// printReport writes the outcome of each completed step.
func printReport(w io.Writer, root string, r *scaffold.Report) {
	for _, warning := range r.Warnings {
		fmt.Fprintf(w, "%s %s\n", tui.SymbolWarning, tui.WarningStyle.Render(warning))
	}

	if r.Written != nil {
		fmt.Fprintf(w, "%s Wrote %d file(s) (%d created, %d overwritten)\n",
			tui.SymbolOK, r.Written.Total(), len(r.Written.Created), len(r.Written.Overwritten))
	}

	for _, a := range r.Assets {
		if a.Copied {
			fmt.Fprintf(w, "%s Copied %s -> %s\n", tui.SymbolOK, relTo(root, a.Source), relTo(root, a.Path))
		}
	}

	for _, p := range r.Removed {
		fmt.Fprintf(w, "%s Removed %s\n", tui.SymbolOK, relTo(root, p))
	}

	if r.Manifest != nil {
		fmt.Fprintf(w, "%s Manifest %s\n", tui.SymbolOK, tui.DimStyle.Render("run "+r.Manifest.RunID))
	}

	switch {
	case r.Commit != "":
		fmt.Fprintf(w, "%s Committed %s\n", tui.SymbolOK, tui.InfoStyle.Render(shortHash(r.Commit)))
	case r.NothingToCommit:
		fmt.Fprintf(w, "%s Nothing to commit\n", tui.SymbolWarning)
	}

	if r.Pushed {
		fmt.Fprintf(w, "%s Pushed\n", tui.SymbolOK)
	}
}

func shortHash(h string) string {
	if len(h) > 7 {
		return h[:7]
	}
	return h
}
