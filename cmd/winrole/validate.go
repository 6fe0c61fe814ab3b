package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jaspreet-dot-casa/winrole/pkg/tui"
	"github.com/jaspreet-dot-casa/winrole/pkg/validation"
)

func newValidateCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate descriptors and the generated role",
		Long: `Check winrole.yaml, every package descriptor and the files recorded in the
last scaffold manifest. Errors exit non-zero; warnings are reported only.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runValidate(cmd, g)
		},
	}
}

// runValidate validates the project configuration, descriptors and generated files.
func runValidate(cmd *cobra.Command, g *globalOptions) error {
	env, err := g.loadProject(cmd)
	if err != nil {
		return err
	}

	validator := validation.NewValidator(env.root, env.cfg)
	result := validator.ValidateAll()

	out := cmd.OutOrStdout()
	for _, issue := range result.Issues {
		prefix := tui.WarningStyle.Render("WARNING")
		if issue.Severity == validation.SeverityError {
			prefix = tui.ErrorStyle.Render("ERROR")
		}

		file := relTo(env.root, issue.File)
		if issue.Field != "" {
			fmt.Fprintf(out, "[%s] %s: %s (%s)\n", prefix, file, issue.Message, issue.Field)
		} else {
			fmt.Fprintf(out, "[%s] %s: %s\n", prefix, file, issue.Message)
		}
	}

	if result.HasErrors() {
		return fmt.Errorf("validation failed with %d error(s)", result.ErrorCount())
	}

	if len(result.Issues) == 0 {
		fmt.Fprintln(out, "All project files are valid.")
	} else {
		fmt.Fprintf(out, "\nValidation passed with %d warning(s).\n", result.WarningCount())
	}

	return nil
}
