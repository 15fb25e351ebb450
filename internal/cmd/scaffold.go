package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hemmendinger/dp2j/internal/style"
	"github.com/hemmendinger/dp2j/internal/templates"
)

// scaffoldOpts holds options for the scaffold command.
type scaffoldOpts struct {
	Template string
	Output   string
	Force    bool
}

var scaffoldFlags scaffoldOpts

var scaffoldCmd = &cobra.Command{
	Use:   "scaffold",
	Short: "Write a plan skeleton from a YAML epic template",
	Long: `Turn a YAML epic template into a plan in the import heading syntax:
each phase becomes a story and each phase issue a task.

Example template:

  name: Service launch
  description: Ship a new service end to end
  phases:
    - name: Startup
      issues:
        - title: Provision environments
          estimate: 4 hours
          labels: [infra]
          subtasks: [Staging, Production]

Examples:
  dp2j scaffold --template launch.yaml
  dp2j scaffold --template launch.yaml --output docs/dev_plans/launch.md`,
	Args: cobra.NoArgs,
	RunE: withApp(func(ctx context.Context, a *app, args []string) error {
		return runScaffold(a, scaffoldFlags)
	}),
}

func init() {
	scaffoldCmd.Flags().StringVar(&scaffoldFlags.Template, "template", "", "YAML epic template (required)")
	scaffoldCmd.Flags().StringVarP(&scaffoldFlags.Output, "output", "o", "", "Write the plan here instead of stdout")
	scaffoldCmd.Flags().BoolVar(&scaffoldFlags.Force, "force", false, "Overwrite an existing output file")
	_ = scaffoldCmd.MarkFlagRequired("template")
	rootCmd.AddCommand(scaffoldCmd)
}

func runScaffold(a *app, opts scaffoldOpts) error {
	tmpl, err := templates.LoadTemplate(opts.Template)
	if err != nil {
		return err
	}
	md, err := tmpl.Render()
	if err != nil {
		return err
	}

	if opts.Output == "" {
		fmt.Fprint(a.out, md)
		return nil
	}
	if _, err := os.Stat(opts.Output); err == nil && !opts.Force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", opts.Output)
	}
	if err := os.WriteFile(opts.Output, []byte(md), 0644); err != nil {
		return fmt.Errorf("writing plan: %w", err)
	}
	fmt.Fprintf(a.out, "%s Wrote %s (%d phases)\n", style.SuccessPrefix, opts.Output, len(tmpl.Phases))
	return nil
}
