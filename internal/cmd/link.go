package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hemmendinger/dp2j/internal/importer"
	"github.com/hemmendinger/dp2j/internal/plan"
	"github.com/hemmendinger/dp2j/internal/style"
)

var (
	linkFile    string
	linkMapping string
)

var linkCmd = &cobra.Command{
	Use:   "link",
	Short: "Write tracker links into a plan from a saved mapping",
	Long: `Rewrite a plan so every imported heading is followed by a link to its
issue. Keys come from the mapping file saved by "dp2j import --create".
Running it again with the same mapping leaves the plan unchanged.

Examples:
  dp2j link --file docs/dev_plans/breakdown.md
  dp2j link --file docs/dev_plans/breakdown.md --mapping old-mapping.json`,
	Args: cobra.NoArgs,
	RunE: withApp(func(ctx context.Context, a *app, args []string) error {
		return runLink(a, linkFile, linkMapping)
	}),
}

func init() {
	linkCmd.Flags().StringVar(&linkFile, "file", "", "Plan file to update (required)")
	linkCmd.Flags().StringVar(&linkMapping, "mapping", "", "Mapping file (default from config)")
	_ = linkCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(linkCmd)
}

func runLink(a *app, planFile, mappingFile string) error {
	if mappingFile == "" {
		mappingFile = a.cfg.Resolve(a.cfg.MappingFile)
	}
	m, err := importer.LoadMapping(mappingFile)
	if err != nil {
		return err
	}
	content, err := os.ReadFile(planFile)
	if err != nil {
		return fmt.Errorf("reading plan: %w", err)
	}
	if err := writeLinks(planFile, string(content), m.Issues, a.cfg.APIURL); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s Linked %d issue(s) in %s\n", style.SuccessPrefix, m.Issues.Len(), planFile)
	return nil
}

// writeLinks rewrites the plan at path with a link line under every heading
// that has a key.
func writeLinks(path, content string, keys *plan.KeyMap, baseURL string) error {
	if baseURL == "" {
		return fmt.Errorf("JIRA_API_URL is required to build issue links")
	}
	updated := plan.InjectLinks(content, keys, baseURL)
	if updated == content {
		return nil
	}

	mode := os.FileMode(0644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	if err := os.WriteFile(path, []byte(updated), mode); err != nil {
		return fmt.Errorf("writing plan: %w", err)
	}
	return nil
}
