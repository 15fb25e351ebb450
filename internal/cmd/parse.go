package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/hemmendinger/dp2j/internal/adf"
	"github.com/hemmendinger/dp2j/internal/plan"
)

var parseFormat string

var parseCmd = &cobra.Command{
	Use:   "parse <plan.md|->",
	Short: "Print the issue tree parsed from a plan",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(ctx context.Context, a *app, args []string) error {
		return runParse(a, args[0], parseFormat)
	}),
}

var (
	previewWidth int
	previewRaw   bool
)

var previewCmd = &cobra.Command{
	Use:   "preview <plan.md|->",
	Short: "Render an outline of the issues a plan would create",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(ctx context.Context, a *app, args []string) error {
		return runPreview(a, args[0], previewWidth, previewRaw)
	}),
}

var (
	adfBatch  string
	adfSource string
)

var adfCmd = &cobra.Command{
	Use:   "adf <file.md|->",
	Short: "Convert markdown to a rich-text document",
	Long: `Print the JSON document a markdown description converts to.

With --batch and --source the import audit trail is prepended, exactly as on
imported issues.`,
	Args: cobra.ExactArgs(1),
	RunE: withApp(func(ctx context.Context, a *app, args []string) error {
		return runADF(a, args[0], adfBatch, adfSource, time.Now())
	}),
}

func init() {
	parseCmd.Flags().StringVar(&parseFormat, "format", "json", "Output format: json or yaml")
	rootCmd.AddCommand(parseCmd)

	previewCmd.Flags().IntVar(&previewWidth, "width", 80, "Word wrap width")
	previewCmd.Flags().BoolVar(&previewRaw, "raw", false, "Print the outline markdown without rendering")
	rootCmd.AddCommand(previewCmd)

	adfCmd.Flags().StringVar(&adfBatch, "batch", "", "Batch id for the audit trail")
	adfCmd.Flags().StringVar(&adfSource, "source", "", "Source path for the audit trail")
	rootCmd.AddCommand(adfCmd)
}

// readInput reads a file, or stdin for "-".
func (a *app) readInput(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(a.in)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(data), nil
}

func runParse(a *app, path, format string) error {
	content, err := a.readInput(path)
	if err != nil {
		return err
	}
	p := plan.Parse(content, a.log)

	switch format {
	case "json":
		data, err := json.MarshalIndent(p, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding plan: %w", err)
		}
		fmt.Fprintln(a.out, string(data))
	case "yaml":
		enc := yaml.NewEncoder(a.out)
		enc.SetIndent(2)
		if err := enc.Encode(p); err != nil {
			return fmt.Errorf("encoding plan: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q (want json or yaml)", format)
	}
	return nil
}

func runPreview(a *app, path string, width int, raw bool) error {
	content, err := a.readInput(path)
	if err != nil {
		return err
	}
	md := outline(plan.Parse(content, a.log))
	if raw {
		fmt.Fprint(a.out, md)
		return nil
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return fmt.Errorf("creating renderer: %w", err)
	}
	rendered, err := r.Render(md)
	if err != nil {
		return fmt.Errorf("rendering preview: %w", err)
	}
	fmt.Fprint(a.out, rendered)
	return nil
}

// outline summarizes a parsed plan as markdown: the epic as the title, one
// section per story and a nested list of tasks and subtasks.
func outline(p *plan.Plan) string {
	var b strings.Builder
	if p.Epic == nil {
		b.WriteString("# No epic\n\nThis plan has no `## EPIC:` heading; nothing would be imported.\n")
		return b.String()
	}

	fmt.Fprintf(&b, "# %s\n\n", p.Epic.Summary)
	if meta := details(p.Epic.Item); meta != "" {
		fmt.Fprintf(&b, "%s\n\n", meta)
	}
	c := p.Counts()
	fmt.Fprintf(&b, "**%d issues:** 1 epic, %d stories, %d tasks, %d subtasks\n",
		c.Total(), c.Stories, c.Tasks, c.Subtasks)

	for _, s := range p.Stories {
		fmt.Fprintf(&b, "\n## %s: %s\n\n", s.ID, s.Summary)
		if meta := details(s.Item); meta != "" {
			fmt.Fprintf(&b, "%s\n\n", meta)
		}
		for _, t := range s.Tasks {
			fmt.Fprintf(&b, "- **%s** %s", t.ID, t.Summary)
			if meta := details(t.Item); meta != "" {
				fmt.Fprintf(&b, " (%s)", meta)
			}
			b.WriteString("\n")
			for _, st := range t.Subtasks {
				fmt.Fprintf(&b, "  - %s %s", st.ID, st.Summary)
				if meta := details(st.Item); meta != "" {
					fmt.Fprintf(&b, " (%s)", meta)
				}
				b.WriteString("\n")
			}
		}
	}
	return b.String()
}

func details(item plan.Item) string {
	var parts []string
	if item.Assignee != "" {
		parts = append(parts, "👤 "+item.Assignee)
	}
	if item.Priority != "" {
		parts = append(parts, "priority "+item.Priority)
	}
	if est := plan.ParseTimeEstimate(item.Estimate); est != "" {
		parts = append(parts, "⏱ "+est)
	}
	if len(item.Labels) > 0 {
		parts = append(parts, "`"+strings.Join(item.Labels, "` `")+"`")
	}
	return strings.Join(parts, " · ")
}

func runADF(a *app, path, batchID, source string, at time.Time) error {
	content, err := a.readInput(path)
	if err != nil {
		return err
	}
	doc := adf.FromMarkdown(content)
	if batchID != "" && source != "" {
		doc = adf.PrependAuditTrail(doc, source, batchID, at)
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding document: %w", err)
	}
	fmt.Fprintln(a.out, string(data))
	return nil
}
