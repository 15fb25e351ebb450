package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hemmendinger/dp2j/internal/config"
	"github.com/hemmendinger/dp2j/internal/history"
	"github.com/hemmendinger/dp2j/internal/hooks"
	"github.com/hemmendinger/dp2j/internal/importer"
	"github.com/hemmendinger/dp2j/internal/jira"
	"github.com/hemmendinger/dp2j/internal/plan"
	"github.com/hemmendinger/dp2j/internal/style"
	"github.com/hemmendinger/dp2j/internal/workspace"
)

// importOpts holds options for the import command.
type importOpts struct {
	Create          bool
	DryRun          bool
	Force           bool
	UpdateFile      bool
	TasksAsSubtasks bool
	Project         string
}

var importFlags importOpts

var importCmd = &cobra.Command{
	Use:   "import <plan.md>",
	Short: "Create tracker issues from a dev plan",
	Long: `Create the Epic, Stories, Tasks and Subtasks of a dev plan.

Without --create or --dry-run the plan is only parsed and counted.

Examples:
  # Count what would be created
  dp2j import docs/dev_plans/breakdown.md

  # Show every payload without calling the tracker
  dp2j import docs/dev_plans/breakdown.md --dry-run

  # Create the issues and write their links back into the plan
  dp2j import docs/dev_plans/breakdown.md --create --update-file`,
	Args: cobra.ExactArgs(1),
	RunE: withApp(func(ctx context.Context, a *app, args []string) error {
		return runImport(ctx, a, args[0], importFlags)
	}),
}

func init() {
	importCmd.Flags().BoolVar(&importFlags.Create, "create", false, "Create issues in the tracker")
	importCmd.Flags().BoolVar(&importFlags.DryRun, "dry-run", false, "Print the payloads without creating anything")
	importCmd.Flags().BoolVar(&importFlags.Force, "force", false, "Skip the already-imported check")
	importCmd.Flags().BoolVar(&importFlags.UpdateFile, "update-file", false, "Write tracker links into the plan after creating")
	importCmd.Flags().BoolVar(&importFlags.TasksAsSubtasks, "tasks-as-subtasks", false, "Create plan Tasks and Subtasks as subtasks of their Story")
	importCmd.Flags().StringVar(&importFlags.Project, "project", "", "Project key (overrides JIRA_PROJECT_KEY)")
	rootCmd.AddCommand(importCmd)
}

func runImport(ctx context.Context, a *app, planFile string, opts importOpts) error {
	live := opts.Create && !opts.DryRun
	mode := "PREVIEW"
	switch {
	case opts.DryRun:
		mode = "DRY RUN"
	case opts.Create:
		mode = "CREATE"
	}
	fmt.Fprintf(a.out, "%s Plan Importer\n\n", style.Bold.Render("🚀"))
	fmt.Fprintf(a.out, "📄 File: %s\n", planFile)
	fmt.Fprintf(a.out, "🏷️  Mode: %s\n\n", mode)

	if opts.Project != "" {
		a.cfg.ProjectKey = opts.Project
	}
	mappingPath := a.cfg.Resolve(a.cfg.MappingFile)
	historyPath := a.cfg.Resolve(a.cfg.HistoryFile)

	pre := workspace.PreflightOptions{
		Root:     a.root,
		PlanFile: planFile,
		EnvFile:  a.cfg.Resolve(config.EnvFile),
	}
	if live {
		pre.MappingFile = mappingPath
	}
	report, err := workspace.Preflight(pre)
	if err != nil {
		return err
	}
	printWarnings(a.out, report.Warnings)

	var client *jira.Client
	if live {
		if err := a.cfg.Validate(); err != nil {
			return fmt.Errorf("%w (set them in %s or export them)", err, config.EnvFile)
		}
		if client, err = a.client(); err != nil {
			return err
		}
	}

	store := history.NewStore(historyPath)
	key := a.planKey(planFile)
	if live && !opts.Force {
		proceed, err := a.checkHistory(store, key)
		if err != nil {
			return err
		}
		if !proceed {
			fmt.Fprintf(a.out, "\n%s Import cancelled.\n", style.ErrorPrefix)
			return nil
		}
	}

	fmt.Fprintln(a.out, "📖 Reading plan...")
	content, err := os.ReadFile(planFile)
	if err != nil {
		return fmt.Errorf("reading plan: %w", err)
	}
	fmt.Fprintln(a.out, "🔍 Parsing issues...")
	p := plan.Parse(string(content), a.log)
	printCounts(a.out, p)

	if !opts.Create && !opts.DryRun {
		fmt.Fprintf(a.out, "\n💡 Run with --dry-run to preview, or --create to actually create issues.\n")
		return nil
	}
	if p.Epic == nil {
		fmt.Fprintf(a.out, "\n%s No epic heading found; nothing to import.\n", style.WarningPrefix)
		return nil
	}

	runner, err := hooks.NewHookRunner(a.root)
	if err != nil {
		return err
	}
	if err := a.fireHooks(runner, hooks.HookContext{
		EventType: hooks.EventPreImport,
		PlanFile:  key,
		Plan:      p,
		Ctx:       ctx,
	}); err != nil {
		return err
	}

	batchID := importer.NewBatchID(time.Now())
	fmt.Fprintf(a.out, "\n🏷️  Batch ID: %s\n", batchID)
	tasksAsSubtasks := opts.TasksAsSubtasks || a.cfg.TasksAsSubtasks
	if tasksAsSubtasks {
		fmt.Fprintln(a.out, "📌 Using --tasks-as-subtasks: plan Tasks and Subtasks will be created as subtasks under each Story")
	}

	var ic importer.IssueClient
	if client != nil {
		ic = client
	}
	creator := importer.NewCreator(ic, importer.Options{
		ProjectKey:      a.cfg.ProjectKey,
		IssueTypes:      a.cfg.IssueTypes,
		TasksAsSubtasks: tasksAsSubtasks,
		DryRun:          !live,
		BatchID:         batchID,
		SourcePath:      key,
		Out:             a.out,
		Log:             a.log,
	})
	res, importErr := creator.Import(ctx, p)

	if live && res.Created() > 0 {
		err := importer.SaveMapping(mappingPath, importer.Mapping{
			BatchID:   batchID,
			CreatedAt: time.Now().UTC(),
			FilePath:  key,
			Issues:    res.Keys,
		})
		if err != nil {
			if importErr == nil {
				return err
			}
			a.log.Error("saving partial mapping", zap.Error(err))
		} else {
			fmt.Fprintf(a.out, "\n💾 Issue mapping saved to: %s\n", mappingPath)
		}
	}

	if importErr != nil {
		if live && res.Created() > 0 {
			fmt.Fprintf(a.out, "\n%s %d issue(s) were created before the failure. To remove them:\n", style.WarningPrefix, res.Created())
			fmt.Fprintf(a.out, "   dp2j cleanup --batch %s\n", batchID)
		}
		msg := importErr.Error()
		if client != nil {
			msg = client.Redact(msg)
		}
		return fmt.Errorf("import failed: %s", msg)
	}

	if live {
		if err := store.Put(key, history.Entry{
			EpicKey:    res.EpicKey,
			ImportDate: time.Now().UTC(),
			BatchID:    batchID,
			IssueCount: p.Counts().Total(),
		}); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "\n📝 Import history updated")

		if opts.UpdateFile {
			if err := writeLinks(planFile, string(content), res.Keys, a.cfg.APIURL); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "\n📝 Plan updated with tracker links: %s\n", planFile)
		}
	}

	post, err := workspace.Postflight(workspace.PostflightOptions{
		MappingFile: mappingPath,
		HistoryFile: historyPath,
		DryRun:      !live,
	})
	if err != nil {
		return err
	}
	printWarnings(a.out, post.Warnings)

	if live {
		_ = a.fireHooks(runner, hooks.HookContext{
			EventType: hooks.EventPostImport,
			PlanFile:  key,
			BatchID:   batchID,
			EpicKey:   res.EpicKey,
			Plan:      p,
			Ctx:       ctx,
		})
	}

	fmt.Fprintf(a.out, "\n%s Import complete! %d issue(s) %s\n", style.SuccessPrefix, res.Created(), createdVerb(live))
	if live {
		fmt.Fprintf(a.out, "\n💡 To clean up this import if needed:\n   dp2j cleanup --batch %s\n", batchID)
	}
	return nil
}

func createdVerb(live bool) string {
	if live {
		return "created"
	}
	return "would be created"
}

// checkHistory asks what to do with a plan that was imported before. It
// returns false when the import should stop.
func (a *app) checkHistory(store *history.Store, key string) (bool, error) {
	entry, ok := store.Get(key)
	if !ok {
		return true, nil
	}

	fmt.Fprintf(a.out, "%s This plan was already imported:\n", style.WarningPrefix)
	printEntry(a.out, entry)

	choice, err := a.choose("What would you like to do?", []string{
		"Skip (cancel)",
		"Re-import (create new issues)",
		"Continue anyway",
	})
	if errors.Is(err, errNotInteractive) {
		return false, fmt.Errorf("%s was already imported as %s; rerun with --force to import it again", key, entry.EpicKey)
	}
	if err != nil {
		return false, err
	}

	switch choice {
	case 2:
		fmt.Fprintf(a.out, "\n%s This will create duplicate issues in the tracker!\n", style.WarningPrefix)
		answer, err := a.ask("Are you sure? (yes/no):")
		if err != nil {
			return false, err
		}
		return strings.EqualFold(answer, "yes"), nil
	case 3:
		return true, nil
	default:
		return false, nil
	}
}

func printCounts(w io.Writer, p *plan.Plan) {
	epic := "None"
	if p.Epic != nil {
		epic = p.Epic.Summary
	}
	c := p.Counts()
	fmt.Fprintf(w, "\n%s Parsed Issues:\n", style.Bold.Render("📊"))
	fmt.Fprintf(w, "   Epic: %s\n", epic)
	fmt.Fprintf(w, "   Stories: %d\n", c.Stories)
	fmt.Fprintf(w, "   Tasks: %d\n", c.Tasks)
	fmt.Fprintf(w, "   Subtasks: %d\n", c.Subtasks)
	fmt.Fprintf(w, "   Total Issues: %d\n", c.Total())
}
