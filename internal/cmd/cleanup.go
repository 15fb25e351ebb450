package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hemmendinger/dp2j/internal/history"
	"github.com/hemmendinger/dp2j/internal/hooks"
	"github.com/hemmendinger/dp2j/internal/importer"
	"github.com/hemmendinger/dp2j/internal/style"
)

// cleanupOpts holds options for the cleanup command.
type cleanupOpts struct {
	List  bool
	Batch string
	File  string
	Yes   bool
}

var cleanupFlags cleanupOpts

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete the issues created by an import",
	Long: `Delete every issue labelled with an import's batch id.

Examples:
  # List recent imports
  dp2j cleanup --list

  # Delete one batch
  dp2j cleanup --batch lvnrm2o0-1a2b3c4d

  # Delete whatever the last import of a plan created, without asking
  dp2j cleanup --file docs/dev_plans/breakdown.md --yes`,
	Args: cobra.NoArgs,
	RunE: withApp(func(ctx context.Context, a *app, args []string) error {
		return runCleanup(ctx, a, cleanupFlags)
	}),
}

var historyJSON bool

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded imports",
	Args:  cobra.NoArgs,
	RunE: withApp(func(ctx context.Context, a *app, args []string) error {
		return runHistory(a, historyJSON)
	}),
}

func init() {
	cleanupCmd.Flags().BoolVar(&cleanupFlags.List, "list", false, "List recent imports from history")
	cleanupCmd.Flags().StringVar(&cleanupFlags.Batch, "batch", "", "Delete all issues with this batch id")
	cleanupCmd.Flags().StringVar(&cleanupFlags.File, "file", "", "Delete the issues from the last import of this plan")
	cleanupCmd.Flags().BoolVarP(&cleanupFlags.Yes, "yes", "y", false, "Skip the confirmation prompt")
	cleanupCmd.MarkFlagsMutuallyExclusive("list", "batch", "file")
	rootCmd.AddCommand(cleanupCmd)

	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "Output as JSON")
	rootCmd.AddCommand(historyCmd)
}

func runCleanup(ctx context.Context, a *app, opts cleanupOpts) error {
	store := a.history()
	switch {
	case opts.List:
		return listHistory(a.out, store)
	case opts.Batch != "":
		if r, ok := store.FindBatch(opts.Batch); ok {
			fmt.Fprintf(a.out, "📄 Import found for: %s\n", r.PlanPath)
		}
		return a.deleteBatch(ctx, store, opts.Batch, opts.Yes)
	case opts.File != "":
		key := a.planKey(opts.File)
		entry, ok := store.Get(key)
		if !ok {
			return fmt.Errorf("no import history found for %s (run with --list to see recorded imports)", key)
		}
		fmt.Fprintf(a.out, "📄 Import found for: %s\n", key)
		printEntry(a.out, entry)
		return a.deleteBatch(ctx, store, entry.BatchID, opts.Yes)
	default:
		return errors.New("one of --list, --batch or --file is required")
	}
}

func (a *app) deleteBatch(ctx context.Context, store *history.Store, batchID string, yes bool) error {
	client, err := a.client()
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "\n🔍 Searching for issues with label: %s...\n\n", importer.BatchLabel(batchID))
	issues, err := importer.FindBatch(ctx, client, batchID)
	if err != nil {
		return errors.New(client.Redact(err.Error()))
	}

	fmt.Fprintf(a.out, "Found %d issue(s):\n", len(issues))
	for _, issue := range issues {
		fmt.Fprintf(a.out, "  - %s: %s\n", style.Key.Render(issue.Key), issue.Fields.Summary)
	}
	fmt.Fprintln(a.out)

	if !yes {
		ok, err := a.confirm(fmt.Sprintf("%s Delete all %d issue(s)?", style.WarningPrefix, len(issues)))
		if errors.Is(err, errNotInteractive) {
			return errors.New("refusing to delete without confirmation; rerun with --yes")
		}
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintf(a.out, "\n%s Deletion cancelled.\n", style.ErrorPrefix)
			return nil
		}
	}

	fmt.Fprintln(a.out, "\n🗑️  Deleting issues...")
	report := importer.DeleteIssues(ctx, client, issues, func(key string, err error) {
		if err != nil {
			fmt.Fprintf(a.out, "  %s Failed to delete %s: %s\n", style.ErrorPrefix, key, client.Redact(err.Error()))
			return
		}
		fmt.Fprintf(a.out, "  %s Deleted: %s\n", style.SuccessPrefix, key)
	})

	if len(report.Failed) == 0 {
		if n, err := store.ForgetBatch(batchID); err != nil {
			a.log.Warn("updating import history", zap.Error(err))
		} else if n > 0 {
			fmt.Fprintln(a.out, "\n📝 Import history updated")
		}
	} else {
		fmt.Fprintf(a.out, "\n%s %d of %d issue(s) could not be deleted\n", style.WarningPrefix, len(report.Failed), len(issues))
	}

	runner, err := hooks.NewHookRunner(a.root)
	if err != nil {
		a.log.Warn("loading hooks", zap.Error(err))
	} else {
		_ = a.fireHooks(runner, hooks.HookContext{
			EventType: hooks.EventPostCleanup,
			BatchID:   batchID,
			Ctx:       ctx,
		})
	}

	fmt.Fprintf(a.out, "\n%s Cleanup complete! %d deleted\n", style.SuccessPrefix, len(report.Deleted))
	return nil
}

func runHistory(a *app, asJSON bool) error {
	store := a.history()
	if asJSON {
		records := store.List()
		if records == nil {
			records = []history.Record{}
		}
		data, err := json.MarshalIndent(records, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding history: %w", err)
		}
		fmt.Fprintln(a.out, string(data))
		return nil
	}
	return listHistory(a.out, store)
}

func listHistory(w io.Writer, store *history.Store) error {
	records := store.List()
	if len(records) == 0 {
		fmt.Fprintln(w, "📭 No import history found.")
		return nil
	}

	fmt.Fprintf(w, "%s Recent Imports:\n\n", style.Bold.Render("📋"))
	for i, r := range records {
		fmt.Fprintf(w, "%d. %s\n", i+1, r.PlanPath)
		printEntry(w, r.Entry)
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w, "💡 To clean up an import:")
	fmt.Fprintln(w, "   dp2j cleanup --batch <batchId>")
	fmt.Fprintln(w, "   dp2j cleanup --file <planPath>")
	return nil
}
