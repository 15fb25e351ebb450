package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hemmendinger/dp2j/internal/adf"
	"github.com/hemmendinger/dp2j/internal/jira"
	"github.com/hemmendinger/dp2j/internal/style"
)

var transitionCmd = &cobra.Command{
	Use:   "transition <issueKey> <status>",
	Short: "Move an issue to a workflow status",
	Long: `Move an issue to the named status. The name may be a transition name
or its destination status, matched case-insensitively. An issue already in
that status is left alone.

"transition KEY comment TEXT..." adds a comment instead.

Examples:
  dp2j transition MVP-123 "In Progress"
  dp2j transition MVP-123 done
  dp2j transition MVP-123 comment "Blocked on review"`,
	Args: cobra.MinimumNArgs(2),
	RunE: withApp(transitionRun),
}

var commentCmd = &cobra.Command{
	Use:   "comment <issueKey> <text>...",
	Short: "Add a comment to an issue",
	Long: `Add a comment to an issue. The text is markdown and is converted the
same way imported descriptions are.

Example:
  dp2j comment MVP-123 "Deployed to **staging**"`,
	Args: cobra.MinimumNArgs(1),
	RunE: withApp(func(ctx context.Context, a *app, args []string) error {
		return runComment(ctx, a, args[0], args[1:])
	}),
}

func init() {
	rootCmd.AddCommand(transitionCmd)
	rootCmd.AddCommand(commentCmd)
}

// transitionRun dispatches "KEY comment TEXT..." to runComment and everything
// else to runTransition.
func transitionRun(ctx context.Context, a *app, args []string) error {
	if strings.EqualFold(args[1], "comment") {
		return runComment(ctx, a, args[0], args[2:])
	}
	return runTransition(ctx, a, args[0], strings.Join(args[1:], " "))
}

func runTransition(ctx context.Context, a *app, key, target string) error {
	target = strings.TrimSpace(target)
	if target == "" {
		return errors.New("status is required")
	}
	client, err := a.client()
	if err != nil {
		return err
	}

	res, err := client.TransitionTo(ctx, key, target)
	if err != nil {
		var terr *jira.TransitionError
		if errors.As(err, &terr) {
			fmt.Fprintf(a.out, "%s Cannot transition %s to %q\n", style.ErrorPrefix, key, target)
			fmt.Fprintf(a.out, "   Current status: %s\n", terr.Current)
			fmt.Fprintln(a.out, "   Check the workflow allows this move, or go through an intermediate status.")
			return err
		}
		return errors.New(client.Redact(err.Error()))
	}

	if res.Unchanged {
		fmt.Fprintf(a.out, "ℹ️  %s is already in %q, no transition needed\n", style.Key.Render(key), res.From)
		return nil
	}
	fmt.Fprintf(a.out, "%s %s → %s\n", style.SuccessPrefix, style.Key.Render(key), res.To)
	return nil
}

func runComment(ctx context.Context, a *app, key string, words []string) error {
	text := strings.TrimSpace(strings.Join(words, " "))
	if text == "" {
		return errors.New("comment text is required")
	}
	client, err := a.client()
	if err != nil {
		return err
	}

	if err := client.AddComment(ctx, key, adf.FromMarkdown(text)); err != nil {
		return errors.New(client.Redact(err.Error()))
	}
	fmt.Fprintf(a.out, "%s %s ← comment added\n", style.SuccessPrefix, style.Key.Render(key))
	return nil
}
