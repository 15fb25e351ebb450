// Package cmd implements the dp2j command tree.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/hemmendinger/dp2j/internal/logging"
	"github.com/hemmendinger/dp2j/internal/style"
)

// Version is set at build time with -ldflags.
var Version = "dev"

var (
	logLevel  string
	logFormat string
	rootDir   string
)

var rootCmd = &cobra.Command{
	Use:   "dp2j",
	Short: "Turn dev plan markdown into tracker issues",
	Long: `dp2j parses a dev plan written as nested markdown headings
(## EPIC, ## STORY n, ### TASK n.m, #### SUBTASK n.m.k) and creates the
matching Epic, Story, Task and Subtask issues in the tracker.

Credentials come from JIRA_API_URL, JIRA_EMAIL, JIRA_API_TOKEN and
JIRA_PROJECT_KEY, read from the environment, .env.jira or .dp2j.toml at the
project root.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn or error (default from config)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", logging.FormatConsole, "Log format: console or json")
	rootCmd.PersistentFlags().StringVarP(&rootDir, "root", "C", "", "Project root (default: detected from the working directory)")
}

// Execute runs the command tree and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", style.ErrorPrefix, err)
		return 1
	}
	return 0
}
