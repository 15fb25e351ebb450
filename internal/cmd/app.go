package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/hemmendinger/dp2j/internal/config"
	"github.com/hemmendinger/dp2j/internal/history"
	"github.com/hemmendinger/dp2j/internal/hooks"
	"github.com/hemmendinger/dp2j/internal/jira"
	"github.com/hemmendinger/dp2j/internal/logging"
	"github.com/hemmendinger/dp2j/internal/style"
	"github.com/hemmendinger/dp2j/internal/workspace"
)

// errNotInteractive is returned by prompts when stdin is not a terminal.
var errNotInteractive = errors.New("stdin is not a terminal")

// app carries the project, config and I/O a command runs with.
type app struct {
	root string
	cfg  *config.Config
	log  *zap.Logger
	out  io.Writer

	in          *bufio.Reader
	interactive bool

	clientOpts []jira.Option
}

// withApp adapts a command body to cobra, loading the project first.
func withApp(fn func(ctx context.Context, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer func() { _ = a.log.Sync() }()

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		return fn(ctx, a, args)
	}
}

func newApp(cmd *cobra.Command) (*app, error) {
	root := rootDir
	if root == "" {
		r, err := workspace.FindRootFromCwd()
		if err != nil {
			return nil, err
		}
		root = r
	}

	cfg, err := config.Load(root)
	if err != nil {
		return nil, err
	}

	level := cfg.LogLevel
	if logLevel != "" {
		level = logLevel
	}
	log, err := logging.New(level, logFormat, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	log.Debug("project loaded", zap.String("root", root), zap.String("project", cfg.ProjectKey))

	in := cmd.InOrStdin()
	return &app{
		root:        root,
		cfg:         cfg,
		log:         log,
		out:         cmd.OutOrStdout(),
		in:          bufio.NewReader(in),
		interactive: isTerminal(in),
	}, nil
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// client builds a tracker client from the loaded credentials.
func (a *app) client() (*jira.Client, error) {
	if err := a.cfg.ValidateCredentials(); err != nil {
		return nil, fmt.Errorf("%w (set them in %s or export them)", err, config.EnvFile)
	}
	opts := append([]jira.Option{jira.WithLogger(a.log)}, a.clientOpts...)
	return jira.New(a.cfg.APIURL, a.cfg.Email, a.cfg.APIToken.Value(), opts...)
}

func (a *app) history() *history.Store {
	return history.NewStore(a.cfg.Resolve(a.cfg.HistoryFile))
}

// planKey names a plan file in the import history: its path relative to the
// project root when it lies inside it, otherwise its absolute path.
func (a *app) planKey(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	if rel, err := filepath.Rel(a.root, abs); err == nil && !strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(rel)
	}
	return filepath.ToSlash(abs)
}

// ask prints question and reads one trimmed line. End of input reads as "".
func (a *app) ask(question string) (string, error) {
	if !a.interactive {
		return "", errNotInteractive
	}
	fmt.Fprintf(a.out, "%s ", question)
	line, err := a.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading answer: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// choose prints numbered options and returns the 1-based choice, or 0 for
// anything else.
func (a *app) choose(question string, options []string) (int, error) {
	if !a.interactive {
		return 0, errNotInteractive
	}
	fmt.Fprintf(a.out, "\n%s\n", question)
	for i, opt := range options {
		fmt.Fprintf(a.out, "  %d. %s\n", i+1, opt)
	}
	answer, err := a.ask("\nChoice:")
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(answer)
	if err != nil || n < 1 || n > len(options) {
		return 0, nil
	}
	return n, nil
}

// confirm asks a yes/no question; only "y" or "yes" confirms.
func (a *app) confirm(question string) (bool, error) {
	answer, err := a.ask(question + " (y/N):")
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

// fireHooks runs the hooks for an event, prints their results and returns an
// error when one of them blocks.
func (a *app) fireHooks(runner *hooks.HookRunner, hctx hooks.HookContext) error {
	if hctx.ProjectRoot == "" {
		hctx.ProjectRoot = a.root
	}
	results := runner.Fire(hctx)
	for _, r := range results {
		msg := strings.TrimSpace(r.Message)
		switch {
		case r.Block:
		case r.Err != nil:
			fmt.Fprintf(a.out, "%s %s hook failed: %s\n", style.WarningPrefix, hctx.EventType, msg)
		case msg != "":
			fmt.Fprintf(a.out, "%s %s\n", style.Dim.Render("🪝"), msg)
		}
		a.log.Debug("hook ran",
			zap.String("event", string(hctx.EventType)),
			zap.Bool("block", r.Block),
			zap.Duration("duration", r.Duration))
	}
	if r, ok := hooks.Blocked(results); ok {
		return fmt.Errorf("%s blocked by hook: %s", hctx.EventType, strings.TrimSpace(r.Message))
	}
	return nil
}

func printWarnings(w io.Writer, warnings []string) {
	for _, msg := range warnings {
		fmt.Fprintf(w, "%s %s\n", style.WarningPrefix, msg)
	}
}

func printEntry(w io.Writer, e history.Entry) {
	fmt.Fprintf(w, "   Epic: %s\n", style.Key.Render(e.EpicKey))
	fmt.Fprintf(w, "   Date: %s\n", e.ImportDate.Local().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "   Issues: %d\n", e.IssueCount)
	fmt.Fprintf(w, "   Batch: %s\n", e.BatchID)
}
