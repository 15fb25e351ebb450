package hooks

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

// ConfigDir and ConfigFile locate the hooks configuration under the project root.
const (
	ConfigDir  = ".dp2j"
	ConfigFile = "hooks.json"
)

// HookRunner loads hook configurations and executes hooks for events.
type HookRunner struct {
	projectRoot string
	config      *HooksConfig
}

// NewHookRunner creates a new HookRunner for the given project root.
// It loads the hooks configuration from .dp2j/hooks.json if it exists.
func NewHookRunner(projectRoot string) (*HookRunner, error) {
	runner := &HookRunner{
		projectRoot: projectRoot,
		config:      &HooksConfig{Hooks: make(map[EventType][]HookConfig)},
	}

	if err := runner.loadConfig(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("loading hooks config: %w", err)
		}
		// Config file doesn't exist - use empty config
	}

	return runner, nil
}

// loadConfig loads the hooks configuration from .dp2j/hooks.json.
func (r *HookRunner) loadConfig() error {
	configPath := filepath.Join(r.projectRoot, ConfigDir, ConfigFile)
	data, err := os.ReadFile(configPath)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(data, r.config); err != nil {
		return err
	}
	if r.config.Hooks == nil {
		r.config.Hooks = make(map[EventType][]HookConfig)
	}
	return nil
}

// Fire executes all hooks registered for the given event type.
// Returns a slice of HookResults, one for each hook executed.
// For pre-* events, if any hook returns Block=true, later hooks are skipped.
func (r *HookRunner) Fire(ctx HookContext) []HookResult {
	hooks, exists := r.config.Hooks[ctx.EventType]
	if !exists || len(hooks) == 0 {
		return nil
	}
	if ctx.Ctx == nil {
		ctx.Ctx = context.Background()
	}
	if ctx.ProjectRoot == "" {
		ctx.ProjectRoot = r.projectRoot
	}

	results := make([]HookResult, 0, len(hooks))
	isPre := isPreEvent(ctx.EventType)

	for _, hook := range hooks {
		result := r.executeHook(hook, ctx)
		results = append(results, result)

		// For pre-* events, stop if a hook blocks the operation
		if isPre && result.Block {
			break
		}
	}

	return results
}

// executeHook executes a single hook and returns the result.
func (r *HookRunner) executeHook(hook HookConfig, ctx HookContext) HookResult {
	start := time.Now()

	// Set up timeout if specified
	execCtx := ctx.Ctx
	if hook.Timeout > 0 {
		var cancel context.CancelFunc
		execCtx, cancel = context.WithTimeout(ctx.Ctx, time.Duration(hook.Timeout)*time.Second)
		defer cancel()
	}

	switch hook.Type {
	case HookTypeCommand:
		return r.executeCommand(hook, ctx, execCtx, start)
	case HookTypeBuiltin:
		return r.executeBuiltin(hook, ctx, execCtx, start)
	default:
		return Failure(fmt.Errorf("unknown hook type: %s", hook.Type), time.Since(start))
	}
}

// executeCommand executes a shell command hook. A non-zero exit from a
// pre-* hook blocks the operation.
func (r *HookRunner) executeCommand(hook HookConfig, ctx HookContext, execCtx context.Context, start time.Time) HookResult {
	if hook.Cmd == "" {
		return Failure(fmt.Errorf("command hook missing cmd field"), time.Since(start))
	}

	cmd := exec.CommandContext(execCtx, "sh", "-c", hook.Cmd)
	cmd.Dir = r.projectRoot

	// Set environment variables for the hook
	cmd.Env = append(os.Environ(),
		fmt.Sprintf("DP2J_EVENT=%s", ctx.EventType),
		fmt.Sprintf("DP2J_PLAN_FILE=%s", ctx.PlanFile),
		fmt.Sprintf("DP2J_BATCH_ID=%s", ctx.BatchID),
		fmt.Sprintf("DP2J_EPIC_KEY=%s", ctx.EpicKey),
	)

	output, err := cmd.CombinedOutput()
	duration := time.Since(start)

	if err != nil {
		if isPreEvent(ctx.EventType) {
			res := BlockOperation(fmt.Sprintf("command failed: %v: %s", err, string(output)), duration)
			res.Err = err
			return res
		}
		return Failure(fmt.Errorf("command failed: %w: %s", err, string(output)), duration)
	}

	return Success(string(output), duration)
}

// executeBuiltin executes a built-in hook function.
func (r *HookRunner) executeBuiltin(hook HookConfig, ctx HookContext, execCtx context.Context, start time.Time) HookResult {
	if hook.Builtin == "" {
		return Failure(fmt.Errorf("builtin hook missing builtin field"), time.Since(start))
	}

	fn, exists := builtinHooks[hook.Builtin]
	if !exists {
		return Failure(fmt.Errorf("unknown builtin hook: %s", hook.Builtin), time.Since(start))
	}

	// Update context in case timeout was added
	ctx.Ctx = execCtx

	return fn(ctx)
}

// isPreEvent returns true if the event type is a pre-* event.
func isPreEvent(eventType EventType) bool {
	return eventType == EventPreImport
}

// HasHooks returns true if there are hooks registered for the given event type.
func (r *HookRunner) HasHooks(eventType EventType) bool {
	hooks, exists := r.config.Hooks[eventType]
	return exists && len(hooks) > 0
}

// GetHooks returns the hooks registered for the given event type.
func (r *HookRunner) GetHooks(eventType EventType) []HookConfig {
	return r.config.Hooks[eventType]
}
