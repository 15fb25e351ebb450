// Package hooks runs user-configured commands and built-in checks around
// imports and cleanups.
package hooks

import (
	"context"
	"time"

	"github.com/hemmendinger/dp2j/internal/plan"
)

// EventType represents an import lifecycle event that can trigger hooks.
type EventType string

// Event type constants for the import lifecycle.
const (
	EventPreImport   EventType = "pre-import"
	EventPostImport  EventType = "post-import"
	EventPostCleanup EventType = "post-cleanup"
)

// AllEventTypes returns all supported event types.
var AllEventTypes = []EventType{
	EventPreImport,
	EventPostImport,
	EventPostCleanup,
}

// HookType represents the type of hook to execute.
type HookType string

const (
	// HookTypeCommand executes a shell command.
	HookTypeCommand HookType = "command"

	// HookTypeBuiltin executes a built-in Go function.
	HookTypeBuiltin HookType = "builtin"
)

// HookConfig represents a single hook configuration.
type HookConfig struct {
	Type    HookType `json:"type"`              // Type of hook: "command" or "builtin"
	Cmd     string   `json:"cmd,omitempty"`     // Shell command to execute (for command hooks)
	Builtin string   `json:"builtin,omitempty"` // Built-in function name (for builtin hooks)
	Timeout int      `json:"timeout,omitempty"` // Timeout in seconds (0 = no timeout)
}

// HookResult represents the result of executing a hook.
type HookResult struct {
	Block    bool          // Whether to block the operation (for pre-* hooks)
	Message  string        // Message to display/log
	Err      error         // Error if the hook failed
	Duration time.Duration // How long the hook took to execute
}

// HookContext provides context to hook execution.
type HookContext struct {
	EventType   EventType       // The event that triggered the hook
	ProjectRoot string          // Project root; command hooks run here
	PlanFile    string          // Plan being imported, when known
	BatchID     string          // Import batch id, when known
	EpicKey     string          // Created epic key, after import
	Plan        *plan.Plan      // Parsed plan, for builtins
	Ctx         context.Context // Context for cancellation/timeout
}

// HooksConfig represents the .dp2j/hooks.json configuration.
type HooksConfig struct {
	Hooks map[EventType][]HookConfig `json:"hooks"`
}

// Success creates a successful HookResult.
func Success(message string, duration time.Duration) HookResult {
	return HookResult{
		Block:    false,
		Message:  message,
		Duration: duration,
	}
}

// Failure creates a failed HookResult.
func Failure(err error, duration time.Duration) HookResult {
	return HookResult{
		Block:    false,
		Err:      err,
		Message:  err.Error(),
		Duration: duration,
	}
}

// BlockOperation creates a HookResult that blocks the operation.
func BlockOperation(message string, duration time.Duration) HookResult {
	return HookResult{
		Block:    true,
		Message:  message,
		Duration: duration,
	}
}

// Blocked returns the first blocking result, if any.
func Blocked(results []HookResult) (HookResult, bool) {
	for _, r := range results {
		if r.Block {
			return r, true
		}
	}
	return HookResult{}, false
}
