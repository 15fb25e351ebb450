package hooks

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/hemmendinger/dp2j/internal/plan"
)

// BuiltinHookFunc is a function that executes a built-in hook.
type BuiltinHookFunc func(ctx HookContext) HookResult

// builtinHooks maps builtin hook names to their implementation functions.
var builtinHooks = map[string]BuiltinHookFunc{
	"require-epic":           requireEpic,
	"require-assignees":      requireAssignees,
	"warn-missing-estimates": warnMissingEstimates,
}

// requireEpic blocks an import whose plan has no epic heading.
func requireEpic(ctx HookContext) HookResult {
	start := time.Now()

	if ctx.Plan == nil || ctx.Plan.Epic == nil {
		return BlockOperation("plan has no epic heading (## EPIC: ...)", time.Since(start))
	}
	return Success(fmt.Sprintf("epic: %s", ctx.Plan.Epic.Summary), time.Since(start))
}

// requireAssignees blocks an import when any node has no assignee.
func requireAssignees(ctx HookContext) HookResult {
	start := time.Now()

	missing := collect(ctx.Plan, func(item plan.Item) bool { return item.Assignee == "" })
	if len(missing) > 0 {
		return BlockOperation(
			fmt.Sprintf("%d item(s) without an assignee: %s", len(missing), strings.Join(missing, ", ")),
			time.Since(start),
		)
	}
	return Success("all items assigned", time.Since(start))
}

// warnMissingEstimates reports stories, tasks and subtasks with no usable
// time estimate. Never blocks.
func warnMissingEstimates(ctx HookContext) HookResult {
	start := time.Now()

	missing := collect(ctx.Plan, func(item plan.Item) bool {
		return item.ID != ctx.epicID() && plan.ParseTimeEstimate(item.Estimate) == ""
	})
	if len(missing) > 0 {
		return Success(
			fmt.Sprintf("%d item(s) without a time estimate: %s", len(missing), strings.Join(missing, ", ")),
			time.Since(start),
		)
	}
	return Success("all items estimated", time.Since(start))
}

func (ctx HookContext) epicID() string {
	if ctx.Plan == nil || ctx.Plan.Epic == nil {
		return ""
	}
	return ctx.Plan.Epic.ID
}

// collect returns the ids of every node matching pred, in creation order.
func collect(p *plan.Plan, pred func(plan.Item) bool) []string {
	if p == nil {
		return nil
	}
	var ids []string
	visit := func(item plan.Item) {
		if pred(item) {
			ids = append(ids, item.ID)
		}
	}
	if p.Epic != nil {
		visit(p.Epic.Item)
	}
	for _, s := range p.Stories {
		visit(s.Item)
		for _, t := range s.Tasks {
			visit(t.Item)
			for _, st := range t.Subtasks {
				visit(st.Item)
			}
		}
	}
	return ids
}

// RegisterBuiltin registers a new built-in hook function.
// This allows external packages to extend the built-in hooks.
func RegisterBuiltin(name string, fn BuiltinHookFunc) {
	builtinHooks[name] = fn
}

// GetBuiltinNames returns the names of all registered built-in hooks, sorted.
func GetBuiltinNames() []string {
	names := make([]string, 0, len(builtinHooks))
	for name := range builtinHooks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
