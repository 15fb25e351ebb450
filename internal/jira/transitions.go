package jira

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// TransitionError reports a status that cannot be reached from the current one.
type TransitionError struct {
	Key       string
	Target    string
	Current   string
	Available []Transition
}

func (e *TransitionError) Error() string {
	names := make([]string, 0, len(e.Available))
	for _, t := range e.Available {
		names = append(names, fmt.Sprintf("%s (-> %s)", t.Name, t.To.Name))
	}
	available := "none"
	if len(names) > 0 {
		available = strings.Join(names, ", ")
	}
	return fmt.Sprintf("%s: transition to %q not available from %q; available: %s",
		e.Key, e.Target, e.Current, available)
}

// Transitions lists the moves available for an issue.
func (c *Client) Transitions(ctx context.Context, key string) ([]Transition, error) {
	var result transitionsResponse
	if err := c.do(ctx, "GET", "/issue/"+url.PathEscape(key)+"/transitions", nil, &result); err != nil {
		return nil, fmt.Errorf("listing transitions for %s: %w", key, err)
	}
	if result.Transitions == nil {
		return []Transition{}, nil
	}
	return result.Transitions, nil
}

// TransitionIssue applies a transition by id.
func (c *Client) TransitionIssue(ctx context.Context, key, transitionID string) error {
	var req transitionRequest
	req.Transition.ID = transitionID
	if err := c.do(ctx, "POST", "/issue/"+url.PathEscape(key)+"/transitions", req, nil); err != nil {
		return fmt.Errorf("transitioning %s: %w", key, err)
	}
	return nil
}

// TransitionResult describes what TransitionTo did.
type TransitionResult struct {
	From      string
	To        string
	Unchanged bool // issue was already in the target status
}

// TransitionTo moves an issue to the status named target. Matching is
// case-insensitive against both the transition name and its destination
// status. An issue already in the target status is left alone.
func (c *Client) TransitionTo(ctx context.Context, key, target string) (*TransitionResult, error) {
	issue, err := c.GetIssue(ctx, key)
	if err != nil {
		return nil, err
	}
	current := issue.Fields.Status.Name
	if strings.EqualFold(current, target) {
		return &TransitionResult{From: current, To: current, Unchanged: true}, nil
	}

	transitions, err := c.Transitions(ctx, key)
	if err != nil {
		return nil, err
	}
	for _, t := range transitions {
		if strings.EqualFold(t.Name, target) || strings.EqualFold(t.To.Name, target) {
			if err := c.TransitionIssue(ctx, key, t.ID); err != nil {
				return nil, err
			}
			to := t.To.Name
			if to == "" {
				to = t.Name
			}
			return &TransitionResult{From: current, To: to}, nil
		}
	}
	return nil, &TransitionError{Key: key, Target: target, Current: current, Available: transitions}
}
