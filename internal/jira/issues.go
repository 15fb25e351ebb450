package jira

import (
	"context"
	"fmt"
	"net/url"

	"github.com/hemmendinger/dp2j/internal/adf"
)

// MaxSearchResults caps label searches.
const MaxSearchResults = 1000

// CreateIssue creates an issue and returns its key.
func (c *Client) CreateIssue(ctx context.Context, req IssueRequest) (*CreatedIssue, error) {
	var created CreatedIssue
	if err := c.do(ctx, "POST", "/issue", req, &created); err != nil {
		return nil, fmt.Errorf("creating issue %q: %w", req.Fields.Summary, err)
	}
	return &created, nil
}

// GetIssue fetches an issue's summary and status.
func (c *Client) GetIssue(ctx context.Context, key string) (*Issue, error) {
	var issue Issue
	if err := c.do(ctx, "GET", "/issue/"+url.PathEscape(key), nil, &issue); err != nil {
		return nil, fmt.Errorf("getting issue %s: %w", key, err)
	}
	return &issue, nil
}

// DeleteIssue deletes an issue.
func (c *Client) DeleteIssue(ctx context.Context, key string) error {
	if err := c.do(ctx, "DELETE", "/issue/"+url.PathEscape(key), nil, nil); err != nil {
		return fmt.Errorf("deleting issue %s: %w", key, err)
	}
	return nil
}

// AddComment posts a rich-text comment on an issue.
func (c *Client) AddComment(ctx context.Context, key string, body adf.Document) error {
	if err := c.do(ctx, "POST", "/issue/"+url.PathEscape(key)+"/comment", Comment{Body: body}, nil); err != nil {
		return fmt.Errorf("commenting on %s: %w", key, err)
	}
	return nil
}

// SearchByLabel returns up to MaxSearchResults issues carrying label.
func (c *Client) SearchByLabel(ctx context.Context, label string) ([]Issue, error) {
	q := url.Values{}
	q.Set("jql", fmt.Sprintf("labels = %q", label))
	q.Set("maxResults", fmt.Sprint(MaxSearchResults))

	var result searchResponse
	if err := c.do(ctx, "GET", "/search?"+q.Encode(), nil, &result); err != nil {
		return nil, fmt.Errorf("searching label %s: %w", label, err)
	}
	if result.Issues == nil {
		return []Issue{}, nil
	}
	return result.Issues, nil
}
