package importer

import (
	"context"
	"errors"
	"fmt"

	"github.com/hemmendinger/dp2j/internal/jira"
)

// ErrNoIssues is returned when a batch label matches nothing.
var ErrNoIssues = errors.New("no issues found with this batch ID")

// BatchClient is the part of the tracker client cleanup needs.
type BatchClient interface {
	SearchByLabel(ctx context.Context, label string) ([]jira.Issue, error)
	DeleteIssue(ctx context.Context, key string) error
}

// FindBatch returns the issues labelled with batchID.
func FindBatch(ctx context.Context, client BatchClient, batchID string) ([]jira.Issue, error) {
	if batchID == "" {
		return nil, fmt.Errorf("batch id is required")
	}
	issues, err := client.SearchByLabel(ctx, BatchLabel(batchID))
	if err != nil {
		return nil, err
	}
	if len(issues) == 0 {
		return nil, ErrNoIssues
	}
	return issues, nil
}

// DeleteFailure records one issue that could not be deleted.
type DeleteFailure struct {
	Key string
	Err error
}

// DeleteReport lists the outcome of a batch delete.
type DeleteReport struct {
	Deleted []string
	Failed  []DeleteFailure
}

// DeleteIssues deletes each issue in turn. A failed delete is recorded and
// the rest still run. onResult, when set, is called after every attempt.
func DeleteIssues(ctx context.Context, client BatchClient, issues []jira.Issue, onResult func(key string, err error)) *DeleteReport {
	report := &DeleteReport{}
	for _, issue := range issues {
		if ctx.Err() != nil {
			report.Failed = append(report.Failed, DeleteFailure{Key: issue.Key, Err: ctx.Err()})
			continue
		}
		err := client.DeleteIssue(ctx, issue.Key)
		if err != nil {
			report.Failed = append(report.Failed, DeleteFailure{Key: issue.Key, Err: err})
		} else {
			report.Deleted = append(report.Deleted, issue.Key)
		}
		if onResult != nil {
			onResult(issue.Key, err)
		}
	}
	return report
}
