package jira

import "github.com/hemmendinger/dp2j/internal/adf"

// IssueRequest is the body of a create-issue call.
type IssueRequest struct {
	Fields IssueFields `json:"fields"`
}

// IssueFields holds the fields set on a new issue.
type IssueFields struct {
	Project      ProjectRef    `json:"project"`
	IssueType    IssueTypeRef  `json:"issuetype"`
	Summary      string        `json:"summary"`
	Description  *adf.Document `json:"description,omitempty"`
	Parent       *IssueRef     `json:"parent,omitempty"`
	Labels       []string      `json:"labels,omitempty"`
	Assignee     *UserRef      `json:"assignee,omitempty"`
	TimeTracking *TimeTracking `json:"timetracking,omitempty"`
}

// ProjectRef identifies a project by key.
type ProjectRef struct {
	Key string `json:"key"`
}

// IssueTypeRef identifies an issue type by name.
type IssueTypeRef struct {
	Name string `json:"name"`
}

// IssueRef identifies an issue by key.
type IssueRef struct {
	Key string `json:"key"`
}

// UserRef identifies a user by account id.
type UserRef struct {
	AccountID string `json:"accountId"`
}

// TimeTracking carries the original estimate in tracker notation ("2d").
type TimeTracking struct {
	OriginalEstimate string `json:"originalEstimate"`
}

// CreatedIssue is the response to a create-issue call.
type CreatedIssue struct {
	ID   string `json:"id"`
	Key  string `json:"key"`
	Self string `json:"self,omitempty"`
}

// Issue is the subset of an issue the tools read back.
type Issue struct {
	ID     string      `json:"id"`
	Key    string      `json:"key"`
	Fields IssueStatus `json:"fields"`
}

// IssueStatus holds the fields of a fetched issue.
type IssueStatus struct {
	Summary string `json:"summary"`
	Status  Status `json:"status"`
}

// Status is a workflow status.
type Status struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

// Transition is a workflow move available from an issue's current status.
type Transition struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	To   Status `json:"to"`
}

// User is a tracker account.
type User struct {
	AccountID    string `json:"accountId"`
	DisplayName  string `json:"displayName,omitempty"`
	EmailAddress string `json:"emailAddress,omitempty"`
}

// Comment is the body of an add-comment call.
type Comment struct {
	Body adf.Document `json:"body"`
}

type transitionsResponse struct {
	Transitions []Transition `json:"transitions"`
}

type transitionRequest struct {
	Transition struct {
		ID string `json:"id"`
	} `json:"transition"`
}

type searchResponse struct {
	Total  int     `json:"total"`
	Issues []Issue `json:"issues"`
}
