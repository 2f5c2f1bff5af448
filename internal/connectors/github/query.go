package github

import (
	"github.com/shurcooL/githubv4"

	"github.com/custodia-labs/issue-archive/internal/core/domain"
)

// Page sizes requested per query.
const (
	IssuesPerPage   = 100
	EditsPerIssue   = 100
	TimelinePerPage = 250
)

// issuesQuery selects one page of issues with their nested history.
type issuesQuery struct {
	Repository struct {
		Issues struct {
			Nodes    []issueNode
			PageInfo struct {
				EndCursor   githubv4.String
				HasNextPage bool
			}
		} `graphql:"issues(first: $first, after: $cursor)"`
	} `graphql:"repository(owner: $owner, name: $name)"`
	RateLimit struct {
		Cost      int
		Remaining int
		ResetAt   githubv4.DateTime
	}
}

type issueNode struct {
	Number           int
	Title            string
	Body             string
	BodyText         string
	CreatedAt        githubv4.DateTime
	UserContentEdits struct {
		Nodes []struct {
			EditedAt githubv4.DateTime
			Diff     *string
		}
	} `graphql:"userContentEdits(first: 100)"`
	Assignees struct {
		Nodes []struct {
			Login string
		}
	} `graphql:"assignees(first: 100)"`
	Labels struct {
		Nodes []struct {
			Name string
		}
	} `graphql:"labels(first: 100)"`
	TimelineItems struct {
		Nodes []timelineNode
	} `graphql:"timelineItems(first: 250, itemTypes: [UNLABELED_EVENT, LABELED_EVENT, RENAMED_TITLE_EVENT, CLOSED_EVENT, ISSUE_COMMENT])"`
}

type login struct {
	Login string
}

type timelineNode struct {
	Typename       string `graphql:"__typename"`
	UnlabeledEvent struct {
		CreatedAt githubv4.DateTime
		Label     struct {
			Name string
		}
	} `graphql:"... on UnlabeledEvent"`
	LabeledEvent struct {
		CreatedAt githubv4.DateTime
		Actor     *login
		Label     struct {
			Name string
		}
	} `graphql:"... on LabeledEvent"`
	RenamedTitleEvent struct {
		CreatedAt     githubv4.DateTime
		PreviousTitle string
		CurrentTitle  string
	} `graphql:"... on RenamedTitleEvent"`
	ClosedEvent struct {
		CreatedAt githubv4.DateTime
		Closer    *struct {
			Typename string `graphql:"__typename"`
		}
	} `graphql:"... on ClosedEvent"`
	IssueComment struct {
		CreatedAt githubv4.DateTime
		Author    *login
		BodyText  string
	} `graphql:"... on IssueComment"`
}

// toPage converts a query response into a domain page.
func (q *issuesQuery) toPage() *domain.Page {
	issues := q.Repository.Issues
	page := &domain.Page{
		Issues:      make([]domain.RawIssue, 0, len(issues.Nodes)),
		EndCursor:   string(issues.PageInfo.EndCursor),
		HasNextPage: issues.PageInfo.HasNextPage,
		RateLimit: domain.RateLimit{
			Cost:      q.RateLimit.Cost,
			Remaining: q.RateLimit.Remaining,
			ResetAt:   q.RateLimit.ResetAt.Time,
		},
	}
	for i := range issues.Nodes {
		page.Issues = append(page.Issues, issues.Nodes[i].toRaw())
	}
	return page
}

func (n *issueNode) toRaw() domain.RawIssue {
	raw := domain.RawIssue{
		Number:    n.Number,
		Title:     n.Title,
		Body:      n.Body,
		BodyText:  n.BodyText,
		CreatedAt: n.CreatedAt.Time,
		Labels:    make([]string, 0, len(n.Labels.Nodes)),
		Assignees: make([]string, 0, len(n.Assignees.Nodes)),
		Edits:     make([]domain.BodyEdit, 0, len(n.UserContentEdits.Nodes)),
		Timeline:  make([]domain.TimelineEntry, 0, len(n.TimelineItems.Nodes)),
	}

	for _, l := range n.Labels.Nodes {
		raw.Labels = append(raw.Labels, l.Name)
	}
	for _, a := range n.Assignees.Nodes {
		raw.Assignees = append(raw.Assignees, a.Login)
	}
	for _, e := range n.UserContentEdits.Nodes {
		edit := domain.BodyEdit{At: e.EditedAt.Time}
		if e.Diff != nil {
			edit.Diff = *e.Diff
		}
		raw.Edits = append(raw.Edits, edit)
	}
	for i := range n.TimelineItems.Nodes {
		if entry, ok := n.TimelineItems.Nodes[i].toEntry(); ok {
			raw.Timeline = append(raw.Timeline, entry)
		}
	}
	return raw
}

// toEntry maps one timeline node to its domain variant. Unknown node types
// are dropped.
func (n *timelineNode) toEntry() (domain.TimelineEntry, bool) {
	switch n.Typename {
	case "LabeledEvent":
		e := n.LabeledEvent
		return domain.LabelAdded{At: e.CreatedAt.Time, Label: e.Label.Name, Actor: loginOrGhost(e.Actor)}, true
	case "UnlabeledEvent":
		e := n.UnlabeledEvent
		return domain.LabelRemoved{At: e.CreatedAt.Time, Label: e.Label.Name}, true
	case "RenamedTitleEvent":
		e := n.RenamedTitleEvent
		return domain.TitleRenamed{At: e.CreatedAt.Time, Previous: e.PreviousTitle, Current: e.CurrentTitle}, true
	case "ClosedEvent":
		e := n.ClosedEvent
		closed := domain.Closed{At: e.CreatedAt.Time}
		if e.Closer != nil {
			switch k := domain.CloserKind(e.Closer.Typename); k {
			case domain.CloserPullRequest, domain.CloserCommit:
				closed.Closer = k
			}
		}
		return closed, true
	case "IssueComment":
		e := n.IssueComment
		return domain.Comment{At: e.CreatedAt.Time, Author: loginOrGhost(e.Author), Body: e.BodyText}, true
	}
	return nil, false
}

func loginOrGhost(l *login) string {
	if l == nil || l.Login == "" {
		return domain.GhostActor
	}
	return l.Login
}

// queryVariables builds the variables for one page request.
func queryVariables(repo domain.Repository, cursor string) map[string]any {
	vars := map[string]any{
		"owner":  githubv4.String(repo.Owner),
		"name":   githubv4.String(repo.Name),
		"first":  githubv4.Int(IssuesPerPage),
		"cursor": (*githubv4.String)(nil),
	}
	if cursor != "" {
		vars["cursor"] = githubv4.NewString(githubv4.String(cursor))
	}
	return vars
}
