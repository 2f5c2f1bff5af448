package domain

import "time"

// Page is one bounded batch of issues returned by a single remote query.
type Page struct {
	Issues      []RawIssue
	EndCursor   string
	HasNextPage bool
	RateLimit   RateLimit
}

// RateLimit is the quota block reported alongside a page.
type RateLimit struct {
	Cost      int
	Remaining int
	ResetAt   time.Time
}

// LastIssueNumber returns the number of the last issue on the page, or 0.
func (p *Page) LastIssueNumber() int {
	if p == nil || len(p.Issues) == 0 {
		return 0
	}
	return p.Issues[len(p.Issues)-1].Number
}
