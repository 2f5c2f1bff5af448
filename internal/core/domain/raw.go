package domain

import "time"

// GhostActor is reported when the account behind a label change no longer exists.
const GhostActor = "ghost"

// RawIssue is one issue as returned by the remote source, before replay.
// Edits and Timeline keep the order the source delivered them in.
type RawIssue struct {
	Number    int
	Title     string
	Body      string
	BodyText  string
	CreatedAt time.Time
	Labels    []string
	Assignees []string

	// Edits are the body/title edit records attached to the issue.
	Edits []BodyEdit

	// Timeline holds label, rename, close and comment entries.
	Timeline []TimelineEntry
}

// TimelineEntry is one historical entry attached to an issue.
// The set of implementations is closed; switch on the concrete type.
type TimelineEntry interface {
	// OccurredAt is the entry timestamp used when merging streams.
	OccurredAt() time.Time

	timelineEntry()
}

// BodyEdit records an edit. Diff is the payload the source reports for the
// edit and is treated as the new body value during replay.
type BodyEdit struct {
	At   time.Time
	Diff string
}

// LabelAdded records a label being applied.
type LabelAdded struct {
	At    time.Time
	Label string
	Actor string
}

// LabelRemoved records a label being taken off.
type LabelRemoved struct {
	At    time.Time
	Label string
}

// TitleRenamed records a title change.
type TitleRenamed struct {
	At       time.Time
	Previous string
	Current  string
}

// CloserKind is what closed an issue.
type CloserKind string

// Closer kinds. Anything else is reported as CloserNone.
const (
	CloserNone        CloserKind = ""
	CloserPullRequest CloserKind = "PullRequest"
	CloserCommit      CloserKind = "Commit"
)

// Closed records the issue being closed.
type Closed struct {
	At     time.Time
	Closer CloserKind
}

// Comment records a comment on the issue.
type Comment struct {
	At     time.Time
	Author string
	Body   string
}

func (e BodyEdit) OccurredAt() time.Time     { return e.At }
func (e LabelAdded) OccurredAt() time.Time   { return e.At }
func (e LabelRemoved) OccurredAt() time.Time { return e.At }
func (e TitleRenamed) OccurredAt() time.Time { return e.At }
func (e Closed) OccurredAt() time.Time       { return e.At }
func (e Comment) OccurredAt() time.Time      { return e.At }

func (BodyEdit) timelineEntry()     {}
func (LabelAdded) timelineEntry()   {}
func (LabelRemoved) timelineEntry() {}
func (TitleRenamed) timelineEntry() {}
func (Closed) timelineEntry()       {}
func (Comment) timelineEntry()      {}

// ClosedByCode reports whether the closer was a linked pull request or commit.
func (c Closed) ClosedByCode() bool {
	return c.Closer == CloserPullRequest || c.Closer == CloserCommit
}
