package services

import (
	"slices"

	"github.com/custodia-labs/issue-archive/internal/core/domain"
)

// Reconstruct derives the archive record for one raw issue.
// The result depends only on raw, so replaying the same input always
// yields the same record.
func Reconstruct(raw domain.RawIssue) domain.Issue {
	return domain.Issue{
		Number:         raw.Number,
		Title:          raw.Title,
		Body:           raw.Body,
		BodyText:       raw.BodyText,
		CreatedAt:      raw.CreatedAt,
		Labels:         nonNil(raw.Labels),
		Assignees:      nonNil(raw.Assignees),
		LabelEvents:    ReplayLabelEvents(raw),
		CommentEvents:  ExtractComments(raw),
		ClosedWithCode: ClosedWithCode(raw),
	}
}

// MergeTimeline collects edits, label additions, renames and label removals
// into one sequence sorted by timestamp. Entries sharing a timestamp keep
// the concatenation order: edits, additions, renames, removals, each group
// in source order.
func MergeTimeline(raw domain.RawIssue) []domain.TimelineEntry {
	merged := make([]domain.TimelineEntry, 0, len(raw.Edits)+len(raw.Timeline))
	for _, e := range raw.Edits {
		merged = append(merged, e)
	}
	merged = appendOfType[domain.LabelAdded](merged, raw.Timeline)
	merged = appendOfType[domain.TitleRenamed](merged, raw.Timeline)
	merged = appendOfType[domain.LabelRemoved](merged, raw.Timeline)

	slices.SortStableFunc(merged, func(a, b domain.TimelineEntry) int {
		return a.OccurredAt().Compare(b.OccurredAt())
	})
	return merged
}

// ReplayLabelEvents walks the merged timeline and emits one record per label
// addition or removal. Additions carry the title and body current at that
// point of the replay.
func ReplayLabelEvents(raw domain.RawIssue) []domain.LabelEvent {
	merged := MergeTimeline(raw)
	title, body := initialState(raw, merged)

	events := make([]domain.LabelEvent, 0, len(merged))
	for _, entry := range merged {
		switch e := entry.(type) {
		case domain.TitleRenamed:
			title = e.Current
		case domain.BodyEdit:
			body = e.Diff
		case domain.LabelAdded:
			actor := e.Actor
			if actor == "" {
				actor = domain.GhostActor
			}
			events = append(events, domain.LabelEvent{
				Type:  domain.LabelEventAdded,
				Actor: actor,
				Label: e.Label,
				Title: title,
				Body:  body,
			})
		case domain.LabelRemoved:
			events = append(events, domain.LabelEvent{
				Type:  domain.LabelEventRemoved,
				Label: e.Label,
			})
		}
	}
	return events
}

// initialState picks the starting title and body for a replay: the previous
// title of the earliest rename and the payload of the earliest edit, falling
// back to the issue's present values.
func initialState(raw domain.RawIssue, merged []domain.TimelineEntry) (title, body string) {
	title, body = raw.Title, raw.Body
	var haveTitle, haveBody bool
	for _, entry := range merged {
		switch e := entry.(type) {
		case domain.TitleRenamed:
			if !haveTitle {
				title, haveTitle = e.Previous, true
			}
		case domain.BodyEdit:
			if !haveBody {
				body, haveBody = e.Diff, true
			}
		}
		if haveTitle && haveBody {
			break
		}
	}
	return title, body
}

// ExtractComments returns one record per comment entry in source order.
func ExtractComments(raw domain.RawIssue) []domain.CommentEvent {
	comments := make([]domain.CommentEvent, 0)
	for _, entry := range raw.Timeline {
		if c, ok := entry.(domain.Comment); ok {
			comments = append(comments, domain.CommentEvent{Author: c.Author, Body: c.Body})
		}
	}
	return comments
}

// ClosedWithCode reports whether the first close entry in source order was
// caused by a linked pull request or commit.
func ClosedWithCode(raw domain.RawIssue) bool {
	for _, entry := range raw.Timeline {
		if c, ok := entry.(domain.Closed); ok {
			return c.ClosedByCode()
		}
	}
	return false
}

func appendOfType[T domain.TimelineEntry](dst, src []domain.TimelineEntry) []domain.TimelineEntry {
	for _, entry := range src {
		if e, ok := entry.(T); ok {
			dst = append(dst, e)
		}
	}
	return dst
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
