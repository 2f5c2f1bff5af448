package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// LabelEventType tags a label change record.
type LabelEventType string

// Label change record types.
const (
	LabelEventAdded   LabelEventType = "added"
	LabelEventRemoved LabelEventType = "removed"
)

// LabelEvent is one label change with, for additions, the title and body
// the issue carried at that instant.
type LabelEvent struct {
	Type  LabelEventType
	Label string

	// Actor, Title and Body are only set for additions.
	Actor string
	Title string
	Body  string
}

type addedLabelJSON struct {
	Type  LabelEventType `json:"type"`
	Actor string         `json:"actor"`
	Label string         `json:"label"`
	Title string         `json:"title"`
	Body  string         `json:"body"`
}

type removedLabelJSON struct {
	Type  LabelEventType `json:"type"`
	Label string         `json:"label"`
}

// MarshalJSON writes only the fields that belong to the event type.
func (e LabelEvent) MarshalJSON() ([]byte, error) {
	switch e.Type {
	case LabelEventAdded:
		return json.Marshal(addedLabelJSON{Type: e.Type, Actor: e.Actor, Label: e.Label, Title: e.Title, Body: e.Body})
	case LabelEventRemoved:
		return json.Marshal(removedLabelJSON{Type: e.Type, Label: e.Label})
	default:
		return nil, fmt.Errorf("%w: label event type %q", ErrInvalidInput, e.Type)
	}
}

// UnmarshalJSON accepts both record shapes.
func (e *LabelEvent) UnmarshalJSON(data []byte) error {
	var v addedLabelJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch v.Type {
	case LabelEventAdded, LabelEventRemoved:
	default:
		return fmt.Errorf("%w: label event type %q", ErrInvalidInput, v.Type)
	}
	*e = LabelEvent{Type: v.Type, Label: v.Label, Actor: v.Actor, Title: v.Title, Body: v.Body}
	return nil
}

// CommentEvent is one comment with its author login and text.
type CommentEvent struct {
	Author string `json:"author"`
	Body   string `json:"body"`
}

// Issue is the derived record persisted for every exported issue.
type Issue struct {
	Number         int            `json:"number"`
	Title          string         `json:"title"`
	Body           string         `json:"body"`
	BodyText       string         `json:"bodyText"`
	CreatedAt      time.Time      `json:"createdAt"`
	Labels         []string       `json:"labels"`
	Assignees      []string       `json:"assignees"`
	LabelEvents    []LabelEvent   `json:"labelEvents"`
	CommentEvents  []CommentEvent `json:"commentEvents"`
	ClosedWithCode bool           `json:"closedWithCode"`
}
