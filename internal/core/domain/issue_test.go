package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLabelEvent_MarshalJSON(t *testing.T) {
	t.Run("added carries snapshot", func(t *testing.T) {
		ev := LabelEvent{Type: LabelEventAdded, Actor: "octocat", Label: "bug", Title: "T", Body: ""}

		data, err := json.Marshal(ev)

		require.NoError(t, err)
		assert.JSONEq(t, `{"type":"added","actor":"octocat","label":"bug","title":"T","body":""}`, string(data))
	})

	t.Run("removed omits snapshot", func(t *testing.T) {
		ev := LabelEvent{Type: LabelEventRemoved, Label: "bug", Title: "ignored", Actor: "ignored"}

		data, err := json.Marshal(ev)

		require.NoError(t, err)
		assert.JSONEq(t, `{"type":"removed","label":"bug"}`, string(data))
	})

	t.Run("unknown type fails", func(t *testing.T) {
		_, err := json.Marshal(LabelEvent{Type: "renamed"})

		assert.Error(t, err)
	})
}

func TestLabelEvent_UnmarshalJSON(t *testing.T) {
	var ev LabelEvent
	require.NoError(t, json.Unmarshal([]byte(`{"type":"added","actor":"a","label":"l","title":"t","body":"b"}`), &ev))
	assert.Equal(t, LabelEvent{Type: LabelEventAdded, Actor: "a", Label: "l", Title: "t", Body: "b"}, ev)

	assert.Error(t, json.Unmarshal([]byte(`{"type":"other"}`), &ev))
}

func TestIssue_JSONKeys(t *testing.T) {
	issue := Issue{
		Number:        7,
		Title:         "Crash",
		Body:          "body",
		BodyText:      "body",
		CreatedAt:     time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC),
		Labels:        []string{"bug"},
		Assignees:     []string{"octocat"},
		LabelEvents:   []LabelEvent{{Type: LabelEventRemoved, Label: "bug"}},
		CommentEvents: []CommentEvent{{Author: "a", Body: "hi"}},
	}

	data, err := json.Marshal(issue)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	for _, key := range []string{
		"number", "title", "body", "bodyText", "createdAt", "labels",
		"assignees", "labelEvents", "commentEvents", "closedWithCode",
	} {
		assert.Contains(t, m, key)
	}
	assert.Equal(t, "2020-01-02T03:04:05Z", m["createdAt"])
}

func TestClosed_ClosedByCode(t *testing.T) {
	assert.True(t, Closed{Closer: CloserPullRequest}.ClosedByCode())
	assert.True(t, Closed{Closer: CloserCommit}.ClosedByCode())
	assert.False(t, Closed{Closer: CloserNone}.ClosedByCode())
	assert.False(t, Closed{Closer: "ProjectV2"}.ClosedByCode())
}

func TestPage_LastIssueNumber(t *testing.T) {
	var nilPage *Page
	assert.Equal(t, 0, nilPage.LastIssueNumber())
	assert.Equal(t, 0, (&Page{}).LastIssueNumber())
	assert.Equal(t, 9, (&Page{Issues: []RawIssue{{Number: 3}, {Number: 9}}}).LastIssueNumber())
}
