package github

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/issue-archive/internal/core/domain"
)

var testRepo = domain.Repository{Owner: "octo", Name: "hello"}

const pageResponse = `{
  "data": {
    "repository": {
      "issues": {
        "nodes": [
          {
            "number": 7,
            "title": "Crash on start",
            "body": "It **crashes**",
            "bodyText": "It crashes",
            "createdAt": "2021-03-01T12:00:00Z",
            "userContentEdits": {"nodes": [
              {"editedAt": "2021-03-02T12:00:00Z", "diff": "It crashes"},
              {"editedAt": "2021-03-01T12:00:00Z", "diff": null}
            ]},
            "assignees": {"nodes": [{"login": "bob"}]},
            "labels": {"nodes": [{"name": "bug"}, {"name": "p1"}]},
            "timelineItems": {"nodes": [
              {"__typename": "LabeledEvent", "createdAt": "2021-03-01T12:05:00Z", "actor": {"login": "alice"}, "label": {"name": "bug"}},
              {"__typename": "LabeledEvent", "createdAt": "2021-03-01T12:06:00Z", "actor": null, "label": {"name": "p1"}},
              {"__typename": "UnlabeledEvent", "createdAt": "2021-03-01T12:07:00Z", "label": {"name": "triage"}},
              {"__typename": "RenamedTitleEvent", "createdAt": "2021-03-01T12:08:00Z", "previousTitle": "Crash", "currentTitle": "Crash on start"},
              {"__typename": "IssueComment", "createdAt": "2021-03-01T12:09:00Z", "author": {"login": "carol"}, "bodyText": "same here"},
              {"__typename": "ClosedEvent", "createdAt": "2021-03-03T12:00:00Z", "closer": {"__typename": "PullRequest"}}
            ]}
          }
        ],
        "pageInfo": {"endCursor": "Y3Vyc29yOjc=", "hasNextPage": true}
      }
    },
    "rateLimit": {"cost": 1, "remaining": 4990, "resetAt": "2021-03-01T13:00:00Z"}
  }
}`

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

func fastLimiter() *RateLimiter {
	rl := NewRateLimiter()
	rl.bucket = rate.NewLimiter(rate.Inf, 1)
	return rl
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClientWithToken("test-token",
		WithHTTPClient(srv.Client()),
		WithGraphQLURL(srv.URL+"/graphql"),
		WithRESTURL(srv.URL),
		WithRateLimiter(fastLimiter()),
	)
}

func TestStaticToken(t *testing.T) {
	t.Run("returns token", func(t *testing.T) {
		token, err := StaticToken("abc").GetToken(context.Background())

		require.NoError(t, err)
		assert.Equal(t, "abc", token)
	})

	t.Run("empty token requires auth", func(t *testing.T) {
		_, err := StaticToken("").GetToken(context.Background())

		assert.ErrorIs(t, err, domain.ErrAuthRequired)
	})
}

func TestClient_FetchPage(t *testing.T) {
	var got graphQLRequest
	var auth string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, pageResponse)
	})

	page, err := client.FetchPage(context.Background(), testRepo, "")

	require.NoError(t, err)
	assert.Equal(t, "Bearer test-token", auth)
	assert.Contains(t, got.Query, "issues(first: $first, after: $cursor)")
	assert.Contains(t, got.Query, "userContentEdits(first: 100)")
	assert.Contains(t, got.Query, "timelineItems(first: 250")
	assert.Contains(t, got.Query, "rateLimit{cost,remaining,resetAt}")
	assert.Equal(t, "octo", got.Variables["owner"])
	assert.Equal(t, "hello", got.Variables["name"])
	assert.EqualValues(t, IssuesPerPage, got.Variables["first"])
	assert.Nil(t, got.Variables["cursor"])

	assert.Equal(t, "Y3Vyc29yOjc=", page.EndCursor)
	assert.True(t, page.HasNextPage)
	assert.Equal(t, 1, page.RateLimit.Cost)
	assert.Equal(t, 4990, page.RateLimit.Remaining)
	assert.Equal(t, 4990, client.RateLimiter().Remaining())

	require.Len(t, page.Issues, 1)
	issue := page.Issues[0]
	assert.Equal(t, 7, issue.Number)
	assert.Equal(t, "Crash on start", issue.Title)
	assert.Equal(t, "It **crashes**", issue.Body)
	assert.Equal(t, "It crashes", issue.BodyText)
	assert.Equal(t, time.Date(2021, 3, 1, 12, 0, 0, 0, time.UTC), issue.CreatedAt.UTC())
	assert.Equal(t, []string{"bug", "p1"}, issue.Labels)
	assert.Equal(t, []string{"bob"}, issue.Assignees)

	require.Len(t, issue.Edits, 2)
	assert.Equal(t, "It crashes", issue.Edits[0].Diff)
	assert.Equal(t, "", issue.Edits[1].Diff)

	require.Len(t, issue.Timeline, 6)
	assert.Equal(t, "alice", issue.Timeline[0].(domain.LabelAdded).Actor)
	assert.Equal(t, domain.GhostActor, issue.Timeline[1].(domain.LabelAdded).Actor)
	assert.Equal(t, "triage", issue.Timeline[2].(domain.LabelRemoved).Label)
	assert.Equal(t, domain.TitleRenamed{
		At:       time.Date(2021, 3, 1, 12, 8, 0, 0, time.UTC),
		Previous: "Crash",
		Current:  "Crash on start",
	}, withUTC(issue.Timeline[3].(domain.TitleRenamed)))
	assert.Equal(t, "same here", issue.Timeline[4].(domain.Comment).Body)
	assert.Equal(t, "carol", issue.Timeline[4].(domain.Comment).Author)
	assert.Equal(t, domain.CloserPullRequest, issue.Timeline[5].(domain.Closed).Closer)
}

func withUTC(e domain.TitleRenamed) domain.TitleRenamed {
	e.At = e.At.UTC()
	return e
}

func TestClient_FetchPage_SendsCursor(t *testing.T) {
	var got graphQLRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = io.WriteString(w, `{"data":{"repository":{"issues":{"nodes":[],"pageInfo":{"endCursor":null,"hasNextPage":false}}},"rateLimit":{"cost":1,"remaining":10,"resetAt":"2021-03-01T13:00:00Z"}}}`)
	})

	page, err := client.FetchPage(context.Background(), testRepo, "abc")

	require.NoError(t, err)
	assert.Equal(t, "abc", got.Variables["cursor"])
	assert.Empty(t, page.Issues)
	assert.False(t, page.HasNextPage)
	assert.Equal(t, 0, page.LastIssueNumber())
}

func TestClient_FetchPage_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		headers map[string]string
		body    string
		check   func(t *testing.T, err error)
	}{
		{
			name:   "server error",
			status: http.StatusBadGateway,
			body:   "bad gateway",
			check: func(t *testing.T, err error) {
				var apiErr *APIError
				require.ErrorAs(t, err, &apiErr)
				assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
				assert.Equal(t, "bad gateway", apiErr.Message)
			},
		},
		{
			name:   "unauthorized",
			status: http.StatusUnauthorized,
			body:   `{"message":"Bad credentials"}`,
			check: func(t *testing.T, err error) {
				assert.True(t, IsUnauthorized(err))
			},
		},
		{
			name:    "secondary rate limit",
			status:  http.StatusTooManyRequests,
			headers: map[string]string{HeaderRetryAfter: "30"},
			check: func(t *testing.T, err error) {
				var rlErr *RateLimitError
				require.ErrorAs(t, err, &rlErr)
				assert.WithinDuration(t, time.Now().Add(30*time.Second), rlErr.ResetAt, 5*time.Second)
			},
		},
		{
			name:   "graphql errors",
			status: http.StatusOK,
			body:   `{"data":null,"errors":[{"message":"Could not resolve to a Repository with the name 'octo/hello'."}]}`,
			check: func(t *testing.T, err error) {
				var qErr *QueryError
				require.ErrorAs(t, err, &qErr)
				assert.True(t, IsNotFound(err))
			},
		},
		{
			name:   "graphql rate limit",
			status: http.StatusOK,
			body:   `{"data":null,"errors":[{"type":"RATE_LIMITED","message":"API rate limit exceeded for user ID 1."}]}`,
			check: func(t *testing.T, err error) {
				assert.True(t, IsRateLimited(err))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				for k, v := range tt.headers {
					w.Header().Set(k, v)
				}
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			page, err := client.FetchPage(context.Background(), testRepo, "")

			require.Error(t, err)
			assert.Nil(t, page)
			tt.check(t, err)
		})
	}
}

func TestClient_FetchPage_NoToken(t *testing.T) {
	client := NewClientWithToken("")

	_, err := client.FetchPage(context.Background(), testRepo, "")

	assert.ErrorIs(t, err, domain.ErrAuthRequired)
}

func TestClient_Inspect(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"issues enabled", http.StatusOK, `{"full_name":"octo/hello","has_issues":true}`, nil},
		{"issues disabled", http.StatusOK, `{"full_name":"octo/hello","has_issues":false}`, domain.ErrIssuesDisabled},
		{"missing repository", http.StatusNotFound, `{"message":"Not Found"}`, domain.ErrNotFound},
		{"bad credentials", http.StatusUnauthorized, `{"message":"Bad credentials"}`, domain.ErrAuthInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var path string
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				path = r.URL.Path
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			err := client.Inspect(context.Background(), testRepo)

			assert.Equal(t, "/repos/octo/hello", path)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestTimelineNode_ToEntry(t *testing.T) {
	t.Run("closer kinds outside the taxonomy count as none", func(t *testing.T) {
		n := timelineNode{Typename: "ClosedEvent"}
		n.ClosedEvent.Closer = &struct {
			Typename string `graphql:"__typename"`
		}{Typename: "ProjectV2"}

		entry, ok := n.toEntry()

		require.True(t, ok)
		assert.Equal(t, domain.CloserNone, entry.(domain.Closed).Closer)
	})

	t.Run("commit closer", func(t *testing.T) {
		n := timelineNode{Typename: "ClosedEvent"}
		n.ClosedEvent.Closer = &struct {
			Typename string `graphql:"__typename"`
		}{Typename: "Commit"}

		entry, ok := n.toEntry()

		require.True(t, ok)
		assert.True(t, entry.(domain.Closed).ClosedByCode())
	})

	t.Run("manual close", func(t *testing.T) {
		n := timelineNode{Typename: "ClosedEvent"}

		entry, ok := n.toEntry()

		require.True(t, ok)
		assert.False(t, entry.(domain.Closed).ClosedByCode())
	})

	t.Run("unknown type is dropped", func(t *testing.T) {
		n := timelineNode{Typename: "CrossReferencedEvent"}

		_, ok := n.toEntry()

		assert.False(t, ok)
	})
}

func TestRateLimiter(t *testing.T) {
	t.Run("creates rate limiter with defaults", func(t *testing.T) {
		rl := NewRateLimiter()

		require.NotNil(t, rl)
		assert.Equal(t, GraphQLPointLimit, rl.Limit())
		assert.Equal(t, GraphQLPointLimit, rl.Remaining())
		assert.Equal(t, 1, rl.LastCost())
		assert.True(t, rl.ResetTime().IsZero())
	})

	t.Run("records graphql headers", func(t *testing.T) {
		rl := NewRateLimiter()
		resp := &http.Response{
			StatusCode: http.StatusOK,
			Header: http.Header{
				"X-Ratelimit-Remaining": []string{"100"},
				"X-Ratelimit-Limit":     []string{"5000"},
				"X-Ratelimit-Reset":     []string{"1614603600"},
				"X-Ratelimit-Resource":  []string{"graphql"},
			},
		}

		require.NoError(t, rl.CheckRateLimit(resp))

		assert.Equal(t, 100, rl.Remaining())
		assert.Equal(t, 5000, rl.Limit())
		assert.Equal(t, int64(1614603600), rl.ResetTime().Unix())
	})

	t.Run("ignores headers of other resources", func(t *testing.T) {
		rl := NewRateLimiter()
		resp := &http.Response{
			StatusCode: http.StatusOK,
			Header: http.Header{
				"X-Ratelimit-Remaining": []string{"12"},
				"X-Ratelimit-Limit":     []string{"60"},
				"X-Ratelimit-Resource":  []string{"core"},
			},
		}

		require.NoError(t, rl.CheckRateLimit(resp))

		assert.Equal(t, GraphQLPointLimit, rl.Remaining())
		assert.Equal(t, GraphQLPointLimit, rl.Limit())
	})

	t.Run("records the rateLimit block", func(t *testing.T) {
		rl := NewRateLimiter()
		reset := time.Now().Add(time.Hour)

		rl.Record(domain.RateLimit{Cost: 3, Remaining: 42, ResetAt: reset})

		assert.Equal(t, 42, rl.Remaining())
		assert.Equal(t, 3, rl.LastCost())
		assert.True(t, reset.Equal(rl.ResetTime()))
	})

	t.Run("forbidden with exhausted quota is rate limited", func(t *testing.T) {
		rl := NewRateLimiter()
		resp := &http.Response{
			StatusCode: http.StatusForbidden,
			Header: http.Header{
				"X-Ratelimit-Remaining": []string{"0"},
				"X-Ratelimit-Reset":     []string{"1614603600"},
			},
		}

		err := rl.CheckRateLimit(resp)

		assert.True(t, IsRateLimited(err))
		var rlErr *RateLimitError
		require.ErrorAs(t, err, &rlErr)
		assert.Equal(t, int64(1614603600), rlErr.ResetAt.Unix())
	})

	t.Run("forbidden with quota left is not rate limited", func(t *testing.T) {
		rl := NewRateLimiter()
		resp := &http.Response{
			StatusCode: http.StatusForbidden,
			Header:     http.Header{"X-Ratelimit-Remaining": []string{"10"}},
		}

		assert.NoError(t, rl.CheckRateLimit(resp))
	})

	t.Run("wait respects context cancellation", func(t *testing.T) {
		rl := NewRateLimiter()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := rl.Wait(ctx)

		assert.Error(t, err)
	})

	t.Run("wait blocks until reset when quota is low", func(t *testing.T) {
		rl := fastLimiter()
		rl.Record(domain.RateLimit{Cost: 1, Remaining: 1, ResetAt: time.Now().Add(time.Hour)})
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		err := rl.Wait(ctx)

		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("wait reserves the cost of the last query", func(t *testing.T) {
		rl := fastLimiter()
		reset := time.Now().Add(time.Hour)

		rl.Record(domain.RateLimit{Cost: 300, Remaining: 350, ResetAt: reset})
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		assert.ErrorIs(t, rl.Wait(ctx), context.DeadlineExceeded)

		rl.Record(domain.RateLimit{Cost: 1, Remaining: 350, ResetAt: reset})
		assert.NoError(t, rl.Wait(context.Background()))
	})

	t.Run("budget refills once the window has passed", func(t *testing.T) {
		rl := fastLimiter()
		now := time.Date(2021, 3, 1, 13, 0, 1, 0, time.UTC)
		rl.now = func() time.Time { return now }
		rl.Record(domain.RateLimit{Cost: 1, Remaining: 0, ResetAt: now.Add(-time.Second)})

		require.NoError(t, rl.Wait(context.Background()))

		assert.Equal(t, GraphQLPointLimit, rl.Remaining())
		assert.True(t, rl.ResetTime().IsZero())
	})
}

func TestClient_FetchPage_RecordsQueryCost(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"data":{"repository":{"issues":{"nodes":[],"pageInfo":{"endCursor":"Y3Vyc29yOjA=","hasNextPage":false}}},"rateLimit":{"cost":7,"remaining":4321,"resetAt":"2099-01-01T00:00:00Z"}}}`)
	})

	_, err := client.FetchPage(context.Background(), testRepo, "")

	require.NoError(t, err)
	assert.Equal(t, 7, client.RateLimiter().LastCost())
	assert.Equal(t, 4321, client.RateLimiter().Remaining())
}
