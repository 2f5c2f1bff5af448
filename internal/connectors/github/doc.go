// Package github fetches issue pages from GitHub.
//
// Pages are read through the GraphQL API: one query returns up to 100
// issues together with their body edits, assignees, labels, the first 250
// timeline items of interest and the query's rate-limit accounting. The
// response is converted into [domain.Page] values; no history is derived
// here.
//
// # Authentication
//
// Requests carry a bearer token from a [driven.TokenProvider]. Personal
// access tokens and OAuth access tokens both work. The token needs read
// access to the repository's issues.
//
// # Rate Limiting
//
// The client combines two strategies:
//
//  1. Proactive throttling: a token bucket caps the request rate so that
//     retries cannot burst past the GraphQL point budget.
//
//  2. Reactive handling: the rateLimit block of every response updates the
//     remaining quota. When it falls below a buffer, the next request waits
//     until resetAt.
//
// # Pre-flight
//
// [Client.Inspect] uses the REST API to confirm the repository exists and
// has issues enabled before any page is requested.
//
// # Example Usage
//
//	client := github.NewClient(github.StaticToken(token))
//	page, err := client.FetchPage(ctx, repo, "")
package github
