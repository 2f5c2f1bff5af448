package driven

import "context"

// TokenProvider provides the bearer credential for API calls.
// How the token is obtained is up to the implementation.
type TokenProvider interface {
	// GetToken returns the access token.
	GetToken(ctx context.Context) (string, error)
}
