package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// Authentication Errors.

	// ErrAuthRequired indicates no credential was supplied.
	ErrAuthRequired = errors.New("authentication required")

	// ErrAuthInvalid indicates the authentication credentials are invalid.
	ErrAuthInvalid = errors.New("authentication invalid")

	// Export Errors.

	// ErrIssuesDisabled indicates the repository has its issue tracker turned off.
	ErrIssuesDisabled = errors.New("issues are disabled for this repository")

	// ErrRateLimited indicates the API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")

	// ErrMalformedPage indicates a page whose pagination info cannot be followed.
	ErrMalformedPage = errors.New("malformed page")
)

// ExportError reports an export that stopped on an unrecovered failure.
// Cursor is the last cursor whose page was fully persisted; supplying it
// as the starting cursor of a fresh run continues after that page.
type ExportError struct {
	Cursor string
	Page   int
	Err    error
}

func (e *ExportError) Error() string {
	if e.Cursor == "" {
		return fmt.Sprintf("export failed on page %d: %v", e.Page, e.Err)
	}
	return fmt.Sprintf("export failed on page %d (resume with cursor %q): %v", e.Page, e.Cursor, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}
