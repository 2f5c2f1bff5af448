package domain

import (
	"fmt"
	"strings"
)

// Repository identifies a remote repository by owner and name.
type Repository struct {
	Owner string
	Name  string
}

// ParseRepository parses an "owner/name" string.
func ParseRepository(s string) (Repository, error) {
	owner, name, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return Repository{}, fmt.Errorf("%w: repository must be owner/name, got %q", ErrInvalidInput, s)
	}
	return Repository{Owner: owner, Name: name}, nil
}

// String returns the full "owner/name" form.
func (r Repository) String() string {
	return r.Owner + "/" + r.Name
}
