package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/issue-archive/internal/core/domain"
	"github.com/custodia-labs/issue-archive/internal/core/ports/driven"
)

// Ensure Sink implements the interface.
var _ driven.IssueSink = (*Sink)(nil)

// Sink is an in-memory driven.IssueSink for dry runs. It keeps running
// totals and only the most recent batch, so memory use does not grow with
// the number of pages.
type Sink struct {
	mu      sync.RWMutex
	batches int
	issues  int
	last    []domain.Issue
}

// NewSink creates a new in-memory sink.
func NewSink() *Sink {
	return &Sink{}
}

// Append counts the batch and replaces the previously held one.
func (s *Sink) Append(_ context.Context, issues []domain.Issue) error {
	batch := make([]domain.Issue, len(issues))
	copy(batch, issues)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches++
	s.issues += len(batch)
	s.last = batch
	return nil
}

// Count returns the number of issues appended so far.
func (s *Sink) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.issues
}

// Batches returns the number of batches appended so far.
func (s *Sink) Batches() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.batches
}

// Last returns the most recent batch, or nil before the first append.
func (s *Sink) Last() []domain.Issue {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}
