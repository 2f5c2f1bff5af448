// Package storage holds sink adapters shared by the concrete stores.
package storage

import (
	"context"

	"github.com/custodia-labs/issue-archive/internal/core/domain"
	"github.com/custodia-labs/issue-archive/internal/core/ports/driven"
)

// Ensure MultiSink implements the interface.
var _ driven.IssueSink = MultiSink(nil)

// MultiSink writes each batch to every sink in order and stops at the
// first failure. A batch already taken by earlier sinks stays there when a
// later one fails, and resuming from the failed page writes it to them
// again. Put the sink that must stay free of duplicates last.
type MultiSink []driven.IssueSink

// Append writes the batch to each sink.
func (m MultiSink) Append(ctx context.Context, issues []domain.Issue) error {
	for _, sink := range m {
		if sink == nil {
			continue
		}
		if err := sink.Append(ctx, issues); err != nil {
			return err
		}
	}
	return nil
}
