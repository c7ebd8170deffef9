package lookup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mchmarny/varsig/pkg/variant"
)

// Batch classifies mutations one after another.
type Batch struct {
	Classifier Classifier
	// MutationDelay is inserted between successive mutations, not after the last.
	MutationDelay Delay
}

// Progress is called after each mutation with its index and result.
type Progress func(i int, m variant.Mutation, r Result)

// Run classifies every mutation in order and returns exactly one row per
// mutation. It stops early only when ctx is done.
func (b *Batch) Run(ctx context.Context, list []variant.Mutation, fn Progress) ([]variant.ResultRow, error) {
	if b.Classifier == nil {
		return nil, errors.New("classifier is required")
	}

	start := time.Now()
	rows := make([]variant.ResultRow, 0, len(list))

	for i, m := range list {
		if i > 0 {
			if err := wait(ctx, b.MutationDelay); err != nil {
				return rows, fmt.Errorf("batch interrupted after %d of %d mutations: %w", i, len(list), err)
			}
		}

		r := b.Classifier.Classify(ctx, m)
		rows = append(rows, r.Row(m))

		if fn != nil {
			fn(i, m, r)
		}
	}

	slog.Debug("batch complete", "mutations", len(list), "duration", time.Since(start).String())

	return rows, nil
}
