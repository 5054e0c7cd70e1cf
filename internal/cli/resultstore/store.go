// Package resultstore keeps the most recently received result of every submission the
// client has seen, so that a score is always derived from the latest verdict list.
package resultstore

import (
	"context"

	"ocontest/internal/submission"
)

// Store keeps one result per submission id. Put replaces any earlier result and reports
// whether the stored value changed.
type Store interface {
	Get(ctx context.Context, submissionID string) (submission.Result, bool, error)
	Put(ctx context.Context, submissionID string, result submission.Result) (bool, error)
	Delete(ctx context.Context, submissionID string) error
	Close() error
}

// Name reports the backing store for display.
func Name(s Store) string {
	switch s.(type) {
	case *LRUStore:
		return "memory"
	case *RedisStore:
		return "redis"
	default:
		return "custom"
	}
}
