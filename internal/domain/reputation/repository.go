package reputation

import "context"

type Repository interface {
	// Get returns the stored score, zero for unseen accounts.
	Get(ctx context.Context, account string) (uint64, error)
	// Add raises the score by delta, creating the row on first award.
	Add(ctx context.Context, account string, delta uint64) error
}
