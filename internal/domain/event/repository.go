package event

import "context"

type Repository interface {
	Append(ctx context.Context, e *Event) error
	// ListUnpublished returns pending events oldest first.
	ListUnpublished(ctx context.Context, limit int) ([]Event, error)
	MarkPublished(ctx context.Context, ids []uint64) error
}
