package loan

import "context"

type Repository interface {
	// Create persists the loan together with its lender snapshot.
	Create(ctx context.Context, l *Loan) error
	GetByID(ctx context.Context, id uint64) (*Loan, error)
	// GetByIDForUpdate locks the loan row for the remainder of the
	// surrounding transaction before loading it with its lender snapshot.
	GetByIDForUpdate(ctx context.Context, id uint64) (*Loan, error)
	GetByRequestID(ctx context.Context, requestID uint64) (*Loan, error)
	Save(ctx context.Context, l *Loan) error
	Count(ctx context.Context) (int64, error)
}
