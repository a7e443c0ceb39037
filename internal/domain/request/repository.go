package request

import "context"

type Repository interface {
	Create(ctx context.Context, r *FundingRequest) error
	GetByID(ctx context.Context, id uint64) (*FundingRequest, error)
	// GetByIDForUpdate locks the request row for the remainder of the
	// surrounding transaction before loading it with its contributions.
	GetByIDForUpdate(ctx context.Context, id uint64) (*FundingRequest, error)
	Save(ctx context.Context, r *FundingRequest) error
	AddContribution(ctx context.Context, c *Contribution) error
	HasContribution(ctx context.Context, lender string, requestID uint64) (bool, error)
	Count(ctx context.Context) (int64, error)
}
