package mysql

import (
	"context"
	"errors"

	reqDomain "blolend/internal/domain/request"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RequestRepository struct{ db *gorm.DB }

func NewRequestRepository(db *gorm.DB) *RequestRepository { return &RequestRepository{db: db} }

func (r *RequestRepository) Create(ctx context.Context, fr *reqDomain.FundingRequest) error {
	return r.db.WithContext(ctx).Create(fr).Error
}

func (r *RequestRepository) Save(ctx context.Context, fr *reqDomain.FundingRequest) error {
	return r.db.WithContext(ctx).Omit("Contributions").Save(fr).Error
}

func (r *RequestRepository) GetByID(ctx context.Context, id uint64) (*reqDomain.FundingRequest, error) {
	var out reqDomain.FundingRequest
	res := r.db.WithContext(ctx).
		Preload("Contributions", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		First(&out, "id = ?", id)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return nil, reqDomain.ErrNotFound
	}
	return &out, res.Error
}

// GetByIDForUpdate locks the request row for the rest of the transaction.
// sqlite has no row locks; its transaction already serializes writers, so the
// locking clause is only added on mysql.
func (r *RequestRepository) GetByIDForUpdate(ctx context.Context, id uint64) (*reqDomain.FundingRequest, error) {
	tx := r.db.WithContext(ctx)
	if r.db.Dialector.Name() == "mysql" {
		tx = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var out reqDomain.FundingRequest
	res := tx.
		Preload("Contributions", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		First(&out, "id = ?", id)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return nil, reqDomain.ErrNotFound
	}
	return &out, res.Error
}

func (r *RequestRepository) AddContribution(ctx context.Context, c *reqDomain.Contribution) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *RequestRepository) HasContribution(ctx context.Context, lender string, requestID uint64) (bool, error) {
	var n int64
	res := r.db.WithContext(ctx).
		Model(&reqDomain.Contribution{}).
		Where("request_id = ? AND lender = ?", requestID, lender).
		Count(&n)
	return n > 0, res.Error
}

func (r *RequestRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	res := r.db.WithContext(ctx).Model(&reqDomain.FundingRequest{}).Count(&n)
	return n, res.Error
}
