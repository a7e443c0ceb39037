package mysql

import (
	"context"
	"errors"

	repDomain "blolend/internal/domain/reputation"

	"gorm.io/gorm"
)

type ReputationRepository struct{ db *gorm.DB }

func NewReputationRepository(db *gorm.DB) *ReputationRepository {
	return &ReputationRepository{db: db}
}

func (r *ReputationRepository) Get(ctx context.Context, account string) (uint64, error) {
	var s repDomain.Score
	res := r.db.WithContext(ctx).First(&s, "account_id = ?", account)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	return s.Score, res.Error
}

func (r *ReputationRepository) Add(ctx context.Context, account string, delta uint64) error {
	var s repDomain.Score
	res := r.db.WithContext(ctx).First(&s, "account_id = ?", account)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return r.db.WithContext(ctx).
			Create(&repDomain.Score{AccountID: account, Score: delta}).Error
	}
	if res.Error != nil {
		return res.Error
	}
	s.Score += delta
	return r.db.WithContext(ctx).Save(&s).Error
}
