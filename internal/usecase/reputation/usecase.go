package reputation

import (
	"context"

	domain "blolend/internal/domain/reputation"
)

type ScoreDTO struct {
	AccountID string `json:"account_id"`
	Score     uint64 `json:"score"`
}

// Usecase reads borrower trust scores. Increments happen only inside the
// repayment transaction in the loan ledger.
type Usecase struct {
	scores domain.Repository
}

func NewUsecase(scores domain.Repository) *Usecase {
	return &Usecase{scores: scores}
}

func (u *Usecase) Get(ctx context.Context, account string) (*ScoreDTO, error) {
	score, err := u.scores.Get(ctx, account)
	if err != nil {
		return nil, err
	}
	return &ScoreDTO{AccountID: account, Score: score}, nil
}
