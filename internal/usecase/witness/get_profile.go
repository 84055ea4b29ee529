package witness

import (
	"context"

	"github.com/openwitness/witness-backend/internal/domain/entity"
	"github.com/openwitness/witness-backend/internal/domain/repository"
	"github.com/openwitness/witness-backend/internal/pkg/apperror"
	"github.com/openwitness/witness-backend/internal/verification"
)

type Profile struct {
	Witness *entity.Witness
	Badges  []verification.Badge
}

type GetProfileUseCase struct {
	witnesses repository.IdentityStore
}

func NewGetProfileUseCase(witnesses repository.IdentityStore) *GetProfileUseCase {
	return &GetProfileUseCase{witnesses: witnesses}
}

func (uc *GetProfileUseCase) Execute(ctx context.Context, witnessID string) (*Profile, error) {
	w, err := uc.witnesses.GetWitness(ctx, witnessID)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить свидетеля")
	}
	if w == nil {
		return nil, apperror.ErrWitnessNotFound
	}
	return &Profile{Witness: w, Badges: verification.Badges(w)}, nil
}
