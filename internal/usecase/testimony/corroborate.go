package testimony

import (
	"context"

	"github.com/openwitness/witness-backend/internal/domain/entity"
	"github.com/openwitness/witness-backend/internal/domain/repository"
	"github.com/openwitness/witness-backend/internal/pkg/apperror"
	"github.com/openwitness/witness-backend/internal/pkg/keylock"
)

// CorroborateUseCase фиксирует ручное подтверждение свидетельства другим свидетелем.
type CorroborateUseCase struct {
	testimonies repository.TestimonyStore
	ensure      WitnessEnsurer
	crossRef    *CrossReferenceUseCase
	reputation  ReputationRecomputer
	locks       *keylock.Mutex
}

func NewCorroborateUseCase(
	testimonies repository.TestimonyStore,
	ensure WitnessEnsurer,
	crossRef *CrossReferenceUseCase,
	reputation ReputationRecomputer,
	locks *keylock.Mutex,
) *CorroborateUseCase {
	return &CorroborateUseCase{
		testimonies: testimonies,
		ensure:      ensure,
		crossRef:    crossRef,
		reputation:  reputation,
		locks:       locks,
	}
}

func (uc *CorroborateUseCase) Execute(ctx context.Context, testimonyID, witnessID string) (*CrossReferenceResult, error) {
	if witnessID == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "идентификатор свидетеля обязателен")
	}

	if err := uc.append(ctx, testimonyID, witnessID); err != nil {
		return nil, err
	}

	if _, err := uc.ensure.Execute(ctx, witnessID); err != nil {
		return nil, err
	}

	ref, err := uc.crossRef.Execute(ctx, testimonyID)
	if err != nil {
		return nil, err
	}

	w, err := uc.reputation.Execute(ctx, ref.Testimony.WitnessID)
	if err != nil {
		return nil, err
	}
	ref.Witness = w
	return ref, nil
}

func (uc *CorroborateUseCase) append(ctx context.Context, testimonyID, witnessID string) error {
	unlock := uc.locks.Lock(testimonyID)
	defer unlock()

	t, err := loadTestimony(ctx, uc.testimonies, testimonyID)
	if err != nil {
		return err
	}
	if err := t.AddCorroboration(witnessID); err != nil {
		return err
	}
	corroborations := t.Corroborations
	_, err = updateTestimony(ctx, uc.testimonies, testimonyID, entity.TestimonyPatch{Corroborations: &corroborations})
	return err
}
