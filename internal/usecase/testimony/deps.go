package testimony

import (
	"context"

	"github.com/openwitness/witness-backend/internal/domain/entity"
	"github.com/openwitness/witness-backend/internal/domain/repository"
	"github.com/openwitness/witness-backend/internal/pkg/apperror"
)

// ReputationRecomputer пересчитывает свидетеля целиком.
type ReputationRecomputer interface {
	Execute(ctx context.Context, witnessID string) (*entity.Witness, error)
}

// WitnessEnsurer создаёт свидетеля при первом действии.
type WitnessEnsurer interface {
	Execute(ctx context.Context, witnessID string) (*entity.Witness, error)
}

func loadTestimony(ctx context.Context, store repository.TestimonyStore, id string) (*entity.Testimony, error) {
	t, err := store.Get(ctx, id)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить свидетельство")
	}
	if t == nil {
		return nil, apperror.ErrTestimonyNotFound
	}
	return t, nil
}

func listTestimonies(ctx context.Context, store repository.TestimonyStore) ([]*entity.Testimony, error) {
	all, err := store.List(ctx)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить свидетельства")
	}
	return all, nil
}

func loadWitness(ctx context.Context, store repository.IdentityStore, id string) (*entity.Witness, error) {
	w, err := store.GetWitness(ctx, id)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить свидетеля")
	}
	return w, nil
}

func updateTestimony(ctx context.Context, store repository.TestimonyStore, id string, patch entity.TestimonyPatch) (*entity.Testimony, error) {
	t, err := store.Update(ctx, id, patch)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось обновить свидетельство")
	}
	if t == nil {
		return nil, apperror.ErrTestimonyNotFound
	}
	return t, nil
}

// invalid переводит ошибку валидации ввода в AppError.
func invalid(err error) error {
	return apperror.New(apperror.ErrCodeValidation, err.Error())
}
