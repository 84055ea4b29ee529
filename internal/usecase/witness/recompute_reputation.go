package witness

import (
	"context"
	"time"

	"github.com/openwitness/witness-backend/internal/domain/entity"
	"github.com/openwitness/witness-backend/internal/domain/repository"
	"github.com/openwitness/witness-backend/internal/pkg/apperror"
	"github.com/openwitness/witness-backend/internal/pkg/keylock"
	"github.com/openwitness/witness-backend/internal/verification"
)

// RecomputeReputationUseCase полностью пересчитывает запись свидетеля.
// Чтение набора, расчёт и запись выполняются под блокировкой по id свидетеля.
type RecomputeReputationUseCase struct {
	testimonies repository.TestimonyStore
	witnesses   repository.IdentityStore
	locks       *keylock.Mutex
	now         func() time.Time
}

// locks должен быть общим с EnsureWitnessUseCase.
func NewRecomputeReputationUseCase(testimonies repository.TestimonyStore, witnesses repository.IdentityStore, locks *keylock.Mutex) *RecomputeReputationUseCase {
	return &RecomputeReputationUseCase{
		testimonies: testimonies,
		witnesses:   witnesses,
		locks:       locks,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (uc *RecomputeReputationUseCase) Execute(ctx context.Context, witnessID string) (*entity.Witness, error) {
	if witnessID == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "идентификатор свидетеля обязателен")
	}

	unlock := uc.locks.Lock(witnessID)
	defer unlock()

	all, err := uc.testimonies.List(ctx)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить свидетельства")
	}

	w, err := uc.witnesses.GetWitness(ctx, witnessID)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить свидетеля")
	}
	if w == nil {
		w = entity.NewWitness(witnessID, uc.now())
	}

	res := verification.ComputeReputation(witnessID, all)
	w.ApplyReputation(res.Reputation, res.Submitted, res.Verified)

	saved, err := uc.witnesses.SaveWitness(ctx, w)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось сохранить свидетеля")
	}
	return saved, nil
}

// EnsureWitnessUseCase создаёт запись свидетеля при первом действии.
// Чтение и запись идут под той же блокировкой, что и пересчёт.
type EnsureWitnessUseCase struct {
	witnesses repository.IdentityStore
	locks     *keylock.Mutex
	now       func() time.Time
}

func NewEnsureWitnessUseCase(witnesses repository.IdentityStore, locks *keylock.Mutex) *EnsureWitnessUseCase {
	return &EnsureWitnessUseCase{
		witnesses: witnesses,
		locks:     locks,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (uc *EnsureWitnessUseCase) Execute(ctx context.Context, witnessID string) (*entity.Witness, error) {
	unlock := uc.locks.Lock(witnessID)
	defer unlock()

	w, err := uc.witnesses.GetWitness(ctx, witnessID)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить свидетеля")
	}
	if w != nil {
		return w, nil
	}
	saved, err := uc.witnesses.SaveWitness(ctx, entity.NewWitness(witnessID, uc.now()))
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось сохранить свидетеля")
	}
	return saved, nil
}

// RecomputeAllUseCase пересчитывает всех известных свидетелей и авторов.
type RecomputeAllUseCase struct {
	testimonies repository.TestimonyStore
	witnesses   repository.IdentityStore
	recompute   *RecomputeReputationUseCase
}

func NewRecomputeAllUseCase(testimonies repository.TestimonyStore, witnesses repository.IdentityStore, recompute *RecomputeReputationUseCase) *RecomputeAllUseCase {
	return &RecomputeAllUseCase{testimonies: testimonies, witnesses: witnesses, recompute: recompute}
}

// Execute возвращает количество пересчитанных свидетелей.
func (uc *RecomputeAllUseCase) Execute(ctx context.Context) (int, error) {
	known, err := uc.witnesses.ListWitnesses(ctx)
	if err != nil {
		return 0, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить свидетелей")
	}
	all, err := uc.testimonies.List(ctx)
	if err != nil {
		return 0, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить свидетельства")
	}

	seen := make(map[string]struct{}, len(known))
	var ids []string
	add := func(id string) {
		if id == "" {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	for _, w := range known {
		add(w.ID)
	}
	for _, t := range all {
		add(t.WitnessID)
	}

	for i, id := range ids {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		if _, err := uc.recompute.Execute(ctx, id); err != nil {
			return i, err
		}
	}
	return len(ids), nil
}
