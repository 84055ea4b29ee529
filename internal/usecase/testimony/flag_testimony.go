package testimony

import (
	"context"
	"time"

	"github.com/openwitness/witness-backend/internal/domain/entity"
	"github.com/openwitness/witness-backend/internal/domain/repository"
	"github.com/openwitness/witness-backend/internal/pkg/keylock"
	"github.com/openwitness/witness-backend/internal/validation"
)

type FlagTestimonyInput struct {
	TestimonyID string
	Reason      string
	ReporterID  string
}

// FlagTestimonyUseCase добавляет жалобу. Статус проверки не меняется,
// штраф к репутации применяется при следующем пересчёте.
type FlagTestimonyUseCase struct {
	testimonies repository.TestimonyStore
	locks       *keylock.Mutex
	now         func() time.Time
}

func NewFlagTestimonyUseCase(testimonies repository.TestimonyStore, locks *keylock.Mutex) *FlagTestimonyUseCase {
	return &FlagTestimonyUseCase{
		testimonies: testimonies,
		locks:       locks,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (uc *FlagTestimonyUseCase) Execute(ctx context.Context, input FlagTestimonyInput) (*entity.Testimony, error) {
	if err := validation.ValidateFlagReason(input.Reason); err != nil {
		return nil, invalid(err)
	}

	unlock := uc.locks.Lock(input.TestimonyID)
	defer unlock()

	t, err := loadTestimony(ctx, uc.testimonies, input.TestimonyID)
	if err != nil {
		return nil, err
	}
	if err := t.AddFlag(validation.SanitizeText(input.Reason), input.ReporterID, uc.now()); err != nil {
		return nil, err
	}

	flags := t.Flags
	hidden := t.Hidden
	return updateTestimony(ctx, uc.testimonies, input.TestimonyID, entity.TestimonyPatch{
		Flags:  &flags,
		Hidden: &hidden,
	})
}
