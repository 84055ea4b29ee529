package testimony

import (
	"context"

	"github.com/openwitness/witness-backend/internal/domain/entity"
	"github.com/openwitness/witness-backend/internal/domain/repository"
	"github.com/openwitness/witness-backend/internal/pkg/keylock"
	"github.com/openwitness/witness-backend/internal/verification"
)

type ViewResult struct {
	Testimony  *entity.Testimony
	Witness    *entity.Witness
	Candidates []verification.Candidate
	TrustScore int
}

// ViewTestimonyUseCase увеличивает счётчик просмотров и собирает карточку свидетельства.
type ViewTestimonyUseCase struct {
	testimonies repository.TestimonyStore
	witnesses   repository.IdentityStore
	locks       *keylock.Mutex
}

func NewViewTestimonyUseCase(testimonies repository.TestimonyStore, witnesses repository.IdentityStore, locks *keylock.Mutex) *ViewTestimonyUseCase {
	return &ViewTestimonyUseCase{testimonies: testimonies, witnesses: witnesses, locks: locks}
}

func (uc *ViewTestimonyUseCase) Execute(ctx context.Context, testimonyID string) (*ViewResult, error) {
	t, err := uc.recordView(ctx, testimonyID)
	if err != nil {
		return nil, err
	}

	all, err := listTestimonies(ctx, uc.testimonies)
	if err != nil {
		return nil, err
	}
	scan, err := verification.FindCorroborations(t, all)
	if err != nil {
		return nil, err
	}
	logSkipped(testimonyID, scan.Skipped)

	w, err := loadWitness(ctx, uc.witnesses, t.WitnessID)
	if err != nil {
		return nil, err
	}

	return &ViewResult{
		Testimony:  t,
		Witness:    w,
		Candidates: verification.SortBySimilarity(scan.Candidates),
		TrustScore: verification.TrustScore(t, w),
	}, nil
}

func (uc *ViewTestimonyUseCase) recordView(ctx context.Context, testimonyID string) (*entity.Testimony, error) {
	unlock := uc.locks.Lock(testimonyID)
	defer unlock()

	t, err := loadTestimony(ctx, uc.testimonies, testimonyID)
	if err != nil {
		return nil, err
	}
	t.RecordView()
	views := t.Views
	return updateTestimony(ctx, uc.testimonies, testimonyID, entity.TestimonyPatch{Views: &views})
}

type GetTestimonyUseCase struct {
	testimonies repository.TestimonyStore
}

func NewGetTestimonyUseCase(testimonies repository.TestimonyStore) *GetTestimonyUseCase {
	return &GetTestimonyUseCase{testimonies: testimonies}
}

func (uc *GetTestimonyUseCase) Execute(ctx context.Context, testimonyID string) (*entity.Testimony, error) {
	return loadTestimony(ctx, uc.testimonies, testimonyID)
}
