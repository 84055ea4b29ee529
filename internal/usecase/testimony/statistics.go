package testimony

import (
	"context"

	"github.com/openwitness/witness-backend/internal/domain/entity"
	"github.com/openwitness/witness-backend/internal/domain/repository"
	"github.com/openwitness/witness-backend/internal/pkg/apperror"
	"github.com/openwitness/witness-backend/internal/verification"
)

type Statistics struct {
	Total     int
	Verified  int
	Witnesses int
	Countries int
}

type StatisticsUseCase struct {
	testimonies repository.TestimonyStore
	witnesses   repository.IdentityStore
}

func NewStatisticsUseCase(testimonies repository.TestimonyStore, witnesses repository.IdentityStore) *StatisticsUseCase {
	return &StatisticsUseCase{testimonies: testimonies, witnesses: witnesses}
}

func (uc *StatisticsUseCase) Execute(ctx context.Context) (*Statistics, error) {
	all, err := listTestimonies(ctx, uc.testimonies)
	if err != nil {
		return nil, err
	}
	known, err := uc.witnesses.ListWitnesses(ctx)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить свидетелей")
	}

	stats := &Statistics{Total: len(all), Witnesses: len(known)}
	countries := make(map[string]struct{})
	for _, t := range all {
		if t.IsVerified() {
			stats.Verified++
		}
		country := t.Country
		if country == "" {
			country = "Unknown"
		}
		countries[country] = struct{}{}
	}
	stats.Countries = len(countries)
	return stats, nil
}

type TestimonyScore struct {
	TestimonyID string
	TrustScore  int
}

// TrustScoreUseCase считает балл доверия одного свидетельства.
type TrustScoreUseCase struct {
	testimonies repository.TestimonyStore
	witnesses   repository.IdentityStore
}

func NewTrustScoreUseCase(testimonies repository.TestimonyStore, witnesses repository.IdentityStore) *TrustScoreUseCase {
	return &TrustScoreUseCase{testimonies: testimonies, witnesses: witnesses}
}

func (uc *TrustScoreUseCase) Execute(ctx context.Context, testimonyID string) (TestimonyScore, error) {
	t, err := loadTestimony(ctx, uc.testimonies, testimonyID)
	if err != nil {
		return TestimonyScore{}, err
	}
	return uc.score(ctx, t)
}

// ExecuteMany считает баллы для набора id. Отсутствующие id пропускаются.
func (uc *TrustScoreUseCase) ExecuteMany(ctx context.Context, testimonyIDs []string) ([]TestimonyScore, error) {
	out := make([]TestimonyScore, 0, len(testimonyIDs))
	for _, id := range testimonyIDs {
		t, err := uc.testimonies.Get(ctx, id)
		if err != nil {
			return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить свидетельство")
		}
		if t == nil {
			continue
		}
		s, err := uc.score(ctx, t)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func (uc *TrustScoreUseCase) score(ctx context.Context, t *entity.Testimony) (TestimonyScore, error) {
	w, err := loadWitness(ctx, uc.witnesses, t.WitnessID)
	if err != nil {
		return TestimonyScore{}, err
	}
	return TestimonyScore{TestimonyID: t.ID, TrustScore: verification.TrustScore(t, w)}, nil
}
