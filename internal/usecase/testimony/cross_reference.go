package testimony

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/openwitness/witness-backend/internal/domain/entity"
	"github.com/openwitness/witness-backend/internal/domain/repository"
	"github.com/openwitness/witness-backend/internal/domain/valueobject"
	"github.com/openwitness/witness-backend/internal/logger"
	"github.com/openwitness/witness-backend/internal/pkg/keylock"
	"github.com/openwitness/witness-backend/internal/verification"
)

type CrossReferenceResult struct {
	Testimony *entity.Testimony
	Scan      verification.CorroborationScan
	Status    valueobject.VerificationStatus
	Witness   *entity.Witness
}

// CrossReferenceUseCase ищет подтверждения полным проходом по набору,
// добавляет найденных свидетелей и заново классифицирует свидетельство.
type CrossReferenceUseCase struct {
	testimonies repository.TestimonyStore
	witnesses   repository.IdentityStore
	locks       *keylock.Mutex
}

func NewCrossReferenceUseCase(testimonies repository.TestimonyStore, witnesses repository.IdentityStore, locks *keylock.Mutex) *CrossReferenceUseCase {
	return &CrossReferenceUseCase{testimonies: testimonies, witnesses: witnesses, locks: locks}
}

func (uc *CrossReferenceUseCase) Execute(ctx context.Context, testimonyID string) (*CrossReferenceResult, error) {
	unlock := uc.locks.Lock(testimonyID)
	defer unlock()

	target, err := loadTestimony(ctx, uc.testimonies, testimonyID)
	if err != nil {
		return nil, err
	}
	all, err := listTestimonies(ctx, uc.testimonies)
	if err != nil {
		return nil, err
	}

	scan, err := verification.FindCorroborations(target, all)
	if err != nil {
		return nil, err
	}
	logSkipped(testimonyID, scan.Skipped)

	target.MergeCorroborations(scan.WitnessIDs())

	w, err := loadWitness(ctx, uc.witnesses, target.WitnessID)
	if err != nil {
		return nil, err
	}
	reputation := 0
	if w != nil {
		reputation = w.Reputation
	}
	status := verification.Classify(len(target.Corroborations), reputation)

	corroborations := target.Corroborations
	updated, err := updateTestimony(ctx, uc.testimonies, testimonyID, entity.TestimonyPatch{
		Corroborations:     &corroborations,
		VerificationStatus: &status,
	})
	if err != nil {
		return nil, err
	}

	return &CrossReferenceResult{Testimony: updated, Scan: scan, Status: status, Witness: w}, nil
}

func logSkipped(testimonyID string, skipped []verification.SkippedRecord) {
	for _, s := range skipped {
		logger.Component("cross-reference").WithFields(logrus.Fields{
			"testimony_id": testimonyID,
			"skipped_id":   s.TestimonyID,
		}).WithError(s.Err).Warn("запись исключена из сравнения")
	}
}

// FindCorroborationsUseCase возвращает кандидатов без изменения данных.
type FindCorroborationsUseCase struct {
	testimonies repository.TestimonyStore
}

func NewFindCorroborationsUseCase(testimonies repository.TestimonyStore) *FindCorroborationsUseCase {
	return &FindCorroborationsUseCase{testimonies: testimonies}
}

func (uc *FindCorroborationsUseCase) Execute(ctx context.Context, testimonyID string) (verification.CorroborationScan, error) {
	target, err := loadTestimony(ctx, uc.testimonies, testimonyID)
	if err != nil {
		return verification.CorroborationScan{}, err
	}
	all, err := listTestimonies(ctx, uc.testimonies)
	if err != nil {
		return verification.CorroborationScan{}, err
	}
	scan, err := verification.FindCorroborations(target, all)
	if err != nil {
		return verification.CorroborationScan{}, err
	}
	logSkipped(testimonyID, scan.Skipped)
	return scan, nil
}
