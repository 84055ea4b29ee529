package testimony

import (
	"context"
	"strings"
	"time"

	"github.com/openwitness/witness-backend/internal/domain/entity"
	"github.com/openwitness/witness-backend/internal/domain/repository"
	"github.com/openwitness/witness-backend/internal/domain/valueobject"
	"github.com/openwitness/witness-backend/internal/pkg/apperror"
	"github.com/openwitness/witness-backend/internal/validation"
	"github.com/openwitness/witness-backend/internal/verification"
)

type CreateTestimonyInput struct {
	ID          string
	Title       string
	Description string
	Category    string
	Location    string
	Lat         *float64
	Lng         *float64
	Country     string
	WitnessID   string
	WitnessName string
	Media       []string
	Source      string
	Automated   bool
	Timestamp   time.Time
}

type CreateTestimonyResult struct {
	Testimony *entity.Testimony
	Witness   *entity.Witness
	Scan      verification.CorroborationScan
}

// CreateTestimonyUseCase сохраняет свидетельство, затем проводит перекрёстную
// проверку и пересчитывает репутацию автора.
type CreateTestimonyUseCase struct {
	testimonies repository.TestimonyStore
	crossRef    *CrossReferenceUseCase
	reputation  ReputationRecomputer
	precision   float64
}

func NewCreateTestimonyUseCase(
	testimonies repository.TestimonyStore,
	crossRef *CrossReferenceUseCase,
	reputation ReputationRecomputer,
) *CreateTestimonyUseCase {
	return &CreateTestimonyUseCase{
		testimonies: testimonies,
		crossRef:    crossRef,
		reputation:  reputation,
		precision:   valueobject.DefaultPrecision,
	}
}

func (uc *CreateTestimonyUseCase) Execute(ctx context.Context, input CreateTestimonyInput) (*CreateTestimonyResult, error) {
	params, err := uc.prepare(input)
	if err != nil {
		return nil, err
	}

	if params.ID != "" {
		existing, err := uc.testimonies.Get(ctx, params.ID)
		if err != nil {
			return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось проверить свидетельство")
		}
		if existing != nil {
			return nil, apperror.Newf(apperror.ErrCodeConflict, "свидетельство %s уже существует", params.ID)
		}
	}

	t, err := entity.NewTestimony(params)
	if err != nil {
		return nil, err
	}

	if _, err := uc.testimonies.Save(ctx, t); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось сохранить свидетельство")
	}

	ref, err := uc.crossRef.Execute(ctx, t.ID)
	if err != nil {
		return nil, err
	}

	w, err := uc.reputation.Execute(ctx, t.WitnessID)
	if err != nil {
		return nil, err
	}

	return &CreateTestimonyResult{Testimony: ref.Testimony, Witness: w, Scan: ref.Scan}, nil
}

func (uc *CreateTestimonyUseCase) prepare(input CreateTestimonyInput) (entity.NewTestimonyParams, error) {
	if err := validation.ValidateTestimonyTitle(input.Title); err != nil {
		return entity.NewTestimonyParams{}, invalid(err)
	}
	if err := validation.ValidateTestimonyDescription(input.Description); err != nil {
		return entity.NewTestimonyParams{}, invalid(err)
	}
	category, err := valueobject.NewCategory(strings.TrimSpace(input.Category))
	if err != nil {
		return entity.NewTestimonyParams{}, err
	}
	if err := validation.ValidateLocation(input.Location); err != nil {
		return entity.NewTestimonyParams{}, invalid(err)
	}
	if input.Lat == nil || input.Lng == nil {
		return entity.NewTestimonyParams{}, apperror.New(apperror.ErrCodeValidation, "координаты обязательны")
	}
	coords, err := valueobject.NewCoordinates(*input.Lat, *input.Lng)
	if err != nil {
		return entity.NewTestimonyParams{}, err
	}
	if err := validation.ValidateWitnessName(input.WitnessName); err != nil {
		return entity.NewTestimonyParams{}, invalid(err)
	}
	if err := validation.ValidateMediaRefs(input.Media); err != nil {
		return entity.NewTestimonyParams{}, invalid(err)
	}

	witnessID := strings.TrimSpace(input.WitnessID)
	if witnessID == "" {
		witnessID = entity.NewWitnessID()
	}

	return entity.NewTestimonyParams{
		ID:          input.ID,
		Title:       validation.SanitizeText(input.Title),
		Description: validation.SanitizeText(input.Description),
		Category:    category,
		Location:    validation.SanitizeText(input.Location),
		Coordinates: coords.Coarsen(uc.precision),
		Country:     validation.SanitizeText(input.Country),
		WitnessID:   witnessID,
		WitnessName: validation.SanitizeText(input.WitnessName),
		Media:       input.Media,
		Source:      input.Source,
		Automated:   input.Automated,
		Timestamp:   input.Timestamp,
	}, nil
}
