package testimony

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/openwitness/witness-backend/internal/domain/entity"
	"github.com/openwitness/witness-backend/internal/domain/repository"
	"github.com/openwitness/witness-backend/internal/pkg/apperror"
)

type ExportFormat string

const (
	ExportJSON ExportFormat = "json"
	ExportCSV  ExportFormat = "csv"
)

// ParseExportFormat принимает json или csv, пустое значение означает json.
func ParseExportFormat(s string) (ExportFormat, error) {
	switch f := ExportFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return ExportJSON, nil
	case ExportJSON, ExportCSV:
		return f, nil
	default:
		return "", apperror.New(apperror.ErrCodeValidation, "формат выгрузки должен быть json или csv")
	}
}

type Export struct {
	Testimonies []*entity.Testimony
	Witnesses   []*entity.Witness
	ExportedAt  time.Time
}

// ExportTestimoniesUseCase собирает выгрузку: свидетельства по фильтру
// от новых к старым и все известные свидетели.
type ExportTestimoniesUseCase struct {
	search    *SearchTestimoniesUseCase
	witnesses repository.IdentityStore
	now       func() time.Time
}

func NewExportTestimoniesUseCase(search *SearchTestimoniesUseCase, witnesses repository.IdentityStore) *ExportTestimoniesUseCase {
	return &ExportTestimoniesUseCase{
		search:    search,
		witnesses: witnesses,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (uc *ExportTestimoniesUseCase) Execute(ctx context.Context, filter repository.TestimonyFilter) (*Export, error) {
	items, err := uc.search.Execute(ctx, filter)
	if err != nil {
		return nil, err
	}

	witnesses, err := uc.witnesses.ListWitnesses(ctx)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить свидетелей")
	}
	sort.Slice(witnesses, func(i, j int) bool { return witnesses[i].ID < witnesses[j].ID })

	return &Export{
		Testimonies: items,
		Witnesses:   witnesses,
		ExportedAt:  uc.now(),
	}, nil
}
