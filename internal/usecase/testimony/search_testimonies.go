package testimony

import (
	"context"
	"sort"
	"strings"

	"github.com/openwitness/witness-backend/internal/domain/entity"
	"github.com/openwitness/witness-backend/internal/domain/repository"
	"github.com/openwitness/witness-backend/internal/domain/valueobject"
	"github.com/openwitness/witness-backend/internal/pkg/apperror"
	"github.com/openwitness/witness-backend/internal/validation"
	"github.com/openwitness/witness-backend/internal/verification"
)

// DefaultNearbyRadiusKm — радиус поиска рядом, если он не задан.
const DefaultNearbyRadiusKm = 10.0

// SearchTestimoniesUseCase фильтрует набор и возвращает записи от новых к старым.
type SearchTestimoniesUseCase struct {
	testimonies repository.TestimonyStore
}

func NewSearchTestimoniesUseCase(testimonies repository.TestimonyStore) *SearchTestimoniesUseCase {
	return &SearchTestimoniesUseCase{testimonies: testimonies}
}

func (uc *SearchTestimoniesUseCase) Execute(ctx context.Context, filter repository.TestimonyFilter) ([]*entity.Testimony, error) {
	if err := validateFilter(filter); err != nil {
		return nil, err
	}
	all, err := listTestimonies(ctx, uc.testimonies)
	if err != nil {
		return nil, err
	}

	var out []*entity.Testimony
	for _, t := range all {
		if matches(t, filter) {
			out = append(out, t)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func validateFilter(f repository.TestimonyFilter) error {
	if f.Category != "" && !f.Category.IsValid() {
		return apperror.New(apperror.ErrCodeValidation, "некорректная категория")
	}
	if f.VerificationStatus != "" && !f.VerificationStatus.IsValid() {
		return apperror.New(apperror.ErrCodeValidation, "некорректный статус проверки")
	}
	if !f.DateFrom.IsZero() && !f.DateTo.IsZero() && f.DateTo.Before(f.DateFrom) {
		return apperror.New(apperror.ErrCodeValidation, "конец периода раньше начала")
	}
	if f.Center != nil {
		if err := f.Center.Validate(); err != nil {
			return err
		}
		if err := validation.ValidateRadius(f.RadiusKm); err != nil {
			return invalid(err)
		}
	}
	if err := validation.ValidateLength("запрос", f.Query, 0, validation.MaxSearchQueryLength); err != nil {
		return invalid(err)
	}
	return nil
}

func matches(t *entity.Testimony, f repository.TestimonyFilter) bool {
	if t.Hidden && !f.IncludeHidden {
		return false
	}
	if f.Category != "" && t.Category != f.Category {
		return false
	}
	if f.VerificationStatus != "" && t.VerificationStatus != f.VerificationStatus {
		return false
	}
	if !f.DateFrom.IsZero() && t.Timestamp.Before(f.DateFrom) {
		return false
	}
	if !f.DateTo.IsZero() && t.Timestamp.After(f.DateTo) {
		return false
	}
	if f.Location != "" && !containsFold(t.Location, f.Location) {
		return false
	}
	if f.Center != nil {
		point, err := t.Comparable()
		if err != nil || verification.DistanceKm(*f.Center, point) > f.RadiusKm {
			return false
		}
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		if !containsFold(t.Title, q) && !containsFold(t.Description, q) && !containsFold(t.Location, q) {
			return false
		}
	}
	return true
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func sortNewestFirst(items []*entity.Testimony) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Timestamp.After(items[j].Timestamp)
	})
}

type NearbyTestimony struct {
	Testimony  *entity.Testimony
	DistanceKm float64
}

// NearbyTestimoniesUseCase ищет видимые свидетельства в радиусе от точки.
type NearbyTestimoniesUseCase struct {
	testimonies repository.TestimonyStore
}

func NewNearbyTestimoniesUseCase(testimonies repository.TestimonyStore) *NearbyTestimoniesUseCase {
	return &NearbyTestimoniesUseCase{testimonies: testimonies}
}

// Execute возвращает записи по возрастанию расстояния. radiusKm <= 0 означает радиус по умолчанию.
func (uc *NearbyTestimoniesUseCase) Execute(ctx context.Context, center valueobject.Coordinates, radiusKm float64) ([]NearbyTestimony, error) {
	if err := center.Validate(); err != nil {
		return nil, err
	}
	if radiusKm <= 0 {
		radiusKm = DefaultNearbyRadiusKm
	}
	if err := validation.ValidateRadius(radiusKm); err != nil {
		return nil, invalid(err)
	}

	all, err := listTestimonies(ctx, uc.testimonies)
	if err != nil {
		return nil, err
	}

	var out []NearbyTestimony
	for _, t := range all {
		if t.Hidden {
			continue
		}
		point, err := t.Comparable()
		if err != nil {
			continue
		}
		if d := verification.DistanceKm(center, point); d <= radiusKm {
			out = append(out, NearbyTestimony{Testimony: t, DistanceKm: d})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DistanceKm < out[j].DistanceKm })
	return out, nil
}

type TimelineDay struct {
	Date        string
	Testimonies []*entity.Testimony
}

// TimelineUseCase группирует отфильтрованные свидетельства по календарным дням (UTC).
type TimelineUseCase struct {
	search *SearchTestimoniesUseCase
}

func NewTimelineUseCase(search *SearchTestimoniesUseCase) *TimelineUseCase {
	return &TimelineUseCase{search: search}
}

func (uc *TimelineUseCase) Execute(ctx context.Context, filter repository.TestimonyFilter) ([]TimelineDay, error) {
	items, err := uc.search.Execute(ctx, filter)
	if err != nil {
		return nil, err
	}

	var days []TimelineDay
	index := make(map[string]int)
	for _, t := range items {
		day := t.Timestamp.UTC().Format("2006-01-02")
		i, ok := index[day]
		if !ok {
			i = len(days)
			index[day] = i
			days = append(days, TimelineDay{Date: day})
		}
		days[i].Testimonies = append(days[i].Testimonies, t)
	}
	return days, nil
}
