package verification

import (
	"sort"

	"github.com/openwitness/witness-backend/internal/domain/entity"
	"github.com/openwitness/witness-backend/internal/pkg/apperror"
)

const (
	ProximityThresholdKm = 5.0
	TimeWindowHours      = 48.0
)

// Candidate — свидетельство, которое может описывать то же событие.
type Candidate struct {
	TestimonyID string
	WitnessID   string
	DistanceKm  float64
	HoursApart  float64
	Similarity  float64
}

// SkippedRecord — запись, исключённая из сравнения из-за некорректных данных.
type SkippedRecord struct {
	TestimonyID string
	Err         error
}

type CorroborationScan struct {
	Candidates []Candidate
	Skipped    []SkippedRecord
}

// WitnessIDs возвращает авторов кандидатов в порядке обхода.
func (s CorroborationScan) WitnessIDs() []string {
	ids := make([]string, 0, len(s.Candidates))
	for _, c := range s.Candidates {
		ids = append(ids, c.WitnessID)
	}
	return ids
}

// FindCorroborations полным проходом ищет подтверждения target среди all.
// Кандидаты идут в порядке all. Некорректная запись попадает в Skipped
// и не прерывает проход. Несравнимый target даёт пустой результат,
// а сам попадает в Skipped.
func FindCorroborations(target *entity.Testimony, all []*entity.Testimony) (CorroborationScan, error) {
	var scan CorroborationScan
	if target == nil {
		return scan, apperror.New(apperror.ErrCodeInvalidInput, "не задано свидетельство для сравнения")
	}
	origin, err := target.Comparable()
	if err != nil {
		scan.Skipped = append(scan.Skipped, SkippedRecord{TestimonyID: target.ID, Err: err})
		return scan, nil
	}

	for _, other := range all {
		if other == nil || other.ID == target.ID {
			continue
		}
		point, err := other.Comparable()
		if err != nil {
			scan.Skipped = append(scan.Skipped, SkippedRecord{TestimonyID: other.ID, Err: err})
			continue
		}

		distance := DistanceKm(origin, point)
		hours := HoursBetween(target.Timestamp, other.Timestamp)
		if distance > ProximityThresholdKm || hours > TimeWindowHours {
			continue
		}
		if other.Category != target.Category {
			continue
		}

		scan.Candidates = append(scan.Candidates, Candidate{
			TestimonyID: other.ID,
			WitnessID:   other.WitnessID,
			DistanceKm:  distance,
			HoursApart:  hours,
			Similarity:  Similarity(target, other),
		})
	}
	return scan, nil
}

// SortBySimilarity упорядочивает кандидатов для показа, самые похожие первыми.
func SortBySimilarity(candidates []Candidate) []Candidate {
	out := make([]Candidate, len(candidates))
	copy(out, candidates)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Similarity > out[j].Similarity
	})
	return out
}
