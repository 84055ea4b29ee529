package verification

import (
	"math"
	"strings"

	"github.com/openwitness/witness-backend/internal/domain/entity"
)

const (
	categoryWeight   = 30.0
	proximityWeight  = 30.0
	proximityPerKm   = 6.0
	recencyWeight    = 20.0
	lexicalWeight    = 20.0
	lexicalPerCommon = 4.0

	maxKeywords   = 10
	minKeywordLen = 4
)

var stopWords = map[string]struct{}{
	"el": {}, "la": {}, "de": {}, "en": {}, "y": {}, "a": {}, "los": {}, "las": {},
	"un": {}, "una": {}, "por": {}, "con": {}, "para": {}, "es": {}, "está": {}, "son": {},
	"the": {}, "an": {}, "and": {}, "or": {}, "but": {}, "in": {}, "on": {}, "at": {},
	"to": {}, "for": {},
}

// Similarity оценивает от 0 до 100, насколько два свидетельства похожи на одно событие.
// Отсутствующие координаты, время или описание дают нулевой вклад.
func Similarity(a, b *entity.Testimony) float64 {
	score := 0.0

	if a.Category == b.Category {
		score += categoryWeight
	}

	ca, errA := a.Comparable()
	cb, errB := b.Comparable()
	if errA == nil && errB == nil {
		score += math.Max(0, proximityWeight-DistanceKm(ca, cb)*proximityPerKm)
		score += math.Max(0, recencyWeight-HoursBetween(a.Timestamp, b.Timestamp))
	}

	common := CommonKeywords(Keywords(a.Description), Keywords(b.Description))
	score += math.Min(lexicalWeight, float64(common)*lexicalPerCommon)

	return math.Min(100, math.Max(0, score))
}

// Keywords возвращает первые значимые слова описания.
// Регистр понижается, короткие слова и стоп-слова отбрасываются.
func Keywords(text string) []string {
	var out []string
	for _, token := range strings.Fields(strings.ToLower(text)) {
		if len([]rune(token)) < minKeywordLen {
			continue
		}
		if _, stop := stopWords[token]; stop {
			continue
		}
		out = append(out, token)
		if len(out) == maxKeywords {
			break
		}
	}
	return out
}

// CommonKeywords считает слова первого списка, встречающиеся во втором.
// Повторы в первом списке учитываются каждый раз.
func CommonKeywords(first, second []string) int {
	set := make(map[string]struct{}, len(second))
	for _, w := range second {
		set[w] = struct{}{}
	}
	n := 0
	for _, w := range first {
		if _, ok := set[w]; ok {
			n++
		}
	}
	return n
}
