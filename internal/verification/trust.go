package verification

import (
	"math"

	"github.com/openwitness/witness-backend/internal/domain/entity"
)

// TrustScore считает отображаемый балл доверия 0..100.
// witness может быть nil, тогда вклад репутации нулевой.
func TrustScore(t *entity.Testimony, witness *entity.Witness) int {
	score := 0.0
	if witness != nil {
		score += float64(witness.Reputation) / 100 * 40
	}
	score += math.Min(30, float64(len(t.Corroborations))*10)
	score += math.Min(15, float64(len(t.Media))*5)

	switch n := len([]rune(t.Description)); {
	case n > 100:
		score += 15
	case n > 50:
		score += 10
	}

	return entity.ClampReputation(int(math.Round(score)))
}
