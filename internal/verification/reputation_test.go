package verification

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/openwitness/witness-backend/internal/domain/entity"
	"github.com/openwitness/witness-backend/internal/domain/valueobject"
)

func TestComputeReputation_NoHistoryIsZero(t *testing.T) {
	other := testimony("x", "someone-else", 50, 30, baseTime)

	res := ComputeReputation("w1", []*entity.Testimony{other})

	assert.Equal(t, ReputationResult{}, res)
}

func TestComputeReputation_Formula(t *testing.T) {
	verified := testimony("a", "w1", 50, 30, baseTime)
	verified.VerificationStatus = valueobject.VerificationVerified
	verified.Corroborations = []string{"w2", "w3"}

	flagged := testimony("b", "w1", 50, 30, baseTime)
	flagged.Flags = []entity.Flag{{Reason: "spam", ReporterID: "w9", CreatedAt: baseTime}}

	plain := testimony("c", "w1", 50, 30, baseTime)

	res := ComputeReputation("w1", []*entity.Testimony{verified, flagged, plain})

	// 50 + 10 + 2*5 + min(20, 3*2) - 15
	assert.Equal(t, 61, res.Reputation)
	assert.Equal(t, 3, res.Submitted)
	assert.Equal(t, 1, res.Verified)
}

func TestComputeReputation_Clamped(t *testing.T) {
	var high, low []*entity.Testimony
	for i := 0; i < 12; i++ {
		h := testimony("h", "hi", 50, 30, baseTime)
		h.VerificationStatus = valueobject.VerificationVerified
		h.Corroborations = []string{"x", "y", "z"}
		high = append(high, h)

		l := testimony("l", "lo", 50, 30, baseTime.Add(time.Duration(i)*time.Hour))
		l.Flags = []entity.Flag{{Reason: "fake"}}
		low = append(low, l)
	}

	assert.Equal(t, 100, ComputeReputation("hi", high).Reputation)
	assert.Equal(t, 0, ComputeReputation("lo", low).Reputation)
	assert.Equal(t, 12, ComputeReputation("lo", low).Submitted)
}

func TestComputeReputation_Idempotent(t *testing.T) {
	a := testimony("a", "w1", 50, 30, baseTime)
	a.Corroborations = []string{"w2"}
	all := []*entity.Testimony{a}

	assert.Equal(t, ComputeReputation("w1", all), ComputeReputation("w1", all))
}
