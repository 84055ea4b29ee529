package verification

import (
	"github.com/openwitness/witness-backend/internal/domain/entity"
)

const (
	baseReputation       = 50
	verifiedBonus        = 10
	corroborationBonus   = 5
	activityBonusPerItem = 2
	maxActivityBonus     = 20
	flaggedPenalty       = 15
)

type ReputationResult struct {
	Reputation int
	Submitted  int
	Verified   int
}

// ComputeReputation пересчитывает репутацию свидетеля по всему набору свидетельств.
// Без собственных свидетельств репутация равна 0.
func ComputeReputation(witnessID string, all []*entity.Testimony) ReputationResult {
	var (
		submitted      int
		verified       int
		corroborations int
		flagged        int
	)
	for _, t := range all {
		if t == nil || t.WitnessID != witnessID {
			continue
		}
		submitted++
		if t.IsVerified() {
			verified++
		}
		corroborations += len(t.Corroborations)
		if t.IsFlagged() {
			flagged++
		}
	}

	if submitted == 0 {
		return ReputationResult{}
	}

	score := baseReputation +
		verified*verifiedBonus +
		corroborations*corroborationBonus +
		min(maxActivityBonus, submitted*activityBonusPerItem) -
		flagged*flaggedPenalty

	return ReputationResult{
		Reputation: entity.ClampReputation(score),
		Submitted:  submitted,
		Verified:   verified,
	}
}
