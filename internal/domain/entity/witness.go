package entity

import "time"

const (
	MinReputation = 0
	MaxReputation = 100
)

// Witness — псевдонимный автор или подтверждающий свидетельств.
// Счётчики производные: их переписывает только пересчёт репутации.
type Witness struct {
	ID                   string
	Reputation           int
	TestimoniesSubmitted int
	VerifiedTestimonies  int
	JoinedAt             time.Time
}

func NewWitness(id string, joinedAt time.Time) *Witness {
	return &Witness{ID: id, JoinedAt: joinedAt}
}

// ApplyReputation перезаписывает производные поля результатом полного пересчёта.
func (w *Witness) ApplyReputation(reputation, submitted, verified int) {
	w.Reputation = ClampReputation(reputation)
	w.TestimoniesSubmitted = submitted
	w.VerifiedTestimonies = verified
}

func (w *Witness) Clone() *Witness {
	if w == nil {
		return nil
	}
	c := *w
	return &c
}

func ClampReputation(v int) int {
	if v < MinReputation {
		return MinReputation
	}
	if v > MaxReputation {
		return MaxReputation
	}
	return v
}
