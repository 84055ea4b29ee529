package verification

import "github.com/openwitness/witness-backend/internal/domain/entity"

type Badge string

const (
	BadgeVerified Badge = "verified"
	BadgeTrusted  Badge = "trusted"
	BadgeNew      Badge = "new"
	BadgeExpert   Badge = "expert"
	BadgeActive   Badge = "active"
)

// Badges возвращает значки профиля. Первым всегда идёт уровень доверия.
func Badges(w *entity.Witness) []Badge {
	var out []Badge
	switch {
	case w.Reputation >= 90:
		out = append(out, BadgeVerified)
	case w.Reputation >= MinReputationTrusted:
		out = append(out, BadgeTrusted)
	default:
		out = append(out, BadgeNew)
	}
	if w.VerifiedTestimonies >= 10 {
		out = append(out, BadgeExpert)
	}
	if w.TestimoniesSubmitted >= 5 {
		out = append(out, BadgeActive)
	}
	return out
}
