package dto

import (
	"time"

	"github.com/openwitness/witness-backend/internal/domain/entity"
	"github.com/openwitness/witness-backend/internal/media"
	"github.com/openwitness/witness-backend/internal/verification"
)

type WitnessResponse struct {
	ID                   string    `json:"id"`
	Reputation           int       `json:"reputation"`
	TestimoniesSubmitted int       `json:"testimonies_submitted"`
	VerifiedTestimonies  int       `json:"verified_testimonies"`
	JoinedAt             time.Time `json:"joined_at"`
	Badges               []string  `json:"badges"`
}

type MediaResponse struct {
	Ref         string `json:"ref"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// ToWitnessResponse возвращает nil для неизвестного свидетеля.
func ToWitnessResponse(w *entity.Witness) *WitnessResponse {
	if w == nil {
		return nil
	}
	badges := verification.Badges(w)
	resp := &WitnessResponse{
		ID:                   w.ID,
		Reputation:           w.Reputation,
		TestimoniesSubmitted: w.TestimoniesSubmitted,
		VerifiedTestimonies:  w.VerifiedTestimonies,
		JoinedAt:             w.JoinedAt,
		Badges:               make([]string, 0, len(badges)),
	}
	for _, b := range badges {
		resp.Badges = append(resp.Badges, string(b))
	}
	return resp
}

func ToMediaResponse(a *media.Attachment) MediaResponse {
	return MediaResponse{Ref: a.Ref, ContentType: a.ContentType, Size: a.Size}
}
