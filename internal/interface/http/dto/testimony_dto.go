package dto

import (
	"time"

	"github.com/openwitness/witness-backend/internal/domain/entity"
	"github.com/openwitness/witness-backend/internal/usecase/testimony"
	"github.com/openwitness/witness-backend/internal/verification"
)

type CreateTestimonyRequest struct {
	Title       string   `json:"title" binding:"required"`
	Description string   `json:"description" binding:"required"`
	Category    string   `json:"category" binding:"required"`
	Location    string   `json:"location" binding:"required"`
	Lat         *float64 `json:"lat"`
	Lng         *float64 `json:"lng"`
	Country     string   `json:"country"`
	WitnessID   string   `json:"witness_id"`
	WitnessName string   `json:"witness_name"`
	MediaRefs   []string `json:"media_refs"`
	Timestamp   *string  `json:"timestamp"`
}

type CorroborateRequest struct {
	WitnessID string `json:"witness_id" binding:"required"`
}

type FlagRequest struct {
	Reason     string `json:"reason" binding:"required"`
	ReporterID string `json:"reporter_id"`
}

type TrustScoresRequest struct {
	IDs []string `json:"ids" binding:"required"`
}

type CoordinatesDTO struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type TestimonyResponse struct {
	ID                 string          `json:"id"`
	Title              string          `json:"title"`
	Description        string          `json:"description"`
	Category           string          `json:"category"`
	Location           string          `json:"location"`
	Coordinates        *CoordinatesDTO `json:"coordinates"`
	Country            string          `json:"country"`
	Timestamp          time.Time       `json:"timestamp"`
	WitnessID          string          `json:"witness_id"`
	WitnessName        string          `json:"witness_name"`
	MediaRefs          []string        `json:"media_refs"`
	Corroborations     []string        `json:"corroborations"`
	VerificationStatus string          `json:"verification_status"`
	FlagCount          int             `json:"flag_count"`
	Hidden             bool            `json:"hidden"`
	Views              int             `json:"views"`
	Source             string          `json:"source,omitempty"`
	Automated          bool            `json:"automated"`
}

type CandidateResponse struct {
	TestimonyID string  `json:"testimony_id"`
	WitnessID   string  `json:"witness_id"`
	DistanceKm  float64 `json:"distance_km"`
	HoursApart  float64 `json:"hours_apart"`
	Similarity  float64 `json:"similarity"`
}

type SkippedResponse struct {
	TestimonyID string `json:"testimony_id"`
	Error       string `json:"error"`
}

type CreateTestimonyResponse struct {
	Testimony  TestimonyResponse   `json:"testimony"`
	Witness    *WitnessResponse    `json:"witness"`
	Candidates []CandidateResponse `json:"candidates"`
}

type CrossReferenceResponse struct {
	Testimony  TestimonyResponse   `json:"testimony"`
	Status     string              `json:"status"`
	Witness    *WitnessResponse    `json:"witness"`
	Candidates []CandidateResponse `json:"candidates"`
	Skipped    []SkippedResponse   `json:"skipped"`
}

type ViewResponse struct {
	Testimony  TestimonyResponse   `json:"testimony"`
	Witness    *WitnessResponse    `json:"witness"`
	Candidates []CandidateResponse `json:"candidates"`
	TrustScore int                 `json:"trust_score"`
}

type NearbyResponse struct {
	TestimonyResponse
	DistanceKm float64 `json:"distance_km"`
}

type TimelineDayResponse struct {
	Date        string              `json:"date"`
	Testimonies []TestimonyResponse `json:"testimonies"`
}

type TrustScoreResponse struct {
	TestimonyID string `json:"testimony_id"`
	TrustScore  int    `json:"trust_score"`
}

type StatisticsResponse struct {
	Total     int `json:"total"`
	Verified  int `json:"verified"`
	Witnesses int `json:"witnesses"`
	Countries int `json:"countries"`
}

func ToTestimonyResponse(t *entity.Testimony) TestimonyResponse {
	resp := TestimonyResponse{
		ID:                 t.ID,
		Title:              t.Title,
		Description:        t.Description,
		Category:           string(t.Category),
		Location:           t.Location,
		Country:            t.Country,
		Timestamp:          t.Timestamp,
		WitnessID:          t.WitnessID,
		WitnessName:        t.WitnessName,
		MediaRefs:          append([]string{}, t.Media...),
		Corroborations:     append([]string{}, t.Corroborations...),
		VerificationStatus: string(t.VerificationStatus),
		FlagCount:          len(t.Flags),
		Hidden:             t.Hidden,
		Views:              t.Views,
		Source:             t.Source,
		Automated:          t.Automated,
	}
	if t.Coordinates != nil {
		resp.Coordinates = &CoordinatesDTO{Lat: t.Coordinates.Lat, Lng: t.Coordinates.Lng}
	}
	return resp
}

func ToTestimonyResponses(items []*entity.Testimony) []TestimonyResponse {
	responses := make([]TestimonyResponse, 0, len(items))
	for _, t := range items {
		responses = append(responses, ToTestimonyResponse(t))
	}
	return responses
}

func ToCandidateResponses(candidates []verification.Candidate) []CandidateResponse {
	responses := make([]CandidateResponse, 0, len(candidates))
	for _, c := range candidates {
		responses = append(responses, CandidateResponse{
			TestimonyID: c.TestimonyID,
			WitnessID:   c.WitnessID,
			DistanceKm:  c.DistanceKm,
			HoursApart:  c.HoursApart,
			Similarity:  c.Similarity,
		})
	}
	return responses
}

func ToCreateTestimonyResponse(res *testimony.CreateTestimonyResult) CreateTestimonyResponse {
	return CreateTestimonyResponse{
		Testimony:  ToTestimonyResponse(res.Testimony),
		Witness:    ToWitnessResponse(res.Witness),
		Candidates: ToCandidateResponses(verification.SortBySimilarity(res.Scan.Candidates)),
	}
}

func ToCrossReferenceResponse(res *testimony.CrossReferenceResult) CrossReferenceResponse {
	skipped := make([]SkippedResponse, 0, len(res.Scan.Skipped))
	for _, s := range res.Scan.Skipped {
		skipped = append(skipped, SkippedResponse{TestimonyID: s.TestimonyID, Error: s.Err.Error()})
	}
	return CrossReferenceResponse{
		Testimony:  ToTestimonyResponse(res.Testimony),
		Status:     string(res.Status),
		Witness:    ToWitnessResponse(res.Witness),
		Candidates: ToCandidateResponses(verification.SortBySimilarity(res.Scan.Candidates)),
		Skipped:    skipped,
	}
}

func ToViewResponse(res *testimony.ViewResult) ViewResponse {
	return ViewResponse{
		Testimony:  ToTestimonyResponse(res.Testimony),
		Witness:    ToWitnessResponse(res.Witness),
		Candidates: ToCandidateResponses(res.Candidates),
		TrustScore: res.TrustScore,
	}
}

func ToNearbyResponses(items []testimony.NearbyTestimony) []NearbyResponse {
	responses := make([]NearbyResponse, 0, len(items))
	for _, n := range items {
		responses = append(responses, NearbyResponse{
			TestimonyResponse: ToTestimonyResponse(n.Testimony),
			DistanceKm:        n.DistanceKm,
		})
	}
	return responses
}

func ToTimelineResponses(days []testimony.TimelineDay) []TimelineDayResponse {
	responses := make([]TimelineDayResponse, 0, len(days))
	for _, d := range days {
		responses = append(responses, TimelineDayResponse{
			Date:        d.Date,
			Testimonies: ToTestimonyResponses(d.Testimonies),
		})
	}
	return responses
}

func ToTrustScoreResponses(scores []testimony.TestimonyScore) []TrustScoreResponse {
	responses := make([]TrustScoreResponse, 0, len(scores))
	for _, s := range scores {
		responses = append(responses, TrustScoreResponse{TestimonyID: s.TestimonyID, TrustScore: s.TrustScore})
	}
	return responses
}

func ToStatisticsResponse(s *testimony.Statistics) StatisticsResponse {
	return StatisticsResponse{
		Total:     s.Total,
		Verified:  s.Verified,
		Witnesses: s.Witnesses,
		Countries: s.Countries,
	}
}

// ParseTimestamp принимает RFC3339 или пустое значение.
func ParseTimestamp(raw *string) (time.Time, error) {
	if raw == nil || *raw == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, *raw)
}
