package dto

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/openwitness/witness-backend/internal/domain/entity"
	"github.com/openwitness/witness-backend/internal/usecase/testimony"
)

type ExportResponse struct {
	ExportedAt  time.Time           `json:"exported_at"`
	Testimonies []TestimonyResponse `json:"testimonies"`
	Witnesses   []WitnessResponse   `json:"witnesses"`
}

func ToExportResponse(e *testimony.Export) ExportResponse {
	resp := ExportResponse{
		ExportedAt:  e.ExportedAt,
		Testimonies: ToTestimonyResponses(e.Testimonies),
		Witnesses:   make([]WitnessResponse, 0, len(e.Witnesses)),
	}
	for _, w := range e.Witnesses {
		if r := ToWitnessResponse(w); r != nil {
			resp.Witnesses = append(resp.Witnesses, *r)
		}
	}
	return resp
}

var csvHeader = []string{
	"id", "title", "description", "category", "location", "lat", "lng", "country",
	"timestamp", "witness_id", "witness_name", "verification_status", "corroborations",
	"media_refs", "flag_count", "hidden", "views", "source", "automated",
}

// WriteCSV пишет свидетельства построчно. Списки разделяются ";",
// у записи без координат поля lat и lng пустые.
func WriteCSV(w io.Writer, items []*entity.Testimony) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, t := range items {
		lat, lng := "", ""
		if t.Coordinates != nil {
			lat = strconv.FormatFloat(t.Coordinates.Lat, 'f', -1, 64)
			lng = strconv.FormatFloat(t.Coordinates.Lng, 'f', -1, 64)
		}
		record := []string{
			t.ID,
			t.Title,
			t.Description,
			string(t.Category),
			t.Location,
			lat,
			lng,
			t.Country,
			t.Timestamp.UTC().Format(time.RFC3339),
			t.WitnessID,
			t.WitnessName,
			string(t.VerificationStatus),
			strings.Join(t.Corroborations, ";"),
			strings.Join(t.Media, ";"),
			strconv.Itoa(len(t.Flags)),
			strconv.FormatBool(t.Hidden),
			strconv.Itoa(t.Views),
			t.Source,
			strconv.FormatBool(t.Automated),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func ExportFilename(format testimony.ExportFormat, at time.Time) string {
	return fmt.Sprintf("testimonies-export-%d.%s", at.Unix(), format)
}
