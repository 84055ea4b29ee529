package verification

import (
	"time"

	"github.com/openwitness/witness-backend/internal/domain/entity"
	"github.com/openwitness/witness-backend/internal/domain/valueobject"
)

var baseTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func testimony(id, witness string, lat, lng float64, at time.Time) *entity.Testimony {
	return &entity.Testimony{
		ID:                 id,
		Title:              "Shelling reported",
		Description:        "Heavy shelling damaged residential buildings near the railway station",
		Category:           valueobject.CategorySecurity,
		Coordinates:        &valueobject.Coordinates{Lat: lat, Lng: lng},
		Timestamp:          at,
		WitnessID:          witness,
		VerificationStatus: valueobject.VerificationNew,
	}
}
