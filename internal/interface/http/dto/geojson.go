package dto

import (
	"github.com/paulmach/orb/geojson"

	"github.com/openwitness/witness-backend/internal/domain/entity"
)

// ToFeatureCollection строит карту свидетельств. Записи без координат пропускаются.
func ToFeatureCollection(items []*entity.Testimony) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, t := range items {
		if t.Coordinates == nil {
			continue
		}
		f := geojson.NewFeature(t.Coordinates.Point())
		f.ID = t.ID
		f.Properties["title"] = t.Title
		f.Properties["category"] = string(t.Category)
		f.Properties["location"] = t.Location
		f.Properties["country"] = t.Country
		f.Properties["timestamp"] = t.Timestamp
		f.Properties["verification_status"] = string(t.VerificationStatus)
		f.Properties["corroborations"] = len(t.Corroborations)
		f.Properties["automated"] = t.Automated
		fc.Append(f)
	}
	return fc
}
