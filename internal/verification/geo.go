package verification

import (
	"math"
	"time"

	"github.com/openwitness/witness-backend/internal/domain/valueobject"
)

// EarthRadiusKm — средний радиус Земли для формулы гаверсинусов.
const EarthRadiusKm = 6371.0

// DistanceKm возвращает расстояние по большому кругу между точками.
func DistanceKm(a, b valueobject.Coordinates) float64 {
	dLat := toRadians(b.Lat - a.Lat)
	dLng := toRadians(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(a.Lat))*math.Cos(toRadians(b.Lat))*math.Sin(dLng/2)*math.Sin(dLng/2)
	// ошибки округления могут вывести h за [0,1]
	h = math.Min(1, math.Max(0, h))

	return EarthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// HoursBetween возвращает модуль разницы между моментами в часах.
func HoursBetween(t1, t2 time.Time) float64 {
	return math.Abs(t1.Sub(t2).Hours())
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
