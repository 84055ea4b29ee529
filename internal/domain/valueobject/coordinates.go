package valueobject

import (
	"math"

	"github.com/paulmach/orb"

	"github.com/openwitness/witness-backend/internal/pkg/apperror"
)

// DefaultPrecision огрубляет координаты примерно до 1 км.
const DefaultPrecision = 0.01

// Coordinates — географическая точка в градусах.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func NewCoordinates(lat, lng float64) (Coordinates, error) {
	c := Coordinates{Lat: lat, Lng: lng}
	if err := c.Validate(); err != nil {
		return Coordinates{}, err
	}
	return c, nil
}

// Validate проверяет, что точка пригодна для сравнения.
func (c Coordinates) Validate() error {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lng) || math.IsInf(c.Lat, 0) || math.IsInf(c.Lng, 0) {
		return apperror.ErrInvalidCoordinates
	}
	if c.Lat < -90 || c.Lat > 90 || c.Lng < -180 || c.Lng > 180 {
		return apperror.ErrInvalidCoordinates
	}
	return nil
}

// Coarsen округляет координаты до сетки precision для защиты приватности автора.
func (c Coordinates) Coarsen(precision float64) Coordinates {
	if precision <= 0 {
		return c
	}
	return Coordinates{
		Lat: math.Round(c.Lat/precision) * precision,
		Lng: math.Round(c.Lng/precision) * precision,
	}
}

// Point переводит координаты в orb.Point (порядок lng, lat).
func (c Coordinates) Point() orb.Point {
	return orb.Point{c.Lng, c.Lat}
}
