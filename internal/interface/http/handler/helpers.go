package handler

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/openwitness/witness-backend/internal/domain/repository"
	"github.com/openwitness/witness-backend/internal/domain/valueobject"
	"github.com/openwitness/witness-backend/internal/pkg/apperror"
	"github.com/openwitness/witness-backend/internal/usecase/testimony"
)

func parseFloatQuery(c *gin.Context, key string) (*float64, error) {
	valueStr := c.Query(key)
	if valueStr == "" {
		return nil, nil
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return nil, apperror.Newf(apperror.ErrCodeBadRequest, "параметр %s должен быть числом", key)
	}

	return &value, nil
}

// parseDateQuery принимает RFC3339 или дату YYYY-MM-DD. Дата в to включает весь день.
func parseDateQuery(c *gin.Context, key string, endOfDay bool) (time.Time, error) {
	valueStr := c.Query(key)
	if valueStr == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, valueStr); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", valueStr)
	if err != nil {
		return time.Time{}, apperror.Newf(apperror.ErrCodeBadRequest, "параметр %s должен быть датой", key)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}

func parseCenter(c *gin.Context) (*valueobject.Coordinates, error) {
	lat, err := parseFloatQuery(c, "lat")
	if err != nil {
		return nil, err
	}
	lng, err := parseFloatQuery(c, "lng")
	if err != nil {
		return nil, err
	}
	if lat == nil && lng == nil {
		return nil, nil
	}
	if lat == nil || lng == nil {
		return nil, apperror.New(apperror.ErrCodeBadRequest, "lat и lng задаются вместе")
	}
	coords, err := valueobject.NewCoordinates(*lat, *lng)
	if err != nil {
		return nil, err
	}
	return &coords, nil
}

func parseFilter(c *gin.Context) (repository.TestimonyFilter, error) {
	var filter repository.TestimonyFilter

	filter.Query = strings.TrimSpace(c.Query("q"))
	filter.Category = valueobject.Category(strings.ToLower(c.Query("category")))
	filter.VerificationStatus = valueobject.VerificationStatus(strings.ToLower(c.Query("status")))
	filter.Location = c.Query("location")

	var err error
	if filter.DateFrom, err = parseDateQuery(c, "from", false); err != nil {
		return filter, err
	}
	if filter.DateTo, err = parseDateQuery(c, "to", true); err != nil {
		return filter, err
	}
	if filter.Center, err = parseCenter(c); err != nil {
		return filter, err
	}
	radius, err := parseFloatQuery(c, "radius")
	if err != nil {
		return filter, err
	}
	if radius != nil {
		filter.RadiusKm = *radius
	} else if filter.Center != nil {
		filter.RadiusKm = testimony.DefaultNearbyRadiusKm
	}
	if v := c.Query("include_hidden"); v != "" {
		if filter.IncludeHidden, err = strconv.ParseBool(v); err != nil {
			return filter, apperror.New(apperror.ErrCodeBadRequest, "параметр include_hidden должен быть true или false")
		}
	}
	return filter, nil
}
