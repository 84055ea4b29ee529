package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/openwitness/witness-backend/internal/interface/http/response"
	"github.com/openwitness/witness-backend/internal/seed"
)

// SeedHandler загружает демонстрационные данные. Маршрут есть только в development.
type SeedHandler struct {
	seedService *seed.Service
}

func NewSeedHandler(seedService *seed.Service) *SeedHandler {
	return &SeedHandler{seedService: seedService}
}

// Seed POST /api/seed
func (h *SeedHandler) Seed(c *gin.Context) {
	res, err := h.seedService.SeedData(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, res)
}
