package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/openwitness/witness-backend/internal/interface/http/dto"
	"github.com/openwitness/witness-backend/internal/interface/http/response"
	"github.com/openwitness/witness-backend/internal/usecase/witness"
)

type WitnessHandler struct {
	getProfileUC *witness.GetProfileUseCase
	recomputeUC  *witness.RecomputeReputationUseCase
}

func NewWitnessHandler(getProfileUC *witness.GetProfileUseCase, recomputeUC *witness.RecomputeReputationUseCase) *WitnessHandler {
	return &WitnessHandler{getProfileUC: getProfileUC, recomputeUC: recomputeUC}
}

func (h *WitnessHandler) GetProfile(c *gin.Context) {
	profile, err := h.getProfileUC.Execute(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToWitnessResponse(profile.Witness))
}

// RecomputeReputation пересчитывает репутацию по текущему набору свидетельств.
func (h *WitnessHandler) RecomputeReputation(c *gin.Context) {
	w, err := h.recomputeUC.Execute(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToWitnessResponse(w))
}
