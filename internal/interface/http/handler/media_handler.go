package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/openwitness/witness-backend/internal/interface/http/dto"
	"github.com/openwitness/witness-backend/internal/interface/http/response"
	"github.com/openwitness/witness-backend/internal/media"
)

// MediaHandler принимает вложения к свидетельствам.
type MediaHandler struct {
	storage *media.Storage
}

func NewMediaHandler(storage *media.Storage) *MediaHandler {
	return &MediaHandler{storage: storage}
}

// Upload обрабатывает POST /media (multipart, поле file).
func (h *MediaHandler) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "поле file обязательно")
		return
	}
	if file.Size == 0 {
		response.BadRequest(c, "файл не может быть пустым")
		return
	}

	src, err := file.Open()
	if err != nil {
		response.BadRequest(c, "не удалось прочитать файл")
		return
	}
	defer src.Close()

	attachment, err := h.storage.Save(c.Request.Context(), src)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.ToMediaResponse(attachment))
}
