package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openwitness/witness-backend/internal/domain/valueobject"
	"github.com/openwitness/witness-backend/internal/logger"
	"github.com/openwitness/witness-backend/internal/interface/http/dto"
	"github.com/openwitness/witness-backend/internal/interface/http/response"
	"github.com/openwitness/witness-backend/internal/usecase/testimony"
)

// TestimonyUseCases — сценарии, которые обслуживает TestimonyHandler.
type TestimonyUseCases struct {
	Create         *testimony.CreateTestimonyUseCase
	Get            *testimony.GetTestimonyUseCase
	View           *testimony.ViewTestimonyUseCase
	Search         *testimony.SearchTestimoniesUseCase
	Nearby         *testimony.NearbyTestimoniesUseCase
	Timeline       *testimony.TimelineUseCase
	CrossReference *testimony.CrossReferenceUseCase
	Corroborations *testimony.FindCorroborationsUseCase
	Corroborate    *testimony.CorroborateUseCase
	Flag           *testimony.FlagTestimonyUseCase
	TrustScore     *testimony.TrustScoreUseCase
	Statistics     *testimony.StatisticsUseCase
	Export         *testimony.ExportTestimoniesUseCase
}

type TestimonyHandler struct {
	uc TestimonyUseCases
}

func NewTestimonyHandler(uc TestimonyUseCases) *TestimonyHandler {
	return &TestimonyHandler{uc: uc}
}

func (h *TestimonyHandler) CreateTestimony(c *gin.Context) {
	var req dto.CreateTestimonyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "некорректные данные запроса")
		return
	}

	timestamp, err := dto.ParseTimestamp(req.Timestamp)
	if err != nil {
		response.BadRequest(c, "некорректный формат времени")
		return
	}

	res, err := h.uc.Create.Execute(c.Request.Context(), testimony.CreateTestimonyInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Location:    req.Location,
		Lat:         req.Lat,
		Lng:         req.Lng,
		Country:     req.Country,
		WitnessID:   req.WitnessID,
		WitnessName: req.WitnessName,
		Media:       req.MediaRefs,
		Timestamp:   timestamp,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.ToCreateTestimonyResponse(res))
}

func (h *TestimonyHandler) ListTestimonies(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	items, err := h.uc.Search.Execute(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToTestimonyResponses(items))
}

func (h *TestimonyHandler) Nearby(c *gin.Context) {
	center, err := parseCenter(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if center == nil {
		response.BadRequest(c, "параметры lat и lng обязательны")
		return
	}
	radius, err := parseFloatQuery(c, "radius")
	if err != nil {
		response.Error(c, err)
		return
	}
	radiusKm := 0.0
	if radius != nil {
		radiusKm = *radius
	}

	items, err := h.uc.Nearby.Execute(c.Request.Context(), *center, radiusKm)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToNearbyResponses(items))
}

func (h *TestimonyHandler) Timeline(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	days, err := h.uc.Timeline.Execute(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToTimelineResponses(days))
}

// GeoJSON отдаёт FeatureCollection без конверта, чтобы карта читала ответ напрямую.
func (h *TestimonyHandler) GeoJSON(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	items, err := h.uc.Search.Execute(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	body, err := dto.ToFeatureCollection(items).MarshalJSON()
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Data(http.StatusOK, "application/geo+json", body)
}

// Export отдаёт выгрузку файлом: format=json (по умолчанию) или format=csv.
// Принимает те же фильтры, что и список.
func (h *TestimonyHandler) Export(c *gin.Context) {
	format, err := testimony.ParseExportFormat(c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	filter, err := parseFilter(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	export, err := h.uc.Export.Execute(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+dto.ExportFilename(format, export.ExportedAt)+`"`)
	if format == testimony.ExportJSON {
		c.JSON(http.StatusOK, dto.ToExportResponse(export))
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Status(http.StatusOK)
	if err := dto.WriteCSV(c.Writer, export.Testimonies); err != nil {
		logger.Component("export").WithError(err).Error("Не удалось записать CSV")
	}
}

func (h *TestimonyHandler) GetTestimony(c *gin.Context) {
	t, err := h.uc.Get.Execute(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToTestimonyResponse(t))
}

func (h *TestimonyHandler) ViewTestimony(c *gin.Context) {
	res, err := h.uc.View.Execute(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToViewResponse(res))
}

func (h *TestimonyHandler) ListCorroborations(c *gin.Context) {
	scan, err := h.uc.Corroborations.Execute(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToCandidateResponses(scan.Candidates))
}

func (h *TestimonyHandler) CrossReference(c *gin.Context) {
	res, err := h.uc.CrossReference.Execute(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToCrossReferenceResponse(res))
}

func (h *TestimonyHandler) Corroborate(c *gin.Context) {
	var req dto.CorroborateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "поле witness_id обязательно")
		return
	}

	res, err := h.uc.Corroborate.Execute(c.Request.Context(), c.Param("id"), req.WitnessID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToCrossReferenceResponse(res))
}

func (h *TestimonyHandler) Flag(c *gin.Context) {
	var req dto.FlagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "поле reason обязательно")
		return
	}

	t, err := h.uc.Flag.Execute(c.Request.Context(), testimony.FlagTestimonyInput{
		TestimonyID: c.Param("id"),
		Reason:      req.Reason,
		ReporterID:  req.ReporterID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToTestimonyResponse(t))
}

func (h *TestimonyHandler) GetTrustScore(c *gin.Context) {
	score, err := h.uc.TrustScore.Execute(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.TrustScoreResponse{TestimonyID: score.TestimonyID, TrustScore: score.TrustScore})
}

func (h *TestimonyHandler) ScoreTestimonies(c *gin.Context) {
	var req dto.TrustScoresRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "поле ids обязательно")
		return
	}

	scores, err := h.uc.TrustScore.ExecuteMany(c.Request.Context(), req.IDs)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToTrustScoreResponses(scores))
}

func (h *TestimonyHandler) Statistics(c *gin.Context) {
	stats, err := h.uc.Statistics.Execute(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToStatisticsResponse(stats))
}

// Categories перечисляет допустимые категории для форм клиента.
func (h *TestimonyHandler) Categories(c *gin.Context) {
	categories := valueobject.AllCategories()
	out := make([]string, 0, len(categories))
	for _, cat := range categories {
		out = append(out, string(cat))
	}
	response.Success(c, out)
}
