package router

import (
	"github.com/gin-gonic/gin"

	"github.com/openwitness/witness-backend/internal/config"
	"github.com/openwitness/witness-backend/internal/interface/http/handler"
	"github.com/openwitness/witness-backend/internal/interface/http/middleware"
)

type Handlers struct {
	Testimony *handler.TestimonyHandler
	Witness   *handler.WitnessHandler
	Media     *handler.MediaHandler
	WS        *handler.WSHandler
	Health    *handler.HealthHandler
	Seed      *handler.SeedHandler
}

func SetupRouter(cfg *config.Config, h Handlers) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))
	r.MaxMultipartMemory = cfg.MaxUploadSizeMB << 20

	r.GET("/health", h.Health.Health)
	r.Static("/media", cfg.MediaStoragePath)

	api := r.Group("/api")
	api.GET("/health", h.Health.Health)
	api.GET("/ws", h.WS.Handle)
	api.GET("/stats", h.Testimony.Statistics)
	api.GET("/categories", h.Testimony.Categories)

	write := middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod)

	testimonies := api.Group("/testimonies")
	{
		testimonies.GET("", h.Testimony.ListTestimonies)
		testimonies.GET("/nearby", h.Testimony.Nearby)
		testimonies.GET("/timeline", h.Testimony.Timeline)
		testimonies.GET("/geojson", h.Testimony.GeoJSON)
		testimonies.GET("/export", h.Testimony.Export)
		testimonies.GET("/:id", h.Testimony.GetTestimony)
		testimonies.GET("/:id/corroborations", h.Testimony.ListCorroborations)
		testimonies.GET("/:id/trust-score", h.Testimony.GetTrustScore)
		testimonies.POST("/:id/view", h.Testimony.ViewTestimony)
		testimonies.POST("/trust-scores", h.Testimony.ScoreTestimonies)

		testimonies.POST("", write, h.Testimony.CreateTestimony)
		testimonies.POST("/:id/cross-reference", write, h.Testimony.CrossReference)
		testimonies.POST("/:id/corroborate", write, h.Testimony.Corroborate)
		testimonies.POST("/:id/flags", write, h.Testimony.Flag)
	}

	witnesses := api.Group("/witnesses")
	{
		witnesses.GET("/:id", h.Witness.GetProfile)
		witnesses.POST("/:id/reputation", write, h.Witness.RecomputeReputation)
	}

	api.POST("/media", write, h.Media.Upload)

	if h.Seed != nil && cfg.Env == "development" {
		api.POST("/seed", h.Seed.Seed)
	}

	return r
}
