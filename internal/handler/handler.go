package handler

import (
	"liquidity-bands/internal/service"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

type Handler struct {
	tracer         trace.Tracer
	recommendation *service.RecommendationService
}

func New(tracer trace.Tracer, recommendation *service.RecommendationService) *Handler {
	return &Handler{
		tracer:         tracer,
		recommendation: recommendation,
	}
}

// RegisterRoutes wires the routes. The /api group is protected by the
// optional API key; the index page and health check stay open.
func (h *Handler) RegisterRoutes(r *gin.Engine, apiKey string) {
	r.GET("/", h.Index)
	r.GET("/health", h.Health)

	api := r.Group("/api", APIKeyAuth(apiKey))
	api.GET("/recommendations", h.GetRecommendations)
}
