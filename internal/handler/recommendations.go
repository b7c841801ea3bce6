package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"liquidity-bands/internal/service"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// GetRecommendations godoc
// @Summary      Get top liquidity bands
// @Description  Returns the top WETH/USDT price bands ranked by provided liquidity, with 24h trading volume per band
// @Tags         recommendations
// @Produce      json
// @Param        price_lower  query  number  false  "Only include bands overlapping prices at or above this bound"
// @Param        price_upper  query  number  false  "Only include bands overlapping prices at or below this bound"
// @Param        refresh      query  string  false  "Set to true to bypass the cache"
// @Success      200  {object}  domain.Recommendation
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/recommendations [get]
func (h *Handler) GetRecommendations(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-recommendations")
	defer span.End()

	opts := service.Options{
		PriceLower: parsePriceFilter(c, "price_lower"),
		PriceUpper: parsePriceFilter(c, "price_upper"),
		Refresh:    c.Query("refresh") == "true",
	}

	// Validate the range before touching the cache or the upstream.
	if opts.PriceLower != nil && opts.PriceUpper != nil && *opts.PriceLower > *opts.PriceUpper {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "invalid price range: lower price must be less than or equal to upper price",
		})
		return
	}

	if opts.PriceLower != nil {
		span.SetAttributes(attribute.Float64("price_lower", *opts.PriceLower))
	}
	if opts.PriceUpper != nil {
		span.SetAttributes(attribute.Float64("price_upper", *opts.PriceUpper))
	}

	rec, err := h.recommendation.GetRecommendations(ctx, opts)
	if err != nil {
		if errors.Is(err, service.ErrNoData) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, rec)
}

// parsePriceFilter reads an optional float query parameter. Malformed values
// are logged and ignored rather than rejected.
func parsePriceFilter(c *gin.Context, name string) *float64 {
	raw := c.Query(name)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		log.Printf("Warning: invalid %s value %q, ignoring", name, raw)
		return nil
	}
	return &v
}
