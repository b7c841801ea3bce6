package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Index renders the recommendations page. The page is served immediately and
// loads its data from /api/recommendations client-side, so a cold cache never
// blocks the first paint.
func (h *Handler) Index(c *gin.Context) {
	c.HTML(http.StatusOK, "recommendations.html", nil)
}
