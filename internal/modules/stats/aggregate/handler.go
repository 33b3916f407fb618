package aggregate

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mx-space/engagement/internal/pkg/response"
)

// Handler serves the dashboard statistics endpoints.
type Handler struct {
	svc *Service
	now func() time.Time
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc, now: time.Now}
}

// RegisterRoutes mounts statistics routes onto the /post group. Both are
// admin only.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW, adminMW gin.HandlerFunc) {
	admin := rg.Group("", authMW, adminMW)
	admin.GET("/statistics", h.statistics)
	admin.GET("/summary", h.summary)
}

// statistics GET /post/statistics  [admin]
func (h *Handler) statistics(c *gin.Context) {
	data, err := h.svc.CachedGraphData(c.Request.Context(), h.now())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, data)
}

// summary GET /post/summary  [admin]
func (h *Handler) summary(c *gin.Context) {
	sum, err := h.svc.Summary(c.Request.Context(), h.now())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, sum)
}
