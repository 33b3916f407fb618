package comment

import (
	"github.com/gin-gonic/gin"
	"github.com/mx-space/engagement/internal/middleware"
	"github.com/mx-space/engagement/internal/pkg/response"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW, adminMW gin.HandlerFunc) {
	g := rg.Group("/comment")

	g.GET("/count", h.count)
	g.POST("/create", authMW, h.create)
	g.DELETE("/:commentId", authMW, adminMW, h.delete)
}

// create POST /comment/create  [auth]
func (h *Handler) create(c *gin.Context) {
	var dto CreateCommentDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	cm, err := h.svc.Create(c.Request.Context(), middleware.CurrentUserID(c), dto)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, cm)
}

// delete DELETE /comment/:commentId  [admin]
func (h *Handler) delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("commentId")); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"message": "The comment has been deleted"})
}

// count GET /comment/count
func (h *Handler) count(c *gin.Context) {
	out, err := h.svc.Count(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, out)
}
