package engagement

import (
	"github.com/gin-gonic/gin"
	"github.com/mx-space/engagement/internal/middleware"
	"github.com/mx-space/engagement/internal/pkg/response"
)

// Handler handles engagement HTTP requests.
type Handler struct {
	tracker *Tracker
}

func NewHandler(tracker *Tracker) *Handler {
	return &Handler{tracker: tracker}
}

// RegisterRoutes mounts engagement routes onto the /post group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW, adminMW gin.HandlerFunc) {
	authed := rg.Group("", authMW)
	authed.POST("/like/:postId", h.toggleLike)
	authed.GET("/like-status/:postId", h.likeStatus)
	authed.PATCH("/toggle-hide/:postId", adminMW, h.toggleHide)
}

// toggleLike POST /post/like/:postId  [auth]
func (h *Handler) toggleLike(c *gin.Context) {
	state, err := h.tracker.ToggleLike(c.Request.Context(), c.Param("postId"), middleware.CurrentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, state)
}

// likeStatus GET /post/like-status/:postId  [auth]
func (h *Handler) likeStatus(c *gin.Context) {
	liked, err := h.tracker.LikeStatus(c.Request.Context(), c.Param("postId"), middleware.CurrentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"likedByCaller": liked})
}

// toggleHide PATCH /post/toggle-hide/:postId  [admin]
func (h *Handler) toggleHide(c *gin.Context) {
	hidden, err := h.tracker.ToggleVisibility(c.Request.Context(), c.Param("postId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"hidden": hidden})
}
