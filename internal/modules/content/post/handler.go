package post

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mx-space/engagement/internal/middleware"
	"github.com/mx-space/engagement/internal/models"
	"github.com/mx-space/engagement/internal/modules/engagement"
	"github.com/mx-space/engagement/internal/modules/stats/aggregate"
	"github.com/mx-space/engagement/internal/pkg/pagination"
	"github.com/mx-space/engagement/internal/pkg/response"
)

// Handler handles post HTTP requests.
type Handler struct {
	svc     *Service
	tracker *engagement.Tracker
	stats   *aggregate.Service
	now     func() time.Time
}

func NewHandler(svc *Service, tracker *engagement.Tracker, stats *aggregate.Service) *Handler {
	return &Handler{svc: svc, tracker: tracker, stats: stats, now: time.Now}
}

// RegisterRoutes mounts post routes onto the /post group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW, adminMW gin.HandlerFunc) {
	rg.GET("/getposts", h.list)

	admin := rg.Group("", authMW, adminMW)
	admin.POST("/create", h.create)
	admin.PUT("/updatepost/:postId", h.update)
	admin.DELETE("/deletepost/:postId", h.delete)
}

// list GET /post/getposts
func (h *Handler) list(c *gin.Context) {
	var lq ListQuery
	if err := c.ShouldBindQuery(&lq); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	ctx := c.Request.Context()

	var (
		posts []models.PostModel
		err   error
	)
	if lq.Slug != "" {
		posts, err = h.tracker.RecordView(ctx, lq.Slug, middleware.CurrentClientIdentity(c))
	} else {
		posts, err = h.svc.List(ctx, pagination.FromContext(c), lq)
	}
	if err != nil {
		response.Error(c, err)
		return
	}

	totals, err := h.stats.PostTotals(ctx, h.now())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, listResponse{
		Posts:               posts,
		TotalPosts:          totals.TotalPosts,
		LastMonthPosts:      totals.LastMonthPosts,
		TotalLikes:          totals.TotalLikes,
		TotalLikesLastMonth: totals.LastMonthLikes,
	})
}

// create POST /post/create  [admin]
func (h *Handler) create(c *gin.Context) {
	var dto CreatePostDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	post, err := h.svc.Create(c.Request.Context(), middleware.CurrentUserID(c), dto)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, post)
}

// update PUT /post/updatepost/:postId  [admin]
func (h *Handler) update(c *gin.Context) {
	var dto UpdatePostDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	post, err := h.svc.Update(c.Request.Context(), c.Param("postId"), dto)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, post)
}

// delete DELETE /post/deletepost/:postId  [admin]
func (h *Handler) delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("postId")); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"message": "The post has been deleted"})
}
