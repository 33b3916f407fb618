package app

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mx-space/engagement/internal/middleware"
	"github.com/mx-space/engagement/internal/modules/content/comment"
	"github.com/mx-space/engagement/internal/modules/content/post"
	"github.com/mx-space/engagement/internal/modules/engagement"
	"github.com/mx-space/engagement/internal/modules/stats/aggregate"
	"github.com/mx-space/engagement/internal/pkg/response"
)

func (a *App) registerRoutes() {
	r := a.router

	r.NoRoute(func(c *gin.Context) {
		response.NotFoundMsg(c, "Not Found")
	})
	r.NoMethod(func(c *gin.Context) {
		c.AbortWithStatusJSON(http.StatusMethodNotAllowed, gin.H{
			"ok":      0,
			"code":    http.StatusMethodNotAllowed,
			"message": "Method Not Allowed",
		})
	})

	api := r.Group("/api")
	api.GET("/health", a.health)

	var rateLimiter gin.HandlerFunc = func(c *gin.Context) { c.Next() }
	idempotence := rateLimiter
	if a.rdb != nil {
		rateLimiter = middleware.RateLimit(a.rdb, middleware.DefaultRateLimit, a.logger)
		idempotence = middleware.Idempotence(a.rdb)
	}
	api.Use(middleware.OptionalAuth(a.tokens), rateLimiter, idempotence)

	authMW := middleware.Auth(a.tokens)
	adminMW := middleware.RequireAdmin()

	postGroup := api.Group("/post")
	post.NewHandler(a.posts, a.tracker, a.stats).RegisterRoutes(postGroup, authMW, adminMW)
	engagement.NewHandler(a.tracker).RegisterRoutes(postGroup, authMW, adminMW)
	aggregate.NewHandler(a.stats).RegisterRoutes(postGroup, authMW, adminMW)

	comment.NewHandler(a.comments).RegisterRoutes(api, authMW, adminMW)
}

// health GET /api/health
func (a *App) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	status := http.StatusOK
	body := gin.H{
		"ok":     1,
		"uptime": time.Since(processStart).Truncate(time.Second).String(),
		"jobs":   a.sched.List(),
	}
	if err := a.store.Ping(ctx); err != nil {
		status = http.StatusServiceUnavailable
		body["ok"] = 0
		body["store"] = err.Error()
	}
	if a.rdb != nil {
		if err := a.rdb.Ping(ctx); err != nil {
			body["redis"] = err.Error()
		}
	}
	c.JSON(status, body)
}
