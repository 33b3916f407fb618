package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mx-space/engagement/internal/config"
	"github.com/mx-space/engagement/internal/middleware"
	"github.com/mx-space/engagement/internal/modules/content/comment"
	"github.com/mx-space/engagement/internal/modules/content/post"
	"github.com/mx-space/engagement/internal/modules/engagement"
	"github.com/mx-space/engagement/internal/modules/stats/aggregate"
	pkgcron "github.com/mx-space/engagement/internal/pkg/cron"
	jwtpkg "github.com/mx-space/engagement/internal/pkg/jwt"
	pkgredis "github.com/mx-space/engagement/internal/pkg/redis"
	"github.com/mx-space/engagement/internal/store"
	"go.uber.org/zap"
)

// App holds all application dependencies.
type App struct {
	cfg    *config.AppConfig
	router *gin.Engine
	store  store.Store
	rdb    *pkgredis.Client
	tokens *jwtpkg.Manager
	logger *zap.Logger
	sched  *pkgcron.Scheduler
	cancel context.CancelFunc

	tracker  *engagement.Tracker
	stats    *aggregate.Service
	posts    *post.Service
	comments *comment.Service
}

// New initializes the application: store → Redis → services → routes → jobs.
func New(logger *zap.Logger, cfg *config.AppConfig) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}

	var rdb *pkgredis.Client
	if cfg.Redis.Enabled() {
		rdb, err = pkgredis.Connect(ctx, cfg.Redis.URLValue())
		if err != nil {
			_ = st.Close(context.Background())
			return nil, fmt.Errorf("redis: %w", err)
		}
	} else {
		logger.Warn("redis is not configured, statistics cache and rate limiting are disabled")
	}

	a, err := build(logger, cfg, st, rdb)
	if err != nil {
		_ = st.Close(context.Background())
		if rdb != nil {
			_ = rdb.Close()
		}
		return nil, err
	}
	return a, nil
}

// build wires services and routes around an already opened store. rdb may
// be nil.
func build(logger *zap.Logger, cfg *config.AppConfig, st store.Store, rdb *pkgredis.Client) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	secret := strings.TrimSpace(cfg.JWTSecret)
	if secret == "" {
		logger.Warn("jwt_secret is empty, using a random per-process secret")
		secret = uuid.NewString()
	}

	statsOpts := aggregate.Options{
		Location: cfg.Location(),
		CacheTTL: cfg.Stats.CacheTTL,
	}
	if rdb != nil {
		statsOpts.Cache = rdb
	}

	a := &App{
		cfg:      cfg,
		store:    st,
		rdb:      rdb,
		tokens:   jwtpkg.NewManager(secret),
		logger:   logger,
		sched:    pkgcron.New(logger),
		tracker:  engagement.NewTracker(st, logger),
		stats:    aggregate.NewService(st, statsOpts, logger),
		posts:    post.NewService(st),
		comments: comment.NewService(st, cfg.Location()),
	}

	if cfg.IsDev() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(gin.Recovery())
	router.Use(middleware.ClientIdentity())
	router.Use(middleware.Logger(logger))
	router.Use(corsMiddleware(cfg))
	a.router = router
	a.registerRoutes()

	if err := registerCronJobs(a.sched, a.stats, cfg, rdb != nil); err != nil {
		return nil, err
	}
	return a, nil
}

// Start launches background jobs.
func (a *App) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	a.sched.Start(ctx)
}

// Addr returns the listen address.
func (a *App) Addr() string { return fmt.Sprintf(":%d", a.cfg.Port) }

// Router returns the HTTP handler.
func (a *App) Router() http.Handler { return a.router }

// Shutdown stops background jobs and closes connections.
func (a *App) Shutdown(ctx context.Context) error {
	if a.cancel != nil {
		a.cancel()
		a.sched.Wait()
	}
	var errs []error
	if a.rdb != nil {
		errs = append(errs, a.rdb.Close())
	}
	errs = append(errs, a.store.Close(ctx))
	return errors.Join(errs...)
}

var processStart = time.Now()
