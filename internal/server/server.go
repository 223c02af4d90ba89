// Package server contains the HTTP handlers and page rendering for the site.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"yatube/internal/bootstrap"
	"yatube/internal/cache"
	"yatube/internal/config"
	"yatube/internal/middleware"
	"yatube/internal/repository"
	"yatube/internal/service"
	"yatube/web"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/template/html/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	layoutBase     = "layouts/base"
	csrfContextKey = "csrf"
	csrfFormField  = "csrf_token"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	views          *html.Engine
	promMiddleware *fiberprometheus.FiberPrometheus
	sessions       *middleware.Sessions
	revocations    *cache.SessionRevocations
	rateLimiter    *middleware.RateLimiter
	index          cache.PageCache
	images         *service.ImageService
	userService    *service.UserService
	groupService   *service.GroupService
	postService    *service.PostService
	commentService *service.CommentService
	followService  *service.FollowService
}

// NewServer connects the database and Redis and builds a server on top of them.
func NewServer(cfg *config.Config) (*Server, error) {
	db, redisClient, err := bootstrap.InitRuntime(cfg, bootstrap.Options{})
	if err != nil {
		return nil, err
	}

	return NewServerWithDeps(cfg, db, redisClient)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// redisClient may be nil, in which case the index is cached in memory,
// logout only clears the cookie and rate limits fail open.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	if db == nil {
		return nil, fmt.Errorf("database is required")
	}

	userRepo := repository.NewUserRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	followRepo := repository.NewFollowRepository(db)

	ttl := time.Duration(cfg.IndexCacheSeconds) * time.Second
	index := cache.NewIndexCache(redisClient, ttl)
	revocations := cache.NewSessionRevocations(redisClient)
	images := service.NewImageService(cfg.MediaRoot, cfg.ImageMaxUploadMB)

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		views:          web.NewEngine(),
		promMiddleware: middleware.InitMetrics("yatube"),
		revocations:    revocations,
		rateLimiter:    middleware.NewRateLimiter(redisClient, cfg.Env),
		index:          index,
		images:         images,
		userService:    service.NewUserService(userRepo),
		groupService:   service.NewGroupService(groupRepo, index),
		postService:    service.NewPostService(postRepo, images, index, cfg.PostsPerPage),
		commentService: service.NewCommentService(commentRepo, postRepo),
		followService:  service.NewFollowService(followRepo, userRepo),
	}
	s.sessions = middleware.NewSessions(
		cfg.JWTSecret,
		cfg.SessionCookie,
		time.Duration(cfg.SessionTTLHours)*time.Hour,
		cfg.IsProduction(),
		revocations.IsRevoked,
	)
	return s, nil
}

// NewApp builds the Fiber application with middleware and routes installed.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "Yatube",
		Views:        s.views,
		ErrorHandler: s.errorHandler,
		// Leave room for the other multipart fields around the image.
		BodyLimit:    int(s.images.MaxUploadBytes()) + 1024*1024,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// SetupMiddleware configures and registers all middleware for the Fiber app.
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New(recover.Config{EnableStackTrace: !s.config.IsProduction()}))

	app.Use(requestid.New())

	app.Use(middleware.TracingMiddleware())

	// Resolve the session before anything that logs or keys on the user.
	app.Use(s.sessions.LoadSession())

	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(s.promMiddleware.Middleware)
	}

	app.Use(helmet.New())

	app.Use(middleware.StructuredLogger())

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return s.config.Env == "test"
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return fiber.NewError(fiber.StatusTooManyRequests, "Too many requests, please try again later.")
		},
	}))

	app.Use(s.loadersMiddleware())

	if !s.config.DisableCSRF {
		app.Use(csrf.New(csrf.Config{
			KeyLookup:      "form:" + csrfFormField,
			CookieName:     "csrftoken",
			CookieSameSite: "Lax",
			CookieSecure:   s.config.IsProduction(),
			CookieHTTPOnly: true,
			Expiration:     2 * time.Hour,
			ContextKey:     csrfContextKey,
			ErrorHandler: func(c *fiber.Ctx, err error) error {
				return fmt.Errorf("%w: %v", errCSRFRejected, err)
			},
		}))
	}
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health/monitor", monitor.New(monitor.Config{
		Title: "Yatube Metrics Dashboard",
	}))

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	app.Use("/static", filesystem.New(filesystem.Config{
		Root:   web.Static(),
		MaxAge: 3600,
	}))
	app.Static("/media", s.config.MediaRoot, fiber.Static{MaxAge: 3600})

	// Auth pages
	auth := app.Group("/auth")
	auth.Get("/signup/", s.SignupPage)
	auth.Post("/signup/", s.rateLimiter.Limit("signup", 3, 10*time.Minute, middleware.FailOpen), s.Signup)
	auth.Get("/login/", s.LoginPage)
	auth.Post("/login/", s.rateLimiter.Limit("login", 10, 5*time.Minute, middleware.FailOpen), s.Login)
	auth.Get("/logout/", s.Logout)
	auth.Post("/logout/", s.Logout)

	// Public pages
	app.Get("/", s.Index)
	app.Get("/group/:slug/", s.GroupPosts)
	app.Get("/profile/:username/", s.Profile)
	app.Get("/posts/:id<int>/", s.PostDetail)

	// Pages requiring a session
	login := middleware.LoginRequired()
	active := s.activeSession()
	app.Get("/create/", login, active, s.PostCreatePage)
	app.Post("/create/", login, active, s.rateLimiter.Limit("create_post", 10, time.Minute, middleware.FailOpen), s.PostCreate)
	app.Get("/posts/:id<int>/edit/", login, active, s.PostEditPage)
	app.Post("/posts/:id<int>/edit/", login, active, s.PostEdit)
	app.Post("/posts/:id<int>/delete/", login, active, s.PostDelete)
	app.Post("/posts/:id<int>/comment/", login, active, s.rateLimiter.Limit("create_comment", 10, time.Minute, middleware.FailOpen), s.AddComment)
	app.Get("/follow/", login, active, s.FollowIndex)
	app.Get("/profile/:username/follow/", login, active, s.ProfileFollow)
	app.Get("/profile/:username/unfollow/", login, active, s.ProfileUnfollow)

	// Everything else falls through to the 404 page
	app.Use(func(c *fiber.Ctx) error {
		return fiber.ErrNotFound
	})
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests. Redis is optional, so an
// unreachable Redis degrades the report without failing it.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	switch {
	case dbStatus != "healthy":
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	case redisStatus != "healthy":
		overallStatus = "degraded"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// Start starts the server
func (s *Server) Start() error {
	s.app = s.NewApp()
	middleware.Logger.Info("Server starting", slog.String("port", s.config.Port))
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", slog.String("error", cerr.Error()))
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	middleware.Logger.Info("Server shutdown complete")
	return nil
}
