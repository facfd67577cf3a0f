// Package server contains the HTTP handlers and route table for the
// application's server-rendered surface.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"warbler/internal/config"
	"warbler/internal/database"
	"warbler/internal/middleware"
	"warbler/internal/repository"
	"warbler/internal/service"
	"warbler/web"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/session"
	redisstorage "github.com/gofiber/storage/redis/v3"
	"github.com/gofiber/template/html/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	sessions       *session.Store
	promMiddleware *fiberprometheus.FiberPrometheus

	userRepo    repository.UserRepository
	messageRepo repository.MessageRepository
	followRepo  repository.FollowRepository

	userService    *service.UserService
	messageService *service.MessageService
	followService  *service.FollowService
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	return NewServerWithDeps(cfg, db, newRedisClient(cfg.RedisURL)), nil
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) *Server {
	userRepo := repository.NewUserRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	followRepo := repository.NewFollowRepository(db)

	server := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		sessions:       newSessionStore(cfg),
		promMiddleware: middleware.InitMetrics("warbler"),
		userRepo:       userRepo,
		messageRepo:    messageRepo,
		followRepo:     followRepo,
	}
	server.userService = service.NewUserService(userRepo)
	server.messageService = service.NewMessageService(messageRepo, userRepo)
	server.followService = service.NewFollowService(followRepo, userRepo)

	return server
}

// newRedisClient builds a go-redis client from a URL or a bare host:port
// address. Returns nil when no URL is configured.
func newRedisClient(url string) *redis.Client {
	if url == "" {
		return nil
	}
	if opts, err := redis.ParseURL(url); err == nil {
		return redis.NewClient(opts)
	}
	return redis.NewClient(&redis.Options{Addr: url})
}

// newSessionStore builds the cookie-session store. Sessions live server-side
// in Redis when configured, in process memory otherwise; the cookie carries
// only the opaque session id.
func newSessionStore(cfg *config.Config) *session.Store {
	conf := session.Config{
		Expiration:     30 * 24 * time.Hour,
		KeyLookup:      "cookie:warbler_session",
		CookieHTTPOnly: true,
		CookieSameSite: "Lax",
	}
	if cfg.RedisURL != "" {
		url := cfg.RedisURL
		if !strings.Contains(url, "://") {
			url = "redis://" + url
		}
		conf.Storage = redisstorage.New(redisstorage.Config{URL: url})
	}
	return session.New(conf)
}

// NewApp builds the Fiber application with the embedded template engine.
func (s *Server) NewApp() *fiber.App {
	engine := html.NewFileSystem(http.FS(web.Templates()), ".html")

	return fiber.New(fiber.Config{
		AppName:      "Warbler",
		Views:        engine,
		ViewsLayout:  "layouts/main",
		ErrorHandler: s.errorHandler,
	})
}

// errorHandler renders the error pages for anything a handler did not
// translate itself.
func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
	}

	if code == fiber.StatusNotFound {
		return c.Status(fiber.StatusNotFound).Render("errors/404", fiber.Map{})
	}

	middleware.Logger.ErrorContext(c.UserContext(), "unhandled request error",
		slog.Int("status", code),
		slog.String("path", c.Path()),
		slog.String("error", err.Error()),
	)
	return c.Status(code).Render("errors/500", fiber.Map{})
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Context Middleware to propagate Request ID and User ID
	app.Use(middleware.ContextMiddleware())

	// Prometheus metrics
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers
	app.Use(helmet.New())

	// Structured logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	auth := s.AuthRequired()

	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	// Embedded static assets: stylesheet and placeholder images.
	app.Use("/static", filesystem.New(filesystem.Config{
		Root: http.FS(web.Static()),
	}))

	app.Get("/", s.Home)

	app.Get("/signup", s.SignupPage)
	app.Post("/signup", middleware.RateLimit(
		s.redis, 3, 10*time.Minute, "signup"), s.Signup)
	app.Get("/login", s.LoginPage)
	app.Post("/login", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "login"), s.Login)
	app.Get("/logout", s.Logout)

	users := app.Group("/users")
	users.Get("/", s.ListUsers)
	// Literal segments register before the generic /:id routes.
	users.Get("/profile", auth, s.ProfilePage)
	users.Post("/profile", auth, s.UpdateProfile)
	users.Post("/delete", auth, s.DeleteUser)
	users.Post("/follow/:id", auth, s.AddFollow)
	users.Post("/stop-following/:id", auth, s.StopFollowing)
	users.Post("/add_like/:messageId", auth, s.AddLike)
	users.Post("/remove_like/:messageId", auth, s.RemoveLike)
	users.Get("/:id/following", auth, s.ShowFollowing)
	users.Get("/:id/followers", auth, s.ShowFollowers)
	users.Get("/:id/likes", auth, s.ShowLikes)
	users.Get("/:id", s.ShowUser)

	messages := app.Group("/messages")
	messages.Get("/new", auth, s.NewMessagePage)
	messages.Post("/new", auth, s.CreateMessage)
	messages.Post("/:id/delete", auth, s.DeleteMessage)
	messages.Get("/:id", s.ShowMessage)
}

// LivenessCheck reports that the process is running.
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// ReadinessCheck reports whether the server can reach its dependencies.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	sqlDB, err := s.db.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Context())
	}
	if err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "unavailable",
			"error":  err.Error(),
		})
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

// Shutdown releases server resources.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			return err
		}
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
