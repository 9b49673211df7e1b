// Package server contains the HTTP handlers for the authoring API.
package server

import (
	"context"
	"fmt"
	"log"
	"time"

	"storyloom/internal/access"
	"storyloom/internal/cache"
	"storyloom/internal/config"
	"storyloom/internal/database"
	"storyloom/internal/featureflags"
	"storyloom/internal/middleware"
	"storyloom/internal/models"
	"storyloom/internal/repository"
	"storyloom/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// requestsPerMinute is the per-IP ceiling enforced ahead of authentication.
const requestsPerMinute = 100

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	featureFlags   *featureflags.Manager

	userRepo repository.UserRepository

	projects      *service.ProjectService
	members       *service.MemberService
	folders       *service.FolderService
	cast          *service.CastService
	dialogues     *service.DialogueService
	conversations *service.ConversationService
	quiz          *service.QuizService
	export        *service.ExportService
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	return NewServerWithDeps(cfg, db, cache.GetClient())
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis and
// optionally seeds demo data. redisClient may be nil.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	middleware.InitMiddleware(cfg)

	userRepo := repository.NewUserRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	memberRepo := repository.NewMemberRepository(db)
	folderRepo := repository.NewFolderRepository(db)
	castRepo := repository.NewCastRepository(db)
	dialogueRepo := repository.NewDialogueRepository(db)
	conversationRepo := repository.NewConversationRepository(db)
	quizRepo := repository.NewQuizRepository(db)

	policy := access.NewPolicy(memberRepo)
	flags := featureflags.NewManager(cfg.FeatureFlags)

	return &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("storyloom-api"),
		featureFlags:   flags,
		userRepo:       userRepo,
		projects:       service.NewProjectService(projectRepo, policy),
		members:        service.NewMemberService(memberRepo, userRepo, policy),
		folders:        service.NewFolderService(folderRepo, dialogueRepo, conversationRepo, policy),
		cast:           service.NewCastService(castRepo, policy),
		dialogues:      service.NewDialogueService(dialogueRepo, folderRepo, castRepo, policy),
		conversations:  service.NewConversationService(conversationRepo, folderRepo, castRepo, policy),
		quiz:           service.NewQuizService(quizRepo, conversationRepo, policy),
		export: service.NewExportService(projectRepo, castRepo, folderRepo, dialogueRepo, conversationRepo,
			policy, flags),
	}, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())

	app.Use(requestid.New(requestid.Config{
		Generator: func() string { return uuid.NewString() },
	}))

	if s.config.TracingEnabled {
		app.Use(middleware.TracingMiddleware())
	}

	// Context Middleware to propagate Request ID and User ID
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so rejected requests still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Correlation-ID",
		ExposeHeaders:    "Content-Disposition, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        requestsPerMinute,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// writeLimit applies the per-user write budget to mutating requests. Local
// and test environments skip it.
func (s *Server) writeLimit() fiber.Handler {
	window := time.Duration(s.config.WriteRateWindowSeconds) * time.Second
	skip := s.config.WriteRateLimit <= 0 || window <= 0
	switch s.config.Env {
	case "", "development", "test":
		skip = true
	}
	if skip {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	budget := &middleware.WriteBudget{
		Store:  s.redis,
		Limit:  s.config.WriteRateLimit,
		Window: window,
		Scope:  "write",
	}
	return budget.Handler()
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	api := app.Group("/api", middleware.AuthRequired, s.writeLimit())
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "Storyloom Metrics Dashboard",
	}))
	api.Get("/me", s.GetMe)

	projects := api.Group("/projects")
	projects.Get("/", s.ListProjects)
	projects.Post("/", s.CreateProject)
	projects.Get("/:projectId", s.GetProject)
	projects.Put("/:projectId", s.UpdateProject)
	projects.Delete("/:projectId", s.DeleteProject)
	projects.Get("/:projectId/export", s.ExportProject)
	projects.Get("/:projectId/feature-flags", s.GetFeatureFlags)

	projects.Get("/:projectId/members", s.ListMembers)
	projects.Post("/:projectId/members", s.AddMember)
	projects.Put("/:projectId/members/:memberId", s.UpdateMemberRole)
	projects.Delete("/:projectId/members/:memberId", s.RemoveMember)

	projects.Get("/:projectId/folders", s.ListFolderTree)
	projects.Post("/:projectId/folders", s.CreateFolder)
	folders := api.Group("/folders")
	folders.Get("/:id", s.GetFolder)
	folders.Put("/:id", s.UpdateFolder)
	folders.Put("/:id/move", s.MoveFolder)
	folders.Delete("/:id", s.DeleteFolder)

	projects.Get("/:projectId/characters", s.ListCharacters)
	projects.Post("/:projectId/characters", s.CreateCharacter)
	projects.Get("/:projectId/moods", s.ListMoods)
	characters := api.Group("/characters")
	characters.Get("/:id", s.GetCharacter)
	characters.Put("/:id", s.UpdateCharacter)
	characters.Delete("/:id", s.DeleteCharacter)
	characters.Post("/:id/moods", s.CreateMood)
	moods := api.Group("/moods")
	moods.Put("/:id", s.UpdateMood)
	moods.Delete("/:id", s.DeleteMood)

	projects.Get("/:projectId/backgrounds", s.ListBackgrounds)
	projects.Post("/:projectId/backgrounds", s.CreateBackground)
	backgrounds := api.Group("/backgrounds")
	backgrounds.Put("/:id", s.UpdateBackground)
	backgrounds.Delete("/:id", s.DeleteBackground)

	projects.Get("/:projectId/dialogues", s.ListDialogues)
	projects.Post("/:projectId/dialogues", s.CreateDialogue)
	dialogues := api.Group("/dialogues")
	dialogues.Get("/:id", s.GetDialogue)
	dialogues.Put("/:id", s.UpdateDialogue)
	dialogues.Put("/:id/folder", s.MoveDialogue)
	dialogues.Delete("/:id", s.DeleteDialogue)
	dialogues.Post("/:id/lines", s.CreateLine)
	lines := api.Group("/lines")
	lines.Put("/:id", s.UpdateLine)
	lines.Delete("/:id", s.DeleteLine)
	lines.Post("/:id/choices", s.CreateChoice)
	choices := api.Group("/choices")
	choices.Put("/:id", s.UpdateChoice)
	choices.Delete("/:id", s.DeleteChoice)

	projects.Get("/:projectId/conversations", s.ListConversations)
	projects.Post("/:projectId/conversations", s.CreateConversation)
	conversations := api.Group("/conversations")
	conversations.Get("/:id", s.GetConversation)
	conversations.Put("/:id", s.UpdateConversation)
	conversations.Put("/:id/folder", s.MoveConversation)
	conversations.Put("/:id/participants", s.SetParticipants)
	conversations.Delete("/:id", s.DeleteConversation)
	conversations.Post("/:id/messages", s.CreateMessage)
	messages := api.Group("/messages")
	messages.Put("/:id", s.UpdateMessage)
	messages.Delete("/:id", s.DeleteMessage)
	messages.Post("/:id/questions", s.AddQuestion)
	questions := api.Group("/questions")
	questions.Get("/:id", s.GetQuestion)
	questions.Put("/:id", s.UpdateQuestion)
	questions.Delete("/:id", s.DeleteQuestion)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck reports database and Redis reachability. Redis is optional:
// without a client the cache and write limiter are bypassed.
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

	redisStatus := "disabled"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus != "healthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
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

// NewApp builds the Fiber app with the shared error handler, middleware and
// routes.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: "Storyloom API",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if fe, ok := err.(*fiber.Error); ok {
				return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", "error", err.Error())
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// Start starts the server
func (s *Server) Start() error {
	s.app = s.NewApp()
	log.Printf("Server starting on port %s...", s.config.Port)
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			log.Printf("error shutting down HTTP server: %v", err)
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Printf("error closing sql DB: %v", cerr)
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			log.Printf("error closing redis: %v", rerr)
		}
	}

	log.Println("Server shutdown complete")
	return nil
}
