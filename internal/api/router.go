package api

import (
	"net/http"

	"github.com/arvidk/taskdeck/internal/api/handler"
	customMiddleware "github.com/arvidk/taskdeck/internal/api/middleware"
	"github.com/arvidk/taskdeck/internal/config"
	"github.com/arvidk/taskdeck/internal/repository/postgres"
	"github.com/arvidk/taskdeck/internal/repository/redis"
	"github.com/arvidk/taskdeck/internal/security"
	"github.com/arvidk/taskdeck/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates and configures the HTTP router
func NewRouter(cfg *config.Config, db *postgres.DB, redisClient *redis.Client) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(customMiddleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.Server.MiddlewareTimeout))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize security components
	jwtManager := security.NewJWTManager(
		cfg.Auth.JWTSecret,
		cfg.Auth.AccessTokenTTL,
		cfg.Auth.RefreshTokenTTL,
	)

	// Initialize repositories
	userRepo := postgres.NewUserRepository(db)
	workspaceRepo := postgres.NewWorkspaceRepository(db)
	taskRepo := postgres.NewTaskRepository(db)

	// Initialize rate limiter and tree cache
	rateLimiter := redis.NewRateLimiter(
		redisClient,
		cfg.Security.RateLimit.RequestsPerMinute,
		cfg.Security.RateLimit.Burst,
	)
	treeCache := redis.NewTreeCache(redisClient)

	// Initialize services
	authService := service.NewAuthService(userRepo, jwtManager)
	workspaceService := service.NewWorkspaceService(workspaceRepo, taskRepo, userRepo, treeCache)
	taskService := service.NewTaskService(taskRepo, workspaceRepo, treeCache)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService)
	workspaceHandler := handler.NewWorkspaceHandler(workspaceService)
	taskHandler := handler.NewTaskHandler(taskService)

	// Auth middleware
	authMiddleware := customMiddleware.NewAuthMiddleware(jwtManager)
	rateLimitMiddleware := customMiddleware.NewRateLimitMiddleware(rateLimiter)

	r.Route("/api/v1", func(r chi.Router) {
		// Health check
		r.Get("/health", handler.HealthCheck)
		r.Get("/ready", handler.ReadyCheck(db))

		// Auth routes (public)
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.Refresh)
		})

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)
			r.Use(rateLimitMiddleware.Limit)

			// Profile
			r.Get("/me", authHandler.Me)
			r.Patch("/me", authHandler.UpdateMe)

			// Cache management
			r.Post("/cache/flush", handler.FlushCache(treeCache))

			// Workspace routes
			r.Route("/workspaces", func(r chi.Router) {
				r.Get("/", workspaceHandler.List)
				r.Post("/", workspaceHandler.Create)

				r.Route("/{workspaceID}", func(r chi.Router) {
					r.Use(customMiddleware.WorkspaceContext)

					r.Get("/", workspaceHandler.Get)
					r.Delete("/", workspaceHandler.Delete)

					r.Route("/members", func(r chi.Router) {
						r.Post("/", workspaceHandler.InviteMember)
						r.Delete("/{memberID}", workspaceHandler.RemoveMember)
					})

					r.Post("/tasks", taskHandler.Create)
				})
			})

			// Task routes; access is resolved through the task's own workspace
			r.Route("/tasks", func(r chi.Router) {
				r.Post("/reorder", taskHandler.Reorder)

				r.Route("/{taskID}", func(r chi.Router) {
					r.Get("/", taskHandler.Get)
					r.Delete("/", taskHandler.Delete)
					r.Patch("/status", taskHandler.UpdateStatus)
					r.Patch("/priority", taskHandler.UpdatePriority)
					r.Patch("/assignee", taskHandler.UpdateAssignee)
					r.Patch("/description", taskHandler.UpdateDescription)
				})
			})
		})
	})

	return r
}
