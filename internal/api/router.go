package api

import (
	"net/http"
	"time"

	"dockyard/internal/api/handler"
	"dockyard/internal/api/middleware"
	"dockyard/internal/app/service"
	"dockyard/internal/common/security"
	"dockyard/internal/domain/repository"
	"dockyard/internal/platform/config"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"
)

func NewRouter(
	authService *service.AuthService,
	imageService *service.ImageService,
	containerService *service.ContainerService,
	volumeService *service.VolumeService,
	podService *service.PodService,
	userRepo repository.UserRepository,
	limiter *middleware.RateLimiter,
) http.Handler {
	r := chi.NewRouter()

	// Base Middlewares
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	// Image builds and pushes can stream for minutes; the per-operation
	// engine deadline is the tighter bound.
	r.Use(chiMiddleware.Timeout(5 * time.Minute))

	// Verifies the bearer token from "Authorization: Bearer T" and puts
	// claims in context; the Authenticator middleware enforces them.
	r.Use(jwtauth.Verifier(security.TokenAuth))

	// Public health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	limit := limiter.Limit(config.AppConfig.RateLimitRequests, config.AppConfig.RateLimitWindow)
	authenticate := middleware.Authenticator(userRepo)

	// API v1 Routes
	r.Route("/api/v1", func(v1 chi.Router) {
		// Auth routes (public)
		authHandler := handler.NewAuthHandler(authService)
		v1.Route("/auth", authHandler.RegisterRoutes)

		// Everything below requires a valid token for an existing account
		v1.Group(func(protected chi.Router) {
			protected.Use(authenticate)

			imageHandler := handler.NewImageHandler(imageService, limit)
			protected.With(limit).Post("/registry/login", imageHandler.RegistryLogin)
			protected.Route("/images", imageHandler.RegisterRoutes)

			containerHandler := handler.NewContainerHandler(containerService, limit)
			protected.Route("/containers", containerHandler.RegisterRoutes)

			podHandler := handler.NewPodHandler(podService)
			protected.Route("/pods", podHandler.RegisterRoutes)

			volumeHandler := handler.NewVolumeHandler(volumeService)
			protected.Route("/volumes", volumeHandler.RegisterRoutes)

			logHandler := handler.NewLogHandler()
			protected.Get("/logs", logHandler.ReadLogs)
		})
	})

	return r
}
