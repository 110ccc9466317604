package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"go-auth-service/internal/config"
	"go-auth-service/internal/handler"
	"go-auth-service/internal/middleware"
)

func New(
	cfg *config.Config,
	authMiddleware *middleware.AuthMiddleware,
	authHandler *handler.AuthHandler,
	auditHandler *handler.AuditHandler,
	healthHandler *handler.HealthHandler,
	docsHandler *handler.DocsHandler,
) http.Handler {
	r := chi.NewRouter()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cfg.RateLimitRPM, cfg.AuthRateLimitRPM)

	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.SecurityHeaders)
	r.Use(rateLimitMiddleware.Handler)

	r.Get("/health", healthHandler.Check)
	r.Get("/openapi.yaml", docsHandler.OpenAPI)
	r.Get("/swagger", docsHandler.SwaggerUI)

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(middleware.Timeout(cfg.RequestTimeout))

		api.Post("/login", authHandler.Login)
		api.Post("/token", authHandler.Token)
		api.Post("/refresh", authHandler.Refresh)
		api.Post("/logout", authHandler.Logout)

		api.With(authMiddleware.RequireAuth).Get("/me", authHandler.Me)
		api.With(authMiddleware.RequireAuth).Post("/logout-all", authHandler.LogoutAll)
		api.With(authMiddleware.RequireAuth, authMiddleware.RequireSuperuser).Get("/audit", auditHandler.List)
	})

	return r
}
