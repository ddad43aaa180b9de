package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/seoforge/seoforge-api/internal/api"
	apimiddleware "github.com/seoforge/seoforge-api/internal/api/middleware"
)

// setupRouter builds the HTTP route tree with all handlers and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(apimiddleware.TraceMiddleware)

	authHandler := api.NewAuthHandler(app.userStore, app.jwtService, app.passwordVerifier)
	credentialsHandler := api.NewCredentialsHandler(app.credentialStore)
	taskHandler := api.NewTaskHandler(app.taskService, app.groupService)
	costHandler := api.NewCostHandler(app.costService)

	authMiddleware := apimiddleware.NewAuthMiddleware(app.jwtService)
	rateLimit := apimiddleware.NewRateLimitMiddleware(app.quotas)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/refresh", authHandler.RefreshToken)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			r.Put("/credentials", credentialsHandler.Put)
			r.Get("/credentials", credentialsHandler.Get)

			r.Get("/costs/total", costHandler.Total)
			r.Get("/costs/by-type", costHandler.ByType)
			r.Get("/costs/today", costHandler.Today)
			r.Get("/costs/stats", costHandler.Stats)

			r.Route("/{module}", func(r chi.Router) {
				// Submissions spend provider money; quotas apply to
				// them and nothing else.
				r.Group(func(r chi.Router) {
					r.Use(rateLimit.Limit)
					r.Post("/tasks", taskHandler.Submit)
					r.Post("/live", taskHandler.SubmitLive)
				})

				r.Get("/tasks", taskHandler.List)
				r.Get("/tasks/{taskID}", taskHandler.Get)
				r.Get("/groups", taskHandler.ListGroups)
				r.Get("/groups/{groupID}", taskHandler.GetGroup)
				r.Delete("/groups/{groupID}", taskHandler.DeleteGroup)
			})
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("failed to write health check response", "error", err)
		}
	})

	return r
}
