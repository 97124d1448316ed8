package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/linkfolio/profile-service/internal/application"
	"github.com/linkfolio/profile-service/internal/ports"
)

type Handler struct {
	service *application.Service
	limiter ports.RateLimiter
}

func NewHandler(service *application.Service, limiter ports.RateLimiter) *Handler {
	return &Handler{service: service, limiter: limiter}
}

func NewRouter(handler *Handler, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(recoverMiddleware)
	r.Use(loggingMiddleware(logger))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { writeMessage(w, http.StatusOK, "ok") })
	r.Get("/readyz", func(w http.ResponseWriter, _ *http.Request) { writeMessage(w, http.StatusOK, "ready") })

	r.Route("/v1", func(r chi.Router) {
		r.Route("/usernames", func(r chi.Router) {
			r.Post("/check", handler.checkUsername)
			r.Group(func(r chi.Router) {
				r.Use(handler.authMiddleware)
				r.Post("/claim", handler.claimUsername)
			})
		})

		r.Route("/profiles", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(handler.authMiddleware)
				r.Get("/me", handler.getMyProfile)
				r.Put("/me", handler.updateMyProfile)
				r.Put("/me/username", handler.changeUsername)
				r.Put("/me/settings", handler.updateMySettings)
				r.Get("/me/username-history", handler.getUsernameHistory)
			})
			r.Get("/{slug}", handler.getPublicProfile)
		})
	})
	return r
}
