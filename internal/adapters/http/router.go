// Package http is the chi-based HTTP adapter over the application service.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Arjun9756/Mini-S3-Bucket/internal/application"
)

// Handler is the HTTP adapter entrypoint. It depends only on the
// application service plus the public base URL used to reconstruct
// capability URLs from incoming requests.
type Handler struct {
	service       *application.Service
	publicBaseURL string
}

func NewHandler(service *application.Service, publicBaseURL string) *Handler {
	return &Handler{service: service, publicBaseURL: publicBaseURL}
}

// NewRouter registers the routes and middleware stack. The capability-
// guarded upload route and the share-link download route carry their own
// authorization and stay outside the JWT group.
func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(recoverMiddleware)
	r.Use(loggingMiddleware)

	r.Get("/healthz", handler.healthz)
	r.Get("/readyz", handler.readyz)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/register", handler.register)
		r.Post("/auth/login", handler.login)

		r.Post("/files/access", handler.capabilityUpload)
		r.Get("/files/download", handler.downloadShared)

		r.Group(func(r chi.Router) {
			r.Use(handler.authMiddleware)
			r.Post("/files/sign-url", handler.signURL)
			r.Get("/files", handler.listFiles)
			r.Get("/files/{file_id}", handler.getFile)
			r.Post("/files/download", handler.downloadOwn)
			r.Delete("/files/{file_id}", handler.deleteFile)
			r.Post("/files/share", handler.share)
			r.Post("/files/share/revoke", handler.revoke)
			r.Get("/analyses", handler.listAnalyses)
			r.Get("/analyses/{file_id}", handler.listFileAnalyses)
		})
	})

	return r
}
