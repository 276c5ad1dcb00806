package httpapi

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mdemidovs/secretbin/internal/logging"
)

// NewRouter wires the API routes. Everything under /api except registration,
// login, and refresh requires a Bearer token; the share link endpoint is
// public by design of the feature.
func NewRouter(h *Handler, jwtSecret []byte, logger logging.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(requestLogger(logger))

	r.Route("/api", func(r chi.Router) {
		r.Post("/register", h.register)
		r.Post("/login", h.login)
		r.Post("/refresh", h.refresh)

		r.Group(func(r chi.Router) {
			r.Use(authenticate(jwtSecret))

			r.Get("/user", h.currentUser)

			r.Route("/secrets", func(r chi.Router) {
				r.Post("/", h.createSecret)
				r.Get("/", h.listSecrets)

				r.Route("/{secretID}", func(r chi.Router) {
					r.Get("/", h.getSecret)
					r.Put("/", h.updateSecret)
					r.Delete("/", h.deleteSecret)

					r.Post("/shares", h.createShare)
					r.Get("/shares", h.listShares)
					r.Delete("/shares", h.revokeAllShares)
				})
			})

			r.Route("/shares/{shareID}", func(r chi.Router) {
				r.Delete("/", h.revokeShare)
				r.Post("/reenable", h.reenableShare)
			})
		})
	})

	r.Get("/shared-secret/{token}", h.accessShare)

	return r
}
