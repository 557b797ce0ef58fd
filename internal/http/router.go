package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/jswalia/karigar/internal/auth"
	"github.com/jswalia/karigar/internal/http/owner"
	"github.com/jswalia/karigar/internal/http/stats"
	"github.com/jswalia/karigar/internal/http/transaction"
	"github.com/jswalia/karigar/internal/http/user"
)

func New(
	tokens *auth.Manager,
	transactionsV1 *transaction.Handler,
	ownersV1 *owner.Handler,
	usersV1 *user.Handler,
	statsV1 *stats.Handler,
) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}))

	router.Route("/api/v1", func(r chi.Router) {
		r.With(middleware.AllowContentType("application/json")).
			Post("/login", usersV1.Login)

		r.Group(func(r chi.Router) {
			r.Use(tokens.Middleware)

			r.Route("/transactions", func(r chi.Router) {
				r.Use(middleware.AllowContentType("application/json"))
				transactionsV1.Routes(r)
			})

			r.Route("/owners", func(r chi.Router) {
				r.Use(middleware.AllowContentType("application/json"))
				ownersV1.Routes(r)
			})

			r.Route("/users", func(r chi.Router) {
				r.Use(middleware.AllowContentType("application/json"))
				usersV1.Routes(r)
			})

			statsV1.Routes(r)
		})
	})

	return router
}
