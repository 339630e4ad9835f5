package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/docvault/docvault/internal/api/auth"
	"github.com/docvault/docvault/internal/api/documents"
)

// Config contains dependencies needed for the router setup
type Config struct {
	AuthHandler            *auth.AuthHandler
	DocumentHandler        *documents.DocumentHandler
	AuthenticateMiddleware func(http.Handler) http.Handler
	CORSOrigins            []string
}

// SetupRouter initializes and configures the main application router.
// Server-wide middleware (logger, requestID, recoverer) are expected
// to be applied before mounting this router in main.go.
func SetupRouter(cfg *Config) chi.Router {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("pong"))
	})

	r.Route("/api", func(r chi.Router) {

		// --- Public routes ---
		r.Group(func(r chi.Router) {
			r.Post("/auth/register", cfg.AuthHandler.Register)
			r.Post("/auth/login", cfg.AuthHandler.Login)
			r.Post("/auth/forgotpassword", cfg.AuthHandler.ForgotPassword)
			r.Post("/auth/verifyotp", cfg.AuthHandler.VerifyOtp)

			// The summarizer has no per-user state and takes raw text.
			r.Post("/documents/summarize", cfg.DocumentHandler.Summarize)
		})

		// --- Protected routes ---
		r.Group(func(r chi.Router) {
			r.Use(cfg.AuthenticateMiddleware)

			r.Post("/documents/upload", cfg.DocumentHandler.Upload)
			r.Get("/documents", cfg.DocumentHandler.List)
			r.Get("/documents/{id}", cfg.DocumentHandler.Get)
			r.Get("/documents/{id}/download", cfg.DocumentHandler.Download)
			r.Patch("/documents/{id}/summary", cfg.DocumentHandler.UpdateSummary)
		})
	})

	// Compatibility aliases for the original client's reset flow.
	r.Post("/forgotpassword", cfg.AuthHandler.ForgotPassword)
	r.Post("/verifyotp", cfg.AuthHandler.VerifyOtp)

	return r
}
