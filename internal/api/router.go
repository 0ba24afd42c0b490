package api

import (
	"net/http"

	"github.com/bcnelson/erp-console/internal/api/handler"
	"github.com/bcnelson/erp-console/internal/api/middleware"
	"github.com/bcnelson/erp-console/internal/auth"
	"github.com/bcnelson/erp-console/internal/i18n"
	"github.com/bcnelson/erp-console/internal/session"
	"github.com/bcnelson/erp-console/internal/web"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
)

// Dependencies wires the HTTP surface.
type Dependencies struct {
	Sessions    *session.Manager
	Cookies     *auth.SessionManager
	CSRF        *auth.CSRFStore
	I18n        *i18n.Bundle
	Gatherer    prometheus.Gatherer
	CORSOrigins []string
	Logger      *logrus.Logger
}

// NewRouter creates a new HTTP router with all routes configured.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Logging(deps.Logger))

	// Health check (no auth required)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})
	if deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	// Mount web UI (no Content-Type middleware - serves HTML)
	r.Mount("/", web.NewRouter(web.Dependencies{
		Sessions: deps.Sessions,
		Cookies:  deps.Cookies,
		CSRF:     deps.CSRF,
		I18n:     deps.I18n,
		Logger:   deps.Logger,
	}))

	// API routes (JSON Content-Type)
	r.Route("/api/v1", func(r chi.Router) {
		if len(deps.CORSOrigins) > 0 {
			r.Use(cors.New(cors.Options{
				AllowedOrigins:   deps.CORSOrigins,
				AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
				AllowedHeaders:   []string{"Content-Type", "Accept-Language"},
				AllowCredentials: true,
			}).Handler)
		}
		r.Use(middleware.ContentType)

		sessionHandler := handler.NewSessionHandler(deps.Sessions, deps.Cookies, deps.I18n, deps.Logger)
		r.Post("/session", sessionHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(deps.Cookies, deps.Sessions))

			r.Get("/session", sessionHandler.Get)
			r.Delete("/session", sessionHandler.Logout)

			shellHandler := handler.NewShellHandler()
			r.Get("/menu", shellHandler.Menu)
			r.Get("/shell", shellHandler.Get)
			r.Post("/shell/tabs/{moduleKey}", shellHandler.OpenTab)
			r.Put("/shell/tabs/{moduleKey}", shellHandler.ActivateTab)
			r.Delete("/shell/tabs/{moduleKey}", shellHandler.CloseTab)
			r.Post("/shell/actions/{action}", shellHandler.Dispatch)

			cardHandler := handler.NewCardHandler()
			r.Route("/cards/{moduleKey}", func(r chi.Router) {
				r.Get("/", cardHandler.Get)
				r.Post("/select", cardHandler.Select)
				r.Post("/save", cardHandler.Save)
				r.Post("/confirm", cardHandler.Confirm)
				r.Post("/cancel", cardHandler.Cancel)
				r.Put("/conditions", cardHandler.SetConditions)
				r.Put("/columns", cardHandler.SetColumns)
			})
		})
	})

	return r
}
