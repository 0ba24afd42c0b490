package web

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/bcnelson/erp-console/internal/auth"
	"github.com/bcnelson/erp-console/internal/i18n"
	"github.com/bcnelson/erp-console/internal/session"
	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

//go:embed templates/* static/*
var content embed.FS

// Dependencies wires the web UI.
type Dependencies struct {
	Sessions *session.Manager
	Cookies  *auth.SessionManager
	CSRF     *auth.CSRFStore
	I18n     *i18n.Bundle
	Logger   *logrus.Logger
}

// Server holds dependencies for web handlers.
type Server struct {
	sessions  *session.Manager
	cookies   *auth.SessionManager
	csrf      *auth.CSRFStore
	bundle    *i18n.Bundle
	log       *logrus.Logger
	templates map[string]*template.Template
	funcMap   template.FuncMap
}

// NewRouter creates a new web router with all routes configured.
func NewRouter(deps Dependencies) http.Handler {
	s := &Server{
		sessions: deps.Sessions,
		cookies:  deps.Cookies,
		csrf:     deps.CSRF,
		bundle:   deps.I18n,
		log:      deps.Logger,
	}

	s.templates = s.parseTemplates()

	r := chi.NewRouter()

	staticFS, _ := fs.Sub(content, "static")
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))

	// Public routes
	r.Group(func(r chi.Router) {
		r.Use(s.csrfProtect)
		r.Get("/login", s.handleLoginPage)
		r.Post("/login", s.handleLogin)
	})
	r.Get("/logout", s.handleLogout)

	// Protected routes (require session)
	r.Group(func(r chi.Router) {
		r.Use(s.sessionAuth)
		r.Use(s.csrfProtect)

		r.Post("/tabs/{moduleKey}/open", s.handleTabOpen)
		r.Post("/tabs/{moduleKey}/close", s.handleTabClose)
		r.Post("/actions/{action}", s.handleAction)

		r.Route("/cards/{moduleKey}", func(r chi.Router) {
			r.Post("/select/{id}", s.handleSelect)
			r.Post("/save", s.handleSave)
			r.Post("/confirm", s.handleConfirm)
			r.Post("/conditions", s.handleConditions)
			r.Post("/columns", s.handleColumns)
			r.Post("/cancel", s.handleCancel)
		})

		r.Get("/", s.handleShell)
		r.Get("/{moduleKey}", s.handleShell)
	})

	return r
}

// parseTemplates parses all templates with custom functions.
func (s *Server) parseTemplates() map[string]*template.Template {
	s.funcMap = template.FuncMap{
		"join":  strings.Join,
		"lower": strings.ToLower,
		"dict":  dict,
		"inc":   func(n int) int { return n + 1 },
	}

	templates := make(map[string]*template.Template)

	baseContent, _ := content.ReadFile("templates/base.html")
	navContent, _ := content.ReadFile("templates/components/nav.html")
	flashContent, _ := content.ReadFile("templates/components/flash.html")
	modalContent, _ := content.ReadFile("templates/components/modal.html")

	baseWithComponents := string(baseContent) + string(navContent) + string(flashContent) + string(modalContent)

	pageFiles, _ := fs.Glob(content, "templates/pages/*.html")
	for _, pagePath := range pageFiles {
		pageName := strings.TrimSuffix(filepath.Base(pagePath), ".html")
		pageContent, _ := content.ReadFile(pagePath)

		tmpl, err := template.New(pageName).Funcs(s.funcMap).Parse(baseWithComponents + string(pageContent))
		if err != nil {
			panic("failed to parse template " + pageName + ": " + err.Error())
		}
		templates[pageName] = tmpl
	}

	return templates
}

// dict creates a map from key-value pairs for use in templates.
func dict(values ...any) map[string]any {
	if len(values)%2 != 0 {
		return nil
	}
	m := make(map[string]any, len(values)/2)
	for i := 0; i < len(values); i += 2 {
		key, ok := values[i].(string)
		if !ok {
			continue
		}
		m[key] = values[i+1]
	}
	return m
}

// PageData holds common data passed to all page templates.
type PageData struct {
	Title   string
	Active  string // active module key
	User    string
	Flash   *FlashMessage
	CSRF    string
	L       *i18n.Localizer
	Content any
}

// FlashMessage represents a flash message.
type FlashMessage struct {
	Type    string // "success", "error", "info"
	Message string
}
