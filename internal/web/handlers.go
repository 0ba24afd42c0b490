package web

import (
	"html/template"
	"mime"
	"net/http"
	"strconv"

	"github.com/bcnelson/erp-console/internal/auth"
	"github.com/bcnelson/erp-console/internal/card"
	"github.com/bcnelson/erp-console/internal/domain"
	"github.com/bcnelson/erp-console/internal/entity"
	"github.com/bcnelson/erp-console/internal/export"
	"github.com/bcnelson/erp-console/internal/session"
	"github.com/bcnelson/erp-console/internal/shell"
	"github.com/bcnelson/erp-console/internal/validation"
	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/sirupsen/logrus"
)

// handleLoginPage renders the login page.
func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	s.renderLogin(w, r, nil, http.StatusOK)
}

func (s *Server) renderLogin(w http.ResponseWriter, r *http.Request, flash *domain.Notice, status int) {
	l := s.localizer(r)
	token, err := s.csrf.Token(w, r)
	if err != nil {
		s.log.WithError(err).Error("Issuing CSRF token failed")
		s.renderError(w, "Server error", http.StatusInternalServerError)
		return
	}
	data := PageData{
		Title: l.Text("UI.Login"),
		Flash: flashOf(l, flash),
		CSRF:  token,
		L:     l,
	}
	if status != http.StatusOK {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
	}
	s.render(w, "base-noauth", "login", data)
}

// handleLogin authenticates against the gateway and starts a session.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	form := validation.LoginForm{
		UserID:   r.PostFormValue("user_id"),
		Password: r.PostFormValue("password"),
	}
	if err := validation.Struct(form); err != nil {
		s.renderLogin(w, r, &domain.Notice{
			Kind:      domain.NoticeBlocking,
			MessageID: domain.MsgLoginFailed,
			Detail:    err.Error(),
		}, http.StatusBadRequest)
		return
	}

	locale := r.PostFormValue("locale")
	if locale == "" {
		locale = r.Header.Get("Accept-Language")
	}
	locale = s.bundle.Match(locale)

	sess, err := s.sessions.Login(r.Context(), form.UserID, form.Password, locale)
	if err != nil {
		s.log.WithError(err).WithField("user", form.UserID).Warn("Login failed")
		notice := domain.Blocking(domain.MsgLoginFailed)
		var gwErr *domain.GatewayError
		if errors.As(err, &gwErr) {
			notice.Detail = gwErr.Message
		}
		s.renderLogin(w, r, notice, http.StatusUnauthorized)
		return
	}

	if err := s.cookies.Create(w, &auth.CookieSession{SessionID: sess.ID, UserID: sess.UserID}); err != nil {
		s.log.WithError(err).Error("Creating session cookie failed")
		_ = s.sessions.Logout(r.Context(), sess.ID)
		s.renderError(w, "Server error", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, shell.RootRoute, http.StatusSeeOther)
}

// handleLogout ends the session and redirects to login.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cs, err := s.cookies.Get(r); err == nil {
		if err := s.sessions.Logout(r.Context(), cs.SessionID); err != nil {
			s.log.WithError(err).Warn("Logout failed")
		}
	}
	s.cookies.Clear(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// handleShell renders the tab shell for the current route.
func (s *Server) handleShell(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	if target := sess.Shell.SyncRoute(r.URL.Path); target != "" {
		http.Redirect(w, r, target, http.StatusSeeOther)
		return
	}

	l := s.localizer(r)
	page, err := buildShellPage(sess, l)
	if err != nil {
		s.handleWebError(w, err)
		return
	}
	token, err := s.csrf.Token(w, r)
	if err != nil {
		s.handleWebError(w, err)
		return
	}

	title := l.Text("UI.Title")
	for _, tab := range page.Shell.Tabs {
		if tab.Active {
			title = tab.Label + " - " + title
		}
	}
	s.render(w, "base", "shell", PageData{
		Title:   title,
		Active:  page.Shell.Active,
		User:    sess.UserName,
		Flash:   flashOf(l, sess.TakeFlash()),
		CSRF:    token,
		L:       l,
		Content: page,
	})
}

func (s *Server) handleTabOpen(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	route, err := sess.Shell.OpenTab(chi.URLParam(r, "moduleKey"))
	if err != nil {
		s.handleWebError(w, err)
		return
	}
	http.Redirect(w, r, route, http.StatusSeeOther)
}

func (s *Server) handleTabClose(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	route, err := sess.Shell.CloseTab(chi.URLParam(r, "moduleKey"))
	if err != nil {
		s.handleWebError(w, err)
		return
	}
	http.Redirect(w, r, route, http.StatusSeeOther)
}

// handleAction dispatches a toolbar action to the active tab.
func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	action, err := domain.ParseAction(chi.URLParam(r, "action"))
	if err != nil {
		s.handleWebError(w, err)
		return
	}

	out, err := sess.Shell.Dispatch(r.Context(), action)
	if err == nil && out.Download != nil {
		writeDownload(w, out.Download)
		return
	}
	if err == nil && out.Print != nil {
		l := s.localizer(r)
		s.render(w, "base-noauth", "print", PageData{Title: out.Print.Title, L: l, Content: out.Print})
		return
	}
	s.finish(w, r, sess, out.Module, &out.Result, err)
}

// finish flashes a command's notice and returns to the active route.
// Inline notices are shown by the grid itself.
func (s *Server) finish(w http.ResponseWriter, r *http.Request, sess *session.Session, module string, res *card.Result, err error) {
	if err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"session": sess.ID,
			"module":  module,
			"path":    r.URL.Path,
		}).Debug("Command did not complete")
	}
	if res != nil && res.Notice != nil && res.Notice.Kind != domain.NoticeInline {
		sess.SetFlash(res.Notice)
	}
	http.Redirect(w, r, sess.Shell.Snapshot().Route, http.StatusSeeOther)
}

// writeDownload streams an export as an attachment.
func writeDownload(w http.ResponseWriter, d *export.Download) {
	w.Header().Set("Content-Type", d.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": d.Filename}))
	w.Header().Set("Content-Length", strconv.Itoa(len(d.Body)))
	w.WriteHeader(http.StatusOK)
	w.Write(d.Body)
}

// cardOf resolves the card and schema named by the route.
func (s *Server) cardOf(w http.ResponseWriter, r *http.Request) (*session.Session, card.Handle, *entity.Schema, bool) {
	sess := session.FromContext(r.Context())
	key := chi.URLParam(r, "moduleKey")
	h, err := sess.Shell.Card(key)
	if err != nil {
		s.handleWebError(w, err)
		return nil, nil, nil, false
	}
	schema, err := sess.Shell.Registry().Get(key)
	if err != nil {
		s.handleWebError(w, err)
		return nil, nil, nil, false
	}
	return sess, h, schema, true
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	sess, h, _, ok := s.cardOf(w, r)
	if !ok {
		return
	}
	if err := h.Select(chi.URLParam(r, "id")); err != nil {
		s.handleWebError(w, err)
		return
	}
	http.Redirect(w, r, sess.Shell.Snapshot().Route, http.StatusSeeOther)
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	sess, h, schema, ok := s.cardOf(w, r)
	if !ok {
		return
	}
	res, err := h.Save(r.Context(), recordFromForm(schema, r))
	s.finish(w, r, sess, schema.Key, res, err)
}

func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request) {
	sess, h, schema, ok := s.cardOf(w, r)
	if !ok {
		return
	}
	res, err := h.Confirm(r.Context(), r.PostFormValue("answer") == "yes")
	s.finish(w, r, sess, schema.Key, res, err)
}

func (s *Server) handleConditions(w http.ResponseWriter, r *http.Request) {
	sess, h, schema, ok := s.cardOf(w, r)
	if !ok {
		return
	}
	h.SetConditions(conditionsFromForm(schema, r))
	if r.URL.Query().Get("search") != "1" && r.PostFormValue("search") != "1" {
		http.Redirect(w, r, sess.Shell.Snapshot().Route, http.StatusSeeOther)
		return
	}
	out, err := sess.Shell.Dispatch(r.Context(), domain.ActionSearch)
	s.finish(w, r, sess, schema.Key, &out.Result, err)
}

func (s *Server) handleColumns(w http.ResponseWriter, r *http.Request) {
	sess, h, schema, ok := s.cardOf(w, r)
	if !ok {
		return
	}
	cols, err := columnsFromForm(r)
	if err == nil {
		err = h.SetColumns(cols)
	}
	if err != nil {
		sess.SetFlash(&domain.Notice{
			Kind:      domain.NoticeBlocking,
			MessageID: domain.MsgInvalidRecord,
			Detail:    err.Error(),
		})
		s.log.WithError(err).WithField("module", schema.Key).Debug("Rejected column layout")
	}
	http.Redirect(w, r, sess.Shell.Snapshot().Route, http.StatusSeeOther)
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	sess, h, _, ok := s.cardOf(w, r)
	if !ok {
		return
	}
	h.Cancel()
	http.Redirect(w, r, sess.Shell.Snapshot().Route, http.StatusSeeOther)
}

// handleWebError renders err with the status its kind maps to.
func (s *Server) handleWebError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrUnknownModule),
		errors.Is(err, domain.ErrTabNotOpen),
		errors.Is(err, domain.ErrUnknownAction),
		errors.Is(err, domain.ErrNotFound):
		s.renderError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, domain.ErrInvalidInput):
		s.renderError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrPreconditionFailed):
		s.renderError(w, err.Error(), http.StatusConflict)
	default:
		s.log.WithError(err).Error("Web request failed")
		s.renderError(w, "Server error", http.StatusInternalServerError)
	}
}

// render renders a full page using the base template.
// page is the page name (e.g., "login", "shell", "print")
// base is the base template to use ("base" or "base-noauth")
func (s *Server) render(w http.ResponseWriter, base, page string, data PageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	tmpl, ok := s.templates[page]
	if !ok {
		http.Error(w, "Template not found: "+page, http.StatusInternalServerError)
		return
	}

	err := tmpl.ExecuteTemplate(w, base, data)
	if err != nil {
		http.Error(w, "Template error: "+err.Error(), http.StatusInternalServerError)
	}
}

// renderError renders an error message.
func (s *Server) renderError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write([]byte(`<div class="flash flash-error">` + template.HTMLEscapeString(message) + `</div>`))
}
