package handler

import (
	"net/http"
	"time"

	"github.com/bcnelson/erp-console/internal/auth"
	"github.com/bcnelson/erp-console/internal/domain"
	"github.com/bcnelson/erp-console/internal/i18n"
	"github.com/bcnelson/erp-console/internal/session"
	"github.com/bcnelson/erp-console/internal/validation"
	"github.com/go-faster/errors"
	"github.com/sirupsen/logrus"
)

// SessionHandler handles login and logout.
type SessionHandler struct {
	sessions *session.Manager
	cookies  *auth.SessionManager
	bundle   *i18n.Bundle
	log      *logrus.Logger
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(sessions *session.Manager, cookies *auth.SessionManager, bundle *i18n.Bundle, logger *logrus.Logger) *SessionHandler {
	return &SessionHandler{sessions: sessions, cookies: cookies, bundle: bundle, log: logger}
}

type loginRequest struct {
	UserID   string `json:"userId"`
	Password string `json:"password"`
	Locale   string `json:"locale,omitempty"`
}

type sessionResponse struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	UserName     string    `json:"userName"`
	TenantSchema string    `json:"tenantSchema"`
	Locale       string    `json:"locale"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

func toSessionResponse(s *session.Session) sessionResponse {
	return sessionResponse{
		ID:           s.ID,
		UserID:       s.UserID,
		UserName:     s.UserName,
		TenantSchema: s.TenantSchema,
		Locale:       s.Locale,
		ExpiresAt:    s.ExpiresAt,
	}
}

// Login authenticates against the gateway and sets the session cookie.
func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, err, nil)
		return
	}
	if err := validation.Struct(validation.LoginForm{UserID: req.UserID, Password: req.Password}); err != nil {
		handleError(w, err, nil)
		return
	}

	locale := req.Locale
	if locale == "" {
		locale = r.Header.Get("Accept-Language")
	}
	sess, err := h.sessions.Login(r.Context(), req.UserID, req.Password, h.bundle.Match(locale))
	if err != nil {
		h.log.WithError(err).WithField("user", req.UserID).Warn("Login failed")
		notice := domain.Blocking(domain.MsgLoginFailed)
		var gwErr *domain.GatewayError
		if errors.As(err, &gwErr) {
			notice.Detail = gwErr.Message
			err = errors.Wrap(domain.ErrUnauthorized, gwErr.Message)
		}
		handleError(w, err, notice)
		return
	}

	if err := h.cookies.Create(w, &auth.CookieSession{SessionID: sess.ID, UserID: sess.UserID}); err != nil {
		_ = h.sessions.Logout(r.Context(), sess.ID)
		handleError(w, err, nil)
		return
	}
	respondJSON(w, http.StatusCreated, toSessionResponse(sess))
}

// Get returns the current session.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, toSessionResponse(session.FromContext(r.Context())))
}

// Logout ends the current session.
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	if err := h.sessions.Logout(r.Context(), sess.ID); err != nil {
		h.log.WithError(err).WithField("session", sess.ID).Warn("Logout failed")
	}
	h.cookies.Clear(w)
	w.WriteHeader(http.StatusNoContent)
}
