// Package auth carries the console session id and CSRF token in encrypted
// cookies. Users authenticate against the gateway; nothing here checks
// credentials.
package auth

import (
	"net/http"
	"time"

	"github.com/bcnelson/erp-console/internal/domain"
	"github.com/go-faster/errors"
)

const (
	// SessionCookieName is the name of the session cookie.
	SessionCookieName = "erp_console_session"
)

// SessionManager handles encrypted session cookies.
type SessionManager struct {
	sealer   *sealer
	duration time.Duration
	secure   bool // Use Secure flag on cookies (for HTTPS)
	now      func() time.Time
}

// CookieSession is the data stored in the encrypted cookie. The session
// state itself stays on the server.
type CookieSession struct {
	SessionID string    `json:"sid"`
	UserID    string    `json:"uid"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// NewSessionManager creates a new session manager with the given encryption key.
// The key must be exactly 32 bytes for AES-256.
func NewSessionManager(key []byte, duration time.Duration, secure bool) (*SessionManager, error) {
	s, err := newSealer(key)
	if err != nil {
		return nil, errors.Wrap(err, "session key")
	}
	return &SessionManager{
		sealer:   s,
		duration: duration,
		secure:   secure,
		now:      time.Now,
	}, nil
}

// Duration returns the session lifetime.
func (sm *SessionManager) Duration() time.Duration {
	return sm.duration
}

// Create sets the encrypted session cookie.
func (sm *SessionManager) Create(w http.ResponseWriter, session *CookieSession) error {
	session.CreatedAt = sm.now()
	session.ExpiresAt = session.CreatedAt.Add(sm.duration)

	encoded, err := sm.sealer.seal(session)
	if err != nil {
		return errors.Wrap(err, "sealing session")
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    encoded,
		Path:     "/",
		MaxAge:   int(sm.duration.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   sm.secure,
	})
	return nil
}

// Get retrieves and validates the session from the cookie. Any failure
// wraps domain.ErrUnauthorized.
func (sm *SessionManager) Get(r *http.Request) (*CookieSession, error) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return nil, errors.Wrap(domain.ErrUnauthorized, "session cookie not found")
	}

	var session CookieSession
	if err := sm.sealer.open(cookie.Value, &session); err != nil {
		return nil, errors.Wrapf(domain.ErrUnauthorized, "invalid session: %v", err)
	}
	if sm.now().After(session.ExpiresAt) {
		return nil, errors.Wrap(domain.ErrUnauthorized, "session expired")
	}
	return &session, nil
}

// Clear clears the session cookie.
func (sm *SessionManager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   sm.secure,
	})
}
