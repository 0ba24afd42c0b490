package web

import (
	"net/http"

	"github.com/bcnelson/erp-console/internal/i18n"
	"github.com/bcnelson/erp-console/internal/session"
)

// sessionAuth is middleware that resolves the session cookie to a live
// console session.
func (s *Server) sessionAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cs, err := s.cookies.Get(r)
		if err != nil {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		sess, err := s.sessions.Get(r.Context(), cs.SessionID)
		if err != nil || sess.UserID != cs.UserID {
			// Invalid or expired session
			s.cookies.Clear(w)
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		next.ServeHTTP(w, r.WithContext(session.NewContext(r.Context(), sess)))
	})
}

// csrfProtect rejects state-changing requests without a valid token.
func (s *Server) csrfProtect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
			return
		}
		if err := s.csrf.Validate(r); err != nil {
			s.log.WithError(err).WithField("path", r.URL.Path).Warn("CSRF validation failed")
			s.renderError(w, "Invalid or expired form token", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// localizer picks the session's locale, or the browser's before login.
func (s *Server) localizer(r *http.Request) *i18n.Localizer {
	if sess := session.FromContext(r.Context()); sess != nil && sess.Locale != "" {
		return s.bundle.Localizer(sess.Locale)
	}
	return s.bundle.Localizer(s.bundle.Match(r.Header.Get("Accept-Language")))
}
