package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/bcnelson/erp-console/internal/auth"
	"github.com/bcnelson/erp-console/internal/domain"
	"github.com/bcnelson/erp-console/internal/session"
)

// Auth creates authentication middleware. The request must carry a session
// cookie naming a live console session.
func Auth(cookies *auth.SessionManager, sessions *session.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cs, err := cookies.Get(r)
			if err != nil {
				unauthorized(w, "missing or invalid session cookie")
				return
			}

			sess, err := sessions.Get(r.Context(), cs.SessionID)
			if err != nil || sess.UserID != cs.UserID {
				cookies.Clear(w)
				unauthorized(w, "session expired")
				return
			}

			next.ServeHTTP(w, r.WithContext(session.NewContext(r.Context(), sess)))
		})
	}
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(domain.StandardErrorResponse{
		Error: domain.StandardError{Code: domain.ErrCodeUnauthorized, Message: message},
	})
}
