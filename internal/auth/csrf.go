package auth

import (
	"net/http"
	"time"

	"github.com/go-faster/errors"
)

const (
	// CSRFCookieName is the name of the CSRF cookie.
	CSRFCookieName = "erp_console_csrf"
	// CSRFFieldName is the form field carrying the token.
	CSRFFieldName = "csrf_token"
	// CSRFHeaderName is the header carrying the token for script clients.
	CSRFHeaderName = "X-CSRF-Token"
	// CSRFMaxAge is how long a token stays valid.
	CSRFMaxAge = 12 * time.Hour
)

// CSRFStore issues double-submit tokens: the token is rendered into forms
// and kept encrypted in a cookie.
type CSRFStore struct {
	sealer *sealer
	secure bool
	now    func() time.Time
}

type csrfData struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewCSRFStore creates a CSRFStore. The key must be 32 bytes.
func NewCSRFStore(key []byte, secure bool) (*CSRFStore, error) {
	s, err := newSealer(key)
	if err != nil {
		return nil, errors.Wrap(err, "csrf key")
	}
	return &CSRFStore{sealer: s, secure: secure, now: time.Now}, nil
}

// Token returns the token of the request's cookie, issuing a new cookie
// when it is missing or invalid.
func (cs *CSRFStore) Token(w http.ResponseWriter, r *http.Request) (string, error) {
	if data, err := cs.read(r); err == nil {
		return data.Token, nil
	}

	token, err := GenerateSecureString(32)
	if err != nil {
		return "", errors.Wrap(err, "generating token")
	}
	data := csrfData{Token: token, ExpiresAt: cs.now().Add(CSRFMaxAge)}
	encoded, err := cs.sealer.seal(data)
	if err != nil {
		return "", errors.Wrap(err, "sealing token")
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CSRFCookieName,
		Value:    encoded,
		Path:     "/",
		MaxAge:   int(CSRFMaxAge.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   cs.secure,
	})
	return token, nil
}

func (cs *CSRFStore) read(r *http.Request) (*csrfData, error) {
	cookie, err := r.Cookie(CSRFCookieName)
	if err != nil {
		return nil, errors.Wrap(err, "csrf cookie not found")
	}
	var data csrfData
	if err := cs.sealer.open(cookie.Value, &data); err != nil {
		return nil, err
	}
	if cs.now().After(data.ExpiresAt) {
		return nil, errors.New("csrf token expired")
	}
	return &data, nil
}

// Validate checks the submitted token (form field or header) against the
// cookie.
func (cs *CSRFStore) Validate(r *http.Request) error {
	data, err := cs.read(r)
	if err != nil {
		return err
	}
	submitted := r.Header.Get(CSRFHeaderName)
	if submitted == "" {
		submitted = r.PostFormValue(CSRFFieldName)
	}
	if submitted == "" || !ConstantTimeCompare(data.Token, submitted) {
		return errors.New("csrf token mismatch")
	}
	return nil
}
