package auth

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/bcnelson/erp-console/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

func cookieRequest(rec *httptest.ResponseRecorder) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

func TestSessionRoundTrip(t *testing.T) {
	sm, err := NewSessionManager(testKey, time.Hour, false)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	require.NoError(t, sm.Create(rec, &CookieSession{SessionID: "sid", UserID: "demo"}))

	got, err := sm.Get(cookieRequest(rec))
	require.NoError(t, err)
	assert.Equal(t, "sid", got.SessionID)
	assert.Equal(t, "demo", got.UserID)
}

func TestSessionRejectsTamperedAndExpired(t *testing.T) {
	sm, err := NewSessionManager(testKey, time.Hour, false)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "garbage"})
	_, err = sm.Get(req)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = sm.Get(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	rec := httptest.NewRecorder()
	require.NoError(t, sm.Create(rec, &CookieSession{SessionID: "sid"}))
	sm.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = sm.Get(cookieRequest(rec))
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestSessionKeyLength(t *testing.T) {
	_, err := NewSessionManager([]byte("short"), time.Hour, false)
	assert.Error(t, err)
}

func TestClearExpiresCookie(t *testing.T) {
	sm, err := NewSessionManager(testKey, time.Hour, true)
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	sm.Clear(rec)
	c := rec.Result().Cookies()[0]
	assert.Equal(t, SessionCookieName, c.Name)
	assert.Equal(t, -1, c.MaxAge)
	assert.True(t, c.Secure)
}

func TestCSRF(t *testing.T) {
	cs, err := NewCSRFStore(testKey, false)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	token, err := cs.Token(rec, httptest.NewRequest(http.MethodGet, "/login", nil))
	require.NoError(t, err)
	require.NotEmpty(t, token)
	cookies := rec.Result().Cookies()

	post := func(value string) *http.Request {
		form := url.Values{CSRFFieldName: {value}}
		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		for _, c := range cookies {
			req.AddCookie(c)
		}
		return req
	}
	assert.NoError(t, cs.Validate(post(token)))
	assert.Error(t, cs.Validate(post("forged")))

	// An existing cookie keeps its token.
	again, err := cs.Token(httptest.NewRecorder(), post(token))
	require.NoError(t, err)
	assert.Equal(t, token, again)

	// Header submission.
	req := httptest.NewRequest(http.MethodPost, "/api", nil)
	req.Header.Set(CSRFHeaderName, token)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	assert.NoError(t, cs.Validate(req))
}
