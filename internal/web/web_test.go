package web

import (
	"context"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/bcnelson/erp-console/internal/auth"
	"github.com/bcnelson/erp-console/internal/domain"
	"github.com/bcnelson/erp-console/internal/entity"
	"github.com/bcnelson/erp-console/internal/gateway"
	"github.com/bcnelson/erp-console/internal/gateway/gatewaytest"
	"github.com/bcnelson/erp-console/internal/i18n"
	"github.com/bcnelson/erp-console/internal/permission"
	"github.com/bcnelson/erp-console/internal/service"
	"github.com/bcnelson/erp-console/internal/session"
	"github.com/bcnelson/erp-console/internal/storage/memory"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var csrfPattern = regexp.MustCompile(`name="csrf_token" value="([^"]+)"`)

type harness struct {
	srv     *httptest.Server
	client  *http.Client
	gw      *gatewaytest.Mock
	mgr     *session.Manager
	cookies *auth.SessionManager
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	gw := gatewaytest.New()
	gw.LoginResult = &domain.LoginResult{UserID: "demo", UserName: "Demo", TenantSchema: "ssc_00_demo.dbo"}
	gw.SetRows(gateway.MapMenu,
		domain.Record{"module": "parent", "buttonid": "10", "remark": "Base codes"},
		domain.Record{"module": "w_hc01010", "buttonid": "10", "remark": "Business places"},
		domain.Record{"module": "w_hc01110", "buttonid": "10", "remark": "Trading partners"},
	)

	persist := service.NewPersistService(memory.New(), time.Hour, logger)
	mgr := session.NewManager(session.Config{
		Client:   gw,
		Registry: entity.Default(),
		Resolver: permission.NewStaticResolver(entity.Default(), 0),
		Persist:  persist,
		Duration: time.Hour,
		Logger:   logger,
	})

	key := []byte("0123456789abcdef0123456789abcdef")
	cookies, err := auth.NewSessionManager(key, time.Hour, false)
	require.NoError(t, err)
	csrf, err := auth.NewCSRFStore(key, false)
	require.NoError(t, err)
	bundle, err := i18n.New("en")
	require.NoError(t, err)

	srv := httptest.NewServer(NewRouter(Dependencies{
		Sessions: mgr,
		Cookies:  cookies,
		CSRF:     csrf,
		I18n:     bundle,
		Logger:   logger,
	}))
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	h := &harness{
		srv: srv,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		gw:      gw,
		mgr:     mgr,
		cookies: cookies,
	}
	t.Cleanup(func() {
		srv.Close()
		mgr.Close()
		_ = persist.Stop(context.Background())
	})
	return h
}

// login starts a session directly and hands its cookie to the client.
func (h *harness) login(t *testing.T) *session.Session {
	t.Helper()
	sess, err := h.mgr.Login(context.Background(), "demo", "pw", "en")
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	require.NoError(t, h.cookies.Create(rec, &auth.CookieSession{SessionID: sess.ID, UserID: sess.UserID}))
	u, _ := url.Parse(h.srv.URL)
	h.client.Jar.SetCookies(u, rec.Result().Cookies())
	return sess
}

func (h *harness) get(t *testing.T, path string) (*http.Response, string) {
	t.Helper()
	resp, err := h.client.Get(h.srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func (h *harness) token(t *testing.T) string {
	t.Helper()
	_, body := h.get(t, "/login")
	m := csrfPattern.FindStringSubmatch(body)
	require.Len(t, m, 2, "login page carries a csrf token")
	return m[1]
}

func (h *harness) post(t *testing.T, path string, form url.Values) (*http.Response, string) {
	t.Helper()
	if form == nil {
		form = url.Values{}
	}
	if form.Get(auth.CSRFFieldName) == "" {
		form.Set(auth.CSRFFieldName, h.token(t))
	}
	resp, err := h.client.PostForm(h.srv.URL+path, form)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func (h *harness) openTab(t *testing.T, sess *session.Session, key string) {
	t.Helper()
	resp, _ := h.post(t, "/tabs/"+key+"/open", nil)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/"+key, resp.Header.Get("Location"))
	require.Eventually(t, func() bool {
		return sess.Shell.Permissions(key).View
	}, time.Second, 5*time.Millisecond)
}

func TestLoginPageRendersForm(t *testing.T) {
	h := newHarness(t)
	resp, body := h.get(t, "/login")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `name="user_id"`)
	assert.Regexp(t, csrfPattern, body)
}

func TestLoginFlow(t *testing.T) {
	h := newHarness(t)
	resp, _ := h.post(t, "/login", url.Values{"user_id": {"demo"}, "password": {"pw"}, "locale": {"en"}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))
	assert.Equal(t, 1, h.mgr.Len())

	resp, body := h.get(t, "/")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Select a menu from the left sidebar.")
	assert.Contains(t, body, "Trading partners")
}

func TestLoginRequiresCSRF(t *testing.T) {
	h := newHarness(t)
	resp, err := h.client.PostForm(h.srv.URL+"/login", url.Values{"user_id": {"demo"}, "password": {"pw"}})
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, 0, h.mgr.Len())
}

func TestLoginFailureShowsGatewayMessage(t *testing.T) {
	h := newHarness(t)
	h.gw.LoginErr = &domain.GatewayError{Map: gateway.MapLogin, Message: "bad password"}

	resp, body := h.post(t, "/login", url.Values{"user_id": {"demo"}, "password": {"nope"}, "locale": {"en"}})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, body, "Login failed: bad password")
}

func TestLoginValidation(t *testing.T) {
	h := newHarness(t)
	resp, _ := h.post(t, "/login", url.Values{"user_id": {"demo"}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Empty(t, h.gw.CallsOf("login"))
}

func TestProtectedRoutesRedirectToLogin(t *testing.T) {
	h := newHarness(t)
	resp, _ := h.get(t, "/w_hc01110")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))
}

func TestUnknownRouteRedirectsToRoot(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	resp, _ := h.get(t, "/w_nothing")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))
}

func TestOpenUnknownTab(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	resp, _ := h.post(t, "/tabs/w_nothing/open", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSearchRendersGrid(t *testing.T) {
	h := newHarness(t)
	sess := h.login(t)
	h.gw.SetRows("cd01.cd01110_s",
		domain.Record{"HC11010": "001", "HC11011": "1", "HC11020": "Ace Trading"},
	)
	h.openTab(t, sess, "w_hc01110")

	resp, _ := h.post(t, "/cards/w_hc01110/conditions", url.Values{
		"customerType": {"1"},
		"dealName":     {" Ace "},
		"search":       {"1"},
	})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/w_hc01110", resp.Header.Get("Location"))

	queries := h.gw.CallsOf("query")
	last := queries[len(queries)-1]
	assert.Equal(t, "cd01.cd01110_s", last.Request.Map)
	assert.Equal(t, "Ace", last.Request.Params["HC11020"])

	resp, body := h.get(t, "/w_hc01110")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Ace Trading")
	assert.Contains(t, body, "1 rows")
}

func TestExportStreamsDownload(t *testing.T) {
	h := newHarness(t)
	sess := h.login(t)
	h.gw.SetRows("cd01.cd01110_s", domain.Record{"HC11010": "001", "HC11020": "Ace Trading"})
	h.openTab(t, sess, "w_hc01110")
	h.post(t, "/actions/search", nil)

	resp, body := h.post(t, "/actions/csv", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/csv"))
	assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Disposition"), "attachment"))
	assert.Contains(t, body, "Ace Trading")
}

func TestPrintRendersPrintPage(t *testing.T) {
	h := newHarness(t)
	sess := h.login(t)
	h.gw.SetRows("cd01.cd01110_s", domain.Record{"HC11010": "001", "HC11020": "Ace Trading"})
	h.openTab(t, sess, "w_hc01110")
	h.post(t, "/actions/search", nil)

	resp, body := h.post(t, "/actions/print", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `class="print"`)
	assert.Contains(t, body, "Ace Trading")
}

func TestDeniedActionFlashes(t *testing.T) {
	h := newHarness(t)
	sess := h.login(t)
	h.openTab(t, sess, "w_hc01010")

	resp, _ := h.post(t, "/actions/delete", nil)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Empty(t, h.gw.CallsOf("delete"))

	_, body := h.get(t, "/w_hc01010")
	assert.Contains(t, body, "You do not have permission to delete.")

	// The flash is shown once.
	_, body = h.get(t, "/w_hc01010")
	assert.NotContains(t, body, "You do not have permission to delete.")
}

func TestActionWithoutTab(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	resp, _ := h.post(t, "/actions/search", nil)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))

	_, body := h.get(t, "/")
	assert.Contains(t, body, `flash-error`)
}

func TestDeleteConfirmFlow(t *testing.T) {
	h := newHarness(t)
	sess := h.login(t)
	h.gw.SetRows("cd01.cd01110_s", domain.Record{"HC11010": "001", "HC11020": "Ace Trading"})
	h.openTab(t, sess, "w_hc01110")
	h.post(t, "/actions/search", nil)

	resp, _ := h.post(t, "/cards/w_hc01110/select/001", nil)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	h.post(t, "/actions/delete", nil)

	_, body := h.get(t, "/w_hc01110")
	assert.Contains(t, body, "Delete the selected 거래처 코드 item?")
	assert.Empty(t, h.gw.CallsOf("delete"))

	h.post(t, "/cards/w_hc01110/confirm", url.Values{"answer": {"yes"}})
	deletes := h.gw.CallsOf("delete")
	require.Len(t, deletes, 1)
	assert.Equal(t, "001", deletes[0].Request.Params["HC11010"])
}

func TestSelectUnknownRow(t *testing.T) {
	h := newHarness(t)
	sess := h.login(t)
	h.openTab(t, sess, "w_hc01110")
	resp, _ := h.post(t, "/cards/w_hc01110/select/999", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreateAndSave(t *testing.T) {
	h := newHarness(t)
	sess := h.login(t)
	h.openTab(t, sess, "w_hc01110")

	h.post(t, "/actions/create", nil)
	_, body := h.get(t, "/w_hc01110")
	assert.Contains(t, body, `action="/cards/w_hc01110/save"`)

	resp, _ := h.post(t, "/cards/w_hc01110/save", url.Values{
		"HC11010": {"002"},
		"HC11011": {"1"},
		"HC11020": {"Best Supply"},
	})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	inserts := h.gw.CallsOf("insert")
	require.Len(t, inserts, 1)
	assert.Equal(t, "Best Supply", inserts[0].Request.Params["HC11020"])

	_, body = h.get(t, "/w_hc01110")
	assert.Contains(t, body, "Saved.")
	assert.Contains(t, body, "Best Supply")
}

func TestColumnsRejectInvalidLayout(t *testing.T) {
	h := newHarness(t)
	sess := h.login(t)
	h.openTab(t, sess, "w_hc01110")

	resp, _ := h.post(t, "/cards/w_hc01110/columns", url.Values{
		"field[]":  {"HC11010"},
		"header[]": {"Code"},
		"width[]":  {"5"},
	})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	_, body := h.get(t, "/w_hc01110")
	assert.Contains(t, body, "flash-error")
	assert.Contains(t, body, "거래처명")
}

func TestColumnsApplyLayout(t *testing.T) {
	h := newHarness(t)
	sess := h.login(t)
	h.openTab(t, sess, "w_hc01110")

	h.post(t, "/cards/w_hc01110/columns", url.Values{
		"field[]":  {"HC11020", "HC11010"},
		"header[]": {"Partner", "Code"},
		"width[]":  {"240", "60"},
	})
	h2, err := sess.Shell.Card("w_hc01110")
	require.NoError(t, err)
	cols := h2.View().Columns
	require.Len(t, cols, 2)
	assert.Equal(t, entity.Column{Field: "HC11020", Header: "Partner", Width: 240}, cols[0])
}

func TestTabCloseRedirects(t *testing.T) {
	h := newHarness(t)
	sess := h.login(t)
	h.openTab(t, sess, "w_hc01010")
	h.openTab(t, sess, "w_hc01110")

	resp, _ := h.post(t, "/tabs/w_hc01110/close", nil)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/w_hc01010", resp.Header.Get("Location"))
}

func TestLogoutEndsSession(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	require.Equal(t, 1, h.mgr.Len())

	resp, _ := h.get(t, "/logout")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, 0, h.mgr.Len())

	resp, _ = h.get(t, "/")
	assert.Equal(t, "/login", resp.Header.Get("Location"))
}

func TestColumnsFromFormLengthMismatch(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("field[]=A&field[]=B&header[]=a&width[]=10"))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	require.NoError(t, r.ParseForm())
	_, err := columnsFromForm(r)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestFlashOf(t *testing.T) {
	bundle, err := i18n.New("en")
	require.NoError(t, err)
	l := bundle.Localizer("en")

	assert.Nil(t, flashOf(l, nil))
	assert.Equal(t, &FlashMessage{Type: "success", Message: "Saved."}, flashOf(l, domain.Info(domain.MsgSaved)))
	assert.Equal(t, "error", flashOf(l, domain.Blocking(domain.MsgSelectForEdit)).Type)
}
