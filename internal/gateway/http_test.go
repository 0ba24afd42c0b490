package gateway

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/bcnelson/erp-console/internal/domain"
	"github.com/go-faster/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

type captured struct {
	mu     sync.Mutex
	method string
	path   string
	form   url.Values
}

func (c *captured) snapshot() (string, string, url.Values) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.method, c.path, c.form
}

func newGateway(t *testing.T, body string, status int) (*HTTPClient, *captured) {
	t.Helper()
	got := &captured{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		got.mu.Lock()
		got.method = r.Method
		got.path = r.URL.Path
		got.form = r.Form
		got.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)

	c, err := NewHTTPClient(srv.URL+"/e4ssc-web/jsp", 2*time.Second, "ssc_00_demo.dbo", quietLogger())
	require.NoError(t, err)
	return c, got
}

func TestQuerySendsEnvelopeAndNormalizesRows(t *testing.T) {
	c, got := newGateway(t, `{"data":{"result":[{"HC11010":"001","HC11020":"Acme","CNT":12},{"HC11010":"002","HC11020":null}]}}`, 200)

	rows, err := c.Query(context.Background(), Request{
		Map:    "cd01.cd01110_s",
		Table:  "ssc_01.dbo",
		Params: map[string]string{"HC11011": "1"},
	})
	require.NoError(t, err)

	method, path, form := got.snapshot()
	assert.Equal(t, http.MethodGet, method)
	assert.Equal(t, "/e4ssc-web/jsp/comm.jsp", path)
	assert.Equal(t, "cd01.cd01110_s", form.Get("map"))
	assert.Equal(t, "ssc_01.dbo", form.Get("table"))
	assert.Equal(t, "1", form.Get("HC11011"))

	require.Len(t, rows, 2)
	assert.Equal(t, domain.Record{"HC11010": "001", "HC11020": "Acme", "CNT": "12"}, rows[0])
	assert.Equal(t, "", rows[1]["HC11020"])
}

func TestQueryApplicationError(t *testing.T) {
	c, _ := newGateway(t, `{"data":{"err":"ORA-00942"}}`, 200)

	_, err := c.Query(context.Background(), Request{Map: "cd01.cd01110_s"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrApplication))
	assert.False(t, errors.Is(err, domain.ErrTransport))

	var gwErr *domain.GatewayError
	require.True(t, errors.As(err, &gwErr))
	assert.Equal(t, "ORA-00942", gwErr.Message)
}

func TestQueryInvalidFormat(t *testing.T) {
	c, _ := newGateway(t, `{"data":{"result":"oops"}}`, 200)

	_, err := c.Query(context.Background(), Request{Map: "cd01.cd01110_s"})
	assert.True(t, errors.Is(err, domain.ErrInvalidFormat))
	assert.True(t, errors.Is(err, domain.ErrApplication))
}

func TestQueryTransportError(t *testing.T) {
	c, _ := newGateway(t, `boom`, http.StatusBadGateway)

	_, err := c.Query(context.Background(), Request{Map: "cd01.cd01110_s"})
	assert.True(t, errors.Is(err, domain.ErrTransport))
	assert.Contains(t, err.Error(), "cd01.cd01110_s: status 502")

	var te *domain.TransportError
	require.True(t, errors.As(err, &te))
	assert.EqualError(t, te.Err, "status 502")
}

func TestQueryTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	c, err := NewHTTPClient(srv.URL, 50*time.Millisecond, "", quietLogger())
	require.NoError(t, err)

	_, err = c.Query(context.Background(), Request{Map: "cd01.cd01110_s"})
	assert.True(t, errors.Is(err, domain.ErrTransport))
}

func TestWriteEndpointsAndResult(t *testing.T) {
	tests := []struct {
		name    string
		kind    WriteKind
		body    string
		path    string
		wantErr bool
	}{
		{"insert ok", WriteInsert, `{"data":{"result":1}}`, "/comm_insert.jsp", false},
		{"update ok", WriteUpdate, `{"data":{"result":"2"}}`, "/comm_update.jsp", false},
		{"delete ok", WriteDelete, `{"data":{"result":1}}`, "/comm_delete.jsp", false},
		{"zero rows", WriteUpdate, `{"data":{"result":0}}`, "/comm_update.jsp", true},
		{"err field", WriteDelete, `{"data":{"err":"FK violation"}}`, "/comm_delete.jsp", true},
		{"missing result", WriteInsert, `{"data":{}}`, "/comm_insert.jsp", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, got := newGateway(t, tt.body, 200)
			err := c.Write(context.Background(), tt.kind, Request{
				Map:    "cd01.cd01110_u",
				Table:  "t",
				Params: map[string]string{"HC11010": "001"},
			})
			method, path, form := got.snapshot()
			assert.Equal(t, http.MethodPost, method)
			assert.Equal(t, "/e4ssc-web/jsp"+tt.path, path)
			assert.Equal(t, "001", form.Get("HC11010"))
			if tt.wantErr {
				assert.True(t, errors.Is(err, domain.ErrApplication), "got %v", err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLogin(t *testing.T) {
	c, got := newGateway(t, `{"data":{"result":[{"userName":"홍길동","dboTable":"ssc_01.dbo"}]}}`, 200)

	res, err := c.Login(context.Background(), "hong", "secret")
	require.NoError(t, err)
	_, _, form := got.snapshot()
	assert.Equal(t, "comm.login_s", form.Get("map"))
	assert.Equal(t, "ssc_00_demo.dbo", form.Get("table"))
	assert.Equal(t, "hong", form.Get("userId"))
	assert.Equal(t, "secret", form.Get("passwd"))
	assert.Equal(t, "ssc_01.dbo", res.TenantSchema)
	assert.Equal(t, "홍길동", res.UserName)
}

func TestLoginRejected(t *testing.T) {
	c, _ := newGateway(t, `{"data":{"result":[]}}`, 200)
	_, err := c.Login(context.Background(), "hong", "bad")
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))

	c, _ = newGateway(t, `{"data":{"err":"비밀번호 오류"}}`, 200)
	_, err = c.Login(context.Background(), "hong", "bad")
	assert.True(t, errors.Is(err, domain.ErrApplication))
}
