package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bcnelson/erp-console/internal/domain"
	"github.com/go-faster/errors"
	"github.com/sirupsen/logrus"
)

const (
	readEndpoint = "comm.jsp"
	maxBodyBytes = 32 << 20
)

var writeEndpoints = map[WriteKind]string{
	WriteInsert: "comm_insert.jsp",
	WriteUpdate: "comm_update.jsp",
	WriteDelete: "comm_delete.jsp",
}

// HTTPClient is the production gateway client.
type HTTPClient struct {
	baseURL    *url.URL
	http       *http.Client
	loginTable string
	logger     *logrus.Logger
}

// Ensure HTTPClient implements Client.
var _ Client = (*HTTPClient)(nil)

// NewHTTPClient creates a gateway client rooted at baseURL.
func NewHTTPClient(baseURL string, timeout time.Duration, loginTable string, logger *logrus.Logger) (*HTTPClient, error) {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.Wrap(err, "parsing gateway base url")
	}
	return &HTTPClient{
		baseURL:    u,
		http:       &http.Client{Timeout: timeout},
		loginTable: loginTable,
		logger:     logger,
	}, nil
}

// envelope is the response body shape shared by every endpoint.
type envelope struct {
	Data struct {
		Result json.RawMessage `json:"result"`
		Err    any             `json:"err"`
	} `json:"data"`
}

func (c *HTTPClient) endpoint(name string) string {
	return c.baseURL.ResolveReference(&url.URL{Path: name}).String()
}

func encodeForm(req Request) url.Values {
	form := url.Values{}
	form.Set("map", req.Map)
	form.Set("table", req.Table)
	for k, v := range req.Params {
		form.Set(k, v)
	}
	return form
}

// Query runs a read statement with GET comm.jsp.
func (c *HTTPClient) Query(ctx context.Context, req Request) ([]domain.Record, error) {
	target := c.endpoint(readEndpoint) + "?" + encodeForm(req).Encode()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, errors.Wrap(err, "building request")
	}

	env, err := c.do(httpReq, req.Map)
	if err != nil {
		return nil, err
	}
	return decodeRows(req.Map, env.Data.Result)
}

// Write posts the envelope to the endpoint of kind.
func (c *HTTPClient) Write(ctx context.Context, kind WriteKind, req Request) error {
	endpoint, ok := writeEndpoints[kind]
	if !ok {
		return errors.Errorf("unknown write kind %d", kind)
	}
	env, err := c.post(ctx, endpoint, req)
	if err != nil {
		return err
	}
	return checkAffected(req.Map, env.Data.Result)
}

// Login posts the credentials to the login statement.
func (c *HTTPClient) Login(ctx context.Context, userID, password string) (*domain.LoginResult, error) {
	req := Request{
		Map:    MapLogin,
		Table:  c.loginTable,
		Params: map[string]string{"userId": userID, "passwd": password},
	}
	env, err := c.post(ctx, readEndpoint, req)
	if err != nil {
		return nil, err
	}
	rows, err := decodeRows(req.Map, env.Data.Result)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, domain.ErrUnauthorized
	}
	res := loginResultFromRow(userID, rows[0])
	if res.TenantSchema == "" {
		res.TenantSchema = c.loginTable
	}
	return res, nil
}

func (c *HTTPClient) post(ctx context.Context, endpoint string, req Request) (*envelope, error) {
	body := encodeForm(req).Encode()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(endpoint), strings.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "building request")
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(httpReq, req.Map)
}

func (c *HTTPClient) do(httpReq *http.Request, mapName string) (*envelope, error) {
	start := time.Now()
	log := c.logger.WithFields(logrus.Fields{
		"map":    mapName,
		"method": httpReq.Method,
	})

	resp, err := c.http.Do(httpReq)
	if err != nil {
		log.WithError(err).Warn("gateway request failed")
		return nil, &domain.TransportError{Map: mapName, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &domain.TransportError{Map: mapName, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.WithField("status", resp.StatusCode).Warn("gateway returned error status")
		return nil, &domain.TransportError{Map: mapName, Err: errors.Errorf("status %d", resp.StatusCode)}
	}

	var env envelope
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&env); err != nil {
		return nil, errors.Wrapf(domain.ErrInvalidFormat, "%s: decoding response: %v", mapName, err)
	}
	if msg := errMessage(env.Data.Err); msg != "" {
		log.WithField("err", msg).Info("gateway reported failure")
		return nil, &domain.GatewayError{Map: mapName, Message: msg}
	}

	log.WithField("duration", time.Since(start)).Debug("gateway request completed")
	return &env, nil
}

// errMessage extracts the failure text from the err field. Absent, null,
// false and empty values mean success.
func errMessage(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case bool:
		if val {
			return "error"
		}
		return ""
	default:
		return fmt.Sprint(val)
	}
}

func decodeRows(mapName string, raw json.RawMessage) ([]domain.Record, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return []domain.Record{}, nil
	}
	var items []map[string]any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&items); err != nil {
		return nil, errors.Wrapf(domain.ErrInvalidFormat, "%s: result is not a list of rows", mapName)
	}
	rows := make([]domain.Record, 0, len(items))
	for _, item := range items {
		rows = append(rows, domain.NormalizeRecord(item))
	}
	return rows, nil
}

func checkAffected(mapName string, raw json.RawMessage) error {
	var n json.Number
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&n); err != nil {
		// Some statements answer with a quoted count.
		var s string
		if json.Unmarshal(raw, &s) != nil {
			return &domain.GatewayError{Map: mapName, Message: "write returned no result"}
		}
		n = json.Number(strings.TrimSpace(s))
	}
	count, err := n.Float64()
	if err != nil || count <= 0 {
		return &domain.GatewayError{Map: mapName, Message: "write affected no rows"}
	}
	return nil
}
