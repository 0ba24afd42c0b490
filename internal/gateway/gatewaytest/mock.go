// Package gatewaytest provides a scripted gateway.Client for tests.
package gatewaytest

import (
	"context"
	"sync"

	"github.com/bcnelson/erp-console/internal/domain"
	"github.com/bcnelson/erp-console/internal/gateway"
)

// Call is one recorded gateway invocation. Kind is "query", "login" or the
// write kind name.
type Call struct {
	Kind    string
	Request gateway.Request
}

// Mock answers queries from Rows and fails statements listed in Errs.
type Mock struct {
	mu sync.Mutex

	Rows  map[string][]domain.Record
	Errs  map[string]error
	Calls []Call

	// QueryFunc, when set, answers every query instead of Rows.
	QueryFunc func(ctx context.Context, req gateway.Request) ([]domain.Record, error)

	LoginResult *domain.LoginResult
	LoginErr error
}

// Ensure Mock implements gateway.Client.
var _ gateway.Client = (*Mock)(nil)

// New returns an empty mock.
func New() *Mock {
	return &Mock{
		Rows: make(map[string][]domain.Record),
		Errs: make(map[string]error),
	}
}

func (m *Mock) record(kind string, req gateway.Request) {
	params := make(map[string]string, len(req.Params))
	for k, v := range req.Params {
		params[k] = v
	}
	req.Params = params
	m.Calls = append(m.Calls, Call{Kind: kind, Request: req})
}

// SetRows scripts the rows returned for a statement.
func (m *Mock) SetRows(mapName string, rows ...domain.Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Rows[mapName] = rows
}

// SetErr scripts a failure for a statement.
func (m *Mock) SetErr(mapName string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Errs[mapName] = err
}

func (m *Mock) Query(ctx context.Context, req gateway.Request) ([]domain.Record, error) {
	m.mu.Lock()
	m.record("query", req)
	fn := m.QueryFunc
	err := m.Errs[req.Map]
	rows := m.Rows[req.Map]
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, req)
	}
	if err != nil {
		return nil, err
	}
	out := make([]domain.Record, len(rows))
	for i, r := range rows {
		out[i] = r.Clone()
	}
	return out, nil
}

func (m *Mock) Write(ctx context.Context, kind gateway.WriteKind, req gateway.Request) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record(kind.String(), req)
	return m.Errs[req.Map]
}

func (m *Mock) Login(ctx context.Context, userID, password string) (*domain.LoginResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("login", gateway.Request{Map: gateway.MapLogin, Params: map[string]string{"userId": userID}})
	if m.LoginErr != nil {
		return nil, m.LoginErr
	}
	if m.LoginResult == nil {
		return nil, domain.ErrUnauthorized
	}
	res := *m.LoginResult
	return &res, nil
}

// CallsOf returns the recorded calls of one kind.
func (m *Mock) CallsOf(kind string) []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Call
	for _, c := range m.Calls {
		if c.Kind == kind {
			out = append(out, c)
		}
	}
	return out
}

// CallCount returns the number of recorded calls.
func (m *Mock) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
