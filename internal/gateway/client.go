// Package gateway talks to the remote ERP data endpoint. Every read and
// write goes through a generic parameter envelope naming a mapped statement
// (map), the tenant schema (table) and entity-specific fields.
package gateway

import (
	"context"
	"sort"

	"github.com/bcnelson/erp-console/internal/domain"
)

// Well-known statement names.
const (
	MapLogin      = "comm.login_s"
	MapMenu       = "comm.menu_s"
	MapCommonCode = "comm.comm_s"
)

// WriteKind selects the write endpoint.
type WriteKind int

const (
	WriteInsert WriteKind = iota
	WriteUpdate
	WriteDelete
)

func (k WriteKind) String() string {
	switch k {
	case WriteInsert:
		return "insert"
	case WriteUpdate:
		return "update"
	case WriteDelete:
		return "delete"
	}
	return "unknown"
}

// Request is the parameter envelope of one gateway call.
type Request struct {
	Map    string
	Table  string
	Params map[string]string
}

// ParamKeys returns the parameter names in sorted order.
func (r Request) ParamKeys() []string {
	keys := make([]string, 0, len(r.Params))
	for k := range r.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Client defines the interface for the remote data gateway.
type Client interface {
	// Query runs a read statement and returns its rows.
	Query(ctx context.Context, req Request) ([]domain.Record, error)
	// Write runs an insert, update or delete statement. A nil error means
	// the gateway reported a positive affected-row count.
	Write(ctx context.Context, kind WriteKind, req Request) error
	// Login authenticates a user against the login table.
	Login(ctx context.Context, userID, password string) (*domain.LoginResult, error)
}

// loginResultFromRow extracts the login result from the first row returned
// by the login statement.
func loginResultFromRow(userID string, row domain.Record) *domain.LoginResult {
	res := &domain.LoginResult{
		UserID:       userID,
		UserName:     row.Get("userName"),
		TenantSchema: row.Get("dboTable"),
		Raw:          row,
	}
	if res.UserName == "" {
		res.UserName = userID
	}
	return res
}
